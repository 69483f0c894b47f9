package agent

import (
	"github.com/hupe1980/lmflux/core"
	"github.com/hupe1980/lmflux/engine"
	"github.com/hupe1980/lmflux/logging"
	"github.com/hupe1980/lmflux/model"
	"github.com/hupe1980/lmflux/model/openai"
	"github.com/hupe1980/lmflux/prompt"
	"github.com/hupe1980/lmflux/tool"
	"golang.org/x/time/rate"
)

// OpenAIOptions configures OpenAIAgent.
type OpenAIOptions struct {
	// Prompt is the system prompt. Defaults to prompt.System("").
	Prompt prompt.Prompt

	// BaseURL and APIKey fall back to OPENAI_API_BASE and OPENAI_API_KEY.
	BaseURL string
	APIKey  string

	LLMOptions    core.LLMOptions
	MaxToolRounds int

	// Limiter throttles model calls when set.
	Limiter *rate.Limiter

	Logger logging.Logger
	Tools  []*tool.Tool
}

// OpenAIAgent creates an agent backed by an OpenAI-compatible chat
// completions endpoint serving modelID.
func OpenAIAgent(id, modelID string, optFns ...func(o *OpenAIOptions)) (*Agent, error) {
	opts := OpenAIOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	var m model.Model = openai.NewModel(func(o *openai.Options) {
		o.Model = modelID
		o.BaseURL = opts.BaseURL
		o.APIKey = opts.APIKey
	})
	if opts.Limiter != nil {
		m = model.RateLimited(m, opts.Limiter)
	}

	e, err := engine.New(m, opts.Prompt, func(o *engine.Options) {
		o.Logger = opts.Logger
		o.LLMOptions = opts.LLMOptions
		o.MaxToolRounds = opts.MaxToolRounds
	})
	if err != nil {
		return nil, err
	}

	return New(id, e, WithLogger(opts.Logger), WithTools(opts.Tools...))
}
