package main

import (
	"fmt"
	"io"
	"os"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/lmflux/agent"
	"github.com/hupe1980/lmflux/config"
	"github.com/hupe1980/lmflux/core"
	"github.com/hupe1980/lmflux/engine"
	"github.com/hupe1980/lmflux/logging"
	"github.com/hupe1980/lmflux/model"
	"github.com/hupe1980/lmflux/model/anthropic"
	"github.com/hupe1980/lmflux/model/openai"
	"github.com/hupe1980/lmflux/prompt"
	"github.com/hupe1980/lmflux/render"
	"github.com/hupe1980/lmflux/tool"
)

// newModel builds the provider named in c, throttled when
// RequestsPerSecond is set.
func newModel(c config.Config) (model.Model, error) {
	var m model.Model
	switch c.Provider {
	case "openai":
		m = openai.NewModel(func(o *openai.Options) {
			o.Model = c.Model
			o.BaseURL = c.BaseURL
			o.APIKey = c.APIKey
			o.Temperature = c.Temperature
			if c.MaxTokens > 0 {
				o.MaxCompletionTokens = int64(c.MaxTokens)
			}
		})
	case "anthropic":
		m = anthropic.NewModel(func(o *anthropic.Options) {
			o.Model = anthropicsdk.Model(c.Model)
			o.BaseURL = c.BaseURL
			o.APIKey = c.APIKey
			o.Temperature = c.Temperature
			if c.MaxTokens > 0 {
				o.MaxTokens = int64(c.MaxTokens)
			}
		})
	case "echo":
		m = model.NewEchoModel(c.Model)
	default:
		return nil, fmt.Errorf("unknown provider %q", c.Provider)
	}

	if c.RequestsPerSecond > 0 {
		m = model.RateLimited(m, model.PerSecond(c.RequestsPerSecond))
	}
	return m, nil
}

// systemPrompt resolves a template id against TemplateDir, or uses text.
func systemPrompt(c config.Config, templateID, text string) prompt.Prompt {
	if templateID != "" {
		templates := prompt.NewTemplates(func(o *prompt.TemplatesOptions) { o.Dir = c.TemplateDir })
		return prompt.Templated(templateID, core.RoleSystem, templates)
	}
	return prompt.System(text)
}

func newAgent(c config.Config, l logging.Logger, id string, p prompt.Prompt, tools ...*tool.Tool) (*agent.Agent, error) {
	m, err := newModel(c)
	if err != nil {
		return nil, err
	}

	e, err := engine.New(m, p, func(o *engine.Options) {
		o.Logger = l
		o.LLMOptions = c.Options()
		o.MaxToolRounds = 10
	})
	if err != nil {
		return nil, err
	}
	return agent.New(id, e, agent.WithLogger(l), agent.WithTools(tools...))
}

func newSink(w io.Writer, format string) (render.Sink, error) {
	switch format {
	case "", "terminal":
		return render.NewTerminalSink(w), nil
	case "plain", "markdown":
		return render.NewWriterSink(w), nil
	case "html":
		return render.NewHTMLSink(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

func stdoutSink(format string) (render.Sink, error) { return newSink(os.Stdout, format) }
