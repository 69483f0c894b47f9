package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/lmflux/agent"
	"github.com/hupe1980/lmflux/core"
	"github.com/hupe1980/lmflux/graph/task"
	"github.com/hupe1980/lmflux/render"
)

var taskCmd = &cobra.Command{
	Use:   "task [topic]",
	Short: "Run the draft/refine demo pipeline",
	RunE:  runTask,
}

var (
	taskMermaid bool
	taskRounds  int
	taskFormat  string
)

func init() {
	taskCmd.Flags().BoolVar(&taskMermaid, "mermaid", false, "Print the pipeline as a Mermaid chart instead of running it")
	taskCmd.Flags().IntVar(&taskRounds, "rounds", 2, "Refinement rounds")
	taskCmd.Flags().StringVar(&taskFormat, "format", "terminal", "Output format: terminal, plain or html")
}

func buildPipeline(sink render.Sink, topic string) (*task.Graph, error) {
	writer, err := newAgent(cfg, logger, "writer", systemPrompt(cfg, "", "You write short, clear paragraphs."))
	if err != nil {
		return nil, err
	}
	editor, err := newAgent(cfg, logger, "editor", systemPrompt(cfg, "", "You improve the text you are given and return only the improved text."))
	if err != nil {
		return nil, err
	}

	prepare := task.NewTransformer("prepare", func(_ context.Context, s *core.Session) error {
		s.Set("topic", topic)
		return nil
	})

	draft := task.NewAgentic("draft", writer, func(ctx context.Context, a *agent.Agent, s *core.Session) error {
		t, _ := s.Get("topic")
		text, err := a.Ask(ctx, fmt.Sprintf("Write one paragraph about %v.", t), s)
		s.Set("draft", text)
		return err
	})

	body := task.New(func(o *task.Options) {
		o.Name = "refine"
		o.Logger = logger
	})
	if _, err := body.Add(task.NewAgentic("edit", editor, func(ctx context.Context, a *agent.Agent, s *core.Session) error {
		d, _ := s.Get("draft")
		a.ResetState()
		text, err := a.Ask(ctx, fmt.Sprint(d), s)
		if err != nil {
			return err
		}
		s.Set("draft", text)
		s.Context().SetCumulative("revisions", text)
		return nil
	})); err != nil {
		return nil, err
	}
	refine := task.NewLoop("refine", body, func(o *task.LoopOptions) { o.MaxIters = taskRounds })

	report := task.NewTransformer("report", func(_ context.Context, s *core.Session) error {
		d, _ := s.Get("draft")
		revisions := len(s.Context().GetCumulative("revisions"))
		return sink.Render(fmt.Sprintf("**%s** (%d revisions):\n\n%v", topic, revisions, d))
	})

	g := task.New(func(o *task.Options) {
		o.Name = "pipeline"
		o.Logger = logger
	})
	if err := g.Chain(prepare, draft, refine, report); err != nil {
		return nil, err
	}
	return g, nil
}

func runTask(cmd *cobra.Command, args []string) error {
	sink, err := newSink(cmd.OutOrStdout(), taskFormat)
	if err != nil {
		return err
	}

	topic := strings.Join(args, " ")
	if topic == "" {
		topic = "graph-based agent orchestration"
	}

	g, err := buildPipeline(sink, topic)
	if err != nil {
		return err
	}

	if taskMermaid {
		return sink.Render(render.MarkdownBlock("mermaid", g.Mermaid()))
	}

	_, err = g.Run(cmd.Context(), nil)
	return err
}
