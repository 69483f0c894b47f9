package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/lmflux/graph/mesh"
	"github.com/hupe1980/lmflux/memory"
	"github.com/hupe1980/lmflux/render"
)

var meshCmd = &cobra.Command{
	Use:   "mesh <query>",
	Short: "Run the planner/researcher demo mesh and print its trace",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMesh,
}

var (
	meshMermaid  bool
	meshTopology bool
	meshProgress bool
	meshFormat   string
)

func init() {
	meshCmd.Flags().BoolVar(&meshMermaid, "mermaid", false, "Render the trace as a Mermaid chart instead of Markdown")
	meshCmd.Flags().BoolVar(&meshTopology, "topology", false, "Only print which agent can call which")
	meshCmd.Flags().BoolVar(&meshProgress, "progress", false, "Re-render the trace after every conversation update")
	meshCmd.Flags().StringVar(&meshFormat, "format", "terminal", "Output format: terminal, plain or html")
}

const (
	plannerPrompt = "You are a planner. Break the user's request into questions, " +
		"delegate research questions to your researcher and combine the answers."
	researcherPrompt = "You are a researcher. Answer the question you are given " +
		"with concise facts. Use your tools when they help."
)

func buildDemoMesh(m *mesh.Graph) (*mesh.Graph, error) {
	tools, err := builtinTools(memory.NewInMemoryStore())
	if err != nil {
		return nil, err
	}

	planner, err := newAgent(cfg, logger, "planner", systemPrompt(cfg, "", plannerPrompt))
	if err != nil {
		return nil, err
	}
	researcher, err := newAgent(cfg, logger, "researcher", systemPrompt(cfg, "", researcherPrompt), tools...)
	if err != nil {
		return nil, err
	}

	if err := m.Connect(planner, researcher, "Ask the researcher a factual question and get a concise answer"); err != nil {
		return nil, err
	}
	return m, nil
}

func runMesh(cmd *cobra.Command, args []string) error {
	sink, err := newSink(cmd.OutOrStdout(), meshFormat)
	if err != nil {
		return err
	}

	m, err := buildDemoMesh(mesh.New(func(o *mesh.Options) {
		o.Logger = logger
		o.Sink = sink
	}))
	if err != nil {
		return err
	}

	if meshTopology {
		return sink.Render(render.MarkdownBlock("mermaid", m.Mermaid()))
	}
	if meshMermaid {
		m.UseMermaid()
	}

	planner, _ := m.Agent("planner")
	var opts []func(*mesh.QueryOptions)
	if meshProgress {
		opts = append(opts, mesh.ShowProgress())
	}

	if _, err := m.Query(cmd.Context(), planner, strings.Join(args, " "), opts...); err != nil {
		return err
	}
	if meshProgress {
		return nil
	}
	return m.ShowResult()
}
