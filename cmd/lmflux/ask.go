package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/lmflux"
	"github.com/hupe1980/lmflux/agent"
	"github.com/hupe1980/lmflux/core"
	"github.com/hupe1980/lmflux/tool"
)

var askCmd = &cobra.Command{
	Use:   "ask <agent-id> <query>",
	Short: "Send a single query to a tool-calling agent",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runAsk,
}

var (
	askSystem   string
	askTemplate string
	askFormat   string
	askNoTools  bool
	askTrace    bool
	askSession  string
)

func init() {
	askCmd.Flags().StringVar(&askSystem, "system", "", "System prompt (default \"You are a helpful assistant.\")")
	askCmd.Flags().StringVar(&askTemplate, "template", "", "System prompt template id, resolved against template_dir")
	askCmd.Flags().StringVar(&askFormat, "format", "terminal", "Output format: terminal, plain or html")
	askCmd.Flags().BoolVar(&askNoTools, "no-tools", false, "Do not offer the built-in tools")
	askCmd.Flags().BoolVar(&askTrace, "trace", false, "Print every tool call")
	askCmd.Flags().StringVar(&askSession, "session", "cli", "Session id")
}

func runAsk(cmd *cobra.Command, args []string) error {
	id, query := args[0], strings.Join(args[1:], " ")

	flux := lmflux.New(func(o *lmflux.Options) { o.Logger = logger })

	var tools []*tool.Tool
	if !askNoTools {
		var err error
		if tools, err = builtinTools(flux.Memory()); err != nil {
			return err
		}
	}

	a, err := newAgent(cfg, logger, id, systemPrompt(cfg, askTemplate, askSystem), tools...)
	if err != nil {
		return err
	}

	if askTrace {
		out := cmd.ErrOrStderr()
		a.AddToolCallback(func(a *agent.Agent, call tool.Request, result any, _ *core.Session) {
			fmt.Fprintf(out, "%s %s(%s) -> %s\n",
				labelStyle.Render("["+a.ID()+"]"), call.Call.Name, call.Call.Arguments, tool.Stringify(result))
		})
	}

	sink, err := newSink(cmd.OutOrStdout(), askFormat)
	if err != nil {
		return err
	}

	if err := flux.RegisterAgent(a); err != nil {
		return err
	}
	reply, err := flux.Invoke(cmd.Context(), askSession, id, query)
	if err != nil {
		return err
	}
	return sink.Render(fmt.Sprintf("**%s**:\n\n%s", id, reply.Content))
}
