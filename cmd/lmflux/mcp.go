package main

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/hupe1980/lmflux/core"
	"github.com/hupe1980/lmflux/memory"
	"github.com/hupe1980/lmflux/tool/mcptool"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the built-in tools over MCP (stdio)",
	Long: `Serve the built-in tools to an MCP host over stdin/stdout.

All calls share one session, so state and memory tools keep their values
for the lifetime of the process.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, _ []string) error {
	s, err := newMCPServer()
	if err != nil {
		return err
	}
	logger.Info("cli.mcp.serve", "transport", "stdio")
	return server.ServeStdio(s)
}

func newMCPServer() (*server.MCPServer, error) {
	tools, err := builtinTools(memory.NewInMemoryStore())
	if err != nil {
		return nil, err
	}
	sess := core.NewSession(core.WithSessionID("mcp"), core.WithLogger(logger))

	return mcptool.NewServer("lmflux", tools, func(o *mcptool.ServerOptions) {
		o.Version = Version
		o.Session = sess
		o.Logger = logger
	})
}
