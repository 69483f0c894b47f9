// Package mcptool bridges lmflux tools and the Model Context Protocol.
//
// Import turns the tools listed by an MCP client into *tool.Tool values whose
// calls are forwarded to the client. NewServer does the opposite: it exposes
// lmflux tools on an MCP server so other hosts can call them.
//
// Input schemas are converted into the tool parameter model, so the usual
// typing rules apply: enumerations, untyped values and nested lists are
// rejected when the tool is imported.
package mcptool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hupe1980/lmflux/core"
	"github.com/hupe1980/lmflux/logging"
	"github.com/hupe1980/lmflux/tool"
)

// Caller executes MCP tool calls. *client.Client satisfies it.
type Caller interface {
	CallTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// Client lists and executes MCP tools. *client.Client satisfies it.
type Client interface {
	Caller
	ListTools(ctx context.Context, req mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
}

// Import lists the tools offered by c and wraps each one. The first tool that
// cannot be represented aborts the import.
func Import(ctx context.Context, c Client) ([]*tool.Tool, error) {
	res, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("mcp list tools: %w", err)
	}

	out := make([]*tool.Tool, 0, len(res.Tools))
	for _, t := range res.Tools {
		wrapped, err := FromMCP(t, c)
		if err != nil {
			return nil, err
		}
		out = append(out, wrapped)
	}
	return out, nil
}

// FromMCP wraps a single MCP tool definition; calls are sent through c.
func FromMCP(t mcp.Tool, c Caller) (*tool.Tool, error) {
	schema, err := inputSchema(t)
	if err != nil {
		return nil, &tool.DefinitionError{Tool: t.Name, Message: err.Error()}
	}

	root := ParamFromSchema("parameters", schema)
	if root.Kind == "" {
		root.Kind = tool.KindObject
	}

	name := t.Name
	return tool.New(name, t.Description, root, func(ctx context.Context, args map[string]any) (any, error) {
		req := mcp.CallToolRequest{}
		req.Params.Name = name
		req.Params.Arguments = args

		res, err := c.CallTool(ctx, req)
		if err != nil {
			return nil, err
		}
		return resultValue(res)
	})
}

func inputSchema(t mcp.Tool) (map[string]any, error) {
	if len(t.RawInputSchema) > 0 {
		var m map[string]any
		if err := json.Unmarshal(t.RawInputSchema, &m); err != nil {
			return nil, fmt.Errorf("invalid input schema: %w", err)
		}
		return m, nil
	}

	m := map[string]any{"type": t.InputSchema.Type}
	if t.InputSchema.Properties != nil {
		m["properties"] = t.InputSchema.Properties
	}
	if len(t.InputSchema.Required) > 0 {
		required := make([]any, len(t.InputSchema.Required))
		for i, r := range t.InputSchema.Required {
			required[i] = r
		}
		m["required"] = required
	}
	return m, nil
}

// ParamFromSchema converts a JSON schema fragment into a Param. Properties are
// ordered by name. The result is not validated; tool.New does that.
func ParamFromSchema(name string, schema map[string]any) tool.Param {
	p := tool.Param{
		Name:        name,
		Kind:        schemaKind(schema["type"]),
		Description: stringValue(schema["description"]),
		Required:    true,
	}

	if enum, ok := schema["enum"].([]any); ok {
		for _, v := range enum {
			p.Enum = append(p.Enum, fmt.Sprint(v))
		}
	}

	switch p.Kind {
	case tool.KindObject:
		props, _ := schema["properties"].(map[string]any)
		required := stringSet(schema["required"])

		names := make([]string, 0, len(props))
		for n := range props {
			names = append(names, n)
		}
		sort.Strings(names)

		for _, n := range names {
			sub, _ := props[n].(map[string]any)
			child := ParamFromSchema(n, sub)
			child.Required = required[n]
			p.Properties = append(p.Properties, child)
		}
	case tool.KindArray:
		if items, ok := schema["items"].(map[string]any); ok {
			it := ParamFromSchema(name, items)
			p.Items = &it
		}
	}
	return p
}

func schemaKind(v any) tool.Kind {
	switch t := v.(type) {
	case string:
		return tool.Kind(t)
	case []any:
		// ["string", "null"] style nullable types
		for _, e := range t {
			if s, ok := e.(string); ok && s != "null" {
				return tool.Kind(s)
			}
		}
	}
	return ""
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func stringSet(v any) map[string]bool {
	out := map[string]bool{}
	switch t := v.(type) {
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok {
				out[s] = true
			}
		}
	case []string:
		for _, s := range t {
			out[s] = true
		}
	}
	return out
}

// resultValue flattens the text content of res. Results flagged as errors are
// returned as errors.
func resultValue(res *mcp.CallToolResult) (any, error) {
	if res == nil {
		return "", nil
	}

	var parts []string
	for _, c := range res.Content {
		switch tc := c.(type) {
		case mcp.TextContent:
			parts = append(parts, tc.Text)
		case *mcp.TextContent:
			parts = append(parts, tc.Text)
		default:
			parts = append(parts, fmt.Sprintf("[%T content omitted]", c))
		}
	}
	text := strings.Join(parts, "\n")

	if res.IsError {
		if text == "" {
			text = "tool reported an error"
		}
		return nil, errors.New(text)
	}
	return text, nil
}

// ServerOptions configures NewServer.
type ServerOptions struct {
	// Version reported to MCP clients.
	Version string

	// Session is attached to every call so state tools work across calls.
	// Defaults to a fresh session.
	Session *core.Session

	Logger logging.Logger
}

// NewServer exposes tools on a new MCP server. Serve it with
// server.ServeStdio or one of the other mcp-go transports.
func NewServer(name string, tools []*tool.Tool, optFns ...func(o *ServerOptions)) (*server.MCPServer, error) {
	opts := ServerOptions{Version: "0.1.0", Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Session == nil {
		opts.Session = core.NewSession(core.WithLogger(opts.Logger))
	}

	s := server.NewMCPServer(name, opts.Version, server.WithToolCapabilities(false))
	for _, t := range tools {
		def, err := Definition(t)
		if err != nil {
			return nil, err
		}
		s.AddTool(def, handler(t, opts.Session, opts.Logger))
	}
	return s, nil
}

// Definition describes t as an MCP tool.
func Definition(t *tool.Tool) (mcp.Tool, error) {
	raw, err := json.Marshal(t.Parameters())
	if err != nil {
		return mcp.Tool{}, fmt.Errorf("encode schema of %s: %w", t.Name(), err)
	}
	return mcp.NewToolWithRawSchema(t.Name(), t.Description(), raw), nil
}

func handler(t *tool.Tool, sess *core.Session, l logging.Logger) server.ToolHandlerFunc {
	if l == nil {
		l = logging.NoOpLogger{}
	}
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		l.Debug("mcp.tool.call", "tool", t.Name())

		args := req.GetArguments()
		if args == nil {
			args = map[string]any{}
		}

		result, err := t.Call(core.ContextWithSession(ctx, sess), args)
		if err != nil {
			l.Warn("mcp.tool.error", "tool", t.Name(), "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(tool.Stringify(result)), nil
	}
}
