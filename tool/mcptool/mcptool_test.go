package mcptool

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/lmflux/core"
	"github.com/hupe1980/lmflux/tool"
)

type fakeClient struct {
	tools []mcp.Tool
	calls []mcp.CallToolRequest
	reply *mcp.CallToolResult
	err   error
}

func (f *fakeClient) ListTools(context.Context, mcp.ListToolsRequest) (*mcp.ListToolsResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &mcp.ListToolsResult{Tools: f.tools}, nil
}

func (f *fakeClient) CallTool(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f.calls = append(f.calls, req)
	return f.reply, nil
}

func searchTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search",
		Description: "Search the archive",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"query": map[string]any{"type": "string", "description": "What to look for"},
				"limit": map[string]any{"type": "integer"},
				"tags":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			},
			Required: []string{"query"},
		},
	}
}

func TestParamFromSchema(t *testing.T) {
	p := ParamFromSchema("parameters", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"b": map[string]any{"type": []any{"null", "number"}},
			"a": map[string]any{
				"type":       "object",
				"properties": map[string]any{"x": map[string]any{"type": "boolean"}},
				"required":   []any{"x"},
			},
		},
		"required": []any{"a"},
	})

	require.NoError(t, p.Validate())
	require.Len(t, p.Properties, 2)
	assert.Equal(t, "a", p.Properties[0].Name)
	assert.True(t, p.Properties[0].Required)
	assert.True(t, p.Properties[0].Properties[0].Required)
	assert.Equal(t, tool.KindNumber, p.Properties[1].Kind)
	assert.False(t, p.Properties[1].Required)
}

func TestImport(t *testing.T) {
	fc := &fakeClient{
		tools: []mcp.Tool{searchTool()},
		reply: mcp.NewToolResultText("3 hits"),
	}

	tools, err := Import(context.Background(), fc)
	require.NoError(t, err)
	require.Len(t, tools, 1)

	search := tools[0]
	assert.Equal(t, "search", search.Name())
	assert.Equal(t, []string{"limit", "query", "tags[]"}, search.Root().LeafNames())
	assert.Equal(t, []string{"query"}, search.Parameters()["required"])

	v, err := search.Call(context.Background(), map[string]any{"query": "owls"})
	require.NoError(t, err)
	assert.Equal(t, "3 hits", v)
	require.Len(t, fc.calls, 1)
	assert.Equal(t, "search", fc.calls[0].Params.Name)
	assert.Equal(t, "owls", fc.calls[0].GetArguments()["query"])
}

func TestImport_ListError(t *testing.T) {
	_, err := Import(context.Background(), &fakeClient{err: errors.New("offline")})
	require.ErrorContains(t, err, "offline")
}

func TestFromMCP_RejectsEnums(t *testing.T) {
	mt := mcp.Tool{
		Name:        "mode",
		Description: "Switch mode",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"mode": map[string]any{"type": "string", "enum": []any{"fast", "slow"}},
			},
		},
	}

	_, err := FromMCP(mt, &fakeClient{})
	var de *tool.DefinitionError
	require.ErrorAs(t, err, &de)
	assert.Contains(t, de.Message, "Enums not implemented yet")
}

func TestFromMCP_ErrorResult(t *testing.T) {
	fc := &fakeClient{reply: mcp.NewToolResultError("quota exceeded")}
	search, err := FromMCP(searchTool(), fc)
	require.NoError(t, err)

	_, _, err = tool.Invoke(context.Background(), []*tool.Tool{search}, tool.Request{
		Call: core.ToolCall{ID: "c1", Name: "search", Arguments: `{"query":"x"}`},
	})
	var toolErr *tool.ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, tool.CodeExecution, toolErr.Code)
	assert.Contains(t, toolErr.Message, "quota exceeded")
}

func TestServerHandler(t *testing.T) {
	add := tool.MustNew("add", "Adds two numbers",
		tool.Object("parameters", tool.Number("a"), tool.Number("b")),
		func(_ context.Context, args map[string]any) (any, error) {
			return args["a"].(float64) + args["b"].(float64), nil
		})

	sess := core.NewSession()
	h := handler(add, sess, nil)

	req := mcp.CallToolRequest{}
	req.Params.Name = "add"
	req.Params.Arguments = map[string]any{"a": 1.5, "b": 2.0}

	res, err := h(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "3.5", res.Content[0].(mcp.TextContent).Text)
}

func TestServerHandler_StateSharedAcrossCalls(t *testing.T) {
	var set, get *tool.Tool
	for _, st := range tool.StateTools() {
		switch st.Name() {
		case "set_state":
			set = st
		case "get_state":
			get = st
		}
	}
	require.NotNil(t, set)
	require.NotNil(t, get)

	sess := core.NewSession()
	s, err := NewServer("lmflux", []*tool.Tool{set, get}, func(o *ServerOptions) { o.Session = sess })
	require.NoError(t, err)
	require.NotNil(t, s)

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"key": "city", "value": "Lisbon"}
	_, err = handler(set, sess, nil)(context.Background(), req)
	require.NoError(t, err)

	v, ok := sess.Get("city")
	require.True(t, ok)
	assert.Equal(t, "Lisbon", v)
}

func TestDefinition(t *testing.T) {
	add := tool.MustNew("noop", "Does nothing", tool.Object("parameters"),
		func(context.Context, map[string]any) (any, error) { return nil, nil })

	def, err := Definition(add)
	require.NoError(t, err)
	assert.Equal(t, "noop", def.Name)
	assert.Equal(t, "Does nothing", def.Description)
	assert.JSONEq(t, `{"type":"object","properties":{}}`, string(def.RawInputSchema))
}
