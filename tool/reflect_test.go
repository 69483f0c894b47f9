package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/lmflux/core"
)

type weatherArgs struct {
	City  string   `json:"city" description:"City name"`
	Days  *int     `json:"days" description:"Forecast length"`
	Tags  []string `json:"tags,omitempty"`
	Point struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"point"`
	hidden string
}

func TestFromFunc_BuildsParamTree(t *testing.T) {
	tl, err := FromFunc("weather", "Get the weather", func(_ context.Context, in weatherArgs) (any, error) {
		return in.City, nil
	})
	require.NoError(t, err)

	root := tl.Root()
	assert.Equal(t, []string{"city", "days", "tags[]", "point.lat", "point.lon"}, root.LeafNames())
	assert.Equal(t, []string{"city", "point"}, tl.Parameters()["required"])

	msg, result, err := Invoke(context.Background(), []*Tool{tl}, Request{Call: core.ToolCall{
		ID: "c1", Name: "weather", Arguments: `{"city":"Berlin","point":{"lat":1,"lon":2}}`,
	}})
	require.NoError(t, err)
	assert.Equal(t, "Berlin", msg.Content)
	assert.Equal(t, "Berlin", result)
}

func TestFromFunc_Rejections(t *testing.T) {
	_, err := FromFunc("t", "", func(context.Context, struct{ A string }) (any, error) { return nil, nil })
	assert.ErrorContains(t, err, "Tools are required to have descriptions")

	_, err = FromFunc("t", "d", func(context.Context, struct {
		Day string `json:"day" enum:"mon,tue"`
	}) (any, error) {
		return nil, nil
	})
	assert.ErrorContains(t, err, "Enums not implemented yet")

	_, err = FromFunc("t", "d", func(context.Context, struct{ B []byte }) (any, error) { return nil, nil })
	assert.ErrorContains(t, err, "Cannot define tool of type []uint8")

	_, err = FromFunc("t", "d", func(context.Context, struct{ C complex128 }) (any, error) { return nil, nil })
	assert.ErrorContains(t, err, "Cannot define tool of type complex128")

	_, err = FromFunc("t", "d", func(context.Context, struct{ X any }) (any, error) { return nil, nil })
	assert.ErrorContains(t, err, "Tools are required to be typed")

	_, err = FromFunc("t", "d", func(context.Context, struct{ M map[string]string }) (any, error) { return nil, nil })
	assert.ErrorContains(t, err, "only lists are supported for now")

	_, err = FromFunc("t", "d", func(context.Context, struct{ L []any }) (any, error) { return nil, nil })
	assert.ErrorContains(t, err, "To use list please define the sub type")

	_, err = FromFunc("t", "d", func(context.Context, string) (any, error) { return nil, nil })
	assert.ErrorContains(t, err, "Cannot define tool of type string")
}

type fakeLangchainTool struct{ calls []string }

func (f *fakeLangchainTool) Name() string        { return "echo" }
func (f *fakeLangchainTool) Description() string { return "Echoes its input" }
func (f *fakeLangchainTool) Call(_ context.Context, input string) (string, error) {
	f.calls = append(f.calls, input)
	return "echo: " + input, nil
}

func TestFromLangchain(t *testing.T) {
	lc := &fakeLangchainTool{}
	tl, err := FromLangchain(lc)
	require.NoError(t, err)
	assert.Equal(t, []string{"input"}, tl.Parameters()["required"])

	msg, _, err := Invoke(context.Background(), []*Tool{tl}, Request{Call: core.ToolCall{ID: "1", Name: "echo", Arguments: `{"input":"hi"}`}})
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", msg.Content)
	assert.Equal(t, []string{"hi"}, lc.calls)
}

func TestStateTools(t *testing.T) {
	sess := core.NewSession()
	ctx := core.ContextWithSession(context.Background(), sess)
	tools := StateTools()

	msg, _, err := Invoke(ctx, tools, Request{Call: core.ToolCall{ID: "1", Name: "set_state", Arguments: `{"key":"k","value":"v"}`}})
	require.NoError(t, err)
	assert.NotContains(t, msg.Content, ErrorPrefix)
	v, ok := sess.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	_, result, err := Invoke(ctx, tools, Request{Call: core.ToolCall{ID: "2", Name: "get_state", Arguments: `{"key":"k"}`}})
	require.NoError(t, err)
	assert.Equal(t, true, result.(map[string]any)["exists"])

	_, _, err = Invoke(ctx, tools, Request{Call: core.ToolCall{ID: "3", Name: "append_state", Arguments: `{"key":"l","value":"a"}`}})
	require.NoError(t, err)
	assert.Equal(t, []any{"a"}, sess.Context().GetCumulative("l"))

	_, _, err = Invoke(context.Background(), tools, Request{Call: core.ToolCall{ID: "4", Name: "list_state"}})
	assert.ErrorContains(t, err, "no session attached to the call")
}
