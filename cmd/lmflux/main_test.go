package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	t.Setenv("LMFLUX_PROVIDER", "echo")
	t.Setenv("LMFLUX_MODEL", "echo")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestAsk(t *testing.T) {
	out := execute(t, "ask", "bot", "hello", "there", "--format", "plain")
	assert.Contains(t, out, "**bot**:\n\nhello there")
}

func TestTools_JSON(t *testing.T) {
	out := execute(t, "tools", "--json")

	var defs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &defs))

	names := map[string]bool{}
	for _, d := range defs {
		fn := d["function"].(map[string]any)
		names[fn["name"].(string)] = true
	}
	for _, want := range []string{"current_time", "calculator", "get_state", "set_state"} {
		assert.True(t, names[want], want)
	}
	toolsJSON = false
}

func TestMesh_Markdown(t *testing.T) {
	out := execute(t, "mesh", "plan", "a", "trip", "--format", "plain")
	assert.Contains(t, out, "**Human**:\n\nplan a trip")
	assert.Contains(t, out, "- planner (2 messages)")
}

func TestMesh_Topology(t *testing.T) {
	out := execute(t, "mesh", "x", "--topology", "--format", "plain")
	assert.Contains(t, out, "```mermaid")
	assert.Contains(t, out, "(planner)")
	assert.Contains(t, out, "--Can call-->")
	meshTopology = false
}

func TestTask(t *testing.T) {
	out := execute(t, "task", "owls", "--format", "plain", "--rounds", "2")
	assert.Contains(t, out, "**owls** (2 revisions)")
	assert.Contains(t, out, "Write one paragraph about owls.")

	out = execute(t, "task", "--mermaid", "--format", "plain")
	assert.Contains(t, out, "graph TB")
	assert.Contains(t, out, "--repeat-->")
	taskMermaid = false
}

func TestConfig(t *testing.T) {
	out := execute(t, "config")
	assert.Contains(t, out, "provider: echo")
}

func TestCalculate(t *testing.T) {
	v, err := calculate(t.Context(), calcArgs{A: 6, B: 3, Op: "div"})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, v, 1e-9)

	_, err = calculate(t.Context(), calcArgs{A: 1, Op: "div"})
	require.Error(t, err)

	_, err = calculate(t.Context(), calcArgs{Op: "pow"})
	require.Error(t, err)
}

func TestCurrentTime(t *testing.T) {
	v, err := currentTime(t.Context(), clockArgs{})
	require.NoError(t, err)
	assert.Equal(t, "UTC", v.(map[string]any)["timezone"])

	_, err = currentTime(t.Context(), clockArgs{Timezone: "Nowhere/Special"})
	require.Error(t, err)
}

func TestMCPServer(t *testing.T) {
	s, err := newMCPServer()
	require.NoError(t, err)
	assert.NotNil(t, s)
}
