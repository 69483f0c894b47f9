package tool

import (
	"fmt"

	"github.com/hupe1980/lmflux/model"
)

// Toolbox is an ordered registry of tools with unique names.
type Toolbox struct {
	tools []*Tool
	index map[string]int
}

// NewToolbox creates a toolbox holding the given tools.
func NewToolbox(tools ...*Tool) (*Toolbox, error) {
	tb := &Toolbox{index: map[string]int{}}
	if err := tb.Add(tools...); err != nil {
		return nil, err
	}
	return tb, nil
}

// Add registers tools in order. Adding a nil tool or a name that is already
// registered is an error and leaves the toolbox unchanged.
func (tb *Toolbox) Add(tools ...*Tool) error {
	if tb.index == nil {
		tb.index = map[string]int{}
	}
	seen := map[string]bool{}
	for _, t := range tools {
		if t == nil {
			return fmt.Errorf("toolbox: value passed to Add is not a tool")
		}
		if _, exists := tb.index[t.Name()]; exists || seen[t.Name()] {
			return fmt.Errorf("toolbox: tool %q already registered", t.Name())
		}
		seen[t.Name()] = true
	}
	for _, t := range tools {
		tb.index[t.Name()] = len(tb.tools)
		tb.tools = append(tb.tools, t)
	}
	return nil
}

// AddAny registers v when it is a *Tool and fails otherwise. It backs the
// reflective composition paths where tools arrive as untyped values.
func (tb *Toolbox) AddAny(v any) error {
	t, ok := v.(*Tool)
	if !ok {
		return fmt.Errorf("toolbox: value of type %T is not a proper tool, build it with tool.New or tool.FromFunc", v)
	}
	return tb.Add(t)
}

// Get returns the tool with the given name.
func (tb *Toolbox) Get(name string) (*Tool, bool) {
	i, ok := tb.index[name]
	if !ok {
		return nil, false
	}
	return tb.tools[i], true
}

// Remove unregisters the named tool, reporting whether it was present.
func (tb *Toolbox) Remove(name string) bool {
	i, ok := tb.index[name]
	if !ok {
		return false
	}
	tb.tools = append(tb.tools[:i], tb.tools[i+1:]...)
	delete(tb.index, name)
	for j := i; j < len(tb.tools); j++ {
		tb.index[tb.tools[j].Name()] = j
	}
	return true
}

// Tools returns a copy of the registered tools in insertion order.
func (tb *Toolbox) Tools() []*Tool { return append([]*Tool(nil), tb.tools...) }

// Names returns the registered tool names in insertion order.
func (tb *Toolbox) Names() []string {
	out := make([]string, len(tb.tools))
	for i, t := range tb.tools {
		out[i] = t.Name()
	}
	return out
}

// Len returns the number of registered tools.
func (tb *Toolbox) Len() int { return len(tb.tools) }

// Definitions compiles every tool into its provider definition.
func (tb *Toolbox) Definitions() []model.ToolDefinition {
	return Definitions(tb.tools)
}

// Definitions compiles tools into provider definitions.
func Definitions(tools []*Tool) []model.ToolDefinition {
	out := make([]model.ToolDefinition, 0, len(tools))
	for _, t := range tools {
		out = append(out, t.Definition())
	}
	return out
}
