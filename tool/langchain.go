package tool

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/tools"
)

// FromLangchain wraps a langchaingo tool. The model sees a single required
// "input" string argument which is passed through to the tool's Call.
func FromLangchain(t tools.Tool) (*Tool, error) {
	return New(t.Name(), t.Description(),
		Object("parameters", String("input").Describe("Input passed to the tool")),
		func(ctx context.Context, args map[string]any) (any, error) {
			input, ok := args["input"].(string)
			if !ok {
				return nil, fmt.Errorf("input must be a string")
			}
			return t.Call(ctx, input)
		})
}
