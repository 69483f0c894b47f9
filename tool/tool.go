// Package tool implements the function / tool calling subsystem that lets agents
// invoke structured capabilities (APIs, computations, side‑effects) with schema
// validated arguments, consistent error handling and rich metadata for model guidance.
//
// A Tool couples a name, a description and a parameter tree (Param) with a Go
// function. Definitions are validated when the tool is constructed; a tool that
// exists is always well formed. At call time Invoke resolves the requested tool
// by name. Unknown names and bad arguments are reported inline as a tool-role
// message so the model can retry; errors raised by the tool itself are returned.
package tool

import (
	"context"
	"fmt"

	"github.com/hupe1980/lmflux/internal/util"
	"github.com/hupe1980/lmflux/model"
)

// Func is the uniform signature of a tool implementation: it receives the
// decoded JSON arguments as a map.
type Func func(ctx context.Context, args map[string]any) (any, error)

// Tool is a named, described capability with a validated parameter tree.
type Tool struct {
	name        string
	description string
	root        Param
	fn          Func
	schema      map[string]any
}

// New validates the definition and constructs a Tool. The root parameter must
// be an object; its properties are the tool arguments.
func New(name, description string, root Param, fn Func) (*Tool, error) {
	if name == "" {
		return nil, &DefinitionError{Message: "tool name must not be empty"}
	}
	if description == "" {
		return nil, &DefinitionError{Tool: name, Message: "Tools are required to have descriptions"}
	}
	if fn == nil {
		return nil, &DefinitionError{Tool: name, Message: "tool function must not be nil"}
	}
	if root.Kind == "" && len(root.Properties) == 0 {
		root = Object("parameters")
	}
	if root.Kind != KindObject {
		return nil, &DefinitionError{Tool: name, Field: root.Name, Message: "root parameter must be an object"}
	}
	if err := root.Validate(); err != nil {
		if de, ok := err.(*DefinitionError); ok {
			de.Tool = name
		}
		return nil, err
	}
	return &Tool{
		name:        name,
		description: description,
		root:        root,
		fn:          fn,
		schema:      root.Schema(),
	}, nil
}

// MustNew is like New but panics on definition errors. Intended for package
// level tool declarations.
func MustNew(name, description string, root Param, fn Func) *Tool {
	t, err := New(name, description, root, fn)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the unique tool name used in function call declarations and routing.
func (t *Tool) Name() string { return t.name }

// Description returns the short natural language description exposed to models.
func (t *Tool) Description() string { return t.description }

// Root returns the parameter tree.
func (t *Tool) Root() Param { return t.root }

// Parameters returns the JSON schema describing expected arguments.
func (t *Tool) Parameters() map[string]any { return t.schema }

// Definition compiles the tool into the function-calling schema a provider expects.
func (t *Tool) Definition() model.ToolDefinition {
	return model.ToolDefinition{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        t.name,
			Description: t.description,
			Parameters:  t.schema,
		},
	}
}

// Call validates args against the schema then invokes the underlying function.
//
// Error Semantics:
//
//	*ToolError (returned directly)  -> forwarded unchanged
//	validation failure              -> *ToolError{Code: "VALIDATION_ERROR"}
//	other error                     -> *ToolError{Code: "EXECUTION_ERROR"}
func (t *Tool) Call(ctx context.Context, args map[string]any) (any, error) {
	if args == nil {
		args = map[string]any{}
	}
	if err := util.ValidateParameters(args, t.schema); err != nil {
		return nil, &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    CodeValidation,
			Details: err,
		}
	}

	result, err := t.fn(ctx, args)
	if err != nil {
		if toolErr, ok := err.(*ToolError); ok {
			return nil, toolErr
		}
		return nil, &ToolError{
			Tool:    t.name,
			Message: err.Error(),
			Code:    CodeExecution,
			Err:     err,
		}
	}
	return result, nil
}
