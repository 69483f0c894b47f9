package tool

import (
	"fmt"

	"github.com/hupe1980/lmflux/internal/util"
)

// Error codes attached to ToolError.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeExecution  = "EXECUTION_ERROR"
	CodePanic      = "PANIC"
)

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// DefinitionError reports an invalid tool definition. It is returned at
// construction time, never at call time.
type DefinitionError struct {
	Tool    string `json:"tool,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *DefinitionError) Error() string {
	switch {
	case e.Tool != "" && e.Field != "":
		return fmt.Sprintf("invalid tool %s (field %s): %s", e.Tool, e.Field, e.Message)
	case e.Tool != "":
		return fmt.Sprintf("invalid tool %s: %s", e.Tool, e.Message)
	case e.Field != "":
		return fmt.Sprintf("invalid tool field %s: %s", e.Field, e.Message)
	default:
		return "invalid tool: " + e.Message
	}
}

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string      `json:"tool"`              // Name of the tool that failed
	Message string      `json:"message"`           // Error message
	Code    string      `json:"code"`              // Error code for categorization
	Details interface{} `json:"details,omitempty"` // Additional error details

	// Err is the error returned by the tool function, if any.
	Err error `json:"-"`
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// Unwrap returns the error returned by the tool function.
func (e *ToolError) Unwrap() error { return e.Err }

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
