package tool

import (
	"context"
	"fmt"

	"github.com/hupe1980/lmflux/core"
)

// StateTools returns tools that let a model read and write the context of the
// session attached to the call's context.Context (see core.ContextWithSession):
//
//	get_state     read a value
//	set_state     write a string value
//	append_state  append to a cumulative list
//	list_state    list all plain values
//
// Calls made without an attached session return an error.
func StateTools() []*Tool {
	return []*Tool{
		MustNew("get_state", "Read a value from the shared session context by key.",
			Object("parameters", String("key").Describe("Context key to read")),
			handleGetState),
		MustNew("set_state", "Store a value in the shared session context under key.",
			Object("parameters",
				String("key").Describe("Context key to write"),
				String("value").Describe("Value to store"),
			),
			handleSetState),
		MustNew("append_state", "Append a value to the cumulative list stored under key in the shared session context.",
			Object("parameters",
				String("key").Describe("Cumulative context key"),
				String("value").Describe("Value to append"),
			),
			handleAppendState),
		MustNew("list_state", "List every value in the shared session context.",
			Object("parameters"),
			handleListState),
	}
}

func sessionFrom(ctx context.Context) (*core.Session, error) {
	sess, ok := core.SessionFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("no session attached to the call")
	}
	return sess, nil
}

func handleGetState(ctx context.Context, args map[string]any) (any, error) {
	sess, err := sessionFrom(ctx)
	if err != nil {
		return nil, err
	}
	key, _ := args["key"].(string)
	value, exists := sess.Get(key)
	return map[string]any{
		"key":    key,
		"exists": exists,
		"value":  value,
	}, nil
}

func handleSetState(ctx context.Context, args map[string]any) (any, error) {
	sess, err := sessionFrom(ctx)
	if err != nil {
		return nil, err
	}
	key, _ := args["key"].(string)
	value := args["value"]
	sess.Set(key, value)
	return map[string]any{
		"key":     key,
		"value":   value,
		"success": true,
		"message": fmt.Sprintf("State key '%s' set successfully", key),
	}, nil
}

func handleAppendState(ctx context.Context, args map[string]any) (any, error) {
	sess, err := sessionFrom(ctx)
	if err != nil {
		return nil, err
	}
	key, _ := args["key"].(string)
	sess.Context().SetCumulative(key, args["value"])
	return map[string]any{
		"key":    key,
		"length": len(sess.Context().GetCumulative(key)),
	}, nil
}

func handleListState(ctx context.Context, _ map[string]any) (any, error) {
	sess, err := sessionFrom(ctx)
	if err != nil {
		return nil, err
	}
	return sess.ContextAsMap(), nil
}
