package memory

import (
	"context"
	"errors"

	"github.com/hupe1980/lmflux/core"
	"github.com/hupe1980/lmflux/tool"
)

// DefaultRecallLimit bounds recall results when the model gives no limit.
const DefaultRecallLimit = 5

// Tools returns the remember, recall and forget tools backed by s. Notes are
// scoped to the session attached to the call context.
func Tools(s Store) []*tool.Tool {
	return []*tool.Tool{
		tool.MustNew("remember", "Store a note for later turns of this session",
			tool.Object("parameters", tool.String("content").Describe("The note to store")),
			func(ctx context.Context, args map[string]any) (any, error) {
				sess, err := sessionFrom(ctx)
				if err != nil {
					return nil, err
				}
				content, _ := args["content"].(string)
				return s.Save(sess.ID, content, map[string]any{"source": "tool"})
			}),
		tool.MustNew("recall", "Search the notes stored in this session",
			tool.Object("parameters",
				tool.String("query").Describe("Text to look for; empty returns all notes").Optional(),
				tool.Integer("limit").Describe("Maximum number of notes").Optional(),
			),
			func(ctx context.Context, args map[string]any) (any, error) {
				sess, err := sessionFrom(ctx)
				if err != nil {
					return nil, err
				}
				query, _ := args["query"].(string)
				limit := DefaultRecallLimit
				if v, ok := args["limit"].(float64); ok && v > 0 {
					limit = int(v)
				}
				return s.Search(sess.ID, query, limit)
			}),
		tool.MustNew("forget", "Delete a stored note by id",
			tool.Object("parameters", tool.String("id").Describe("The note id returned by remember or recall")),
			func(ctx context.Context, args map[string]any) (any, error) {
				sess, err := sessionFrom(ctx)
				if err != nil {
					return nil, err
				}
				id, _ := args["id"].(string)
				if err := s.Delete(sess.ID, id); err != nil {
					return nil, err
				}
				return "deleted " + id, nil
			}),
	}
}

func sessionFrom(ctx context.Context) (*core.Session, error) {
	s, ok := core.SessionFromContext(ctx)
	if !ok {
		return nil, errors.New("no session in context")
	}
	return s, nil
}
