package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/lmflux/core"
	"github.com/hupe1980/lmflux/internal/testutil"
)

var _ Store = (*InMemoryStore)(nil)

func TestInMemoryStore_SaveSearchDelete(t *testing.T) {
	s := NewInMemoryStore()

	for _, c := range []string{"Alpha note", "beta note", "gamma"} {
		_, err := s.Save("s1", c, map[string]any{"len": len(c)})
		require.NoError(t, err)
	}
	_, err := s.Save("s1", "   ", nil)
	require.Error(t, err)

	all, err := s.Search("s1", "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"mem_0", "mem_1", "mem_2"}, []string{all[0].ID, all[1].ID, all[2].ID})

	hits, _ := s.Search("s1", "NOTE", 10)
	assert.Len(t, hits, 2)

	limited, _ := s.Search("s1", "", 2)
	assert.Len(t, limited, 2)

	other, _ := s.Search("s2", "", 0)
	assert.Empty(t, other)

	require.NoError(t, s.Delete("s1", "mem_1"))
	require.ErrorIs(t, s.Delete("s1", "mem_1"), ErrNotFound)

	n, err := s.Save("s1", "delta", nil)
	require.NoError(t, err)
	assert.Equal(t, "mem_3", n.ID)
}

func TestInMemoryStore_MetadataIsCopied(t *testing.T) {
	s := NewInMemoryStore()
	md := map[string]any{"k": "v"}
	_, err := s.Save("s1", "note", md)
	require.NoError(t, err)
	md["k"] = "changed"

	got, _ := s.Search("s1", "", 0)
	assert.Equal(t, "v", got[0].Metadata["k"])
}

func TestTools(t *testing.T) {
	store := NewInMemoryStore()
	tools := Tools(store)
	byName := map[string]func(context.Context, map[string]any) (any, error){}
	for _, tl := range tools {
		byName[tl.Name()] = tl.Call
	}

	sess := testutil.NewSessionBuilder("sess-mem").Build()
	ctx := core.ContextWithSession(context.Background(), sess)

	res, err := byName["remember"](ctx, map[string]any{"content": "user likes tea"})
	require.NoError(t, err)
	note := res.(Note)
	assert.Equal(t, "mem_0", note.ID)

	res, err = byName["recall"](ctx, map[string]any{"query": "tea"})
	require.NoError(t, err)
	assert.Len(t, res.([]Note), 1)

	res, err = byName["recall"](ctx, map[string]any{"limit": float64(1)})
	require.NoError(t, err)
	assert.Len(t, res.([]Note), 1)

	_, err = byName["forget"](ctx, map[string]any{"id": "mem_0"})
	require.NoError(t, err)
	_, err = byName["forget"](ctx, map[string]any{"id": "mem_0"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "memory not found")

	_, err = byName["remember"](context.Background(), map[string]any{"content": "x"})
	require.Error(t, err)
}
