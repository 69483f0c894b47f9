package signature

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type session struct{ data map[string]any }

var runContract = Contract{
	Name: "run",
	Params: []Param{
		{Name: "name", Type: TypeOf[string](), Position: 0},
		{Name: "session", Type: TypeOf[*session](), Position: 1},
	},
	Returns: []reflect.Type{TypeOf[error]()},
}

func TestContract_String(t *testing.T) {
	assert.Equal(t, "func(name string, session *signature.session) error", runContract.String())

	anyContract := Contract{Name: "cb", Params: []Param{{Name: "result", Position: 0}}}
	assert.Equal(t, "func(result any)", anyContract.String())
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name string
		fn   any
		ok   bool
	}{
		{"exact", func(string, *session) error { return nil }, true},
		{"wrong order", func(*session, string) error { return nil }, false},
		{"missing param", func(string) error { return nil }, false},
		{"extra param", func(string, *session, int) error { return nil }, false},
		{"missing return", func(string, *session) {}, false},
		{"wrong return", func(string, *session) string { return "" }, false},
		{"variadic", func(string, ...*session) error { return nil }, false},
		{"not a func", "nope", false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.fn, runContract)
			if tt.ok {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			var ce *ContractError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, "run", ce.Callback)
			assert.Contains(t, err.Error(), "run must be defined as func(name string, session *signature.session) error")
		})
	}
}

func TestCheck_AssignableParams(t *testing.T) {
	c := Contract{Name: "cb", Params: []Param{
		{Name: "name", Type: TypeOf[string](), Position: 0},
		{Name: "value", Position: 1},
	}}
	require.NoError(t, Check(func(string, any) {}, c))
	require.Error(t, Check(func(string, int) {}, c))
	require.Error(t, Check(func(string, map[string]any) {}, c))
	require.Error(t, Check(func(int, any) {}, c))

	wide := Contract{Name: "cb", Params: []Param{{Name: "session", Type: TypeOf[*session](), Position: 0}}}
	require.NoError(t, Check(func(any) {}, wide))
	require.Error(t, Check(func(string) {}, wide))
}

func TestAdapt_Identical(t *testing.T) {
	called := ""
	fn, err := Adapt[func(string, *session) error](func(name string, _ *session) error {
		called = name
		return nil
	}, runContract)
	require.NoError(t, err)
	require.NoError(t, fn("x", &session{}))
	assert.Equal(t, "x", called)
}

type runFunc func(string, *session) error

func TestAdapt_NamedType(t *testing.T) {
	fn, err := Adapt[runFunc](func(string, *session) error { return errors.New("boom") }, runContract)
	require.NoError(t, err)
	assert.EqualError(t, fn("x", nil), "boom")
}

func TestAdapt_BridgesWiderParams(t *testing.T) {
	c := Contract{Name: "cb", Params: []Param{{Name: "session", Type: TypeOf[*session](), Position: 0}}}

	var got any
	fn, err := Adapt[func(*session)](func(v any) { got = v }, c)
	require.NoError(t, err)

	s := &session{}
	fn(s)
	assert.Same(t, s, got)
}

func TestAdapt_RejectsNarrowerParams(t *testing.T) {
	c := Contract{Name: "cb", Params: []Param{{Name: "result", Position: 0}}}

	_, err := Adapt[func(any)](func(v int) {}, c)
	var ce *ContractError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, err.Error(), "cb must be defined as func(result any)")
}

func TestBridge(t *testing.T) {
	v, err := bridge(reflect.ValueOf(3), TypeOf[int64]())
	require.NoError(t, err)
	assert.Equal(t, int64(3), v.Interface())

	_, err = bridge(reflect.ValueOf("x"), TypeOf[*session]())
	assert.ErrorContains(t, err, "cannot pass string as *signature.session")
}

func TestAdapt_RejectsMismatch(t *testing.T) {
	_, err := Adapt[func(string, *session) error](func(int) {}, runContract)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be defined as")
}
