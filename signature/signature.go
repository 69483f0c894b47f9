package signature

import (
	"fmt"
	"reflect"
	"strings"
)

// Param is one expected callback parameter.
type Param struct {
	Name     string
	Type     reflect.Type // type of the value passed; nil means any
	Position int
}

// Contract is the expected shape of a callback.
type Contract struct {
	// Name identifies the callback in error messages.
	Name    string
	Params  []Param
	Returns []reflect.Type
}

// TypeOf returns the reflect.Type of T, including interface types such as error.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

// String renders the expected signature, e.g. "func(session *core.Session) error".
func (c Contract) String() string {
	params := make([]string, len(c.Params))
	for i, p := range c.ordered() {
		params[i] = strings.TrimSpace(p.Name + " " + typeName(p.Type))
	}

	var sb strings.Builder
	sb.WriteString("func(")
	sb.WriteString(strings.Join(params, ", "))
	sb.WriteString(")")

	switch len(c.Returns) {
	case 0:
	case 1:
		sb.WriteString(" " + typeName(c.Returns[0]))
	default:
		rets := make([]string, len(c.Returns))
		for i, r := range c.Returns {
			rets[i] = typeName(r)
		}
		sb.WriteString(" (" + strings.Join(rets, ", ") + ")")
	}
	return sb.String()
}

func (c Contract) ordered() []Param {
	out := make([]Param, len(c.Params))
	copy(out, c.Params)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Position < out[j-1].Position; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

var anyType = reflect.TypeFor[any]()

func (p Param) typ() reflect.Type {
	if p.Type == nil {
		return anyType
	}
	return p.Type
}

func typeName(t reflect.Type) string {
	if t == nil || t == anyType {
		return "any"
	}
	return t.String()
}

// ContractError reports a callback that does not satisfy its contract.
type ContractError struct {
	Callback string
	Expected string
	Got      string
}

func (e *ContractError) Error() string {
	msg := fmt.Sprintf("%s must be defined as %s", e.Callback, e.Expected)
	if e.Got != "" {
		msg += fmt.Sprintf(" (got %s)", e.Got)
	}
	return msg
}

// Check verifies that fn is a function matching c: same parameter count, each
// expected position declaring a type the passed value is assignable to, and
// the same return types.
func Check(fn any, c Contract) error {
	fail := func(got string) error {
		return &ContractError{Callback: c.Name, Expected: c.String(), Got: got}
	}

	if fn == nil {
		return fail("nil")
	}
	ft := reflect.TypeOf(fn)
	if ft.Kind() != reflect.Func {
		return fail(ft.String())
	}
	if ft.IsVariadic() || ft.NumIn() != len(c.Params) || ft.NumOut() != len(c.Returns) {
		return fail(ft.String())
	}

	matched := make([]bool, len(c.Params))
	for i, p := range c.Params {
		if p.Position < 0 || p.Position >= ft.NumIn() {
			return fail(ft.String())
		}
		if p.typ().AssignableTo(ft.In(p.Position)) {
			matched[i] = true
		}
	}
	for _, ok := range matched {
		if !ok {
			return fail(ft.String())
		}
	}

	for i, r := range c.Returns {
		if r != nil && ft.Out(i) != r {
			return fail(ft.String())
		}
	}
	return nil
}

// Adapt checks fn against c and returns it as F. F must have the contract's
// shape. When fn declares a wider parameter type than F passes (any instead of
// a concrete type, say) the call is bridged by reflection.
func Adapt[F any](fn any, c Contract) (F, error) {
	var zero F
	if err := Check(fn, c); err != nil {
		return zero, err
	}

	if typed, ok := fn.(F); ok {
		return typed, nil
	}

	target := reflect.TypeFor[F]()
	v := reflect.ValueOf(fn)
	if v.Type().ConvertibleTo(target) {
		return v.Convert(target).Interface().(F), nil
	}

	ft := v.Type()
	mismatch := fmt.Errorf("signature: cannot adapt %s to %s", ft, target)
	if target.Kind() != reflect.Func || target.NumIn() != ft.NumIn() || target.NumOut() != ft.NumOut() {
		return zero, mismatch
	}
	for i := 0; i < ft.NumIn(); i++ {
		if !bridgeable(target.In(i), ft.In(i)) {
			return zero, mismatch
		}
	}
	for i := 0; i < ft.NumOut(); i++ {
		if !bridgeable(ft.Out(i), target.Out(i)) {
			return zero, mismatch
		}
	}

	wrapped := reflect.MakeFunc(target, func(args []reflect.Value) []reflect.Value {
		in := make([]reflect.Value, len(args))
		for i, a := range args {
			in[i] = mustBridge(a, ft.In(i))
		}
		out := v.Call(in)
		for i := range out {
			out[i] = mustBridge(out[i], target.Out(i))
		}
		return out
	})
	return wrapped.Interface().(F), nil
}

func bridgeable(from, to reflect.Type) bool {
	return from.AssignableTo(to) || from.ConvertibleTo(to)
}

// bridge passes v on as type to. Values that are neither assignable nor
// convertible are an error, never a zero value.
func bridge(v reflect.Value, to reflect.Type) (reflect.Value, error) {
	switch {
	case v.Type().AssignableTo(to):
		return v, nil
	case v.Type().ConvertibleTo(to):
		return v.Convert(to), nil
	}
	return reflect.Value{}, fmt.Errorf("signature: cannot pass %s as %s", v.Type(), to)
}

// mustBridge is only used after Adapt verified every position with bridgeable.
func mustBridge(v reflect.Value, to reflect.Type) reflect.Value {
	out, err := bridge(v, to)
	if err != nil {
		panic(err)
	}
	return out
}
