package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/hupe1980/lmflux/internal/util"
)

// FromFunc derives a tool from a typed function. The argument struct T is
// reflected into the parameter tree using json and description tags:
//
//	type AddArgs struct {
//	  A int `json:"a" description:"First addend"`
//	  B int `json:"b" description:"Second addend"`
//	}
//
//	add, err := tool.FromFunc("add", "Add two integers", func(ctx context.Context, in AddArgs) (any, error) {
//	  return in.A + in.B, nil
//	})
//
// Pointer and omitempty fields are optional. Maps, untyped values, bare
// []any, enum-tagged fields and kinds without a JSON equivalent are rejected
// with a *DefinitionError.
func FromFunc[T any](name, description string, fn func(ctx context.Context, in T) (any, error)) (*Tool, error) {
	if description == "" {
		return nil, &DefinitionError{Tool: name, Message: "Tools are required to have descriptions"}
	}
	typ := reflect.TypeFor[T]()
	root, err := structParam("parameters", typ)
	if err != nil {
		if de, ok := err.(*DefinitionError); ok {
			de.Tool = name
		}
		return nil, err
	}
	return New(name, description, root, func(ctx context.Context, args map[string]any) (any, error) {
		raw, err := json.Marshal(args)
		if err != nil {
			return nil, err
		}
		var in T
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, fmt.Errorf("decode arguments: %w", err)
		}
		return fn(ctx, in)
	})
}

func structParam(name string, typ reflect.Type) (Param, error) {
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return Param{}, &DefinitionError{Field: name, Message: fmt.Sprintf("Cannot define tool of type %s", typ)}
	}
	root := Object(name)
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		fieldName, skip := util.FieldName(field)
		if skip {
			continue
		}
		if field.Tag.Get("enum") != "" {
			return Param{}, &DefinitionError{Field: fieldName, Message: "Enums not implemented yet"}
		}
		p, err := typeParam(fieldName, field.Type)
		if err != nil {
			return Param{}, err
		}
		p.Description = field.Tag.Get("description")
		p.Required = !util.IsOptional(field)
		root.Properties = append(root.Properties, p)
	}
	return root, nil
}

func typeParam(name string, typ reflect.Type) (Param, error) {
	if typ.Kind() == reflect.Ptr {
		return typeParam(name, typ.Elem())
	}
	switch typ.Kind() {
	case reflect.Interface:
		return Param{}, &DefinitionError{Field: name, Message: "Tools are required to be typed"}
	case reflect.Map:
		return Param{}, &DefinitionError{
			Field:   name,
			Message: fmt.Sprintf("When using generic container types such as %s only lists are supported for now.", typ),
		}
	case reflect.Struct:
		return structParam(name, typ)
	case reflect.Slice, reflect.Array:
		elem := typ.Elem()
		if elem.Kind() == reflect.Interface {
			return Param{}, &DefinitionError{Field: name, Message: "To use list please define the sub type, example: []string"}
		}
		if elem.Kind() == reflect.Uint8 {
			return Param{}, &DefinitionError{Field: name, Message: fmt.Sprintf("Cannot define tool of type %s", typ)}
		}
		items, err := typeParam(name, elem)
		if err != nil {
			return Param{}, err
		}
		items.Name = ""
		items.Required = true
		return Array(name, items), nil
	}
	switch util.JSONType(typ) {
	case "string":
		return String(name), nil
	case "integer":
		return Integer(name), nil
	case "number":
		return Number(name), nil
	case "boolean":
		return Boolean(name), nil
	}
	return Param{}, &DefinitionError{Field: name, Message: fmt.Sprintf("Cannot define tool of type %s", typ)}
}
