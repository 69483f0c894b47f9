package tool

import (
	"fmt"
	"strings"
)

// Kind tags a Param variant.
type Kind string

const (
	KindString  Kind = "string"
	KindInteger Kind = "integer"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindObject  Kind = "object"
	KindArray   Kind = "array"
)

// IsPrimitive reports whether k is a scalar kind.
func (k Kind) IsPrimitive() bool {
	switch k {
	case KindString, KindInteger, KindNumber, KindBoolean:
		return true
	}
	return false
}

// Param is a node of a tool's parameter tree: a primitive, an object with
// nested Properties, or an array with a single Items element type.
type Param struct {
	Name        string
	Kind        Kind
	Description string
	Required    bool
	Properties  []Param
	Items       *Param
	// Enum is carried so that definitions using it are rejected; enumerated
	// parameters are not supported.
	Enum []string
}

// String creates a required string parameter.
func String(name string) Param { return Param{Name: name, Kind: KindString, Required: true} }

// Integer creates a required integer parameter.
func Integer(name string) Param { return Param{Name: name, Kind: KindInteger, Required: true} }

// Number creates a required number parameter.
func Number(name string) Param { return Param{Name: name, Kind: KindNumber, Required: true} }

// Boolean creates a required boolean parameter.
func Boolean(name string) Param { return Param{Name: name, Kind: KindBoolean, Required: true} }

// Object creates a required object parameter with the given properties.
func Object(name string, props ...Param) Param {
	return Param{Name: name, Kind: KindObject, Required: true, Properties: props}
}

// Array creates a required array parameter whose elements are described by items.
func Array(name string, items Param) Param {
	return Param{Name: name, Kind: KindArray, Required: true, Items: &items}
}

// Describe returns a copy of p with the description set.
func (p Param) Describe(d string) Param {
	p.Description = d
	return p
}

// Optional returns a copy of p that is not required.
func (p Param) Optional() Param {
	p.Required = false
	return p
}

// Validate checks the parameter tree against the supported typing rules.
func (p Param) Validate() error {
	return p.validate(p.Name, false)
}

func (p Param) validate(path string, inArray bool) error {
	if len(p.Enum) > 0 {
		return &DefinitionError{Field: path, Message: "Enums not implemented yet"}
	}
	switch {
	case p.Kind.IsPrimitive():
		return nil
	case p.Kind == KindObject:
		seen := map[string]bool{}
		for _, prop := range p.Properties {
			if prop.Name == "" {
				return &DefinitionError{Field: path, Message: "object properties must be named"}
			}
			if seen[prop.Name] {
				return &DefinitionError{Field: path, Message: fmt.Sprintf("duplicate property %q", prop.Name)}
			}
			seen[prop.Name] = true
			if err := prop.validate(joinPath(path, prop.Name), false); err != nil {
				return err
			}
		}
		return nil
	case p.Kind == KindArray:
		if p.Items == nil {
			return &DefinitionError{Field: path, Message: "To use list please define the sub type, example: []string"}
		}
		if inArray || p.Items.Kind == KindArray {
			return &DefinitionError{Field: path, Message: "only one level of list nesting is supported"}
		}
		return p.Items.validate(path+"[]", true)
	case p.Kind == "":
		return &DefinitionError{Field: path, Message: "Tools are required to be typed"}
	default:
		return &DefinitionError{Field: path, Message: fmt.Sprintf("Cannot define tool of type %s", p.Kind)}
	}
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

// Schema compiles p into a JSON schema fragment.
func (p Param) Schema() map[string]any {
	s := map[string]any{"type": string(p.Kind)}
	if p.Description != "" {
		s["description"] = p.Description
	}
	switch p.Kind {
	case KindObject:
		props := make(map[string]any, len(p.Properties))
		required := make([]string, 0, len(p.Properties))
		for _, prop := range p.Properties {
			props[prop.Name] = prop.Schema()
			if prop.Required {
				required = append(required, prop.Name)
			}
		}
		s["properties"] = props
		if len(required) > 0 {
			s["required"] = required
		}
	case KindArray:
		if p.Items != nil {
			s["items"] = p.Items.Schema()
		}
	}
	return s
}

// LeafNames returns the dotted paths of all primitive leaves in declaration order.
func (p Param) LeafNames() []string {
	var out []string
	var walk func(q Param, path string)
	walk = func(q Param, path string) {
		switch q.Kind {
		case KindObject:
			for _, prop := range q.Properties {
				walk(prop, joinPath(path, prop.Name))
			}
		case KindArray:
			if q.Items != nil {
				walk(*q.Items, path+"[]")
			}
		default:
			out = append(out, path)
		}
	}
	walk(p, "")
	return out
}

func (p Param) String() string {
	var b strings.Builder
	b.WriteString(p.Name)
	b.WriteString(":")
	b.WriteString(string(p.Kind))
	if !p.Required {
		b.WriteString("?")
	}
	return b.String()
}
