package core

import (
	"fmt"
	"strconv"
)

// LLMOptions maps generation parameters (temperature, max_tokens, ...) to values.
type LLMOptions map[string]any

// With returns a copy of the options with key set to value.
func (o LLMOptions) With(key string, value any) LLMOptions {
	out := make(LLMOptions, len(o)+1)
	for k, v := range o {
		out[k] = v
	}
	out[key] = value
	return out
}

// Map serializes the options to a string-keyed, string-valued mapping for transport.
func (o LLMOptions) Map() map[string]string {
	out := make(map[string]string, len(o))
	for k, v := range o {
		out[k] = fmt.Sprintf("%v", v)
	}
	return out
}

// Float returns the option as float64 when it is numeric (or a numeric string).
func (o LLMOptions) Float(key string) (float64, bool) {
	switch v := o[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

// Int returns the option as int64 when it is integral (or an integer string).
func (o LLMOptions) Int(key string) (int64, bool) {
	switch v := o[key].(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case float64:
		if v == float64(int64(v)) {
			return int64(v), true
		}
	case string:
		i, err := strconv.ParseInt(v, 10, 64)
		return i, err == nil
	}
	return 0, false
}
