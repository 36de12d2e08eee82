package rpc

import (
	"encoding/json"
	"math"
)

// Parameter value kinds accepted by [Validate].
type Kind int

const (
	String Kind = iota
	Int
	Bool
)

// Names the kind in validation error messages.
func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Int:
		return "integer"
	case Bool:
		return "boolean"
	}
	return "unknown"
}

// Declares one parameter of a method.
//
// Positional parameters are matched by declaration order, named parameters by
// Name. A parameter that is not Required may declare a Default, applied when
// the caller omits it.
type Param struct {
	Name     string // Parameter name, used for named params and errors.
	Kind     Kind   // Expected value kind.
	Required bool   // Whether the caller must supply the parameter.
	Default  any    // Value used when an optional parameter is absent.
}

// Validated parameter values, keyed by declared name.
type Args map[string]any

// Returns a validated string parameter.
func (a Args) String(name string) string {
	v, _ := a[name].(string)
	return v
}

// Returns a validated integer parameter.
func (a Args) Int(name string) int {
	v, _ := a[name].(int)
	return v
}

// Returns a validated boolean parameter.
func (a Args) Bool(name string) bool {
	v, _ := a[name].(bool)
	return v
}

// Checks raw request parameters against a method's declaration.
//
// Accepts positional (JSON array) and named (JSON object) forms, or absent
// parameters for methods declaring none required. Unknown named parameters
// are ignored; extra positional parameters are ignored as well. Violations
// are reported as a [CodeInvalidParams] error.
func Validate(spec []Param, raw json.RawMessage) (Args, *Error) {
	values, rpcErr := splitParams(spec, raw)
	if rpcErr != nil {
		return nil, rpcErr
	}

	args := make(Args, len(spec))
	for _, p := range spec {
		v, ok := values[p.Name]
		if !ok || v == nil {
			if p.Required {
				return nil, Errorf(CodeInvalidParams, "missing required parameter: %s", p.Name)
			}
			if p.Default != nil {
				args[p.Name] = p.Default
			}
			continue
		}

		typed, ok := coerce(p.Kind, v)
		if !ok {
			return nil, Errorf(CodeInvalidParams, "parameter %s must be a %s", p.Name, p.Kind)
		}
		args[p.Name] = typed
	}

	return args, nil
}

// Resolves the positional or named form into a name-keyed map.
func splitParams(spec []Param, raw json.RawMessage) (map[string]any, *Error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var probe any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, Errorf(CodeInvalidParams, "invalid params: %v", err)
	}

	switch v := probe.(type) {
	case nil:
		return nil, nil
	case []any:
		values := make(map[string]any, len(spec))
		for i, p := range spec {
			if i < len(v) {
				values[p.Name] = v[i]
			}
		}
		return values, nil
	case map[string]any:
		return v, nil
	}

	return nil, Errorf(CodeInvalidParams, "params must be an array or object")
}

// Converts a decoded JSON value to the declared kind.
//
// JSON numbers decode as float64; integers are accepted only when the value
// is integral. Booleans and strings must match exactly, no coercion from
// other types.
func coerce(kind Kind, v any) (any, bool) {
	switch kind {
	case String:
		s, ok := v.(string)
		return s, ok
	case Int:
		f, ok := v.(float64)
		if !ok || f != math.Trunc(f) || math.IsInf(f, 0) {
			return nil, false
		}
		return int(f), true
	case Bool:
		b, ok := v.(bool)
		return b, ok
	}
	return nil, false
}
