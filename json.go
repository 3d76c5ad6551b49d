package symsolve

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// ============================================================
// JSON serialization
// ============================================================

// ToJSON encodes e as a tree of typed objects:
//
//	{"type":"num","value":"3/2"}
//	{"type":"sym","name":"x"}
//	{"type":"add","terms":[...]}
//	{"type":"mul","factors":[...]}
//	{"type":"pow","base":{...},"exp":{...}}
//	{"type":"func","name":"sin","arg":{...}}
//	{"type":"undefined"}
func ToJSON(e Expr) (string, error) {
	b, err := json.Marshal(e.toJSON())
	return string(b), err
}

// ExprJSON returns the decoded-JSON form of e, for embedding in larger
// documents.
func ExprJSON(e Expr) map[string]interface{} { return e.toJSON() }

// ParseJSON decodes a document produced by ToJSON.
func ParseJSON(s string) (Expr, error) {
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("decode expression: %w", err)
	}
	return FromJSON(m)
}

// FromJSON rebuilds an expression from its decoded JSON object. The
// result goes through the same automatic simplification as the
// constructors.
func FromJSON(data map[string]interface{}) (Expr, error) {
	if data == nil {
		return nil, fmt.Errorf("expression must be an object")
	}
	typ, ok := data["type"].(string)
	if !ok || typ == "" {
		return nil, fmt.Errorf("field 'type' must be a non-empty string")
	}

	subObj := func(field string) (Expr, error) {
		m, ok := data[field].(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%s: %q must be an object", typ, field)
		}
		e, err := FromJSON(m)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", typ, field, err)
		}
		return e, nil
	}
	subArray := func(field string) ([]Expr, error) {
		raw, ok := data[field].([]interface{})
		if !ok {
			return nil, fmt.Errorf("%s: %q must be an array", typ, field)
		}
		out := make([]Expr, len(raw))
		for i, it := range raw {
			m, ok := it.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("%s: %q[%d] must be an object", typ, field, i)
			}
			e, err := FromJSON(m)
			if err != nil {
				return nil, fmt.Errorf("%s: %s[%d]: %w", typ, field, i, err)
			}
			out[i] = e
		}
		return out, nil
	}
	subString := func(field string) (string, error) {
		s, ok := data[field].(string)
		if !ok || s == "" {
			return "", fmt.Errorf("%s: %q must be a non-empty string", typ, field)
		}
		return s, nil
	}

	switch typ {
	case "num":
		val, err := subString("value")
		if err != nil {
			return nil, err
		}
		r, ok := new(big.Rat).SetString(val)
		if !ok {
			return nil, fmt.Errorf("invalid num value: %s", val)
		}
		return &Num{val: r}, nil

	case "sym":
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		return S(name), nil

	case "add":
		terms, err := subArray("terms")
		if err != nil {
			return nil, err
		}
		return AddOf(terms...), nil

	case "mul":
		factors, err := subArray("factors")
		if err != nil {
			return nil, err
		}
		return MulOf(factors...), nil

	case "pow":
		base, err := subObj("base")
		if err != nil {
			return nil, err
		}
		exp, err := subObj("exp")
		if err != nil {
			return nil, err
		}
		return PowOf(base, exp), nil

	case "func":
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		if !knownFuncs[name] {
			return nil, fmt.Errorf("func: unknown function %q", name)
		}
		arg, err := subObj("arg")
		if err != nil {
			return nil, err
		}
		return simplifyFunc(name, arg), nil

	case "undefined":
		return undefined, nil
	}
	return nil, fmt.Errorf("unknown expression type: %s", typ)
}
