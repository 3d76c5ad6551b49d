package symsolve_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/symsolve"
)

func TestToJSON_Num(t *testing.T) {
	s, err := symsolve.ToJSON(symsolve.F(3, 2))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"num","value":"3/2"}`, s)
}

func TestToJSON_Pow(t *testing.T) {
	s, err := symsolve.ToJSON(symsolve.SqrtOf(x))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"pow","base":{"type":"sym","name":"x"},"exp":{"type":"num","value":"1/2"}}`, s)
}

func TestJSON_RoundTrip(t *testing.T) {
	exprs := []symsolve.Expr{
		symsolve.N(-7),
		symsolve.AddOf(symsolve.MulOf(a, symsolve.PowOf(x, symsolve.N(2))), symsolve.MulOf(b, x), c),
		symsolve.Quo(symsolve.SinOf(x), symsolve.AddOf(y, symsolve.N(1))),
		symsolve.ExpOf(symsolve.MulOf(symsolve.F(-1, 3), symsolve.S("λ"))),
	}
	for _, e := range exprs {
		s, err := symsolve.ToJSON(e)
		require.NoError(t, err)
		back, err := symsolve.ParseJSON(s)
		require.NoError(t, err)
		assert.True(t, back.Equal(e), "round trip changed %s into %s", e, back)
	}
}

func TestFromJSON_Simplifies(t *testing.T) {
	e, err := symsolve.ParseJSON(`{"type":"add","terms":[{"type":"sym","name":"x"},{"type":"sym","name":"x"},{"type":"num","value":"1"}]}`)
	require.NoError(t, err)
	assert.Equal(t, "2*x + 1", e.String())
}

func TestFromJSON_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"not json", `{`, "decode expression"},
		{"missing type", `{"name":"x"}`, "field 'type'"},
		{"unknown type", `{"type":"matrix"}`, "unknown expression type: matrix"},
		{"bad number", `{"type":"num","value":"one"}`, "invalid num value"},
		{"empty symbol", `{"type":"sym","name":""}`, "non-empty string"},
		{"unknown func", `{"type":"func","name":"gamma","arg":{"type":"sym","name":"x"}}`, `unknown function "gamma"`},
		{"terms not array", `{"type":"add","terms":{}}`, "must be an array"},
		{"nested error", `{"type":"pow","base":{"type":"sym","name":"x"},"exp":{"type":"num"}}`, "pow: exp:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := symsolve.ParseJSON(tt.doc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
