package symsolve_test

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/symsolve"
)

func exprParam(t *testing.T, e symsolve.Expr) map[string]interface{} {
	t.Helper()
	return symsolve.ExprJSON(e)
}

func TestHandleToolCall_Simplify(t *testing.T) {
	resp := symsolve.HandleToolCall(symsolve.ToolRequest{
		ID:     "req-1",
		Tool:   "simplify",
		Params: map[string]interface{}{"expr": exprParam(t, symsolve.Quo(symsolve.Minus(symsolve.PowOf(x, symsolve.N(2)), symsolve.N(1)), symsolve.AddOf(x, symsolve.N(1))))},
	})
	require.Empty(t, resp.Error)
	assert.Equal(t, "req-1", resp.ID)
	assert.Equal(t, "x - 1", resp.String)
}

func TestHandleToolCall_GeneratesID(t *testing.T) {
	resp := symsolve.HandleToolCall(symsolve.ToolRequest{Tool: "mcp_spec"})
	require.Empty(t, resp.Error)
	_, err := uuid.Parse(resp.ID)
	assert.NoError(t, err)
}

func TestHandleToolCall_Diff(t *testing.T) {
	resp := symsolve.HandleToolCall(symsolve.ToolRequest{
		Tool:   "diff",
		Params: map[string]interface{}{"expr": exprParam(t, symsolve.PowOf(x, symsolve.N(3))), "var": "x"},
	})
	require.Empty(t, resp.Error)
	assert.Equal(t, "3*x^2", resp.String)
	assert.Equal(t, "3 \\cdot x^{2}", resp.LaTeX)
}

func TestHandleToolCall_Substitute(t *testing.T) {
	resp := symsolve.HandleToolCall(symsolve.ToolRequest{
		Tool: "substitute",
		Params: map[string]interface{}{
			"expr":  exprParam(t, symsolve.AddOf(symsolve.PowOf(x, symsolve.N(2)), y)),
			"var":   "x",
			"value": exprParam(t, symsolve.N(3)),
		},
	})
	require.Empty(t, resp.Error)
	assert.Equal(t, "y + 9", resp.String)
}

func TestHandleToolCall_Solve(t *testing.T) {
	resp := symsolve.HandleToolCall(symsolve.ToolRequest{
		Tool:   "solve",
		Params: map[string]interface{}{"expr": exprParam(t, symsolve.Minus(symsolve.PowOf(x, symsolve.N(2)), symsolve.N(4))), "var": "x"},
	})
	require.Empty(t, resp.Error)
	assert.Equal(t, "-2, 2", resp.String)

	b, err := json.Marshal(resp)
	require.NoError(t, err)
	var decoded struct {
		Result []struct {
			String string `json:"string"`
			Status string `json:"status"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.Len(t, decoded.Result, 2)
	assert.Equal(t, "verified", decoded.Result[0].Status)
}

func TestHandleToolCall_SolveAmbiguousKeepsRoots(t *testing.T) {
	resp := symsolve.HandleToolCall(symsolve.ToolRequest{
		Tool:   "solve",
		Params: map[string]interface{}{"expr": exprParam(t, symsolve.Minus(symsolve.SqrtOf(x), symsolve.Minus(x, a))), "var": "x"},
	})
	assert.Contains(t, resp.Error, "extraneous roots")
	roots, ok := resp.Result.([]symsolve.RootJSON)
	require.True(t, ok)
	assert.Len(t, roots, 2)
}

func TestHandleToolCall_SolveError(t *testing.T) {
	resp := symsolve.HandleToolCall(symsolve.ToolRequest{
		Tool:   "solve",
		Params: map[string]interface{}{"expr": exprParam(t, symsolve.AddOf(y, symsolve.N(1))), "var": "x"},
	})
	assert.Contains(t, resp.Error, "unknown not present")
	assert.Nil(t, resp.Result)
}

func TestHandleToolCall_Evaluate(t *testing.T) {
	resp := symsolve.HandleToolCall(symsolve.ToolRequest{
		Tool: "evaluate",
		Params: map[string]interface{}{
			"expr":  exprParam(t, symsolve.SqrtOf(x)),
			"point": map[string]interface{}{"x": -4.0},
		},
	})
	require.Empty(t, resp.Error)
	v := resp.Result.(map[string]float64)
	assert.InDelta(t, 0.0, v["re"], 1e-12)
	assert.InDelta(t, 2.0, v["im"], 1e-12)
}

func TestHandleToolCall_FreeSymbols(t *testing.T) {
	resp := symsolve.HandleToolCall(symsolve.ToolRequest{
		Tool:   "free_symbols",
		Params: map[string]interface{}{"expr": exprParam(t, symsolve.AddOf(symsolve.MulOf(b, x), a))},
	})
	require.Empty(t, resp.Error)
	assert.Equal(t, []string{"a", "b", "x"}, resp.Result)
}

func TestHandleToolCall_Degree(t *testing.T) {
	resp := symsolve.HandleToolCall(symsolve.ToolRequest{
		Tool:   "degree",
		Params: map[string]interface{}{"expr": exprParam(t, symsolve.AddOf(symsolve.PowOf(x, symsolve.N(4)), x)), "var": "x"},
	})
	require.Empty(t, resp.Error)
	assert.Equal(t, 4, resp.Result)

	resp = symsolve.HandleToolCall(symsolve.ToolRequest{
		Tool:   "degree",
		Params: map[string]interface{}{"expr": exprParam(t, symsolve.SinOf(x)), "var": "x"},
	})
	assert.Contains(t, resp.Error, "not a polynomial")
}

func TestHandleToolCall_ParamErrors(t *testing.T) {
	tests := []struct {
		name   string
		req    symsolve.ToolRequest
		substr string
	}{
		{"unknown tool", symsolve.ToolRequest{Tool: "integrate"}, "unknown tool: integrate"},
		{"missing expr", symsolve.ToolRequest{Tool: "simplify", Params: map[string]interface{}{}}, "missing param: expr"},
		{"expr not object", symsolve.ToolRequest{Tool: "simplify", Params: map[string]interface{}{"expr": "x"}}, "invalid type for param expr"},
		{"empty var", symsolve.ToolRequest{Tool: "diff", Params: map[string]interface{}{"expr": symsolve.ExprJSON(x), "var": ""}}, "param var"},
		{"bad point", symsolve.ToolRequest{Tool: "evaluate", Params: map[string]interface{}{"expr": symsolve.ExprJSON(x), "point": map[string]interface{}{"x": "1"}}}, "point.x must be a number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := symsolve.HandleToolCall(tt.req)
			assert.Contains(t, resp.Error, tt.substr)
			assert.NotEmpty(t, resp.ID)
		})
	}
}

func TestMCPToolSpec(t *testing.T) {
	var spec struct {
		Tools []struct {
			Name        string                 `json:"name"`
			InputSchema map[string]interface{} `json:"inputSchema"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal([]byte(symsolve.MCPToolSpec()), &spec))
	names := make([]string, len(spec.Tools))
	for i, tool := range spec.Tools {
		names[i] = tool.Name
	}
	assert.Contains(t, names, "solve")
	assert.Contains(t, names, "substitute")
	assert.Contains(t, names, "evaluate")
}
