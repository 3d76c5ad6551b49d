package symsolve

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// ============================================================
// MCP tool interface
// ============================================================

type ToolRequest struct {
	ID     string                 `json:"id,omitempty"`
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

type ToolResponse struct {
	ID     string      `json:"id"`
	Result interface{} `json:"result,omitempty"`
	LaTeX  string      `json:"latex,omitempty"`
	String string      `json:"string,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// RootJSON is one root in a solve response.
type RootJSON struct {
	Value  map[string]interface{} `json:"value"`
	String string                 `json:"string"`
	LaTeX  string                 `json:"latex"`
	Status RootStatus             `json:"status"`
}

var defaultSolver = NewSolver()

// HandleToolCall dispatches req with a default Solver.
func HandleToolCall(req ToolRequest) ToolResponse { return defaultSolver.HandleToolCall(req) }

// HandleToolCall dispatches one tool request. Failures are reported in
// ToolResponse.Error; the call itself never fails.
func (s *Solver) HandleToolCall(req ToolRequest) ToolResponse {
	id := req.ID
	if id == "" {
		id = uuid.New().String()
	}
	resp := s.dispatch(req)
	resp.ID = id
	return resp
}

func (s *Solver) dispatch(req ToolRequest) ToolResponse {
	getExpr := func(key string) (Expr, error) {
		v, ok := req.Params[key]
		if !ok {
			return nil, fmt.Errorf("missing param: %s", key)
		}
		val, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("invalid type for param %s", key)
		}
		return FromJSON(val)
	}
	getString := func(key string) (string, error) {
		v, ok := req.Params[key]
		if !ok {
			return "", fmt.Errorf("missing param: %s", key)
		}
		str, ok := v.(string)
		if !ok || str == "" {
			return "", fmt.Errorf("param %s must be a non-empty string", key)
		}
		return str, nil
	}
	getPoint := func(key string) (Point, error) {
		v, ok := req.Params[key]
		if !ok {
			return Point{}, nil
		}
		raw, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("param %s must be an object of numbers", key)
		}
		p := make(Point, len(raw))
		for name, x := range raw {
			f, ok := x.(float64)
			if !ok {
				return nil, fmt.Errorf("param %s.%s must be a number", key, name)
			}
			p[name] = f
		}
		return p, nil
	}
	fail := func(err error) ToolResponse { return ToolResponse{Error: err.Error()} }
	respond := func(e Expr) ToolResponse {
		return ToolResponse{Result: e.toJSON(), LaTeX: LaTeX(e), String: String(e)}
	}
	exprAndVar := func() (Expr, *Sym, error) {
		e, err := getExpr("expr")
		if err != nil {
			return nil, nil, err
		}
		v, err := getString("var")
		if err != nil {
			return nil, nil, err
		}
		return e, S(v), nil
	}

	switch req.Tool {
	case "simplify":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		out, err := s.Simplify(e)
		if err != nil {
			return fail(err)
		}
		return respond(out)

	case "expand":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		return respond(Expand(e))

	case "together":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		num, den, err := Together(e)
		if err != nil {
			return fail(err)
		}
		return ToolResponse{
			Result: map[string]interface{}{"num": num.toJSON(), "den": den.toJSON()},
			String: "(" + String(num) + ")/(" + String(den) + ")",
			LaTeX:  fmt.Sprintf(`\frac{%s}{%s}`, LaTeX(num), LaTeX(den)),
		}

	case "diff":
		e, x, err := exprAndVar()
		if err != nil {
			return fail(err)
		}
		d, err := s.Differentiate(e, x)
		if err != nil {
			return fail(err)
		}
		return respond(d)

	case "substitute":
		e, x, err := exprAndVar()
		if err != nil {
			return fail(err)
		}
		val, err := getExpr("value")
		if err != nil {
			return fail(err)
		}
		out, err := s.Substitute(e, x, val)
		if err != nil {
			return fail(err)
		}
		return respond(out)

	case "solve":
		e, x, err := exprAndVar()
		if err != nil {
			return fail(err)
		}
		set, err := s.Solve(e, x)
		if set == nil {
			return fail(err)
		}
		roots := make([]RootJSON, len(set.Roots))
		strs := make([]string, len(set.Roots))
		for i, r := range set.Roots {
			roots[i] = RootJSON{Value: r.Value.toJSON(), String: String(r.Value), LaTeX: LaTeX(r.Value), Status: r.Status}
			strs[i] = String(r.Value)
		}
		resp := ToolResponse{Result: roots, String: strings.Join(strs, ", ")}
		if err != nil {
			resp.Error = err.Error()
		}
		return resp

	case "to_latex":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		return ToolResponse{Result: LaTeX(e), LaTeX: LaTeX(e), String: String(e)}

	case "free_symbols":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		names := SortedSymbols(e)
		return ToolResponse{Result: names, String: strings.Join(names, ", ")}

	case "degree":
		e, x, err := exprAndVar()
		if err != nil {
			return fail(err)
		}
		d := Degree(e, x.name)
		if d < 0 {
			return fail(fmt.Errorf("%s is not a polynomial in %s", String(e), x.name))
		}
		return ToolResponse{Result: d, String: fmt.Sprint(d)}

	case "poly_coeffs":
		e, x, err := exprAndVar()
		if err != nil {
			return fail(err)
		}
		coeffs, ok := PolyCoeffs(e, x.name)
		if !ok {
			return fail(fmt.Errorf("%s is not a polynomial in %s", String(e), x.name))
		}
		degs := make([]int, 0, len(coeffs))
		for d := range coeffs {
			degs = append(degs, d)
		}
		sort.Ints(degs)
		out := map[string]interface{}{}
		parts := make([]string, len(degs))
		for i, d := range degs {
			out[fmt.Sprint(d)] = coeffs[d].toJSON()
			parts[i] = fmt.Sprintf("%d: %s", d, String(coeffs[d]))
		}
		return ToolResponse{Result: out, String: strings.Join(parts, ", ")}

	case "evaluate":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		at, err := getPoint("point")
		if err != nil {
			return fail(err)
		}
		z, err := Evaluate(e, at)
		if err != nil {
			return fail(err)
		}
		return ToolResponse{
			Result: map[string]float64{"re": real(z), "im": imag(z)},
			String: fmt.Sprint(z),
		}

	case "mcp_spec":
		return ToolResponse{Result: MCPToolSpec(), String: "MCP tool specification"}
	}

	return fail(fmt.Errorf("unknown tool: %s", req.Tool))
}

// MCPToolSpec returns the tool schema as indented JSON.
func MCPToolSpec() string {
	exprOnly := map[string]string{"expr": "object"}
	exprVar := map[string]string{"expr": "object", "var": "string"}
	tools := []map[string]interface{}{
		ts("simplify", "Canonical rational form: one fraction, coprime expanded numerator and denominator", []string{"expr"}, exprOnly),
		ts("expand", "Distribute products and multiply out integer powers of sums", []string{"expr"}, exprOnly),
		ts("together", "Numerator and denominator of the canonical form", []string{"expr"}, exprOnly),
		ts("diff", "Exact derivative d/dvar", []string{"expr", "var"}, exprVar),
		ts("substitute", "Replace var by value and re-simplify", []string{"expr", "var", "value"}, map[string]string{"expr": "object", "var": "string", "value": "object"}),
		ts("solve", "Every closed-form root of expr = 0 in var, with verification status", []string{"expr", "var"}, exprVar),
		ts("to_latex", "Convert to LaTeX", []string{"expr"}, exprOnly),
		ts("free_symbols", "Return free symbol names", []string{"expr"}, exprOnly),
		ts("degree", "Polynomial degree in variable", []string{"expr", "var"}, exprVar),
		ts("poly_coeffs", "Extract polynomial coefficients by degree", []string{"expr", "var"}, exprVar),
		ts("evaluate", "Complex value at a point {name: number}", []string{"expr"}, map[string]string{"expr": "object", "point": "object"}),
		ts("mcp_spec", "Return this tool schema", []string{}, map[string]string{}),
	}
	spec := map[string]interface{}{"tools": tools}
	b, _ := json.MarshalIndent(spec, "", "  ")
	return string(b)
}

func ts(name, description string, required []string, props map[string]string) map[string]interface{} {
	properties := map[string]interface{}{}
	for k, typ := range props {
		properties[k] = map[string]interface{}{"type": typ}
	}
	return map[string]interface{}{
		"name":        name,
		"description": description,
		"inputSchema": map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
