package wellformed

import (
	"testing"

	"covenant/internal/diag"
	"covenant/internal/lang"
)

func TestCheckFunctionFlagsUndefinedReference(t *testing.T) {
	fn := &lang.Function{
		Name:       "f",
		Params:     []lang.Param{{Name: "x", Type: lang.I32}},
		OutputType: lang.I32,
		Requires: []lang.Contract{
			{Expr: &lang.BinaryExpr{Op: lang.Gt, Left: &lang.VarRef{Name: "y", Type: lang.I32}, Right: &lang.IntLit{Value: 0, Width: 32, Signed: true}}},
		},
	}
	sink := diag.NewCollector()
	failed := CheckFunction(fn, nil, nil, sink)
	if len(failed) != 1 {
		t.Fatalf("expected 1 malformed contract, got %d", len(failed))
	}
	if !hasCode(sink, diag.UndefinedReference) {
		t.Fatal("expected an UndefinedReference diagnostic")
	}
}

func TestCheckFunctionAllowsParamAndResult(t *testing.T) {
	fn := &lang.Function{
		Name:       "f",
		Params:     []lang.Param{{Name: "x", Type: lang.I32}},
		OutputType: lang.I32,
		Requires: []lang.Contract{
			{Expr: &lang.BinaryExpr{Op: lang.Gt, Left: &lang.VarRef{Name: "x", Type: lang.I32}, Right: &lang.IntLit{Value: 0, Width: 32, Signed: true}}},
		},
		Ensures: []lang.Contract{
			{Expr: &lang.BinaryExpr{Op: lang.Geq, Left: &lang.ResultRef{Type: lang.I32}, Right: &lang.IntLit{Value: 0, Width: 32, Signed: true}}},
		},
	}
	sink := diag.NewCollector()
	failed := CheckFunction(fn, nil, nil, sink)
	if len(failed) != 0 {
		t.Fatalf("expected no malformed contracts, got %d: %v", len(failed), sink.Diagnostics)
	}
}

func TestCheckFunctionFlagsResultOutsidePostcondition(t *testing.T) {
	fn := &lang.Function{
		Name:       "f",
		Params:     nil,
		OutputType: lang.Bool,
		Requires: []lang.Contract{
			{Expr: &lang.ResultRef{Type: lang.I32}},
		},
	}
	sink := diag.NewCollector()
	failed := CheckFunction(fn, nil, nil, sink)
	if len(failed) != 1 {
		t.Fatalf("expected 'result' in a precondition to be flagged, got %d", len(failed))
	}
}

func TestCheckFunctionAllowsQuantifierBoundVariable(t *testing.T) {
	fn := &lang.Function{
		Name: "f",
		Requires: []lang.Contract{
			{Expr: &lang.QuantifierExpr{
				Kind:     lang.Forall,
				Variable: "i",
				VarType:  lang.I32,
				Domain:   &lang.Domain{Start: &lang.IntLit{Value: 0, Width: 32, Signed: true}, End: &lang.IntLit{Value: 10, Width: 32, Signed: true}},
				Body:     &lang.BinaryExpr{Op: lang.Geq, Left: &lang.VarRef{Name: "i", Type: lang.I32}, Right: &lang.IntLit{Value: 0, Width: 32, Signed: true}},
			}},
		},
	}
	sink := diag.NewCollector()
	failed := CheckFunction(fn, nil, nil, sink)
	if len(failed) != 0 {
		t.Fatalf("expected quantifier-bound 'i' to resolve, got %d failures: %v", len(failed), sink.Diagnostics)
	}
}

func TestCheckFunctionFlagsNonIntegerQuantifierType(t *testing.T) {
	fn := &lang.Function{
		Name: "f",
		Requires: []lang.Contract{
			{Expr: &lang.QuantifierExpr{
				Kind:     lang.Forall,
				Variable: "s",
				VarType:  lang.Str,
				Domain:   &lang.Domain{Start: &lang.IntLit{Value: 0, Width: 32, Signed: true}, End: &lang.IntLit{Value: 10, Width: 32, Signed: true}},
				Body:     &lang.BoolLit{Value: true},
			}},
		},
	}
	sink := diag.NewCollector()
	failed := CheckFunction(fn, nil, nil, sink)
	if len(failed) != 1 {
		t.Fatalf("expected non-integer quantifier type to be flagged, got %d", len(failed))
	}
	if !hasCode(sink, diag.QuantifierNonIntegerType) {
		t.Fatal("expected a QuantifierNonIntegerType diagnostic")
	}
}

func TestCheckFunctionAllowsFieldsAndEnumConstants(t *testing.T) {
	fn := &lang.Function{
		Name:       "f",
		OutputType: lang.Bool,
		Requires: []lang.Contract{
			{Expr: &lang.BinaryExpr{Op: lang.Eq, Left: &lang.VarRef{Name: "balance", Type: lang.I64}, Right: &lang.VarRef{Name: "Active", Type: lang.I32}}},
		},
	}
	fields := []lang.Field{{Name: "balance", Type: lang.I64}}
	enumConsts := map[string]bool{"Active": true}
	sink := diag.NewCollector()
	failed := CheckFunction(fn, fields, enumConsts, sink)
	if len(failed) != 0 {
		t.Fatalf("expected field and enum constant references to resolve, got %d: %v", len(failed), sink.Diagnostics)
	}
}

func TestCheckParamVectorsFlagsTypeMismatch(t *testing.T) {
	iface := &lang.Function{Name: "area", Params: []lang.Param{{Name: "x", Type: lang.I32}}}
	impl := &lang.Function{Name: "area", Params: []lang.Param{{Name: "x", Type: lang.I64}}}
	sink := diag.NewCollector()
	if CheckParamVectors("Square", "Shape", iface, impl, sink) {
		t.Fatal("expected type mismatch to be flagged")
	}
	if !hasCode(sink, diag.TypeMismatch) {
		t.Fatal("expected a TypeMismatch diagnostic")
	}
}

func TestCheckParamVectorsAllowsMatchingTypes(t *testing.T) {
	iface := &lang.Function{Name: "area", Params: []lang.Param{{Name: "x", Type: lang.I32}}}
	impl := &lang.Function{Name: "area", Params: []lang.Param{{Name: "x", Type: lang.I32}}}
	sink := diag.NewCollector()
	if !CheckParamVectors("Square", "Shape", iface, impl, sink) {
		t.Fatal("expected matching param vectors to pass")
	}
	if len(sink.Diagnostics) != 0 {
		t.Fatalf("expected no diagnostics for a matching param vector, got %v", sink.Diagnostics)
	}
}

func hasCode(c *diag.Collector, code diag.Code) bool {
	for _, d := range c.Diagnostics {
		if d.Code == code {
			return true
		}
	}
	return false
}
