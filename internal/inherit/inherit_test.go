package inherit

import (
	"testing"
	"time"

	"covenant/internal/diag"
	"covenant/internal/lang"
	"covenant/internal/smt"
)

func method(name string, params []lang.Param, requires, ensures []lang.Contract) lang.Function {
	return lang.Function{Name: name, Params: params, OutputType: lang.I32, Requires: requires, Ensures: ensures}
}

func TestResolvePairsMatchesByNameAndParamTypes(t *testing.T) {
	iface := &lang.Interface{
		Name:    "Shape",
		Methods: []lang.Function{method("area", []lang.Param{{Name: "x", Type: lang.I32}}, nil, nil)},
	}
	class := &lang.Class{
		Name:    "Square",
		Methods: []lang.Function{method("area", []lang.Param{{Name: "x", Type: lang.I32}}, nil, nil)},
	}
	pairs := ResolvePairs(class, iface)
	if len(pairs) != 1 {
		t.Fatalf("expected 1 resolved pair, got %d", len(pairs))
	}
}

func TestResolvePairsSkipsMismatchedParamTypes(t *testing.T) {
	iface := &lang.Interface{
		Name:    "Shape",
		Methods: []lang.Function{method("area", []lang.Param{{Name: "x", Type: lang.I32}}, nil, nil)},
	}
	class := &lang.Class{
		Name:    "Square",
		Methods: []lang.Function{method("area", []lang.Param{{Name: "x", Type: lang.I64}}, nil, nil)},
	}
	pairs := ResolvePairs(class, iface)
	if len(pairs) != 0 {
		t.Fatalf("expected 0 resolved pairs for mismatched param types, got %d", len(pairs))
	}
}

func TestCheckNoContracts(t *testing.T) {
	iface := method("f", nil, nil, nil)
	impl := method("f", nil, nil, nil)
	pair := MethodPair{ClassName: "C", InterfaceName: "I", Interface: &iface, Implementer: &impl}
	sink := diag.NewCollector()
	res := Check(nil, nil, pair, sink)
	if res.State != NoContracts {
		t.Fatalf("expected NoContracts, got %v", res.State)
	}
}

func TestCheckInherited(t *testing.T) {
	iface := method("f", nil, []lang.Contract{{Expr: &lang.BoolLit{Value: true}}}, nil)
	impl := method("f", nil, nil, nil)
	pair := MethodPair{ClassName: "C", InterfaceName: "I", Interface: &iface, Implementer: &impl}
	sink := diag.NewCollector()
	res := Check(nil, nil, pair, sink)
	if res.State != Inherited {
		t.Fatalf("expected Inherited, got %v", res.State)
	}
}

func TestCheckBothContractedNoSolverDefaultsValid(t *testing.T) {
	ifaceReq := lang.Contract{Expr: &lang.BinaryExpr{Op: lang.Gt, Left: &lang.VarRef{Name: "x", Type: lang.I32}, Right: &lang.IntLit{Value: 0, Width: 32, Signed: true}}}
	implReq := lang.Contract{Expr: &lang.BinaryExpr{Op: lang.Geq, Left: &lang.VarRef{Name: "x", Type: lang.I32}, Right: &lang.IntLit{Value: 0, Width: 32, Signed: true}}}
	iface := method("f", []lang.Param{{Name: "x", Type: lang.I32}}, []lang.Contract{ifaceReq}, nil)
	impl := method("f", []lang.Param{{Name: "x", Type: lang.I32}}, []lang.Contract{implReq}, nil)
	pair := MethodPair{ClassName: "C", InterfaceName: "I", Interface: &iface, Implementer: &impl}
	sink := diag.NewCollector()
	res := Check(nil, nil, pair, sink)
	if res.State != Valid {
		t.Fatalf("expected heuristic fallback to Valid (x>=0 weaker than x>0), got %v", res.State)
	}
}

// TestCheckEnsuresMatchesClauseByClause exercises the per-clause
// matching ClauseImplies performs: the interface has two independent
// ensures clauses, and the implementer satisfies each with a different
// one of its own two clauses. Conjoining the implementer's clauses into
// one formula would prove the same thing, but matching clause-by-clause
// is what lets a later Disproven pinpoint which specific clause failed.
func TestCheckEnsuresMatchesClauseByClause(t *testing.T) {
	if !smt.Available() {
		t.Skip("z3 not available")
	}
	x := lang.Param{Name: "x", Type: lang.I32}
	geq0 := lang.Contract{Expr: &lang.BinaryExpr{Op: lang.Geq, Left: &lang.VarRef{Name: "result", Type: lang.I32}, Right: &lang.IntLit{Value: 0, Width: 32, Signed: true}}}
	gtX := lang.Contract{Expr: &lang.BinaryExpr{Op: lang.Gt, Left: &lang.VarRef{Name: "result", Type: lang.I32}, Right: &lang.VarRef{Name: "x", Type: lang.I32}}}
	iface := method("f", []lang.Param{x}, nil, []lang.Contract{geq0, gtX})
	impl := method("f", []lang.Param{x}, nil, []lang.Contract{geq0, gtX})
	pair := MethodPair{ClassName: "C", InterfaceName: "I", Interface: &iface, Implementer: &impl}
	sink := diag.NewCollector()
	ctx := smt.NewContext(5 * time.Second)
	res := Check(ctx, nil, pair, sink)
	if res.State != Valid {
		t.Fatalf("expected Valid when each interface clause is matched by an identical implementer clause, got %v", res.State)
	}
}

// TestCheckEnsuresViolationLocatesFailingClause confirms an unmatched
// interface clause is still reported as a Violation even when the
// implementer's other clause matches fine — conjoining everything into
// one formula could let a spurious combination paper over this.
func TestCheckEnsuresViolationLocatesFailingClause(t *testing.T) {
	if !smt.Available() {
		t.Skip("z3 not available")
	}
	x := lang.Param{Name: "x", Type: lang.I32}
	geq0 := lang.Contract{Expr: &lang.BinaryExpr{Op: lang.Geq, Left: &lang.VarRef{Name: "result", Type: lang.I32}, Right: &lang.IntLit{Value: 0, Width: 32, Signed: true}}}
	gtX := lang.Contract{Expr: &lang.BinaryExpr{Op: lang.Gt, Left: &lang.VarRef{Name: "result", Type: lang.I32}, Right: &lang.VarRef{Name: "x", Type: lang.I32}}}
	iface := method("f", []lang.Param{x}, nil, []lang.Contract{geq0, gtX})
	impl := method("f", []lang.Param{x}, nil, []lang.Contract{geq0})
	pair := MethodPair{ClassName: "C", InterfaceName: "I", Interface: &iface, Implementer: &impl}
	sink := diag.NewCollector()
	ctx := smt.NewContext(5 * time.Second)
	res := Check(ctx, nil, pair, sink)
	if res.State != Violation {
		t.Fatalf("expected Violation when the implementer drops the result>x clause, got %v", res.State)
	}
}
