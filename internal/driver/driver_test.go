package driver

import (
	"testing"

	"covenant/internal/diag"
	"covenant/internal/lang"
)

func TestRunModuleNoSolverStillRunsCheckersAndVerify(t *testing.T) {
	fn := lang.Function{
		Name:       "divide",
		Params:     []lang.Param{{Name: "a", Type: lang.I32}, {Name: "b", Type: lang.I32}},
		OutputType: lang.I32,
		Requires: []lang.Contract{
			{Expr: &lang.BinaryExpr{Op: lang.Neq, Left: &lang.VarRef{Name: "b", Type: lang.I32}, Right: &lang.IntLit{Value: 0, Width: 32, Signed: true}}},
		},
		Body: []lang.Stmt{
			&lang.ReturnStmt{Value: &lang.BinaryExpr{Op: lang.Div, Left: &lang.VarRef{Name: "a", Type: lang.I32}, Right: &lang.IntLit{Value: 0, Width: 32, Signed: true}}},
		},
	}
	mod := &lang.Module{Name: "m", Functions: []lang.Function{fn}}

	sink := diag.NewCollector()
	report := RunModule(mod, DefaultOptions(), nil, sink)

	if len(report.Functions) != 1 {
		t.Fatalf("expected 1 function report, got %d", len(report.Functions))
	}
	if len(report.Functions[0].Verify.Requires) != 1 {
		t.Fatalf("expected 1 requires result")
	}

	foundDivByZero := false
	for _, d := range sink.Diagnostics {
		if d.Code == diag.DivisionByZero {
			foundDivByZero = true
		}
	}
	if !foundDivByZero {
		t.Fatal("expected a DivisionByZero diagnostic for a/0")
	}
}

func TestRunModuleResolvesInheritance(t *testing.T) {
	iface := lang.Interface{
		Name: "Shape",
		Methods: []lang.Function{
			{Name: "area", Params: []lang.Param{{Name: "x", Type: lang.I32}}, OutputType: lang.I32},
		},
	}
	class := lang.Class{
		Name:       "Square",
		Interfaces: []string{"Shape"},
		Methods: []lang.Function{
			{Name: "area", Params: []lang.Param{{Name: "x", Type: lang.I32}}, OutputType: lang.I32, Body: []lang.Stmt{&lang.ReturnStmt{}}},
		},
	}
	mod := &lang.Module{Name: "m", Interfaces: []lang.Interface{iface}, Classes: []lang.Class{class}}

	sink := diag.NewCollector()
	report := RunModule(mod, DefaultOptions(), nil, sink)

	if len(report.Inheritors) != 1 {
		t.Fatalf("expected 1 inheritance check result, got %d", len(report.Inheritors))
	}
	if report.Inheritors[0].State != 0 {
		t.Fatalf("expected NoContracts for uncontracted methods, got %v", report.Inheritors[0].State)
	}
}

func TestRunModuleSkipsMalformedContractAndEmitsSummary(t *testing.T) {
	fn := lang.Function{
		Name:       "f",
		Params:     []lang.Param{{Name: "x", Type: lang.I32}},
		OutputType: lang.I32,
		Requires: []lang.Contract{
			// references an undefined name, not 'x'
			{Expr: &lang.BinaryExpr{Op: lang.Gt, Left: &lang.VarRef{Name: "y", Type: lang.I32}, Right: &lang.IntLit{Value: 0, Width: 32, Signed: true}}},
		},
		Body: []lang.Stmt{&lang.ReturnStmt{Value: &lang.VarRef{Name: "x", Type: lang.I32}}},
	}
	mod := &lang.Module{Name: "m", Functions: []lang.Function{fn}}

	sink := diag.NewCollector()
	report := RunModule(mod, DefaultOptions(), nil, sink)

	if len(report.Functions[0].Verify.Requires) != 0 {
		t.Fatalf("expected the malformed precondition to be excluded from verification, got %d results", len(report.Functions[0].Verify.Requires))
	}

	var sawUndefined, sawSummary bool
	for _, d := range sink.Diagnostics {
		switch d.Code {
		case diag.UndefinedReference:
			sawUndefined = true
		case diag.VerificationSummary:
			sawSummary = true
		}
	}
	if !sawUndefined {
		t.Fatal("expected an UndefinedReference diagnostic for the malformed precondition")
	}
	if !sawSummary {
		t.Fatal("expected a VerificationSummary diagnostic for the module")
	}
}

func TestRunModulesProcessesEachModuleConcurrently(t *testing.T) {
	mods := []*lang.Module{
		{Name: "a", Functions: []lang.Function{{Name: "f", OutputType: lang.I32, Body: []lang.Stmt{&lang.ReturnStmt{}}}}},
		{Name: "b", Functions: []lang.Function{{Name: "g", OutputType: lang.I32, Body: []lang.Stmt{&lang.ReturnStmt{}}}}},
	}
	sinks := []diag.Sink{diag.NewCollector(), diag.NewCollector()}

	reports := RunModules(mods, DefaultOptions(), nil, sinks)
	if len(reports) != 2 {
		t.Fatalf("expected 2 module reports, got %d", len(reports))
	}
	if reports[0].Module.Name != "a" || reports[1].Module.Name != "b" {
		t.Fatal("expected reports in input order")
	}
}
