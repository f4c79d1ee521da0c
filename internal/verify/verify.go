// Package verify implements the contract verifier (C7) and the
// k-induction loop-invariant scaffold (C9) of spec §4.7/§4.9.
package verify

import (
	"covenant/internal/diag"
	"covenant/internal/lang"
	"covenant/internal/smt"
)

// ContractStatus is the per-contract outcome of C7 (spec §4.7,
// "Outputs per contract").
type ContractStatus int

const (
	Unproven ContractStatus = iota
	Proven
	Disproven
	Unsupported
	Skipped
)

func (s ContractStatus) String() string {
	switch s {
	case Proven:
		return "Proven"
	case Disproven:
		return "Disproven"
	case Unsupported:
		return "Unsupported"
	case Skipped:
		return "Skipped"
	default:
		return "Unproven"
	}
}

// ContractResult pairs a contract with its discharge outcome.
type ContractResult struct {
	Contract       lang.Contract
	Status         ContractStatus
	Counterexample string
}

// FunctionResult is the full C7 output for one function.
type FunctionResult struct {
	Requires []ContractResult
	Ensures  []ContractResult
	// DeadPreconditions lists index pairs (i, j) into Requires whose
	// conjunction is UNSAT (spec §4.7, "any pair whose conjunction is
	// UNSAT is flagged as dead").
	DeadPreconditions [][2]int
}

// VerifyFunction simplifies every contract (C1) and attempts to
// discharge it (C7). solverCtx may be nil, in which case every
// precondition and postcondition gets the status Skipped.
func VerifyFunction(fn *lang.Function, solverCtx *smt.Context, sink diag.Sink) FunctionResult {
	simplifiedRequires := simplifyContracts(fn.Requires, sink)
	simplifiedEnsures := simplifyContracts(fn.Ensures, sink)

	result := FunctionResult{}

	// Preconditions are checked individually for self-consistency and
	// pairwise for dead combinations.
	for _, req := range simplifiedRequires {
		status := checkSatisfiable(solverCtx, fn.Params, req.Expr, fn.OutputType)
		result.Requires = append(result.Requires, ContractResult{Contract: req, Status: status})
	}
	for i := 0; i < len(simplifiedRequires); i++ {
		for j := i + 1; j < len(simplifiedRequires); j++ {
			conj := &lang.BinaryExpr{Op: lang.And, Left: simplifiedRequires[i].Expr, Right: simplifiedRequires[j].Expr}
			if checkSatisfiable(solverCtx, fn.Params, conj, fn.OutputType) == Disproven {
				result.DeadPreconditions = append(result.DeadPreconditions, [2]int{i, j})
				sink.Report(simplifiedRequires[j].Span, diag.PreconditionMayBeViolated,
					"preconditions are mutually exclusive; this one can never hold alongside the others", diag.Warning)
			}
		}
	}

	pre := conjoinContracts(simplifiedRequires)
	for _, ens := range simplifiedEnsures {
		status, cx := dischargePostcondition(solverCtx, fn, pre, ens.Expr)
		result.Ensures = append(result.Ensures, ContractResult{Contract: ens, Status: status, Counterexample: cx})
		reportEnsuresDiagnostic(sink, ens, status, cx)
	}

	synthesizeLoopInvariants(fn, solverCtx, pre, conjoinContracts(simplifiedEnsures), sink)

	return result
}

func simplifyContracts(contracts []lang.Contract, sink diag.Sink) []lang.Contract {
	out := make([]lang.Contract, len(contracts))
	for i, c := range contracts {
		simplified, notes := lang.Simplify(c.Expr)
		for _, note := range notes {
			reportSimplifyNote(sink, note)
		}
		out[i] = lang.Contract{Expr: simplified, Message: c.Message, Span: c.Span}
	}
	return out
}

func reportSimplifyNote(sink diag.Sink, note lang.SimplifyNote) {
	switch note.Kind {
	case lang.SimplifyTautology:
		sink.Report(note.Span, diag.ContractTautology, "contract simplifies to true", diag.Info)
	case lang.SimplifyContradiction:
		sink.Report(note.Span, diag.ContractContradiction, "contract simplifies to false", diag.Warning)
	case lang.SimplifySimplified:
		sink.Report(note.Span, diag.ContractSimplified, "contract simplified", diag.Info)
	}
}

func conjoinContracts(contracts []lang.Contract) lang.Expr {
	var e lang.Expr = &lang.BoolLit{Value: true}
	for _, c := range contracts {
		e = &lang.BinaryExpr{Op: lang.And, Left: e, Right: c.Expr}
	}
	return e
}

// checkSatisfiable asks whether e is satisfiable (not universally
// false): proves `e ⇒ false`; UNSAT of that query means e is
// unsatisfiable (Disproven-as-dead), SAT means e is satisfiable
// (treated as Proven here, i.e. "not dead").
func checkSatisfiable(ctx *smt.Context, params []lang.Param, e lang.Expr, out *lang.Type) ContractStatus {
	if ctx == nil {
		return Skipped
	}
	res := smt.Prove(ctx, params, e, &lang.BoolLit{Value: false}, out)
	switch res.Status {
	case smt.Proven:
		return Disproven // e is unsatisfiable
	case smt.Disproven:
		return Proven // e is satisfiable
	case smt.Unsupported:
		return Unsupported
	default:
		return Unproven
	}
}

// dischargePostcondition attempts to prove pre ⇒ Qi (spec §4.7).
func dischargePostcondition(ctx *smt.Context, fn *lang.Function, pre, q lang.Expr) (ContractStatus, string) {
	if ctx == nil {
		return Skipped, ""
	}
	res := smt.Prove(ctx, fn.Params, pre, q, fn.OutputType)
	switch res.Status {
	case smt.Proven:
		return Proven, ""
	case smt.Disproven:
		return Disproven, res.Counterexample
	case smt.Unsupported:
		return Unsupported, ""
	default:
		return Unproven, ""
	}
}

func reportEnsuresDiagnostic(sink diag.Sink, ens lang.Contract, status ContractStatus, cx string) {
	switch status {
	case Disproven:
		msg := "postcondition may be violated"
		if cx != "" {
			msg += ": " + cx
		}
		sink.Report(ens.Span, diag.PostconditionMayBeViolated, msg, diag.Warning)
	case Unproven:
		sink.Report(ens.Span, diag.VerificationSkipped, "postcondition could not be discharged within the solver timeout", diag.Info)
	case Unsupported:
		sink.Report(ens.Span, diag.VerificationSkipped, "postcondition uses constructs outside the supported SMT subset", diag.Info)
	}
}
