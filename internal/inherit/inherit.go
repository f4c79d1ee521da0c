// Package inherit implements the LSP (Liskov substitution) inheritance
// checker (C8, spec §4.8): for each class claiming to implement an
// interface, resolves each method pair and checks that the implementer
// may only weaken preconditions and strengthen postconditions.
package inherit

import (
	"covenant/internal/diag"
	"covenant/internal/lang"
	"covenant/internal/smt"
)

// State is the per-(class, interface-method) outcome (spec §4.8).
type State int

const (
	NoContracts State = iota
	Inherited
	Valid
	Violation
)

func (s State) String() string {
	switch s {
	case Inherited:
		return "Inherited"
	case Valid:
		return "Valid"
	case Violation:
		return "Violation"
	default:
		return "NoContracts"
	}
}

// MethodPair is one resolved (interface method, implementer method)
// pair with matching parameter-type vectors.
type MethodPair struct {
	ClassName     string
	InterfaceName string
	Interface     *lang.Function
	Implementer   *lang.Function
}

// CheckResult is the outcome for one MethodPair.
type CheckResult struct {
	Pair  MethodPair
	State State
}

// ResolvePairs matches each interface method against the implementing
// class method with an identical parameter-type vector. Mismatched
// vectors are skipped here; spec §4.8 assigns that error to a different
// component ("not by C8").
func ResolvePairs(class *lang.Class, iface *lang.Interface) []MethodPair {
	var pairs []MethodPair
	for i := range iface.Methods {
		im := &iface.Methods[i]
		for j := range class.Methods {
			cm := &class.Methods[j]
			if cm.Name == im.Name && paramTypesMatch(im.Params, cm.Params) {
				pairs = append(pairs, MethodPair{
					ClassName:     class.Name,
					InterfaceName: iface.Name,
					Interface:     im,
					Implementer:   cm,
				})
				break
			}
		}
	}
	return pairs
}

func paramTypesMatch(a, b []lang.Param) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Type.String() != b[i].Type.String() {
			return false
		}
	}
	return true
}

// Check runs the C8 state machine for one MethodPair (spec §4.8's
// table), reporting through sink in (class, interface, method)
// declaration order per spec §5's ordering rule — callers are
// responsible for iterating pairs in that order.
func Check(ctx *smt.Context, fields []lang.Field, pair MethodPair, sink diag.Sink) CheckResult {
	hasIfaceContracts := len(pair.Interface.Requires) > 0 || len(pair.Interface.Ensures) > 0
	hasImplContracts := len(pair.Implementer.Requires) > 0 || len(pair.Implementer.Ensures) > 0

	switch {
	case !hasIfaceContracts && !hasImplContracts:
		return CheckResult{Pair: pair, State: NoContracts}

	case hasIfaceContracts && !hasImplContracts:
		sink.Report(pair.Implementer.Span(), diag.InheritedContracts,
			pair.ClassName+"."+pair.Implementer.Name+" inherits contracts from "+pair.InterfaceName, diag.Info)
		return CheckResult{Pair: pair, State: Inherited}

	default:
		return checkBothSidesContracted(ctx, fields, pair, sink)
	}
}

func checkBothSidesContracted(ctx *smt.Context, fields []lang.Field, pair MethodPair, sink diag.Sink) CheckResult {
	params := pair.Implementer.Params
	outType := pair.Implementer.OutputType

	if !smt.Available() || ctx == nil {
		if heuristicValid(pair) {
			sink.Report(pair.Implementer.Span(), diag.Z3UnavailableForInheritance,
				"solver unavailable; falling back to operator-strength heuristic", diag.Info)
			return CheckResult{Pair: pair, State: Valid}
		}
		return CheckResult{Pair: pair, State: Valid} // heuristic failures default to Valid (spec §4.8)
	}

	// Preconditions: implementer may only weaken -> prove P_interface ⇒
	// P_implementer, matched clause-by-clause: each of the implementer's
	// own requires clauses must individually follow from some interface
	// requires clause (spec §4.4's matching semantics, applied with
	// interface/implementer roles swapped since preconditions run the
	// implication the opposite way from postconditions).
	ifacePreClauses := clauseExprs(pair.Interface.Requires)
	implPreClauses := clauseExprs(pair.Implementer.Requires)
	preResult := smt.ClauseImplies(ctx, fields, params, ifacePreClauses, implPreClauses, outType)
	switch preResult.Status {
	case smt.Disproven:
		msg := "implementer's precondition is stronger than the interface's"
		if preResult.Counterexample != "" {
			msg += ": " + preResult.Counterexample
		}
		sink.Report(pair.Implementer.Span(), diag.StrongerPrecondition, msg, diag.Error)
		return CheckResult{Pair: pair, State: Violation}
	case smt.Proven:
		sink.Report(pair.Implementer.Span(), diag.ImplicationProvenByZ3,
			pair.ClassName+"."+pair.Implementer.Name+"'s precondition is proven no stronger than "+pair.InterfaceName+"'s", diag.Info)
	case smt.Unknown:
		sink.Report(pair.Implementer.Span(), diag.ImplicationUnknown,
			"solver could not decide whether "+pair.ClassName+"."+pair.Implementer.Name+"'s precondition weakens "+pair.InterfaceName+"'s within the timeout", diag.Info)
	}

	// Postconditions: implementer may only strengthen -> for each
	// interface ensures clause, some implementer ensures clause must
	// individually imply it (spec §4.4's matching semantics verbatim).
	ifacePostClauses := clauseExprs(pair.Interface.Ensures)
	implPostClauses := clauseExprs(pair.Implementer.Ensures)
	postResult := smt.ClauseImplies(ctx, fields, params, implPostClauses, ifacePostClauses, outType)
	switch postResult.Status {
	case smt.Disproven:
		msg := "implementer's postcondition is weaker than the interface's"
		if postResult.Counterexample != "" {
			msg += ": " + postResult.Counterexample
		}
		sink.Report(pair.Implementer.Span(), diag.WeakerPostcondition, msg, diag.Error)
		return CheckResult{Pair: pair, State: Violation}
	case smt.Proven:
		sink.Report(pair.Implementer.Span(), diag.ImplicationProvenByZ3,
			pair.ClassName+"."+pair.Implementer.Name+"'s postcondition is proven at least as strong as "+pair.InterfaceName+"'s", diag.Info)
	case smt.Unknown:
		sink.Report(pair.Implementer.Span(), diag.ImplicationUnknown,
			"solver could not decide whether "+pair.ClassName+"."+pair.Implementer.Name+"'s postcondition strengthens "+pair.InterfaceName+"'s within the timeout", diag.Info)
	}

	sink.Report(pair.Implementer.Span(), diag.ContractInheritanceValid,
		pair.ClassName+"."+pair.Implementer.Name+" satisfies "+pair.InterfaceName, diag.Info)
	return CheckResult{Pair: pair, State: Valid}
}

// clauseExprs pulls the bare expression out of each contract clause,
// preserving declaration order so clause-matching diagnostics can be
// traced back to a specific requires/ensures line.
func clauseExprs(contracts []lang.Contract) []lang.Expr {
	exprs := make([]lang.Expr, len(contracts))
	for i, c := range contracts {
		exprs[i] = c.Expr
	}
	return exprs
}

// operatorStrength orders comparison operators for the heuristic
// fallback: ≥ ⊒ >, ≤ ⊒ <, ≠ ⊒ = (spec §4.8).
var operatorStrength = map[lang.BinaryOp]lang.BinaryOp{
	lang.Gt: lang.Geq,
	lang.Lt: lang.Leq,
	lang.Eq: lang.Neq,
}

// heuristicValid compares single-clause requires/ensures on identical
// operands using operatorStrength; anything it cannot determine is left
// to the caller's conservative Valid default.
func heuristicValid(pair MethodPair) bool {
	if len(pair.Interface.Requires) == 1 && len(pair.Implementer.Requires) == 1 {
		i, impl := pair.Interface.Requires[0].Expr, pair.Implementer.Requires[0].Expr
		if ib, ok := i.(*lang.BinaryExpr); ok {
			if mb, ok := impl.(*lang.BinaryExpr); ok {
				if sameOperands(ib, mb) {
					return isWeakerOrEqual(mb.Op, ib.Op)
				}
			}
		}
	}
	return true
}

func sameOperands(a, b *lang.BinaryExpr) bool {
	return exprTextEqual(a.Left, b.Left) && exprTextEqual(a.Right, b.Right)
}

func exprTextEqual(a, b lang.Expr) bool {
	av, aok := a.(*lang.VarRef)
	bv, bok := b.(*lang.VarRef)
	if aok && bok {
		return av.Name == bv.Name
	}
	ai, aok := a.(*lang.IntLit)
	bi, bok := b.(*lang.IntLit)
	if aok && bok {
		return ai.Value == bi.Value
	}
	return false
}

func isWeakerOrEqual(implOp, ifaceOp lang.BinaryOp) bool {
	if implOp == ifaceOp {
		return true
	}
	return operatorStrength[ifaceOp] == implOp
}
