package checkers

import (
	"covenant/internal/diag"
	"covenant/internal/lang"
	"covenant/internal/smt"
)

// checkDivisionByZero implements spec §4.6.1.
func checkDivisionByZero(n *lang.BinaryExpr, pathCond lang.Expr, params []lang.Param, resultType *lang.Type, ctx *smt.Context, sink diag.Sink) {
	divisor := n.Right

	if isNonZeroLiteral(divisor) {
		return // skipped
	}
	if isZeroLiteral(divisor) {
		sink.Report(n.Span(), diag.DivisionByZero, "division by literal zero", diag.Error)
		return
	}

	if ctx == nil || !smt.Available() {
		if heuristicGuardsNonZero(divisor, pathCond) {
			return
		}
		sink.Report(n.Span(), diag.DivisionByZero, "divisor may be zero (no guard found on this path)", diag.Warning)
		return
	}

	isZero := &lang.BinaryExpr{Op: lang.Eq, Left: divisor, Right: &lang.IntLit{Value: 0, Width: 32, Signed: true}}
	query := &lang.BinaryExpr{Op: lang.And, Left: pathCond, Right: isZero}
	res := smt.Prove(ctx, params, &lang.BoolLit{Value: true}, &lang.UnaryExpr{Op: lang.Not, Operand: query}, resultType)

	switch res.Status {
	case smt.Disproven: // query was satisfiable: a zero divisor is reachable
		msg := "divisor may be zero"
		if res.Counterexample != "" {
			msg += ": " + res.Counterexample
		}
		sink.Report(n.Span(), diag.DivisionByZero, msg, diag.Warning)
	case smt.Proven:
		// UNSAT: divisor cannot be zero on this path.
	default:
		sink.Report(n.Span(), diag.DivisionByZero, "divisor-is-zero reachability inconclusive", diag.Info)
	}
}

// heuristicGuardsNonZero reports whether pathCond contains a guard of
// the form v != 0, v > 0, or v < 0 for the given divisor variable (spec
// §4.6.1, "In heuristic-only mode").
func heuristicGuardsNonZero(divisor lang.Expr, pathCond lang.Expr) bool {
	v, ok := divisor.(*lang.VarRef)
	if !ok {
		return true // not a plain variable: spec only requires the heuristic for that case
	}
	found := false
	var walk func(e lang.Expr)
	walk = func(e lang.Expr) {
		be, ok := e.(*lang.BinaryExpr)
		if !ok {
			return
		}
		if be.Op == lang.And {
			walk(be.Left)
			walk(be.Right)
			return
		}
		switch be.Op {
		case lang.Neq, lang.Gt, lang.Lt:
			if refersTo(be.Left, v.Name) && isZeroLiteral(be.Right) {
				found = true
			}
			if refersTo(be.Right, v.Name) && isZeroLiteral(be.Left) {
				found = true
			}
		}
	}
	walk(pathCond)
	return found
}

func refersTo(e lang.Expr, name string) bool {
	v, ok := e.(*lang.VarRef)
	return ok && v.Name == name
}
