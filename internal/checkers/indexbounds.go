package checkers

import (
	"covenant/internal/diag"
	"covenant/internal/lang"
	"covenant/internal/smt"
)

// checkIndexBounds reports array/list accesses whose index can be
// negative under pathCond. Only the negative-index direction is checked;
// an index at or past the collection's length is not reported.
func checkIndexBounds(n *lang.ArrayAccessExpr, pathCond lang.Expr, params []lang.Param, resultType *lang.Type, ctx *smt.Context, sink diag.Sink) {
	idx := n.Index

	if i, ok := idx.(*lang.IntLit); ok {
		if i.Value < 0 {
			sink.Report(n.Span(), diag.IndexOutOfBounds, "index is a literal negative value", diag.Error)
		}
		return
	}

	if ctx == nil || !smt.Available() {
		sink.Report(n.Span(), diag.IndexOutOfBounds, "index may be negative (no solver available to confirm)", diag.Info)
		return
	}

	isNeg := &lang.BinaryExpr{Op: lang.Lt, Left: idx, Right: &lang.IntLit{Value: 0, Width: 32, Signed: true}}
	query := &lang.BinaryExpr{Op: lang.And, Left: pathCond, Right: isNeg}
	res := smt.Prove(ctx, params, &lang.BoolLit{Value: true}, &lang.UnaryExpr{Op: lang.Not, Operand: query}, resultType)

	switch res.Status {
	case smt.Disproven:
		msg := "index may be negative"
		if res.Counterexample != "" {
			msg += ": " + res.Counterexample
		}
		sink.Report(n.Span(), diag.IndexOutOfBounds, msg, diag.Warning)
	case smt.Proven:
		// index is provably non-negative on this path.
	default:
		sink.Report(n.Span(), diag.IndexOutOfBounds, "index-out-of-bounds reachability inconclusive", diag.Info)
	}
}
