package checkers

import (
	"covenant/internal/diag"
	"covenant/internal/lang"
	"covenant/internal/smt"
)

// checkOverflowBinary implements spec §4.6.3 for +, -, *, <<.
func checkOverflowBinary(n *lang.BinaryExpr, pathCond lang.Expr, params []lang.Param, resultType *lang.Type, ctx *smt.Context, sink diag.Sink) {
	if folded, overflowed := tryFoldOverflow(n); folded {
		if overflowed {
			sink.Report(n.Span(), diag.IntegerOverflow, "constant expression overflows", diag.Warning)
		}
		return
	}

	if ctx == nil || !smt.Available() {
		return
	}

	enc := smt.NewEncoder()
	enc.DeclareParams(params)
	aTerm, errA := enc.Encode(n.Left)
	bTerm, errB := enc.Encode(n.Right)
	if errA != nil || errB != nil {
		return
	}

	var predText string
	switch n.Op {
	case lang.Add:
		predText = smt.OverflowAdd(aTerm, bTerm)
	case lang.Sub:
		predText = smt.OverflowSub(aTerm, bTerm)
	case lang.Mul:
		predText = smt.OverflowMul(aTerm, bTerm)
	default:
		return // Shl has no dedicated predicate in spec §4.2; left to constant folding above
	}

	pathTerm, err := enc.Encode(pathCond)
	if err != nil {
		return
	}

	script := enc.Preamble() + "(assert " + pathTerm + ")\n(assert " + predText + ")\n(check-sat)\n"
	res := ctx.CheckSat(script)
	if res.Status == smt.Disproven {
		sink.Report(n.Span(), diag.IntegerOverflow, "operation may overflow on this path", diag.Warning)
	}
}

// checkOverflowNeg implements spec §4.6.3's unary-negate case: overflow
// iff the operand equals the minimum signed value of its width.
func checkOverflowNeg(n *lang.UnaryExpr, pathCond lang.Expr, params []lang.Param, resultType *lang.Type, ctx *smt.Context, sink diag.Sink) {
	i, ok := n.Operand.(*lang.IntLit)
	if ok {
		width := i.Width
		if width == 0 {
			width = 32
		}
		if i.Value == minSigned(width) {
			sink.Report(n.Span(), diag.IntegerOverflow, "negating the minimum signed value overflows", diag.Warning)
		}
		return
	}

	if ctx == nil || !smt.Available() {
		return
	}
	v, ok := n.Operand.(*lang.VarRef)
	if !ok || !v.Type.IsInteger() {
		return
	}
	enc := smt.NewEncoder()
	enc.DeclareParams(params)
	operand, err := enc.Encode(n.Operand)
	if err != nil {
		return
	}
	pathTerm, err := enc.Encode(pathCond)
	if err != nil {
		return
	}
	pred := smt.OverflowNeg(operand, v.Type.Width())
	script := enc.Preamble() + "(assert " + pathTerm + ")\n(assert " + pred + ")\n(check-sat)\n"
	res := ctx.CheckSat(script)
	if res.Status == smt.Disproven {
		sink.Report(n.Span(), diag.IntegerOverflow, "negation may overflow (operand may equal the minimum signed value)", diag.Warning)
	}
}

func minSigned(width int) int64 {
	return -(int64(1) << uint(width-1))
}

// tryFoldOverflow attempts compile-time folding in checked mode for two
// integer-literal operands, reporting whether folding applied and
// whether it overflowed (spec §4.6.3 step 1).
func tryFoldOverflow(n *lang.BinaryExpr) (folded, overflowed bool) {
	l, lok := n.Left.(*lang.IntLit)
	r, rok := n.Right.(*lang.IntLit)
	if !lok || !rok {
		return false, false
	}
	width := l.Width
	if width == 0 {
		width = 32
	}
	max := int64(1)<<uint(width-1) - 1
	min := minSigned(width)
	switch n.Op {
	case lang.Add:
		sum := l.Value + r.Value
		return true, sum > max || sum < min
	case lang.Sub:
		diff := l.Value - r.Value
		return true, diff > max || diff < min
	case lang.Mul:
		prod := l.Value * r.Value
		return true, prod > max || prod < min
	case lang.Shl:
		shifted := l.Value << uint(r.Value)
		return true, shifted > max || shifted < min
	}
	return false, false
}
