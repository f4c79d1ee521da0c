package smt

import "fmt"

// Overflow predicates for the arithmetic bug patterns of spec §4.6,
// expressed directly in terms of already-encoded bit-vector operand
// strings a and b.

// OverflowAdd is true when a+b overflows a signed bit-vector: both
// operands positive and the sum non-positive, or both negative and the
// sum non-negative.
func OverflowAdd(a, b string) string {
	sum := fmt.Sprintf("(bvadd %s %s)", a, b)
	return fmt.Sprintf(
		"(or (and (bvsgt %s (_ bv0 32)) (bvsgt %s (_ bv0 32)) (bvsle %s (_ bv0 32))) "+
			"(and (bvslt %s (_ bv0 32)) (bvslt %s (_ bv0 32)) (bvsge %s (_ bv0 32))))",
		a, b, sum, a, b, sum)
}

// OverflowSub is the analogous predicate for a-b: operand signs differ
// and the result's sign matches b's sign rather than a's.
func OverflowSub(a, b string) string {
	diff := fmt.Sprintf("(bvsub %s %s)", a, b)
	return fmt.Sprintf(
		"(or (and (bvsgt %s (_ bv0 32)) (bvslt %s (_ bv0 32)) (bvslt %s (_ bv0 32))) "+
			"(and (bvslt %s (_ bv0 32)) (bvsgt %s (_ bv0 32)) (bvsgt %s (_ bv0 32))))",
		a, b, diff, a, b, diff)
}

// OverflowMul is true when b is nonzero and dividing the product back by
// b does not recover a (spec §4.2: "(b≠0) ∧ (sdiv(a*b,b) ≠ a)").
func OverflowMul(a, b string) string {
	product := fmt.Sprintf("(bvmul %s %s)", a, b)
	return fmt.Sprintf(
		"(and (distinct %s (_ bv0 32)) (distinct (bvsdiv %s %s) %s))",
		b, product, b, a)
}

// OverflowNeg is true when operand equals the minimum signed value of
// its width, since negating it has no representable result.
func OverflowNeg(operand string, width int) string {
	minVal := fmt.Sprintf("(bvshl (_ bv1 %d) (_ bv%d %d))", width, width-1, width)
	return fmt.Sprintf("(= %s %s)", operand, minVal)
}
