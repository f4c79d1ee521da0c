package lang

// MaxSimplifyIter bounds the fixed-point iteration of Simplify (spec §4.1).
const MaxSimplifyIter = 10

// SimplifyKind labels the per-span informational diagnostic C1 emits.
type SimplifyKind int

const (
	SimplifyNone SimplifyKind = iota
	SimplifyTautology
	SimplifyContradiction
	SimplifySimplified
)

// SimplifyNote is one informational signal produced while simplifying a
// single top-level contract expression; callers may discard it (spec
// §4.1, "Failure: ... emitted as an informational signal; callers may
// discard").
type SimplifyNote struct {
	Span Span
	Kind SimplifyKind
}

// Simplify reduces e to a fixed point of the rewrite rules in spec §4.1,
// iterating at most MaxSimplifyIter times. It returns the simplified
// expression and whatever notes applied to the *top-level* expression
// across all iterations (tautology/contradiction/simplified). Simplify
// never fails: unrecognized sub-nodes pass through unchanged.
func Simplify(e Expr) (Expr, []SimplifyNote) {
	var notes []SimplifyNote
	cur := e
	for i := 0; i < MaxSimplifyIter; i++ {
		next, changed := simplifyOnce(cur)
		if !changed {
			break
		}
		notes = append(notes, SimplifyNote{Span: cur.Span(), Kind: SimplifySimplified})
		cur = next
	}
	if b, ok := cur.(*BoolLit); ok {
		kind := SimplifyContradiction
		if b.Value {
			kind = SimplifyTautology
		}
		notes = append(notes, SimplifyNote{Span: cur.Span(), Kind: kind})
	}
	return cur, notes
}

// simplifyOnce applies every rewrite rule bottom-up in a single pass,
// returning the rewritten node and whether anything changed. Children
// are simplified first so parent rules observe already-reduced operands
// (spec §4.1, "applied bottom-up in one pass per iteration").
func simplifyOnce(e Expr) (Expr, bool) {
	switch n := e.(type) {
	case *UnaryExpr:
		operand, changed := simplifyOnce(n.Operand)
		r, rc := simplifyUnary(n, operand)
		return r, changed || rc

	case *BinaryExpr:
		left, lc := simplifyOnce(n.Left)
		right, rc := simplifyOnce(n.Right)
		r, sc := simplifyBinary(n, left, right)
		return r, lc || rc || sc

	case *CondExpr:
		cond, cc := simplifyOnce(n.Cond)
		then, tc := simplifyOnce(n.Then)
		els, ec := simplifyOnce(n.Else)
		r, sc := simplifyCond(n, cond, then, els)
		return r, cc || tc || ec || sc

	case *ImplicationExpr:
		ant, ac := simplifyOnce(n.Antecedent)
		con, cc := simplifyOnce(n.Consequent)
		r, sc := simplifyImplication(n, ant, con)
		return r, ac || cc || sc

	case *QuantifierExpr:
		body, bc := simplifyOnce(n.Body)
		r, sc := simplifyQuantifier(n, body)
		return r, bc || sc

	case *OldExpr:
		inner, ic := simplifyOnce(n.Inner)
		if ic {
			return &OldExpr{exprBase: n.exprBase, Inner: inner}, true
		}
		return n, false

	case *SomeExpr:
		inner, ic := simplifyOnce(n.Inner)
		if ic {
			return &SomeExpr{exprBase: n.exprBase, Inner: inner}, true
		}
		return n, false

	case *OkExpr:
		inner, ic := simplifyOnce(n.Inner)
		if ic {
			return &OkExpr{exprBase: n.exprBase, Inner: inner}, true
		}
		return n, false

	case *ErrExpr:
		inner, ic := simplifyOnce(n.Inner)
		if ic {
			return &ErrExpr{exprBase: n.exprBase, Inner: inner}, true
		}
		return n, false

	case *FieldAccessExpr:
		recv, rc := simplifyOnce(n.Recv)
		if rc {
			return &FieldAccessExpr{exprBase: n.exprBase, Recv: recv, Field: n.Field}, true
		}
		return n, false

	case *ArrayAccessExpr:
		recv, rc := simplifyOnce(n.Recv)
		idx, ic := simplifyOnce(n.Index)
		if rc || ic {
			return &ArrayAccessExpr{exprBase: n.exprBase, Recv: recv, Index: idx}, true
		}
		return n, false

	default:
		// Literals, VarRef, ResultRef and every other leaf/unrecognized
		// node pass through unchanged.
		return e, false
	}
}

func sameSpan(e Expr) Span { return e.Span() }

func boolLit(at Expr, v bool) *BoolLit {
	return &BoolLit{exprBase: exprBase{Sp: sameSpan(at)}, Value: v}
}

func intLit(at Expr, v int64, width int, signed bool) *IntLit {
	return &IntLit{exprBase: exprBase{Sp: sameSpan(at)}, Value: v, Width: width, Signed: signed}
}

// structEqual reports whether a and b are equal under the structural
// and commutative equality predicate spec §4.1 requires for the
// rewrite rules: +, *, ∧, ∨, ==, ≠ and the bitwise ops are treated as
// commutative, everything else compares positionally.
func structEqual(a, b Expr) bool {
	switch x := a.(type) {
	case *IntLit:
		y, ok := b.(*IntLit)
		return ok && x.Value == y.Value && x.Width == y.Width && x.Signed == y.Signed
	case *FloatLit:
		y, ok := b.(*FloatLit)
		return ok && x.Value == y.Value && x.Width == y.Width
	case *BoolLit:
		y, ok := b.(*BoolLit)
		return ok && x.Value == y.Value
	case *StringLit:
		y, ok := b.(*StringLit)
		return ok && x.Value == y.Value
	case *VarRef:
		y, ok := b.(*VarRef)
		return ok && x.Name == y.Name
	case *ResultRef:
		_, ok := b.(*ResultRef)
		return ok
	case *UnaryExpr:
		y, ok := b.(*UnaryExpr)
		return ok && x.Op == y.Op && structEqual(x.Operand, y.Operand)
	case *BinaryExpr:
		y, ok := b.(*BinaryExpr)
		if !ok || x.Op != y.Op {
			return false
		}
		if structEqual(x.Left, y.Left) && structEqual(x.Right, y.Right) {
			return true
		}
		if isCommutative(x.Op) {
			return structEqual(x.Left, y.Right) && structEqual(x.Right, y.Left)
		}
		return false
	case *FieldAccessExpr:
		y, ok := b.(*FieldAccessExpr)
		return ok && x.Field == y.Field && structEqual(x.Recv, y.Recv)
	case *ArrayAccessExpr:
		y, ok := b.(*ArrayAccessExpr)
		return ok && structEqual(x.Recv, y.Recv) && structEqual(x.Index, y.Index)
	case *CondExpr:
		y, ok := b.(*CondExpr)
		return ok && structEqual(x.Cond, y.Cond) && structEqual(x.Then, y.Then) && structEqual(x.Else, y.Else)
	case *ImplicationExpr:
		y, ok := b.(*ImplicationExpr)
		return ok && structEqual(x.Antecedent, y.Antecedent) && structEqual(x.Consequent, y.Consequent)
	default:
		return false
	}
}

func isCommutative(op BinaryOp) bool {
	switch op {
	case Add, Mul, And, Or, Eq, Neq, BitAnd, BitOr, BitXor:
		return true
	default:
		return false
	}
}

// isNegationOf reports whether not is the logical negation of x, either
// as ¬x or structurally (x == false, etc. are left to the caller).
func isNegationOf(not, x Expr) bool {
	u, ok := not.(*UnaryExpr)
	return ok && u.Op == Not && structEqual(u.Operand, x)
}

func simplifyUnary(n *UnaryExpr, operand Expr) (Expr, bool) {
	switch n.Op {
	case Not:
		if b, ok := operand.(*BoolLit); ok {
			return boolLit(n, !b.Value), true
		}
		if inner, ok := operand.(*UnaryExpr); ok && inner.Op == Not {
			return inner.Operand, true
		}
		// De Morgan: ¬(a∧b) -> ¬a∨¬b, ¬(a∨b) -> ¬a∧¬b.
		if be, ok := operand.(*BinaryExpr); ok && (be.Op == And || be.Op == Or) {
			dual := Or
			if be.Op == Or {
				dual = And
			}
			notA := &UnaryExpr{exprBase: be.Left.Span().asBase(), Op: Not, Operand: be.Left}
			notB := &UnaryExpr{exprBase: be.Right.Span().asBase(), Op: Not, Operand: be.Right}
			return &BinaryExpr{exprBase: n.exprBase, Op: dual, Left: notA, Right: notB}, true
		}
	case Neg:
		if i, ok := operand.(*IntLit); ok {
			return intLit(n, -i.Value, i.Width, i.Signed), true
		}
		if f, ok := operand.(*FloatLit); ok {
			return &FloatLit{exprBase: n.exprBase, Value: -f.Value, Width: f.Width}, true
		}
	case BitNot:
		if i, ok := operand.(*IntLit); ok {
			return intLit(n, ^i.Value, i.Width, i.Signed), true
		}
	}
	if operand == n.Operand {
		return n, false
	}
	return &UnaryExpr{exprBase: n.exprBase, Op: n.Op, Operand: operand}, true
}

// asBase lets a Span be embedded directly as an exprBase for synthesized nodes.
func (s Span) asBase() exprBase { return exprBase{Sp: s} }

func simplifyBinary(n *BinaryExpr, l, r Expr) (Expr, bool) {
	if v, ok := foldConstants(n.Op, l, r, n); ok {
		return v, true
	}
	if v, ok := rewriteAlgebraic(n, l, r); ok {
		return v, true
	}
	if v, ok := rewriteBoolean(n, l, r); ok {
		return v, true
	}
	if l == n.Left && r == n.Right {
		return n, false
	}
	return &BinaryExpr{exprBase: n.exprBase, Op: n.Op, Left: l, Right: r}, true
}

// foldConstants performs constant folding when both operands are
// literals of the same kind. Division and modulo by a zero literal are
// intentionally left unfolded (spec §4.1: "division and modulo by zero
// literal are not folded and stay as runtime checks").
func foldConstants(op BinaryOp, l, r Expr, at Expr) (Expr, bool) {
	li, lok := l.(*IntLit)
	ri, rok := r.(*IntLit)
	if lok && rok {
		return foldIntInt(op, li, ri, at)
	}
	lf, lfok := l.(*FloatLit)
	rf, rfok := r.(*FloatLit)
	if lfok && rfok {
		return foldFloatFloat(op, lf, rf, at)
	}
	// Mixed int/float promotes int -> float then folds.
	if lok && rfok {
		return foldFloatFloat(op, &FloatLit{exprBase: li.exprBase, Value: float64(li.Value), Width: rf.Width}, rf, at)
	}
	if lfok && rok {
		return foldFloatFloat(op, lf, &FloatLit{exprBase: ri.exprBase, Value: float64(ri.Value), Width: lf.Width}, at)
	}
	return nil, false
}

func foldIntInt(op BinaryOp, l, r *IntLit, at Expr) (Expr, bool) {
	width, signed := l.Width, l.Signed
	switch op {
	case Add:
		return intLit(at, l.Value+r.Value, width, signed), true
	case Sub:
		return intLit(at, l.Value-r.Value, width, signed), true
	case Mul:
		return intLit(at, l.Value*r.Value, width, signed), true
	case Div:
		if r.Value == 0 {
			return nil, false
		}
		return intLit(at, l.Value/r.Value, width, signed), true
	case Mod:
		if r.Value == 0 {
			return nil, false
		}
		return intLit(at, l.Value%r.Value, width, signed), true
	case Eq:
		return boolLit(at, l.Value == r.Value), true
	case Neq:
		return boolLit(at, l.Value != r.Value), true
	case Lt:
		return boolLit(at, l.Value < r.Value), true
	case Leq:
		return boolLit(at, l.Value <= r.Value), true
	case Gt:
		return boolLit(at, l.Value > r.Value), true
	case Geq:
		return boolLit(at, l.Value >= r.Value), true
	case BitAnd:
		return intLit(at, l.Value&r.Value, width, signed), true
	case BitOr:
		return intLit(at, l.Value|r.Value, width, signed), true
	case BitXor:
		return intLit(at, l.Value^r.Value, width, signed), true
	case Shl:
		return intLit(at, l.Value<<uint(r.Value), width, signed), true
	case Shr:
		return intLit(at, l.Value>>uint(r.Value), width, signed), true
	}
	return nil, false
}

func foldFloatFloat(op BinaryOp, l, r *FloatLit, at Expr) (Expr, bool) {
	width := l.Width
	switch op {
	case Add:
		return &FloatLit{exprBase: at.Span().asBase(), Value: l.Value + r.Value, Width: width}, true
	case Sub:
		return &FloatLit{exprBase: at.Span().asBase(), Value: l.Value - r.Value, Width: width}, true
	case Mul:
		return &FloatLit{exprBase: at.Span().asBase(), Value: l.Value * r.Value, Width: width}, true
	case Div:
		if r.Value == 0 {
			return nil, false
		}
		return &FloatLit{exprBase: at.Span().asBase(), Value: l.Value / r.Value, Width: width}, true
	case Eq:
		return boolLit(at, l.Value == r.Value), true
	case Neq:
		return boolLit(at, l.Value != r.Value), true
	case Lt:
		return boolLit(at, l.Value < r.Value), true
	case Leq:
		return boolLit(at, l.Value <= r.Value), true
	case Gt:
		return boolLit(at, l.Value > r.Value), true
	case Geq:
		return boolLit(at, l.Value >= r.Value), true
	}
	return nil, false
}

func isIntZero(e Expr) bool {
	i, ok := e.(*IntLit)
	return ok && i.Value == 0
}

func isIntOne(e Expr) bool {
	i, ok := e.(*IntLit)
	return ok && i.Value == 1
}

// isKnownIntegerType reports whether e is statically known to be
// integer-typed: an integer literal, or a VarRef/ResultRef carrying an
// integer Type. Anything else (an unannotated sub-expression result) is
// not known, not assumed.
func isKnownIntegerType(e Expr) bool {
	switch n := e.(type) {
	case *IntLit:
		return true
	case *VarRef:
		return n.Type != nil && n.Type.IsInteger()
	case *ResultRef:
		return n.Type != nil && n.Type.IsInteger()
	default:
		return false
	}
}

// rewriteAlgebraic applies the arithmetic identities of spec §4.1:
// x+0, 0+x, x-0, x-x, x*1, 1*x, x*0, 0*x, x/1, n/n, x%1.
func rewriteAlgebraic(n *BinaryExpr, l, r Expr) (Expr, bool) {
	switch n.Op {
	case Add:
		if isIntZero(r) {
			return l, true
		}
		if isIntZero(l) {
			return r, true
		}
	case Sub:
		if isIntZero(r) {
			return l, true
		}
		if structEqual(l, r) {
			if li, ok := l.(*IntLit); ok {
				return intLit(n, 0, li.Width, li.Signed), true
			}
			return intLit(n, 0, 32, true), true
		}
	case Mul:
		if isIntOne(r) {
			return l, true
		}
		if isIntOne(l) {
			return r, true
		}
		if isIntZero(r) || isIntZero(l) {
			return intLit(n, 0, 32, true), true
		}
	case Div:
		if isIntOne(r) {
			return l, true
		}
		if li, ok := l.(*IntLit); ok {
			if ri, ok := r.(*IntLit); ok && ri.Value != 0 && li.Value == ri.Value {
				return intLit(n, 1, li.Width, li.Signed), true
			}
		}
	case Mod:
		if isIntOne(r) && isKnownIntegerType(l) {
			return intLit(n, 0, 32, true), true
		}
	}
	return nil, false
}

// rewriteBoolean applies the boolean identities of spec §4.1 for ∧, ∨,
// and equality-with-bool-literal.
func rewriteBoolean(n *BinaryExpr, l, r Expr) (Expr, bool) {
	switch n.Op {
	case And:
		if b, ok := l.(*BoolLit); ok {
			if !b.Value {
				return boolLit(n, false), true
			}
			return r, true
		}
		if b, ok := r.(*BoolLit); ok {
			if !b.Value {
				return boolLit(n, false), true
			}
			return l, true
		}
		if structEqual(l, r) {
			return l, true
		}
		if isNegationOf(l, r) || isNegationOf(r, l) {
			return boolLit(n, false), true
		}
	case Or:
		if b, ok := l.(*BoolLit); ok {
			if b.Value {
				return boolLit(n, true), true
			}
			return r, true
		}
		if b, ok := r.(*BoolLit); ok {
			if b.Value {
				return boolLit(n, true), true
			}
			return l, true
		}
		if structEqual(l, r) {
			return l, true
		}
		if isNegationOf(l, r) || isNegationOf(r, l) {
			return boolLit(n, true), true
		}
	case Eq:
		if b, ok := r.(*BoolLit); ok {
			if b.Value {
				return l, true
			}
			return &UnaryExpr{exprBase: n.exprBase, Op: Not, Operand: l}, true
		}
		if b, ok := l.(*BoolLit); ok {
			if b.Value {
				return r, true
			}
			return &UnaryExpr{exprBase: n.exprBase, Op: Not, Operand: r}, true
		}
		if structEqual(l, r) {
			return boolLit(n, true), true
		}
	case Neq:
		if structEqual(l, r) {
			return boolLit(n, false), true
		}
	}
	return nil, false
}

func simplifyCond(n *CondExpr, cond, then, els Expr) (Expr, bool) {
	if b, ok := cond.(*BoolLit); ok {
		if b.Value {
			return then, true
		}
		return els, true
	}
	if structEqual(then, els) {
		return then, true
	}
	if tb, ok := then.(*BoolLit); ok {
		if eb, ok := els.(*BoolLit); ok {
			if tb.Value && !eb.Value {
				return cond, true
			}
			if !tb.Value && eb.Value {
				return &UnaryExpr{exprBase: n.exprBase, Op: Not, Operand: cond}, true
			}
		}
	}
	if cond == n.Cond && then == n.Then && els == n.Else {
		return n, false
	}
	return &CondExpr{exprBase: n.exprBase, Cond: cond, Then: then, Else: els}, true
}

func simplifyImplication(n *ImplicationExpr, ant, con Expr) (Expr, bool) {
	if b, ok := ant.(*BoolLit); ok {
		if !b.Value {
			return boolLit(n, true), true
		}
		return con, true
	}
	if b, ok := con.(*BoolLit); ok {
		if b.Value {
			return boolLit(n, true), true
		}
		return &UnaryExpr{exprBase: n.exprBase, Op: Not, Operand: ant}, true
	}
	if structEqual(ant, con) {
		return boolLit(n, true), true
	}
	if isNegationOf(ant, con) {
		return con, true
	}
	if ant == n.Antecedent && con == n.Consequent {
		return n, false
	}
	return &ImplicationExpr{exprBase: n.exprBase, Antecedent: ant, Consequent: con}, true
}

// simplifyQuantifier collapses ∀x.true/false and ∃x.true/false, assuming
// a non-empty domain (spec §4.1, §9: revisit for future finite
// user-defined enumerable types whose domain could be empty).
func simplifyQuantifier(n *QuantifierExpr, body Expr) (Expr, bool) {
	if b, ok := body.(*BoolLit); ok {
		return boolLit(n, b.Value), true
	}
	if body == n.Body {
		return n, false
	}
	return &QuantifierExpr{
		exprBase: n.exprBase,
		Kind:     n.Kind,
		Variable: n.Variable,
		VarType:  n.VarType,
		Domain:   n.Domain,
		Body:     body,
	}, true
}
