package verify

import (
	"covenant/internal/lang"
	"covenant/internal/smt"
)

// LoopContext describes the structural signature of a while loop the
// invariant templates key off (spec §4.9, "Templates select based on
// the loop's structural signature").
type LoopContext struct {
	Variable    string
	Low, High   *lang.IntLit // nil if not statically known
	Modified    []string     // variables assigned within the loop body
	Read        []string     // variables read within the loop body
	Condition   lang.Expr
	Transitions map[string]lang.Expr // per-variable next-value expression, keyed by current names
}

// Template synthesizes a candidate invariant expression from a
// LoopContext, or nil if the structural signature does not apply.
type Template func(ctx LoopContext) lang.Expr

// Templates is the small library spec §4.9 names: bounded loop
// variable, monotone increment (v >= low), accumulator non-negativity,
// array-index bounds, and the termination variant, plus the loop
// condition itself.
var Templates = []Template{
	boundedVariableTemplate,
	monotoneIncrementTemplate,
	accumulatorNonNegativeTemplate,
	arrayIndexBoundsTemplate,
	terminationVariantTemplate,
	loopConditionTemplate,
}

func vr(name string) *lang.VarRef { return &lang.VarRef{Name: name, Type: lang.I32} }

// boundedVariableTemplate proposes `low <= v < high` when both bounds
// are statically known.
func boundedVariableTemplate(ctx LoopContext) lang.Expr {
	if ctx.Low == nil || ctx.High == nil || ctx.Variable == "" {
		return nil
	}
	return &lang.BinaryExpr{
		Op:    lang.And,
		Left:  &lang.BinaryExpr{Op: lang.Leq, Left: ctx.Low, Right: vr(ctx.Variable)},
		Right: &lang.BinaryExpr{Op: lang.Lt, Left: vr(ctx.Variable), Right: ctx.High},
	}
}

// monotoneIncrementTemplate proposes `v >= low` for a loop variable that
// is modified and has a known lower bound.
func monotoneIncrementTemplate(ctx LoopContext) lang.Expr {
	if ctx.Low == nil || ctx.Variable == "" || !contains(ctx.Modified, ctx.Variable) {
		return nil
	}
	return &lang.BinaryExpr{Op: lang.Geq, Left: vr(ctx.Variable), Right: ctx.Low}
}

// accumulatorNonNegativeTemplate proposes `acc >= 0` for every modified
// variable other than the loop variable itself — a conservative
// over-approximation of "this looks like a running accumulator".
func accumulatorNonNegativeTemplate(ctx LoopContext) lang.Expr {
	var best lang.Expr
	for _, m := range ctx.Modified {
		if m == ctx.Variable {
			continue
		}
		clause := &lang.BinaryExpr{Op: lang.Geq, Left: vr(m), Right: &lang.IntLit{Value: 0, Width: 32, Signed: true}}
		if best == nil {
			best = clause
		} else {
			best = &lang.BinaryExpr{Op: lang.And, Left: best, Right: clause}
		}
	}
	return best
}

// arrayIndexBoundsTemplate proposes `0 <= v` for the loop variable when
// it is read as an array index (identified here simply by Read
// membership, since the CFG builder does not distinguish index uses —
// a conservative, cheap-to-compute signal rather than a precise one).
func arrayIndexBoundsTemplate(ctx LoopContext) lang.Expr {
	if ctx.Variable == "" || !contains(ctx.Read, ctx.Variable) {
		return nil
	}
	return &lang.BinaryExpr{Op: lang.Geq, Left: vr(ctx.Variable), Right: &lang.IntLit{Value: 0, Width: 32, Signed: true}}
}

// terminationVariantTemplate proposes the loop's decreasing measure
// `high - v >= 0` (spec §4.9, "termination variant (upper - i ≥ 0)").
func terminationVariantTemplate(ctx LoopContext) lang.Expr {
	if ctx.High == nil || ctx.Variable == "" {
		return nil
	}
	return &lang.BinaryExpr{
		Op:    lang.Geq,
		Left:  &lang.BinaryExpr{Op: lang.Sub, Left: ctx.High, Right: vr(ctx.Variable)},
		Right: &lang.IntLit{Value: 0, Width: 32, Signed: true},
	}
}

// loopConditionTemplate proposes the loop condition itself as a
// (trivially true while inside the loop) conjunct.
func loopConditionTemplate(ctx LoopContext) lang.Expr {
	return ctx.Condition
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// ssaRename substitutes every VarRef named in renames with a fresh
// VarRef under its renamed identity, implementing the "explicit SSA
// renamings of the loop-modified variables" step of spec §4.9. It
// descends only through unary, binary, conditional and implication
// nodes; a VarRef under any other node kind is left unrenamed.
func ssaRename(e lang.Expr, renames map[string]string) lang.Expr {
	switch n := e.(type) {
	case *lang.VarRef:
		if newName, ok := renames[n.Name]; ok {
			return &lang.VarRef{Name: newName, Type: n.Type}
		}
		return n
	case *lang.BinaryExpr:
		return &lang.BinaryExpr{Op: n.Op, Left: ssaRename(n.Left, renames), Right: ssaRename(n.Right, renames)}
	case *lang.UnaryExpr:
		return &lang.UnaryExpr{Op: n.Op, Operand: ssaRename(n.Operand, renames)}
	case *lang.CondExpr:
		return &lang.CondExpr{Cond: ssaRename(n.Cond, renames), Then: ssaRename(n.Then, renames), Else: ssaRename(n.Else, renames)}
	case *lang.ImplicationExpr:
		return &lang.ImplicationExpr{Antecedent: ssaRename(n.Antecedent, renames), Consequent: ssaRename(n.Consequent, renames)}
	default:
		return e
	}
}

// InductionResult is the outcome of attempting k-induction for one
// candidate invariant.
type InductionResult struct {
	Invariant lang.Expr
	Proven    bool
}

// KInduct synthesizes and attempts to prove a loop invariant for a while
// loop: tries the conjunction of every template that produced output,
// then falls back to individual templates (spec §4.9). pre is the
// enclosing function's simplified precondition conjunction; post is the
// contract the loop's presence must not invalidate.
func KInduct(ctx *smt.Context, params []lang.Param, loopCtx LoopContext, pre, post lang.Expr, resultType *lang.Type) InductionResult {
	var candidates []lang.Expr
	for _, t := range Templates {
		if c := t(loopCtx); c != nil {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return InductionResult{}
	}

	conj := candidates[0]
	for _, c := range candidates[1:] {
		conj = &lang.BinaryExpr{Op: lang.And, Left: conj, Right: c}
	}

	if tryInduct(ctx, params, conj, pre, loopCtx, post, resultType) {
		return InductionResult{Invariant: conj, Proven: true}
	}
	for _, c := range candidates {
		if tryInduct(ctx, params, c, pre, loopCtx, post, resultType) {
			return InductionResult{Invariant: c, Proven: true}
		}
	}
	return InductionResult{Invariant: conj, Proven: false}
}

// tryInduct performs the three-step k-induction proof of spec §4.9:
// (i) pre ∧ v_init=low ⇒ I[initial], (ii) I ∧ c ∧ step ⇒ I[next],
// (iii) I ∧ ¬c ⇒ post. Steps (i) and (ii) introduce fresh SSA names for
// the loop variable's initial/next value and the loop body's modified
// variables' next values; without binding those fresh names to the
// initial value and the body's actual transition relation respectively,
// both steps would vacuously fail against any non-trivial invariant.
func tryInduct(ctx *smt.Context, params []lang.Param, inv lang.Expr, pre lang.Expr, loopCtx LoopContext, post lang.Expr, resultType *lang.Type) bool {
	if ctx == nil {
		return false
	}

	invInitial := inv
	basePre := pre
	if loopCtx.Variable != "" {
		if loopCtx.Low == nil {
			return false
		}
		initName := loopCtx.Variable + "_init"
		invInitial = ssaRename(inv, map[string]string{loopCtx.Variable: initName})
		initBinding := &lang.BinaryExpr{Op: lang.Eq, Left: vr(initName), Right: loopCtx.Low}
		basePre = &lang.BinaryExpr{Op: lang.And, Left: pre, Right: initBinding}
	}
	baseCase := smt.Prove(ctx, params, basePre, invInitial, resultType)
	if baseCase.Status != smt.Proven {
		return false
	}

	nextRenames := map[string]string{}
	for _, m := range loopCtx.Modified {
		nextRenames[m] = m + "_next"
	}
	invNext := ssaRename(inv, nextRenames)
	step := stepRelation(loopCtx, nextRenames)
	antecedent := &lang.BinaryExpr{Op: lang.And, Left: &lang.BinaryExpr{Op: lang.And, Left: inv, Right: loopCtx.Condition}, Right: step}
	stepResult := smt.Prove(ctx, params, antecedent, invNext, resultType)
	if stepResult.Status != smt.Proven {
		return false
	}

	exitAntecedent := &lang.BinaryExpr{Op: lang.And, Left: inv, Right: &lang.UnaryExpr{Op: lang.Not, Operand: loopCtx.Condition}}
	exit := smt.Prove(ctx, params, exitAntecedent, post, resultType)
	return exit.Status == smt.Proven
}

// stepRelation conjoins `m_next = update(m)` for every modified variable
// with a known body-derived update expression (spec §4.9's `step`
// conjunct). A modified variable with no recorded transition (assigned
// only conditionally, or not at all despite appearing in Modified) is
// left unconstrained rather than guessed at.
func stepRelation(loopCtx LoopContext, nextRenames map[string]string) lang.Expr {
	var conj lang.Expr
	for _, m := range loopCtx.Modified {
		next, ok := nextRenames[m]
		if !ok {
			continue
		}
		update, ok := loopCtx.Transitions[m]
		if !ok {
			continue
		}
		eq := &lang.BinaryExpr{Op: lang.Eq, Left: vr(next), Right: update}
		if conj == nil {
			conj = eq
		} else {
			conj = &lang.BinaryExpr{Op: lang.And, Left: conj, Right: eq}
		}
	}
	if conj == nil {
		return &lang.BoolLit{Value: true}
	}
	return conj
}
