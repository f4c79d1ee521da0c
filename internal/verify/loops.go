package verify

import (
	"sort"

	"covenant/internal/diag"
	"covenant/internal/lang"
	"covenant/internal/smt"
)

// synthesizeLoopInvariants walks fn's body for every while, do-while,
// for, and foreach loop, derives a LoopContext from its structural
// shape, and drives KInduct using the function's already-simplified
// precondition and postcondition conjunctions. A proven invariant is
// attached back onto the loop node so downstream checkers can consult
// it (only WhileStmt carries an Invariant field); every attempt, proven
// or not, is reported through sink so a reader can tell C9 actually ran
// over this function.
func synthesizeLoopInvariants(fn *lang.Function, solverCtx *smt.Context, pre, post lang.Expr, sink diag.Sink) {
	if solverCtx == nil {
		return
	}
	walkLoopsBody(fn.Body, solverCtx, fn.Params, pre, post, fn.OutputType, sink)
}

func walkLoopsBody(body []lang.Stmt, ctx *smt.Context, params []lang.Param, pre, post lang.Expr, resultType *lang.Type, sink diag.Sink) {
	for i, s := range body {
		walkLoopsAt(body[:i], s, ctx, params, pre, post, resultType, sink)
	}
}

// walkLoopsAt handles one statement, given the statements that preceded
// it in the same block (preceding is consulted to find the loop
// counter's initializing assignment for while/do-while loops).
func walkLoopsAt(preceding []lang.Stmt, s lang.Stmt, ctx *smt.Context, params []lang.Param, pre, post lang.Expr, resultType *lang.Type, sink diag.Sink) {
	switch n := s.(type) {
	case *lang.WhileStmt:
		loopCtx := whileLoopContext(preceding, n.Cond, n.Body)
		if result, ok := attemptInduction(ctx, params, loopCtx, pre, post, resultType); ok {
			if result.Proven {
				n.Invariant = result.Invariant
				sink.Report(n.Span(), diag.LoopInvariantSynthesized, "loop invariant synthesized and proven by k-induction", diag.Info)
			} else {
				sink.Report(n.Span(), diag.LoopInvariantNotFound, "no candidate loop invariant could be proven by k-induction", diag.Info)
			}
		}
		walkLoopsBody(n.Body, ctx, params, pre, post, resultType, sink)

	case *lang.DoWhileStmt:
		loopCtx := whileLoopContext(preceding, n.Cond, n.Body)
		if result, ok := attemptInduction(ctx, params, loopCtx, pre, post, resultType); ok {
			if result.Proven {
				sink.Report(n.Span(), diag.LoopInvariantSynthesized, "loop invariant synthesized and proven by k-induction", diag.Info)
			} else {
				sink.Report(n.Span(), diag.LoopInvariantNotFound, "no candidate loop invariant could be proven by k-induction", diag.Info)
			}
		}
		walkLoopsBody(n.Body, ctx, params, pre, post, resultType, sink)

	case *lang.ForStmt:
		loopCtx := forLoopContext(n)
		if result, ok := attemptInduction(ctx, params, loopCtx, pre, post, resultType); ok {
			if result.Proven {
				sink.Report(n.Span(), diag.LoopInvariantSynthesized, "loop invariant synthesized and proven by k-induction", diag.Info)
			} else {
				sink.Report(n.Span(), diag.LoopInvariantNotFound, "no candidate loop invariant could be proven by k-induction", diag.Info)
			}
		}
		walkLoopsBody(n.Body, ctx, params, pre, post, resultType, sink)

	case *lang.ForeachStmt:
		modified, read := collectLoopVars(n.Body)
		loopCtx := LoopContext{Variable: n.Var, Modified: modified, Read: read, Condition: &lang.BoolLit{Value: true}}
		if result, ok := attemptInduction(ctx, params, loopCtx, pre, post, resultType); ok {
			if result.Proven {
				sink.Report(n.Span(), diag.LoopInvariantSynthesized, "loop invariant synthesized and proven by k-induction", diag.Info)
			} else {
				sink.Report(n.Span(), diag.LoopInvariantNotFound, "no candidate loop invariant could be proven by k-induction", diag.Info)
			}
		}
		walkLoopsBody(n.Body, ctx, params, pre, post, resultType, sink)

	case *lang.IfStmt:
		walkLoopsBody(n.Then, ctx, params, pre, post, resultType, sink)
		for _, ei := range n.ElseIfs {
			walkLoopsBody(ei.Body, ctx, params, pre, post, resultType, sink)
		}
		walkLoopsBody(n.Else, ctx, params, pre, post, resultType, sink)

	case *lang.TryStmt:
		walkLoopsBody(n.Body, ctx, params, pre, post, resultType, sink)
		for _, c := range n.Catches {
			walkLoopsBody(c.Body, ctx, params, pre, post, resultType, sink)
		}
		walkLoopsBody(n.Finally, ctx, params, pre, post, resultType, sink)

	case *lang.MatchStmt:
		for _, arm := range n.Arms {
			walkLoopsBody(arm.Body, ctx, params, pre, post, resultType, sink)
		}

	case *lang.UsingStmt:
		walkLoopsBody(n.Body, ctx, params, pre, post, resultType, sink)
	}
}

// attemptInduction runs KInduct for loopCtx; ok is false when the
// context has no solver-reachable structure worth trying (KInduct
// itself handles the "no template applies" case by returning an unproven
// result with a nil invariant, which is still reported).
func attemptInduction(ctx *smt.Context, params []lang.Param, loopCtx LoopContext, pre, post lang.Expr, resultType *lang.Type) (InductionResult, bool) {
	if loopCtx.Condition == nil {
		return InductionResult{}, false
	}
	return KInduct(ctx, params, loopCtx, pre, post, resultType), true
}

// whileLoopContext derives a LoopContext for a while/do-while loop:
// Variable is the left operand of cond when cond has the shape
// `var OP bound`, Low comes from the nearest prior assignment of that
// variable to an integer literal, and High comes from bound itself when
// it is an integer literal.
func whileLoopContext(preceding []lang.Stmt, cond lang.Expr, body []lang.Stmt) LoopContext {
	modified, read := collectLoopVars(body)
	ctx := LoopContext{Modified: modified, Read: read, Condition: cond, Transitions: collectTransitions(body)}

	cmp, ok := cond.(*lang.BinaryExpr)
	if !ok || !isComparison(cmp.Op) {
		return ctx
	}
	v, ok := cmp.Left.(*lang.VarRef)
	if !ok {
		return ctx
	}
	ctx.Variable = v.Name
	if high, ok := cmp.Right.(*lang.IntLit); ok {
		ctx.High = high
	}
	ctx.Low = priorIntLiteral(preceding, v.Name)
	return ctx
}

// forLoopContext derives a LoopContext directly from a numeric range
// loop's own Var/Low/High fields, which spec.md's ForStmt already
// carries explicitly — no structural guessing needed the way a while
// loop requires.
func forLoopContext(n *lang.ForStmt) LoopContext {
	modified, read := collectLoopVars(n.Body)
	modified = append(modified, n.Var)
	transitions := collectTransitions(n.Body)
	step := n.Step
	if step == nil {
		step = &lang.IntLit{Value: 1, Width: 32, Signed: true}
	}
	transitions[n.Var] = &lang.BinaryExpr{Op: lang.Add, Left: &lang.VarRef{Name: n.Var, Type: lang.I32}, Right: step}
	ctx := LoopContext{
		Variable:    n.Var,
		Modified:    modified,
		Read:        read,
		Condition:   &lang.BinaryExpr{Op: lang.Lt, Left: &lang.VarRef{Name: n.Var, Type: lang.I32}, Right: n.High},
		Transitions: transitions,
	}
	if low, ok := n.Low.(*lang.IntLit); ok {
		ctx.Low = low
	}
	if high, ok := n.High.(*lang.IntLit); ok {
		ctx.High = high
	}
	return ctx
}

func isComparison(op lang.BinaryOp) bool {
	switch op {
	case lang.Lt, lang.Leq, lang.Gt, lang.Geq, lang.Neq:
		return true
	default:
		return false
	}
}

// priorIntLiteral scans preceding in reverse for the nearest bind or
// assignment of name to an integer literal.
func priorIntLiteral(preceding []lang.Stmt, name string) *lang.IntLit {
	for i := len(preceding) - 1; i >= 0; i-- {
		switch n := preceding[i].(type) {
		case *lang.BindStmt:
			if n.Name == name {
				if lit, ok := n.Init.(*lang.IntLit); ok {
					return lit
				}
				return nil
			}
		case *lang.AssignStmt:
			if vr, ok := n.Target.(*lang.VarRef); ok && vr.Name == name {
				if lit, ok := n.Value.(*lang.IntLit); ok {
					return lit
				}
				return nil
			}
		}
	}
	return nil
}

// collectLoopVars walks body and returns every variable name assigned
// (Modified) and every variable name read (Read), in sorted order.
// Recursion into nested control structures is conservative — a variable
// touched three branches deep still counts as touched by the loop.
func collectLoopVars(body []lang.Stmt) (modified, read []string) {
	mod := map[string]bool{}
	rd := map[string]bool{}

	var walkE func(lang.Expr)
	walkE = func(e lang.Expr) {
		if e == nil {
			return
		}
		switch n := e.(type) {
		case *lang.VarRef:
			rd[n.Name] = true
		case *lang.OldExpr:
			walkE(n.Inner)
		case *lang.UnaryExpr:
			walkE(n.Operand)
		case *lang.BinaryExpr:
			walkE(n.Left)
			walkE(n.Right)
		case *lang.CondExpr:
			walkE(n.Cond)
			walkE(n.Then)
			walkE(n.Else)
		case *lang.FieldAccessExpr:
			walkE(n.Recv)
		case *lang.ArrayAccessExpr:
			walkE(n.Recv)
			walkE(n.Index)
		case *lang.ArrayLenExpr:
			walkE(n.Recv)
		case *lang.CollectionCountExpr:
			walkE(n.Recv)
		case *lang.CollectionContainsExpr:
			walkE(n.Recv)
			walkE(n.Elem)
		case *lang.NullCoalesceExpr:
			walkE(n.Left)
			walkE(n.Right)
		case *lang.NullConditionalExpr:
			walkE(n.Recv)
		case *lang.SomeExpr:
			walkE(n.Inner)
		case *lang.OkExpr:
			walkE(n.Inner)
		case *lang.ErrExpr:
			walkE(n.Inner)
		case *lang.ImplicationExpr:
			walkE(n.Antecedent)
			walkE(n.Consequent)
		case *lang.RecordExpr:
			for _, f := range n.Fields {
				walkE(f.Value)
			}
		}
	}

	var walkS func(lang.Stmt)
	walkS = func(s lang.Stmt) {
		switch n := s.(type) {
		case *lang.BindStmt:
			mod[n.Name] = true
			walkE(n.Init)
		case *lang.AssignStmt:
			walkE(n.Value)
			if vr, ok := n.Target.(*lang.VarRef); ok {
				mod[vr.Name] = true
			} else {
				walkE(n.Target)
			}
		case *lang.CompoundAssignStmt:
			walkE(n.Target)
			walkE(n.Value)
			if vr, ok := n.Target.(*lang.VarRef); ok {
				mod[vr.Name] = true
			}
		case *lang.ReturnStmt:
			walkE(n.Value)
		case *lang.ThrowStmt:
			walkE(n.Value)
		case *lang.CallStmt:
			walkE(n.Call)
		case *lang.PrintStmt:
			for _, a := range n.Args {
				walkE(a)
			}
		case *lang.IfStmt:
			walkE(n.Cond)
			for _, st := range n.Then {
				walkS(st)
			}
			for _, ei := range n.ElseIfs {
				walkE(ei.Cond)
				for _, st := range ei.Body {
					walkS(st)
				}
			}
			for _, st := range n.Else {
				walkS(st)
			}
		case *lang.WhileStmt:
			walkE(n.Cond)
			for _, st := range n.Body {
				walkS(st)
			}
		case *lang.DoWhileStmt:
			walkE(n.Cond)
			for _, st := range n.Body {
				walkS(st)
			}
		case *lang.ForStmt:
			walkE(n.Low)
			walkE(n.High)
			walkE(n.Step)
			mod[n.Var] = true
			for _, st := range n.Body {
				walkS(st)
			}
		case *lang.ForeachStmt:
			walkE(n.Collection)
			mod[n.Var] = true
			for _, st := range n.Body {
				walkS(st)
			}
		case *lang.TryStmt:
			for _, st := range n.Body {
				walkS(st)
			}
			for _, c := range n.Catches {
				for _, st := range c.Body {
					walkS(st)
				}
			}
			for _, st := range n.Finally {
				walkS(st)
			}
		case *lang.MatchStmt:
			walkE(n.Subject)
			for _, arm := range n.Arms {
				walkE(arm.Guard)
				for _, st := range arm.Body {
					walkS(st)
				}
			}
		case *lang.UsingStmt:
			walkE(n.Resource)
			for _, st := range n.Body {
				walkS(st)
			}
		case *lang.YieldReturnStmt:
			walkE(n.Value)
		}
	}

	for _, s := range body {
		walkS(s)
	}

	return sortedKeys(mod), sortedKeys(rd)
}

// collectTransitions derives, for each variable the loop body assigns at
// its top level, the expression that computes its next-iteration value
// from the current one — the `step` conjunct of spec §4.9's
// `I ∧ c ∧ step ⇒ I[next]`. Only a bare AssignStmt/CompoundAssignStmt
// directly in body is recognized; an assignment nested inside a
// conditional is conditional itself and is left out rather than treated
// as an unconditional transition.
func collectTransitions(body []lang.Stmt) map[string]lang.Expr {
	out := make(map[string]lang.Expr)
	for _, s := range body {
		switch n := s.(type) {
		case *lang.AssignStmt:
			if vr, ok := n.Target.(*lang.VarRef); ok {
				out[vr.Name] = n.Value
			}
		case *lang.CompoundAssignStmt:
			if vr, ok := n.Target.(*lang.VarRef); ok {
				out[vr.Name] = &lang.BinaryExpr{Op: n.Op, Left: vr, Right: n.Value}
			}
		}
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
