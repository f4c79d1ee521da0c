// Package checkers implements the bug-pattern detectors of spec §4.6:
// division-by-zero, array/list index-out-of-bounds, integer overflow,
// and unsafe optional/result unwrap. Each walks a function's CFG and
// asks either the SMT solver or a syntactic heuristic whether a
// dangerous precondition is reachable under the current path condition.
package checkers

import (
	"covenant/internal/cfg"
	"covenant/internal/diag"
	"covenant/internal/lang"
	"covenant/internal/smt"
)

// Options toggles which checkers run; all default to enabled.
type Options struct {
	DivisionByZero        bool
	IndexBounds           bool
	IntegerOverflow       bool
	UnsafeUnwrap          bool
	UninitializedVariable bool
}

func DefaultOptions() Options {
	return Options{
		DivisionByZero:        true,
		IndexBounds:           true,
		IntegerOverflow:       true,
		UnsafeUnwrap:          true,
		UninitializedVariable: true,
	}
}

// Check runs every enabled checker over every block of g, reporting
// through sink. params/resultType are needed to declare the SMT context
// for solver-backed checks.
func Check(g *cfg.Graph, params []lang.Param, resultType *lang.Type, solverCtx *smt.Context, opts Options, sink diag.Sink) {
	var uninit cfg.Result[cfg.VarStates]
	if opts.UninitializedVariable {
		uninit = cfg.UninitializedVariables(g, params)
	}
	for _, b := range g.Blocks {
		paths := cfg.CollectPaths(g.Entry, b)
		pathCond := longestPath(paths).Conjunction()
		states := uninit.In[b.ID]
		for _, s := range b.Stmts {
			if opts.UninitializedVariable {
				states = checkUninitializedStmt(s, states, sink)
			}
			walkStmt(s, pathCond, params, resultType, solverCtx, opts, sink)
		}
		if b.Term.Cond != nil {
			if opts.UninitializedVariable {
				checkUninitializedExpr(b.Term.Cond, states, sink)
			}
			walkExpr(b.Term.Cond, pathCond, params, resultType, solverCtx, opts, sink)
		}
	}
}

func longestPath(paths []cfg.PathCondition) cfg.PathCondition {
	var best cfg.PathCondition
	for _, p := range paths {
		if len(p) > len(best) {
			best = p
		}
	}
	return best
}

func walkStmt(s lang.Stmt, pathCond lang.Expr, params []lang.Param, resultType *lang.Type, ctx *smt.Context, opts Options, sink diag.Sink) {
	switch n := s.(type) {
	case *lang.BindStmt:
		if n.Init != nil {
			walkExpr(n.Init, pathCond, params, resultType, ctx, opts, sink)
		}
	case *lang.AssignStmt:
		walkExpr(n.Value, pathCond, params, resultType, ctx, opts, sink)
	case *lang.CompoundAssignStmt:
		walkExpr(n.Value, pathCond, params, resultType, ctx, opts, sink)
	case *lang.ReturnStmt:
		if n.Value != nil {
			walkExpr(n.Value, pathCond, params, resultType, ctx, opts, sink)
		}
	case *lang.CallStmt:
		walkExpr(n.Call, pathCond, params, resultType, ctx, opts, sink)
	case *lang.PrintStmt:
		for _, a := range n.Args {
			walkExpr(a, pathCond, params, resultType, ctx, opts, sink)
		}
	}
}

// walkExpr recurses through e looking for suspect sub-expressions,
// checking each in turn under pathCond.
func walkExpr(e lang.Expr, pathCond lang.Expr, params []lang.Param, resultType *lang.Type, ctx *smt.Context, opts Options, sink diag.Sink) {
	if e == nil {
		return
	}
	switch n := e.(type) {
	case *lang.BinaryExpr:
		if opts.DivisionByZero && (n.Op == lang.Div || n.Op == lang.Mod) {
			checkDivisionByZero(n, pathCond, params, resultType, ctx, sink)
		}
		if opts.IntegerOverflow && isOverflowCandidate(n.Op) {
			checkOverflowBinary(n, pathCond, params, resultType, ctx, sink)
		}
		walkExpr(n.Left, pathCond, params, resultType, ctx, opts, sink)
		walkExpr(n.Right, pathCond, params, resultType, ctx, opts, sink)

	case *lang.UnaryExpr:
		if opts.IntegerOverflow && n.Op == lang.Neg {
			checkOverflowNeg(n, pathCond, params, resultType, ctx, sink)
		}
		walkExpr(n.Operand, pathCond, params, resultType, ctx, opts, sink)

	case *lang.ArrayAccessExpr:
		if opts.IndexBounds {
			checkIndexBounds(n, pathCond, params, resultType, ctx, sink)
		}
		walkExpr(n.Recv, pathCond, params, resultType, ctx, opts, sink)
		walkExpr(n.Index, pathCond, params, resultType, ctx, opts, sink)

	case *lang.CondExpr:
		walkExpr(n.Cond, pathCond, params, resultType, ctx, opts, sink)
		walkExpr(n.Then, pathCond, params, resultType, ctx, opts, sink)
		walkExpr(n.Else, pathCond, params, resultType, ctx, opts, sink)

	case *lang.FieldAccessExpr:
		walkExpr(n.Recv, pathCond, params, resultType, ctx, opts, sink)

	case *lang.ImplicationExpr:
		walkExpr(n.Antecedent, pathCond, params, resultType, ctx, opts, sink)
		walkExpr(n.Consequent, pathCond, params, resultType, ctx, opts, sink)
	}

	if opts.UnsafeUnwrap {
		checkUnsafeUnwrap(e, pathCond, sink)
	}
}

func isOverflowCandidate(op lang.BinaryOp) bool {
	switch op {
	case lang.Add, lang.Sub, lang.Mul, lang.Shl:
		return true
	default:
		return false
	}
}

func isNonZeroLiteral(e lang.Expr) bool {
	i, ok := e.(*lang.IntLit)
	return ok && i.Value != 0
}

func isZeroLiteral(e lang.Expr) bool {
	i, ok := e.(*lang.IntLit)
	return ok && i.Value == 0
}
