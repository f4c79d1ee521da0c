package checkers

import (
	"covenant/internal/cfg"
	"covenant/internal/diag"
	"covenant/internal/lang"
)

// checkUninitializedStmt reports a diagnostic for every variable read
// in s while still Uninitialized (error) or MaybeInitialized (warning),
// then returns the variable-state map updated for s's own effect. The
// block-entry state computed by cfg.UninitializedVariables is threaded
// through a block's statements one at a time so a read is checked
// against the state immediately before it, not the state at block
// entry.
func checkUninitializedStmt(s lang.Stmt, states cfg.VarStates, sink diag.Sink) cfg.VarStates {
	next := make(cfg.VarStates, len(states)+1)
	for k, v := range states {
		next[k] = v
	}

	switch n := s.(type) {
	case *lang.BindStmt:
		if n.Init != nil {
			checkUninitializedExpr(n.Init, states, sink)
			next[n.Name] = cfg.Initialized
		} else {
			next[n.Name] = cfg.Uninitialized
		}
	case *lang.AssignStmt:
		checkUninitializedExpr(n.Value, states, sink)
		if vr, ok := n.Target.(*lang.VarRef); ok {
			next[vr.Name] = cfg.Initialized
		} else {
			checkUninitializedExpr(n.Target, states, sink)
		}
	case *lang.CompoundAssignStmt:
		// the target is read before being rewritten.
		checkUninitializedExpr(n.Target, states, sink)
		checkUninitializedExpr(n.Value, states, sink)
		if vr, ok := n.Target.(*lang.VarRef); ok {
			next[vr.Name] = cfg.Initialized
		}
	case *lang.ReturnStmt:
		if n.Value != nil {
			checkUninitializedExpr(n.Value, states, sink)
		}
	case *lang.ThrowStmt:
		checkUninitializedExpr(n.Value, states, sink)
	case *lang.CallStmt:
		checkUninitializedExpr(n.Call, states, sink)
	case *lang.PrintStmt:
		for _, a := range n.Args {
			checkUninitializedExpr(a, states, sink)
		}
	}
	return next
}

// checkUninitializedExpr recurses through e, reporting each VarRef that
// names a tracked local still short of Initialized. An untracked name
// (not a local bound by a parameter or a BindStmt) is left alone — it
// names something this analysis does not model, not a use-before-init.
func checkUninitializedExpr(e lang.Expr, states cfg.VarStates, sink diag.Sink) {
	if e == nil {
		return
	}
	switch n := e.(type) {
	case *lang.VarRef:
		state, tracked := states[n.Name]
		if !tracked {
			return
		}
		switch state {
		case cfg.Uninitialized:
			sink.Report(n.Span(), diag.UninitializedVariable, n.Name+" is used before it is initialized", diag.Error)
		case cfg.MaybeInitialized:
			sink.Report(n.Span(), diag.UninitializedVariable, n.Name+" may be used before it is initialized on some paths", diag.Warning)
		}
	case *lang.BinaryExpr:
		checkUninitializedExpr(n.Left, states, sink)
		checkUninitializedExpr(n.Right, states, sink)
	case *lang.UnaryExpr:
		checkUninitializedExpr(n.Operand, states, sink)
	case *lang.CondExpr:
		checkUninitializedExpr(n.Cond, states, sink)
		checkUninitializedExpr(n.Then, states, sink)
		checkUninitializedExpr(n.Else, states, sink)
	case *lang.FieldAccessExpr:
		checkUninitializedExpr(n.Recv, states, sink)
	case *lang.ArrayAccessExpr:
		checkUninitializedExpr(n.Recv, states, sink)
		checkUninitializedExpr(n.Index, states, sink)
	case *lang.ArrayLenExpr:
		checkUninitializedExpr(n.Recv, states, sink)
	case *lang.CollectionCountExpr:
		checkUninitializedExpr(n.Recv, states, sink)
	case *lang.CollectionContainsExpr:
		checkUninitializedExpr(n.Recv, states, sink)
		checkUninitializedExpr(n.Elem, states, sink)
	case *lang.NullCoalesceExpr:
		checkUninitializedExpr(n.Left, states, sink)
		checkUninitializedExpr(n.Right, states, sink)
	case *lang.ImplicationExpr:
		checkUninitializedExpr(n.Antecedent, states, sink)
		checkUninitializedExpr(n.Consequent, states, sink)
	case *lang.RecordExpr:
		for _, f := range n.Fields {
			checkUninitializedExpr(f.Value, states, sink)
		}
	}
}
