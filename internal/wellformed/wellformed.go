// Package wellformed implements the well-formedness checks spec §3's
// invariants I1/I2 and §7's "Well-formedness" error kind require before a
// contract is handed to C1/C2: every free variable must resolve, and
// every quantifier bound variable must range over a finite integer type.
// A contract that fails either check is reported as an error and its
// span is returned so callers skip verifying it (spec §7, "verification
// of that contract is skipped"), mirroring how the teacher's semantic
// analyzer resolves names before type-checking a declaration body
// (internal/semantic/analyzer_error.go's addUndefinedVariableError /
// addTypeMismatchError).
package wellformed

import (
	"covenant/internal/diag"
	"covenant/internal/lang"
)

// scope tracks the names a contract expression may legally reference
// (spec invariant I1).
type scope struct {
	names    map[string]bool
	resultOK bool
}

func newScope(params []lang.Param, fields []lang.Field, enumConsts map[string]bool, resultInScope bool) *scope {
	s := &scope{names: make(map[string]bool), resultOK: resultInScope}
	for _, p := range params {
		s.names[p.Name] = true
	}
	for _, f := range fields {
		s.names[f.Name] = true
	}
	for name := range enumConsts {
		s.names[name] = true
	}
	return s
}

// CheckFunction validates every requires/ensures clause of fn against I1
// (free-variable resolution) and I2 (quantifier variable finiteness),
// reporting through sink. It returns the set of contract spans that
// failed validation: the returned map holds true for a malformed
// contract's span.
func CheckFunction(fn *lang.Function, fields []lang.Field, enumConsts map[string]bool, sink diag.Sink) map[lang.Span]bool {
	failed := make(map[lang.Span]bool)
	for _, c := range fn.Requires {
		s := newScope(fn.Params, fields, enumConsts, false)
		if !checkContract(c, s, sink) {
			failed[c.Span] = true
		}
	}
	for _, c := range fn.Ensures {
		s := newScope(fn.Params, fields, enumConsts, !fn.OutputType.IsVoid())
		if !checkContract(c, s, sink) {
			failed[c.Span] = true
		}
	}
	return failed
}

func checkContract(c lang.Contract, s *scope, sink diag.Sink) bool {
	return checkExpr(c.Expr, s, nil, sink)
}

// checkExpr walks e, consulting bound (quantifier-introduced names, in
// addition to s) for VarRefs, and recurses into every sub-expression.
// Returns false if any undefined reference or ill-typed quantifier was
// found anywhere in the tree.
func checkExpr(e lang.Expr, s *scope, bound map[string]bool, sink diag.Sink) bool {
	if e == nil {
		return true
	}
	ok := true
	switch n := e.(type) {
	case *lang.VarRef:
		if !s.names[n.Name] && !bound[n.Name] {
			sink.Report(n.Span(), diag.UndefinedReference,
				"undefined reference to '"+n.Name+"' in contract", diag.Error)
			ok = false
		}

	case *lang.ResultRef:
		if !s.resultOK {
			sink.Report(n.Span(), diag.UndefinedReference,
				"'result' is not in scope here (only postconditions of non-void functions)", diag.Error)
			ok = false
		}

	case *lang.QuantifierExpr:
		if n.VarType != nil && !n.VarType.IsInteger() {
			sink.Report(n.Span(), diag.QuantifierNonIntegerType,
				"quantifier variable '"+n.Variable+"' must be a finite integer type, got "+n.VarType.String(), diag.Error)
			ok = false
		}
		ok = checkExpr(n.Domain.Start, s, bound, sink) && ok
		ok = checkExpr(n.Domain.End, s, bound, sink) && ok
		if _, nested := n.Body.(*lang.QuantifierExpr); nested {
			sink.Report(n.Span(), diag.QuantifierNestedComplexity,
				"nested quantifiers are supported but increase solver cost; consider flattening", diag.Info)
		}
		inner := cloneBound(bound)
		inner[n.Variable] = true
		ok = checkExpr(n.Body, s, inner, sink) && ok

	case *lang.UnaryExpr:
		ok = checkExpr(n.Operand, s, bound, sink)

	case *lang.BinaryExpr:
		ok = checkExpr(n.Left, s, bound, sink)
		ok = checkExpr(n.Right, s, bound, sink) && ok

	case *lang.CondExpr:
		ok = checkExpr(n.Cond, s, bound, sink)
		ok = checkExpr(n.Then, s, bound, sink) && ok
		ok = checkExpr(n.Else, s, bound, sink) && ok

	case *lang.FieldAccessExpr:
		ok = checkExpr(n.Recv, s, bound, sink)

	case *lang.ArrayAccessExpr:
		ok = checkExpr(n.Recv, s, bound, sink)
		ok = checkExpr(n.Index, s, bound, sink) && ok

	case *lang.ArrayLenExpr:
		ok = checkExpr(n.Recv, s, bound, sink)

	case *lang.CollectionCountExpr:
		ok = checkExpr(n.Recv, s, bound, sink)

	case *lang.CollectionContainsExpr:
		ok = checkExpr(n.Recv, s, bound, sink)
		ok = checkExpr(n.Elem, s, bound, sink) && ok

	case *lang.NullCoalesceExpr:
		ok = checkExpr(n.Left, s, bound, sink)
		ok = checkExpr(n.Right, s, bound, sink) && ok

	case *lang.NullConditionalExpr:
		ok = checkExpr(n.Recv, s, bound, sink)

	case *lang.SomeExpr:
		ok = checkExpr(n.Inner, s, bound, sink)

	case *lang.OkExpr:
		ok = checkExpr(n.Inner, s, bound, sink)

	case *lang.ErrExpr:
		ok = checkExpr(n.Inner, s, bound, sink)

	case *lang.OldExpr:
		ok = checkExpr(n.Inner, s, bound, sink)

	case *lang.ImplicationExpr:
		ok = checkExpr(n.Antecedent, s, bound, sink)
		ok = checkExpr(n.Consequent, s, bound, sink) && ok

	case *lang.RecordExpr:
		for _, f := range n.Fields {
			ok = checkExpr(f.Value, s, bound, sink) && ok
		}

	// IntLit, FloatLit, BoolLit, DecimalLit, StringLit, NoneExpr carry no
	// sub-expressions requiring resolution.
	default:
	}
	return ok
}

func cloneBound(bound map[string]bool) map[string]bool {
	out := make(map[string]bool, len(bound)+1)
	for k, v := range bound {
		out[k] = v
	}
	return out
}

// CheckParamVectors validates spec invariant I4 ("An implementing
// method's parameter types must match the interface method's parameter
// types position-wise before LSP comparison is attempted") for one
// (interface method, implementer method) pair with matching names. This
// is the "separate error reported elsewhere (not by C8)" spec §4.8
// refers to.
func CheckParamVectors(className, ifaceName string, ifaceMethod, implMethod *lang.Function, sink diag.Sink) bool {
	if len(ifaceMethod.Params) != len(implMethod.Params) {
		sink.Report(implMethod.Span(), diag.TypeMismatch,
			className+"."+implMethod.Name+" has a different parameter count than "+ifaceName+"."+ifaceMethod.Name,
			diag.Error)
		return false
	}
	ok := true
	for i := range ifaceMethod.Params {
		ip, mp := ifaceMethod.Params[i], implMethod.Params[i]
		if ip.Type.String() != mp.Type.String() {
			sink.Report(implMethod.Span(), diag.TypeMismatch,
				className+"."+implMethod.Name+" parameter "+mp.Name+" has type "+mp.Type.String()+
					", expected "+ip.Type.String()+" from "+ifaceName+"."+ifaceMethod.Name,
				diag.Error)
			ok = false
		}
	}
	return ok
}
