package checkers

import (
	"covenant/internal/diag"
	"covenant/internal/lang"
)

// unsafeUnwrapMethods are the receiver methods this checker treats as
// panicking on an empty Option/Result (spec §4.6.4).
var unsafeUnwrapMethods = map[string]bool{
	"unwrap":        true,
	"expect":        true,
	"get_unchecked": true,
}

// safeUnwrapMethods are explicitly excluded even though they share a
// receiver shape with the unsafe set.
var safeUnwrapMethods = map[string]bool{
	"unwrap_or":      true,
	"unwrap_or_else": true,
	"map_or":         true,
}

// checkUnsafeUnwrap implements spec §4.6.4: a pure syntactic check, no
// SMT. Only the FieldAccessExpr shape FieldAccessExpr{Recv: r, Field:
// "unwrap"} is recognized here. internal/astbuild lowers `r.unwrap()`
// call syntax (with parentheses) to a RecordExpr{TypeName: "unwrap"}
// whose first field is the receiver, and this check does not inspect
// RecordExpr nodes, so that form is not reported.
func checkUnsafeUnwrap(e lang.Expr, pathCond lang.Expr, sink diag.Sink) {
	fa, ok := e.(*lang.FieldAccessExpr)
	if !ok {
		return
	}
	if safeUnwrapMethods[fa.Field] {
		return
	}
	if !unsafeUnwrapMethods[fa.Field] {
		return
	}
	if isGuarded(fa.Recv, pathCond) {
		return
	}
	sink.Report(fa.Span(), diag.UnsafeUnwrap, "unguarded ."+fa.Field+"() may panic on an empty value", diag.Warning)
}

// isGuarded reports whether recv has a syntactic guard in scope on the
// current path: an is_some/is_ok/has_value/is_present field access on
// recv, or a `!= None` comparison against recv, found by descending
// through && and || in pathCond. A pattern match that binds recv is not
// recognized as a guard.
func isGuarded(recv lang.Expr, pathCond lang.Expr) bool {
	name, ok := varName(recv)
	if !ok {
		return false
	}
	found := false
	var walk func(e lang.Expr)
	walk = func(e lang.Expr) {
		if e == nil || found {
			return
		}
		switch n := e.(type) {
		case *lang.BinaryExpr:
			if n.Op == lang.And || n.Op == lang.Or {
				walk(n.Left)
				walk(n.Right)
				return
			}
			if n.Op == lang.Neq {
				if isNullLit(n.Right) && refersTo(n.Left, name) {
					found = true
				}
				if isNullLit(n.Left) && refersTo(n.Right, name) {
					found = true
				}
			}
		case *lang.FieldAccessExpr:
			if refersTo(n.Recv, name) && guardMethods[n.Field] {
				found = true
			}
		}
	}
	walk(pathCond)
	return found
}

var guardMethods = map[string]bool{
	"is_some":    true,
	"is_ok":      true,
	"has_value":  true,
	"is_present": true,
}

func varName(e lang.Expr) (string, bool) {
	v, ok := e.(*lang.VarRef)
	if !ok {
		return "", false
	}
	return v.Name, true
}

func isNullLit(e lang.Expr) bool {
	_, ok := e.(*lang.NoneExpr)
	return ok
}
