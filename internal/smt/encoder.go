// Package smt translates the contract sub-language (internal/lang) into
// bit-vector and boolean SMT-LIB 2 (bounded integer quantifiers become
// guarded forall/exists terms; everything else is quantifier-free), drives an external
// solver process against the result, and answers implication queries for
// contract discharge and Liskov substitution checking (spec §4.2-§4.4).
package smt

import (
	"errors"
	"fmt"
	"strings"

	"covenant/internal/lang"
)

// ErrUnsupported is returned by Encode when a sub-expression falls
// outside the QF_BV + boolean subset: floating point, strings, user
// type references, any field access other than self.<field>, any array
// access, or any call (spec §4.2, "Failure modes").
var ErrUnsupported = errors.New("smt: expression outside the QF_BV+bool subset")

// Decl is a declared SMT constant: a name and its sort.
type Decl struct {
	Name string
	Sort string
}

// Encoder accumulates variable declarations while translating a set of
// related expressions (a precondition/postcondition pair, a loop
// invariant, ...) into a single SMT-LIB script fragment. Scoped to one
// verification unit; discard after use.
type Encoder struct {
	decls   []Decl
	seen    map[string]bool
	selfCtx bool // true when FieldAccessExpr on an implicit receiver encodes to self_<field>
}

func NewEncoder() *Encoder {
	return &Encoder{seen: make(map[string]bool)}
}

// WithSelfFields pre-declares entity fields as self_<name> constants,
// for method/constructor contracts (spec §4.2 "self_<field>"; grounded
// on the lhaig-intent TranslateMethodContract self_<name> convention).
func (enc *Encoder) WithSelfFields(fields []lang.Field) *Encoder {
	enc.selfCtx = true
	for _, f := range fields {
		enc.declare("self_"+f.Name, sortOf(f.Type))
	}
	return enc
}

// DeclareParams declares every parameter as a fresh SMT constant.
func (enc *Encoder) DeclareParams(params []lang.Param) {
	for _, p := range params {
		enc.declare(p.Name, sortOf(p.Type))
	}
}

// DeclareResult declares `result`, defaulting to i32 when out is void or
// nil (spec §4.2, "Variable declarations").
func (enc *Encoder) DeclareResult(out *lang.Type) {
	t := out
	if t == nil || t.IsVoid() {
		t = lang.I32
	}
	enc.declare("result", sortOf(t))
}

// DeclareOld pre-declares an `old_<name>` constant for a pre-state
// capture, typed like expr (spec SPEC_FULL.md §10 supplement).
func (enc *Encoder) DeclareOld(name string, t *lang.Type) {
	enc.declare("old_"+name, sortOf(t))
}

func (enc *Encoder) declare(name, sort string) {
	if enc.seen[name] {
		return
	}
	enc.seen[name] = true
	enc.decls = append(enc.decls, Decl{Name: name, Sort: sort})
}

// Decls returns every constant declared so far, in declaration order.
func (enc *Encoder) Decls() []Decl { return enc.decls }

// Preamble renders `(declare-const ...)` for every declaration made so far.
func (enc *Encoder) Preamble() string {
	var b strings.Builder
	for _, d := range enc.decls {
		fmt.Fprintf(&b, "(declare-const %s %s)\n", d.Name, d.Sort)
	}
	return b.String()
}

func sortOf(t *lang.Type) string {
	if t == nil {
		return "(_ BitVec 32)"
	}
	if t.IsBool() {
		return "Bool"
	}
	if t.IsInteger() {
		return fmt.Sprintf("(_ BitVec %d)", t.Width())
	}
	return "(_ BitVec 32)"
}

// Encode translates e to an SMT-LIB term, declaring any VarRef/OldExpr
// constants it encounters along the way. Returns ErrUnsupported if e
// (or any sub-expression) falls outside the encodable subset.
func (enc *Encoder) Encode(e lang.Expr) (string, error) {
	switch n := e.(type) {
	case *lang.IntLit:
		return fmt.Sprintf("(_ bv%d %d)", uint64(n.Value), n.Width), nil

	case *lang.BoolLit:
		if n.Value {
			return "true", nil
		}
		return "false", nil

	case *lang.VarRef:
		enc.declare(n.Name, sortOf(n.Type))
		return n.Name, nil

	case *lang.ResultRef:
		enc.declare("result", sortOf(n.Type))
		return "result", nil

	case *lang.OldExpr:
		name, err := enc.nameOf(n.Inner)
		if err != nil {
			return "", err
		}
		full := "old_" + name
		enc.declare(full, enc.sortHint(n.Inner))
		return full, nil

	case *lang.FieldAccessExpr:
		if isSelfRef(n.Recv) {
			full := "self_" + n.Field
			enc.declare(full, "(_ BitVec 32)")
			return full, nil
		}
		return "", ErrUnsupported

	case *lang.UnaryExpr:
		return enc.encodeUnary(n)

	case *lang.BinaryExpr:
		return enc.encodeBinary(n)

	case *lang.CondExpr:
		c, err := enc.Encode(n.Cond)
		if err != nil {
			return "", err
		}
		t, err := enc.Encode(n.Then)
		if err != nil {
			return "", err
		}
		f, err := enc.Encode(n.Else)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(ite %s %s %s)", c, t, f), nil

	case *lang.ImplicationExpr:
		a, err := enc.Encode(n.Antecedent)
		if err != nil {
			return "", err
		}
		c, err := enc.Encode(n.Consequent)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(or (not %s) %s)", a, c), nil

	case *lang.QuantifierExpr:
		return enc.encodeQuantifier(n)

	default:
		return "", ErrUnsupported
	}
}

// isSelfRef reports whether e is a bare `self`-like receiver. The
// surface grammar represents `self` as a VarRef named "self"; anything
// else is not a self-field access in this encoding.
func isSelfRef(e lang.Expr) bool {
	v, ok := e.(*lang.VarRef)
	return ok && v.Name == "self"
}

// nameOf extracts a stable identifier for an OldExpr capture key. Only
// VarRef and self-field accesses are supported old() targets.
func (enc *Encoder) nameOf(e lang.Expr) (string, error) {
	switch n := e.(type) {
	case *lang.VarRef:
		return n.Name, nil
	case *lang.FieldAccessExpr:
		if isSelfRef(n.Recv) {
			return n.Field, nil
		}
	}
	return "", ErrUnsupported
}

func (enc *Encoder) sortHint(e lang.Expr) string {
	if v, ok := e.(*lang.VarRef); ok {
		return sortOf(v.Type)
	}
	return "(_ BitVec 32)"
}

func (enc *Encoder) encodeUnary(n *lang.UnaryExpr) (string, error) {
	operand, err := enc.Encode(n.Operand)
	if err != nil {
		return "", err
	}
	switch n.Op {
	case lang.Not:
		return fmt.Sprintf("(not %s)", operand), nil
	case lang.Neg:
		return fmt.Sprintf("(bvneg %s)", operand), nil
	case lang.BitNot:
		return fmt.Sprintf("(bvnot %s)", operand), nil
	default:
		return "", ErrUnsupported
	}
}

func (enc *Encoder) encodeBinary(n *lang.BinaryExpr) (string, error) {
	l, err := enc.Encode(n.Left)
	if err != nil {
		return "", err
	}
	r, err := enc.Encode(n.Right)
	if err != nil {
		return "", err
	}
	op, ok := binaryOpTable[n.Op]
	if !ok {
		return "", ErrUnsupported
	}
	return fmt.Sprintf("(%s %s %s)", op, l, r), nil
}

// binaryOpTable is the operator mapping of spec §4.2.
var binaryOpTable = map[lang.BinaryOp]string{
	lang.Add:    "bvadd",
	lang.Sub:    "bvsub",
	lang.Mul:    "bvmul",
	lang.Div:    "bvsdiv",
	lang.Mod:    "bvsmod",
	lang.Lt:     "bvslt",
	lang.Leq:    "bvsle",
	lang.Gt:     "bvsgt",
	lang.Geq:    "bvsge",
	lang.Eq:     "=",
	lang.Neq:    "distinct",
	lang.And:    "and",
	lang.Or:     "or",
	lang.BitAnd: "bvand",
	lang.BitOr:  "bvor",
	lang.BitXor: "bvxor",
	lang.Shl:    "bvshl",
	lang.Shr:    "bvashr",
}

// encodeQuantifier emits a bounded forall/exists over a finite integer
// domain (spec §4.2, §4.1 quantifier rules; grounded on lhaig-intent's
// entityForallExprToSMT/entityExistsExprToSMT range-guard shape).
func (enc *Encoder) encodeQuantifier(n *lang.QuantifierExpr) (string, error) {
	if n.VarType != nil && !n.VarType.IsInteger() {
		return "", ErrUnsupported
	}
	width := 32
	if n.VarType != nil && n.VarType.IsInteger() {
		width = n.VarType.Width()
	}
	start, err := enc.Encode(n.Domain.Start)
	if err != nil {
		return "", err
	}
	end, err := enc.Encode(n.Domain.End)
	if err != nil {
		return "", err
	}
	body, err := enc.Encode(n.Body)
	if err != nil {
		return "", err
	}
	sort := fmt.Sprintf("(_ BitVec %d)", width)
	guard := fmt.Sprintf("(and (bvsge %s %s) (bvslt %s %s))", n.Variable, start, n.Variable, end)
	switch n.Kind {
	case lang.Forall:
		return fmt.Sprintf("(forall ((%s %s)) (=> %s %s))", n.Variable, sort, guard, body), nil
	case lang.Exists:
		return fmt.Sprintf("(exists ((%s %s)) (and %s %s))", n.Variable, sort, guard, body), nil
	default:
		return "", ErrUnsupported
	}
}
