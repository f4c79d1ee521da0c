// Package astbuild lowers a parsed grammar.Program concrete syntax tree
// into the internal/lang typed data model the verification core
// operates over. It performs no type inference or name resolution: a
// Param is given the canonical type named in the surface syntax, every
// VarRef is typed lang.I32, and ResultRef nodes carry no type.
package astbuild

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"covenant/grammar"
	"covenant/internal/lang"
)

// Build lowers every module declared across prog into internal/lang
// Modules, assigning sequential NodeIDs in declaration order.
func Build(prog *grammar.Program) []*lang.Module {
	b := &builder{}
	var out []*lang.Module
	for _, m := range prog.Modules {
		out = append(out, b.buildModule(m))
	}
	return out
}

type builder struct {
	nextID lang.NodeID
}

func (b *builder) id() lang.NodeID {
	b.nextID++
	return b.nextID
}

// pos converts a participle lexer position into a degenerate lang.Span
// (Start==End); the concrete grammar does not track end positions, so
// diagnostics anchor to the construct's start token.
func pos(p lexer.Position) lang.Span {
	at := lang.Position{Filename: p.Filename, Offset: p.Offset, Line: p.Line, Column: p.Column}
	return lang.Span{Start: at, End: at}
}

func (b *builder) buildModule(m *grammar.Module) *lang.Module {
	mod := &lang.Module{
		Name: m.Name,
		ID:   b.id(),
		Sp:   pos(m.Pos),
	}
	for _, imp := range m.Imports {
		mod.Imports = append(mod.Imports, lang.Import{Path: strings.Join(imp.Path, "."), Alias: derefOr(imp.Alias, "")})
	}
	for _, iface := range m.Interfaces {
		mod.Interfaces = append(mod.Interfaces, b.buildInterface(iface))
	}
	for _, c := range m.Classes {
		mod.Classes = append(mod.Classes, b.buildClass(c))
	}
	for _, e := range m.Enums {
		mod.Enums = append(mod.Enums, b.buildEnum(e))
	}
	for _, fn := range m.Functions {
		mod.Functions = append(mod.Functions, b.buildFunction(fn))
	}
	for _, inv := range m.Invariants {
		mod.Invariants = append(mod.Invariants, b.buildContract(inv))
	}
	return mod
}

func (b *builder) buildInterface(i *grammar.Interface) lang.Interface {
	iface := lang.Interface{
		Name:    i.Name,
		ID:      b.id(),
		Extends: i.Extends,
		Sp:      pos(i.Pos),
	}
	for _, sig := range i.Methods {
		iface.Methods = append(iface.Methods, b.buildFunctionSig(sig))
	}
	return iface
}

// buildFunctionSig lowers an interface method signature: spec §3's
// Function with a nil Body (IsAbstract).
func (b *builder) buildFunctionSig(sig *grammar.FunctionSig) lang.Function {
	fn := lang.Function{
		Name:       sig.Name,
		ID:         b.id(),
		Visibility: lang.Public,
		OutputType: buildType(sig.Return),
		Sp:         pos(sig.Pos),
	}
	for _, p := range sig.Params {
		fn.Params = append(fn.Params, b.buildParam(p))
	}
	for _, r := range sig.Requires {
		fn.Requires = append(fn.Requires, b.buildContract(r))
	}
	for _, e := range sig.Ensures {
		fn.Ensures = append(fn.Ensures, b.buildContract(e))
	}
	return fn
}

func (b *builder) buildClass(c *grammar.Class) lang.Class {
	class := lang.Class{
		Name:       c.Name,
		ID:         b.id(),
		Base:       c.Base,
		Interfaces: c.Interfaces,
		Sp:         pos(c.Pos),
	}
	for _, f := range c.Fields {
		class.Fields = append(class.Fields, lang.Field{Name: f.Name, Type: buildType(f.Type), Sp: pos(f.Pos)})
	}
	for _, m := range c.Methods {
		class.Methods = append(class.Methods, b.buildFunction(m))
	}
	for _, inv := range c.Invariants {
		class.Invariants = append(class.Invariants, b.buildContract(inv))
	}
	return class
}

func (b *builder) buildEnum(e *grammar.Enum) lang.Enum {
	en := lang.Enum{Name: e.Name, ID: b.id(), Sp: pos(e.Pos)}
	for _, c := range e.Cases {
		var payload []*lang.Type
		for _, p := range c.Payload {
			payload = append(payload, buildType(p))
		}
		en.Cases = append(en.Cases, lang.EnumCase{Name: c.Name, Payload: payload})
	}
	return en
}

func (b *builder) buildFunction(f *grammar.Function) lang.Function {
	fn := lang.Function{
		Name:       f.Name,
		ID:         b.id(),
		Visibility: buildVisibility(f.Visibility),
		TypeParams: f.TypeParams,
		OutputType: buildType(f.Return),
		Async:      f.Async,
		Sp:         pos(f.Pos),
	}
	for _, p := range f.Params {
		fn.Params = append(fn.Params, b.buildParam(p))
	}
	for _, r := range f.Requires {
		fn.Requires = append(fn.Requires, b.buildContract(r))
	}
	for _, e := range f.Ensures {
		fn.Ensures = append(fn.Ensures, b.buildContract(e))
	}
	if f.Body != nil {
		fn.Body = b.buildBlock(f.Body)
	}
	return fn
}

func buildVisibility(v *string) lang.Visibility {
	if v == nil {
		return lang.Public
	}
	switch *v {
	case "private":
		return lang.Private
	case "protected":
		return lang.Protected
	case "internal":
		return lang.Internal
	default:
		return lang.Public
	}
}

func (b *builder) buildParam(p *grammar.Param) lang.Param {
	mod := lang.ByValue
	if p.Modifier != nil {
		switch *p.Modifier {
		case "ref":
			mod = lang.ByRef
		case "out":
			mod = lang.ByOut
		case "in":
			mod = lang.ByIn
		case "params":
			mod = lang.Variadic
		}
	}
	return lang.Param{Name: p.Name, Type: buildType(p.Type), Modifier: mod}
}

func buildType(t *grammar.TypeRef) *lang.Type {
	if t == nil {
		return nil
	}
	var args []*lang.Type
	for _, g := range t.Generics {
		args = append(args, buildType(g))
	}
	return &lang.Type{Name: t.Name, Args: args}
}

func (b *builder) buildContract(c *grammar.Contract) lang.Contract {
	return lang.Contract{Expr: b.buildExpr(c.Expr), Message: c.Message, Span: pos(c.Pos)}
}

func (b *builder) buildBlock(blk *grammar.Block) []lang.Stmt {
	var out []lang.Stmt
	for _, s := range blk.Stmts {
		out = append(out, b.buildStatement(s))
	}
	return out
}

func (b *builder) buildStatement(s *grammar.Statement) lang.Stmt {
	switch {
	case s.Let != nil:
		return b.buildLet(s.Let)
	case s.Assign != nil:
		return b.buildAssign(s.Assign)
	case s.If != nil:
		return b.buildIf(s.If)
	case s.While != nil:
		return b.buildWhile(s.While)
	case s.For != nil:
		return b.buildFor(s.For)
	case s.Break != nil:
		return &lang.BreakStmt{}
	case s.Continue != nil:
		return &lang.ContinueStmt{}
	case s.Return != nil:
		return b.buildReturn(s.Return)
	case s.Throw != nil:
		return &lang.ThrowStmt{Value: b.buildExpr(s.Throw.Value)}
	case s.Try != nil:
		return b.buildTry(s.Try)
	case s.ExprStmt != nil:
		return &lang.CallStmt{Call: b.buildExpr(s.ExprStmt.Expr)}
	default:
		return &lang.RawStmt{Text: "<empty statement>"}
	}
}

func (b *builder) buildLet(l *grammar.LetStmt) lang.Stmt {
	return &lang.BindStmt{
		Name:    l.Name,
		Type:    buildType(l.Type),
		Init:    b.buildExprPtr(l.Init),
		Mutable: true,
	}
}

var compoundOps = map[string]lang.BinaryOp{
	"+=": lang.Add, "-=": lang.Sub, "*=": lang.Mul, "/=": lang.Div, "%=": lang.Mod,
}

func (b *builder) buildAssign(a *grammar.AssignStmt) lang.Stmt {
	target := b.buildExpr(a.Target)
	value := b.buildExpr(a.Value)
	if op, ok := compoundOps[a.Operator]; ok {
		return &lang.CompoundAssignStmt{Target: target, Op: op, Value: value}
	}
	return &lang.AssignStmt{Target: target, Value: value}
}

func (b *builder) buildIf(i *grammar.IfStmt) lang.Stmt {
	stmt := &lang.IfStmt{
		Cond: b.buildExpr(i.Cond),
		Then: b.buildBlock(i.Then),
		Sp:   pos(i.Pos),
	}
	for _, ei := range i.Elifs {
		stmt.ElseIfs = append(stmt.ElseIfs, lang.ElseIf{Cond: b.buildExpr(ei.Cond), Body: b.buildBlock(ei.Then)})
	}
	if i.Else != nil {
		stmt.Else = b.buildBlock(i.Else)
	}
	return stmt
}

func (b *builder) buildWhile(w *grammar.WhileStmt) lang.Stmt {
	stmt := &lang.WhileStmt{Cond: b.buildExpr(w.Cond), Body: b.buildBlock(w.Body)}
	if len(w.Invariant) > 0 {
		stmt.Invariant = b.buildExpr(w.Invariant[0].Expr)
	}
	return stmt
}

func (b *builder) buildFor(f *grammar.ForStmt) lang.Stmt {
	return &lang.ForStmt{
		Var:  f.Var,
		Low:  b.buildExpr(f.Low),
		High: b.buildExpr(f.High),
		Body: b.buildBlock(f.Body),
	}
}

func (b *builder) buildReturn(r *grammar.ReturnStmt) lang.Stmt {
	return &lang.ReturnStmt{Value: b.buildExprPtr(r.Value)}
}

func (b *builder) buildTry(t *grammar.TryStmt) lang.Stmt {
	stmt := &lang.TryStmt{Body: b.buildBlock(t.Body)}
	for _, c := range t.Catches {
		stmt.Catches = append(stmt.Catches, lang.CatchClause{
			ExceptionType: buildType(c.ExcType),
			Binding:       c.Name,
			Body:          b.buildBlock(c.Body),
		})
	}
	if t.Finally != nil {
		stmt.Finally = b.buildBlock(t.Finally)
	}
	return stmt
}

func (b *builder) buildExprPtr(e *grammar.Expr) lang.Expr {
	if e == nil {
		return nil
	}
	return b.buildExpr(e)
}

func (b *builder) buildExpr(e *grammar.Expr) lang.Expr {
	if e.Quantifier != nil {
		return b.buildQuantifier(e.Quantifier)
	}
	return b.buildImplies(e.Implies)
}

func (b *builder) buildQuantifier(q *grammar.QuantifierExpr) lang.Expr {
	kind := lang.Forall
	if q.Kind == "exists" {
		kind = lang.Exists
	}
	return &lang.QuantifierExpr{
		Kind:     kind,
		Variable: q.Var,
		VarType:  lang.I32,
		Domain:   &lang.Domain{Start: b.buildExpr(q.Low), End: b.buildExpr(q.High)},
		Body:     b.buildExpr(q.Body),
	}
}

func (b *builder) buildImplies(i *grammar.ImpliesExpr) lang.Expr {
	left := b.buildTernary(i.Left)
	if i.Consequent == nil {
		return left
	}
	return &lang.ImplicationExpr{Antecedent: left, Consequent: b.buildExpr(i.Consequent)}
}

func (b *builder) buildTernary(t *grammar.TernaryExpr) lang.Expr {
	cond := b.buildOr(t.Cond)
	if t.Then == nil {
		return cond
	}
	return &lang.CondExpr{Cond: cond, Then: b.buildExpr(t.Then), Else: b.buildExpr(t.Else)}
}

func (b *builder) buildOr(o *grammar.OrExpr) lang.Expr {
	e := b.buildAnd(o.Left)
	for _, r := range o.Rest {
		e = &lang.BinaryExpr{Op: lang.Or, Left: e, Right: b.buildAnd(r)}
	}
	return e
}

func (b *builder) buildAnd(a *grammar.AndExpr) lang.Expr {
	e := b.buildEq(a.Left)
	for _, r := range a.Rest {
		e = &lang.BinaryExpr{Op: lang.And, Left: e, Right: b.buildEq(r)}
	}
	return e
}

func (b *builder) buildEq(eq *grammar.EqExpr) lang.Expr {
	left := b.buildRel(eq.Left)
	if eq.Op == nil {
		return left
	}
	op := lang.Eq
	if *eq.Op == "!=" {
		op = lang.Neq
	}
	return &lang.BinaryExpr{Op: op, Left: left, Right: b.buildEq(eq.Right)}
}

var relOps = map[string]lang.BinaryOp{"<": lang.Lt, "<=": lang.Leq, ">": lang.Gt, ">=": lang.Geq}

func (b *builder) buildRel(r *grammar.RelExpr) lang.Expr {
	left := b.buildNullCoalesce(r.Left)
	if r.Op == nil {
		return left
	}
	return &lang.BinaryExpr{Op: relOps[*r.Op], Left: left, Right: b.buildRel(r.Right)}
}

func (b *builder) buildNullCoalesce(n *grammar.NullCoalesceExpr) lang.Expr {
	left := b.buildAdd(n.Left)
	if n.Right == nil {
		return left
	}
	return &lang.NullCoalesceExpr{Left: left, Right: b.buildNullCoalesce(n.Right)}
}

func (b *builder) buildAdd(a *grammar.AddExpr) lang.Expr {
	e := b.buildMul(a.Left)
	for _, t := range a.Rest {
		op := lang.Add
		if t.Op == "-" {
			op = lang.Sub
		}
		e = &lang.BinaryExpr{Op: op, Left: e, Right: b.buildMul(t.Right)}
	}
	return e
}

var mulOps = map[string]lang.BinaryOp{"*": lang.Mul, "/": lang.Div, "%": lang.Mod}

func (b *builder) buildMul(m *grammar.MulExpr) lang.Expr {
	e := b.buildUnary(m.Left)
	for _, t := range m.Rest {
		e = &lang.BinaryExpr{Op: mulOps[t.Op], Left: e, Right: b.buildUnary(t.Right)}
	}
	return e
}

func (b *builder) buildUnary(u *grammar.UnaryExpr) lang.Expr {
	operand := b.buildPostfix(u.Operand)
	if u.Op == nil {
		return operand
	}
	op := lang.Not
	if *u.Op == "-" {
		op = lang.Neg
	}
	return &lang.UnaryExpr{Op: op, Operand: operand}
}

func (b *builder) buildPostfix(p *grammar.PostfixExpr) lang.Expr {
	e := b.buildPrimary(p.Primary)
	for _, s := range p.Suffix {
		switch {
		case s.Field != nil && s.Call != nil:
			e = b.buildMethodCall(e, *s.Field, s.Call.Args)
		case s.Field != nil && *s.Field == "length":
			e = &lang.ArrayLenExpr{Recv: e}
		case s.Field != nil && *s.Field == "count":
			e = &lang.CollectionCountExpr{Recv: e}
		case s.Field != nil:
			e = &lang.FieldAccessExpr{Recv: e, Field: *s.Field}
		case s.NullCondName != nil:
			e = &lang.NullConditionalExpr{Recv: e, Field: *s.NullCondName}
		case s.Index != nil:
			e = &lang.ArrayAccessExpr{Recv: e, Index: b.buildExpr(s.Index)}
		}
	}
	return e
}

// buildMethodCall lowers a `.name(args)` postfix into the matching
// closed-sum-type expression: `contains` becomes
// CollectionContainsExpr, every other name is left as a RecordExpr tuple
// call the verifier treats as an uninterpreted effect.
func (b *builder) buildMethodCall(recv lang.Expr, name string, args []*grammar.Expr) lang.Expr {
	if name == "contains" && len(args) == 1 {
		return &lang.CollectionContainsExpr{Recv: recv, Elem: b.buildExpr(args[0])}
	}
	fields := []lang.RecordField{{Name: "self", Value: recv}}
	for i, a := range args {
		fields = append(fields, lang.RecordField{Name: fmt.Sprintf("arg%d", i), Value: b.buildExpr(a)})
	}
	return &lang.RecordExpr{TypeName: name, Fields: fields}
}

func (b *builder) buildPrimary(p *grammar.PrimaryExpr) lang.Expr {
	switch {
	case p.Old != nil:
		return &lang.OldExpr{Inner: b.buildExpr(p.Old)}
	case p.Some != nil:
		return &lang.SomeExpr{Inner: b.buildExpr(p.Some)}
	case p.None != nil:
		return &lang.NoneExpr{}
	case p.Ok != nil:
		return &lang.OkExpr{Inner: b.buildExpr(p.Ok)}
	case p.Err != nil:
		return &lang.ErrExpr{Inner: b.buildExpr(p.Err)}
	case p.Result != nil:
		return &lang.ResultRef{}
	case p.Float != nil:
		return &lang.FloatLit{Value: *p.Float, Width: 64}
	case p.Int != nil:
		return parseIntLit(*p.Int)
	case p.Bool != nil:
		return &lang.BoolLit{Value: *p.Bool == "true"}
	case p.String != nil:
		return &lang.StringLit{Value: unquote(*p.String)}
	case p.Decimal != nil:
		return &lang.DecimalLit{Text: *p.Decimal}
	case p.Call != nil:
		return b.buildCall(p.Call)
	case p.Ident != nil:
		return &lang.VarRef{Name: *p.Ident, Type: lang.I32}
	case p.Paren != nil:
		return b.buildExpr(p.Paren)
	default:
		return &lang.BoolLit{Value: false}
	}
}

func (b *builder) buildCall(c *grammar.CallExpr) lang.Expr {
	var fields []lang.RecordField
	for i, a := range c.Args {
		fields = append(fields, lang.RecordField{Name: fmt.Sprintf("arg%d", i), Value: b.buildExpr(a)})
	}
	return &lang.RecordExpr{TypeName: c.Name, Fields: fields}
}

func parseIntLit(text string) lang.Expr {
	v, err := strconv.ParseInt(strings.TrimPrefix(text, "0x"), hexOrDecBase(text), 64)
	if err != nil {
		v = 0
	}
	return &lang.IntLit{Value: v, Width: 32, Signed: true}
}

func hexOrDecBase(text string) int {
	if strings.HasPrefix(text, "0x") {
		return 16
	}
	return 10
}

func unquote(s string) string {
	if len(s) >= 2 {
		return s[1 : len(s)-1]
	}
	return s
}

func derefOr(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}
