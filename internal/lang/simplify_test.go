package lang

import "testing"

func iv(v int64) *IntLit     { return &IntLit{Value: v, Width: 32, Signed: true} }
func bv(v bool) *BoolLit     { return &BoolLit{Value: v} }
func vr(name string) *VarRef { return &VarRef{Name: name, Type: I32} }

func bin(op BinaryOp, l, r Expr) *BinaryExpr { return &BinaryExpr{Op: op, Left: l, Right: r} }

func TestSimplifyConstantFolding(t *testing.T) {
	e := bin(Add, iv(2), iv(3))
	got, _ := Simplify(e)
	i, ok := got.(*IntLit)
	if !ok || i.Value != 5 {
		t.Fatalf("expected IntLit(5), got %#v", got)
	}
}

func TestSimplifyAlgebraicIdentities(t *testing.T) {
	cases := []struct {
		name string
		e    Expr
		want Expr
	}{
		{"x+0", bin(Add, vr("x"), iv(0)), vr("x")},
		{"0+x", bin(Add, iv(0), vr("x")), vr("x")},
		{"x-0", bin(Sub, vr("x"), iv(0)), vr("x")},
		{"x-x", bin(Sub, vr("x"), vr("x")), iv(0)},
		{"x*1", bin(Mul, vr("x"), iv(1)), vr("x")},
		{"1*x", bin(Mul, iv(1), vr("x")), vr("x")},
		{"x*0", bin(Mul, vr("x"), iv(0)), iv(0)},
		{"x/1", bin(Div, vr("x"), iv(1)), vr("x")},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, _ := Simplify(c.e)
			if !structEqual(got, c.want) {
				t.Fatalf("%s: got %#v, want %#v", c.name, got, c.want)
			}
		})
	}
}

func TestSimplifyDivByZeroNotFolded(t *testing.T) {
	e := bin(Div, iv(4), iv(0))
	got, _ := Simplify(e)
	if _, ok := got.(*IntLit); ok {
		t.Fatalf("division by zero literal must not be folded, got %#v", got)
	}
}

func TestSimplifyBooleanIdentities(t *testing.T) {
	cases := []struct {
		name string
		e    Expr
		want Expr
	}{
		{"true&&x", bin(And, bv(true), vr("x")), vr("x")},
		{"x&&false", bin(And, vr("x"), bv(false)), bv(false)},
		{"x&&x", bin(And, vr("x"), vr("x")), vr("x")},
		{"false||x", bin(Or, bv(false), vr("x")), vr("x")},
		{"x==true", bin(Eq, vr("x"), bv(true)), vr("x")},
		{"x==x", bin(Eq, vr("x"), vr("x")), bv(true)},
		{"x!=x", bin(Neq, vr("x"), vr("x")), bv(false)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, _ := Simplify(c.e)
			if !structEqual(got, c.want) {
				t.Fatalf("%s: got %#v, want %#v", c.name, got, c.want)
			}
		})
	}
}

func TestSimplifyDeMorgan(t *testing.T) {
	// !(a && b) -> !a || !b
	e := &UnaryExpr{Op: Not, Operand: bin(And, vr("a"), vr("b"))}
	got, _ := Simplify(e)
	be, ok := got.(*BinaryExpr)
	if !ok || be.Op != Or {
		t.Fatalf("expected top-level Or, got %#v", got)
	}
}

func TestSimplifyConditional(t *testing.T) {
	e := &CondExpr{Cond: bv(true), Then: vr("x"), Else: vr("y")}
	got, _ := Simplify(e)
	if !structEqual(got, vr("x")) {
		t.Fatalf("got %#v, want x", got)
	}

	e2 := &CondExpr{Cond: vr("c"), Then: bv(true), Else: bv(false)}
	got2, _ := Simplify(e2)
	if !structEqual(got2, vr("c")) {
		t.Fatalf("got %#v, want c", got2)
	}
}

func TestSimplifyImplication(t *testing.T) {
	e := &ImplicationExpr{Antecedent: bv(false), Consequent: vr("p")}
	got, _ := Simplify(e)
	if !structEqual(got, bv(true)) {
		t.Fatalf("false -> p should simplify to true, got %#v", got)
	}

	e2 := &ImplicationExpr{Antecedent: vr("p"), Consequent: vr("p")}
	got2, _ := Simplify(e2)
	if !structEqual(got2, bv(true)) {
		t.Fatalf("p -> p should simplify to true, got %#v", got2)
	}
}

func TestSimplifyQuantifierOverConstant(t *testing.T) {
	e := &QuantifierExpr{
		Kind:     Forall,
		Variable: "i",
		VarType:  I32,
		Domain:   &Domain{Start: iv(0), End: iv(10)},
		Body:     bv(true),
	}
	got, _ := Simplify(e)
	if !structEqual(got, bv(true)) {
		t.Fatalf("forall x.true should simplify to true, got %#v", got)
	}
}

// TestSimplifyIdempotence checks spec property: simplify(simplify(e)) == simplify(e).
func TestSimplifyIdempotence(t *testing.T) {
	exprs := []Expr{
		bin(Add, bin(Add, vr("x"), iv(0)), iv(0)),
		&UnaryExpr{Op: Not, Operand: &UnaryExpr{Op: Not, Operand: bin(And, vr("a"), vr("b"))}},
		&CondExpr{Cond: bin(Eq, vr("x"), bv(true)), Then: vr("y"), Else: vr("y")},
	}
	for i, e := range exprs {
		once, _ := Simplify(e)
		twice, _ := Simplify(once)
		if !structEqual(once, twice) {
			t.Fatalf("case %d: simplify not idempotent: once=%#v twice=%#v", i, once, twice)
		}
	}
}

func TestSimplifyCommutativeEquality(t *testing.T) {
	a := bin(Add, vr("x"), vr("y"))
	b := bin(Add, vr("y"), vr("x"))
	if !structEqual(a, b) {
		t.Fatal("commutative operands should compare equal regardless of order")
	}
	s := bin(Sub, vr("x"), vr("y"))
	t2 := bin(Sub, vr("y"), vr("x"))
	if structEqual(s, t2) {
		t.Fatal("subtraction is not commutative, should not compare equal when swapped")
	}
}
