package lang

// Contract is a single requires/ensures clause: a boolean expression,
// an optional human-readable failure message, and its source span.
type Contract struct {
	Expr    Expr
	Message *string
	Span    Span
}

// ParamModifier classifies how a parameter is passed.
type ParamModifier int

const (
	ByValue ParamModifier = iota
	ByRef
	ByOut
	ByIn
	Variadic
)

// Param is one function/method parameter.
type Param struct {
	Name     string
	Type     *Type
	Modifier ParamModifier
	Default  Expr // nil if no default
}

// Visibility mirrors the access modifiers surface syntax exposes.
type Visibility int

const (
	Public Visibility = iota
	Private
	Protected
	Internal
)

// Effect names an externally observable side-effect a function may
// perform; used only to record an EffectSet, never interpreted by the
// verification core itself.
type Effect string

// Function is a free function or a class/interface method.
type Function struct {
	Name       string
	ID         NodeID
	Visibility Visibility
	TypeParams []string
	Params     []Param
	OutputType *Type
	EffectSet  []Effect
	Requires   []Contract
	Ensures    []Contract
	Body       []Stmt // nil for an interface method signature
	Async      bool
	Sp         Span
}

func (f *Function) Span() Span { return f.Sp }

// IsAbstract reports whether f has no body (an interface method or an
// unimplemented abstract method).
func (f *Function) IsAbstract() bool { return f.Body == nil }

// Property models a get/set/init accessor triple, each with its own
// optional contracts.
type Property struct {
	Name    string
	Type    *Type
	Getter  *Function // nil if write-only
	Setter  *Function // nil if read-only / init-only
	Initter *Function // nil unless the property is init-only
	Sp      Span
}

func (p *Property) Span() Span { return p.Sp }

// Field is a plain data member, not an accessor.
type Field struct {
	Name     string
	Type     *Type
	ReadOnly bool
	Sp       Span
}

func (f *Field) Span() Span { return f.Sp }

// Class is a concrete type that may extend a base class and implement
// interfaces, carrying fields, properties, constructors and methods.
type Class struct {
	Name       string
	ID         NodeID
	TypeParams []string
	Base       *string // nil if no base class
	Interfaces []string
	Fields     []Field
	Properties []Property
	Ctors      []Function
	Methods    []Function
	Invariants []Contract // class-level invariants, hold at every public boundary
	Sp         Span
}

func (c *Class) Span() Span { return c.Sp }

// Interface declares a contract surface other classes implement
// against; its methods carry Requires/Ensures but never a Body.
type Interface struct {
	Name       string
	ID         NodeID
	TypeParams []string
	Extends    []string
	Methods    []Function
	Properties []Property
	Sp         Span
}

func (i *Interface) Span() Span { return i.Sp }

// EnumCase is one case of an Enum, with optional associated payload types.
type EnumCase struct {
	Name    string
	Payload []*Type
}

type Enum struct {
	Name  string
	ID    NodeID
	Cases []EnumCase
	Sp    Span
}

func (e *Enum) Span() Span { return e.Sp }

// Delegate is a named function-type signature (spec's surface syntax
// allows declaring callback/event types); carries no body or contracts
// of its own, only a shape other values are checked against.
type Delegate struct {
	Name       string
	ID         NodeID
	Params     []Param
	OutputType *Type
	Sp         Span
}

func (d *Delegate) Span() Span { return d.Sp }

// Import references another module by path, optionally aliased.
type Import struct {
	Path  string
	Alias string
}

// Module is the top-level compilation unit: a set of declarations plus
// module-level invariants that every exported function is checked
// against (spec §3, "Module").
type Module struct {
	Name       string
	ID         NodeID
	Imports    []Import
	Interfaces []Interface
	Classes    []Class
	Enums      []Enum
	Delegates  []Delegate
	Functions  []Function
	Invariants []Contract
	Sp         Span
}

func (m *Module) Span() Span { return m.Sp }
