package lang

// Type is a canonical type identifier as resolved by the (external) type
// checker — the verifier never infers types, it only reads them (spec §6:
// "the verifier sees only canonical type identifiers").
type Type struct {
	Name string  // "i8".."i64", "u8".."u64", "f32", "f64", "bool", "string", "decimal", or a user name
	Args []*Type // generic arguments, e.g. Option<i32> -> Name:"Option" Args:[i32]
}

// Width-classified integer kinds understood by the SMT encoder (spec §4.2).
var integerWidths = map[string]int{
	"i8": 8, "i16": 16, "i32": 32, "i64": 64,
	"u8": 8, "u16": 16, "u32": 32, "u64": 64,
}

// IsInteger reports whether t names one of the eight fixed-width
// integer types (spec §3 "Expression... integer literal (width in
// {8,16,32,64}, signedness)").
func (t *Type) IsInteger() bool {
	if t == nil {
		return false
	}
	_, ok := integerWidths[t.Name]
	return ok
}

// IsSigned reports whether an integer type is signed.
func (t *Type) IsSigned() bool {
	if t == nil || len(t.Name) == 0 {
		return false
	}
	return t.Name[0] == 'i'
}

// Width returns the bit width of an integer type, or 0 if t is not one.
func (t *Type) Width() int {
	if t == nil {
		return 0
	}
	return integerWidths[t.Name]
}

func (t *Type) IsBool() bool    { return t != nil && t.Name == "bool" }
func (t *Type) IsFloat() bool   { return t != nil && (t.Name == "f32" || t.Name == "f64") }
func (t *Type) IsString() bool  { return t != nil && t.Name == "string" }
func (t *Type) IsDecimal() bool { return t != nil && t.Name == "decimal" }
func (t *Type) IsOption() bool  { return t != nil && t.Name == "Option" }
func (t *Type) IsResult() bool  { return t != nil && t.Name == "Result" }
func (t *Type) IsVoid() bool    { return t == nil || t.Name == "" || t.Name == "void" }

// Elem returns the single generic argument of Option<T>/array/collection
// types, or nil.
func (t *Type) Elem() *Type {
	if t == nil || len(t.Args) == 0 {
		return nil
	}
	return t.Args[0]
}

func (t *Type) String() string {
	if t == nil {
		return "void"
	}
	if len(t.Args) == 0 {
		return t.Name
	}
	s := t.Name + "<"
	for i, a := range t.Args {
		if i > 0 {
			s += ", "
		}
		s += a.String()
	}
	return s + ">"
}

func NewType(name string) *Type { return &Type{Name: name} }

func GenericType(name string, args ...*Type) *Type {
	return &Type{Name: name, Args: args}
}

var (
	I8   = NewType("i8")
	I16  = NewType("i16")
	I32  = NewType("i32")
	I64  = NewType("i64")
	U8   = NewType("u8")
	U16  = NewType("u16")
	U32  = NewType("u32")
	U64  = NewType("u64")
	F32  = NewType("f32")
	F64  = NewType("f64")
	Bool = NewType("bool")
	Str  = NewType("string")
	Dec  = NewType("decimal")
)
