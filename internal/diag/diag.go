// Package diag defines the diagnostic sink every verification component
// reports through: a stable code, a severity, a message and a source
// span (spec §6).
package diag

import "covenant/internal/lang"

// Severity classifies a Diagnostic for filtering and display.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "info"
	}
}

// Code is a stable diagnostic identifier. Stability matters: tooling and
// editor integrations key off these strings across releases.
type Code string

const (
	UnknownSectionMarker        Code = "UnknownSectionMarker"
	TypeMismatch                Code = "TypeMismatch"
	UndefinedReference          Code = "UndefinedReference"
	QuantifierNonIntegerType    Code = "QuantifierNonIntegerType"
	QuantifierNestedComplexity  Code = "QuantifierNestedComplexity"
	InheritedContracts          Code = "InheritedContracts"
	ContractInheritanceValid    Code = "ContractInheritanceValid"
	StrongerPrecondition        Code = "StrongerPrecondition"
	WeakerPostcondition         Code = "WeakerPostcondition"
	ImplicationProvenByZ3       Code = "ImplicationProvenByZ3"
	ImplicationUnknown          Code = "ImplicationUnknown"
	Z3UnavailableForInheritance Code = "Z3UnavailableForInheritance"
	ContractTautology           Code = "ContractTautology"
	ContractContradiction       Code = "ContractContradiction"
	ContractSimplified          Code = "ContractSimplified"
	DivisionByZero              Code = "DivisionByZero"
	IndexOutOfBounds            Code = "IndexOutOfBounds"
	IntegerOverflow             Code = "IntegerOverflow"
	UnsafeUnwrap                Code = "UnsafeUnwrap"
	UninitializedVariable       Code = "UninitializedVariable"
	PreconditionMayBeViolated   Code = "PreconditionMayBeViolated"
	PostconditionMayBeViolated  Code = "PostconditionMayBeViolated"
	VerificationSummary         Code = "VerificationSummary"
	VerificationSkipped         Code = "VerificationSkipped"
	LoopInvariantSynthesized    Code = "LoopInvariantSynthesized"
	LoopInvariantNotFound       Code = "LoopInvariantNotFound"
	SolverUnavailable           Code = "SolverUnavailable"
)

// Diagnostic is one reported finding.
type Diagnostic struct {
	Span     lang.Span
	Code     Code
	Message  string
	Severity Severity
}

// Sink receives diagnostics as the verification pipeline produces them.
// Every stage (C1, C5, C6, C7, C8) takes a Sink rather than returning
// errors, since a single run produces many independent findings and a
// failure in one function must not abort the others.
type Sink interface {
	Report(span lang.Span, code Code, message string, severity Severity)
}

// Collector is an in-memory Sink; the default for programmatic use and
// for tests.
type Collector struct {
	Diagnostics []Diagnostic
}

func NewCollector() *Collector { return &Collector{} }

func (c *Collector) Report(span lang.Span, code Code, message string, severity Severity) {
	c.Diagnostics = append(c.Diagnostics, Diagnostic{
		Span:     span,
		Code:     code,
		Message:  message,
		Severity: severity,
	})
}

// HasErrors reports whether any collected diagnostic is Error severity.
func (c *Collector) HasErrors() bool {
	for _, d := range c.Diagnostics {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// ByFile groups collected diagnostics by their span's filename, in
// first-reported order within each file.
func (c *Collector) ByFile() map[string][]Diagnostic {
	out := make(map[string][]Diagnostic)
	for _, d := range c.Diagnostics {
		f := d.Span.Start.Filename
		out[f] = append(out[f], d)
	}
	return out
}
