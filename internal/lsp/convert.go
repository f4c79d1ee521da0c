package lsp

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"covenant/internal/diag"
)

// convertDiagnostics turns collected verification diagnostics into LSP
// wire diagnostics, 1-based spans converted to 0-based LSP positions.
func convertDiagnostics(diagnostics []diag.Diagnostic) []protocol.Diagnostic {
	var out []protocol.Diagnostic
	for _, d := range diagnostics {
		out = append(out, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{
					Line:      uint32(max0(d.Span.Start.Line - 1)),
					Character: uint32(max0(d.Span.Start.Column - 1)),
				},
				End: protocol.Position{
					Line:      uint32(max0(d.Span.End.Line - 1)),
					Character: uint32(max0(d.Span.End.Column)),
				},
			},
			Severity: ptrSeverity(convertSeverity(d.Severity)),
			Source:   ptrString(string(d.Code)),
			Message:  d.Message,
		})
	}
	return out
}

func convertSeverity(s diag.Severity) protocol.DiagnosticSeverity {
	switch s {
	case diag.Error:
		return protocol.DiagnosticSeverityError
	case diag.Warning:
		return protocol.DiagnosticSeverityWarning
	default:
		return protocol.DiagnosticSeverityInformation
	}
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity { return &s }
func ptrString(s string) *string                                             { return &s }
