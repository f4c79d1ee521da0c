package lsp

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"covenant/internal/diag"
	"covenant/internal/lang"
)

func TestUriToPathUnixStyle(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix-style URI expectations don't apply on windows")
	}
	path, err := uriToPath("file:///home/dev/project/contract.cov")
	require.NoError(t, err)
	require.Equal(t, "/home/dev/project/contract.cov", path)
}

func TestConvertDiagnosticsMapsSeverityAndSpan(t *testing.T) {
	span := lang.Span{
		Start: lang.Position{Line: 3, Column: 5},
		End:   lang.Position{Line: 3, Column: 9},
	}
	diagnostics := []diag.Diagnostic{
		{Span: span, Code: diag.DivisionByZero, Message: "divisor may be zero", Severity: diag.Warning},
	}

	out := convertDiagnostics(diagnostics)
	require.Len(t, out, 1)
	require.Equal(t, uint32(2), out[0].Range.Start.Line) // 0-based
	require.Equal(t, uint32(4), out[0].Range.Start.Character)
	require.NotNil(t, out[0].Severity)
}

func TestNewHandlerInitializesEmptyState(t *testing.T) {
	h := NewHandler()
	require.Empty(t, h.content)
	require.Empty(t, h.modules)
	require.NotNil(t, h.cache)
}

func TestInitializeAdvertisesTextDocumentSync(t *testing.T) {
	h := NewHandler()
	result, err := h.Initialize(nil, nil)
	require.NoError(t, err)
	require.NotNil(t, result)
	res, ok := result.(*protocol.InitializeResult)
	require.True(t, ok)
	require.NotNil(t, res.Capabilities.TextDocumentSync)
}
