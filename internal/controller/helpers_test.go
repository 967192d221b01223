package controller

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"
)

func TestToEditRecordSplitsLinesOnNewline(t *testing.T) {
	te := protocol.TextEdit{
		Range: protocol.Range{
			Start: protocol.Position{Line: 2, Character: 0},
			End:   protocol.Position{Line: 3, Character: 4},
		},
		NewText: "first\nsecond",
	}
	rec := toEditRecord(te)
	require.Equal(t, EditorPosition{Line: 3, Column: 1}, rec.Start)
	require.Equal(t, EditorPosition{Line: 4, Column: 5}, rec.End)
	require.Equal(t, []string{"first", "second"}, rec.Lines)
}

func TestDiagnosticTypeLetter(t *testing.T) {
	cases := map[protocol.DiagnosticSeverity]string{
		protocol.DiagnosticSeverityError:       "E",
		protocol.DiagnosticSeverityWarning:     "W",
		protocol.DiagnosticSeverityInformation: "I",
		protocol.DiagnosticSeverityHint:        "H",
	}
	for sev, want := range cases {
		require.Equal(t, want, diagnosticTypeLetter(sev))
	}
}

func TestSeverityToLevel(t *testing.T) {
	require.Equal(t, LevelError, severityToLevel(protocol.MessageTypeError))
	require.Equal(t, LevelWarning, severityToLevel(protocol.MessageTypeWarning))
	require.Equal(t, LevelInfo, severityToLevel(protocol.MessageTypeInfo))
}

func TestCodeLensResolveSupported(t *testing.T) {
	require.False(t, codeLensResolveSupported(nil))
	require.False(t, codeLensResolveSupported(&protocol.ServerCapabilities{}))

	caps := &protocol.ServerCapabilities{
		CodeLensProvider: &protocol.CodeLensOptions{ResolveProvider: true},
	}
	require.True(t, codeLensResolveSupported(caps))

	caps.CodeLensProvider.ResolveProvider = false
	require.False(t, codeLensResolveSupported(caps))
}

func TestSelectionIndex(t *testing.T) {
	idx, ok := selectionIndex(float64(2))
	require.True(t, ok)
	require.Equal(t, 2, idx)

	idx, ok = selectionIndex(3)
	require.True(t, ok)
	require.Equal(t, 3, idx)

	_, ok = selectionIndex("nope")
	require.False(t, ok)
}

func TestToInterfaceSlice(t *testing.T) {
	require.Nil(t, toInterfaceSlice(nil))
	in := []interface{}{"a", 1}
	require.Equal(t, in, toInterfaceSlice(in))
}

func TestMarkupKinds(t *testing.T) {
	kinds := markupKinds([]string{"markdown", "plaintext"})
	require.Equal(t, []protocol.MarkupKind{"markdown", "plaintext"}, kinds)
}

func TestToEditorLocations(t *testing.T) {
	locs := []protocol.Location{
		{
			URI: toURI("/tmp/a.rs"),
			Range: protocol.Range{
				Start: protocol.Position{Line: 0, Character: 0},
				End:   protocol.Position{Line: 0, Character: 3},
			},
		},
	}
	out := toEditorLocations(locs)
	require.Len(t, out, 1)
	require.Equal(t, "/tmp/a.rs", out[0].Filename)
	require.Equal(t, EditorPosition{Line: 1, Column: 1}, out[0].Range.Start)
}

func TestPositionParams(t *testing.T) {
	req := CursorParams{
		TextDocument: TextDocumentID{Filename: "/tmp/a.rs"},
		Line:         4,
		Column:       2,
	}
	pp := positionParams(req)
	require.Equal(t, "/tmp/a.rs", toPath(pp.TextDocument.URI))
	require.Equal(t, protocol.Position{Line: 3, Character: 1}, pp.Position)
}
