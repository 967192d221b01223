package controller

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"
)

func TestCoordinateRoundTrip(t *testing.T) {
	pos := toLSPPosition(5, 10)
	require.Equal(t, protocol.Position{Line: 4, Character: 9}, pos)

	back := toEditorPosition(pos)
	require.Equal(t, EditorPosition{Line: 5, Column: 10}, back)
}

func TestURIRoundTrip(t *testing.T) {
	path := "/home/user/project/src/main.rs"
	u := toURI(path)
	require.Equal(t, path, toPath(u))
}

func TestRangeRoundTrip(t *testing.T) {
	r := EditorRange{Start: EditorPosition{Line: 1, Column: 1}, End: EditorPosition{Line: 2, Column: 5}}
	lsp := toLSPRange(r)
	require.Equal(t, r, toEditorRange(lsp))
}
