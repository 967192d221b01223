package controller

import (
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
)

// TextDocumentID names a file the editor is talking about. The editor
// always addresses documents by filesystem path, never by URI — paths are
// translated to file:// URIs on the way out and back on the way in.
type TextDocumentID struct {
	Filename string `json:"filename"`
}

// EditorPosition is 1-based line/column, the editor's native coordinate
// system.
type EditorPosition struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// EditorRange is a pair of 1-based positions.
type EditorRange struct {
	Start EditorPosition `json:"start"`
	End   EditorPosition `json:"end"`
}

// CursorParams is the normalized "cursor position" editor payload shape.
type CursorParams struct {
	TextDocument TextDocumentID `json:"text_document"`
	LanguageID   string         `json:"language_id"`
	Line         int            `json:"line"`
	Column       int            `json:"column"`
}

// RangeParams is the normalized "selection range" editor payload shape.
type RangeParams struct {
	TextDocument TextDocumentID `json:"text_document"`
	LanguageID   string         `json:"language_id"`
	Range        EditorRange    `json:"range"`
}

// ContentParams is the normalized "text-document content" editor payload
// shape, used by didOpen/didChange.
type ContentParams struct {
	TextDocument TextDocumentID `json:"text_document"`
	LanguageID   string         `json:"language_id"`
	Text         string         `json:"text"`
}

// RenameParams is the normalized rename editor payload shape.
type RenameParams struct {
	NewName      string         `json:"new_name"`
	TextDocument TextDocumentID `json:"text_document"`
	LanguageID   string         `json:"language_id"`
	Line         int            `json:"line"`
	Column       int            `json:"column"`
}

// ResolveCodeActionParams is the normalized resolve-code-action/lens editor
// payload shape.
type ResolveCodeActionParams struct {
	Selection    interface{}    `json:"selection"`
	TextDocument TextDocumentID `json:"text_document"`
	LanguageID   string         `json:"language_id"`
	Line         int            `json:"line"`
	Column       int            `json:"column"`
}

// toURI converts a filesystem path into an LSP file:// DocumentURI.
func toURI(path string) protocol.DocumentURI {
	return protocol.DocumentURI(uri.File(path))
}

// toPath converts an LSP file:// DocumentURI back to a filesystem path.
func toPath(u protocol.DocumentURI) string {
	return uri.URI(u).Filename()
}

// toLSPPosition converts 1-based editor coordinates to 0-based LSP ones.
func toLSPPosition(line, column int) protocol.Position {
	return protocol.Position{Line: uint32(line - 1), Character: uint32(column - 1)}
}

// toEditorPosition converts 0-based LSP coordinates to 1-based editor ones.
func toEditorPosition(pos protocol.Position) EditorPosition {
	return EditorPosition{Line: int(pos.Line) + 1, Column: int(pos.Character) + 1}
}

func toLSPRange(r EditorRange) protocol.Range {
	return protocol.Range{
		Start: toLSPPosition(r.Start.Line, r.Start.Column),
		End:   toLSPPosition(r.End.Line, r.End.Column),
	}
}

func toEditorRange(r protocol.Range) EditorRange {
	return EditorRange{Start: toEditorPosition(r.Start), End: toEditorPosition(r.End)}
}
