package controller

import (
	"context"
	"strings"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"
)

// fileEditBatch is one file's worth of edits in the editor's apply-edits
// payload shape.
type fileEditBatch struct {
	Filename string       `json:"filename"`
	Edits    []editRecord `json:"edits"`
}

type editRecord struct {
	Start EditorPosition `json:"start"`
	End   EditorPosition `json:"end"`
	Lines []string       `json:"lines"`
}

// applyWorkspaceEditToEditor translates a WorkspaceEdit into the editor's
// apply-edits payload and forwards it. Only the DocumentChanges text-edit
// variant is handled (go.lsp.dev/protocol models DocumentChanges as plain
// TextDocumentEdits, so a create/rename/delete resource operation never
// reaches this code in the first place); a bare Changes map is honored as
// a fallback for servers that still send it.
func (c *Controller) applyWorkspaceEditToEditor(ctx context.Context, edit *protocol.WorkspaceEdit) {
	batches := make(map[string][]editRecord)

	if len(edit.DocumentChanges) > 0 {
		for _, dc := range edit.DocumentChanges {
			path := toPath(dc.TextDocument.URI)
			for _, te := range dc.Edits {
				batches[path] = append(batches[path], toEditRecord(te))
			}
		}
	} else {
		for uri, edits := range edit.Changes {
			path := toPath(uri)
			for _, te := range edits {
				batches[path] = append(batches[path], toEditRecord(te))
			}
		}
	}

	if len(batches) == 0 {
		return
	}

	payload := make([]fileEditBatch, 0, len(batches))
	for filename, edits := range batches {
		payload = append(payload, fileEditBatch{Filename: filename, Edits: edits})
	}

	if err := c.editor.Notify(ctx, EditorApplyEdits, payload); err != nil {
		c.logger.Warn("failed to apply workspace edit", zap.Error(err))
	}
}

func toEditRecord(te protocol.TextEdit) editRecord {
	return editRecord{
		Start: toEditorPosition(te.Range.Start),
		End:   toEditorPosition(te.Range.End),
		Lines: strings.Split(te.NewText, "\n"),
	}
}
