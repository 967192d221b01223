package controller

import (
	"context"
	"encoding/json"
	"fmt"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/firi/lsp-broker/internal/config"
	"github.com/firi/lsp-broker/internal/peer"
	"github.com/firi/lsp-broker/internal/supervisor"
)

// dispatchServer handles one message from a spawned server's inbound
// queue: notifications and requests the server initiates rather than
// replies to a call the broker made.
func (c *Controller) dispatchServer(ctx context.Context, languageID string, srv *supervisor.Server, msg peer.Message) {
	switch msg.Method {
	case protocol.MethodWindowLogMessage:
		c.handleLogMessage(msg)
	case protocol.MethodWindowShowMessage:
		c.handleShowMessage(ctx, msg)
	case protocol.MethodProgress:
		c.handleProgress(ctx, msg)
	case protocol.MethodTextDocumentPublishDiagnostics:
		c.handlePublishDiagnostics(ctx, languageID, msg)
	case protocol.MethodWorkspaceApplyEdit:
		c.handleApplyEdit(ctx, msg)
	default:
		c.logger.Debug("unhandled server notification", zap.String("language_id", languageID), zap.String("method", msg.Method))
		_ = msg.Respond(nil, nil)
	}
}

func (c *Controller) handleLogMessage(msg peer.Message) {
	var params protocol.LogMessageParams
	_ = json.Unmarshal(msg.Params, &params)
	c.logger.Debug("server log", zap.String("message", params.Message))
	_ = msg.Respond(nil, nil)
}

func (c *Controller) handleShowMessage(ctx context.Context, msg peer.Message) {
	var params protocol.ShowMessageParams
	_ = json.Unmarshal(msg.Params, &params)
	c.notifyEditor(ctx, severityToLevel(params.Type), params.Message)
	_ = msg.Respond(nil, nil)
}

// handleProgress flattens WorkDone{Begin,Report,End} payloads into a
// human-readable string, matching vim-lc's progress handler which funnels
// into the same show_message path as window/showMessage.
func (c *Controller) handleProgress(ctx context.Context, msg peer.Message) {
	var params struct {
		Token interface{} `json:"token"`
		Value struct {
			Kind       string `json:"kind"`
			Title      string `json:"title"`
			Message    string `json:"message"`
			Percentage uint32 `json:"percentage"`
		} `json:"value"`
	}
	_ = json.Unmarshal(msg.Params, &params)

	text := params.Value.Title
	if params.Value.Message != "" {
		if text != "" {
			text += ": "
		}
		text += params.Value.Message
	}
	if params.Value.Kind == "report" && params.Value.Percentage > 0 {
		text = fmt.Sprintf("%s (%d%%)", text, params.Value.Percentage)
	}
	if text != "" {
		c.notifyEditor(ctx, LevelInfo, text)
	}
	_ = msg.Respond(nil, nil)
}

func severityToLevel(t protocol.MessageType) MessageLevel {
	switch t {
	case protocol.MessageTypeError:
		return LevelError
	case protocol.MessageTypeWarning:
		return LevelWarning
	default:
		return LevelInfo
	}
}

func (c *Controller) handlePublishDiagnostics(ctx context.Context, languageID string, msg peer.Message) {
	var params protocol.PublishDiagnosticsParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		_ = msg.Respond(nil, nil)
		return
	}

	uri := string(params.URI)
	c.store.SetDiagnostics(uri, params.Diagnostics)

	if c.featureEnabled(languageID, func(f config.Features) bool { return f.Diagnostics }) {
		c.publishDiagnosticsToEditor(ctx, params.URI, params.Diagnostics)
	}
	_ = msg.Respond(nil, nil)
}

func (c *Controller) publishDiagnosticsToEditor(ctx context.Context, uri protocol.DocumentURI, diags []protocol.Diagnostic) {
	type qfEntry struct {
		Filename string `json:"filename"`
		Line     int    `json:"line"`
		Column   int    `json:"column"`
		Text     string `json:"text"`
		Type     string `json:"type"`
	}

	entries := make([]qfEntry, 0, len(diags))
	for _, d := range diags {
		pos := toEditorPosition(d.Range.Start)
		entries = append(entries, qfEntry{
			Filename: toPath(uri),
			Line:     pos.Line,
			Column:   pos.Column,
			Text:     d.Message,
			Type:     diagnosticTypeLetter(d.Severity),
		})
	}

	if err := c.editor.Notify(ctx, EditorSetQuickfix, entries); err != nil {
		c.logger.Warn("failed to publish quickfix list", zap.Error(err))
	}
}

func diagnosticTypeLetter(sev protocol.DiagnosticSeverity) string {
	switch sev {
	case protocol.DiagnosticSeverityError:
		return "E"
	case protocol.DiagnosticSeverityWarning:
		return "W"
	case protocol.DiagnosticSeverityInformation:
		return "I"
	case protocol.DiagnosticSeverityHint:
		return "H"
	default:
		return "E"
	}
}

func (c *Controller) handleApplyEdit(ctx context.Context, msg peer.Message) {
	var params protocol.ApplyWorkspaceEditParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		_ = msg.Respond(nil, nil)
		return
	}
	c.applyWorkspaceEditToEditor(ctx, &params.Edit)
	_ = msg.Respond(&protocol.ApplyWorkspaceEditResponse{Applied: true}, nil)
}
