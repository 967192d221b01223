package controller

import (
	"context"

	"go.lsp.dev/protocol"

	"github.com/firi/lsp-broker/internal/config"
	"github.com/firi/lsp-broker/internal/peer"
)

// EditorLocation is a location translated back into editor-native
// filesystem path + 1-based range.
type EditorLocation struct {
	Filename string      `json:"filename"`
	Range    EditorRange `json:"range"`
}

func toEditorLocations(locs []protocol.Location) []EditorLocation {
	out := make([]EditorLocation, 0, len(locs))
	for _, l := range locs {
		out = append(out, EditorLocation{Filename: toPath(l.URI), Range: toEditorRange(l.Range)})
	}
	return out
}

func positionParams(req CursorParams) *protocol.TextDocumentPositionParams {
	return &protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: toURI(req.TextDocument.Filename)},
		Position:     toLSPPosition(req.Line, req.Column),
	}
}

func (c *Controller) handleDefinition(ctx context.Context, msg peer.Message) error {
	var req CursorParams
	if err := c.decode(msg, &req); err != nil {
		return err
	}
	srv, ok := c.serverFor(msg, req.LanguageID)
	if !ok {
		return nil
	}
	pp := positionParams(req)
	locs, err := srv.Client.Definition(ctx, &protocol.DefinitionParams{TextDocumentPositionParams: *pp})
	if err != nil {
		return msg.Respond(nil, nil)
	}
	return msg.Respond(toEditorLocations(locs), nil)
}

func (c *Controller) handleReferences(ctx context.Context, msg peer.Message) error {
	var req CursorParams
	if err := c.decode(msg, &req); err != nil {
		return err
	}
	srv, ok := c.serverFor(msg, req.LanguageID)
	if !ok {
		return nil
	}
	pp := positionParams(req)
	locs, err := srv.Client.References(ctx, &protocol.ReferenceParams{
		TextDocumentPositionParams: *pp,
		Context:                    protocol.ReferenceContext{IncludeDeclaration: true},
	})
	if err != nil {
		return msg.Respond(nil, nil)
	}
	return msg.Respond(toEditorLocations(locs), nil)
}

func (c *Controller) handleImplementation(ctx context.Context, msg peer.Message) error {
	var req CursorParams
	if err := c.decode(msg, &req); err != nil {
		return err
	}
	srv, ok := c.serverFor(msg, req.LanguageID)
	if !ok {
		return nil
	}
	pp := positionParams(req)
	locs, err := srv.Client.Implementation(ctx, &protocol.ImplementationParams{TextDocumentPositionParams: *pp})
	if err != nil {
		return msg.Respond(nil, nil)
	}
	return msg.Respond(toEditorLocations(locs), nil)
}

func (c *Controller) handleHover(ctx context.Context, msg peer.Message) error {
	var req CursorParams
	if err := c.decode(msg, &req); err != nil {
		return err
	}
	srv, ok := c.serverFor(msg, req.LanguageID)
	if !ok {
		return nil
	}
	pp := positionParams(req)
	hover, err := srv.Client.Hover(ctx, &protocol.HoverParams{TextDocumentPositionParams: *pp})
	if err != nil || hover == nil {
		return msg.Respond(nil, nil)
	}

	result := map[string]interface{}{
		"contents": hover.Contents.Value,
		"strategy": c.cfg.Hover.Strategy,
	}
	if hover.Range != nil {
		result["range"] = toEditorRange(*hover.Range)
	}
	return msg.Respond(result, nil)
}

func (c *Controller) handleCompletion(ctx context.Context, msg peer.Message) error {
	var req CursorParams
	if err := c.decode(msg, &req); err != nil {
		return err
	}
	if !c.featureEnabled(req.LanguageID, func(f config.Features) bool { return f.Completion }) {
		return msg.Respond(nil, nil)
	}
	srv, ok := c.serverFor(msg, req.LanguageID)
	if !ok {
		return nil
	}
	pp := positionParams(req)
	list, err := srv.Client.Completion(ctx, &protocol.CompletionParams{TextDocumentPositionParams: *pp})
	if err != nil || list == nil {
		return msg.Respond(nil, nil)
	}
	return msg.Respond(list.Items, nil)
}

func (c *Controller) handleCompletionItemResolve(ctx context.Context, msg peer.Message) error {
	var req struct {
		LanguageID string                  `json:"language_id"`
		Item       protocol.CompletionItem `json:"item"`
	}
	if err := c.decode(msg, &req); err != nil {
		return err
	}

	srv, ok := c.serverFor(msg, req.LanguageID)
	if !ok {
		return nil
	}
	caps, _ := c.store.Capabilities(req.LanguageID)
	if caps == nil || caps.CompletionProvider == nil || !caps.CompletionProvider.ResolveProvider {
		return msg.Respond(req.Item, nil)
	}

	resolved, err := srv.Client.ResolveCompletionItem(ctx, &req.Item)
	if err != nil || resolved == nil {
		return msg.Respond(req.Item, nil)
	}
	return msg.Respond(resolved, nil)
}

func (c *Controller) handleCodeAction(ctx context.Context, msg peer.Message) error {
	var req RangeParams
	if err := c.decode(msg, &req); err != nil {
		return err
	}
	if !c.featureEnabled(req.LanguageID, func(f config.Features) bool { return f.CodeActions }) {
		return msg.Respond(nil, nil)
	}
	srv, ok := c.serverFor(msg, req.LanguageID)
	if !ok {
		return nil
	}

	uri := toURI(req.TextDocument.Filename)
	gen := c.store.BeginCodeActionRequest(string(uri))

	diags := c.store.Diagnostics(string(uri))
	actions, err := srv.Client.CodeAction(ctx, &protocol.CodeActionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Range:        toLSPRange(req.Range),
		Context:      protocol.CodeActionContext{Diagnostics: diags},
	})
	if err != nil {
		return msg.Respond(nil, nil)
	}

	concrete := make([]protocol.CodeAction, 0, len(actions))
	for _, a := range actions {
		if a != nil {
			concrete = append(concrete, *a)
		}
	}

	if !c.store.SetCodeActions(string(uri), gen, concrete) {
		// A newer request for this URI has been started since; this stale
		// response is simply dropped.
		return msg.Respond(nil, nil)
	}
	return msg.Respond(concrete, nil)
}

func (c *Controller) handleRename(ctx context.Context, msg peer.Message) error {
	var req RenameParams
	if err := c.decode(msg, &req); err != nil {
		return err
	}
	srv, ok := c.serverFor(msg, req.LanguageID)
	if !ok {
		return nil
	}

	edit, err := srv.Client.Rename(ctx, &protocol.RenameParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: toURI(req.TextDocument.Filename)},
			Position:     toLSPPosition(req.Line, req.Column),
		},
		NewName: req.NewName,
	})
	if err != nil {
		return msg.Respond(nil, err)
	}
	if edit == nil {
		return msg.Respond(nil, nil)
	}
	c.applyWorkspaceEditToEditor(ctx, edit)
	return msg.Respond(nil, nil)
}

func (c *Controller) handleFormatting(ctx context.Context, msg peer.Message) error {
	var req CursorParams
	if err := c.decode(msg, &req); err != nil {
		return err
	}
	srv, ok := c.serverFor(msg, req.LanguageID)
	if !ok {
		return nil
	}

	edits, err := srv.Client.Formatting(ctx, &protocol.DocumentFormattingParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: toURI(req.TextDocument.Filename)},
		Options:      protocol.FormattingOptions{"tabSize": 4, "insertSpaces": true},
	})
	if err != nil {
		return msg.Respond(nil, nil)
	}
	return msg.Respond(edits, nil)
}
