package controller

import (
	"context"

	"go.lsp.dev/protocol"

	"github.com/firi/lsp-broker/internal/config"
	"github.com/firi/lsp-broker/internal/peer"
)

func (c *Controller) handleDidOpen(ctx context.Context, msg peer.Message) error {
	var req ContentParams
	if err := c.decode(msg, &req); err != nil {
		return err
	}
	srv, ok := c.serverFor(msg, req.LanguageID)
	if !ok {
		return nil
	}

	uri := toURI(req.TextDocument.Filename)
	rec := c.store.Open(string(uri), req.LanguageID, req.Text)

	err := srv.Client.DidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        uri,
			LanguageID: protocol.LanguageIdentifier(req.LanguageID),
			Version:    rec.Version,
			Text:       req.Text,
		},
	})
	if err != nil {
		return msg.Respond(nil, err)
	}

	if c.featureEnabled(req.LanguageID, func(f config.Features) bool { return f.CodeLenses }) {
		c.fetchCodeLenses(ctx, req.LanguageID, srv, uri)
	}

	return msg.Respond(nil, nil)
}

func (c *Controller) handleDidChange(ctx context.Context, msg peer.Message) error {
	var req ContentParams
	if err := c.decode(msg, &req); err != nil {
		return err
	}
	srv, ok := c.serverFor(msg, req.LanguageID)
	if !ok {
		return nil
	}

	uri := toURI(req.TextDocument.Filename)
	rec, err := c.store.Change(string(uri), req.Text)
	if err != nil {
		return msg.Respond(nil, err)
	}

	err = srv.Client.DidChange(ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                rec.Version,
		},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{{Text: req.Text}},
	})
	return msg.Respond(nil, err)
}

func (c *Controller) handleDidSave(ctx context.Context, msg peer.Message) error {
	var req ContentParams
	if err := c.decode(msg, &req); err != nil {
		return err
	}
	srv, ok := c.serverFor(msg, req.LanguageID)
	if !ok {
		return nil
	}

	uri := toURI(req.TextDocument.Filename)
	err := srv.Client.DidSave(ctx, &protocol.DidSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Text:         req.Text,
	})
	if err != nil {
		return msg.Respond(nil, err)
	}

	if c.featureEnabled(req.LanguageID, func(f config.Features) bool { return f.CodeLenses }) {
		c.fetchCodeLenses(ctx, req.LanguageID, srv, uri)
	}

	return msg.Respond(nil, nil)
}

func (c *Controller) handleDidClose(ctx context.Context, msg peer.Message) error {
	var req ContentParams
	if err := c.decode(msg, &req); err != nil {
		return err
	}
	srv, ok := c.serverFor(msg, req.LanguageID)
	if !ok {
		return nil
	}

	uri := toURI(req.TextDocument.Filename)
	c.store.Close(string(uri))

	err := srv.Client.DidClose(ctx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	return msg.Respond(nil, err)
}

