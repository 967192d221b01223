package controller

import (
	"context"
	"os"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/firi/lsp-broker/internal/peer"
	"github.com/firi/lsp-broker/internal/rootfind"
	"github.com/firi/lsp-broker/internal/supervisor"
)

// startRequest is the editor payload for "start" and "initialize".
type startRequest struct {
	LanguageID string `json:"language_id"`
	Filename   string `json:"filename"`
}

func (c *Controller) handleStart(ctx context.Context, msg peer.Message) error {
	var req startRequest
	if err := c.decode(msg, &req); err != nil {
		return err
	}

	srv, err := c.supervisor.Start(ctx, req.LanguageID)
	if err != nil {
		_ = msg.Respond(nil, nil)
		return err
	}
	c.ensurePumped(ctx, req.LanguageID, srv)
	return msg.Respond(nil, nil)
}

// ensurePumped starts the goroutine draining srv's inbound queue into the
// Controller's server-originated dispatch, exactly once per language_id.
func (c *Controller) ensurePumped(ctx context.Context, languageID string, srv *supervisor.Server) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started[languageID] {
		return
	}
	c.started[languageID] = true
	go c.pumpServer(ctx, languageID, srv)
}

func (c *Controller) pumpServer(ctx context.Context, languageID string, srv *supervisor.Server) {
	defer func() {
		c.mu.Lock()
		delete(c.started, languageID)
		c.mu.Unlock()
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case <-srv.Peer.Done():
			return
		case msg, ok := <-srv.Peer.Inbound():
			if !ok {
				return
			}
			c.dispatchServer(ctx, languageID, srv, msg)
		}
	}
}

type rootfindLogAdapter struct{ logger *zap.Logger }

func (a rootfindLogAdapter) Warnf(format string, args ...interface{}) {
	a.logger.Sugar().Warnf(format, args...)
}

func (c *Controller) handleInitialize(ctx context.Context, msg peer.Message) error {
	var req startRequest
	if err := c.decode(msg, &req); err != nil {
		return err
	}

	srv, ok := c.serverFor(msg, req.LanguageID)
	if !ok {
		return nil
	}

	cfg, _ := c.supervisor.ConfigFor(req.LanguageID)
	root := rootfind.Find(req.Filename, req.LanguageID, rootfindLogAdapter{c.logger})
	pid := int32(os.Getpid())

	params := &protocol.InitializeParams{
		ProcessID: pid,
		RootURI:   toURI(root),
		RootPath:  root,
		Capabilities: protocol.ClientCapabilities{
			TextDocument: &protocol.TextDocumentClientCapabilities{
				Hover: &protocol.HoverTextDocumentClientCapabilities{
					ContentFormat: markupKinds(c.cfg.Hover.PreferredMarkupKind),
				},
			},
		},
		InitializationOptions: cfg.InitializationOptions,
	}

	result, err := srv.Client.Initialize(ctx, params)
	if err != nil {
		_ = msg.Respond(nil, nil)
		return err
	}

	c.store.SetCapabilities(req.LanguageID, &result.Capabilities)
	srv.SetCapabilities(&result.Capabilities)
	if err := srv.Client.Initialized(ctx, &protocol.InitializedParams{}); err != nil {
		c.logger.Warn("initialized notification failed", zap.String("language_id", req.LanguageID), zap.Error(err))
	}

	c.maybeRegisterNCM2(ctx, req.LanguageID, cfg.Features.Completion, &result.Capabilities)

	return msg.Respond(nil, nil)
}

func markupKinds(kinds []string) []protocol.MarkupKind {
	out := make([]protocol.MarkupKind, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, protocol.MarkupKind(k))
	}
	return out
}

// maybeRegisterNCM2 mirrors vim-lc's vim/extensions/ncm2.rs: when the
// server advertises completion trigger characters and the feature is
// enabled, register an NCM2 completion source for languageID.
func (c *Controller) maybeRegisterNCM2(ctx context.Context, languageID string, enabled bool, caps *protocol.ServerCapabilities) {
	if !enabled || caps.CompletionProvider == nil {
		return
	}
	triggers := caps.CompletionProvider.TriggerCharacters
	if len(triggers) == 0 {
		return
	}
	if err := c.editor.Notify(ctx, EditorRegisterNCM2, map[string]interface{}{
		"name":             languageID,
		"trigger_patterns": triggers,
	}); err != nil {
		c.logger.Warn("ncm2 registration failed", zap.String("language_id", languageID), zap.Error(err))
	}
}

func (c *Controller) handleShutdown(ctx context.Context, msg peer.Message) error {
	var req startRequest
	if err := c.decode(msg, &req); err != nil {
		return err
	}
	srv, ok := c.serverFor(msg, req.LanguageID)
	if !ok {
		return nil
	}
	err := srv.Client.Shutdown(ctx)
	return msg.Respond(nil, err)
}

func (c *Controller) handleExit(ctx context.Context, msg peer.Message) error {
	var req startRequest
	if err := c.decode(msg, &req); err != nil {
		return err
	}
	err := c.supervisor.Stop(ctx, req.LanguageID)
	return msg.Respond(nil, err)
}
