// Package controller implements the broker's session controller: the
// dispatcher that multiplexes the Editor Peer's inbound queue and each
// Server Peer's inbound queue into a single request/notification handling
// path, translating between editor-native and LSP-native representations
// along the way.
package controller

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/firi/lsp-broker/internal/commands"
	"github.com/firi/lsp-broker/internal/config"
	"github.com/firi/lsp-broker/internal/peer"
	"github.com/firi/lsp-broker/internal/store"
	"github.com/firi/lsp-broker/internal/supervisor"
)

// Controller is the broker's central dispatcher.
type Controller struct {
	cfg        *config.BrokerConfig
	store      *store.Store
	supervisor *supervisor.Supervisor
	commands   *commands.Registry
	editor     *peer.Peer
	logger     *zap.Logger

	cwd string

	mu      sync.Mutex
	started map[string]bool
}

// New builds a Controller wired to the already-constructed store,
// supervisor, command registry, and Editor Peer.
func New(cfg *config.BrokerConfig, st *store.Store, sup *supervisor.Supervisor, cmds *commands.Registry, editor *peer.Peer, logger *zap.Logger) *Controller {
	cwd, _ := os.Getwd()
	return &Controller{
		cfg:        cfg,
		store:      st,
		supervisor: sup,
		commands:   cmds,
		editor:     editor,
		logger:     logger,
		cwd:        cwd,
		started:    make(map[string]bool),
	}
}

// Run drains the Editor Peer's inbound queue until ctx is cancelled or the
// Editor disconnects — the broker has nothing left to serve once its one
// editor connection is gone, so losing it ends the run loop the same way
// context cancellation does.
func (c *Controller) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.editor.Done():
			return c.editor.Err()
		case msg, ok := <-c.editor.Inbound():
			if !ok {
				return nil
			}
			c.dispatchEditor(ctx, msg)
		}
	}
}

func (c *Controller) dispatchEditor(ctx context.Context, msg peer.Message) {
	var err error
	switch msg.Method {
	case MethodStart:
		err = c.handleStart(ctx, msg)
	case protocol.MethodInitialize:
		err = c.handleInitialize(ctx, msg)
	case protocol.MethodShutdown:
		err = c.handleShutdown(ctx, msg)
	case protocol.MethodExit:
		err = c.handleExit(ctx, msg)

	case protocol.MethodTextDocumentDidOpen:
		err = c.handleDidOpen(ctx, msg)
	case protocol.MethodTextDocumentDidChange:
		err = c.handleDidChange(ctx, msg)
	case protocol.MethodTextDocumentDidSave:
		err = c.handleDidSave(ctx, msg)
	case protocol.MethodTextDocumentDidClose:
		err = c.handleDidClose(ctx, msg)

	case protocol.MethodTextDocumentDefinition:
		err = c.handleDefinition(ctx, msg)
	case protocol.MethodTextDocumentReferences:
		err = c.handleReferences(ctx, msg)
	case protocol.MethodTextDocumentImplementation:
		err = c.handleImplementation(ctx, msg)
	case protocol.MethodTextDocumentHover:
		err = c.handleHover(ctx, msg)
	case protocol.MethodTextDocumentCompletion:
		err = c.handleCompletion(ctx, msg)
	case protocol.MethodTextDocumentCodeAction:
		err = c.handleCodeAction(ctx, msg)
	case protocol.MethodTextDocumentCodeLens:
		err = c.handleCodeLens(ctx, msg)
	case protocol.MethodTextDocumentRename:
		err = c.handleRename(ctx, msg)
	case protocol.MethodTextDocumentFormatting:
		err = c.handleFormatting(ctx, msg)
	case protocol.MethodCompletionItemResolve:
		err = c.handleCompletionItemResolve(ctx, msg)

	case MethodCodeLensAction:
		err = c.handleCodeLensAction(ctx, msg)
	case MethodResolveCodeLensAction:
		err = c.handleResolveCodeLensAction(ctx, msg)
	case MethodResolveCodeAction:
		err = c.handleResolveCodeAction(ctx, msg)
	case MethodDiagnosticDetail:
		err = c.handleDiagnosticDetail(ctx, msg)

	default:
		c.logger.Info("unhandled editor method", zap.String("method", msg.Method))
		_ = msg.Respond(nil, nil)
		return
	}

	if err != nil {
		c.logger.Warn("editor method failed", zap.String("method", msg.Method), zap.Error(err))
	}
}

// decode unmarshals msg.Params into out, replying with a protocol-level
// failure and returning the error if decoding fails.
func (c *Controller) decode(msg peer.Message, out interface{}) error {
	if err := json.Unmarshal(msg.Params, out); err != nil {
		_ = msg.Respond(nil, jsonrpc2.Errorf(jsonrpc2.InvalidParams, "bad params: %v", err))
		return err
	}
	return nil
}

// serverFor resolves the running Server for languageID, logging and
// replying ServerNotRunning to the editor if it is not up.
func (c *Controller) serverFor(msg peer.Message, languageID string) (*supervisor.Server, bool) {
	srv, err := c.supervisor.Get(languageID)
	if err != nil {
		c.logger.Debug("no running server", zap.String("language_id", languageID))
		_ = msg.Respond(nil, err)
		return nil, false
	}
	return srv, true
}

// featureEnabled reports whether the named feature flag is set for
// languageID's ServerConfig.
func (c *Controller) featureEnabled(languageID string, pick func(config.Features) bool) bool {
	cfg, ok := c.supervisor.ConfigFor(languageID)
	if !ok {
		return false
	}
	return pick(cfg.Features)
}

func (c *Controller) notifyEditor(ctx context.Context, level MessageLevel, message string) {
	if err := c.editor.Notify(ctx, EditorShowMessage, map[string]string{
		"level":   string(level),
		"message": message,
	}); err != nil {
		c.logger.Warn("failed to notify editor", zap.Error(err))
	}
}
