package controller

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/firi/lsp-broker/internal/peer"
	"github.com/firi/lsp-broker/internal/supervisor"
)

// fetchCodeLenses issues textDocument/codeLens, resolves entries in
// parallel, replaces the Store's per-URI cache, and pushes virtual-text
// annotations grouped by line. Errors are logged, not surfaced to the
// editor — a failed refresh just leaves the previous cache in place.
func (c *Controller) fetchCodeLenses(ctx context.Context, languageID string, srv *supervisor.Server, uri protocol.DocumentURI) {
	lenses, err := srv.Client.CodeLens(ctx, &protocol.CodeLensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	if err != nil {
		c.logger.Debug("codeLens fetch failed", zap.String("language_id", languageID), zap.Error(err))
		return
	}

	resolved := c.resolveCodeLenses(ctx, languageID, srv, lenses)
	c.store.SetCodeLenses(string(uri), resolved)
	c.publishCodeLensAnnotations(ctx, uri, resolved)
}

// resolveCodeLenses fans out codeLens/resolve calls in parallel for any
// lens carrying a non-nil Data field, provided the server advertises
// resolve support. A failed or skipped resolution falls back to the
// original lens — mirroring vim-lc's resolve_code_lens, which discards a
// failed per-lens task and keeps the unresolved lens rather than failing
// the whole batch.
func (c *Controller) resolveCodeLenses(ctx context.Context, languageID string, srv *supervisor.Server, lenses []protocol.CodeLens) []protocol.CodeLens {
	caps, _ := c.store.Capabilities(languageID)
	if !codeLensResolveSupported(caps) {
		return lenses
	}

	out := make([]protocol.CodeLens, len(lenses))
	copy(out, lenses)

	g, gctx := errgroup.WithContext(ctx)
	for i := range out {
		i := i
		if out[i].Data == nil {
			continue
		}
		g.Go(func() error {
			resolved, err := srv.Client.CodeLensResolve(gctx, &out[i])
			if err != nil || resolved == nil {
				return nil
			}
			out[i] = *resolved
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func codeLensResolveSupported(caps *protocol.ServerCapabilities) bool {
	if caps == nil || caps.CodeLensProvider == nil {
		return false
	}
	return caps.CodeLensProvider.ResolveProvider
}

// publishCodeLensAnnotations groups resolved lenses by their starting
// line and sends virtual-text annotations to the editor, joining multiple
// lenses on the same line with " | ".
func (c *Controller) publishCodeLensAnnotations(ctx context.Context, uri protocol.DocumentURI, lenses []protocol.CodeLens) {
	byLine := make(map[uint32][]string)
	for _, lens := range lenses {
		if lens.Command == nil || lens.Command.Title == "" {
			continue
		}
		byLine[lens.Range.Start.Line] = append(byLine[lens.Range.Start.Line], lens.Command.Title)
	}

	lines := make([]uint32, 0, len(byLine))
	for line := range byLine {
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i] < lines[j] })

	type annotation struct {
		Line int    `json:"line"`
		Text string `json:"text"`
	}
	annotations := make([]annotation, 0, len(lines))
	for _, line := range lines {
		annotations = append(annotations, annotation{
			Line: int(line) + 1,
			Text: strings.Join(byLine[line], " | "),
		})
	}

	if err := c.editor.Notify(ctx, EditorSetVirtualText, map[string]interface{}{
		"filename":    toPath(uri),
		"annotations": annotations,
	}); err != nil {
		c.logger.Warn("failed to publish code lens annotations", zap.Error(err))
	}
}

func (c *Controller) handleCodeLens(ctx context.Context, msg peer.Message) error {
	var req CursorParams
	if err := c.decode(msg, &req); err != nil {
		return err
	}
	srv, ok := c.serverFor(msg, req.LanguageID)
	if !ok {
		return nil
	}
	if caps, ok := c.store.Capabilities(req.LanguageID); ok && caps.CodeLensProvider == nil {
		return msg.Respond(nil, nil)
	}

	uri := toURI(req.TextDocument.Filename)
	c.fetchCodeLenses(ctx, req.LanguageID, srv, uri)
	return msg.Respond(c.store.CodeLenses(string(uri)), nil)
}

func (c *Controller) handleCodeLensAction(ctx context.Context, msg peer.Message) error {
	var req CursorParams
	if err := c.decode(msg, &req); err != nil {
		return err
	}

	uri := string(toURI(req.TextDocument.Filename))
	lenses := c.store.CodeLenses(uri)

	var matches []protocol.CodeLens
	for _, lens := range lenses {
		if lens.Command == nil {
			continue
		}
		if int(lens.Range.Start.Line)+1 != req.Line {
			continue
		}
		matches = append(matches, lens)
	}

	items := make([]string, 0, len(matches))
	for _, lens := range matches {
		items = append(items, lens.Command.Title)
	}

	if err := c.editor.Notify(ctx, EditorSelection, map[string]interface{}{
		"items": items,
	}); err != nil {
		return msg.Respond(nil, fmt.Errorf("controller: presenting code lens actions: %w", err))
	}
	return msg.Respond(nil, nil)
}

func (c *Controller) handleResolveCodeLensAction(ctx context.Context, msg peer.Message) error {
	var req ResolveCodeActionParams
	if err := c.decode(msg, &req); err != nil {
		return err
	}

	srv, ok := c.serverFor(msg, req.LanguageID)
	if !ok {
		return nil
	}

	uri := string(toURI(req.TextDocument.Filename))
	lenses := c.store.CodeLenses(uri)

	idx, ok := selectionIndex(req.Selection)
	if !ok || idx < 0 || idx >= len(lenses) {
		return msg.Respond(nil, nil)
	}
	lens := lenses[idx]

	caps, _ := c.store.Capabilities(req.LanguageID)
	if lens.Data != nil && codeLensResolveSupported(caps) {
		if resolved, err := srv.Client.CodeLensResolve(ctx, &lens); err == nil && resolved != nil {
			lens = *resolved
		}
	}
	if lens.Command == nil {
		return msg.Respond(nil, nil)
	}

	err := c.commands.Dispatch(ctx, c.dispatcherFor(req.LanguageID, req.TextDocument.Filename), lens.Command.Command, toInterfaceSlice(lens.Command.Arguments))
	return msg.Respond(nil, err)
}

func selectionIndex(sel interface{}) (int, bool) {
	switch v := sel.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

func toInterfaceSlice(args []interface{}) []interface{} {
	if args == nil {
		return nil
	}
	return args
}
