package controller

import (
	"context"

	"go.lsp.dev/protocol"

	"github.com/firi/lsp-broker/internal/peer"
)

// sessionDispatcher adapts a Controller plus the language/file a command
// was invoked against into the commands.Dispatcher interface.
type sessionDispatcher struct {
	c          *Controller
	languageID string
	filename   string
}

func (c *Controller) dispatcherFor(languageID, filename string) sessionDispatcher {
	return sessionDispatcher{c: c, languageID: languageID, filename: filename}
}

func (d sessionDispatcher) ApplyWorkspaceEdit(ctx context.Context, edit *protocol.WorkspaceEdit) error {
	d.c.applyWorkspaceEditToEditor(ctx, edit)
	return nil
}

func (d sessionDispatcher) ShowReferences(ctx context.Context, locations []protocol.Location) error {
	return d.c.editor.Notify(ctx, EditorShowLocations, toEditorLocations(locations))
}

func (d sessionDispatcher) ExecuteInTerminal(ctx context.Context, command string) error {
	return d.c.editor.Notify(ctx, EditorExecute, map[string]string{"command": command})
}

func (d sessionDispatcher) ExecuteOnServer(ctx context.Context, command string, arguments []interface{}) (interface{}, error) {
	srv, err := d.c.supervisor.Get(d.languageID)
	if err != nil {
		return nil, err
	}
	return srv.Client.ExecuteCommand(ctx, &protocol.ExecuteCommandParams{
		Command:   command,
		Arguments: arguments,
	})
}

func (c *Controller) handleResolveCodeAction(ctx context.Context, msg peer.Message) error {
	var req ResolveCodeActionParams
	if err := c.decode(msg, &req); err != nil {
		return err
	}

	uri := string(toURI(req.TextDocument.Filename))
	actions := c.store.CodeActions(uri)

	idx, ok := selectionIndex(req.Selection)
	if !ok || idx < 0 || idx >= len(actions) {
		return msg.Respond(nil, nil)
	}
	action := actions[idx]

	if action.Edit != nil {
		c.applyWorkspaceEditToEditor(ctx, action.Edit)
	}
	if action.Command == nil {
		return msg.Respond(nil, nil)
	}

	err := c.commands.Dispatch(ctx, c.dispatcherFor(req.LanguageID, req.TextDocument.Filename), action.Command.Command, toInterfaceSlice(action.Command.Arguments))
	return msg.Respond(nil, err)
}

func (c *Controller) handleDiagnosticDetail(ctx context.Context, msg peer.Message) error {
	var req CursorParams
	if err := c.decode(msg, &req); err != nil {
		return err
	}

	uri := string(toURI(req.TextDocument.Filename))
	diags := c.store.Diagnostics(uri)

	for _, d := range diags {
		if int(d.Range.Start.Line)+1 != req.Line {
			continue
		}
		return msg.Respond(map[string]string{"message": d.Message}, nil)
	}
	return msg.Respond(nil, nil)
}
