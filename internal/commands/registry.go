// Package commands implements an open-ended command-name -> handler
// registry for server-specific commands that need local editor action
// instead of a server round-trip.
// The built-in rust-analyzer handlers follow vim-lc's
// language_client/extensions/rust_analyzer.rs argument shapes and terminal
// command construction.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"go.lsp.dev/protocol"
)

// Dispatcher is what a command handler needs from the rest of the broker.
// internal/controller's sessionDispatcher implements this.
type Dispatcher interface {
	ApplyWorkspaceEdit(ctx context.Context, edit *protocol.WorkspaceEdit) error
	ShowReferences(ctx context.Context, locations []protocol.Location) error
	ExecuteInTerminal(ctx context.Context, command string) error
	ExecuteOnServer(ctx context.Context, command string, arguments []interface{}) (interface{}, error)
}

// Handler runs one extension command. arguments is the editor-supplied
// argument list exactly as the command was invoked, JSON-decoded into
// interface{} values.
type Handler func(ctx context.Context, d Dispatcher, command string, arguments []interface{}) error

// Registry is the command-name -> Handler table.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry returns a Registry seeded with the built-in rust-analyzer
// handlers.
func NewRegistry() *Registry {
	r := &Registry{handlers: make(map[string]Handler)}
	r.Register("rust-analyzer.applySourceChange", applySourceChange)
	r.Register("rust-analyzer.showReferences", showReferences)
	r.Register("rust-analyzer.run", run)
	r.Register("rust-analyzer.runSingle", run)
	return r
}

// Register adds or replaces the handler for command.
func (r *Registry) Register(command string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[command] = h
}

// Dispatch runs the handler registered for command, or the default
// workspace/executeCommand passthrough if none is registered.
func (r *Registry) Dispatch(ctx context.Context, d Dispatcher, command string, arguments []interface{}) error {
	r.mu.RLock()
	h, ok := r.handlers[command]
	r.mu.RUnlock()
	if !ok {
		h = passthrough
	}
	return h(ctx, d, command, arguments)
}

func passthrough(ctx context.Context, d Dispatcher, command string, arguments []interface{}) error {
	_, err := d.ExecuteOnServer(ctx, command, arguments)
	return err
}

// rustAnalyzerSourceChange mirrors RustAnalyzerSourceChanges in
// rust_analyzer.rs: cursorPosition is optional, workspaceEdit is required.
type rustAnalyzerSourceChange struct {
	CursorPosition *protocol.TextDocumentPositionParams `json:"cursorPosition"`
	WorkspaceEdit  protocol.WorkspaceEdit               `json:"workspaceEdit"`
}

func applySourceChange(ctx context.Context, d Dispatcher, command string, arguments []interface{}) error {
	for _, raw := range arguments {
		var change rustAnalyzerSourceChange
		if err := reencode(raw, &change); err != nil {
			return fmt.Errorf("commands: decoding source change: %w", err)
		}
		if err := d.ApplyWorkspaceEdit(ctx, &change.WorkspaceEdit); err != nil {
			return err
		}
	}
	return nil
}

// showReferences mirrors rust_analyzer_show_references: the third argument
// (index 2) holds the Location list; earlier arguments (document position,
// resolved symbol) are not needed here.
func showReferences(ctx context.Context, d Dispatcher, command string, arguments []interface{}) error {
	if len(arguments) < 3 {
		return d.ShowReferences(ctx, nil)
	}
	var locations []protocol.Location
	if err := reencode(arguments[2], &locations); err != nil {
		return fmt.Errorf("commands: decoding references: %w", err)
	}
	return d.ShowReferences(ctx, locations)
}

// run mirrors rust_analyzer_run: the first argument is either a
// BinRunnable{label, bin, args} or a GenericRunnable{label,
// kind:"cargo", args:{workspaceRoot?, cargoArgs, executableArgs}}. The
// resulting terminal command is built with the same naive quote-stripping
// the original implementation uses — args are joined with spaces and
// embedded double quotes are simply removed, not escaped.
func run(ctx context.Context, d Dispatcher, command string, arguments []interface{}) error {
	if len(arguments) == 0 {
		return nil
	}

	var runnable map[string]interface{}
	if err := reencode(arguments[0], &runnable); err != nil {
		return fmt.Errorf("commands: decoding runnable: %w", err)
	}

	var cmd string
	if bin, ok := runnable["bin"]; ok {
		args := stringSlice(runnable["args"])
		cmd = fmt.Sprintf("term %v %s", bin, strings.Join(args, " "))
	} else {
		inner, _ := runnable["args"].(map[string]interface{})
		cargoArgs := stringSlice(inner["cargoArgs"])
		execArgs := stringSlice(inner["executableArgs"])
		cmd = fmt.Sprintf("term cargo %s -- %s", strings.Join(cargoArgs, " "), strings.Join(execArgs, " "))
	}
	cmd = strings.ReplaceAll(cmd, `"`, "")

	return d.ExecuteInTerminal(ctx, cmd)
}

func stringSlice(v interface{}) []string {
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// reencode round-trips v through JSON into out, since the editor's
// arguments arrive already decoded into interface{} by the outer RPC layer.
func reencode(v interface{}, out interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
