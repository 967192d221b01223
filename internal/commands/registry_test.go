package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"
)

type fakeDispatcher struct {
	appliedEdits []*protocol.WorkspaceEdit
	shownRefs    [][]protocol.Location
	terminalCmds []string
	executed     []string
}

func (f *fakeDispatcher) ApplyWorkspaceEdit(ctx context.Context, edit *protocol.WorkspaceEdit) error {
	f.appliedEdits = append(f.appliedEdits, edit)
	return nil
}

func (f *fakeDispatcher) ShowReferences(ctx context.Context, locations []protocol.Location) error {
	f.shownRefs = append(f.shownRefs, locations)
	return nil
}

func (f *fakeDispatcher) ExecuteInTerminal(ctx context.Context, command string) error {
	f.terminalCmds = append(f.terminalCmds, command)
	return nil
}

func (f *fakeDispatcher) ExecuteOnServer(ctx context.Context, command string, arguments []interface{}) (interface{}, error) {
	f.executed = append(f.executed, command)
	return nil, nil
}

func TestApplySourceChange(t *testing.T) {
	r := NewRegistry()
	d := &fakeDispatcher{}
	arg := map[string]interface{}{
		"workspaceEdit": map[string]interface{}{},
	}
	err := r.Dispatch(context.Background(), d, "rust-analyzer.applySourceChange", []interface{}{arg})
	require.NoError(t, err)
	require.Len(t, d.appliedEdits, 1)
}

func TestShowReferencesTakesThirdArgument(t *testing.T) {
	r := NewRegistry()
	d := &fakeDispatcher{}
	locations := []interface{}{
		map[string]interface{}{"uri": "file:///a.rs"},
	}
	err := r.Dispatch(context.Background(), d, "rust-analyzer.showReferences", []interface{}{nil, nil, locations})
	require.NoError(t, err)
	require.Len(t, d.shownRefs, 1)
	require.Len(t, d.shownRefs[0], 1)
}

func TestRunBinRunnable(t *testing.T) {
	r := NewRegistry()
	d := &fakeDispatcher{}
	runnable := map[string]interface{}{
		"label": "run main",
		"bin":   "cargo",
		"args":  []interface{}{"run", `--bin="app"`},
	}
	err := r.Dispatch(context.Background(), d, "rust-analyzer.run", []interface{}{runnable})
	require.NoError(t, err)
	require.Equal(t, []string{`term cargo run --bin=app`}, d.terminalCmds)
}

func TestRunGenericRunnable(t *testing.T) {
	r := NewRegistry()
	d := &fakeDispatcher{}
	runnable := map[string]interface{}{
		"label": "test",
		"kind":  "cargo",
		"args": map[string]interface{}{
			"cargoArgs":      []interface{}{"test"},
			"executableArgs": []interface{}{"--nocapture"},
		},
	}
	err := r.Dispatch(context.Background(), d, "rust-analyzer.runSingle", []interface{}{runnable})
	require.NoError(t, err)
	require.Equal(t, []string{"term cargo test -- --nocapture"}, d.terminalCmds)
}

func TestDefaultPassthrough(t *testing.T) {
	r := NewRegistry()
	d := &fakeDispatcher{}
	err := r.Dispatch(context.Background(), d, "some.other.command", []interface{}{1, 2})
	require.NoError(t, err)
	require.Equal(t, []string{"some.other.command"}, d.executed)
}
