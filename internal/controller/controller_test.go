package controller

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/firi/lsp-broker/internal/commands"
	"github.com/firi/lsp-broker/internal/config"
	"github.com/firi/lsp-broker/internal/peer"
	"github.com/firi/lsp-broker/internal/store"
	"github.com/firi/lsp-broker/internal/supervisor"
)

// pipeRWC joins a pair of io.Pipes into one io.ReadWriteCloser, mirroring
// internal/peer's test harness, so a test can drive the Controller's
// editor-facing Peer from both ends without a real editor process.
type pipeRWC struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (p pipeRWC) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p pipeRWC) Write(b []byte) (int, error) { return p.w.Write(b) }
func (p pipeRWC) Close() error {
	_ = p.r.Close()
	return p.w.Close()
}

// newTestController wires a Controller to a live editor Peer and returns
// the counterpart Peer a test uses to stand in for the editor.
func newTestController(ctx context.Context) (*Controller, *peer.Peer) {
	ar, bw := io.Pipe()
	br, aw := io.Pipe()

	editorSide := peer.New(ctx, peer.Identity{Role: peer.RoleEditor}, jsonrpc2.NewStream(pipeRWC{r: br, w: bw}), zap.NewNop())
	brokerSide := peer.New(ctx, peer.Identity{Role: peer.RoleEditor}, jsonrpc2.NewStream(pipeRWC{r: ar, w: aw}), zap.NewNop())

	cfg := &config.BrokerConfig{Servers: map[string]config.ServerConfig{}}
	c := New(cfg, store.New(), supervisor.New(cfg.Servers, zap.NewNop()), commands.NewRegistry(), brokerSide, zap.NewNop())
	return c, editorSide
}

func TestHandleDiagnosticDetailReturnsMatchingMessage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, editorSide := newTestController(ctx)
	defer editorSide.Close()

	uri := string(toURI("/tmp/main.rs"))
	c.store.SetDiagnostics(uri, []protocol.Diagnostic{
		{
			Range:   protocol.Range{Start: protocol.Position{Line: 4, Character: 0}},
			Message: "unused variable `x`",
		},
	})

	go c.Run(ctx)

	var result map[string]string
	err := editorSide.Call(ctx, MethodDiagnosticDetail, CursorParams{
		TextDocument: TextDocumentID{Filename: "/tmp/main.rs"},
		Line:         5,
		Column:       1,
	}, &result)
	require.NoError(t, err)
	require.Equal(t, "unused variable `x`", result["message"])
}

func TestHandleDiagnosticDetailNoMatchReturnsNil(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, editorSide := newTestController(ctx)
	defer editorSide.Close()

	go c.Run(ctx)

	var result map[string]string
	err := editorSide.Call(ctx, MethodDiagnosticDetail, CursorParams{
		TextDocument: TextDocumentID{Filename: "/tmp/main.rs"},
		Line:         1,
		Column:       1,
	}, &result)
	require.NoError(t, err)
	require.Nil(t, result)
}

func TestHandleCodeLensActionListsTitlesOnMatchingLine(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, editorSide := newTestController(ctx)
	defer editorSide.Close()

	uri := string(toURI("/tmp/main.rs"))
	c.store.SetCodeLenses(uri, []protocol.CodeLens{
		{
			Range:   protocol.Range{Start: protocol.Position{Line: 2, Character: 0}},
			Command: &protocol.Command{Title: "Run test"},
		},
		{
			Range:   protocol.Range{Start: protocol.Position{Line: 9, Character: 0}},
			Command: &protocol.Command{Title: "Run other test"},
		},
	})

	received := make(chan map[string]interface{}, 1)
	go func() {
		for {
			select {
			case msg, ok := <-editorSide.Inbound():
				if !ok {
					return
				}
				if msg.Method == EditorSelection {
					var params map[string]interface{}
					_ = json.Unmarshal(msg.Params, &params)
					_ = msg.Respond(nil, nil)
					received <- params
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go c.Run(ctx)

	err := editorSide.Notify(ctx, MethodCodeLensAction, CursorParams{
		TextDocument: TextDocumentID{Filename: "/tmp/main.rs"},
		Line:         3,
		Column:       1,
	})
	require.NoError(t, err)

	select {
	case params := <-received:
		items, ok := params["items"].([]interface{})
		require.True(t, ok)
		require.Equal(t, []interface{}{"Run test"}, items)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for vlc#selection notification")
	}
}
