// Package peer wraps a go.lsp.dev/jsonrpc2.Conn with an identity, a bounded
// inbound queue, and the backpressure that queue gives for free. The
// reader/writer tasks and id correlation for outbound calls are supplied by
// jsonrpc2.Conn itself; Peer adds what sits on top of it.
package peer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.lsp.dev/jsonrpc2"
	"go.uber.org/zap"

	"github.com/firi/lsp-broker/internal/errs"
	"github.com/firi/lsp-broker/internal/transport"
)

// Role distinguishes the Editor peer from a spawned-server peer.
type Role int

const (
	RoleEditor Role = iota
	RoleServer
)

// Identity names a Peer for logging and routing: the Editor peer has no
// LanguageID, a server peer's LanguageID selects its ServerConfig.
type Identity struct {
	Role       Role
	LanguageID string
}

func (id Identity) String() string {
	if id.Role == RoleEditor {
		return "editor"
	}
	return "server:" + id.LanguageID
}

// Message is an inbound call or notification the Peer's Handler has lifted
// off the wire and queued. Notify is true for a notification, for which
// Respond does nothing; for a call, Respond completes the RPC.
type Message struct {
	Method string
	Params json.RawMessage
	Notify bool
	reply  jsonrpc2.Replier
	ctx    context.Context
}

// Respond completes a call Message. It is a no-op (and safe to skip) for a
// notification.
func (m Message) Respond(result interface{}, rpcErr error) error {
	if m.Notify || m.reply == nil {
		return nil
	}
	return m.reply(m.ctx, result, rpcErr)
}

// Context returns the context the Handler received for this message.
func (m Message) Context() context.Context { return m.ctx }

const inboundCapacity = 64

// Peer is a bidirectional JSON-RPC connection with an identity and a bounded
// inbound queue. Backpressure works because jsonrpc2.Conn invokes handlers
// synchronously off its own read loop: a full inbound channel blocks the
// handler, which blocks the Conn's reader, which blocks the remote writer.
type Peer struct {
	Identity Identity

	conn    jsonrpc2.Conn
	logger  *zap.Logger
	inbound chan Message

	closeOnce sync.Once
}

// New builds a Peer over stream and starts its read/write loop under ctx.
// The inbound channel begins receiving messages immediately.
func New(ctx context.Context, identity Identity, stream jsonrpc2.Stream, logger *zap.Logger) *Peer {
	p := &Peer{
		Identity: identity,
		logger:   logger,
		inbound:  make(chan Message, inboundCapacity),
	}
	p.conn = jsonrpc2.NewConn(stream)
	p.conn.Go(ctx, p.handle)
	return p
}

func (p *Peer) handle(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	_, isNotify := req.(*jsonrpc2.Notification)
	msg := Message{
		Method: req.Method(),
		Params: req.Params(),
		Notify: isNotify,
		reply:  reply,
		ctx:    ctx,
	}

	select {
	case p.inbound <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Inbound returns the channel of calls/notifications the remote end sent
// that were not themselves replies to an outbound Call.
func (p *Peer) Inbound() <-chan Message { return p.inbound }

// Call issues an outbound request and decodes the result into out.
func (p *Peer) Call(ctx context.Context, method string, params, out interface{}) error {
	_, err := p.conn.Call(ctx, method, params, out)
	if err != nil {
		var rpcErr *jsonrpc2.Error
		if asJSONRPCError(err, &rpcErr) {
			return errs.Wrap(errs.RemoteError, fmt.Sprintf("%s from %s", method, p.Identity), &errs.RemoteErr{
				RPCCode: int(rpcErr.Code),
				RPCMsg:  rpcErr.Message,
			})
		}
		return errs.Wrap(transportErrorCode(err), fmt.Sprintf("%s to %s", method, p.Identity), err)
	}
	return nil
}

// transportErrorCode classifies a non-RPC Call failure — a closed or dead
// connection, a stream read error surfacing through it — onto the
// taxonomy internal/transport already uses for the same failures on the
// read side, rather than lumping every such failure under ProtocolViolation.
func transportErrorCode(err error) errs.Code {
	var classified *errs.Error
	if errors.As(transport.ClassifyReadError(err), &classified) {
		return classified.Code
	}
	return errs.ProtocolViolation
}

// Notify sends a fire-and-forget notification.
func (p *Peer) Notify(ctx context.Context, method string, params interface{}) error {
	if err := p.conn.Notify(ctx, method, params); err != nil {
		return errs.Wrap(errs.ProtocolViolation, fmt.Sprintf("notify %s to %s", method, p.Identity), err)
	}
	return nil
}

// Close shuts the underlying connection down. Safe to call more than once.
func (p *Peer) Close() error {
	var err error
	p.closeOnce.Do(func() {
		err = p.conn.Close()
	})
	return err
}

// Conn exposes the underlying jsonrpc2.Conn for callers that need a typed
// protocol.Client/protocol.Server dispatcher built directly over it.
func (p *Peer) Conn() jsonrpc2.Conn { return p.conn }

// Done reports when the underlying connection has terminated.
func (p *Peer) Done() <-chan struct{} { return p.conn.Done() }

// Err returns the reason the connection terminated, if any.
func (p *Peer) Err() error { return p.conn.Err() }

func asJSONRPCError(err error, target **jsonrpc2.Error) bool {
	rpcErr, ok := err.(*jsonrpc2.Error)
	if !ok {
		return false
	}
	*target = rpcErr
	return true
}
