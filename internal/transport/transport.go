// Package transport builds go.lsp.dev/jsonrpc2 streams over stdio and piped
// child processes, and maps the errors that package returns onto the
// broker's own taxonomy (internal/errs). The Content-Length framing and the
// read/write loop are not reimplemented here — go.lsp.dev/jsonrpc2 already
// supplies them, the way tinovyatkin/tally and dphaener/conduit both use it
// to speak this same wire format.
package transport

import (
	"errors"
	"io"
	"net"
	"os"
	"os/exec"

	"go.lsp.dev/jsonrpc2"

	"github.com/firi/lsp-broker/internal/errs"
)

// maxFrameBytes records the Content-Length cap the teacher's hand-rolled
// transport enforced before being replaced by go.lsp.dev/jsonrpc2's own
// stream. Nothing in this package enforces it: the streams built here accept
// frames of any length, and no frame is rejected as too large.
const maxFrameBytes = 10 * 1024 * 1024

// stdioRWC adapts os.Stdin/os.Stdout to io.ReadWriteCloser for the Editor
// peer. Close is a no-op: the broker process exiting closes the real fds.
type stdioRWC struct{}

func (stdioRWC) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioRWC) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdioRWC) Close() error                { return nil }

// NewStdioStream returns the jsonrpc2.Stream the broker uses to talk to the
// Editor over its own stdin/stdout.
func NewStdioStream() jsonrpc2.Stream {
	return jsonrpc2.NewStream(stdioRWC{})
}

// processRWC pipes a spawned LSP server's stdin/stdout through an
// io.ReadWriteCloser. Its stderr is wired to a sink separately, by
// NewProcessStream.
type processRWC struct {
	stdin  io.WriteCloser
	stdout io.ReadCloser
}

func (p processRWC) Read(b []byte) (int, error)  { return p.stdout.Read(b) }
func (p processRWC) Write(b []byte) (int, error) { return p.stdin.Write(b) }
func (p processRWC) Close() error {
	werr := p.stdin.Close()
	rerr := p.stdout.Close()
	if werr != nil {
		return werr
	}
	return rerr
}

// NewProcessStream spawns command with args, wiring its stdin/stdout into a
// jsonrpc2.Stream and its stderr into stderrSink (typically a zap line
// writer). It returns the stream and the *exec.Cmd so the caller
// (internal/supervisor) can Wait on it and kill it on shutdown.
func NewProcessStream(command string, args []string, stderrSink io.Writer) (jsonrpc2.Stream, *exec.Cmd, error) {
	cmd := exec.Command(command, args...)
	cmd.Stderr = stderrSink

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, errs.Wrap(errs.SpawnFailed, "stdin pipe", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, errs.Wrap(errs.SpawnFailed, "stdout pipe", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, errs.Wrap(errs.SpawnFailed, "starting "+command, err)
	}

	stream := jsonrpc2.NewStream(processRWC{stdin: stdin, stdout: stdout})
	return stream, cmd, nil
}

// ClassifyReadError maps an error surfaced from a jsonrpc2.Stream read (or
// from conn.Err() after the connection closes) onto the broker's taxonomy.
func ClassifyReadError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return errs.Wrap(errs.UnexpectedEOF, "stream closed mid-frame", err)
	}
	if errors.Is(err, os.ErrClosed) || errors.Is(err, jsonrpc2.ErrClosed) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return errs.Wrap(errs.TransportClosed, "stream closed", err)
	}
	return errs.Wrap(errs.BadFrame, "frame read failed", err)
}
