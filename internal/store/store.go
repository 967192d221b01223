// Package store holds the per-URI document, diagnostic, code-lens, and
// code-action state plus the per-server capability table. A single
// sync.RWMutex protects everything; callers must copy out what they need
// and release the lock before any blocking I/O.
package store

import (
	"bufio"
	"os"
	"strings"
	"sync"

	"go.lsp.dev/protocol"

	"github.com/firi/lsp-broker/internal/errs"
)

// DocumentRecord is the cached state of one open document.
type DocumentRecord struct {
	URI        string
	LanguageID string
	Version    int32
	Lines      []string
}

// Store is the broker's shared document/capability cache.
type Store struct {
	mu sync.RWMutex

	documents map[string]*DocumentRecord
	diags     map[string][]protocol.Diagnostic
	lenses    map[string][]protocol.CodeLens
	actions   map[string][]protocol.CodeAction
	actionGen map[string]uint64

	capabilities map[string]*protocol.ServerCapabilities
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		documents:    make(map[string]*DocumentRecord),
		diags:        make(map[string][]protocol.Diagnostic),
		lenses:       make(map[string][]protocol.CodeLens),
		actions:      make(map[string][]protocol.CodeAction),
		actionGen:    make(map[string]uint64),
		capabilities: make(map[string]*protocol.ServerCapabilities),
	}
}

func splitLines(text string) []string {
	return strings.Split(text, "\n")
}

// Open inserts a new DocumentRecord at version 0, or is a no-op if the URI
// is already open — an already-open document keeps its existing version.
func (s *Store) Open(uri, languageID, text string) *DocumentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.documents[uri]; ok {
		return rec
	}
	rec := &DocumentRecord{
		URI:        uri,
		LanguageID: languageID,
		Version:    0,
		Lines:      splitLines(text),
	}
	s.documents[uri] = rec
	return rec
}

// Change applies a full-text replacement, incrementing the version.
func (s *Store) Change(uri, text string) (*DocumentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.documents[uri]
	if !ok {
		return nil, errs.New(errs.ProtocolViolation, "change on unopened document: "+uri)
	}
	rec.Version++
	rec.Lines = splitLines(text)
	return rec, nil
}

// Close removes the DocumentRecord and discards any pending lenses/actions
// for the URI.
func (s *Store) Close(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, uri)
	delete(s.diags, uri)
	delete(s.lenses, uri)
	delete(s.actions, uri)
	delete(s.actionGen, uri)
}

// Get returns a copy of the DocumentRecord's fields, safe to use after the
// lock is released.
func (s *Store) Get(uri string) (DocumentRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.documents[uri]
	if !ok {
		return DocumentRecord{}, false
	}
	return *rec, true
}

// GetLine returns the 1-based line from the cached document, falling back
// to reading the file straight off disk when the URI isn't open — mirrors
// the teacher's ReadFileLines helper in internal/lsp/client.go.
func (s *Store) GetLine(uri, path string, line int) (string, error) {
	s.mu.RLock()
	rec, ok := s.documents[uri]
	var cached []string
	if ok {
		cached = append([]string(nil), rec.Lines...)
	}
	s.mu.RUnlock()

	if ok {
		idx := line - 1
		if idx < 0 || idx >= len(cached) {
			return "", errs.New(errs.ProtocolViolation, "line out of range")
		}
		return cached[idx], nil
	}

	return readLineFromDisk(path, line)
}

func readLineFromDisk(path string, line int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errs.Wrap(errs.ProtocolViolation, "reading "+path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	n := 0
	for scanner.Scan() {
		n++
		if n == line {
			return scanner.Text(), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", errs.Wrap(errs.ProtocolViolation, "scanning "+path, err)
	}
	return "", errs.New(errs.ProtocolViolation, "line out of range")
}

// SetCapabilities records a server's capabilities once; subsequent calls
// for the same language_id are ignored.
func (s *Store) SetCapabilities(languageID string, caps *protocol.ServerCapabilities) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.capabilities[languageID]; ok {
		return
	}
	s.capabilities[languageID] = caps
}

// Capabilities returns the recorded capabilities for a language_id.
func (s *Store) Capabilities(languageID string) (*protocol.ServerCapabilities, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	caps, ok := s.capabilities[languageID]
	return caps, ok
}

// SetDiagnostics atomically replaces the diagnostics for uri.
func (s *Store) SetDiagnostics(uri string, diags []protocol.Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diags[uri] = diags
}

// Diagnostics returns the cached diagnostics for uri.
func (s *Store) Diagnostics(uri string) []protocol.Diagnostic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.diags[uri]
}

// SetCodeLenses atomically replaces the code lenses for uri.
func (s *Store) SetCodeLenses(uri string, lenses []protocol.CodeLens) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lenses[uri] = lenses
}

// CodeLenses returns the cached code lenses for uri.
func (s *Store) CodeLenses(uri string) []protocol.CodeLens {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lenses[uri]
}

// BeginCodeActionRequest allocates the next generation for a code-action
// request against uri, returning a token the caller must pass back to
// SetCodeActions so a superseded response can be detected and discarded.
func (s *Store) BeginCodeActionRequest(uri string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actionGen[uri]++
	return s.actionGen[uri]
}

// SetCodeActions atomically replaces the code actions for uri, unless gen
// is stale relative to a later BeginCodeActionRequest call — in which case
// the response is dropped — a later request already superseded it.
func (s *Store) SetCodeActions(uri string, gen uint64, actions []protocol.CodeAction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.actionGen[uri] != gen {
		return false
	}
	s.actions[uri] = actions
	return true
}

// CodeActions returns the cached code actions for uri.
func (s *Store) CodeActions(uri string) []protocol.CodeAction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.actions[uri]
}
