// Package analysis owns the workspace state: open documents, the symbol
// store, and the scanning and query handlers built on top of them.
package analysis

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"amblels/internal/config"
	"amblels/internal/symbol"
	"amblels/internal/syntax"
	"amblels/internal/text"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"go.lsp.dev/uri"
)

var log = commonlog.GetLogger("amblels.analysis")

// Document is one tracked file: its current text and the tree derived
// from it. Both are replaced wholesale on every change.
type Document struct {
	URI  string
	Doc  *text.Document
	Tree *syntax.Tree
	Open bool
}

// playerStart records one player_start site for workspace diagnostics.
type playerStart struct {
	roomID string
	rng    protocol.Range
	uri    string
}

// Workspace is the explicitly owned shared state behind every handler.
// All mutation is file-scoped; the symbol store guards its own atomic
// per-file replacement, and the document map has its own lock, so scans
// of distinct files never block each other's lookups.
type Workspace struct {
	cfg   config.Config
	store *symbol.Store

	mu          sync.RWMutex
	documents   map[string]*Document
	playerStart map[string][]playerStart
	scannedDirs map[string]struct{}
}

func NewWorkspace(cfg config.Config) *Workspace {
	return &Workspace{
		cfg:         cfg,
		store:       NewStore(),
		documents:   make(map[string]*Document),
		playerStart: make(map[string][]playerStart),
		scannedDirs: make(map[string]struct{}),
	}
}

// NewStore builds the symbol store a workspace uses; split out so tests
// can seed one directly.
func NewStore() *symbol.Store { return symbol.NewStore() }

// Store exposes the symbol index for handlers and tests.
func (w *Workspace) Store() *symbol.Store { return w.store }

// Config returns the active configuration.
func (w *Workspace) Config() config.Config { return w.cfg }

// SetConfig replaces the configuration (used once, after initialize).
func (w *Workspace) SetConfig(cfg config.Config) { w.cfg = cfg }

func (w *Workspace) document(uriStr string) (*Document, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	doc, ok := w.documents[uriStr]
	return doc, ok
}

// Document returns the tracked document for a URI, if any.
func (w *Workspace) Document(uriStr string) (*Document, bool) {
	return w.document(uriStr)
}

func (w *Workspace) setDocument(doc *Document) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if prev, ok := w.documents[doc.URI]; ok && prev.Open {
		doc.Open = true
	}
	w.documents[doc.URI] = doc
}

// DidOpen tracks the document, scans it, and scans its directory the
// first time that directory is seen.
func (w *Workspace) DidOpen(uriStr string, content string) {
	w.scanFile(uriStr, content, true)
	if dir, err := directoryOf(uriStr); err == nil {
		w.mu.RLock()
		_, seen := w.scannedDirs[dir]
		w.mu.RUnlock()
		if !seen {
			w.ScanDirectory(dir)
		}
	} else {
		log.Warningf("cannot resolve directory for %s: %s", uriStr, err)
	}
}

// DidChange replaces the document text and re-scans that file only.
// Sibling files keep their previous view of this file's symbols until a
// save or open event; cross-file visibility is eventual by design.
func (w *Workspace) DidChange(uriStr string, content string) {
	w.scanFile(uriStr, content, false)
}

// DidSave re-scans the whole directory so siblings pick up this file's
// current on-disk symbols.
func (w *Workspace) DidSave(uriStr string) {
	dir, err := directoryOf(uriStr)
	if err != nil {
		log.Warningf("cannot resolve directory for %s: %s", uriStr, err)
		return
	}
	w.ScanDirectory(dir)
}

// DidClose discards the editor buffer. Index entries survive: closing is
// not deletion.
func (w *Workspace) DidClose(uriStr string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if doc, ok := w.documents[uriStr]; ok {
		doc.Open = false
	}
}

// OpenDocuments lists URIs with a live editor buffer, for republishing
// diagnostics after directory scans.
func (w *Workspace) OpenDocuments() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var out []string
	for u, doc := range w.documents {
		if doc.Open {
			out = append(out, u)
		}
	}
	return out
}

// Documents lists every tracked URI in sorted order, open or not.
func (w *Workspace) Documents() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, 0, len(w.documents))
	for u := range w.documents {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

func directoryOf(uriStr string) (string, error) {
	path, err := uriToPath(uriStr)
	if err != nil {
		return "", err
	}
	return parentDir(path), nil
}

func uriToPath(uriStr string) (string, error) {
	if !strings.HasPrefix(uriStr, "file://") {
		return "", fmt.Errorf("not a file URI: %s", uriStr)
	}
	parsed, err := uri.Parse(uriStr)
	if err != nil {
		return "", fmt.Errorf("parse uri %s: %w", uriStr, err)
	}
	return parsed.Filename(), nil
}

func pathToURI(path string) string {
	return string(uri.File(path))
}
