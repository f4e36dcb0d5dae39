// Package session wires storage, config, and the per-document editing
// facades for a single-process instance. A Runtime owns the database and
// hands out Sessions; a Session owns recording, snapshotting and history
// navigation for exactly one open document.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	cfgpkg "github.com/scribe-editor/scribe/internal/config"
	"github.com/scribe-editor/scribe/internal/eventlog"
	"github.com/scribe-editor/scribe/internal/metrics"
	pebblestore "github.com/scribe-editor/scribe/internal/storage/pebble"
	"github.com/scribe-editor/scribe/pkg/log"
)

// ErrSessionOpen means the document already has a live session; writes are
// single-writer per document.
var ErrSessionOpen = errors.New("session: document already open")

// Options for building the Runtime.
type Options struct {
	DataDir  string
	Fsync    pebblestore.FsyncMode
	Config   cfgpkg.Config
	Logger   log.Logger
	Observer metrics.Observer
}

// Runtime owns the database and the open-session registry.
type Runtime struct {
	db     *pebblestore.DB
	store  *eventlog.Store
	config cfgpkg.Config
	logger log.Logger
	obs    metrics.Observer

	mu   sync.Mutex
	open map[string]*Session
}

// Open initializes the underlying storage and returns a Runtime.
func Open(opts Options) (*Runtime, error) {
	if opts.Logger == nil {
		opts.Logger = log.NewNopLogger()
	}
	db, err := pebblestore.Open(pebblestore.Options{DataDir: opts.DataDir, Fsync: opts.Fsync})
	if err != nil {
		return nil, fmt.Errorf("session: open storage: %w", err)
	}
	return &Runtime{
		db:     db,
		store:  eventlog.NewStore(db, opts.Logger),
		config: opts.Config,
		logger: opts.Logger,
		obs:    metrics.OrNop(opts.Observer),
		open:   make(map[string]*Session),
	}, nil
}

// Close closes underlying resources. Open sessions must be closed first.
func (r *Runtime) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// CheckHealth performs a simple storage probe.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("session: db not open")
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	return it.Close()
}

// Store exposes the event log store for diagnostics and export tooling.
func (r *Runtime) Store() *eventlog.Store { return r.store }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

func (r *Runtime) claim(docID string, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.open[docID]; ok {
		return ErrSessionOpen
	}
	r.open[docID] = s
	return nil
}

func (r *Runtime) release(docID string) {
	r.mu.Lock()
	delete(r.open, docID)
	r.mu.Unlock()
}
