// Package autosave debounces document persistence for one editor session.
// Edits rearm a trailing timer; a quiet window triggers one persist of the
// latest (title, content) snapshot.
package autosave

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/voxstory/core/internal/config"
	"go.uber.org/zap"
)

// Document is the persisted shape the store hands back. ID is empty until
// the first successful create.
type Document struct {
	ID      string
	Title   string
	Content string
}

// Store persists documents. Implementations scope every call to the
// session's user.
type Store interface {
	Create(ctx context.Context, title, content string) (Document, error)
	Update(ctx context.Context, id, title, content string) (Document, error)
}

// PersistenceError reports a failed create or update. Non-fatal: the dirty
// flag stays set and the save is retried on the next tick.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("autosave %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Coordinator owns the dirty flag, the debounce timer, and the session's
// document id binding. One persist runs at a time; the create that binds
// the id can happen at most once per session.
type Coordinator struct {
	store    Store
	log      *zap.Logger
	debounce time.Duration

	mu           sync.Mutex
	title        string
	content      string
	savedTitle   string
	savedContent string
	dirty        bool
	docID        string
	timer        *time.Timer
	inflight     chan struct{}
	closed       bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithDebounce overrides the quiet window.
func WithDebounce(d time.Duration) Option {
	return func(c *Coordinator) { c.debounce = d }
}

// WithDocumentID resumes a session over an existing document, so every
// persist is an update from the start.
func WithDocumentID(id string) Option {
	return func(c *Coordinator) { c.docID = id }
}

func NewCoordinator(store Store, log *zap.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:    store,
		log:      log,
		debounce: config.AutosaveDebounce,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Edit records the live (title, content) and rearms the debounce timer.
// Each call pushes the pending save further out (trailing debounce).
func (c *Coordinator) Edit(title, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.title = title
	c.content = content
	c.dirty = title != c.savedTitle || content != c.savedContent
	if !c.dirty {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, c.tick)
}

// Dirty reports whether the live document differs from the last persisted
// snapshot.
func (c *Coordinator) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

// DocumentID returns the bound document id, empty before the first
// successful create.
func (c *Coordinator) DocumentID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.docID
}

func (c *Coordinator) tick() {
	if err := c.save(context.Background(), false); err != nil {
		c.log.Warn("autosave failed, will retry", zap.Error(err))
	}
}

// Flush persists immediately, bypassing the timer. It waits for an
// in-flight save to finish first so a manual save never races an autosave
// into a second create.
func (c *Coordinator) Flush(ctx context.Context) error {
	return c.save(ctx, true)
}

func (c *Coordinator) save(ctx context.Context, wait bool) error {
	for {
		c.mu.Lock()
		if c.closed || !c.dirty || (c.title == "" && c.content == "") {
			c.mu.Unlock()
			return nil
		}
		if c.inflight == nil {
			break
		}
		ch := c.inflight
		c.mu.Unlock()
		if !wait {
			// The running save reschedules if the document is still
			// dirty when it completes.
			return nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	title, content, docID := c.title, c.content, c.docID
	done := make(chan struct{})
	c.inflight = done
	c.mu.Unlock()

	var doc Document
	var err error
	var op string
	if docID == "" {
		op = "create"
		doc, err = c.store.Create(ctx, title, content)
	} else {
		op = "update"
		doc, err = c.store.Update(ctx, docID, title, content)
	}

	c.mu.Lock()
	c.inflight = nil
	close(done)
	if err != nil {
		// Dirty stays set; the next tick or Flush retries.
		if !c.closed {
			if c.timer != nil {
				c.timer.Stop()
			}
			c.timer = time.AfterFunc(c.debounce, c.tick)
		}
		c.mu.Unlock()
		return &PersistenceError{Op: op, Err: err}
	}
	if c.docID == "" {
		c.docID = doc.ID
	}
	c.savedTitle = title
	c.savedContent = content
	// The user may have kept typing during the round trip.
	c.dirty = c.title != title || c.content != content
	if c.dirty && !c.closed {
		if c.timer != nil {
			c.timer.Stop()
		}
		c.timer = time.AfterFunc(c.debounce, c.tick)
	}
	c.mu.Unlock()
	return nil
}

// Close cancels the pending timer. An in-flight persist is not interrupted;
// its result is applied but no further saves are scheduled.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
