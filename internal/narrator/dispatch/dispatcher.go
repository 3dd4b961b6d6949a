package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/voxstory/core/internal/config"
	"golang.org/x/sync/singleflight"
)

// Backend performs one synthesis call against the server. Implementations
// map transport failures onto the typed errors in this package.
type Backend interface {
	Synthesize(ctx context.Context, req Request) (data []byte, mimeType string, err error)
}

type cacheEntry struct {
	artifact *Artifact
}

// Dispatcher is the session-local generation cache and call gate. Cached
// artifacts are free; misses go through a single-flight group so concurrent
// requests for one fingerprint share one provider call.
type Dispatcher struct {
	backend Backend
	ttl     time.Duration
	now     func() time.Time

	flight singleflight.Group

	mu            sync.Mutex
	entries       map[string]*cacheEntry
	lastRequested string
	current       *Artifact
	invalidate    func(fingerprint string)
	closed        bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTTL overrides the artifact freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(d *Dispatcher) { d.ttl = ttl }
}

// WithClock injects a time source.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// WithPlaybackInvalidator registers the hook called when a generation for a
// fingerprint other than the one backing active playback begins: the old
// audio must stop before new audio can exist.
func WithPlaybackInvalidator(fn func(fingerprint string)) Option {
	return func(d *Dispatcher) { d.invalidate = fn }
}

func New(backend Backend, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		backend: backend,
		ttl:     config.ArtifactTTL,
		now:     time.Now,
		entries: make(map[string]*cacheEntry),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Generate resolves a request to an artifact handle, consulting the cache
// first. Duplicate concurrent calls for one fingerprint attach to the same
// in-flight operation and get the same artifact or the same error.
func (d *Dispatcher) Generate(ctx context.Context, req Request) (*Artifact, error) {
	req, err := normalize(req)
	if err != nil {
		return nil, err
	}
	fp := Fingerprint(req)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, errors.New("dispatcher is closed")
	}
	d.lastRequested = fp
	if d.current != nil && d.current.Fingerprint != fp && d.invalidate != nil {
		// Starting a different generation invalidates whatever is playing.
		d.invalidate(d.current.Fingerprint)
	}
	if a := d.freshLocked(fp); a != nil {
		d.current = a
		d.mu.Unlock()
		return a, nil
	}
	d.mu.Unlock()

	v, err, _ := d.flight.Do(fp, func() (interface{}, error) {
		// Recheck inside the flight: a duplicate that queued behind the
		// winner must not synthesize again.
		d.mu.Lock()
		if a := d.freshLocked(fp); a != nil {
			d.mu.Unlock()
			return a, nil
		}
		d.mu.Unlock()

		data, mimeType, err := d.synthesizeWithRetry(ctx, req)
		if err != nil {
			return nil, err
		}

		a := newArtifact(fp, mimeType, data, d.now())
		d.store(fp, a)
		return a, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Artifact), nil
}

// synthesizeWithRetry retries exactly once, and only for provider-side
// failures. Validation, auth, and quota outcomes are final.
func (d *Dispatcher) synthesizeWithRetry(ctx context.Context, req Request) ([]byte, string, error) {
	data, mimeType, err := d.backend.Synthesize(ctx, req)
	if err == nil {
		return data, mimeType, nil
	}
	var pe *ProviderError
	if !errors.As(err, &pe) || ctx.Err() != nil {
		return nil, "", err
	}
	return d.backend.Synthesize(ctx, req)
}

func (d *Dispatcher) store(fp string, a *Artifact) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		a.Release()
		return
	}
	if old, ok := d.entries[fp]; ok {
		old.artifact.Release()
	}
	d.entries[fp] = &cacheEntry{artifact: a}
	// Only the most recently requested fingerprint may become current; a
	// slower flight resolving late keeps its cache slot but not the floor.
	if d.lastRequested == fp {
		d.current = a
	}
}

// freshLocked returns the cached artifact when present and inside the TTL.
func (d *Dispatcher) freshLocked(fp string) *Artifact {
	e, ok := d.entries[fp]
	if !ok {
		return nil
	}
	if d.now().Sub(e.artifact.CreatedAt) >= d.ttl {
		return nil
	}
	return e.artifact
}

// Current returns the artifact backing playback, if any.
func (d *Dispatcher) Current() *Artifact {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// EvictStale releases and drops every entry past the TTL. It returns the
// number of evicted entries.
func (d *Dispatcher) EvictStale() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for fp, e := range d.entries {
		if d.now().Sub(e.artifact.CreatedAt) >= d.ttl {
			if d.current == e.artifact {
				d.current = nil
			}
			e.artifact.Release()
			delete(d.entries, fp)
			n++
		}
	}
	return n
}

// Close releases every cached artifact. Late flight completions after Close
// are released on arrival.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for fp, e := range d.entries {
		e.artifact.Release()
		delete(d.entries, fp)
	}
	d.current = nil
}
