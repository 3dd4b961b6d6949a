// Package narrator composes the generation dispatcher, the playback
// controller, and the autosave coordinator into one editor session.
package narrator

import (
	"context"

	"github.com/voxstory/core/internal/narrator/autosave"
	"github.com/voxstory/core/internal/narrator/dispatch"
	"github.com/voxstory/core/internal/narrator/playback"
	"go.uber.org/zap"
)

// Session is the per-user editing and narration session. All state it owns
// is session-local; only the server's quota ledger is shared across
// sessions.
type Session struct {
	dispatcher *dispatch.Dispatcher
	playback   *playback.Controller
	autosave   *autosave.Coordinator
	log        *zap.Logger
}

// Options carries the session's tunables through to its components.
type Options struct {
	Dispatch []dispatch.Option
	Autosave []autosave.Option
}

// NewSession wires the components together: a new generation for a
// different fingerprint stops whatever is playing.
func NewSession(backend dispatch.Backend, store autosave.Store, factory playback.PlayerFactory, log *zap.Logger, opts Options) *Session {
	s := &Session{
		playback: playback.NewController(factory),
		autosave: autosave.NewCoordinator(store, log, opts.Autosave...),
		log:      log,
	}
	dopts := append([]dispatch.Option{
		dispatch.WithPlaybackInvalidator(s.playback.InvalidateArtifact),
	}, opts.Dispatch...)
	s.dispatcher = dispatch.New(backend, dopts...)
	return s
}

// Narrate resolves a request to a ready artifact, moving playback through
// Generating. A cached fingerprint resolves without touching the server.
// Failures return playback to Idle; a result arriving after a newer
// Narrate call is dropped, never resurrected.
func (s *Session) Narrate(ctx context.Context, req dispatch.Request) error {
	token := s.playback.BeginGeneration()
	a, err := s.dispatcher.Generate(ctx, req)
	if err != nil {
		s.playback.Fail(token)
		return err
	}
	if !s.playback.Complete(token, a) {
		s.log.Debug("discarding superseded generation",
			zap.String("fingerprint", a.Fingerprint))
	}
	return nil
}

// Play starts or resumes playback of the current artifact.
func (s *Session) Play() error { return s.playback.Play() }

// Pause pauses active playback.
func (s *Session) Pause() error { return s.playback.Pause() }

// Stop halts playback and resets the position.
func (s *Session) Stop() { s.playback.Stop() }

// State reports the playback state machine's current state.
func (s *Session) State() playback.State { return s.playback.State() }

// Artifact returns the handle backing playback, nil when none is ready.
func (s *Session) Artifact() *dispatch.Artifact { return s.playback.Artifact() }

// Edit records a document change and schedules a debounced save.
func (s *Session) Edit(title, content string) { s.autosave.Edit(title, content) }

// Save persists the document immediately, bypassing the debounce window.
func (s *Session) Save(ctx context.Context) error { return s.autosave.Flush(ctx) }

// Dirty reports whether unsaved edits exist.
func (s *Session) Dirty() bool { return s.autosave.Dirty() }

// DocumentID returns the persisted document's id, empty before the first
// save.
func (s *Session) DocumentID() string { return s.autosave.DocumentID() }

// EvictStale drops expired cache entries and frees their buffers.
func (s *Session) EvictStale() int { return s.dispatcher.EvictStale() }

// Close tears the session down: pending saves are cancelled, playback
// stops, and every cached artifact is released. Results of still-running
// network calls are discarded when they arrive.
func (s *Session) Close() {
	s.autosave.Close()
	s.playback.Close()
	s.dispatcher.Close()
}
