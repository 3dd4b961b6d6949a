package narrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/voxstory/core/internal/narrator/autosave"
	"github.com/voxstory/core/internal/narrator/dispatch"
	"github.com/voxstory/core/internal/narrator/playback"
	"go.uber.org/zap"
)

type stubBackend struct {
	mu    sync.Mutex
	calls int
	err   error
	block chan struct{}
}

func (b *stubBackend) Synthesize(ctx context.Context, req dispatch.Request) ([]byte, string, error) {
	b.mu.Lock()
	b.calls++
	err := b.err
	b.mu.Unlock()
	if b.block != nil {
		<-b.block
	}
	if err != nil {
		return nil, "", err
	}
	return []byte("audio:" + req.Text), "audio/mpeg", nil
}

func (b *stubBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

type stubStore struct {
	mu      sync.Mutex
	creates int
	updates int
}

func (s *stubStore) Create(ctx context.Context, title, content string) (autosave.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	return autosave.Document{ID: "doc-1", Title: title, Content: content}, nil
}

func (s *stubStore) Update(ctx context.Context, id, title, content string) (autosave.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates++
	return autosave.Document{ID: id, Title: title, Content: content}, nil
}

type stubPlayer struct{ stopped, closed bool }

func (p *stubPlayer) Start() error  { return nil }
func (p *stubPlayer) Pause() error  { return nil }
func (p *stubPlayer) Resume() error { return nil }
func (p *stubPlayer) Stop() error   { p.stopped = true; return nil }
func (p *stubPlayer) Close() error  { p.closed = true; return nil }

func newTestSession(be *stubBackend, store *stubStore) (*Session, *[]*stubPlayer) {
	players := &[]*stubPlayer{}
	factory := func(a *dispatch.Artifact, onEnded func()) (playback.Player, error) {
		p := &stubPlayer{}
		*players = append(*players, p)
		return p, nil
	}
	s := NewSession(be, store, factory, zap.NewNop(), Options{
		Autosave: []autosave.Option{autosave.WithDebounce(20 * time.Millisecond)},
	})
	return s, players
}

func TestNarrateMakesArtifactReady(t *testing.T) {
	be := &stubBackend{}
	s, _ := newTestSession(be, &stubStore{})
	defer s.Close()

	if err := s.Narrate(context.Background(), dispatch.Request{Text: "hello"}); err != nil {
		t.Fatalf("narrate: %v", err)
	}
	if s.State() != playback.Ready {
		t.Fatalf("state %v, want ready", s.State())
	}
	if s.Artifact() == nil || s.Artifact().Bytes() == nil {
		t.Fatal("artifact not installed")
	}
}

func TestNarrateFailureReturnsToIdle(t *testing.T) {
	be := &stubBackend{err: &dispatch.QuotaExceededError{Reason: "daily limit reached", GenerationCount: 3}}
	s, _ := newTestSession(be, &stubStore{})
	defer s.Close()

	err := s.Narrate(context.Background(), dispatch.Request{Text: "denied"})
	var qe *dispatch.QuotaExceededError
	if !errors.As(err, &qe) {
		t.Fatalf("want QuotaExceededError, got %v", err)
	}
	if s.State() != playback.Idle {
		t.Fatalf("state %v, want idle", s.State())
	}
}

func TestRepeatNarrationHitsCache(t *testing.T) {
	be := &stubBackend{}
	s, _ := newTestSession(be, &stubStore{})
	defer s.Close()

	req := dispatch.Request{Text: "same text"}
	if err := s.Narrate(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	first := s.Artifact()
	if err := s.Narrate(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if be.callCount() != 1 {
		t.Fatalf("server called %d times, want 1", be.callCount())
	}
	if s.Artifact() != first {
		t.Fatal("cached narration must reuse the artifact handle")
	}
}

func TestRegenerateStopsPlayingAudio(t *testing.T) {
	be := &stubBackend{}
	s, players := newTestSession(be, &stubStore{})
	defer s.Close()

	if err := s.Narrate(context.Background(), dispatch.Request{Text: "take one"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Play(); err != nil {
		t.Fatal(err)
	}
	if s.State() != playback.Playing {
		t.Fatalf("state %v, want playing", s.State())
	}

	if err := s.Narrate(context.Background(), dispatch.Request{Text: "take two"}); err != nil {
		t.Fatal(err)
	}
	if len(*players) != 1 || !(*players)[0].stopped {
		t.Fatal("regeneration must stop the active audio unit")
	}
	if s.State() != playback.Ready {
		t.Fatalf("state %v, want ready after regeneration", s.State())
	}
}

func TestEditsAutosaveWhileNarrating(t *testing.T) {
	be := &stubBackend{}
	store := &stubStore{}
	s, _ := newTestSession(be, store)
	defer s.Close()

	s.Edit("My Tale", "draft one")
	if err := s.Narrate(context.Background(), dispatch.Request{Text: "draft one"}); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		store.mu.Lock()
		n := store.creates
		store.mu.Unlock()
		if n == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if s.Dirty() {
		t.Fatal("autosave did not land")
	}
	if s.DocumentID() != "doc-1" {
		t.Fatalf("document id %q, want doc-1", s.DocumentID())
	}
}

func TestCloseReleasesArtifacts(t *testing.T) {
	be := &stubBackend{}
	s, _ := newTestSession(be, &stubStore{})

	if err := s.Narrate(context.Background(), dispatch.Request{Text: "bye"}); err != nil {
		t.Fatal(err)
	}
	a := s.Artifact()
	s.Close()
	if !a.Released() {
		t.Fatal("close must release cached audio buffers")
	}
	if s.State() != playback.Idle {
		t.Fatalf("state %v after close, want idle", s.State())
	}
}
