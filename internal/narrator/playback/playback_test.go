package playback

import (
	"errors"
	"testing"

	"github.com/voxstory/core/internal/narrator/dispatch"
)

type fakePlayer struct {
	started  int
	paused   int
	resumed  int
	stopped  int
	closed   int
	startErr error
	onEnded  func()
}

func (p *fakePlayer) Start() error {
	if p.startErr != nil {
		return p.startErr
	}
	p.started++
	return nil
}
func (p *fakePlayer) Pause() error  { p.paused++; return nil }
func (p *fakePlayer) Resume() error { p.resumed++; return nil }
func (p *fakePlayer) Stop() error   { p.stopped++; return nil }
func (p *fakePlayer) Close() error  { p.closed++; return nil }

type fakeFactory struct {
	players      []*fakePlayer
	nextErr      error
	nextStartErr error
}

func (f *fakeFactory) build(a *dispatch.Artifact, onEnded func()) (Player, error) {
	if f.nextErr != nil {
		return nil, f.nextErr
	}
	p := &fakePlayer{startErr: f.nextStartErr, onEnded: onEnded}
	f.players = append(f.players, p)
	return p, nil
}

func (f *fakeFactory) last() *fakePlayer {
	if len(f.players) == 0 {
		return nil
	}
	return f.players[len(f.players)-1]
}

func readyController(t *testing.T, f *fakeFactory) (*Controller, *dispatch.Artifact) {
	t.Helper()
	c := NewController(f.build)
	token := c.BeginGeneration()
	a := &dispatch.Artifact{Fingerprint: "fp-1", MIMEType: "audio/mpeg"}
	if !c.Complete(token, a) {
		t.Fatal("complete rejected")
	}
	return c, a
}

func TestLifecycleIdleToPlaying(t *testing.T) {
	f := &fakeFactory{}
	c := NewController(f.build)
	if c.State() != Idle {
		t.Fatalf("initial state %v, want idle", c.State())
	}
	token := c.BeginGeneration()
	if c.State() != Generating {
		t.Fatalf("state %v after begin, want generating", c.State())
	}
	a := &dispatch.Artifact{Fingerprint: "fp-1"}
	if !c.Complete(token, a) {
		t.Fatal("complete rejected")
	}
	if c.State() != Ready {
		t.Fatalf("state %v after complete, want ready", c.State())
	}
	if err := c.Play(); err != nil {
		t.Fatalf("play: %v", err)
	}
	if c.State() != Playing {
		t.Fatalf("state %v after play, want playing", c.State())
	}
	if f.last().started != 1 {
		t.Fatal("player unit not started")
	}
}

func TestPauseAndResume(t *testing.T) {
	f := &fakeFactory{}
	c, _ := readyController(t, f)
	if err := c.Play(); err != nil {
		t.Fatal(err)
	}
	if err := c.Pause(); err != nil {
		t.Fatal(err)
	}
	if c.State() != Paused {
		t.Fatalf("state %v, want paused", c.State())
	}
	if err := c.Play(); err != nil {
		t.Fatal(err)
	}
	if c.State() != Playing {
		t.Fatalf("state %v, want playing", c.State())
	}
	p := f.last()
	if p.resumed != 1 || p.started != 1 {
		t.Fatalf("resume must reuse the same unit: started=%d resumed=%d", p.started, p.resumed)
	}
}

func TestStopResetsToReady(t *testing.T) {
	f := &fakeFactory{}
	c, a := readyController(t, f)
	if err := c.Play(); err != nil {
		t.Fatal(err)
	}
	c.Stop()
	if c.State() != Ready {
		t.Fatalf("state %v, want ready", c.State())
	}
	if f.last().stopped == 0 || f.last().closed == 0 {
		t.Fatal("stop must halt and release the unit")
	}
	if c.Artifact() != a {
		t.Fatal("stop must keep the artifact for replay")
	}
	// Replaying after stop builds a fresh unit from the start.
	if err := c.Play(); err != nil {
		t.Fatal(err)
	}
	if len(f.players) != 2 {
		t.Fatalf("want a new unit after stop, got %d units", len(f.players))
	}
}

func TestPlayIsNoopInIdleAndGenerating(t *testing.T) {
	f := &fakeFactory{}
	c := NewController(f.build)
	if err := c.Play(); err != nil {
		t.Fatalf("play in idle: %v", err)
	}
	c.BeginGeneration()
	if err := c.Play(); err != nil {
		t.Fatalf("play in generating: %v", err)
	}
	if len(f.players) != 0 {
		t.Fatal("no unit may be created before an artifact is ready")
	}
}

func TestGenerationFailureReturnsToIdle(t *testing.T) {
	c := NewController((&fakeFactory{}).build)
	token := c.BeginGeneration()
	if !c.Fail(token) {
		t.Fatal("fail rejected")
	}
	if c.State() != Idle {
		t.Fatalf("state %v, want idle", c.State())
	}
}

func TestStaleGenerationTokenIgnored(t *testing.T) {
	f := &fakeFactory{}
	c := NewController(f.build)
	stale := c.BeginGeneration()
	fresh := c.BeginGeneration()

	if c.Complete(stale, &dispatch.Artifact{Fingerprint: "old"}) {
		t.Fatal("stale completion must be dropped")
	}
	if c.State() != Generating {
		t.Fatalf("state %v, want generating", c.State())
	}
	if !c.Complete(fresh, &dispatch.Artifact{Fingerprint: "new"}) {
		t.Fatal("fresh completion rejected")
	}
	if c.Artifact().Fingerprint != "new" {
		t.Fatal("stale artifact resurrected")
	}
}

func TestRegenerateStopsActivePlayback(t *testing.T) {
	f := &fakeFactory{}
	c, _ := readyController(t, f)
	if err := c.Play(); err != nil {
		t.Fatal(err)
	}
	unit := f.last()

	token := c.BeginGeneration()
	if c.State() != Generating {
		t.Fatalf("state %v, want generating", c.State())
	}
	if unit.stopped == 0 || unit.closed == 0 {
		t.Fatal("regenerate must stop and release the active unit first")
	}
	if !c.Complete(token, &dispatch.Artifact{Fingerprint: "fp-2"}) {
		t.Fatal("complete rejected")
	}
	if c.Artifact().Fingerprint != "fp-2" {
		t.Fatal("fresh artifact not installed")
	}
}

func TestAsyncStartRejectionFallsBackToReady(t *testing.T) {
	f := &fakeFactory{nextStartErr: errors.New("NotAllowedError")}
	c, _ := readyController(t, f)
	err := c.Play()
	var pe *PlaybackError
	if !errors.As(err, &pe) {
		t.Fatalf("want PlaybackError, got %v", err)
	}
	if c.State() != Ready {
		t.Fatalf("state %v after start rejection, want ready", c.State())
	}
	if f.last().closed == 0 {
		t.Fatal("rejected unit must be released")
	}
}

func TestFactoryFailureKeepsReady(t *testing.T) {
	f := &fakeFactory{nextErr: errors.New("no audio device")}
	c, _ := readyController(t, f)
	err := c.Play()
	var pe *PlaybackError
	if !errors.As(err, &pe) {
		t.Fatalf("want PlaybackError, got %v", err)
	}
	if c.State() != Ready {
		t.Fatalf("state %v, want ready", c.State())
	}
}

func TestNaturalEndReturnsToReady(t *testing.T) {
	f := &fakeFactory{}
	c, _ := readyController(t, f)
	if err := c.Play(); err != nil {
		t.Fatal(err)
	}
	f.last().onEnded()
	if c.State() != Ready {
		t.Fatalf("state %v after audio end, want ready", c.State())
	}
}

func TestInvalidateStopsMatchingArtifact(t *testing.T) {
	f := &fakeFactory{}
	c, a := readyController(t, f)
	if err := c.Play(); err != nil {
		t.Fatal(err)
	}

	c.InvalidateArtifact("some-other-fp")
	if c.State() != Playing {
		t.Fatal("non-matching fingerprint must not interrupt playback")
	}
	c.InvalidateArtifact(a.Fingerprint)
	if c.State() != Idle {
		t.Fatalf("state %v after invalidation, want idle", c.State())
	}
	if f.last().stopped == 0 {
		t.Fatal("invalidation must stop the unit")
	}
}

func TestCloseIgnoresLateResults(t *testing.T) {
	f := &fakeFactory{}
	c := NewController(f.build)
	token := c.BeginGeneration()
	c.Close()

	if c.Complete(token, &dispatch.Artifact{Fingerprint: "late"}) {
		t.Fatal("completion after close must be dropped")
	}
	if c.State() != Idle {
		t.Fatalf("state %v after close, want idle", c.State())
	}
	if c.BeginGeneration() != 0 {
		t.Fatal("begin after close must be refused")
	}
}
