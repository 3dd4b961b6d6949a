// Package playback drives the audio state machine for one narration
// session: {Idle, Generating, Ready, Playing, Paused}. It owns the single
// active player unit; at most one plays at a time.
package playback

import (
	"fmt"
	"sync"

	"github.com/voxstory/core/internal/narrator/dispatch"
)

type State int

const (
	Idle State = iota
	Generating
	Ready
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Generating:
		return "generating"
	case Ready:
		return "ready"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// PlaybackError reports an audio unit that failed to start or continue.
// The controller falls back to Ready, never to a limbo state.
type PlaybackError struct {
	Msg string
	Err error
}

func (e *PlaybackError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("playback: %s: %v", e.Msg, e.Err)
	}
	return "playback: " + e.Msg
}

func (e *PlaybackError) Unwrap() error { return e.Err }

// Player is one playback unit over a single artifact. Start may fail
// asynchronously (platform restrictions); the unit reports completion
// through the onEnded callback handed to the factory.
type Player interface {
	Start() error
	Pause() error
	Resume() error
	// Stop halts the unit and resets its position. Safe to call in any
	// unit state, including repeatedly.
	Stop() error
	Close() error
}

// PlayerFactory builds a unit for an artifact. onEnded fires once when the
// audio reaches its natural end.
type PlayerFactory func(a *dispatch.Artifact, onEnded func()) (Player, error)

// Controller serializes all transitions under one mutex. A generation token
// guards against stale async completions: every BeginGeneration invalidates
// outcomes of earlier ones.
type Controller struct {
	mu       sync.Mutex
	state    State
	artifact *dispatch.Artifact
	player   Player
	factory  PlayerFactory
	genSeq   uint64
	closed   bool
}

func NewController(factory PlayerFactory) *Controller {
	return &Controller{state: Idle, factory: factory}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Artifact returns the handle backing the current Ready/Playing/Paused
// state, or nil.
func (c *Controller) Artifact() *dispatch.Artifact {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.artifact
}

// BeginGeneration moves to Generating from any state, stopping and tearing
// down active playback first. The returned token must be presented to
// Complete or Fail; a token from a superseded generation is ignored there.
func (c *Controller) BeginGeneration() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0
	}
	c.teardownLocked()
	c.artifact = nil
	c.state = Generating
	c.genSeq++
	return c.genSeq
}

// Complete installs the resolved artifact and moves Generating -> Ready.
// A stale token (an earlier generation resolving after a later Begin) is
// dropped without touching state.
func (c *Controller) Complete(token uint64, a *dispatch.Artifact) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || token != c.genSeq || c.state != Generating {
		return false
	}
	c.artifact = a
	c.state = Ready
	return true
}

// Fail moves Generating -> Idle. Stale tokens are dropped.
func (c *Controller) Fail(token uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || token != c.genSeq || c.state != Generating {
		return false
	}
	c.artifact = nil
	c.state = Idle
	return true
}

// Play starts or resumes audio. In Idle or Generating it is a no-op, not
// an error. From Ready it builds a fresh unit; from Paused it resumes at
// the paused position.
func (c *Controller) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return &PlaybackError{Msg: "controller is closed"}
	}
	switch c.state {
	case Idle, Generating, Playing:
		return nil
	case Paused:
		if err := c.player.Resume(); err != nil {
			c.resetToReadyLocked()
			return &PlaybackError{Msg: "resume failed", Err: err}
		}
		c.state = Playing
		return nil
	}

	// Ready: only one unit may exist per session.
	c.teardownLocked()
	p, err := c.factory(c.artifact, c.onEnded)
	if err != nil {
		return &PlaybackError{Msg: "player creation failed", Err: err}
	}
	if err := p.Start(); err != nil {
		p.Close()
		return &PlaybackError{Msg: "audio failed to start", Err: err}
	}
	c.player = p
	c.state = Playing
	return nil
}

// Pause moves Playing -> Paused; elsewhere it is a no-op.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Playing {
		return nil
	}
	if err := c.player.Pause(); err != nil {
		c.resetToReadyLocked()
		return &PlaybackError{Msg: "pause failed", Err: err}
	}
	c.state = Paused
	return nil
}

// Stop halts playback and resets to Ready (position back to start). In
// Idle, Generating or Ready it is a no-op.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Playing && c.state != Paused {
		return
	}
	c.resetToReadyLocked()
}

// InvalidateArtifact stops playback when the artifact with the given
// fingerprint currently backs it. Wired as the dispatcher's playback
// invalidation hook.
func (c *Controller) InvalidateArtifact(fingerprint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.artifact == nil || c.artifact.Fingerprint != fingerprint {
		return
	}
	c.teardownLocked()
	c.artifact = nil
	if c.state != Generating {
		c.state = Idle
	}
}

// Close tears the session down: playback stops, the unit is released, and
// late generation results are ignored from here on.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.teardownLocked()
	c.artifact = nil
	c.state = Idle
	c.closed = true
}

// onEnded is invoked by the unit when audio finishes naturally.
func (c *Controller) onEnded() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Playing {
		return
	}
	c.resetToReadyLocked()
}

func (c *Controller) resetToReadyLocked() {
	c.teardownLocked()
	c.state = Ready
}

func (c *Controller) teardownLocked() {
	if c.player == nil {
		return
	}
	c.player.Stop()
	c.player.Close()
	c.player = nil
}
