package dispatch

import (
	"sync/atomic"
	"time"
)

// Artifact is an opaque handle to synthesized audio. The bytes stay valid
// until Release; callers must not retain the slice past that.
type Artifact struct {
	Fingerprint string
	MIMEType    string
	CreatedAt   time.Time

	data     []byte
	released atomic.Bool
}

func newArtifact(fingerprint, mimeType string, data []byte, at time.Time) *Artifact {
	return &Artifact{Fingerprint: fingerprint, MIMEType: mimeType, CreatedAt: at, data: data}
}

// Bytes returns the audio payload, or nil after Release.
func (a *Artifact) Bytes() []byte {
	if a.released.Load() {
		return nil
	}
	return a.data
}

// Released reports whether the handle's backing buffer has been freed.
func (a *Artifact) Released() bool { return a.released.Load() }

// Release frees the backing buffer. Safe to call more than once.
func (a *Artifact) Release() {
	if a.released.CompareAndSwap(false, true) {
		a.data = nil
	}
}
