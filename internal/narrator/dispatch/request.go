package dispatch

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/voxstory/core/internal/config"
)

// Request is one narration request. Two requests with the same trimmed text,
// voice, and speed are the same generation for caching purposes.
type Request struct {
	Text    string
	VoiceID string
	Speed   float64
}

// normalize trims the text and fills defaults; it returns a ValidationError
// for input that must never reach the network.
func normalize(r Request) (Request, error) {
	r.Text = strings.TrimSpace(r.Text)
	if r.Text == "" {
		return r, &ValidationError{Msg: "text is required"}
	}
	if n := len([]rune(r.Text)); n > config.MaxSynthesisLength {
		return r, &ValidationError{Msg: "text too long"}
	}
	if r.VoiceID == "" {
		r.VoiceID = config.DefaultVoiceID
	}
	if r.Speed == 0 {
		r.Speed = config.DefaultSpeed
	}
	if r.Speed < config.MinSpeed || r.Speed > config.MaxSpeed {
		return r, &ValidationError{Msg: "speed out of range"}
	}
	return r, nil
}

// Fingerprint returns the deterministic cache key for a normalized request.
func Fingerprint(r Request) string {
	h := sha256.New()
	h.Write([]byte(r.Text))
	h.Write([]byte{0})
	h.Write([]byte(r.VoiceID))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatFloat(r.Speed, 'g', -1, 64)))
	return hex.EncodeToString(h.Sum(nil))
}
