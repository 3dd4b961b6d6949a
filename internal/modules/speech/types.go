package speech

import (
	"context"
	"errors"
)

// AudioMIMEType is the fixed content type of synthesized artifacts.
const AudioMIMEType = "audio/mpeg"

// Audio is a synthesized narration artifact.
type Audio struct {
	Data     []byte
	MIMEType string
}

// Synthesizer converts text to audio through an external provider.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string, speed float64) (*Audio, error)
}

// SayDTO is the synthesis request body.
type SayDTO struct {
	Text    string  `json:"text"`
	VoiceID string  `json:"voice_id"`
	Speed   float64 `json:"speed"`
}

// Voice describes a narrator voice offered to users.
type Voice struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PreviewText string `json:"-"`
	PreviewURL  string `json:"preview_url,omitempty"`
}

// Voices is the fixed narrator catalog.
var Voices = []Voice{
	{
		ID:          "pqHfZKP75CvOlQylNhV4",
		Name:        "Bill",
		Description: "Friendly and comforting voice ready to narrate your stories.",
		PreviewText: "Once upon a time, in a land far away, there lived a wise old storyteller.",
	},
	{
		ID:          "21m00Tcm4TlvDq8ikWAM",
		Name:        "Rachel",
		Description: "Matter-of-fact, personable woman. Great for conversational use cases.",
		PreviewText: "She opened the ancient book, and the words seemed to dance off the pages.",
	},
	{
		ID:          "N2lVS1w4EtoT3dr4eOWO",
		Name:        "Callum",
		Description: "Deceptively gravelly, yet unsettling edge.",
		PreviewText: "The shadows whispered secrets that only the brave dared to uncover.",
	},
}

var (
	errEmptyText       = errors.New("text is required")
	errSpeedOutOfRange = errors.New("speed must be between 0.5 and 2.0")
)
