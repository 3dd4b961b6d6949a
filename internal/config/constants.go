package config

import "time"

// Product limits. These are deliberately compile-time constants rather than
// config knobs: the client mirrors them for display, so changing one side
// without the other would lie to users.
const (
	// DailyGenerationLimit is the number of synthesis calls a user gets per
	// UTC calendar day.
	DailyGenerationLimit = 3

	// MaxSynthesisLength is the maximum text length per generation, in
	// characters.
	MaxSynthesisLength = 2000

	// MaxStoryLength bounds story content accepted by the editor.
	MaxStoryLength = 2000

	// ArtifactTTL is how long a cached synthesis artifact stays fresh.
	ArtifactTTL = 30 * time.Minute

	// AutosaveDebounce is the quiet period before an edit is persisted.
	AutosaveDebounce = 2 * time.Second

	// DefaultVoiceID is the narrator voice used when a request names none.
	DefaultVoiceID = "pqHfZKP75CvOlQylNhV4"

	// DefaultSpeed is the neutral playback/synthesis speed ratio.
	DefaultSpeed = 1.0

	// MinSpeed and MaxSpeed bound the accepted speed ratio.
	MinSpeed = 0.5
	MaxSpeed = 2.0
)
