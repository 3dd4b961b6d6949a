package speech

import (
	"errors"
	"fmt"
	"strings"

	"github.com/voxstory/core/internal/config"
)

// NewSynthesizer builds the configured provider client.
func NewSynthesizer(cfg config.SpeechConfig) (Synthesizer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("speech provider api key is empty")
	}

	switch normalizeProviderType(cfg.Provider) {
	case "elevenlabs", "":
		return newElevenLabsSynthesizer(cfg.APIKey, cfg.Endpoint), nil
	case "openai":
		return newOpenAISynthesizer(cfg.APIKey, cfg.Endpoint), nil
	default:
		return nil, fmt.Errorf("unknown speech provider %q", cfg.Provider)
	}
}

func normalizeProviderType(raw string) string {
	t := strings.ToLower(strings.TrimSpace(raw))
	t = strings.ReplaceAll(t, "_", "-")
	t = strings.ReplaceAll(t, " ", "")
	return t
}
