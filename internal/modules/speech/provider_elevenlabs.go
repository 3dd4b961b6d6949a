package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"
)

const (
	elevenLabsDefaultEndpoint = "https://api.elevenlabs.io"
	elevenLabsModel           = "eleven_turbo_v2"
	elevenLabsOutputFormat    = "mp3_44100_128"
)

// elevenLabsSynthesizer calls the ElevenLabs text-to-speech endpoint with
// fixed encoding parameters.
type elevenLabsSynthesizer struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

func newElevenLabsSynthesizer(apiKey, endpoint string) *elevenLabsSynthesizer {
	ep := strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if ep == "" {
		ep = elevenLabsDefaultEndpoint
	}
	return &elevenLabsSynthesizer{
		apiKey:   strings.TrimSpace(apiKey),
		endpoint: ep,
		client:   &http.Client{Timeout: 90 * time.Second},
	}
}

func (s *elevenLabsSynthesizer) Synthesize(ctx context.Context, text, voiceID string, speed float64) (*Audio, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"text":     text,
		"model_id": elevenLabsModel,
		"voice_settings": map[string]interface{}{
			"stability":        0.5,
			"similarity_boost": 0.5,
			"speed":            speed,
		},
	})

	url := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s",
		s.endpoint, neturl.PathEscape(voiceID), elevenLabsOutputFormat)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("elevenlabs error %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs read body: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("elevenlabs returned empty audio")
	}
	return &Audio{Data: data, MIMEType: AudioMIMEType}, nil
}
