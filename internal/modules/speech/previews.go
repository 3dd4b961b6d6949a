package speech

import (
	"context"
	"fmt"
	"strings"

	"github.com/voxstory/core/internal/config"
	"go.uber.org/zap"
)

// PreviewResult reports one voice's preview generation outcome.
type PreviewResult struct {
	VoiceID string `json:"voice_id"`
	Name    string `json:"name"`
	Key     string `json:"key"`
	Skipped bool   `json:"skipped"`
	URL     string `json:"url"`
}

// GeneratePreviews synthesizes a short sample for every catalog voice and
// stores it in the blob store. Existing previews are skipped, so the call is
// cheap to repeat. Preview synthesis bypasses the usage ledger: previews are
// an operator action, not user consumption.
func (s *Service) GeneratePreviews(ctx context.Context) ([]PreviewResult, error) {
	if s.blobs == nil {
		return nil, fmt.Errorf("previews are not configured")
	}

	results := make([]PreviewResult, 0, len(Voices))
	for _, v := range Voices {
		key := previewKey(v)
		res := PreviewResult{VoiceID: v.ID, Name: v.Name, Key: key, URL: s.blobs.URL(key)}

		exists, err := s.blobs.Exists(ctx, key)
		if err != nil {
			return results, err
		}
		if exists {
			res.Skipped = true
			results = append(results, res)
			continue
		}

		audio, err := s.synth.Synthesize(ctx, v.PreviewText, v.ID, config.DefaultSpeed)
		if err != nil {
			return results, fmt.Errorf("preview %s: %w", v.Name, err)
		}
		if err := s.blobs.Put(ctx, key, audio.Data, audio.MIMEType); err != nil {
			return results, err
		}

		s.log.Info("voice preview generated",
			zap.String("voice", v.Name),
			zap.Int("bytes", len(audio.Data)),
		)
		results = append(results, res)
	}
	return results, nil
}

// VoiceCatalog returns the voices with preview URLs filled in when a blob
// store is configured.
func (s *Service) VoiceCatalog() []Voice {
	out := make([]Voice, len(Voices))
	copy(out, Voices)
	if s.blobs == nil {
		return out
	}
	for i := range out {
		out[i].PreviewURL = s.blobs.URL(previewKey(out[i]))
	}
	return out
}

func previewKey(v Voice) string {
	return "previews/" + strings.ToLower(v.Name) + ".mp3"
}
