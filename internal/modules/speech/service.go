package speech

import (
	"context"
	"strings"

	"github.com/voxstory/core/internal/config"
	"github.com/voxstory/core/internal/modules/usage"
	"go.uber.org/zap"
)

// Ledger gates synthesis on the per-user daily quota and records completed
// generations. Implemented by usage.Service.
type Ledger interface {
	CheckAndCount(ctx context.Context, userID string, textLength int) (usage.Decision, error)
	Increment(ctx context.Context, userID string, chars int) error
}

// Service orchestrates one synthesis request: quota gate, provider call,
// usage accounting.
type Service struct {
	synth  Synthesizer
	ledger Ledger
	blobs  BlobStore
	log    *zap.Logger
}

func NewService(synth Synthesizer, ledger Ledger, blobs BlobStore, log *zap.Logger) *Service {
	return &Service{synth: synth, ledger: ledger, blobs: blobs, log: log}
}

// Say synthesizes dto for userID. A non-nil denied decision means the quota
// gate refused the request; audio and denied are mutually exclusive.
func (s *Service) Say(ctx context.Context, userID string, dto SayDTO) (*Audio, *usage.Decision, error) {
	text := strings.TrimSpace(dto.Text)
	if text == "" {
		return nil, nil, errEmptyText
	}

	voiceID := dto.VoiceID
	if voiceID == "" {
		voiceID = config.DefaultVoiceID
	}
	speed := dto.Speed
	if speed == 0 {
		speed = config.DefaultSpeed
	}
	if speed < config.MinSpeed || speed > config.MaxSpeed {
		return nil, nil, errSpeedOutOfRange
	}

	textLen := len([]rune(text))
	decision, err := s.ledger.CheckAndCount(ctx, userID, textLen)
	if err != nil {
		// Fail closed: the decision is already a denial, log the cause.
		s.log.Error("usage check failed", zap.String("user", userID), zap.Error(err))
	}
	if !decision.Allowed {
		return nil, &decision, nil
	}

	audio, err := s.synth.Synthesize(ctx, text, voiceID, speed)
	if err != nil {
		return nil, nil, err
	}

	// Count completed generations, not attempts. If the increment fails the
	// artifact is still delivered; the gap is an accepted accounting loss.
	if err := s.ledger.Increment(ctx, userID, textLen); err != nil {
		s.log.Error("usage increment failed after successful synthesis",
			zap.String("user", userID),
			zap.Int("characters", textLen),
			zap.Error(err),
		)
	}

	return audio, nil, nil
}
