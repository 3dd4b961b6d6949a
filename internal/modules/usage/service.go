package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/voxstory/core/internal/config"
	"github.com/voxstory/core/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Deny reasons surfaced to users. The wording is shared with the web client.
var (
	ReasonTextTooLong = fmt.Sprintf(
		"Text too long. Maximum %d characters allowed per generation.", config.MaxSynthesisLength)
	ReasonDailyLimit = fmt.Sprintf(
		"Daily limit reached. You can generate %d audio files per day.", config.DailyGenerationLimit)
	ReasonUnverifiable = "Unable to check usage limits. Please try again."
)

// Decision is the outcome of a quota check.
type Decision struct {
	Allowed   bool
	Reason    string            // set when denied
	Remaining int               // generations left today, when allowed
	Current   models.UsageModel // today's usage, for display
}

// Service is the daily usage ledger. It is the single writer of UsageModel
// rows; concurrent sessions of the same user converge through the
// conflict-resolving upsert in Increment.
type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// Today returns the user's usage record for the current UTC day. A day with
// no generations yields a zero record rather than an error.
func (s *Service) Today(ctx context.Context, userID string) (models.UsageModel, error) {
	day := models.UsageDay(time.Now())
	var u models.UsageModel
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, day).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.UsageModel{UserID: userID, Date: day}, nil
	}
	if err != nil {
		return models.UsageModel{}, err
	}
	return u, nil
}

// CheckAndCount decides whether the user may run one more generation of
// textLength characters today. A failed read denies the request (fail
// closed); the wrapped error is returned alongside for logging.
//
// Passing the check authorizes the caller to synthesize; the count moves only
// when Increment is called after a successful synthesis. Two requests racing
// at limit-1 can therefore both pass and land the day one over the nominal
// limit. That soft-limit window is deliberate: a reservation scheme would
// charge users for syntheses that fail.
func (s *Service) CheckAndCount(ctx context.Context, userID string, textLength int) (Decision, error) {
	if textLength > config.MaxSynthesisLength {
		return Decision{Allowed: false, Reason: ReasonTextTooLong}, nil
	}

	current, err := s.Today(ctx, userID)
	if err != nil {
		return Decision{Allowed: false, Reason: ReasonUnverifiable}, fmt.Errorf("read usage: %w", err)
	}

	return decide(current, textLength), nil
}

// decide applies the quota rule to a known usage record.
func decide(current models.UsageModel, textLength int) Decision {
	if textLength > config.MaxSynthesisLength {
		return Decision{Allowed: false, Reason: ReasonTextTooLong, Current: current}
	}
	if current.GenerationCount >= config.DailyGenerationLimit {
		return Decision{Allowed: false, Reason: ReasonDailyLimit, Current: current}
	}
	return Decision{
		Allowed:   true,
		Remaining: config.DailyGenerationLimit - current.GenerationCount - 1,
		Current:   current,
	}
}

// Increment records one completed generation of chars characters for today,
// creating the day's row if absent. The upsert adds to existing values so
// concurrent increments from two sessions never lose an update; if the
// dialect rejects the upsert, a dedicated read-free UPDATE takes over.
func (s *Service) Increment(ctx context.Context, userID string, chars int) error {
	day := models.UsageDay(time.Now())
	row := models.UsageModel{
		UserID:              userID,
		Date:                day,
		GenerationCount:     1,
		CharactersGenerated: chars,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"generation_count":     gorm.Expr("generation_count + 1"),
			"characters_generated": gorm.Expr("characters_generated + ?", chars),
			"updated_at":           time.Now(),
		}),
	}).Create(&row).Error
	if err == nil {
		return nil
	}

	return s.incrementFallback(ctx, userID, day, chars, err)
}

// incrementFallback is the atomic-increment path for stores where the upsert
// cannot express add-to-existing semantics.
func (s *Service) incrementFallback(ctx context.Context, userID, day string, chars int, upsertErr error) error {
	res := s.db.WithContext(ctx).Model(&models.UsageModel{}).
		Where("user_id = ? AND date = ?", userID, day).
		Updates(map[string]interface{}{
			"generation_count":     gorm.Expr("generation_count + 1"),
			"characters_generated": gorm.Expr("characters_generated + ?", chars),
		})
	if res.Error != nil {
		return fmt.Errorf("increment usage: %w (upsert: %v)", res.Error, upsertErr)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	row := models.UsageModel{
		UserID:              userID,
		Date:                day,
		GenerationCount:     1,
		CharactersGenerated: chars,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		// Lost the insert race; the row exists now, add to it.
		res = s.db.WithContext(ctx).Model(&models.UsageModel{}).
			Where("user_id = ? AND date = ?", userID, day).
			Updates(map[string]interface{}{
				"generation_count":     gorm.Expr("generation_count + 1"),
				"characters_generated": gorm.Expr("characters_generated + ?", chars),
			})
		if res.Error != nil || res.RowsAffected == 0 {
			return fmt.Errorf("increment usage: %w (upsert: %v)", err, upsertErr)
		}
	}
	return nil
}
