package models

import "time"

// UsageModel is one user's synthesis consumption for one UTC calendar day.
// At most one row exists per (user_id, date); rows are created lazily on the
// first generation of the day and never deleted.
type UsageModel struct {
	ID                  uint      `json:"-"                          gorm:"primaryKey;autoIncrement"`
	UserID              string    `json:"-"                          gorm:"uniqueIndex:idx_usage_user_date;type:char(36);not null"`
	Date                string    `json:"date"                       gorm:"uniqueIndex:idx_usage_user_date;type:char(10);not null"` // "2006-01-02"
	GenerationCount     int       `json:"tts_generations_count"      gorm:"not null;default:0"`
	CharactersGenerated int       `json:"total_characters_generated" gorm:"not null;default:0"`
	CreatedAt           time.Time `json:"-"`
	UpdatedAt           time.Time `json:"-"`
}

func (UsageModel) TableName() string { return "user_usage" }

// UsageDay formats t as the ledger's calendar-day key (UTC).
func UsageDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
