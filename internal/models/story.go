package models

// StoryModel is a user-authored story document.
type StoryModel struct {
	Base
	UserID        string `json:"user_id"        gorm:"index;not null"`
	Title         string `json:"title"          gorm:"not null"`
	Content       string `json:"content"        gorm:"type:longtext"`
	NarratorVoice string `json:"narrator_voice" gorm:"default:''"`
}

func (StoryModel) TableName() string { return "stories" }
