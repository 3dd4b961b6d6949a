package story

import (
	"errors"
	"fmt"
	"strings"

	"github.com/voxstory/core/internal/config"
	"github.com/voxstory/core/internal/models"
	"gorm.io/gorm"
)

var errContentTooLong = fmt.Errorf("content exceeds %d characters", config.MaxStoryLength)

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// List returns the user's stories, most recently updated first.
func (s *Service) List(userID string) ([]models.StoryModel, error) {
	var items []models.StoryModel
	err := s.db.Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&items).Error
	return items, err
}

// GetByID returns the story if it exists and belongs to userID, else nil.
func (s *Service) GetByID(userID, id string) (*models.StoryModel, error) {
	var st models.StoryModel
	if err := s.db.First(&st, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &st, nil
}

func (s *Service) Create(userID string, dto *CreateStoryDTO) (*models.StoryModel, error) {
	if len([]rune(dto.Content)) > config.MaxStoryLength {
		return nil, errContentTooLong
	}

	title := strings.TrimSpace(dto.Title)
	if title == "" {
		title = DefaultTitle
	}
	voice := dto.NarratorVoice
	if voice == "" {
		voice = config.DefaultVoiceID
	}

	st := models.StoryModel{
		UserID:        userID,
		Title:         title,
		Content:       dto.Content,
		NarratorVoice: voice,
	}
	return &st, s.db.Create(&st).Error
}

func (s *Service) Update(userID, id string, dto *UpdateStoryDTO) (*models.StoryModel, error) {
	st, err := s.GetByID(userID, id)
	if err != nil || st == nil {
		return st, err
	}

	updates := map[string]interface{}{}
	if dto.Title != nil {
		updates["title"] = *dto.Title
	}
	if dto.Content != nil {
		if len([]rune(*dto.Content)) > config.MaxStoryLength {
			return nil, errContentTooLong
		}
		updates["content"] = *dto.Content
	}
	if dto.NarratorVoice != nil {
		updates["narrator_voice"] = *dto.NarratorVoice
	}
	if len(updates) == 0 {
		return st, nil
	}

	if err := s.db.Model(st).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetByID(userID, id)
}

// Delete removes the story; the bool reports whether a row was deleted.
func (s *Service) Delete(userID, id string) (bool, error) {
	res := s.db.Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.StoryModel{})
	return res.RowsAffected > 0, res.Error
}
