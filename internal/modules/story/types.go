package story

// CreateStoryDTO is the create request body.
type CreateStoryDTO struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	NarratorVoice string `json:"narrator_voice"`
}

// UpdateStoryDTO is the partial-update request body.
type UpdateStoryDTO struct {
	Title         *string `json:"title"`
	Content       *string `json:"content"`
	NarratorVoice *string `json:"narrator_voice"`
}

// DefaultTitle is used when a story is created without one.
const DefaultTitle = "Untitled Story"
