package model

// Scene is one timed segment of the storyboard.
type Scene struct {
	Index       int      `json:"index" validate:"min=0"`
	Description string   `json:"description" validate:"required,max=1000"`
	Duration    int      `json:"duration" validate:"gt=0,lte=60"`
	Narration   string   `json:"narration,omitempty" validate:"omitempty,max=1000"`
	VisualEmoji string   `json:"visualEmoji,omitempty"`
	Tags        []string `json:"tags,omitempty" validate:"omitempty,max=20,dive,max=50"`
}

// Storyboard wraps scenes for validation.
type Storyboard struct {
	Scenes []Scene `json:"scenes" validate:"required,min=1,max=6,dive"`
}

// TotalDuration sums scene durations in seconds.
func TotalDuration(scenes []Scene) int {
	total := 0
	for _, s := range scenes {
		total += s.Duration
	}
	return total
}
