package model

import "time"

// Job represents a background video job
type Job struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Status      JobStatus      `json:"status"`
	Provider    ProviderChoice `json:"provider"`
	Progress    int            `json:"progress"`
	CurrentStep string         `json:"currentStep,omitempty"`
	Error       *string        `json:"error,omitempty"`
	UserID      string         `json:"userId,omitempty"`
	Payload     []byte         `json:"payload,omitempty"`
	Result      []byte         `json:"result,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	StartedAt   *time.Time     `json:"startedAt,omitempty"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
}

// Job types
const (
	JobTypeVideo = "video"
)

// IsTerminal reports whether the job can no longer change state.
func (j *Job) IsTerminal() bool {
	switch j.Status {
	case JobStatusSucceeded, JobStatusFailed, JobStatusCanceled:
		return true
	}
	return false
}

// VideoJobPayload contains the data for a video job
type VideoJobPayload struct {
	ProjectID string        `json:"projectId,omitempty"`
	Brief     CreativeBrief `json:"brief"`
	Scenes    []Scene       `json:"scenes"`
}
