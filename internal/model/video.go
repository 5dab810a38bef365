package model

import "time"

// VideoRequest represents the request body for video generation.
// adBrief is accepted for clients of the first API version.
type VideoRequest struct {
	Scenes    []Scene     `json:"scenes"`
	Brief     *BriefInput `json:"brief"`
	AdBrief   *BriefInput `json:"adBrief"`
	ProjectID string      `json:"projectId,omitempty"`
}

// BriefInput returns whichever brief field the client sent.
func (r *VideoRequest) BriefInput() *BriefInput {
	if r.Brief != nil {
		return r.Brief
	}
	return r.AdBrief
}

// Clip is the rendered video for one scene
type Clip struct {
	SceneIndex int    `json:"sceneIndex"`
	URL        string `json:"url"`
	Duration   int    `json:"duration"`
}

// NarrationClip is the synthesized voice-over for one scene
type NarrationClip struct {
	SceneIndex int    `json:"sceneIndex"`
	URL        string `json:"url"`
}

// VideoResult is produced once per successful generation call
type VideoResult struct {
	VideoURL  string          `json:"videoUrl"`
	HookScore int             `json:"hookScore"`
	Provider  ProviderChoice  `json:"provider"`
	Clips     []Clip          `json:"clips,omitempty"`
	Narration []NarrationClip `json:"narration,omitempty"`
}

// VideoResponse represents the response for synchronous video generation
type VideoResponse struct {
	Success bool `json:"success"`
	VideoResult
}

// VideoJobStartResponse represents the response when a video job is queued
type VideoJobStartResponse struct {
	Success   bool           `json:"success"`
	JobID     string         `json:"jobId"`
	Status    JobStatus      `json:"status"`
	Provider  ProviderChoice `json:"provider"`
	CreatedAt time.Time      `json:"createdAt"`
}

// VideoJobStatusResponse represents the status of a video job
type VideoJobStatusResponse struct {
	Success     bool       `json:"success"`
	JobID       string     `json:"jobId"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"`
	CurrentStep string     `json:"currentStep,omitempty"`
	Error       *string    `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// VideoJobCancelResponse represents the response for job cancellation
type VideoJobCancelResponse struct {
	Success bool      `json:"success"`
	JobID   string    `json:"jobId"`
	Status  JobStatus `json:"status"`
}
