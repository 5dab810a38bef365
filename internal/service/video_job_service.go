package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/adstudio/api/internal/apperr"
	"github.com/adstudio/api/internal/model"
)

const (
	TaskTypeVideo = "video:generate"
	QueueVideo    = "video"

	JobTTL = 24 * time.Hour
)

// JobStore persists job records
type JobStore interface {
	Save(ctx context.Context, job *model.Job) error
	// Get returns an apperr not-found error for unknown or expired jobs.
	Get(ctx context.Context, jobID string) (*model.Job, error)
	// Update runs fn on the current record and stores the result without
	// interleaving another write. An error from fn aborts the write.
	Update(ctx context.Context, jobID string, fn func(*model.Job) error) (*model.Job, error)
}

// errTerminal aborts a transition on a job that can no longer change.
var errTerminal = errors.New("job is terminal")

// TaskEnqueuer is satisfied by *asynq.Client
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// VideoTaskPayload is the asynq task body
type VideoTaskPayload struct {
	JobID   string          `json:"jobId"`
	Payload json.RawMessage `json:"payload"`
}

// VideoJobService handles video job management
type VideoJobService struct {
	jobs       JobStore
	enqueuer   TaskEnqueuer
	videos     *VideoService
	jobTimeout time.Duration
}

func NewVideoJobService(jobs JobStore, enqueuer TaskEnqueuer, videos *VideoService, jobTimeout time.Duration) *VideoJobService {
	return &VideoJobService{
		jobs:       jobs,
		enqueuer:   enqueuer,
		videos:     videos,
		jobTimeout: jobTimeout,
	}
}

// Start queues a video job for an already validated storyboard
func (s *VideoJobService) Start(ctx context.Context, userID string, payload *model.VideoJobPayload) (*model.VideoJobStartResponse, error) {
	jobID := uuid.New().String()
	now := time.Now()

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	job := &model.Job{
		ID:        jobID,
		Type:      model.JobTypeVideo,
		Status:    model.JobStatusQueued,
		Provider:  s.videos.Provider(),
		UserID:    userID,
		Payload:   payloadBytes,
		CreatedAt: now,
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	task, err := NewVideoTask(jobID, payloadBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	_, err = s.enqueuer.Enqueue(task,
		asynq.Queue(QueueVideo),
		asynq.MaxRetry(0),
		asynq.Timeout(s.jobTimeout),
		asynq.Retention(JobTTL),
	)
	if err != nil {
		_ = s.FailJob(ctx, jobID, "could not be queued")
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	return &model.VideoJobStartResponse{
		Success:   true,
		JobID:     jobID,
		Status:    model.JobStatusQueued,
		Provider:  job.Provider,
		CreatedAt: now,
	}, nil
}

// GetStatus returns the current status of a job owned by userID
func (s *VideoJobService) GetStatus(ctx context.Context, jobID, userID string) (*model.VideoJobStatusResponse, error) {
	job, err := s.owned(ctx, jobID, userID)
	if err != nil {
		return nil, err
	}

	return &model.VideoJobStatusResponse{
		Success:     true,
		JobID:       job.ID,
		Status:      job.Status,
		Progress:    job.Progress,
		CurrentStep: job.CurrentStep,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
	}, nil
}

// GetResult returns the result of a succeeded job
func (s *VideoJobService) GetResult(ctx context.Context, jobID, userID string) (*model.VideoResponse, error) {
	job, err := s.owned(ctx, jobID, userID)
	if err != nil {
		return nil, err
	}
	if job.Status != model.JobStatusSucceeded {
		return nil, apperr.Conflict(fmt.Sprintf("job is %s", job.Status))
	}

	var result model.VideoResult
	if err := json.Unmarshal(job.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &model.VideoResponse{Success: true, VideoResult: result}, nil
}

// Cancel marks a queued or running job canceled. The worker drops the
// result of a canceled job.
func (s *VideoJobService) Cancel(ctx context.Context, jobID, userID string) (*model.VideoJobCancelResponse, error) {
	_, err := s.jobs.Update(ctx, jobID, func(job *model.Job) error {
		if !ownedBy(job, userID) {
			return apperr.NotFound("job")
		}
		if job.IsTerminal() {
			return apperr.Conflict(fmt.Sprintf("job already %s", job.Status))
		}
		job.Status = model.JobStatusCanceled
		now := time.Now()
		job.CompletedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &model.VideoJobCancelResponse{
		Success: true,
		JobID:   jobID,
		Status:  model.JobStatusCanceled,
	}, nil
}

// Job returns the raw record (called by worker)
func (s *VideoJobService) Job(ctx context.Context, jobID string) (*model.Job, error) {
	return s.jobs.Get(ctx, jobID)
}

// UpdateJobProgress updates job progress (called by worker). It reports
// false once the job is terminal, which for a running job means it was
// canceled.
func (s *VideoJobService) UpdateJobProgress(ctx context.Context, jobID string, progress int, step string) (bool, error) {
	_, err := s.jobs.Update(ctx, jobID, func(job *model.Job) error {
		if job.IsTerminal() {
			return errTerminal
		}
		job.Progress = progress
		job.CurrentStep = step
		if job.Status == model.JobStatusQueued {
			job.Status = model.JobStatusRunning
			now := time.Now()
			job.StartedAt = &now
		}
		return nil
	})
	if errors.Is(err, errTerminal) {
		return false, nil
	}
	return err == nil, err
}

// CompleteJob stores the result unless the job was canceled meanwhile
// (called by worker). It reports whether the result was kept.
func (s *VideoJobService) CompleteJob(ctx context.Context, jobID string, result *model.VideoResult) (bool, error) {
	resultBytes, err := json.Marshal(result)
	if err != nil {
		return false, err
	}

	_, err = s.jobs.Update(ctx, jobID, func(job *model.Job) error {
		if job.IsTerminal() {
			return errTerminal
		}
		job.Status = model.JobStatusSucceeded
		job.Progress = 100
		job.CurrentStep = ""
		job.Result = resultBytes
		now := time.Now()
		job.CompletedAt = &now
		return nil
	})
	if errors.Is(err, errTerminal) {
		return false, nil
	}
	return err == nil, err
}

// FailJob marks job as failed (called by worker). Terminal jobs keep
// their state.
func (s *VideoJobService) FailJob(ctx context.Context, jobID string, errMsg string) error {
	_, err := s.jobs.Update(ctx, jobID, func(job *model.Job) error {
		if job.IsTerminal() {
			return errTerminal
		}
		job.Status = model.JobStatusFailed
		job.Error = &errMsg
		now := time.Now()
		job.CompletedAt = &now
		return nil
	})
	if errors.Is(err, errTerminal) {
		return nil
	}
	return err
}

// owned hides other users' jobs behind not-found.
func (s *VideoJobService) owned(ctx context.Context, jobID, userID string) (*model.Job, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !ownedBy(job, userID) {
		return nil, apperr.NotFound("job")
	}
	return job, nil
}

// ownedBy treats anonymous jobs as readable by anyone holding the id.
func ownedBy(job *model.Job, userID string) bool {
	return job.UserID == "" || job.UserID == userID
}

// NewVideoTask builds the asynq task for a job
func NewVideoTask(jobID string, payload []byte) (*asynq.Task, error) {
	data, err := json.Marshal(VideoTaskPayload{JobID: jobID, Payload: payload})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeVideo, data), nil
}
