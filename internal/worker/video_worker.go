package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/adstudio/api/internal/apperr"
	"github.com/adstudio/api/internal/model"
	"github.com/adstudio/api/internal/service"
	"github.com/adstudio/api/internal/websocket"
)

// Progress milestones; clip generation fills the range between them.
const (
	progressSelecting = 5
	progressClipsFrom = 10
	progressClipsTo   = 85
	progressFinishing = 95
)

// VideoWorker processes video jobs
type VideoWorker struct {
	jobs     *service.VideoJobService
	videos   *service.VideoService
	projects *service.ProjectService
	hub      websocket.Broadcaster
	log      *logrus.Logger
}

// NewVideoWorker creates a new video worker
func NewVideoWorker(jobs *service.VideoJobService, videos *service.VideoService, projects *service.ProjectService, hub websocket.Broadcaster, log *logrus.Logger) *VideoWorker {
	return &VideoWorker{
		jobs:     jobs,
		videos:   videos,
		projects: projects,
		hub:      hub,
		log:      log,
	}
}

// ProcessTask handles video task processing. Errors are wrapped with
// asynq.SkipRetry: a failed storyboard is terminal.
func (w *VideoWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var taskPayload service.VideoTaskPayload
	if err := json.Unmarshal(t.Payload(), &taskPayload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %v: %w", err, asynq.SkipRetry)
	}

	jobID := taskPayload.JobID
	entry := w.log.WithField("job", jobID)

	var payload model.VideoJobPayload
	if err := json.Unmarshal(taskPayload.Payload, &payload); err != nil {
		w.failJob(ctx, jobID, "INVALID_PAYLOAD", "invalid job payload")
		return fmt.Errorf("failed to unmarshal video payload: %v: %w", err, asynq.SkipRetry)
	}

	job, err := w.jobs.Job(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job: %v: %w", err, asynq.SkipRetry)
	}
	if job.Status == model.JobStatusCanceled {
		entry.Info("video job canceled before start")
		return nil
	}

	provider := job.Provider
	if provider == "" {
		provider = w.videos.Provider()
	}
	entry = entry.WithField("provider", provider)
	entry.Info("starting video job")

	// A cancel observed at any progress step stops the remaining provider calls.
	genCtx, stop := context.WithCancel(ctx)
	defer stop()
	step := func(progress int, msg string) {
		if !w.updateProgress(ctx, jobID, provider, progress, msg) {
			stop()
		}
	}

	step(progressSelecting, fmt.Sprintf("Using %s provider...", provider))
	step(progressClipsFrom, "Generating scene clips...")
	if genCtx.Err() != nil {
		entry.Info("video job canceled before generation")
		return nil
	}

	result, err := w.videos.GenerateWith(genCtx, provider, &payload.Brief, payload.Scenes, func(done, total int) {
		step(progressClipsFrom+(progressClipsTo-progressClipsFrom)*done/total, fmt.Sprintf("Generated %d of %d scenes", done, total))
	})
	if err != nil {
		if genCtx.Err() != nil && ctx.Err() == nil {
			entry.Info("video job canceled while generating")
			return nil
		}
		entry.WithError(err).Warn("video job failed")
		code, msg := failure(err)
		w.failJob(ctx, jobID, code, msg)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	// Provider work is billed even if a cancel lands before the result is saved.
	w.projects.RecordGeneration(ctx, job.UserID, payload.ProjectID, payload.Scenes, result)

	w.updateProgress(ctx, jobID, provider, progressFinishing, "Finalizing...")

	kept, err := w.jobs.CompleteJob(ctx, jobID, result)
	if err != nil {
		w.failJob(ctx, jobID, "INTERNAL_ERROR", "failed to save result")
		return fmt.Errorf("save result: %v: %w", err, asynq.SkipRetry)
	}
	if !kept {
		entry.Info("video job canceled while running, result dropped")
		return nil
	}

	w.projects.RecordVideo(ctx, job.UserID)
	w.projects.AttachVideo(ctx, job.UserID, payload.ProjectID, result)

	w.hub.BroadcastComplete(jobID, result)
	entry.WithField("videoUrl", result.VideoURL).Info("video job completed")
	return nil
}

// updateProgress reports false once the job is terminal. Store errors are
// logged and the job keeps running.
func (w *VideoWorker) updateProgress(ctx context.Context, jobID string, provider model.ProviderChoice, progress int, step string) bool {
	active, err := w.jobs.UpdateJobProgress(ctx, jobID, progress, step)
	if err != nil {
		w.log.WithError(err).WithField("job", jobID).Warn("failed to update progress")
		return true
	}
	if !active {
		return false
	}
	w.hub.BroadcastProgress(jobID, progress, provider, step)
	return true
}

func (w *VideoWorker) failJob(ctx context.Context, jobID, code, msg string) {
	// The task context may already be expired; the record still has to be written.
	if err := w.jobs.FailJob(context.WithoutCancel(ctx), jobID, msg); err != nil {
		w.log.WithError(err).WithField("job", jobID).Error("failed to mark job as failed")
	}
	w.hub.BroadcastError(jobID, code, msg)
}

// failure maps an error to the code and client-safe message stored on the job.
func failure(err error) (string, string) {
	switch apperr.KindOf(err) {
	case apperr.KindConfiguration:
		return "CONFIGURATION_ERROR", "video provider is not configured"
	case apperr.KindProvider:
		return "PROVIDER_ERROR", "video provider failed to generate the storyboard"
	case apperr.KindTimeout:
		return "TIMEOUT", "video generation timed out"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "TIMEOUT", "video generation timed out"
	}
	return "INTERNAL_ERROR", "video generation failed"
}
