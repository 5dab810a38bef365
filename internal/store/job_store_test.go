package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adstudio/api/internal/apperr"
	"github.com/adstudio/api/internal/model"
)

func TestMemoryJobStore(t *testing.T) {
	s := NewMemoryJobStore()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	job := &model.Job{ID: "j1", Type: model.JobTypeVideo, Status: model.JobStatusQueued}
	require.NoError(t, s.Save(ctx, job))

	// Stored records are copies
	job.Status = model.JobStatusFailed
	got, err := s.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusQueued, got.Status)

	got.Progress = 50
	again, err := s.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Progress)
}

func TestMemoryJobStore_Update(t *testing.T) {
	s := NewMemoryJobStore()
	ctx := context.Background()

	_, err := s.Update(ctx, "missing", func(*model.Job) error { return nil })
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	require.NoError(t, s.Save(ctx, &model.Job{ID: "j1", Status: model.JobStatusRunning}))

	// A failing fn leaves the record untouched
	refused := errors.New("refused")
	_, err = s.Update(ctx, "j1", func(j *model.Job) error {
		j.Status = model.JobStatusFailed
		return refused
	})
	assert.ErrorIs(t, err, refused)
	got, err := s.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusRunning, got.Status)

	// Concurrent read-modify-write cycles do not lose increments
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Update(ctx, "j1", func(j *model.Job) error {
				j.Progress++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err = s.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, 100, got.Progress)
}

func TestJobKey(t *testing.T) {
	assert.Equal(t, "job:abc", jobKey("abc"))
}
