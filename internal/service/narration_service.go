package service

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/adstudio/api/internal/client"
	"github.com/adstudio/api/internal/model"
)

const narrationConcurrency = 3

// NarrationService voices scene narration. It is best effort: a scene whose
// audio fails is logged and left out.
type NarrationService struct {
	tts     client.SpeechSynthesizer
	storage client.StorageClient
	log     *logrus.Logger
}

func NewNarrationService(tts client.SpeechSynthesizer, storage client.StorageClient, log *logrus.Logger) *NarrationService {
	return &NarrationService{
		tts:     tts,
		storage: storage,
		log:     log,
	}
}

// Enabled reports whether narration can run at all.
func (s *NarrationService) Enabled() bool {
	return s != nil && s.tts != nil && s.tts.IsConfigured() && s.storage != nil
}

// Narrate synthesizes audio for every scene with narration text, or its
// description when narration is empty. Results are ordered by scene index.
func (s *NarrationService) Narrate(ctx context.Context, scenes []model.Scene, keyPrefix string) []model.NarrationClip {
	if !s.Enabled() {
		return nil
	}

	var (
		mu    sync.Mutex
		clips []model.NarrationClip
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(narrationConcurrency)

	for _, scene := range scenes {
		scene := scene
		text := NarrationText(scene)
		if text == "" {
			continue
		}

		g.Go(func() error {
			audio, err := s.tts.Synthesize(gctx, text)
			if err != nil {
				s.log.WithError(err).WithField("scene", scene.Index).Warn("narration failed")
				return nil
			}

			key := fmt.Sprintf("%s/narration-%d.mp3", keyPrefix, scene.Index)
			url, err := s.storage.Upload(gctx, key, bytes.NewReader(audio), "audio/mpeg")
			if err != nil {
				s.log.WithError(err).WithField("scene", scene.Index).Warn("narration upload failed")
				return nil
			}

			mu.Lock()
			clips = append(clips, model.NarrationClip{SceneIndex: scene.Index, URL: url})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(clips, func(i, j int) bool { return clips[i].SceneIndex < clips[j].SceneIndex })
	return clips
}

// NarrationText is what gets voiced for scene: its narration line, or the
// visual description when no line was written.
func NarrationText(scene model.Scene) string {
	if scene.Narration != "" {
		return scene.Narration
	}
	return scene.Description
}
