package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"unicode"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/adstudio/api/internal/apperr"
	"github.com/adstudio/api/internal/client"
	"github.com/adstudio/api/internal/config"
	"github.com/adstudio/api/internal/model"
)

// ProgressFunc is told how many scenes have finished out of total.
type ProgressFunc func(done, total int)

// VideoService renders a storyboard with the selected provider.
type VideoService struct {
	cfg        config.VideoConfig
	generators map[model.ProviderChoice]client.VideoGenerator
	narration  *NarrationService
	log        *logrus.Logger
}

func NewVideoService(cfg config.VideoConfig, narration *NarrationService, log *logrus.Logger, generators ...client.VideoGenerator) *VideoService {
	byChoice := make(map[model.ProviderChoice]client.VideoGenerator, len(generators))
	for _, g := range generators {
		byChoice[g.Provider()] = g
	}
	return &VideoService{
		cfg:        cfg,
		generators: byChoice,
		narration:  narration,
		log:        log,
	}
}

// Provider returns the provider the current configuration selects.
func (s *VideoService) Provider() model.ProviderChoice {
	return SelectProvider(s.cfg)
}

// Generate renders scenes with the configured provider.
func (s *VideoService) Generate(ctx context.Context, brief *model.CreativeBrief, scenes []model.Scene) (*model.VideoResult, error) {
	return s.GenerateWith(ctx, s.Provider(), brief, scenes, nil)
}

// GenerateWith renders scenes with an explicit provider. Live providers get
// one call per scene, run concurrently; any failed scene fails the whole
// storyboard.
func (s *VideoService) GenerateWith(ctx context.Context, choice model.ProviderChoice, brief *model.CreativeBrief, scenes []model.Scene, progress ProgressFunc) (*model.VideoResult, error) {
	if choice == model.ProviderMock {
		if progress != nil {
			progress(len(scenes), len(scenes))
		}
		return MockResult(brief, scenes), nil
	}

	gen, ok := s.generators[choice]
	if !ok || !gen.IsConfigured() {
		return nil, &apperr.ConfigurationError{Component: string(choice), Reason: "provider selected but not configured"}
	}

	slug := Slugify(brief.ProductName)
	prefix := fmt.Sprintf("clips/%s/%s", slug, uuid.NewString()[:8])
	entry := s.log.WithFields(logrus.Fields{
		"provider": choice,
		"product":  brief.ProductName,
		"scenes":   len(scenes),
	})
	entry.Info("video generation started")

	clips := make([]model.Clip, len(scenes))
	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	for i, scene := range scenes {
		i, scene := i, scene
		g.Go(func() error {
			res, err := gen.GenerateClip(gctx, &client.ClipRequest{
				SceneIndex: scene.Index,
				Prompt:     ScenePrompt(scene, brief),
				Duration:   scene.Duration,
				KeyPrefix:  prefix,
			})
			if err != nil {
				return err
			}
			clips[i] = model.Clip{SceneIndex: scene.Index, URL: res.URL, Duration: res.Duration}

			if progress != nil {
				mu.Lock()
				done++
				progress(done, len(scenes))
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		entry.WithError(err).Warn("video generation failed")
		return nil, err
	}

	result := &model.VideoResult{
		VideoURL:  clips[0].URL,
		HookScore: hookScore(len(scenes)),
		Provider:  choice,
		Clips:     clips,
	}
	result.Narration = s.narration.Narrate(ctx, scenes, prefix)

	entry.WithField("clips", len(clips)).Info("video generation finished")
	return result, nil
}

// MockResult builds a placeholder result without any network call.
func MockResult(brief *model.CreativeBrief, scenes []model.Scene) *model.VideoResult {
	return &model.VideoResult{
		VideoURL:  fmt.Sprintf("/videos/%s-storyboard.mp4", Slugify(brief.ProductName)),
		HookScore: hookScore(len(scenes)),
		Provider:  model.ProviderMock,
	}
}

// ScenePrompt is the generation prompt sent for one scene.
func ScenePrompt(scene model.Scene, brief *model.CreativeBrief) string {
	return fmt.Sprintf("%s. Style: %s, professional, high quality", scene.Description, brief.Style)
}

// Slugify lowercases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			sb.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	if sb.Len() == 0 {
		return "product"
	}
	return sb.String()
}

// hookScore is cosmetic: 70-95 with a bonus for a full storyboard.
func hookScore(sceneCount int) int {
	score := 70 + rand.Intn(26)
	if sceneCount >= len(storyboardSlots) {
		score += 5
	}
	if score > 100 {
		score = 100
	}
	return score
}
