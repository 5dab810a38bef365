package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/adstudio/api/internal/apperr"
	"github.com/adstudio/api/internal/model"
)

// ProjectStore persists projects and subscriptions
type ProjectStore interface {
	CreateProject(ctx context.Context, p *model.Project) error
	ListProjects(ctx context.Context, userID string) ([]model.Project, error)
	GetProject(ctx context.Context, userID, id string) (*model.Project, error)
	UpdateProject(ctx context.Context, p *model.Project) error
	DeleteProject(ctx context.Context, userID, id string) error
	GetActiveSubscription(ctx context.Context, userID string) (*model.Subscription, error)
	IncrementUsage(ctx context.Context, subscriptionID string) error
	RecordAPIUsage(ctx context.Context, u *model.APIUsage) error
	UsageTotals(ctx context.Context, userID string, since time.Time) ([]model.UsageTotal, error)
}

// List prices used to estimate spend in the usage ledger
const (
	runwayCostPerSecond   = 0.05
	stabilityCostPerClip  = 0.20
	elevenLabsCostPerChar = 0.0003
)

// ProjectService handles saved projects and subscription limits.
// A nil store means no database: project calls fail with a
// configuration error and limit checks are skipped.
type ProjectService struct {
	store     ProjectStore
	validator *BriefValidator
	log       *logrus.Logger
}

func NewProjectService(store ProjectStore, v *BriefValidator, log *logrus.Logger) *ProjectService {
	return &ProjectService{
		store:     store,
		validator: v,
		log:       log,
	}
}

// Enabled reports whether a database is attached.
func (s *ProjectService) Enabled() bool {
	return s != nil && s.store != nil
}

func (s *ProjectService) Create(ctx context.Context, userID string, req *model.ProjectCreateRequest) (*model.Project, error) {
	if err := s.require(); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	p := &model.Project{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      req.Name,
		Script:    req.Script,
		VideoURL:  req.VideoURL,
		HookScore: req.HookScore,
		Status:    model.ProjectStatusDraft,
	}

	var err error
	if p.Brief, err = toJSON(req.Brief); err != nil {
		return nil, err
	}
	if p.Scenes, err = toJSON(req.Scenes); err != nil {
		return nil, err
	}
	p.Status = inferStatus(p)

	if err := s.store.CreateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return p, nil
}

func (s *ProjectService) List(ctx context.Context, userID string) ([]model.Project, error) {
	if err := s.require(); err != nil {
		return nil, err
	}
	projects, err := s.store.ListProjects(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	if projects == nil {
		projects = []model.Project{}
	}
	return projects, nil
}

func (s *ProjectService) Get(ctx context.Context, userID, id string) (*model.Project, error) {
	if err := s.require(); err != nil {
		return nil, err
	}
	return s.store.GetProject(ctx, userID, id)
}

// Update applies the non-nil fields of req
func (s *ProjectService) Update(ctx context.Context, userID, id string, req *model.ProjectUpdateRequest) (*model.Project, error) {
	if err := s.require(); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	p, err := s.store.GetProject(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Brief != nil {
		if p.Brief, err = toJSON(req.Brief); err != nil {
			return nil, err
		}
	}
	if req.Script != nil {
		p.Script = *req.Script
	}
	if req.Scenes != nil {
		if p.Scenes, err = toJSON(req.Scenes); err != nil {
			return nil, err
		}
	}
	if req.VideoURL != nil {
		p.VideoURL = *req.VideoURL
	}
	if req.HookScore != nil {
		p.HookScore = req.HookScore
	}
	if req.Status != nil {
		p.Status = *req.Status
	} else {
		p.Status = inferStatus(p)
	}

	if err := s.store.UpdateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return p, nil
}

func (s *ProjectService) Delete(ctx context.Context, userID, id string) error {
	if err := s.require(); err != nil {
		return err
	}
	return s.store.DeleteProject(ctx, userID, id)
}

// Subscription returns the caller's active subscription
func (s *ProjectService) Subscription(ctx context.Context, userID string) (*model.Subscription, error) {
	if err := s.require(); err != nil {
		return nil, err
	}
	return s.store.GetActiveSubscription(ctx, userID)
}

// CheckVideoAllowance fails with a forbidden error when the user has no
// active subscription or has used this month's videos. Anonymous calls and
// deployments without a database are not limited.
func (s *ProjectService) CheckVideoAllowance(ctx context.Context, userID string) error {
	if !s.Enabled() || userID == "" {
		return nil
	}

	sub, err := s.store.GetActiveSubscription(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Forbidden("no active subscription")
		}
		return fmt.Errorf("failed to load subscription: %w", err)
	}
	if sub.CurrentMonthUsage >= sub.MonthlyVideoLimit {
		return apperr.Forbidden(fmt.Sprintf("monthly video limit of %d reached", sub.MonthlyVideoLimit))
	}
	return nil
}

// RecordVideo counts a generated video against the user's allowance.
// Failures are logged; the video has already been produced.
func (s *ProjectService) RecordVideo(ctx context.Context, userID string) {
	if !s.Enabled() || userID == "" {
		return
	}

	entry := s.log.WithField("user", userID)
	sub, err := s.store.GetActiveSubscription(ctx, userID)
	if err != nil {
		entry.WithError(err).Warn("could not load subscription to record usage")
		return
	}
	if err := s.store.IncrementUsage(ctx, sub.ID); err != nil {
		entry.WithError(err).Warn("could not record video usage")
	}
}

// AttachVideo stores a finished video on the project it was generated for.
func (s *ProjectService) AttachVideo(ctx context.Context, userID, projectID string, result *model.VideoResult) {
	if !s.Enabled() || userID == "" || projectID == "" {
		return
	}

	entry := s.log.WithFields(logrus.Fields{"user": userID, "project": projectID})
	p, err := s.store.GetProject(ctx, userID, projectID)
	if err != nil {
		entry.WithError(err).Warn("could not load project to attach video")
		return
	}

	score := result.HookScore
	p.VideoURL = result.VideoURL
	p.HookScore = &score
	p.Status = model.ProjectStatusGenerated
	if err := s.store.UpdateProject(ctx, p); err != nil {
		entry.WithError(err).Warn("could not attach video to project")
	}
}

// RecordGeneration writes the paid provider work behind result to the usage
// ledger: clip seconds or clips rendered, and characters voiced. Failures
// are logged and never reach the caller.
func (s *ProjectService) RecordGeneration(ctx context.Context, userID, projectID string, scenes []model.Scene, result *model.VideoResult) {
	if !s.Enabled() || userID == "" || result == nil {
		return
	}

	for _, u := range usageFor(scenes, result) {
		u.ID = uuid.New().String()
		u.UserID = userID
		if projectID != "" {
			id := projectID
			u.ProjectID = &id
		}
		if err := s.store.RecordAPIUsage(ctx, u); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"user":    userID,
				"service": u.Service,
			}).Warn("could not record api usage")
		}
	}
}

// Usage returns the caller's spend for the current calendar month (UTC)
func (s *ProjectService) Usage(ctx context.Context, userID string) (*model.UsageSummary, error) {
	if err := s.require(); err != nil {
		return nil, err
	}

	since := monthStart(time.Now())
	totals, err := s.store.UsageTotals(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load usage: %w", err)
	}

	summary := &model.UsageSummary{Since: since, Services: totals}
	if summary.Services == nil {
		summary.Services = []model.UsageTotal{}
	}
	for _, t := range summary.Services {
		summary.TotalCostUSD += t.CostUSD
	}
	return summary, nil
}

func usageFor(scenes []model.Scene, result *model.VideoResult) []*model.APIUsage {
	var out []*model.APIUsage

	if len(result.Clips) > 0 {
		switch result.Provider {
		case model.ProviderRunway:
			seconds := 0
			for _, clip := range result.Clips {
				seconds += clip.Duration
			}
			out = append(out, &model.APIUsage{
				Service:   model.UsageServiceRunway,
				Operation: model.UsageOperationVideo,
				Units:     float64(seconds),
				CostUSD:   float64(seconds) * runwayCostPerSecond,
				Metadata:  usageMetadata(map[string]int{"clips": len(result.Clips)}),
			})
		case model.ProviderStability:
			clips := len(result.Clips)
			out = append(out, &model.APIUsage{
				Service:   model.UsageServiceStability,
				Operation: model.UsageOperationVideo,
				Units:     float64(clips),
				CostUSD:   float64(clips) * stabilityCostPerClip,
			})
		}
	}

	if len(result.Narration) > 0 {
		byIndex := make(map[int]model.Scene, len(scenes))
		for _, scene := range scenes {
			byIndex[scene.Index] = scene
		}
		chars := 0
		for _, n := range result.Narration {
			chars += utf8.RuneCountInString(NarrationText(byIndex[n.SceneIndex]))
		}
		out = append(out, &model.APIUsage{
			Service:   model.UsageServiceElevenLabs,
			Operation: model.UsageOperationAudio,
			Units:     float64(chars),
			CostUSD:   float64(chars) * elevenLabsCostPerChar,
			Metadata:  usageMetadata(map[string]int{"scenes": len(result.Narration)}),
		})
	}
	return out
}

func usageMetadata(v map[string]int) datatypes.JSON {
	data, err := toJSON(v)
	if err != nil {
		return nil
	}
	return data
}

func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func (s *ProjectService) require() error {
	if !s.Enabled() {
		return &apperr.ConfigurationError{Component: "database", Reason: "DATABASE_URL not set"}
	}
	return nil
}

func inferStatus(p *model.Project) string {
	switch {
	case p.VideoURL != "":
		return model.ProjectStatusGenerated
	case p.Script != "" || len(p.Scenes) > 0:
		return model.ProjectStatusScripted
	default:
		return model.ProjectStatusDraft
	}
}

func toJSON(v interface{}) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal: %w", err)
	}
	if string(data) == "null" {
		return nil, nil
	}
	return datatypes.JSON(data), nil
}
