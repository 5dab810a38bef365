package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/adstudio/api/internal/apperr"
	"github.com/adstudio/api/internal/model"
)

// ProjectStore keeps projects, subscriptions and the usage ledger in Postgres
type ProjectStore struct {
	db *gorm.DB
}

func NewProjectStore(db *gorm.DB) *ProjectStore {
	return &ProjectStore{db: db}
}

func (s *ProjectStore) CreateProject(ctx context.Context, p *model.Project) error {
	return s.db.WithContext(ctx).Create(p).Error
}

// ListProjects returns the user's projects, newest first
func (s *ProjectStore) ListProjects(ctx context.Context, userID string) ([]model.Project, error) {
	var projects []model.Project
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&projects).Error
	return projects, err
}

// GetProject returns a project only if userID owns it
func (s *ProjectStore) GetProject(ctx context.Context, userID, id string) (*model.Project, error) {
	var p model.Project
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("project")
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ProjectStore) UpdateProject(ctx context.Context, p *model.Project) error {
	return s.db.WithContext(ctx).Save(p).Error
}

func (s *ProjectStore) DeleteProject(ctx context.Context, userID, id string) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.Project{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("project")
	}
	return nil
}

// GetActiveSubscription returns the user's active subscription
func (s *ProjectStore) GetActiveSubscription(ctx context.Context, userID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.SubscriptionStatusActive).
		Order("created_at DESC").
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("subscription")
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// IncrementUsage bumps the monthly counter in a single statement
func (s *ProjectStore) IncrementUsage(ctx context.Context, subscriptionID string) error {
	return s.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("id = ?", subscriptionID).
		UpdateColumn("current_month_usage", gorm.Expr("current_month_usage + ?", 1)).Error
}

func (s *ProjectStore) RecordAPIUsage(ctx context.Context, u *model.APIUsage) error {
	return s.db.WithContext(ctx).Create(u).Error
}

// UsageTotals sums the user's ledger rows created at or after since,
// one row per service and operation
func (s *ProjectStore) UsageTotals(ctx context.Context, userID string, since time.Time) ([]model.UsageTotal, error) {
	var totals []model.UsageTotal
	err := s.db.WithContext(ctx).
		Model(&model.APIUsage{}).
		Select("service, operation, COUNT(*) AS calls, COALESCE(SUM(units_consumed), 0) AS units, COALESCE(SUM(cost_usd), 0) AS cost_usd").
		Where("user_id = ? AND created_at >= ?", userID, since).
		Group("service, operation").
		Order("service, operation").
		Scan(&totals).Error
	return totals, err
}
