package model

import (
	"time"

	"gorm.io/datatypes"
)

// Project statuses
const (
	ProjectStatusDraft     = "draft"
	ProjectStatusScripted  = "scripted"
	ProjectStatusGenerated = "generated"
)

// Project is a saved wizard session
type Project struct {
	ID        string         `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    string         `json:"userId" gorm:"type:uuid;index;not null"`
	Name      string         `json:"name" gorm:"not null"`
	Brief     datatypes.JSON `json:"brief,omitempty"`
	Script    string         `json:"script,omitempty"`
	Scenes    datatypes.JSON `json:"scenes,omitempty"`
	VideoURL  string         `json:"videoUrl,omitempty"`
	HookScore *int           `json:"hookScore,omitempty"`
	Status    string         `json:"status" gorm:"default:draft"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (Project) TableName() string { return "projects" }

// Subscription holds the monthly video allowance of a user
type Subscription struct {
	ID                string    `json:"id" gorm:"type:uuid;primaryKey"`
	UserID            string    `json:"userId" gorm:"type:uuid;index;not null"`
	Plan              string    `json:"plan"`
	Status            string    `json:"status" gorm:"index"`
	MonthlyVideoLimit int       `json:"monthlyVideoLimit"`
	CurrentMonthUsage int       `json:"currentMonthUsage"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func (Subscription) TableName() string { return "subscriptions" }

const SubscriptionStatusActive = "active"

// ProjectCreateRequest represents the request body for creating a project
type ProjectCreateRequest struct {
	Name      string         `json:"name" validate:"required,max=200"`
	Brief     *CreativeBrief `json:"brief" validate:"omitempty"`
	Script    string         `json:"script" validate:"omitempty,max=20000"`
	Scenes    []Scene        `json:"scenes" validate:"omitempty,max=6,dive"`
	VideoURL  string         `json:"videoUrl" validate:"omitempty,max=2048"`
	HookScore *int           `json:"hookScore" validate:"omitempty,min=0,max=100"`
}

// ProjectUpdateRequest represents the request body for updating a project.
// Nil fields are left unchanged.
type ProjectUpdateRequest struct {
	Name      *string        `json:"name" validate:"omitempty,min=1,max=200"`
	Brief     *CreativeBrief `json:"brief" validate:"omitempty"`
	Script    *string        `json:"script" validate:"omitempty,max=20000"`
	Scenes    []Scene        `json:"scenes" validate:"omitempty,max=6,dive"`
	VideoURL  *string        `json:"videoUrl" validate:"omitempty,max=2048"`
	HookScore *int           `json:"hookScore" validate:"omitempty,min=0,max=100"`
	Status    *string        `json:"status" validate:"omitempty,oneof=draft scripted generated"`
}

// ProjectResponse wraps a single project
type ProjectResponse struct {
	Success bool     `json:"success"`
	Project *Project `json:"project"`
}

// ProjectListResponse wraps a user's projects
type ProjectListResponse struct {
	Success  bool      `json:"success"`
	Projects []Project `json:"projects"`
}

// SubscriptionResponse wraps the caller's subscription
type SubscriptionResponse struct {
	Success      bool          `json:"success"`
	Subscription *Subscription `json:"subscription"`
}
