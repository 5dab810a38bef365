package model

import (
	"time"

	"gorm.io/datatypes"
)

// Billed services and operations in the usage ledger
const (
	UsageServiceRunway     = "runway_ml"
	UsageServiceStability  = "stability_ai"
	UsageServiceElevenLabs = "elevenlabs"

	UsageOperationVideo = "video_generation"
	UsageOperationAudio = "audio_generation"
)

// APIUsage is one paid provider call made for a user
type APIUsage struct {
	ID        string         `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    string         `json:"userId" gorm:"type:uuid;index:idx_api_usage_user_created,priority:1;not null"`
	ProjectID *string        `json:"projectId,omitempty" gorm:"type:uuid"`
	Service   string         `json:"service" gorm:"not null"`
	Operation string         `json:"operation" gorm:"not null"`
	Units     float64        `json:"units" gorm:"column:units_consumed"`
	CostUSD   float64        `json:"costUsd" gorm:"column:cost_usd"`
	Metadata  datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"createdAt" gorm:"index:idx_api_usage_user_created,priority:2"`
}

func (APIUsage) TableName() string { return "api_usage" }

// UsageTotal aggregates one service/operation pair
type UsageTotal struct {
	Service   string  `json:"service"`
	Operation string  `json:"operation"`
	Calls     int64   `json:"calls"`
	Units     float64 `json:"units"`
	CostUSD   float64 `json:"costUsd" gorm:"column:cost_usd"`
}

// UsageSummary is a user's spend since the start of the month
type UsageSummary struct {
	Since        time.Time    `json:"since"`
	TotalCostUSD float64      `json:"totalCostUsd"`
	Services     []UsageTotal `json:"services"`
}

// UsageResponse wraps the caller's usage summary
type UsageResponse struct {
	Success bool          `json:"success"`
	Usage   *UsageSummary `json:"usage"`
}
