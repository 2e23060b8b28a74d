package platform

import (
	"errors"
	"time"
)

// CampaignStatus is the normalized remote status vocabulary shared by all
// platform pollers. Unknown platform statuses normalize to StatusError,
// never get dropped.
type CampaignStatus string

const (
	StatusActive    CampaignStatus = "active"
	StatusPaused    CampaignStatus = "paused"
	StatusCompleted CampaignStatus = "completed"
	StatusDeleted   CampaignStatus = "deleted"
	StatusError     CampaignStatus = "error"
)

type BudgetType string

const (
	BudgetDaily    BudgetType = "daily"
	BudgetLifetime BudgetType = "lifetime"
)

// PlatformCampaignStatus is an ephemeral snapshot of remote campaign state.
// It is polled for diffing and conflict detection and never persisted as-is.
type PlatformCampaignStatus struct {
	PlatformID   string         `json:"platformId"`
	LocalID      string         `json:"localId,omitempty"` // back-reference, when the platform stores one
	Name         string         `json:"name,omitempty"`
	Status       CampaignStatus `json:"status"`
	BudgetType   BudgetType     `json:"budgetType,omitempty"`
	BudgetAmount float64        `json:"budgetAmount,omitempty"`
	ContentHash  string         `json:"contentHash,omitempty"`
	LastModified time.Time      `json:"lastModified,omitempty"`
}

// EntityResult is the per-entity outcome of an adapter CRUD call. Ordinary
// API-level failures come back as Success=false with Error set; only
// transport-level faults surface as Go errors from the adapter.
type EntityResult struct {
	Success    bool   `json:"success"`
	PlatformID string `json:"platformId,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ErrNotRegistered is returned when a sync job names a platform with no
// registered adapter/poller pair.
var ErrNotRegistered = errors.New("platform not registered")
