package sync

import (
	"time"

	"campaign-sync-service/internal/store"
)

// JobPayload is the engine-facing view of one sync job.
type JobPayload struct {
	JobID               string `json:"jobId"`
	CampaignSetID       string `json:"campaignSetId"`
	TeamID              string `json:"teamId"`
	AdAccountID         string `json:"adAccountId"`
	Platform            string `json:"platform"`
	FundingInstrumentID string `json:"fundingInstrumentId,omitempty"`
	DryRun              bool   `json:"dryRun,omitempty"`
}

// CampaignError is a per-entity failure with enough detail (which entity,
// which operation) for informed retry and user-visible reporting.
// CircuitOpen distinguishes "we gave up calling the platform" from
// "the platform said no".
type CampaignError struct {
	CampaignID  string `json:"campaignId"`
	EntityType  string `json:"entityType"`
	EntityID    string `json:"entityId"`
	Operation   string `json:"operation"`
	Error       string `json:"error"`
	Retryable   bool   `json:"retryable"`
	CircuitOpen bool   `json:"circuitOpen,omitempty"`
}

type SyncResult struct {
	CampaignSetID string    `json:"campaignSetId"`
	Platform      string    `json:"platform"`
	DryRun        bool      `json:"dryRun,omitempty"`
	StartedAt     time.Time `json:"startedAt"`
	CompletedAt   time.Time `json:"completedAt"`

	Synced    int `json:"synced"`
	Failed    int `json:"failed"`
	Unchanged int `json:"unchanged"`
	Deleted   int `json:"deleted"`

	Errors  []CampaignError `json:"errors,omitempty"`
	Summary DiffSummary     `json:"summary"`
}

// ExtendedSyncResult adds the strategy-engine and conflict output consumed
// by the reporting layer.
type ExtendedSyncResult struct {
	SyncResult

	SkippedAds    int `json:"skippedAds"`
	FallbacksUsed int `json:"fallbacksUsed"`
	Truncated     int `json:"truncated"`
	SyncedBack    int `json:"syncedBack"`

	SkippedAdRecords []SkippedAdRecord `json:"skippedAdRecords,omitempty"`
	Conflicts        []ConflictDetails `json:"conflicts,omitempty"`

	// Assignments are the platform ids handed out during this run, for the
	// caller to persist so the next retry resumes instead of re-creating.
	Assignments []store.PlatformAssignment `json:"-"`
}
