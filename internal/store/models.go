package store

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Sync record statuses. Transitions are driven exclusively by the sync
// engine; permanent_failure is terminal and excluded from automatic retry.
const (
	SyncPending  = "pending"
	SyncSyncing  = "syncing"
	SyncSynced   = "synced"
	SyncFailed   = "failed"
	SyncConflict = "conflict"
)

// SyncRecord links one local campaign to its remote identifier on one
// platform.
type SyncRecord struct {
	ID               string         `db:"id"`
	CampaignID       string         `db:"campaign_id"`
	CampaignSetID    string         `db:"campaign_set_id"`
	Platform         string         `db:"platform"`
	PlatformID       sql.NullString `db:"platform_id"`
	SyncStatus       string         `db:"sync_status"`
	LastSyncedAt     sql.NullTime   `db:"last_synced_at"`
	RetryCount       int            `db:"retry_count"`
	NextRetryAt      sql.NullTime   `db:"next_retry_at"`
	PermanentFailure bool           `db:"permanent_failure"`
	ErrorLog         sql.NullString `db:"error_log"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

// Job statuses.
const (
	JobQueued           = "queued"
	JobRunning          = "running"
	JobCompleted        = "completed"
	JobFailed           = "failed"
	JobPermanentFailure = "permanent_failure"
)

// SyncJob is one persisted unit of work: sync one campaign set to one
// platform. Delivery is at-least-once; retry scheduling lives on the job.
type SyncJob struct {
	ID                  string         `db:"id"`
	CampaignSetID       string         `db:"campaign_set_id"`
	TeamID              string         `db:"team_id"`
	AdAccountID         string         `db:"ad_account_id"`
	Platform            string         `db:"platform"`
	FundingInstrumentID sql.NullString `db:"funding_instrument_id"`
	DryRun              bool           `db:"dry_run"`
	Status              string         `db:"status"`
	RetryCount          int            `db:"retry_count"`
	NextRetryAt         sql.NullTime   `db:"next_retry_at"`
	ErrorLog            sql.NullString `db:"error_log"`
	CreatedAt           time.Time      `db:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at"`
}

// SyncRun is one engine invocation; Result holds the serialized extended
// sync result for the reporting layer.
type SyncRun struct {
	ID            string          `db:"id"`
	JobID         string          `db:"job_id"`
	CampaignSetID string          `db:"campaign_set_id"`
	Platform      string          `db:"platform"`
	StartedAt     time.Time       `db:"started_at"`
	CompletedAt   sql.NullTime    `db:"completed_at"`
	Status        string          `db:"status"`
	Result        json.RawMessage `db:"result"`
	ErrorMessage  sql.NullString  `db:"error_message"`
}

// PlatformAssignment records a platform id handed out for a local entity
// during a sync run. Persisting these is what makes retries resume instead
// of re-creating entities.
type PlatformAssignment struct {
	EntityType string // campaign | ad_group | ad | keyword
	LocalID    string
	PlatformID string
}

type ConflictRecord struct {
	ID             string       `db:"id"`
	CampaignID     string       `db:"campaign_id"`
	PlatformID     string       `db:"platform_id"`
	Platform       string       `db:"platform"`
	Field          string       `db:"field"`
	LocalStatus    string       `db:"local_status"`
	PlatformStatus string       `db:"platform_status"`
	DetectedAt     time.Time    `db:"detected_at"`
	Resolved       bool         `db:"resolved"`
	ResolvedAt     sql.NullTime `db:"resolved_at"`
}
