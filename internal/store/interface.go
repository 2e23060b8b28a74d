package store

import (
	"context"
	"time"

	"campaign-sync-service/internal/campaign"
)

type Store interface {
	// Campaign hierarchy (read-only source of local truth)
	GetCampaignSet(ctx context.Context, campaignSetID string) ([]campaign.Campaign, error)

	// Sync records
	GetSyncRecords(ctx context.Context, campaignSetID, platform string) ([]*SyncRecord, error)
	UpsertSyncRecord(ctx context.Context, record *SyncRecord) error
	ApplyPlatformIDs(ctx context.Context, assignments []PlatformAssignment) error

	// Jobs
	EnqueueJob(ctx context.Context, job *SyncJob) error
	GetJob(ctx context.Context, id string) (*SyncJob, error)
	ClaimNextJob(ctx context.Context) (*SyncJob, error)
	CompleteJob(ctx context.Context, id string) error
	FailJob(ctx context.Context, id, errorLog string, retryCount int, nextRetryAt time.Time, permanent bool) error
	RequeueDueJobs(ctx context.Context, now time.Time) (int, error)

	// Runs
	CreateSyncRun(ctx context.Context, run *SyncRun) error
	CompleteSyncRun(ctx context.Context, run *SyncRun) error
	ListSyncRuns(ctx context.Context, limit, offset int) ([]*SyncRun, error)

	// Conflicts
	CreateConflict(ctx context.Context, conflict *ConflictRecord) error
	ListConflicts(ctx context.Context, resolved bool, limit, offset int) ([]*ConflictRecord, error)

	// General
	Close() error
}
