package sync

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"campaign-sync-service/internal/campaign"
	"campaign-sync-service/internal/config"
	"campaign-sync-service/internal/logger"
	"campaign-sync-service/internal/platform"
	"campaign-sync-service/internal/store"
)

// Engine reconciles one campaign set against one platform: poll remote
// state, diff, sanitize outgoing ads through the strategy engine, then
// apply creates/updates/deletes gated by the platform's circuit breaker.
//
// A sync is sequential within one campaign set; concurrency happens across
// worker invocations, which is why the breaker registry is shared state.
// Partial failure never rolls back what succeeded: entities keep their new
// platform ids so the next retry resumes where this one stopped.
type Engine struct {
	registry *platform.Registry
	breakers *BreakerRegistry
	strategy *StrategyEngine
	detector *ConflictDetector
	diffOpts DiffOptions
	now      func() time.Time
}

func NewEngine(registry *platform.Registry, breakers *BreakerRegistry, cfg config.SyncConfig) *Engine {
	return &Engine{
		registry: registry,
		breakers: breakers,
		strategy: NewStrategyEngine(Strategy(cfg.Strategy), cfg.Truncation, cfg.FallbackAd, RedditLimits),
		detector: NewConflictDetector(),
		diffOpts: DiffOptions{
			IncludeDeleted: cfg.IncludeDeleted,
			IgnoreFields:   cfg.IgnoreFields,
		},
		now: time.Now,
	}
}

// syncPass carries the mutable state of one engine invocation.
type syncPass struct {
	job     JobPayload
	adapter platform.CampaignSetPlatformAdapter
	breaker *CircuitBreaker
	records map[string]*store.SyncRecord // by campaign id
	result  *ExtendedSyncResult
}

// SyncCampaignSet runs one reconcile-then-apply pass. The returned sync
// records reflect the new per-campaign status; persistence of records,
// assignments and the result is the caller's responsibility. A non-nil
// error means the whole pass could not run (unknown platform, open
// breaker, poll transport fault) and should feed the job retry machinery.
func (e *Engine) SyncCampaignSet(ctx context.Context, job JobPayload, locals []campaign.Campaign, records []*store.SyncRecord) (*ExtendedSyncResult, []*store.SyncRecord, error) {
	integration, err := e.registry.Resolve(job.Platform)
	if err != nil {
		return nil, nil, err
	}

	breaker := e.breakers.Get(job.Platform)
	if !breaker.CanExecute() {
		return nil, nil, fmt.Errorf("%w: platform %s", ErrCircuitOpen, job.Platform)
	}

	remotes, err := integration.Poller.ListCampaignStatuses(ctx, job.AdAccountID)
	if err != nil {
		breaker.RecordFailure()
		return nil, nil, fmt.Errorf("failed to poll %s campaigns: %w", job.Platform, err)
	}
	breaker.RecordSuccess()

	pass := &syncPass{
		job:     job,
		adapter: integration.Adapter,
		breaker: breaker,
		records: make(map[string]*store.SyncRecord, len(records)),
		result: &ExtendedSyncResult{
			SyncResult: SyncResult{
				CampaignSetID: job.CampaignSetID,
				Platform:      job.Platform,
				DryRun:        job.DryRun,
				StartedAt:     e.now().UTC(),
			},
		},
	}
	for _, record := range records {
		pass.records[record.CampaignID] = record
	}

	diff := ComputeDiff(locals, remotes, e.diffOpts)
	pass.result.Summary = diff.Summary

	updates := e.detectConflicts(pass, diff.ToUpdate)
	for _, local := range diff.ToCreate {
		e.createCampaign(ctx, pass, local)
	}
	for _, pair := range updates {
		e.updateCampaign(ctx, pass, pair)
	}
	for _, remote := range diff.ToDelete {
		e.deleteOrphan(ctx, pass, remote)
	}
	pass.result.Unchanged = len(diff.Unchanged)
	for _, local := range diff.Unchanged {
		e.markSynced(pass, local.ID, local.PlatformID)
	}

	pass.result.CompletedAt = e.now().UTC()

	logger.Log.Info("Campaign set sync pass finished",
		zap.String("campaignSet", job.CampaignSetID),
		zap.String("platform", job.Platform),
		zap.Bool("dryRun", job.DryRun),
		zap.Int("synced", pass.result.Synced),
		zap.Int("failed", pass.result.Failed),
		zap.Int("skippedAds", pass.result.SkippedAds),
		zap.Int("conflicts", len(pass.result.Conflicts)),
	)

	updated := make([]*store.SyncRecord, 0, len(pass.records))
	for _, record := range pass.records {
		updated = append(updated, record)
	}
	return pass.result, updated, nil
}

// detectConflicts walks the matched update pairs and returns the ones that
// still need an update call. A pair in conflict is pulled out of the apply
// phase; a stale-local pair loses to the platform silently and is synced
// back instead of pushed.
func (e *Engine) detectConflicts(pass *syncPass, pairs []UpdatePair) []UpdatePair {
	kept := make([]UpdatePair, 0, len(pairs))
	for _, pair := range pairs {
		record := pass.records[pair.Local.ID]
		var lastSyncedAt time.Time
		if record != nil && record.LastSyncedAt.Valid {
			lastSyncedAt = record.LastSyncedAt.Time
		}

		conflict, platformWins := e.detector.Detect(pair.Local, lastSyncedAt, pair.Remote)
		if conflict != nil {
			pass.result.Conflicts = append(pass.result.Conflicts, *conflict)
			e.record(pass, pair.Local.ID).SyncStatus = store.SyncConflict
			continue
		}
		if platformWins {
			pass.result.SyncedBack++
			e.markSynced(pass, pair.Local.ID, pair.Remote.PlatformID)
			continue
		}
		kept = append(kept, pair)
	}
	return kept
}

// record returns the sync record for a campaign, creating a pending one on
// first contact.
func (e *Engine) record(pass *syncPass, campaignID string) *store.SyncRecord {
	if record, ok := pass.records[campaignID]; ok {
		return record
	}
	record := &store.SyncRecord{
		CampaignID:    campaignID,
		CampaignSetID: pass.job.CampaignSetID,
		Platform:      pass.job.Platform,
		SyncStatus:    store.SyncPending,
	}
	pass.records[campaignID] = record
	return record
}

func (e *Engine) markSynced(pass *syncPass, campaignID, platformID string) {
	record := e.record(pass, campaignID)
	record.SyncStatus = store.SyncSynced
	if platformID != "" {
		record.PlatformID = sql.NullString{String: platformID, Valid: true}
	}
	record.LastSyncedAt = sql.NullTime{Time: e.now().UTC(), Valid: true}
	record.ErrorLog = sql.NullString{}
}

func (e *Engine) markFailed(pass *syncPass, campaignID, message string) {
	record := e.record(pass, campaignID)
	record.SyncStatus = store.SyncFailed
	record.ErrorLog = sql.NullString{String: message, Valid: true}
}
