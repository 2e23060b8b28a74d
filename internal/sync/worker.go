package sync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"campaign-sync-service/internal/config"
	"campaign-sync-service/internal/logger"
	"campaign-sync-service/internal/platform"
	"campaign-sync-service/internal/store"
)

const claimInterval = time.Second

// WorkerPool runs a fixed number of workers, each claiming one persisted
// sync job at a time. Each claimed job is one engine invocation; multiple
// campaign sets sync concurrently across workers while one campaign set
// stays sequential inside its job.
type WorkerPool struct {
	cfg    config.SyncConfig
	store  store.Store
	engine *Engine

	workers []*Worker
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewWorkerPool(cfg config.SyncConfig, st store.Store, engine *Engine) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	pool := &WorkerPool{
		cfg:     cfg,
		store:   st,
		engine:  engine,
		workers: make([]*Worker, workers),
		ctx:     ctx,
		cancel:  cancel,
	}
	for i := 0; i < workers; i++ {
		pool.workers[i] = newWorker(i, pool)
	}
	return pool
}

func (p *WorkerPool) Start() {
	logger.Log.Info("Starting worker pool", zap.Int("workers", len(p.workers)))
	for _, w := range p.workers {
		p.wg.Add(1)
		go w.run()
	}
}

func (p *WorkerPool) Stop() {
	p.cancel()
	p.wg.Wait()
	logger.Log.Info("Stopped worker pool")
}

type Worker struct {
	id   int
	pool *WorkerPool
}

func newWorker(id int, pool *WorkerPool) *Worker {
	return &Worker{id: id, pool: pool}
}

func (w *Worker) run() {
	defer w.pool.wg.Done()

	ticker := time.NewTicker(claimInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// Drain everything that is due before sleeping again.
			for {
				job, err := w.pool.store.ClaimNextJob(w.pool.ctx)
				if err != nil {
					logger.Log.Error("Failed to claim sync job",
						zap.Int("workerID", w.id),
						zap.Error(err),
					)
					break
				}
				if job == nil {
					break
				}
				w.process(job)

				select {
				case <-w.pool.ctx.Done():
					return
				default:
				}
			}

		case <-w.pool.ctx.Done():
			return
		}
	}
}

func (w *Worker) process(job *store.SyncJob) {
	ctx := w.pool.ctx

	logger.Log.Info("Processing sync job",
		zap.Int("workerID", w.id),
		zap.String("jobId", job.ID),
		zap.String("campaignSet", job.CampaignSetID),
		zap.String("platform", job.Platform),
	)

	payload := JobPayload{
		JobID:               job.ID,
		CampaignSetID:       job.CampaignSetID,
		TeamID:              job.TeamID,
		AdAccountID:         job.AdAccountID,
		Platform:            job.Platform,
		FundingInstrumentID: job.FundingInstrumentID.String,
		DryRun:              job.DryRun,
	}

	run := &store.SyncRun{
		ID:            uuid.New().String(),
		JobID:         job.ID,
		CampaignSetID: job.CampaignSetID,
		Platform:      job.Platform,
		StartedAt:     time.Now().UTC(),
		Status:        "running",
	}
	if err := w.pool.store.CreateSyncRun(ctx, run); err != nil {
		logger.Log.Error("Failed to create sync run", zap.Error(err))
	}

	locals, err := w.pool.store.GetCampaignSet(ctx, job.CampaignSetID)
	if err != nil {
		w.finishRun(ctx, run, "failed", nil, err)
		w.failJob(ctx, job, fmt.Errorf("failed to load campaign set: %w", err))
		return
	}

	records, err := w.pool.store.GetSyncRecords(ctx, job.CampaignSetID, job.Platform)
	if err != nil {
		w.finishRun(ctx, run, "failed", nil, err)
		w.failJob(ctx, job, fmt.Errorf("failed to load sync records: %w", err))
		return
	}

	result, updated, err := w.pool.engine.SyncCampaignSet(ctx, payload, locals, records)
	if err != nil {
		w.finishRun(ctx, run, "failed", nil, err)
		w.failJob(ctx, job, err)
		return
	}

	w.persistOutcome(ctx, job, result, updated)

	if result.Failed > 0 {
		w.finishRun(ctx, run, "partial", result, nil)
		w.failJob(ctx, job, fmt.Errorf("%d of %d campaigns failed", result.Failed, result.Failed+result.Synced))
		return
	}

	w.finishRun(ctx, run, "completed", result, nil)
	if err := w.pool.store.CompleteJob(ctx, job.ID); err != nil {
		logger.Log.Error("Failed to mark job completed", zap.Error(err))
	}
}

// persistOutcome writes back everything a run produced: platform id
// assignments, per-campaign sync records and detected conflicts. Best
// effort per item so one write failure doesn't lose the rest.
func (w *Worker) persistOutcome(ctx context.Context, job *store.SyncJob, result *ExtendedSyncResult, records []*store.SyncRecord) {
	if err := w.pool.store.ApplyPlatformIDs(ctx, result.Assignments); err != nil {
		logger.Log.Error("Failed to persist platform id assignments", zap.Error(err))
	}

	for _, record := range records {
		if record.ID == "" {
			record.ID = uuid.New().String()
		}
		if err := w.pool.store.UpsertSyncRecord(ctx, record); err != nil {
			logger.Log.Error("Failed to upsert sync record",
				zap.String("campaignId", record.CampaignID),
				zap.Error(err),
			)
		}
	}

	for _, conflict := range result.Conflicts {
		record := &store.ConflictRecord{
			ID:             uuid.New().String(),
			CampaignID:     conflict.CampaignID,
			PlatformID:     conflict.PlatformID,
			Platform:       job.Platform,
			Field:          conflict.Field,
			LocalStatus:    conflict.LocalStatus,
			PlatformStatus: conflict.PlatformStatus,
			DetectedAt:     conflict.DetectedAt,
		}
		if err := w.pool.store.CreateConflict(ctx, record); err != nil {
			logger.Log.Error("Failed to persist conflict",
				zap.String("campaignId", conflict.CampaignID),
				zap.Error(err),
			)
		}
	}
}

func (w *Worker) finishRun(ctx context.Context, run *store.SyncRun, status string, result *ExtendedSyncResult, runErr error) {
	run.Status = status
	run.CompletedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	if result != nil {
		if encoded, err := json.Marshal(result); err == nil {
			run.Result = encoded
		}
	}
	if runErr != nil {
		run.ErrorMessage = sql.NullString{String: runErr.Error(), Valid: true}
	}
	if err := w.pool.store.CompleteSyncRun(ctx, run); err != nil {
		logger.Log.Error("Failed to finish sync run", zap.Error(err))
	}
}

// failJob schedules the next retry with exponential backoff, or marks the
// job permanently failed once retries are exhausted or the failure cannot
// be retried at all.
func (w *Worker) failJob(ctx context.Context, job *store.SyncJob, cause error) {
	retryCount := job.RetryCount + 1
	permanent := retryCount > w.pool.cfg.MaxRetries || errors.Is(cause, platform.ErrNotRegistered)

	delay := w.pool.cfg.GetRetryBase() * (1 << uint(job.RetryCount))
	if maxDelay := w.pool.cfg.GetRetryMaxDelay(); delay > maxDelay {
		delay = maxDelay
	}
	nextRetryAt := time.Now().UTC().Add(delay)

	logger.Log.Warn("Sync job failed",
		zap.Int("workerID", w.id),
		zap.String("jobId", job.ID),
		zap.Int("retryCount", retryCount),
		zap.Bool("permanent", permanent),
		zap.Error(cause),
	)

	if err := w.pool.store.FailJob(ctx, job.ID, cause.Error(), retryCount, nextRetryAt, permanent); err != nil {
		logger.Log.Error("Failed to record job failure", zap.Error(err))
	}
}
