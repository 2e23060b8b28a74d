package sync

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"campaign-sync-service/internal/config"
	"campaign-sync-service/internal/logger"
	"campaign-sync-service/internal/platform"
	"campaign-sync-service/internal/store"
)

// Manager owns the sync engine, the per-platform circuit breakers and the
// worker pool that drains the persisted job queue.
type Manager struct {
	cfg      *config.Config
	store    store.Store
	engine   *Engine
	breakers *BreakerRegistry
	pool     *WorkerPool

	mu     sync.Mutex
	status string
}

func NewManager(cfg *config.Config, st store.Store, registry *platform.Registry) *Manager {
	breakers := NewBreakerRegistry(cfg.Breaker)
	engine := NewEngine(registry, breakers, cfg.Sync)

	return &Manager{
		cfg:      cfg,
		store:    st,
		engine:   engine,
		breakers: breakers,
		pool:     NewWorkerPool(cfg.Sync, st, engine),
		status:   "idle",
	}
}

func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status == "running" {
		return fmt.Errorf("sync is already running")
	}

	logger.Log.Info("Starting sync manager")
	m.pool.Start()
	m.status = "running"
	return nil
}

func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != "running" {
		return
	}

	logger.Log.Info("Stopping sync manager")
	m.pool.Stop()
	m.status = "idle"
}

func (m *Manager) GetStatus() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Breakers exposes circuit breaker stats for the admin API.
func (m *Manager) Breakers() *BreakerRegistry {
	return m.breakers
}

// EnqueueSync persists a new queued sync job and returns its id.
func (m *Manager) EnqueueSync(ctx context.Context, payload JobPayload) (string, error) {
	if payload.CampaignSetID == "" {
		return "", fmt.Errorf("campaignSetId is required")
	}
	if payload.Platform == "" {
		return "", fmt.Errorf("platform is required")
	}

	job := &store.SyncJob{
		ID:            uuid.New().String(),
		CampaignSetID: payload.CampaignSetID,
		TeamID:        payload.TeamID,
		AdAccountID:   payload.AdAccountID,
		Platform:      payload.Platform,
		DryRun:        payload.DryRun,
		Status:        store.JobQueued,
	}
	if payload.FundingInstrumentID != "" {
		job.FundingInstrumentID = sql.NullString{String: payload.FundingInstrumentID, Valid: true}
	}

	if err := m.store.EnqueueJob(ctx, job); err != nil {
		return "", fmt.Errorf("failed to enqueue sync job: %w", err)
	}

	logger.Log.Info("Enqueued sync job",
		zap.String("jobId", job.ID),
		zap.String("campaignSet", job.CampaignSetID),
		zap.String("platform", job.Platform),
		zap.Bool("dryRun", job.DryRun),
	)
	return job.ID, nil
}
