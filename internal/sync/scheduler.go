package sync

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"campaign-sync-service/internal/config"
	"campaign-sync-service/internal/logger"
	"campaign-sync-service/internal/store"
)

// Scheduler periodically moves failed jobs whose backoff has elapsed back
// into the queue. Jobs marked permanent_failure are never requeued.
type Scheduler struct {
	cfg     config.SchedulerConfig
	store   store.Store
	cron    *cron.Cron
	entryID cron.EntryID
}

func NewScheduler(cfg config.SchedulerConfig, st store.Store) *Scheduler {
	return &Scheduler{
		cfg:   cfg,
		store: st,
		cron:  cron.New(),
	}
}

func (s *Scheduler) Start() {
	if !s.cfg.Enabled {
		logger.Log.Info("Retry scheduler is disabled")
		return
	}

	logger.Log.Info("Starting retry scheduler", zap.String("interval", s.cfg.Interval))

	id, err := s.cron.AddFunc(s.cfg.Interval, func() {
		s.requeueDue()
	})
	if err != nil {
		logger.Log.Error("Failed to schedule retry requeue", zap.Error(err))
		return
	}

	s.entryID = id
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	logger.Log.Info("Stopped retry scheduler")
}

func (s *Scheduler) requeueDue() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	requeued, err := s.store.RequeueDueJobs(ctx, time.Now().UTC())
	if err != nil {
		logger.Log.Error("Failed to requeue due jobs", zap.Error(err))
		return
	}
	if requeued > 0 {
		logger.Log.Info("Requeued failed sync jobs", zap.Int("count", requeued))
	}
}
