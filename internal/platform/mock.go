package platform

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"campaign-sync-service/internal/campaign"
	"campaign-sync-service/internal/config"
	"campaign-sync-service/internal/logger"
)

const PlatformMock = "mock"

// MockAdapter is an in-memory platform used for tests and local
// development. It supports artificial latency, a random failure rate
// (0 = never fail, 1 = always fail) and a verbose logging mode, and hands
// out unique synthetic platform ids so repeated runs never collide.
type MockAdapter struct {
	latency     time.Duration
	failureRate float64
	verbose     bool

	mu        sync.Mutex
	rng       *rand.Rand
	campaigns map[string]PlatformCampaignStatus
}

func NewMockAdapter(cfg config.MockConfig) *MockAdapter {
	return &MockAdapter{
		latency:     cfg.GetLatency(),
		failureRate: cfg.FailureRate,
		verbose:     cfg.Verbose,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		campaigns:   make(map[string]PlatformCampaignStatus),
	}
}

func NewMockIntegration(cfg config.MockConfig) Integration {
	adapter := NewMockAdapter(cfg)
	return Integration{Adapter: adapter, Poller: adapter}
}

func (m *MockAdapter) Platform() string {
	return PlatformMock
}

// SeedCampaign installs a remote campaign snapshot so poll-side behavior
// (diffing, conflict detection) can be exercised without a prior create.
func (m *MockAdapter) SeedCampaign(status PlatformCampaignStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.campaigns[status.PlatformID] = status
}

func (m *MockAdapter) call(ctx context.Context, op, entity string) (EntityResult, error) {
	if m.latency > 0 {
		select {
		case <-time.After(m.latency):
		case <-ctx.Done():
			return EntityResult{}, ctx.Err()
		}
	}

	m.mu.Lock()
	fail := m.failureRate > 0 && m.rng.Float64() < m.failureRate
	m.mu.Unlock()

	if fail {
		if m.verbose {
			logger.Log.Info("Mock platform call failed",
				zap.String("op", op),
				zap.String("entity", entity),
			)
		}
		return EntityResult{Success: false, Error: fmt.Sprintf("mock %s failure", op)}, nil
	}

	id := "mock-" + uuid.New().String()
	if m.verbose {
		logger.Log.Info("Mock platform call succeeded",
			zap.String("op", op),
			zap.String("entity", entity),
			zap.String("platformId", id),
		)
	}
	return EntityResult{Success: true, PlatformID: id}, nil
}

func (m *MockAdapter) CreateCampaign(ctx context.Context, accountID string, c campaign.Campaign) (EntityResult, error) {
	result, err := m.call(ctx, "create", "campaign")
	if err != nil || !result.Success {
		return result, err
	}

	m.mu.Lock()
	m.campaigns[result.PlatformID] = PlatformCampaignStatus{
		PlatformID:   result.PlatformID,
		LocalID:      c.ID,
		Name:         c.Name,
		Status:       StatusActive,
		ContentHash:  c.ContentHash(),
		LastModified: time.Now().UTC(),
	}
	m.mu.Unlock()

	return result, nil
}

func (m *MockAdapter) UpdateCampaign(ctx context.Context, platformID string, c campaign.Campaign) (EntityResult, error) {
	result, err := m.call(ctx, "update", "campaign")
	if err != nil || !result.Success {
		return result, err
	}

	m.mu.Lock()
	if existing, ok := m.campaigns[platformID]; ok {
		existing.Name = c.Name
		existing.ContentHash = c.ContentHash()
		existing.LastModified = time.Now().UTC()
		m.campaigns[platformID] = existing
	}
	m.mu.Unlock()

	result.PlatformID = platformID
	return result, nil
}

func (m *MockAdapter) setCampaignStatus(platformID string, status CampaignStatus) {
	m.mu.Lock()
	if existing, ok := m.campaigns[platformID]; ok {
		existing.Status = status
		existing.LastModified = time.Now().UTC()
		m.campaigns[platformID] = existing
	}
	m.mu.Unlock()
}

func (m *MockAdapter) PauseCampaign(ctx context.Context, platformID string) (EntityResult, error) {
	result, err := m.call(ctx, "pause", "campaign")
	if err != nil || !result.Success {
		return result, err
	}
	m.setCampaignStatus(platformID, StatusPaused)
	result.PlatformID = platformID
	return result, nil
}

func (m *MockAdapter) ResumeCampaign(ctx context.Context, platformID string) (EntityResult, error) {
	result, err := m.call(ctx, "resume", "campaign")
	if err != nil || !result.Success {
		return result, err
	}
	m.setCampaignStatus(platformID, StatusActive)
	result.PlatformID = platformID
	return result, nil
}

func (m *MockAdapter) DeleteCampaign(ctx context.Context, platformID string) (EntityResult, error) {
	result, err := m.call(ctx, "delete", "campaign")
	if err != nil || !result.Success {
		return result, err
	}

	m.mu.Lock()
	delete(m.campaigns, platformID)
	m.mu.Unlock()

	result.PlatformID = platformID
	return result, nil
}

func (m *MockAdapter) CreateAdGroup(ctx context.Context, campaignPlatformID string, g campaign.AdGroup) (EntityResult, error) {
	return m.call(ctx, "create", "ad_group")
}

func (m *MockAdapter) UpdateAdGroup(ctx context.Context, platformID string, g campaign.AdGroup) (EntityResult, error) {
	return m.call(ctx, "update", "ad_group")
}

func (m *MockAdapter) DeleteAdGroup(ctx context.Context, platformID string) (EntityResult, error) {
	return m.call(ctx, "delete", "ad_group")
}

func (m *MockAdapter) CreateAd(ctx context.Context, adGroupPlatformID string, a campaign.Ad) (EntityResult, error) {
	return m.call(ctx, "create", "ad")
}

func (m *MockAdapter) UpdateAd(ctx context.Context, platformID string, a campaign.Ad) (EntityResult, error) {
	return m.call(ctx, "update", "ad")
}

func (m *MockAdapter) DeleteAd(ctx context.Context, platformID string) (EntityResult, error) {
	return m.call(ctx, "delete", "ad")
}

func (m *MockAdapter) CreateKeyword(ctx context.Context, adGroupPlatformID string, k campaign.Keyword) (EntityResult, error) {
	return m.call(ctx, "create", "keyword")
}

func (m *MockAdapter) DeleteKeyword(ctx context.Context, platformID string) (EntityResult, error) {
	return m.call(ctx, "delete", "keyword")
}

func (m *MockAdapter) GetCampaignStatus(ctx context.Context, platformCampaignID string) (*PlatformCampaignStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	status, ok := m.campaigns[platformCampaignID]
	if !ok {
		return nil, nil
	}
	return &status, nil
}

func (m *MockAdapter) ListCampaignStatuses(ctx context.Context, accountID string) ([]PlatformCampaignStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	statuses := make([]PlatformCampaignStatus, 0, len(m.campaigns))
	for _, status := range m.campaigns {
		statuses = append(statuses, status)
	}
	return statuses, nil
}
