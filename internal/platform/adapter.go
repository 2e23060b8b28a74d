package platform

import (
	"context"
	"fmt"
	"sync"

	"campaign-sync-service/internal/campaign"
)

// CampaignSetPlatformAdapter executes writes against one ad platform. Every
// method returns an EntityResult for API-level outcomes; a non-nil error
// means a transport-level fault (network, auth) and feeds the circuit
// breaker and job retry machinery.
type CampaignSetPlatformAdapter interface {
	Platform() string

	CreateCampaign(ctx context.Context, accountID string, c campaign.Campaign) (EntityResult, error)
	UpdateCampaign(ctx context.Context, platformID string, c campaign.Campaign) (EntityResult, error)
	PauseCampaign(ctx context.Context, platformID string) (EntityResult, error)
	ResumeCampaign(ctx context.Context, platformID string) (EntityResult, error)
	DeleteCampaign(ctx context.Context, platformID string) (EntityResult, error)

	CreateAdGroup(ctx context.Context, campaignPlatformID string, g campaign.AdGroup) (EntityResult, error)
	UpdateAdGroup(ctx context.Context, platformID string, g campaign.AdGroup) (EntityResult, error)
	DeleteAdGroup(ctx context.Context, platformID string) (EntityResult, error)

	CreateAd(ctx context.Context, adGroupPlatformID string, a campaign.Ad) (EntityResult, error)
	UpdateAd(ctx context.Context, platformID string, a campaign.Ad) (EntityResult, error)
	DeleteAd(ctx context.Context, platformID string) (EntityResult, error)

	CreateKeyword(ctx context.Context, adGroupPlatformID string, k campaign.Keyword) (EntityResult, error)
	DeleteKeyword(ctx context.Context, platformID string) (EntityResult, error)
}

// PlatformPoller fetches normalized remote campaign state. A (nil, nil)
// return from GetCampaignStatus means the campaign was deleted on the
// platform; transient fetch errors must propagate as errors, never as nil.
type PlatformPoller interface {
	GetCampaignStatus(ctx context.Context, platformCampaignID string) (*PlatformCampaignStatus, error)
	ListCampaignStatuses(ctx context.Context, accountID string) ([]PlatformCampaignStatus, error)
}

// Integration bundles the adapter and poller a platform must provide to
// plug into the sync engine.
type Integration struct {
	Adapter CampaignSetPlatformAdapter
	Poller  PlatformPoller
}

// Registry maps platform identifiers to integrations. It is resolved once
// per sync job, so a new platform only needs to register here.
type Registry struct {
	mu           sync.RWMutex
	integrations map[string]Integration
}

func NewRegistry() *Registry {
	return &Registry{
		integrations: make(map[string]Integration),
	}
}

func (r *Registry) Register(name string, integration Integration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.integrations[name] = integration
}

func (r *Registry) Resolve(name string) (Integration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	integration, ok := r.integrations[name]
	if !ok {
		return Integration{}, fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}
	return integration, nil
}

func (r *Registry) Platforms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.integrations))
	for name := range r.integrations {
		names = append(names, name)
	}
	return names
}
