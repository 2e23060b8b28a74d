package sync

import (
	"time"

	"campaign-sync-service/internal/campaign"
	"campaign-sync-service/internal/platform"
)

const (
	ConflictFieldStatus = "status"
	ConflictFieldBudget = "budget"
	ConflictFieldOther  = "other"
)

// ConflictDetails records a local-vs-platform divergence that needs human
// or policy-driven resolution. A conflict is data, never an error.
type ConflictDetails struct {
	CampaignID     string    `json:"campaignId"`
	PlatformID     string    `json:"platformId"`
	DetectedAt     time.Time `json:"detectedAt"`
	LocalStatus    string    `json:"localStatus"`
	PlatformStatus string    `json:"platformStatus"`
	Field          string    `json:"field"` // status | budget | other
}

// ConflictDetector compares a matched local/platform pair. Bidirectional
// rule: a conflict is only recorded when local was modified after the last
// successful sync; stale local state loses to the platform silently
// (last-writer-wins with platform as the default winner).
type ConflictDetector struct {
	now func() time.Time
}

func NewConflictDetector() *ConflictDetector {
	return &ConflictDetector{now: time.Now}
}

// divergedField returns which field diverges, preferring status over
// budget over anything else.
func divergedField(local campaign.Campaign, remote platform.PlatformCampaignStatus) (string, bool) {
	if localStatusToPlatform(local.Status) != remote.Status {
		return ConflictFieldStatus, true
	}
	if remote.BudgetAmount != 0 && effectiveBudget(local) != remote.BudgetAmount {
		return ConflictFieldBudget, true
	}
	if remote.Name != "" && local.Name != remote.Name {
		return ConflictFieldOther, true
	}
	return "", false
}

// Detect returns the conflict for a matched pair, or nil together with
// whether the platform state should be adopted locally (sync-back).
func (d *ConflictDetector) Detect(local campaign.Campaign, lastSyncedAt time.Time, remote platform.PlatformCampaignStatus) (*ConflictDetails, bool) {
	field, diverged := divergedField(local, remote)
	if !diverged {
		return nil, false
	}

	localModifiedSinceSync := !lastSyncedAt.IsZero() && local.UpdatedAt.After(lastSyncedAt)
	if !localModifiedSinceSync {
		// Platform wins silently; the caller syncs the remote state back.
		return nil, true
	}

	return &ConflictDetails{
		CampaignID:     local.ID,
		PlatformID:     remote.PlatformID,
		DetectedAt:     d.now().UTC(),
		LocalStatus:    string(local.Status),
		PlatformStatus: string(remote.Status),
		Field:          field,
	}, false
}
