package sync

import (
	"campaign-sync-service/internal/campaign"
	"campaign-sync-service/internal/platform"
)

type DiffOptions struct {
	// IncludeDeleted emits platform campaigns with no local counterpart
	// (orphans) as ToDelete.
	IncludeDeleted bool
	// IgnoreFields switches matched-pair comparison from exact hash
	// equality to field-wise comparison that skips the named fields
	// (for platform-managed fields that must not look like local edits).
	IgnoreFields []string
}

type UpdatePair struct {
	Local  campaign.Campaign               `json:"local"`
	Remote platform.PlatformCampaignStatus `json:"remote"`
}

type DiffSummary struct {
	CreateCount       int `json:"createCount"`
	UpdateCount       int `json:"updateCount"`
	DeleteCount       int `json:"deleteCount"`
	UnchangedCount    int `json:"unchangedCount"`
	EstimatedAPICalls int `json:"estimatedApiCalls"`
}

// DiffResult is computed fresh on every sync attempt and never cached
// across runs, because platform state can change between runs.
type DiffResult struct {
	ToCreate  []campaign.Campaign               `json:"toCreate"`
	ToUpdate  []UpdatePair                      `json:"toUpdate"`
	ToDelete  []platform.PlatformCampaignStatus `json:"toDelete"`
	Unchanged []campaign.Campaign               `json:"unchanged"`
	Summary   DiffSummary                       `json:"summary"`
}

// localStatusToPlatform maps the local lifecycle status onto the remote
// vocabulary for field-wise comparison. Ready campaigns go live on create,
// so they compare as active.
func localStatusToPlatform(s campaign.Status) platform.CampaignStatus {
	switch s {
	case campaign.StatusActive, campaign.StatusReady:
		return platform.StatusActive
	case campaign.StatusPaused:
		return platform.StatusPaused
	case campaign.StatusArchived:
		return platform.StatusDeleted
	default:
		return platform.StatusError
	}
}

func effectiveBudget(c campaign.Campaign) float64 {
	if c.DailyBudget > 0 {
		return c.DailyBudget
	}
	return c.LifetimeBudget
}

// comparableFields builds the field-wise views of both sides. Only fields
// the platform echoes back can participate.
func comparableFields(local campaign.Campaign, remote platform.PlatformCampaignStatus) (map[string]interface{}, map[string]interface{}) {
	localView := map[string]interface{}{
		"name":   local.Name,
		"status": localStatusToPlatform(local.Status),
		"budget": effectiveBudget(local),
	}
	remoteView := map[string]interface{}{
		"name":   remote.Name,
		"status": remote.Status,
		"budget": remote.BudgetAmount,
	}
	return localView, remoteView
}

func fieldsEqual(local campaign.Campaign, remote platform.PlatformCampaignStatus, ignore []string) bool {
	ignored := make(map[string]struct{}, len(ignore))
	for _, field := range ignore {
		ignored[field] = struct{}{}
	}

	localView, remoteView := comparableFields(local, remote)
	for field, localValue := range localView {
		if _, skip := ignored[field]; skip {
			continue
		}
		if localValue != remoteView[field] {
			return false
		}
	}
	return true
}

// ComputeDiff reconciles local campaign state against a polled platform
// snapshot. Matching is by localId back-reference first (authoritative
// even when content has diverged), then by content hash for campaigns the
// platform has no back-reference for. Draft campaigns are never synced.
// First successful match wins a platform id; later campaigns cannot
// re-claim it, and a hash match never overrides a different existing
// localId association.
func ComputeDiff(locals []campaign.Campaign, remotes []platform.PlatformCampaignStatus, opts DiffOptions) DiffResult {
	byLocalID := make(map[string]int)
	byHash := make(map[string]int)
	for i, remote := range remotes {
		if remote.LocalID != "" {
			byLocalID[remote.LocalID] = i
		} else if remote.ContentHash != "" {
			if _, exists := byHash[remote.ContentHash]; !exists {
				byHash[remote.ContentHash] = i
			}
		}
	}

	matched := make(map[string]struct{}, len(remotes))
	result := DiffResult{}

	for _, local := range locals {
		if local.Status == campaign.StatusDraft {
			continue
		}

		remoteIdx, found := byLocalID[local.ID]
		if !found {
			remoteIdx, found = byHash[local.ContentHash()]
		}
		if found {
			if _, taken := matched[remotes[remoteIdx].PlatformID]; taken {
				found = false
			}
		}

		if !found {
			result.ToCreate = append(result.ToCreate, local)
			continue
		}

		remote := remotes[remoteIdx]
		matched[remote.PlatformID] = struct{}{}

		var equal bool
		if len(opts.IgnoreFields) > 0 {
			equal = fieldsEqual(local, remote, opts.IgnoreFields)
		} else {
			equal = local.ContentHash() == remote.ContentHash
		}

		if equal {
			result.Unchanged = append(result.Unchanged, local)
		} else {
			result.ToUpdate = append(result.ToUpdate, UpdatePair{Local: local, Remote: remote})
		}
	}

	if opts.IncludeDeleted {
		for _, remote := range remotes {
			if _, ok := matched[remote.PlatformID]; !ok {
				result.ToDelete = append(result.ToDelete, remote)
			}
		}
	}

	result.Summary = DiffSummary{
		CreateCount:    len(result.ToCreate),
		UpdateCount:    len(result.ToUpdate),
		DeleteCount:    len(result.ToDelete),
		UnchangedCount: len(result.Unchanged),
	}
	// Unchanged entries cost nothing.
	result.Summary.EstimatedAPICalls = result.Summary.CreateCount +
		result.Summary.UpdateCount + result.Summary.DeleteCount

	return result
}
