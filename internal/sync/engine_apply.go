package sync

import (
	"context"
	"database/sql"

	"campaign-sync-service/internal/campaign"
	"campaign-sync-service/internal/platform"
	"campaign-sync-service/internal/store"
)

// execute runs one adapter operation behind the circuit breaker. Exactly
// one breaker report happens per attempt: transport faults record a
// failure, everything the platform answered records a success. The bool
// reports whether the operation succeeded at the API level.
func (e *Engine) execute(pass *syncPass, campaignID, entityType, entityID, op string, fn func() (platform.EntityResult, error)) (platform.EntityResult, bool) {
	if !pass.breaker.CanExecute() {
		pass.result.Errors = append(pass.result.Errors, CampaignError{
			CampaignID:  campaignID,
			EntityType:  entityType,
			EntityID:    entityID,
			Operation:   op,
			Error:       ErrCircuitOpen.Error(),
			Retryable:   true,
			CircuitOpen: true,
		})
		return platform.EntityResult{}, false
	}

	result, err := fn()
	if err != nil {
		pass.breaker.RecordFailure()
		pass.result.Errors = append(pass.result.Errors, CampaignError{
			CampaignID: campaignID,
			EntityType: entityType,
			EntityID:   entityID,
			Operation:  op,
			Error:      err.Error(),
			Retryable:  true,
		})
		return platform.EntityResult{}, false
	}

	pass.breaker.RecordSuccess()
	if !result.Success {
		// Semantic API error (duplicate name, ...): recorded per entity,
		// siblings keep processing, breaker health unaffected.
		pass.result.Errors = append(pass.result.Errors, CampaignError{
			CampaignID: campaignID,
			EntityType: entityType,
			EntityID:   entityID,
			Operation:  op,
			Error:      result.Error,
			Retryable:  false,
		})
		return result, false
	}

	return result, true
}

// sanitizeCampaign runs every ad through the strategy engine, dropping
// skipped ads from the outgoing copy and tallying the strategy counters.
func (e *Engine) sanitizeCampaign(pass *syncPass, local campaign.Campaign) campaign.Campaign {
	vctx := &ValidationContext{
		ValidCampaignIDs: map[string]struct{}{local.ID: {}},
		ValidAdGroupIDs:  make(map[string]struct{}, len(local.AdGroups)),
	}
	for _, group := range local.AdGroups {
		vctx.ValidAdGroupIDs[group.ID] = struct{}{}
	}

	sanitized := local
	sanitized.AdGroups = make([]campaign.AdGroup, 0, len(local.AdGroups))
	for _, group := range local.AdGroups {
		groupCopy := group
		groupCopy.Ads = make([]campaign.Ad, 0, len(group.Ads))
		groupCopy.Keywords = append([]campaign.Keyword(nil), group.Keywords...)

		for _, ad := range group.Ads {
			outcome := e.strategy.Apply(ad, local.ID, vctx)
			if outcome.Action == ActionSkip {
				pass.result.SkippedAds++
				if outcome.Skipped != nil {
					pass.result.SkippedAdRecords = append(pass.result.SkippedAdRecords, *outcome.Skipped)
				}
				continue
			}
			if outcome.WasTruncated {
				pass.result.Truncated++
			}
			if outcome.UsedFallback {
				pass.result.FallbacksUsed++
			}
			groupCopy.Ads = append(groupCopy.Ads, outcome.Ad)
		}

		sanitized.AdGroups = append(sanitized.AdGroups, groupCopy)
	}

	return sanitized
}

func (e *Engine) assign(pass *syncPass, entityType, localID, platformID string) {
	pass.result.Assignments = append(pass.result.Assignments, store.PlatformAssignment{
		EntityType: entityType,
		LocalID:    localID,
		PlatformID: platformID,
	})
}

func (e *Engine) createCampaign(ctx context.Context, pass *syncPass, local campaign.Campaign) {
	sanitized := e.sanitizeCampaign(pass, local)

	if pass.job.DryRun {
		pass.result.Synced++
		return
	}

	result, ok := e.execute(pass, local.ID, "campaign", local.ID, "create", func() (platform.EntityResult, error) {
		return pass.adapter.CreateCampaign(ctx, pass.job.AdAccountID, sanitized)
	})
	if !ok {
		e.markFailed(pass, local.ID, lastError(pass))
		pass.result.Failed++
		return
	}

	e.assign(pass, "campaign", local.ID, result.PlatformID)
	record := e.record(pass, local.ID)
	record.PlatformID = sql.NullString{String: result.PlatformID, Valid: true}

	if e.ensureChildren(ctx, pass, &sanitized, result.PlatformID) {
		e.markSynced(pass, local.ID, result.PlatformID)
		pass.result.Synced++
	} else {
		// Mixed success: created children keep their platform ids, the
		// retry builds on them instead of starting over.
		e.markFailed(pass, local.ID, lastError(pass))
		pass.result.Failed++
	}
}

func (e *Engine) updateCampaign(ctx context.Context, pass *syncPass, pair UpdatePair) {
	sanitized := e.sanitizeCampaign(pass, pair.Local)
	platformID := pair.Remote.PlatformID

	if pass.job.DryRun {
		pass.result.Synced++
		return
	}

	// A hash-matched campaign has no local back-reference yet; claiming
	// the platform id here is what upgrades it to an authoritative link.
	if pair.Local.PlatformID == "" {
		e.assign(pass, "campaign", pair.Local.ID, platformID)
	}

	_, ok := e.execute(pass, pair.Local.ID, "campaign", pair.Local.ID, "update", func() (platform.EntityResult, error) {
		return pass.adapter.UpdateCampaign(ctx, platformID, sanitized)
	})
	if !ok {
		e.markFailed(pass, pair.Local.ID, lastError(pass))
		pass.result.Failed++
		return
	}

	if e.ensureChildren(ctx, pass, &sanitized, platformID) {
		e.markSynced(pass, pair.Local.ID, platformID)
		pass.result.Synced++
	} else {
		e.markFailed(pass, pair.Local.ID, lastError(pass))
		pass.result.Failed++
	}
}

func (e *Engine) deleteOrphan(ctx context.Context, pass *syncPass, remote platform.PlatformCampaignStatus) {
	if pass.job.DryRun {
		pass.result.Deleted++
		return
	}

	_, ok := e.execute(pass, remote.LocalID, "campaign", remote.PlatformID, "delete", func() (platform.EntityResult, error) {
		return pass.adapter.DeleteCampaign(ctx, remote.PlatformID)
	})
	if ok {
		pass.result.Deleted++
	}
}

// ensureChildren creates every child entity that doesn't have a platform
// id yet. Failures don't stop sibling processing; the return value
// reports whether everything under the campaign is now in place.
func (e *Engine) ensureChildren(ctx context.Context, pass *syncPass, camp *campaign.Campaign, campaignPlatformID string) bool {
	allOK := true

	for i := range camp.AdGroups {
		group := &camp.AdGroups[i]

		if group.PlatformID == "" {
			result, ok := e.execute(pass, camp.ID, "ad_group", group.ID, "create", func() (platform.EntityResult, error) {
				return pass.adapter.CreateAdGroup(ctx, campaignPlatformID, *group)
			})
			if !ok {
				allOK = false
				continue
			}
			group.PlatformID = result.PlatformID
			e.assign(pass, "ad_group", group.ID, result.PlatformID)
		}

		for j := range group.Ads {
			ad := &group.Ads[j]
			if ad.PlatformID != "" {
				continue
			}
			result, ok := e.execute(pass, camp.ID, "ad", ad.ID, "create", func() (platform.EntityResult, error) {
				return pass.adapter.CreateAd(ctx, group.PlatformID, *ad)
			})
			if !ok {
				allOK = false
				continue
			}
			ad.PlatformID = result.PlatformID
			e.assign(pass, "ad", ad.ID, result.PlatformID)
		}

		for j := range group.Keywords {
			keyword := &group.Keywords[j]
			if keyword.PlatformID != "" {
				continue
			}
			result, ok := e.execute(pass, camp.ID, "keyword", keyword.ID, "create", func() (platform.EntityResult, error) {
				return pass.adapter.CreateKeyword(ctx, group.PlatformID, *keyword)
			})
			if !ok {
				allOK = false
				continue
			}
			keyword.PlatformID = result.PlatformID
			e.assign(pass, "keyword", keyword.ID, result.PlatformID)
		}
	}

	return allOK
}

// lastError returns the message of the most recent per-entity error for
// the sync record's error log.
func lastError(pass *syncPass) string {
	if len(pass.result.Errors) == 0 {
		return ""
	}
	return pass.result.Errors[len(pass.result.Errors)-1].Error
}
