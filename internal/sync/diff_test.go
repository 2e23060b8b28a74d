package sync

import (
	"testing"

	"campaign-sync-service/internal/campaign"
	"campaign-sync-service/internal/platform"
)

func localCampaign(id, name string) campaign.Campaign {
	return campaign.Campaign{
		ID:            id,
		CampaignSetID: "set-1",
		Name:          name,
		Status:        campaign.StatusActive,
		DailyBudget:   50,
	}
}

func TestComputeDiff_NewCampaignToCreate(t *testing.T) {
	locals := []campaign.Campaign{localCampaign("c-1", "Promo")}

	result := ComputeDiff(locals, nil, DiffOptions{})
	if len(result.ToCreate) != 1 || result.ToCreate[0].ID != "c-1" {
		t.Fatalf("ToCreate = %+v, want [c-1]", result.ToCreate)
	}
	if result.Summary.CreateCount != 1 || result.Summary.EstimatedAPICalls != 1 {
		t.Errorf("summary = %+v", result.Summary)
	}
}

func TestComputeDiff_LocalIDMatchUnchanged(t *testing.T) {
	local := localCampaign("c-1", "Promo")
	remotes := []platform.PlatformCampaignStatus{{
		PlatformID:  "p-1",
		LocalID:     "c-1",
		Name:        "Promo",
		ContentHash: local.ContentHash(),
	}}

	result := ComputeDiff([]campaign.Campaign{local}, remotes, DiffOptions{})
	if len(result.Unchanged) != 1 {
		t.Fatalf("Unchanged = %+v, want [c-1]", result.Unchanged)
	}
	if len(result.ToCreate) != 0 || len(result.ToUpdate) != 0 {
		t.Errorf("unexpected work: create=%d update=%d", len(result.ToCreate), len(result.ToUpdate))
	}
	if result.Summary.EstimatedAPICalls != 0 {
		t.Errorf("unchanged campaign should cost no API calls, got %d", result.Summary.EstimatedAPICalls)
	}
}

func TestComputeDiff_LocalIDMatchContentDivergedToUpdate(t *testing.T) {
	local := localCampaign("c-1", "Promo v2")
	remotes := []platform.PlatformCampaignStatus{{
		PlatformID:  "p-1",
		LocalID:     "c-1",
		Name:        "Promo",
		ContentHash: "stale-hash",
	}}

	result := ComputeDiff([]campaign.Campaign{local}, remotes, DiffOptions{})
	if len(result.ToUpdate) != 1 {
		t.Fatalf("ToUpdate = %+v, want one pair", result.ToUpdate)
	}
	if result.ToUpdate[0].Remote.PlatformID != "p-1" {
		t.Errorf("matched wrong remote: %+v", result.ToUpdate[0].Remote)
	}
}

func TestComputeDiff_HashMatchAdoptsUnlinkedRemote(t *testing.T) {
	local := localCampaign("c-1", "Promo")
	remotes := []platform.PlatformCampaignStatus{{
		PlatformID:  "p-1",
		ContentHash: local.ContentHash(),
	}}

	result := ComputeDiff([]campaign.Campaign{local}, remotes, DiffOptions{})
	if len(result.Unchanged) != 1 {
		t.Fatalf("hash match not adopted: %+v", result)
	}
	if len(result.ToCreate) != 0 {
		t.Error("hash-matched campaign still scheduled for create")
	}
}

func TestComputeDiff_HashMatchNeverStealsLinkedRemote(t *testing.T) {
	// The remote is linked to a different local campaign; an identical
	// content hash on our side must not claim it.
	local := localCampaign("c-1", "Promo")
	remotes := []platform.PlatformCampaignStatus{{
		PlatformID:  "p-1",
		LocalID:     "c-other",
		ContentHash: local.ContentHash(),
	}}

	result := ComputeDiff([]campaign.Campaign{local}, remotes, DiffOptions{})
	if len(result.ToCreate) != 1 {
		t.Fatalf("expected create for c-1, got %+v", result)
	}
}

func TestComputeDiff_FirstMatchWins(t *testing.T) {
	a := localCampaign("c-1", "Promo")
	b := localCampaign("c-2", "Promo")
	b.Name = a.Name // identical content, identical hash

	remotes := []platform.PlatformCampaignStatus{{
		PlatformID:  "p-1",
		ContentHash: a.ContentHash(),
	}}

	result := ComputeDiff([]campaign.Campaign{a, b}, remotes, DiffOptions{})
	if len(result.Unchanged) != 1 || result.Unchanged[0].ID != "c-1" {
		t.Fatalf("first local should win the hash match: %+v", result.Unchanged)
	}
	if len(result.ToCreate) != 1 || result.ToCreate[0].ID != "c-2" {
		t.Fatalf("second local should fall through to create: %+v", result.ToCreate)
	}
}

func TestComputeDiff_DraftsNeverSync(t *testing.T) {
	draft := localCampaign("c-1", "Promo")
	draft.Status = campaign.StatusDraft

	result := ComputeDiff([]campaign.Campaign{draft}, nil, DiffOptions{})
	if len(result.ToCreate) != 0 {
		t.Fatalf("draft campaign scheduled for create: %+v", result.ToCreate)
	}
}

func TestComputeDiff_OrphansOnlyWithIncludeDeleted(t *testing.T) {
	remotes := []platform.PlatformCampaignStatus{{
		PlatformID: "p-orphan",
		LocalID:    "c-gone",
	}}

	withoutFlag := ComputeDiff(nil, remotes, DiffOptions{})
	if len(withoutFlag.ToDelete) != 0 {
		t.Errorf("orphan deleted without IncludeDeleted: %+v", withoutFlag.ToDelete)
	}

	withFlag := ComputeDiff(nil, remotes, DiffOptions{IncludeDeleted: true})
	if len(withFlag.ToDelete) != 1 || withFlag.ToDelete[0].PlatformID != "p-orphan" {
		t.Fatalf("ToDelete = %+v, want the orphan", withFlag.ToDelete)
	}
	if withFlag.Summary.DeleteCount != 1 || withFlag.Summary.EstimatedAPICalls != 1 {
		t.Errorf("summary = %+v", withFlag.Summary)
	}
}

func TestComputeDiff_IgnoreFieldsUsesFieldwiseComparison(t *testing.T) {
	local := localCampaign("c-1", "Promo")
	remote := platform.PlatformCampaignStatus{
		PlatformID:   "p-1",
		LocalID:      "c-1",
		Name:         "Promo",
		Status:       platform.StatusPaused, // platform-managed pause
		BudgetAmount: 50,
		ContentHash:  "different-hash",
	}

	// Exact hash comparison sees a change.
	strict := ComputeDiff([]campaign.Campaign{local}, []platform.PlatformCampaignStatus{remote}, DiffOptions{})
	if len(strict.ToUpdate) != 1 {
		t.Fatalf("strict comparison missed the divergence: %+v", strict)
	}

	// Ignoring status makes the pair equal field-wise.
	relaxed := ComputeDiff([]campaign.Campaign{local}, []platform.PlatformCampaignStatus{remote},
		DiffOptions{IgnoreFields: []string{"status"}})
	if len(relaxed.Unchanged) != 1 {
		t.Fatalf("ignored field still triggered an update: %+v", relaxed)
	}
}

func TestComputeDiff_Idempotent(t *testing.T) {
	locals := []campaign.Campaign{localCampaign("c-1", "Promo"), localCampaign("c-2", "Other")}
	remotes := []platform.PlatformCampaignStatus{{
		PlatformID:  "p-1",
		LocalID:     "c-1",
		ContentHash: locals[0].ContentHash(),
	}}
	opts := DiffOptions{IncludeDeleted: true}

	first := ComputeDiff(locals, remotes, opts)
	second := ComputeDiff(locals, remotes, opts)
	if first.Summary != second.Summary {
		t.Errorf("diff not deterministic: %+v vs %+v", first.Summary, second.Summary)
	}
}

func TestLocalStatusToPlatform(t *testing.T) {
	tests := []struct {
		in   campaign.Status
		want platform.CampaignStatus
	}{
		{campaign.StatusReady, platform.StatusActive},
		{campaign.StatusActive, platform.StatusActive},
		{campaign.StatusPaused, platform.StatusPaused},
		{campaign.StatusArchived, platform.StatusDeleted},
	}
	for _, tt := range tests {
		if got := localStatusToPlatform(tt.in); got != tt.want {
			t.Errorf("localStatusToPlatform(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
