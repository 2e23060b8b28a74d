package sync

import (
	"fmt"

	"campaign-sync-service/internal/campaign"
)

// FieldLimits are the per-platform string length ceilings, inclusive.
type FieldLimits struct {
	Name        int
	Headline    int
	Description int
	DisplayURL  int
	KeywordText int
}

// RedditLimits matches the Reddit Ads field constraints.
var RedditLimits = FieldLimits{
	Name:        255,
	Headline:    100,
	Description: 500,
	DisplayURL:  25,
	KeywordText: 80,
}

// redditCallToActions is the Reddit CTA allow-list in normalized form.
var redditCallToActions = []string{
	"LEARN_MORE",
	"SHOP_NOW",
	"SIGN_UP",
	"DOWNLOAD",
	"INSTALL",
	"CONTACT_US",
	"GET_A_QUOTE",
	"ORDER_NOW",
	"PLAY_NOW",
	"VIEW_MORE",
}

var keywordMatchTypes = []string{"BROAD", "PHRASE", "EXACT"}

// ValidationContext supplies the known parent ids for cross-entity
// dependency checks. A nil context skips those checks.
type ValidationContext struct {
	ValidCampaignIDs map[string]struct{}
	ValidAdGroupIDs  map[string]struct{}
}

// Validators bundles the per-entity validators for one platform's limits.
type Validators struct {
	Ad       *AdValidator
	AdGroup  *AdGroupValidator
	Campaign *CampaignValidator
	Keyword  *KeywordValidator
}

func NewValidators(limits FieldLimits) *Validators {
	return &Validators{
		Ad:       &AdValidator{limits: limits},
		AdGroup:  &AdGroupValidator{limits: limits},
		Campaign: &CampaignValidator{limits: limits},
		Keyword:  &KeywordValidator{limits: limits},
	}
}

// stamp fills in the entity identification on a helper-produced error.
func stamp(err *ValidationError, entityType, entityID, entityName string) ValidationError {
	err.EntityType = entityType
	err.EntityID = entityID
	err.EntityName = entityName
	return *err
}

// AdValidator validates one ad against platform constraints. All
// applicable errors are accumulated in a single pass; callers must not
// assume at most one error per entity.
type AdValidator struct {
	limits FieldLimits
}

func (v *AdValidator) Validate(ad campaign.Ad, vctx *ValidationContext) []ValidationError {
	var errs []ValidationError

	if err := validateRequiredURLField("click_url", ad.FinalURL); err != nil {
		errs = append(errs, stamp(err, "ad", ad.ID, ad.Name))
	}

	if err := validateMaxLength("headline", ad.Headline, v.limits.Headline); err != nil {
		errs = append(errs, stamp(err, "ad", ad.ID, ad.Name))
	}

	// Optional fields are only validated when present.
	if ad.Description != "" {
		if err := validateMaxLength("description", ad.Description, v.limits.Description); err != nil {
			errs = append(errs, stamp(err, "ad", ad.ID, ad.Name))
		}
	}
	if ad.DisplayURL != "" {
		if err := validateMaxLength("display_url", ad.DisplayURL, v.limits.DisplayURL); err != nil {
			errs = append(errs, stamp(err, "ad", ad.ID, ad.Name))
		}
	}
	if ad.CallToAction != "" {
		if err := validateEnumField("call_to_action", ad.CallToAction, redditCallToActions); err != nil {
			errs = append(errs, stamp(err, "ad", ad.ID, ad.Name))
		}
	}

	if vctx != nil && vctx.ValidAdGroupIDs != nil {
		if _, ok := vctx.ValidAdGroupIDs[ad.AdGroupID]; !ok {
			errs = append(errs, ValidationError{
				EntityType: "ad",
				EntityID:   ad.ID,
				EntityName: ad.Name,
				Field:      "ad_group_id",
				Code:       CodeMissingDependency,
				Message:    fmt.Sprintf("ad references unknown ad group %q", ad.AdGroupID),
				Value:      ad.AdGroupID,
			})
		}
	}

	return errs
}

type AdGroupValidator struct {
	limits FieldLimits
}

func (v *AdGroupValidator) Validate(group campaign.AdGroup, vctx *ValidationContext) []ValidationError {
	var errs []ValidationError

	if group.Name == "" {
		errs = append(errs, ValidationError{
			EntityType: "ad_group",
			EntityID:   group.ID,
			Field:      "name",
			Code:       CodeRequiredField,
			Message:    "name is required",
		})
	} else if err := validateMaxLength("name", group.Name, v.limits.Name); err != nil {
		errs = append(errs, stamp(err, "ad_group", group.ID, group.Name))
	}

	if group.BidAmount < 0 {
		errs = append(errs, ValidationError{
			EntityType: "ad_group",
			EntityID:   group.ID,
			EntityName: group.Name,
			Field:      "bid_amount",
			Code:       CodeConstraintViolation,
			Message:    "bid amount must not be negative",
			Value:      fmt.Sprintf("%v", group.BidAmount),
		})
	}

	startValid, endValid := true, true
	if group.StartTime != "" {
		if err := validateDateTimeField("start_time", group.StartTime); err != nil {
			errs = append(errs, stamp(err, "ad_group", group.ID, group.Name))
			startValid = false
		}
	}
	if group.EndTime != "" {
		if err := validateDateTimeField("end_time", group.EndTime); err != nil {
			errs = append(errs, stamp(err, "ad_group", group.ID, group.Name))
			endValid = false
		}
	}
	if group.StartTime != "" && group.EndTime != "" && startValid && endValid {
		if err := validateDateTimeRange("start_time", "end_time", group.StartTime, group.EndTime); err != nil {
			errs = append(errs, stamp(err, "ad_group", group.ID, group.Name))
		}
	}

	if vctx != nil && vctx.ValidCampaignIDs != nil {
		if _, ok := vctx.ValidCampaignIDs[group.CampaignID]; !ok {
			errs = append(errs, ValidationError{
				EntityType: "ad_group",
				EntityID:   group.ID,
				EntityName: group.Name,
				Field:      "campaign_id",
				Code:       CodeMissingDependency,
				Message:    fmt.Sprintf("ad group references unknown campaign %q", group.CampaignID),
				Value:      group.CampaignID,
			})
		}
	}

	return errs
}

type CampaignValidator struct {
	limits FieldLimits
}

func (v *CampaignValidator) Validate(camp campaign.Campaign, vctx *ValidationContext) []ValidationError {
	var errs []ValidationError

	if camp.Name == "" {
		errs = append(errs, ValidationError{
			EntityType: "campaign",
			EntityID:   camp.ID,
			Field:      "name",
			Code:       CodeRequiredField,
			Message:    "name is required",
		})
	} else if err := validateMaxLength("name", camp.Name, v.limits.Name); err != nil {
		errs = append(errs, stamp(err, "campaign", camp.ID, camp.Name))
	}

	if camp.DailyBudget < 0 {
		errs = append(errs, ValidationError{
			EntityType: "campaign",
			EntityID:   camp.ID,
			EntityName: camp.Name,
			Field:      "daily_budget",
			Code:       CodeConstraintViolation,
			Message:    "daily budget must not be negative",
			Value:      fmt.Sprintf("%v", camp.DailyBudget),
		})
	}
	if camp.LifetimeBudget < 0 {
		errs = append(errs, ValidationError{
			EntityType: "campaign",
			EntityID:   camp.ID,
			EntityName: camp.Name,
			Field:      "lifetime_budget",
			Code:       CodeConstraintViolation,
			Message:    "lifetime budget must not be negative",
			Value:      fmt.Sprintf("%v", camp.LifetimeBudget),
		})
	}

	startValid, endValid := true, true
	if camp.StartTime != "" {
		if err := validateDateTimeField("start_time", camp.StartTime); err != nil {
			errs = append(errs, stamp(err, "campaign", camp.ID, camp.Name))
			startValid = false
		}
	}
	if camp.EndTime != "" {
		if err := validateDateTimeField("end_time", camp.EndTime); err != nil {
			errs = append(errs, stamp(err, "campaign", camp.ID, camp.Name))
			endValid = false
		}
	}
	if camp.StartTime != "" && camp.EndTime != "" && startValid && endValid {
		if err := validateDateTimeRange("start_time", "end_time", camp.StartTime, camp.EndTime); err != nil {
			errs = append(errs, stamp(err, "campaign", camp.ID, camp.Name))
		}
	}

	return errs
}

type KeywordValidator struct {
	limits FieldLimits
}

func (v *KeywordValidator) Validate(keyword campaign.Keyword, vctx *ValidationContext) []ValidationError {
	var errs []ValidationError

	if keyword.Text == "" {
		errs = append(errs, ValidationError{
			EntityType: "keyword",
			EntityID:   keyword.ID,
			Field:      "text",
			Code:       CodeRequiredField,
			Message:    "text is required",
		})
	} else if err := validateMaxLength("text", keyword.Text, v.limits.KeywordText); err != nil {
		errs = append(errs, stamp(err, "keyword", keyword.ID, keyword.Text))
	}

	if keyword.MatchType != "" {
		if err := validateEnumField("match_type", keyword.MatchType, keywordMatchTypes); err != nil {
			errs = append(errs, stamp(err, "keyword", keyword.ID, keyword.Text))
		}
	}

	if keyword.Bid < 0 {
		errs = append(errs, ValidationError{
			EntityType: "keyword",
			EntityID:   keyword.ID,
			EntityName: keyword.Text,
			Field:      "bid",
			Code:       CodeConstraintViolation,
			Message:    "bid must not be negative",
			Value:      fmt.Sprintf("%v", keyword.Bid),
		})
	}

	if vctx != nil && vctx.ValidAdGroupIDs != nil {
		if _, ok := vctx.ValidAdGroupIDs[keyword.AdGroupID]; !ok {
			errs = append(errs, ValidationError{
				EntityType: "keyword",
				EntityID:   keyword.ID,
				EntityName: keyword.Text,
				Field:      "ad_group_id",
				Code:       CodeMissingDependency,
				Message:    fmt.Sprintf("keyword references unknown ad group %q", keyword.AdGroupID),
				Value:      keyword.AdGroupID,
			})
		}
	}

	return errs
}
