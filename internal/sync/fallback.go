package sync

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"campaign-sync-service/internal/campaign"
	"campaign-sync-service/internal/config"
)

type Strategy string

const (
	StrategySkip        Strategy = "skip"
	StrategyTruncate    Strategy = "truncate"
	StrategyUseFallback Strategy = "use_fallback"
)

const (
	ActionSync = "sync"
	ActionSkip = "skip"
)

// SkippedAdRecord is surfaced verbatim to the reporting layer (skipped-ads
// review panel); field names are a contract with that UI.
type SkippedAdRecord struct {
	AdID       string         `json:"adId"`
	AdGroupID  string         `json:"adGroupId"`
	CampaignID string         `json:"campaignId"`
	Reason     string         `json:"reason"`
	Fields     []string       `json:"fields"`
	Overflow   map[string]int `json:"overflow"`
	OriginalAd campaign.Ad    `json:"originalAd"`
	SkippedAt  string         `json:"skippedAt"`
}

// StrategyResult is the per-ad outcome of a strategy pass. Action is
// "sync" (Ad holds the possibly transformed content) or "skip" (Skipped
// holds the record).
type StrategyResult struct {
	Action       string           `json:"action"`
	Ad           campaign.Ad      `json:"-"`
	WasTruncated bool             `json:"wasTruncated"`
	UsedFallback bool             `json:"usedFallback"`
	Skipped      *SkippedAdRecord `json:"skipped,omitempty"`
}

// StrategyEngine decides, per ad, whether to sync as-is, truncate,
// substitute the fallback ad, or skip. The strategy is configured per sync
// operation, not per ad. Whatever the configured strategy, a transformed
// ad is re-validated before it may leave as "sync"; anything still invalid
// downgrades to skip so invalid data never reaches a platform adapter.
type StrategyEngine struct {
	strategy   Strategy
	truncation config.TruncationConfig
	fallback   config.FallbackAdConfig
	validator  *AdValidator
	limits     FieldLimits
	now        func() time.Time
}

func NewStrategyEngine(strategy Strategy, truncation config.TruncationConfig, fallback config.FallbackAdConfig, limits FieldLimits) *StrategyEngine {
	return &StrategyEngine{
		strategy:   strategy,
		truncation: truncation,
		fallback:   fallback,
		validator:  &AdValidator{limits: limits},
		limits:     limits,
		now:        time.Now,
	}
}

func (e *StrategyEngine) limitFor(field string) (int, bool) {
	switch field {
	case "headline":
		return e.limits.Headline, true
	case "description":
		return e.limits.Description, true
	case "display_url":
		return e.limits.DisplayURL, true
	default:
		return 0, false
	}
}

// truncatable reports whether the configuration allows shortening a field.
// URLs and anything not explicitly whitelisted are never truncated.
func (e *StrategyEngine) truncatable(field string) bool {
	switch field {
	case "headline":
		return e.truncation.Headline
	case "description":
		return e.truncation.Description
	default:
		return false
	}
}

// Apply runs the configured strategy for one ad and its campaign context.
func (e *StrategyEngine) Apply(ad campaign.Ad, campaignID string, vctx *ValidationContext) StrategyResult {
	errs := e.validator.Validate(ad, vctx)
	if len(errs) == 0 {
		return StrategyResult{Action: ActionSync, Ad: ad}
	}

	overflow := make(map[string]int)
	var otherFields []string
	for _, err := range errs {
		if err.Code == CodeFieldTooLong {
			if limit, ok := e.limitFor(err.Field); ok {
				overflow[err.Field] = utf8.RuneCountInString(err.Value) - limit
				continue
			}
		}
		otherFields = append(otherFields, err.Field)
	}

	switch e.strategy {
	case StrategyTruncate:
		// Truncation only repairs length overflow on truncatable fields;
		// anything else (invalid URL, enum, a display_url overflow) cannot
		// be repaired this way and falls through to skip.
		if len(otherFields) == 0 && e.allTruncatable(overflow) {
			transformed := e.truncateAd(ad)
			if len(e.validator.Validate(transformed, vctx)) == 0 {
				return StrategyResult{Action: ActionSync, Ad: transformed, WasTruncated: true}
			}
		}
		return e.skip(ad, campaignID, errs, overflow)

	case StrategyUseFallback:
		transformed := e.applyFallback(ad)
		if len(e.validator.Validate(transformed, vctx)) == 0 {
			return StrategyResult{Action: ActionSync, Ad: transformed, UsedFallback: true}
		}
		return e.skip(ad, campaignID, errs, overflow)

	default:
		return e.skip(ad, campaignID, errs, overflow)
	}
}

func (e *StrategyEngine) allTruncatable(overflow map[string]int) bool {
	if len(overflow) == 0 {
		return false
	}
	for field := range overflow {
		if !e.truncatable(field) {
			return false
		}
	}
	return true
}

func (e *StrategyEngine) truncateAd(ad campaign.Ad) campaign.Ad {
	if e.truncation.Headline {
		ad.Headline = truncateString(ad.Headline, e.limits.Headline, e.truncation.PreserveWordBoundary)
	}
	if e.truncation.Description {
		ad.Description = truncateString(ad.Description, e.limits.Description, e.truncation.PreserveWordBoundary)
	}
	return ad
}

// applyFallback replaces the ad's content wholesale with the static
// fallback definition. No variable substitution happens here so the
// fallback itself cannot fail for content reasons.
func (e *StrategyEngine) applyFallback(ad campaign.Ad) campaign.Ad {
	ad.Headline = e.fallback.Headline
	ad.Description = e.fallback.Description
	ad.DisplayURL = e.fallback.DisplayURL
	ad.FinalURL = e.fallback.FinalURL
	ad.CallToAction = e.fallback.CallToAction
	return ad
}

func (e *StrategyEngine) skip(ad campaign.Ad, campaignID string, errs []ValidationError, overflow map[string]int) StrategyResult {
	fieldSet := make(map[string]struct{})
	var reasons []string
	for _, err := range errs {
		if _, seen := fieldSet[err.Field]; !seen {
			fieldSet[err.Field] = struct{}{}
		}
		reasons = append(reasons, err.Message)
	}

	fields := make([]string, 0, len(fieldSet))
	for field := range fieldSet {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	return StrategyResult{
		Action: ActionSkip,
		Ad:     ad,
		Skipped: &SkippedAdRecord{
			AdID:       ad.ID,
			AdGroupID:  ad.AdGroupID,
			CampaignID: campaignID,
			Reason:     strings.Join(reasons, "; "),
			Fields:     fields,
			Overflow:   overflow,
			OriginalAd: ad,
			SkippedAt:  e.now().UTC().Format(time.RFC3339),
		},
	}
}

// truncateString shortens s to at most limit runes. With word boundary
// preservation it cuts at the last whitespace that still fits, unless the
// first word alone exceeds the limit, in which case it hard-cuts.
func truncateString(s string, limit int, preserveWordBoundary bool) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	cut := string(runes[:limit])
	if !preserveWordBoundary {
		return strings.TrimRight(cut, " ")
	}

	if idx := strings.LastIndexFunc(cut, func(r rune) bool { return r == ' ' || r == '\t' }); idx > 0 {
		return strings.TrimRight(cut[:idx], " \t")
	}
	return strings.TrimRight(cut, " ")
}
