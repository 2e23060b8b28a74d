package sync

import (
	"strings"
	"testing"
	"unicode/utf8"

	"campaign-sync-service/internal/config"
)

func fullTruncation() config.TruncationConfig {
	return config.TruncationConfig{
		Headline:             true,
		Description:          true,
		PreserveWordBoundary: true,
	}
}

func validFallbackAd() config.FallbackAdConfig {
	return config.FallbackAdConfig{
		Headline:     "See what's new",
		Description:  "Check out our latest products.",
		DisplayURL:   "example.com",
		FinalURL:     "https://example.com",
		CallToAction: "LEARN_MORE",
	}
}

func TestStrategyEngine_ValidAdPassesThrough(t *testing.T) {
	engine := NewStrategyEngine(StrategySkip, fullTruncation(), validFallbackAd(), RedditLimits)

	ad := validAd()
	result := engine.Apply(ad, "c-1", nil)
	if result.Action != ActionSync {
		t.Fatalf("action = %s, want sync", result.Action)
	}
	if result.WasTruncated || result.UsedFallback {
		t.Error("valid ad was transformed")
	}
	if result.Ad.Headline != ad.Headline {
		t.Errorf("ad content changed: %q", result.Ad.Headline)
	}
}

func TestStrategyEngine_SkipRecordsOverflow(t *testing.T) {
	engine := NewStrategyEngine(StrategySkip, fullTruncation(), validFallbackAd(), RedditLimits)

	ad := validAd()
	ad.Headline = strings.Repeat("x", 150)

	result := engine.Apply(ad, "c-1", nil)
	if result.Action != ActionSkip {
		t.Fatalf("action = %s, want skip", result.Action)
	}
	if result.Skipped == nil {
		t.Fatal("skip result without record")
	}

	record := result.Skipped
	if record.AdID != ad.ID || record.CampaignID != "c-1" {
		t.Errorf("record identifies wrong entity: %+v", record)
	}
	if len(record.Fields) != 1 || record.Fields[0] != "headline" {
		t.Errorf("fields = %v, want [headline]", record.Fields)
	}
	if record.Overflow["headline"] != 50 {
		t.Errorf("overflow = %v, want headline:50", record.Overflow)
	}
	if record.OriginalAd.Headline != ad.Headline {
		t.Error("original ad content not preserved on the record")
	}
	if record.SkippedAt == "" {
		t.Error("skippedAt not set")
	}
}

func TestStrategyEngine_TruncateRepairsHeadline(t *testing.T) {
	engine := NewStrategyEngine(StrategyTruncate, fullTruncation(), validFallbackAd(), RedditLimits)

	ad := validAd()
	ad.Headline = strings.Repeat("word ", 30) // 150 characters

	result := engine.Apply(ad, "c-1", nil)
	if result.Action != ActionSync {
		t.Fatalf("action = %s, want sync", result.Action)
	}
	if !result.WasTruncated {
		t.Error("WasTruncated not set")
	}
	if got := utf8.RuneCountInString(result.Ad.Headline); got > RedditLimits.Headline {
		t.Errorf("truncated headline is %d characters", got)
	}
	if strings.HasSuffix(result.Ad.Headline, " ") {
		t.Error("truncated headline has trailing whitespace")
	}
}

func TestStrategyEngine_TruncatePreservesWordBoundary(t *testing.T) {
	engine := NewStrategyEngine(StrategyTruncate, fullTruncation(), validFallbackAd(), RedditLimits)

	ad := validAd()
	ad.Headline = strings.Repeat("a", 97) + " bcdefgh"

	result := engine.Apply(ad, "c-1", nil)
	if result.Action != ActionSync {
		t.Fatalf("action = %s, want sync", result.Action)
	}
	// The cut at 100 lands mid-"bcdefgh"; the boundary-preserving cut backs
	// up to the last whitespace instead of keeping the fragment.
	want := strings.Repeat("a", 97)
	if result.Ad.Headline != want {
		t.Errorf("headline = %q, want %q", result.Ad.Headline, want)
	}
}

func TestStrategyEngine_TruncateHardCutsSingleWord(t *testing.T) {
	engine := NewStrategyEngine(StrategyTruncate, fullTruncation(), validFallbackAd(), RedditLimits)

	ad := validAd()
	ad.Headline = strings.Repeat("a", 130)

	result := engine.Apply(ad, "c-1", nil)
	if result.Action != ActionSync {
		t.Fatalf("action = %s, want sync", result.Action)
	}
	if got := utf8.RuneCountInString(result.Ad.Headline); got != 100 {
		t.Errorf("headline length = %d, want 100", got)
	}
}

func TestStrategyEngine_TruncateCannotRepairURL(t *testing.T) {
	engine := NewStrategyEngine(StrategyTruncate, fullTruncation(), validFallbackAd(), RedditLimits)

	ad := validAd()
	ad.FinalURL = "ftp://example.com"

	result := engine.Apply(ad, "c-1", nil)
	if result.Action != ActionSkip {
		t.Fatalf("action = %s, want skip for unrepairable URL error", result.Action)
	}
}

func TestStrategyEngine_TruncateCannotRepairDisplayURLOverflow(t *testing.T) {
	engine := NewStrategyEngine(StrategyTruncate, fullTruncation(), validFallbackAd(), RedditLimits)

	ad := validAd()
	ad.DisplayURL = strings.Repeat("d", 40)

	result := engine.Apply(ad, "c-1", nil)
	if result.Action != ActionSkip {
		t.Fatalf("action = %s, want skip: display_url is never truncatable", result.Action)
	}
	if result.Skipped.Overflow["display_url"] != 15 {
		t.Errorf("overflow = %v, want display_url:15", result.Skipped.Overflow)
	}
}

func TestStrategyEngine_TruncateDisabledFieldSkips(t *testing.T) {
	truncation := fullTruncation()
	truncation.Headline = false
	engine := NewStrategyEngine(StrategyTruncate, truncation, validFallbackAd(), RedditLimits)

	ad := validAd()
	ad.Headline = strings.Repeat("x", 150)

	result := engine.Apply(ad, "c-1", nil)
	if result.Action != ActionSkip {
		t.Fatalf("action = %s, want skip when truncation is disabled for the field", result.Action)
	}
}

func TestStrategyEngine_FallbackReplacesContent(t *testing.T) {
	engine := NewStrategyEngine(StrategyUseFallback, fullTruncation(), validFallbackAd(), RedditLimits)

	ad := validAd()
	ad.Headline = strings.Repeat("x", 150)
	ad.FinalURL = "ftp://example.com"

	result := engine.Apply(ad, "c-1", nil)
	if result.Action != ActionSync {
		t.Fatalf("action = %s, want sync", result.Action)
	}
	if !result.UsedFallback {
		t.Error("UsedFallback not set")
	}
	if result.Ad.Headline != "See what's new" {
		t.Errorf("headline = %q, want fallback content", result.Ad.Headline)
	}
	if result.Ad.FinalURL != "https://example.com" {
		t.Errorf("final url = %q, want fallback url", result.Ad.FinalURL)
	}
	// Identity fields survive the substitution.
	if result.Ad.ID != ad.ID || result.Ad.AdGroupID != ad.AdGroupID {
		t.Error("fallback substitution changed the ad identity")
	}
}

func TestStrategyEngine_InvalidFallbackDowngradesToSkip(t *testing.T) {
	fallback := validFallbackAd()
	fallback.FinalURL = "not-a-url"
	engine := NewStrategyEngine(StrategyUseFallback, fullTruncation(), fallback, RedditLimits)

	ad := validAd()
	ad.Headline = strings.Repeat("x", 150)

	result := engine.Apply(ad, "c-1", nil)
	if result.Action != ActionSkip {
		t.Fatalf("action = %s, want skip when the fallback itself is invalid", result.Action)
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		limit    int
		preserve bool
		want     string
	}{
		{"fits", "short", 10, true, "short"},
		{"exact", "exactly10!", 10, true, "exactly10!"},
		{"hard cut", "abcdefghijkl", 10, false, "abcdefghij"},
		{"word boundary", "hello brave new world", 14, true, "hello brave"},
		{"single long word", "abcdefghijklmnop", 10, true, "abcdefghij"},
		{"trailing space trimmed", "hello     world", 8, false, "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateString(tt.in, tt.limit, tt.preserve)
			if got != tt.want {
				t.Errorf("truncateString(%q, %d, %v) = %q, want %q", tt.in, tt.limit, tt.preserve, got, tt.want)
			}
		})
	}
}
