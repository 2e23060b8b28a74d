package platform

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"campaign-sync-service/internal/campaign"
	"campaign-sync-service/internal/config"
	"campaign-sync-service/internal/logger"
)

const PlatformReddit = "reddit"

// microsPerUnit converts Reddit's micro-currency amounts to decimal units.
const microsPerUnit = 1_000_000

// RedditClient talks to the Reddit Ads REST API and implements both the
// adapter and the poller side of the integration.
type RedditClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewRedditClient(cfg config.RedditConfig) *RedditClient {
	return &RedditClient{
		baseURL: cfg.BaseURL,
		token:   cfg.AccessToken,
		http: &http.Client{
			Timeout: cfg.GetTimeout(),
		},
	}
}

func NewRedditIntegration(cfg config.RedditConfig) Integration {
	client := NewRedditClient(cfg)
	return Integration{Adapter: client, Poller: client}
}

func (c *RedditClient) Platform() string {
	return PlatformReddit
}

// apiError is Reddit's error envelope.
type apiError struct {
	Error struct {
		Message string `json:"message"`
		Reason  string `json:"reason"`
	} `json:"error"`
}

type redditCampaignData struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	ExternalID           string  `json:"external_id"`
	EffectiveStatus      string  `json:"effective_status"`
	DailyBudgetMicros    *int64  `json:"daily_budget_micros"`
	LifetimeBudgetMicros *int64  `json:"lifetime_budget_micros"`
	ContentHash          string  `json:"content_hash"`
	ModifiedAt           string  `json:"modified_at"`
}

type redditCampaignEnvelope struct {
	Data redditCampaignData `json:"data"`
}

type redditCampaignListEnvelope struct {
	Data []redditCampaignData `json:"data"`
}

type redditEntityEnvelope struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// do executes one API call. Transport faults (network errors, auth
// rejections, 5xx) return a Go error; other non-2xx statuses are reported
// through the returned status code so callers can map them to API-level
// results.
func (c *RedditClient) do(ctx context.Context, method, path string, body interface{}) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("reddit api request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read reddit response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return resp.StatusCode, data, fmt.Errorf("reddit auth rejected: status %d", resp.StatusCode)
	case resp.StatusCode >= 500:
		return resp.StatusCode, data, fmt.Errorf("reddit server error: status %d", resp.StatusCode)
	}

	return resp.StatusCode, data, nil
}

// mutate wraps do for write calls, translating remaining non-2xx statuses
// into API-level EntityResult failures.
func (c *RedditClient) mutate(ctx context.Context, method, path string, body interface{}) (EntityResult, error) {
	status, data, err := c.do(ctx, method, path, body)
	if err != nil {
		return EntityResult{}, err
	}

	if status < 200 || status >= 300 {
		var apiErr apiError
		msg := fmt.Sprintf("reddit api error: status %d", status)
		if jsonErr := json.Unmarshal(data, &apiErr); jsonErr == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		return EntityResult{Success: false, Error: msg}, nil
	}

	var envelope redditEntityEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return EntityResult{}, fmt.Errorf("failed to decode reddit response: %w", err)
	}

	return EntityResult{Success: true, PlatformID: envelope.Data.ID}, nil
}

// normalizeStatus maps Reddit status strings onto the shared vocabulary.
// Anything unrecognized becomes StatusError so it can't be silently dropped.
func normalizeStatus(s string) CampaignStatus {
	switch s {
	case "ACTIVE":
		return StatusActive
	case "PAUSED":
		return StatusPaused
	case "COMPLETED":
		return StatusCompleted
	case "DELETED":
		return StatusDeleted
	default:
		logger.Log.Warn("Unknown reddit campaign status", zap.String("status", s))
		return StatusError
	}
}

func normalizeCampaign(data redditCampaignData) PlatformCampaignStatus {
	status := PlatformCampaignStatus{
		PlatformID:  data.ID,
		LocalID:     data.ExternalID,
		Name:        data.Name,
		Status:      normalizeStatus(data.EffectiveStatus),
		ContentHash: data.ContentHash,
	}

	// Daily budget takes precedence when both are set.
	if data.DailyBudgetMicros != nil {
		status.BudgetType = BudgetDaily
		status.BudgetAmount = float64(*data.DailyBudgetMicros) / microsPerUnit
	} else if data.LifetimeBudgetMicros != nil {
		status.BudgetType = BudgetLifetime
		status.BudgetAmount = float64(*data.LifetimeBudgetMicros) / microsPerUnit
	}

	if data.ModifiedAt != "" {
		if ts, err := time.Parse(time.RFC3339, data.ModifiedAt); err == nil {
			status.LastModified = ts
		}
	}

	return status
}

// GetCampaignStatus returns nil (not an error) when the campaign no longer
// exists on Reddit; every other failure propagates.
func (c *RedditClient) GetCampaignStatus(ctx context.Context, platformCampaignID string) (*PlatformCampaignStatus, error) {
	status, data, err := c.do(ctx, http.MethodGet, "/api/v3/campaigns/"+platformCampaignID, nil)
	if err != nil {
		return nil, err
	}

	if status == http.StatusNotFound {
		return nil, nil
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("reddit campaign lookup failed: status %d", status)
	}

	var envelope redditCampaignEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode reddit campaign: %w", err)
	}

	normalized := normalizeCampaign(envelope.Data)
	return &normalized, nil
}

func (c *RedditClient) ListCampaignStatuses(ctx context.Context, accountID string) ([]PlatformCampaignStatus, error) {
	status, data, err := c.do(ctx, http.MethodGet, "/api/v3/ad_accounts/"+accountID+"/campaigns", nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("reddit campaign list failed: status %d", status)
	}

	var envelope redditCampaignListEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode reddit campaign list: %w", err)
	}

	statuses := make([]PlatformCampaignStatus, 0, len(envelope.Data))
	for _, item := range envelope.Data {
		statuses = append(statuses, normalizeCampaign(item))
	}
	return statuses, nil
}

func budgetMicros(amount float64) *int64 {
	if amount <= 0 {
		return nil
	}
	micros := int64(amount * microsPerUnit)
	return &micros
}

func (c *RedditClient) campaignPayload(camp campaign.Campaign) map[string]interface{} {
	payload := map[string]interface{}{
		"name":        camp.Name,
		"external_id": camp.ID,
		"objective":   camp.Objective,
	}
	if micros := budgetMicros(camp.DailyBudget); micros != nil {
		payload["daily_budget_micros"] = *micros
	}
	if micros := budgetMicros(camp.LifetimeBudget); micros != nil {
		payload["lifetime_budget_micros"] = *micros
	}
	if camp.StartTime != "" {
		payload["start_time"] = camp.StartTime
	}
	if camp.EndTime != "" {
		payload["end_time"] = camp.EndTime
	}
	return payload
}

func (c *RedditClient) CreateCampaign(ctx context.Context, accountID string, camp campaign.Campaign) (EntityResult, error) {
	return c.mutate(ctx, http.MethodPost, "/api/v3/ad_accounts/"+accountID+"/campaigns", c.campaignPayload(camp))
}

func (c *RedditClient) UpdateCampaign(ctx context.Context, platformID string, camp campaign.Campaign) (EntityResult, error) {
	return c.mutate(ctx, http.MethodPatch, "/api/v3/campaigns/"+platformID, c.campaignPayload(camp))
}

func (c *RedditClient) PauseCampaign(ctx context.Context, platformID string) (EntityResult, error) {
	return c.mutate(ctx, http.MethodPatch, "/api/v3/campaigns/"+platformID,
		map[string]interface{}{"configured_status": "PAUSED"})
}

func (c *RedditClient) ResumeCampaign(ctx context.Context, platformID string) (EntityResult, error) {
	return c.mutate(ctx, http.MethodPatch, "/api/v3/campaigns/"+platformID,
		map[string]interface{}{"configured_status": "ACTIVE"})
}

func (c *RedditClient) DeleteCampaign(ctx context.Context, platformID string) (EntityResult, error) {
	return c.mutate(ctx, http.MethodDelete, "/api/v3/campaigns/"+platformID, nil)
}

func (c *RedditClient) adGroupPayload(group campaign.AdGroup) map[string]interface{} {
	payload := map[string]interface{}{
		"name":        group.Name,
		"external_id": group.ID,
	}
	if group.BidStrategy != "" {
		payload["bid_strategy"] = group.BidStrategy
	}
	if micros := budgetMicros(group.BidAmount); micros != nil {
		payload["bid_micros"] = *micros
	}
	if group.StartTime != "" {
		payload["start_time"] = group.StartTime
	}
	if group.EndTime != "" {
		payload["end_time"] = group.EndTime
	}
	return payload
}

func (c *RedditClient) CreateAdGroup(ctx context.Context, campaignPlatformID string, group campaign.AdGroup) (EntityResult, error) {
	payload := c.adGroupPayload(group)
	payload["campaign_id"] = campaignPlatformID
	return c.mutate(ctx, http.MethodPost, "/api/v3/campaigns/"+campaignPlatformID+"/ad_groups", payload)
}

func (c *RedditClient) UpdateAdGroup(ctx context.Context, platformID string, group campaign.AdGroup) (EntityResult, error) {
	return c.mutate(ctx, http.MethodPatch, "/api/v3/ad_groups/"+platformID, c.adGroupPayload(group))
}

func (c *RedditClient) DeleteAdGroup(ctx context.Context, platformID string) (EntityResult, error) {
	return c.mutate(ctx, http.MethodDelete, "/api/v3/ad_groups/"+platformID, nil)
}

func (c *RedditClient) adPayload(ad campaign.Ad) map[string]interface{} {
	payload := map[string]interface{}{
		"name":        ad.Name,
		"external_id": ad.ID,
		"headline":    ad.Headline,
		"click_url":   ad.FinalURL,
	}
	if ad.Description != "" {
		payload["body"] = ad.Description
	}
	if ad.DisplayURL != "" {
		payload["display_url"] = ad.DisplayURL
	}
	if ad.CallToAction != "" {
		payload["call_to_action"] = ad.CallToAction
	}
	return payload
}

func (c *RedditClient) CreateAd(ctx context.Context, adGroupPlatformID string, ad campaign.Ad) (EntityResult, error) {
	payload := c.adPayload(ad)
	payload["ad_group_id"] = adGroupPlatformID
	return c.mutate(ctx, http.MethodPost, "/api/v3/ad_groups/"+adGroupPlatformID+"/ads", payload)
}

func (c *RedditClient) UpdateAd(ctx context.Context, platformID string, ad campaign.Ad) (EntityResult, error) {
	return c.mutate(ctx, http.MethodPatch, "/api/v3/ads/"+platformID, c.adPayload(ad))
}

func (c *RedditClient) DeleteAd(ctx context.Context, platformID string) (EntityResult, error) {
	return c.mutate(ctx, http.MethodDelete, "/api/v3/ads/"+platformID, nil)
}

func (c *RedditClient) CreateKeyword(ctx context.Context, adGroupPlatformID string, keyword campaign.Keyword) (EntityResult, error) {
	payload := map[string]interface{}{
		"ad_group_id": adGroupPlatformID,
		"external_id": keyword.ID,
		"text":        keyword.Text,
		"match_type":  keyword.MatchType,
	}
	if micros := budgetMicros(keyword.Bid); micros != nil {
		payload["bid_micros"] = *micros
	}
	return c.mutate(ctx, http.MethodPost, "/api/v3/ad_groups/"+adGroupPlatformID+"/keywords", payload)
}

func (c *RedditClient) DeleteKeyword(ctx context.Context, platformID string) (EntityResult, error) {
	return c.mutate(ctx, http.MethodDelete, "/api/v3/keywords/"+platformID, nil)
}
