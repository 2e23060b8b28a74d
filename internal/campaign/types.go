package campaign

import (
	"time"
)

// Status is the local lifecycle status of a campaign, ad group, ad or
// keyword. Drafts are never pushed to a platform.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusReady    Status = "ready"
	StatusActive   Status = "active"
	StatusPaused   Status = "paused"
	StatusArchived Status = "archived"
)

// Campaign is the top of the locally generated hierarchy. PlatformID is
// empty until the campaign has been successfully created remotely; once set
// there must be a corresponding sync record for it.
type Campaign struct {
	ID             string    `json:"id"`
	CampaignSetID  string    `json:"campaignSetId"`
	Name           string    `json:"name"`
	OrderIndex     int       `json:"orderIndex"`
	Status         Status    `json:"status"`
	Objective      string    `json:"objective,omitempty"`
	DailyBudget    float64   `json:"dailyBudget,omitempty"`
	LifetimeBudget float64   `json:"lifetimeBudget,omitempty"`
	StartTime      string    `json:"startTime,omitempty"`
	EndTime        string    `json:"endTime,omitempty"`
	PlatformID     string    `json:"platformId,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt"`

	AdGroups []AdGroup `json:"adGroups,omitempty"`
}

type AdGroup struct {
	ID          string  `json:"id"`
	CampaignID  string  `json:"campaignId"`
	Name        string  `json:"name"`
	OrderIndex  int     `json:"orderIndex"`
	Status      Status  `json:"status"`
	BidStrategy string  `json:"bidStrategy,omitempty"`
	BidAmount   float64 `json:"bidAmount,omitempty"`
	StartTime   string  `json:"startTime,omitempty"`
	EndTime     string  `json:"endTime,omitempty"`
	PlatformID  string  `json:"platformId,omitempty"`

	Ads      []Ad      `json:"ads,omitempty"`
	Keywords []Keyword `json:"keywords,omitempty"`
}

type Ad struct {
	ID           string `json:"id"`
	AdGroupID    string `json:"adGroupId"`
	Name         string `json:"name"`
	OrderIndex   int    `json:"orderIndex"`
	Headline     string `json:"headline"`
	Description  string `json:"description,omitempty"`
	DisplayURL   string `json:"displayUrl,omitempty"`
	FinalURL     string `json:"finalUrl"`
	CallToAction string `json:"callToAction,omitempty"`
	Status       Status `json:"status"`
	PlatformID   string `json:"platformId,omitempty"`
}

type Keyword struct {
	ID         string  `json:"id"`
	AdGroupID  string  `json:"adGroupId"`
	Text       string  `json:"text"`
	MatchType  string  `json:"matchType,omitempty"` // broad | phrase | exact
	Bid        float64 `json:"bid,omitempty"`
	Status     Status  `json:"status"`
	PlatformID string  `json:"platformId,omitempty"`
}
