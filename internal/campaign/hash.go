package campaign

import (
	"crypto/sha256"
	"fmt"

	json "github.com/goccy/go-json"
)

// campaignContent is the subset of campaign fields that participates in
// content hashing. Platform-managed fields (PlatformID, UpdatedAt, local
// ids of children) are excluded so a hash only changes when the content a
// platform would see changes. Struct marshaling gives a stable key order.
type campaignContent struct {
	Name           string           `json:"name"`
	Status         Status           `json:"status"`
	Objective      string           `json:"objective"`
	DailyBudget    float64          `json:"dailyBudget"`
	LifetimeBudget float64          `json:"lifetimeBudget"`
	StartTime      string           `json:"startTime"`
	EndTime        string           `json:"endTime"`
	AdGroups       []adGroupContent `json:"adGroups"`
}

type adGroupContent struct {
	Name        string           `json:"name"`
	Status      Status           `json:"status"`
	BidStrategy string           `json:"bidStrategy"`
	BidAmount   float64          `json:"bidAmount"`
	StartTime   string           `json:"startTime"`
	EndTime     string           `json:"endTime"`
	Ads         []adContent      `json:"ads"`
	Keywords    []keywordContent `json:"keywords"`
}

type adContent struct {
	Headline     string `json:"headline"`
	Description  string `json:"description"`
	DisplayURL   string `json:"displayUrl"`
	FinalURL     string `json:"finalUrl"`
	CallToAction string `json:"callToAction"`
	Status       Status `json:"status"`
}

type keywordContent struct {
	Text      string  `json:"text"`
	MatchType string  `json:"matchType"`
	Bid       float64 `json:"bid"`
	Status    Status  `json:"status"`
}

// ContentHash returns a hex SHA-256 over the campaign's content fields,
// including the full ad group / ad / keyword tree in order.
func (c *Campaign) ContentHash() string {
	content := campaignContent{
		Name:           c.Name,
		Status:         c.Status,
		Objective:      c.Objective,
		DailyBudget:    c.DailyBudget,
		LifetimeBudget: c.LifetimeBudget,
		StartTime:      c.StartTime,
		EndTime:        c.EndTime,
		AdGroups:       make([]adGroupContent, 0, len(c.AdGroups)),
	}

	for _, g := range c.AdGroups {
		gc := adGroupContent{
			Name:        g.Name,
			Status:      g.Status,
			BidStrategy: g.BidStrategy,
			BidAmount:   g.BidAmount,
			StartTime:   g.StartTime,
			EndTime:     g.EndTime,
			Ads:         make([]adContent, 0, len(g.Ads)),
			Keywords:    make([]keywordContent, 0, len(g.Keywords)),
		}
		for _, a := range g.Ads {
			gc.Ads = append(gc.Ads, adContent{
				Headline:     a.Headline,
				Description:  a.Description,
				DisplayURL:   a.DisplayURL,
				FinalURL:     a.FinalURL,
				CallToAction: a.CallToAction,
				Status:       a.Status,
			})
		}
		for _, k := range g.Keywords {
			gc.Keywords = append(gc.Keywords, keywordContent{
				Text:      k.Text,
				MatchType: k.MatchType,
				Bid:       k.Bid,
				Status:    k.Status,
			})
		}
		content.AdGroups = append(content.AdGroups, gc)
	}

	bytes, _ := json.Marshal(content)
	sum := sha256.Sum256(bytes)
	return fmt.Sprintf("%x", sum)
}
