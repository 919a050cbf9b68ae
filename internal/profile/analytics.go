package profile

import (
	"context"
	"time"

	"git.home.luguber.info/inful/linkbio/internal/store"
)

// LinkClicks is the per-link row of the analytics view.
type LinkClicks struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	URL           string     `json:"url"`
	Clicks        int64      `json:"clicks"`
	Active        bool       `json:"active"`
	Healthy       *bool      `json:"healthy"`
	LastStatus    *int       `json:"lastStatus"`
	LastCheckedAt *time.Time `json:"lastCheckedAt"`
}

// HealthSummary counts links by their last probe outcome.
type HealthSummary struct {
	Healthy   int `json:"healthy"`
	Broken    int `json:"broken"`
	Unchecked int `json:"unchecked"`
}

// Analytics summarizes views and clicks for a user.
type Analytics struct {
	TotalClicks int64         `json:"totalClicks"`
	TotalViews  int64         `json:"totalViews"`
	ClickRate   float64       `json:"clickRate"`
	LinkCount   int           `json:"linkCount"`
	ActiveLinks int           `json:"activeLinks"`
	Links       []LinkClicks  `json:"links"`
	Health      HealthSummary `json:"health"`
}

// Analytics returns the user's counters. ClickRate is clicks per view and 0
// before the first view.
func (s *Service) Analytics(ctx context.Context, userID string) (*Analytics, error) {
	st, err := s.store.UserStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	all, err := s.store.ListLinks(ctx, userID)
	if err != nil {
		return nil, err
	}
	return buildAnalytics(st, all), nil
}

func buildAnalytics(st *store.UserStats, all []store.Link) *Analytics {
	a := &Analytics{
		TotalClicks: st.TotalClicks,
		TotalViews:  st.PageViews,
		LinkCount:   st.LinkCount,
		ActiveLinks: st.ActiveLinks,
		Links:       make([]LinkClicks, 0, len(all)),
		Health: HealthSummary{
			Healthy:   st.Healthy,
			Broken:    st.Broken,
			Unchecked: st.Unchecked,
		},
	}
	if st.PageViews > 0 {
		a.ClickRate = float64(st.TotalClicks) / float64(st.PageViews)
	}
	for _, l := range all {
		a.Links = append(a.Links, LinkClicks{
			ID:            l.ID,
			Title:         l.Title,
			URL:           l.URL,
			Clicks:        l.Clicks,
			Active:        l.Active,
			Healthy:       l.Healthy,
			LastStatus:    l.LastStatus,
			LastCheckedAt: l.LastCheckedAt,
		})
	}
	return a
}
