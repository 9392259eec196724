package models

import (
	"linklytics-be/internal/entities"
	"linklytics-be/internal/repository"
)

// AnalyticsSnapshot is the fully-shaped dashboard rollup. Every field is
// always present; with no underlying data the snapshot is zero-valued, the
// breakdowns are empty arrays and the daily series is all zeros.
type AnalyticsSnapshot struct {
	WindowDays int `json:"window_days"`

	TotalClicks      int64 `json:"total_clicks"`
	ClicksToday      int64 `json:"clicks_today"`
	ClicksYesterday  int64 `json:"clicks_yesterday"`
	ClicksLast30Days int64 `json:"clicks_last_30_days"`

	TotalLinks      int64 `json:"total_links"`
	LinksThisWeek   int64 `json:"links_this_week"`
	LinksLastWeek   int64 `json:"links_last_week"`
	LinksWithClicks int64 `json:"links_with_clicks"`

	// Percentage deltas: today vs yesterday, this week's new links vs last
	// week's, last 30 days vs the 30 before them
	TodayTrend     float64 `json:"today_trend"`
	WeekLinksTrend float64 `json:"week_links_trend"`
	MonthTrend     float64 `json:"month_trend"`

	TopCountries []repository.BreakdownEntry `json:"top_countries"`
	TopDevices   []repository.BreakdownEntry `json:"top_devices"`
	TopBrowsers  []repository.BreakdownEntry `json:"top_browsers"`

	// DailySeries holds exactly WindowDays entries, most recent last,
	// zero-filled for days with no events
	DailySeries []repository.DailyCount `json:"daily_series"`

	AvgClicksPerLink float64 `json:"avg_clicks_per_link"` // rounded to 2 decimals
	ActiveLinkRate   float64 `json:"active_link_rate"`    // % of links with >= 1 click, 2 decimals
}

// ClickListResponse is one page of a link's raw click events
type ClickListResponse struct {
	Clicks     []*entities.Click `json:"clicks"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PerPage    int               `json:"per_page"`
	TotalPages int               `json:"total_pages"`
}
