package service

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"linklytics-be/internal/cache"
	"linklytics-be/internal/entities"
	"linklytics-be/internal/models"
	"linklytics-be/internal/repository"
)

const (
	// DefaultWindowDays is the daily-series window when the caller does not
	// pick one
	DefaultWindowDays = 15
	maxWindowDays     = 90

	topN           = 10
	defaultPerPage = 20
	maxPerPage     = 100
)

// AnalyticsService computes dashboard rollups from raw click events
type AnalyticsService interface {
	Snapshot(ctx context.Context, ownerID, linkCode string, windowDays int) (*models.AnalyticsSnapshot, error)
	ListClicks(ctx context.Context, shortCode string, ownerID *string, from, to time.Time, page, perPage int) (*models.ClickListResponse, error)
}

type analyticsService struct {
	links  repository.LinkRepository
	clicks repository.ClickRepository
	cache  cache.Cache
	keys   cache.Keys
	ttl    cache.TTL
	logger *zap.Logger
	now    func() time.Time
}

// NewAnalyticsService creates a new analytics service. cacheClient may be nil.
func NewAnalyticsService(links repository.LinkRepository, clicks repository.ClickRepository, cacheClient cache.Cache, keys cache.Keys, ttl cache.TTL, logger *zap.Logger) AnalyticsService {
	return &analyticsService{
		links:  links,
		clicks: clicks,
		cache:  cacheClient,
		keys:   keys,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Snapshot computes the owner's rollup, optionally scoped to one link by its
// short code, cached under a fingerprint of (owner, link, window). A caller
// with no data gets a zero-valued, fully-shaped snapshot, never an error.
func (s *analyticsService) Snapshot(ctx context.Context, ownerID, linkCode string, windowDays int) (*models.AnalyticsSnapshot, error) {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	if windowDays > maxWindowDays {
		windowDays = maxWindowDays
	}

	scope := repository.ClickScope{OwnerID: ownerID}
	if linkCode != "" {
		link, err := s.links.FindByCode(ctx, linkCode)
		if err != nil {
			return nil, err
		}
		if link.OwnerID == nil || *link.OwnerID != ownerID {
			return nil, entities.ErrLinkNotFound
		}
		scope.LinkID = link.ID
	}

	key := s.keys.OwnerAnalytics(ownerID, map[string]string{
		"link": scope.LinkID,
		"days": strconv.Itoa(windowDays),
	})
	return cache.GetOrCompute(ctx, s.cache, s.logger, key, s.ttl.Long, func() (*models.AnalyticsSnapshot, error) {
		return s.compute(ctx, scope, windowDays)
	})
}

func (s *analyticsService) compute(ctx context.Context, scope repository.ClickScope, windowDays int) (*models.AnalyticsSnapshot, error) {
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)
	tomorrow := today.AddDate(0, 0, 1)

	snapshot := &models.AnalyticsSnapshot{WindowDays: windowDays}

	var err error
	if snapshot.TotalClicks, err = s.clicks.CountAll(ctx, scope); err != nil {
		return nil, err
	}
	if snapshot.ClicksToday, err = s.clicks.CountBetween(ctx, scope, today, tomorrow); err != nil {
		return nil, err
	}
	if snapshot.ClicksYesterday, err = s.clicks.CountBetween(ctx, scope, yesterday, today); err != nil {
		return nil, err
	}
	if snapshot.ClicksLast30Days, err = s.clicks.CountBetween(ctx, scope, now.AddDate(0, 0, -30), now); err != nil {
		return nil, err
	}
	priorThirty, err := s.clicks.CountBetween(ctx, scope, now.AddDate(0, 0, -60), now.AddDate(0, 0, -30))
	if err != nil {
		return nil, err
	}

	// Week boundaries are rolling 7-day windows ending today
	thisWeekStart := today.AddDate(0, 0, -6)
	lastWeekStart := today.AddDate(0, 0, -13)
	if snapshot.TotalLinks, err = s.links.CountByOwner(ctx, scope.OwnerID); err != nil {
		return nil, err
	}
	if snapshot.LinksThisWeek, err = s.links.CountCreatedBetween(ctx, scope.OwnerID, thisWeekStart, tomorrow); err != nil {
		return nil, err
	}
	if snapshot.LinksLastWeek, err = s.links.CountCreatedBetween(ctx, scope.OwnerID, lastWeekStart, thisWeekStart); err != nil {
		return nil, err
	}
	if snapshot.LinksWithClicks, err = s.links.CountWithClicks(ctx, scope.OwnerID); err != nil {
		return nil, err
	}

	snapshot.TodayTrend = percentChange(float64(snapshot.ClicksToday), float64(snapshot.ClicksYesterday))
	snapshot.WeekLinksTrend = percentChange(float64(snapshot.LinksThisWeek), float64(snapshot.LinksLastWeek))
	snapshot.MonthTrend = percentChange(float64(snapshot.ClicksLast30Days), float64(priorThirty))

	for dimension, dest := range map[string]*[]repository.BreakdownEntry{
		"country": &snapshot.TopCountries,
		"device":  &snapshot.TopDevices,
		"browser": &snapshot.TopBrowsers,
	} {
		entries, err := s.clicks.Breakdown(ctx, scope, dimension, topN)
		if err != nil {
			return nil, err
		}
		if entries == nil {
			entries = []repository.BreakdownEntry{}
		}
		*dest = entries
	}

	seriesStart := today.AddDate(0, 0, -(windowDays - 1))
	counts, err := s.clicks.DailyCounts(ctx, scope, seriesStart)
	if err != nil {
		return nil, err
	}
	snapshot.DailySeries = fillDailySeries(counts, today, windowDays)

	if snapshot.TotalLinks > 0 {
		snapshot.AvgClicksPerLink = round2(float64(snapshot.TotalClicks) / float64(snapshot.TotalLinks))
		snapshot.ActiveLinkRate = round2(float64(snapshot.LinksWithClicks) / float64(snapshot.TotalLinks) * 100)
	}
	return snapshot, nil
}

// ListClicks returns one page of a link's raw events, newest first, bounded
// by an optional date range, through the link's click-page cache.
func (s *analyticsService) ListClicks(ctx context.Context, shortCode string, ownerID *string, from, to time.Time, page, perPage int) (*models.ClickListResponse, error) {
	link, err := s.links.FindByCode(ctx, shortCode)
	if err != nil {
		return nil, err
	}
	if ownerID != nil && (link.OwnerID == nil || *link.OwnerID != *ownerID) {
		return nil, entities.ErrLinkNotFound
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	query := map[string]string{
		"page":     strconv.Itoa(page),
		"per_page": strconv.Itoa(perPage),
	}
	if !from.IsZero() {
		query["from"] = from.UTC().Format(time.RFC3339)
	}
	if !to.IsZero() {
		query["to"] = to.UTC().Format(time.RFC3339)
	}

	key := s.keys.LinkClicks(link.ID, query)
	return cache.GetOrCompute(ctx, s.cache, s.logger, key, s.ttl.Long, func() (*models.ClickListResponse, error) {
		clicks, total, err := s.clicks.List(ctx, link.ID, repository.ClickFilter{
			From:   from,
			To:     to,
			Limit:  perPage,
			Offset: (page - 1) * perPage,
		})
		if err != nil {
			return nil, err
		}
		if clicks == nil {
			clicks = []*entities.Click{}
		}
		return &models.ClickListResponse{
			Clicks:     clicks,
			Total:      total,
			Page:       page,
			PerPage:    perPage,
			TotalPages: int(math.Ceil(float64(total) / float64(perPage))),
		}, nil
	})
}

// fillDailySeries expands sparse per-day counts into exactly windowDays
// entries ending on today, zero-filled so callers never see missing days.
func fillDailySeries(counts []repository.DailyCount, today time.Time, windowDays int) []repository.DailyCount {
	byDate := lo.Associate(counts, func(c repository.DailyCount) (string, int64) {
		return c.Date, c.Clicks
	})

	series := make([]repository.DailyCount, 0, windowDays)
	for i := windowDays - 1; i >= 0; i-- {
		date := today.AddDate(0, 0, -i).Format("2006-01-02")
		series = append(series, repository.DailyCount{Date: date, Clicks: byDate[date]})
	}
	return series
}

// percentChange reports current against previous as a percentage. A zero
// baseline never divides: any growth from zero reads as 100, and zero to
// zero reads as 0.
func percentChange(current, previous float64) float64 {
	if previous > 0 {
		return round2((current - previous) / previous * 100)
	}
	if current > 0 {
		return 100
	}
	return 0
}

// round2 rounds to 2 decimal places so repeated identical queries render
// stable percentages.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
