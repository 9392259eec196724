package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"linklytics-be/internal/cache"
	"linklytics-be/internal/entities"
	"linklytics-be/internal/repository"
)

func newTestAnalytics(links repository.LinkRepository, clicks repository.ClickRepository, c cache.Cache) *analyticsService {
	svc := NewAnalyticsService(links, clicks, c, cache.NewKeys("test"), cache.DefaultTTL(), zap.NewNop())
	return svc.(*analyticsService)
}

func TestPercentChange(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		previous float64
		want     float64
	}{
		{"both zero", 0, 0, 0},
		{"growth from zero", 5, 0, 100},
		{"doubled", 10, 5, 100},
		{"halved", 5, 10, -50},
		{"unchanged", 7, 7, 0},
		{"fractional", 1, 3, -66.67},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, percentChange(tt.current, tt.previous))
		})
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 3.33, round2(10.0/3.0))
	assert.Equal(t, 2.5, round2(2.5))
	assert.Equal(t, 0.0, round2(0))
}

func TestFillDailySeries(t *testing.T) {
	today := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	sparse := []repository.DailyCount{
		{Date: "2026-08-23", Clicks: 3},
		{Date: "2026-08-29", Clicks: 1},
	}

	series := fillDailySeries(sparse, today, 7)
	require.Len(t, series, 7)
	assert.Equal(t, repository.DailyCount{Date: "2026-08-23", Clicks: 3}, series[0])
	for _, entry := range series[1:6] {
		assert.Zero(t, entry.Clicks, "day %s should be zero-filled", entry.Date)
	}
	assert.Equal(t, repository.DailyCount{Date: "2026-08-29", Clicks: 1}, series[6])
}

func TestSnapshotWithNoData(t *testing.T) {
	svc := newTestAnalytics(newFakeLinkRepo(), newFakeClickRepo(), nil)

	snapshot, err := svc.Snapshot(context.Background(), "owner-1", "", 0)
	require.NoError(t, err)

	assert.Equal(t, DefaultWindowDays, snapshot.WindowDays)
	assert.Zero(t, snapshot.TotalClicks)
	assert.Zero(t, snapshot.TotalLinks)
	assert.Zero(t, snapshot.TodayTrend)
	assert.NotNil(t, snapshot.TopCountries)
	assert.Empty(t, snapshot.TopCountries)
	assert.NotNil(t, snapshot.TopDevices)
	assert.NotNil(t, snapshot.TopBrowsers)
	assert.Len(t, snapshot.DailySeries, DefaultWindowDays)
	assert.Zero(t, snapshot.AvgClicksPerLink)
	assert.Zero(t, snapshot.ActiveLinkRate)
}

func TestSnapshotWindowClamping(t *testing.T) {
	svc := newTestAnalytics(newFakeLinkRepo(), newFakeClickRepo(), nil)

	snapshot, err := svc.Snapshot(context.Background(), "owner-1", "", 500)
	require.NoError(t, err)
	assert.Equal(t, maxWindowDays, snapshot.WindowDays)
	assert.Len(t, snapshot.DailySeries, maxWindowDays)

	snapshot, err = svc.Snapshot(context.Background(), "owner-1", "", -3)
	require.NoError(t, err)
	assert.Equal(t, DefaultWindowDays, snapshot.WindowDays)
}

func TestSnapshotAggregatesClicks(t *testing.T) {
	owner := "owner-1"
	links := newFakeLinkRepo()
	clicks := newFakeClickRepo()
	link := links.add(&entities.Link{ShortCode: "abc123", Destination: "https://example.com", OwnerID: &owner, IsActive: true, ClickCount: 3})

	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	addClick := func(at time.Time, country, device string) {
		_, err := clicks.Insert(context.Background(), &entities.Click{
			LinkID: link.ID, OwnerID: &owner, ClickedAt: at,
			Country: country, Device: device, Browser: "Chrome",
		})
		require.NoError(t, err)
	}
	addClick(now.Add(-time.Hour), "Germany", "desktop")
	addClick(now.Add(-2*time.Hour), "Germany", "mobile")
	addClick(now.AddDate(0, 0, -1), "", "desktop") // yesterday, unknown country

	svc := newTestAnalytics(links, clicks, nil)
	svc.now = func() time.Time { return now }

	snapshot, err := svc.Snapshot(context.Background(), owner, "", 7)
	require.NoError(t, err)

	assert.Equal(t, int64(3), snapshot.TotalClicks)
	assert.Equal(t, int64(2), snapshot.ClicksToday)
	assert.Equal(t, int64(1), snapshot.ClicksYesterday)
	assert.Equal(t, 100.0, snapshot.TodayTrend)
	assert.Equal(t, int64(1), snapshot.TotalLinks)
	assert.Equal(t, int64(1), snapshot.LinksWithClicks)
	assert.Equal(t, 3.0, snapshot.AvgClicksPerLink)
	assert.Equal(t, 100.0, snapshot.ActiveLinkRate)

	require.NotEmpty(t, snapshot.TopCountries)
	assert.Equal(t, repository.BreakdownEntry{Value: "Germany", Clicks: 2}, snapshot.TopCountries[0])
	assert.Contains(t, snapshot.TopCountries, repository.BreakdownEntry{Value: "Unknown", Clicks: 1})

	require.Len(t, snapshot.DailySeries, 7)
	assert.Equal(t, int64(2), snapshot.DailySeries[6].Clicks)
	assert.Equal(t, int64(1), snapshot.DailySeries[5].Clicks)
}

func TestSnapshotScopedToLink(t *testing.T) {
	owner := "owner-1"
	links := newFakeLinkRepo()
	clicks := newFakeClickRepo()
	first := links.add(&entities.Link{ShortCode: "first", Destination: "https://example.com/a", OwnerID: &owner, IsActive: true})
	second := links.add(&entities.Link{ShortCode: "second", Destination: "https://example.com/b", OwnerID: &owner, IsActive: true})

	for _, linkID := range []string{first.ID, first.ID, second.ID} {
		_, err := clicks.Insert(context.Background(), &entities.Click{LinkID: linkID, OwnerID: &owner})
		require.NoError(t, err)
	}

	svc := newTestAnalytics(links, clicks, nil)
	snapshot, err := svc.Snapshot(context.Background(), owner, "first", 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), snapshot.TotalClicks)
}

func TestSnapshotRejectsForeignLink(t *testing.T) {
	owner := "owner-1"
	links := newFakeLinkRepo()
	links.add(&entities.Link{ShortCode: "theirs", Destination: "https://example.com", OwnerID: &owner, IsActive: true})

	svc := newTestAnalytics(links, newFakeClickRepo(), nil)
	_, err := svc.Snapshot(context.Background(), "owner-2", "theirs", 7)
	assert.ErrorIs(t, err, entities.ErrLinkNotFound)
}

func TestSnapshotAfterLinkDeletion(t *testing.T) {
	// Deleting a link removes its click events with it, so the next
	// snapshot computes from a clean slate.
	owner := "owner-1"
	clicks := newFakeClickRepo()
	links := newFakeLinkRepo()
	links.clicks = clicks
	link := links.add(&entities.Link{ShortCode: "abc123", Destination: "https://example.com", OwnerID: &owner, IsActive: true})

	for i := 0; i < 3; i++ {
		_, err := clicks.Insert(context.Background(), &entities.Click{LinkID: link.ID, OwnerID: &owner})
		require.NoError(t, err)
	}

	svc := newTestAnalytics(links, clicks, nil)
	snapshot, err := svc.Snapshot(context.Background(), owner, "", 7)
	require.NoError(t, err)
	require.Equal(t, int64(3), snapshot.TotalClicks)

	_, err = links.Delete(context.Background(), "abc123", &owner)
	require.NoError(t, err)

	snapshot, err = svc.Snapshot(context.Background(), owner, "", 7)
	require.NoError(t, err)
	assert.Zero(t, snapshot.TotalClicks)
	assert.Zero(t, snapshot.TotalLinks)
}

func TestSnapshotServedFromCache(t *testing.T) {
	owner := "owner-1"
	links := newFakeLinkRepo()
	clicks := newFakeClickRepo()
	links.add(&entities.Link{ShortCode: "abc123", Destination: "https://example.com", OwnerID: &owner, IsActive: true})

	svc := newTestAnalytics(links, clicks, cache.NewMemoryCache())

	first, err := svc.Snapshot(context.Background(), owner, "", 7)
	require.NoError(t, err)
	require.Equal(t, int64(1), first.TotalLinks)

	// New data lands after the snapshot was cached; the same query must
	// keep serving the cached rollup until it is invalidated.
	links.add(&entities.Link{ShortCode: "later", Destination: "https://example.com/2", OwnerID: &owner, IsActive: true})

	second, err := svc.Snapshot(context.Background(), owner, "", 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), second.TotalLinks)
}

func TestListClicksPagination(t *testing.T) {
	owner := "owner-1"
	links := newFakeLinkRepo()
	clicks := newFakeClickRepo()
	link := links.add(&entities.Link{ShortCode: "abc123", Destination: "https://example.com", OwnerID: &owner, IsActive: true})

	base := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := clicks.Insert(context.Background(), &entities.Click{
			LinkID: link.ID, OwnerID: &owner, ClickedAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	svc := newTestAnalytics(links, clicks, nil)
	page, err := svc.ListClicks(context.Background(), "abc123", &owner, time.Time{}, time.Time{}, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Clicks, 2)
	// Newest first
	assert.True(t, page.Clicks[0].ClickedAt.After(page.Clicks[1].ClickedAt))

	last, err := svc.ListClicks(context.Background(), "abc123", &owner, time.Time{}, time.Time{}, 3, 2)
	require.NoError(t, err)
	assert.Len(t, last.Clicks, 1)
}

func TestListClicksDateRange(t *testing.T) {
	owner := "owner-1"
	links := newFakeLinkRepo()
	clicks := newFakeClickRepo()
	link := links.add(&entities.Link{ShortCode: "abc123", Destination: "https://example.com", OwnerID: &owner, IsActive: true})

	base := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		_, err := clicks.Insert(context.Background(), &entities.Click{
			LinkID: link.ID, OwnerID: &owner, ClickedAt: base.AddDate(0, 0, i),
		})
		require.NoError(t, err)
	}

	svc := newTestAnalytics(links, clicks, nil)
	page, err := svc.ListClicks(context.Background(), "abc123", &owner, base.AddDate(0, 0, 1), base.AddDate(0, 0, 3), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
}

func TestListClicksRejectsForeignOwner(t *testing.T) {
	owner := "owner-1"
	other := "owner-2"
	links := newFakeLinkRepo()
	links.add(&entities.Link{ShortCode: "abc123", Destination: "https://example.com", OwnerID: &owner, IsActive: true})

	svc := newTestAnalytics(links, newFakeClickRepo(), nil)
	_, err := svc.ListClicks(context.Background(), "abc123", &other, time.Time{}, time.Time{}, 1, 10)
	assert.ErrorIs(t, err, entities.ErrLinkNotFound)
}
