package service

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"linklytics-be/internal/entities"
	"linklytics-be/internal/repository"
)

// fakeLinkRepo is an in-memory LinkRepository. It emulates the datastore's
// semantics, including the FK cascade into the click repo when one is
// attached.
type fakeLinkRepo struct {
	mu      sync.Mutex
	links   map[string]*entities.Link // keyed by short code
	nextID  int
	clicks  *fakeClickRepo // cascade target, may be nil
	findErr error          // forced failure for every lookup
}

func newFakeLinkRepo() *fakeLinkRepo {
	return &fakeLinkRepo{links: make(map[string]*entities.Link)}
}

func (f *fakeLinkRepo) add(link *entities.Link) *entities.Link {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	if link.ID == "" {
		link.ID = "link-" + strconv.Itoa(f.nextID)
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}
	link.UpdatedAt = link.CreatedAt
	f.links[link.ShortCode] = link
	return link
}

func (f *fakeLinkRepo) Create(_ context.Context, shortCode, destination string, ownerID *string, expiresAt *time.Time) (*entities.Link, error) {
	f.mu.Lock()
	if _, exists := f.links[shortCode]; exists {
		f.mu.Unlock()
		return nil, entities.ErrCodeTaken
	}
	f.mu.Unlock()
	return f.add(&entities.Link{
		ShortCode:   shortCode,
		Destination: destination,
		OwnerID:     ownerID,
		IsActive:    true,
		ExpiresAt:   expiresAt,
	}), nil
}

func (f *fakeLinkRepo) FindByCode(_ context.Context, shortCode string) (*entities.Link, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	link, ok := f.links[shortCode]
	if !ok {
		return nil, entities.ErrLinkNotFound
	}
	copied := *link
	return &copied, nil
}

func (f *fakeLinkRepo) FindByID(_ context.Context, id string) (*entities.Link, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, link := range f.links {
		if link.ID == id {
			copied := *link
			return &copied, nil
		}
	}
	return nil, entities.ErrLinkNotFound
}

func (f *fakeLinkRepo) ListByOwner(_ context.Context, ownerID string) ([]*entities.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.Link
	for _, link := range f.links {
		if link.OwnerID != nil && *link.OwnerID == ownerID {
			copied := *link
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeLinkRepo) Update(_ context.Context, shortCode string, ownerID *string, upd repository.LinkUpdate) (*entities.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	link, ok := f.links[shortCode]
	if !ok {
		return nil, entities.ErrLinkNotFound
	}
	if ownerID != nil && (link.OwnerID == nil || *link.OwnerID != *ownerID) {
		return nil, entities.ErrLinkNotFound
	}
	if upd.Destination != nil {
		link.Destination = *upd.Destination
	}
	if upd.IsActive != nil {
		link.IsActive = *upd.IsActive
	}
	if upd.SetExpiry {
		link.ExpiresAt = upd.ExpiresAt
	}
	link.UpdatedAt = time.Now().UTC()
	copied := *link
	return &copied, nil
}

func (f *fakeLinkRepo) IncrementClicks(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, link := range f.links {
		if link.ID == id {
			link.ClickCount++
			return nil
		}
	}
	return entities.ErrLinkNotFound
}

func (f *fakeLinkRepo) Delete(ctx context.Context, shortCode string, ownerID *string) (*entities.Link, error) {
	f.mu.Lock()
	link, ok := f.links[shortCode]
	if !ok || (ownerID != nil && (link.OwnerID == nil || *link.OwnerID != *ownerID)) {
		f.mu.Unlock()
		return nil, entities.ErrLinkNotFound
	}
	delete(f.links, shortCode)
	f.mu.Unlock()

	if f.clicks != nil {
		// FK cascade
		f.clicks.deleteByLink(link.ID)
	}
	copied := *link
	return &copied, nil
}

func (f *fakeLinkRepo) CountByOwner(_ context.Context, ownerID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, link := range f.links {
		if link.OwnerID != nil && *link.OwnerID == ownerID {
			count++
		}
	}
	return count, nil
}

func (f *fakeLinkRepo) CountCreatedBetween(_ context.Context, ownerID string, from, to time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, link := range f.links {
		if link.OwnerID != nil && *link.OwnerID == ownerID &&
			!link.CreatedAt.Before(from) && link.CreatedAt.Before(to) {
			count++
		}
	}
	return count, nil
}

func (f *fakeLinkRepo) CountWithClicks(_ context.Context, ownerID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, link := range f.links {
		if link.OwnerID != nil && *link.OwnerID == ownerID && link.ClickCount > 0 {
			count++
		}
	}
	return count, nil
}

func (f *fakeLinkRepo) Summary(_ context.Context, ownerID string) (*repository.OwnerSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	summary := &repository.OwnerSummary{}
	for _, link := range f.links {
		if link.OwnerID == nil || *link.OwnerID != ownerID {
			continue
		}
		summary.TotalLinks++
		if link.IsActive {
			summary.ActiveLinks++
		}
		summary.TotalClicks += link.ClickCount
	}
	return summary, nil
}

// fakeClickRepo is an in-memory ClickRepository computing the same
// aggregations the SQL queries do.
type fakeClickRepo struct {
	mu        sync.Mutex
	clicks    []*entities.Click
	nextID    int
	insertErr error
}

func newFakeClickRepo() *fakeClickRepo {
	return &fakeClickRepo{}
}

func (f *fakeClickRepo) Insert(_ context.Context, click *entities.Click) (*entities.Click, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	stored := *click
	stored.ID = "click-" + strconv.Itoa(f.nextID)
	if stored.ClickedAt.IsZero() {
		stored.ClickedAt = time.Now().UTC()
	}
	f.clicks = append(f.clicks, &stored)
	copied := stored
	return &copied, nil
}

func (f *fakeClickRepo) deleteByLink(linkID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.clicks[:0]
	for _, click := range f.clicks {
		if click.LinkID != linkID {
			kept = append(kept, click)
		}
	}
	f.clicks = kept
}

func (f *fakeClickRepo) inScope(click *entities.Click, scope repository.ClickScope) bool {
	if click.OwnerID == nil || *click.OwnerID != scope.OwnerID {
		return false
	}
	return scope.LinkID == "" || click.LinkID == scope.LinkID
}

func (f *fakeClickRepo) List(_ context.Context, linkID string, filter repository.ClickFilter) ([]*entities.Click, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []*entities.Click
	for _, click := range f.clicks {
		if click.LinkID != linkID {
			continue
		}
		if !filter.From.IsZero() && click.ClickedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !click.ClickedAt.Before(filter.To) {
			continue
		}
		copied := *click
		matched = append(matched, &copied)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ClickedAt.After(matched[j].ClickedAt) })

	total := int64(len(matched))
	if filter.Offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (f *fakeClickRepo) CountAll(_ context.Context, scope repository.ClickScope) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, click := range f.clicks {
		if f.inScope(click, scope) {
			count++
		}
	}
	return count, nil
}

func (f *fakeClickRepo) CountBetween(_ context.Context, scope repository.ClickScope, from, to time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, click := range f.clicks {
		if f.inScope(click, scope) && !click.ClickedAt.Before(from) && click.ClickedAt.Before(to) {
			count++
		}
	}
	return count, nil
}

func (f *fakeClickRepo) Breakdown(_ context.Context, scope repository.ClickScope, dimension string, limit int) ([]repository.BreakdownEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[string]int64)
	for _, click := range f.clicks {
		if !f.inScope(click, scope) {
			continue
		}
		var value string
		switch dimension {
		case "country":
			value = click.Country
		case "device":
			value = click.Device
		case "browser":
			value = click.Browser
		}
		if value == "" {
			value = "Unknown"
		}
		counts[value]++
	}

	entries := make([]repository.BreakdownEntry, 0, len(counts))
	for value, clicks := range counts {
		entries = append(entries, repository.BreakdownEntry{Value: value, Clicks: clicks})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Clicks != entries[j].Clicks {
			return entries[i].Clicks > entries[j].Clicks
		}
		return entries[i].Value < entries[j].Value
	})
	if limit < len(entries) {
		entries = entries[:limit]
	}
	return entries, nil
}

func (f *fakeClickRepo) DailyCounts(_ context.Context, scope repository.ClickScope, from time.Time) ([]repository.DailyCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byDate := make(map[string]int64)
	for _, click := range f.clicks {
		if f.inScope(click, scope) && !click.ClickedAt.Before(from) {
			byDate[click.ClickedAt.UTC().Format("2006-01-02")]++
		}
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	counts := make([]repository.DailyCount, 0, len(dates))
	for _, date := range dates {
		counts = append(counts, repository.DailyCount{Date: date, Clicks: byDate[date]})
	}
	return counts, nil
}
