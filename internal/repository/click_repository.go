package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"linklytics-be/internal/entities"
)

// ClickScope narrows aggregation queries to one owner's events, optionally
// to a single link. LinkID empty means "all of the owner's links".
type ClickScope struct {
	OwnerID string
	LinkID  string
}

// ClickFilter bounds a raw click listing. From/To are optional; zero values
// are ignored.
type ClickFilter struct {
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

// BreakdownEntry is one row of a top-N breakdown
type BreakdownEntry struct {
	Value  string `json:"value"`
	Clicks int64  `json:"clicks"`
}

// DailyCount is one day's click total, keyed by "YYYY-MM-DD"
type DailyCount struct {
	Date   string `json:"date"`
	Clicks int64  `json:"clicks"`
}

// ClickRepository defines the interface for click-event database operations
type ClickRepository interface {
	Insert(ctx context.Context, click *entities.Click) (*entities.Click, error)
	List(ctx context.Context, linkID string, filter ClickFilter) ([]*entities.Click, int64, error)
	CountAll(ctx context.Context, scope ClickScope) (int64, error)
	CountBetween(ctx context.Context, scope ClickScope, from, to time.Time) (int64, error)
	Breakdown(ctx context.Context, scope ClickScope, dimension string, limit int) ([]BreakdownEntry, error)
	DailyCounts(ctx context.Context, scope ClickScope, from time.Time) ([]DailyCount, error)
}

type clickRepository struct {
	db *sql.DB
}

// NewClickRepository creates a new click repository
func NewClickRepository(db *sql.DB) ClickRepository {
	return &clickRepository{db: db}
}

// Insert persists one click event. Events are immutable after this point.
func (r *clickRepository) Insert(ctx context.Context, click *entities.Click) (*entities.Click, error) {
	query := `
		INSERT INTO link_clicks
			(link_id, owner_id, country, city, latitude, longitude, device, os, browser, ip_address, referrer)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, clicked_at
	`

	stored := *click
	err := r.db.QueryRowContext(ctx, query,
		click.LinkID,
		click.OwnerID,
		click.Country,
		click.City,
		click.Latitude,
		click.Longitude,
		click.Device,
		click.OS,
		click.Browser,
		click.IPAddress,
		click.Referrer,
	).Scan(&stored.ID, &stored.ClickedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert click: %w", err)
	}
	return &stored, nil
}

// List returns one page of a link's clicks, newest first, plus the total
// count under the same date filter.
func (r *clickRepository) List(ctx context.Context, linkID string, filter ClickFilter) ([]*entities.Click, int64, error) {
	where := "WHERE link_id = $1"
	args := []interface{}{linkID}

	if !filter.From.IsZero() {
		args = append(args, filter.From.UTC())
		where += fmt.Sprintf(" AND clicked_at >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To.UTC())
		where += fmt.Sprintf(" AND clicked_at < $%d", len(args))
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM link_clicks " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count clicks: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT id, link_id, owner_id, clicked_at, country, city, latitude, longitude,
		       device, os, browser, ip_address, referrer
		FROM link_clicks
		%s
		ORDER BY clicked_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list clicks: %w", err)
	}
	defer rows.Close()

	var clicks []*entities.Click
	for rows.Next() {
		var click entities.Click
		err := rows.Scan(
			&click.ID,
			&click.LinkID,
			&click.OwnerID,
			&click.ClickedAt,
			&click.Country,
			&click.City,
			&click.Latitude,
			&click.Longitude,
			&click.Device,
			&click.OS,
			&click.Browser,
			&click.IPAddress,
			&click.Referrer,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan click: %w", err)
		}
		clicks = append(clicks, &click)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating clicks: %w", err)
	}
	return clicks, total, nil
}

func scopeWhere(scope ClickScope) (string, []interface{}) {
	where := "WHERE owner_id = $1"
	args := []interface{}{scope.OwnerID}
	if scope.LinkID != "" {
		args = append(args, scope.LinkID)
		where += fmt.Sprintf(" AND link_id = $%d", len(args))
	}
	return where, args
}

// CountAll returns the all-time click total for a scope
func (r *clickRepository) CountAll(ctx context.Context, scope ClickScope) (int64, error) {
	where, args := scopeWhere(scope)

	var count int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM link_clicks "+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count clicks: %w", err)
	}
	return count, nil
}

// CountBetween counts a scope's clicks in [from, to)
func (r *clickRepository) CountBetween(ctx context.Context, scope ClickScope, from, to time.Time) (int64, error) {
	where, args := scopeWhere(scope)
	args = append(args, from.UTC())
	where += fmt.Sprintf(" AND clicked_at >= $%d", len(args))
	args = append(args, to.UTC())
	where += fmt.Sprintf(" AND clicked_at < $%d", len(args))

	var count int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM link_clicks "+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count clicks: %w", err)
	}
	return count, nil
}

// breakdownColumns whitelists the dimensions exposed to breakdown queries;
// the dimension name is interpolated into SQL and must never be caller input.
var breakdownColumns = map[string]string{
	"country": "country",
	"device":  "device",
	"browser": "browser",
}

// Breakdown returns the top-N values of one dimension by click count.
// Missing values are bucketed as "Unknown".
func (r *clickRepository) Breakdown(ctx context.Context, scope ClickScope, dimension string, limit int) ([]BreakdownEntry, error) {
	column, ok := breakdownColumns[dimension]
	if !ok {
		return nil, fmt.Errorf("unsupported breakdown dimension: %s", dimension)
	}

	where, args := scopeWhere(scope)
	args = append(args, limit)
	query := fmt.Sprintf(`
		SELECT COALESCE(NULLIF(%s, ''), 'Unknown') AS value, COUNT(*) AS clicks
		FROM link_clicks
		%s
		GROUP BY value
		ORDER BY clicks DESC, value ASC
		LIMIT $%d
	`, column, where, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to compute %s breakdown: %w", dimension, err)
	}
	defer rows.Close()

	var entries []BreakdownEntry
	for rows.Next() {
		var entry BreakdownEntry
		if err := rows.Scan(&entry.Value, &entry.Clicks); err != nil {
			return nil, fmt.Errorf("failed to scan breakdown: %w", err)
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating breakdown: %w", err)
	}
	return entries, nil
}

// DailyCounts returns per-day click totals since from. Days with no events
// produce no row; the aggregator gap-fills the series.
func (r *clickRepository) DailyCounts(ctx context.Context, scope ClickScope, from time.Time) ([]DailyCount, error) {
	where, args := scopeWhere(scope)
	args = append(args, from.UTC())
	where += fmt.Sprintf(" AND clicked_at >= $%d", len(args))

	query := `
		SELECT TO_CHAR(DATE_TRUNC('day', clicked_at), 'YYYY-MM-DD') AS day, COUNT(*) AS clicks
		FROM link_clicks
		` + where + `
		GROUP BY day
		ORDER BY day ASC
	`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to compute daily counts: %w", err)
	}
	defer rows.Close()

	var counts []DailyCount
	for rows.Next() {
		var count DailyCount
		if err := rows.Scan(&count.Date, &count.Clicks); err != nil {
			return nil, fmt.Errorf("failed to scan daily count: %w", err)
		}
		counts = append(counts, count)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily counts: %w", err)
	}
	return counts, nil
}
