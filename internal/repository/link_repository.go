package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"linklytics-be/internal/entities"
)

// LinkUpdate carries the mutable attributes of a link. Nil fields are left
// untouched; SetExpiry distinguishes "clear the expiry" from "leave it".
type LinkUpdate struct {
	Destination *string
	IsActive    *bool
	ExpiresAt   *time.Time
	SetExpiry   bool
}

// OwnerSummary aggregates an owner's link counts and click totals.
type OwnerSummary struct {
	TotalLinks  int64 `json:"total_links"`
	ActiveLinks int64 `json:"active_links"`
	TotalClicks int64 `json:"total_clicks"`
}

// LinkRepository defines the interface for short-link database operations
type LinkRepository interface {
	Create(ctx context.Context, shortCode, destination string, ownerID *string, expiresAt *time.Time) (*entities.Link, error)
	FindByCode(ctx context.Context, shortCode string) (*entities.Link, error)
	FindByID(ctx context.Context, id string) (*entities.Link, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*entities.Link, error)
	Update(ctx context.Context, shortCode string, ownerID *string, upd LinkUpdate) (*entities.Link, error)
	IncrementClicks(ctx context.Context, id string) error
	Delete(ctx context.Context, shortCode string, ownerID *string) (*entities.Link, error)
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
	CountCreatedBetween(ctx context.Context, ownerID string, from, to time.Time) (int64, error)
	CountWithClicks(ctx context.Context, ownerID string) (int64, error)
	Summary(ctx context.Context, ownerID string) (*OwnerSummary, error)
}

type linkRepository struct {
	db *sql.DB
}

// NewLinkRepository creates a new link repository
func NewLinkRepository(db *sql.DB) LinkRepository {
	return &linkRepository{db: db}
}

const linkColumns = `id, short_code, destination, owner_id, is_active, click_count, created_at, updated_at, expires_at`

func scanLink(row *sql.Row) (*entities.Link, error) {
	var link entities.Link
	err := row.Scan(
		&link.ID,
		&link.ShortCode,
		&link.Destination,
		&link.OwnerID,
		&link.IsActive,
		&link.ClickCount,
		&link.CreatedAt,
		&link.UpdatedAt,
		&link.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// Create inserts a new link. Short codes are unique; a conflict surfaces as
// entities.ErrCodeTaken so the service can retry or report the alias clash.
func (r *linkRepository) Create(ctx context.Context, shortCode, destination string, ownerID *string, expiresAt *time.Time) (*entities.Link, error) {
	var expiresAtValue interface{}
	if expiresAt != nil {
		// Expiries are stored in UTC
		expiresAtValue = expiresAt.UTC()
	}

	query := `
		INSERT INTO links (short_code, destination, owner_id, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + linkColumns

	link, err := scanLink(r.db.QueryRowContext(ctx, query, shortCode, destination, ownerID, expiresAtValue))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return nil, entities.ErrCodeTaken
		}
		return nil, fmt.Errorf("failed to create link: %w", err)
	}
	return link, nil
}

// FindByCode finds a link by its short code. It returns the row regardless
// of activation or expiry state; the resolver applies that policy.
func (r *linkRepository) FindByCode(ctx context.Context, shortCode string) (*entities.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE short_code = $1`

	link, err := scanLink(r.db.QueryRowContext(ctx, query, shortCode))
	if err == sql.ErrNoRows {
		return nil, entities.ErrLinkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find link: %w", err)
	}
	return link, nil
}

// FindByID finds a link by its internal id
func (r *linkRepository) FindByID(ctx context.Context, id string) (*entities.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE id = $1`

	link, err := scanLink(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, entities.ErrLinkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find link: %w", err)
	}
	return link, nil
}

// ListByOwner retrieves all links for a specific owner, newest first
func (r *linkRepository) ListByOwner(ctx context.Context, ownerID string) ([]*entities.Link, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM links
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	var links []*entities.Link
	for rows.Next() {
		var link entities.Link
		err := rows.Scan(
			&link.ID,
			&link.ShortCode,
			&link.Destination,
			&link.OwnerID,
			&link.IsActive,
			&link.ClickCount,
			&link.CreatedAt,
			&link.UpdatedAt,
			&link.ExpiresAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, &link)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating links: %w", err)
	}
	return links, nil
}

// Update mutates destination, active flag and/or expiry. When ownerID is
// set, the row must belong to that owner; nil ownerID is the admin path.
func (r *linkRepository) Update(ctx context.Context, shortCode string, ownerID *string, upd LinkUpdate) (*entities.Link, error) {
	setClauses := "updated_at = (NOW() AT TIME ZONE 'UTC')"
	args := []interface{}{}
	n := 0

	if upd.Destination != nil {
		n++
		setClauses += fmt.Sprintf(", destination = $%d", n)
		args = append(args, *upd.Destination)
	}
	if upd.IsActive != nil {
		n++
		setClauses += fmt.Sprintf(", is_active = $%d", n)
		args = append(args, *upd.IsActive)
	}
	if upd.SetExpiry {
		var expiresAtValue interface{}
		if upd.ExpiresAt != nil {
			expiresAtValue = upd.ExpiresAt.UTC()
		}
		n++
		setClauses += fmt.Sprintf(", expires_at = $%d", n)
		args = append(args, expiresAtValue)
	}

	query := fmt.Sprintf(`UPDATE links SET %s WHERE short_code = $%d`, setClauses, n+1)
	args = append(args, shortCode)
	if ownerID != nil {
		query += fmt.Sprintf(` AND owner_id = $%d`, n+2)
		args = append(args, *ownerID)
	}
	query += ` RETURNING ` + linkColumns

	link, err := scanLink(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, entities.ErrLinkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update link: %w", err)
	}
	return link, nil
}

// IncrementClicks bumps the click counter by one in a single statement, so
// concurrent visits never lose an increment.
func (r *linkRepository) IncrementClicks(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE links
		SET click_count = click_count + 1
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to increment click count: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.ErrLinkNotFound
	}
	return nil
}

// Delete removes a link; the clicks go with it via the FK cascade. The
// deleted row is returned so the caller can invalidate its cache entries.
func (r *linkRepository) Delete(ctx context.Context, shortCode string, ownerID *string) (*entities.Link, error) {
	query := `DELETE FROM links WHERE short_code = $1`
	args := []interface{}{shortCode}
	if ownerID != nil {
		query += ` AND owner_id = $2`
		args = append(args, *ownerID)
	}
	query += ` RETURNING ` + linkColumns

	link, err := scanLink(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, entities.ErrLinkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete link: %w", err)
	}
	return link, nil
}

// CountByOwner returns the owner's total number of links
func (r *linkRepository) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM links WHERE owner_id = $1`, ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count links: %w", err)
	}
	return count, nil
}

// CountCreatedBetween counts the owner's links created in [from, to)
func (r *linkRepository) CountCreatedBetween(ctx context.Context, ownerID string, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM links
		WHERE owner_id = $1 AND created_at >= $2 AND created_at < $3
	`, ownerID, from.UTC(), to.UTC()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count links: %w", err)
	}
	return count, nil
}

// CountWithClicks counts the owner's links that received at least one click
func (r *linkRepository) CountWithClicks(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM links
		WHERE owner_id = $1 AND click_count > 0
	`, ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count links: %w", err)
	}
	return count, nil
}

// Summary aggregates the owner's link counts and click totals
func (r *linkRepository) Summary(ctx context.Context, ownerID string) (*OwnerSummary, error) {
	var summary OwnerSummary
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_active),
			COALESCE(SUM(click_count), 0)
		FROM links
		WHERE owner_id = $1
	`, ownerID).Scan(&summary.TotalLinks, &summary.ActiveLinks, &summary.TotalClicks)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize links: %w", err)
	}
	return &summary, nil
}
