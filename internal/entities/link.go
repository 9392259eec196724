package entities

import (
	"errors"
	"time"
)

// Sentinel errors shared across repositories and services
var (
	// ErrLinkNotFound covers codes that never existed, were deleted, or are
	// deactivated. The three cases are deliberately collapsed into one signal.
	ErrLinkNotFound = errors.New("link not found")
	// ErrLinkGone marks a code that existed but is past its expiry.
	ErrLinkGone = errors.New("link expired")
	// ErrCodeTaken is returned when a requested alias already exists.
	ErrCodeTaken = errors.New("short code already taken")
)

// Link represents a short link entity in the database
type Link struct {
	ID          string     `json:"id"` // UUID
	ShortCode   string     `json:"short_code"`
	Destination string     `json:"destination"`
	OwnerID     *string    `json:"owner_id,omitempty"` // Pointer allows nil (anonymous links), UUID
	IsActive    bool       `json:"is_active"`
	ClickCount  int64      `json:"click_count"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"` // Pointer allows nil (no expiration)
}

// Expired reports whether the link carries an expiry timestamp in the past.
func (l *Link) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(now)
}
