package models

import "time"

// CreateLinkRequest represents the request body for shortening a URL
type CreateLinkRequest struct {
	URL       string     `json:"url" binding:"required,url"` // Gin validation: required and must be valid URL
	ShortCode *string    `json:"short_code,omitempty"`       // Optional custom alias
	ExpiresAt *time.Time `json:"expires_at,omitempty"`       // Optional expiration date
}

// UpdateLinkRequest represents the request body for mutating a link.
// Nil fields are left untouched. ExpiresAt is an RFC 3339 string so the
// controller can tell "clear the expiry" (empty string) from "keep it" (absent).
type UpdateLinkRequest struct {
	Destination *string `json:"destination,omitempty" binding:"omitempty,url"`
	IsActive    *bool   `json:"is_active,omitempty"`
	ExpiresAt   *string `json:"expires_at,omitempty"`
}
