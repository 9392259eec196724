package models

import "time"

// LinkResponse is the externally visible shape of a short link
type LinkResponse struct {
	ID          string     `json:"id"`
	ShortCode   string     `json:"short_code"`
	Destination string     `json:"destination"`
	ShortURL    string     `json:"short_url"`   // Full short URL (base URL + short code)
	QRCodeURL   string     `json:"qr_code_url"` // Derived QR rendering of the short URL
	IsActive    bool       `json:"is_active"`
	ClickCount  int64      `json:"click_count"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}
