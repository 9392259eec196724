package entities

import "time"

// Click represents one visit to a short link. Rows are immutable once
// written; they only go away when the owning link is deleted.
type Click struct {
	ID        string    `json:"id"` // UUID
	LinkID    string    `json:"link_id"`
	OwnerID   *string   `json:"owner_id,omitempty"` // copied from the link at record time
	ClickedAt time.Time `json:"clicked_at"`
	Country   string    `json:"country,omitempty"`
	City      string    `json:"city,omitempty"`
	Latitude  float64   `json:"latitude,omitempty"`
	Longitude float64   `json:"longitude,omitempty"`
	Device    string    `json:"device,omitempty"` // mobile/desktop/tablet
	OS        string    `json:"os,omitempty"`
	Browser   string    `json:"browser,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
	Referrer  string    `json:"referrer,omitempty"`
}
