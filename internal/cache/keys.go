package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// TTL groups the expiry tiers used across the service. It is injected at
// construction so tests can run with isolated, short-lived instances instead
// of shared package constants.
type TTL struct {
	Short  time.Duration // availability probes, negative lookups
	Medium time.Duration // link records on the redirect path
	Long   time.Duration // analytics rollups, list pages
}

// DefaultTTL returns the production expiry tiers.
func DefaultTTL() TTL {
	return TTL{
		Short:  30 * time.Second,
		Medium: 5 * time.Minute,
		Long:   1 * time.Hour,
	}
}

// Keys builds every cache key used by the service. Centralizing construction
// keeps the read side and the invalidation side in agreement about shape.
type Keys struct {
	prefix string
}

// NewKeys creates a key builder. The prefix isolates environments sharing a
// Redis instance and may be empty.
func NewKeys(prefix string) Keys {
	if prefix != "" && !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}
	return Keys{prefix: prefix}
}

// LinkByCode keys the cached link record on the redirect path.
func (k Keys) LinkByCode(code string) string {
	return k.prefix + "link:short:" + code
}

// LinkByID keys the cached link record for id-based lookups.
func (k Keys) LinkByID(id string) string {
	return k.prefix + "link:id:" + id
}

// OwnerLinks keys the owner's link-list page.
func (k Keys) OwnerLinks(ownerID string) string {
	return k.prefix + "links:owner:" + ownerID
}

// OwnerLinksPattern matches every cached list page for an owner.
func (k Keys) OwnerLinksPattern(ownerID string) string {
	return k.prefix + "links:owner:" + ownerID + "*"
}

// LinkClicks keys one page of the raw click listing for a link.
func (k Keys) LinkClicks(linkID string, query map[string]string) string {
	return fmt.Sprintf("%sclicks:%s:%s", k.prefix, linkID, QueryHash(query))
}

// LinkClicksPattern matches every cached click page for a link.
func (k Keys) LinkClicksPattern(linkID string) string {
	return k.prefix + "clicks:" + linkID + ":*"
}

// OwnerAnalytics keys one computed analytics snapshot. The query map carries
// the optional link scope and the day window.
func (k Keys) OwnerAnalytics(ownerID string, query map[string]string) string {
	return fmt.Sprintf("%sanalytics:owner:%s:%s", k.prefix, ownerID, QueryHash(query))
}

// OwnerAnalyticsPattern matches every cached snapshot for an owner.
func (k Keys) OwnerAnalyticsPattern(ownerID string) string {
	return k.prefix + "analytics:owner:" + ownerID + ":*"
}

// QueryHash reduces a query map to a short stable fingerprint. Keys are
// sorted before hashing so semantically identical queries built in different
// field orders collide to the same cache key.
func QueryHash(query map[string]string) string {
	if len(query) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, key := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(query[key])
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])[:16]
}
