package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryHash_OrderIndependent(t *testing.T) {
	// Maps with identical pairs must collide to the same fingerprint no
	// matter the insertion order
	a := map[string]string{"days": "15", "link": "abc", "page": "2"}
	b := map[string]string{"page": "2", "days": "15", "link": "abc"}

	assert.Equal(t, QueryHash(a), QueryHash(b))
}

func TestQueryHash_DistinguishesValues(t *testing.T) {
	a := map[string]string{"days": "15"}
	b := map[string]string{"days": "30"}

	assert.NotEqual(t, QueryHash(a), QueryHash(b))
}

func TestQueryHash_EmptyQuery(t *testing.T) {
	assert.Equal(t, "none", QueryHash(nil))
	assert.Equal(t, "none", QueryHash(map[string]string{}))
}

func TestKeys_Shapes(t *testing.T) {
	keys := NewKeys("")

	assert.Equal(t, "link:short:abc123", keys.LinkByCode("abc123"))
	assert.Equal(t, "link:id:42", keys.LinkByID("42"))
	assert.Equal(t, "links:owner:u1", keys.OwnerLinks("u1"))
	assert.Equal(t, "links:owner:u1*", keys.OwnerLinksPattern("u1"))
	assert.Equal(t, "clicks:42:*", keys.LinkClicksPattern("42"))
	assert.Equal(t, "analytics:owner:u1:*", keys.OwnerAnalyticsPattern("u1"))
}

func TestKeys_PrefixIsolation(t *testing.T) {
	plain := NewKeys("")
	staging := NewKeys("staging")
	stagingColon := NewKeys("staging:")

	assert.Equal(t, "staging:link:short:abc", staging.LinkByCode("abc"))
	// A trailing colon on the prefix is normalized away
	assert.Equal(t, staging.LinkByCode("abc"), stagingColon.LinkByCode("abc"))
	assert.NotEqual(t, plain.LinkByCode("abc"), staging.LinkByCode("abc"))
}

func TestKeys_AnalyticsFingerprint(t *testing.T) {
	keys := NewKeys("")

	a := keys.OwnerAnalytics("u1", map[string]string{"link": "l1", "days": "7"})
	b := keys.OwnerAnalytics("u1", map[string]string{"days": "7", "link": "l1"})
	c := keys.OwnerAnalytics("u1", map[string]string{"days": "14", "link": "l1"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
