package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyBuilders(t *testing.T) {
	assert.Equal(t, "ratelimit:lawson", RateLimitKey("lawson"))
	assert.Equal(t, "verdict:https://example.com/a.jpg", VerdictKey("https://example.com/a.jpg"))
}

func TestHashKey(t *testing.T) {
	short := "verdict:https://example.com/a.jpg"
	assert.Equal(t, short, hashKey(short))

	long := "verdict:https://example.com/" + strings.Repeat("x", 300)
	hashed := hashKey(long)
	assert.True(t, len(hashed) <= 250)
	assert.True(t, strings.HasPrefix(hashed, "h:"))
	// Stable for the same input
	assert.Equal(t, hashed, hashKey(long))
}
