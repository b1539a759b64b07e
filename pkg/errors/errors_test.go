package errors

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScrapeError_ErrorFormat(t *testing.T) {
	err := NewNavigation("seven", "https://shop.example.com/new/", stderrors.New("timeout"))

	assert.Contains(t, err.Error(), "navigation")
	assert.Contains(t, err.Error(), "seven")
	assert.Contains(t, err.Error(), "timeout")
}

func TestScrapeError_Unwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewPersistence("seven", "failed to insert product", cause)

	assert.True(t, stderrors.Is(err, cause))
}

func TestScrapeError_IsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       *ScrapeError
		retryable bool
	}{
		{"navigation", NewNavigation("seven", "https://x", nil), true},
		{"normalization", NewNormalization("seven", "model timeout", nil), true},
		{"rate limit", NewRateLimit("seven", 30*time.Minute), false},
		{"selector miss", NewSelectorMiss("seven", ".items"), false},
		{"classification", NewClassification("lawson", "bad verdict", nil), false},
		{"strategy", NewStrategy("seven", "panicked", nil), false},
		{"configuration", NewConfiguration("missing url", nil), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, tt.err.IsRetryable())
		})
	}
}

func TestNewSelectorMiss_NamesSelector(t *testing.T) {
	err := NewSelectorMiss("familymart", ".ly-goods-name")

	assert.Equal(t, ErrorTypeSelectorMiss, err.Type)
	assert.Contains(t, err.Message, ".ly-goods-name")
}
