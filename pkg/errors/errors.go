package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeSelectorMiss represents a configured selector matching zero elements
	ErrorTypeSelectorMiss ErrorType = "selector_miss"
	// ErrorTypeNavigation represents page navigation failures (timeout, network)
	ErrorTypeNavigation ErrorType = "navigation"
	// ErrorTypeClassification represents vision classifier failures
	ErrorTypeClassification ErrorType = "classification"
	// ErrorTypeNormalization represents AI normalization failures
	ErrorTypeNormalization ErrorType = "normalization"
	// ErrorTypeStrategy represents an error escaping a strategy boundary
	ErrorTypeStrategy ErrorType = "strategy"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypePersistence represents store-related errors
	ErrorTypePersistence ErrorType = "persistence"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// ScrapeError represents a strategy-scoped error.
//
// A price candidate without a matching image is not an error of any type;
// that case is dropped silently by the matcher and never reaches here.
type ScrapeError struct {
	Type    ErrorType
	Brand   string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Brand, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Brand, e.Message)
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *ScrapeError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNavigation:
		return true
	case ErrorTypeNormalization:
		return true
	case ErrorTypeRateLimit:
		return false
	case ErrorTypeSelectorMiss:
		return false
	default:
		return false
	}
}

// New creates a new ScrapeError
func New(errType ErrorType, brand, message string, err error) *ScrapeError {
	return &ScrapeError{
		Type:    errType,
		Brand:   brand,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewSelectorMiss creates a new selector miss error
func NewSelectorMiss(brand, selector string) *ScrapeError {
	return New(ErrorTypeSelectorMiss, brand, fmt.Sprintf("selector %q matched nothing", selector), nil)
}

// NewNavigation creates a new navigation error
func NewNavigation(brand, url string, err error) *ScrapeError {
	return New(ErrorTypeNavigation, brand, fmt.Sprintf("failed to load %s", url), err)
}

// NewClassification creates a new classification error
func NewClassification(brand, message string, err error) *ScrapeError {
	return New(ErrorTypeClassification, brand, message, err)
}

// NewNormalization creates a new normalization error
func NewNormalization(brand, message string, err error) *ScrapeError {
	return New(ErrorTypeNormalization, brand, message, err)
}

// NewStrategy creates a new strategy boundary error
func NewStrategy(brand, message string, err error) *ScrapeError {
	return New(ErrorTypeStrategy, brand, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(brand string, duration time.Duration) *ScrapeError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, brand, message, nil)
}

// NewPersistence creates a new persistence error
func NewPersistence(brand, message string, err error) *ScrapeError {
	return New(ErrorTypePersistence, brand, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ScrapeError {
	return New(ErrorTypeConfiguration, "", message, err)
}
