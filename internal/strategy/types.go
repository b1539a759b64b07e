package strategy

import (
	"context"
	"time"

	"konbiniwatch/internal/ai"
	"konbiniwatch/internal/browser"
	"konbiniwatch/internal/layout"
	"konbiniwatch/internal/normalize"
	"konbiniwatch/services/cache"
)

// Status represents the outcome of one brand sweep
type Status string

const (
	// StatusSuccess means every candidate was processed
	StatusSuccess Status = "success"
	// StatusPartialSuccess means some candidates were skipped but the
	// sweep still produced records
	StatusPartialSuccess Status = "partial_success"
	// StatusFailed means the sweep produced nothing usable
	StatusFailed Status = "failed"
)

// ScrapeResult is what a strategy returns for one brand
type ScrapeResult struct {
	Brand    string
	Status   Status
	Products []*normalize.ProductRecord
	Err      error
}

// Mode selects how a brand's site is scraped
type Mode string

const (
	// ModeList scrapes a static listing page with CSS selectors
	ModeList Mode = "list"
	// ModeDetail discovers links on a listing page and extracts each
	// product from its own detail page
	ModeDetail Mode = "detail"
	// ModeBanner drives a rendered carousel page through the vision
	// classifier and the geometric matcher
	ModeBanner Mode = "banner"
)

// Selectors are the CSS hooks for one brand's pages
type Selectors struct {
	Item        string
	Title       string
	Price       string
	Image       string
	Link        string
	Date        string
	Description string
	Slide       string
}

// BrandConfig describes one brand's site and how to scrape it
type BrandConfig struct {
	Brand      string
	URL        string
	Mode       Mode
	Selectors  Selectors
	Thresholds layout.MatchThresholds
}

// FoodClassifier decides whether a banner image shows a food product
type FoodClassifier interface {
	Classify(ctx context.Context, brand, imageURL string) bool
}

// ProductNormalizer translates and structures scraped text
type ProductNormalizer interface {
	NormalizeBatch(ctx context.Context, brand string, items []ai.NormalizeItem) []ai.ProductFields
}

// Timeouts are the browser wait bounds shared by all strategies
type Timeouts struct {
	Navigation time.Duration
	Selector   time.Duration
}

// Deps are the shared services strategies draw on
type Deps struct {
	Browser         browser.Browser
	Cache           cache.CacheService
	Classifier      FoodClassifier
	Normalizer      ProductNormalizer
	Timeouts        Timeouts
	ClassifierDelay time.Duration
}

// Strategy scrapes one brand's site into product records
type Strategy interface {
	// Scrape runs one sweep of the brand's site
	Scrape(ctx context.Context) (*ScrapeResult, error)

	// GetName returns the strategy name
	GetName() string

	// GetBrand returns the brand key
	GetBrand() string
}
