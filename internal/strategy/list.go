package strategy

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"konbiniwatch/helpers"
	"konbiniwatch/internal/normalize"
	"konbiniwatch/logger"
	"konbiniwatch/pkg/errors"
	"konbiniwatch/services/cache"
)

// rateLimitBlock is how long a brand stays blocked after its site
// answers 429.
const rateLimitBlock = 30 * time.Minute

// ListStrategy scrapes a static listing page. One HTTP fetch, CSS
// selectors per product card, no browser.
type ListStrategy struct {
	cfg  BrandConfig
	deps Deps
	// fetch is swappable for tests
	fetch func(url string) (io.Reader, error)
}

// NewListStrategy creates a list strategy for the brand
func NewListStrategy(cfg BrandConfig, deps Deps) *ListStrategy {
	return &ListStrategy{cfg: cfg, deps: deps, fetch: helpers.FetchWithRandomHeaders}
}

// GetName returns the strategy name
func (s *ListStrategy) GetName() string {
	return "list"
}

// GetBrand returns the brand key
func (s *ListStrategy) GetBrand() string {
	return s.cfg.Brand
}

// Scrape fetches the listing page and extracts one record per card
func (s *ListStrategy) Scrape(ctx context.Context) (*ScrapeResult, error) {
	log := logger.ForBrand(s.cfg.Brand)

	if s.blocked() {
		err := errors.NewRateLimit(s.cfg.Brand, rateLimitBlock)
		return &ScrapeResult{Brand: s.cfg.Brand, Status: StatusFailed, Err: err}, err
	}

	body, err := s.fetch(s.cfg.URL)
	if err != nil {
		if strings.Contains(err.Error(), "rate limited") {
			s.block()
			rlErr := errors.NewRateLimit(s.cfg.Brand, rateLimitBlock)
			return &ScrapeResult{Brand: s.cfg.Brand, Status: StatusFailed, Err: rlErr}, rlErr
		}
		navErr := errors.NewNavigation(s.cfg.Brand, s.cfg.URL, err)
		return &ScrapeResult{Brand: s.cfg.Brand, Status: StatusFailed, Err: navErr}, navErr
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		navErr := errors.NewNavigation(s.cfg.Brand, s.cfg.URL, err)
		return &ScrapeResult{Brand: s.cfg.Brand, Status: StatusFailed, Err: navErr}, navErr
	}

	raws, missErr := s.extract(doc)
	if missErr != nil {
		log.Warn().Err(missErr).Msg("Listing selector matched nothing")
		return &ScrapeResult{Brand: s.cfg.Brand, Status: StatusPartialSuccess, Err: missErr}, nil
	}

	fields := s.deps.Normalizer.NormalizeBatch(ctx, s.cfg.Brand, buildItems(raws))
	products := composeRecords(raws, fields)

	log.Info().Int("products", len(products)).Msg("Listing sweep complete")
	return &ScrapeResult{Brand: s.cfg.Brand, Status: StatusSuccess, Products: products}, nil
}

// extract walks the product cards. A zero-match item selector is a
// selector miss; individual cards missing a title are skipped.
func (s *ListStrategy) extract(doc *goquery.Document) ([]rawProduct, *errors.ScrapeError) {
	sel := s.cfg.Selectors
	items := doc.Find(sel.Item)
	if items.Length() == 0 {
		return nil, errors.NewSelectorMiss(s.cfg.Brand, sel.Item)
	}

	var raws []rawProduct
	items.Each(func(_ int, card *goquery.Selection) {
		title := helpers.CollapseSpaces(card.Find(sel.Title).First().Text())
		if title == "" {
			return
		}

		priceText := helpers.CollapseSpaces(card.Find(sel.Price).First().Text())
		dateText := helpers.CollapseSpaces(card.Find(sel.Date).First().Text())

		img := card.Find(sel.Image).First()
		src, _ := img.Attr("src")
		dataSrc, _ := img.Attr("data-src")
		imageURL := normalize.CleanImageURL(s.cfg.URL, src, dataSrc)

		sourceURL := s.cfg.URL
		if href, ok := card.Find(sel.Link).First().Attr("href"); ok {
			if resolved := normalize.ResolveURL(s.cfg.URL, href); resolved != "" {
				sourceURL = resolved
			}
		}

		raws = append(raws, rawProduct{
			Name:      title,
			PriceText: priceText,
			DateText:  dateText,
			ImageURL:  imageURL,
			SourceURL: sourceURL,
			IsNew:     normalize.LooksNew(card.Text()),
		})
	})
	return raws, nil
}

func (s *ListStrategy) blocked() bool {
	if s.deps.Cache == nil {
		return false
	}
	_, err := s.deps.Cache.Get(cache.RateLimitKey(s.cfg.Brand))
	return err == nil
}

func (s *ListStrategy) block() {
	if s.deps.Cache == nil {
		return
	}
	if err := s.deps.Cache.Set(cache.RateLimitKey(s.cfg.Brand), []byte("1"), rateLimitBlock); err != nil {
		logger.ForBrand(s.cfg.Brand).Debug().Err(err).Msg("Failed to set rate limit block")
	}
}
