package strategy

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"konbiniwatch/helpers"
	"konbiniwatch/internal/browser"
	"konbiniwatch/internal/normalize"
	"konbiniwatch/logger"
	"konbiniwatch/pkg/errors"
)

// maxDetailPages caps how many product pages one sweep will visit
const maxDetailPages = 40

// DetailStrategy discovers product links on a listing page, then
// renders each product's own page and extracts its fields there. Used
// for brands whose listing page carries only thumbnails.
type DetailStrategy struct {
	cfg  BrandConfig
	deps Deps
}

// NewDetailStrategy creates a detail strategy for the brand
func NewDetailStrategy(cfg BrandConfig, deps Deps) *DetailStrategy {
	return &DetailStrategy{cfg: cfg, deps: deps}
}

// GetName returns the strategy name
func (s *DetailStrategy) GetName() string {
	return "detail"
}

// GetBrand returns the brand key
func (s *DetailStrategy) GetBrand() string {
	return s.cfg.Brand
}

// productLink is one discovered detail page
type productLink struct {
	URL   string
	Title string
	IsNew bool
}

// Scrape renders the listing, then each discovered product page. A
// product page that fails to load is skipped and the sweep carries on;
// enough skips only downgrade the result to partial.
func (s *DetailStrategy) Scrape(ctx context.Context) (*ScrapeResult, error) {
	log := logger.ForBrand(s.cfg.Brand)

	session, err := s.deps.Browser.NewSession(ctx)
	if err != nil {
		return &ScrapeResult{Brand: s.cfg.Brand, Status: StatusFailed, Err: err}, err
	}
	defer session.Close()

	if err := session.Navigate(ctx, s.cfg.URL, s.deps.Timeouts.Navigation); err != nil {
		return &ScrapeResult{Brand: s.cfg.Brand, Status: StatusFailed, Err: err}, err
	}

	html, err := session.HTML(ctx)
	if err != nil {
		return &ScrapeResult{Brand: s.cfg.Brand, Status: StatusFailed, Err: err}, err
	}

	links, missErr := s.discoverLinks(html)
	if missErr != nil {
		log.Warn().Err(missErr).Msg("Link selector matched nothing")
		return &ScrapeResult{Brand: s.cfg.Brand, Status: StatusPartialSuccess, Err: missErr}, nil
	}

	var raws []rawProduct
	skipped := 0
	for _, link := range links {
		raw, err := s.extractDetail(ctx, session, link)
		if err != nil {
			skipped++
			log.Warn().Err(err).Str("url", link.URL).Msg("Skipping product page")
			continue
		}
		raws = append(raws, raw)
	}

	fields := s.deps.Normalizer.NormalizeBatch(ctx, s.cfg.Brand, buildItems(raws))
	products := composeRecords(raws, fields)

	status := StatusSuccess
	if skipped > 0 {
		status = StatusPartialSuccess
	}
	log.Info().
		Int("products", len(products)).
		Int("skipped", skipped).
		Msg("Detail sweep complete")
	return &ScrapeResult{Brand: s.cfg.Brand, Status: status, Products: products}, nil
}

// discoverLinks pulls product page links off the rendered listing
func (s *DetailStrategy) discoverLinks(html string) ([]productLink, *errors.ScrapeError) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, errors.New(errors.ErrorTypeNavigation, s.cfg.Brand, "failed to parse listing html", err)
	}

	sel := s.cfg.Selectors
	anchors := doc.Find(sel.Link)
	if anchors.Length() == 0 {
		return nil, errors.NewSelectorMiss(s.cfg.Brand, sel.Link)
	}

	seen := make(map[string]struct{})
	var links []productLink
	anchors.EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok {
			return true
		}
		url := normalize.ResolveURL(s.cfg.URL, href)
		if url == "" {
			return true
		}
		if _, dup := seen[url]; dup {
			return true
		}
		seen[url] = struct{}{}
		links = append(links, productLink{
			URL:   url,
			Title: helpers.CollapseSpaces(a.Text()),
			IsNew: normalize.LooksNew(a.Text()),
		})
		return len(links) < maxDetailPages
	})
	return links, nil
}

// extractDetail renders one product page and reads its fields
func (s *DetailStrategy) extractDetail(ctx context.Context, session browser.Session, link productLink) (rawProduct, error) {
	if err := session.Navigate(ctx, link.URL, s.deps.Timeouts.Navigation); err != nil {
		return rawProduct{}, err
	}

	sel := s.cfg.Selectors
	if sel.Title != "" {
		if err := session.WaitSelector(ctx, sel.Title, s.deps.Timeouts.Selector); err != nil {
			logger.ForBrand(s.cfg.Brand).Debug().Err(err).Str("url", link.URL).Msg("Title selector not found on product page")
		}
	}

	html, err := session.HTML(ctx)
	if err != nil {
		return rawProduct{}, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return rawProduct{}, errors.New(errors.ErrorTypeNavigation, s.cfg.Brand, "failed to parse product html", err)
	}

	title := helpers.CollapseSpaces(doc.Find(sel.Title).First().Text())
	if title == "" {
		title = link.Title
	}

	img := doc.Find(sel.Image).First()
	src, _ := img.Attr("src")
	dataSrc, _ := img.Attr("data-src")

	detail := ""
	if sel.Description != "" {
		detail = helpers.CollapseSpaces(doc.Find(sel.Description).First().Text())
	}

	return rawProduct{
		Name:      title,
		PriceText: helpers.CollapseSpaces(doc.Find(sel.Price).First().Text()),
		DateText:  helpers.CollapseSpaces(doc.Find(sel.Date).First().Text()),
		Detail:    detail,
		ImageURL:  normalize.CleanImageURL(link.URL, src, dataSrc),
		SourceURL: link.URL,
		IsNew:     link.IsNew,
	}, nil
}
