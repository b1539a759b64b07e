package strategy

import (
	"context"
	"fmt"
	"time"

	"konbiniwatch/internal/browser"
	"konbiniwatch/internal/layout"
	"konbiniwatch/internal/normalize"
	"konbiniwatch/logger"
)

// linkAncestorDepth bounds the parent walk from a slide image to its
// enclosing anchor. Carousel markup nests the image a few levels under
// the link.
const linkAncestorDepth = 4

// slideJSTemplate collects carousel slide images with the link each
// one points at. Parameters are the slide scope selector and the
// ancestor walk depth.
const slideJSTemplate = `() => {
	const maxDepth = %d;
	const out = [];
	const seen = new Set();
	for (const img of document.querySelectorAll('%s img')) {
		const r = img.getBoundingClientRect();
		if (r.width < 50 || r.height < 50) continue;
		const src = img.currentSrc || img.src || '';
		if (!src || seen.has(src)) continue;
		seen.add(src);
		let href = '';
		let el = img;
		for (let i = 0; i < maxDepth && el; i++) {
			if (el.tagName === 'A' && el.href) { href = el.href; break; }
			el = el.parentElement;
		}
		out.push({src: src, alt: img.alt || '', href: href});
	}
	return out;
}`

// slideCandidate is one carousel image as reported by the page
type slideCandidate struct {
	Src  string `json:"src"`
	Alt  string `json:"alt"`
	Href string `json:"href"`
}

// BannerStrategy scrapes a rendered carousel page. Each slide runs
// through the vision classifier; food slides get their target page
// rendered and matched geometrically into price, image and title
// triples.
type BannerStrategy struct {
	cfg  BrandConfig
	deps Deps
}

// NewBannerStrategy creates a banner strategy for the brand
func NewBannerStrategy(cfg BrandConfig, deps Deps) *BannerStrategy {
	return &BannerStrategy{cfg: cfg, deps: deps}
}

// GetName returns the strategy name
func (s *BannerStrategy) GetName() string {
	return "banner"
}

// GetBrand returns the brand key
func (s *BannerStrategy) GetBrand() string {
	return s.cfg.Brand
}

// Scrape renders the carousel page and follows the food banners. A
// missed slide selector or a dead banner target downgrades the result
// to partial instead of failing the sweep.
func (s *BannerStrategy) Scrape(ctx context.Context) (*ScrapeResult, error) {
	log := logger.ForBrand(s.cfg.Brand)

	session, err := s.deps.Browser.NewSession(ctx)
	if err != nil {
		return &ScrapeResult{Brand: s.cfg.Brand, Status: StatusFailed, Err: err}, err
	}
	defer session.Close()

	if err := session.Navigate(ctx, s.cfg.URL, s.deps.Timeouts.Navigation); err != nil {
		return &ScrapeResult{Brand: s.cfg.Brand, Status: StatusFailed, Err: err}, err
	}

	partial := false
	scope := s.cfg.Selectors.Slide
	if scope == "" {
		scope = "body"
	} else if err := session.WaitSelector(ctx, scope, s.deps.Timeouts.Selector); err != nil {
		log.Warn().Err(err).Str("selector", scope).Msg("Slide selector not found, scanning whole page")
		scope = "body"
		partial = true
	}

	var slides []slideCandidate
	js := fmt.Sprintf(slideJSTemplate, linkAncestorDepth, scope)
	if err := session.Eval(ctx, js, &slides); err != nil {
		return &ScrapeResult{Brand: s.cfg.Brand, Status: StatusFailed, Err: err}, err
	}
	log.Debug().Int("slides", len(slides)).Msg("Collected carousel slides")

	var raws []rawProduct
	skipped := 0
	for i, slide := range slides {
		if i > 0 && s.deps.ClassifierDelay > 0 {
			select {
			case <-time.After(s.deps.ClassifierDelay):
			case <-ctx.Done():
				return &ScrapeResult{Brand: s.cfg.Brand, Status: StatusFailed, Err: ctx.Err()}, ctx.Err()
			}
		}

		imageURL := normalize.ResolveURL(s.cfg.URL, slide.Src)
		if imageURL == "" || normalize.IsPlaceholder(imageURL) {
			continue
		}
		if !s.deps.Classifier.Classify(ctx, s.cfg.Brand, imageURL) {
			continue
		}

		target := normalize.ResolveURL(s.cfg.URL, slide.Href)
		if target == "" {
			log.Debug().Str("image", imageURL).Msg("Food banner has no target link")
			continue
		}

		extracted, err := s.extractTarget(ctx, session, target, imageURL)
		if err != nil {
			skipped++
			log.Warn().Err(err).Str("url", target).Msg("Skipping banner target")
			continue
		}
		raws = append(raws, extracted...)
	}

	fields := s.deps.Normalizer.NormalizeBatch(ctx, s.cfg.Brand, buildItems(raws))
	products := composeRecords(raws, fields)

	status := StatusSuccess
	if partial || skipped > 0 {
		status = StatusPartialSuccess
	}
	log.Info().
		Int("products", len(products)).
		Int("skipped", skipped).
		Msg("Banner sweep complete")
	return &ScrapeResult{Brand: s.cfg.Brand, Status: status, Products: products}, nil
}

// extractTarget renders a banner's target page, snapshots its layout
// and matches prices to images geometrically. A matched image that
// turns out to be a lazy-load placeholder yields to the slide image.
func (s *BannerStrategy) extractTarget(ctx context.Context, session browser.Session, target, slideImage string) ([]rawProduct, error) {
	if err := session.Navigate(ctx, target, s.deps.Timeouts.Navigation); err != nil {
		return nil, err
	}

	var snap layout.PageSnapshot
	if err := session.Eval(ctx, layout.SnapshotJS, &snap); err != nil {
		return nil, err
	}

	candidates := layout.Collect(snap)
	extractions := layout.Match(candidates, s.cfg.Thresholds, target)

	raws := make([]rawProduct, 0, len(extractions))
	for _, ex := range extractions {
		raws = append(raws, rawProduct{
			Name:      ex.Name,
			PriceText: ex.PriceText,
			DateText:  ex.DateText,
			ImageURL:  normalize.CleanImageURL(target, ex.ImageURL, slideImage),
			SourceURL: ex.SourceURL,
			IsNew:     normalize.LooksNew(ex.Name),
		})
	}
	return raws, nil
}
