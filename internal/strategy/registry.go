package strategy

import (
	"konbiniwatch/config"
	"konbiniwatch/internal/layout"
	"konbiniwatch/logger"
)

// Registry holds one strategy per configured brand
type Registry struct {
	strategies map[string]Strategy
}

// BrandConfigs builds the per-brand scrape configurations. Selectors
// track each site's current markup; thresholds only deviate from the
// defaults where a brand's grid needs it.
func BrandConfigs(cfg *config.Config) []BrandConfig {
	return []BrandConfig{
		{
			Brand: "seven",
			URL:   cfg.SevenURL,
			Mode:  ModeList,
			Selectors: Selectors{
				Item:  ".list_inner",
				Title: ".item_ttl a",
				Price: ".item_price p",
				Image: "figure img",
				Link:  ".item_ttl a",
				Date:  ".item_launch p",
			},
			Thresholds: layout.DefaultMatchThresholds(),
		},
		{
			Brand: "familymart",
			URL:   cfg.FamilyMartURL,
			Mode:  ModeDetail,
			Selectors: Selectors{
				Link:        ".ly-mod-infoset4 a",
				Title:       ".ly-goods-name",
				Price:       ".ly-goods-price",
				Image:       ".ly-goods-img img",
				Date:        ".ly-goods-date",
				Description: ".ly-goods-txt",
			},
			Thresholds: layout.DefaultMatchThresholds(),
		},
		{
			Brand: "lawson",
			URL:   cfg.LawsonURL,
			Mode:  ModeBanner,
			Selectors: Selectors{
				Slide: ".swiper-slide",
			},
			Thresholds: layout.DefaultMatchThresholds(),
		},
		{
			Brand: "ministop",
			URL:   cfg.MinistopURL,
			Mode:  ModeBanner,
			Selectors: Selectors{
				Slide: ".slick-slide",
			},
			// ministop renders a tighter card grid
			Thresholds: layout.MatchThresholds{
				MaxHorizontalOffset: 250,
				MaxImageDistance:    500,
				MaxTitleDistance:    400,
			},
		},
		{
			Brand: "yamazaki",
			URL:   cfg.YamazakiURL,
			Mode:  ModeList,
			Selectors: Selectors{
				Item:  ".product-list li",
				Title: ".product-name",
				Price: ".product-price",
				Image: "img",
				Link:  "a",
				Date:  ".product-date",
			},
			Thresholds: layout.DefaultMatchThresholds(),
		},
	}
}

// NewRegistry builds the strategies for all configured brands. A brand
// with an unrecognized mode falls back to the list strategy.
func NewRegistry(cfg *config.Config, deps Deps) *Registry {
	r := &Registry{strategies: make(map[string]Strategy)}
	for _, bc := range BrandConfigs(cfg) {
		r.Register(newStrategy(bc, deps))
	}
	return r
}

func newStrategy(bc BrandConfig, deps Deps) Strategy {
	switch bc.Mode {
	case ModeDetail:
		return NewDetailStrategy(bc, deps)
	case ModeBanner:
		return NewBannerStrategy(bc, deps)
	case ModeList:
		return NewListStrategy(bc, deps)
	default:
		logger.ForBrand(bc.Brand).Warn().
			Str("mode", string(bc.Mode)).
			Msg("Unknown scrape mode, falling back to list")
		return NewListStrategy(bc, deps)
	}
}

// Register adds or replaces the strategy for a brand
func (r *Registry) Register(s Strategy) {
	r.strategies[s.GetBrand()] = s
}

// Get returns the strategy for a brand, or nil when none is configured
func (r *Registry) Get(brand string) Strategy {
	return r.strategies[brand]
}

// Brands returns the configured brand keys. Order is not guaranteed;
// callers that care about order iterate the config instead.
func (r *Registry) Brands() []string {
	brands := make([]string, 0, len(r.strategies))
	for brand := range r.strategies {
		brands = append(brands, brand)
	}
	return brands
}
