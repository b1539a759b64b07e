package strategy

import (
	"context"
	"fmt"

	"konbiniwatch/internal/normalize"
	"konbiniwatch/logger"
	"konbiniwatch/pkg/errors"
)

// Dispatcher runs brand sweeps through their registered strategies.
// It is the error boundary: a panicking strategy becomes a Failed
// result instead of taking the worker down, and records that survive
// a strategy still have to pass the quality gate.
type Dispatcher struct {
	registry *Registry
}

// NewDispatcher creates a dispatcher over the registry
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Run executes one brand's sweep
func (d *Dispatcher) Run(ctx context.Context, brand string) (result *ScrapeResult) {
	defer func() {
		if r := recover(); r != nil {
			err := errors.NewStrategy(brand, fmt.Sprintf("strategy panicked: %v", r), nil)
			logger.ForBrand(brand).Error().Err(err).Msg("Strategy panicked")
			result = &ScrapeResult{Brand: brand, Status: StatusFailed, Err: err}
		}
	}()

	s := d.registry.Get(brand)
	if s == nil {
		err := errors.NewConfiguration("no strategy registered for brand "+brand, nil)
		return &ScrapeResult{Brand: brand, Status: StatusFailed, Err: err}
	}

	res, err := s.Scrape(ctx)
	if err != nil {
		if res == nil {
			res = &ScrapeResult{Brand: brand, Status: StatusFailed, Err: err}
		}
		return res
	}

	dropped := 0
	res.Products, dropped = applyQualityGate(res.Products)
	if dropped > 0 {
		logger.ForBrand(brand).Debug().
			Int("dropped", dropped).
			Msg("Dropped records without a parsed price")
	}
	return res
}

// applyQualityGate drops records whose price never parsed to a number.
// Whatever path a record came through, it does not ship without a
// numeric price.
func applyQualityGate(products []*normalize.ProductRecord) ([]*normalize.ProductRecord, int) {
	kept := products[:0]
	dropped := 0
	for _, p := range products {
		if p.Price == nil || p.Price.Amount <= 0 {
			dropped++
			continue
		}
		kept = append(kept, p)
	}
	return kept, dropped
}
