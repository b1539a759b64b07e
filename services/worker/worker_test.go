package worker

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"konbiniwatch/config"
	"konbiniwatch/internal/normalize"
	"konbiniwatch/internal/strategy"
)

type fakePublisher struct {
	published map[string][][]byte
	trimmed   int
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{published: make(map[string][][]byte)}
}

func (p *fakePublisher) Publish(key string, message []byte) error {
	p.published[key] = append(p.published[key], message)
	return nil
}

func (p *fakePublisher) TrimStreams() error {
	p.trimmed++
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type captureReport struct {
	lines []string
}

func (r *captureReport) WriteResult(brand string, status string, productCount int, err error) {
	r.lines = append(r.lines, brand+" "+status)
}

type cannedStrategy struct {
	brand  string
	result *strategy.ScrapeResult
}

func (c *cannedStrategy) Scrape(context.Context) (*strategy.ScrapeResult, error) {
	return c.result, nil
}
func (c *cannedStrategy) GetName() string  { return "canned" }
func (c *cannedStrategy) GetBrand() string { return c.brand }

func TestSweep_PublishesAndReports(t *testing.T) {
	registry := strategy.NewRegistry(&config.Config{}, strategy.Deps{})
	registry.Register(&cannedStrategy{brand: "seven", result: &strategy.ScrapeResult{
		Brand:  "seven",
		Status: strategy.StatusSuccess,
		Products: []*normalize.ProductRecord{
			{
				OriginalName: "濃厚チーズタルト",
				Price:        &normalize.Price{Amount: 198, Currency: "JPY"},
				SourceURL:    "https://shop.example.com/products/tart.html",
			},
		},
	}})

	pub := newFakePublisher()
	report := &captureReport{}
	cfg := &config.Config{CrawlSchedule: "0 6 * * *"}
	w := New(cfg, strategy.NewDispatcher(registry), pub, nil, report)

	w.Sweep(context.Background())

	require.Len(t, pub.published["seven"], 1)
	var rec normalize.ProductRecord
	require.NoError(t, json.Unmarshal(pub.published["seven"][0], &rec))
	assert.Equal(t, "濃厚チーズタルト", rec.OriginalName)
	assert.Equal(t, 198, rec.Price.Amount)

	assert.Equal(t, 1, pub.trimmed)
	assert.Contains(t, report.lines, "seven success")
}

func TestSweep_FailedBrandStillReported(t *testing.T) {
	// empty registry: every configured brand fails at the dispatcher
	registry := strategy.NewRegistry(&config.Config{}, strategy.Deps{})
	for _, brand := range registry.Brands() {
		registry.Register(&cannedStrategy{brand: brand, result: &strategy.ScrapeResult{
			Brand:  brand,
			Status: strategy.StatusFailed,
		}})
	}

	pub := newFakePublisher()
	report := &captureReport{}
	cfg := &config.Config{CrawlSchedule: "0 6 * * *"}
	w := New(cfg, strategy.NewDispatcher(registry), pub, nil, report)

	w.Sweep(context.Background())

	assert.Empty(t, pub.published)
	assert.Contains(t, report.lines, "seven failed")
}
