package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/robfig/cron/v3"

	"konbiniwatch/config"
	"konbiniwatch/helpers"
	"konbiniwatch/internal/strategy"
	"konbiniwatch/logger"
	"konbiniwatch/services/publisher"
	"konbiniwatch/services/store"
)

// Worker runs scheduled sweeps over all configured brands. Brands are
// processed sequentially with a pacing delay so the sites never see a
// burst.
type Worker struct {
	cfg        *config.Config
	dispatcher *strategy.Dispatcher
	publisher  publisher.Publisher
	store      *store.ProductStore
	report     helpers.ReportWriter
	cron       *cron.Cron
}

// New creates a worker over the dispatcher and the output services.
// store and report may be nil when persistence or reporting is
// disabled.
func New(cfg *config.Config, dispatcher *strategy.Dispatcher, pub publisher.Publisher, st *store.ProductStore, report helpers.ReportWriter) *Worker {
	return &Worker{
		cfg:        cfg,
		dispatcher: dispatcher,
		publisher:  pub,
		store:      st,
		report:     report,
		cron:       cron.New(),
	}
}

// Start registers the sweep on the cron schedule and runs one sweep
// immediately so a fresh deployment does not wait for the next tick.
func (w *Worker) Start(ctx context.Context) error {
	_, err := w.cron.AddFunc(w.cfg.CrawlSchedule, func() {
		w.Sweep(ctx)
	})
	if err != nil {
		return err
	}
	w.cron.Start()

	go w.Sweep(ctx)
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish
func (w *Worker) Stop() {
	stopCtx := w.cron.Stop()
	<-stopCtx.Done()
}

// Sweep crawls every configured brand once, in config order
func (w *Worker) Sweep(ctx context.Context) {
	log := logger.ForWorker()
	started := time.Now()
	log.Info().Msg("Sweep started")

	total := 0
	for i, bc := range strategy.BrandConfigs(w.cfg) {
		if i > 0 {
			select {
			case <-time.After(w.cfg.BrandDelay):
			case <-ctx.Done():
				log.Warn().Msg("Sweep cancelled")
				return
			}
		}
		total += w.sweepBrand(ctx, bc.Brand)
	}

	if err := w.publisher.TrimStreams(); err != nil {
		log.Warn().Err(err).Msg("Failed to trim streams")
	}

	log.Info().
		Int("products", total).
		Dur("elapsed", time.Since(started)).
		Msg("Sweep finished")
}

// sweepBrand runs one brand and fans its records out to the stream
// and the store. Returns how many records shipped.
func (w *Worker) sweepBrand(ctx context.Context, brand string) int {
	log := logger.ForBrand(brand)

	result := w.dispatcher.Run(ctx, brand)
	if result.Status == strategy.StatusFailed {
		log.Error().Err(result.Err).Msg("Brand sweep failed")
		if w.report != nil {
			w.report.WriteResult(brand, string(result.Status), 0, result.Err)
		}
		return 0
	}

	shipped := 0
	for _, rec := range result.Products {
		payload, err := json.Marshal(rec)
		if err != nil {
			log.Warn().Err(err).Str("name", rec.OriginalName).Msg("Failed to encode record")
			continue
		}
		if err := w.publisher.Publish(brand, payload); err != nil {
			log.Warn().Err(err).Str("name", rec.OriginalName).Msg("Failed to publish record")
		}
		if w.store != nil {
			if err := w.store.Upsert(ctx, brand, rec); err != nil {
				log.Warn().Err(err).Str("name", rec.OriginalName).Msg("Failed to persist record")
				continue
			}
		}
		shipped++
	}

	if w.report != nil {
		w.report.WriteResult(brand, string(result.Status), shipped, result.Err)
	}
	log.Info().
		Str("status", string(result.Status)).
		Int("products", shipped).
		Msg("Brand sweep complete")
	return shipped
}
