package worker

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"time"

	"sjsage522/dealmonitor/config"
	"sjsage522/dealmonitor/helpers"
	"sjsage522/dealmonitor/internal/crawler"
	"sjsage522/dealmonitor/logger"
	"sjsage522/dealmonitor/services/publisher"
	"sjsage522/dealmonitor/services/store"
)

// Worker owns the poll loop: it iterates the configured terms each round,
// deduplicates collected deals against its seen set, and persists the new
// ones. The seen set is seeded once from the store at construction and
// grows as rounds insert records; the store's uniqueness constraint, not
// this set, is the source of truth.
type Worker struct {
	ctx       context.Context
	cfg       config.Config
	collector crawler.Collector
	publisher publisher.Publisher
	seen      map[string]struct{}
	log       *logger.Logger
}

// NewWorker creates a new worker. pub may be nil when no deal stream is
// configured.
func NewWorker(
	ctx context.Context,
	cfg config.Config,
	collector crawler.Collector,
	pub publisher.Publisher,
	seen map[string]struct{},
) *Worker {
	if seen == nil {
		seen = make(map[string]struct{})
	}
	return &Worker{
		ctx:       ctx,
		cfg:       cfg,
		collector: collector,
		publisher: pub,
		seen:      seen,
		log:       logger.ForWorker(),
	}
}

// Start runs poll rounds until the context is cancelled
func (w *Worker) Start() error {
	for {
		start := time.Now()
		totalNew := 0

		for _, term := range w.cfg.SearchTerms {
			if w.ctx.Err() != nil {
				return w.ctx.Err()
			}

			w.log.Info().Str("term", term).Msg("Checking term")
			totalNew += w.RunOneRoundForTerm(term)

			if !helpers.SleepRandom(w.ctx, w.cfg.TermDelayMin, w.cfg.TermDelayMax) {
				return w.ctx.Err()
			}
		}

		w.log.Info().
			Int("new_deals", totalNew).
			Dur("elapsed", time.Since(start)).
			Msg("Round completed")

		// Poll interval plus up to 10% jitter
		wait := w.cfg.CheckInterval + rand.N(w.cfg.CheckInterval/10+1)
		w.log.Info().Dur("wait", wait).Msg("Waiting for next round")

		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		case <-time.After(wait):
		}
	}
}

// RunOneRoundForTerm collects the term's qualifying deals, inserts the
// unseen ones oldest-first, and returns the count of newly inserted
// records
func (w *Worker) RunOneRoundForTerm(term string) int {
	log := w.log.WithField("term", term)

	deals := w.collector.CollectForTerm(w.ctx, term)
	if len(deals) == 0 {
		log.Info().Msg("No qualifying deals this round")
		return 0
	}

	log.Info().Int("collected", len(deals)).Msg("Processing collected deals")

	inserted := 0
	// Oldest first, so first_seen ordering tracks the site's publish order
	for i := len(deals) - 1; i >= 0; i-- {
		deal := deals[i]
		if _, ok := w.seen[deal.ID]; ok {
			continue
		}

		wrote, err := store.InsertDeal(w.cfg.DBPath, deal, term)
		if err != nil {
			log.Error().Err(err).Str("deal_id", deal.ID).Str("title", deal.Title).Msg("Insert failed, skipping deal")
			continue
		}
		if !wrote {
			// Conflict on identity or link: already stored
			continue
		}

		w.seen[deal.ID] = struct{}{}
		inserted++
		w.publish(deal)
	}

	if inserted > 0 {
		log.Info().Int("inserted", inserted).Msg("New deals stored")
	} else {
		log.Info().Msg("No new deals this round")
	}
	return inserted
}

// publish forwards one newly inserted deal to the configured stream
func (w *Worker) publish(deal crawler.Deal) {
	if w.publisher == nil {
		return
	}

	data, err := json.Marshal(deal)
	if err != nil {
		w.log.Error().Err(err).Str("deal_id", deal.ID).Msg("Failed to marshal deal")
		return
	}
	if err := w.publisher.Publish(deal.SearchTerm, data); err != nil {
		w.log.Error().Err(err).Str("deal_id", deal.ID).Msg("Failed to publish deal")
	}
}
