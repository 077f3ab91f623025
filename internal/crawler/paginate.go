package crawler

import (
	"context"
	"time"

	"sjsage522/dealmonitor/helpers"
)

// CollectForTerm walks the term's search result pages starting at page 1
// and returns every deal that passed the filters, in page order. It stops
// at the first page yielding zero accepted deals (results are
// reverse-chronological, so an empty page means today's results are
// exhausted) or when the configured page ceiling is exceeded. A fetch
// failure looks like an empty page and ends the walk the same way.
func (c *SearchCrawler) CollectForTerm(ctx context.Context, term string) []Deal {
	todayMD := time.Now().Format("01-02")
	log := c.log.WithField("term", term)

	var deals []Deal
	for page := 1; ; page++ {
		if page > c.cfg.SafetyPageCap {
			log.Warn().Int("page_cap", c.cfg.SafetyPageCap).Msg("Page ceiling exceeded, stopping pagination")
			break
		}

		pageDeals := c.fetchPage(term, page, todayMD)
		if len(pageDeals) == 0 {
			log.Info().Int("page", page).Msg("No qualifying deals on page, stopping pagination")
			break
		}

		deals = append(deals, pageDeals...)

		if !helpers.SleepRandom(ctx, c.cfg.PageDelayMin, c.cfg.PageDelayMax) {
			break
		}
	}

	return deals
}
