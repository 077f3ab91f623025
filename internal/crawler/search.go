package crawler

import (
	"fmt"
	"io"
	"net/url"

	"sjsage522/dealmonitor/config"
	"sjsage522/dealmonitor/helpers"
	"sjsage522/dealmonitor/logger"
	apperrors "sjsage522/dealmonitor/pkg/errors"
	"sjsage522/dealmonitor/services/cache"

	"github.com/PuerkitoBio/goquery"
)

// Selectors for the search result markup. The site's layout is the only
// structural assumption in the pipeline; markup changes should touch this
// file and extract.go only.
const (
	listContainerSelector = "ul#feed-main-list"
	listItemSelector      = "li.feed-row-wide"
)

// SearchCrawler fetches and parses search result pages for configured
// terms. It implements Collector.
type SearchCrawler struct {
	cfg      config.Config
	opts     helpers.RequestOptions
	cacheSvc cache.CacheService
	log      *logger.Logger

	// fetchFunc is overridable in tests
	fetchFunc func(term string, page int) (io.Reader, error)
}

// NewSearchCrawler creates a search crawler. cacheSvc may be nil, in which
// case rate-limit blocking is disabled.
func NewSearchCrawler(cfg config.Config, cacheSvc cache.CacheService) *SearchCrawler {
	c := &SearchCrawler{
		cfg: cfg,
		opts: helpers.RequestOptions{
			UserAgent:      cfg.UserAgent,
			Referer:        cfg.Referer,
			AcceptLanguage: cfg.AcceptLanguage,
		},
		cacheSvc: cacheSvc,
		log:      logger.ForCrawler(),
	}
	c.fetchFunc = c.fetchSearchPage
	return c
}

// buildSearchURL builds the search request URL for a term and page number
func (c *SearchCrawler) buildSearchURL(term string, page int) string {
	return fmt.Sprintf("%s?c=home&s=%s&v=b&mx_v=b&p=%d", c.cfg.BaseSearchURL, url.QueryEscape(term), page)
}

// fetchSearchPage performs the actual HTTP retrieval
func (c *SearchCrawler) fetchSearchPage(term string, page int) (io.Reader, error) {
	return helpers.FetchHTML(c.buildSearchURL(term, page), c.opts)
}

// fetchPage fetches one search result page for a term and extracts the
// qualifying deals from it. Every failure mode degrades to an empty slice;
// the pagination loop reads that as "no more data".
func (c *SearchCrawler) fetchPage(term string, page int, todayMD string) []Deal {
	log := c.log.WithField("term", term).WithField("page", page)

	if c.isBlocked(term) {
		log.Info().Msg("Term is rate-limit blocked, skipping fetch")
		return nil
	}

	log.Debug().Msg("Fetching search page")

	body, err := c.fetchFunc(term, page)
	if err != nil {
		if apperrors.IsRateLimit(err) {
			c.block(term)
		}
		log.Warn().Err(err).Msg("Fetch failed, treating page as empty")
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		log.Error().Err(apperrors.NewParsing(term, "HTML parse failed", err)).Msg("Treating page as empty")
		return nil
	}

	container := doc.Find(listContainerSelector).First()
	if container.Length() == 0 {
		log.Info().Msg("No list container found")
		return nil
	}

	items := container.Find(listItemSelector)
	if items.Length() == 0 {
		log.Info().Msg("No listing items found")
		return nil
	}

	var deals []Deal
	items.Each(func(i int, s *goquery.Selection) {
		if deal := c.extractDeal(s, term, todayMD); deal != nil {
			deals = append(deals, *deal)
		}
	})

	log.Info().Int("accepted", len(deals)).Int("listed", items.Length()).Msg("Page processed")
	return deals
}

// isBlocked reports whether the term is under a rate-limit block
func (c *SearchCrawler) isBlocked(term string) bool {
	if c.cacheSvc == nil {
		return false
	}
	_, err := c.cacheSvc.Get(blockKey(term))
	return err == nil
}

// block suppresses further requests for the term for the configured window
func (c *SearchCrawler) block(term string) {
	if c.cacheSvc == nil {
		return
	}
	if err := c.cacheSvc.Set(blockKey(term), []byte("1"), c.cfg.BlockTime); err != nil {
		c.log.Warn().Err(err).Str("term", term).Msg("Failed to set rate-limit block")
		return
	}
	c.log.Warn().Str("term", term).Dur("block_time", c.cfg.BlockTime).Msg("Term rate-limit blocked")
}

func blockKey(term string) string {
	return "dealmonitor:block:" + term
}
