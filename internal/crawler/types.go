package crawler

import "context"

// Sentinel values for fields the site does not always provide
const (
	PlatformUnknown = "未知"
	PriceUnknown    = "N/A"
)

// Deal represents one listing observed on a search results page
type Deal struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Price      string `json:"price"`
	Likes      int    `json:"likes"`
	Comments   int    `json:"comments"`
	Platform   string `json:"platform"`
	Link       string `json:"link"`
	TimeText   string `json:"time_text"`
	SearchTerm string `json:"search_term"`
}

// Collector walks a term's search result pages and returns every listing
// that passed the origin and same-day filters
type Collector interface {
	CollectForTerm(ctx context.Context, term string) []Deal
}
