package crawler

import (
	"strconv"
	"strings"

	"sjsage522/dealmonitor/helpers"

	"github.com/PuerkitoBio/goquery"
)

// scanToBuyLabel is a purchase-channel badge the site appends after the
// real platform name on some listings
const scanToBuyLabel = "扫码购"

// extractDeal turns one listing element into a Deal, or nil when the
// element fails the origin or same-day filter or lacks required fields.
// Output depends only on the element and todayMD.
func (c *SearchCrawler) extractDeal(s *goquery.Selection, term string, todayMD string) *Deal {
	// Filter 1: domestic-origin marker must be present
	if s.Find("span.search-guonei-mark").Length() == 0 {
		return nil
	}

	// Filter 2: recency metadata must say "today"
	extras := s.Find("span.feed-block-extras").First()
	if extras.Length() == 0 {
		c.log.Debug().Str("term", term).Msg("No time container on listing, skipping")
		return nil
	}

	timeText := strings.TrimSpace(extras.Text())
	platform := derivePlatform(extras)

	if !isPostedToday(timeText, todayMD) {
		return nil
	}

	titleLink := s.Find("h5 a").First()
	if titleLink.Length() == 0 {
		c.log.Warn().Str("term", term).Msg("Listing has no title anchor, skipping")
		return nil
	}

	title := strings.TrimSpace(titleLink.Text())
	link := strings.TrimSpace(titleLink.AttrOr("href", ""))
	if link != "" && !strings.HasPrefix(link, "http") {
		// Scheme-relative links are common on this site
		link = "https:" + link
	}

	price := PriceUnknown
	priceSel := s.Find("span.z-highlight").First()
	if priceSel.Length() == 0 {
		priceSel = s.Find("div.z-highlight").First()
	}
	if priceSel.Length() > 0 {
		price = strings.TrimSpace(priceSel.Text())
	}

	likes := 0
	likeSpans := s.Find("span.price-btn-up").First().Find("span")
	if likeSpans.Length() > 1 {
		likes = parseCount(likeSpans.Eq(1).Text())
	}
	comments := parseCount(s.Find("a.feed-btn-comment").First().Text())

	id := deriveID(s, link)
	if id == "" || link == "" {
		c.log.Warn().Str("term", term).Str("title", title).Msg("Cannot determine listing ID or link, skipping")
		return nil
	}

	return &Deal{
		ID:         id,
		Title:      title,
		Price:      price,
		Likes:      likes,
		Comments:   comments,
		Platform:   platform,
		Link:       link,
		TimeText:   timeText,
		SearchTerm: term,
	}
}

// derivePlatform takes the last metadata sub-span as the platform name,
// unless it is the scan-to-buy badge, in which case the second-to-last
// span holds the real platform.
func derivePlatform(extras *goquery.Selection) string {
	spans := extras.Find("span")
	n := spans.Length()
	if n == 0 {
		return PlatformUnknown
	}

	last := strings.TrimSpace(spans.Eq(n - 1).Text())
	if last == scanToBuyLabel && n > 1 {
		if prev := strings.TrimSpace(spans.Eq(n - 2).Text()); prev != "" {
			return prev
		}
		return PlatformUnknown
	}
	if last != "" {
		return last
	}
	return PlatformUnknown
}

// isPostedToday decides whether the recency text describes the current
// calendar date. Relative tokens and bare times of day count as today; a
// date-time string counts only when its month-day equals todayMD. Anything
// else is rejected.
func isPostedToday(timeText string, todayMD string) bool {
	if strings.Contains(timeText, "刚刚") ||
		strings.Contains(timeText, "分钟前") ||
		strings.Contains(timeText, "小时前") {
		return true
	}

	fields := strings.Fields(timeText)
	if len(fields) == 0 {
		return false
	}

	first := fields[0]
	if strings.Contains(first, ":") && !strings.Contains(first, "-") {
		// Bare time of day, e.g. "12:30"
		return true
	}
	if strings.Contains(first, "-") {
		// Month-day prefix, e.g. "04-05 12:30"
		return first == todayMD
	}
	return false
}

// deriveID resolves the listing identity: the site-assigned article ID
// attribute when present, otherwise an identity derived from the link's
// trailing path segment, namespaced with a "link_" prefix. Falls back to
// the raw link when no segment is extractable.
func deriveID(s *goquery.Selection, link string) string {
	if id := strings.TrimSpace(s.AttrOr("data-aid", "")); id != "" {
		return id
	}
	if id := strings.TrimSpace(s.AttrOr("articleid", "")); id != "" {
		return id
	}
	if link == "" {
		return ""
	}

	seg, err := helpers.LastPathSegment(link)
	if err != nil {
		return link
	}
	return "link_" + seg
}

// parseCount strips everything but ASCII digits from the text and parses
// the remainder, defaulting to 0
func parseCount(text string) int {
	var digits strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0
	}

	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0
	}
	return n
}
