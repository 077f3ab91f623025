package helpers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	apperrors "sjsage522/dealmonitor/pkg/errors"

	"golang.org/x/net/html/charset"
)

// RequestOptions carries the fixed browser-like headers sent with every
// search request
type RequestOptions struct {
	UserAgent      string
	Referer        string
	AcceptLanguage string
}

// HTTP client with timeout
var client = &http.Client{
	Timeout: 20 * time.Second,
}

// SetTimeout overrides the shared client timeout
func SetTimeout(d time.Duration) {
	if d > 0 {
		client.Timeout = d
	}
}

// FetchHTML sends an HTTP GET request with the configured headers, verifies
// the response is HTML, converts the body to UTF-8 (site encoding
// declarations are unreliable), and returns it as an io.Reader.
func FetchHTML(url string, opts RequestOptions) (io.Reader, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set browser-like headers
	req.Header.Set("User-Agent", opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.9")
	req.Header.Set("Accept-Language", opts.AcceptLanguage)
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Referer", opts.Referer)

	// Send the request
	resp, err := client.Do(req)
	if err != nil {
		return nil, apperrors.NewNetwork("", "failed to fetch URL", err)
	}
	defer resp.Body.Close()

	// Check for rate limiting
	if slices.Contains([]int{http.StatusTooManyRequests, 430}, resp.StatusCode) {
		return nil, apperrors.NewRateLimit("", resp.Header.Get("Retry-After"))
	}

	// Check for other error status codes
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewNetwork("", fmt.Sprintf("unexpected status code: %d", resp.StatusCode), nil)
	}

	// A non-HTML body means there is nothing to parse
	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "text/html") {
		return nil, apperrors.NewContent("", fmt.Sprintf("non-HTML content type: %s", contentType))
	}

	// Read the entire response body
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewNetwork("", "failed to read response body", err)
	}

	// Determine the encoding from Content-Type header and body content
	encoding, name, _ := charset.DetermineEncoding(bodyBytes, contentType)

	// If already UTF-8, return as is
	if strings.EqualFold(name, "utf-8") {
		return bytes.NewReader(bodyBytes), nil
	}

	// Convert to UTF-8 if necessary
	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(bodyBytes))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return nil, apperrors.NewContent("", fmt.Sprintf("failed to convert body to UTF-8: %v", err))
	}

	return &buf, nil
}
