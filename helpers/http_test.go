package helpers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

var testOpts = RequestOptions{
	UserAgent:      "test-agent",
	Referer:        "https://www.smzdm.com/",
	AcceptLanguage: "zh-CN,zh;q=0.9",
}

func TestFetchHTML(t *testing.T) {
	// Create a test server
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Check that headers are set
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.Equal(t, "https://www.smzdm.com/", r.Header.Get("Referer"))
		assert.NotEmpty(t, r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get("Accept-Language"))

		// Send a response
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<html><body>Hello, World!</body></html>"))
	}))
	defer server.Close()

	// Fetch the page
	reader, err := FetchHTML(server.URL, testOpts)
	assert.NoError(t, err)

	// Read the response
	body, err := io.ReadAll(reader)
	assert.NoError(t, err)
	assert.Contains(t, string(body), "Hello, World!")
}

func TestFetchHTMLNonUTF8(t *testing.T) {
	// Create a test server that returns a GBK response
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=gbk")
		w.WriteHeader(http.StatusOK)
		// "你好" in GBK encoding
		w.Write([]byte{0x3c, 0x70, 0x3e, 0xc4, 0xe3, 0xba, 0xc3, 0x3c, 0x2f, 0x70, 0x3e})
	}))
	defer server.Close()

	// Fetch the page
	reader, err := FetchHTML(server.URL, testOpts)
	assert.NoError(t, err)

	// Read the response and verify it was converted to UTF-8
	body, err := io.ReadAll(reader)
	assert.NoError(t, err)
	assert.Contains(t, string(body), "你好")
}

func TestFetchHTMLNonHTMLContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	_, err := FetchHTML(server.URL, testOpts)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "non-HTML content type")
}

func TestFetchHTMLError(t *testing.T) {
	// Create a test server that returns an error
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	// Fetch the page
	_, err := FetchHTML(server.URL, testOpts)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code: 500")

	// Test with rate limiting
	serverRateLimited := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer serverRateLimited.Close()

	// Fetch the page
	_, err = FetchHTML(serverRateLimited.URL, testOpts)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestFetchHTMLInvalidURL(t *testing.T) {
	// Fetch with an invalid URL
	_, err := FetchHTML("http://invalid.url.that.does.not.exist", testOpts)
	assert.Error(t, err)
}

func TestLastPathSegment(t *testing.T) {
	seg, err := LastPathSegment("https://www.smzdm.com/p/123456789/")
	assert.NoError(t, err)
	assert.Equal(t, "123456789", seg)

	seg, err = LastPathSegment("https://www.smzdm.com/p/123456789?from=search#top")
	assert.NoError(t, err)
	assert.Equal(t, "123456789", seg)

	_, err = LastPathSegment("")
	assert.Error(t, err)
}
