package sitegraph

import (
	"context"
	"mime"
	"time"
)

// Response is the raw result of fetching a URL.
// A non-2xx status is a Response, not an error.
type Response struct {
	// URL is the final URL after redirects.
	URL         string
	StatusCode  int
	ContentType string
	Body        string

	// Latency is the wall-clock time of the request.
	Latency time.Duration
}

// IsDocument reports whether the response holds a markup document.
// A missing content type is assumed to be a document.
func (r *Response) IsDocument() bool {
	if r.ContentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(r.ContentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// Fetcher retrieves documents from URLs.
// Implementations may use browser automation to handle JavaScript-rendered content.
type Fetcher interface {
	// Fetch retrieves the URL. Transport failures are returned as errors;
	// HTTP error statuses are returned in the Response.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (*Response, error)

	// Close releases resources held by the fetcher.
	// Must be called when the Fetcher is no longer needed.
	Close() error
}
