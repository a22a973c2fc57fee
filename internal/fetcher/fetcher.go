package fetcher

import (
	"context"
)

// Page is a fetched document.
type Page struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// Fetcher retrieves the raw markup of a page.
type Fetcher interface {
	// Fetch performs a single GET of url. Transport failures and non-2xx
	// responses are returned as errors; there is no retry.
	Fetch(ctx context.Context, url string) (*Page, error)
}
