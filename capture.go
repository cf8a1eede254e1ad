package pagelens

import (
	"context"
	"strings"
)

// CapturedPage is the output of a capture: the serialized document and the
// CSS that applied to it.
type CapturedPage struct {
	// HTML is the full serialized document. It may be malformed or partial.
	HTML string `json:"html"`

	// Styles holds CSS text in discovery order: inline <style> contents
	// first, then fetched external stylesheets in link order.
	Styles []string `json:"styles"`
}

// Capturer retrieves a page's rendered HTML together with its stylesheets.
// Implementations may use browser automation to handle JavaScript-rendered content.
type Capturer interface {
	// Capture navigates to the URL, waits for the page to render and returns
	// the serialized HTML and the CSS discovered on the page.
	// The context controls timeout and cancellation.
	Capture(ctx context.Context, url string) (*CapturedPage, error)

	// Close releases browser resources.
	// Must be called when the Capturer is no longer needed.
	Close() error
}

// Fetcher retrieves rendered HTML from URLs.
type Fetcher interface {
	// Fetch navigates to the URL, waits for JavaScript to render,
	// and returns the rendered HTML.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases resources held by the fetcher.
	Close() error
}

// StylesheetFetcher downloads external stylesheet bodies.
type StylesheetFetcher interface {
	// FetchStylesheets returns the body of every stylesheet that could be
	// downloaded, in the order of urls. Stylesheets that fail are skipped.
	FetchStylesheets(ctx context.Context, urls []string) []string
}

// PageService captures pages and extracts fields from them.
type PageService interface {
	// Capture captures the page at url and derives its renditions.
	// Returns ECAPTURE when the page could not be captured.
	Capture(ctx context.Context, url string) (*Snapshot, error)

	// Extract evaluates selectors against the rendered page at url.
	// Selector failures yield nil entries rather than errors.
	Extract(ctx context.Context, url string, selectors FieldSelectors) (ExtractionResult, error)
}

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	Wait(ctx context.Context, domain string) error
}

// StyleSources is the result of running DiscoverStylesJS inside a page.
type StyleSources struct {
	Inline   []string `json:"inline"`
	External []string `json:"external"`
}

// FetchableURLs returns the external stylesheet URLs worth downloading,
// skipping empty hrefs and data: URLs.
func (s StyleSources) FetchableURLs() []string {
	var urls []string
	for _, u := range s.External {
		if u == "" || strings.HasPrefix(u, "data:") {
			continue
		}
		urls = append(urls, u)
	}
	return urls
}

// DiscoverStylesJS is a JavaScript expression that evaluates to a
// StyleSources object for the current document. External hrefs are the
// resolved (absolute) link targets.
const DiscoverStylesJS = `(() => ({
	inline: Array.from(document.querySelectorAll('style')).map(s => s.innerHTML),
	external: Array.from(document.querySelectorAll('link[rel="stylesheet"]')).map(l => l.href)
}))()`
