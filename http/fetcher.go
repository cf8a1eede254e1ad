// Package http provides the HTTP side of pagelens: a static capture adapter
// for pages that do not need JavaScript, a concurrent stylesheet
// downloader, and the JSON API server.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/pagelens"
)

// DefaultFetchTimeout is the default timeout for page requests.
// Kept consistent with rod.DefaultFetchTimeout.
const DefaultFetchTimeout = 30 * time.Second

// maxPageSize caps a single page download.
const maxPageSize = 32 << 20

// Ensure Fetcher implements pagelens.Capturer and pagelens.Fetcher at compile time.
var (
	_ pagelens.Capturer = (*Fetcher)(nil)
	_ pagelens.Fetcher  = (*Fetcher)(nil)
)

// Fetcher captures pages with plain HTTP requests.
// Unlike rod.Fetcher, this does not execute JavaScript and is suitable
// for static sites only.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
	styles  pagelens.StylesheetFetcher
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithStylesheetFetcher sets the downloader for external stylesheets.
// Defaults to a StylesheetFetcher sharing the page client.
func WithStylesheetFetcher(sf pagelens.StylesheetFetcher) Option {
	return func(f *Fetcher) {
		f.styles = sf
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout: DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.client = &http.Client{
		Timeout: f.timeout,
	}
	if f.styles == nil {
		f.styles = NewStylesheetFetcher(WithStylesheetClient(f.client))
	}

	return f
}

// Fetch retrieves the HTML content from the given URL, decoded to UTF-8.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	html, _, err := f.get(ctx, url)
	return html, err
}

// Capture retrieves the page and the CSS it references. Inline <style>
// contents come first, followed by linked stylesheets in document order.
func (f *Fetcher) Capture(ctx context.Context, url string) (*pagelens.CapturedPage, error) {
	html, base, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}

	sources, err := DiscoverStyles(html, base)
	if err != nil {
		return nil, err
	}

	styles := make([]string, 0, len(sources.Inline)+len(sources.External))
	styles = append(styles, sources.Inline...)
	if urls := sources.FetchableURLs(); len(urls) > 0 {
		styles = append(styles, f.styles.FetchStylesheets(ctx, urls)...)
	}

	return &pagelens.CapturedPage{HTML: html, Styles: styles}, nil
}

// Close releases resources. For HTTP fetcher this is a no-op since
// http.Client doesn't require explicit cleanup.
func (f *Fetcher) Close() error {
	return nil
}

// get returns the decoded page body and the URL it was served from after
// redirects.
func (f *Fetcher) get(ctx context.Context, rawURL string) (string, *url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", nil, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return "", nil, err
	}

	return decodeBody(body, resp.Header.Get("Content-Type")), resp.Request.URL, nil
}

// DiscoverStyles finds inline style contents and stylesheet links in html.
// Link targets are resolved against the document's <base href> when present,
// otherwise against base.
func DiscoverStyles(html string, base *url.URL) (pagelens.StyleSources, error) {
	sources := pagelens.StyleSources{Inline: []string{}, External: []string{}}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return sources, fmt.Errorf("parsing HTML: %w", err)
	}

	if href, ok := doc.Find("base[href]").First().Attr("href"); ok && base != nil {
		if u, err := base.Parse(strings.TrimSpace(href)); err == nil {
			base = u
		}
	}

	doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		sources.Inline = append(sources.Inline, s.Text())
	})

	doc.Find(`link[rel="stylesheet"]`).Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return
		}
		if base != nil {
			if u, err := base.Parse(href); err == nil {
				href = u.String()
			}
		}
		sources.External = append(sources.External, href)
	})

	return sources, nil
}
