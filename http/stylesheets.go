package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fwojciec/pagelens"
	"golang.org/x/sync/errgroup"
)

// Ensure StylesheetFetcher implements pagelens.StylesheetFetcher at compile time.
var _ pagelens.StylesheetFetcher = (*StylesheetFetcher)(nil)

// DefaultStylesheetConcurrency is the number of stylesheets downloaded at once.
const DefaultStylesheetConcurrency = 4

// maxStylesheetSize caps a single stylesheet download.
const maxStylesheetSize = 8 << 20

// StylesheetFetcher downloads external stylesheets concurrently.
// StylesheetFetcher is safe for concurrent use.
type StylesheetFetcher struct {
	client      *http.Client
	concurrency int
	onError     func(url string, err error)
}

// StylesheetOption configures a StylesheetFetcher.
type StylesheetOption func(*StylesheetFetcher)

// WithConcurrency sets how many stylesheets are downloaded at once.
// Values below 1 keep DefaultStylesheetConcurrency.
func WithConcurrency(n int) StylesheetOption {
	return func(f *StylesheetFetcher) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// WithStylesheetClient sets the HTTP client used for downloads.
func WithStylesheetClient(c *http.Client) StylesheetOption {
	return func(f *StylesheetFetcher) {
		f.client = c
	}
}

// WithStylesheetErrorFunc sets a callback for stylesheets that could not be
// downloaded.
func WithStylesheetErrorFunc(fn func(url string, err error)) StylesheetOption {
	return func(f *StylesheetFetcher) {
		f.onError = fn
	}
}

// NewStylesheetFetcher creates a new StylesheetFetcher.
func NewStylesheetFetcher(opts ...StylesheetOption) *StylesheetFetcher {
	f := &StylesheetFetcher{
		client:      &http.Client{Timeout: 10 * time.Second},
		concurrency: DefaultStylesheetConcurrency,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchStylesheets downloads every URL and returns the bodies that could be
// fetched, in the order of urls.
func (f *StylesheetFetcher) FetchStylesheets(ctx context.Context, urls []string) []string {
	bodies := make([]*string, len(urls))

	var g errgroup.Group
	g.SetLimit(f.concurrency)
	for i, u := range urls {
		g.Go(func() error {
			body, err := f.fetch(ctx, u)
			if err != nil {
				if f.onError != nil {
					f.onError(u, err)
				}
				return nil
			}
			bodies[i] = &body
			return nil
		})
	}
	_ = g.Wait()

	styles := make([]string, 0, len(urls))
	for _, b := range bodies {
		if b != nil {
			styles = append(styles, *b)
		}
	}
	return styles
}

func (f *StylesheetFetcher) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/css,*/*;q=0.1")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxStylesheetSize))
	if err != nil {
		return "", err
	}

	return decodeBody(body, resp.Header.Get("Content-Type")), nil
}
