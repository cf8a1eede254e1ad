// Package rod captures rendered pages with a headless Chrome driven by
// go-rod.
package rod

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fwojciec/pagelens"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Ensure Fetcher implements pagelens.Capturer and pagelens.Fetcher at compile time.
var (
	_ pagelens.Capturer = (*Fetcher)(nil)
	_ pagelens.Fetcher  = (*Fetcher)(nil)
)

// DefaultFetchTimeout bounds a single capture, including stylesheet downloads.
const DefaultFetchTimeout = 30 * time.Second

// fetchStylesJS downloads stylesheets from inside the page so requests carry
// the page's cookies and origin. Failed downloads become null.
const fetchStylesJS = `(urls) => Promise.all(urls.map(u =>
	fetch(u).then(r => r.ok ? r.text() : null).catch(() => null)
)).then(bodies => JSON.stringify(bodies))`

// Fetcher retrieves rendered pages using Chrome browser automation.
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	manager     *BrowserManager
	styles      pagelens.StylesheetFetcher
	timeout     time.Duration
	managerOpts []ManagerOption
	closed      atomic.Bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithFetchTimeout sets the per-page timeout. Defaults to DefaultFetchTimeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithStylesheetFetcher downloads external stylesheets with sf instead of
// from inside the page.
func WithStylesheetFetcher(sf pagelens.StylesheetFetcher) Option {
	return func(f *Fetcher) {
		f.styles = sf
	}
}

// WithBrowserOptions configures the underlying BrowserManager.
func WithBrowserOptions(opts ...ManagerOption) Option {
	return func(f *Fetcher) {
		f.managerOpts = append(f.managerOpts, opts...)
	}
}

// NewFetcher creates a new Fetcher that launches a headless Chrome browser.
// Close must be called when the Fetcher is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{timeout: DefaultFetchTimeout}
	for _, opt := range opts {
		opt(f)
	}

	manager, err := NewBrowserManager(f.managerOpts...)
	if err != nil {
		return nil, err
	}
	f.manager = manager

	return f, nil
}

// Fetch navigates to the URL and returns the rendered HTML.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	var html string
	err := f.withPage(ctx, url, func(ctx context.Context, page *rod.Page) error {
		var err error
		html, err = page.HTML()
		return err
	})
	return html, err
}

// Capture navigates to the URL and returns the rendered HTML together with
// inline styles and the bodies of external stylesheets, in document order.
func (f *Fetcher) Capture(ctx context.Context, url string) (*pagelens.CapturedPage, error) {
	captured := &pagelens.CapturedPage{Styles: []string{}}
	err := f.withPage(ctx, url, func(ctx context.Context, page *rod.Page) error {
		html, err := page.HTML()
		if err != nil {
			return err
		}
		captured.HTML = html

		sources, err := discoverStyles(page)
		if err != nil {
			return err
		}
		captured.Styles = append(captured.Styles, sources.Inline...)

		urls := sources.FetchableURLs()
		if len(urls) == 0 {
			return nil
		}
		if f.styles != nil {
			captured.Styles = append(captured.Styles, f.styles.FetchStylesheets(ctx, urls)...)
			return nil
		}
		external, err := fetchStyles(page, urls)
		if err != nil {
			return err
		}
		captured.Styles = append(captured.Styles, external...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return captured, nil
}

// Close releases browser resources. Close is safe to call multiple times.
func (f *Fetcher) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}
	return f.manager.Close()
}

// withPage opens a page, navigates to url, waits for it to load and runs fn.
// The page is closed afterwards.
func (f *Fetcher) withPage(ctx context.Context, url string, fn func(ctx context.Context, page *rod.Page) error) error {
	if f.closed.Load() {
		return pagelens.Errorf(pagelens.EINVALID, "fetcher is closed")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	browser, release, err := f.manager.Acquire()
	if err != nil {
		return err
	}
	defer release()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return fmt.Errorf("opening page: %w", err)
	}
	defer page.Close()

	page = page.Context(ctx)

	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("waiting for %s: %w", url, err)
	}

	return fn(ctx, page)
}

// discoverStyles collects inline style contents and stylesheet links.
func discoverStyles(page *rod.Page) (pagelens.StyleSources, error) {
	var sources pagelens.StyleSources
	res, err := page.Eval(`() => JSON.stringify(` + pagelens.DiscoverStylesJS + `)`)
	if err != nil {
		return sources, fmt.Errorf("discovering styles: %w", err)
	}
	if err := json.Unmarshal([]byte(res.Value.Str()), &sources); err != nil {
		return sources, fmt.Errorf("decoding styles: %w", err)
	}
	return sources, nil
}

// fetchStyles downloads stylesheets from inside the page, skipping failures.
func fetchStyles(page *rod.Page, urls []string) ([]string, error) {
	res, err := page.Eval(fetchStylesJS, urls)
	if err != nil {
		return nil, fmt.Errorf("fetching stylesheets: %w", err)
	}
	var bodies []*string
	if err := json.Unmarshal([]byte(res.Value.Str()), &bodies); err != nil {
		return nil, fmt.Errorf("decoding stylesheets: %w", err)
	}
	styles := make([]string, 0, len(bodies))
	for _, b := range bodies {
		if b != nil {
			styles = append(styles, *b)
		}
	}
	return styles, nil
}

// LauncherPID returns the process ID of the browser launcher.
func (f *Fetcher) LauncherPID() int {
	return f.manager.LauncherPID()
}
