// Package chromedp captures rendered pages through the Chrome DevTools
// Protocol using chromedp. It is an alternative to the rod package for
// environments where an existing Chrome binary must be used.
package chromedp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/fwojciec/pagelens"
)

// Ensure Capturer implements pagelens.Capturer and pagelens.Fetcher at compile time.
var (
	_ pagelens.Capturer = (*Capturer)(nil)
	_ pagelens.Fetcher  = (*Capturer)(nil)
)

// DefaultTimeout bounds a single capture.
const DefaultTimeout = 30 * time.Second

// Capturer drives one Chrome process and opens a tab per capture.
// Capturer is safe for concurrent use.
type Capturer struct {
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	styles        pagelens.StylesheetFetcher
	timeout       time.Duration
	execPath      string
	startOnce     sync.Once
	startErr      error
	closeOnce     sync.Once
	closed        atomic.Bool
}

// Option configures a Capturer.
type Option func(*Capturer)

// WithTimeout sets the per-page timeout. Defaults to DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Capturer) {
		c.timeout = d
	}
}

// WithStylesheetFetcher downloads external stylesheets with sf instead of
// from inside the page.
func WithStylesheetFetcher(sf pagelens.StylesheetFetcher) Option {
	return func(c *Capturer) {
		c.styles = sf
	}
}

// WithExecPath uses the Chrome binary at path.
func WithExecPath(path string) Option {
	return func(c *Capturer) {
		c.execPath = path
	}
}

// NewCapturer creates a Capturer. Chrome starts lazily with the first
// capture. Close must be called when the Capturer is no longer needed.
func NewCapturer(opts ...Option) *Capturer {
	c := &Capturer{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(c)
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if c.execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(c.execPath))
	}
	c.allocCtx, c.allocCancel = chromedp.NewExecAllocator(context.Background(), allocOpts...)
	c.browserCtx, c.browserCancel = chromedp.NewContext(c.allocCtx)

	return c
}

// Fetch navigates to the URL and returns the rendered HTML.
func (c *Capturer) Fetch(ctx context.Context, url string) (string, error) {
	var html string
	err := c.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", err
	}
	return html, nil
}

// Capture navigates to the URL and returns the rendered HTML together with
// inline styles and the bodies of external stylesheets, in document order.
func (c *Capturer) Capture(ctx context.Context, url string) (*pagelens.CapturedPage, error) {
	var html string
	var sources pagelens.StyleSources
	var external []string

	err := c.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Evaluate(pagelens.DiscoverStylesJS, &sources),
		chromedp.ActionFunc(func(ctx context.Context) error {
			urls := sources.FetchableURLs()
			if len(urls) == 0 {
				return nil
			}
			if c.styles != nil {
				external = c.styles.FetchStylesheets(ctx, urls)
				return nil
			}
			var err error
			external, err = fetchStyles(ctx, urls)
			return err
		}),
	)
	if err != nil {
		return nil, err
	}

	styles := make([]string, 0, len(sources.Inline)+len(external))
	styles = append(styles, sources.Inline...)
	styles = append(styles, external...)
	return &pagelens.CapturedPage{HTML: html, Styles: styles}, nil
}

// Close stops Chrome. Close is safe to call multiple times.
func (c *Capturer) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.browserCancel()
		c.allocCancel()
	})
	return nil
}

// run executes actions in a fresh tab bounded by the capture timeout.
func (c *Capturer) run(ctx context.Context, actions ...chromedp.Action) error {
	if c.closed.Load() {
		return pagelens.Errorf(pagelens.EINVALID, "capturer is closed")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.startOnce.Do(func() {
		if err := chromedp.Run(c.browserCtx); err != nil {
			c.startErr = fmt.Errorf("launching browser: %w", err)
		}
	})
	if c.startErr != nil {
		return c.startErr
	}

	tabCtx, cancelTab := chromedp.NewContext(c.browserCtx)
	defer cancelTab()

	// Propagate the caller's cancellation into the tab.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	tabCtx, cancel := context.WithTimeout(tabCtx, c.timeout)
	defer cancel()

	if err := chromedp.Run(tabCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("capture: %w", ctxErr)
		}
		return fmt.Errorf("capture: %w", err)
	}
	return nil
}

// fetchStyles downloads stylesheets from inside the page, skipping failures.
func fetchStyles(ctx context.Context, urls []string) ([]string, error) {
	list, err := json.Marshal(urls)
	if err != nil {
		return nil, err
	}
	js := fmt.Sprintf(`Promise.all(%s.map(u =>
	fetch(u).then(r => r.ok ? r.text() : null).catch(() => null)
))`, list)

	var bodies []*string
	err = chromedp.Evaluate(js, &bodies, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	}).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching stylesheets: %w", err)
	}

	styles := make([]string, 0, len(bodies))
	for _, b := range bodies {
		if b != nil {
			styles = append(styles, *b)
		}
	}
	return styles, nil
}
