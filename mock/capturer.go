package mock

import (
	"context"

	"github.com/fwojciec/pagelens"
)

var _ pagelens.Capturer = (*Capturer)(nil)

// Capturer is a mock implementation of pagelens.Capturer.
type Capturer struct {
	CaptureFn func(ctx context.Context, url string) (*pagelens.CapturedPage, error)
	CloseFn   func() error
}

func (c *Capturer) Capture(ctx context.Context, url string) (*pagelens.CapturedPage, error) {
	return c.CaptureFn(ctx, url)
}

func (c *Capturer) Close() error {
	return c.CloseFn()
}

var _ pagelens.StylesheetFetcher = (*StylesheetFetcher)(nil)

// StylesheetFetcher is a mock implementation of pagelens.StylesheetFetcher.
type StylesheetFetcher struct {
	FetchStylesheetsFn func(ctx context.Context, urls []string) []string
}

func (f *StylesheetFetcher) FetchStylesheets(ctx context.Context, urls []string) []string {
	return f.FetchStylesheetsFn(ctx, urls)
}

var _ pagelens.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter is a mock implementation of pagelens.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return l.WaitFn(ctx, domain)
}

var _ pagelens.PageService = (*PageService)(nil)

// PageService is a mock implementation of pagelens.PageService.
type PageService struct {
	CaptureFn func(ctx context.Context, url string) (*pagelens.Snapshot, error)
	ExtractFn func(ctx context.Context, url string, selectors pagelens.FieldSelectors) (pagelens.ExtractionResult, error)
}

func (s *PageService) Capture(ctx context.Context, url string) (*pagelens.Snapshot, error) {
	return s.CaptureFn(ctx, url)
}

func (s *PageService) Extract(ctx context.Context, url string, selectors pagelens.FieldSelectors) (pagelens.ExtractionResult, error) {
	return s.ExtractFn(ctx, url, selectors)
}
