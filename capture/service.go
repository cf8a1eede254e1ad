// Package capture orchestrates page capture, reconstruction and field
// extraction. It validates target URLs, throttles requests per domain and
// maps adapter failures to pagelens.ECAPTURE.
package capture

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/fwojciec/pagelens"
)

var _ pagelens.PageService = (*Service)(nil)

// Service captures pages and derives their renditions.
type Service struct {
	Capturer pagelens.Capturer
	Fetcher  pagelens.Fetcher
	Renderer pagelens.Renderer
	Text     pagelens.TextExtractor
	Fields   pagelens.FieldExtractor

	// Optional collaborators.
	Outline     pagelens.OutlineRenderer
	Converter   pagelens.Converter
	RateLimiter pagelens.DomainLimiter
	Logger      *slog.Logger
	Now         func() time.Time
}

// Reconstruct derives every configured rendition of page. It never fails;
// a Markdown conversion error leaves Rendering.Markdown empty.
func (s *Service) Reconstruct(page *pagelens.CapturedPage) *pagelens.Rendering {
	if page == nil {
		page = &pagelens.CapturedPage{}
	}

	r := &pagelens.Rendering{
		Document:  s.Renderer.Render(page),
		PlainText: s.Text.ExtractText(page.HTML),
	}
	if s.Outline != nil {
		r.Outline = s.Outline.RenderOutline(page.HTML)
	}
	if s.Converter != nil {
		md, err := s.Converter.Convert(s.Text.CleanHTML(page.HTML))
		if err != nil {
			s.logger().Warn("markdown conversion failed", "error", err)
		} else {
			r.Markdown = md
		}
	}
	return r
}

// Capture captures the page at rawURL and reconstructs it.
func (s *Service) Capture(ctx context.Context, rawURL string) (*pagelens.Snapshot, error) {
	target, err := s.prepare(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	page, err := s.Capturer.Capture(ctx, target)
	if err != nil {
		return nil, captureError(err, target)
	}

	return &pagelens.Snapshot{
		URL:        target,
		CapturedAt: s.now(),
		Page:       page,
		Rendering:  s.Reconstruct(page),
	}, nil
}

// Extract fetches the rendered HTML at rawURL and evaluates selectors
// against it. Reconstruction is skipped. Individual selector failures
// yield nil entries, not errors.
func (s *Service) Extract(ctx context.Context, rawURL string, selectors pagelens.FieldSelectors) (pagelens.ExtractionResult, error) {
	if err := selectors.Validate(); err != nil {
		return nil, err
	}

	target, err := s.prepare(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	html, err := s.Fetcher.Fetch(ctx, target)
	if err != nil {
		return nil, captureError(err, target)
	}

	return s.Fields.ExtractFields(html, selectors), nil
}

// prepare validates rawURL and waits for the domain's rate limit.
func (s *Service) prepare(ctx context.Context, rawURL string) (string, error) {
	target, host, err := ParseTarget(rawURL)
	if err != nil {
		return "", err
	}
	if s.RateLimiter != nil {
		if err := s.RateLimiter.Wait(ctx, host); err != nil {
			return "", pagelens.WrapError(pagelens.ECAPTURE, err, "rate limit wait for %s", host)
		}
	}
	return target, nil
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// ParseTarget validates a capture URL and returns it trimmed along with its
// host. An empty URL is EINVALID; a URL that is not absolute http(s) is
// ECAPTURE, the same as a navigation failure.
func ParseTarget(rawURL string) (target, host string, err error) {
	target = strings.TrimSpace(rawURL)
	if target == "" {
		return "", "", pagelens.Errorf(pagelens.EINVALID, "URL is required")
	}

	u, err := url.Parse(target)
	if err != nil {
		return "", "", pagelens.WrapError(pagelens.ECAPTURE, err, "invalid URL %q", target)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", "", pagelens.Errorf(pagelens.ECAPTURE, "unsupported URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", "", pagelens.Errorf(pagelens.ECAPTURE, "URL %q has no host", target)
	}
	return target, u.Hostname(), nil
}

// captureError maps an adapter failure to ECAPTURE. Errors that already
// carry an application code other than EINTERNAL keep it.
func captureError(err error, target string) error {
	if code := pagelens.ErrorCode(err); code != pagelens.EINTERNAL {
		return err
	}
	return pagelens.WrapError(pagelens.ECAPTURE, err, "capture %s: %v", target, err)
}
