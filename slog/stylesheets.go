package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/pagelens"
)

// Ensure LoggingStylesheetFetcher implements pagelens.StylesheetFetcher.
var _ pagelens.StylesheetFetcher = (*LoggingStylesheetFetcher)(nil)

// LoggingStylesheetFetcher wraps a StylesheetFetcher with debug logging.
type LoggingStylesheetFetcher struct {
	next   pagelens.StylesheetFetcher
	logger *slog.Logger
}

// NewLoggingStylesheetFetcher creates a new LoggingStylesheetFetcher.
func NewLoggingStylesheetFetcher(next pagelens.StylesheetFetcher, logger *slog.Logger) *LoggingStylesheetFetcher {
	return &LoggingStylesheetFetcher{next: next, logger: logger}
}

// FetchStylesheets logs how many of the requested stylesheets were
// downloaded.
func (f *LoggingStylesheetFetcher) FetchStylesheets(ctx context.Context, urls []string) []string {
	begin := time.Now()
	styles := f.next.FetchStylesheets(ctx, urls)
	f.logger.Debug("stylesheets",
		"requested", len(urls),
		"fetched", len(styles),
		"duration", time.Since(begin),
	)
	return styles
}
