package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/pagelens"
)

// Ensure LoggingCapturer implements pagelens.Capturer.
var _ pagelens.Capturer = (*LoggingCapturer)(nil)

// LoggingCapturer wraps a Capturer with logging.
type LoggingCapturer struct {
	next   pagelens.Capturer
	logger *slog.Logger
}

// NewLoggingCapturer creates a new LoggingCapturer.
func NewLoggingCapturer(next pagelens.Capturer, logger *slog.Logger) *LoggingCapturer {
	return &LoggingCapturer{next: next, logger: logger}
}

// Capture logs the outcome of each capture: page size, number of styles
// and duration. Failures are logged at warn level.
func (c *LoggingCapturer) Capture(ctx context.Context, url string) (page *pagelens.CapturedPage, err error) {
	defer func(begin time.Time) {
		if err != nil {
			c.logger.Warn("capture",
				"url", url,
				"duration", time.Since(begin),
				"err", err,
			)
			return
		}
		c.logger.Info("capture",
			"url", url,
			"bytes", len(page.HTML),
			"styles", len(page.Styles),
			"duration", time.Since(begin),
		)
	}(time.Now())
	return c.next.Capture(ctx, url)
}

// Close delegates to the wrapped capturer.
func (c *LoggingCapturer) Close() error {
	return c.next.Close()
}
