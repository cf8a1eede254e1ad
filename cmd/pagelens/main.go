package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/pagelens"
	"github.com/fwojciec/pagelens/capture"
	"github.com/fwojciec/pagelens/chromedp"
	"github.com/fwojciec/pagelens/fs"
	"github.com/fwojciec/pagelens/goquery"
	"github.com/fwojciec/pagelens/htmlquery"
	"github.com/fwojciec/pagelens/htmltomarkdown"
	lenshttp "github.com/fwojciec/pagelens/http"
	lensprom "github.com/fwojciec/pagelens/prometheus"
	"github.com/fwojciec/pagelens/rod"
	lensslog "github.com/fwojciec/pagelens/slog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Service overrides the wired page service. Used for end-to-end testing.
	Service pagelens.PageService

	// Store overrides the snapshot store used by capture --out.
	Store pagelens.SnapshotStore
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// backend captures full pages and fetches rendered HTML.
type backend interface {
	pagelens.Capturer
	pagelens.Fetcher
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("pagelens"),
		kong.Description("Capture web pages and rebuild them as self-contained documents"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'pagelens --help' to see available commands")
	}

	if cmd := args[0]; cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	command := kongCtx.Command()

	cfg, err := LoadConfig(cli.Config)
	if err != nil {
		fmt.Fprintf(stderr, "error: %s\n", pagelens.ErrorMessage(err))
		return err
	}

	deps.Logger = newLogger(stderr, cli.Verbose)

	var (
		reg     *prometheus.Registry
		metrics *lensprom.Metrics
	)
	if command == "serve" {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = lensprom.NewMetrics(reg)
	}

	deps.Service = m.Service
	if deps.Service == nil {
		b, err := newBackend(cli, cfg, deps.Logger)
		if err != nil {
			if cli.Browser != "http" {
				fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed, or use --browser http")
			}
			return fmt.Errorf("failed to start browser: %w", err)
		}
		defer b.Close()

		svc, err := newService(b, cli, cfg, deps.Logger, metrics)
		if err != nil {
			fmt.Fprintf(stderr, "error: %s\n", pagelens.ErrorMessage(err))
			return err
		}
		deps.Service = svc
	}

	switch command {
	case "capture <url>":
		if cli.Capture.Out != "" {
			deps.Store = m.Store
			if deps.Store == nil {
				out := filepath.Clean(cli.Capture.Out)
				deps.Store = fs.NewSnapshotStore(filepath.Dir(out), filepath.Base(out))
			}
		}
	case "serve":
		deps.Server = lenshttp.NewServer(deps.Service,
			lenshttp.WithLogger(deps.Logger),
			lenshttp.WithMetrics(reg),
			lenshttp.WithMiddleware(metrics.Middleware),
			lenshttp.WithRequestTimeout(cli.Timeout+lenshttp.DefaultRequestTimeout),
		)
	}

	return kongCtx.Run(deps)
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// newBackend starts the capture backend selected by --browser.
func newBackend(cli *CLI, cfg Config, logger *slog.Logger) (backend, error) {
	switch cli.Browser {
	case "http":
		styles := lenshttp.NewStylesheetFetcher(
			lenshttp.WithConcurrency(cfg.StylesheetConcurrency),
			lenshttp.WithStylesheetErrorFunc(func(url string, err error) {
				logger.Debug("stylesheet skipped", "url", url, "error", err)
			}),
		)
		return lenshttp.NewFetcher(
			lenshttp.WithTimeout(cli.Timeout),
			lenshttp.WithStylesheetFetcher(lensslog.NewLoggingStylesheetFetcher(styles, logger)),
		), nil
	case "chromedp":
		opts := []chromedp.Option{chromedp.WithTimeout(cli.Timeout)}
		if cfg.BrowserPath != "" {
			opts = append(opts, chromedp.WithExecPath(cfg.BrowserPath))
		}
		return chromedp.NewCapturer(opts...), nil
	default:
		return rod.NewFetcher(
			rod.WithFetchTimeout(cli.Timeout),
			rod.WithBrowserOptions(cfg.rodOptions(logger)...),
		)
	}
}

// newService wires the reconstruction pipeline around b. metrics and the
// per-host rate limiter are only used by the server.
func newService(b backend, cli *CLI, cfg Config, logger *slog.Logger, metrics *lensprom.Metrics) (*capture.Service, error) {
	noise, err := goquery.CompileNoiseSelectors(cfg.NoiseSelectors)
	if err != nil {
		return nil, err
	}

	onSelectorError := func(err *pagelens.SelectorError) {
		logger.Debug("selector failed", "field", err.Field, "selector", err.Selector, "error", err.Err)
	}

	var (
		capturer pagelens.Capturer = lensslog.NewLoggingCapturer(b, logger)
		fetcher  pagelens.Fetcher  = lensslog.NewLoggingFetcher(b, logger)
	)
	if metrics != nil {
		capturer = lensprom.NewMetricsCapturer(capturer, metrics)
		fetcher = lensprom.NewMetricsFetcher(fetcher, metrics)
	}

	svc := &capture.Service{
		Capturer: capturer,
		Fetcher:  fetcher,
		Renderer: goquery.NewRenderer(),
		Text:     goquery.NewTextExtractor(goquery.WithNoiseSelectors(noise...)),
		Fields: &capture.FieldRouter{
			CSS:   goquery.NewFieldExtractor(goquery.WithSelectorErrorFunc(onSelectorError)),
			XPath: htmlquery.NewFieldExtractor(htmlquery.WithSelectorErrorFunc(onSelectorError)),
		},
		Outline:   goquery.NewOutlineRenderer(),
		Converter: htmltomarkdown.NewConverter(markdownOptions(cli)...),
		Logger:    logger,
	}
	if cli.Serve.RPS > 0 && metrics != nil {
		svc.RateLimiter = capture.NewDomainLimiter(cli.Serve.RPS, cli.Serve.Burst)
	}
	return svc, nil
}

// markdownOptions resolves relative Markdown links against the captured
// page's origin when a single page is captured.
func markdownOptions(cli *CLI) []htmltomarkdown.Option {
	if cli.Capture.URL == "" {
		return nil
	}
	u, err := url.Parse(cli.Capture.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil
	}
	return []htmltomarkdown.Option{htmltomarkdown.WithDomain(u.Scheme + "://" + u.Host)}
}
