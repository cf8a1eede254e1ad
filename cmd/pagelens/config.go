package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fwojciec/pagelens"
	"github.com/fwojciec/pagelens/rod"
	"github.com/goccy/go-yaml"
)

// Config holds settings loaded from the optional YAML config file.
type Config struct {
	// NoiseSelectors are CSS selectors removed before text extraction,
	// in addition to the built-in defaults.
	NoiseSelectors []string `yaml:"noise_selectors"`

	// StylesheetConcurrency bounds parallel stylesheet downloads for the
	// http backend.
	StylesheetConcurrency int `yaml:"stylesheet_concurrency"`

	// MaxPages recycles the rod browser after this many pages. Zero keeps
	// the default.
	MaxPages int64 `yaml:"max_pages"`

	// BrowserPath is the Chrome binary used by the rod and chromedp
	// backends. Empty lets each backend locate one.
	BrowserPath string `yaml:"browser_path"`
}

// rodOptions maps the browser settings onto the rod browser manager.
func (c Config) rodOptions(logger *slog.Logger) []rod.ManagerOption {
	opts := []rod.ManagerOption{rod.WithManagerLogger(logger)}
	if c.MaxPages > 0 {
		opts = append(opts, rod.WithMaxPages(c.MaxPages))
	}
	if c.BrowserPath != "" {
		opts = append(opts, rod.WithBrowserBin(c.BrowserPath))
	}
	return opts
}

// LoadConfig reads the config file at path. An empty path yields the zero
// Config. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, pagelens.Errorf(pagelens.EINVALID, "config file %q not found", path)
	} else if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.DisallowUnknownField()); err != nil {
		return cfg, pagelens.WrapError(pagelens.EINVALID, err, "invalid config %q: %v", path, err)
	}
	if cfg.StylesheetConcurrency < 0 {
		return cfg, pagelens.Errorf(pagelens.EINVALID, "stylesheet_concurrency must not be negative")
	}
	if cfg.MaxPages < 0 {
		return cfg, pagelens.Errorf(pagelens.EINVALID, "max_pages must not be negative")
	}
	return cfg, nil
}
