package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/pagelens"
	lenshttp "github.com/fwojciec/pagelens/http"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx     context.Context
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *slog.Logger
	Service pagelens.PageService
	Store   pagelens.SnapshotStore
	Server  *lenshttp.Server
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config  string        `short:"C" env:"PAGELENS_CONFIG" type:"path" help:"YAML config file"`
	Browser string        `short:"b" enum:"rod,chromedp,http" default:"rod" help:"Capture backend (rod, chromedp, http)"`
	Timeout time.Duration `short:"t" default:"30s" help:"Capture timeout per page"`
	Verbose bool          `short:"v" help:"Enable debug logging"`

	Capture CaptureCmd `cmd:"" help:"Capture a page and print one of its views"`
	Extract ExtractCmd `cmd:"" help:"Extract fields from a page with CSS or XPath selectors"`
	Serve   ServeCmd   `cmd:"" help:"Serve the JSON API"`
}

// CaptureCmd is the "capture" subcommand.
type CaptureCmd struct {
	URL  string `arg:"" help:"Page URL"`
	View string `short:"V" enum:"raw,rendered,text,outline,markdown" default:"rendered" help:"View to print (raw, rendered, text, outline, markdown)"`
	Out  string `short:"o" type:"path" help:"Write every view to this directory instead of printing"`
}

// ExtractCmd is the "extract" subcommand.
type ExtractCmd struct {
	URL       string            `arg:"" help:"Page URL"`
	Selectors map[string]string `short:"s" name:"selector" required:"" help:"Field selector as name=selector; prefix XPath with xpath: (repeatable)"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr  string  `short:"a" env:"PAGELENS_ADDR" default:":8080" help:"Listen address"`
	RPS   float64 `default:"1" help:"Captures per second allowed per target host"`
	Burst int     `default:"1" help:"Capture burst per target host"`
}
