package rod

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/fwojciec/pagelens"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// DefaultMaxPages is the number of pages a browser serves before it is
// replaced.
const DefaultMaxPages = 75

// process is one launched Chrome instance and its page bookkeeping.
// Fields other than browser and launcher are guarded by BrowserManager.mu.
type process struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	served   int64
	inflight int
	retired  bool
}

func (p *process) stop() error {
	err := p.browser.Close()
	p.launcher.Kill()
	return err
}

// BrowserManager hands out Chrome instances for captures and retires each
// one after it has served maxPages pages. A retired browser keeps running
// until its last in-flight page is released.
//
// BrowserManager is safe for concurrent use.
type BrowserManager struct {
	maxPages int64
	bin      string
	logger   *slog.Logger

	mu       sync.Mutex
	current  *process
	draining map[*process]struct{}
	recycles atomic.Int64
	closed   bool
}

// ManagerOption configures a BrowserManager.
type ManagerOption func(*BrowserManager)

// WithMaxPages sets how many pages a browser serves before it is replaced.
// Values below 1 keep DefaultMaxPages.
func WithMaxPages(n int64) ManagerOption {
	return func(bm *BrowserManager) {
		if n > 0 {
			bm.maxPages = n
		}
	}
}

// WithBrowserBin launches the Chrome binary at path instead of the one
// found or downloaded by the launcher.
func WithBrowserBin(path string) ManagerOption {
	return func(bm *BrowserManager) {
		bm.bin = path
	}
}

// WithManagerLogger logs browser replacements and replacement failures.
func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(bm *BrowserManager) {
		if l != nil {
			bm.logger = l
		}
	}
}

// NewBrowserManager launches a headless Chrome browser.
// Close must be called when the BrowserManager is no longer needed.
func NewBrowserManager(opts ...ManagerOption) (*BrowserManager, error) {
	bm := &BrowserManager{
		maxPages: DefaultMaxPages,
		logger:   slog.New(slog.DiscardHandler),
		draining: make(map[*process]struct{}),
	}
	for _, opt := range opts {
		opt(bm)
	}

	p, err := bm.start()
	if err != nil {
		return nil, err
	}
	bm.current = p
	return bm, nil
}

// Acquire returns the browser to open the next page in, replacing the
// current one first when it has served maxPages pages. The returned
// release func must be called once the page is closed.
func (bm *BrowserManager) Acquire() (*rod.Browser, func(), error) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed {
		return nil, nil, pagelens.Errorf(pagelens.EINVALID, "browser manager is closed")
	}
	if bm.current.served >= bm.maxPages {
		bm.replace()
	}

	p := bm.current
	p.served++
	p.inflight++
	return p.browser, sync.OnceFunc(func() { bm.release(p) }), nil
}

// Recycles returns how many times the browser has been replaced.
func (bm *BrowserManager) Recycles() int64 {
	return bm.recycles.Load()
}

// Close stops the current browser and any retired ones still draining.
// Close is safe to call multiple times.
func (bm *BrowserManager) Close() error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed {
		return nil
	}
	bm.closed = true

	err := bm.current.stop()
	for p := range bm.draining {
		_ = p.stop()
		delete(bm.draining, p)
	}
	return err
}

// LauncherPID returns the process ID of the current browser launcher, or 0
// after Close.
func (bm *BrowserManager) LauncherPID() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	if bm.closed {
		return 0
	}
	return bm.current.launcher.PID()
}

// start launches a browser with flags that keep background pages rendering.
func (bm *BrowserManager) start() (*process, error) {
	l := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor").
		Leakless(true).
		Headless(true)
	if bm.bin != "" {
		l = l.Bin(bm.bin)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}
	return &process{browser: browser, launcher: l}, nil
}

// replace swaps in a fresh browser and retires the current one. The current
// browser stays in service when the launch fails. Must be called with mu held.
func (bm *BrowserManager) replace() {
	next, err := bm.start()
	if err != nil {
		bm.logger.Warn("browser replacement failed", "error", err, "served", bm.current.served)
		return
	}

	old := bm.current
	bm.current = next
	bm.recycles.Add(1)
	bm.logger.Debug("browser replaced", "served", old.served, "pid", next.launcher.PID())

	old.retired = true
	if old.inflight == 0 {
		_ = old.stop()
		return
	}
	bm.draining[old] = struct{}{}
}

// release records a closed page and stops p once it is retired and idle.
func (bm *BrowserManager) release(p *process) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	p.inflight--
	if !p.retired || p.inflight > 0 {
		return
	}
	if _, ok := bm.draining[p]; ok {
		delete(bm.draining, p)
		_ = p.stop()
	}
}
