// internal/browser/chrome.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// ErrSessionClosed is returned when a page is requested from a session that
// has already been torn down.
var ErrSessionClosed = errors.New("browser session is closed")

const defaultStableTimeout = 30 * time.Second

// ChromeEngine implements Engine on top of chromedp. Each session gets its
// own exec allocator so the profile directory can differ between sessions.
type ChromeEngine struct {
	logger *zap.Logger
}

// NewChromeEngine creates a chromedp-backed engine.
func NewChromeEngine(logger *zap.Logger) *ChromeEngine {
	return &ChromeEngine{logger: logger.Named("chrome")}
}

// NewSession launches a browser process. The launch happens eagerly so that
// startup failures surface here rather than on the first navigation.
func (e *ChromeEngine) NewSession(ctx context.Context, opts LaunchOptions) (Session, error) {
	allocOpts := DefaultAllocatorOptions(opts)

	// The allocator parent is deliberately not the caller's ctx: the browser
	// process must outlive the request that created it.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	launchCtx, launchCancel := combineContext(browserCtx, ctx)
	defer launchCancel()

	if err := chromedp.Run(launchCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch browser process: %w", err)
	}

	e.logger.Debug("Browser process launched.",
		zap.Bool("headless", opts.Headless),
		zap.String("user_data_dir", opts.UserDataDir))

	return &chromeSession{
		logger:        e.logger,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
		navTimeout:    opts.NavigationTimeout,
	}, nil
}

// chromeSession wraps the browser-level chromedp context. The initial
// about:blank target stays reserved as the session anchor; pages handed to
// callers are always fresh tab contexts so closing one never tears down the
// whole browser.
type chromeSession struct {
	logger        *zap.Logger
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
	navTimeout    time.Duration

	mu     sync.Mutex
	closed bool
}

func (s *chromeSession) NewPage(ctx context.Context) (Page, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrSessionClosed
	}

	tabCtx, tabCancel := chromedp.NewContext(s.browserCtx)

	openCtx, openCancel := combineContext(tabCtx, ctx)
	defer openCancel()

	if err := chromedp.Run(openCtx); err != nil {
		tabCancel()
		return nil, fmt.Errorf("failed to open new tab: %w", err)
	}

	return &chromePage{
		logger:     s.logger,
		ctx:        tabCtx,
		cancel:     tabCancel,
		navTimeout: s.navTimeout,
	}, nil
}

func (s *chromeSession) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	// Graceful browser close first; the cancels reap the process if the
	// protocol exchange fails.
	err := chromedp.Cancel(s.browserCtx)
	s.browserCancel()
	s.allocCancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to close browser session: %w", err)
	}
	return nil
}

// chromePage wraps one tab context.
type chromePage struct {
	logger     *zap.Logger
	ctx        context.Context
	cancel     context.CancelFunc
	navTimeout time.Duration
}

// run executes chromedp actions respecting both the tab lifetime and the
// caller's context.
func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, runCancel := combineContext(p.ctx, ctx)
	defer runCancel()
	return chromedp.Run(runCtx, actions...)
}

func (p *chromePage) Goto(ctx context.Context, url string) error {
	if p.navTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.navTimeout)
		defer cancel()
	}
	if err := p.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

func (p *chromePage) GoBack(ctx context.Context) error {
	return p.run(ctx, chromedp.ActionFunc(func(c context.Context) error {
		cur, entries, err := page.GetNavigationHistory().Do(c)
		if err != nil {
			return fmt.Errorf("failed to read navigation history: %w", err)
		}
		if cur <= 0 || int(cur) >= len(entries) {
			p.logger.Debug("No earlier history entry; back navigation is a no-op.")
			return nil
		}
		return page.NavigateToHistoryEntry(entries[cur-1].ID).Do(c)
	}))
}

func (p *chromePage) GoForward(ctx context.Context) error {
	return p.run(ctx, chromedp.ActionFunc(func(c context.Context) error {
		cur, entries, err := page.GetNavigationHistory().Do(c)
		if err != nil {
			return fmt.Errorf("failed to read navigation history: %w", err)
		}
		if cur < 0 || int(cur)+1 >= len(entries) {
			p.logger.Debug("No later history entry; forward navigation is a no-op.")
			return nil
		}
		return page.NavigateToHistoryEntry(entries[cur+1].ID).Do(c)
	}))
}

func (p *chromePage) URL(ctx context.Context) (string, error) {
	var url string
	if err := p.run(ctx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("failed to read page location: %w", err)
	}
	return url, nil
}

func (p *chromePage) Title(ctx context.Context) (string, error) {
	var title string
	if err := p.run(ctx, chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("failed to read page title: %w", err)
	}
	return title, nil
}

func (p *chromePage) WaitStable(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = defaultStableTimeout
	}
	waitCtx, waitCancel := context.WithTimeout(ctx, timeout)
	defer waitCancel()

	if err := p.run(waitCtx, chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// A page that never settles within the window is reported, not fatal.
		p.logger.Debug("Page did not stabilize within the wait window.", zap.Error(err))
	}
	return nil
}

func (p *chromePage) Close(ctx context.Context) error {
	err := chromedp.Cancel(p.ctx)
	p.cancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to close tab: %w", err)
	}
	return nil
}

// combineContext creates a context canceled when either parent is canceled.
// Operations must respect both the component lifetime and the caller's
// deadline.
func combineContext(parentCtx, secondaryCtx context.Context) (context.Context, context.CancelFunc) {
	combinedCtx, cancel := context.WithCancel(parentCtx)

	go func() {
		select {
		case <-secondaryCtx.Done():
			cancel()
		case <-combinedCtx.Done():
		}
	}()

	return combinedCtx, cancel
}
