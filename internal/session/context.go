// internal/session/context.go
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyhfish/playwright-mcp/internal/browser"
	"github.com/hyhfish/playwright-mcp/internal/config"
)

// State is the lifecycle state of a Context.
type State string

const (
	// StateUninitialized means no browser session is live and no tabs exist.
	StateUninitialized State = "uninitialized"
	// StateActive means a browser session is live with at least one tab.
	StateActive State = "active"
	// StateClosing means teardown is in progress.
	StateClosing State = "closing"
)

// AcquireMode selects how AcquireTab behaves when no tab is active. The two
// modes encode different failure philosophies: tolerant actions may originate
// a session, strict actions must fail loudly instead of fabricating a fresh
// session with no history.
type AcquireMode int

const (
	// AcquireLazy creates the session and a default tab on demand.
	AcquireLazy AcquireMode = iota
	// AcquireExisting requires an active tab and never creates anything.
	AcquireExisting
)

var (
	// ErrNoActiveTab is returned by strict tab acquisition when no tab is
	// active. No side effect has occurred when this is returned.
	ErrNoActiveTab = errors.New("no active tab: navigate to a page first")

	// ErrSessionStart wraps engine failures during lazy session creation.
	// The context is back in the uninitialized state and safe to retry.
	ErrSessionStart = errors.New("browser session failed to start")
)

// Tab is one open page inside the live session. It carries its
// session-relative index; it does not own the session.
type Tab struct {
	page  browser.Page
	index int
}

// Page exposes the underlying page for handlers to drive.
func (t *Tab) Page() browser.Page { return t.page }

// Index is the tab's position in the session's tab list.
func (t *Tab) Index() int { return t.index }

// Context owns the browser session for one client connection. All mutation of
// the configuration and tab list goes through its methods; handlers never
// touch either directly, which preserves the invariant that no tab outlives
// its session.
//
// Callers are expected to serialize operations: at most one action is in
// flight per Context at a time. The mutex guards against accidental overlap,
// not sanctioned concurrency.
type Context struct {
	id     string
	logger *zap.Logger
	engine browser.Engine

	mu      sync.Mutex
	cfg     config.BrowserConfig
	state   State
	sess    browser.Session
	tabs    []*Tab
	current int
}

// NewContext creates an uninitialized context. No browser process is started
// until the first lazy tab acquisition.
func NewContext(cfg config.BrowserConfig, engine browser.Engine, logger *zap.Logger) *Context {
	id := uuid.New().String()
	return &Context{
		id:      id,
		logger:  logger.Named("session").With(zap.String("context_id", id)),
		engine:  engine,
		cfg:     cfg,
		state:   StateUninitialized,
		current: -1,
	}
}

// ID returns the unique identifier for this context.
func (c *Context) ID() string { return c.id }

// State returns the current lifecycle state.
func (c *Context) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Config returns a copy of the active configuration.
func (c *Context) Config() config.BrowserConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// AcquireTab returns the current tab. In AcquireLazy mode it creates the
// browser session and a default tab first if none is live; the call may block
// while the browser process starts. In AcquireExisting mode it fails with
// ErrNoActiveTab instead of creating anything.
func (c *Context) AcquireTab(ctx context.Context, mode AcquireMode) (*Tab, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateActive && c.current >= 0 {
		return c.tabs[c.current], nil
	}

	if mode == AcquireExisting {
		return nil, ErrNoActiveTab
	}

	if err := c.startLocked(ctx); err != nil {
		return nil, err
	}
	return c.tabs[c.current], nil
}

// startLocked creates the browser session and its default tab. On any failure
// the context is left uninitialized with no partial state. Callers hold c.mu.
func (c *Context) startLocked(ctx context.Context) error {
	c.logger.Info("Starting browser session.",
		zap.String("user_data_dir", c.cfg.UserDataDir),
		zap.Bool("headless", c.cfg.Headless))

	sess, err := c.engine.NewSession(ctx, launchOptions(c.cfg))
	if err != nil {
		c.state = StateUninitialized
		return fmt.Errorf("%w: %v", ErrSessionStart, err)
	}

	page, err := sess.NewPage(ctx)
	if err != nil {
		// Discard the half-started session; no tab may exist without one.
		if closeErr := sess.Close(ctx); closeErr != nil {
			c.logger.Warn("Failed to discard half-started session.", zap.Error(closeErr))
		}
		c.state = StateUninitialized
		return fmt.Errorf("%w: %v", ErrSessionStart, err)
	}

	c.sess = sess
	c.tabs = []*Tab{{page: page, index: 0}}
	c.current = 0
	c.state = StateActive
	return nil
}

// NewTab opens an additional tab and makes it current, starting the session
// first if none is live.
func (c *Context) NewTab(ctx context.Context) (*Tab, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateActive {
		if err := c.startLocked(ctx); err != nil {
			return nil, err
		}
		return c.tabs[c.current], nil
	}

	page, err := c.sess.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}

	tab := &Tab{page: page, index: len(c.tabs)}
	c.tabs = append(c.tabs, tab)
	c.current = tab.index
	return tab, nil
}

// Tabs returns the open tabs in order.
func (c *Context) Tabs() []*Tab {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Tab(nil), c.tabs...)
}

// CurrentIndex returns the index of the current tab, or -1 when none.
func (c *Context) CurrentIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// SelectTab makes the tab at index current.
func (c *Context) SelectTab(ctx context.Context, index int) (*Tab, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateActive {
		return nil, ErrNoActiveTab
	}
	if index < 0 || index >= len(c.tabs) {
		return nil, fmt.Errorf("tab index %d out of range [0, %d)", index, len(c.tabs))
	}
	c.current = index
	return c.tabs[index], nil
}

// CloseTab closes the tab at index. Closing the last remaining tab tears the
// whole session down: no tab may exist without a session, and a session with
// zero tabs serves nothing.
func (c *Context) CloseTab(ctx context.Context, index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateActive {
		return ErrNoActiveTab
	}
	if index < 0 || index >= len(c.tabs) {
		return fmt.Errorf("tab index %d out of range [0, %d)", index, len(c.tabs))
	}

	if len(c.tabs) == 1 {
		return c.closeLocked(ctx)
	}

	tab := c.tabs[index]
	if err := tab.page.Close(ctx); err != nil {
		c.logger.Warn("Failed to close tab page.", zap.Int("index", index), zap.Error(err))
	}

	c.tabs = append(c.tabs[:index], c.tabs[index+1:]...)
	for i, t := range c.tabs {
		t.index = i
	}
	if c.current >= len(c.tabs) {
		c.current = len(c.tabs) - 1
	} else if c.current > index {
		c.current--
	}
	return nil
}

// Reconfigure tears down any live session and applies the new configuration.
// The next lazy acquisition starts a fresh session under the new settings,
// with a fresh browsing history and storage state. This is destructive:
// unsaved state in the old profile is gone and all Tab handles are invalid.
func (c *Context) Reconfigure(ctx context.Context, cfg config.BrowserConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.closeLocked(ctx); err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

// Close tears down the live session and discards every tab. Closing an
// uninitialized context is a no-op.
func (c *Context) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked(ctx)
}

// closeLocked runs the Active -> Closing -> Uninitialized transition.
// Callers hold c.mu.
func (c *Context) closeLocked(ctx context.Context) error {
	if c.state != StateActive {
		return nil
	}
	c.state = StateClosing
	c.logger.Info("Closing browser session.", zap.Int("open_tabs", len(c.tabs)))

	err := c.sess.Close(ctx)

	// Teardown always completes: handles are discarded even if the engine
	// reported a close error, so the context is safe to reuse.
	c.sess = nil
	c.tabs = nil
	c.current = -1
	c.state = StateUninitialized

	if err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}
	return nil
}

func launchOptions(cfg config.BrowserConfig) browser.LaunchOptions {
	return browser.LaunchOptions{
		Headless:          cfg.Headless,
		UserDataDir:       cfg.UserDataDir,
		ExecutablePath:    cfg.ExecutablePath,
		Args:              cfg.Args,
		NoSandbox:         cfg.NoSandbox,
		NavigationTimeout: cfg.NavigationTimeout,
	}
}
