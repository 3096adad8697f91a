// internal/browser/engine.go
package browser

import (
	"context"
	"time"
)

// LaunchOptions describes how a browser process should be started. The
// session layer owns these values; a changed UserDataDir means a different
// session identity and forces a relaunch.
type LaunchOptions struct {
	Headless          bool
	UserDataDir       string
	ExecutablePath    string
	Args              []string
	NoSandbox         bool
	NavigationTimeout time.Duration
}

// Engine launches browser sessions. Implementations wrap a concrete
// automation backend; callers never see the backend's own types.
type Engine interface {
	// NewSession starts a browser process with the given options. The call
	// blocks until the process is up or fails; on failure no resources are
	// retained.
	NewSession(ctx context.Context, opts LaunchOptions) (Session, error)
}

// Session is one running browser process. Pages opened from it are invalid
// after Close.
type Session interface {
	// NewPage opens a fresh tab in the session.
	NewPage(ctx context.Context) (Page, error)
	// Close terminates the browser process and every open page.
	Close(ctx context.Context) error
}

// Page is one open tab. It holds no reference to the Session that created it;
// the session layer tracks that relationship.
type Page interface {
	// Goto navigates the tab and blocks until the navigation commits.
	Goto(ctx context.Context, url string) error
	// GoBack moves one entry back in the tab's history. With no earlier
	// entry it is a no-op, not an error.
	GoBack(ctx context.Context) error
	// GoForward moves one entry forward in the tab's history. With no later
	// entry it is a no-op, not an error.
	GoForward(ctx context.Context) error
	// URL reports the tab's current location.
	URL(ctx context.Context) (string, error)
	// Title reports the current document title.
	Title(ctx context.Context) (string, error)
	// WaitStable blocks until the page has settled or the timeout elapses.
	WaitStable(ctx context.Context, timeout time.Duration) error
	// Close closes just this tab.
	Close(ctx context.Context) error
}
