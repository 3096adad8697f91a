// File: internal/browser/browsertest/fake.go
// Package browsertest provides an in-memory Engine implementation for tests.
// The fake keeps a navigation history per page so back/forward semantics can
// be exercised without a real browser.
package browsertest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hyhfish/playwright-mcp/internal/browser"
)

// Engine is a fake browser.Engine. It records every session it creates.
type Engine struct {
	mu sync.Mutex

	// FailNext, when non-nil, is returned by the next NewSession call and
	// then cleared. Used to simulate launch failures.
	FailNext error

	// PageFailNext, when non-nil, is installed as NewPageErr on the next
	// session created. Used to simulate a launch that starts the process
	// but cannot open a tab.
	PageFailNext error

	sessions []*Session
}

var _ browser.Engine = (*Engine)(nil)

// NewEngine creates a fake engine.
func NewEngine() *Engine {
	return &Engine{}
}

func (e *Engine) NewSession(ctx context.Context, opts browser.LaunchOptions) (browser.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.FailNext != nil {
		err := e.FailNext
		e.FailNext = nil
		return nil, err
	}

	s := &Session{Opts: opts, NewPageErr: e.PageFailNext}
	e.PageFailNext = nil
	e.sessions = append(e.sessions, s)
	return s, nil
}

// Sessions returns every session created so far, in creation order.
func (e *Engine) Sessions() []*Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Session(nil), e.sessions...)
}

// LastSession returns the most recently created session, or nil.
func (e *Engine) LastSession() *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.sessions) == 0 {
		return nil
	}
	return e.sessions[len(e.sessions)-1]
}

// Session is a fake browser.Session.
type Session struct {
	// Opts are the launch options the session was created with.
	Opts browser.LaunchOptions

	// NewPageErr, when non-nil, is returned by the next NewPage call and
	// then cleared.
	NewPageErr error

	mu     sync.Mutex
	pages  []*Page
	closed bool
}

var _ browser.Session = (*Session)(nil)

func (s *Session) NewPage(ctx context.Context) (browser.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, browser.ErrSessionClosed
	}
	if s.NewPageErr != nil {
		err := s.NewPageErr
		s.NewPageErr = nil
		return nil, err
	}

	p := &Page{Titles: map[string]string{}}
	s.pages = append(s.pages, p)
	return p, nil
}

func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("session closed twice")
	}
	s.closed = true
	for _, p := range s.pages {
		p.markClosed()
	}
	return nil
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Pages returns every page opened in this session, in creation order.
func (s *Session) Pages() []*Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Page(nil), s.pages...)
}

// Page is a fake browser.Page with a real back/forward history model.
type Page struct {
	// Titles maps a URL to the title reported for it.
	Titles map[string]string

	mu      sync.Mutex
	history []string
	idx     int
	calls   []string
	closed  bool
}

var _ browser.Page = (*Page)(nil)

func (p *Page) record(call string) {
	p.calls = append(p.calls, call)
}

// Calls returns the engine calls made against this page, in order.
func (p *Page) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// Closed reports whether the page has been closed (directly or via its session).
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Page) markClosed() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

func (p *Page) Goto(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.New("page is closed")
	}
	p.record("goto " + url)

	// A navigation truncates any forward entries, like a real tab.
	if len(p.history) > 0 {
		p.history = p.history[:p.idx+1]
	}
	p.history = append(p.history, url)
	p.idx = len(p.history) - 1
	return nil
}

func (p *Page) GoBack(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.New("page is closed")
	}
	p.record("goback")
	if p.idx > 0 {
		p.idx--
	}
	return nil
}

func (p *Page) GoForward(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.New("page is closed")
	}
	p.record("goforward")
	if p.idx < len(p.history)-1 {
		p.idx++
	}
	return nil
}

func (p *Page) URL(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.history) == 0 {
		return "about:blank", nil
	}
	return p.history[p.idx], nil
}

func (p *Page) Title(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.history) == 0 {
		return "", nil
	}
	return p.Titles[p.history[p.idx]], nil
}

func (p *Page) WaitStable(ctx context.Context, timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("waitstable")
	return nil
}

func (p *Page) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.New("page closed twice")
	}
	p.closed = true
	p.record("close")
	return nil
}
