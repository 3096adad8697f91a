// File: internal/tools/navigate.go
package tools

import (
	"context"
	"fmt"

	"github.com/hyhfish/playwright-mcp/internal/session"
)

// Navigate builds the browser_navigate action. It lazily starts a session
// when none is running, and switches the browser profile directory first
// when the caller asks for one different from the active configuration.
func Navigate(captureSnapshot bool) (Definition, error) {
	return Define(Schema{
		Name:        "browser_navigate",
		Title:       "Navigate to a URL",
		Description: "Navigate the current tab to the given URL.",
		Kind:        KindDestructive,
		Capability:  CapabilityCore,
		Properties: []Property{
			{Name: "url", Type: "string", Description: "The URL to navigate to", Required: true},
			{Name: "profileDir", Type: "string", Description: "Browser profile directory to run against. Switching tears down the running session."},
		},
	}, func(ctx context.Context, sc *session.Context, args map[string]any) (*Result, error) {
		url := argString(args, "url")

		if dir := argString(args, "profileDir"); dir != "" && dir != sc.Config().UserDataDir {
			cfg := sc.Config()
			cfg.UserDataDir = dir
			if err := sc.Reconfigure(ctx, cfg); err != nil {
				return nil, err
			}
		}

		tab, err := sc.AcquireTab(ctx, session.AcquireLazy)
		if err != nil {
			return nil, err
		}
		if err := tab.Page().Goto(ctx, url); err != nil {
			return nil, err
		}

		return &Result{
			Code: []string{
				fmt.Sprintf("// Navigate to %s", url),
				fmt.Sprintf("await page.goto('%s');", url),
			},
			CaptureSnapshot: captureSnapshot,
			WaitForNetwork:  false,
		}, nil
	})
}

// NavigateBack builds the browser_navigate_back action. Like navigation it
// acquires a tab lazily, so calling it against a cold context starts a
// session on a blank page where going back is a no-op.
func NavigateBack(captureSnapshot bool) (Definition, error) {
	return Define(Schema{
		Name:        "browser_navigate_back",
		Title:       "Go back",
		Description: "Go back to the previous page in the tab's history.",
		Kind:        KindReadOnly,
		Capability:  CapabilityCore,
	}, func(ctx context.Context, sc *session.Context, args map[string]any) (*Result, error) {
		tab, err := sc.AcquireTab(ctx, session.AcquireLazy)
		if err != nil {
			return nil, err
		}
		if err := tab.Page().GoBack(ctx); err != nil {
			return nil, err
		}

		return &Result{
			Code: []string{
				"// Navigate back",
				"await page.goBack();",
			},
			CaptureSnapshot: captureSnapshot,
			WaitForNetwork:  false,
		}, nil
	})
}

// NavigateForward builds the browser_navigate_forward action. Unlike going
// back it requires an already active tab: forward history can only exist on
// a tab something has navigated, so a cold context is reported as an error
// instead of silently spawning a browser.
func NavigateForward(captureSnapshot bool) (Definition, error) {
	return Define(Schema{
		Name:        "browser_navigate_forward",
		Title:       "Go forward",
		Description: "Go forward to the next page in the tab's history.",
		Kind:        KindReadOnly,
		Capability:  CapabilityCore,
	}, func(ctx context.Context, sc *session.Context, args map[string]any) (*Result, error) {
		tab, err := sc.AcquireTab(ctx, session.AcquireExisting)
		if err != nil {
			return nil, err
		}
		if err := tab.Page().GoForward(ctx); err != nil {
			return nil, err
		}

		return &Result{
			Code: []string{
				"// Navigate forward",
				"await page.goForward();",
			},
			CaptureSnapshot: captureSnapshot,
			WaitForNetwork:  false,
		}, nil
	})
}
