// File: internal/tools/tabs.go
package tools

import (
	"context"
	"fmt"

	"github.com/hyhfish/playwright-mcp/internal/session"
)

// Tabs builds the browser_tabs action, a single dispatcher over tab
// management: list, new, select and close. Kind is tagged per tool, not per
// sub-action, and three of the four sub-actions mutate the tab list, so the
// whole tool carries the destructive tag even though list only reads.
func Tabs(captureSnapshot bool) (Definition, error) {
	return Define(Schema{
		Name:        "browser_tabs",
		Title:       "Manage tabs",
		Description: "List, open, select or close browser tabs.",
		Kind:        KindDestructive,
		Capability:  CapabilityTabs,
		Properties: []Property{
			{
				Name:        "action",
				Type:        "string",
				Description: "Operation to perform",
				Required:    true,
				Enum:        []string{"list", "new", "select", "close"},
			},
			{
				Name:        "index",
				Type:        "number",
				Description: "Tab index, required for select and optional for close (defaults to the current tab)",
			},
		},
	}, func(ctx context.Context, sc *session.Context, args map[string]any) (*Result, error) {
		action := argString(args, "action")

		var code []string
		switch action {
		case "list":
			code = append(code, "// List open tabs")
			tabs := sc.Tabs()
			if len(tabs) == 0 {
				code = append(code, "// No open tabs")
				break
			}
			current := sc.CurrentIndex()
			for _, tab := range tabs {
				url, err := tab.Page().URL(ctx)
				if err != nil {
					return nil, err
				}
				marker := ""
				if tab.Index() == current {
					marker = " (current)"
				}
				code = append(code, fmt.Sprintf("// %d: %s%s", tab.Index(), url, marker))
			}

		case "new":
			if _, err := sc.NewTab(ctx); err != nil {
				return nil, err
			}
			code = []string{
				"// Open a new tab",
				"await browser.newPage();",
			}

		case "select":
			index, ok := argInt(args, "index")
			if !ok {
				return nil, fmt.Errorf("%w: action %q requires argument \"index\"", ErrValidation, action)
			}
			if _, err := sc.SelectTab(ctx, index); err != nil {
				return nil, err
			}
			code = []string{
				fmt.Sprintf("// Select tab %d", index),
				fmt.Sprintf("await browser.pages()[%d].bringToFront();", index),
			}

		case "close":
			index, ok := argInt(args, "index")
			if !ok {
				index = sc.CurrentIndex()
				if index < 0 {
					return nil, session.ErrNoActiveTab
				}
			}
			if err := sc.CloseTab(ctx, index); err != nil {
				return nil, err
			}
			code = []string{
				fmt.Sprintf("// Close tab %d", index),
				"await page.close();",
			}
		}

		return &Result{
			Code:            code,
			CaptureSnapshot: captureSnapshot,
			WaitForNetwork:  false,
		}, nil
	})
}

// CloseBrowser builds the browser_close action. Closing is idempotent; a
// cold context reports success without starting anything.
func CloseBrowser(captureSnapshot bool) (Definition, error) {
	return Define(Schema{
		Name:        "browser_close",
		Title:       "Close browser",
		Description: "Close the browser and discard all tabs.",
		Kind:        KindDestructive,
		Capability:  CapabilityCore,
	}, func(ctx context.Context, sc *session.Context, args map[string]any) (*Result, error) {
		if err := sc.Close(ctx); err != nil {
			return nil, err
		}
		return &Result{
			Code: []string{
				"// Close the browser",
				"await browser.close();",
			},
			CaptureSnapshot: captureSnapshot,
			WaitForNetwork:  false,
		}, nil
	})
}
