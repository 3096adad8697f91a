// File: internal/tools/tabs_test.go
package tools_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyhfish/playwright-mcp/internal/session"
	"github.com/hyhfish/playwright-mcp/internal/tools"
)

func TestTabsListOnColdContext(t *testing.T) {
	sc, engine := newTestContext(t)
	def, err := tools.Tabs(false)
	require.NoError(t, err)

	res, err := def.Call(context.Background(), sc, map[string]any{"action": "list"})
	require.NoError(t, err)
	assert.Equal(t, []string{"// List open tabs", "// No open tabs"}, res.Code)
	assert.Empty(t, engine.Sessions())
}

func TestTabsNewSelectClose(t *testing.T) {
	sc, _ := newTestContext(t)
	tabs, err := tools.Tabs(false)
	require.NoError(t, err)
	nav, err := tools.Navigate(false)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = nav.Call(ctx, sc, map[string]any{"url": "https://a.test/"})
	require.NoError(t, err)

	res, err := tabs.Call(ctx, sc, map[string]any{"action": "new"})
	require.NoError(t, err)
	assert.Equal(t, []string{"// Open a new tab", "await browser.newPage();"}, res.Code)
	require.Len(t, sc.Tabs(), 2)
	assert.Equal(t, 1, sc.CurrentIndex())

	res, err = tabs.Call(ctx, sc, map[string]any{"action": "list"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"// List open tabs",
		"// 0: https://a.test/",
		"// 1: about:blank (current)",
	}, res.Code)

	res, err = tabs.Call(ctx, sc, map[string]any{"action": "select", "index": float64(0)})
	require.NoError(t, err)
	assert.Equal(t, 0, sc.CurrentIndex())
	assert.Contains(t, res.Code, "// Select tab 0")

	// Closing without an index closes the current tab.
	_, err = tabs.Call(ctx, sc, map[string]any{"action": "close"})
	require.NoError(t, err)
	require.Len(t, sc.Tabs(), 1)
	assert.Equal(t, session.StateActive, sc.State())

	// Closing the last tab tears the session down.
	_, err = tabs.Call(ctx, sc, map[string]any{"action": "close", "index": float64(0)})
	require.NoError(t, err)
	assert.Equal(t, session.StateUninitialized, sc.State())
}

func TestTabsSelectRequiresIndex(t *testing.T) {
	sc, _ := newTestContext(t)
	def, err := tools.Tabs(false)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = sc.NewTab(ctx)
	require.NoError(t, err)

	_, err = def.Call(ctx, sc, map[string]any{"action": "select"})
	assert.ErrorIs(t, err, tools.ErrValidation)
}

func TestTabsRejectsUnknownAction(t *testing.T) {
	sc, engine := newTestContext(t)
	def, err := tools.Tabs(false)
	require.NoError(t, err)

	_, err = def.Call(context.Background(), sc, map[string]any{"action": "detach"})
	assert.ErrorIs(t, err, tools.ErrValidation)
	assert.Empty(t, engine.Sessions())
}

func TestCloseBrowser(t *testing.T) {
	sc, engine := newTestContext(t)
	def, err := tools.CloseBrowser(false)
	require.NoError(t, err)
	nav, err := tools.Navigate(false)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = nav.Call(ctx, sc, map[string]any{"url": "https://a.test/"})
	require.NoError(t, err)

	res, err := def.Call(ctx, sc, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"// Close the browser", "await browser.close();"}, res.Code)
	assert.Equal(t, session.StateUninitialized, sc.State())
	assert.True(t, engine.LastSession().Closed())

	// Closing again is a harmless no-op.
	_, err = def.Call(ctx, sc, nil)
	assert.NoError(t, err)
}
