package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/hyhfish/playwright-mcp/internal/browser/browsertest"
	"github.com/hyhfish/playwright-mcp/internal/config"
	"github.com/hyhfish/playwright-mcp/internal/session"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Browser.Headless = true
	return cfg
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Name = ""
	_, err := New(cfg, "test", browsertest.NewEngine(), zap.NewNop())
	assert.Error(t, err)
}

func TestNewBuildsFilteredRegistry(t *testing.T) {
	cfg := testConfig()
	cfg.Tools.Capabilities = []string{"core"}
	srv, err := New(cfg, "test", browsertest.NewEngine(), zap.NewNop())
	require.NoError(t, err)

	names := make([]string, 0)
	for _, def := range srv.Registry().Definitions() {
		names = append(names, def.Schema().Name)
	}
	assert.Contains(t, names, "browser_navigate")
	assert.NotContains(t, names, "browser_tabs")
}

func TestRouterServesHealthAndMCP(t *testing.T) {
	srv, err := New(testConfig(), "test", browsertest.NewEngine(), zap.NewNop())
	require.NoError(t, err)

	ts := httptest.NewServer(srv.router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The MCP endpoint is mounted; a GET without a session is rejected by
	// the transport itself, not by the router.
	resp2, err := http.Get(ts.URL + "/mcp")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.NotEqual(t, http.StatusNotFound, resp2.StatusCode)
}

func TestRunHTTPStopsOnCancelAndClosesSession(t *testing.T) {
	engine := browsertest.NewEngine()
	cfg := testConfig()
	cfg.Server.ListenAddr = "127.0.0.1:0"
	srv, err := New(cfg, "test", engine, zap.NewNop())
	require.NoError(t, err)

	_, err = srv.SessionContext().NewTab(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancellation")
	}

	assert.Equal(t, session.StateUninitialized, srv.SessionContext().State())
	assert.True(t, engine.LastSession().Closed())
}
