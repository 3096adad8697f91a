// internal/browser/options_test.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
)

// hasOption checks for the presence of an option by applying the options to
// an allocator (no browser is launched) and inspecting its string
// representation. Pragmatic, but it keeps the test free of a browser
// dependency.
func hasOption(opts []chromedp.ExecAllocatorOption, substring string) bool {
	ctx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	defer cancel()
	return strings.Contains(fmt.Sprintf("%#v", chromedp.FromContext(ctx).Allocator), substring)
}

func TestDefaultAllocatorOptions(t *testing.T) {
	t.Run("user data dir", func(t *testing.T) {
		opts := DefaultAllocatorOptions(LaunchOptions{UserDataDir: "/tmp/profile-a"})
		assert.True(t, hasOption(opts, "user-data-dir"))
	})

	t.Run("executable path", func(t *testing.T) {
		opts := DefaultAllocatorOptions(LaunchOptions{ExecutablePath: "/opt/chromium/chrome"})
		assert.NotEmpty(t, opts)
	})

	t.Run("custom args are parsed", func(t *testing.T) {
		opts := DefaultAllocatorOptions(LaunchOptions{
			Args: []string{"--proxy-server=http://127.0.0.1:8080", "--disable-extensions"},
		})
		assert.True(t, hasOption(opts, "proxy-server"))
		assert.True(t, hasOption(opts, "disable-extensions"))
	})

	t.Run("headless adds gpu flag", func(t *testing.T) {
		opts := DefaultAllocatorOptions(LaunchOptions{Headless: true})
		assert.True(t, hasOption(opts, "disable-gpu"))
	})
}

func TestSplitArg(t *testing.T) {
	tests := []struct {
		arg       string
		wantName  string
		wantValue any
	}{
		{"--proxy-server=http://localhost:1080", "proxy-server", "http://localhost:1080"},
		{"--disable-extensions", "disable-extensions", true},
		{"no-dashes=ok", "no-dashes", "ok"},
		{"--", "", nil},
		{"", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			name, value := splitArg(tt.arg)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantValue, value)
		})
	}
}
