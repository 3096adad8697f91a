// internal/browser/options.go
package browser

import (
	"strings"

	"github.com/chromedp/chromedp"
)

// DefaultAllocatorOptions translates LaunchOptions into chromedp allocator
// options, starting from chromedp's defaults.
func DefaultAllocatorOptions(opts LaunchOptions) []chromedp.ExecAllocatorOption {
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)

	allocOpts = append(allocOpts,
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("disable-gpu", true))
	}
	if opts.NoSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}
	if opts.UserDataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(opts.UserDataDir))
	}
	if opts.ExecutablePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecutablePath))
	}

	// User-supplied args come last so they win over the defaults.
	for _, arg := range opts.Args {
		name, value := splitArg(arg)
		if name == "" {
			continue
		}
		allocOpts = append(allocOpts, chromedp.Flag(name, value))
	}

	return allocOpts
}

// splitArg parses a raw Chromium argument ("--name=value" or "--name") into a
// flag name and value. Valueless flags become boolean true.
func splitArg(arg string) (string, any) {
	arg = strings.TrimLeft(arg, "-")
	if arg == "" {
		return "", nil
	}
	if name, value, ok := strings.Cut(arg, "="); ok {
		return name, value
	}
	return arg, true
}
