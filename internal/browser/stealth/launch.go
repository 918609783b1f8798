package stealth

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/chromedp/chromedp"
)

// LaunchFlags computes the browser command-line flags for a profile on top
// of chromedp's defaults. A false value removes a default flag.
func LaunchFlags(p Profile, headless bool, extraArgs []string) map[string]interface{} {
	flags := map[string]interface{}{
		"enable-automation":      false,
		"headless":               headless,
		"disable-blink-features": "AutomationControlled",
		"disable-extensions":     true,
		"disable-gpu":            headless,
		"lang":                   p.Locale,
		"window-size":            fmt.Sprintf("%d,%d", p.Viewport.Width, p.Viewport.Height),
	}
	if runtime.GOOS == "linux" {
		flags["no-sandbox"] = true
		flags["disable-dev-shm-usage"] = true
		flags["disable-setuid-sandbox"] = true
	}
	for _, arg := range extraArgs {
		parts := strings.SplitN(strings.TrimPrefix(arg, "--"), "=", 2)
		if parts[0] == "" {
			continue
		}
		if len(parts) == 2 {
			flags[parts[0]] = parts[1]
		} else {
			flags[parts[0]] = true
		}
	}
	return flags
}

// AllocatorOptions turns a profile into exec allocator options. execPath may
// be empty to let chromedp find the browser.
func AllocatorOptions(p Profile, headless bool, execPath string, extraArgs []string) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	for name, value := range LaunchFlags(p, headless, extraArgs) {
		opts = append(opts, chromedp.Flag(name, value))
	}
	opts = append(opts,
		chromedp.UserAgent(p.UserAgent),
		chromedp.WindowSize(int(p.Viewport.Width), int(p.Viewport.Height)),
	)
	if execPath != "" {
		opts = append(opts, chromedp.ExecPath(execPath))
	}
	return opts
}
