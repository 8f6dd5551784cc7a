package output

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rbright/murmur/internal/hypr"
)

// terminalClasses are window classes that paste with Ctrl+Shift+V.
var terminalClasses = map[string]struct{}{
	"alacritty":              {},
	"com.mitchellh.ghostty":  {},
	"foot":                   {},
	"footclient":             {},
	"ghostty":                {},
	"kitty":                  {},
	"konsole":                {},
	"org.gnome.console":      {},
	"org.wezfurlong.wezterm": {},
	"gnome-terminal-server":  {},
	"xfce4-terminal":         {},
	"org.codeberg.dnkl.foot": {},
}

// defaultPaste sends the paste chord to the focused Hyprland client.
func defaultPaste(ctx context.Context, shortcut string) error {
	window, err := activeWindowWithRetry(ctx, 5, 10*time.Millisecond)
	if err != nil {
		return err
	}

	payload, err := buildPasteShortcut(shortcutForWindow(shortcut, window), window.Address)
	if err != nil {
		return err
	}
	return hypr.SendShortcut(ctx, payload)
}

// shortcutForWindow adds SHIFT to a plain "CTRL,V" when the target is a
// terminal. Any other configured chord is sent unchanged.
func shortcutForWindow(shortcut string, window hypr.ActiveWindow) string {
	mods, key, ok := strings.Cut(strings.TrimSpace(shortcut), ",")
	if !ok || !strings.EqualFold(strings.TrimSpace(mods), "CTRL") || !strings.EqualFold(strings.TrimSpace(key), "V") {
		return shortcut
	}
	if !isTerminal(window) {
		return shortcut
	}
	return "CTRL SHIFT," + strings.TrimSpace(key)
}

func isTerminal(window hypr.ActiveWindow) bool {
	for _, class := range []string{window.Class, window.InitialClass} {
		if _, ok := terminalClasses[strings.ToLower(strings.TrimSpace(class))]; ok {
			return true
		}
	}
	return false
}

func buildPasteShortcut(shortcut string, windowAddress string) (string, error) {
	shortcut = strings.TrimSpace(shortcut)
	if shortcut == "" {
		return "", errors.New("paste shortcut cannot be empty")
	}
	address := strings.TrimSpace(windowAddress)
	if address == "" {
		return "", errors.New("active window address is required")
	}
	return fmt.Sprintf("%s,address:%s", shortcut, address), nil
}

// activeWindowWithRetry covers the short gap after a key release where
// Hyprland may report no focused client.
func activeWindowWithRetry(ctx context.Context, attempts int, delay time.Duration) (hypr.ActiveWindow, error) {
	attempts = max(attempts, 1)

	var lastErr error
	for i := range attempts {
		if i > 0 {
			select {
			case <-ctx.Done():
				return hypr.ActiveWindow{}, ctx.Err()
			case <-time.After(delay):
			}
		}
		if err := ctx.Err(); err != nil {
			return hypr.ActiveWindow{}, err
		}
		window, err := hypr.QueryActiveWindow(ctx)
		if err == nil {
			return window, nil
		}
		lastErr = err
	}
	return hypr.ActiveWindow{}, fmt.Errorf("resolve active window: %w", lastErr)
}
