package hypr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ActiveWindow identifies the focused client a paste is sent to.
type ActiveWindow struct {
	Address      string `json:"address"`
	Class        string `json:"class"`
	InitialClass string `json:"initialClass"`
	Title        string `json:"title"`
}

// Version is the running compositor build.
type Version struct {
	Tag    string `json:"tag"`
	Commit string `json:"commit"`
}

type monitor struct {
	Name    string `json:"name"`
	Focused bool   `json:"focused"`
}

// QueryActiveWindow returns the focused client. A client without an
// address cannot be targeted and is an error.
func QueryActiveWindow(ctx context.Context) (ActiveWindow, error) {
	window, err := queryJSON[ActiveWindow](ctx, "activewindow")
	if err != nil {
		return ActiveWindow{}, err
	}
	window.Address = strings.TrimSpace(window.Address)
	window.Class = strings.TrimSpace(window.Class)
	window.InitialClass = strings.TrimSpace(window.InitialClass)
	window.Title = strings.TrimSpace(window.Title)
	if window.Address == "" {
		return ActiveWindow{}, errors.New("hyprctl activewindow returned empty address")
	}
	return window, nil
}

// QueryFocusedMonitor returns the focused monitor name, or the first monitor
// when none reports focus.
func QueryFocusedMonitor(ctx context.Context) (string, error) {
	monitors, err := queryJSON[[]monitor](ctx, "monitors")
	if err != nil {
		return "", err
	}
	if len(monitors) == 0 {
		return "", errors.New("hyprctl monitors returned no outputs")
	}
	for _, mon := range monitors {
		if mon.Focused {
			return strings.TrimSpace(mon.Name), nil
		}
	}
	return strings.TrimSpace(monitors[0].Name), nil
}

// QueryVersion reports the compositor version.
func QueryVersion(ctx context.Context) (Version, error) {
	v, err := queryJSON[Version](ctx, "version")
	if err != nil {
		return Version{}, err
	}
	v.Tag = strings.TrimSpace(v.Tag)
	v.Commit = strings.TrimSpace(v.Commit)
	if v.Tag == "" && v.Commit == "" {
		return Version{}, errors.New("hyprctl version returned no tag or commit")
	}
	return v, nil
}

// String prefers the release tag and falls back to a short commit.
func (v Version) String() string {
	if v.Tag != "" {
		return v.Tag
	}
	if len(v.Commit) > 12 {
		return v.Commit[:12]
	}
	return v.Commit
}

// queryJSON runs `hyprctl -j <target>` and decodes the reply into T.
func queryJSON[T any](ctx context.Context, target string) (T, error) {
	var out T
	raw, err := runHyprctlOutput(ctx, "-j", target)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode hyprctl %s json: %w", target, err)
	}
	return out, nil
}
