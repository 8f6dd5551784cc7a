// Package doctor runs readiness diagnostics for config, tools, speech model,
// audio, key access, and the correction provider.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/atotto/clipboard"

	"github.com/rbright/murmur/internal/audio"
	"github.com/rbright/murmur/internal/config"
	"github.com/rbright/murmur/internal/correction"
	"github.com/rbright/murmur/internal/hypr"
	"github.com/rbright/murmur/internal/shortcut"
	"github.com/rbright/murmur/internal/transcribe"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, loaded config.Loaded) Report {
	cfg := loaded.Config
	checks := []Check{checkConfig(loaded)}

	checks = append(checks, checkEnv("XDG_SESSION_TYPE", func(v string) bool {
		return strings.EqualFold(strings.TrimSpace(v), "wayland")
	}, "session type is wayland", "expected XDG_SESSION_TYPE=wayland"))

	checks = append(checks, checkBinary(cfg.Speech.WhisperBin, "speech engine"))
	checks = append(checks, checkModel(cfg.Speech.ModelPath))
	checks = append(checks, checkClipboard(cfg.Clipboard))

	if cfg.Paste.Enable {
		if len(cfg.PasteCmd.Argv) > 0 {
			checks = append(checks, checkCommand(cfg.PasteCmd.Argv, "paste_cmd"))
		} else {
			checks = append(checks, checkBinary("hyprctl", "default paste path requires hyprctl"))
		}
	}
	if needsHyprland(cfg) {
		checks = append(checks, checkHyprland(ctx))
	}

	checks = append(checks, checkAudioSelection(ctx, cfg))
	checks = append(checks, checkInputPermission(shortcut.DevicePermission{}))
	checks = append(checks, checkCorrection(ctx, cfg.Correction))

	return Report{Checks: checks}
}

func checkConfig(loaded config.Loaded) Check {
	if !loaded.Exists {
		return Check{Name: "config", Pass: true, Message: fmt.Sprintf("%q not found; using defaults", loaded.Path)}
	}
	if _, err := config.Validate(loaded.Config); err != nil {
		return Check{Name: "config", Pass: false, Message: err.Error()}
	}
	return Check{Name: "config", Pass: true, Message: fmt.Sprintf("loaded %q", loaded.Path)}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

func checkModel(raw string) Check {
	path, err := transcribe.ResolveModelPath(raw)
	if err != nil {
		return Check{Name: "speech.model", Pass: false, Message: err.Error()}
	}
	return Check{Name: "speech.model", Pass: true, Message: fmt.Sprintf("using %s", path)}
}

func checkClipboard(cmd config.CommandConfig) Check {
	if len(cmd.Argv) > 0 {
		return checkCommand(cmd.Argv, "clipboard_cmd")
	}
	if clipboard.Unsupported {
		return Check{Name: "clipboard", Pass: false, Message: "no clipboard utility found (install wl-clipboard or set clipboard_cmd)"}
	}
	return Check{Name: "clipboard", Pass: true, Message: "system clipboard available"}
}

func needsHyprland(cfg config.Config) bool {
	hyprIndicator := cfg.Indicator.Enable && strings.EqualFold(strings.TrimSpace(cfg.Indicator.Backend), "hypr")
	hyprPaste := cfg.Paste.Enable && len(cfg.PasteCmd.Argv) == 0
	return hyprIndicator || hyprPaste
}

// checkHyprland confirms hyprctl can reach the running compositor.
func checkHyprland(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	v, err := hypr.QueryVersion(ctx)
	if err != nil {
		return Check{Name: "hyprland", Pass: false, Message: err.Error()}
	}
	monitor, err := hypr.QueryFocusedMonitor(ctx)
	if err != nil {
		return Check{Name: "hyprland", Pass: false, Message: err.Error()}
	}
	return Check{Name: "hyprland", Pass: true, Message: fmt.Sprintf("Hyprland %s, focused monitor %s", v, monitor)}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(ctx context.Context, cfg config.Config) Check {
	selection, err := audio.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

func checkInputPermission(permission shortcut.Permission) Check {
	if permission.Granted() {
		return Check{Name: "input", Pass: true, Message: "input devices readable; global shortcuts available"}
	}
	return Check{
		Name:    "input",
		Pass:    false,
		Message: "cannot read /dev/input/event*; add your user to the input group or bind murmur hold-down/hold-up/toggle in your compositor",
	}
}

// checkCorrection builds the configured provider without sending a request.
func checkCorrection(ctx context.Context, settings config.CorrectionConfig) Check {
	if !settings.Enable || settings.Provider == "" || settings.Provider == "none" {
		return Check{Name: "correction", Pass: true, Message: "disabled; raw transcripts are delivered"}
	}
	provider, err := correction.New(ctx, settings, correction.BasePrompt)
	if err != nil {
		return Check{Name: "correction", Pass: false, Message: err.Error()}
	}
	return Check{Name: "correction", Pass: true, Message: fmt.Sprintf("provider %s with model %s", provider.Name(), settings.Model)}
}
