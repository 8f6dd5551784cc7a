// Package app turns parsed command lines into daemon runs, forwarded IPC
// commands, and local diagnostics.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/rbright/murmur/internal/audio"
	"github.com/rbright/murmur/internal/cli"
	"github.com/rbright/murmur/internal/config"
	"github.com/rbright/murmur/internal/doctor"
	"github.com/rbright/murmur/internal/history"
	"github.com/rbright/murmur/internal/ipc"
	"github.com/rbright/murmur/internal/logging"
	"github.com/rbright/murmur/internal/version"
)

const forwardTimeout = 220 * time.Millisecond

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("murmur"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("murmur"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	if terms, _, err := config.BuildDictionary(cfgLoaded.Config); err == nil {
		logger.Debug("dictionary plan", "term_count", len(terms), "terms", terms)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch {
	case parsed.Command == cli.CommandRun:
		return r.commandRun(ctx, cfgLoaded, logger)
	case parsed.Command == cli.CommandDoctor:
		report := doctor.Run(ctx, cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case parsed.Command == cli.CommandDevices:
		return r.commandDevices(ctx)
	case parsed.Command == cli.CommandHistory:
		return r.commandHistory(ctx, cfgLoaded.Config, parsed.HistoryLimit)
	case parsed.Command == cli.CommandStatus:
		return r.commandStatus(ctx)
	case parsed.Command.Forwarded():
		return r.forwardOrFail(ctx, string(parsed.Command))
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

// commandRun owns the runtime socket and serves until ctx is canceled.
func (r Runner) commandRun(ctx context.Context, loaded config.Loaded, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("acquire runtime socket failed", "error", err.Error())
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	daemon := NewDaemon(loaded, logger)
	defer func() {
		if err := daemon.Close(); err != nil {
			logger.Warn("close history failed", "error", err.Error())
		}
	}()

	if err := daemon.Run(ctx, listener); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("daemon failed", "error", err.Error())
		return 1
	}
	return 0
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}

	return 0
}

// commandHistory prints recent deliveries, newest first.
func (r Runner) commandHistory(ctx context.Context, cfg config.Config, limit int) int {
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() { _ = store.Close() }()

	entries, err := store.Recent(ctx, limit)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(entries) == 0 {
		fmt.Fprintln(r.Stdout, "no transcripts recorded")
		return 0
	}

	for _, entry := range entries {
		source := "raw"
		if entry.Corrected {
			source = entry.Provider
		}
		fmt.Fprintf(
			r.Stdout,
			"%s  %5.1fs  %-8s  %s\n",
			entry.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			float64(entry.DurationMS)/1000,
			source,
			entry.Final,
		)
	}
	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "not running")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.CommandStatus)
	if !handled {
		fmt.Fprintln(r.Stdout, "not running")
		return 0
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.State == "" {
		resp.State = "idle"
	}
	line := resp.State
	if resp.ShortcutsEnabled != nil && !*resp.ShortcutsEnabled {
		line += " (shortcuts disabled)"
	}
	fmt.Fprintln(r.Stdout, line)
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, command string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, command)
	if !handled {
		fmt.Fprintf(r.Stderr, "error: %v (start one with: murmur run)\n", ipc.ErrNotRunning)
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

// tryForward reports handled=false when no daemon owns the socket.
func tryForward(ctx context.Context, socketPath string, command string) (ipc.Response, bool, error) {
	resp, err := ipc.Forward(ctx, socketPath, command, forwardTimeout)
	if errors.Is(err, ipc.ErrNotRunning) {
		return ipc.Response{}, false, nil
	}
	return resp, true, err
}
