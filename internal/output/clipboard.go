// Package output delivers final text to the focused application through the
// clipboard and an optional paste keystroke.
package output

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/atotto/clipboard"

	"github.com/rbright/murmur/internal/config"
	"github.com/rbright/murmur/internal/indicator"
)

// Committer applies delivery side effects (clipboard + optional paste).
type Committer struct {
	config config.Config
	logger *slog.Logger

	writeClipboard func(string) error
	paste          func(ctx context.Context, shortcut string) error
	notify         func(title, message string) error
}

// NewCommitter constructs a committer from runtime config.
func NewCommitter(cfg config.Config, logger *slog.Logger) *Committer {
	return &Committer{
		config:         cfg,
		logger:         logger,
		writeClipboard: clipboard.WriteAll,
		paste:          defaultPaste,
		notify:         indicator.DesktopAlert,
	}
}

// Deliver writes text to the clipboard and optionally pastes it. Empty text
// is a no-op. A paste failure leaves the clipboard set, raises a desktop
// notification, and is not returned.
func (c *Committer) Deliver(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if err := c.setClipboard(ctx, text); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}

	if !c.config.Paste.Enable {
		return nil
	}

	if len(c.config.PasteCmd.Argv) > 0 {
		pasteCtx, pasteCancel := context.WithTimeout(ctx, 2*time.Second)
		defer pasteCancel()
		if err := runCommandWithInput(pasteCtx, c.config.PasteCmd.Argv, ""); err != nil {
			c.pasteFailed(err)
		}
		return nil
	}

	pasteCtx, pasteCancel := context.WithTimeout(ctx, 1200*time.Millisecond)
	defer pasteCancel()
	if err := c.paste(pasteCtx, c.config.Paste.Shortcut); err != nil {
		c.pasteFailed(err)
	}
	return nil
}

// setClipboard uses clipboard_cmd when configured and the system clipboard
// library otherwise.
func (c *Committer) setClipboard(ctx context.Context, text string) error {
	if len(c.config.Clipboard.Argv) > 0 {
		clipboardCtx, clipboardCancel := context.WithTimeout(ctx, 2*time.Second)
		defer clipboardCancel()
		return runCommandWithInput(clipboardCtx, c.config.Clipboard.Argv, text)
	}
	return c.writeClipboard(text)
}

// runCommandWithInput executes argv and optionally writes input to stdin.
func runCommandWithInput(ctx context.Context, argv []string, input string) error {
	if len(argv) == 0 {
		return fmt.Errorf("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin for %s: %w", argv[0], err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start command %s: %w", argv[0], err)
	}

	if input != "" {
		if _, err := stdin.Write([]byte(input)); err != nil {
			_ = stdin.Close()
			_ = cmd.Wait()
			return fmt.Errorf("write stdin for %s: %w", argv[0], err)
		}
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait for %s: %w", argv[0], err)
	}
	return nil
}

// pasteFailed records paste errors while preserving clipboard success semantics.
func (c *Committer) pasteFailed(err error) {
	if c.logger != nil && err != nil {
		c.logger.Error("paste dispatch failed; clipboard remains set", "error", err.Error())
	}
	if c.notify == nil {
		return
	}
	if notifyErr := c.notify("murmur", "Copied to clipboard. Paste it with your usual shortcut."); notifyErr != nil && c.logger != nil {
		c.logger.Debug("paste fallback notification failed", "error", notifyErr.Error())
	}
}
