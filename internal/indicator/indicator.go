// Package indicator handles visual state notifications and audio cue playback.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/murmur/internal/config"
	"github.com/rbright/murmur/internal/hypr"
)

// HyprNotify is the concrete indicator used by the daemon.
// It routes notifications via Hyprland or desktop DBus based on config backend.
type HyprNotify struct {
	cfg      config.IndicatorConfig
	logger   *slog.Logger
	messages messages

	mu                    sync.Mutex
	desktopNotificationID uint32
	soundMu               sync.Mutex
}

// NewHyprNotify creates an indicator controller from config.
func NewHyprNotify(cfg config.IndicatorConfig, logger *slog.Logger) *HyprNotify {
	return &HyprNotify{
		cfg:      cfg,
		logger:   logger,
		messages: indicatorMessagesFromEnv(),
	}
}

// SetConfig swaps the indicator settings used by later calls.
func (h *HyprNotify) SetConfig(cfg config.IndicatorConfig) {
	h.mu.Lock()
	h.cfg = cfg
	h.mu.Unlock()
}

func (h *HyprNotify) config() config.IndicatorConfig {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cfg
}

// ShowRecording signals recording start and emits the start cue.
func (h *HyprNotify) ShowRecording(ctx context.Context) {
	h.playCue(cueStart)
	if !h.config().Enable {
		return
	}
	h.run(ctx, func(ctx context.Context) error {
		return h.notify(ctx, 1, 300000, "rgb(89b4fa)", h.messages.recording)
	})
}

// ShowTranscribing signals the post-capture processing state.
func (h *HyprNotify) ShowTranscribing(ctx context.Context) {
	if !h.config().Enable {
		return
	}
	h.run(ctx, func(ctx context.Context) error {
		return h.notify(ctx, 1, 300000, "rgb(cba6f7)", h.messages.processing)
	})
}

// ShowAlert displays a short-lived outcome message. A missing model also
// raises a persistent desktop notification with a configuration hint.
func (h *HyprNotify) ShowAlert(ctx context.Context, alert Alert) {
	if alert == AlertNoModel {
		if err := desktopAlert(h.messages.noModel, h.messages.noModelHint); err != nil {
			h.log("desktop alert failed", err)
		}
	}
	if !h.config().Enable {
		return
	}

	timeout := h.config().ErrorTimeoutMS
	if timeout <= 0 {
		timeout = 1200
	}
	icon, color := 3, "rgb(f38ba8)"
	switch alert {
	case AlertCanceled:
		icon, color = 0, "rgb(f9e2af)"
	case AlertNothingHeard:
		icon, color = 0, "rgb(fab387)"
	}
	text := h.messages.alertText(alert)
	h.run(ctx, func(ctx context.Context) error {
		return h.notify(ctx, icon, timeout, color, text)
	})
}

// CueStop emits the stop cue.
func (h *HyprNotify) CueStop(context.Context) {
	h.playCue(cueStop)
}

// CueComplete emits the successful-delivery cue.
func (h *HyprNotify) CueComplete(context.Context) {
	h.playCue(cueComplete)
}

// CueCancel emits the cancel cue.
func (h *HyprNotify) CueCancel(context.Context) {
	h.playCue(cueCancel)
}

// Hide dismisses the active indicator surface.
func (h *HyprNotify) Hide(ctx context.Context) {
	if !h.config().Enable {
		return
	}
	h.run(ctx, h.dismiss)
}

// notify dispatches indicator output through the configured backend.
func (h *HyprNotify) notify(ctx context.Context, icon int, timeoutMS int, color string, text string) error {
	if strings.EqualFold(strings.TrimSpace(h.config().Backend), "desktop") {
		return h.notifyDesktop(ctx, timeoutMS, text)
	}
	return hypr.Notify(ctx, icon, timeoutMS, color, text)
}

// dismiss removes indicator output from the configured backend.
func (h *HyprNotify) dismiss(ctx context.Context) error {
	if strings.EqualFold(strings.TrimSpace(h.config().Backend), "desktop") {
		return h.dismissDesktop(ctx)
	}
	return hypr.DismissNotify(ctx)
}

// notifyDesktop sends a replaceable desktop notification and stores its ID.
func (h *HyprNotify) notifyDesktop(ctx context.Context, timeoutMS int, text string) error {
	h.mu.Lock()
	replaceID := h.desktopNotificationID
	h.mu.Unlock()

	appName := strings.TrimSpace(h.config().DesktopAppName)
	if appName == "" {
		appName = "murmur-indicator"
	}

	id, err := desktopNotify(ctx, appName, replaceID, text, timeoutMS)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.desktopNotificationID = id
	h.mu.Unlock()
	return nil
}

// dismissDesktop closes the current desktop notification ID when present.
func (h *HyprNotify) dismissDesktop(ctx context.Context) error {
	h.mu.Lock()
	id := h.desktopNotificationID
	h.desktopNotificationID = 0
	h.mu.Unlock()

	if id == 0 {
		return nil
	}
	return desktopDismiss(ctx, id)
}

// run executes an indicator operation with a bounded timeout.
func (h *HyprNotify) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, 400*time.Millisecond)
	defer cancel()
	if err := fn(runCtx); err != nil {
		h.log("indicator dispatch failed", err)
	}
}

// playCue serializes cue playback and emits audio asynchronously.
func (h *HyprNotify) playCue(kind cueKind) {
	cfg := h.config()
	if !cfg.SoundEnable {
		return
	}
	go func() {
		h.soundMu.Lock()
		defer h.soundMu.Unlock()
		if err := emitCue(context.Background(), kind, cfg); err != nil {
			h.log("indicator audio cue failed", err)
		}
	}()
}

// log emits debug-only indicator failures to the runtime logger.
func (h *HyprNotify) log(message string, err error) {
	if h.logger == nil || err == nil {
		return
	}
	h.logger.Debug(message, "error", err.Error())
}
