package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rbright/murmur/internal/audio"
	"github.com/rbright/murmur/internal/config"
	"github.com/rbright/murmur/internal/history"
	"github.com/rbright/murmur/internal/indicator"
	"github.com/rbright/murmur/internal/ipc"
	"github.com/rbright/murmur/internal/output"
	"github.com/rbright/murmur/internal/pipeline"
	"github.com/rbright/murmur/internal/shortcut"
)

const configPollInterval = 2 * time.Second

// Daemon is the long-running composition behind "murmur run": one pipeline,
// one shortcut manager, the IPC server, and the config watcher.
type Daemon struct {
	logger    *slog.Logger
	store     *config.Store
	indicator *indicator.HyprNotify
	pipeline  *pipeline.Pipeline
	manager   *shortcut.Manager
	history   *history.Store
	pollEvery time.Duration
}

// daemonDeps holds the OS-facing collaborators. Tests replace them.
type daemonDeps struct {
	capture    pipeline.Capture
	hook       shortcut.Hook
	permission shortcut.Permission
	deliver    pipeline.Deliverer
	pollEvery  time.Duration
}

// NewDaemon wires the pipeline and the shortcut manager around a config store.
func NewDaemon(loaded config.Loaded, logger *slog.Logger) *Daemon {
	return newDaemon(loaded, logger, daemonDeps{})
}

func newDaemon(loaded config.Loaded, logger *slog.Logger, deps daemonDeps) *Daemon {
	store := config.NewStore(loaded, logger)
	cfg := store.Snapshot()

	d := &Daemon{
		logger:    logger,
		store:     store,
		indicator: indicator.NewHyprNotify(cfg.Indicator, logger),
		pollEvery: deps.pollEvery,
	}
	if d.pollEvery <= 0 {
		d.pollEvery = configPollInterval
	}

	if deps.capture == nil {
		deps.capture = audio.NewRecorder(logger)
	}
	if deps.hook == nil {
		deps.hook = shortcut.NewEvdevHook(shortcut.DefaultDeviceGlob, logger)
	}
	if deps.permission == nil {
		deps.permission = shortcut.DevicePermission{Glob: shortcut.DefaultDeviceGlob}
	}
	if deps.deliver == nil {
		deps.deliver = pipeline.DeliverFunc(d.deliver)
	}

	pipelineOpts := []pipeline.Option{pipeline.WithLogger(logger)}
	if cfg.History.Enable {
		h, err := history.Open(cfg.History.Path)
		if err != nil {
			logger.Warn("history unavailable; transcripts will not be recorded", "error", err.Error())
		} else {
			d.history = h
			pipelineOpts = append(pipelineOpts, pipeline.WithHistory(h))
		}
	}

	d.pipeline = pipeline.New(store, deps.capture, deps.deliver, pipelineOpts...)
	d.manager = shortcut.NewManager(d.pipeline,
		shortcut.WithLogger(logger),
		shortcut.WithIndicator(d.indicator),
		shortcut.WithHook(deps.hook, deps.permission),
		shortcut.WithNotifier(indicator.DesktopAlert),
	)
	return d
}

// deliver builds a committer from the current snapshot so reloads apply to
// the next delivery.
func (d *Daemon) deliver(ctx context.Context, text string) error {
	return output.NewCommitter(d.store.Snapshot(), d.logger).Deliver(ctx, text)
}

// Run registers shortcuts and serves until ctx is done or a member fails.
// In-flight processing is drained before Run returns.
func (d *Daemon) Run(ctx context.Context, listener net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	if err := d.manager.Register(gctx, d.store.Snapshot().Shortcuts); err != nil {
		return err
	}

	g.Go(func() error {
		if err := ipc.Serve(gctx, listener, ipc.HandlerFunc(d.Handle)); err != nil {
			return fmt.Errorf("ipc server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return d.manager.Run(gctx)
	})
	g.Go(func() error {
		return d.store.Watch(gctx, d.pollEvery, func(_, next config.Config) {
			d.apply(gctx, next)
		})
	})

	d.logger.Info("daemon started", "config", d.store.Loaded().Path)
	err := g.Wait()
	d.pipeline.Cancel()
	d.manager.Wait()
	d.logger.Info("daemon stopped")
	return err
}

// Close releases the history database.
func (d *Daemon) Close() error {
	if d.history == nil {
		return nil
	}
	return d.history.Close()
}

// Handle serves IPC requests. "reload" is handled here; everything else goes
// to the shortcut manager.
func (d *Daemon) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	if req.Command == ipc.CommandReload {
		return d.reload(ctx)
	}
	return d.manager.Handle(ctx, req)
}

func (d *Daemon) reload(ctx context.Context) ipc.Response {
	state := d.manager.Status().State.String()
	changed, err := d.store.Reload()
	if err != nil {
		d.logger.Warn("config reload failed; keeping previous config", "error", err.Error())
		return ipc.Response{OK: false, State: state, Error: err.Error()}
	}
	if !changed {
		return ipc.Response{OK: true, State: state, Message: "config unchanged"}
	}
	if err := d.apply(ctx, d.store.Snapshot()); err != nil {
		return ipc.Response{OK: false, State: d.manager.Status().State.String(), Error: err.Error()}
	}
	return ipc.Response{OK: true, State: d.manager.Status().State.String(), Message: "config reloaded"}
}

// apply pushes a new snapshot into the long-lived collaborators.
// Re-registration resets the shortcut state to idle.
func (d *Daemon) apply(ctx context.Context, cfg config.Config) error {
	d.indicator.SetConfig(cfg.Indicator)
	if err := d.manager.Register(ctx, cfg.Shortcuts); err != nil {
		d.logger.Error("shortcut registration failed; keeping previous bindings", "error", err.Error())
		return err
	}
	d.logger.Info("shortcuts registered", "hold", cfg.Shortcuts.Hold, "toggle", cfg.Shortcuts.Toggle)
	return nil
}
