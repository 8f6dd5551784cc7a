package shortcut

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/murmur/internal/config"
	"github.com/rbright/murmur/internal/indicator"
	"github.com/rbright/murmur/internal/ipc"
	"github.com/rbright/murmur/internal/keys"
	"github.com/rbright/murmur/internal/pipeline"
)

const (
	defaultGuard    = 1200 * time.Millisecond
	defaultWatchdog = 2 * time.Second
)

var (
	// ErrInitializing means the guard window after registration is still open.
	ErrInitializing = errors.New("shortcuts are initializing")
	// ErrProcessing means a stopped cycle is still being processed.
	ErrProcessing = errors.New("still processing the previous dictation")
	// ErrNoSession means stop or cancel arrived with nothing active.
	ErrNoSession = errors.New("no active dictation")
)

// Action is one resolved shortcut intent.
type Action int

const (
	ActionHoldDown Action = iota + 1
	ActionHoldUp
	ActionToggle
	ActionStop
	ActionCancel
)

func (a Action) String() string {
	switch a {
	case ActionHoldDown:
		return "hold-down"
	case ActionHoldUp:
		return "hold-up"
	case ActionToggle:
		return "toggle"
	case ActionStop:
		return "stop"
	case ActionCancel:
		return "cancel"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Pipeline is the dictation cycle the manager drives.
type Pipeline interface {
	StartRecording(ctx context.Context) error
	StopAndProcess(ctx context.Context) (string, error)
	Cancel()
}

// Indicator is the manager-facing subset of indicator behavior.
type Indicator interface {
	ShowRecording(context.Context)
	ShowTranscribing(context.Context)
	ShowAlert(context.Context, indicator.Alert)
	CueStop(context.Context)
	CueComplete(context.Context)
	CueCancel(context.Context)
	Hide(context.Context)
}

// noopIndicator keeps the manager flow intact when no indicator is wired.
type noopIndicator struct{}

func (noopIndicator) ShowRecording(context.Context)              {}
func (noopIndicator) ShowTranscribing(context.Context)           {}
func (noopIndicator) ShowAlert(context.Context, indicator.Alert) {}
func (noopIndicator) CueStop(context.Context)                    {}
func (noopIndicator) CueComplete(context.Context)                {}
func (noopIndicator) CueCancel(context.Context)                  {}
func (noopIndicator) Hide(context.Context)                       {}

// Status is the tray-facing view of the manager.
type Status struct {
	State            State
	ShortcutsEnabled bool
}

// Manager binds key events and IPC commands to the Machine and the Pipeline.
type Manager struct {
	logger     *slog.Logger
	pipeline   Pipeline
	indicator  Indicator
	hook       Hook
	permission Permission
	notify     func(title, message string) error
	now        func() time.Time

	mu          sync.Mutex
	ctx         context.Context
	machine     *Machine
	hold        keys.Binding
	toggle      keys.Binding
	registered  bool
	guardUntil  time.Time
	watchdog    time.Duration
	processing  bool
	generation  uint64
	heldMods    map[uint16]bool
	hookRunning bool
	startErr    error
	recordErr   error

	wg sync.WaitGroup
}

// Option customizes a Manager.
type Option func(*Manager)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithIndicator attaches the recording indicator.
func WithIndicator(ind Indicator) Option {
	return func(m *Manager) {
		if ind != nil {
			m.indicator = ind
		}
	}
}

// WithHook sets the global key hook and the permission probe that gates it.
func WithHook(hook Hook, permission Permission) Option {
	return func(m *Manager) {
		m.hook = hook
		m.permission = permission
	}
}

// WithNotifier sets the desktop notification used for permission changes.
func WithNotifier(fn func(title, message string) error) Option {
	return func(m *Manager) { m.notify = fn }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager constructs an unregistered manager. Events are ignored until
// Register succeeds.
func NewManager(p Pipeline, opts ...Option) *Manager {
	m := &Manager{
		pipeline:  p,
		indicator: noopIndicator{},
		now:       time.Now,
		ctx:       context.Background(),
		watchdog:  defaultWatchdog,
		heldMods:  make(map[uint16]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.machine = NewMachine(m.onStart, m.onStop)
	return m
}

// Register validates and installs bindings, resets to idle, opens the guard
// window, and starts the hook when permission allows. Invalid bindings leave
// the previous registration in place.
func (m *Manager) Register(ctx context.Context, cfg config.ShortcutsConfig) error {
	hold, toggle, err := keys.ValidateBindings(cfg.Hold, cfg.Toggle)
	if err != nil {
		return fmt.Errorf("register shortcuts: %w", err)
	}

	guard := time.Duration(cfg.GuardMS) * time.Millisecond
	if guard < 0 {
		guard = defaultGuard
	}

	m.mu.Lock()
	m.ctx = ctx
	m.resetLocked()
	m.hold = hold
	m.toggle = toggle
	m.registered = true
	m.guardUntil = m.now().Add(guard)
	if cfg.WatchdogMS > 0 {
		m.watchdog = time.Duration(cfg.WatchdogMS) * time.Millisecond
	}
	m.mu.Unlock()

	m.logInfo("shortcuts registered", "hold", hold.String(), "toggle", toggle.String(), "guard_ms", guard.Milliseconds())
	m.checkPermission(ctx)
	return nil
}

// resetLocked drops any active session without delivering it.
func (m *Manager) resetLocked() {
	if m.machine.State() != StateIdle || m.processing {
		m.pipeline.Cancel()
		m.generation++
		m.processing = false
	}
	m.machine.SetIdle()
	clear(m.heldMods)
}

// Status reports the shortcut state and whether the key hook is live.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{State: m.stateLocked(), ShortcutsEnabled: m.hookRunning}
}

func (m *Manager) stateLocked() State {
	if m.processing {
		return StateProcessing
	}
	return m.machine.State()
}

// HandleKey resolves a key event to an action and dispatches it. Events in
// the guard window and unbound keys are dropped.
func (m *Manager) HandleKey(ev KeyEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	action, ok := m.resolveLocked(ev)
	m.trackModifierLocked(ev)
	if !ok || !m.registered {
		return
	}
	if err := m.dispatchLocked(action); err != nil {
		m.logDebug("key action ignored", "action", action.String(), "reason", err.Error())
	}
}

func (m *Manager) trackModifierLocked(ev KeyEvent) {
	if _, ok := keys.ModifierFor(ev.Code); !ok {
		return
	}
	if ev.Pressed {
		m.heldMods[ev.Code] = true
		return
	}
	delete(m.heldMods, ev.Code)
}

// modifiersLocked folds held modifier keys into a bit set, ignoring skip.
func (m *Manager) modifiersLocked(skip uint16) keys.Modifiers {
	var held keys.Modifiers
	for code := range m.heldMods {
		if code == skip {
			continue
		}
		if mod, ok := keys.ModifierFor(code); ok {
			held |= mod
		}
	}
	return held
}

func (m *Manager) resolveLocked(ev KeyEvent) (Action, bool) {
	if !ev.Pressed {
		if ev.Code == m.hold.Code && m.machine.State() == StateHold {
			return ActionHoldUp, true
		}
		return 0, false
	}

	held := m.modifiersLocked(0)
	escapeHeld := held
	if m.machine.State() == StateHold {
		// The held hold key does not make Escape a chord.
		escapeHeld = m.modifiersLocked(m.hold.Code)
	}
	switch {
	case keys.Escape.Matches(ev.Code, escapeHeld):
		return ActionCancel, true
	case m.hold.Matches(ev.Code, held):
		return ActionHoldDown, true
	case m.toggle.Matches(ev.Code, held):
		return ActionToggle, true
	default:
		return 0, false
	}
}

// Dispatch applies an action under the same rules as key events.
func (m *Manager) Dispatch(action Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dispatchLocked(action)
}

func (m *Manager) dispatchLocked(action Action) error {
	if !m.registered || m.now().Before(m.guardUntil) {
		return ErrInitializing
	}

	if action == ActionCancel {
		return m.cancelLocked()
	}
	if m.processing {
		return ErrProcessing
	}

	m.recordErr = nil
	switch action {
	case ActionHoldDown:
		m.machine.HandleHoldKeyDown()
	case ActionHoldUp:
		m.machine.HandleHoldKeyUp()
	case ActionToggle:
		m.machine.HandleTogglePress()
	case ActionStop:
		switch m.machine.State() {
		case StateHold:
			m.machine.HandleHoldKeyUp()
		case StateToggle:
			m.machine.HandleTogglePress()
		default:
			return ErrNoSession
		}
	default:
		return fmt.Errorf("unknown action %d", int(action))
	}
	return m.recordErr
}

// cancelLocked implements Escape: cancel the pipeline and force idle from
// any active state.
func (m *Manager) cancelLocked() error {
	if m.stateLocked() == StateIdle {
		return ErrNoSession
	}
	m.pipeline.Cancel()
	m.machine.SetIdle()
	m.processing = false
	m.generation++

	m.indicator.CueCancel(m.ctx)
	m.indicator.ShowAlert(m.ctx, indicator.AlertCanceled)
	m.logInfo("dictation canceled")
	return nil
}

// onStart runs under m.mu from the Machine. A refused start is kept in
// recordErr for the dispatching caller.
func (m *Manager) onStart() {
	err := m.pipeline.StartRecording(m.ctx)
	if err == nil {
		m.indicator.ShowRecording(m.ctx)
		return
	}

	m.machine.SetIdle()
	switch {
	case errors.Is(err, pipeline.ErrBusy):
		// A canceled cycle is still draining its current stage.
		m.recordErr = ErrProcessing
		m.logInfo("start refused; previous dictation still draining")
		return
	case errors.Is(err, pipeline.ErrNoModel):
		m.indicator.ShowAlert(m.ctx, indicator.AlertNoModel)
	default:
		m.indicator.ShowAlert(m.ctx, indicator.AlertFailed)
	}
	m.recordErr = err
	m.logError("start recording failed", err)
}

// onStop runs under m.mu from the Machine and hands processing to a goroutine.
func (m *Manager) onStop() {
	m.processing = true
	m.generation++
	gen := m.generation
	ctx := m.ctx

	m.indicator.CueStop(ctx)
	m.indicator.ShowTranscribing(ctx)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		text, err := m.pipeline.StopAndProcess(ctx)
		m.finish(ctx, gen, text, err)
	}()
}

// finish reports the outcome of cycle gen unless Escape or a re-registration
// superseded it.
func (m *Manager) finish(ctx context.Context, gen uint64, text string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		return
	}
	m.processing = false

	switch {
	case errors.Is(err, pipeline.ErrCanceled):
		m.indicator.CueCancel(ctx)
		m.indicator.ShowAlert(ctx, indicator.AlertCanceled)
	case err != nil:
		m.indicator.ShowAlert(ctx, indicator.AlertFailed)
		m.logError("dictation failed", err)
	case strings.TrimSpace(text) == "":
		m.indicator.ShowAlert(ctx, indicator.AlertNothingHeard)
	default:
		m.indicator.CueComplete(ctx)
		m.indicator.Hide(ctx)
	}
}

// Wait blocks until in-flight processing goroutines return.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Run polls the permission probe until ctx is done, starting and stopping the
// hook as permission is granted or revoked. Hook failures never end Run.
func (m *Manager) Run(ctx context.Context) error {
	m.mu.Lock()
	interval := m.watchdog
	m.mu.Unlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer m.stopHook()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.checkPermission(ctx)
		}
	}
}

// checkPermission reconciles the hook with the current permission.
func (m *Manager) checkPermission(ctx context.Context) {
	if m.hook == nil || m.permission == nil {
		return
	}
	granted := m.permission.Granted()

	m.mu.Lock()
	running := m.hookRunning
	registered := m.registered
	m.mu.Unlock()

	switch {
	case granted && !running && registered:
		m.startHook(ctx)
	case !granted && running:
		m.stopHook()
		m.logWarn("input permission revoked; global shortcuts disabled")
		m.notifyUser("murmur", "Global shortcuts disabled: input device access was revoked")
	}
}

func (m *Manager) startHook(ctx context.Context) {
	err := m.hook.Start(ctx, m.HandleKey)

	m.mu.Lock()
	previous := m.startErr
	m.startErr = err
	m.hookRunning = err == nil
	m.mu.Unlock()

	if err != nil {
		if previous == nil || previous.Error() != err.Error() {
			m.logError("key hook failed to start; global shortcuts disabled", err)
		}
		return
	}
	m.logInfo("global shortcuts enabled")
}

func (m *Manager) stopHook() {
	m.mu.Lock()
	running := m.hookRunning
	m.hookRunning = false
	m.mu.Unlock()
	if !running || m.hook == nil {
		return
	}
	if err := m.hook.Stop(); err != nil {
		m.logError("key hook stop failed", err)
	}
}

func (m *Manager) notifyUser(title, message string) {
	if m.notify == nil {
		return
	}
	if err := m.notify(title, message); err != nil {
		m.logDebug("notification failed", "error", err.Error())
	}
}

// Handle serves IPC commands.
func (m *Manager) Handle(_ context.Context, req ipc.Request) ipc.Response {
	var action Action
	switch req.Command {
	case ipc.CommandStatus:
		status := m.Status()
		message := "shortcuts enabled"
		if !status.ShortcutsEnabled {
			message = "shortcuts disabled"
		}
		enabled := status.ShortcutsEnabled
		return ipc.Response{OK: true, State: status.State.String(), ShortcutsEnabled: &enabled, Message: message}
	case ipc.CommandToggle:
		action = ActionToggle
	case ipc.CommandHoldDown:
		action = ActionHoldDown
	case ipc.CommandHoldUp:
		action = ActionHoldUp
	case ipc.CommandStop:
		action = ActionStop
	case ipc.CommandCancel:
		action = ActionCancel
	default:
		return ipc.Response{OK: false, State: m.Status().State.String(), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}

	err := m.Dispatch(action)
	state := m.Status().State.String()
	if err != nil {
		return ipc.Response{OK: false, State: state, Error: err.Error()}
	}
	return ipc.Response{OK: true, State: state, Message: action.String() + " accepted"}
}

func (m *Manager) logInfo(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Info(msg, args...)
	}
}

func (m *Manager) logWarn(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Warn(msg, args...)
	}
}

func (m *Manager) logDebug(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Debug(msg, args...)
	}
}

func (m *Manager) logError(msg string, err error) {
	if m.logger != nil {
		m.logger.Error(msg, "error", err.Error())
	}
}
