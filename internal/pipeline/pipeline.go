// Package pipeline runs one record, transcribe, correct, deliver cycle at a time.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/murmur/internal/audio"
	"github.com/rbright/murmur/internal/config"
	"github.com/rbright/murmur/internal/correction"
	"github.com/rbright/murmur/internal/fsm"
	"github.com/rbright/murmur/internal/history"
	"github.com/rbright/murmur/internal/transcribe"
	"github.com/rbright/murmur/internal/transcript"
)

var (
	// ErrNoModel means no speech model file exists at the configured path.
	ErrNoModel = errors.New("no speech model configured")
	// ErrCanceled means the cycle was canceled and nothing was delivered.
	ErrCanceled = errors.New("dictation canceled")
	// ErrBusy means a cycle is already active.
	ErrBusy = errors.New("dictation already in progress")
	// ErrNotRecording means StopAndProcess was called with no active recording.
	ErrNotRecording = errors.New("not recording")
)

// Capture is the microphone side of a cycle.
type Capture interface {
	Start(ctx context.Context, opts audio.Options) error
	Stop(ctx context.Context) (audio.Recording, error)
	Cancel()
}

// Transcriber turns a recording into raw text.
type Transcriber interface {
	Transcribe(ctx context.Context, req transcribe.Request) (string, error)
}

// Deliverer hands final text to the focused application.
type Deliverer interface {
	Deliver(ctx context.Context, text string) error
}

// DeliverFunc adapts a function to the Deliverer interface.
type DeliverFunc func(context.Context, string) error

func (f DeliverFunc) Deliver(ctx context.Context, text string) error {
	return f(ctx, text)
}

// History records delivered cycles.
type History interface {
	Append(ctx context.Context, entry history.Entry) (history.Entry, error)
}

// ConfigSource yields the configuration snapshot read at cycle start.
type ConfigSource interface {
	Snapshot() config.Config
}

// TranscriberFactory builds the engine for one cycle's configuration.
type TranscriberFactory func(cfg config.Config) Transcriber

// ProviderFactory builds the correction provider for one cycle.
type ProviderFactory func(ctx context.Context, settings config.CorrectionConfig, systemPrompt string) (correction.Provider, error)

// Result summarizes one finished cycle for logs and callers.
type Result struct {
	Raw         string
	Final       string
	Provider    string
	Corrected   bool
	Canceled    bool
	Err         error
	AudioDevice string
	Recorded    time.Duration
	StartedAt   time.Time
	FinishedAt  time.Time
}

// cycle is the per-cycle state shared between StopAndProcess and Cancel.
type cycle struct {
	cfg       config.Config
	modelPath string
	startedAt time.Time
	canceled  bool
}

// Pipeline owns the single active dictation cycle.
type Pipeline struct {
	logger         *slog.Logger
	config         ConfigSource
	capture        Capture
	deliver        Deliverer
	history        History
	newTranscriber TranscriberFactory
	newProvider    ProviderFactory
	resolveModel   func(string) (string, error)
	now            func() time.Time

	mu    sync.Mutex
	state fsm.State
	cycle *cycle
	// canceledIdle makes a stop that follows Cancel report ErrCanceled
	// instead of ErrNotRecording. StartRecording clears it.
	canceledIdle bool
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithHistory records delivered cycles in h.
func WithHistory(h History) Option {
	return func(p *Pipeline) { p.history = h }
}

// WithTranscriberFactory overrides the whisper CLI transcriber.
func WithTranscriberFactory(f TranscriberFactory) Option {
	return func(p *Pipeline) { p.newTranscriber = f }
}

// WithProviderFactory overrides correction.New.
func WithProviderFactory(f ProviderFactory) Option {
	return func(p *Pipeline) { p.newProvider = f }
}

// WithModelResolver overrides transcribe.ResolveModelPath.
func WithModelResolver(f func(string) (string, error)) Option {
	return func(p *Pipeline) { p.resolveModel = f }
}

// New constructs a Pipeline. capture and deliver are required.
func New(source ConfigSource, capture Capture, deliver Deliverer, opts ...Option) *Pipeline {
	p := &Pipeline{
		config:       source,
		capture:      capture,
		deliver:      deliver,
		resolveModel: transcribe.ResolveModelPath,
		now:          time.Now,
		state:        fsm.StateIdle,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.newTranscriber == nil {
		p.newTranscriber = p.defaultTranscriber
	}
	if p.newProvider == nil {
		p.newProvider = p.defaultProvider
	}
	return p
}

func (p *Pipeline) defaultTranscriber(cfg config.Config) Transcriber {
	return transcribe.NewWhisper(cfg.Speech.WhisperBin,
		transcribe.WithTimeout(time.Duration(cfg.Speech.TimeoutMS)*time.Millisecond),
		transcribe.WithThreads(cfg.Speech.Threads),
		transcribe.WithLogger(p.logger),
	)
}

func (p *Pipeline) defaultProvider(ctx context.Context, settings config.CorrectionConfig, systemPrompt string) (correction.Provider, error) {
	return correction.New(ctx, settings, systemPrompt, correction.WithLogger(p.logger))
}

// State returns the cycle state snapshot.
func (p *Pipeline) State() fsm.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// StartRecording snapshots configuration, checks the speech model, and starts
// capture. ErrNoModel is returned before the microphone is touched.
func (p *Pipeline) StartRecording(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if fsm.Active(p.state) {
		return ErrBusy
	}
	p.canceledIdle = false

	cfg := p.config.Snapshot()
	modelPath, err := p.resolveModel(cfg.Speech.ModelPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoModel, err)
	}

	if p.state == fsm.StateError {
		p.state = fsm.StateIdle
	}
	next, err := fsm.Transition(p.state, fsm.EventStart)
	if err != nil {
		return err
	}

	if err := p.capture.Start(ctx, audio.Options{
		Input:      cfg.Audio.Input,
		Fallback:   cfg.Audio.Fallback,
		SampleRate: cfg.Audio.SampleRate,
	}); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}

	p.state = next
	p.cycle = &cycle{cfg: cfg, modelPath: modelPath, startedAt: p.now()}
	return nil
}

// StopAndProcess stops capture, transcribes, optionally corrects, and
// delivers. Empty transcripts return "" without correction or delivery.
// Correction failures fall back to the raw text.
func (p *Pipeline) StopAndProcess(ctx context.Context) (string, error) {
	p.mu.Lock()
	if p.state != fsm.StateRecording || p.cycle == nil {
		canceled := p.canceledIdle
		p.canceledIdle = false
		p.mu.Unlock()
		if canceled {
			return "", ErrCanceled
		}
		return "", ErrNotRecording
	}
	c := p.cycle
	p.state, _ = fsm.Transition(p.state, fsm.EventStop)
	p.mu.Unlock()

	result := Result{StartedAt: c.startedAt}
	defer func() {
		result.FinishedAt = p.now()
		p.logResult(result)
	}()

	fail := func(err error) (string, error) {
		p.finish(c, fsm.EventFail)
		result.Err = err
		return "", err
	}
	canceled := func() (string, error) {
		p.finish(c, fsm.EventCancel)
		result.Canceled = true
		result.Err = ErrCanceled
		return "", ErrCanceled
	}

	rec, err := p.capture.Stop(ctx)
	if err != nil {
		return fail(fmt.Errorf("stop capture: %w", err))
	}
	result.AudioDevice = describeDevice(rec.Device)
	result.Recorded = rec.Duration()
	p.writeDebugAudio(c.cfg, rec)

	if p.isCanceled(c) {
		return canceled()
	}

	terms, _, _ := config.BuildDictionary(c.cfg)
	raw, err := p.newTranscriber(c.cfg).Transcribe(ctx, transcribe.Request{
		Samples:    rec.Samples,
		SampleRate: rec.SampleRate,
		ModelPath:  c.modelPath,
		Language:   c.cfg.Speech.Language,
		Terms:      terms,
	})
	if err != nil {
		return fail(fmt.Errorf("transcribe: %w", err))
	}
	raw = transcript.Normalize(raw)
	result.Raw = raw

	if p.isCanceled(c) {
		return canceled()
	}
	if raw == "" {
		p.finish(c, fsm.EventTranscribed)
		return "", nil
	}

	final, providerName, done := raw, "none", fsm.EventTranscribed
	if c.cfg.Correction.Enable {
		p.advance(c, fsm.EventCorrect)
		final, providerName = p.correct(ctx, c.cfg, terms, raw)
		done = fsm.EventCorrected
		if p.isCanceled(c) {
			return canceled()
		}
	}
	result.Final = final
	result.Provider = providerName
	result.Corrected = final != raw

	deliverErr := p.deliver.Deliver(ctx, transcript.ForDelivery(final, transcript.Options{
		TrailingSpace: c.cfg.Transcript.TrailingSpace,
	}))
	p.finish(c, done)
	if deliverErr != nil {
		result.Err = fmt.Errorf("deliver: %w", deliverErr)
		return final, result.Err
	}

	p.record(ctx, c, result)
	return final, nil
}

// Cancel aborts the active cycle. During recording the capture is discarded
// immediately. During transcription or correction the stage runs to
// completion and its result is dropped at the next boundary.
func (p *Pipeline) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case fsm.StateRecording:
		p.capture.Cancel()
		p.state, _ = fsm.Transition(p.state, fsm.EventCancel)
		p.cycle = nil
		p.canceledIdle = true
		p.logInfo("recording canceled")
	case fsm.StateTranscribing, fsm.StateCorrecting:
		if p.cycle != nil && !p.cycle.canceled {
			p.cycle.canceled = true
			p.logInfo("cancel requested", "state", string(p.state))
		}
	default:
		p.canceledIdle = true
	}
}

// correct runs the provider once and falls back to raw on any failure.
func (p *Pipeline) correct(ctx context.Context, cfg config.Config, terms []string, raw string) (string, string) {
	name := cfg.Correction.Provider
	prompt := correction.BuildSystemPrompt(correction.BasePrompt, terms, cfg.Correction.CustomPrompt)

	provider, err := p.newProvider(ctx, cfg.Correction, prompt)
	if err != nil {
		p.logWarn("correction provider unavailable; using raw transcript", "provider", name, "error", err.Error())
		return raw, name
	}
	name = provider.Name()

	corrected, err := provider.Correct(ctx, raw)
	if err != nil {
		p.logWarn("correction failed; using raw transcript", "provider", name, "error", err.Error())
		return raw, name
	}
	corrected = strings.TrimSpace(corrected)
	if corrected == "" {
		p.logWarn("correction returned empty text; using raw transcript", "provider", name)
		return raw, name
	}
	return corrected, name
}

func (p *Pipeline) isCanceled(c *cycle) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return c.canceled
}

// advance applies a mid-cycle event while c is still the active cycle.
func (p *Pipeline) advance(c *cycle, event fsm.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cycle != c {
		return
	}
	if next, err := fsm.Transition(p.state, event); err == nil {
		p.state = next
	}
}

// finish ends cycle c with event and returns the pipeline to idle.
func (p *Pipeline) finish(c *cycle, event fsm.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cycle != c {
		return
	}
	next, err := fsm.Transition(p.state, event)
	if err != nil || next == fsm.StateError {
		next = fsm.StateIdle
	}
	p.state = next
	p.cycle = nil
}

func (p *Pipeline) record(ctx context.Context, c *cycle, result Result) {
	if p.history == nil || !c.cfg.History.Enable {
		return
	}
	_, err := p.history.Append(ctx, history.Entry{
		CreatedAt:  result.StartedAt,
		Raw:        result.Raw,
		Final:      result.Final,
		Provider:   result.Provider,
		Corrected:  result.Corrected,
		DurationMS: result.Recorded.Milliseconds(),
	})
	if err != nil {
		p.logWarn("history append failed", "error", err.Error())
	}
}

func (p *Pipeline) logResult(result Result) {
	if p.logger == nil {
		return
	}
	fields := []any{
		"canceled", result.Canceled,
		"started_at", result.StartedAt.Format(time.RFC3339Nano),
		"finished_at", result.FinishedAt.Format(time.RFC3339Nano),
		"duration_ms", result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
		"recorded_ms", result.Recorded.Milliseconds(),
		"audio_device", result.AudioDevice,
		"raw_length", len(result.Raw),
		"final_length", len(result.Final),
		"provider", result.Provider,
		"corrected", result.Corrected,
	}
	if result.Err != nil && !result.Canceled {
		p.logger.Error("cycle failed", append(fields, "error", result.Err.Error())...)
		return
	}
	p.logger.Info("cycle complete", fields...)
}

// describeDevice formats device metadata for logs.
func describeDevice(device audio.Device) string {
	description := strings.TrimSpace(device.Description)
	id := strings.TrimSpace(device.ID)
	if description == "" {
		return id
	}
	if id == "" {
		return description
	}
	return fmt.Sprintf("%s (%s)", description, id)
}

func (p *Pipeline) logInfo(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) logWarn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
