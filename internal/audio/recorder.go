package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrNotRecording is returned by Stop when no capture is active.
var ErrNotRecording = errors.New("audio capture is not active")

// Options selects the input source for one capture session.
type Options struct {
	Input      string
	Fallback   string
	SampleRate int
}

// Recording is one finished capture as mono samples in [-1,1].
type Recording struct {
	Samples    []float32
	SampleRate int
	Device     Device
}

// Duration reports the recorded length.
func (r Recording) Duration() time.Duration {
	if r.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(r.Samples)) * time.Second / time.Duration(r.SampleRate)
}

// session is one live capture.
type session interface {
	Device() Device
	Stop() ([]byte, error)
}

// Recorder owns at most one live capture session.
type Recorder struct {
	logger *slog.Logger

	selectDevice func(ctx context.Context, input, fallback string) (Selection, error)
	start        func(ctx context.Context, device Device, sampleRate int) (session, error)

	mu         sync.Mutex
	active     session
	sampleRate int
}

// NewRecorder returns a Recorder backed by the Pulse server.
func NewRecorder(logger *slog.Logger) *Recorder {
	return &Recorder{
		logger:       logger,
		selectDevice: SelectDevice,
		start: func(ctx context.Context, device Device, sampleRate int) (session, error) {
			return StartCapture(ctx, device, sampleRate)
		},
	}
}

// Start selects a device and begins capturing.
func (r *Recorder) Start(ctx context.Context, opts Options) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		return errors.New("audio capture already active")
	}

	selection, err := r.selectDevice(ctx, opts.Input, opts.Fallback)
	if err != nil {
		return fmt.Errorf("select audio device: %w", err)
	}
	if selection.Warning != "" && r.logger != nil {
		r.logger.Warn(selection.Warning, "device", selection.Device.ID)
	}

	rate := opts.SampleRate
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	sess, err := r.start(ctx, selection.Device, rate)
	if err != nil {
		return err
	}
	r.active = sess
	r.sampleRate = rate
	return nil
}

// Stop ends the active capture and returns what was recorded.
func (r *Recorder) Stop(_ context.Context) (Recording, error) {
	r.mu.Lock()
	sess, rate := r.active, r.sampleRate
	r.active = nil
	r.mu.Unlock()

	if sess == nil {
		return Recording{}, ErrNotRecording
	}
	raw, err := sess.Stop()
	if err != nil {
		return Recording{}, fmt.Errorf("stop capture: %w", err)
	}
	return Recording{Samples: DecodePCM16(raw), SampleRate: rate, Device: sess.Device()}, nil
}

// Cancel discards the active capture, if any.
func (r *Recorder) Cancel() {
	r.mu.Lock()
	sess := r.active
	r.active = nil
	r.mu.Unlock()

	if sess == nil {
		return
	}
	if _, err := sess.Stop(); err != nil && r.logger != nil {
		r.logger.Warn("discard capture failed", "error", err.Error())
	}
}

// Active reports whether a capture session is live.
func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active != nil
}

// DecodePCM16 converts little-endian s16 PCM to samples in [-1,1]. A trailing
// odd byte is dropped.
func DecodePCM16(raw []byte) []float32 {
	out := make([]float32, len(raw)/2)
	for i := range out {
		v := int16(binary.LittleEndian.Uint16(raw[2*i:]))
		out[i] = float32(v) / 32768
	}
	return out
}
