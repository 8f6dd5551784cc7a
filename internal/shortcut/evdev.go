package shortcut

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// DefaultDeviceGlob matches Linux event devices.
const DefaultDeviceGlob = "/dev/input/event*"

const (
	inputEventSize = 24
	evKey          = 1
	keyRepeat      = 2
)

// inputEvent mirrors struct input_event on 64-bit Linux.
type inputEvent struct {
	Type  uint16
	Code  uint16
	Value int32
}

func decodeEvent(buf []byte) (inputEvent, bool) {
	if len(buf) < inputEventSize {
		return inputEvent{}, false
	}
	return inputEvent{
		Type:  binary.LittleEndian.Uint16(buf[16:18]),
		Code:  binary.LittleEndian.Uint16(buf[18:20]),
		Value: int32(binary.LittleEndian.Uint32(buf[20:24])),
	}, true
}

// keyEvent converts a raw event to a KeyEvent. Non-key events and
// auto-repeat are dropped.
func (e inputEvent) keyEvent() (KeyEvent, bool) {
	if e.Type != evKey || e.Value == keyRepeat {
		return KeyEvent{}, false
	}
	return KeyEvent{Code: e.Code, Pressed: e.Value == 1}, true
}

// DevicePermission reports whether at least one event device is readable.
type DevicePermission struct {
	Glob string
}

// Granted opens each matching device once and stops at the first success.
func (p DevicePermission) Granted() bool {
	for _, path := range devicePaths(p.Glob) {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		_ = f.Close()
		return true
	}
	return false
}

func devicePaths(glob string) []string {
	if glob == "" {
		glob = DefaultDeviceGlob
	}
	paths, err := filepath.Glob(glob)
	if err != nil {
		return nil
	}
	sort.Strings(paths)
	return paths
}

// EvdevHook reads key events from every readable event device.
type EvdevHook struct {
	glob   string
	logger *slog.Logger

	mu      sync.Mutex
	devices []io.Closer
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewEvdevHook returns a hook over devices matching glob.
func NewEvdevHook(glob string, logger *slog.Logger) *EvdevHook {
	if glob == "" {
		glob = DefaultDeviceGlob
	}
	return &EvdevHook{glob: glob, logger: logger}
}

// Start opens the devices and begins delivering events to handler from one
// goroutine per device.
func (h *EvdevHook) Start(ctx context.Context, handler func(KeyEvent)) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		return errors.New("key hook already running")
	}

	var opened []*os.File
	for _, path := range devicePaths(h.glob) {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		opened = append(opened, f)
	}
	if len(opened) == 0 {
		return fmt.Errorf("no readable input devices match %s", h.glob)
	}

	runCtx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	h.devices = h.devices[:0]
	for _, f := range opened {
		h.devices = append(h.devices, f)
		h.wg.Add(1)
		go h.read(runCtx, f, handler)
	}
	go func() {
		<-runCtx.Done()
		h.closeDevices()
	}()

	if h.logger != nil {
		h.logger.Info("key hook started", "devices", len(opened))
	}
	return nil
}

// Stop closes all devices and waits for the readers to exit.
func (h *EvdevHook) Stop() error {
	h.mu.Lock()
	cancel := h.cancel
	h.cancel = nil
	h.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	h.closeDevices()
	h.wg.Wait()
	return nil
}

func (h *EvdevHook) closeDevices() {
	h.mu.Lock()
	devices := h.devices
	h.devices = nil
	h.mu.Unlock()
	for _, d := range devices {
		_ = d.Close()
	}
}

func (h *EvdevHook) read(ctx context.Context, r io.Reader, handler func(KeyEvent)) {
	defer h.wg.Done()
	readEvents(ctx, r, handler)
}

// readEvents decodes input_event records until r fails or ctx is done.
func readEvents(ctx context.Context, r io.Reader, handler func(KeyEvent)) {
	buf := make([]byte, inputEventSize)
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			return
		}
		if ctx.Err() != nil {
			return
		}
		ev, ok := decodeEvent(buf)
		if !ok {
			continue
		}
		if key, ok := ev.keyEvent(); ok {
			handler(key)
		}
	}
}
