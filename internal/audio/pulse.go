// Package audio finds Pulse input sources and records mono PCM from them.
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// DefaultSampleRate is the rate the speech engine expects.
const DefaultSampleRate = 16000

func newClient() (*pulse.Client, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("murmur"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}
	return client, nil
}

// Device describes one Pulse input source.
type Device struct {
	ID          string
	Description string
	State       string
	Available   bool
	Muted       bool
	Default     bool
}

func (d Device) usable() bool {
	return d.Available && !d.Muted
}

func (d Device) problem() string {
	if d.Muted {
		return "muted"
	}
	return "unavailable"
}

// Selection is the device chosen for capture. Warning is set when the
// preferred input was skipped.
type Selection struct {
	Device   Device
	Warning  string
	Fallback bool
}

// ListDevices returns the Pulse input sources, default source first.
func ListDevices(_ context.Context) ([]Device, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	defaultSource, err := client.DefaultSource()
	if err != nil {
		return nil, fmt.Errorf("read default source: %w", err)
	}

	var replies pulseproto.GetSourceInfoListReply
	if err := client.RawRequest(&pulseproto.GetSourceInfoList{}, &replies); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	devices := make([]Device, 0, len(replies))
	for _, source := range replies {
		if source == nil {
			continue
		}
		devices = append(devices, Device{
			ID:          source.SourceName,
			Description: source.Device,
			State:       sourceStateString(source.State),
			Available:   sourceAvailable(source),
			Muted:       source.Mute,
			Default:     source.SourceName == defaultSource.ID(),
		})
	}
	slices.SortStableFunc(devices, func(a, b Device) int {
		switch {
		case a.Default == b.Default:
			return 0
		case a.Default:
			return -1
		default:
			return 1
		}
	})
	return devices, nil
}

// SelectDevice resolves the input and fallback preferences against the live
// source list.
func SelectDevice(ctx context.Context, input string, fallback string) (Selection, error) {
	devices, err := ListDevices(ctx)
	if err != nil {
		return Selection{}, err
	}
	return selectDeviceFromList(devices, input, fallback)
}

// selectDeviceFromList picks input when it is usable, otherwise fallback.
// Both accept "default", an exact source name, or a substring of the name or
// description.
func selectDeviceFromList(devices []Device, input string, fallback string) (Selection, error) {
	if len(devices) == 0 {
		return Selection{}, errors.New("no audio input devices found")
	}

	primary, err := findDevice(devices, input)
	if err != nil {
		return Selection{}, fmt.Errorf("audio.input %w", err)
	}
	if primary.usable() {
		return Selection{Device: primary}, nil
	}

	alternate, err := findDevice(devices, fallback)
	if err != nil {
		return Selection{}, fmt.Errorf("primary input %q is %s and no usable fallback: audio.fallback %w", primary.ID, primary.problem(), err)
	}
	if !alternate.usable() {
		return Selection{}, fmt.Errorf("audio fallback device %q is %s", alternate.ID, alternate.problem())
	}

	return Selection{
		Device:   alternate,
		Warning:  fmt.Sprintf("audio.input %q is %s; falling back to %q", primary.ID, primary.problem(), alternate.ID),
		Fallback: primary.ID != alternate.ID,
	}, nil
}

// findDevice resolves one preference term. Exact source names win over
// substring matches.
func findDevice(devices []Device, term string) (Device, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" || term == "default" {
		for _, dev := range devices {
			if dev.Default {
				return dev, nil
			}
		}
		return Device{}, errors.New("default audio source is unavailable")
	}

	for _, dev := range devices {
		if strings.ToLower(dev.ID) == term {
			return dev, nil
		}
	}
	for _, dev := range devices {
		if deviceMatches(dev, term) {
			return dev, nil
		}
	}
	return Device{}, fmt.Errorf("%q did not match any device", term)
}

// deviceMatches reports whether term is a substring of the id or description.
func deviceMatches(device Device, term string) bool {
	if term == "" {
		return false
	}
	return strings.Contains(strings.ToLower(device.ID), term) ||
		strings.Contains(strings.ToLower(device.Description), term)
}

// Capture accumulates s16le PCM from one selected Pulse source.
type Capture struct {
	device     Device
	sampleRate int

	client *pulse.Client
	stream *pulse.RecordStream

	stopCh chan struct{}

	mu      sync.Mutex
	rawPCM  []byte
	stopped bool

	inflight sync.WaitGroup
	bytes    atomic.Int64
}

// StartCapture creates and starts a mono s16 record stream at sampleRate.
func StartCapture(ctx context.Context, selected Device, sampleRate int) (*Capture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}

	client, err := newClient()
	if err != nil {
		return nil, err
	}

	source, err := client.SourceByID(selected.ID)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("resolve source %q: %w", selected.ID, err)
	}

	capture := &Capture{
		device:     selected,
		sampleRate: sampleRate,
		client:     client,
		stopCh:     make(chan struct{}),
	}

	writer := pulse.NewWriter(writerFunc(capture.onPCM), pulseproto.FormatInt16LE)
	stream, err := client.NewRecord(
		writer,
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(sampleRate),
		pulse.RecordBufferFragmentSize(fragmentBytes(sampleRate)),
		pulse.RecordMediaName("murmur dictation"),
	)
	if err != nil {
		_, _ = capture.Stop()
		return nil, fmt.Errorf("create pulse record stream: %w", err)
	}

	capture.stream = stream
	stream.Start()
	return capture, nil
}

// Device returns capture metadata for logging and diagnostics.
func (c *Capture) Device() Device {
	return c.device
}

// BytesCaptured reports total bytes accepted from Pulse.
func (c *Capture) BytesCaptured() int64 {
	return c.bytes.Load()
}

// Stop halts the stream and returns every PCM byte captured. Later calls
// return nil.
func (c *Capture) Stop() ([]byte, error) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil, nil
	}
	c.stopped = true
	close(c.stopCh)
	c.mu.Unlock()

	if c.stream != nil {
		c.stream.Stop()
		c.stream.Close()
	}
	if c.client != nil {
		c.client.Close()
	}

	c.inflight.Wait()

	c.mu.Lock()
	raw := c.rawPCM
	c.rawPCM = nil
	c.mu.Unlock()
	return raw, nil
}

// onPCM receives raw Pulse frames.
func (c *Capture) onPCM(buffer []byte) (int, error) {
	if len(buffer) == 0 {
		return 0, nil
	}

	select {
	case <-c.stopCh:
		return 0, io.EOF
	default:
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return 0, io.EOF
	}
	// Guard Add under the same mutex as c.stopped to avoid Add/Wait races.
	c.inflight.Add(1)
	c.rawPCM = append(c.rawPCM, buffer...)
	c.mu.Unlock()
	defer c.inflight.Done()

	c.bytes.Add(int64(len(buffer)))
	return len(buffer), nil
}

// fragmentBytes sizes pulse fragments to 20ms of mono s16 audio.
func fragmentBytes(sampleRate int) uint32 {
	return uint32(sampleRate / 50 * 2)
}

// writerFunc adapts a function to io.Writer for pulse.NewWriter.
type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) {
	return f(b)
}

// sourceStateString maps Pulse source state constants to human-readable values.
func sourceStateString(state uint32) string {
	switch state {
	case 0:
		return "running"
	case 1:
		return "idle"
	case 2:
		return "suspended"
	default:
		return fmt.Sprintf("unknown(%d)", state)
	}
}

// sourceAvailable maps Pulse source port availability to a simple boolean.
func sourceAvailable(source *pulseproto.GetSourceInfoReply) bool {
	if source == nil {
		return false
	}
	if len(source.Ports) == 0 {
		return true
	}
	for _, port := range source.Ports {
		if port.Name != source.ActivePortName {
			continue
		}
		// PulseAudio values: unknown=0, no=1, yes=2.
		return port.Available == 0 || port.Available == 2
	}
	return true
}
