package indicator

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jfreymuth/pulse"

	"github.com/rbright/murmur/internal/config"
	"github.com/rbright/murmur/internal/wav"
)

type cueKind int

const (
	cueStart cueKind = iota + 1
	cueStop
	cueComplete
	cueCancel
)

const (
	synthRate   = 16000
	toneGap     = 22 * time.Millisecond
	maxRamp     = 5 * time.Millisecond
	cueFileWait = 4 * time.Second
)

// tone is one sine segment of a synthesized cue.
type tone struct {
	hz   float64
	dur  time.Duration
	gain float64
}

var cueTones = map[cueKind][]tone{
	cueStart:    {{hz: 880, dur: 70 * time.Millisecond, gain: 0.18}, {hz: 1175, dur: 70 * time.Millisecond, gain: 0.18}},
	cueStop:     {{hz: 620, dur: 120 * time.Millisecond, gain: 0.18}},
	cueComplete: {{hz: 740, dur: 65 * time.Millisecond, gain: 0.18}, {hz: 988, dur: 90 * time.Millisecond, gain: 0.18}},
	cueCancel:   {{hz: 480, dur: 75 * time.Millisecond, gain: 0.18}, {hz: 360, dur: 90 * time.Millisecond, gain: 0.18}},
}

var synthCues = sync.OnceValue(func() map[cueKind][]float32 {
	out := make(map[cueKind][]float32, len(cueTones))
	for kind, tones := range cueTones {
		out[kind] = synthesizeCue(tones)
	}
	return out
})

// emitCue plays the configured file for kind, falling back to the built-in
// tone when no file is set or the file cannot be played.
func emitCue(ctx context.Context, kind cueKind, cfg config.IndicatorConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if path := cuePath(kind, cfg); path != "" {
		if err := playCueFile(ctx, path); err == nil {
			return nil
		}
	}

	samples := cueSamples(kind)
	if len(samples) == 0 {
		return nil
	}
	return playSamples(samples, synthRate)
}

func cuePath(kind cueKind, cfg config.IndicatorConfig) string {
	var raw string
	switch kind {
	case cueStart:
		raw = cfg.SoundStartFile
	case cueStop:
		raw = cfg.SoundStopFile
	case cueComplete:
		raw = cfg.SoundCompleteFile
	case cueCancel:
		raw = cfg.SoundCancelFile
	}
	return expandUserPath(raw)
}

func expandUserPath(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw != "~" && !strings.HasPrefix(raw, "~/") {
		return raw
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return raw
	}
	return filepath.Join(home, strings.TrimPrefix(raw[1:], "/"))
}

// playCueFile decodes WAV files in-process. Other formats go through pw-play.
func playCueFile(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("stat cue file %q: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".wav") {
		samples, rate, err := wav.ReadMonoFile(path)
		if err == nil && len(samples) > 0 {
			return playSamples(samples, rate)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, cueFileWait)
	defer cancel()
	if err := exec.CommandContext(ctx, "pw-play", "--media-role", "Notification", path).Run(); err != nil {
		return fmt.Errorf("play cue file %q: %w", path, err)
	}
	return nil
}

// playSamples streams mono float samples to the default sink and waits for
// them to drain.
func playSamples(samples []float32, rate int) error {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("murmur"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	remaining := samples
	reader := pulse.Float32Reader(func(buf []float32) (int, error) {
		n := copy(buf, remaining)
		remaining = remaining[n:]
		if len(remaining) == 0 {
			return n, pulse.EndOfData
		}
		return n, nil
	})

	stream, err := client.NewPlayback(
		reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(rate),
		pulse.PlaybackLatency(0.02),
		pulse.PlaybackMediaName("murmur cue"),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play cue stream: %w", err)
	}
	return nil
}

func cueSamples(kind cueKind) []float32 {
	return synthCues()[kind]
}

// synthesizeCue joins tones with short silent gaps.
func synthesizeCue(tones []tone) []float32 {
	gap := samplesForDuration(toneGap)
	var pcm []float32
	for i, t := range tones {
		if i > 0 {
			pcm = append(pcm, make([]float32, gap)...)
		}
		pcm = append(pcm, synthesizeTone(t)...)
	}
	return pcm
}

// synthesizeTone renders a sine with a linear attack and release ramp.
func synthesizeTone(t tone) []float32 {
	n := samplesForDuration(t.dur)
	if n <= 0 || t.hz <= 0 || t.gain <= 0 {
		return nil
	}

	ramp := min(n/10, samplesForDuration(maxRamp))
	ramp = max(ramp, 1)

	pcm := make([]float32, n)
	for i := range n {
		envelope := min(1.0, float64(i)/float64(ramp), float64(n-i-1)/float64(ramp))
		phase := 2 * math.Pi * t.hz * float64(i) / synthRate
		pcm[i] = float32(math.Sin(phase) * t.gain * envelope)
	}
	return pcm
}

func samplesForDuration(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * synthRate))
}
