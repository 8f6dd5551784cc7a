// Package wav writes mono 16-bit PCM WAV containers for the speech engine
// and decodes short clips for audio cues.
package wav

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
)

const (
	bitDepth    = 16
	numChannels = 1
	pcmFormat   = 1
)

// Info is the decoded header summary of a WAV container.
type Info struct {
	SampleRate  int
	Channels    int
	BitDepth    int
	SampleCount int
}

// Encode writes samples in [-1,1] as mono 16-bit PCM at sampleRate.
func Encode(w io.WriteSeeker, samples []float32, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	enc := gowav.NewEncoder(w, sampleRate, bitDepth, numChannels, pcmFormat)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: numChannels, SampleRate: sampleRate},
		SourceBitDepth: bitDepth,
		Data:           toPCM16(samples),
	}
	if err := enc.Write(buf); err != nil {
		_ = enc.Close()
		return fmt.Errorf("write pcm frames: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav header: %w", err)
	}
	return nil
}

// WriteFile encodes samples into a new file at path.
func WriteFile(path string, samples []float32, sampleRate int) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create wav %q: %w", path, err)
	}
	if err := Encode(file, samples, sampleRate); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return err
	}
	return file.Close()
}

// ReadInfo decodes the container header and counts its PCM frames.
func ReadInfo(r io.ReadSeeker) (Info, error) {
	dec := gowav.NewDecoder(r)
	if !dec.IsValidFile() {
		return Info{}, errors.New("not a valid wav container")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Info{}, fmt.Errorf("read pcm data: %w", err)
	}

	channels := int(dec.NumChans)
	frames := len(buf.Data)
	if channels > 1 {
		frames /= channels
	}
	return Info{
		SampleRate:  int(dec.SampleRate),
		Channels:    channels,
		BitDepth:    int(dec.BitDepth),
		SampleCount: frames,
	}, nil
}

// DecodeMono reads a PCM WAV container and mixes it down to mono samples in
// [-1,1]. It returns the samples and the container sample rate.
func DecodeMono(r io.ReadSeeker) ([]float32, int, error) {
	dec := gowav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, errors.New("not a valid wav container")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("read pcm data: %w", err)
	}

	channels := max(int(dec.NumChans), 1)
	depth := buf.SourceBitDepth
	if depth <= 0 {
		depth = int(dec.BitDepth)
	}
	if depth <= 0 || depth > 32 {
		return nil, 0, fmt.Errorf("unsupported bit depth %d", depth)
	}
	scale := float64(int64(1) << (depth - 1))

	frames := len(buf.Data) / channels
	out := make([]float32, frames)
	for i := range frames {
		var sum float64
		for c := range channels {
			sum += float64(buf.Data[i*channels+c])
		}
		out[i] = float32(sum / float64(channels) / scale)
	}
	return out, int(dec.SampleRate), nil
}

// ReadMonoFile decodes the WAV file at path with DecodeMono.
func ReadMonoFile(path string) ([]float32, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open wav %q: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	samples, rate, err := DecodeMono(file)
	if err != nil {
		return nil, 0, fmt.Errorf("decode wav %q: %w", path, err)
	}
	return samples, rate, nil
}

// toPCM16 clamps float samples and scales them to signed 16-bit integers.
func toPCM16(samples []float32) []int {
	out := make([]int, len(samples))
	for i, s := range samples {
		v := float64(s)
		if math.IsNaN(v) {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		if v < -1 {
			v = -1
		}
		if v < 0 {
			out[i] = int(math.Round(v * 32768))
		} else {
			out[i] = int(math.Round(v * 32767))
		}
	}
	return out
}
