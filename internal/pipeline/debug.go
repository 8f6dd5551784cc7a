package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rbright/murmur/internal/audio"
	"github.com/rbright/murmur/internal/config"
	"github.com/rbright/murmur/internal/wav"
)

// writeDebugAudio writes the recording to WAV when debug.audio_dump is enabled.
func (p *Pipeline) writeDebugAudio(cfg config.Config, rec audio.Recording) {
	if !cfg.Debug.EnableAudioDump || len(rec.Samples) == 0 {
		return
	}

	path, err := debugFilePath("audio", "wav")
	if err != nil {
		p.logWarn("unable to create debug audio dump", "error", err.Error())
		return
	}
	if err := wav.WriteFile(path, rec.Samples, rec.SampleRate); err != nil {
		p.logWarn("unable to write debug audio dump", "error", err.Error())
		return
	}
	p.logInfo("debug audio written", "path", path)
}

// debugFilePath returns a timestamped path under state/murmur/debug.
func debugFilePath(prefix string, extension string) (string, error) {
	stateDir, err := resolveStateDir()
	if err != nil {
		return "", err
	}
	debugDir := filepath.Join(stateDir, "murmur", "debug")
	if err := os.MkdirAll(debugDir, 0o700); err != nil {
		return "", fmt.Errorf("create debug dir: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405.000")
	return filepath.Join(debugDir, fmt.Sprintf("%s-%s.%s", prefix, timestamp, extension)), nil
}

// resolveStateDir returns XDG_STATE_HOME fallback path for debug artifacts.
func resolveStateDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return xdg, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory for state: %w", err)
	}
	return filepath.Join(home, ".local", "state"), nil
}
