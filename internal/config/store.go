package config

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Store holds the active configuration and swaps it atomically on reload.
// Readers take a Snapshot once per dictation cycle.
type Store struct {
	logger *slog.Logger

	mu       sync.RWMutex
	loaded   Loaded
	lastMod  time.Time
	lastHash [sha256.Size]byte
	// failedHash is the content of the last file that failed to parse.
	failedHash [sha256.Size]byte
}

// NewStore wraps an initial load result.
func NewStore(initial Loaded, logger *slog.Logger) *Store {
	s := &Store{loaded: initial, logger: logger}
	if content, info, err := readWithInfo(initial.Path); err == nil {
		s.lastMod = info.ModTime()
		s.lastHash = sha256.Sum256(content)
	}
	return s
}

// Snapshot returns the current configuration by value.
func (s *Store) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneConfig(s.loaded.Config)
}

// Loaded returns the current load result including path and warnings.
func (s *Store) Loaded() Loaded {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.loaded
	out.Config = cloneConfig(s.loaded.Config)
	return out
}

// Reload re-reads the config file. It reports whether the content changed.
// An invalid file leaves the previous configuration active.
func (s *Store) Reload() (bool, error) {
	changed, _, err := s.reload()
	return changed, err
}

// reload also reports whether a parse failure repeats the previous failed
// content, so Watch logs each bad edit once.
func (s *Store) reload() (changed bool, repeated bool, err error) {
	s.mu.RLock()
	path := s.loaded.Path
	s.mu.RUnlock()

	content, info, err := readWithInfo(path)
	if err != nil {
		return false, false, err
	}
	hash := sha256.Sum256(content)

	s.mu.Lock()
	if hash == s.lastHash {
		s.lastMod = info.ModTime()
		s.mu.Unlock()
		return false, false, nil
	}
	s.mu.Unlock()

	cfg, warnings, err := Parse(string(content), Default())
	if err != nil {
		s.mu.Lock()
		// The previous config stays active; the mtime is recorded so Watch
		// waits for the next edit.
		s.lastMod = info.ModTime()
		repeated = hash == s.failedHash
		s.failedHash = hash
		s.mu.Unlock()
		return false, repeated, fmt.Errorf("parse config %q: %w", path, err)
	}
	applyEnv(&cfg)

	s.mu.Lock()
	s.loaded = Loaded{Path: path, Config: cfg, Warnings: warnings, Exists: true}
	s.lastMod = info.ModTime()
	s.lastHash = hash
	s.failedHash = [sha256.Size]byte{}
	s.mu.Unlock()

	for _, w := range warnings {
		s.logWarn("config warning", "line", w.Line, "message", w.Message)
	}
	return true, false, nil
}

// Watch polls the config file until ctx is done and calls onChange after each
// successful reload with the previous and new configuration.
func (s *Store) Watch(ctx context.Context, interval time.Duration, onChange func(old, next Config)) error {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !s.modified() {
				continue
			}
			old := s.Snapshot()
			changed, repeated, err := s.reload()
			if err != nil {
				if !repeated {
					s.logWarn("config reload failed; keeping previous config", "error", err.Error())
				}
				continue
			}
			if !changed {
				continue
			}
			if s.logger != nil {
				s.logger.Info("config reloaded", "path", s.Loaded().Path)
			}
			if onChange != nil {
				onChange(old, s.Snapshot())
			}
		}
	}
}

// modified is the cheap mtime check that gates hashing.
func (s *Store) modified() bool {
	s.mu.RLock()
	path := s.loaded.Path
	lastMod := s.lastMod
	s.mu.RUnlock()

	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.ModTime().Equal(lastMod)
}

func (s *Store) logWarn(msg string, args ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Warn(msg, args...)
}

func readWithInfo(path string) ([]byte, os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("config %q not found: %w", path, err)
		}
		return nil, nil, fmt.Errorf("stat config %q: %w", path, err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read config %q: %w", path, err)
	}
	return content, info, nil
}
