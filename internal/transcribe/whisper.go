// Package transcribe runs the local whisper CLI against a recorded clip.
package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rbright/murmur/internal/wav"
)

// DefaultTimeout bounds one whisper invocation.
const DefaultTimeout = 30 * time.Second

// Request is one clip plus the per-cycle engine settings.
type Request struct {
	Samples    []float32
	SampleRate int
	ModelPath  string
	Language   string
	Terms      []string
}

// Error is a stage-aware transcription failure with captured engine output.
type Error struct {
	Stage   string
	Message string
	Output  string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("%s: %s", e.Stage, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// commandResult is an internal process execution response.
type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}
	return result, nil
}

// Whisper transcribes clips by shelling out to a whisper.cpp-compatible CLI.
type Whisper struct {
	bin     string
	threads int
	timeout time.Duration
	tempDir string
	runner  commandRunner
	logger  *slog.Logger
}

// Option customizes a Whisper transcriber.
type Option func(*Whisper)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(w *Whisper) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// WithThreads passes -t to the engine when n > 0.
func WithThreads(n int) Option {
	return func(w *Whisper) { w.threads = n }
}

// WithTempDir sets where clips are written. Defaults to os.TempDir().
func WithTempDir(dir string) Option {
	return func(w *Whisper) { w.tempDir = dir }
}

// WithLogger attaches a logger for engine diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Whisper) { w.logger = logger }
}

// NewWhisper returns a transcriber for the binary at bin.
func NewWhisper(bin string, opts ...Option) *Whisper {
	w := &Whisper{
		bin:     strings.TrimSpace(bin),
		timeout: DefaultTimeout,
		runner:  execRunner{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Transcribe writes the clip to a temporary WAV file, runs the engine, and
// returns the concatenated caption text. The temp file is always removed.
func (w *Whisper) Transcribe(ctx context.Context, req Request) (string, error) {
	dir := w.tempDir
	if dir == "" {
		dir = os.TempDir()
	}
	wavPath := filepath.Join(dir, "murmur-"+uuid.NewString()+".wav")
	if err := wav.WriteFile(wavPath, req.Samples, req.SampleRate); err != nil {
		return "", &Error{Stage: "encode", Message: "write temporary wav", Err: err}
	}
	defer func() {
		if err := os.Remove(wavPath); err != nil && !errors.Is(err, os.ErrNotExist) && w.logger != nil {
			w.logger.Warn("remove temporary wav failed", "path", wavPath, "error", err.Error())
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	args := buildArgs(req.ModelPath, wavPath, req.Language, req.Terms, w.threads)
	start := time.Now()
	result, err := w.runner.Run(runCtx, w.bin, args...)
	if w.logger != nil {
		w.logger.Debug("whisper finished",
			"exit_code", result.ExitCode,
			"elapsed_ms", time.Since(start).Milliseconds(),
			"samples", len(req.Samples),
		)
	}
	if err != nil {
		output := strings.TrimSpace(result.Stderr)
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return "", &Error{Stage: "transcribe", Message: fmt.Sprintf("engine timed out after %s", w.timeout), Output: output, Err: context.DeadlineExceeded}
		}
		return "", &Error{Stage: "transcribe", Message: fmt.Sprintf("%s exited with code %d", w.bin, result.ExitCode), Output: output, Err: err}
	}

	return ParseCaptions(result.Stdout), nil
}

// buildArgs assembles the engine command line.
func buildArgs(modelPath, wavPath, language string, terms []string, threads int) []string {
	args := []string{
		"-m", modelPath,
		"-f", wavPath,
		"-l", normalizeLanguage(language),
		"-bo", "5",
		"-bs", "5",
		"-et", "2.0",
	}
	if threads > 0 {
		args = append(args, "-t", fmt.Sprint(threads))
	}
	if prompt := vocabularyPrompt(terms); prompt != "" {
		args = append(args, "--prompt", prompt)
	}
	return args
}

func normalizeLanguage(raw string) string {
	lang := strings.TrimSpace(raw)
	if lang == "" {
		return "auto"
	}
	return lang
}

// vocabularyPrompt biases decoding toward dictionary spellings.
func vocabularyPrompt(terms []string) string {
	cleaned := make([]string, 0, len(terms))
	for _, term := range terms {
		if term = strings.TrimSpace(term); term != "" {
			cleaned = append(cleaned, term)
		}
	}
	return strings.Join(cleaned, ", ")
}
