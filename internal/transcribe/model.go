package transcribe

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrModelNotFound reports a model path with no usable model file.
var ErrModelNotFound = errors.New("speech model not found")

// ResolveModelPath returns a model file from a file path or a directory
// holding .bin or .gguf files. A leading "~" expands to the home directory.
func ResolveModelPath(raw string) (string, error) {
	modelPath, err := expandHome(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	if modelPath == "" {
		return "", fmt.Errorf("%w: speech.model is empty", ErrModelNotFound)
	}

	info, err := os.Stat(modelPath)
	if err != nil {
		return "", fmt.Errorf("%w: cannot access %s", ErrModelNotFound, modelPath)
	}
	if !info.IsDir() {
		if info.Size() == 0 {
			return "", fmt.Errorf("%w: %s is empty", ErrModelNotFound, modelPath)
		}
		return modelPath, nil
	}

	entries, err := os.ReadDir(modelPath)
	if err != nil {
		return "", fmt.Errorf("%w: cannot read %s", ErrModelNotFound, modelPath)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".bin" || ext == ".gguf" {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("%w: no .bin or .gguf files in %s", ErrModelNotFound, modelPath)
	}

	sort.Strings(names)
	return filepath.Join(modelPath, names[0]), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
