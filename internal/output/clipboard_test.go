package output

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/murmur/internal/config"
)

type deliverySpy struct {
	clipboard []string
	notices   []string
}

func newSpiedCommitter(cfg config.Config) (*Committer, *deliverySpy) {
	spy := &deliverySpy{}
	c := NewCommitter(cfg, nil)
	c.writeClipboard = func(text string) error {
		spy.clipboard = append(spy.clipboard, text)
		return nil
	}
	c.notify = func(_, message string) error {
		spy.notices = append(spy.notices, message)
		return nil
	}
	return c, spy
}

func TestRunCommandWithInputWritesStdin(t *testing.T) {
	scriptPath := writeStdinCaptureScript(t)
	outputPath := filepath.Join(t.TempDir(), "stdin.txt")

	err := runCommandWithInput(context.Background(), []string{scriptPath, outputPath}, "hello from murmur")
	require.NoError(t, err)

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	require.Equal(t, "hello from murmur", string(data))
}

func TestRunCommandWithInputRejectsEmptyArgv(t *testing.T) {
	err := runCommandWithInput(context.Background(), nil, "payload")
	require.Error(t, err)
	require.Contains(t, err.Error(), "argv cannot be empty")
}

func TestDeliverWritesClipboardCommandWhenPasteDisabled(t *testing.T) {
	scriptPath := writeStdinCaptureScript(t)
	clipboardPath := filepath.Join(t.TempDir(), "clipboard.txt")

	cfg := config.Default()
	cfg.Paste.Enable = false
	cfg.Clipboard = config.CommandConfig{Argv: []string{scriptPath, clipboardPath}}

	committer, spy := newSpiedCommitter(cfg)
	require.NoError(t, committer.Deliver(context.Background(), "captured transcript "))

	data, err := os.ReadFile(clipboardPath)
	require.NoError(t, err)
	require.Equal(t, "captured transcript ", string(data))
	require.Empty(t, spy.clipboard)
}

func TestDeliverFallsBackToSystemClipboard(t *testing.T) {
	cfg := config.Default()
	cfg.Paste.Enable = false
	cfg.Clipboard = config.CommandConfig{}

	committer, spy := newSpiedCommitter(cfg)
	require.NoError(t, committer.Deliver(context.Background(), "hello"))
	require.Equal(t, []string{"hello"}, spy.clipboard)
}

func TestDeliverSkipsBlankText(t *testing.T) {
	cfg := config.Default()
	committer, spy := newSpiedCommitter(cfg)
	pasted := false
	committer.paste = func(context.Context, string) error {
		pasted = true
		return nil
	}

	require.NoError(t, committer.Deliver(context.Background(), ""))
	require.NoError(t, committer.Deliver(context.Background(), "  \n"))
	require.Empty(t, spy.clipboard)
	require.False(t, pasted)
}

func TestDeliverReturnsErrorWhenClipboardFails(t *testing.T) {
	failScript := writeFailScript(t, "clipboard failed")

	cfg := config.Default()
	cfg.Clipboard = config.CommandConfig{Argv: []string{failScript}}

	committer, _ := newSpiedCommitter(cfg)
	pasted := false
	committer.paste = func(context.Context, string) error {
		pasted = true
		return nil
	}

	err := committer.Deliver(context.Background(), "captured transcript")
	require.Error(t, err)
	require.Contains(t, err.Error(), "set clipboard")
	require.False(t, pasted)

	committer.config.Clipboard = config.CommandConfig{}
	committer.writeClipboard = func(string) error { return errors.New("no clipboard utilities available") }
	err = committer.Deliver(context.Background(), "captured transcript")
	require.ErrorContains(t, err, "no clipboard utilities available")
}

func TestDeliverPasteCmdFailureNotifiesAndSucceeds(t *testing.T) {
	pasteFailScript := writeFailScript(t, "paste failed")

	cfg := config.Default()
	cfg.Paste.Enable = true
	cfg.PasteCmd = config.CommandConfig{Argv: []string{pasteFailScript}}

	committer, spy := newSpiedCommitter(cfg)
	require.NoError(t, committer.Deliver(context.Background(), "captured transcript"))
	require.Equal(t, []string{"captured transcript"}, spy.clipboard)
	require.Len(t, spy.notices, 1)
	require.Contains(t, spy.notices[0], "Copied to clipboard")
}

func TestDeliverDefaultPasteFailureNotifiesAndSucceeds(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installHyprctlDefaultPasteFailStub(t)

	cfg := config.Default()
	cfg.Paste.Enable = true
	cfg.PasteCmd = config.CommandConfig{}

	committer, spy := newSpiedCommitter(cfg)
	require.NoError(t, committer.Deliver(context.Background(), "captured transcript"))
	require.Equal(t, []string{"captured transcript"}, spy.clipboard)
	require.Len(t, spy.notices, 1)
}

func TestDeliverPasteSuccessDoesNotNotify(t *testing.T) {
	cfg := config.Default()
	cfg.Paste.Enable = true
	cfg.Paste.Shortcut = "CTRL,V"

	committer, spy := newSpiedCommitter(cfg)
	var shortcut string
	committer.paste = func(_ context.Context, s string) error {
		shortcut = s
		return nil
	}

	require.NoError(t, committer.Deliver(context.Background(), "hi"))
	require.Equal(t, "CTRL,V", shortcut)
	require.Empty(t, spy.notices)
}

func writeStdinCaptureScript(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "capture-stdin.sh")
	script := `#!/usr/bin/env bash
set -euo pipefail
cat > "$1"
`
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func writeFailScript(t *testing.T, message string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "fail.sh")
	script := "#!/usr/bin/env bash\nset -euo pipefail\necho " + "\"" + message + "\"" + " >&2\nexit 1\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func installHyprctlDefaultPasteFailStub(t *testing.T) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "hyprctl")
	script := `#!/usr/bin/env bash
set -euo pipefail
if [[ "${1:-}" == "-j" && "${2:-}" == "activewindow" ]]; then
  echo '{"address":"0xabc","class":"brave-browser","initialClass":"brave-browser"}'
  exit 0
fi
if [[ "${1:-}" == "--quiet" && "${2:-}" == "dispatch" && "${3:-}" == "sendshortcut" ]]; then
  echo "sendshortcut failed" >&2
  exit 1
fi
printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"
`
	require.NoError(t, os.WriteFile(path, []byte(strings.TrimSpace(script)+"\n"), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))
}
