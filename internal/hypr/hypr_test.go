package hypr

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueryActiveWindowAndFocusedMonitor(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installHyprctlStub(t, `
if [[ "${1:-}" == "-j" && "${2:-}" == "activewindow" ]]; then
  echo '{"address":" 0xabc ","class":" brave-browser ","initialClass":" Brave ","title":" Inbox "}'
  exit 0
fi
if [[ "${1:-}" == "-j" && "${2:-}" == "monitors" ]]; then
  echo '[{"name":"HDMI-A-1","focused":false},{"name":" DP-1 ","focused":true}]'
  exit 0
fi
printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"
`)

	window, err := QueryActiveWindow(context.Background())
	require.NoError(t, err)
	require.Equal(t, "0xabc", window.Address)
	require.Equal(t, "brave-browser", window.Class)
	require.Equal(t, "Brave", window.InitialClass)
	require.Equal(t, "Inbox", window.Title)

	monitor, err := QueryFocusedMonitor(context.Background())
	require.NoError(t, err)
	require.Equal(t, "DP-1", monitor)
}

func TestQueryFocusedMonitorFallsBackToFirst(t *testing.T) {
	installHyprctlStub(t, `
echo '[{"name":"HDMI-A-1","focused":false},{"name":"DP-1","focused":false}]'
`)

	monitor, err := QueryFocusedMonitor(context.Background())
	require.NoError(t, err)
	require.Equal(t, "HDMI-A-1", monitor)
}

func TestQueryFocusedMonitorRejectsEmptyList(t *testing.T) {
	installHyprctlStub(t, `
echo '[]'
`)

	_, err := QueryFocusedMonitor(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "no outputs")
}

func TestQueryVersion(t *testing.T) {
	installHyprctlStub(t, `
if [[ "${1:-}" == "-j" && "${2:-}" == "version" ]]; then
  echo '{"branch":"main","commit":"0123456789abcdef0123","tag":" v0.45.2 "}'
  exit 0
fi
exit 1
`)

	v, err := QueryVersion(context.Background())
	require.NoError(t, err)
	require.Equal(t, "v0.45.2", v.String())

	require.Equal(t, "0123456789ab", Version{Commit: "0123456789abcdef0123"}.String())
}

func TestQueryDecodeFailureNamesTarget(t *testing.T) {
	installHyprctlStub(t, `
echo 'not json'
`)

	_, err := QueryVersion(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode hyprctl version json")
}

func TestQueryActiveWindowRejectsEmptyAddress(t *testing.T) {
	installHyprctlStub(t, `
if [[ "${1:-}" == "-j" && "${2:-}" == "activewindow" ]]; then
  echo '{"address":"","class":"brave"}'
  exit 0
fi
echo '[]'
`)

	_, err := QueryActiveWindow(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty address")
}

func TestSendShortcutRequiresNonEmptyPayload(t *testing.T) {
	err := SendShortcut(context.Background(), " ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "non-empty payload")
}

func TestNotifyAndDismissUseHyprctlDispatch(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installHyprctlStub(t, `
printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"
`)

	err := Notify(context.Background(), 3, 1200, "", "Speech recognition error")
	require.NoError(t, err)

	err = DismissNotify(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "--quiet dispatch notify 3 1200 rgb(89b4fa) Speech recognition error", lines[0])
	require.Equal(t, "--quiet dispatch dismissnotify", lines[1])
}

func TestSendShortcutReturnsCombinedOutputOnFailure(t *testing.T) {
	installHyprctlStub(t, `
echo 'boom from hyprctl' >&2
exit 1
`)

	err := SendShortcut(context.Background(), "CTRL,V,address:0xabc")
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom from hyprctl")
}

func installHyprctlStub(t *testing.T, body string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "hyprctl")
	script := "#!/usr/bin/env bash\nset -euo pipefail\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))
}
