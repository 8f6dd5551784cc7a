package indicator

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

const (
	notifyDest  = "org.freedesktop.Notifications"
	notifyPath  = "/org/freedesktop/Notifications"
	notifyIcon  = "audio-input-microphone"
	urgencyLow  = "0"
	urgencyNorm = "1"
)

// desktopNotify sends a freedesktop notification through busctl and returns
// the ID the server assigned. A non-zero replaceID updates that notification
// in place.
func desktopNotify(ctx context.Context, appName string, replaceID uint32, summary string, timeoutMS int) (uint32, error) {
	urgency := urgencyNorm
	if timeoutMS > 0 && timeoutMS <= 2000 {
		urgency = urgencyLow
	}

	out, err := busctl(ctx, "Notify", "susssasa{sv}i",
		appName,
		strconv.FormatUint(uint64(replaceID), 10),
		notifyIcon,
		summary,
		"",
		"0",
		"1", "urgency", "y", urgency,
		strconv.Itoa(timeoutMS),
	)
	if err != nil {
		return 0, fmt.Errorf("desktop notify: %w", err)
	}

	kind, value, ok := strings.Cut(out, " ")
	if !ok || kind != "u" {
		return 0, fmt.Errorf("desktop notify: unexpected reply %q", out)
	}
	id, err := strconv.ParseUint(strings.TrimSpace(value), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("desktop notify: parse id %q: %w", value, err)
	}
	return uint32(id), nil
}

func desktopDismiss(ctx context.Context, id uint32) error {
	if _, err := busctl(ctx, "CloseNotification", "u", strconv.FormatUint(uint64(id), 10)); err != nil {
		return fmt.Errorf("desktop dismiss: %w", err)
	}
	return nil
}

// busctl calls a method on the user session notification service and
// returns its trimmed reply.
func busctl(ctx context.Context, method string, signature string, args ...string) (string, error) {
	argv := append([]string{"--user", "call", notifyDest, notifyPath, notifyDest, method, signature}, args...)
	out, err := exec.CommandContext(ctx, "busctl", argv...).CombinedOutput()
	reply := strings.TrimSpace(string(out))
	if err != nil {
		if reply == "" {
			return "", err
		}
		return "", fmt.Errorf("%w (%s)", err, reply)
	}
	return reply, nil
}
