package hypr

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

// DefaultNotifyColor is used when Notify is given no color.
const DefaultNotifyColor = "rgb(89b4fa)"

// SendShortcut dispatches a sendshortcut payload such as "CTRL,V,address:0x1".
func SendShortcut(ctx context.Context, shortcut string) error {
	shortcut = strings.TrimSpace(shortcut)
	if shortcut == "" {
		return errors.New("sendshortcut requires a non-empty payload")
	}
	return dispatch(ctx, "sendshortcut", shortcut)
}

// Notify shows a compositor notification for timeoutMS.
func Notify(ctx context.Context, icon int, timeoutMS int, color string, text string) error {
	if strings.TrimSpace(color) == "" {
		color = DefaultNotifyColor
	}
	return dispatch(ctx, "notify", strconv.Itoa(icon), strconv.Itoa(timeoutMS), color, text)
}

// DismissNotify clears compositor notifications.
func DismissNotify(ctx context.Context) error {
	return dispatch(ctx, "dismissnotify")
}

func dispatch(ctx context.Context, args ...string) error {
	return runHyprctl(ctx, append([]string{"--quiet", "dispatch"}, args...)...)
}
