package indicator

import "github.com/gen2brain/beeep"

// Alert is a terminal dictation outcome that deserves its own indicator text.
type Alert int

const (
	AlertNoModel Alert = iota + 1
	AlertNothingHeard
	AlertCanceled
	AlertFailed
)

func (a Alert) String() string {
	switch a {
	case AlertNoModel:
		return "no-model"
	case AlertNothingHeard:
		return "nothing-heard"
	case AlertCanceled:
		return "canceled"
	case AlertFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DesktopAlert raises a persistent desktop notification.
func DesktopAlert(title, message string) error {
	return desktopAlert(title, message)
}

var desktopAlert = func(title, message string) error {
	return beeep.Notify(title, message, "")
}
