package indicator

import (
	"os"
	"strings"
)

type locale string

const (
	localeEnglish locale = "en"
)

type messages struct {
	recording    string
	processing   string
	noModel      string
	noModelHint  string
	nothingHeard string
	canceled     string
	failed       string
}

func indicatorMessagesFromEnv() messages {
	return indicatorMessages(resolveLocale(os.Getenv("LANG")))
}

func resolveLocale(raw string) locale {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if strings.HasPrefix(raw, "en") {
		return localeEnglish
	}
	return localeEnglish
}

func indicatorMessages(tag locale) messages {
	switch tag {
	case localeEnglish:
		fallthrough
	default:
		return messages{
			recording:    "Recording…",
			processing:   "Transcribing…",
			noModel:      "No speech model configured",
			noModelHint:  "Set speech.model in config.jsonc to a whisper model file or directory.",
			nothingHeard: "Nothing heard",
			canceled:     "Canceled",
			failed:       "Dictation failed",
		}
	}
}

func (m messages) alertText(alert Alert) string {
	switch alert {
	case AlertNoModel:
		return m.noModel
	case AlertNothingHeard:
		return m.nothingHeard
	case AlertCanceled:
		return m.canceled
	default:
		return m.failed
	}
}
