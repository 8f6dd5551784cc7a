package indicator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveLocaleDefaultsToEnglish(t *testing.T) {
	require.Equal(t, localeEnglish, resolveLocale("en_US.UTF-8"))
	require.Equal(t, localeEnglish, resolveLocale("fr_FR.UTF-8"))
}

func TestIndicatorMessagesEnglish(t *testing.T) {
	msg := indicatorMessages(localeEnglish)
	require.Equal(t, "Recording…", msg.recording)
	require.Equal(t, "Transcribing…", msg.processing)
	require.Equal(t, "No speech model configured", msg.alertText(AlertNoModel))
	require.Equal(t, "Nothing heard", msg.alertText(AlertNothingHeard))
	require.Equal(t, "Canceled", msg.alertText(AlertCanceled))
	require.Equal(t, "Dictation failed", msg.alertText(AlertFailed))
	require.Equal(t, "Dictation failed", msg.alertText(Alert(0)))
}

func TestAlertString(t *testing.T) {
	require.Equal(t, "no-model", AlertNoModel.String())
	require.Equal(t, "nothing-heard", AlertNothingHeard.String())
	require.Equal(t, "canceled", AlertCanceled.String())
	require.Equal(t, "failed", AlertFailed.String())
	require.Equal(t, "unknown", Alert(0).String())
}
