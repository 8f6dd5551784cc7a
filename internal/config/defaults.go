package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Speech: SpeechConfig{
			WhisperBin: "whisper-cli",
			ModelPath:  "~/.local/share/murmur/models",
			Language:   "en",
			TimeoutMS:  30000,
		},
		Correction: CorrectionConfig{
			Enable:    false,
			Provider:  "none",
			TimeoutMS: 30000,
		},
		Dictionary: DictionaryConfig{MaxTerms: 256},
		Shortcuts: ShortcutsConfig{
			Hold:       "RightCtrl",
			Toggle:     "Super+Shift+D",
			GuardMS:    1200,
			WatchdogMS: 2000,
		},
		Audio: AudioConfig{
			Input:      "default",
			Fallback:   "default",
			SampleRate: 16000,
		},
		Paste:      PasteConfig{Enable: true, Shortcut: "CTRL,V"},
		Transcript: TranscriptConfig{TrailingSpace: true},
		Indicator: IndicatorConfig{
			Enable:         true,
			Backend:        "hypr",
			DesktopAppName: "murmur-indicator",
			SoundEnable:    true,
			ErrorTimeoutMS: 1600,
		},
		History: HistoryConfig{Enable: true},
	}
}
