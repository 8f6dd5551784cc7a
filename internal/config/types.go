// Package config resolves, parses, validates, and defaults murmur configuration.
package config

// Config is the fully materialized runtime configuration used by murmur.
type Config struct {
	Speech     SpeechConfig
	Correction CorrectionConfig
	Dictionary DictionaryConfig
	Shortcuts  ShortcutsConfig
	Audio      AudioConfig
	Paste      PasteConfig
	Transcript TranscriptConfig
	Indicator  IndicatorConfig
	Clipboard  CommandConfig
	PasteCmd   CommandConfig
	History    HistoryConfig
	Debug      DebugConfig
}

// SpeechConfig locates the local speech engine and its model.
type SpeechConfig struct {
	WhisperBin string
	ModelPath  string
	Language   string
	TimeoutMS  int
	Threads    int
}

// CorrectionConfig selects and parameterizes the transcript correction provider.
type CorrectionConfig struct {
	Enable          bool
	Provider        string
	Model           string
	Endpoint        string
	APIKey          string
	Region          string
	Profile         string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	TimeoutMS       int
	CustomPrompt    string
}

// DictionaryConfig lists domain terms used as recognition hints and correction spellings.
type DictionaryConfig struct {
	Terms    []string
	MaxTerms int
}

// ShortcutsConfig holds the hold and toggle accelerators and hook timing.
type ShortcutsConfig struct {
	Hold       string
	Toggle     string
	GuardMS    int
	WatchdogMS int
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input      string
	Fallback   string
	SampleRate int
}

// PasteConfig controls post-commit paste behavior.
type PasteConfig struct {
	Enable   bool
	Shortcut string
}

// TranscriptConfig controls final text formatting.
type TranscriptConfig struct {
	TrailingSpace bool
}

// IndicatorConfig controls visual indicator and audio cue behavior.
type IndicatorConfig struct {
	Enable            bool
	Backend           string
	DesktopAppName    string
	SoundEnable       bool
	SoundStartFile    string
	SoundStopFile     string
	SoundCompleteFile string
	SoundCancelFile   string
	ErrorTimeoutMS    int
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// HistoryConfig controls the local transcript history database.
type HistoryConfig struct {
	Enable bool
	Path   string
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	EnableAudioDump bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
