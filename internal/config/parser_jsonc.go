package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

type jsoncConfig struct {
	Speech     *jsoncSpeech     `json:"speech"`
	Correction *jsoncCorrection `json:"correction"`
	Dictionary *jsoncDictionary `json:"dictionary"`
	Shortcuts  *jsoncShortcuts  `json:"shortcuts"`
	Audio      *jsoncAudio      `json:"audio"`
	Paste      *jsoncPaste      `json:"paste"`
	Transcript *jsoncTranscript `json:"transcript"`
	Indicator  *jsoncIndicator  `json:"indicator"`
	History    *jsoncHistory    `json:"history"`
	Debug      *jsoncDebug      `json:"debug"`

	ClipboardCmd *string `json:"clipboard_cmd"`
	PasteCmd     *string `json:"paste_cmd"`
}

type jsoncSpeech struct {
	WhisperBin *string `json:"whisper_bin"`
	Model      *string `json:"model"`
	Language   *string `json:"language"`
	TimeoutMS  *int    `json:"timeout_ms"`
	Threads    *int    `json:"threads"`
}

type jsoncCorrection struct {
	Enable          *bool   `json:"enable"`
	Provider        *string `json:"provider"`
	Model           *string `json:"model"`
	Endpoint        *string `json:"endpoint"`
	APIKey          *string `json:"api_key"`
	Region          *string `json:"region"`
	Profile         *string `json:"profile"`
	AccessKeyID     *string `json:"access_key_id"`
	SecretAccessKey *string `json:"secret_access_key"`
	SessionToken    *string `json:"session_token"`
	TimeoutMS       *int    `json:"timeout_ms"`
	CustomPrompt    *string `json:"custom_prompt"`
}

type jsoncDictionary struct {
	Terms    *jsoncStringList `json:"terms"`
	MaxTerms *int             `json:"max_terms"`
}

type jsoncShortcuts struct {
	Hold       *string `json:"hold"`
	Toggle     *string `json:"toggle"`
	GuardMS    *int    `json:"guard_ms"`
	WatchdogMS *int    `json:"watchdog_ms"`
}

type jsoncAudio struct {
	Input      *string `json:"input"`
	Fallback   *string `json:"fallback"`
	SampleRate *int    `json:"sample_rate"`
}

type jsoncPaste struct {
	Enable   *bool   `json:"enable"`
	Shortcut *string `json:"shortcut"`
}

type jsoncTranscript struct {
	TrailingSpace *bool `json:"trailing_space"`
}

type jsoncIndicator struct {
	Enable            *bool   `json:"enable"`
	Backend           *string `json:"backend"`
	DesktopAppName    *string `json:"desktop_app_name"`
	SoundEnable       *bool   `json:"sound_enable"`
	SoundStartFile    *string `json:"sound_start_file"`
	SoundStopFile     *string `json:"sound_stop_file"`
	SoundCompleteFile *string `json:"sound_complete_file"`
	SoundCancelFile   *string `json:"sound_cancel_file"`
	ErrorTimeoutMS    *int    `json:"error_timeout_ms"`
}

type jsoncHistory struct {
	Enable *bool   `json:"enable"`
	Path   *string `json:"path"`
}

type jsoncDebug struct {
	AudioDump *bool `json:"audio_dump"`
}

type jsoncStringList []string

func (l *jsoncStringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		parts := strings.Split(single, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			out = append(out, part)
		}
		*l = out
		return nil
	}

	return fmt.Errorf("expected string array or comma-delimited string")
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func (payload jsoncConfig) applyTo(cfg *Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if s := payload.Speech; s != nil {
		setString(&cfg.Speech.WhisperBin, s.WhisperBin)
		setString(&cfg.Speech.ModelPath, s.Model)
		setString(&cfg.Speech.Language, s.Language)
		setInt(&cfg.Speech.TimeoutMS, s.TimeoutMS)
		setInt(&cfg.Speech.Threads, s.Threads)
	}

	if c := payload.Correction; c != nil {
		setBool(&cfg.Correction.Enable, c.Enable)
		if c.Provider != nil {
			cfg.Correction.Provider = strings.ToLower(strings.TrimSpace(*c.Provider))
		}
		setString(&cfg.Correction.Model, c.Model)
		setString(&cfg.Correction.Endpoint, c.Endpoint)
		setString(&cfg.Correction.APIKey, c.APIKey)
		setString(&cfg.Correction.Region, c.Region)
		setString(&cfg.Correction.Profile, c.Profile)
		setString(&cfg.Correction.AccessKeyID, c.AccessKeyID)
		setString(&cfg.Correction.SecretAccessKey, c.SecretAccessKey)
		setString(&cfg.Correction.SessionToken, c.SessionToken)
		setInt(&cfg.Correction.TimeoutMS, c.TimeoutMS)
		if c.CustomPrompt != nil {
			cfg.Correction.CustomPrompt = *c.CustomPrompt
		}
		if cfg.Correction.APIKey != "" {
			warnings = append(warnings, Warning{Message: "correction.api_key is stored in plain text; prefer MURMUR_API_KEY"})
		}
	}

	if d := payload.Dictionary; d != nil {
		if d.Terms != nil {
			cfg.Dictionary.Terms = cfg.Dictionary.Terms[:0]
			for _, term := range *d.Terms {
				term = strings.TrimSpace(term)
				if term == "" {
					continue
				}
				cfg.Dictionary.Terms = append(cfg.Dictionary.Terms, term)
			}
		}
		setInt(&cfg.Dictionary.MaxTerms, d.MaxTerms)
	}

	if s := payload.Shortcuts; s != nil {
		setString(&cfg.Shortcuts.Hold, s.Hold)
		setString(&cfg.Shortcuts.Toggle, s.Toggle)
		setInt(&cfg.Shortcuts.GuardMS, s.GuardMS)
		setInt(&cfg.Shortcuts.WatchdogMS, s.WatchdogMS)
	}

	if a := payload.Audio; a != nil {
		setString(&cfg.Audio.Input, a.Input)
		setString(&cfg.Audio.Fallback, a.Fallback)
		setInt(&cfg.Audio.SampleRate, a.SampleRate)
	}

	if p := payload.Paste; p != nil {
		setBool(&cfg.Paste.Enable, p.Enable)
		setString(&cfg.Paste.Shortcut, p.Shortcut)
	}

	if payload.Transcript != nil {
		setBool(&cfg.Transcript.TrailingSpace, payload.Transcript.TrailingSpace)
	}

	if i := payload.Indicator; i != nil {
		setBool(&cfg.Indicator.Enable, i.Enable)
		setString(&cfg.Indicator.Backend, i.Backend)
		setString(&cfg.Indicator.DesktopAppName, i.DesktopAppName)
		setBool(&cfg.Indicator.SoundEnable, i.SoundEnable)
		setString(&cfg.Indicator.SoundStartFile, i.SoundStartFile)
		setString(&cfg.Indicator.SoundStopFile, i.SoundStopFile)
		setString(&cfg.Indicator.SoundCompleteFile, i.SoundCompleteFile)
		setString(&cfg.Indicator.SoundCancelFile, i.SoundCancelFile)
		setInt(&cfg.Indicator.ErrorTimeoutMS, i.ErrorTimeoutMS)
	}

	if h := payload.History; h != nil {
		setBool(&cfg.History.Enable, h.Enable)
		setString(&cfg.History.Path, h.Path)
	}

	if payload.Debug != nil {
		setBool(&cfg.Debug.EnableAudioDump, payload.Debug.AudioDump)
	}

	if payload.ClipboardCmd != nil {
		cmd, err := ParseCommand(*payload.ClipboardCmd)
		if err != nil {
			return nil, fmt.Errorf("invalid clipboard_cmd: %w", err)
		}
		cfg.Clipboard = cmd
	}

	if payload.PasteCmd != nil {
		cmd, err := ParseCommand(*payload.PasteCmd)
		if err != nil {
			return nil, fmt.Errorf("invalid paste_cmd: %w", err)
		}
		cfg.PasteCmd = cmd
	}

	return warnings, nil
}
