package config

import (
	"fmt"
	"strings"

	"github.com/rbright/murmur/internal/keys"
)

// CorrectionProviders lists accepted correction.provider values.
var CorrectionProviders = []string{"none", "foundry", "bedrock", "openai", "deepseek", "litellm"}

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if strings.TrimSpace(cfg.Speech.WhisperBin) == "" {
		return nil, fmt.Errorf("speech.whisper_bin must not be empty")
	}
	if strings.TrimSpace(cfg.Speech.Language) == "" {
		return nil, fmt.Errorf("speech.language must not be empty")
	}
	if cfg.Speech.TimeoutMS <= 0 {
		return nil, fmt.Errorf("speech.timeout_ms must be > 0")
	}
	if cfg.Speech.Threads < 0 {
		return nil, fmt.Errorf("speech.threads must be >= 0")
	}
	if strings.TrimSpace(cfg.Speech.ModelPath) == "" {
		warnings = append(warnings, Warning{Message: "speech.model is empty; recording will fail until a model is configured"})
	}

	correctionWarnings, err := validateCorrection(cfg.Correction)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, correctionWarnings...)

	if _, _, err := keys.ValidateBindings(cfg.Shortcuts.Hold, cfg.Shortcuts.Toggle); err != nil {
		return nil, fmt.Errorf("shortcuts: %w", err)
	}
	if cfg.Shortcuts.GuardMS < 0 {
		return nil, fmt.Errorf("shortcuts.guard_ms must be >= 0")
	}
	if cfg.Shortcuts.WatchdogMS <= 0 {
		return nil, fmt.Errorf("shortcuts.watchdog_ms must be > 0")
	}

	if cfg.Audio.SampleRate <= 0 {
		return nil, fmt.Errorf("audio.sample_rate must be > 0")
	}
	if cfg.Audio.SampleRate != 16000 {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("audio.sample_rate=%d; the speech engine expects 16000", cfg.Audio.SampleRate)})
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Indicator.Backend))
	if backend != "hypr" && backend != "desktop" {
		return nil, fmt.Errorf("indicator.backend must be one of: hypr, desktop")
	}
	if backend == "desktop" && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.backend=desktop")
	}
	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.error_timeout_ms must be >= 0")
	}

	if strings.TrimSpace(cfg.Clipboard.Raw) != "" && len(cfg.Clipboard.Argv) == 0 {
		return nil, fmt.Errorf("clipboard_cmd is configured but empty")
	}
	if cfg.Paste.Enable && cfg.PasteCmd.Raw != "" && len(cfg.PasteCmd.Argv) == 0 {
		return nil, fmt.Errorf("paste_cmd is configured but empty")
	}
	if cfg.Paste.Enable && len(cfg.PasteCmd.Argv) == 0 && strings.TrimSpace(cfg.Paste.Shortcut) == "" {
		return nil, fmt.Errorf("paste.shortcut must not be empty when paste.enable=true and paste_cmd is unset")
	}

	if cfg.Dictionary.MaxTerms <= 0 {
		return nil, fmt.Errorf("dictionary.max_terms must be > 0")
	}
	_, dictionaryWarnings, err := BuildDictionary(cfg)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, dictionaryWarnings...)

	return warnings, nil
}

func validateCorrection(c CorrectionConfig) ([]Warning, error) {
	warnings := make([]Warning, 0)

	provider := strings.ToLower(strings.TrimSpace(c.Provider))
	known := false
	for _, candidate := range CorrectionProviders {
		if provider == candidate {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("correction.provider must be one of: %s", strings.Join(CorrectionProviders, ", "))
	}
	if c.TimeoutMS <= 0 {
		return nil, fmt.Errorf("correction.timeout_ms must be > 0")
	}
	if !c.Enable || provider == "none" {
		return warnings, nil
	}

	if strings.TrimSpace(c.Model) == "" {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("correction.model is empty for provider %q; raw transcripts will be delivered", provider)})
	}
	if provider == "foundry" && strings.TrimSpace(c.Endpoint) == "" {
		warnings = append(warnings, Warning{Message: "correction.endpoint is required for provider \"foundry\""})
	}
	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		return nil, fmt.Errorf("correction.access_key_id and correction.secret_access_key must be set together")
	}
	return warnings, nil
}

// BuildDictionary returns configured terms deduplicated case-insensitively in declaration order.
func BuildDictionary(cfg Config) ([]string, []Warning, error) {
	if len(cfg.Dictionary.Terms) == 0 {
		return nil, nil, nil
	}

	warnings := make([]Warning, 0)
	seen := make(map[string]string, len(cfg.Dictionary.Terms))
	terms := make([]string, 0, len(cfg.Dictionary.Terms))

	for _, term := range cfg.Dictionary.Terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		key := strings.ToLower(term)
		if first, exists := seen[key]; exists {
			if first != term {
				warnings = append(warnings, Warning{Message: fmt.Sprintf("dictionary term %q duplicates %q; keeping the first spelling", term, first)})
			}
			continue
		}
		seen[key] = term
		terms = append(terms, term)
	}

	if cfg.Dictionary.MaxTerms > 0 && len(terms) > cfg.Dictionary.MaxTerms {
		return nil, nil, fmt.Errorf("dictionary term count %d exceeds dictionary.max_terms=%d", len(terms), cfg.Dictionary.MaxTerms)
	}

	return terms, warnings, nil
}
