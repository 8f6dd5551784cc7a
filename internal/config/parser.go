package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Parse reads JSONC configuration content layered over base.
func Parse(content string, base Config) (Config, []Warning, error) {
	if strings.TrimSpace(content) == "" {
		warnings, err := Validate(base)
		if err != nil {
			return Config{}, nil, err
		}
		return base, warnings, nil
	}

	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}
	if !strings.HasPrefix(strings.TrimSpace(normalized), "{") {
		return Config{}, nil, fmt.Errorf("config must be a JSONC object")
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := cloneConfig(base)
	warnings, err := payload.applyTo(&cfg)
	if err != nil {
		return Config{}, nil, err
	}

	validated, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, append(warnings, validated...), nil
}

// cloneConfig copies slice fields so overlays never alias the base config.
func cloneConfig(cfg Config) Config {
	out := cfg
	out.Dictionary.Terms = append([]string(nil), cfg.Dictionary.Terms...)
	out.Clipboard.Argv = append([]string(nil), cfg.Clipboard.Argv...)
	out.PasteCmd.Argv = append([]string(nil), cfg.PasteCmd.Argv...)
	return out
}
