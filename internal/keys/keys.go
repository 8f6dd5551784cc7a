// Package keys maps human-readable accelerators to Linux input event key codes.
package keys

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Modifiers is a bit set of held modifier groups. Left and right variants share a bit.
type Modifiers uint8

const (
	ModCtrl Modifiers = 1 << iota
	ModAlt
	ModShift
	ModSuper
)

// Linux input-event-codes.h values used by the table and the hook.
const (
	CodeEsc        uint16 = 1
	CodeLeftCtrl   uint16 = 29
	CodeLeftShift  uint16 = 42
	CodeRightShift uint16 = 54
	CodeLeftAlt    uint16 = 56
	CodeRightCtrl  uint16 = 97
	CodeRightAlt   uint16 = 100
	CodeLeftMeta   uint16 = 125
	CodeRightMeta  uint16 = 126
)

// Binding is one parsed accelerator: a key code plus the modifiers that must be held.
type Binding struct {
	Accelerator string
	Modifiers   Modifiers
	Code        uint16
}

// Escape is the reserved cancel binding.
var Escape = Binding{Accelerator: "Escape", Code: CodeEsc}

var modifierAliases = map[string]Modifiers{
	"ctrl":             ModCtrl,
	"control":          ModCtrl,
	"commandorcontrol": ModCtrl,
	"cmdorctrl":        ModCtrl,
	"alt":              ModAlt,
	"option":           ModAlt,
	"altgr":            ModAlt,
	"shift":            ModShift,
	"super":            ModSuper,
	"meta":             ModSuper,
	"cmd":              ModSuper,
	"command":          ModSuper,
	"win":              ModSuper,
}

// keyCodes is the static accelerator token to evdev key code table.
var keyCodes = map[string]uint16{
	"esc": 1, "escape": 1,
	"1": 2, "2": 3, "3": 4, "4": 5, "5": 6, "6": 7, "7": 8, "8": 9, "9": 10, "0": 11,
	"-": 12, "minus": 12, "=": 13, "equal": 13, "plus": 13,
	"backspace": 14, "tab": 15,
	"q": 16, "w": 17, "e": 18, "r": 19, "t": 20, "y": 21, "u": 22, "i": 23, "o": 24, "p": 25,
	"[": 26, "]": 27, "enter": 28, "return": 28,
	"a": 30, "s": 31, "d": 32, "f": 33, "g": 34, "h": 35, "j": 36, "k": 37, "l": 38,
	";": 39, "'": 40, "`": 41, "\\": 43,
	"z": 44, "x": 45, "c": 46, "v": 47, "b": 48, "n": 49, "m": 50,
	",": 51, ".": 52, "/": 53,
	"space": 57, "capslock": 58,
	"f1": 59, "f2": 60, "f3": 61, "f4": 62, "f5": 63, "f6": 64, "f7": 65, "f8": 66, "f9": 67, "f10": 68,
	"numlock": 69, "scrolllock": 70,
	"num7": 71, "num8": 72, "num9": 73, "numsub": 74, "num4": 75, "num5": 76, "num6": 77, "numadd": 78,
	"num1": 79, "num2": 80, "num3": 81, "num0": 82, "numdec": 83,
	"f11": 87, "f12": 88,
	"numenter": 96, "numdiv": 98, "nummult": 55,
	"printscreen": 99,
	"home": 102, "up": 103, "pageup": 104, "left": 105, "right": 106,
	"end": 107, "down": 108, "pagedown": 109, "insert": 110, "delete": 111,
	"pause": 119,
	"f13": 183, "f14": 184, "f15": 185, "f16": 186, "f17": 187, "f18": 188,
	"f19": 189, "f20": 190, "f21": 191, "f22": 192, "f23": 193, "f24": 194,
	"leftctrl": CodeLeftCtrl, "rightctrl": CodeRightCtrl,
	"leftshift": CodeLeftShift, "rightshift": CodeRightShift,
	"leftalt": CodeLeftAlt, "rightalt": CodeRightAlt,
	"leftsuper": CodeLeftMeta, "rightsuper": CodeRightMeta,
	"leftmeta": CodeLeftMeta, "rightmeta": CodeRightMeta,
}

// ModifierFor reports the modifier group a physical modifier key belongs to.
func ModifierFor(code uint16) (Modifiers, bool) {
	switch code {
	case CodeLeftCtrl, CodeRightCtrl:
		return ModCtrl, true
	case CodeLeftShift, CodeRightShift:
		return ModShift, true
	case CodeLeftAlt, CodeRightAlt:
		return ModAlt, true
	case CodeLeftMeta, CodeRightMeta:
		return ModSuper, true
	default:
		return 0, false
	}
}

// ParseAccelerator parses strings such as "Ctrl+Shift+Space" or "RightCtrl".
// Exactly one non-modifier key is required; a lone physical modifier key
// (e.g. "RightCtrl") is itself the key.
func ParseAccelerator(raw string) (Binding, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Binding{}, errors.New("accelerator must not be empty")
	}

	tokens := strings.Split(raw, "+")
	if strings.HasSuffix(raw, "++") || raw == "+" {
		tokens = append(tokens[:len(tokens)-2], "plus")
	}

	var (
		mods    Modifiers
		code    uint16
		haveKey bool
	)
	for i, token := range tokens {
		name := strings.ToLower(strings.TrimSpace(token))
		if name == "" {
			return Binding{}, fmt.Errorf("accelerator %q has an empty segment", raw)
		}
		last := i == len(tokens)-1
		if mod, ok := modifierAliases[name]; ok {
			if last {
				return Binding{}, fmt.Errorf("accelerator %q has no key after modifiers", raw)
			}
			mods |= mod
			continue
		}
		if haveKey {
			return Binding{}, fmt.Errorf("accelerator %q names more than one key", raw)
		}
		c, ok := keyCodes[name]
		if !ok {
			return Binding{}, fmt.Errorf("accelerator %q: unknown key %q", raw, token)
		}
		code = c
		haveKey = true
	}
	if !haveKey {
		return Binding{}, fmt.Errorf("accelerator %q has no key", raw)
	}

	return Binding{Accelerator: raw, Modifiers: mods, Code: code}, nil
}

// ValidateBindings parses hold and toggle accelerators and rejects conflicts.
func ValidateBindings(hold, toggle string) (Binding, Binding, error) {
	holdBinding, err := ParseAccelerator(hold)
	if err != nil {
		return Binding{}, Binding{}, fmt.Errorf("hold: %w", err)
	}
	toggleBinding, err := ParseAccelerator(toggle)
	if err != nil {
		return Binding{}, Binding{}, fmt.Errorf("toggle: %w", err)
	}
	if holdBinding.Same(toggleBinding) {
		return Binding{}, Binding{}, fmt.Errorf("hold and toggle both use %s", holdBinding)
	}
	for _, b := range []Binding{holdBinding, toggleBinding} {
		if b.Same(Escape) {
			return Binding{}, Binding{}, errors.New("plain Escape is reserved for cancel")
		}
	}
	return holdBinding, toggleBinding, nil
}

// Same reports whether two bindings describe the same key combination.
func (b Binding) Same(other Binding) bool {
	return b.Code == other.Code && b.Modifiers == other.Modifiers
}

// Matches reports whether a key press with the given held modifiers triggers b.
func (b Binding) Matches(code uint16, held Modifiers) bool {
	if code != b.Code {
		return false
	}
	if own, ok := ModifierFor(code); ok {
		held &^= own
	}
	return held == b.Modifiers
}

// String renders the canonical form, e.g. "Ctrl+Shift+space".
func (b Binding) String() string {
	parts := make([]string, 0, 5)
	for _, m := range []struct {
		bit  Modifiers
		name string
	}{{ModCtrl, "Ctrl"}, {ModAlt, "Alt"}, {ModShift, "Shift"}, {ModSuper, "Super"}} {
		if b.Modifiers&m.bit != 0 {
			parts = append(parts, m.name)
		}
	}
	parts = append(parts, keyName(b.Code))
	return strings.Join(parts, "+")
}

// keyName returns the shortest table name for code.
func keyName(code uint16) string {
	names := make([]string, 0, 2)
	for name, c := range keyCodes {
		if c == code {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return fmt.Sprintf("code%d", code)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) < len(names[j])
		}
		return names[i] < names[j]
	})
	return names[0]
}
