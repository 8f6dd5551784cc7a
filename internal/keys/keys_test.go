package keys

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAccelerator(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Binding
		wantErr string
	}{
		{name: "single function key", input: "F9", want: Binding{Accelerator: "F9", Code: 67}},
		{name: "modifiers and space", input: "Ctrl+Shift+Space", want: Binding{Accelerator: "Ctrl+Shift+Space", Modifiers: ModCtrl | ModShift, Code: 57}},
		{name: "aliases", input: "CommandOrControl+Option+D", want: Binding{Accelerator: "CommandOrControl+Option+D", Modifiers: ModCtrl | ModAlt, Code: 32}},
		{name: "super letter", input: "super+shift+d", want: Binding{Accelerator: "super+shift+d", Modifiers: ModSuper | ModShift, Code: 32}},
		{name: "physical modifier key", input: "RightCtrl", want: Binding{Accelerator: "RightCtrl", Code: CodeRightCtrl}},
		{name: "high function key", input: "F24", want: Binding{Accelerator: "F24", Code: 194}},
		{name: "plus key", input: "Ctrl++", want: Binding{Accelerator: "Ctrl++", Modifiers: ModCtrl, Code: 13}},
		{name: "keypad", input: "Alt+Num5", want: Binding{Accelerator: "Alt+Num5", Modifiers: ModAlt, Code: 76}},
		{name: "empty", input: "  ", wantErr: "must not be empty"},
		{name: "modifier only", input: "Ctrl+Shift", wantErr: "no key after modifiers"},
		{name: "lone modifier alias", input: "Ctrl", wantErr: "no key after modifiers"},
		{name: "unknown key", input: "Ctrl+Banana", wantErr: "unknown key"},
		{name: "two keys", input: "A+B", wantErr: "more than one key"},
		{name: "empty segment", input: "Ctrl++A", wantErr: "empty segment"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseAccelerator(tc.input)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestValidateBindingsRejectsConflicts(t *testing.T) {
	_, _, err := ValidateBindings("Ctrl+Space", "control+space")
	require.Error(t, err)
	require.Contains(t, err.Error(), "hold and toggle both use")

	_, _, err = ValidateBindings("Escape", "F9")
	require.Error(t, err)
	require.Contains(t, err.Error(), "reserved for cancel")

	_, _, err = ValidateBindings("", "F9")
	require.Error(t, err)
	require.Contains(t, err.Error(), "hold:")

	hold, toggle, err := ValidateBindings("RightCtrl", "Super+Shift+D")
	require.NoError(t, err)
	require.Equal(t, CodeRightCtrl, hold.Code)
	require.Equal(t, ModSuper|ModShift, toggle.Modifiers)
}

func TestBindingMatches(t *testing.T) {
	toggle, err := ParseAccelerator("Super+Shift+D")
	require.NoError(t, err)
	require.True(t, toggle.Matches(32, ModSuper|ModShift))
	require.False(t, toggle.Matches(32, ModSuper))
	require.False(t, toggle.Matches(32, ModSuper|ModShift|ModCtrl))
	require.False(t, toggle.Matches(33, ModSuper|ModShift))

	hold, err := ParseAccelerator("RightCtrl")
	require.NoError(t, err)
	require.True(t, hold.Matches(CodeRightCtrl, 0))
	require.True(t, hold.Matches(CodeRightCtrl, ModCtrl))
	require.False(t, hold.Matches(CodeLeftCtrl, 0))
	require.False(t, hold.Matches(CodeRightCtrl, ModShift))

	require.True(t, Escape.Matches(CodeEsc, 0))
	require.False(t, Escape.Matches(CodeEsc, ModShift))
}

func TestModifierFor(t *testing.T) {
	mod, ok := ModifierFor(CodeRightAlt)
	require.True(t, ok)
	require.Equal(t, ModAlt, mod)

	_, ok = ModifierFor(57)
	require.False(t, ok)
}

func TestBindingString(t *testing.T) {
	b, err := ParseAccelerator("shift+ctrl+space")
	require.NoError(t, err)
	require.Equal(t, "Ctrl+Shift+space", b.String())
}
