package keytable

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rimebridge/internal/native"
)

func TestParseKeyEvent(t *testing.T) {
	tests := []struct {
		repr     string
		keycode  int
		modifier int
	}{
		{"", 0, 0},
		{"a", 0x61, 0},
		{"A", 0x41, 0},
		{"1", 0x31, 0},
		{"+", 0x2b, 0},
		{"space", 0x20, 0},
		{"Return", 0xff0d, 0},
		{"Page_Up", 0xff55, 0},
		{"Prior", 0xff55, 0},
		{"Control+a", 0x61, ControlMask},
		{"Control+Shift+a", 0x61, ControlMask | ShiftMask},
		{"Release+Shift_L", 0xffe1, ReleaseMask},
		{"Super+Hyper+Meta+F12", 0xffc9, SuperMask | HyperMask | MetaMask},
		{"0x1234", 0x1234, 0},

		// fallbacks
		{"Nonsense", native.VoidSymbol, 0},
		{"Control+Nonsense", native.VoidSymbol, ControlMask},
		{"Bogus+a", 0, 0},
		{"Alt+Bogus+a", 0, AltMask},
		{"Control++", 0, ControlMask},
	}

	table := New()
	for _, tt := range tests {
		t.Run(tt.repr, func(t *testing.T) {
			keycode, modifier := table.ParseKeyEvent(tt.repr)
			assert.Equal(t, tt.keycode, keycode, "keycode")
			assert.Equal(t, tt.modifier, modifier, "modifier")
		})
	}
}

func TestRepr(t *testing.T) {
	tests := []struct {
		keycode  int
		modifier int
		want     string
	}{
		{0x61, 0, "a"},
		{0x61, ControlMask | ShiftMask, "Shift+Control+a"},
		{0xff55, 0, "Page_Up"},
		{0xff0d, ReleaseMask, "Release+Return"},
		{0, 0, "0x0000"},
		{0x1234, AltMask, "Alt+0x1234"},
		{0x123456, 0, "0x123456"},
		{0x1000000, 0, "(unknown)"},
		{native.VoidSymbol, 0, "VoidSymbol"},
		{0x61, 1 << 13, "a"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Repr(tt.keycode, tt.modifier))
		})
	}
}

func TestParseReprRoundTrip(t *testing.T) {
	inputs := []string{
		"", "a", "z", "Z", "~", " ", "space", "Return", "Control+Shift+a",
		"Shift+Control+a", "Release+Alt+Tab", "Next", "KP_Prior", "F35",
		"Bogus+a", "Control+Bogus", "Lock+Caps_Lock", "0x00e9", "0xabcdef",
		"Button1+Button5+Home", "VoidSymbol",
	}

	table := New()
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			keycode, modifier := table.ParseKeyEvent(in)
			repr := table.KeyEventRepr(keycode, modifier)

			k2, m2 := table.ParseKeyEvent(repr)
			assert.Equal(t, keycode, k2, "keycode after re-parsing %q", repr)
			assert.Equal(t, modifier, m2, "modifier after re-parsing %q", repr)
		})
	}
}

func TestModifierByName(t *testing.T) {
	assert.Equal(t, ShiftMask, ModifierByName("Shift"))
	assert.Equal(t, LockMask, ModifierByName("Lock"))
	assert.Equal(t, ReleaseMask, ModifierByName("Release"))
	assert.Equal(t, 1<<12, ModifierByName("Button5"))
	assert.Zero(t, ModifierByName(""))
	assert.Zero(t, ModifierByName("shift"))
	assert.Zero(t, ModifierByName("Nonsense"))

	assert.Equal(t, "Control", ModifierName(ControlMask))
	assert.Empty(t, ModifierName(ControlMask|ShiftMask))
}

func TestKeycodeByName(t *testing.T) {
	assert.Equal(t, 0x20, KeycodeByName("space"))
	assert.Equal(t, 0xffff, KeycodeByName("Delete"))
	assert.Equal(t, 0xff7e, KeycodeByName("script_switch"))
	assert.Equal(t, native.VoidSymbol, KeycodeByName("Nonsense"))
	assert.Equal(t, native.VoidSymbol, KeycodeByName("0x"))
	assert.Equal(t, native.VoidSymbol, KeycodeByName("0x1000000"))
	assert.Equal(t, native.VoidSymbol, KeycodeByName("0xzz"))
}

func TestUnicode(t *testing.T) {
	tests := []struct {
		name    string
		keycode int
		want    int
	}{
		{"space", 0x20, ' '},
		{"letter", 0x61, 'a'},
		{"tilde", 0x7e, '~'},
		{"nbsp", 0xa0, 0xa0},
		{"ydiaeresis", 0xff, 0xff},
		{"unicode euro", 0x010020ac, 0x20ac},
		{"unicode han", 0x01004e2d, 0x4e2d},
		{"keypad digit", 0xffb7, '7'},
		{"keypad add", 0xffab, '+'},
		{"keypad space", 0xff80, ' '},

		{"nul", 0, 0},
		{"delete ascii", 0x7f, 0},
		{"backspace", 0xff08, 0},
		{"return", 0xff0d, 0},
		{"escape", 0xff1b, 0},
		{"f1", 0xffbe, 0},
		{"shift", 0xffe1, 0},
		{"unicode c1 control", 0x01000085, 0},
		{"unicode surrogate", 0x0100d800, 0},
		{"void", native.VoidSymbol, 0},
	}

	table := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, table.KeyUnicode(tt.keycode))
		})
	}
}
