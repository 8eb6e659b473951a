package marshal

import (
	"rimebridge/internal/native"
	"rimebridge/internal/proto"
)

// ParseKeyEvent parses repr with the engine's parser and reads back the
// keycode, the modifier mask and the canonical representation. Text the
// parser does not understand yields its fallback event; this never fails.
func ParseKeyEvent(reg Registry, keys native.KeyTable, repr string) proto.KeyEvent {
	keycode, modifier := keys.ParseKeyEvent(repr)
	return reg.KeyEvent(keycode, modifier, keys.KeyEventRepr(keycode, modifier))
}

// FormatKeyEvent returns the canonical representation of a key event.
func FormatKeyEvent(keys native.KeyTable, keycode, modifier int) string {
	return keys.KeyEventRepr(keycode, modifier)
}

// ModifierByName resolves a modifier name; unknown names give 0.
func ModifierByName(keys native.KeyTable, name string) int {
	return keys.ModifierByName(name)
}

// KeycodeByName resolves a key name; unknown names give native.VoidSymbol.
func KeycodeByName(keys native.KeyTable, name string) int {
	return keys.KeycodeByName(name)
}

// KeyUnicode returns the printable code point of keycode, or 0.
func KeyUnicode(keys native.KeyTable, keycode int) int {
	return keys.KeyUnicode(keycode)
}
