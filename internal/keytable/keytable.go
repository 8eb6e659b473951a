// Package keytable is a pure-Go implementation of the Rime key event grammar.
//
// It is used as the engine's key table when the binary is built without
// librime, and follows librime's behavior: key names are X11 keysym names,
// modifiers are prefixed and joined with '+', and a failed parse yields the
// partially parsed event instead of an error.
//
//	"a"                -> keycode 0x61, modifier 0
//	"Control+Shift+a"  -> keycode 0x61, modifier Shift|Control
//	"Release+Return"   -> keycode 0xff0d, modifier Release
//	"Hyper+Nonsense"   -> keycode VoidSymbol, modifier Hyper
package keytable

import (
	"fmt"
	"strconv"
	"strings"

	"rimebridge/internal/native"
)

var (
	byName  = make(map[string]int, len(keyNames))
	byValue = make(map[int]string, len(keyNames))
)

func init() {
	for _, k := range keyNames {
		byName[k.name] = k.value
		if _, ok := byValue[k.value]; !ok {
			byValue[k.value] = k.name
		}
	}
}

// Table implements native.KeyTable without cgo.
type Table struct{}

var _ native.KeyTable = Table{}

// New returns the pure-Go key table.
func New() Table {
	return Table{}
}

// Default returns librime's key table when the binary links librime and the
// pure-Go table otherwise.
func Default() native.KeyTable {
	if keys, err := native.Keys(); err == nil {
		return keys
	}
	return New()
}

// ParseKeyEvent parses repr. See the package documentation for the grammar.
func (Table) ParseKeyEvent(repr string) (keycode, modifier int) {
	if repr == "" {
		return 0, 0
	}
	if len(repr) == 1 {
		return int(repr[0]), 0
	}
	rest := repr
	for {
		i := strings.IndexByte(rest, '+')
		if i < 0 {
			break
		}
		mask := ModifierByName(rest[:i])
		if mask == 0 {
			// unrecognized modifier: the engine stops here with keycode 0
			return 0, modifier
		}
		modifier |= mask
		rest = rest[i+1:]
	}
	return KeycodeByName(rest), modifier
}

// KeyEventRepr returns the canonical representation of a key event.
func (Table) KeyEventRepr(keycode, modifier int) string {
	return Repr(keycode, modifier)
}

// ModifierByName implements native.KeyTable.
func (Table) ModifierByName(name string) int {
	return ModifierByName(name)
}

// KeycodeByName implements native.KeyTable.
func (Table) KeycodeByName(name string) int {
	return KeycodeByName(name)
}

// KeyUnicode implements native.KeyTable.
func (Table) KeyUnicode(keycode int) int {
	return Unicode(keycode)
}

// ModifierByName returns the mask of a modifier name, or 0.
func ModifierByName(name string) int {
	if name == "" {
		return 0
	}
	for i, n := range modifierNames {
		if n == name {
			return 1 << i
		}
	}
	return 0
}

// ModifierName returns the name of a single-bit modifier mask, or "".
func ModifierName(mask int) string {
	for i, n := range modifierNames {
		if mask == 1<<i {
			return n
		}
	}
	return ""
}

// KeycodeByName returns the keycode for a keysym name, or native.VoidSymbol.
// Hexadecimal keycodes as produced by Repr ("0x1234") are accepted too.
func KeycodeByName(name string) int {
	if v, ok := byName[name]; ok {
		return v
	}
	if strings.HasPrefix(name, "0x") && len(name) > 2 {
		if v, err := strconv.ParseUint(name[2:], 16, 32); err == nil && v <= native.VoidSymbol {
			return int(v)
		}
	}
	return native.VoidSymbol
}

// KeyName returns the canonical keysym name of keycode, or "".
func KeyName(keycode int) string {
	return byValue[keycode]
}

// Repr formats a key event the way the engine does.
func Repr(keycode, modifier int) string {
	var b strings.Builder
	for i, k := 0, uint32(modifier); k != 0; i, k = i+1, k>>1 {
		if k&1 == 0 {
			continue
		}
		if n := modifierNames[i]; n != "" {
			b.WriteString(n)
			b.WriteByte('+')
		}
	}
	if name := KeyName(keycode); name != "" {
		return b.String() + name
	}
	switch {
	case keycode >= 0 && keycode <= 0xffff:
		return b.String() + fmt.Sprintf("0x%04x", keycode)
	case keycode >= 0 && keycode <= 0xffffff:
		return b.String() + fmt.Sprintf("0x%06x", keycode)
	default:
		return "(unknown)"
	}
}
