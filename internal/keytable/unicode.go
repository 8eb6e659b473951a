package keytable

// keypadChars maps keypad keysyms that produce text.
var keypadChars = map[int]int{
	0xff80: ' ',
	0xffaa: '*',
	0xffab: '+',
	0xffac: ',',
	0xffad: '-',
	0xffae: '.',
	0xffaf: '/',
	0xffbd: '=',
}

// Unicode returns the printable code point produced by keycode, or 0 for
// control keys, function keys and unassigned keysyms.
func Unicode(keycode int) int {
	switch {
	case keycode >= 0x20 && keycode <= 0x7e:
		return keycode
	case keycode >= 0xa0 && keycode <= 0xff:
		return keycode
	case keycode >= 0xffb0 && keycode <= 0xffb9:
		return '0' + keycode - 0xffb0
	case keycode >= 0x01000020 && keycode <= 0x0110ffff:
		cp := keycode - 0x01000000
		if cp >= 0x7f && cp < 0xa0 {
			return 0
		}
		if cp >= 0xd800 && cp <= 0xdfff {
			return 0
		}
		return cp
	}
	return keypadChars[keycode]
}
