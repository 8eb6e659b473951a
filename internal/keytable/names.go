package keytable

// keyName binds an X11 keysym name to its value. Where several names share a
// value the first one listed is canonical.
type keyName struct {
	name  string
	value int
}

// modifierNames is indexed by bit position.
var modifierNames = [32]string{
	0:  "Shift",
	1:  "Lock",
	2:  "Control",
	3:  "Alt",
	4:  "Mod2",
	5:  "Mod3",
	6:  "Mod4",
	7:  "Mod5",
	8:  "Button1",
	9:  "Button2",
	10: "Button3",
	11: "Button4",
	12: "Button5",
	26: "Super",
	27: "Hyper",
	28: "Meta",
	30: "Release",
}

// Modifier masks.
const (
	ShiftMask   = 1 << 0
	LockMask    = 1 << 1
	ControlMask = 1 << 2
	AltMask     = 1 << 3
	SuperMask   = 1 << 26
	HyperMask   = 1 << 27
	MetaMask    = 1 << 28
	ReleaseMask = 1 << 30
)

var keyNames = []keyName{
	// Latin-1, printable ASCII
	{"space", 0x020},
	{"exclam", 0x021},
	{"quotedbl", 0x022},
	{"numbersign", 0x023},
	{"dollar", 0x024},
	{"percent", 0x025},
	{"ampersand", 0x026},
	{"apostrophe", 0x027},
	{"quoteright", 0x027},
	{"parenleft", 0x028},
	{"parenright", 0x029},
	{"asterisk", 0x02a},
	{"plus", 0x02b},
	{"comma", 0x02c},
	{"minus", 0x02d},
	{"period", 0x02e},
	{"slash", 0x02f},
	{"0", 0x030},
	{"1", 0x031},
	{"2", 0x032},
	{"3", 0x033},
	{"4", 0x034},
	{"5", 0x035},
	{"6", 0x036},
	{"7", 0x037},
	{"8", 0x038},
	{"9", 0x039},
	{"colon", 0x03a},
	{"semicolon", 0x03b},
	{"less", 0x03c},
	{"equal", 0x03d},
	{"greater", 0x03e},
	{"question", 0x03f},
	{"at", 0x040},
	{"A", 0x041},
	{"B", 0x042},
	{"C", 0x043},
	{"D", 0x044},
	{"E", 0x045},
	{"F", 0x046},
	{"G", 0x047},
	{"H", 0x048},
	{"I", 0x049},
	{"J", 0x04a},
	{"K", 0x04b},
	{"L", 0x04c},
	{"M", 0x04d},
	{"N", 0x04e},
	{"O", 0x04f},
	{"P", 0x050},
	{"Q", 0x051},
	{"R", 0x052},
	{"S", 0x053},
	{"T", 0x054},
	{"U", 0x055},
	{"V", 0x056},
	{"W", 0x057},
	{"X", 0x058},
	{"Y", 0x059},
	{"Z", 0x05a},
	{"bracketleft", 0x05b},
	{"backslash", 0x05c},
	{"bracketright", 0x05d},
	{"asciicircum", 0x05e},
	{"underscore", 0x05f},
	{"grave", 0x060},
	{"quoteleft", 0x060},
	{"a", 0x061},
	{"b", 0x062},
	{"c", 0x063},
	{"d", 0x064},
	{"e", 0x065},
	{"f", 0x066},
	{"g", 0x067},
	{"h", 0x068},
	{"i", 0x069},
	{"j", 0x06a},
	{"k", 0x06b},
	{"l", 0x06c},
	{"m", 0x06d},
	{"n", 0x06e},
	{"o", 0x06f},
	{"p", 0x070},
	{"q", 0x071},
	{"r", 0x072},
	{"s", 0x073},
	{"t", 0x074},
	{"u", 0x075},
	{"v", 0x076},
	{"w", 0x077},
	{"x", 0x078},
	{"y", 0x079},
	{"z", 0x07a},
	{"braceleft", 0x07b},
	{"bar", 0x07c},
	{"braceright", 0x07d},
	{"asciitilde", 0x07e},

	// Latin-1 supplement
	{"nobreakspace", 0x0a0},
	{"exclamdown", 0x0a1},
	{"cent", 0x0a2},
	{"sterling", 0x0a3},
	{"currency", 0x0a4},
	{"yen", 0x0a5},
	{"brokenbar", 0x0a6},
	{"section", 0x0a7},
	{"diaeresis", 0x0a8},
	{"copyright", 0x0a9},
	{"ordfeminine", 0x0aa},
	{"guillemotleft", 0x0ab},
	{"notsign", 0x0ac},
	{"hyphen", 0x0ad},
	{"registered", 0x0ae},
	{"macron", 0x0af},
	{"degree", 0x0b0},
	{"plusminus", 0x0b1},
	{"twosuperior", 0x0b2},
	{"threesuperior", 0x0b3},
	{"acute", 0x0b4},
	{"mu", 0x0b5},
	{"paragraph", 0x0b6},
	{"periodcentered", 0x0b7},
	{"cedilla", 0x0b8},
	{"onesuperior", 0x0b9},
	{"masculine", 0x0ba},
	{"guillemotright", 0x0bb},
	{"onequarter", 0x0bc},
	{"onehalf", 0x0bd},
	{"threequarters", 0x0be},
	{"questiondown", 0x0bf},
	{"Agrave", 0x0c0},
	{"Aacute", 0x0c1},
	{"Acircumflex", 0x0c2},
	{"Atilde", 0x0c3},
	{"Adiaeresis", 0x0c4},
	{"Aring", 0x0c5},
	{"AE", 0x0c6},
	{"Ccedilla", 0x0c7},
	{"Egrave", 0x0c8},
	{"Eacute", 0x0c9},
	{"Ecircumflex", 0x0ca},
	{"Ediaeresis", 0x0cb},
	{"Igrave", 0x0cc},
	{"Iacute", 0x0cd},
	{"Icircumflex", 0x0ce},
	{"Idiaeresis", 0x0cf},
	{"ETH", 0x0d0},
	{"Ntilde", 0x0d1},
	{"Ograve", 0x0d2},
	{"Oacute", 0x0d3},
	{"Ocircumflex", 0x0d4},
	{"Otilde", 0x0d5},
	{"Odiaeresis", 0x0d6},
	{"multiply", 0x0d7},
	{"Oslash", 0x0d8},
	{"Ugrave", 0x0d9},
	{"Uacute", 0x0da},
	{"Ucircumflex", 0x0db},
	{"Udiaeresis", 0x0dc},
	{"Yacute", 0x0dd},
	{"THORN", 0x0de},
	{"ssharp", 0x0df},
	{"agrave", 0x0e0},
	{"aacute", 0x0e1},
	{"acircumflex", 0x0e2},
	{"atilde", 0x0e3},
	{"adiaeresis", 0x0e4},
	{"aring", 0x0e5},
	{"ae", 0x0e6},
	{"ccedilla", 0x0e7},
	{"egrave", 0x0e8},
	{"eacute", 0x0e9},
	{"ecircumflex", 0x0ea},
	{"ediaeresis", 0x0eb},
	{"igrave", 0x0ec},
	{"iacute", 0x0ed},
	{"icircumflex", 0x0ee},
	{"idiaeresis", 0x0ef},
	{"eth", 0x0f0},
	{"ntilde", 0x0f1},
	{"ograve", 0x0f2},
	{"oacute", 0x0f3},
	{"ocircumflex", 0x0f4},
	{"otilde", 0x0f5},
	{"odiaeresis", 0x0f6},
	{"division", 0x0f7},
	{"oslash", 0x0f8},
	{"ugrave", 0x0f9},
	{"uacute", 0x0fa},
	{"ucircumflex", 0x0fb},
	{"udiaeresis", 0x0fc},
	{"yacute", 0x0fd},
	{"thorn", 0x0fe},
	{"ydiaeresis", 0x0ff},

	// TTY function keys
	{"BackSpace", 0xff08},
	{"Tab", 0xff09},
	{"Linefeed", 0xff0a},
	{"Clear", 0xff0b},
	{"Return", 0xff0d},
	{"Pause", 0xff13},
	{"Scroll_Lock", 0xff14},
	{"Sys_Req", 0xff15},
	{"Escape", 0xff1b},

	// International and multi-key
	{"Multi_key", 0xff20},
	{"Kanji", 0xff21},
	{"Muhenkan", 0xff22},
	{"Henkan_Mode", 0xff23},
	{"Henkan", 0xff23},
	{"Romaji", 0xff24},
	{"Hiragana", 0xff25},
	{"Katakana", 0xff26},
	{"Hiragana_Katakana", 0xff27},
	{"Zenkaku", 0xff28},
	{"Hankaku", 0xff29},
	{"Zenkaku_Hankaku", 0xff2a},
	{"Touroku", 0xff2b},
	{"Massyo", 0xff2c},
	{"Kana_Lock", 0xff2d},
	{"Kana_Shift", 0xff2e},
	{"Eisu_Shift", 0xff2f},
	{"Eisu_toggle", 0xff30},
	{"Hangul", 0xff31},
	{"Hangul_Start", 0xff32},
	{"Hangul_End", 0xff33},
	{"Hangul_Hanja", 0xff34},
	{"Codeinput", 0xff37},
	{"SingleCandidate", 0xff3c},
	{"MultipleCandidate", 0xff3d},
	{"PreviousCandidate", 0xff3e},

	// Cursor control
	{"Home", 0xff50},
	{"Left", 0xff51},
	{"Up", 0xff52},
	{"Right", 0xff53},
	{"Down", 0xff54},
	{"Page_Up", 0xff55},
	{"Prior", 0xff55},
	{"Page_Down", 0xff56},
	{"Next", 0xff56},
	{"End", 0xff57},
	{"Begin", 0xff58},

	// Misc functions
	{"Select", 0xff60},
	{"Print", 0xff61},
	{"Execute", 0xff62},
	{"Insert", 0xff63},
	{"Undo", 0xff65},
	{"Redo", 0xff66},
	{"Menu", 0xff67},
	{"Find", 0xff68},
	{"Cancel", 0xff69},
	{"Help", 0xff6a},
	{"Break", 0xff6b},
	{"Mode_switch", 0xff7e},
	{"script_switch", 0xff7e},
	{"Num_Lock", 0xff7f},

	// Keypad
	{"KP_Space", 0xff80},
	{"KP_Tab", 0xff89},
	{"KP_Enter", 0xff8d},
	{"KP_F1", 0xff91},
	{"KP_F2", 0xff92},
	{"KP_F3", 0xff93},
	{"KP_F4", 0xff94},
	{"KP_Home", 0xff95},
	{"KP_Left", 0xff96},
	{"KP_Up", 0xff97},
	{"KP_Right", 0xff98},
	{"KP_Down", 0xff99},
	{"KP_Page_Up", 0xff9a},
	{"KP_Prior", 0xff9a},
	{"KP_Page_Down", 0xff9b},
	{"KP_Next", 0xff9b},
	{"KP_End", 0xff9c},
	{"KP_Begin", 0xff9d},
	{"KP_Insert", 0xff9e},
	{"KP_Delete", 0xff9f},
	{"KP_Multiply", 0xffaa},
	{"KP_Add", 0xffab},
	{"KP_Separator", 0xffac},
	{"KP_Subtract", 0xffad},
	{"KP_Decimal", 0xffae},
	{"KP_Divide", 0xffaf},
	{"KP_0", 0xffb0},
	{"KP_1", 0xffb1},
	{"KP_2", 0xffb2},
	{"KP_3", 0xffb3},
	{"KP_4", 0xffb4},
	{"KP_5", 0xffb5},
	{"KP_6", 0xffb6},
	{"KP_7", 0xffb7},
	{"KP_8", 0xffb8},
	{"KP_9", 0xffb9},
	{"KP_Equal", 0xffbd},

	// Function keys
	{"F1", 0xffbe},
	{"F2", 0xffbf},
	{"F3", 0xffc0},
	{"F4", 0xffc1},
	{"F5", 0xffc2},
	{"F6", 0xffc3},
	{"F7", 0xffc4},
	{"F8", 0xffc5},
	{"F9", 0xffc6},
	{"F10", 0xffc7},
	{"F11", 0xffc8},
	{"F12", 0xffc9},
	{"F13", 0xffca},
	{"F14", 0xffcb},
	{"F15", 0xffcc},
	{"F16", 0xffcd},
	{"F17", 0xffce},
	{"F18", 0xffcf},
	{"F19", 0xffd0},
	{"F20", 0xffd1},
	{"F21", 0xffd2},
	{"F22", 0xffd3},
	{"F23", 0xffd4},
	{"F24", 0xffd5},
	{"F25", 0xffd6},
	{"F26", 0xffd7},
	{"F27", 0xffd8},
	{"F28", 0xffd9},
	{"F29", 0xffda},
	{"F30", 0xffdb},
	{"F31", 0xffdc},
	{"F32", 0xffdd},
	{"F33", 0xffde},
	{"F34", 0xffdf},
	{"F35", 0xffe0},

	// Modifier keys
	{"Shift_L", 0xffe1},
	{"Shift_R", 0xffe2},
	{"Control_L", 0xffe3},
	{"Control_R", 0xffe4},
	{"Caps_Lock", 0xffe5},
	{"Shift_Lock", 0xffe6},
	{"Meta_L", 0xffe7},
	{"Meta_R", 0xffe8},
	{"Alt_L", 0xffe9},
	{"Alt_R", 0xffea},
	{"Super_L", 0xffeb},
	{"Super_R", 0xffec},
	{"Hyper_L", 0xffed},
	{"Hyper_R", 0xffee},

	{"Delete", 0xffff},
	{"VoidSymbol", 0xffffff},
}
