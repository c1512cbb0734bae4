package hotkey

import "strings"

// X11 modifier masks.
const (
	x11ShiftMask   = 1
	x11LockMask    = 2
	x11ControlMask = 4
	x11Mod1Mask    = 8  // Alt
	x11Mod2Mask    = 16 // Num Lock
	x11Mod4Mask    = 64 // Super
)

// x11KeysymName is the name XStringToKeysym expects for key.
func x11KeysymName(key string) string {
	if len(key) == 1 {
		return strings.ToLower(key)
	}
	if key == "Space" {
		return "space"
	}
	return key
}

func x11Modifiers(m Modifier) int {
	var mask int
	if m&ModShift != 0 {
		mask |= x11ShiftMask
	}
	if m&ModCtrl != 0 {
		mask |= x11ControlMask
	}
	if m&ModAlt != 0 {
		mask |= x11Mod1Mask
	}
	if m&ModSuper != 0 {
		mask |= x11Mod4Mask
	}
	return mask
}

// Carbon modifier flags.
const (
	carbonCmdKey     = 0x100
	carbonShiftKey   = 0x200
	carbonOptionKey  = 0x800
	carbonControlKey = 0x1000
)

// Carbon virtual key codes for the ANSI layout.
var carbonKeyCodes = map[string]uint32{
	"A": 0, "S": 1, "D": 2, "F": 3, "H": 4, "G": 5, "Z": 6, "X": 7, "C": 8, "V": 9,
	"B": 11, "Q": 12, "W": 13, "E": 14, "R": 15, "Y": 16, "T": 17,
	"1": 18, "2": 19, "3": 20, "4": 21, "6": 22, "5": 23, "9": 25, "7": 26, "8": 28, "0": 29,
	"O": 31, "U": 32, "I": 34, "P": 35, "L": 37, "J": 38, "K": 40, "N": 45, "M": 46,
	"Return": 36, "Tab": 48, "Space": 49, "Escape": 53,
	"F1": 122, "F2": 120, "F3": 99, "F4": 118, "F5": 96, "F6": 97,
	"F7": 98, "F8": 100, "F9": 101, "F10": 109, "F11": 103, "F12": 111,
}

func carbonKeyCode(key string) (uint32, bool) {
	code, ok := carbonKeyCodes[key]
	return code, ok
}

func carbonModifiers(m Modifier) uint32 {
	var flags uint32
	if m&ModSuper != 0 {
		flags |= carbonCmdKey
	}
	if m&ModShift != 0 {
		flags |= carbonShiftKey
	}
	if m&ModAlt != 0 {
		flags |= carbonOptionKey
	}
	if m&ModCtrl != 0 {
		flags |= carbonControlKey
	}
	return flags
}
