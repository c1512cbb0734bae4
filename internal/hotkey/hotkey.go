package hotkey

import (
	"errors"
	"fmt"
	"strings"
)

// Manager defines the interface for global hotkey management
type Manager interface {
	Register(accel string, callback func(pressed bool)) error
	Unregister(accel string) error
	Close() error
}

var (
	ErrInvalidAccelerator = errors.New("invalid accelerator")
	ErrUnsupported        = errors.New("global hotkeys are not supported on this platform")
)

// Modifier is a set of modifier keys.
type Modifier uint8

const (
	ModCtrl Modifier = 1 << iota
	ModShift
	ModAlt
	ModSuper
)

// Accelerator is a parsed key combination such as "Ctrl+Shift+R".
type Accelerator struct {
	Mods Modifier
	// Key is the canonical key name: "A".."Z", "0".."9", "F1".."F12",
	// "Space", "Return", "Tab" or "Escape".
	Key string
}

func (a Accelerator) String() string {
	var parts []string
	for _, m := range []struct {
		mod  Modifier
		name string
	}{{ModCtrl, "Ctrl"}, {ModShift, "Shift"}, {ModAlt, "Alt"}, {ModSuper, "Super"}} {
		if a.Mods&m.mod != 0 {
			parts = append(parts, m.name)
		}
	}
	return strings.Join(append(parts, a.Key), "+")
}

var modifierNames = map[string]Modifier{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"shift":   ModShift,
	"alt":     ModAlt,
	"option":  ModAlt,
	"super":   ModSuper,
	"cmd":     ModSuper,
	"command": ModSuper,
	"meta":    ModSuper,
}

var namedKeys = map[string]string{
	"space":  "Space",
	"return": "Return",
	"enter":  "Return",
	"tab":    "Tab",
	"escape": "Escape",
	"esc":    "Escape",
}

// ParseAccelerator parses "Mod+Mod+Key". Names are case-insensitive and
// exactly one non-modifier key is required.
func ParseAccelerator(s string) (Accelerator, error) {
	var acc Accelerator
	parts := strings.Split(s, "+")
	for i, part := range parts {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			return Accelerator{}, fmt.Errorf("%w: empty key in %q", ErrInvalidAccelerator, s)
		}
		if i < len(parts)-1 {
			mod, ok := modifierNames[name]
			if !ok {
				return Accelerator{}, fmt.Errorf("%w: unknown modifier %q", ErrInvalidAccelerator, part)
			}
			acc.Mods |= mod
			continue
		}
		key, ok := canonicalKey(name)
		if !ok {
			return Accelerator{}, fmt.Errorf("%w: unknown key %q", ErrInvalidAccelerator, part)
		}
		acc.Key = key
	}
	return acc, nil
}

func canonicalKey(name string) (string, bool) {
	if k, ok := namedKeys[name]; ok {
		return k, true
	}
	if len(name) == 1 {
		c := name[0]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			return strings.ToUpper(name), true
		}
		return "", false
	}
	if name[0] == 'f' {
		var n int
		if _, err := fmt.Sscanf(name[1:], "%d", &n); err == nil && n >= 1 && n <= 12 && fmt.Sprint(n) == name[1:] {
			return fmt.Sprintf("F%d", n), true
		}
	}
	return "", false
}
