//go:build linux

package hotkey

/*
#cgo pkg-config: x11
#include <X11/Xlib.h>
#include <X11/keysym.h>
#include <stdlib.h>

Display* displayPtr = NULL;

int openDisplay() {
    if (displayPtr == NULL) {
        displayPtr = XOpenDisplay(NULL);
    }
    return displayPtr != NULL;
}

int keycodeFor(const char* name) {
    if (!openDisplay()) return 0;
    KeySym sym = XStringToKeysym(name);
    if (sym == NoSymbol) return 0;
    return XKeysymToKeycode(displayPtr, sym);
}

int grabKey(int keycode, int modifiers) {
    if (!openDisplay()) return 0;

    Window root = DefaultRootWindow(displayPtr);
    XGrabKey(displayPtr, keycode, modifiers, root, False, GrabModeAsync, GrabModeAsync);
    XSelectInput(displayPtr, root, KeyPressMask | KeyReleaseMask);
    XSync(displayPtr, False);

    return 1;
}

void ungrabKey(int keycode, int modifiers) {
    if (displayPtr == NULL) return;
    XUngrabKey(displayPtr, keycode, modifiers, DefaultRootWindow(displayPtr));
    XSync(displayPtr, False);
}

int checkEvent(int* keycode, int* state, int* pressed) {
    if (displayPtr == NULL) return 0;

    XEvent event;
    if (XPending(displayPtr) > 0) {
        XNextEvent(displayPtr, &event);
        if (event.type == KeyPress || event.type == KeyRelease) {
            *keycode = event.xkey.keycode;
            *state = event.xkey.state;
            *pressed = (event.type == KeyPress) ? 1 : 0;
            return 1;
        }
    }
    return 0;
}
*/
import "C"

import (
	"fmt"
	"sync"
	"time"
	"unsafe"
)

// Grabs are repeated with these lock modifiers so the hotkey still fires
// with Caps Lock or Num Lock on.
var lockVariants = []int{0, x11LockMask, x11Mod2Mask, x11LockMask | x11Mod2Mask}

type binding struct {
	keycode   int
	modifiers int
}

type linuxManager struct {
	mu        sync.Mutex
	callbacks map[binding]func(bool)
	stop      chan struct{}
	closeOnce sync.Once
}

// New creates a new Linux hotkey manager using X11
func New() (Manager, error) {
	if C.openDisplay() == 0 {
		return nil, fmt.Errorf("failed to open X display")
	}
	mgr := &linuxManager{
		callbacks: make(map[binding]func(bool)),
		stop:      make(chan struct{}),
	}

	go mgr.eventLoop()

	return mgr, nil
}

func resolve(accel string) (binding, error) {
	acc, err := ParseAccelerator(accel)
	if err != nil {
		return binding{}, err
	}
	name := C.CString(x11KeysymName(acc.Key))
	defer C.free(unsafe.Pointer(name))

	keycode := int(C.keycodeFor(name))
	if keycode == 0 {
		return binding{}, fmt.Errorf("%w: no keycode for %q", ErrInvalidAccelerator, acc.Key)
	}
	return binding{keycode: keycode, modifiers: x11Modifiers(acc.Mods)}, nil
}

func (m *linuxManager) Register(accel string, callback func(pressed bool)) error {
	b, err := resolve(accel)
	if err != nil {
		return err
	}

	for _, lock := range lockVariants {
		if C.grabKey(C.int(b.keycode), C.int(b.modifiers|lock)) == 0 {
			return fmt.Errorf("failed to grab key %s", accel)
		}
	}

	m.mu.Lock()
	m.callbacks[b] = callback
	m.mu.Unlock()
	return nil
}

func (m *linuxManager) eventLoop() {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			var keycode, state, pressed C.int
			if C.checkEvent(&keycode, &state, &pressed) == 0 {
				continue
			}
			b := binding{
				keycode:   int(keycode),
				modifiers: int(state) &^ (x11LockMask | x11Mod2Mask),
			}
			m.mu.Lock()
			cb, ok := m.callbacks[b]
			m.mu.Unlock()
			if ok {
				cb(pressed == 1)
			}
		}
	}
}

func (m *linuxManager) Unregister(accel string) error {
	b, err := resolve(accel)
	if err != nil {
		return err
	}
	for _, lock := range lockVariants {
		C.ungrabKey(C.int(b.keycode), C.int(b.modifiers|lock))
	}

	m.mu.Lock()
	delete(m.callbacks, b)
	m.mu.Unlock()
	return nil
}

func (m *linuxManager) Close() error {
	m.closeOnce.Do(func() { close(m.stop) })
	return nil
}
