//go:build darwin

package hotkey

/*
#cgo LDFLAGS: -framework Carbon
#include <Carbon/Carbon.h>

// Forward declaration for Go callback
extern void goHotkeyCallback(int pressed);

static EventHotKeyRef hotKeyRef = NULL;
static int handlerInstalled = 0;

// Event handler for hotkeys
static OSStatus hotkeyHandler(EventHandlerCallRef nextHandler, EventRef theEvent, void* userData) {
    EventHotKeyID hkRef;
    GetEventParameter(theEvent, kEventParamDirectObject, typeEventHotKeyID, NULL, sizeof(hkRef), NULL, &hkRef);

    UInt32 eventKind = GetEventKind(theEvent);
    int pressed = (eventKind == kEventHotKeyPressed) ? 1 : 0;

    goHotkeyCallback(pressed);

    return noErr;
}

// Register hotkey with Carbon
static int registerHotkey(UInt32 keyCode, UInt32 modifiers) {
    if (!handlerInstalled) {
        EventTypeSpec eventTypes[2];
        eventTypes[0].eventClass = kEventClassKeyboard;
        eventTypes[0].eventKind = kEventHotKeyPressed;
        eventTypes[1].eventClass = kEventClassKeyboard;
        eventTypes[1].eventKind = kEventHotKeyReleased;

        EventHandlerUPP handlerUPP = NewEventHandlerUPP(hotkeyHandler);
        InstallApplicationEventHandler(handlerUPP, 2, eventTypes, NULL, NULL);
        handlerInstalled = 1;
    }

    EventHotKeyID hotKeyID;
    hotKeyID.signature = 'ctr1';
    hotKeyID.id = 1;

    OSStatus status = RegisterEventHotKey(keyCode, modifiers, hotKeyID, GetApplicationEventTarget(), 0, &hotKeyRef);

    return (status == noErr) ? 1 : 0;
}

static void unregisterHotkey() {
    if (hotKeyRef != NULL) {
        UnregisterEventHotKey(hotKeyRef);
        hotKeyRef = NULL;
    }
}
*/
import "C"

import (
	"fmt"
	"sync"
)

// Carbon delivers a single registered hotkey to one process-wide handler.
type darwinManager struct {
	callback func(bool)
}

var (
	globalMu      sync.Mutex
	globalManager *darwinManager
)

// New creates a new macOS hotkey manager using Carbon
func New() (Manager, error) {
	mgr := &darwinManager{}
	return mgr, nil
}

//export goHotkeyCallback
func goHotkeyCallback(pressed C.int) {
	globalMu.Lock()
	m := globalManager
	globalMu.Unlock()
	if m != nil && m.callback != nil {
		m.callback(pressed == 1)
	}
}

func (m *darwinManager) Register(accel string, callback func(pressed bool)) error {
	acc, err := ParseAccelerator(accel)
	if err != nil {
		return err
	}
	keyCode, ok := carbonKeyCode(acc.Key)
	if !ok {
		return fmt.Errorf("%w: no key code for %q", ErrInvalidAccelerator, acc.Key)
	}

	globalMu.Lock()
	m.callback = callback
	globalManager = m
	globalMu.Unlock()

	C.unregisterHotkey()
	ret := C.registerHotkey(C.UInt32(keyCode), C.UInt32(carbonModifiers(acc.Mods)))
	if ret == 0 {
		return fmt.Errorf("failed to register hotkey %s", accel)
	}

	return nil
}

func (m *darwinManager) Unregister(accel string) error {
	C.unregisterHotkey()
	globalMu.Lock()
	m.callback = nil
	globalMu.Unlock()
	return nil
}

func (m *darwinManager) Close() error {
	C.unregisterHotkey()
	globalMu.Lock()
	globalManager = nil
	globalMu.Unlock()
	return nil
}
