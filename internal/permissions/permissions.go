package permissions

import (
	"errors"
	"fmt"
)

// Microphone authorization states, as reported by AVFoundation.
const (
	PermissionNotDetermined = 0
	PermissionRestricted    = 1
	PermissionDenied        = 2
	PermissionAuthorized    = 3
)

var ErrMicrophone = errors.New("microphone permission not granted")

// microphoneError maps an authorization state to the error EnsurePermissions
// returns, or nil when recording is allowed.
func microphoneError(status int) error {
	switch status {
	case PermissionAuthorized:
		return nil
	case PermissionNotDetermined:
		return fmt.Errorf("%w: waiting for approval, restart after allowing access", ErrMicrophone)
	case PermissionRestricted:
		return fmt.Errorf("%w: restricted by system policy", ErrMicrophone)
	default:
		return fmt.Errorf("%w: allow it in System Settings → Privacy & Security → Microphone", ErrMicrophone)
	}
}
