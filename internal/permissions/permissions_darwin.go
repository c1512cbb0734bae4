//go:build darwin

package permissions

/*
#cgo LDFLAGS: -framework AVFoundation
#import <AVFoundation/AVFoundation.h>

int checkMicrophonePermission() {
    AVAuthorizationStatus status = [AVCaptureDevice authorizationStatusForMediaType:AVMediaTypeAudio];
    return (int)status;
}

void requestMicrophonePermission() {
    [AVCaptureDevice requestAccessForMediaType:AVMediaTypeAudio completionHandler:^(BOOL granted) {}];
}
*/
import "C"

// CheckMicrophone returns the current microphone permission status
func CheckMicrophone() int {
	return int(C.checkMicrophonePermission())
}

// RequestMicrophone triggers the system microphone permission dialog
func RequestMicrophone() {
	C.requestMicrophonePermission()
}

// EnsurePermissions checks microphone access and asks for it when the user
// has not decided yet.
func EnsurePermissions() error {
	status := CheckMicrophone()
	if status == PermissionNotDetermined {
		RequestMicrophone()
	}
	return microphoneError(status)
}
