package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultFileName names an export after the moment it is taken.
func DefaultFileName(t time.Time) string {
	return "recording-" + t.Format("20060102-150405") + ".wav"
}

// Export writes the last recording to path as a WAVE file. The recording
// itself is left as it was whether or not the export succeeds.
func (a *App) Export(path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state.Phase != Stopped || !a.state.HasData || a.buf == nil {
		return newError(ErrNoRecording, "Nothing to save", a.dev, nil)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return newError(ErrExport, "Can't create file", a.dev, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return newError(ErrExport, "Can't create file", a.dev, err)
	}
	n, err := a.buf.WriteTo(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return newError(ErrExport, fmt.Sprintf("Can't write %s", filepath.Base(path)), a.dev, err)
	}

	a.log.Info().Str("path", path).Int64("bytes", n).Msg("Recording exported")
	return nil
}
