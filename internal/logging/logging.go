package logging

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New creates a new zerolog logger with console and rotating file output
func New() zerolog.Logger {
	return NewWithLevel("info")
}

// NewWithLevel is New with the given minimum level; unknown levels fall back to info.
func NewWithLevel(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	multi := zerolog.MultiLevelWriter(
		zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339},
		fileWriter(),
	)

	return zerolog.New(multi).Level(lvl).With().Timestamp().Caller().Logger()
}

func fileWriter() io.Writer {
	logPath := LogPath()

	// Ensure directory exists; lumberjack creates the file itself
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return io.Discard
	}

	return &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
}

// LogPath returns platform-specific log file path
func LogPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Logs"
	case "windows":
		base = os.Getenv("LOCALAPPDATA")
	default:
		if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.local/state"
		}
	}

	return filepath.Join(base, "capture-tray", "capture-tray.log")
}
