package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("expected defaults when the file is missing, got %v", err)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("expected log level info, got %q", cfg.LogLevel)
	}
	if cfg.Audio.FramesPerBuffer != 512 {
		t.Errorf("expected 512 frames per buffer, got %d", cfg.Audio.FramesPerBuffer)
	}
	if cfg.Audio.InputPair != 0 {
		t.Errorf("expected input pair 0, got %d", cfg.Audio.InputPair)
	}
	if cfg.Audio.Gain != 1.0 {
		t.Errorf("expected gain 1.0, got %v", cfg.Audio.Gain)
	}
	if cfg.Hotkey == "" {
		t.Error("expected a default hotkey")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"log_level": "debug", "audio": {"device_id": "ASIO Box", "input_pair": 4, "gain": 0.5}}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level debug, got %q", cfg.LogLevel)
	}
	if cfg.Audio.DeviceID != "ASIO Box" {
		t.Errorf("expected device ASIO Box, got %q", cfg.Audio.DeviceID)
	}
	if cfg.Audio.InputPair != 4 {
		t.Errorf("expected input pair 4, got %d", cfg.Audio.InputPair)
	}
	if cfg.Audio.Gain != 0.5 {
		t.Errorf("expected gain 0.5, got %v", cfg.Audio.Gain)
	}
	// Unset keys keep their defaults.
	if cfg.Audio.FramesPerBuffer != 512 {
		t.Errorf("expected default frames per buffer, got %d", cfg.Audio.FramesPerBuffer)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CAPTURE_TRAY_AUDIO_DEVICE_ID", "Env Device")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Audio.DeviceID != "Env Device" {
		t.Errorf("expected env override, got %q", cfg.Audio.DeviceID)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "odd input pair", data: `{"audio": {"input_pair": 3}}`},
		{name: "gain too high", data: `{"audio": {"gain": 1.5}}`},
		{name: "malformed json", data: `{"audio": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			if err := os.WriteFile(path, []byte(tt.data), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadFrom(path); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}

	cfg.Audio.InputPair = 2
	cfg.Audio.Gain = 0.25
	cfg.Export.CopyPath = true
	if err := cfg.Save(); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	reloaded, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Audio.InputPair != 2 || reloaded.Audio.Gain != 0.25 || !reloaded.Export.CopyPath {
		t.Fatalf("unexpected reloaded config %+v", reloaded)
	}
}
