package tray

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/getlantern/systray"
	"github.com/ncruces/zenity"
	"github.com/petems/capture-tray/internal/app"
	"github.com/petems/capture-tray/internal/config"
	"github.com/petems/capture-tray/internal/logging"
	"github.com/rs/zerolog"
)

const pollInterval = 200 * time.Millisecond

// levels offered in the Level menu, in percent.
var levels = []int{0, 25, 50, 75, 100}

type UI struct {
	app     *app.App
	cfg     *config.Config
	version string
	commit  string
	log     zerolog.Logger

	mu     sync.Mutex
	status string

	// Menu items
	mRecord    *systray.MenuItem
	mPlay      *systray.MenuItem
	mSave      *systray.MenuItem
	mInputs    *systray.MenuItem
	mLevel     *systray.MenuItem
	mCopyPath  *systray.MenuItem
	inputItems map[int]*systray.MenuItem
	levelItems []*systray.MenuItem
}

// Status update methods for the app to call. The app may hold its own lock
// while calling these, so they must not call back into it.
func (u *UI) SetIdle() {
	u.setStatus("idle")
}

func (u *UI) SetRecording() {
	u.setStatus("recording")
}

func (u *UI) SetReady() {
	u.setStatus("ready")
}

func (u *UI) SetPlaying() {
	u.setStatus("playing")
}

func (u *UI) SetError() {
	u.setStatus("error")
}

func New(application *app.App, cfg *config.Config, log zerolog.Logger, version, commit string) *UI {
	return &UI{
		app:     application,
		cfg:     cfg,
		version: version,
		commit:  commit,
		log:     log.With().Str("component", "tray").Logger(),
		status:  "idle",
	}
}

// SetApp sets the app reference (for circular dependency resolution)
func (u *UI) SetApp(application *app.App) {
	u.app = application
}

// Run blocks on the tray's main loop until Quit or ctx is cancelled.
func (u *UI) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		systray.Quit()
	}()
	systray.Run(func() { u.onReady(ctx) }, u.onExit)
	return nil
}

func (u *UI) onReady(ctx context.Context) {
	u.updateTitle()
	systray.SetTooltip("Audio recorder")

	// Build menu
	u.mRecord = systray.AddMenuItem("Record", "Start or stop recording")
	u.mPlay = systray.AddMenuItem("Play", "Play the last recording")
	u.mSave = systray.AddMenuItem("Save…", "Save the last recording as WAVE")
	systray.AddSeparator()

	u.mInputs = systray.AddMenuItem("Input", "Select input channel pair")
	u.buildInputMenu()

	u.mLevel = systray.AddMenuItem("Level", "Input level of the selected pair")
	u.buildLevelMenu()

	systray.AddSeparator()
	u.mCopyPath = systray.AddMenuItemCheckbox("Copy Path on Save", "Copy the saved file's path to the clipboard", u.cfg.Export.CopyPath)

	systray.AddSeparator()
	mLogs := systray.AddMenuItem("Open Logs", "View application logs")
	mAbout := systray.AddMenuItem("About", "About Capture Tray")
	mQuit := systray.AddMenuItem("Quit", "Exit application")

	u.refreshMenu()

	// Event loop
	go u.handleEvents(ctx, mLogs, mAbout, mQuit)
}

func (u *UI) handleEvents(ctx context.Context, mLogs, mAbout, mQuit *systray.MenuItem) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			u.tick()
		case f := <-u.app.Faults():
			if err := u.app.HandleFault(f); err != nil {
				u.showError(err)
			}
			u.refreshMenu()
		case <-u.mRecord.ClickedCh:
			u.ToggleRecording()
		case <-u.mPlay.ClickedCh:
			u.play()
		case <-u.mSave.ClickedCh:
			u.save()
		case <-u.mCopyPath.ClickedCh:
			u.toggleCopyPath()
		case <-mLogs.ClickedCh:
			u.openLogs()
		case <-mAbout.ClickedCh:
			u.showAbout()
		case <-mQuit.ClickedCh:
			systray.Quit()
			return
		}
	}
}

// ToggleRecording starts or stops recording and reports any failure. The
// hotkey calls it too.
func (u *UI) ToggleRecording() {
	if err := u.app.ToggleRecording(); err != nil {
		u.showError(err)
	}
	u.refreshMenu()
}

func (u *UI) play() {
	if err := u.app.Play(); err != nil {
		u.showError(err)
	}
	u.refreshMenu()
}

func (u *UI) save() {
	suggested := filepath.Join(u.cfg.Export.Directory, app.DefaultFileName(time.Now()))
	path, err := zenity.SelectFileSave(
		zenity.Title("Save Recording"),
		zenity.Filename(suggested),
		zenity.ConfirmOverwrite(),
		zenity.FileFilter{Name: "WAVE audio", Patterns: []string{"*.wav"}},
	)
	if errors.Is(err, zenity.ErrCanceled) {
		return
	}
	if err != nil {
		u.showError(fmt.Errorf("file dialog failed: %w", err))
		return
	}
	path = withWavExt(path)

	if err := u.app.Export(path); err != nil {
		u.showError(err)
		return
	}

	u.cfg.Export.Directory = filepath.Dir(path)
	if err := u.cfg.Save(); err != nil {
		u.log.Warn().Err(err).Msg("Failed to save config")
	}
	if u.cfg.Export.CopyPath {
		if err := clipboard.WriteAll(path); err != nil {
			u.log.Warn().Err(err).Msg("Failed to copy path to clipboard")
		}
	}
}

func (u *UI) buildInputMenu() {
	selected := u.app.SelectedInput()
	u.inputItems = make(map[int]*systray.MenuItem)

	for _, pair := range u.app.Inputs() {
		item := u.mInputs.AddSubMenuItem(pair.Name, "")
		if pair.Base == selected.Base {
			item.Check()
		}
		u.inputItems[pair.Base] = item

		go func(p app.InputPair, menuItem *systray.MenuItem) {
			for range menuItem.ClickedCh {
				if err := u.app.SelectInput(p.Base); err != nil {
					u.showError(err)
					u.refreshMenu()
					continue
				}
				for base, itm := range u.inputItems {
					if base != p.Base {
						itm.Uncheck()
					}
				}
				menuItem.Check()
				u.checkLevel(u.app.Gain(p.Base))
				u.cfg.Audio.InputPair = p.Base
				if err := u.cfg.Save(); err != nil {
					u.log.Warn().Err(err).Msg("Failed to save config")
				}
				u.log.Info().Str("input", p.Name).Msg("Changed input pair")
				u.refreshMenu()
			}
		}(pair, item)
	}
}

func (u *UI) buildLevelMenu() {
	current := u.app.Gain(u.app.SelectedInput().Base)

	for _, pct := range levels {
		item := u.mLevel.AddSubMenuItem(fmt.Sprintf("%d%%", pct), "")
		u.levelItems = append(u.levelItems, item)

		go func(pct int, menuItem *systray.MenuItem) {
			for range menuItem.ClickedCh {
				level := float32(pct) / 100
				if err := u.app.SetGain(u.app.SelectedInput().Base, level); err != nil {
					u.showError(err)
					continue
				}
				u.checkLevel(level)
				u.cfg.Audio.Gain = float64(level)
				if err := u.cfg.Save(); err != nil {
					u.log.Warn().Err(err).Msg("Failed to save config")
				}
			}
		}(pct, item)
	}
	u.checkLevel(current)
}

func (u *UI) checkLevel(gain float32) {
	idx := nearestLevel(gain)
	for i, item := range u.levelItems {
		if i == idx {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
}

func (u *UI) toggleCopyPath() {
	u.cfg.Export.CopyPath = !u.cfg.Export.CopyPath
	if u.cfg.Export.CopyPath {
		u.mCopyPath.Check()
		u.log.Info().Msg("Enabled copying saved path")
	} else {
		u.mCopyPath.Uncheck()
		u.log.Info().Msg("Disabled copying saved path")
	}
	if err := u.cfg.Save(); err != nil {
		u.log.Warn().Err(err).Msg("Failed to save config")
	}
}

// refreshMenu matches the menu to the recorder state.
func (u *UI) refreshMenu() {
	if u.mRecord == nil {
		return
	}
	state := u.app.State()
	if state.Phase == app.Recording {
		u.mRecord.SetTitle("Stop")
	} else {
		u.mRecord.SetTitle("Record")
	}
	for _, item := range []*systray.MenuItem{u.mPlay, u.mSave} {
		if state.Phase == app.Stopped && state.HasData {
			item.Enable()
		} else {
			item.Disable()
		}
	}
}

func (u *UI) tick() {
	u.mu.Lock()
	if u.status == "playing" {
		if p, err := u.app.Progress(); err != nil || !p.Active {
			u.status = "ready"
		}
	}
	u.mu.Unlock()
	u.updateTitle()
}

func (u *UI) openLogs() {
	path := logging.LogPath()
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("explorer", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	if err := cmd.Start(); err != nil {
		u.log.Error().Err(err).Str("path", path).Msg("Failed to open logs")
		return
	}
	go cmd.Wait()
}

func (u *UI) showAbout() {
	text := fmt.Sprintf("Capture Tray %s (%s)\nRecords stereo input to WAVE", u.version, u.commit)
	if err := zenity.Info(text, zenity.Title("About"), zenity.InfoIcon); err != nil && !errors.Is(err, zenity.ErrCanceled) {
		u.log.Warn().Err(err).Msg("Failed to show about dialog")
	}
}

// showError reports err in a modal message box.
func (u *UI) showError(err error) {
	u.log.Error().Err(err).Msg("Action failed")
	if derr := zenity.Error(err.Error(), zenity.Title("Error"), zenity.ErrorIcon); derr != nil && !errors.Is(derr, zenity.ErrCanceled) {
		u.log.Warn().Err(derr).Msg("Failed to show error dialog")
	}
}

func (u *UI) onExit() {
	u.log.Debug().Msg("Tray exited")
}

func (u *UI) setStatus(status string) {
	u.mu.Lock()
	u.status = status
	u.mu.Unlock()
	u.updateTitle()
}

// updateTitle sets the tray title from the status and recording progress.
func (u *UI) updateTitle() {
	u.mu.Lock()
	status := u.status
	u.mu.Unlock()

	var recorded int64
	if status == "recording" {
		recorded = u.app.RecordedLength()
	}
	p, err := u.app.Progress()
	systray.SetTitle(statusTitle(status, recorded, p, err == nil))
}

// statusTitle renders the tray title.
func statusTitle(status string, recorded int64, p app.Progress, hasSource bool) string {
	emoji := emojiForStatus(status)
	switch {
	case status == "recording":
		return fmt.Sprintf("🎤 %s %s", emoji, formatSize(recorded))
	case hasSource && status == "playing":
		return fmt.Sprintf("🎤 %s %s / %s", emoji, formatSize(p.Position), formatSize(p.Length))
	case hasSource && status != "error":
		return fmt.Sprintf("🎤 %s %s", emoji, formatSize(p.Length))
	default:
		return fmt.Sprintf("🎤 %s", emoji)
	}
}

// emojiForStatus returns the appropriate status emoji
func emojiForStatus(status string) string {
	switch status {
	case "recording":
		return "🔴" // Red - recording
	case "playing":
		return "▶️" // Playing back
	case "ready":
		return "🟢" // Green - recording available
	case "error":
		return "⚪️" // White - error
	default:
		return "⚫️" // Nothing recorded yet
	}
}

// formatSize renders a byte count with a binary unit.
func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// nearestLevel returns the index in levels closest to gain.
func nearestLevel(gain float32) int {
	best, bestDiff := 0, math.Inf(1)
	for i, pct := range levels {
		if d := math.Abs(float64(gain)*100 - float64(pct)); d < bestDiff {
			best, bestDiff = i, d
		}
	}
	return best
}

func withWavExt(path string) string {
	if filepath.Ext(path) == "" {
		return path + ".wav"
	}
	return path
}
