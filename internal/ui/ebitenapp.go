package ui

import (
	"fmt"
	"image/color"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/emu"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// keymap binds the hex keypad to the left side of a QWERTY keyboard:
//
//	1 2 3 C      1 2 3 4
//	4 5 6 D  ->  Q W E R
//	7 8 9 E      A S D F
//	A 0 B F      Z X C V
var keymap = [16]ebiten.Key{
	0x0: ebiten.KeyX,
	0x1: ebiten.Key1, 0x2: ebiten.Key2, 0x3: ebiten.Key3, 0xC: ebiten.Key4,
	0x4: ebiten.KeyQ, 0x5: ebiten.KeyW, 0x6: ebiten.KeyE, 0xD: ebiten.KeyR,
	0x7: ebiten.KeyA, 0x8: ebiten.KeyS, 0x9: ebiten.KeyD, 0xE: ebiten.KeyF,
	0xA: ebiten.KeyZ, 0xB: ebiten.KeyC, 0xF: ebiten.KeyV,
}

const (
	fastForwardFrames = 5
	numSlots          = 4
)

type App struct {
	cfg    Config
	m      *emu.Machine
	tex    *ebiten.Image
	texW   int
	texH   int
	paused bool
	fast   bool
	fault  error

	// overlay/menu
	showMenu    bool
	menuMode    string // "main", "slot", "rom", "keys", "settings"
	menuIdx     int
	currentSlot int
	romList     []string
	romSel      int
	romOff      int
	keysOff     int
	curW, curH  int

	toastMsg   string
	toastUntil time.Time

	// audio
	audioCtx    *audio.Context
	audioPlayer *audio.Player
	audioSrc    *toneStream
	audioMuted  atomic.Bool // read by the audio goroutine
}

func NewApp(cfg Config, m *emu.Machine) *App {
	cfg.Defaults()
	a := &App{cfg: cfg, m: m, menuMode: "main"}
	a.audioMuted.Store(cfg.Muted)
	a.applyWindowSize()
	a.setTitle()
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	a.setupAudio()
	return a
}

// Run opens the window and blocks until it is closed or the program exits.
// A fault that stopped the machine is returned after the window closes.
func (a *App) Run() error {
	if err := ebiten.RunGame(a); err != nil {
		return err
	}
	return a.fault
}

func (a *App) applyWindowSize() {
	ebiten.SetWindowSize(64*a.cfg.Scale, 32*a.cfg.Scale)
}

func (a *App) setTitle() {
	title := a.cfg.Title
	if r := a.m.ROM(); r != nil && r.Name != "" {
		title = a.cfg.Title + " - [" + r.Name + "]"
	}
	ebiten.SetWindowTitle(title)
}

func (a *App) Update() error {
	// Toggle menu (Escape)
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) && (!a.showMenu || a.menuMode == "main") {
		a.showMenu = !a.showMenu
		a.menuMode = "main"
		a.menuIdx = 0
	}
	if a.showMenu {
		// keypad is released while the menu has focus
		a.m.SetKeys([16]bool{})
		a.updateMenu()
		return nil
	}

	// Keyboard -> keypad
	var keys [16]bool
	for k, key := range keymap {
		keys[k] = ebiten.IsKeyPressed(key)
	}
	a.m.SetKeys(keys)

	// Pause toggle (P)
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		a.paused = !a.paused
	}

	// Fast-forward (Tab): while held, run multiple frames per Ebiten update
	a.fast = ebiten.IsKeyPressed(ebiten.KeyTab)

	// Reset (F2)
	if inpututil.IsKeyJustPressed(ebiten.KeyF2) {
		if err := a.m.Reset(); err != nil {
			a.toast("Reset failed: " + err.Error())
		} else {
			a.fault = nil
			a.toast("Reset")
		}
	}

	// Quick save/load on the current slot
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		a.saveSlot(a.currentSlot)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF9) {
		a.loadSlot(a.currentSlot)
	}

	// Mute (M)
	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		a.toggleMute()
	}

	// Screenshot (F12)
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		a.saveScreenshot()
	}

	if a.m.ROM() == nil {
		return nil
	}

	switch a.m.State() {
	case cpu.Halted:
		return ebiten.Termination
	case cpu.Faulted:
		return nil
	}

	// Instruction-step when paused (N)
	if a.paused {
		if inpututil.IsKeyJustPressed(ebiten.KeyN) {
			a.record(a.m.Step())
		}
		return nil
	}

	frames := 1
	if a.fast {
		frames = fastForwardFrames
	}
	for i := 0; i < frames && a.fault == nil; i++ {
		a.record(a.m.StepFrame())
	}
	return nil
}

func (a *App) record(err error) {
	if err != nil && a.fault == nil {
		a.fault = err
	}
}

func (a *App) Draw(screen *ebiten.Image) {
	w, h := a.m.Resolution()
	if a.tex == nil || a.texW != w || a.texH != h {
		a.tex = ebiten.NewImage(w, h)
		a.texW, a.texH = w, h
	}
	a.tex.WritePixels(a.m.Framebuffer())

	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	op := &ebiten.DrawImageOptions{}
	scale := min(float64(sw)/float64(w), float64(sh)/float64(h))
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate((float64(sw)-float64(w)*scale)/2, (float64(sh)-float64(h)*scale)/2)
	screen.DrawImage(a.tex, op)

	if a.showMenu {
		screen.Fill(color.RGBA{0, 0, 0, 0xC0})
		switch a.menuMode {
		case "slot":
			a.drawSlotMenu(screen)
		case "rom":
			a.drawRomMenu(screen)
		case "keys":
			a.drawKeysMenu(screen)
		case "settings":
			a.drawSettingsMenu(screen)
		default:
			a.drawMainMenu(screen)
		}
		return
	}

	if a.m.ROM() == nil {
		ebitenutil.DebugPrintAt(screen, "No ROM loaded. Esc: Menu > Switch ROM", 4, 4)
	} else if a.fault != nil {
		for i, line := range a.wrapText("FAULT: "+a.fault.Error(), a.maxCharsForText(4)) {
			ebitenutil.DebugPrintAt(screen, line, 4, 4+i*14)
		}
		ebitenutil.DebugPrintAt(screen, "F2: Reset  Esc: Menu", 4, sh-18)
	} else if a.paused {
		r := a.m.Registers()
		in, _ := a.m.Instruction()
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("PAUSED  PC=%03X %s", r.PC, in), 4, 4)
	}
	if a.toastMsg != "" && time.Now().Before(a.toastUntil) {
		ebitenutil.DebugPrintAt(screen, a.truncateText(a.toastMsg, a.maxCharsForText(4)), 4, sh-18)
	}
}

func (a *App) Layout(outW, outH int) (int, int) {
	a.curW, a.curH = outW, outH
	return outW, outH
}

func (a *App) toggleMute() { a.audioMuted.Store(!a.audioMuted.Load()) }

func (a *App) toast(msg string) {
	a.toastMsg = msg
	a.toastUntil = time.Now().Add(2 * time.Second)
}

func (a *App) statePath(slot int) string { return a.m.StatePath(a.cfg.StatesDir, slot) }

func (a *App) saveSlot(slot int) {
	if err := a.m.SaveStateToFile(a.statePath(slot)); err != nil {
		a.toast("Save failed: " + err.Error())
		return
	}
	a.toast(fmt.Sprintf("Saved slot %d", slot+1))
}

func (a *App) loadSlot(slot int) {
	if err := a.m.LoadStateFromFile(a.statePath(slot)); err != nil {
		a.toast("Load failed: " + err.Error())
		return
	}
	a.fault = nil
	a.toast(fmt.Sprintf("Loaded slot %d", slot+1))
}

func (a *App) saveScreenshot() {
	ts := time.Now().Format("20060102_150405")
	path := filepath.Join(a.cfg.ScreenshotDir, fmt.Sprintf("screenshot_%s.png", ts))
	if err := a.m.SaveScreenshot(path, a.cfg.Scale); err != nil {
		a.toast("Screenshot failed: " + err.Error())
		return
	}
	a.toast("Saved " + filepath.Base(path))
}
