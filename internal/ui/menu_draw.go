package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

const (
	lineHeight = 14
	charWidth  = 6 // debug font glyph width
)

var mainMenuItems = []string{
	"Save state",
	"Load state",
	"Select Slot",
	"Switch ROM",
	"Settings",
	"Keybindings",
	"Close",
}

func (a *App) drawMainMenu(screen *ebiten.Image) {
	lines := []string{"Menu:"}
	for i, item := range mainMenuItems {
		if i < 2 {
			item = fmt.Sprintf("%s (slot %d)", item, a.currentSlot+1)
		}
		lines = append(lines, "  "+item)
	}
	for i, s := range lines {
		prefix := "  "
		if i == a.menuIdx+1 {
			prefix = "> "
		}
		ebitenutil.DebugPrintAt(screen, prefix+s, 10, 10+i*lineHeight)
	}
	// quick hints, keep on-screen
	hint := "F5: Save  F9: Load  F2: Reset  F12: Screenshot  Backspace: Back"
	y := 10 + len(lines)*lineHeight
	for _, w := range a.wrapText(hint, a.maxCharsForText(10)) {
		ebitenutil.DebugPrintAt(screen, w, 10, y)
		y += lineHeight
	}
}

func (a *App) drawSlotMenu(screen *ebiten.Image) {
	// Show the slots, mark empty ones
	lines := []string{"Select Slot:"}
	for i := 0; i < numSlots; i++ {
		state := "[empty]"
		if _, err := os.Stat(a.statePath(i)); err == nil {
			state = ""
		}
		lines = append(lines, fmt.Sprintf("  %d %s", i+1, state))
	}
	for i, s := range lines {
		prefix := "  "
		if i == a.menuIdx+1 {
			prefix = "> "
		}
		ebitenutil.DebugPrintAt(screen, prefix+s, 10, 10+i*lineHeight)
	}
}

func (a *App) drawRomMenu(screen *ebiten.Image) {
	ebitenutil.DebugPrintAt(screen, a.truncateText("Select ROM (Enter to load, Backspace/Esc to return)", a.maxCharsForText(10)), 10, 10)
	ebitenutil.DebugPrintAt(screen, a.truncateText("Dir: "+a.cfg.ROMsDir, a.maxCharsForText(10)), 10, 24)
	if len(a.romList) == 0 {
		ebitenutil.DebugPrintAt(screen, "No ROMs found", 10, 40)
		return
	}
	baseY := 40
	maxRows := a.visibleRows(baseY)
	end := min(a.romOff+maxRows, len(a.romList))
	maxChars := max(a.maxCharsForText(10)-2, 1) // account for "> " prefix
	for i, p := range a.romList[a.romOff:end] {
		prefix := "  "
		if a.romOff+i == a.romSel {
			prefix = "> "
		}
		ebitenutil.DebugPrintAt(screen, prefix+a.truncateText(filepath.Base(p), maxChars), 10, baseY+i*lineHeight)
	}
	// scroll indicators
	if a.romOff > 0 {
		ebitenutil.DebugPrintAt(screen, "^", 2, baseY)
	}
	if end < len(a.romList) {
		ebitenutil.DebugPrintAt(screen, "v", 2, baseY+(maxRows-1)*lineHeight)
	}
}

var keyHelp = []string{
	"Keypad  1 2 3 C  ->  1 2 3 4",
	"        4 5 6 D  ->  Q W E R",
	"        7 8 9 E  ->  A S D F",
	"        A 0 B F  ->  Z X C V",
	"P: Pause",
	"N: Step one instruction (when paused)",
	"Tab: Fast-forward",
	"F2: Reset",
	"F5/F9: Save/Load state",
	"M: Mute",
	"F12: Screenshot",
	"Esc: Open/Close Menu",
}

func (a *App) drawKeysMenu(screen *ebiten.Image) {
	cursorY := 10
	for _, w := range a.wrapText("Keybindings (Up/Down to scroll, Backspace/Esc to return)", a.maxCharsForText(10)) {
		ebitenutil.DebugPrintAt(screen, w, 10, cursorY)
		cursorY += lineHeight
	}
	baseY := cursorY + 4
	maxRows := a.visibleRows(baseY)
	a.keysOff = max(0, min(a.keysOff, len(keyHelp)-1))
	end := min(a.keysOff+maxRows, len(keyHelp))
	for i := a.keysOff; i < end; i++ {
		ebitenutil.DebugPrintAt(screen, a.truncateText(keyHelp[i], a.maxCharsForText(10)), 10, baseY+(i-a.keysOff)*lineHeight)
	}
	if a.keysOff > 0 {
		ebitenutil.DebugPrintAt(screen, "^", 2, baseY)
	}
	if end < len(keyHelp) {
		ebitenutil.DebugPrintAt(screen, "v", 2, baseY+(maxRows-1)*lineHeight)
	}
}

func (a *App) settingsItems() []string {
	return []string{
		fmt.Sprintf("Scale: %dx", a.cfg.Scale),
		fmt.Sprintf("Sound: %s", map[bool]string{true: "Off", false: "On"}[a.audioMuted.Load()]),
		fmt.Sprintf("Speed: %d ips", a.m.IPS()),
	}
}

func (a *App) drawSettingsMenu(screen *ebiten.Image) {
	cursorY := 10
	for _, w := range a.wrapText("Settings (Up/Down select; Left/Right change; Backspace/Esc: back)", a.maxCharsForText(10)) {
		ebitenutil.DebugPrintAt(screen, w, 10, cursorY)
		cursorY += lineHeight
	}
	for i, item := range a.settingsItems() {
		prefix := "  "
		if i == a.menuIdx {
			prefix = "> "
		}
		ebitenutil.DebugPrintAt(screen, a.truncateText(prefix+item, a.maxCharsForText(10)), 10, cursorY+i*lineHeight)
	}
}

func (a *App) visibleRows(baseY int) int {
	return max((a.curH-baseY)/lineHeight, 1)
}

// maxCharsForText is how many debug-font characters fit from x to the right edge.
func (a *App) maxCharsForText(x int) int {
	return max((a.curW-x-4)/charWidth, 1)
}

func (a *App) truncateText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

// wrapText breaks s on spaces into lines of at most n characters.
func (a *App) wrapText(s string, n int) []string {
	var lines []string
	line := ""
	for _, w := range strings.Fields(s) {
		switch {
		case line == "":
			line = w
		case len(line)+1+len(w) <= n:
			line += " " + w
		default:
			lines = append(lines, line)
			line = w
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}
