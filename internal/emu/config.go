package emu

import (
	"image/color"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/cpu"
)

// DefaultIPS is the instruction rate used when none is configured.
const DefaultIPS = 700

// Config contains settings that affect emulation behavior.
type Config struct {
	Trace bool   // log every executed instruction
	IPS   int    // instructions per second
	Mode  string // "chip8", "schip" or "auto" (pick by file extension)
	// Permissive skips unknown opcodes (logging each once) instead of
	// faulting. The zero Config is strict.
	Permissive bool
	// Profile names a quirk preset (see QuirkProfile). Quirks is used when empty.
	Profile     string
	Quirks      cpu.Quirks
	WrapSprites bool  // wrap sprite pixels at the screen edges instead of clipping
	Seed        int64 // CXNN random source seed; 0 picks a fixed default

	Foreground color.RGBA
	Background color.RGBA
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.IPS <= 0 {
		c.IPS = DefaultIPS
	}
	if c.Mode == "" {
		c.Mode = "schip"
	}
	if c.Seed == 0 {
		c.Seed = 1
	}
	if c.Foreground == (color.RGBA{}) {
		c.Foreground = color.RGBA{0xE8, 0xE8, 0xE8, 0xFF}
	}
	if c.Background == (color.RGBA{}) {
		c.Background = color.RGBA{0x10, 0x10, 0x10, 0xFF}
	}
}

// DefaultConfig returns a strict SCHIP configuration at DefaultIPS.
func DefaultConfig() Config {
	var c Config
	c.Defaults()
	return c
}
