package ui

// Config contains window/input/audio related settings.
type Config struct {
	Title         string  // window title
	Scale         int     // integer upscaling factor for a 64x32 screen
	ROMsDir       string  // directory to browse for ROMs
	StatesDir     string  // where save state slots are written
	ScreenshotDir string  // where F12 screenshots go
	Muted         bool    // start with the beeper silenced
	ToneHz        int     // beeper pitch
	Volume        float64 // 0..1
	AudioBufferMs int     // player buffer size
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.Title == "" {
		c.Title = "chip8emu"
	}
	if c.Scale <= 0 {
		c.Scale = 10
	}
	if c.ROMsDir == "" {
		c.ROMsDir = "roms"
	}
	if c.StatesDir == "" {
		c.StatesDir = "states"
	}
	if c.ScreenshotDir == "" {
		c.ScreenshotDir = "."
	}
	if c.ToneHz <= 0 {
		c.ToneHz = 440
	}
	if c.Volume <= 0 || c.Volume > 1 {
		c.Volume = 0.2
	}
	if c.AudioBufferMs <= 0 {
		c.AudioBufferMs = 40
	}
}
