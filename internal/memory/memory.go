package memory

import (
	"errors"
	"fmt"
)

const (
	// Size is the addressable memory of the machine.
	Size = 0x1000
	// ProgramStart is where ROM images are loaded and execution begins.
	ProgramStart = 0x200

	// FontStart holds the 4x5 hex glyphs, 5 bytes each.
	FontStart = 0x000
	// BigFontStart holds the SCHIP 8x10 glyphs, 10 bytes each.
	BigFontStart = 0x050

	fontGlyphSize    = 5
	bigFontGlyphSize = 10
)

var (
	ErrOutOfBounds = errors.New("memory access out of bounds")
	ErrROMTooLarge = errors.New("rom exceeds program memory")
	ErrEmptyROM    = errors.New("rom is empty")
)

var font = [16 * fontGlyphSize]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

var bigFont = [16 * bigFontGlyphSize]byte{
	0x3C, 0x7E, 0xE7, 0xC3, 0xC3, 0xC3, 0xC3, 0xE7, 0x7E, 0x3C, // 0
	0x18, 0x38, 0x58, 0x18, 0x18, 0x18, 0x18, 0x18, 0x18, 0x3C, // 1
	0x3E, 0x7F, 0xC3, 0x06, 0x0C, 0x18, 0x30, 0x60, 0xFF, 0xFF, // 2
	0x3C, 0x7E, 0xC3, 0x03, 0x0E, 0x0E, 0x03, 0xC3, 0x7E, 0x3C, // 3
	0x06, 0x0E, 0x1E, 0x36, 0x66, 0xC6, 0xFF, 0xFF, 0x06, 0x06, // 4
	0xFF, 0xFF, 0xC0, 0xC0, 0xFC, 0xFE, 0x03, 0xC3, 0x7E, 0x3C, // 5
	0x3E, 0x7C, 0xE0, 0xC0, 0xFC, 0xFE, 0xC3, 0xC3, 0x7E, 0x3C, // 6
	0xFF, 0xFF, 0x03, 0x06, 0x0C, 0x18, 0x30, 0x60, 0x60, 0x60, // 7
	0x3C, 0x7E, 0xC3, 0xC3, 0x7E, 0x7E, 0xC3, 0xC3, 0x7E, 0x3C, // 8
	0x3C, 0x7E, 0xC3, 0xC3, 0x7F, 0x3F, 0x03, 0x03, 0x3E, 0x7C, // 9
	0x3C, 0x7E, 0xC3, 0xC3, 0xFF, 0xFF, 0xC3, 0xC3, 0xC3, 0xC3, // A
	0xFC, 0xFE, 0xC3, 0xC3, 0xFE, 0xFE, 0xC3, 0xC3, 0xFE, 0xFC, // B
	0x3C, 0x7E, 0xC3, 0xC0, 0xC0, 0xC0, 0xC0, 0xC3, 0x7E, 0x3C, // C
	0xFC, 0xFE, 0xC3, 0xC3, 0xC3, 0xC3, 0xC3, 0xC3, 0xFE, 0xFC, // D
	0xFF, 0xFF, 0xC0, 0xC0, 0xFC, 0xFC, 0xC0, 0xC0, 0xFF, 0xFF, // E
	0xFF, 0xFF, 0xC0, 0xC0, 0xFC, 0xFC, 0xC0, 0xC0, 0xC0, 0xC0, // F
}

// Memory is the flat 4 KiB address space of the interpreter. The low 512
// bytes hold the fonts, programs start at ProgramStart.
type Memory struct {
	data [Size]byte
}

// New returns zeroed memory with both fonts loaded.
func New() *Memory {
	m := &Memory{}
	m.LoadFont()
	return m
}

// Reset clears memory and reloads the fonts.
func (m *Memory) Reset() {
	m.data = [Size]byte{}
	m.LoadFont()
}

// LoadFont writes the built-in glyph sets into the reserved low region.
func (m *Memory) LoadFont() {
	copy(m.data[FontStart:], font[:])
	copy(m.data[BigFontStart:], bigFont[:])
}

// FontAddr returns the address of the small glyph for the low nibble of digit.
func FontAddr(digit byte) uint16 {
	return FontStart + uint16(digit&0x0F)*fontGlyphSize
}

// BigFontAddr returns the address of the 8x10 glyph for the low nibble of digit.
func BigFontAddr(digit byte) uint16 {
	return BigFontStart + uint16(digit&0x0F)*bigFontGlyphSize
}

// LoadProgram copies a ROM image to ProgramStart.
func (m *Memory) LoadProgram(rom []byte) error {
	if len(rom) == 0 {
		return ErrEmptyROM
	}
	if len(rom) > Size-ProgramStart {
		return fmt.Errorf("%w: %d bytes, room for %d", ErrROMTooLarge, len(rom), Size-ProgramStart)
	}
	copy(m.data[ProgramStart:], rom)
	return nil
}

func (m *Memory) Read(addr uint16) (byte, error) {
	if int(addr) >= Size {
		return 0, fmt.Errorf("%w: read at 0x%04X", ErrOutOfBounds, addr)
	}
	return m.data[addr], nil
}

func (m *Memory) Write(addr uint16, value byte) error {
	if int(addr) >= Size {
		return fmt.Errorf("%w: write at 0x%04X", ErrOutOfBounds, addr)
	}
	m.data[addr] = value
	return nil
}

// Read16 reads a big-endian word, as instructions are stored.
func (m *Memory) Read16(addr uint16) (uint16, error) {
	if int(addr)+1 >= Size {
		return 0, fmt.Errorf("%w: fetch at 0x%04X", ErrOutOfBounds, addr)
	}
	return uint16(m.data[addr])<<8 | uint16(m.data[addr+1]), nil
}

// ReadSlice returns a copy of n bytes starting at addr.
func (m *Memory) ReadSlice(addr uint16, n int) ([]byte, error) {
	if n < 0 || int(addr)+n > Size {
		return nil, fmt.Errorf("%w: 0x%04X-0x%04X", ErrOutOfBounds, addr, int(addr)+n)
	}
	out := make([]byte, n)
	copy(out, m.data[addr:int(addr)+n])
	return out, nil
}

// WriteSlice stores b at addr. Nothing is written if the range does not fit.
func (m *Memory) WriteSlice(addr uint16, b []byte) error {
	if int(addr)+len(b) > Size {
		return fmt.Errorf("%w: %d bytes at 0x%04X", ErrOutOfBounds, len(b), addr)
	}
	copy(m.data[addr:], b)
	return nil
}

// Snapshot returns a copy of the whole address space.
func (m *Memory) Snapshot() []byte {
	out := make([]byte, Size)
	copy(out, m.data[:])
	return out
}

// Restore replaces the address space with a previous Snapshot.
func (m *Memory) Restore(data []byte) error {
	if len(data) != Size {
		return fmt.Errorf("memory snapshot has %d bytes, want %d", len(data), Size)
	}
	copy(m.data[:], data)
	return nil
}
