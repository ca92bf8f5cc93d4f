package memory

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestMemory_ReadWrite(t *testing.T) {
	m := New()
	if err := m.Write(0x300, 0x42); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := m.Read(0x300)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != 0x42 {
		t.Fatalf("read got %02x want 42", got)
	}

	// last valid byte
	assert.NoError(t, m.Write(Size-1, 0x99))
	v, err := m.Read(Size - 1)
	assert.NoError(t, err)
	assert.Equal(t, byte(0x99), v)
}

func TestMemory_OutOfBounds(t *testing.T) {
	m := New()
	if _, err := m.Read(Size); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("read past end: got %v want ErrOutOfBounds", err)
	}
	if err := m.Write(0xFFFF, 1); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("write past end: got %v want ErrOutOfBounds", err)
	}
	if _, err := m.Read16(Size - 1); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("fetch straddling end: got %v want ErrOutOfBounds", err)
	}
	if _, err := m.ReadSlice(Size-2, 3); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("slice past end: got %v want ErrOutOfBounds", err)
	}
	if err := m.WriteSlice(Size-1, []byte{1, 2}); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("write slice past end: got %v want ErrOutOfBounds", err)
	}
}

func TestMemory_FontLoaded(t *testing.T) {
	m := New()
	for digit := byte(0); digit < 16; digit++ {
		glyph, err := m.ReadSlice(FontAddr(digit), fontGlyphSize)
		assert.NoError(t, err)
		assert.Equal(t, font[int(digit)*fontGlyphSize:int(digit+1)*fontGlyphSize], glyph)
	}
	// "0" glyph, first row
	b, _ := m.Read(FontAddr(0))
	assert.Equal(t, byte(0xF0), b)
	// big "1"
	b, _ = m.Read(BigFontAddr(1))
	assert.Equal(t, byte(0x18), b)

	// fonts survive a reset, program area does not
	assert.NoError(t, m.Write(ProgramStart, 0xAA))
	assert.NoError(t, m.Write(FontAddr(3), 0x00))
	m.Reset()
	b, _ = m.Read(ProgramStart)
	assert.Equal(t, byte(0), b)
	b, _ = m.Read(FontAddr(3))
	assert.Equal(t, byte(0xF0), b)
}

func TestMemory_FontAddrUsesLowNibble(t *testing.T) {
	assert.Equal(t, uint16(0x000), FontAddr(0))
	assert.Equal(t, uint16(0x04B), FontAddr(0xF))
	assert.Equal(t, FontAddr(0x1A), FontAddr(0x0A))
	assert.Equal(t, uint16(0x050+9*10), BigFontAddr(9))
}

func TestMemory_LoadProgram(t *testing.T) {
	m := New()
	if err := m.LoadProgram(nil); !errors.Is(err, ErrEmptyROM) {
		t.Fatalf("empty rom: got %v", err)
	}
	if err := m.LoadProgram(make([]byte, Size-ProgramStart+1)); !errors.Is(err, ErrROMTooLarge) {
		t.Fatalf("oversized rom: got %v", err)
	}
	assert.NoError(t, m.LoadProgram(make([]byte, Size-ProgramStart)))

	assert.NoError(t, m.LoadProgram([]byte{0x12, 0x34}))
	op, err := m.Read16(ProgramStart)
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x1234), op)
}

func TestMemory_SnapshotRestore(t *testing.T) {
	m := New()
	assert.NoError(t, m.Write(0x456, 0x7E))
	snap := m.Snapshot()

	m.Reset()
	assert.NoError(t, m.Restore(snap))
	b, _ := m.Read(0x456)
	assert.Equal(t, byte(0x7E), b)

	if err := m.Restore(snap[:10]); err == nil {
		t.Fatalf("restore of short snapshot should fail")
	}
}
