package emu

import (
	"testing"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/cpu"
	"github.com/retroenv/retrogolib/assert"
)

// Error codes reported in VE by the self-checking program. Zero means OK.
const (
	errInit = 0x01 + iota
	errAddNoCarry
	errAddCarry
	errSubNoBorrow
	errSubBorrow
	errSubNNoBorrow
	errSubNBorrow
	errShrOdd
	errShrEven
	errShlLow
	errShlHigh
	errXor
	errBCD
	errLoadZero
	errFlags
	errIndexOverflow
	errIndexNoOverflow
)

const failMarker = 0x1FFF

// asm is a tiny assembler for test programs: checks jump to a shared fail
// label that is patched in by finish.
type asm struct {
	ops []uint16
}

func (a *asm) emit(ops ...uint16) { a.ops = append(a.ops, ops...) }

// expect fails with code unless register reg holds want.
func (a *asm) expect(code byte, reg byte, want byte) {
	a.emit(0x6E00|uint16(code), // LD VE, code
		0x3000|uint16(reg)<<8|uint16(want), // SE Vreg, want
		failMarker)
}

// finish appends "LD VE, 0" and the terminal loop, patching every failing
// jump to land on the loop.
func (a *asm) finish() []uint16 {
	a.emit(0x6E00)
	loop := uint16(0x200 + 2*len(a.ops))
	a.emit(0x1000 | loop)
	for i, op := range a.ops {
		if op == failMarker {
			a.ops[i] = 0x1000 | loop
		}
	}
	return a.ops
}

func (a *asm) binop(code byte, op uint16, x, y, want, vf byte) {
	a.emit(0x6000|uint16(x), 0x6100|uint16(y), op)
	a.expect(code, 0x0, want)
	a.expect(code, 0xF, vf)
}

func conformanceProgram() []uint16 {
	var a asm
	// VE first, before anything writes it
	a.emit(0x3E00, failMarker)
	for r := byte(0); r < 16; r++ {
		if r != 0xE {
			a.expect(errInit, r, 0)
		}
	}

	a.binop(errAddNoCarry, 0x8014, 254, 1, 255, 0)
	a.binop(errAddCarry, 0x8014, 255, 1, 0, 1)
	a.binop(errSubNoBorrow, 0x8015, 1, 1, 0, 1)
	a.binop(errSubBorrow, 0x8015, 0, 1, 255, 0)
	a.binop(errSubNNoBorrow, 0x8017, 1, 1, 0, 1)
	a.binop(errSubNBorrow, 0x8017, 1, 0, 255, 0)
	a.binop(errShrOdd, 0x8016, 255, 0, 127, 1)
	a.binop(errShrEven, 0x8016, 64, 0, 32, 0)
	a.binop(errShlLow, 0x801E, 32, 0, 64, 0)
	a.binop(errShlHigh, 0x801E, 250, 0, 244, 1)
	a.emit(0x6000|244, 0x6100|123, 0x8013)
	a.expect(errXor, 0x0, 143)

	// BCD of 234 read back through FX65
	a.emit(0x6000|234, 0xA400, 0xF033, 0xF265)
	a.expect(errBCD, 0x0, 2)
	a.expect(errBCD, 0x1, 3)
	a.expect(errBCD, 0x2, 4)

	// zeros at 0x600 must overwrite nonzero registers
	a.emit(0x60FF, 0x61FF, 0x62FF, 0x63FF, 0xA600, 0xF365)
	for r := byte(0); r < 4; r++ {
		a.expect(errLoadZero, r, 0)
	}

	// HP48 flags round-trip
	for r := byte(0); r < 8; r++ {
		a.emit(0x6000 | uint16(r)<<8 | uint16(0x11*(r+1)))
	}
	a.emit(0xF775)
	for r := byte(0); r < 8; r++ {
		a.emit(0x6000 | uint16(r)<<8)
	}
	a.emit(0xF785)
	for r := byte(0); r < 8; r++ {
		a.expect(errFlags, r, 0x11*(r+1))
	}

	// FX1E wraps to 0; reading there yields the first font row
	a.emit(0xAFFF, 0x6001, 0xF01E)
	a.expect(errIndexOverflow, 0xF, 1)
	a.emit(0xF065)
	a.expect(errIndexOverflow, 0x0, 0xF0)
	a.emit(0xAFFE, 0x6001, 0xF01E)
	a.expect(errIndexNoOverflow, 0xF, 0)

	return a.finish()
}

func runToLoop(t *testing.T, m *Machine, maxFrames int) {
	t.Helper()
	for i := 0; i < maxFrames; i++ {
		if err := m.StepFrame(); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if m.AtTerminalLoop() {
			return
		}
	}
	t.Fatalf("program did not reach its terminal loop in %d frames", maxFrames)
}

func TestConformance_SelfCheckReportsOK(t *testing.T) {
	m := newMachine(t, conformanceProgram()...)
	runToLoop(t, m, 120)
	r := m.Registers()
	if r.V[0xE] != 0 {
		t.Fatalf("self check reported ERROR %d", r.V[0xE])
	}
	assert.Equal(t, cpu.Running, m.State())
}

func TestConformance_DetectsBrokenBorrowFlag(t *testing.T) {
	// flip the expected VF of the first SUB check: the program must notice
	prog := conformanceProgram()
	for i := 0; i+5 < len(prog); i++ {
		if prog[i] == 0x8015 && prog[i+5] == 0x3F01 {
			prog[i+5] = 0x3F00
			break
		}
	}
	m := newMachine(t, prog...)
	runToLoop(t, m, 120)
	assert.Equal(t, byte(errSubNoBorrow), m.Registers().V[0xE])
}
