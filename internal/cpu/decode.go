package cpu

import "fmt"

// Op is the closed set of operations the decoder produces.
type Op int

const (
	OpUnknown Op = iota
	OpSys
	OpClear
	OpReturn
	OpScrollDown
	OpScrollRight
	OpScrollLeft
	OpExit
	OpLowRes
	OpHighRes
	OpJump
	OpCall
	OpSkipEqByte
	OpSkipNeByte
	OpSkipEqReg
	OpLoadByte
	OpAddByte
	OpLoad
	OpOr
	OpAnd
	OpXor
	OpAdd
	OpSub
	OpShiftRight
	OpSubN
	OpShiftLeft
	OpSkipNeReg
	OpLoadIndex
	OpJumpOffset
	OpRandom
	OpDraw
	OpSkipKey
	OpSkipNotKey
	OpLoadDelay
	OpWaitKey
	OpSetDelay
	OpSetSound
	OpAddIndex
	OpFont
	OpBigFont
	OpBCD
	OpStore
	OpLoadMem
	OpSaveFlags
	OpLoadFlags
)

// SCHIP reports whether the operation only exists in the SCHIP instruction set.
func (o Op) SCHIP() bool {
	switch o {
	case OpScrollDown, OpScrollRight, OpScrollLeft, OpExit, OpLowRes, OpHighRes,
		OpBigFont, OpSaveFlags, OpLoadFlags:
		return true
	}
	return false
}

// Instruction is a decoded opcode with all of its nibble fields extracted.
type Instruction struct {
	Op  Op
	X   byte
	Y   byte
	N   byte
	NN  byte
	NNN uint16
	Raw uint16
}

// Decode splits opcode into its fields and classifies it.
func Decode(opcode uint16) (Instruction, error) {
	in := Instruction{
		X:   byte(opcode>>8) & 0x0F,
		Y:   byte(opcode>>4) & 0x0F,
		N:   byte(opcode) & 0x0F,
		NN:  byte(opcode),
		NNN: opcode & 0x0FFF,
		Raw: opcode,
	}

	switch opcode >> 12 {
	case 0x0:
		switch {
		case opcode == 0x00E0:
			in.Op = OpClear
		case opcode == 0x00EE:
			in.Op = OpReturn
		case opcode&0xFFF0 == 0x00C0:
			in.Op = OpScrollDown
		case opcode == 0x00FB:
			in.Op = OpScrollRight
		case opcode == 0x00FC:
			in.Op = OpScrollLeft
		case opcode == 0x00FD:
			in.Op = OpExit
		case opcode == 0x00FE:
			in.Op = OpLowRes
		case opcode == 0x00FF:
			in.Op = OpHighRes
		default:
			in.Op = OpSys
		}
	case 0x1:
		in.Op = OpJump
	case 0x2:
		in.Op = OpCall
	case 0x3:
		in.Op = OpSkipEqByte
	case 0x4:
		in.Op = OpSkipNeByte
	case 0x5:
		if in.N == 0 {
			in.Op = OpSkipEqReg
		}
	case 0x6:
		in.Op = OpLoadByte
	case 0x7:
		in.Op = OpAddByte
	case 0x8:
		switch in.N {
		case 0x0:
			in.Op = OpLoad
		case 0x1:
			in.Op = OpOr
		case 0x2:
			in.Op = OpAnd
		case 0x3:
			in.Op = OpXor
		case 0x4:
			in.Op = OpAdd
		case 0x5:
			in.Op = OpSub
		case 0x6:
			in.Op = OpShiftRight
		case 0x7:
			in.Op = OpSubN
		case 0xE:
			in.Op = OpShiftLeft
		}
	case 0x9:
		if in.N == 0 {
			in.Op = OpSkipNeReg
		}
	case 0xA:
		in.Op = OpLoadIndex
	case 0xB:
		in.Op = OpJumpOffset
	case 0xC:
		in.Op = OpRandom
	case 0xD:
		in.Op = OpDraw
	case 0xE:
		switch in.NN {
		case 0x9E:
			in.Op = OpSkipKey
		case 0xA1:
			in.Op = OpSkipNotKey
		}
	case 0xF:
		switch in.NN {
		case 0x07:
			in.Op = OpLoadDelay
		case 0x0A:
			in.Op = OpWaitKey
		case 0x15:
			in.Op = OpSetDelay
		case 0x18:
			in.Op = OpSetSound
		case 0x1E:
			in.Op = OpAddIndex
		case 0x29:
			in.Op = OpFont
		case 0x30:
			in.Op = OpBigFont
		case 0x33:
			in.Op = OpBCD
		case 0x55:
			in.Op = OpStore
		case 0x65:
			in.Op = OpLoadMem
		case 0x75:
			in.Op = OpSaveFlags
		case 0x85:
			in.Op = OpLoadFlags
		}
	}

	if in.Op == OpUnknown {
		return in, fmt.Errorf("%w: %04X", ErrUnknownInstruction, opcode)
	}
	return in, nil
}
