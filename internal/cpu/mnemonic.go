package cpu

import (
	"fmt"

	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// lookup finds opcode in the base CHIP-8 instruction set. It returns nil for
// words the base set does not define, which includes SYS and every SCHIP
// extension.
func lookup(opcode uint16) *chip8.Instruction {
	for _, op := range chip8.Opcodes[int(opcode>>12)] {
		if op.Info.Mask&opcode == op.Info.Value {
			return op.Instruction
		}
	}
	return nil
}

// Name is the assembler mnemonic of the instruction.
func (in Instruction) Name() string {
	if !in.Op.SCHIP() && in.Op != OpSys {
		if ins := lookup(in.Raw); ins != nil {
			return ins.Name
		}
	}
	switch in.Op {
	case OpSys:
		return "sys"
	case OpScrollDown:
		return "scd"
	case OpScrollRight:
		return "scr"
	case OpScrollLeft:
		return "scl"
	case OpExit:
		return "exit"
	case OpLowRes:
		return "low"
	case OpHighRes:
		return "high"
	case OpBigFont, OpSaveFlags, OpLoadFlags:
		return chip8.Ld.Name
	}
	return "dw"
}

// String renders the instruction in assembler syntax, e.g. "ld V4, K".
func (in Instruction) String() string {
	name := in.Name()
	if name == "dw" {
		return fmt.Sprintf("dw $%04X", in.Raw)
	}
	if ops := in.operands(); ops != "" {
		return name + " " + ops
	}
	return name
}

func (in Instruction) operands() string {
	x, y := in.X, in.Y
	switch in.Op {
	case OpSys, OpJump, OpCall:
		return fmt.Sprintf("$%03X", in.NNN)
	case OpJumpOffset:
		return fmt.Sprintf("V0, $%03X", in.NNN)
	case OpLoadIndex:
		return fmt.Sprintf("I, $%03X", in.NNN)
	case OpScrollDown:
		return fmt.Sprintf("%d", in.N)
	case OpSkipEqByte, OpSkipNeByte, OpLoadByte, OpAddByte, OpRandom:
		return fmt.Sprintf("V%X, $%02X", x, in.NN)
	case OpSkipEqReg, OpSkipNeReg, OpLoad, OpOr, OpAnd, OpXor, OpAdd, OpSub, OpSubN:
		return fmt.Sprintf("V%X, V%X", x, y)
	case OpShiftRight, OpShiftLeft:
		return fmt.Sprintf("V%X {, V%X}", x, y)
	case OpDraw:
		return fmt.Sprintf("V%X, V%X, $%X", x, y, in.N)
	case OpSkipKey, OpSkipNotKey:
		return fmt.Sprintf("V%X", x)
	case OpLoadDelay:
		return fmt.Sprintf("V%X, DT", x)
	case OpWaitKey:
		return fmt.Sprintf("V%X, K", x)
	case OpSetDelay:
		return fmt.Sprintf("DT, V%X", x)
	case OpSetSound:
		return fmt.Sprintf("ST, V%X", x)
	case OpAddIndex:
		return fmt.Sprintf("I, V%X", x)
	case OpFont:
		return fmt.Sprintf("F, V%X", x)
	case OpBigFont:
		return fmt.Sprintf("HF, V%X", x)
	case OpBCD:
		return fmt.Sprintf("B, V%X", x)
	case OpStore:
		return fmt.Sprintf("[I], V%X", x)
	case OpLoadMem:
		return fmt.Sprintf("V%X, [I]", x)
	case OpSaveFlags:
		return fmt.Sprintf("R, V%X", x)
	case OpLoadFlags:
		return fmt.Sprintf("V%X, R", x)
	}
	return ""
}
