package cpu

import (
	"fmt"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/memory"
)

const (
	vf = 0xF

	scrollStep = 4
	// highest register FX75/FX85 can address
	maxFlagReg = 7
)

func (c *CPU) skip() { c.PC += 2 }

func (c *CPU) execute(in Instruction) error {
	x, y := in.X, in.Y
	switch in.Op {
	case OpSys:
		// machine code routines are not emulated
	case OpClear:
		c.disp.Clear()
	case OpReturn:
		pc, err := c.pop()
		if err != nil {
			return err
		}
		c.PC = pc
	case OpScrollDown:
		c.disp.ScrollDown(int(in.N))
	case OpScrollRight:
		c.disp.ScrollRight(scrollStep)
	case OpScrollLeft:
		c.disp.ScrollLeft(scrollStep)
	case OpExit:
		c.state = Halted
	case OpLowRes:
		c.disp.SetHighRes(false)
	case OpHighRes:
		c.disp.SetHighRes(true)

	case OpJump:
		c.PC = in.NNN
	case OpCall:
		if err := c.push(c.PC); err != nil {
			return err
		}
		c.PC = in.NNN
	case OpSkipEqByte:
		if c.V[x] == in.NN {
			c.skip()
		}
	case OpSkipNeByte:
		if c.V[x] != in.NN {
			c.skip()
		}
	case OpSkipEqReg:
		if c.V[x] == c.V[y] {
			c.skip()
		}
	case OpSkipNeReg:
		if c.V[x] != c.V[y] {
			c.skip()
		}
	case OpLoadByte:
		c.V[x] = in.NN
	case OpAddByte:
		c.V[x] += in.NN

	case OpLoad:
		c.V[x] = c.V[y]
	case OpOr:
		c.V[x] |= c.V[y]
		c.logicFlag()
	case OpAnd:
		c.V[x] &= c.V[y]
		c.logicFlag()
	case OpXor:
		c.V[x] ^= c.V[y]
		c.logicFlag()
	case OpAdd:
		r, f := add(c.V[x], c.V[y])
		c.V[x], c.V[vf] = r, f
	case OpSub:
		r, f := sub(c.V[x], c.V[y])
		c.V[x], c.V[vf] = r, f
	case OpSubN:
		r, f := sub(c.V[y], c.V[x])
		c.V[x], c.V[vf] = r, f
	case OpShiftRight:
		r, f := shr(c.shiftSource(x, y))
		c.V[x], c.V[vf] = r, f
	case OpShiftLeft:
		r, f := shl(c.shiftSource(x, y))
		c.V[x], c.V[vf] = r, f

	case OpLoadIndex:
		c.I = in.NNN
	case OpJumpOffset:
		reg := byte(0)
		if c.Quirks.JumpUsesVX {
			reg = x
		}
		c.PC = in.NNN + uint16(c.V[reg])
	case OpRandom:
		c.V[x] = byte(c.rng.Intn(256)) & in.NN
	case OpDraw:
		return c.draw(in)

	case OpSkipKey:
		if c.keys.Pressed(c.V[x]) {
			c.skip()
		}
	case OpSkipNotKey:
		if !c.keys.Pressed(c.V[x]) {
			c.skip()
		}
	case OpWaitKey:
		c.state = WaitingForKey
		c.waitReg = x

	case OpLoadDelay:
		c.V[x] = c.Delay.Value()
	case OpSetDelay:
		c.Delay.Set(c.V[x])
	case OpSetSound:
		c.Sound.Set(c.V[x])

	case OpAddIndex:
		sum := uint32(c.I) + uint32(c.V[x])
		c.I = uint16(sum % memory.Size)
		c.V[vf] = flag(sum > memory.Size-1)
	case OpFont:
		c.I = memory.FontAddr(c.V[x])
	case OpBigFont:
		c.I = memory.BigFontAddr(c.V[x])
	case OpBCD:
		digits := bcd(c.V[x])
		return c.mem.WriteSlice(c.I, digits[:])
	case OpStore:
		if err := c.mem.WriteSlice(c.I, c.V[:x+1]); err != nil {
			return err
		}
		if c.Quirks.LoadStoreIncrementsI {
			c.I += uint16(x) + 1
		}
	case OpLoadMem:
		b, err := c.mem.ReadSlice(c.I, int(x)+1)
		if err != nil {
			return err
		}
		copy(c.V[:], b)
		if c.Quirks.LoadStoreIncrementsI {
			c.I += uint16(x) + 1
		}
	case OpSaveFlags:
		n := min(x, maxFlagReg) + 1
		copy(c.Flags[:n], c.V[:n])
	case OpLoadFlags:
		n := min(x, maxFlagReg) + 1
		copy(c.V[:n], c.Flags[:n])

	default:
		return fmt.Errorf("%w: %04X", ErrUnknownInstruction, in.Raw)
	}
	return nil
}

func (c *CPU) logicFlag() {
	if c.Quirks.LogicResetsVF {
		c.V[vf] = 0
	}
}

func (c *CPU) shiftSource(x, y byte) byte {
	if c.Quirks.ShiftUsesVY {
		return c.V[y]
	}
	return c.V[x]
}

// draw handles DXYN. In SCHIP mode N=0 draws a 16x16 sprite.
func (c *CPU) draw(in Instruction) error {
	vx, vy := c.V[in.X], c.V[in.Y]
	var collided bool
	if in.N == 0 && c.Mode == ModeSCHIP {
		sprite, err := c.mem.ReadSlice(c.I, 32)
		if err != nil {
			return err
		}
		collided = c.disp.Draw16(vx, vy, sprite)
	} else {
		sprite, err := c.mem.ReadSlice(c.I, int(in.N))
		if err != nil {
			return err
		}
		collided = c.disp.Draw(vx, vy, sprite)
	}
	c.V[vf] = flag(collided)
	return nil
}
