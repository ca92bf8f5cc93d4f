package cpu

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/memory"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/timer"
)

const stackDepth = 16

var (
	ErrUnknownInstruction = errors.New("unknown instruction")
	ErrStackOverflow      = fmt.Errorf("stack overflow: %w", memory.ErrOutOfBounds)
	ErrStackUnderflow     = fmt.Errorf("stack underflow: %w", memory.ErrOutOfBounds)
)

// Mode selects the instruction set. SCHIP-only opcodes decode as unknown in ModeCHIP8.
type Mode int

const (
	ModeCHIP8 Mode = iota
	ModeSCHIP
)

func (m Mode) String() string {
	if m == ModeCHIP8 {
		return "chip8"
	}
	return "schip"
}

// ParseMode accepts "chip8" or "schip" (case-insensitive, "chip-8"/"super" also work).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "chip8", "chip-8", "c8":
		return ModeCHIP8, nil
	case "schip", "schip8", "super", "superchip", "sc8":
		return ModeSCHIP, nil
	}
	return ModeSCHIP, fmt.Errorf("unknown mode %q", s)
}

// Quirks toggle behaviours that differ between interpreters.
type Quirks struct {
	// ShiftUsesVY makes 8XY6/8XYE shift VY into VX (COSMAC VIP).
	ShiftUsesVY bool
	// LoadStoreIncrementsI advances I past the last register after FX55/FX65.
	LoadStoreIncrementsI bool
	// JumpUsesVX turns BNNN into BXNN: jump to NNN + VX.
	JumpUsesVX bool
	// LogicResetsVF clears VF after 8XY1/8XY2/8XY3.
	LogicResetsVF bool
}

type State int

const (
	Running State = iota
	WaitingForKey
	Halted
	Faulted
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case WaitingForKey:
		return "waiting-for-key"
	case Halted:
		return "halted"
	case Faulted:
		return "faulted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Keypad is the 16-key input the core polls for EX9E/EXA1.
type Keypad interface {
	Pressed(key byte) bool
}

// KeyState is a plain 16-key Keypad.
type KeyState [16]bool

func (k *KeyState) Pressed(key byte) bool { return k[key&0x0F] }

// Registers is the architectural state saved and restored with the machine.
type Registers struct {
	V  [16]byte
	I  uint16
	PC uint16

	Stack [stackDepth]uint16
	SP    byte

	Delay timer.Countdown
	Sound timer.Countdown

	// HP48 flag slots for FX75/FX85.
	Flags [8]byte
}

// CPU executes instructions against memory, the display and a keypad.
type CPU struct {
	Registers

	Mode   Mode
	Quirks Quirks
	// Strict turns unknown opcodes into a fault instead of a logged no-op.
	Strict bool

	mem  *memory.Memory
	disp *display.Display
	keys Keypad
	rng  *rand.Rand

	state   State
	waitReg byte
	err     error
	warned  map[uint16]bool
}

// New returns a CPU in SCHIP strict mode with PC at the program start.
func New(mem *memory.Memory, disp *display.Display, keys Keypad) *CPU {
	c := &CPU{
		Mode:   ModeSCHIP,
		Strict: true,
		mem:    mem,
		disp:   disp,
		keys:   keys,
		rng:    rand.New(rand.NewSource(1)),
		warned: map[uint16]bool{},
	}
	c.Reset()
	return c
}

// Reset zeroes the registers, stack and timers and points PC at the program
// start. The HP48 flag slots are kept.
func (c *CPU) Reset() {
	flags := c.Flags
	c.Registers = Registers{PC: memory.ProgramStart, Flags: flags}
	c.state = Running
	c.waitReg = 0
	c.err = nil
}

// Seed reseeds the CXNN random source.
func (c *CPU) Seed(seed int64) { c.rng = rand.New(rand.NewSource(seed)) }

func (c *CPU) State() State { return c.state }

// Err returns the fault that stopped the CPU, if any.
func (c *CPU) Err() error { return c.err }

// Halt stops execution without a fault.
func (c *CPU) Halt() {
	if c.state != Faulted {
		c.state = Halted
	}
}

// SetState is used when restoring a save state.
func (c *CPU) SetState(s State, waitReg byte) {
	c.state = s
	c.waitReg = waitReg & 0x0F
	if s != Faulted {
		c.err = nil
	}
}

// WaitRegister is the register FX0A will store the next key into.
func (c *CPU) WaitRegister() byte { return c.waitReg }

// KeyDown delivers a key press. While waiting on FX0A the key is stored in VX
// and execution resumes.
func (c *CPU) KeyDown(key byte) {
	if c.state != WaitingForKey {
		return
	}
	c.V[c.waitReg] = key & 0x0F
	c.state = Running
}

// TickTimers decrements the delay and sound timers once.
func (c *CPU) TickTimers() {
	c.Delay.Tick()
	c.Sound.Tick()
}

// Step fetches, decodes and executes one instruction. It does nothing while
// halted or waiting for a key. After a fault it keeps returning that fault.
func (c *CPU) Step() (Instruction, error) {
	switch c.state {
	case Faulted:
		return Instruction{}, c.err
	case Halted, WaitingForKey:
		return Instruction{}, nil
	}

	pc := c.PC
	opcode, err := c.mem.Read16(pc)
	if err != nil {
		return Instruction{}, c.fault(fmt.Errorf("fetch at %04X: %w", pc, err))
	}
	c.PC += 2

	in, err := Decode(opcode)
	if err == nil && in.Op.SCHIP() && c.Mode == ModeCHIP8 {
		err = fmt.Errorf("%w: %04X (schip only)", ErrUnknownInstruction, opcode)
	}
	if err != nil {
		if c.Strict {
			return in, c.fault(fmt.Errorf("at %04X: %w", pc, err))
		}
		if !c.warned[opcode] {
			c.warned[opcode] = true
			log.Printf("cpu: skipping unknown opcode %04X at %04X", opcode, pc)
		}
		return in, nil
	}

	if err := c.execute(in); err != nil {
		return in, c.fault(fmt.Errorf("%s at %04X: %w", in, pc, err))
	}
	return in, nil
}

func (c *CPU) fault(err error) error {
	c.state = Faulted
	c.err = err
	return err
}

func (c *CPU) push(addr uint16) error {
	if int(c.SP) >= stackDepth {
		return ErrStackOverflow
	}
	c.Stack[c.SP] = addr
	c.SP++
	return nil
}

func (c *CPU) pop() (uint16, error) {
	if c.SP == 0 {
		return 0, ErrStackUnderflow
	}
	c.SP--
	return c.Stack[c.SP], nil
}
