package emu

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/memory"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/rom"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/timer"
	"github.com/cespare/xxhash"
)

var ErrNoROM = errors.New("no rom loaded")

// Machine owns every part of the interpreter. All exported methods are safe
// for concurrent use; they serialize on one mutex.
type Machine struct {
	mu sync.Mutex

	cfg   Config
	mem   *memory.Memory
	disp  *display.Display
	keys  cpu.KeyState
	cpu   *cpu.CPU
	sched *timer.Scheduler
	rom   *rom.ROM

	fb []byte // RGBA, sized for the current resolution
}

func New(cfg Config) (*Machine, error) {
	cfg.Defaults()
	m := &Machine{
		cfg:   cfg,
		mem:   memory.New(),
		disp:  display.New(),
		sched: timer.NewScheduler(cfg.IPS),
	}
	m.cpu = cpu.New(m.mem, m.disp, &m.keys)
	if err := m.configure(); err != nil {
		return nil, err
	}
	return m, nil
}

// configure pushes the Config into the cpu and display.
func (m *Machine) configure() error {
	if m.cfg.Profile != "" {
		q, err := QuirkProfile(m.cfg.Profile)
		if err != nil {
			return err
		}
		m.cfg.Quirks = q
	}
	mode := cpu.ModeSCHIP
	if !strings.EqualFold(m.cfg.Mode, "auto") {
		var err error
		if mode, err = cpu.ParseMode(m.cfg.Mode); err != nil {
			return err
		}
	} else if m.rom != nil && !m.rom.SCHIP() && strings.HasSuffix(strings.ToLower(m.rom.Name), ".ch8") {
		mode = cpu.ModeCHIP8
	}
	m.cpu.Mode = mode
	m.cpu.Quirks = m.cfg.Quirks
	m.cpu.Strict = !m.cfg.Permissive
	m.cpu.Seed(m.cfg.Seed)
	m.disp.WrapSprites = m.cfg.WrapSprites
	return nil
}

// LoadROM installs a program image and resets the machine.
func (m *Machine) LoadROM(data []byte) error {
	return m.LoadImage(rom.New("", data))
}

// LoadROMFile loads a ROM from disk (raw or archived) and resets the machine.
func (m *Machine) LoadROMFile(path string) error {
	r, err := rom.Load(path)
	if err != nil {
		return err
	}
	return m.LoadImage(r)
}

func (m *Machine) LoadImage(r *rom.ROM) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// validate before touching the running program
	if err := memory.New().LoadProgram(r.Data); err != nil {
		return fmt.Errorf("load %s: %w", r.Name, err)
	}
	m.rom = r
	if err := m.configure(); err != nil {
		return err
	}
	return m.reset()
}

// Reset restarts the loaded program. HP48 flags are kept.
func (m *Machine) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reset()
}

func (m *Machine) reset() error {
	if m.rom == nil {
		return ErrNoROM
	}
	m.mem.Reset()
	if err := m.mem.LoadProgram(m.rom.Data); err != nil {
		return err
	}
	m.disp.SetHighRes(false)
	m.keys = cpu.KeyState{}
	m.cpu.Reset()
	m.cpu.Seed(m.cfg.Seed)
	m.sched.Reset()
	return nil
}

// Mode is the instruction set in use. With Config.Mode "auto" it is picked
// when a ROM is loaded.
func (m *Machine) Mode() cpu.Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cpu.Mode
}

// ROM returns the loaded image, or nil.
func (m *Machine) ROM() *rom.ROM {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rom
}

func (m *Machine) Config() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// IPS returns the current instruction rate.
func (m *Machine) IPS() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sched.IPS()
}

// SetIPS changes the instruction rate without disturbing the timers.
func (m *Machine) SetIPS(ips int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sched.SetIPS(ips)
	m.cfg.IPS = m.sched.IPS()
}

// StepFrame runs one 60 Hz frame: ips/60 instructions and one timer tick.
func (m *Machine) StepFrame() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rom == nil {
		return ErrNoROM
	}
	m.sched.AdvanceFrame()
	return m.drain()
}

// Advance runs everything that falls due within d of emulated time.
func (m *Machine) Advance(d time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rom == nil {
		return ErrNoROM
	}
	m.sched.Advance(d)
	return m.drain()
}

func (m *Machine) drain() error {
	for {
		switch m.sched.Next() {
		case timer.EventStep:
			if err := m.step(); err != nil {
				return err
			}
		case timer.EventTick:
			m.cpu.TickTimers()
		case timer.EventNone:
			return nil
		}
	}
}

// Step executes a single instruction regardless of the scheduler.
func (m *Machine) Step() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rom == nil {
		return ErrNoROM
	}
	return m.step()
}

func (m *Machine) step() error {
	if m.cpu.State() != cpu.Running {
		return m.cpu.Err()
	}
	pc := m.cpu.PC
	in, err := m.cpu.Step()
	if m.cfg.Trace {
		r := &m.cpu.Registers
		log.Printf("PC=%04X OP=%04X %-16s I=%03X SP=%X DT=%02X ST=%02X V=% X",
			pc, in.Raw, in.String(), r.I, r.SP, r.Delay.Value(), r.Sound.Value(), r.V[:])
	}
	return err
}

// Run drives the machine in real time until ctx is cancelled, the program
// exits, or a fault occurs. Only the fault is returned as an error.
func (m *Machine) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / timer.Hz)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if err := m.Advance(now.Sub(last)); err != nil {
				return err
			}
			last = now
			if m.State() == cpu.Halted {
				return nil
			}
		}
	}
}

// Quit stops execution; Run returns at its next tick.
func (m *Machine) Quit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cpu.Halt()
}

// SetKey updates one keypad key. A press while the program waits on FX0A
// resumes it.
func (m *Machine) SetKey(key byte, down bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setKey(key, down)
}

// SetKeys replaces the whole keypad state.
func (m *Machine) SetKeys(keys [16]bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, down := range keys {
		m.setKey(byte(k), down)
	}
}

func (m *Machine) setKey(key byte, down bool) {
	key &= 0x0F
	was := m.keys[key]
	m.keys[key] = down
	if down && !was {
		m.cpu.KeyDown(key)
	}
}

func (m *Machine) State() cpu.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cpu.State()
}

// Err returns the fault that stopped the machine, if any.
func (m *Machine) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cpu.Err()
}

// Registers returns a copy of the register file.
func (m *Machine) Registers() cpu.Registers {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cpu.Registers
}

// Instruction decodes the instruction at PC without executing it.
func (m *Machine) Instruction() (cpu.Instruction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.instructionAt(m.cpu.PC)
}

func (m *Machine) instructionAt(addr uint16) (cpu.Instruction, error) {
	op, err := m.mem.Read16(addr)
	if err != nil {
		return cpu.Instruction{}, err
	}
	return cpu.Decode(op)
}

// Disassemble decodes n instructions starting at addr. Undecodable words are
// returned as OpUnknown entries.
func (m *Machine) Disassemble(addr uint16, n int) []cpu.Instruction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]cpu.Instruction, 0, n)
	for i := 0; i < n; i++ {
		in, err := m.instructionAt(addr + uint16(2*i))
		if errors.Is(err, memory.ErrOutOfBounds) {
			break
		}
		out = append(out, in)
	}
	return out
}

// AtTerminalLoop reports whether PC sits on a jump to itself, the usual way
// a CHIP-8 program ends.
func (m *Machine) AtTerminalLoop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, err := m.instructionAt(m.cpu.PC)
	return err == nil && in.Op == cpu.OpJump && in.NNN == m.cpu.PC
}

// SoundActive reports whether the buzzer should sound.
func (m *Machine) SoundActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cpu.Sound.Active()
}

// Resolution returns the current display size.
func (m *Machine) Resolution() (w, h int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disp.Size()
}

// Pixels returns a copy of the display plane, one byte per pixel.
func (m *Machine) Pixels() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	px := m.disp.Pixels()
	out := make([]byte, len(px))
	copy(out, px)
	return out
}

// Packed returns the display as MSB-first bits together with its size.
func (m *Machine) Packed() (w, h int, bits []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, h = m.disp.Size()
	return w, h, m.disp.Packed()
}

// FrameHash is the xxhash of the packed display, stable across runs.
func (m *Machine) FrameHash() uint64 {
	_, _, bits := m.Packed()
	return xxhash.Sum64(bits)
}

// Framebuffer renders the display to RGBA using the configured colors. The
// slice is reused between calls.
func (m *Machine) Framebuffer() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.render()
}

func (m *Machine) render() []byte {
	px := m.disp.Pixels()
	if len(m.fb) != len(px)*4 {
		m.fb = make([]byte, len(px)*4)
	}
	on, off := m.cfg.Foreground, m.cfg.Background
	for i, p := range px {
		c := off
		if p != 0 {
			c = on
		}
		o := i * 4
		m.fb[o], m.fb[o+1], m.fb[o+2], m.fb[o+3] = c.R, c.G, c.B, c.A
	}
	return m.fb
}
