package emu

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
)

const stateVersion = 1

var (
	ErrStateMismatch = errors.New("save state belongs to a different rom")
	ErrBadState      = errors.New("invalid save state")
)

// --- Save/Load state ---
type machineState struct {
	Version     int
	Fingerprint string
	Mode        cpu.Mode

	Memory  []byte
	Display display.Snapshot

	V     [16]byte
	I     uint16
	PC    uint16
	Stack [16]uint16
	SP    byte
	Delay byte
	Sound byte
	Flags [8]byte

	State   cpu.State
	WaitReg byte
}

func (m *Machine) SaveState() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rom == nil {
		return nil, ErrNoROM
	}
	r := &m.cpu.Registers
	s := machineState{
		Version:     stateVersion,
		Fingerprint: m.rom.Fingerprint(),
		Mode:        m.cpu.Mode,
		Memory:      m.mem.Snapshot(),
		Display:     m.disp.Snapshot(),
		V:           r.V,
		I:           r.I,
		PC:          r.PC,
		Stack:       r.Stack,
		SP:          r.SP,
		Delay:       r.Delay.Value(),
		Sound:       r.Sound.Value(),
		Flags:       r.Flags,
		State:       m.cpu.State(),
		WaitReg:     m.cpu.WaitRegister(),
	}
	// a faulted machine is restored as running at the faulting PC
	if s.State == cpu.Faulted {
		s.State = cpu.Running
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return buf.Bytes(), nil
}

func (m *Machine) LoadState(data []byte) error {
	var s machineState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}
	if s.Version != stateVersion {
		return fmt.Errorf("save state version %d, want %d", s.Version, stateVersion)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rom == nil {
		return ErrNoROM
	}
	if s.Fingerprint != m.rom.Fingerprint() {
		return fmt.Errorf("%w: %s", ErrStateMismatch, s.Fingerprint)
	}
	if err := s.validate(); err != nil {
		return err
	}
	if err := m.mem.Restore(s.Memory); err != nil {
		return err
	}
	m.disp.Restore(s.Display)
	m.cpu.Mode = s.Mode
	r := &m.cpu.Registers
	r.V, r.I, r.PC = s.V, s.I, s.PC
	r.Stack, r.SP = s.Stack, s.SP
	r.Delay.Set(s.Delay)
	r.Sound.Set(s.Sound)
	r.Flags = s.Flags
	m.cpu.SetState(s.State, s.WaitReg)
	m.keys = [16]bool{}
	return nil
}

// validate rejects values the machine can never be in. A faulted machine is
// saved as running, so Faulted is rejected too.
func (s *machineState) validate() error {
	switch {
	case s.Mode != cpu.ModeCHIP8 && s.Mode != cpu.ModeSCHIP:
		return fmt.Errorf("%w: mode %d", ErrBadState, s.Mode)
	case s.State != cpu.Running && s.State != cpu.WaitingForKey && s.State != cpu.Halted:
		return fmt.Errorf("%w: state %d", ErrBadState, s.State)
	case s.WaitReg > 0xF:
		return fmt.Errorf("%w: wait register %d", ErrBadState, s.WaitReg)
	case int(s.SP) > len(s.Stack):
		return fmt.Errorf("%w: stack pointer %d", ErrBadState, s.SP)
	}
	return nil
}

func (m *Machine) SaveStateToFile(path string) error {
	data, err := m.SaveState()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (m *Machine) LoadStateFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return m.LoadState(data)
}

// StatePath names the file for a save slot of the loaded ROM.
func (m *Machine) StatePath(dir string, slot int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	name := "norom"
	if m.rom != nil {
		name = m.rom.Fingerprint()
	}
	return filepath.Join(dir, fmt.Sprintf("%s.slot%d.state", name, slot))
}
