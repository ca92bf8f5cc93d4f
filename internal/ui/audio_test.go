package ui

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/emu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/rom"
	"github.com/retroenv/retrogolib/assert"
)

// beeping returns a machine whose sound timer is running.
func beeping(t *testing.T) *emu.Machine {
	t.Helper()
	m, err := emu.New(emu.DefaultConfig())
	assert.NoError(t, err)
	// LD V0, FF ; LD ST, V0 ; JP 204
	assert.NoError(t, m.LoadROM(rom.FromInstructions(0x60FF, 0xF018, 0x1204)))
	assert.NoError(t, m.Step())
	assert.NoError(t, m.Step())
	assert.Equal(t, true, m.SoundActive())
	return m
}

func silent(p []byte) bool {
	for _, b := range p {
		if b != 0 {
			return false
		}
	}
	return true
}

func TestToneStream_Mute(t *testing.T) {
	var muted atomic.Bool
	s := &toneStream{m: beeping(t), hz: 440, volume: 0.2, muted: &muted}
	buf := make([]byte, 4*256)

	n, err := s.Read(buf)
	assert.NoError(t, err)
	assert.Equal(t, len(buf), n)
	if silent(buf) {
		t.Fatalf("tone expected while the sound timer runs")
	}

	muted.Store(true)
	_, err = s.Read(buf)
	assert.NoError(t, err)
	if !silent(buf) {
		t.Fatalf("muted stream produced samples")
	}
}

func TestToneStream_MuteToggledConcurrently(t *testing.T) {
	var muted atomic.Bool
	s := &toneStream{m: beeping(t), hz: 440, volume: 0.2, muted: &muted}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			muted.Store(!muted.Load())
		}
	}()
	buf := make([]byte, 64)
	for i := 0; i < 1000; i++ {
		if _, err := s.Read(buf); err != nil {
			t.Fatalf("read: %v", err)
		}
	}
	wg.Wait()
}

func TestFillSquare_KeepsPhase(t *testing.T) {
	var phase float64
	buf := make([]byte, 4*10)
	assert.Equal(t, len(buf), fillSquare(buf, sampleRate/4, 1, true, &phase))
	// 4 samples per period: +,+,-,- repeating, so phase after 10 samples is 0.5
	assert.Equal(t, 0.5, phase)
}
