package ui

import (
	"encoding/binary"
	"math"
	"sync/atomic"
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/emu"
	"github.com/hajimehoshi/ebiten/v2/audio"
)

const sampleRate = 48000

// setupAudio creates the audio context and starts the beeper. Failures leave
// the emulator silent.
func (a *App) setupAudio() {
	if a.audioCtx == nil {
		a.audioCtx = audio.NewContext(sampleRate)
	}
	a.audioSrc = &toneStream{m: a.m, hz: a.cfg.ToneHz, volume: a.cfg.Volume, muted: &a.audioMuted}
	p, err := a.audioCtx.NewPlayer(a.audioSrc)
	if err != nil {
		a.toast("Audio unavailable: " + err.Error())
		return
	}
	a.audioPlayer = p
	a.audioPlayer.SetBufferSize(time.Duration(a.cfg.AudioBufferMs) * time.Millisecond)
	a.audioPlayer.Play()
}

// toneStream implements io.Reader as an endless 16-bit little-endian stereo
// square wave that is gated by the machine's sound timer.
type toneStream struct {
	m      *emu.Machine
	hz     int
	volume float64
	muted  *atomic.Bool
	phase  float64 // position in the current period, 0..1
	// stats
	frames int64
}

func (s *toneStream) Read(p []byte) (int, error) {
	if len(p) < 4 {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}
	on := s.m != nil && s.m.SoundActive() && (s.muted == nil || !s.muted.Load())
	n := fillSquare(p[:len(p)/4*4], s.hz, s.volume, on, &s.phase)
	s.frames += int64(n / 4)
	return n, nil
}

// fillSquare writes stereo frames into p and returns the number of bytes
// written. phase carries over between calls so the tone has no clicks.
func fillSquare(p []byte, hz int, volume float64, on bool, phase *float64) int {
	amp := int16(math.MaxInt16 * volume)
	step := float64(hz) / sampleRate
	for i := 0; i+3 < len(p); i += 4 {
		var v int16
		if on {
			v = amp
			if *phase >= 0.5 {
				v = -amp
			}
		}
		binary.LittleEndian.PutUint16(p[i:], uint16(v))
		binary.LittleEndian.PutUint16(p[i+2:], uint16(v))
		*phase += step
		if *phase >= 1 {
			*phase -= 1
		}
	}
	return len(p) / 4 * 4
}
