package timer

import (
	"testing"
	"time"

	"github.com/retroenv/retrogolib/assert"
)

func TestCountdown_FloorsAtZero(t *testing.T) {
	var c Countdown
	c.Set(2)
	assert.Equal(t, true, c.Active())
	c.Tick()
	c.Tick()
	c.Tick()
	assert.Equal(t, byte(0), c.Value())
	assert.Equal(t, false, c.Active())
}

func drain(s *Scheduler) (steps, ticks int) {
	for {
		switch s.Next() {
		case EventStep:
			steps++
		case EventTick:
			ticks++
		case EventNone:
			return
		}
	}
}

func TestScheduler_OneSecond(t *testing.T) {
	for _, ips := range []int{500, 700, 1000, 12} {
		s := NewScheduler(ips)
		s.Advance(time.Second)
		steps, ticks := drain(s)
		if steps != ips || ticks != Hz {
			t.Fatalf("ips=%d: got steps=%d ticks=%d want %d/%d", ips, steps, ticks, ips, Hz)
		}
	}
}

func TestScheduler_TicksIndependentOfIPS(t *testing.T) {
	slow := NewScheduler(100)
	fast := NewScheduler(5000)
	for i := 0; i < 37; i++ {
		slow.Advance(7 * time.Millisecond)
		fast.Advance(7 * time.Millisecond)
		drain(slow)
		drain(fast)
	}
	_, st := slow.Counts()
	_, ft := fast.Counts()
	assert.Equal(t, st, ft)
	// 259ms at 60 Hz
	assert.Equal(t, int64(15), st)
}

func TestScheduler_AdvanceFrameNoDrift(t *testing.T) {
	s := NewScheduler(600)
	for frame := 1; frame <= 120; frame++ {
		s.AdvanceFrame()
		steps, ticks := drain(s)
		if ticks != 1 {
			t.Fatalf("frame %d: got %d ticks want 1", frame, ticks)
		}
		if steps != 10 {
			t.Fatalf("frame %d: got %d steps want 10", frame, steps)
		}
	}
}

func TestScheduler_EventOrder(t *testing.T) {
	// 120 ips: two steps per tick, the step at the tick boundary goes first
	s := NewScheduler(120)
	s.AdvanceFrame()
	var got []Event
	for e := s.Next(); e != EventNone; e = s.Next() {
		got = append(got, e)
	}
	assert.Equal(t, []Event{EventStep, EventStep, EventTick}, got)
}

func TestScheduler_SetIPSKeepsTime(t *testing.T) {
	s := NewScheduler(60)
	s.Advance(500 * time.Millisecond)
	drain(s)
	s.SetIPS(1000)
	s.Advance(500 * time.Millisecond)
	steps, _ := drain(s)
	assert.Equal(t, 500, steps)
	assert.Equal(t, "tick", EventTick.String())
}

func TestScheduler_LongRunsDoNotOverflow(t *testing.T) {
	const ips = 1_000_000
	s := NewScheduler(ips)
	// about 115 days of emulated time
	const n = int64(10_000_000_000_000)
	want := n / ips * int64(time.Second)
	assert.Equal(t, want, s.stepAt(n))
	if s.stepAt(n+1) <= s.stepAt(n) {
		t.Fatalf("step times not increasing at n=%d", n)
	}

	s.elapsed = want
	s.ticks = eventsBy(want, Hz)
	s.SetIPS(ips)
	steps, _ := s.Counts()
	assert.Equal(t, n, steps)

	s.Advance(time.Second)
	got := 0
	for e := s.Next(); e != EventNone; e = s.Next() {
		if e == EventStep {
			got++
		}
	}
	assert.Equal(t, ips, got)
}
