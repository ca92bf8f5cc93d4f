package timer

import "time"

// Hz is the fixed rate of the delay and sound timers.
const Hz = 60

// Countdown is an 8-bit timer that decrements once per tick and stops at 0.
type Countdown struct {
	value byte
}

func (c *Countdown) Set(v byte)   { c.value = v }
func (c *Countdown) Value() byte  { return c.value }
func (c *Countdown) Active() bool { return c.value > 0 }

// Tick decrements the counter, never below zero.
func (c *Countdown) Tick() {
	if c.value > 0 {
		c.value--
	}
}

// Event is what the scheduler wants the host to do next.
type Event int

const (
	EventNone Event = iota
	EventStep       // execute one instruction
	EventTick       // decrement the 60 Hz timers
)

func (e Event) String() string {
	switch e {
	case EventStep:
		return "step"
	case EventTick:
		return "tick"
	}
	return "none"
}

// Scheduler interleaves two independent clocks: instruction steps at ips Hz
// and timer ticks at 60 Hz. Event times are computed as n*1e9/hz so neither
// clock drifts against wall time.
type Scheduler struct {
	ips     int64
	elapsed int64 // ns of host time granted so far
	steps   int64 // steps handed out
	ticks   int64 // ticks handed out
}

// NewScheduler returns a scheduler running instructions at ips per second.
func NewScheduler(ips int) *Scheduler {
	if ips <= 0 {
		ips = 1
	}
	return &Scheduler{ips: int64(ips)}
}

// IPS returns the instruction rate.
func (s *Scheduler) IPS() int { return int(s.ips) }

// SetIPS changes the instruction rate from now on.
func (s *Scheduler) SetIPS(ips int) {
	if ips <= 0 {
		ips = 1
	}
	// rebase the step counter so the next step keeps its place in time
	s.steps = eventsBy(s.elapsed, int64(ips))
	s.ips = int64(ips)
}

func (s *Scheduler) stepAt(n int64) int64 { return eventAt(n, s.ips) }
func (s *Scheduler) tickAt(n int64) int64 { return eventAt(n, Hz) }

// eventAt is n*1e9/hz, split so the product cannot overflow for long runs.
func eventAt(n, hz int64) int64 {
	const sec = int64(time.Second)
	return n/hz*sec + n%hz*sec/hz
}

// eventsBy is t*hz/1e9, the number of events of a hz clock due by t ns.
func eventsBy(t, hz int64) int64 {
	const sec = int64(time.Second)
	return t/sec*hz + t%sec*hz/sec
}

// Advance grants d of wall time.
func (s *Scheduler) Advance(d time.Duration) {
	if d > 0 {
		s.elapsed += int64(d)
	}
}

// AdvanceFrame grants exactly enough time to reach the next timer tick.
func (s *Scheduler) AdvanceFrame() {
	if next := s.tickAt(s.ticks + 1); next > s.elapsed {
		s.elapsed = next
	}
}

// Next returns the earliest due event, or EventNone when the granted time is
// used up. Steps win ties with ticks.
func (s *Scheduler) Next() Event {
	step := s.stepAt(s.steps + 1)
	tick := s.tickAt(s.ticks + 1)
	switch {
	case step <= s.elapsed && step <= tick:
		s.steps++
		return EventStep
	case tick <= s.elapsed:
		s.ticks++
		return EventTick
	}
	return EventNone
}

// Counts reports how many steps and ticks have been handed out.
func (s *Scheduler) Counts() (steps, ticks int64) { return s.steps, s.ticks }

// Reset rewinds the scheduler to time zero.
func (s *Scheduler) Reset() {
	s.elapsed, s.steps, s.ticks = 0, 0, 0
}
