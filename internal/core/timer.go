package core

import "time"

// Pacer converts elapsed wall-clock time into a number of due simulation
// steps, independent of the frame rate.
type Pacer struct {
	step        time.Duration
	accumulator time.Duration
	last        time.Time
	rate        int
	maxBurst    int

	now func() time.Time
}

// NewPacer targets rate steps per second and never reports more than
// maxBurst steps at once.
func NewPacer(rate, maxBurst int) *Pacer {
	if maxBurst <= 0 {
		maxBurst = 1
	}
	p := &Pacer{maxBurst: maxBurst, now: time.Now}
	p.SetRate(rate)
	return p
}

// SetRate changes the target steps per second. Non-positive rates fall back
// to one step per second.
func (p *Pacer) SetRate(rate int) {
	if rate <= 0 {
		rate = 1
	}
	p.rate = rate
	p.step = time.Second / time.Duration(rate)
}

// Rate returns the target steps per second.
func (p *Pacer) Rate() int { return p.rate }

// Due reports how many steps should run now. Time beyond maxBurst steps is
// dropped so a slow frame does not trigger a catch-up spiral.
func (p *Pacer) Due() int {
	now := p.now()
	if p.last.IsZero() {
		p.last = now
		return 1
	}
	p.accumulator += now.Sub(p.last)
	p.last = now
	n := int(p.accumulator / p.step)
	if n > p.maxBurst {
		p.accumulator = 0
		return p.maxBurst
	}
	p.accumulator -= time.Duration(n) * p.step
	return n
}

// Restart forgets accumulated time, e.g. after a pause.
func (p *Pacer) Restart() {
	p.accumulator = 0
	p.last = time.Time{}
}
