package audio

import "time"

// pacer releases samples no faster than real time at the given rate.
type pacer struct {
	rate    int
	now     func() time.Time
	start   time.Time
	emitted int64
}

func newPacer(rate int, now func() time.Time) *pacer {
	return &pacer{rate: rate, now: now}
}

func (p *pacer) allowance(limit int) int {
	now := p.now()
	if p.start.IsZero() {
		p.start = now
	}
	due := int64(now.Sub(p.start)) * int64(p.rate) / int64(time.Second)
	return int(max(min(due-p.emitted, int64(limit)), 0))
}

func (p *pacer) consume(n int) {
	p.emitted += int64(n)
}

// resync forgets time that passed unread; allowance counts from now again.
func (p *pacer) resync() {
	p.start = p.now()
	p.emitted = 0
}
