package main

import "time"

// idleWait bounds how long a minimized viewer blocks on window events.
const idleWait = time.Second / 30

// framePacer schedules frames against a user cap. Without a cap, present
// blocks on the swapchain and nothing here waits.
type framePacer struct {
	deadline time.Time
}

// delay returns how long to sleep at now so frames land every 1/limit
// seconds. A stall longer than one interval restarts the schedule at now
// instead of bursting to catch up.
func (p *framePacer) delay(now time.Time, limit int) time.Duration {
	if limit <= 0 {
		p.reset()
		return 0
	}
	interval := time.Second / time.Duration(limit)
	if p.deadline.IsZero() || now.Sub(p.deadline) > interval {
		p.deadline = now
	}
	p.deadline = p.deadline.Add(interval)
	return p.deadline.Sub(now)
}

func (p *framePacer) reset() {
	p.deadline = time.Time{}
}
