package core

const (
	TimingRingSize = 32 // Keep the last 32 ticks for post-mortem
)

// timingRing holds the most recent tick reports, overwriting the oldest
type timingRing struct {
	buf   [TimingRingSize]TickReport
	head  int // Next write position
	count int
}

func (r *timingRing) record(rep TickReport) {
	r.buf[r.head] = rep
	r.head = (r.head + 1) % TimingRingSize
	if r.count < TimingRingSize {
		r.count++
	}
}

// snapshot returns the recorded reports, oldest first
func (r *timingRing) snapshot() []TickReport {
	out := make([]TickReport, 0, r.count)
	start := (r.head - r.count + TimingRingSize) % TimingRingSize
	for i := 0; i < r.count; i++ {
		out = append(out, r.buf[(start+i)%TimingRingSize])
	}
	return out
}

// RecentTicks returns up to TimingRingSize of the latest tick reports, newest last
func (s *Scheduler) RecentTicks() []TickReport {
	return s.timings.snapshot()
}

// DumpTimings logs the timing ring (call on shutdown or after an error)
func (s *Scheduler) DumpTimings() {
	s.log.Info("=== tick timing dump ===")
	for _, r := range s.timings.snapshot() {
		entry := s.log.WithField("tick", r.Seq).
			WithField("elapsed_us", r.Elapsed.Microseconds()).
			WithField("budget_us", r.Budget.Microseconds())
		if r.Overran() {
			entry.WithField("overrun_ms", r.Overrun.Milliseconds()).Info("tick overran")
			continue
		}
		if r.Failures > 0 {
			entry.WithField("failures", r.Failures).Info("tick had failures")
			continue
		}
		entry.Info("tick")
	}
	s.log.Info("=== end dump ===")
}
