package core

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrInvalidRate is returned by RunForever for a non-positive tick rate
var ErrInvalidRate = errors.New("ticks per second must be positive")

// TickReport describes one pass of the scheduler
type TickReport struct {
	Seq      uint64
	Start    time.Time
	Elapsed  time.Duration
	Budget   time.Duration
	Overrun  time.Duration // Zero unless Elapsed >= Budget
	Failures int           // Callbacks that panicked during this tick
}

// Overran reports whether the tick used up its budget
func (r TickReport) Overran() bool {
	return r.Budget > 0 && r.Elapsed >= r.Budget
}

// Stats are running totals since the scheduler was created
type Stats struct {
	Ticks          uint64
	Overruns       uint64
	WorstOverrun   time.Duration
	Failures       uint64
	Buttons        int
	Commands       int
	ActiveCommands int
}

// Scheduler owns every button and command and advances them once per tick.
// It is not safe for concurrent use: register everything during setup, then
// drive it from a single goroutine.
type Scheduler struct {
	buttons      []*button
	commands     []*command
	requirements map[Requirement][]CommandID

	clock     Clock
	log       logrus.FieldLogger
	onOverrun func(TickReport)

	seq          uint64
	tickFailures int
	stats        Stats
	timings      timingRing
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithClock replaces the system clock, typically with a ManualClock in tests
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithLogger sets the logger used for overruns and callback failures
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Scheduler) { s.log = l }
}

// WithOverrunHandler is called after every tick that exceeds its budget
func WithOverrunHandler(fn func(TickReport)) Option {
	return func(s *Scheduler) { s.onOverrun = fn }
}

// NewScheduler creates an empty scheduler
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		requirements: make(map[Requirement][]CommandID),
		clock:        SystemClock{},
		log:          logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tick runs one pass: refresh, buttons, commands, then sleeps out the rest of
// budget. A tick that runs over its budget is reported and the sleep skipped.
func (s *Scheduler) Tick(budget time.Duration, refresh func()) TickReport {
	start := s.clock.Now()
	s.seq++
	s.tickFailures = 0

	if refresh != nil {
		s.callHook(refresh)
	}

	for _, b := range s.buttons {
		s.tickButton(b)
	}

	for _, c := range s.commands {
		s.tickCommand(c)
	}

	elapsed := s.clock.Now().Sub(start)
	report := TickReport{
		Seq:      s.seq,
		Start:    start,
		Elapsed:  elapsed,
		Budget:   budget,
		Failures: s.tickFailures,
	}

	s.stats.Ticks++
	if report.Overran() {
		report.Overrun = elapsed - budget
		s.reportOverrun(report)
	}
	s.timings.record(report)

	if !report.Overran() && budget > elapsed {
		s.clock.Sleep(budget - elapsed)
	}
	return report
}

// RunForever ticks at the given rate until ctx is done.
// hook runs at the start of every tick, before buttons are sampled.
func (s *Scheduler) RunForever(ctx context.Context, ticksPerSecond float64, hook func()) error {
	if ticksPerSecond <= 0 {
		return ErrInvalidRate
	}
	budget := BudgetFromRate(ticksPerSecond)

	s.log.WithField("ticks_per_second", ticksPerSecond).
		WithField("budget_ms", budget.Milliseconds()).
		Info("starting tick loop")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		s.Tick(budget, hook)
	}
}

// Stats returns a snapshot of the running totals
func (s *Scheduler) Stats() Stats {
	st := s.stats
	st.Buttons = len(s.buttons)
	st.Commands = len(s.commands)
	for _, c := range s.commands {
		if c.active {
			st.ActiveCommands++
		}
	}
	return st
}

func (s *Scheduler) reportOverrun(r TickReport) {
	s.stats.Overruns++
	if r.Overrun > s.stats.WorstOverrun {
		s.stats.WorstOverrun = r.Overrun
	}

	s.log.WithField("tick", r.Seq).
		WithField("overrun_ms", r.Overrun.Milliseconds()).
		WithField("budget_ms", r.Budget.Milliseconds()).
		Warn("exceeded time budget for a single tick")

	if s.onOverrun != nil {
		s.onOverrun(r)
	}
}

// call runs a command callback and reports whether it returned normally.
// A panic is logged, counted and swallowed so one command cannot stop the loop.
func (s *Scheduler) call(c *command, phase string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.commandFailed(c, phase, r)
			ok = false
		}
	}()
	fn()
	return true
}

// callFinished is call for IsFinished
func (s *Scheduler) callFinished(c *command) (finished bool, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.commandFailed(c, phaseFinished, r)
			finished, ok = false, false
		}
	}()
	return c.isFinished(), true
}

// callHook runs the per-tick refresh hook
func (s *Scheduler) callHook(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.recordFailure()
			s.log.WithField("panic", r).Error("tick refresh hook failed")
		}
	}()
	fn()
}

func (s *Scheduler) commandFailed(c *command, phase string, r interface{}) {
	s.recordFailure()
	s.log.WithField("cmd", int(c.id)).
		WithField("phase", phase).
		WithField("panic", r).
		Error("command callback failed; deactivating")
}

func (s *Scheduler) recordFailure() {
	s.tickFailures++
	s.stats.Failures++
}
