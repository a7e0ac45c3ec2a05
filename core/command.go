package core

import "strconv"

// CommandID is the handle returned by DefineCommand
type CommandID int

// CommandSpec describes a command's callbacks and the resources it controls.
// Nil callbacks default to a no-op, and a nil IsFinished never finishes.
type CommandSpec struct {
	OnInit       func()
	OnExecute    func()
	OnEnd        func()
	IsFinished   func() bool
	Requirements []Requirement
}

// Binding is what a button fires: either a bare callback or an existing command.
// Build one with Run or Use.
type Binding struct {
	fn  func()
	cmd CommandID
	ref bool
}

// Run binds a bare callback. It becomes the OnExecute of a new plain command.
func Run(fn func()) Binding {
	return Binding{fn: fn}
}

// Use binds an existing command
func Use(id CommandID) Binding {
	return Binding{cmd: id, ref: true}
}

// Phases are used as log fields when a callback fails
const (
	phaseInit     = "init"
	phaseExecute  = "execute"
	phaseFinished = "is_finished"
	phaseEnd      = "end"
)

// command is the scheduler-owned record behind a CommandID
type command struct {
	id           CommandID
	onInit       func()
	onExecute    func()
	onEnd        func()
	isFinished   func() bool
	requirements []Requirement

	active bool
	once   bool

	// activating is set while conflicts are being resolved for this command
	activating bool
}

func noop() {}

func never() bool { return false }

// newCommand fills in defaults and removes duplicate requirements
func newCommand(id CommandID, spec CommandSpec) *command {
	c := &command{
		id:         id,
		onInit:     spec.OnInit,
		onExecute:  spec.OnExecute,
		onEnd:      spec.OnEnd,
		isFinished: spec.IsFinished,
	}
	if c.onInit == nil {
		c.onInit = noop
	}
	if c.onExecute == nil {
		c.onExecute = noop
	}
	if c.onEnd == nil {
		c.onEnd = noop
	}
	if c.isFinished == nil {
		c.isFinished = never
	}

	seen := make(map[Requirement]bool, len(spec.Requirements))
	for _, r := range spec.Requirements {
		if seen[r] {
			continue
		}
		seen[r] = true
		c.requirements = append(c.requirements, r)
	}
	return c
}

// DefineCommand registers a command and returns its handle.
// Commands stay registered for the life of the scheduler.
func (s *Scheduler) DefineCommand(spec CommandSpec) CommandID {
	id := CommandID(len(s.commands))
	c := newCommand(id, spec)
	s.commands = append(s.commands, c)

	for _, r := range c.requirements {
		s.requirements[r] = append(s.requirements[r], id)
	}
	return id
}

// AddPerpetual defines a command that runs fn every tick and activates it now.
// It only stops if a conflicting command evicts it.
func (s *Scheduler) AddPerpetual(fn func()) CommandID {
	id := s.DefineCommand(CommandSpec{OnExecute: fn})
	s.Activate(id)
	return id
}

// Activate starts a command that runs until it finishes or is evicted
func (s *Scheduler) Activate(id CommandID) {
	s.activate(s.mustCommand(id), false)
}

// ActivateOnce starts a command for exactly one execute pulse
func (s *Scheduler) ActivateOnce(id CommandID) {
	s.activate(s.mustCommand(id), true)
}

// Deactivate stops a command. Calling it on an inactive command does nothing.
func (s *Scheduler) Deactivate(id CommandID) {
	s.deactivate(s.mustCommand(id))
}

// IsActive reports whether the command is currently active
func (s *Scheduler) IsActive(id CommandID) bool {
	return s.mustCommand(id).active
}

// activate implements the Inactive -> Active transition
func (s *Scheduler) activate(c *command, once bool) {
	if c.active || c.activating {
		return
	}

	c.activating = true
	s.resolveConflicts(c)
	c.activating = false

	c.active = true
	c.once = once
	if !s.call(c, phaseInit, c.onInit) {
		s.deactivate(c)
	}
}

// deactivate implements the Active -> Inactive transition
func (s *Scheduler) deactivate(c *command) {
	if !c.active {
		return
	}
	c.active = false
	c.once = false
	s.call(c, phaseEnd, c.onEnd)
}

// tickCommand runs one tick of the command lifecycle
func (s *Scheduler) tickCommand(c *command) {
	if !c.active {
		return
	}

	if !s.call(c, phaseExecute, c.onExecute) {
		s.deactivate(c)
		return
	}
	// OnExecute may have evicted its own command
	if !c.active {
		return
	}

	finished, ok := s.callFinished(c)
	if !ok {
		s.deactivate(c)
		return
	}
	if finished {
		s.deactivate(c)
	}

	// One-shot activations end here whether or not the command finished
	if c.once {
		s.deactivate(c)
	}
}

// mustCommand looks up a handle. Handles only come from DefineCommand,
// so an unknown one is a programming error.
func (s *Scheduler) mustCommand(id CommandID) *command {
	if id < 0 || int(id) >= len(s.commands) {
		panic("unknown command ID: " + strconv.Itoa(int(id)))
	}
	return s.commands[id]
}
