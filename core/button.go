package core

import "strconv"

// Sampler reports the current state of a boolean input
type Sampler func() bool

// ButtonID is the handle returned by NewButton
type ButtonID int

// Edge classifies one tick of a button
type Edge uint8

const (
	EdgeNone Edge = iota
	EdgePressed
	EdgeReleased
	EdgeHeld
)

func (e Edge) String() string {
	switch e {
	case EdgePressed:
		return "pressed"
	case EdgeReleased:
		return "released"
	case EdgeHeld:
		return "held"
	default:
		return "none"
	}
}

// button tracks the previous sample of an input and the commands it fires
type button struct {
	id       ButtonID
	sample   Sampler
	last     bool
	pressed  []CommandID
	released []CommandID
	held     []CommandID
}

// NewButton registers an input. The input is sampled immediately so the first
// tick only sees an edge if the value actually changes.
func (s *Scheduler) NewButton(sample Sampler) ButtonID {
	id := ButtonID(len(s.buttons))
	b := &button{id: id, sample: sample}
	b.last, _ = s.sampleButton(b)
	s.buttons = append(s.buttons, b)
	return id
}

// WhenPressed fires the binding once on every false -> true transition
func (s *Scheduler) WhenPressed(id ButtonID, bind Binding) CommandID {
	b := s.mustButton(id)
	cmd := s.resolveBinding(bind)
	b.pressed = append(b.pressed, cmd)
	return cmd
}

// WhenReleased fires the binding once on every true -> false transition
func (s *Scheduler) WhenReleased(id ButtonID, bind Binding) CommandID {
	b := s.mustButton(id)
	cmd := s.resolveBinding(bind)
	b.released = append(b.released, cmd)
	return cmd
}

// WhileHeld fires the binding once on every tick the input stays true,
// not counting the tick it was pressed
func (s *Scheduler) WhileHeld(id ButtonID, bind Binding) CommandID {
	b := s.mustButton(id)
	cmd := s.resolveBinding(bind)
	b.held = append(b.held, cmd)
	return cmd
}

// LastValue returns the value observed at the end of the most recent tick
func (s *Scheduler) LastValue(id ButtonID) bool {
	return s.mustButton(id).last
}

// resolveBinding turns a bare callback into a plain command
func (s *Scheduler) resolveBinding(bind Binding) CommandID {
	if bind.ref {
		s.mustCommand(bind.cmd)
		return bind.cmd
	}
	return s.DefineCommand(CommandSpec{OnExecute: bind.fn})
}

// tickButton samples the input and activates the matching commands once
func (s *Scheduler) tickButton(b *button) Edge {
	value, ok := s.sampleButton(b)
	if !ok {
		// A failed sample counts as unchanged
		return EdgeNone
	}

	edge := EdgeNone
	switch {
	case value != b.last && value:
		edge = EdgePressed
		s.activateAllOnce(b.pressed)
	case value != b.last:
		edge = EdgeReleased
		s.activateAllOnce(b.released)
	case value:
		edge = EdgeHeld
		s.activateAllOnce(b.held)
	}

	b.last = value
	return edge
}

func (s *Scheduler) activateAllOnce(ids []CommandID) {
	for _, id := range ids {
		s.activate(s.commands[id], true)
	}
}

// sampleButton reads the input, recovering from a panicking sampler
func (s *Scheduler) sampleButton(b *button) (value bool, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.recordFailure()
			s.log.WithField("button", int(b.id)).
				WithField("panic", r).
				Error("input sampler failed")
			value, ok = b.last, false
		}
	}()
	return b.sample(), true
}

func (s *Scheduler) mustButton(id ButtonID) *button {
	if id < 0 || int(id) >= len(s.buttons) {
		panic("unknown button ID: " + strconv.Itoa(int(id)))
	}
	return s.buttons[id]
}

// Not inverts a sampler, for active-low inputs
func Not(sample Sampler) Sampler {
	return func() bool { return !sample() }
}

// PinSampler reads a GPIO input through the driver
func PinSampler(d GPIODriver, pin GPIOPin) Sampler {
	return func() bool { return d.ReadPin(pin) }
}
