package core

// Requirement names a physical resource that one command at a time may control,
// e.g. "drivetrain" or "left_motor".
type Requirement string

// resolveConflicts deactivates every active command that shares a requirement
// with c. Tokens are visited in c's declared order, and each token's commands
// in registration order.
//
// OnEnd callbacks fired here may activate further commands. Passes repeat until
// one evicts nothing, so c never becomes active alongside a conflicting command.
// The number of passes is bounded by the number of registered commands.
func (s *Scheduler) resolveConflicts(c *command) {
	if len(c.requirements) == 0 {
		return
	}

	maxPasses := len(s.commands) + 1
	for pass := 0; pass < maxPasses; pass++ {
		if s.evictConflicts(c) == 0 {
			return
		}
	}

	s.log.WithField("cmd", int(c.id)).
		WithField("passes", maxPasses).
		Warn("conflict resolution did not settle; activating anyway")
}

// evictConflicts runs one resolution pass and returns how many commands it stopped
func (s *Scheduler) evictConflicts(c *command) int {
	evicted := 0
	for _, r := range c.requirements {
		for _, id := range s.requirements[r] {
			other := s.commands[id]
			if other == c || !other.active {
				continue
			}
			s.log.WithField("cmd", int(other.id)).
				WithField("by", int(c.id)).
				WithField("requirement", string(r)).
				Debug("evicting conflicting command")
			s.deactivate(other)
			evicted++
		}
	}
	return evicted
}

// Conflicts returns the commands that share at least one requirement with id,
// in the order the resolver would visit them. id itself is not included.
func (s *Scheduler) Conflicts(id CommandID) []CommandID {
	c := s.mustCommand(id)
	seen := make(map[CommandID]bool)
	var out []CommandID
	for _, r := range c.requirements {
		for _, other := range s.requirements[r] {
			if other == id || seen[other] {
				continue
			}
			seen[other] = true
			out = append(out, other)
		}
	}
	return out
}
