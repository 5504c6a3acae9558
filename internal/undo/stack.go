package undo

// DefaultLimit bounds the stack when no limit is given.
const DefaultLimit = 100

// Stack records applied commands. Pushing a command discards the redo tail.
type Stack struct {
	commands []Command
	index    int
	limit    int
}

// NewStack creates a stack holding at most limit commands.
func NewStack(limit int) *Stack {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Stack{limit: limit}
}

// Push applies cmd and records it.
func (s *Stack) Push(cmd Command) {
	if cmd == nil {
		return
	}
	cmd.Redo()
	s.Record(cmd)
}

// Record stores a command that has already been applied.
func (s *Stack) Record(cmd Command) {
	if cmd == nil {
		return
	}
	s.commands = append(s.commands[:s.index], cmd)
	if len(s.commands) > s.limit {
		s.commands = s.commands[len(s.commands)-s.limit:]
	}
	s.index = len(s.commands)
}

func (s *Stack) CanUndo() bool { return s.index > 0 }

func (s *Stack) CanRedo() bool { return s.index < len(s.commands) }

// Undo reverts the latest command and returns it.
func (s *Stack) Undo() (Command, bool) {
	if !s.CanUndo() {
		return nil, false
	}
	s.index--
	cmd := s.commands[s.index]
	cmd.Undo()
	return cmd, true
}

// Redo reapplies the latest undone command and returns it.
func (s *Stack) Redo() (Command, bool) {
	if !s.CanRedo() {
		return nil, false
	}
	cmd := s.commands[s.index]
	cmd.Redo()
	s.index++
	return cmd, true
}

// Len returns the number of recorded commands, undone ones included.
func (s *Stack) Len() int { return len(s.commands) }

// Clear drops every command.
func (s *Stack) Clear() {
	s.commands = nil
	s.index = 0
}
