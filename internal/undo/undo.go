// Package undo provides reversible commands and a bounded undo stack.
package undo

// Command is a reversible edit.
type Command interface {
	Redo()
	Undo()
	Text() string
}

// Func adapts a pair of closures to Command.
type Func struct {
	Name   string
	RedoFn func()
	UndoFn func()
}

func (f *Func) Redo() {
	if f.RedoFn != nil {
		f.RedoFn()
	}
}

func (f *Func) Undo() {
	if f.UndoFn != nil {
		f.UndoFn()
	}
}

func (f *Func) Text() string { return f.Name }

// Macro composes commands into one atomic step: children redo in order and
// undo in reverse.
type Macro struct {
	Name     string
	Children []Command
}

// NewMacro builds a macro, skipping nil children.
func NewMacro(name string, children ...Command) *Macro {
	m := &Macro{Name: name}
	for _, c := range children {
		m.Add(c)
	}
	return m
}

// Add appends a child. Nil commands are ignored.
func (m *Macro) Add(c Command) {
	if c != nil {
		m.Children = append(m.Children, c)
	}
}

func (m *Macro) Redo() {
	for _, c := range m.Children {
		c.Redo()
	}
}

func (m *Macro) Undo() {
	for i := len(m.Children) - 1; i >= 0; i-- {
		m.Children[i].Undo()
	}
}

func (m *Macro) Text() string { return m.Name }
