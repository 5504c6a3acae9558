package undo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counter(name string, value *int, delta int) *Func {
	return &Func{
		Name:   name,
		RedoFn: func() { *value += delta },
		UndoFn: func() { *value -= delta },
	}
}

func TestMacroOrder(t *testing.T) {
	var log []string
	m := NewMacro("both",
		&Func{RedoFn: func() { log = append(log, "a+") }, UndoFn: func() { log = append(log, "a-") }},
		nil,
		&Func{RedoFn: func() { log = append(log, "b+") }, UndoFn: func() { log = append(log, "b-") }},
	)
	require.Len(t, m.Children, 2)

	m.Redo()
	m.Undo()
	assert.Equal(t, []string{"a+", "b+", "b-", "a-"}, log)
}

func TestStackUndoRedo(t *testing.T) {
	value := 0
	s := NewStack(0)

	s.Push(counter("one", &value, 1))
	s.Push(counter("ten", &value, 10))
	assert.Equal(t, 11, value)

	cmd, ok := s.Undo()
	require.True(t, ok)
	assert.Equal(t, "ten", cmd.Text())
	assert.Equal(t, 1, value)

	_, ok = s.Redo()
	require.True(t, ok)
	assert.Equal(t, 11, value)

	s.Undo()
	s.Undo()
	assert.Equal(t, 0, value)
	assert.False(t, s.CanUndo())

	s.Push(counter("hundred", &value, 100))
	assert.False(t, s.CanRedo())
	assert.Equal(t, 1, s.Len())
}

func TestStackLimit(t *testing.T) {
	value := 0
	s := NewStack(2)
	for i := 0; i < 5; i++ {
		s.Push(counter("inc", &value, 1))
	}
	assert.Equal(t, 2, s.Len())
	s.Undo()
	s.Undo()
	_, ok := s.Undo()
	assert.False(t, ok)
	assert.Equal(t, 3, value)
}

func TestRecordDoesNotReapply(t *testing.T) {
	value := 5
	s := NewStack(10)
	s.Record(counter("applied", &value, 5))
	assert.Equal(t, 5, value)
	s.Undo()
	assert.Equal(t, 0, value)
}
