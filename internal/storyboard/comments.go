package storyboard

import (
	"fmt"
	"sync"
)

// Comment is one comment column shared by every scene.
type Comment struct {
	Name    string
	Visible bool
}

// CommentEventKind enumerates schema notifications.
type CommentEventKind int

const (
	CommentsInserted CommentEventKind = iota
	CommentsRemoved
	CommentsMoved
	CommentChanged
)

// CommentEvent describes a schema change. For moves, To is the destination
// as passed to Move.
type CommentEvent struct {
	Kind  CommentEventKind
	Index int
	Count int
	To    int
}

// CommentSchema is the ordered list of comment columns. The model keeps one
// CommentBox per entry in every scene, in the same order.
type CommentSchema struct {
	comments []Comment

	mu        sync.Mutex
	listeners map[int]func(CommentEvent)
	nextID    int
}

// NewCommentSchema creates a schema with visible columns named after names.
func NewCommentSchema(names ...string) *CommentSchema {
	s := &CommentSchema{listeners: make(map[int]func(CommentEvent))}
	for _, name := range names {
		s.comments = append(s.comments, Comment{Name: name, Visible: true})
	}
	return s
}

func (s *CommentSchema) Len() int { return len(s.comments) }

// At returns the comment column at i.
func (s *CommentSchema) At(i int) (Comment, error) {
	if i < 0 || i >= len(s.comments) {
		return Comment{}, fmt.Errorf("comment %d: %w", i, ErrIndexOutOfRange)
	}
	return s.comments[i], nil
}

// List returns a copy of every column.
func (s *CommentSchema) List() []Comment {
	return append([]Comment(nil), s.comments...)
}

// Insert adds a visible column named name at position at.
func (s *CommentSchema) Insert(at int, name string) error {
	if at < 0 || at > len(s.comments) {
		return fmt.Errorf("comment %d: %w", at, ErrIndexOutOfRange)
	}
	s.comments = append(s.comments, Comment{})
	copy(s.comments[at+1:], s.comments[at:])
	s.comments[at] = Comment{Name: name, Visible: true}
	s.notify(CommentEvent{Kind: CommentsInserted, Index: at, Count: 1})
	return nil
}

// Remove deletes the column at position at.
func (s *CommentSchema) Remove(at int) error {
	if at < 0 || at >= len(s.comments) {
		return fmt.Errorf("comment %d: %w", at, ErrIndexOutOfRange)
	}
	s.comments = append(s.comments[:at], s.comments[at+1:]...)
	s.notify(CommentEvent{Kind: CommentsRemoved, Index: at, Count: 1})
	return nil
}

// Move relocates count columns starting at from so that they land before the
// column currently at to.
func (s *CommentSchema) Move(from, count, to int) error {
	if count <= 0 || from < 0 || from+count > len(s.comments) || to < 0 || to > len(s.comments) {
		return fmt.Errorf("move comments %d+%d to %d: %w", from, count, to, ErrIndexOutOfRange)
	}
	if to >= from && to <= from+count {
		return nil
	}
	s.comments = splice(s.comments, from, count, to)
	s.notify(CommentEvent{Kind: CommentsMoved, Index: from, Count: count, To: to})
	return nil
}

func (s *CommentSchema) SetName(i int, name string) error {
	if i < 0 || i >= len(s.comments) {
		return fmt.Errorf("comment %d: %w", i, ErrIndexOutOfRange)
	}
	s.comments[i].Name = name
	s.notify(CommentEvent{Kind: CommentChanged, Index: i, Count: 1})
	return nil
}

func (s *CommentSchema) SetVisible(i int, visible bool) error {
	if i < 0 || i >= len(s.comments) {
		return fmt.Errorf("comment %d: %w", i, ErrIndexOutOfRange)
	}
	s.comments[i].Visible = visible
	s.notify(CommentEvent{Kind: CommentChanged, Index: i, Count: 1})
	return nil
}

// VisibleCount returns the number of visible columns.
func (s *CommentSchema) VisibleCount() int {
	n := 0
	for _, c := range s.comments {
		if c.Visible {
			n++
		}
	}
	return n
}

// VisibleUpTo returns how many visible columns precede column i.
func (s *CommentSchema) VisibleUpTo(i int) int {
	n := 0
	for j := 0; j < i && j < len(s.comments); j++ {
		if s.comments[j].Visible {
			n++
		}
	}
	return n
}

// Subscribe registers fn for schema changes. The returned func removes it.
func (s *CommentSchema) Subscribe(fn func(CommentEvent)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *CommentSchema) notify(ev CommentEvent) {
	s.mu.Lock()
	fns := make([]func(CommentEvent), 0, len(s.listeners))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.listeners[id]; ok {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
