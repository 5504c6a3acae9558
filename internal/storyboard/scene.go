package storyboard

import (
	"image"

	"github.com/google/uuid"
)

// Field indices of a scene. Comment boxes follow the fixed fields, one per
// comment schema entry, starting at Comments.
const (
	FrameNumber = iota
	ItemName
	DurationSecond
	DurationFrame
	Comments
)

// ThumbnailData is the value of the FrameNumber field: the first frame of the
// scene together with its rendered thumbnail.
type ThumbnailData struct {
	Frame  int
	Pixmap image.Image
}

// CommentBox is the value of a comment field.
type CommentBox struct {
	Content     string
	ScrollValue int
}

// Scene is one storyboard panel. Scenes are shared by pointer between the
// model and undo commands, so a removed scene can be put back as is.
type Scene struct {
	ID             uuid.UUID
	Thumbnail      ThumbnailData
	Name           string
	DurationSecond int
	DurationFrame  int
	Comments       []CommentBox
}

// NewScene returns a scene with a fresh ID and commentCount empty comment
// boxes.
func NewScene(commentCount int) *Scene {
	if commentCount < 0 {
		commentCount = 0
	}
	return &Scene{
		ID:       uuid.New(),
		Comments: make([]CommentBox, commentCount),
	}
}

// FrameNumber returns the global first frame of the scene.
func (s *Scene) FrameNumber() int { return s.Thumbnail.Frame }

// TotalFrames returns DurationSecond*fps + DurationFrame.
func (s *Scene) TotalFrames(fps int) int {
	return s.DurationSecond*fps + s.DurationFrame
}

// SetTotalFrames stores total as a seconds/frames pair for fps.
func (s *Scene) SetTotalFrames(total, fps int) {
	if fps <= 0 {
		fps = 1
	}
	if total < 0 {
		total = 0
	}
	s.DurationSecond = total / fps
	s.DurationFrame = total % fps
}

// FieldCount returns the number of fields including comment boxes.
func (s *Scene) FieldCount() int { return Comments + len(s.Comments) }

// Value returns the display value of a field: the frame number, name,
// duration parts or comment text.
func (s *Scene) Value(field int) (any, bool) {
	switch {
	case field == FrameNumber:
		return s.Thumbnail.Frame, true
	case field == ItemName:
		return s.Name, true
	case field == DurationSecond:
		return s.DurationSecond, true
	case field == DurationFrame:
		return s.DurationFrame, true
	case field >= Comments && field < s.FieldCount():
		return s.Comments[field-Comments].Content, true
	default:
		return nil, false
	}
}

// Clone returns a deep copy that keeps the scene ID. The thumbnail image is
// shared since it is never mutated in place.
func (s *Scene) Clone() *Scene {
	c := *s
	c.Comments = append([]CommentBox(nil), s.Comments...)
	return &c
}

func (s *Scene) insertComments(at, count int) {
	if at < 0 || at > len(s.Comments) || count <= 0 {
		return
	}
	boxes := make([]CommentBox, 0, len(s.Comments)+count)
	boxes = append(boxes, s.Comments[:at]...)
	boxes = append(boxes, make([]CommentBox, count)...)
	boxes = append(boxes, s.Comments[at:]...)
	s.Comments = boxes
}

func (s *Scene) removeComments(at, count int) {
	if at < 0 || count <= 0 || at+count > len(s.Comments) {
		return
	}
	s.Comments = append(s.Comments[:at], s.Comments[at+count:]...)
}

func (s *Scene) moveComments(from, count, to int) {
	s.Comments = splice(s.Comments, from, count, to)
}

// conformComments pads or trims the comment boxes to count.
func (s *Scene) conformComments(count int) {
	switch {
	case len(s.Comments) < count:
		s.Comments = append(s.Comments, make([]CommentBox, count-len(s.Comments))...)
	case len(s.Comments) > count:
		s.Comments = s.Comments[:count]
	}
}

// splice moves the block [from, from+count) so that it lands before the
// element that was at index to. When to lies past the block the destination
// accounts for the removed elements, like a list model's row move.
func splice[T any](items []T, from, count, to int) []T {
	if count <= 0 || from < 0 || from+count > len(items) || to < 0 || to > len(items) {
		return items
	}
	if to >= from && to <= from+count {
		return items
	}
	block := append([]T(nil), items[from:from+count]...)
	rest := make([]T, 0, len(items)-count)
	rest = append(rest, items[:from]...)
	rest = append(rest, items[from+count:]...)

	dest := to
	if to > from {
		dest = to - count
	}
	out := make([]T, 0, len(items))
	out = append(out, rest[:dest]...)
	out = append(out, block...)
	out = append(out, rest[dest:]...)
	return out
}
