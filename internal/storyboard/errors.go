package storyboard

import "errors"

var (
	// ErrIndexOutOfRange is returned for a scene or field index outside the
	// model. Nothing is applied.
	ErrIndexOutOfRange = errors.New("storyboard: index out of range")
	// ErrLocked is returned for edits attempted while the model is locked.
	ErrLocked = errors.New("storyboard: model is locked")
	// ErrInvalidValue is returned when a field value fails validation.
	ErrInvalidValue = errors.New("storyboard: invalid field value")
)
