package storyboard

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ivlev/storyboard/internal/animation"
	"github.com/ivlev/storyboard/internal/undo"
)

// InsertScene creates a one-frame scene at position at, or right after it
// when after is set. The scene starts where its predecessor ends; later
// scenes move one frame forward. Unless keyframe positions are frozen, the
// keyframes from the new start on shift by one frame and a keyframe is added
// on the active layer at the new start.
func (m *Model) InsertScene(at int, after bool) (undo.Command, error) {
	if m.locked {
		return nil, ErrLocked
	}
	pos := at
	if after {
		pos = at + 1
	}
	switch {
	case len(m.scenes) == 0 && at != 0:
		return nil, fmt.Errorf("insert scene at %d of 0: %w", at, ErrIndexOutOfRange)
	case len(m.scenes) > 0 && (at < 0 || at >= len(m.scenes)) && !(at == len(m.scenes) && !after):
		return nil, fmt.Errorf("insert scene at %d of %d: %w", at, len(m.scenes), ErrIndexOutOfRange)
	}
	if len(m.scenes) == 0 {
		pos = 0
	}

	start := 0
	switch {
	case pos > 0:
		start = m.sceneEnd(pos - 1)
	case len(m.scenes) > 0:
		start = m.scenes[0].FrameNumber()
	}

	return m.transaction("insert scene", func() error {
		if m.syncsKeyframes() {
			m.shift(animation.InfiniteFrom(start), 1)
			if layer := m.doc.ActiveLayer(); layer != nil && layer.KeyframeChannel() != nil {
				m.suppress++
				layer.KeyframeChannel().AddKeyframe(start)
				m.suppress--
			}
		}

		scene := NewScene(m.comments.Len())
		scene.Name = m.nextSceneName()
		scene.Thumbnail.Frame = start
		scene.SetTotalFrames(1, m.fps)

		m.scenes = append(m.scenes, nil)
		copy(m.scenes[pos+1:], m.scenes[pos:])
		m.scenes[pos] = scene
		m.recomputeFrameNumbers(pos + 1)

		m.logger.Debug("scene inserted", zap.Int("index", pos), zap.Int("frame", start))
		m.emit(ModelEvent{Kind: SceneInserted, Index: pos})
		m.schedule(start, true)
		m.followTime(start, pos)
		return nil
	})
}

// RemoveScene deletes scene at together with the keyframes it contains. The
// keyframes after it and the later scenes move back by its duration. If the
// document was showing the first frame of the removed scene it switches to
// the previous scene.
func (m *Model) RemoveScene(at int) (undo.Command, error) {
	if m.locked {
		return nil, ErrLocked
	}
	if err := m.checkScene(at); err != nil {
		return nil, err
	}
	start := m.scenes[at].FrameNumber()
	duration := m.totalFrames(at)
	span := animation.FromTimeToTime(start, start+duration-1)

	return m.transaction("remove scene", func() error {
		if m.syncsKeyframes() {
			m.removeKeyframes(span)
			m.shift(animation.InfiniteFrom(start+duration), -duration)
		}

		if m.scheduler != nil {
			m.scheduler.CancelFrame(start)
		}
		m.scenes = append(m.scenes[:at], m.scenes[at+1:]...)
		if at < len(m.scenes) {
			old := m.scenes[at].FrameNumber()
			m.scenes[at].Thumbnail.Frame = start
			m.reschedule(old, start)
			m.recomputeFrameNumbers(at + 1)
		}

		m.logger.Debug("scene removed",
			zap.Int("index", at), zap.Stringer("span", span), zap.Int("duration", duration))
		m.emit(ModelEvent{Kind: SceneRemoved, Index: at})

		switch {
		case m.doc == nil:
			m.setCurrent(-1)
		case m.doc.CurrentTime() == start && at > 0:
			m.followTime(m.scenes[at-1].FrameNumber(), at-1)
		default:
			m.currentTimeChanged(m.doc.CurrentTime())
		}
		return nil
	})
}

// SetSceneDuration sets the duration of scene i from a seconds/frames pair.
// Frames may exceed the frame rate; the pair is normalized.
func (m *Model) SetSceneDuration(i, seconds, frames int) (undo.Command, int, error) {
	if seconds < 0 || frames < 0 {
		return nil, 0, fmt.Errorf("duration %ds %df: %w", seconds, frames, ErrInvalidValue)
	}
	return m.SetSceneDurationFrames(i, seconds*m.fps+frames)
}

// SetSceneDurationFrames sets the total duration of scene i in frames. The
// value is raised to cover the last keyframe inside the scene on any
// animated layer, and to at least one frame. It returns the effective
// duration; the command is nil when the duration did not change.
func (m *Model) SetSceneDurationFrames(i, frames int) (undo.Command, int, error) {
	if m.locked {
		return nil, 0, ErrLocked
	}
	if err := m.checkScene(i); err != nil {
		return nil, 0, err
	}
	if frames < 0 {
		return nil, 0, fmt.Errorf("duration %d: %w", frames, ErrInvalidValue)
	}

	old := m.totalFrames(i)
	want := max(frames, m.minimumDuration(i))
	if want != frames {
		m.logger.Debug("scene duration clamped",
			zap.Int("index", i), zap.Int("requested", frames), zap.Int("effective", want))
	}
	if want == old {
		return nil, old, nil
	}

	cmd, err := m.transaction("change scene duration", func() error {
		m.resizeScene(i, want)
		return nil
	})
	return cmd, want, err
}

// resizeScene changes the total duration of scene i, shifting everything
// after its old end by the difference.
func (m *Model) resizeScene(i, frames int) {
	start := m.scenes[i].FrameNumber()
	old := m.totalFrames(i)
	if m.syncsKeyframes() {
		m.shift(animation.InfiniteFrom(start+old), frames-old)
	}
	m.scenes[i].SetTotalFrames(frames, m.fps)
	m.recomputeFrameNumbers(i + 1)
	m.emit(ModelEvent{Kind: DataChanged, Index: i, Field: DurationSecond})
	m.emit(ModelEvent{Kind: DataChanged, Index: i, Field: DurationFrame})
}

// minimumDuration is the shortest duration scene i can take without losing
// keyframes: up to and including its last keyframe on any animated layer.
func (m *Model) minimumDuration(i int) int {
	if !m.syncsKeyframes() {
		return 1
	}
	start := m.scenes[i].FrameNumber()
	last, ok := m.lastKeyframeWithin(m.sceneSpan(i))
	if !ok {
		return 1
	}
	return max(last-start+1, 1)
}

// lastKeyframeWithin returns the latest keyframe inside span over every
// animated layer.
func (m *Model) lastKeyframeWithin(span animation.TimeSpan) (int, bool) {
	last, found := 0, false
	for _, ch := range m.channels() {
		var t int
		var ok bool
		if span.Infinite {
			t, ok = ch.LastKeyframeTime()
		} else if ch.KeyframeAt(span.End) {
			t, ok = span.End, true
		} else {
			t, ok = ch.PreviousKeyframeTime(span.End)
		}
		if !ok || !span.Contains(t) {
			continue
		}
		if !found || t > last {
			last, found = t, true
		}
	}
	return last, found
}

// MoveScenes relocates count scenes starting at from so that they land before
// the scene currently at to, then rebuilds the keyframes to follow the new
// order and switches the document to the first moved scene.
func (m *Model) MoveScenes(from, count, to int) (undo.Command, error) {
	if m.locked {
		return nil, ErrLocked
	}
	if count <= 0 || from < 0 || from+count > len(m.scenes) || to < 0 || to > len(m.scenes) {
		return nil, fmt.Errorf("move scenes %d+%d to %d of %d: %w",
			from, count, to, len(m.scenes), ErrIndexOutOfRange)
	}
	if to >= from && to <= from+count {
		return nil, nil
	}
	dest := to
	if to > from {
		dest = to - count
	}

	return m.transaction("move scenes", func() error {
		m.reorder(splice(m.scenes, from, count, to))
		m.logger.Debug("scenes moved",
			zap.Int("from", from), zap.Int("count", count), zap.Int("to", dest))
		m.emit(ModelEvent{Kind: ScenesMoved, Index: from, Count: count, To: dest})
		m.followTime(m.scenes[dest].FrameNumber(), dest)
		return nil
	})
}

// SetField validates and stores one field of scene i. Duration fields go
// through SetSceneDuration so the timeline follows. Only the first scene's
// frame number can be set; it moves the whole storyboard.
func (m *Model) SetField(i, field int, value any) (undo.Command, error) {
	if m.locked {
		return nil, ErrLocked
	}
	if err := m.checkField(i, field); err != nil {
		return nil, err
	}
	scene := m.scenes[i]

	switch {
	case field == ItemName:
		name, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("name %v: %w", value, ErrInvalidValue)
		}
		if name == scene.Name {
			return nil, nil
		}
		return m.transaction("rename scene", func() error {
			scene.Name = name
			m.emit(ModelEvent{Kind: DataChanged, Index: i, Field: field})
			return nil
		})

	case field == DurationSecond || field == DurationFrame:
		v, ok := value.(int)
		if !ok || v < 0 {
			return nil, fmt.Errorf("duration field %v: %w", value, ErrInvalidValue)
		}
		seconds, frames := scene.DurationSecond, scene.DurationFrame
		if field == DurationSecond {
			seconds = v
		} else {
			frames = v
		}
		cmd, _, err := m.SetSceneDuration(i, seconds, frames)
		return cmd, err

	case field == FrameNumber:
		v, ok := value.(int)
		if !ok || v < 0 {
			return nil, fmt.Errorf("frame number %v: %w", value, ErrInvalidValue)
		}
		return m.setStart(i, v)

	default:
		text, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("comment %v: %w", value, ErrInvalidValue)
		}
		box := &scene.Comments[field-Comments]
		if box.Content == text {
			return nil, nil
		}
		return m.transaction("edit comment", func() error {
			box.Content = text
			m.emit(ModelEvent{Kind: DataChanged, Index: i, Field: field})
			return nil
		})
	}
}

func (m *Model) setStart(i, frame int) (undo.Command, error) {
	old := m.scenes[i].FrameNumber()
	if frame == old {
		return nil, nil
	}
	if i != 0 {
		return nil, fmt.Errorf("frame number of scene %d follows scene %d: %w", i, i-1, ErrInvalidValue)
	}
	if frame < old && m.syncsKeyframes() {
		for _, ch := range m.channels() {
			if t, ok := ch.PreviousKeyframeTime(old); ok && t >= frame {
				return nil, fmt.Errorf("keyframe at %d lies before scene %d: %w", t, i, ErrInvalidValue)
			}
		}
	}
	return m.transaction("move storyboard", func() error {
		if m.syncsKeyframes() {
			m.shift(animation.InfiniteFrom(old), frame-old)
		}
		m.scenes[0].Thumbnail.Frame = frame
		m.reschedule(old, frame)
		m.recomputeFrameNumbers(1)
		m.emit(ModelEvent{Kind: DataChanged, Index: 0, Field: FrameNumber})
		return nil
	})
}

// followTime switches the document to frame and selects the scene there.
// Without a document only the selection moves to index.
func (m *Model) followTime(frame, index int) {
	if m.doc == nil {
		m.setCurrent(index)
		return
	}
	m.doc.SwitchTime(frame)
	m.currentTimeChanged(m.doc.CurrentTime())
}

// syncsKeyframes reports whether scene edits are mirrored onto keyframes.
func (m *Model) syncsKeyframes() bool { return m.doc != nil && !m.freeze }

func (m *Model) channels() []animation.Channel {
	if m.doc == nil {
		return nil
	}
	return animation.AnimatedChannels(m.doc.Layers())
}

// removeKeyframes deletes every keyframe inside span on every animated
// layer.
func (m *Model) removeKeyframes(span animation.TimeSpan) {
	m.suppress++
	defer func() { m.suppress-- }()
	for _, ch := range m.channels() {
		for _, t := range ch.Times() {
			if span.Contains(t) {
				ch.RemoveKeyframe(t)
			}
		}
	}
}
