package storyboard

import (
	"image"

	"go.uber.org/zap"

	"github.com/ivlev/storyboard/internal/animation"
)

func (m *Model) handleDocumentEvent(ev animation.Event) {
	switch ev.Kind {
	case animation.KeyframeAdded:
		m.keyframeAdded(ev.Channel, ev.Time)
	case animation.KeyframeRemoved:
		m.keyframeRemoved(ev.Channel, ev.Time)
	case animation.KeyframeMoved:
		m.keyframeRemoved(ev.Channel, ev.From)
		m.keyframeAdded(ev.Channel, ev.Time)
	case animation.FramerateChanged:
		m.recomputeDurations(m.fps, ev.Framerate)
	case animation.TimeChanged:
		m.currentTimeChanged(ev.Time)
	}
}

// keyframeAdded grows the storyboard so that a keyframe added on the
// timeline always belongs to a scene.
func (m *Model) keyframeAdded(ch animation.Channel, t int) {
	if m.suppress > 0 {
		return
	}
	if !m.locked && !m.freeze {
		m.coverFrame(t)
	}
	m.scheduleKeyframe(ch, t)
}

func (m *Model) keyframeRemoved(ch animation.Channel, t int) {
	if m.suppress > 0 {
		return
	}
	m.scheduleKeyframe(ch, t)
}

// coverFrame makes sure frame t lies inside some scene: a first scene is
// created, the last scene is extended or a scene is prepended.
func (m *Model) coverFrame(t int) {
	switch {
	case len(m.scenes) == 0:
		scene := NewScene(m.comments.Len())
		scene.Name = m.nextSceneName()
		scene.Thumbnail.Frame = t
		scene.SetTotalFrames(1, m.fps)
		m.scenes = append(m.scenes, scene)
		m.logger.Debug("scene created for keyframe", zap.Int("frame", t))
		m.emit(ModelEvent{Kind: SceneInserted, Index: 0})

	case t >= m.storyboardEnd():
		last := len(m.scenes) - 1
		m.scenes[last].SetTotalFrames(t-m.scenes[last].FrameNumber()+1, m.fps)
		m.logger.Debug("last scene extended for keyframe", zap.Int("frame", t))
		m.emit(ModelEvent{Kind: DataChanged, Index: last, Field: DurationSecond})
		m.emit(ModelEvent{Kind: DataChanged, Index: last, Field: DurationFrame})

	case t < m.scenes[0].FrameNumber():
		scene := NewScene(m.comments.Len())
		scene.Name = m.nextSceneName()
		scene.Thumbnail.Frame = t
		scene.SetTotalFrames(m.scenes[0].FrameNumber()-t, m.fps)
		m.scenes = append([]*Scene{scene}, m.scenes...)
		m.logger.Debug("scene prepended for keyframe", zap.Int("frame", t))
		m.emit(ModelEvent{Kind: SceneInserted, Index: 0})
	}
	if m.doc != nil {
		m.currentTimeChanged(m.doc.CurrentTime())
	}
}

// scheduleKeyframe schedules every scene whose first frame shows the
// keyframe at t, that is every scene starting between t and the next
// keyframe. The scene starting exactly at t was edited directly.
func (m *Model) scheduleKeyframe(ch animation.Channel, t int) {
	span := animation.InfiniteFrom(t)
	if ch != nil {
		if next, ok := ch.NextKeyframeTime(t); ok {
			span = animation.FromTimeToTime(t, next-1)
		}
	}
	m.scheduleSpan(span, t)
}

func (m *Model) scheduleSpan(span animation.TimeSpan, direct int) {
	for _, i := range m.AffectedScenes(span) {
		start := m.scenes[i].FrameNumber()
		if !span.Contains(start) {
			// The first frame lies before the edit.
			continue
		}
		m.schedule(start, start == direct)
	}
}

// UpdateThumbnails schedules the scenes showing the content the active layer
// displays at the current time. It is called after paint edits, which change
// a keyframe's content but not its position.
func (m *Model) UpdateThumbnails() {
	if m.doc == nil || len(m.scenes) == 0 {
		return
	}
	now := m.doc.CurrentTime()
	span := animation.InfiniteFrom(0)
	if layer := m.doc.ActiveLayer(); layer != nil && layer.KeyframeChannel() != nil {
		ch := layer.KeyframeChannel()
		from := 0
		if t, ok := ch.ActiveKeyframeTime(now); ok {
			from = t
		}
		span = animation.InfiniteFrom(from)
		if next, ok := ch.NextKeyframeTime(now); ok {
			span = animation.FromTimeToTime(from, next-1)
		}
	}
	if span.Infinite {
		span = animation.FromTimeToTime(span.Start, m.scenes[len(m.scenes)-1].FrameNumber())
	}
	m.scheduleSpan(span, now)
}

// FrameCompleted stores a rendered thumbnail in the scene starting at frame.
// Frames that no longer start a scene are discarded.
func (m *Model) FrameCompleted(frame int, img image.Image) {
	i, ok := m.IndexFromFrame(frame)
	if !ok {
		m.logger.Debug("discarding thumbnail", zap.Int("frame", frame))
		return
	}
	_ = m.SetThumbnail(i, img)
}

// FrameCancelled is called when a render for frame was abandoned.
func (m *Model) FrameCancelled(frame int) {
	m.logger.Debug("thumbnail cancelled", zap.Int("frame", frame))
}

// recomputeDurations rewrites every seconds/frames pair for a new frame rate.
// Frame spans are kept as they are.
func (m *Model) recomputeDurations(oldFPS, newFPS int) {
	if newFPS <= 0 || oldFPS == newFPS {
		return
	}
	for _, s := range m.scenes {
		s.SetTotalFrames(s.TotalFrames(oldFPS), newFPS)
	}
	m.fps = newFPS
	m.logger.Debug("framerate changed", zap.Int("from", oldFPS), zap.Int("to", newFPS))
	m.emit(ModelEvent{Kind: LayoutChanged, Index: -1})
}

func (m *Model) currentTimeChanged(t int) {
	i, ok := m.SceneContaining(t)
	if !ok {
		i = -1
	}
	m.setCurrent(i)
}
