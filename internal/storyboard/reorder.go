package storyboard

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivlev/storyboard/internal/animation"
)

// placedKey is a keyframe expressed relative to the scene holding it. Keys
// past the last scene have a nil scene ID and an offset from the storyboard
// end.
type placedKey struct {
	channel animation.Channel
	scene   uuid.UUID
	offset  int
	data    any
}

// reorder replaces the scene list with order, a permutation of it, and
// rebuilds the keyframes so every keyframe keeps its offset inside the scene
// it belonged to. Frame numbers are rewritten from the earliest scene start.
// With frozen keyframes only the frame numbers change.
func (m *Model) reorder(order []*Scene) {
	if len(m.scenes) == 0 {
		return
	}
	origin := m.scenes[0].FrameNumber()

	var keys []placedKey
	if m.syncsKeyframes() {
		keys = m.placeKeyframes(origin)
		m.removeKeyframes(animation.InfiniteFrom(origin))
	}

	m.scenes = order
	starts := make(map[uuid.UUID]int, len(order))
	next := origin
	for _, s := range m.scenes {
		if old := s.FrameNumber(); old != next {
			s.Thumbnail.Frame = next
			m.reschedule(old, next)
		}
		starts[s.ID] = next
		next += s.TotalFrames(m.fps)
	}
	end := next

	if len(keys) == 0 {
		return
	}
	m.suppress++
	defer func() { m.suppress-- }()
	for _, k := range keys {
		base, ok := starts[k.scene]
		if !ok {
			base = end
		}
		k.channel.RestoreKeyframe(base+k.offset, k.data)
	}
	m.logger.Debug("keyframes reordered", zap.Int("origin", origin), zap.Int("count", len(keys)))
}

// placeKeyframes records every keyframe at or after origin relative to the
// scene containing it in the current order.
func (m *Model) placeKeyframes(origin int) []placedKey {
	end := m.storyboardEnd()
	var keys []placedKey
	for _, ch := range m.channels() {
		for _, t := range ch.Times() {
			if t < origin {
				continue
			}
			data, _ := ch.KeyframeData(t)
			k := placedKey{channel: ch, data: data}
			if i, ok := m.SceneContaining(t); ok {
				k.scene = m.scenes[i].ID
				k.offset = t - m.scenes[i].FrameNumber()
			} else {
				k.offset = t - end
			}
			keys = append(keys, k)
		}
	}
	return keys
}
