package storyboard

import (
	"go.uber.org/zap"

	"github.com/ivlev/storyboard/internal/animation"
)

// ShiftKeyframes moves every keyframe inside span by offset frames on every
// animated layer and returns how many keyframes moved. The keyframe hooks do
// not fire while shifting. It is a no-op without a document, and when a
// keyframe would land before frame 0.
func (m *Model) ShiftKeyframes(span animation.TimeSpan, offset int) int {
	if m.doc == nil {
		return 0
	}
	return m.shift(span, offset)
}

func (m *Model) shift(span animation.TimeSpan, offset int) int {
	if offset == 0 || span.IsEmpty() {
		return 0
	}
	channels := m.channels()
	if offset < 0 {
		for _, ch := range channels {
			if times := timesWithin(ch, span); len(times) > 0 && times[0]+offset < 0 {
				m.logger.Debug("keyframe shift refused",
					zap.Stringer("span", span), zap.Int("offset", offset), zap.Int("earliest", times[0]))
				return 0
			}
		}
	}

	m.suppress++
	defer func() { m.suppress-- }()

	moved := 0
	for _, ch := range channels {
		times := timesWithin(ch, span)
		// Walk away from the direction of travel so that no keyframe lands on
		// one that has not moved yet.
		if offset > 0 {
			for i := len(times) - 1; i >= 0; i-- {
				ch.MoveKeyframe(times[i], times[i]+offset)
			}
		} else {
			for _, t := range times {
				ch.MoveKeyframe(t, t+offset)
			}
		}
		moved += len(times)
	}
	if moved > 0 {
		m.logger.Debug("keyframes shifted",
			zap.Stringer("span", span), zap.Int("offset", offset), zap.Int("count", moved))
	}
	return moved
}

// timesWithin returns the keyframe times of ch inside span in ascending
// order.
func timesWithin(ch animation.Channel, span animation.TimeSpan) []int {
	var out []int
	for _, t := range ch.Times() {
		if span.Contains(t) {
			out = append(out, t)
		}
	}
	return out
}
