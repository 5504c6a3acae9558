package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/storyboard/internal/animation"
)

func TestChannelNavigation(t *testing.T) {
	img := NewImage(64, 36, 24)
	ch := img.AddLayer("ink", true).Channel()
	for _, tm := range []int{10, 0, 5} {
		ch.AddKeyframe(tm)
	}

	assert.Equal(t, []int{0, 5, 10}, ch.Times())

	next, ok := ch.NextKeyframeTime(5)
	require.True(t, ok)
	assert.Equal(t, 10, next)

	_, ok = ch.NextKeyframeTime(10)
	assert.False(t, ok)

	prev, ok := ch.PreviousKeyframeTime(5)
	require.True(t, ok)
	assert.Equal(t, 0, prev)

	active, ok := ch.ActiveKeyframeTime(7)
	require.True(t, ok)
	assert.Equal(t, 5, active)

	active, ok = ch.ActiveKeyframeTime(5)
	require.True(t, ok)
	assert.Equal(t, 5, active)

	last, ok := ch.LastKeyframeTime()
	require.True(t, ok)
	assert.Equal(t, 10, last)
}

func TestChannelEvents(t *testing.T) {
	img := NewImage(64, 36, 24)
	ch := img.AddLayer("ink", true).Channel()

	var events []animation.Event
	cancel := img.Subscribe(func(ev animation.Event) { events = append(events, ev) })

	ch.AddKeyframe(3)
	ch.AddKeyframe(3)
	ch.MoveKeyframe(3, 8)
	ch.RemoveKeyframe(8)
	ch.RemoveKeyframe(8)

	require.Len(t, events, 3)
	assert.Equal(t, animation.KeyframeAdded, events[0].Kind)
	assert.Equal(t, 3, events[0].Time)
	assert.Equal(t, animation.KeyframeMoved, events[1].Kind)
	assert.Equal(t, 3, events[1].From)
	assert.Equal(t, 8, events[1].Time)
	assert.Equal(t, animation.KeyframeRemoved, events[2].Kind)

	cancel()
	ch.AddKeyframe(1)
	assert.Len(t, events, 3)
}

func TestMoveKeyframeReplacesDestination(t *testing.T) {
	img := NewImage(64, 36, 24)
	ch := img.AddLayer("ink", true).Channel()
	ch.AddKeyframeWithPage(1, 7)
	ch.AddKeyframeWithPage(2, 9)

	ch.MoveKeyframe(1, 2)

	assert.Equal(t, []int{2}, ch.Times())
	page, ok := ch.Page(2)
	require.True(t, ok)
	assert.Equal(t, 7, page)
}

func TestCloneIsDetached(t *testing.T) {
	img := NewImage(64, 36, 24)
	ch := img.AddLayer("ink", true).Channel()
	ch.AddKeyframe(0)

	notified := 0
	img.Subscribe(func(animation.Event) { notified++ })

	clone := img.CloneImage()
	clone.SwitchTime(12)
	clone.Layer(0).Channel().AddKeyframe(4)

	assert.Equal(t, 0, notified)
	assert.Equal(t, 0, img.CurrentTime())
	assert.Equal(t, []int{0}, ch.Times())
	assert.Equal(t, []int{0, 4}, clone.Layer(0).Channel().Times())
}

func TestFramerateAndTimeEvents(t *testing.T) {
	img := NewImage(64, 36, 0)
	assert.Equal(t, DefaultFramerate, img.Framerate())

	var kinds []animation.EventKind
	img.Subscribe(func(ev animation.Event) { kinds = append(kinds, ev.Kind) })

	img.SetFramerate(30)
	img.SetFramerate(30)
	img.SwitchTime(4)
	img.SwitchTime(4)
	img.NotifyUpdated()

	assert.Equal(t, []animation.EventKind{animation.FramerateChanged, animation.TimeChanged, animation.ImageUpdated}, kinds)
}
