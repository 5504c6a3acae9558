package timeline

import (
	"sort"

	"github.com/ivlev/storyboard/internal/animation"
)

// Layer is a raster layer with one keyframe channel.
type Layer struct {
	name     string
	animated bool
	image    *Image
	channel  *Channel
	nextPage int
}

func (l *Layer) Name() string { return l.name }

func (l *Layer) IsAnimated() bool {
	l.image.mu.RLock()
	defer l.image.mu.RUnlock()
	return l.animated
}

// SetAnimated toggles whether the layer takes part in the animation.
func (l *Layer) SetAnimated(animated bool) {
	l.image.mu.Lock()
	l.animated = animated
	l.image.mu.Unlock()
}

func (l *Layer) KeyframeChannel() animation.Channel { return l.channel }

// Channel returns the concrete keyframe channel.
func (l *Layer) Channel() *Channel { return l.channel }

// Channel stores keyframes as a sorted list of times plus per-time content.
// The content of a raster keyframe is the page index of its artwork.
type Channel struct {
	layer *Layer
	times []int
	data  map[int]any
}

func (c *Channel) lock()    { c.layer.image.mu.Lock() }
func (c *Channel) unlock()  { c.layer.image.mu.Unlock() }
func (c *Channel) rlock()   { c.layer.image.mu.RLock() }
func (c *Channel) runlock() { c.layer.image.mu.RUnlock() }

func (c *Channel) KeyframeAt(time int) bool {
	c.rlock()
	defer c.runlock()
	_, ok := c.data[time]
	return ok
}

func (c *Channel) NextKeyframeTime(time int) (int, bool) {
	c.rlock()
	defer c.runlock()
	i := sort.SearchInts(c.times, time+1)
	if i >= len(c.times) {
		return 0, false
	}
	return c.times[i], true
}

func (c *Channel) PreviousKeyframeTime(time int) (int, bool) {
	c.rlock()
	defer c.runlock()
	i := sort.SearchInts(c.times, time)
	if i == 0 {
		return 0, false
	}
	return c.times[i-1], true
}

func (c *Channel) ActiveKeyframeTime(time int) (int, bool) {
	c.rlock()
	defer c.runlock()
	i := sort.SearchInts(c.times, time+1)
	if i == 0 {
		return 0, false
	}
	return c.times[i-1], true
}

func (c *Channel) FirstKeyframeTime() (int, bool) {
	c.rlock()
	defer c.runlock()
	if len(c.times) == 0 {
		return 0, false
	}
	return c.times[0], true
}

func (c *Channel) LastKeyframeTime() (int, bool) {
	c.rlock()
	defer c.runlock()
	if len(c.times) == 0 {
		return 0, false
	}
	return c.times[len(c.times)-1], true
}

func (c *Channel) Times() []int {
	c.rlock()
	defer c.runlock()
	return append([]int(nil), c.times...)
}

func (c *Channel) KeyframeData(time int) (any, bool) {
	c.rlock()
	defer c.runlock()
	d, ok := c.data[time]
	return d, ok
}

// AddKeyframe creates a keyframe pointing at a fresh page. Adding at an
// occupied time is a no-op.
func (c *Channel) AddKeyframe(time int) {
	if time < 0 {
		return
	}
	c.lock()
	if _, ok := c.data[time]; ok {
		c.unlock()
		return
	}
	page := c.layer.nextPage
	c.layer.nextPage++
	c.insertLocked(time, page)
	c.layer.animated = true
	c.unlock()

	c.layer.image.publish(animation.Event{Kind: animation.KeyframeAdded, Channel: c, Time: time})
}

// AddKeyframeWithPage creates or replaces a keyframe with explicit artwork.
func (c *Channel) AddKeyframeWithPage(time, page int) {
	c.RestoreKeyframe(time, page)
}

// Page returns the artwork page of the keyframe at time.
func (c *Channel) Page(time int) (int, bool) {
	d, ok := c.KeyframeData(time)
	if !ok {
		return 0, false
	}
	page, ok := d.(int)
	return page, ok
}

// SetPage replaces the artwork of the keyframe at time without moving it.
// No keyframe event is published; callers report the change with
// Image.NotifyUpdated.
func (c *Channel) SetPage(time, page int) bool {
	c.lock()
	defer c.unlock()
	if _, ok := c.data[time]; !ok {
		return false
	}
	c.data[time] = page
	if page >= c.layer.nextPage {
		c.layer.nextPage = page + 1
	}
	return true
}

func (c *Channel) RestoreKeyframe(time int, data any) {
	if time < 0 {
		return
	}
	c.lock()
	c.insertLocked(time, data)
	if page, ok := data.(int); ok && page >= c.layer.nextPage {
		c.layer.nextPage = page + 1
	}
	c.layer.animated = true
	c.unlock()

	c.layer.image.publish(animation.Event{Kind: animation.KeyframeAdded, Channel: c, Time: time})
}

func (c *Channel) RemoveKeyframe(time int) {
	c.lock()
	removed := c.removeLocked(time)
	c.unlock()

	if removed {
		c.layer.image.publish(animation.Event{Kind: animation.KeyframeRemoved, Channel: c, Time: time})
	}
}

// MoveKeyframe relocates the keyframe at from. A keyframe already at to is
// replaced.
func (c *Channel) MoveKeyframe(from, to int) {
	if from == to || to < 0 {
		return
	}
	c.lock()
	data, ok := c.data[from]
	if !ok {
		c.unlock()
		return
	}
	replaced := c.removeLocked(to)
	c.removeLocked(from)
	c.insertLocked(to, data)
	c.unlock()

	if replaced {
		c.layer.image.publish(animation.Event{Kind: animation.KeyframeRemoved, Channel: c, Time: to})
	}
	c.layer.image.publish(animation.Event{Kind: animation.KeyframeMoved, Channel: c, From: from, Time: to})
}

func (c *Channel) insertLocked(time int, data any) {
	if _, ok := c.data[time]; !ok {
		i := sort.SearchInts(c.times, time)
		c.times = append(c.times, 0)
		copy(c.times[i+1:], c.times[i:])
		c.times[i] = time
	}
	c.data[time] = data
}

func (c *Channel) removeLocked(time int) bool {
	if _, ok := c.data[time]; !ok {
		return false
	}
	delete(c.data, time)
	i := sort.SearchInts(c.times, time)
	c.times = append(c.times[:i], c.times[i+1:]...)
	return true
}
