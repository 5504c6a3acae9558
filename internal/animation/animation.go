// Package animation defines the contracts between the storyboard core and the
// animation engine that owns layers and keyframes.
//
// The storyboard never owns keyframes. It refers to them by frame time and
// moves them through Channel operations; the engine reports independent edits
// back through Events delivered to Document subscribers.
package animation

import "image"

// Channel is a single layer's keyframe track.
type Channel interface {
	KeyframeAt(time int) bool
	NextKeyframeTime(time int) (int, bool)
	PreviousKeyframeTime(time int) (int, bool)
	// ActiveKeyframeTime returns the latest keyframe at or before time.
	ActiveKeyframeTime(time int) (int, bool)
	FirstKeyframeTime() (int, bool)
	LastKeyframeTime() (int, bool)

	AddKeyframe(time int)
	RemoveKeyframe(time int)
	MoveKeyframe(from, to int)

	// Times returns every keyframe time in ascending order.
	Times() []int

	// KeyframeData returns the opaque content of the keyframe at time so that
	// it can later be put back with RestoreKeyframe.
	KeyframeData(time int) (any, bool)
	RestoreKeyframe(time int, data any)
}

// Layer is a node of the layer tree as seen by the storyboard.
type Layer interface {
	Name() string
	IsAnimated() bool
	KeyframeChannel() Channel
}

// Snapshot is a read-only view of the animation state at one frame. Render
// jobs receive clones so they never race with edits on the live document.
type Snapshot interface {
	Framerate() int
	CurrentTime() int
	SwitchTime(time int)
	Layers() []Layer
	Bounds() image.Rectangle
}

// Document is the live animation document.
type Document interface {
	Snapshot

	// ActiveLayer is the layer that receives keyframes for new scenes. It may
	// be nil.
	ActiveLayer() Layer

	// Subscribe registers fn for every Event. The returned func removes it.
	Subscribe(fn func(Event)) (cancel func())

	// Clone returns a detached copy of the current animation state.
	Clone() Snapshot
}

// AnimatedChannels returns the keyframe channels of every animated layer in
// layer order.
func AnimatedChannels(layers []Layer) []Channel {
	channels := make([]Channel, 0, len(layers))
	for _, layer := range layers {
		if layer == nil || !layer.IsAnimated() {
			continue
		}
		if ch := layer.KeyframeChannel(); ch != nil {
			channels = append(channels, ch)
		}
	}
	return channels
}
