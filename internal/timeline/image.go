// Package timeline is an in-memory animation engine: an image made of layers,
// each with a keyframe channel, a frame rate and a current time. It implements
// the animation contracts consumed by the storyboard and publishes an event for
// every keyframe, time and frame rate change.
package timeline

import (
	"image"
	"sort"
	"sync"

	"github.com/ivlev/storyboard/internal/animation"
)

// DefaultFramerate is used when an image is created with a non-positive rate.
const DefaultFramerate = 24

// Image is an animated document.
type Image struct {
	mu          sync.RWMutex
	bounds      image.Rectangle
	fps         int
	currentTime int
	layers      []*Layer
	active      int

	subMu       sync.Mutex
	subscribers map[int]func(animation.Event)
	nextSubID   int
}

// NewImage creates an empty image of the given size.
func NewImage(width, height, fps int) *Image {
	if fps <= 0 {
		fps = DefaultFramerate
	}
	return &Image{
		bounds:      image.Rect(0, 0, width, height),
		fps:         fps,
		active:      -1,
		subscribers: make(map[int]func(animation.Event)),
	}
}

// AddLayer appends a layer on top of the stack. The first layer added becomes
// the active layer.
func (img *Image) AddLayer(name string, animated bool) *Layer {
	img.mu.Lock()
	layer := &Layer{name: name, animated: animated, image: img}
	layer.channel = &Channel{layer: layer, data: make(map[int]any)}
	img.layers = append(img.layers, layer)
	if img.active < 0 {
		img.active = len(img.layers) - 1
	}
	img.mu.Unlock()
	return layer
}

// Layer returns the layer at index i or nil.
func (img *Image) Layer(i int) *Layer {
	img.mu.RLock()
	defer img.mu.RUnlock()
	if i < 0 || i >= len(img.layers) {
		return nil
	}
	return img.layers[i]
}

// LayerCount returns the number of layers.
func (img *Image) LayerCount() int {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return len(img.layers)
}

// Layers returns every layer bottom-up.
func (img *Image) Layers() []animation.Layer {
	img.mu.RLock()
	defer img.mu.RUnlock()
	out := make([]animation.Layer, len(img.layers))
	for i, l := range img.layers {
		out[i] = l
	}
	return out
}

// SetActiveLayer selects the layer that receives keyframes of new scenes.
func (img *Image) SetActiveLayer(i int) bool {
	img.mu.Lock()
	defer img.mu.Unlock()
	if i < 0 || i >= len(img.layers) {
		return false
	}
	img.active = i
	return true
}

// ActiveLayerIndex returns the active layer index, -1 when there is none.
func (img *Image) ActiveLayerIndex() int {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.active
}

func (img *Image) ActiveLayer() animation.Layer {
	img.mu.RLock()
	defer img.mu.RUnlock()
	if img.active < 0 || img.active >= len(img.layers) {
		return nil
	}
	return img.layers[img.active]
}

func (img *Image) Bounds() image.Rectangle {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.bounds
}

func (img *Image) Framerate() int {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.fps
}

// SetFramerate changes the frame rate and notifies subscribers.
func (img *Image) SetFramerate(fps int) {
	if fps <= 0 {
		return
	}
	img.mu.Lock()
	old := img.fps
	img.fps = fps
	img.mu.Unlock()
	if old != fps {
		img.publish(animation.Event{Kind: animation.FramerateChanged, Framerate: fps, OldFramerate: old})
	}
}

func (img *Image) CurrentTime() int {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.currentTime
}

// SwitchTime moves the current time and notifies subscribers when it changed.
func (img *Image) SwitchTime(time int) {
	if time < 0 {
		time = 0
	}
	img.mu.Lock()
	changed := img.currentTime != time
	img.currentTime = time
	img.mu.Unlock()
	if changed {
		img.publish(animation.Event{Kind: animation.TimeChanged, Time: time})
	}
}

// NotifyUpdated reports a pixel change of the current frame.
func (img *Image) NotifyUpdated() {
	img.publish(animation.Event{Kind: animation.ImageUpdated, Time: img.CurrentTime()})
}

func (img *Image) Subscribe(fn func(animation.Event)) (cancel func()) {
	img.subMu.Lock()
	id := img.nextSubID
	img.nextSubID++
	img.subscribers[id] = fn
	img.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			img.subMu.Lock()
			delete(img.subscribers, id)
			img.subMu.Unlock()
		})
	}
}

// Clone returns a detached deep copy. The copy has no subscribers.
func (img *Image) Clone() animation.Snapshot {
	return img.CloneImage()
}

// CloneImage is Clone with the concrete type.
func (img *Image) CloneImage() *Image {
	img.mu.RLock()
	defer img.mu.RUnlock()

	clone := &Image{
		bounds:      img.bounds,
		fps:         img.fps,
		currentTime: img.currentTime,
		active:      img.active,
		subscribers: make(map[int]func(animation.Event)),
	}
	clone.layers = make([]*Layer, len(img.layers))
	for i, l := range img.layers {
		cl := &Layer{name: l.name, animated: l.animated, image: clone, nextPage: l.nextPage}
		cl.channel = &Channel{
			layer: cl,
			times: append([]int(nil), l.channel.times...),
			data:  make(map[int]any, len(l.channel.data)),
		}
		for t, d := range l.channel.data {
			cl.channel.data[t] = d
		}
		clone.layers[i] = cl
	}
	return clone
}

func (img *Image) publish(ev animation.Event) {
	img.subMu.Lock()
	ids := make([]int, 0, len(img.subscribers))
	for id := range img.subscribers {
		ids = append(ids, id)
	}
	img.subMu.Unlock()

	sort.Ints(ids)
	for _, id := range ids {
		img.subMu.Lock()
		fn, ok := img.subscribers[id]
		img.subMu.Unlock()
		if ok {
			fn(ev)
		}
	}
}
