package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"

	xdraw "golang.org/x/image/draw"

	"github.com/ivlev/storyboard/internal/animation"
	"github.com/ivlev/storyboard/internal/source"
	"github.com/ivlev/storyboard/internal/system"
)

// Compositor flattens a snapshot into pixels. Layers are drawn bottom-up;
// each animated layer contributes the page referenced by its active keyframe
// at the snapshot's current time. Pages missing from the source draw nothing.
type Compositor struct {
	src        source.Source
	dpi        int
	background color.Color

	mu    sync.Mutex
	pages map[int]image.Image
}

func NewCompositor(src source.Source, dpi int) *Compositor {
	return &Compositor{
		src:        src,
		dpi:        dpi,
		background: color.White,
		pages:      make(map[int]image.Image),
	}
}

// Compose draws snap into a pooled canvas of the snapshot's bounds. The
// caller must hand the canvas back with system.Release.
func (c *Compositor) Compose(snap animation.Snapshot) (*image.RGBA, error) {
	bounds := snap.Bounds()
	canvas := system.Canvas(bounds, c.background)

	now := snap.CurrentTime()
	for _, layer := range snap.Layers() {
		if !layer.IsAnimated() {
			continue
		}
		ch := layer.KeyframeChannel()
		if ch == nil {
			continue
		}
		t, ok := ch.ActiveKeyframeTime(now)
		if !ok {
			continue
		}
		data, _ := ch.KeyframeData(t)
		page, ok := data.(int)
		if !ok {
			continue
		}
		art, err := c.page(page)
		if errors.Is(err, source.ErrPageOutOfRange) {
			// The artwork has fewer pages than the keyframe refers to.
			continue
		}
		if err != nil {
			system.Release(canvas)
			return nil, fmt.Errorf("layer %s frame %d: %w", layer.Name(), now, err)
		}
		xdraw.CatmullRom.Scale(canvas, bounds, art, art.Bounds(), xdraw.Over, nil)
	}
	return canvas, nil
}

// SetSource replaces the artwork source and drops cached page renders. The
// previous source is returned so the caller can close it.
func (c *Compositor) SetSource(src source.Source) source.Source {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.src
	c.src = src
	c.pages = make(map[int]image.Image)
	return prev
}

// Invalidate drops cached page renders, after the artwork changed.
func (c *Compositor) Invalidate() {
	c.mu.Lock()
	c.pages = make(map[int]image.Image)
	c.mu.Unlock()
}

func (c *Compositor) page(index int) (image.Image, error) {
	c.mu.Lock()
	img, ok := c.pages[index]
	c.mu.Unlock()
	if ok {
		return img, nil
	}

	c.mu.Lock()
	src := c.src
	c.mu.Unlock()
	img, err := src.RenderPage(index, c.dpi)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.pages[index] = img
	c.mu.Unlock()
	return img, nil
}
