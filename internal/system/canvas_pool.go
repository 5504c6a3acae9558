// Package system holds process level helpers: pooled thumbnail canvases and
// resource statistics.
package system

import (
	"image"
	"image/color"
	"sync"
	"sync/atomic"
)

// CanvasPool recycles RGBA canvases by size. Every canvas handed out is
// painted with the requested fill, so callers never see a previous render.
type CanvasPool struct {
	mu    sync.RWMutex
	sizes map[image.Point]*sync.Pool

	allocated atomic.Int64
	reused    atomic.Int64
}

// PoolStats counts canvases created and handed out again by a pool.
type PoolStats struct {
	Allocated int64
	Reused    int64
}

var canvases = NewCanvasPool()

func NewCanvasPool() *CanvasPool {
	return &CanvasPool{sizes: make(map[image.Point]*sync.Pool)}
}

// Canvas returns a canvas of rect from the shared pool painted with fill.
func Canvas(rect image.Rectangle, fill color.Color) *image.RGBA {
	return canvases.Get(rect, fill)
}

// Release hands a canvas back to the shared pool.
func Release(img *image.RGBA) {
	canvases.Put(img)
}

// CanvasStats reports the shared pool's counters.
func CanvasStats() PoolStats {
	return canvases.Stats()
}

// Get returns a canvas covering rect painted with fill. Canvases of the same
// size are shared regardless of origin.
func (p *CanvasPool) Get(rect image.Rectangle, fill color.Color) *image.RGBA {
	size := rect.Size()
	pool := p.pool(size)

	img, _ := pool.Get().(*image.RGBA)
	if img == nil {
		p.allocated.Add(1)
		img = image.NewRGBA(rect)
	} else {
		p.reused.Add(1)
		img.Rect = rect
	}
	paint(img, fill)
	return img
}

// Put returns img to the pool of its size. Sizes never handed out are
// dropped.
func (p *CanvasPool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	p.mu.RLock()
	pool, ok := p.sizes[img.Rect.Size()]
	p.mu.RUnlock()
	if ok {
		pool.Put(img)
	}
}

func (p *CanvasPool) Stats() PoolStats {
	return PoolStats{Allocated: p.allocated.Load(), Reused: p.reused.Load()}
}

func (p *CanvasPool) pool(size image.Point) *sync.Pool {
	p.mu.RLock()
	pool, ok := p.sizes[size]
	p.mu.RUnlock()
	if ok {
		return pool
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if pool, ok = p.sizes[size]; !ok {
		pool = &sync.Pool{}
		p.sizes[size] = pool
	}
	return pool
}

// paint fills the first row pixel by pixel, then doubles it across Pix.
func paint(img *image.RGBA, fill color.Color) {
	if len(img.Pix) == 0 {
		return
	}
	c := color.RGBAModel.Convert(fill).(color.RGBA)
	row := 4 * img.Rect.Dx()
	for i := 0; i < row; i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	for n := row; n < len(img.Pix); n *= 2 {
		copy(img.Pix[n:], img.Pix[:n])
	}
}
