// Package render turns document snapshots into thumbnail images off the edit
// goroutine.
package render

import (
	"context"
	"image"
	"sync"

	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/semaphore"

	"github.com/ivlev/storyboard/internal/animation"
	"github.com/ivlev/storyboard/internal/system"
)

// Callbacks receives the outcome of each render.
type Callbacks interface {
	FrameCompleted(frame int, img image.Image)
	FrameCancelled(frame int)
}

// AsyncRenderer renders frames on background goroutines, one at a time, and
// scales them to thumbnail size.
type AsyncRenderer struct {
	comp   *Compositor
	width  int
	height int
	logger *zap.Logger

	// sem keeps one composition in flight for callers that start frames
	// directly; the thumbnail scheduler already waits for each result.
	sem    *semaphore.Weighted
	base   context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	target Callbacks
	jobs   map[int]context.CancelFunc
}

// NewAsyncRenderer creates a renderer producing width x height thumbnails. A
// zero height follows the aspect ratio of the document.
func NewAsyncRenderer(comp *Compositor, width, height int, logger *zap.Logger) *AsyncRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	base, stop := context.WithCancel(context.Background())
	return &AsyncRenderer{
		comp:   comp,
		width:  width,
		height: height,
		logger: logger,
		sem:    semaphore.NewWeighted(1),
		base:   base,
		stop:   stop,
		jobs:   make(map[int]context.CancelFunc),
	}
}

// SetCallbacks sets the receiver of completions and cancellations.
func (r *AsyncRenderer) SetCallbacks(cb Callbacks) {
	r.mu.Lock()
	r.target = cb
	r.mu.Unlock()
}

// StartFrameRegeneration renders frame of snap in the background and
// returns immediately.
func (r *AsyncRenderer) StartFrameRegeneration(snap animation.Snapshot, frame int) {
	ctx, cancel := context.WithCancel(r.base)
	r.mu.Lock()
	if prev, ok := r.jobs[frame]; ok {
		prev()
	}
	r.jobs[frame] = cancel
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		img, err := r.run(ctx, snap)

		r.mu.Lock()
		delete(r.jobs, frame)
		cb := r.target
		r.mu.Unlock()
		cancel()

		switch {
		case cb == nil:
		case err != nil:
			if ctx.Err() == nil {
				r.logger.Warn("thumbnail render failed", zap.Int("frame", frame), zap.Error(err))
			}
			cb.FrameCancelled(frame)
		default:
			cb.FrameCompleted(frame, img)
		}
	}()
}

// Cancel abandons the render of frame. The cancellation is reported through
// FrameCancelled once the job notices it.
func (r *AsyncRenderer) Cancel(frame int) {
	r.mu.Lock()
	cancel, ok := r.jobs[frame]
	r.mu.Unlock()
	if ok {
		cancel()
	}
}

// Close cancels every job and waits for them to finish.
func (r *AsyncRenderer) Close() {
	r.stop()
	r.wg.Wait()
}

func (r *AsyncRenderer) run(ctx context.Context, snap animation.Snapshot) (image.Image, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer r.sem.Release(1)

	canvas, err := r.comp.Compose(snap)
	if err != nil {
		return nil, err
	}
	defer system.Release(canvas)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	thumb := image.NewRGBA(r.thumbnailRect(canvas.Bounds()))
	xdraw.CatmullRom.Scale(thumb, thumb.Bounds(), canvas, canvas.Bounds(), xdraw.Src, nil)
	return thumb, ctx.Err()
}

func (r *AsyncRenderer) thumbnailRect(src image.Rectangle) image.Rectangle {
	w, h := r.width, r.height
	if w <= 0 {
		w = src.Dx()
	}
	if h <= 0 && src.Dx() > 0 {
		h = w * src.Dy() / src.Dx()
	}
	if h <= 0 {
		h = 1
	}
	return image.Rect(0, 0, w, h)
}
