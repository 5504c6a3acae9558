// Package engine ties a storyboard document to its thumbnail pipeline: the
// scene model, the undo history, the render scheduler, the renderer and the
// thumbnail cache.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivlev/storyboard/internal/animation"
	"github.com/ivlev/storyboard/internal/config"
	"github.com/ivlev/storyboard/internal/document"
	"github.com/ivlev/storyboard/internal/render"
	"github.com/ivlev/storyboard/internal/source"
	"github.com/ivlev/storyboard/internal/storyboard"
	"github.com/ivlev/storyboard/internal/thumbcache"
	"github.com/ivlev/storyboard/internal/thumbnail"
	"github.com/ivlev/storyboard/internal/timeline"
	"github.com/ivlev/storyboard/internal/undo"
)

// ErrExists is returned by Init when the document is already there.
var ErrExists = errors.New("document already exists")

// Project is an open storyboard document. Its methods are safe for
// concurrent use; render callbacks arrive on renderer goroutines.
type Project struct {
	mu sync.Mutex

	cfg    *config.Config
	path   string
	logger *zap.Logger

	image   *timeline.Image
	model   *storyboard.Model
	history *undo.Stack

	src        source.Source
	retired    []source.Source
	sourcePath string
	compositor *render.Compositor
	renderer   *render.AsyncRenderer
	scheduler  *thumbnail.Scheduler
	idle       *thumbnail.IdleWatcher
	updates    *thumbnail.Compressor
	unsubImage func()
	cache      *thumbcache.Store

	rendered int
	dirty    bool

	closeOnce sync.Once
	closeErr  error
}

// Init writes a new empty document of width x height to path. source is the
// artwork file or folder; empty means flat colors.
func Init(cfg *config.Config, path, sourcePath string, width, height int) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s: %w", path, ErrExists)
	}
	f := document.New(width, height, cfg.Animation.FPS)
	f.Source = sourcePath
	f.Locked = cfg.Storyboard.Locked
	f.Freeze = cfg.Animation.FreezeKeyframePositions
	for _, name := range cfg.Storyboard.Comments {
		f.Comments = append(f.Comments, document.Comment{Name: name, Visible: true})
	}
	return document.Write(f, path)
}

// Open loads the document at path and starts tracking its thumbnails.
// Thumbnails found in the cache for an unchanged scene start are used as is;
// every other scene is queued for rendering.
func Open(cfg *config.Config, path string, logger *zap.Logger) (*Project, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	f, err := document.Read(path)
	if err != nil {
		return nil, err
	}
	built, err := document.Build(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	bounds := built.Image.Bounds()
	src, err := source.Open(resolve(path, built.Source), bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}
	cache, err := thumbcache.Open(cfg.Thumbnails.CachePath)
	if err != nil {
		_ = src.Close()
		return nil, err
	}

	p := &Project{
		cfg:        cfg,
		path:       path,
		logger:     logger,
		image:      built.Image,
		history:    undo.NewStack(cfg.Storyboard.UndoLimit),
		src:        src,
		sourcePath: built.Source,
		cache:      cache,
	}
	p.compositor = render.NewCompositor(src, cfg.Thumbnails.DPI)
	p.renderer = render.NewAsyncRenderer(p.compositor, cfg.Thumbnails.Width, cfg.Thumbnails.Height, logger.Named("render"))
	p.scheduler = thumbnail.NewScheduler(p.renderer, logger.Named("thumbnails"))
	p.renderer.SetCallbacks(p.scheduler)
	p.scheduler.SetHandler(p)
	p.scheduler.SetImage(lockedImage{Image: p.image, mu: &p.mu})

	p.model = built.Model(
		storyboard.WithLogger(logger.Named("storyboard")),
		storyboard.WithScheduler(p.scheduler),
		storyboard.WithScenePrefix(cfg.Storyboard.ScenePrefix),
	)
	p.loadCachedThumbnails()

	p.idle = thumbnail.NewIdleWatcher(cfg.Thumbnails.IdleDelay(), p.scheduler.StartRendering)
	p.updates = thumbnail.NewCompressor(cfg.Thumbnails.CompressInterval(), p.imageUpdated)
	p.unsubImage = p.image.Subscribe(func(ev animation.Event) {
		if ev.Kind == animation.ImageUpdated {
			p.updates.Trigger()
		}
	})

	logger.Debug("project opened",
		zap.String("path", path),
		zap.Int("scenes", p.model.Len()),
		zap.Int("pending", p.scheduler.Pending()))
	return p, nil
}

// lockedImage takes render snapshots under the project lock. The scheduler
// starts renders from timer and renderer goroutines, never while the lock is
// held.
type lockedImage struct {
	*timeline.Image
	mu *sync.Mutex
}

func (l lockedImage) Clone() animation.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Image.Clone()
}

// resolve makes a source path relative to the document directory.
func resolve(docPath, src string) string {
	if src == "" || filepath.IsAbs(src) {
		return src
	}
	return filepath.Join(filepath.Dir(docPath), src)
}

func (p *Project) loadCachedThumbnails() {
	ctx := context.Background()
	for i, s := range p.model.Scenes() {
		entry, err := p.cache.Get(ctx, s.ID)
		if err != nil {
			if !errors.Is(err, thumbcache.ErrNotFound) {
				p.logger.Warn("thumbnail cache read failed", zap.Stringer("scene", s.ID), zap.Error(err))
			}
			continue
		}
		if entry.Frame != s.FrameNumber() {
			continue
		}
		_ = p.model.SetThumbnail(i, entry.Image)
		p.scheduler.CancelFrame(entry.Frame)
	}
}

// Path returns the document file.
func (p *Project) Path() string { return p.path }

// SourcePath returns the artwork location, resolved against the document
// directory. It is empty for flat-color documents.
func (p *Project) SourcePath() string { return resolve(p.path, p.sourcePath) }

// StartBackground renders stale thumbnails whenever the document has been
// idle for the configured delay.
func (p *Project) StartBackground() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.idle.SetImage(p.image)
}

// View calls fn with the model and image while holding the project lock. fn
// must not keep them.
func (p *Project) View(fn func(m *storyboard.Model, img *timeline.Image)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p.model, p.image)
}

// Do runs edit on the model and records the command it returns.
func (p *Project) Do(edit func(m *storyboard.Model) (undo.Command, error)) (undo.Command, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cmd, err := edit(p.model)
	if err != nil {
		return nil, err
	}
	if cmd != nil {
		p.history.Record(cmd)
		p.dirty = true
	}
	return cmd, nil
}

// EditTimeline runs fn on the animation image as one undoable command. The
// storyboard follows the keyframe edits fn makes.
func (p *Project) EditTimeline(name string, fn func(img *timeline.Image) error) (undo.Command, error) {
	return p.Do(func(m *storyboard.Model) (undo.Command, error) {
		return m.Transaction(name, func() error { return fn(p.image) })
	})
}

// Paint replaces the artwork page of the keyframe layer shows at the
// current time.
func (p *Project) Paint(layer, page int) (undo.Command, error) {
	cmd, err := p.EditTimeline("paint", func(img *timeline.Image) error {
		l := img.Layer(layer)
		if l == nil {
			return fmt.Errorf("layer %d: %w", layer, storyboard.ErrIndexOutOfRange)
		}
		t, ok := l.Channel().ActiveKeyframeTime(img.CurrentTime())
		if !ok {
			return fmt.Errorf("layer %q has no keyframe at frame %d", l.Name(), img.CurrentTime())
		}
		l.Channel().SetPage(t, page)
		return nil
	})
	if err != nil {
		return nil, err
	}
	p.image.NotifyUpdated()
	return cmd, nil
}

func (p *Project) imageUpdated() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.model.UpdateThumbnails()
}

// Undo reverts the latest command and returns its description.
func (p *Project) Undo() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cmd, ok := p.history.Undo()
	if !ok {
		return "", false
	}
	p.dirty = true
	return cmd.Text(), true
}

// Redo reapplies the latest undone command and returns its description.
func (p *Project) Redo() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cmd, ok := p.history.Redo()
	if !ok {
		return "", false
	}
	p.dirty = true
	return cmd.Text(), true
}

// Dirty reports whether there are unsaved edits.
func (p *Project) Dirty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dirty
}

// Save writes the document back to its file and drops cached thumbnails of
// scenes that no longer exist.
func (p *Project) Save(ctx context.Context) error {
	p.mu.Lock()
	f := document.Capture(p.image, p.model, p.sourcePath)
	ids := make([]uuid.UUID, 0, p.model.Len())
	for _, s := range p.model.Scenes() {
		ids = append(ids, s.ID)
	}
	p.mu.Unlock()

	if err := document.Write(f, p.path); err != nil {
		return err
	}
	p.mu.Lock()
	p.dirty = false
	p.mu.Unlock()

	removed, err := p.cache.Prune(ctx, ids)
	if err != nil {
		return err
	}
	if removed > 0 {
		p.logger.Debug("pruned cached thumbnails", zap.Int("count", removed))
	}
	return nil
}

// ReloadSource reopens the artwork and queues every scene for rendering.
func (p *Project) ReloadSource() error {
	bounds := p.image.Bounds()
	src, err := source.Open(resolve(p.path, p.sourcePath), bounds.Dx(), bounds.Dy())
	if err != nil {
		return err
	}
	prev := p.compositor.SetSource(src)

	p.mu.Lock()
	// A render in flight may still read the previous source.
	p.retired = append(p.retired, prev)
	p.src = src
	p.scheduleAll()
	p.mu.Unlock()
	p.logger.Debug("artwork reloaded", zap.String("source", p.sourcePath))
	return nil
}

func (p *Project) scheduleAll() {
	for _, s := range p.model.Scenes() {
		p.scheduler.ScheduleFrame(s.FrameNumber(), true)
	}
}

// RenderThumbnails renders every stale thumbnail and waits until the queue
// is empty. With force every scene is rendered again. It returns the number
// of thumbnails stored.
func (p *Project) RenderThumbnails(ctx context.Context, force bool) (int, error) {
	p.mu.Lock()
	if force {
		p.scheduleAll()
	}
	before := p.rendered
	p.mu.Unlock()

	done := p.scheduler.Drained()
	p.scheduler.StartRendering()
	select {
	case <-done:
	case <-ctx.Done():
		p.scheduler.CancelAll()
		return 0, ctx.Err()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rendered - before, nil
}

// FrameCompleted stores a finished thumbnail in its scene and in the cache.
func (p *Project) FrameCompleted(frame int, img image.Image) {
	p.mu.Lock()
	i, ok := p.model.IndexFromFrame(frame)
	p.model.FrameCompleted(frame, img)
	var id uuid.UUID
	if ok {
		id = p.model.Scenes()[i].ID
		p.rendered++
	}
	p.mu.Unlock()

	if !ok {
		return
	}
	if err := p.cache.Put(context.Background(), id, frame, img); err != nil {
		p.logger.Warn("thumbnail cache write failed", zap.Int("frame", frame), zap.Error(err))
	}
}

// FrameCancelled is called when a render was abandoned.
func (p *Project) FrameCancelled(frame int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.model.FrameCancelled(frame)
}

// Close stops rendering and releases the source and the cache. Unsaved edits
// are lost. Closing twice is a no-op.
func (p *Project) Close() error {
	p.closeOnce.Do(func() {
		p.idle.Stop()
		p.updates.Stop()
		p.unsubImage()
		p.scheduler.CancelAll()
		p.renderer.Close()

		p.mu.Lock()
		p.model.Close()
		errs := []error{p.src.Close()}
		for _, src := range p.retired {
			errs = append(errs, src.Close())
		}
		p.mu.Unlock()

		p.closeErr = errors.Join(append(errs, p.cache.Close())...)
	})
	return p.closeErr
}
