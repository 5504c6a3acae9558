package thumbnail

import (
	"image"
	"slices"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ivlev/storyboard/internal/animation"
)

// Renderer renders one frame of a snapshot asynchronously. It must return
// immediately and report back through the scheduler's FrameCompleted or
// FrameCancelled, from any goroutine.
type Renderer interface {
	StartFrameRegeneration(snapshot animation.Snapshot, frame int)
	Cancel(frame int)
}

// Handler receives the outcome of every render the scheduler asked for.
type Handler interface {
	FrameCompleted(frame int, img image.Image)
	FrameCancelled(frame int)
}

// Scheduler tracks stale thumbnail frames and drives a Renderer one frame at
// a time. Directly edited frames are rendered before frames that were only
// affected by an edit. A frame is never queued twice, and at most one render
// is in flight.
type Scheduler struct {
	mu sync.Mutex

	doc      animation.Document
	renderer Renderer
	handler  Handler
	logger   *zap.Logger

	changed  []int
	affected []int

	current   int
	rendering bool
	// stale marks the in-flight render as cancelled; its result is dropped
	// even if the renderer finishes it.
	stale bool

	waiters []chan struct{}
}

// NewScheduler creates a scheduler that renders with r. A nil logger
// disables logging.
func NewScheduler(r Renderer, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{renderer: r, logger: logger}
}

// SetHandler sets the receiver of rendered frames.
func (s *Scheduler) SetHandler(h Handler) {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
}

// SetImage switches the tracked document. Every queued frame is dropped and
// an in-flight render is cancelled, whether or not the document changed.
func (s *Scheduler) SetImage(doc animation.Document) {
	s.CancelAll()
	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
}

// ScheduleFrame marks frame as stale. A direct frame goes to the back of the
// changed queue, leaving the affected queue if it was there, and the affected
// queue is reordered around it. An affected frame is queued unless it is
// queued already.
func (s *Scheduler) ScheduleFrame(frame int, direct bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return
	}

	if direct {
		s.changed = remove(s.changed, frame)
		s.affected = remove(s.affected, frame)
		s.changed = append(s.changed, frame)
		sort.SliceStable(s.affected, func(i, j int) bool {
			return distance(s.affected[i], frame) < distance(s.affected[j], frame)
		})
	} else if !slices.Contains(s.changed, frame) && !slices.Contains(s.affected, frame) {
		s.affected = append(s.affected, frame)
	}
	s.logger.Debug("thumbnail scheduled",
		zap.Int("frame", frame), zap.Bool("direct", direct),
		zap.Int("changed", len(s.changed)), zap.Int("affected", len(s.affected)))
}

// CancelFrame drops frame from the queues. If frame is being rendered the
// render is cancelled; the scheduler stays busy until the renderer
// acknowledges it.
func (s *Scheduler) CancelFrame(frame int) {
	s.mu.Lock()
	s.changed = remove(s.changed, frame)
	s.affected = remove(s.affected, frame)
	inFlight := s.rendering && s.current == frame && !s.stale
	if inFlight {
		s.stale = true
	}
	r := s.renderer
	s.mu.Unlock()

	if inFlight && r != nil {
		r.Cancel(frame)
	}
	s.releaseIfDrained()
}

// CancelAll empties both queues and cancels the in-flight render.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	s.changed = nil
	s.affected = nil
	inFlight := s.rendering && !s.stale
	if inFlight {
		s.stale = true
	}
	frame, r := s.current, s.renderer
	s.mu.Unlock()

	if inFlight && r != nil {
		r.Cancel(frame)
	}
	s.releaseIfDrained()
}

// StartRendering is called when the document becomes idle.
func (s *Scheduler) StartRendering() { s.RenderNext() }

// RenderNext starts rendering the most urgent stale frame. It reports whether
// a render was started; it does nothing while another render is in flight.
func (s *Scheduler) RenderNext() bool {
	s.mu.Lock()
	if s.doc == nil || s.renderer == nil || s.rendering {
		s.mu.Unlock()
		return false
	}
	var frame int
	switch {
	case len(s.changed) > 0:
		frame, s.changed = s.changed[0], s.changed[1:]
	case len(s.affected) > 0:
		frame, s.affected = s.affected[0], s.affected[1:]
	default:
		s.mu.Unlock()
		s.releaseIfDrained()
		return false
	}
	s.current, s.rendering, s.stale = frame, true, false
	doc, r := s.doc, s.renderer
	s.mu.Unlock()

	snapshot := doc.Clone()
	snapshot.SwitchTime(frame)
	s.logger.Debug("rendering thumbnail", zap.Int("frame", frame))
	r.StartFrameRegeneration(snapshot, frame)
	return true
}

// FrameCompleted is called by the renderer when frame is ready. Results for
// a frame that is not the one in flight are discarded.
func (s *Scheduler) FrameCompleted(frame int, img image.Image) {
	s.mu.Lock()
	if !s.rendering || s.current != frame {
		s.mu.Unlock()
		s.logger.Debug("late thumbnail discarded", zap.Int("frame", frame))
		return
	}
	stale := s.stale
	s.rendering, s.stale = false, false
	h := s.handler
	s.mu.Unlock()

	if h != nil {
		if stale {
			h.FrameCancelled(frame)
		} else {
			h.FrameCompleted(frame, img)
		}
	}
	s.RenderNext()
}

// FrameCancelled is called by the renderer when the render of frame was
// abandoned.
func (s *Scheduler) FrameCancelled(frame int) {
	s.mu.Lock()
	if !s.rendering || s.current != frame {
		s.mu.Unlock()
		return
	}
	s.rendering, s.stale = false, false
	h := s.handler
	s.mu.Unlock()

	if h != nil {
		h.FrameCancelled(frame)
	}
	s.RenderNext()
}

// Pending returns the number of queued frames, not counting the one in
// flight.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.changed) + len(s.affected)
}

// Queued returns copies of the changed and affected queues in render order.
func (s *Scheduler) Queued() (changed, affected []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.changed), slices.Clone(s.affected)
}

// Current returns the frame being rendered.
func (s *Scheduler) Current() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.rendering
}

// Drained returns a channel closed once nothing is queued or rendering. The
// channel only closes when the scheduler is driven, by RenderNext or by a
// renderer callback.
func (s *Scheduler) Drained() <-chan struct{} {
	ch := make(chan struct{})
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.rendering && len(s.changed) == 0 && len(s.affected) == 0 {
		close(ch)
		return ch
	}
	s.waiters = append(s.waiters, ch)
	return ch
}

// releaseIfDrained closes the Drained channels once the scheduler is idle
// with empty queues.
func (s *Scheduler) releaseIfDrained() {
	s.mu.Lock()
	if s.rendering || len(s.changed) > 0 || len(s.affected) > 0 {
		s.mu.Unlock()
		return
	}
	waiters := s.waiters
	s.waiters = nil
	s.mu.Unlock()
	for _, w := range waiters {
		close(w)
	}
}

func remove(frames []int, frame int) []int {
	if i := slices.Index(frames, frame); i >= 0 {
		return slices.Delete(frames, i, i+1)
	}
	return frames
}

func distance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
