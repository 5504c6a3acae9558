package thumbnail

import (
	"sync"
	"time"

	"github.com/ivlev/storyboard/internal/animation"
)

// IdleWatcher calls fn once the document has been quiet for delay. Any
// document event restarts the countdown.
type IdleWatcher struct {
	delay time.Duration
	fn    func()

	mu     sync.Mutex
	timer  *time.Timer
	cancel func()
	closed bool
}

// NewIdleWatcher creates a watcher that is not tracking any document yet.
func NewIdleWatcher(delay time.Duration, fn func()) *IdleWatcher {
	return &IdleWatcher{delay: delay, fn: fn}
}

// SetImage starts watching doc. A nil doc stops watching.
func (w *IdleWatcher) SetImage(doc animation.Document) {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.stopLocked()
	w.mu.Unlock()
	if doc == nil {
		return
	}

	cancel := doc.Subscribe(func(animation.Event) { w.Touch() })
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()
	w.Touch()
}

// Touch restarts the countdown.
func (w *IdleWatcher) Touch() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.stopLocked()
	w.timer = time.AfterFunc(w.delay, w.fire)
}

// Stop cancels a pending countdown and detaches from the document.
func (w *IdleWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	w.stopLocked()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
}

func (w *IdleWatcher) fire() {
	w.mu.Lock()
	closed := w.closed
	w.timer = nil
	w.mu.Unlock()
	if !closed && w.fn != nil {
		w.fn()
	}
}

func (w *IdleWatcher) stopLocked() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
