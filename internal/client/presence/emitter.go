package presence

import (
	"sync"
	"time"

	"github.com/iudanet/layoutsync/internal/models"
)

// Интервалы исходящих обновлений курсора
const (
	// DefaultFrameInterval один кадр анимации (~60 fps)
	DefaultFrameInterval = 16 * time.Millisecond
	// DefaultThrottleInterval потолок ~30 обновлений в секунду
	DefaultThrottleInterval = 33 * time.Millisecond
)

// CursorFromPixels строит курсор из пиксельных координат внутри области
// width x height: X/Y нормализуются в 0..1, сырые координаты сохраняются.
func CursorFromPixels(screenX, screenY, width, height float64) models.Cursor {
	c := models.Cursor{
		ScreenX: models.Float(screenX),
		ScreenY: models.Float(screenY),
	}
	if width > 0 {
		c.X = screenX / width
	}
	if height > 0 {
		c.Y = screenY / height
	}
	return c.Clamped()
}

// FrameCoalescer оставляет только последний образец за кадр и
// отправляет его не чаще одного раза за interval.
type FrameCoalescer struct {
	emit     func(models.Cursor)
	timer    *time.Timer
	latest   models.Cursor
	interval time.Duration
	mu       sync.Mutex
	armed    bool
	stopped  bool
}

// NewFrameCoalescer creates a coalescer; emit runs on a timer goroutine.
func NewFrameCoalescer(interval time.Duration, emit func(models.Cursor)) *FrameCoalescer {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &FrameCoalescer{interval: interval, emit: emit}
}

// Push запоминает образец; отправка произойдет в конце текущего кадра
func (f *FrameCoalescer) Push(c models.Cursor) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.stopped {
		return
	}
	f.latest = c
	if f.armed {
		return
	}
	f.armed = true
	f.timer = time.AfterFunc(f.interval, f.fire)
}

func (f *FrameCoalescer) fire() {
	f.mu.Lock()
	if f.stopped || !f.armed {
		f.mu.Unlock()
		return
	}
	f.armed = false
	c := f.latest
	f.mu.Unlock()

	f.emit(c)
}

// Stop cancels a pending frame; later pushes are ignored.
func (f *FrameCoalescer) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stopped = true
	f.armed = false
	if f.timer != nil {
		f.timer.Stop()
	}
}

// Throttle пропускает первый образец сразу, а образцы внутри окна
// схлопывает в один, отправляемый в конце окна.
type Throttle struct {
	emit     func(models.Cursor)
	now      func() time.Time
	timer    *time.Timer
	last     time.Time
	latest   models.Cursor
	interval time.Duration
	mu       sync.Mutex
	waiting  bool
	stopped  bool
}

// NewThrottle creates a throttle with the given window.
func NewThrottle(interval time.Duration, emit func(models.Cursor)) *Throttle {
	if interval <= 0 {
		interval = DefaultThrottleInterval
	}
	return &Throttle{interval: interval, emit: emit, now: time.Now}
}

// Push отправляет образец сразу или откладывает до конца окна
func (t *Throttle) Push(c models.Cursor) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}

	now := t.now()
	elapsed := now.Sub(t.last)
	if !t.waiting && (t.last.IsZero() || elapsed >= t.interval) {
		t.last = now
		t.mu.Unlock()
		t.emit(c)
		return
	}

	t.latest = c
	if !t.waiting {
		t.waiting = true
		t.timer = time.AfterFunc(t.interval-elapsed, t.fire)
	}
	t.mu.Unlock()
}

func (t *Throttle) fire() {
	t.mu.Lock()
	if t.stopped || !t.waiting {
		t.mu.Unlock()
		return
	}
	t.waiting = false
	t.last = t.now()
	c := t.latest
	t.mu.Unlock()

	t.emit(c)
}

// Stop cancels the trailing emission; later pushes are ignored.
func (t *Throttle) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopped = true
	t.waiting = false
	if t.timer != nil {
		t.timer.Stop()
	}
}
