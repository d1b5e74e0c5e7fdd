// Package pending отслеживает операции, отправленные на сервер и ожидающие подтверждения.
package pending

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iudanet/layoutsync/internal/models"
	"github.com/iudanet/layoutsync/pkg/api"
)

// Ошибки реестра
var (
	// ErrAckTimeout indicates the local grace window elapsed before an ack arrived
	ErrAckTimeout = errors.New("acknowledgment grace window elapsed")

	// ErrClosed indicates the registry was closed with the operation still pending
	ErrClosed = errors.New("pending registry closed")

	// ErrNotSettled indicates Result was called before the completion settled
	ErrNotSettled = errors.New("operation not settled yet")

	// ErrMissingOpID indicates an operation without opId was registered
	ErrMissingOpID = errors.New("operation has no opId")
)

// Info снимок состояния ожидающей операции (для UI и повторной отправки)
type Info struct {
	CreatedAt  time.Time
	LastSentAt time.Time
	Op         models.Op
	OpID       string
	Retries    int
	Queued     bool
}

type entry struct {
	completion *Completion
	grace      *time.Timer
	info       Info
	graceGen   uint64
}

// Option настраивает Registry
type Option func(*Registry)

// WithClock overrides the time source used for CreatedAt/LastSentAt.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// WithExpireHook registers a callback invoked after an entry expires.
// The hook runs on the timer goroutine, outside the registry lock.
func WithExpireHook(hook func(Info)) Option {
	return func(r *Registry) {
		r.onExpire = hook
	}
}

// Registry хранит операции от момента отправки до получения ack с тем же opId
// или истечения локального grace-окна.
//
// Все методы потокобезопасны: реестр мутируется из обработчиков входящих
// сообщений, из вызовов отправки и из таймеров grace-окна.
type Registry struct {
	entries  map[string]*entry
	now      func() time.Time
	onExpire func(Info)
	order    []string
	mu       sync.Mutex
	closed   bool
}

// NewRegistry создает пустой реестр
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add регистрирует операцию. Повторная регистрация того же opId возвращает
// существующий Completion без изменения записи.
func (r *Registry) Add(op models.Op, queued bool) (*Completion, error) {
	if op.OpID == "" {
		return nil, ErrMissingOpID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}
	if e, ok := r.entries[op.OpID]; ok {
		return e.completion, nil
	}

	e := &entry{
		completion: newCompletion(),
		info: Info{
			CreatedAt: r.now(),
			Op:        op.Clone(),
			OpID:      op.OpID,
			Queued:    queued,
		},
	}
	r.entries[op.OpID] = e
	r.order = append(r.order, op.OpID)

	return e.completion, nil
}

// MarkSent отмечает, что операция передана в транспорт.
// Повторная передача увеличивает счетчик Retries.
func (r *Registry) MarkSent(opID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[opID]
	if !ok {
		return false
	}
	if !e.info.LastSentAt.IsZero() {
		e.info.Retries++
	}
	e.info.Queued = false
	e.info.LastSentAt = r.now()
	return true
}

// MarkQueued marks the entry as waiting for the next open transport.
func (r *Registry) MarkQueued(opID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[opID]
	if !ok {
		return false
	}
	e.info.Queued = true
	return true
}

// Resolve разрешает операцию ack-сообщением и удаляет ее из реестра.
// Возвращает false, если opId неизвестен (например, уже истек).
func (r *Registry) Resolve(ack api.AckMessage) bool {
	r.mu.Lock()
	e, ok := r.entries[ack.OpID]
	if ok {
		r.removeLocked(ack.OpID)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	e.completion.resolve(ack)
	return true
}

// StartGrace (пере)запускает grace-окно: по его истечении запись удаляется,
// а Completion отклоняется с ErrAckTimeout.
func (r *Registry) StartGrace(opID string, d time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[opID]
	if !ok || r.closed {
		return false
	}
	if e.grace != nil {
		e.grace.Stop()
	}
	e.graceGen++
	gen := e.graceGen
	e.grace = time.AfterFunc(d, func() {
		r.expire(opID, gen)
	})
	return true
}

// CancelGrace stops a running grace window; the entry stays pending.
func (r *Registry) CancelGrace(opID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[opID]
	if !ok || e.grace == nil {
		return false
	}
	e.grace.Stop()
	e.grace = nil
	e.graceGen++
	return true
}

// HasGrace reports whether a grace window is running for opID.
func (r *Registry) HasGrace(opID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[opID]
	return ok && e.grace != nil
}

func (r *Registry) expire(opID string, gen uint64) {
	r.mu.Lock()
	e, ok := r.entries[opID]
	if !ok || e.graceGen != gen {
		// запись уже подтверждена или окно перезапущено
		r.mu.Unlock()
		return
	}
	info := e.info
	r.removeLocked(opID)
	hook := r.onExpire
	r.mu.Unlock()

	e.completion.reject(fmt.Errorf("%w: %s", ErrAckTimeout, opID))
	if hook != nil {
		hook(info)
	}
}

// Get returns a snapshot of one entry.
func (r *Registry) Get(opID string) (Info, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[opID]
	if !ok {
		return Info{}, false
	}
	return e.info, true
}

// Snapshot возвращает все ожидающие операции в порядке регистрации
func (r *Registry) Snapshot() []Info {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Info, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id].info)
	}
	return out
}

// Len returns the number of pending operations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}

// Close останавливает все таймеры и отклоняет оставшиеся операции с ErrClosed.
// Повторный вызов безопасен.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	remaining := make([]*entry, 0, len(r.order))
	for _, id := range r.order {
		e := r.entries[id]
		if e.grace != nil {
			e.grace.Stop()
		}
		remaining = append(remaining, e)
	}
	r.entries = make(map[string]*entry)
	r.order = nil
	r.mu.Unlock()

	for _, e := range remaining {
		e.completion.reject(ErrClosed)
	}
}

func (r *Registry) removeLocked(opID string) {
	e := r.entries[opID]
	if e.grace != nil {
		e.grace.Stop()
	}
	delete(r.entries, opID)
	for i, id := range r.order {
		if id == opID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}
