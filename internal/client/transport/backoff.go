package transport

import (
	"time"

	"github.com/cenkalti/backoff"
)

// Параметры backoff по умолчанию: 1s, *1.6, максимум 30s
const (
	DefaultInitialBackoff    = 1000 * time.Millisecond
	DefaultMaxBackoff        = 30000 * time.Millisecond
	DefaultBackoffMultiplier = 1.6
)

// Backoff выдает задержки переподключения:
// delay = min(max, current), затем current = min(max, current*multiplier).
// Обертка над backoff.ExponentialBackOff без рандомизации и без ограничения общего времени.
type Backoff struct {
	b       *backoff.ExponentialBackOff
	current time.Duration
}

// NewBackoff creates a deterministic exponential backoff.
func NewBackoff(initial, maxDelay time.Duration, multiplier float64) *Backoff {
	if initial <= 0 {
		initial = DefaultInitialBackoff
	}
	if maxDelay <= 0 {
		maxDelay = DefaultMaxBackoff
	}
	if multiplier < 1 {
		multiplier = DefaultBackoffMultiplier
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.MaxInterval = maxDelay
	b.Multiplier = multiplier
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0 // никогда не сдаемся
	b.Reset()

	return &Backoff{b: b, current: initial}
}

// Next возвращает задержку для следующей попытки и увеличивает текущее значение
func (b *Backoff) Next() time.Duration {
	d := b.b.NextBackOff()
	if d == backoff.Stop || d > b.b.MaxInterval {
		d = b.b.MaxInterval
	}

	next := time.Duration(float64(d) * b.b.Multiplier)
	if next > b.b.MaxInterval {
		next = b.b.MaxInterval
	}
	b.current = next
	return d
}

// Current returns the delay the next call to Next will produce.
func (b *Backoff) Current() time.Duration {
	return b.current
}

// Reset возвращает задержку к начальному значению (после успешного подключения)
func (b *Backoff) Reset() {
	b.b.Reset()
	b.current = b.b.InitialInterval
}
