package pending

import (
	"context"
	"sync"

	"github.com/iudanet/layoutsync/pkg/api"
)

// Completion - аналог promise для отправленной операции.
// Разрешается ack-сообщением с тем же opId или отклоняется по таймауту/закрытию.
// Разрешение происходит из пути обработки входящих сообщений, а не из вызова отправки.
type Completion struct {
	err  error
	done chan struct{}
	ack  api.AckMessage
	once sync.Once
}

func newCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

func (c *Completion) resolve(ack api.AckMessage) bool {
	resolved := false
	c.once.Do(func() {
		c.ack = ack
		close(c.done)
		resolved = true
	})
	return resolved
}

func (c *Completion) reject(err error) bool {
	rejected := false
	c.once.Do(func() {
		c.err = err
		close(c.done)
		rejected = true
	})
	return rejected
}

// Done закрывается, когда операция подтверждена или отклонена
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Result returns the ack or the rejection error. Valid only after Done is closed.
func (c *Completion) Result() (api.AckMessage, error) {
	select {
	case <-c.done:
		return c.ack, c.err
	default:
		return api.AckMessage{}, ErrNotSettled
	}
}

// Wait блокируется до разрешения операции или отмены контекста
func (c *Completion) Wait(ctx context.Context) (api.AckMessage, error) {
	select {
	case <-c.done:
		return c.ack, c.err
	case <-ctx.Done():
		return api.AckMessage{}, ctx.Err()
	}
}
