package event

import (
	"context"
	"log/slog"
	"time"

	"github.com/viant/txshield/internal/logging"
)

const pollInterval = 50 * time.Millisecond

type Listener[T any] struct {
	publisher *Publisher[T]
	handler   func(*Event[T])
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewListener[T any](publisher *Publisher[T], handler func(*Event[T]), logger *slog.Logger) *Listener[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Listener[T]{
		publisher: publisher,
		handler:   handler,
		logger:    logging.OrDefault(logger),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// Stop cancels the listener and waits for the handler loop to exit.
func (l *Listener[T]) Stop() {
	l.cancel()
	<-l.done
}

func (l *Listener[T]) Start() {
	go func() {
		defer close(l.done)
		for {
			event, err := l.publisher.Consume(l.ctx)
			if l.ctx.Err() != nil {
				return
			}
			if err != nil {
				l.logger.Warn("failed to consume event", "error", err)
			}
			if event == nil {
				select {
				case <-l.ctx.Done():
					return
				case <-time.After(pollInterval):
				}
				continue
			}
			l.handler(event)
		}
	}()
}
