package event

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/viant/txshield/service/messaging"
	"github.com/viant/txshield/service/messaging/memory"
)

type Publisher[T any] struct {
	queue    messaging.Queue[Event[T]]
	mu       sync.RWMutex
	anyQueue messaging.Queue[Event[any]]
}

func NewPublisher[T any](queue messaging.Queue[Event[T]]) *Publisher[T] {
	return &Publisher[T]{
		queue: queue,
	}
}

// Publish stamps and enqueues the event, mirroring it onto the untyped stream when one is attached.
func (p *Publisher[T]) Publish(ctx context.Context, event *Event[T]) error {
	if event == nil {
		return errors.New("nil event")
	}
	event.CreatedAt = time.Now()
	p.mu.RLock()
	anyQueue := p.anyQueue
	p.mu.RUnlock()
	if anyQueue != nil {
		if err := anyQueue.Publish(ctx, &Event[any]{
			Context:   event.Context,
			CreatedAt: event.CreatedAt,
			Metadata:  event.Metadata,
			Data:      event.Data,
		}); err != nil {
			return errors.Wrap(err, "failed to mirror event")
		}
	}
	err := p.queue.Publish(ctx, event)
	if anyQueue != nil && errors.Is(err, memory.ErrQueueFull) {
		// delivered on the untyped stream; the typed one has no reader
		return nil
	}
	return err
}

func (p *Publisher[T]) mirror(queue messaging.Queue[Event[any]]) {
	p.mu.Lock()
	p.anyQueue = queue
	p.mu.Unlock()
}

// Consume returns the next event or (nil, nil) when a polling queue is empty.
func (p *Publisher[T]) Consume(ctx context.Context) (*Event[T], error) {
	msg, err := p.queue.Consume(ctx)
	if err != nil || msg == nil {
		return nil, err
	}
	if err = msg.Ack(); err != nil {
		return nil, err
	}
	return msg.T(), nil
}
