// Package messaging defines the queue abstraction carrying review prompts
// out of the engine and reviewer responses back in.
package messaging

import (
	"context"
	"time"
)

// Vendor represents the name of a messaging vendor
type Vendor string

const (
	// VendorMemory keeps messages in process.
	VendorMemory Vendor = "memory"
	// VendorFs stores messages as JSON files on any afs-supported storage.
	VendorFs Vendor = "fs"
)

// Queue represents an abstract message queue for any payload type
type Queue[T any] interface {
	// Publish adds a new message with payload to the queue
	Publish(ctx context.Context, t *T) error

	// Consume retrieves a single message from the queue. Blocking vendors
	// wait for a message; polling vendors return (nil, nil) when empty.
	Consume(ctx context.Context) (Message[T], error)
}

// Message represents a message retrieved from a queue
type Message[T any] interface {
	// T returns the payload of this message
	T() *T

	// Ack acknowledges successful processing of this message
	Ack() error

	// Nack indicates failure in processing this message
	Nack(err error) error
}

// Next consumes the next message, polling every interval while a polling
// vendor reports an empty queue. It returns only with a message or an error.
func Next[T any](ctx context.Context, q Queue[T], interval time.Duration) (Message[T], error) {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	for {
		msg, err := q.Consume(ctx)
		if err != nil {
			return nil, err
		}
		if msg != nil {
			return msg, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}
