package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/txshield/service/messaging"
)

type notice struct {
	SessionID string
	Reviewer  string
	Text      string
}

func TestQueue(t *testing.T) {
	config := DefaultConfig()
	config.RetryDelay = 10 * time.Millisecond
	queue := NewQueue[notice](config)
	ctx := context.Background()

	payload := notice{SessionID: "s1", Reviewer: "Security Analyst Smith", Text: "authorize?"}
	require.NoError(t, queue.Publish(ctx, &payload))
	assert.Equal(t, 1, queue.Size())

	message, err := queue.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, queue.Size())
	assert.EqualValues(t, payload, *message.T())

	assert.NoError(t, message.Ack())
	assert.ErrorIs(t, message.Ack(), ErrAlreadyProcessed)
}

func TestQueueRetries(t *testing.T) {
	config := DefaultConfig()
	config.MaxRetries = 2
	config.RetryDelay = 5 * time.Millisecond
	queue := NewQueue[notice](config)
	ctx := context.Background()

	require.NoError(t, queue.Publish(ctx, &notice{SessionID: "retry"}))

	var ids []string
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		waitCtx, cancel := context.WithTimeout(ctx, time.Second)
		message, err := queue.Consume(waitCtx)
		cancel()
		require.NoError(t, err, "attempt %d", attempt)
		ids = append(ids, message.(*Message[notice]).ID())
		require.NoError(t, message.Nack(fmt.Errorf("attempt %d", attempt)))
	}
	assert.Equal(t, ids[0], ids[len(ids)-1])

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, queue.Size())
	assert.Equal(t, 1, queue.DLQSize())
}

func TestQueueConcurrency(t *testing.T) {
	queue := NewQueue[notice](DefaultConfig())
	ctx := context.Background()
	producers, perProducer := 5, 10

	var wg sync.WaitGroup
	var consumed sync.Map
	for i := 0; i < producers; i++ {
		wg.Add(2)
		go func(producer int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				assert.NoError(t, queue.Publish(ctx, &notice{SessionID: fmt.Sprintf("p%d-%d", producer, j)}))
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				message, err := queue.Consume(ctx)
				if !assert.NoError(t, err) {
					return
				}
				consumed.Store(message.T().SessionID, true)
				assert.NoError(t, message.Ack())
			}
		}()
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("test timed out")
	}

	count := 0
	consumed.Range(func(_, _ any) bool { count++; return true })
	assert.Equal(t, producers*perProducer, count)
}

func TestQueueContextCancellation(t *testing.T) {
	queue := NewQueue[notice](DefaultConfig())

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, queue.Publish(cancelled, &notice{SessionID: "x"}))

	timeoutCtx, cancelTimeout := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancelTimeout()
	_, err := queue.Consume(timeoutCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, queue.Publish(context.Background(), &notice{SessionID: "y"}))
	message, err := messaging.Next[notice](context.Background(), queue, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "y", message.T().SessionID)
}

func TestQueueDropWhenFull(t *testing.T) {
	config := DefaultConfig()
	config.QueueBuffer = 2
	config.DropWhenFull = true
	queue := NewQueue[notice](config)
	ctx := context.Background()

	require.NoError(t, queue.Publish(ctx, &notice{SessionID: "a"}))
	require.NoError(t, queue.Publish(ctx, &notice{SessionID: "b"}))
	assert.ErrorIs(t, queue.Publish(ctx, &notice{SessionID: "c"}), ErrQueueFull)
	assert.Equal(t, 2, queue.Size())

	message, err := queue.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", message.T().SessionID)
	assert.NoError(t, queue.Publish(ctx, &notice{SessionID: "c"}))
}
