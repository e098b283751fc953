package memory

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/txshield/model"
	"github.com/viant/txshield/service/messaging"
	qmem "github.com/viant/txshield/service/messaging/memory"
	"github.com/viant/txshield/service/review"
)

const smith = "Security Analyst Smith"

type failingQueue struct{}

func (failingQueue) Publish(context.Context, *review.Prompt) error {
	return errors.New("broker unavailable")
}

func (failingQueue) Consume(context.Context) (messaging.Message[review.Prompt], error) {
	return nil, nil
}

func newPrompt(sessionID, reviewer string) *review.Prompt {
	return &review.Prompt{SessionID: sessionID, Reviewer: reviewer, Message: "authorize?"}
}

func TestService_SendAwaitDeliver(t *testing.T) {
	ctx := context.Background()
	channel := New()

	prompt := newPrompt("s1", smith)
	require.NoError(t, channel.SendPrompt(ctx, prompt))
	assert.Len(t, channel.Outstanding(ctx), 1)

	msg, err := channel.Prompts().Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s1", msg.T().SessionID)
	require.NoError(t, msg.Ack())

	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = channel.Deliver(ctx, &review.Response{SessionID: "s1", Reviewer: smith, Text: "yes"})
	}()
	response, err := channel.AwaitResponse(ctx, prompt.Key(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "yes", response.Text)
	assert.False(t, response.ReceivedAt.IsZero())
	assert.Empty(t, channel.Outstanding(ctx))
}

func TestService_DeliverBeforeAwait(t *testing.T) {
	ctx := context.Background()
	channel := New()
	prompt := newPrompt("s1", smith)
	require.NoError(t, channel.SendPrompt(ctx, prompt))
	require.NoError(t, channel.Deliver(ctx, &review.Response{SessionID: "s1", Reviewer: smith, Text: "no"}))

	response, err := channel.AwaitResponse(ctx, prompt.Key(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "no", response.Text)
}

func TestService_DuplicatePrompt(t *testing.T) {
	ctx := context.Background()
	channel := New()
	require.NoError(t, channel.SendPrompt(ctx, newPrompt("s1", smith)))

	err := channel.SendPrompt(ctx, newPrompt("s1", smith))
	require.Error(t, err)
	assert.True(t, errors.Is(err, review.ErrDuplicatePrompt))
	assert.True(t, errors.Is(err, model.ErrProtocolViolation))
	assert.Len(t, channel.Outstanding(ctx), 1)

	require.NoError(t, channel.SendPrompt(ctx, newPrompt("s1", "Compliance Officer Lee")))
	assert.Len(t, channel.Outstanding(ctx), 2)
}

func TestService_Timeout(t *testing.T) {
	var logs bytes.Buffer
	ctx := context.Background()
	channel := New(WithLogger(slog.New(slog.NewJSONHandler(&logs, nil))))
	prompt := newPrompt("s1", smith)
	require.NoError(t, channel.SendPrompt(ctx, prompt))

	_, err := channel.AwaitResponse(ctx, prompt.Key(), 20*time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrReviewTimeout))
	assert.Empty(t, channel.Outstanding(ctx))

	err = channel.Deliver(ctx, &review.Response{SessionID: "s1", Reviewer: smith, Text: "yes"})
	assert.True(t, errors.Is(err, review.ErrUnmatchedResponse))
	assert.Contains(t, err.Error(), review.AnomalyLate)
	assert.Contains(t, logs.String(), `"kind":"late"`)
}

func TestService_Cancellation(t *testing.T) {
	channel := New()
	prompt := newPrompt("s1", smith)
	require.NoError(t, channel.SendPrompt(context.Background(), prompt))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := channel.AwaitResponse(ctx, prompt.Key(), time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, channel.Outstanding(context.Background()))
}

func TestService_Unmatched(t *testing.T) {
	ctx := context.Background()
	channel := New()
	prompt := newPrompt("s1", smith)
	require.NoError(t, channel.SendPrompt(ctx, prompt))

	testCases := []struct {
		description string
		response    *review.Response
	}{
		{description: "wrong reviewer", response: &review.Response{SessionID: "s1", Reviewer: "Compliance Officer Lee", Text: "yes"}},
		{description: "unknown session", response: &review.Response{SessionID: "s2", Reviewer: smith, Text: "yes"}},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			err := channel.Deliver(ctx, testCase.response)
			assert.True(t, errors.Is(err, review.ErrUnmatchedResponse))
			assert.True(t, errors.Is(err, model.ErrProtocolViolation))
			assert.Contains(t, err.Error(), review.AnomalyUnmatched)
		})
	}
	assert.Len(t, channel.Outstanding(ctx), 1, "original prompt untouched")

	require.NoError(t, channel.Deliver(ctx, &review.Response{SessionID: "s1", Reviewer: smith, Text: "yes"}))
	err := channel.Deliver(ctx, &review.Response{SessionID: "s1", Reviewer: smith, Text: "no"})
	assert.True(t, errors.Is(err, review.ErrUnmatchedResponse), "resolved exactly once")

	response, err := channel.AwaitResponse(ctx, prompt.Key(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "yes", response.Text)
}

func TestService_AwaitNotOutstanding(t *testing.T) {
	_, err := New().AwaitResponse(context.Background(), review.Key{SessionID: "s1", Reviewer: smith}, time.Second)
	assert.True(t, errors.Is(err, review.ErrNotOutstanding))
}

func TestService_Retract(t *testing.T) {
	ctx := context.Background()
	channel := New()
	prompt := newPrompt("s1", smith)
	require.NoError(t, channel.SendPrompt(ctx, prompt))
	assert.True(t, channel.Retract(ctx, prompt.Key()))
	assert.False(t, channel.Retract(ctx, prompt.Key()))
	assert.Empty(t, channel.Outstanding(ctx))
	require.NoError(t, channel.SendPrompt(ctx, prompt), "key can be reused once retracted")
}

func TestService_PublishFailure(t *testing.T) {
	ctx := context.Background()
	channel := New(WithPromptQueue(failingQueue{}))
	err := channel.SendPrompt(ctx, newPrompt("s1", smith))
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrTransport))
	assert.Empty(t, channel.Outstanding(ctx))
}

func TestService_UnreadPromptQueue(t *testing.T) {
	ctx := context.Background()
	channel := New()
	total := qmem.DefaultConfig().QueueBuffer + 5

	sent := make(chan error, 1)
	go func() {
		for i := 0; i < total; i++ {
			prompt := newPrompt(fmt.Sprintf("s%d", i), smith)
			if err := channel.SendPrompt(ctx, prompt); err != nil {
				sent <- err
				return
			}
			if err := channel.Deliver(ctx, &review.Response{SessionID: prompt.SessionID, Reviewer: smith, Text: "yes"}); err != nil {
				sent <- err
				return
			}
			if _, err := channel.AwaitResponse(ctx, prompt.Key(), time.Second); err != nil {
				sent <- err
				return
			}
		}
		sent <- nil
	}()

	select {
	case err := <-sent:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("SendPrompt blocked on an unread prompt queue")
	}
	assert.Empty(t, channel.Outstanding(ctx))

	last := newPrompt("late", smith)
	require.NoError(t, channel.SendPrompt(ctx, last))
	assert.Len(t, channel.Outstanding(ctx), 1, "dropped notification still outstanding")
}

func TestService_InvalidPrompt(t *testing.T) {
	err := New().SendPrompt(context.Background(), &review.Prompt{SessionID: "s1"})
	assert.True(t, errors.Is(err, model.ErrProtocolViolation))
}

func TestService_ConcurrentSessions(t *testing.T) {
	ctx := context.Background()
	channel := New()
	const sessions = 20

	var wg sync.WaitGroup
	results := make([]string, sessions)
	for i := 0; i < sessions; i++ {
		prompt := newPrompt(fmt.Sprintf("s%d", i), smith)
		require.NoError(t, channel.SendPrompt(ctx, prompt))
		wg.Add(1)
		go func(i int, key review.Key) {
			defer wg.Done()
			response, err := channel.AwaitResponse(ctx, key, 5*time.Second)
			if err == nil {
				results[i] = response.Text
			}
		}(i, prompt.Key())
	}
	for i := sessions - 1; i >= 0; i-- {
		require.NoError(t, channel.Deliver(ctx, &review.Response{SessionID: fmt.Sprintf("s%d", i), Reviewer: smith, Text: fmt.Sprintf("answer-%d", i)}))
	}
	wg.Wait()
	for i := 0; i < sessions; i++ {
		assert.Equal(t, fmt.Sprintf("answer-%d", i), results[i])
	}
}
