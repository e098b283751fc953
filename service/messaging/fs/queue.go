package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"github.com/viant/txshield/service/messaging"
)

// MessageState represents the state of a message in the filesystem queue
type MessageState string

const (
	MessageStatePending    MessageState = "pending"
	MessageStateProcessing MessageState = "processing"
	MessageStateCompleted  MessageState = "completed"
	MessageStateFailed     MessageState = "failed"
)

// Message implements messaging.Message for the filesystem queue
type Message[T any] struct {
	ID        string       `json:"id"`
	Data      T            `json:"data"`
	State     MessageState `json:"state"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Retries   int          `json:"retries"`

	name      string
	queue     *Queue[T]
	mu        sync.Mutex
	processed bool
}

// T returns the message payload
func (m *Message[T]) T() *T {
	return &m.Data
}

// Ack removes the message from the processing directory, keeping a copy in
// the completed directory when configured.
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return errors.New("message already processed")
	}
	m.processed = true
	m.State = MessageStateCompleted
	m.UpdatedAt = time.Now()
	return m.queue.complete(context.Background(), m)
}

// Nack returns the message to pending for another attempt, or moves it to
// the dead letter directory once MaxRetries is exceeded.
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return errors.New("message already processed")
	}
	m.processed = true
	m.State = MessageStateFailed
	if err != nil {
		m.Error = err.Error()
	}
	m.Retries++
	m.UpdatedAt = time.Now()
	return m.queue.fail(context.Background(), m)
}

// Config holds configuration for filesystem queue
type Config struct {
	// BaseURL is any afs URL, e.g. file:///var/txshield/prompts or mem://localhost/prompts
	BaseURL       string `json:"baseURL" yaml:"baseURL"`
	MaxRetries    int    `json:"maxRetries,omitempty" yaml:"maxRetries,omitempty"`
	KeepCompleted bool   `json:"keepCompleted,omitempty" yaml:"keepCompleted,omitempty"`
}

// DefaultConfig returns a default queue configuration rooted at baseURL.
func DefaultConfig(baseURL string) Config {
	return Config{BaseURL: baseURL, MaxRetries: 3}
}

// Queue implements a filesystem-based messaging.Queue
type Queue[T any] struct {
	fs            afs.Service
	config        Config
	pendingDir    string
	processingDir string
	completedDir  string
	dlqDir        string
	mu            sync.Mutex
}

// NewQueue creates a new filesystem-based queue
func NewQueue[T any](ctx context.Context, fs afs.Service, config Config) (*Queue[T], error) {
	if config.BaseURL == "" {
		return nil, errors.New("base URL cannot be empty")
	}
	q := &Queue[T]{
		fs:            fs,
		config:        config,
		pendingDir:    url.Join(config.BaseURL, "pending"),
		processingDir: url.Join(config.BaseURL, "processing"),
		completedDir:  url.Join(config.BaseURL, "completed"),
		dlqDir:        url.Join(config.BaseURL, "dlq"),
	}
	for _, dir := range []string{q.pendingDir, q.processingDir, q.completedDir, q.dlqDir} {
		if exists, _ := fs.Exists(ctx, dir); exists {
			continue
		}
		if err := fs.Create(ctx, dir, file.DefaultDirOsMode, true); err != nil {
			return nil, errors.Wrapf(err, "failed to create directory %s", dir)
		}
	}
	return q, nil
}

// Publish writes a new message to the pending directory
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	if t == nil {
		return errors.New("nil payload")
	}
	now := time.Now()
	message := &Message[T]{
		ID:        uuid.New().String(),
		Data:      *t,
		State:     MessageStatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return q.write(ctx, url.Join(q.pendingDir, filename(now, message.ID)), message)
}

// Consume claims the oldest pending message by moving it to the processing
// directory. It returns (nil, nil) when nothing is pending.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	objects, err := q.fs.List(ctx, q.pendingDir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list pending messages")
	}
	pending := make([]storage.Object, 0, len(objects))
	for _, obj := range objects {
		if !obj.IsDir() && strings.HasSuffix(obj.Name(), ".json") {
			pending = append(pending, obj)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].Name() < pending[j].Name() })

	for _, obj := range pending {
		processingURL := url.Join(q.processingDir, obj.Name())
		if err := q.fs.Move(ctx, obj.URL(), processingURL); err != nil {
			continue // claimed by another consumer
		}
		message, err := q.read(ctx, processingURL)
		if err != nil {
			_ = q.fs.Move(ctx, processingURL, url.Join(q.dlqDir, "invalid-"+obj.Name()))
			return nil, err
		}
		message.name = obj.Name()
		message.queue = q
		message.State = MessageStateProcessing
		message.UpdatedAt = time.Now()
		return message, nil
	}
	return nil, nil
}

func (q *Queue[T]) complete(ctx context.Context, m *Message[T]) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	processingURL := url.Join(q.processingDir, m.name)
	if q.config.KeepCompleted {
		if err := q.write(ctx, url.Join(q.completedDir, m.name), m); err != nil {
			return err
		}
	}
	return q.fs.Delete(ctx, processingURL)
}

func (q *Queue[T]) fail(ctx context.Context, m *Message[T]) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	processingURL := url.Join(q.processingDir, m.name)
	target := url.Join(q.dlqDir, m.name)
	if m.Retries <= q.config.MaxRetries {
		m.State = MessageStatePending
		target = url.Join(q.pendingDir, filename(time.Now(), m.ID))
	}
	if err := q.write(ctx, target, m); err != nil {
		return err
	}
	return q.fs.Delete(ctx, processingURL)
}

// Pending returns the number of messages waiting to be consumed.
func (q *Queue[T]) Pending(ctx context.Context) (int, error) {
	return q.count(ctx, q.pendingDir)
}

// DeadLetters returns the number of messages in the dead letter directory.
func (q *Queue[T]) DeadLetters(ctx context.Context) (int, error) {
	return q.count(ctx, q.dlqDir)
}

func (q *Queue[T]) count(ctx context.Context, dir string) (int, error) {
	objects, err := q.fs.List(ctx, dir)
	if err != nil {
		return 0, err
	}
	ret := 0
	for _, obj := range objects {
		if !obj.IsDir() {
			ret++
		}
	}
	return ret, nil
}

// filename sorts lexicographically in publish order.
func filename(at time.Time, id string) string {
	return fmt.Sprintf("%020d-%s.json", at.UnixNano(), id)
}

func (q *Queue[T]) write(ctx context.Context, URL string, m *Message[T]) error {
	data, err := json.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "failed to marshal message")
	}
	return q.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data))
}

func (q *Queue[T]) read(ctx context.Context, URL string) (*Message[T], error) {
	data, err := q.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read message %s", URL)
	}
	var message Message[T]
	if err := json.Unmarshal(data, &message); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal message %s", URL)
	}
	return &message, nil
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
