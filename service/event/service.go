// Package event carries session lifecycle audit records over messaging queues.
package event

import (
	"context"
	"log/slog"
	"reflect"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/viant/afs"
	"github.com/viant/txshield/internal/logging"
	"github.com/viant/txshield/service/messaging"
	"github.com/viant/txshield/service/messaging/fs"
	"github.com/viant/txshield/service/messaging/memory"
)

// untypedQueue names the stream every event is mirrored on. Typed memory
// queues drop when full; the untyped one keeps back-pressure since only an
// attached listener makes anything publish to it.
const untypedQueue = "any"

type Service struct {
	publisher         *Publisher[any]
	listener          *Listener[any]
	typedPublishers   map[reflect.Type]any
	typedListener     map[reflect.Type]any
	mux               *sync.RWMutex
	queueVendor       messaging.Vendor
	fs                afs.Service
	logger            *slog.Logger
	fsNewQueueConfig  func(name string) fs.Config
	memNewQueueConfig func(name string) memory.Config
}

// SetListener consumes the untyped stream carrying every published event.
func (s *Service) SetListener(handler func(*Event[any])) {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.listener != nil {
		s.listener.Stop()
	}
	s.listener = NewListener[any](s.publisher, handler, s.logger)
	s.listener.Start()
	for _, publisher := range s.typedPublishers {
		publisher.(mirrored).mirror(s.publisher.queue)
	}
}

type mirrored interface {
	mirror(queue messaging.Queue[Event[any]])
}

// Emit publishes a session lifecycle record. With the memory vendor and no
// listener attached the record is only logged, so an unread buffer never
// stalls the caller.
func (s *Service) Emit(ctx context.Context, eventContext *Context, data Session) {
	if s == nil {
		return
	}
	s.logger.Debug("session event",
		"type", eventContext.EventType,
		"session_id", eventContext.SessionID,
		"state", data.State)
	if !s.consumed() {
		return
	}
	publisher, err := PublisherOf[Session](s)
	if err == nil {
		err = publisher.Publish(ctx, NewEvent(eventContext, data))
	}
	if err != nil {
		s.logger.Warn("failed to publish session event",
			"type", eventContext.EventType,
			"session_id", eventContext.SessionID,
			"error", err)
	}
}

func (s *Service) consumed() bool {
	if s.queueVendor == messaging.VendorFs {
		return true
	}
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.listener != nil || len(s.typedListener) > 0
}

// Close stops every attached listener.
func (s *Service) Close() {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.listener != nil {
		s.listener.Stop()
		s.listener = nil
	}
	for key, listener := range s.typedListener {
		if stopper, ok := listener.(interface{ Stop() }); ok {
			stopper.Stop()
		}
		delete(s.typedListener, key)
	}
}

func New(queueVendor messaging.Vendor, opts ...Option) (*Service, error) {
	ret := &Service{
		queueVendor:     queueVendor,
		typedPublishers: make(map[reflect.Type]any),
		typedListener:   make(map[reflect.Type]any),
		mux:             &sync.RWMutex{},
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.logger = logging.OrDefault(ret.logger)

	switch queueVendor {
	case messaging.VendorFs:
		if ret.fsNewQueueConfig == nil {
			return nil, errors.New("fs queue vendor requires a queue config")
		}
		if ret.fs == nil {
			ret.fs = afs.New()
		}
	case messaging.VendorMemory:
		if ret.memNewQueueConfig == nil {
			ret.memNewQueueConfig = func(name string) memory.Config {
				config := memory.DefaultConfig()
				config.DropWhenFull = name != untypedQueue
				return config
			}
		}
	default:
		return nil, errors.Newf("unsupported queue vendor: %s", queueVendor)
	}

	queue, err := QueueOf[Event[any]](ret, untypedQueue)
	if err != nil {
		return nil, err
	}
	ret.publisher = NewPublisher[any](queue)
	return ret, nil
}

func QueueOf[T any](s *Service, name string) (messaging.Queue[T], error) {
	switch s.queueVendor {
	case messaging.VendorFs:
		return fs.NewQueue[T](context.Background(), s.fs, s.fsNewQueueConfig(name))
	case messaging.VendorMemory:
		return memory.NewQueue[T](s.memNewQueueConfig(name)), nil
	}
	return nil, errors.Newf("unsupported queue vendor: %s", s.queueVendor)
}

func keyOf[T any]() reflect.Type {
	rType := reflect.TypeOf((*T)(nil)).Elem()
	if rType.Kind() == reflect.Ptr {
		rType = rType.Elem()
	}
	return rType
}

func SetListenerOf[T any](s *Service, handler func(*Event[T])) error {
	key := keyOf[T]()
	publisher, err := PublisherOf[T](s)
	if err != nil {
		return err
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	if prev, ok := s.typedListener[key]; ok {
		prev.(*Listener[T]).Stop()
	}
	listener := NewListener[T](publisher, handler, s.logger)
	s.typedListener[key] = listener
	listener.Start()
	return nil
}

// PublisherOf returns a publisher for the provided type
func PublisherOf[T any](s *Service) (*Publisher[T], error) {
	key := keyOf[T]()
	s.mux.RLock()
	ret, ok := s.typedPublishers[key]
	s.mux.RUnlock()
	if ok {
		return ret.(*Publisher[T]), nil
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	if ret, ok = s.typedPublishers[key]; ok {
		return ret.(*Publisher[T]), nil
	}
	queue, err := QueueOf[Event[T]](s, key.String())
	if err != nil {
		return nil, err
	}
	publisher := NewPublisher[T](queue)
	if s.listener != nil || s.queueVendor == messaging.VendorFs {
		publisher.mirror(s.publisher.queue)
	}
	s.typedPublishers[key] = publisher
	return publisher, nil
}
