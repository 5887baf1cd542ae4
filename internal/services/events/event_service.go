// -----------------------------------------------------------------------
// Package events is the in-process pub/sub bus. Content changes, inquiry
// deliveries and planner session sweeps are published here.
// -----------------------------------------------------------------------

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/common"
	"github.com/ternarybob/serendib/internal/interfaces"
)

// ErrClosed is returned by Subscribe and Publish after Close
var ErrClosed = errors.New("event service is closed")

// Service implements interfaces.EventService
type Service struct {
	mu          sync.RWMutex
	subscribers map[interfaces.EventType][]interfaces.EventHandler
	inflight    sync.WaitGroup
	closed      bool
	logger      arbor.ILogger
}

// NewService creates a new event service
func NewService(logger arbor.ILogger) interfaces.EventService {
	return &Service{
		subscribers: make(map[interfaces.EventType][]interfaces.EventHandler),
		logger:      logger,
	}
}

// Subscribe registers handler for eventType. Handlers run in subscription order for PublishSync.
func (s *Service) Subscribe(eventType interfaces.EventType, handler interfaces.EventHandler) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.subscribers[eventType] = append(s.subscribers[eventType], handler)
	return nil
}

// handlers snapshots the subscriber list, registering the callers as in flight
// so Close can wait for them
func (s *Service) handlers(eventType interfaces.EventType, async bool) ([]interfaces.EventHandler, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	subscribed := s.subscribers[eventType]
	if async {
		s.inflight.Add(len(subscribed))
	}
	return append([]interfaces.EventHandler(nil), subscribed...), nil
}

// Publish delivers event to every subscriber in the background. Handlers get a
// context that outlives the caller's request. Handler errors are only logged.
func (s *Service) Publish(ctx context.Context, event interfaces.Event) error {
	handlers, err := s.handlers(event.Type, true)
	if err != nil {
		return err
	}

	stamp(&event)
	detached := context.WithoutCancel(ctx)
	for _, handler := range handlers {
		handler := handler
		common.SafeGo(s.logger, "event:"+string(event.Type), func() {
			defer s.inflight.Done()
			if err := handler(detached, event); err != nil {
				s.logger.Warn().
					Err(err).
					Str("event_type", string(event.Type)).
					Msg("Event handler failed")
			}
		})
	}
	return nil
}

// PublishSync runs every subscriber in order on the calling goroutine and
// joins their errors. A panicking handler is reported as an error.
func (s *Service) PublishSync(ctx context.Context, event interfaces.Event) error {
	handlers, err := s.handlers(event.Type, false)
	if err != nil {
		return err
	}

	stamp(&event)
	var errs []error
	for i, handler := range handlers {
		if err := runHandler(ctx, handler, event); err != nil {
			errs = append(errs, fmt.Errorf("handler %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func stamp(event *interfaces.Event) {
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}
}

func runHandler(ctx context.Context, handler interfaces.EventHandler, event interfaces.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return handler(ctx, event)
}

// Close rejects further events and waits for background handlers to return
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.subscribers = nil
	s.mu.Unlock()

	s.inflight.Wait()
	s.logger.Debug().Msg("Event service closed")
	return nil
}
