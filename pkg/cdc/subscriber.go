package cdc

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	cdc_config "deskbook/pkg/cdc/config"

	"github.com/segmentio/kafka-go"
)

// Middleware intercepts event handling, e.g. for logging.
type Middleware func(ev ChangeEvent, next Handler) error

// Subscriber consumes one table's change topic, filtered by event type, and
// hands matching events to a handler. Events that do not match the filter
// are acknowledged and skipped.
type Subscriber struct {
	reader     *kafka.Reader
	table      string
	eventType  string
	groupID    string
	maxRetries int
	handler    Handler
	middleware []Middleware
	closed     bool
	mu         sync.RWMutex
	wg         sync.WaitGroup
}

// NewSubscriber subscribes to a table's change topic. eventType may be one of
// the Event* constants or EventAll.
func NewSubscriber(cfg *cdc_config.Config, table, eventType, groupID string, handler Handler) (*Subscriber, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if table == "" {
		return nil, ErrUnknownTable
	}
	if groupID == "" {
		return nil, fmt.Errorf("group ID cannot be empty")
	}
	if handler == nil {
		return nil, fmt.Errorf("event handler cannot be nil")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          TopicForTable(table),
		GroupID:        groupID,
		MinBytes:       cfg.ConsumerMinBytes,
		MaxBytes:       cfg.ConsumerMaxBytes,
		MaxWait:        cfg.ConsumerMaxWait,
		CommitInterval: cfg.ConsumerCommitInterval,
		StartOffset:    cfg.ConsumerStartOffset,
		Logger:         kafka.LoggerFunc(func(msg string, args ...any) {}),
		ErrorLogger:    kafka.LoggerFunc(log.Printf),
	})

	return &Subscriber{
		reader:     reader,
		table:      table,
		eventType:  eventType,
		groupID:    groupID,
		maxRetries: cfg.ConsumerMaxRetries,
		handler:    handler,
	}, nil
}

// Use appends middleware around the handler.
func (s *Subscriber) Use(mw Middleware) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.middleware = append(s.middleware, mw)
}

// Start consumes until the context is cancelled or the subscriber is closed.
func (s *Subscriber) Start(ctx context.Context) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrSubscriberClosed
	}
	s.mu.RUnlock()

	s.wg.Add(1)
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			kafkaMsg, err := s.reader.FetchMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				log.Printf("change feed consumer error fetching message: %v", err)
				time.Sleep(1 * time.Second)
				continue
			}

			ev, decodeErr := decodeEvent(kafkaMsg.Value)
			if decodeErr != nil {
				// Undecodable events are skipped; replaying them can never succeed.
				log.Printf("change feed consumer skipping undecodable event: %v", decodeErr)
			} else if ev.Matches(s.table, s.eventType) {
				if err := s.processEvent(ev, 0); err != nil {
					log.Printf("change feed consumer error processing event %s: %v", ev.ID, err)
				}
			}

			if err := s.reader.CommitMessages(ctx, kafkaMsg); err != nil {
				log.Printf("change feed consumer error committing offset: %v", err)
			}
		}
	}
}

func (s *Subscriber) processEvent(ev ChangeEvent, retries int) error {
	handler := s.handler
	for i := len(s.middleware) - 1; i >= 0; i-- {
		mw := s.middleware[i]
		next := handler
		handler = func(e ChangeEvent) error {
			return mw(e, next)
		}
	}

	err := handler(ev)
	if err == nil {
		return nil
	}

	if ShouldRetry(err, retries, s.maxRetries) {
		log.Printf("retrying change event %s (attempt %d/%d): %v", ev.ID, retries+1, s.maxRetries, err)
		return s.processEvent(ev, retries+1)
	}

	return err
}

// Close stops the subscriber and releases the reader. Idempotent.
func (s *Subscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	s.wg.Wait()

	if s.reader != nil {
		return s.reader.Close()
	}
	return nil
}

// Lag returns the current consumer lag.
func (s *Subscriber) Lag() int64 {
	return s.reader.Stats().Lag
}
