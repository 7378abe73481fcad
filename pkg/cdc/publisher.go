package cdc

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	cdc_config "deskbook/pkg/cdc/config"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"
)

// Publisher writes change events to a single table's topic.
type Publisher struct {
	writer    *kafka.Writer
	dlqWriter *kafka.Writer
	table     string
	topic     string
	source    string
	closed    bool
	mu        sync.RWMutex
}

// NewPublisher creates a publisher for one table's change topic. A non-empty
// dlqTopic routes events that could not be written.
func NewPublisher(cfg *cdc_config.Config, table string, source string, dlqTopic string) (*Publisher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if table == "" {
		return nil, ErrUnknownTable
	}

	var compression compress.Compression
	switch cfg.ProducerCompression {
	case "gzip":
		compression = compress.Gzip
	case "lz4":
		compression = compress.Lz4
	case "zstd":
		compression = compress.Zstd
	default:
		compression = compress.Snappy
	}

	var requiredAcks kafka.RequiredAcks
	switch cfg.ProducerRequireAcks {
	case 0:
		requiredAcks = kafka.RequireNone
	case 1:
		requiredAcks = kafka.RequireOne
	default:
		requiredAcks = kafka.RequireAll
	}

	topic := TopicForTable(table)
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // hash by row id for per-row ordering
		RequiredAcks: requiredAcks,
		Compression:  compression,
		MaxAttempts:  cfg.ProducerMaxAttempts,
		BatchTimeout: cfg.ProducerBatchTimeout,
		Async:        cfg.ProducerAsync,
		Logger:       kafka.LoggerFunc(func(msg string, args ...any) {}),
		ErrorLogger:  kafka.LoggerFunc(log.Printf),
	}

	p := &Publisher{
		writer: writer,
		table:  table,
		topic:  topic,
		source: source,
	}

	if dlqTopic != "" {
		p.dlqWriter = &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        dlqTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Compression:  compression,
			MaxAttempts:  3,
			Logger:       kafka.LoggerFunc(func(msg string, args ...any) {}),
			ErrorLogger:  kafka.LoggerFunc(log.Printf),
		}
	}

	return p, nil
}

// Publish writes one change event for this publisher's table.
func (p *Publisher) Publish(ctx context.Context, ev ChangeEvent) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrPublisherClosed
	}
	p.mu.RUnlock()

	if ev.RowID == "" {
		return ErrEmptyRowID
	}
	if ev.Table != p.table {
		return fmt.Errorf("%w: publisher is bound to %q, got %q", ErrUnknownTable, p.table, ev.Table)
	}

	msg, err := encodeEvent(ev, p.source)
	if err != nil {
		return fmt.Errorf("failed to encode change event: %w", err)
	}

	kafkaMsg := toKafkaMessage(msg, ev.OccurredAt)
	if err := p.writer.WriteMessages(ctx, kafkaMsg); err != nil {
		if p.dlqWriter != nil {
			if dlqErr := p.sendToDLQ(ctx, msg, err); dlqErr != nil {
				return fmt.Errorf("failed to send to DLQ: %v (original error: %v)", dlqErr, err)
			}
		}
		return err
	}

	return nil
}

func (p *Publisher) sendToDLQ(ctx context.Context, msg message, originalErr error) error {
	msg.headers[HeaderDLQTopic] = p.topic
	msg.headers[HeaderDLQError] = originalErr.Error()

	return p.dlqWriter.WriteMessages(ctx, toKafkaMessage(msg, time.Now()))
}

// Close releases the underlying writers. Safe to call more than once.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var err error
	if p.writer != nil {
		err = p.writer.Close()
	}
	if p.dlqWriter != nil {
		dlqErr := p.dlqWriter.Close()
		if err == nil {
			err = dlqErr
		}
	}

	return err
}

// Stats returns writer statistics.
func (p *Publisher) Stats() kafka.WriterStats {
	return p.writer.Stats()
}

func toKafkaMessage(msg message, ts time.Time) kafka.Message {
	kafkaMsg := kafka.Message{
		Key:   []byte(msg.key),
		Value: msg.value,
		Time:  ts,
	}
	for k, v := range msg.headers {
		kafkaMsg.Headers = append(kafkaMsg.Headers, kafka.Header{
			Key:   k,
			Value: []byte(v),
		})
	}
	return kafkaMsg
}
