// Package cdc is the row-level change feed: every table write is published
// as a change event on a per-table topic, and view components subscribe per
// table and event type. Delivery is at-least-once and best-effort; consumers
// must tolerate loss and duplicates.
package cdc

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types mirror the store's row operations.
const (
	EventInsert = "insert"
	EventUpdate = "update"
	EventDelete = "delete"
	EventAll    = "*"
)

// Tables carried by the feed.
const (
	TableUsers    = "users"
	TableOffices  = "offices"
	TableBookings = "bookings"
)

// Header keys attached to every published event.
const (
	HeaderEventID    = "event-id"
	HeaderEventType  = "event-type"
	HeaderTable      = "table"
	HeaderSource     = "source"
	HeaderTimestamp  = "timestamp"
	HeaderRetryCount = "retry-count"
	HeaderDLQError   = "dlq-error"
	HeaderDLQTopic   = "original-topic"
)

// TopicForTable maps a table to its change topic.
func TopicForTable(table string) string {
	return "cdc." + table
}

// ChangeEvent is one row-level change. Row carries the row's state after the
// change (for deletes, its last state) as raw JSON so consumers decode into
// their own types.
type ChangeEvent struct {
	ID         string          `json:"id"`
	Table      string          `json:"table"`
	Type       string          `json:"type"`
	RowID      string          `json:"row_id"`
	Row        json.RawMessage `json:"row,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewChangeEvent builds an event for a row, JSON-encoding its state.
func NewChangeEvent(table, eventType, rowID string, row any) (ChangeEvent, error) {
	ev := ChangeEvent{
		ID:         uuid.NewString(),
		Table:      table,
		Type:       eventType,
		RowID:      rowID,
		OccurredAt: time.Now().UTC(),
	}

	if row != nil {
		data, err := json.Marshal(row)
		if err != nil {
			return ChangeEvent{}, err
		}
		ev.Row = data
	}

	return ev, nil
}

// DecodeRow unmarshals the row state into the given target.
func (e *ChangeEvent) DecodeRow(target any) error {
	return json.Unmarshal(e.Row, target)
}

// Matches reports whether the event passes a table/type subscription filter.
// An empty or "*" event type matches everything.
func (e *ChangeEvent) Matches(table, eventType string) bool {
	if table != "" && e.Table != table {
		return false
	}
	if eventType == "" || eventType == EventAll {
		return true
	}
	return e.Type == eventType
}

// Handler processes one change event. Returning an error triggers the
// consumer's retry/DLQ handling.
type Handler func(ev ChangeEvent) error

// message is the wire representation moving through Kafka.
type message struct {
	key     string
	value   []byte
	headers map[string]string
}

func encodeEvent(ev ChangeEvent, source string) (message, error) {
	value, err := json.Marshal(ev)
	if err != nil {
		return message{}, err
	}

	return message{
		// Key by row id so all changes to one row stay ordered.
		key:   ev.RowID,
		value: value,
		headers: map[string]string{
			HeaderEventID:   ev.ID,
			HeaderEventType: ev.Type,
			HeaderTable:     ev.Table,
			HeaderSource:    source,
			HeaderTimestamp: ev.OccurredAt.Format(time.RFC3339),
		},
	}, nil
}

func decodeEvent(value []byte) (ChangeEvent, error) {
	var ev ChangeEvent
	if err := json.Unmarshal(value, &ev); err != nil {
		return ChangeEvent{}, err
	}
	return ev, nil
}
