package events

import "time"

// EventKind identifies a diagram change event. The set is closed; consumers
// dispatch on the kind rather than inspecting event payloads dynamically.
type EventKind string

const (
	KindElementAdded   EventKind = "element.added"
	KindElementRemoved EventKind = "element.removed"
	KindElementChanged EventKind = "element.changed"
	KindLinkAdded      EventKind = "link.added"
	KindLinkRemoved    EventKind = "link.removed"
	KindLinkChanged    EventKind = "link.changed"
	KindHistoryChanged EventKind = "history.changed"
)

// DomainEvent is the base interface for all diagram events.
// Events represent something that has already happened.
type DomainEvent interface {
	GetAggregateID() string
	GetKind() EventKind
	GetTimestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	Kind        EventKind `json:"kind"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetKind() EventKind      { return e.Kind }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
