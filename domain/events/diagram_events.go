package events

import (
	"time"

	"ontoview/domain/core/entities"
	"ontoview/domain/core/valueobjects"
)

// ElementField names the element field an ElementChanged event refers to
type ElementField string

const (
	FieldPosition ElementField = "position"
	FieldData     ElementField = "data"
	FieldExpanded ElementField = "expanded"
	FieldSize     ElementField = "size"
)

// ElementAdded is raised when an element is inserted into the diagram
type ElementAdded struct {
	BaseEvent
	Element entities.ElementSnapshot `json:"element"`
}

// NewElementAdded creates an ElementAdded event
func NewElementAdded(diagramID string, element entities.ElementSnapshot, timestamp time.Time) ElementAdded {
	return ElementAdded{
		BaseEvent: BaseEvent{AggregateID: diagramID, Kind: KindElementAdded, Timestamp: timestamp},
		Element:   element,
	}
}

// ElementRemoved is raised when an element is removed from the diagram
type ElementRemoved struct {
	BaseEvent
	Element entities.ElementSnapshot `json:"element"`
}

// NewElementRemoved creates an ElementRemoved event
func NewElementRemoved(diagramID string, element entities.ElementSnapshot, timestamp time.Time) ElementRemoved {
	return ElementRemoved{
		BaseEvent: BaseEvent{AggregateID: diagramID, Kind: KindElementRemoved, Timestamp: timestamp},
		Element:   element,
	}
}

// ElementChanged is raised when one element field changes. It is scoped to a
// single field and carries the old and new value so observers can diff or
// revert without re-reading the diagram.
type ElementChanged struct {
	BaseEvent
	ElementID valueobjects.ElementID `json:"element_id"`
	Field     ElementField           `json:"field"`
	OldValue  interface{}            `json:"old_value"`
	NewValue  interface{}            `json:"new_value"`
}

// NewElementChanged creates an ElementChanged event
func NewElementChanged(diagramID string, elementID valueobjects.ElementID, field ElementField, oldValue, newValue interface{}, timestamp time.Time) ElementChanged {
	return ElementChanged{
		BaseEvent: BaseEvent{AggregateID: diagramID, Kind: KindElementChanged, Timestamp: timestamp},
		ElementID: elementID,
		Field:     field,
		OldValue:  oldValue,
		NewValue:  newValue,
	}
}

// LinkAdded is raised when a link is inserted into the diagram
type LinkAdded struct {
	BaseEvent
	Link entities.LinkSnapshot `json:"link"`
}

// NewLinkAdded creates a LinkAdded event
func NewLinkAdded(diagramID string, link entities.LinkSnapshot, timestamp time.Time) LinkAdded {
	return LinkAdded{
		BaseEvent: BaseEvent{AggregateID: diagramID, Kind: KindLinkAdded, Timestamp: timestamp},
		Link:      link,
	}
}

// LinkRemoved is raised when a link is removed, either explicitly or as part
// of an element removal cascade
type LinkRemoved struct {
	BaseEvent
	Link      entities.LinkSnapshot `json:"link"`
	Cascaded  bool                  `json:"cascaded"`
}

// NewLinkRemoved creates a LinkRemoved event
func NewLinkRemoved(diagramID string, link entities.LinkSnapshot, cascaded bool, timestamp time.Time) LinkRemoved {
	return LinkRemoved{
		BaseEvent: BaseEvent{AggregateID: diagramID, Kind: KindLinkRemoved, Timestamp: timestamp},
		Link:      link,
		Cascaded:  cascaded,
	}
}

// LinkChanged is raised when a link's vertices or metadata change
type LinkChanged struct {
	BaseEvent
	LinkID      valueobjects.LinkID       `json:"link_id"`
	OldVertices []valueobjects.Position   `json:"old_vertices"`
	NewVertices []valueobjects.Position   `json:"new_vertices"`
}

// NewLinkChanged creates a LinkChanged event
func NewLinkChanged(diagramID string, linkID valueobjects.LinkID, oldVertices, newVertices []valueobjects.Position, timestamp time.Time) LinkChanged {
	return LinkChanged{
		BaseEvent:   BaseEvent{AggregateID: diagramID, Kind: KindLinkChanged, Timestamp: timestamp},
		LinkID:      linkID,
		OldVertices: oldVertices,
		NewVertices: newVertices,
	}
}

// HistoryAction names the stack transition a HistoryChanged event reports
type HistoryAction string

const (
	HistoryExecuted HistoryAction = "executed"
	HistoryUndone   HistoryAction = "undone"
	HistoryRedone   HistoryAction = "redone"
)

// HistoryChanged is raised after every undo/redo stack transition
type HistoryChanged struct {
	BaseEvent
	Action    HistoryAction `json:"action"`
	Command   string        `json:"command"`
	UndoDepth int           `json:"undo_depth"`
	RedoDepth int           `json:"redo_depth"`
}

// NewHistoryChanged creates a HistoryChanged event
func NewHistoryChanged(diagramID string, action HistoryAction, command string, undoDepth, redoDepth int, timestamp time.Time) HistoryChanged {
	return HistoryChanged{
		BaseEvent: BaseEvent{AggregateID: diagramID, Kind: KindHistoryChanged, Timestamp: timestamp},
		Action:    action,
		Command:   command,
		UndoDepth: undoDepth,
		RedoDepth: redoDepth,
	}
}
