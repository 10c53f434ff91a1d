package entities

import (
	"time"

	"ontoview/domain/core/valueobjects"
	pkgerrors "ontoview/pkg/errors"
)

// ElementKind represents how an element relates to backing entity data
type ElementKind string

const (
	// KindPlaceholder means the identity is known but data is not yet fetched
	KindPlaceholder ElementKind = "placeholder"
	// KindResolved means the element carries provider-backed data
	KindResolved ElementKind = "resolved"
	// KindVirtual means a synthetic node with no backing entity, such as a group
	KindVirtual ElementKind = "virtual"
)

// ElementData is the provider-supplied portion of an element: its semantic
// types, label, and property values
type ElementData struct {
	Types      []string                `json:"types"`
	Label      string                  `json:"label"`
	Properties valueobjects.Properties `json:"properties"`
}

// Clone returns a deep copy of the data
func (d ElementData) Clone() ElementData {
	types := make([]string, len(d.Types))
	copy(types, d.Types)
	return ElementData{
		Types:      types,
		Label:      d.Label,
		Properties: d.Properties.Clone(),
	}
}

// Element is a diagram node: either a resolved entity, a placeholder awaiting
// hydration, or a virtual grouping node. All structural mutation flows through
// the Diagram aggregate; callers must not mutate elements directly.
type Element struct {
	id        valueobjects.ElementID
	kind      ElementKind
	data      ElementData
	position  valueobjects.Position
	size      valueobjects.Size
	expanded  bool
	createdAt time.Time
	updatedAt time.Time
}

// NewElement creates a placeholder element at the given position
func NewElement(id valueobjects.ElementID, position valueobjects.Position) (*Element, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("element ID cannot be empty")
	}
	now := time.Now()
	return &Element{
		id:        id,
		kind:      KindPlaceholder,
		data:      ElementData{Properties: valueobjects.NewProperties()},
		position:  position,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// NewVirtualElement creates a synthetic element with no backing entity
func NewVirtualElement(id valueobjects.ElementID, label string, position valueobjects.Position) (*Element, error) {
	el, err := NewElement(id, position)
	if err != nil {
		return nil, err
	}
	el.kind = KindVirtual
	el.data.Label = label
	return el, nil
}

// NewResolvedElement creates an element pre-populated with entity data
func NewResolvedElement(id valueobjects.ElementID, data ElementData, position valueobjects.Position) (*Element, error) {
	el, err := NewElement(id, position)
	if err != nil {
		return nil, err
	}
	el.kind = KindResolved
	el.data = data.Clone()
	return el, nil
}

// ID returns the element identity
func (e *Element) ID() valueobjects.ElementID { return e.id }

// Kind returns the element kind
func (e *Element) Kind() ElementKind { return e.kind }

// Data returns a copy of the element's entity data
func (e *Element) Data() ElementData { return e.data.Clone() }

// Position returns the element position
func (e *Element) Position() valueobjects.Position { return e.position }

// Size returns the element's measured size, zero if unmeasured
func (e *Element) Size() valueobjects.Size { return e.size }

// Expanded returns the expanded/collapsed display flag
func (e *Element) Expanded() bool { return e.expanded }

// CreatedAt returns when the element was created
func (e *Element) CreatedAt() time.Time { return e.createdAt }

// UpdatedAt returns when the element was last mutated
func (e *Element) UpdatedAt() time.Time { return e.updatedAt }

// MoveTo updates the element position
func (e *Element) MoveTo(position valueobjects.Position) {
	e.position = position
	e.updatedAt = time.Now()
}

// Resize records the element's measured size
func (e *Element) Resize(size valueobjects.Size) {
	e.size = size
	e.updatedAt = time.Now()
}

// SetExpanded updates the display flag
func (e *Element) SetExpanded(expanded bool) {
	e.expanded = expanded
	e.updatedAt = time.Now()
}

// SetData replaces the element's entity data. A placeholder that receives
// data becomes resolved; virtual elements keep their kind.
func (e *Element) SetData(data ElementData) {
	e.data = data.Clone()
	if e.kind == KindPlaceholder {
		e.kind = KindResolved
	}
	e.updatedAt = time.Now()
}

// MergeData folds provider metadata into the existing data, replacing types
// and label and merging properties per key
func (e *Element) MergeData(data ElementData) {
	merged := e.data.Clone()
	if len(data.Types) > 0 {
		merged.Types = append([]string(nil), data.Types...)
	}
	if data.Label != "" {
		merged.Label = data.Label
	}
	merged.Properties = merged.Properties.Merge(data.Properties)
	e.SetData(merged)
}

// Snapshot captures the element's observable state for commands and export
type ElementSnapshot struct {
	ID       valueobjects.ElementID  `json:"id"`
	Kind     ElementKind             `json:"kind"`
	Data     ElementData             `json:"data"`
	Position valueobjects.Position   `json:"position"`
	Size     valueobjects.Size       `json:"size"`
	Expanded bool                    `json:"expanded"`
}

// Snapshot returns a copy of the element's observable state
func (e *Element) Snapshot() ElementSnapshot {
	return ElementSnapshot{
		ID:       e.id,
		Kind:     e.kind,
		Data:     e.data.Clone(),
		Position: e.position,
		Size:     e.size,
		Expanded: e.expanded,
	}
}

// RestoreElement reconstructs an element from a snapshot, preserving kind
func RestoreElement(snapshot ElementSnapshot) (*Element, error) {
	el, err := NewElement(snapshot.ID, snapshot.Position)
	if err != nil {
		return nil, err
	}
	el.kind = snapshot.Kind
	el.data = snapshot.Data.Clone()
	el.size = snapshot.Size
	el.expanded = snapshot.Expanded
	return el, nil
}
