package aggregates

import (
	"time"

	"github.com/google/uuid"

	"ontoview/domain/core/entities"
	"ontoview/domain/core/valueobjects"
	"ontoview/domain/events"
	pkgerrors "ontoview/pkg/errors"
)

// DiagramID represents a unique diagram identifier
type DiagramID string

// NewDiagramID creates a new random DiagramID
func NewDiagramID() DiagramID {
	return DiagramID(uuid.New().String())
}

// String returns the string representation
func (id DiagramID) String() string {
	return string(id)
}

// Diagram is the aggregate root: the authoritative in-memory graph of
// elements and links. It enforces the structural invariants (unique
// identities, no dangling link endpoints) and announces every mutation on
// the event bus before the mutating call returns.
//
// Mutation methods are synchronous and never block. They are meant to be
// called only from command application inside the history engine; calling
// them directly bypasses undo consistency.
type Diagram struct {
	id   DiagramID
	name string

	elements     map[valueobjects.ElementID]*entities.Element
	elementOrder []valueobjects.ElementID
	links        map[valueobjects.LinkID]*entities.Link
	linkOrder    []valueobjects.LinkID

	bus       *events.Bus
	createdAt time.Time
	updatedAt time.Time
	version   int
}

// NewDiagram creates an empty diagram publishing to the given bus.
// A nil bus is allowed; events are then dropped.
func NewDiagram(name string, bus *events.Bus) *Diagram {
	now := time.Now()
	return &Diagram{
		id:        NewDiagramID(),
		name:      name,
		elements:  make(map[valueobjects.ElementID]*entities.Element),
		links:     make(map[valueobjects.LinkID]*entities.Link),
		bus:       bus,
		createdAt: now,
		updatedAt: now,
		version:   1,
	}
}

// ID returns the diagram's unique identifier
func (d *Diagram) ID() DiagramID { return d.id }

// Name returns the diagram's name
func (d *Diagram) Name() string { return d.name }

// Version returns the mutation counter
func (d *Diagram) Version() int { return d.version }

// CreatedAt returns when the diagram was created
func (d *Diagram) CreatedAt() time.Time { return d.createdAt }

// UpdatedAt returns when the diagram was last mutated
func (d *Diagram) UpdatedAt() time.Time { return d.updatedAt }

// Element returns the element with the given identity
func (d *Diagram) Element(id valueobjects.ElementID) (*entities.Element, bool) {
	el, ok := d.elements[id]
	return el, ok
}

// Link returns the link with the given identity
func (d *Diagram) Link(id valueobjects.LinkID) (*entities.Link, bool) {
	link, ok := d.links[id]
	return link, ok
}

// HasElement checks element existence without error
func (d *Diagram) HasElement(id valueobjects.ElementID) bool {
	_, ok := d.elements[id]
	return ok
}

// Elements returns all elements in insertion order
func (d *Diagram) Elements() []*entities.Element {
	out := make([]*entities.Element, 0, len(d.elementOrder))
	for _, id := range d.elementOrder {
		out = append(out, d.elements[id])
	}
	return out
}

// Links returns all links in insertion order
func (d *Diagram) Links() []*entities.Link {
	out := make([]*entities.Link, 0, len(d.linkOrder))
	for _, id := range d.linkOrder {
		out = append(out, d.links[id])
	}
	return out
}

// LinksOf returns every link incident to the element, in insertion order
func (d *Diagram) LinksOf(id valueobjects.ElementID) []*entities.Link {
	var out []*entities.Link
	for _, linkID := range d.linkOrder {
		if link := d.links[linkID]; link.Touches(id) {
			out = append(out, link)
		}
	}
	return out
}

// ElementCount returns the number of elements
func (d *Diagram) ElementCount() int { return len(d.elements) }

// LinkCount returns the number of links
func (d *Diagram) LinkCount() int { return len(d.links) }

// AddElement inserts a new element
func (d *Diagram) AddElement(element *entities.Element) error {
	if element == nil {
		return pkgerrors.NewValidationError("element cannot be nil")
	}
	id := element.ID()
	if _, exists := d.elements[id]; exists {
		return pkgerrors.NewDuplicateIdentityError("element", id.String())
	}

	d.elements[id] = element
	d.elementOrder = append(d.elementOrder, id)
	d.touch()

	d.publish(events.NewElementAdded(d.id.String(), element.Snapshot(), d.updatedAt))
	return nil
}

// RemoveElement removes an element and, atomically, every link incident to
// it. ElementRemoved is emitted first, then one LinkRemoved per cascade
// victim in link insertion order.
func (d *Diagram) RemoveElement(id valueobjects.ElementID) error {
	element, exists := d.elements[id]
	if !exists {
		return pkgerrors.NewNotFoundError("element", id.String())
	}

	victims := d.LinksOf(id)

	delete(d.elements, id)
	d.elementOrder = removeElementID(d.elementOrder, id)
	victimSnapshots := make([]entities.LinkSnapshot, 0, len(victims))
	for _, link := range victims {
		victimSnapshots = append(victimSnapshots, link.Snapshot())
		delete(d.links, link.ID())
		d.linkOrder = removeLinkID(d.linkOrder, link.ID())
	}
	d.touch()

	d.publish(events.NewElementRemoved(d.id.String(), element.Snapshot(), d.updatedAt))
	for _, snapshot := range victimSnapshots {
		d.publish(events.NewLinkRemoved(d.id.String(), snapshot, true, d.updatedAt))
	}
	return nil
}

// SetElementPosition moves an element
func (d *Diagram) SetElementPosition(id valueobjects.ElementID, position valueobjects.Position) error {
	element, exists := d.elements[id]
	if !exists {
		return pkgerrors.NewNotFoundError("element", id.String())
	}

	old := element.Position()
	element.MoveTo(position)
	d.touch()

	d.publish(events.NewElementChanged(d.id.String(), id, events.FieldPosition, old, position, d.updatedAt))
	return nil
}

// SetElementSize records an element's measured size
func (d *Diagram) SetElementSize(id valueobjects.ElementID, size valueobjects.Size) error {
	element, exists := d.elements[id]
	if !exists {
		return pkgerrors.NewNotFoundError("element", id.String())
	}

	old := element.Size()
	element.Resize(size)
	d.touch()

	d.publish(events.NewElementChanged(d.id.String(), id, events.FieldSize, old, size, d.updatedAt))
	return nil
}

// SetElementData replaces an element's entity data
func (d *Diagram) SetElementData(id valueobjects.ElementID, data entities.ElementData) error {
	element, exists := d.elements[id]
	if !exists {
		return pkgerrors.NewNotFoundError("element", id.String())
	}

	old := element.Data()
	element.SetData(data)
	d.touch()

	d.publish(events.NewElementChanged(d.id.String(), id, events.FieldData, old, element.Data(), d.updatedAt))
	return nil
}

// MergeElementData folds provider metadata into an element's data
func (d *Diagram) MergeElementData(id valueobjects.ElementID, data entities.ElementData) error {
	element, exists := d.elements[id]
	if !exists {
		return pkgerrors.NewNotFoundError("element", id.String())
	}

	old := element.Data()
	element.MergeData(data)
	d.touch()

	d.publish(events.NewElementChanged(d.id.String(), id, events.FieldData, old, element.Data(), d.updatedAt))
	return nil
}

// SetElementExpanded flips the expanded/collapsed display flag
func (d *Diagram) SetElementExpanded(id valueobjects.ElementID, expanded bool) error {
	element, exists := d.elements[id]
	if !exists {
		return pkgerrors.NewNotFoundError("element", id.String())
	}

	old := element.Expanded()
	element.SetExpanded(expanded)
	d.touch()

	d.publish(events.NewElementChanged(d.id.String(), id, events.FieldExpanded, old, expanded, d.updatedAt))
	return nil
}

// AddLink inserts a new link. Both endpoints must already be present.
func (d *Diagram) AddLink(link *entities.Link) error {
	if link == nil {
		return pkgerrors.NewValidationError("link cannot be nil")
	}
	if _, exists := d.links[link.ID()]; exists {
		return pkgerrors.NewDuplicateIdentityError("link", link.ID().String())
	}
	if !d.HasElement(link.SourceID()) {
		return pkgerrors.NewDanglingEndpointError(link.ID().String(), link.SourceID().String())
	}
	if !d.HasElement(link.TargetID()) {
		return pkgerrors.NewDanglingEndpointError(link.ID().String(), link.TargetID().String())
	}

	d.links[link.ID()] = link
	d.linkOrder = append(d.linkOrder, link.ID())
	d.touch()

	d.publish(events.NewLinkAdded(d.id.String(), link.Snapshot(), d.updatedAt))
	return nil
}

// RemoveLink removes a single link
func (d *Diagram) RemoveLink(id valueobjects.LinkID) error {
	link, exists := d.links[id]
	if !exists {
		return pkgerrors.NewNotFoundError("link", id.String())
	}

	snapshot := link.Snapshot()
	delete(d.links, id)
	d.linkOrder = removeLinkID(d.linkOrder, id)
	d.touch()

	d.publish(events.NewLinkRemoved(d.id.String(), snapshot, false, d.updatedAt))
	return nil
}

// SetLinkVertices replaces a link's manual routing points
func (d *Diagram) SetLinkVertices(id valueobjects.LinkID, vertices []valueobjects.Position) error {
	link, exists := d.links[id]
	if !exists {
		return pkgerrors.NewNotFoundError("link", id.String())
	}

	old := link.Vertices()
	link.SetVertices(vertices)
	d.touch()

	d.publish(events.NewLinkChanged(d.id.String(), id, old, link.Vertices(), d.updatedAt))
	return nil
}

// Validate ensures diagram invariants
func (d *Diagram) Validate() error {
	for _, link := range d.links {
		if !d.HasElement(link.SourceID()) {
			return pkgerrors.NewDanglingEndpointError(link.ID().String(), link.SourceID().String())
		}
		if !d.HasElement(link.TargetID()) {
			return pkgerrors.NewDanglingEndpointError(link.ID().String(), link.TargetID().String())
		}
	}
	if len(d.elements) != len(d.elementOrder) {
		return pkgerrors.NewInternalError("element order out of sync")
	}
	if len(d.links) != len(d.linkOrder) {
		return pkgerrors.NewInternalError("link order out of sync")
	}
	return nil
}

// PublishHistoryChanged lets the history engine announce stack transitions
// on the diagram's bus
func (d *Diagram) PublishHistoryChanged(action events.HistoryAction, command string, undoDepth, redoDepth int) {
	d.publish(events.NewHistoryChanged(d.id.String(), action, command, undoDepth, redoDepth, time.Now()))
}

func (d *Diagram) touch() {
	d.updatedAt = time.Now()
	d.version++
}

func (d *Diagram) publish(event events.DomainEvent) {
	if d.bus != nil {
		d.bus.Publish(event)
	}
}

func removeElementID(ids []valueobjects.ElementID, id valueobjects.ElementID) []valueobjects.ElementID {
	for i, candidate := range ids {
		if candidate.Equals(id) {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}

func removeLinkID(ids []valueobjects.LinkID, id valueobjects.LinkID) []valueobjects.LinkID {
	for i, candidate := range ids {
		if candidate.Equals(id) {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}
