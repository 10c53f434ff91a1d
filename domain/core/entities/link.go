package entities

import (
	"time"

	"ontoview/domain/core/valueobjects"
	pkgerrors "ontoview/pkg/errors"
)

// LinkMetadata carries optional per-direction annotations, keyed by
// property identifier
type LinkMetadata struct {
	Forward  map[string]string `json:"forward,omitempty"`
	Backward map[string]string `json:"backward,omitempty"`
}

// Clone returns a deep copy of the metadata
func (m LinkMetadata) Clone() LinkMetadata {
	out := LinkMetadata{}
	if m.Forward != nil {
		out.Forward = make(map[string]string, len(m.Forward))
		for k, v := range m.Forward {
			out.Forward[k] = v
		}
	}
	if m.Backward != nil {
		out.Backward = make(map[string]string, len(m.Backward))
		for k, v := range m.Backward {
			out.Backward[k] = v
		}
	}
	return out
}

// Link is a diagram edge between two elements. Links hold weak references to
// their endpoints: the Diagram aggregate guarantees both endpoints exist for
// as long as the link does.
type Link struct {
	id        valueobjects.LinkID
	sourceID  valueobjects.ElementID
	targetID  valueobjects.ElementID
	typeIRI   string
	vertices  []valueobjects.Position
	metadata  LinkMetadata
	createdAt time.Time
	updatedAt time.Time
}

// NewLink creates a link between two element identities
func NewLink(id valueobjects.LinkID, sourceID, targetID valueobjects.ElementID, typeIRI string) (*Link, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("link ID cannot be empty")
	}
	if sourceID.IsZero() || targetID.IsZero() {
		return nil, pkgerrors.NewValidationError("link endpoints cannot be empty")
	}
	now := time.Now()
	return &Link{
		id:        id,
		sourceID:  sourceID,
		targetID:  targetID,
		typeIRI:   typeIRI,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ID returns the link identity
func (l *Link) ID() valueobjects.LinkID { return l.id }

// SourceID returns the source element identity
func (l *Link) SourceID() valueobjects.ElementID { return l.sourceID }

// TargetID returns the target element identity
func (l *Link) TargetID() valueobjects.ElementID { return l.targetID }

// TypeIRI returns the link's relation type identifier
func (l *Link) TypeIRI() string { return l.typeIRI }

// Vertices returns a copy of the manual routing points, in order
func (l *Link) Vertices() []valueobjects.Position {
	out := make([]valueobjects.Position, len(l.vertices))
	copy(out, l.vertices)
	return out
}

// Metadata returns a copy of the per-direction metadata
func (l *Link) Metadata() LinkMetadata { return l.metadata.Clone() }

// CreatedAt returns when the link was created
func (l *Link) CreatedAt() time.Time { return l.createdAt }

// UpdatedAt returns when the link was last mutated
func (l *Link) UpdatedAt() time.Time { return l.updatedAt }

// Touches reports whether the link is incident to the given element
func (l *Link) Touches(id valueobjects.ElementID) bool {
	return l.sourceID.Equals(id) || l.targetID.Equals(id)
}

// SetVertices replaces the manual routing points
func (l *Link) SetVertices(vertices []valueobjects.Position) {
	l.vertices = make([]valueobjects.Position, len(vertices))
	copy(l.vertices, vertices)
	l.updatedAt = time.Now()
}

// SetMetadata replaces the per-direction metadata
func (l *Link) SetMetadata(metadata LinkMetadata) {
	l.metadata = metadata.Clone()
	l.updatedAt = time.Now()
}

// LinkSnapshot captures a link's observable state for commands and export
type LinkSnapshot struct {
	ID       valueobjects.LinkID     `json:"id"`
	SourceID valueobjects.ElementID  `json:"source_id"`
	TargetID valueobjects.ElementID  `json:"target_id"`
	TypeIRI  string                  `json:"type"`
	Vertices []valueobjects.Position `json:"vertices,omitempty"`
	Metadata LinkMetadata            `json:"metadata,omitempty"`
}

// Snapshot returns a copy of the link's observable state
func (l *Link) Snapshot() LinkSnapshot {
	return LinkSnapshot{
		ID:       l.id,
		SourceID: l.sourceID,
		TargetID: l.targetID,
		TypeIRI:  l.typeIRI,
		Vertices: l.Vertices(),
		Metadata: l.metadata.Clone(),
	}
}

// RestoreLink reconstructs a link from a snapshot
func RestoreLink(snapshot LinkSnapshot) (*Link, error) {
	link, err := NewLink(snapshot.ID, snapshot.SourceID, snapshot.TargetID, snapshot.TypeIRI)
	if err != nil {
		return nil, err
	}
	link.SetVertices(snapshot.Vertices)
	link.metadata = snapshot.Metadata.Clone()
	return link, nil
}
