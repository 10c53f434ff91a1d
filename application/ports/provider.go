package ports

import (
	"context"

	"ontoview/domain/core/entities"
	"ontoview/domain/core/valueobjects"
	"ontoview/domain/events"
)

// LinkDescriptor describes a link known to a data provider. Descriptors are
// identity-complete, so merging the same descriptor from two calls is
// idempotent.
type LinkDescriptor struct {
	ID       valueobjects.LinkID    `json:"id"`
	SourceID valueobjects.ElementID `json:"source_id"`
	TargetID valueobjects.ElementID `json:"target_id"`
	TypeIRI  string                 `json:"type"`
}

// DataProvider resolves graph data for a set of identities from a remote or
// local source. A provider owns no diagram state.
//
// Both operations may return fewer entries than requested: unknown ids are
// silently omitted, not an error. Implementations must be safe to invoke
// concurrently with overlapping identity sets. Failures are reported as
// provider errors (pkg/errors, ErrorTypeProvider).
type DataProvider interface {
	// FetchElementData resolves entity metadata for the given identities
	FetchElementData(ctx context.Context, ids []valueobjects.ElementID) (map[valueobjects.ElementID]entities.ElementData, error)

	// FetchLinks returns every known link whose source or target is in the
	// given identity set
	FetchLinks(ctx context.Context, ids []valueobjects.ElementID) ([]LinkDescriptor, error)
}

// EventPublisher forwards diagram events to an external system. A nil or
// disabled publisher drops events.
type EventPublisher interface {
	Publish(ctx context.Context, event events.DomainEvent) error
}
