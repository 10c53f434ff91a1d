package services

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"ontoview/application/commands"
	"ontoview/application/history"
	"ontoview/application/layout"
	"ontoview/application/provider"
	"ontoview/domain/config"
	"ontoview/domain/core/aggregates"
	"ontoview/domain/core/entities"
	"ontoview/domain/core/valueobjects"
	"ontoview/domain/versioning"
	pkgerrors "ontoview/pkg/errors"
	"ontoview/pkg/observability"
)

// DiagramService is the single entry point for mutating a diagram. Every
// mutation goes through the history engine so it can be undone; reads take
// the shared lock so provider hydration and layout never observe a
// half-applied change.
//
// The service also implements layout.Gateway, which lets the layout
// coordinator snapshot geometry and apply results under the same lock.
type DiagramService struct {
	mu      sync.RWMutex
	diagram *aggregates.Diagram
	history *history.History
	cache   *provider.Cache
	cfg     config.DomainConfig
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewDiagramService creates a service over an existing diagram and history
func NewDiagramService(
	diagram *aggregates.Diagram,
	hist *history.History,
	cache *provider.Cache,
	cfg config.DomainConfig,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *DiagramService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiagramService{
		diagram: diagram,
		history: hist,
		cache:   cache,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
}

// Diagram exposes the underlying aggregate for single-goroutine use such as
// tests; concurrent readers use the snapshot accessors, which take the lock
func (s *DiagramService) Diagram() *aggregates.Diagram { return s.diagram }

// ElementSnapshots returns a copy of every element in insertion order
func (s *DiagramService) ElementSnapshots() []entities.ElementSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	elements := s.diagram.Elements()
	snapshots := make([]entities.ElementSnapshot, 0, len(elements))
	for _, element := range elements {
		snapshots = append(snapshots, element.Snapshot())
	}
	return snapshots
}

// ElementSnapshot returns a copy of one element's observable state
func (s *DiagramService) ElementSnapshot(id valueobjects.ElementID) (entities.ElementSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	element, ok := s.diagram.Element(id)
	if !ok {
		return entities.ElementSnapshot{}, false
	}
	return element.Snapshot(), true
}

// LinkSnapshots returns a copy of every link in insertion order
func (s *DiagramService) LinkSnapshots() []entities.LinkSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	links := s.diagram.Links()
	snapshots := make([]entities.LinkSnapshot, 0, len(links))
	for _, link := range links {
		snapshots = append(snapshots, link.Snapshot())
	}
	return snapshots
}

// SetConfig swaps the business-rule configuration. Limits and link policy
// are checked per operation, so the new values govern the next call.
func (s *DiagramService) SetConfig(cfg config.DomainConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}

// AddElement places a new placeholder element on the diagram
func (s *DiagramService) AddElement(id valueobjects.ElementID, position valueobjects.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.MaxElementsPerDiagram > 0 && s.diagram.ElementCount() >= s.cfg.MaxElementsPerDiagram {
		return pkgerrors.NewValidationError("diagram element limit reached")
	}

	element, err := entities.NewElement(id, position)
	if err != nil {
		return err
	}
	return s.execute(commands.NewAddElement(element.Snapshot()))
}

// AddVirtualElement places an element that exists only on the diagram, with
// no backing entity in any data source
func (s *DiagramService) AddVirtualElement(id valueobjects.ElementID, label string, position valueobjects.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.MaxElementsPerDiagram > 0 && s.diagram.ElementCount() >= s.cfg.MaxElementsPerDiagram {
		return pkgerrors.NewValidationError("diagram element limit reached")
	}

	element, err := entities.NewVirtualElement(id, label, position)
	if err != nil {
		return err
	}
	return s.execute(commands.NewAddElement(element.Snapshot()))
}

// RemoveElement removes an element and cascades over its incident links as
// a single undoable step
func (s *DiagramService) RemoveElement(id valueobjects.ElementID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmd, err := commands.NewRemoveElement(s.diagram, id)
	if err != nil {
		return err
	}
	return s.execute(cmd)
}

// MoveElement repositions an element
func (s *DiagramService) MoveElement(id valueobjects.ElementID, to valueobjects.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmd, err := commands.NewMoveElement(s.diagram, id, to)
	if err != nil {
		return err
	}
	return s.execute(cmd)
}

// ResizeElement records an element's measured size. Size is a rendering
// artifact, so the change bypasses the history stack.
func (s *DiagramService) ResizeElement(id valueobjects.ElementID, size valueobjects.Size) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.diagram.SetElementSize(id, size)
}

// SetElementExpanded flips an element's expanded flag
func (s *DiagramService) SetElementExpanded(id valueobjects.ElementID, expanded bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmd, err := commands.NewSetElementExpanded(s.diagram, id, expanded)
	if err != nil {
		return err
	}
	return s.execute(cmd)
}

// SetElementData replaces an element's entity data wholesale
func (s *DiagramService) SetElementData(id valueobjects.ElementID, data entities.ElementData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmd, err := commands.NewSetElementData(s.diagram, id, data)
	if err != nil {
		return err
	}
	return s.execute(cmd)
}

// AddLink connects two elements already present on the diagram
func (s *DiagramService) AddLink(id valueobjects.LinkID, sourceID, targetID valueobjects.ElementID, typeIRI string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.MaxLinksPerDiagram > 0 && s.diagram.LinkCount() >= s.cfg.MaxLinksPerDiagram {
		return pkgerrors.NewValidationError("diagram link limit reached")
	}
	if !s.cfg.AllowSelfLinks && sourceID.Equals(targetID) {
		return pkgerrors.NewValidationError("self links are disabled")
	}
	if !s.cfg.AllowDuplicateLinks && s.hasParallelLink(sourceID, targetID, typeIRI) {
		return pkgerrors.NewDuplicateIdentityError("link", sourceID.String()+"->"+targetID.String())
	}

	link, err := entities.NewLink(id, sourceID, targetID, typeIRI)
	if err != nil {
		return err
	}
	return s.execute(commands.NewAddLink(link.Snapshot()))
}

// RemoveLink removes a single link
func (s *DiagramService) RemoveLink(id valueobjects.LinkID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmd, err := commands.NewRemoveLink(s.diagram, id)
	if err != nil {
		return err
	}
	return s.execute(cmd)
}

// SetLinkVertices replaces a link's manual routing points
func (s *DiagramService) SetLinkVertices(id valueobjects.LinkID, vertices []valueobjects.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmd, err := commands.NewSetLinkVertices(s.diagram, id, vertices)
	if err != nil {
		return err
	}
	return s.execute(cmd)
}

// Undo reverts the most recent command. No-op on an empty stack.
func (s *DiagramService) Undo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Undo()
}

// Redo re-applies the most recently undone command. No-op on an empty stack.
func (s *DiagramService) Redo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Redo()
}

// HistoryState reports both stack depths and named entries, newest first
func (s *DiagramService) HistoryState() (undo, redo []history.Entry) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.UndoEntries(), s.history.RedoEntries()
}

// RequestElementData hydrates placeholder elements with provider data. The
// fetch runs outside the diagram lock; results land as one grouped, undoable
// merge. Identities the provider does not know stay placeholders, and
// elements removed during the fetch are skipped.
func (s *DiagramService) RequestElementData(ctx context.Context, ids []valueobjects.ElementID) error {
	present := s.presentIDs(ids)
	if len(present) == 0 {
		return nil
	}

	data, err := s.cache.Get(ctx, present)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merges := make([]commands.Command, 0, len(data))
	for _, id := range present {
		elementData, found := data[id]
		if !found || !s.diagram.HasElement(id) {
			continue
		}
		cmd, err := commands.NewMergeElementData(s.diagram, id, elementData)
		if err != nil {
			continue
		}
		merges = append(merges, cmd)
	}
	if len(merges) == 0 {
		return nil
	}
	return s.execute(commands.NewComposite("Load entity data", merges...))
}

// LoadLinks fetches every link touching the given identities and adds the
// ones whose both endpoints are on the diagram, as one undoable step. Links
// already present are skipped.
func (s *DiagramService) LoadLinks(ctx context.Context, ids []valueobjects.ElementID) (int, error) {
	present := s.presentIDs(ids)
	if len(present) == 0 {
		return 0, nil
	}

	descriptors, err := s.cache.Links(ctx, present)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	adds := make([]commands.Command, 0, len(descriptors))
	for _, desc := range descriptors {
		if _, exists := s.diagram.Link(desc.ID); exists {
			continue
		}
		if !s.diagram.HasElement(desc.SourceID) || !s.diagram.HasElement(desc.TargetID) {
			continue
		}
		if !s.cfg.AllowDuplicateLinks && s.hasParallelLink(desc.SourceID, desc.TargetID, desc.TypeIRI) {
			continue
		}
		link, err := entities.NewLink(desc.ID, desc.SourceID, desc.TargetID, desc.TypeIRI)
		if err != nil {
			s.logger.Warn("skipping malformed link descriptor",
				zap.String("link_id", desc.ID.String()),
				zap.Error(err),
			)
			continue
		}
		adds = append(adds, commands.NewAddLink(link.Snapshot()))
	}
	if len(adds) == 0 {
		return 0, nil
	}
	if err := s.execute(commands.NewComposite("Load links", adds...)); err != nil {
		return 0, err
	}
	return len(adds), nil
}

// Invalidate drops cached provider data for the given identities
func (s *DiagramService) Invalidate(ids []valueobjects.ElementID) {
	s.cache.Invalidate(ids)
}

// Snapshot returns current geometry and the induced link topology for the
// given identities. Missing identities are dropped. Part of layout.Gateway.
func (s *DiagramService) Snapshot(ids []valueobjects.ElementID) ([]layout.ElementGeometry, []layout.LinkTopology) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	included := make(map[valueobjects.ElementID]bool, len(ids))
	geometry := make([]layout.ElementGeometry, 0, len(ids))
	for _, id := range ids {
		element, ok := s.diagram.Element(id)
		if !ok || included[id] {
			continue
		}
		included[id] = true
		geometry = append(geometry, layout.ElementGeometry{
			ID:       id,
			Position: element.Position(),
			Size:     element.Size(),
		})
	}

	var topology []layout.LinkTopology
	for _, link := range s.diagram.Links() {
		if included[link.SourceID()] && included[link.TargetID()] {
			topology = append(topology, layout.LinkTopology{
				SourceID: link.SourceID(),
				TargetID: link.TargetID(),
			})
		}
	}
	return geometry, topology
}

// ApplyPositions lands a computed layout as one grouped, undoable move.
// Elements removed while the layout was computing are skipped. Part of
// layout.Gateway.
func (s *DiagramService) ApplyPositions(label string, positions map[valueobjects.ElementID]valueobjects.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	moves := make([]commands.Command, 0, len(positions))
	for _, element := range s.diagram.Elements() {
		to, ok := positions[element.ID()]
		if !ok || element.Position() == to {
			continue
		}
		moves = append(moves, commands.NewMoveElementBetween(element.ID(), element.Position(), to))
	}
	if len(moves) == 0 {
		return nil
	}
	return s.execute(commands.NewComposite(label, moves...))
}

// DiagramSnapshot is a complete serializable image of the diagram
type DiagramSnapshot struct {
	Version  versioning.DiagramVersion  `json:"version"`
	Elements []entities.ElementSnapshot `json:"elements"`
	Links    []entities.LinkSnapshot    `json:"links"`
}

// Export captures the whole diagram with its version stamp
func (s *DiagramService) Export() (DiagramSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	version, err := versioning.Capture(s.diagram)
	if err != nil {
		return DiagramSnapshot{}, err
	}

	elements := s.diagram.Elements()
	links := s.diagram.Links()
	snapshot := DiagramSnapshot{
		Version:  version,
		Elements: make([]entities.ElementSnapshot, 0, len(elements)),
		Links:    make([]entities.LinkSnapshot, 0, len(links)),
	}
	for _, element := range elements {
		snapshot.Elements = append(snapshot.Elements, element.Snapshot())
	}
	for _, link := range links {
		snapshot.Links = append(snapshot.Links, link.Snapshot())
	}
	return snapshot, nil
}

// execute runs a command through the history engine; the caller holds the
// write lock
func (s *DiagramService) execute(cmd commands.Command) error {
	if err := s.history.Execute(cmd); err != nil {
		return err
	}
	s.metrics.IncCommand(cmd.Name())
	return nil
}

// presentIDs filters the request down to elements currently on the diagram,
// deduplicated, preserving request order
func (s *DiagramService) presentIDs(ids []valueobjects.ElementID) []valueobjects.ElementID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[valueobjects.ElementID]bool, len(ids))
	present := make([]valueobjects.ElementID, 0, len(ids))
	for _, id := range ids {
		if seen[id] || !s.diagram.HasElement(id) {
			continue
		}
		seen[id] = true
		present = append(present, id)
	}
	return present
}

// hasParallelLink reports whether a link with the same endpoints and type
// already exists; the caller holds a lock
func (s *DiagramService) hasParallelLink(sourceID, targetID valueobjects.ElementID, typeIRI string) bool {
	for _, link := range s.diagram.LinksOf(sourceID) {
		if link.SourceID().Equals(sourceID) && link.TargetID().Equals(targetID) && link.TypeIRI() == typeIRI {
			return true
		}
	}
	return false
}
