package commands

import (
	"ontoview/domain/core/aggregates"
	"ontoview/domain/core/entities"
	"ontoview/domain/core/valueobjects"
	pkgerrors "ontoview/pkg/errors"
)

// AddLink inserts a new link described by a snapshot
type AddLink struct {
	link entities.LinkSnapshot
}

// NewAddLink creates the command from a link snapshot
func NewAddLink(link entities.LinkSnapshot) *AddLink {
	return &AddLink{link: link}
}

// Name implements Command
func (c *AddLink) Name() string { return "AddLink" }

// Apply implements Command
func (c *AddLink) Apply(diagram *aggregates.Diagram) error {
	link, err := entities.RestoreLink(c.link)
	if err != nil {
		return err
	}
	return diagram.AddLink(link)
}

// Invert implements Command
func (c *AddLink) Invert() Command {
	return &RemoveLink{link: c.link}
}

// RemoveLink removes a single link; its state is captured for the inverse
type RemoveLink struct {
	link entities.LinkSnapshot
}

// NewRemoveLink captures the link's current state from the diagram
func NewRemoveLink(diagram *aggregates.Diagram, id valueobjects.LinkID) (*RemoveLink, error) {
	link, ok := diagram.Link(id)
	if !ok {
		return nil, pkgerrors.NewNotFoundError("link", id.String())
	}
	return &RemoveLink{link: link.Snapshot()}, nil
}

// Name implements Command
func (c *RemoveLink) Name() string { return "RemoveLink" }

// Apply implements Command
func (c *RemoveLink) Apply(diagram *aggregates.Diagram) error {
	return diagram.RemoveLink(c.link.ID)
}

// Invert implements Command
func (c *RemoveLink) Invert() Command {
	return &AddLink{link: c.link}
}

// SetLinkVertices replaces a link's manual routing points
type SetLinkVertices struct {
	id   valueobjects.LinkID
	from []valueobjects.Position
	to   []valueobjects.Position
}

// NewSetLinkVertices captures the current vertices as the undo target
func NewSetLinkVertices(diagram *aggregates.Diagram, id valueobjects.LinkID, vertices []valueobjects.Position) (*SetLinkVertices, error) {
	link, ok := diagram.Link(id)
	if !ok {
		return nil, pkgerrors.NewNotFoundError("link", id.String())
	}
	to := make([]valueobjects.Position, len(vertices))
	copy(to, vertices)
	return &SetLinkVertices{id: id, from: link.Vertices(), to: to}, nil
}

// Name implements Command
func (c *SetLinkVertices) Name() string { return "SetLinkVertices" }

// Apply implements Command
func (c *SetLinkVertices) Apply(diagram *aggregates.Diagram) error {
	return diagram.SetLinkVertices(c.id, c.to)
}

// Invert implements Command
func (c *SetLinkVertices) Invert() Command {
	return &SetLinkVertices{id: c.id, from: c.to, to: c.from}
}
