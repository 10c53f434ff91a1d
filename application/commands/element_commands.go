package commands

import (
	"ontoview/domain/core/aggregates"
	"ontoview/domain/core/entities"
	"ontoview/domain/core/valueobjects"
	pkgerrors "ontoview/pkg/errors"
)

// AddElement inserts a new element described by a snapshot
type AddElement struct {
	element entities.ElementSnapshot
}

// NewAddElement creates the command from an element snapshot
func NewAddElement(element entities.ElementSnapshot) *AddElement {
	return &AddElement{element: element}
}

// Name implements Command
func (c *AddElement) Name() string { return "AddElement" }

// Apply implements Command
func (c *AddElement) Apply(diagram *aggregates.Diagram) error {
	element, err := entities.RestoreElement(c.element)
	if err != nil {
		return err
	}
	return diagram.AddElement(element)
}

// Invert implements Command
func (c *AddElement) Invert() Command {
	return &RemoveElement{element: c.element}
}

// RemoveElement removes an element together with its incident links.
// The element state and cascade victims are captured at construction so the
// inverse can restore them.
type RemoveElement struct {
	element entities.ElementSnapshot
	links   []entities.LinkSnapshot
}

// NewRemoveElement captures the element's current state from the diagram
func NewRemoveElement(diagram *aggregates.Diagram, id valueobjects.ElementID) (*RemoveElement, error) {
	element, ok := diagram.Element(id)
	if !ok {
		return nil, pkgerrors.NewNotFoundError("element", id.String())
	}
	incident := diagram.LinksOf(id)
	links := make([]entities.LinkSnapshot, 0, len(incident))
	for _, link := range incident {
		links = append(links, link.Snapshot())
	}
	return &RemoveElement{element: element.Snapshot(), links: links}, nil
}

// Name implements Command
func (c *RemoveElement) Name() string { return "RemoveElement" }

// Apply implements Command
func (c *RemoveElement) Apply(diagram *aggregates.Diagram) error {
	return diagram.RemoveElement(c.element.ID)
}

// Invert implements Command
func (c *RemoveElement) Invert() Command {
	return &restoreElement{element: c.element, links: c.links}
}

// restoreElement re-adds a removed element and its cascaded links
type restoreElement struct {
	element entities.ElementSnapshot
	links   []entities.LinkSnapshot
}

func (c *restoreElement) Name() string { return "RestoreElement" }

func (c *restoreElement) Apply(diagram *aggregates.Diagram) error {
	element, err := entities.RestoreElement(c.element)
	if err != nil {
		return err
	}
	if err := diagram.AddElement(element); err != nil {
		return err
	}
	for _, snapshot := range c.links {
		link, err := entities.RestoreLink(snapshot)
		if err != nil {
			return err
		}
		if err := diagram.AddLink(link); err != nil {
			return err
		}
	}
	return nil
}

func (c *restoreElement) Invert() Command {
	return &RemoveElement{element: c.element, links: c.links}
}

// MoveElement changes an element's position
type MoveElement struct {
	id   valueobjects.ElementID
	from valueobjects.Position
	to   valueobjects.Position
}

// NewMoveElement captures the element's current position as the undo target
func NewMoveElement(diagram *aggregates.Diagram, id valueobjects.ElementID, to valueobjects.Position) (*MoveElement, error) {
	element, ok := diagram.Element(id)
	if !ok {
		return nil, pkgerrors.NewNotFoundError("element", id.String())
	}
	return &MoveElement{id: id, from: element.Position(), to: to}, nil
}

// NewMoveElementBetween creates a move with an explicit origin; used by the
// layout coordinator which captures geometry in its snapshot
func NewMoveElementBetween(id valueobjects.ElementID, from, to valueobjects.Position) *MoveElement {
	return &MoveElement{id: id, from: from, to: to}
}

// Name implements Command
func (c *MoveElement) Name() string { return "MoveElement" }

// Apply implements Command
func (c *MoveElement) Apply(diagram *aggregates.Diagram) error {
	return diagram.SetElementPosition(c.id, c.to)
}

// Invert implements Command
func (c *MoveElement) Invert() Command {
	return &MoveElement{id: c.id, from: c.to, to: c.from}
}

// SetElementData replaces an element's entity data
type SetElementData struct {
	id      valueobjects.ElementID
	oldData entities.ElementData
	newData entities.ElementData
	merge   bool
}

// NewSetElementData captures the current data as the undo target
func NewSetElementData(diagram *aggregates.Diagram, id valueobjects.ElementID, data entities.ElementData) (*SetElementData, error) {
	element, ok := diagram.Element(id)
	if !ok {
		return nil, pkgerrors.NewNotFoundError("element", id.String())
	}
	return &SetElementData{id: id, oldData: element.Data(), newData: data.Clone()}, nil
}

// NewMergeElementData is the hydration variant: the forward effect merges
// provider metadata into the existing data instead of replacing it
func NewMergeElementData(diagram *aggregates.Diagram, id valueobjects.ElementID, data entities.ElementData) (*SetElementData, error) {
	element, ok := diagram.Element(id)
	if !ok {
		return nil, pkgerrors.NewNotFoundError("element", id.String())
	}
	return &SetElementData{id: id, oldData: element.Data(), newData: data.Clone(), merge: true}, nil
}

// Name implements Command
func (c *SetElementData) Name() string {
	if c.merge {
		return "MergeElementData"
	}
	return "SetElementData"
}

// Apply implements Command
func (c *SetElementData) Apply(diagram *aggregates.Diagram) error {
	if c.merge {
		return diagram.MergeElementData(c.id, c.newData)
	}
	return diagram.SetElementData(c.id, c.newData)
}

// Invert implements Command
func (c *SetElementData) Invert() Command {
	// The inverse always replaces: a merge cannot be un-merged field by
	// field, so the captured pre-merge data is restored wholesale.
	return &SetElementData{id: c.id, oldData: c.newData, newData: c.oldData}
}

// SetElementExpanded flips the expanded/collapsed display flag
type SetElementExpanded struct {
	id       valueobjects.ElementID
	from, to bool
}

// NewSetElementExpanded captures the current flag as the undo target
func NewSetElementExpanded(diagram *aggregates.Diagram, id valueobjects.ElementID, expanded bool) (*SetElementExpanded, error) {
	element, ok := diagram.Element(id)
	if !ok {
		return nil, pkgerrors.NewNotFoundError("element", id.String())
	}
	return &SetElementExpanded{id: id, from: element.Expanded(), to: expanded}, nil
}

// Name implements Command
func (c *SetElementExpanded) Name() string { return "SetElementExpanded" }

// Apply implements Command
func (c *SetElementExpanded) Apply(diagram *aggregates.Diagram) error {
	return diagram.SetElementExpanded(c.id, c.to)
}

// Invert implements Command
func (c *SetElementExpanded) Invert() Command {
	return &SetElementExpanded{id: c.id, from: c.to, to: c.from}
}
