package aggregates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ontoview/domain/core/entities"
	"ontoview/domain/core/valueobjects"
	"ontoview/domain/events"
	pkgerrors "ontoview/pkg/errors"
)

func elementID(t *testing.T, s string) valueobjects.ElementID {
	t.Helper()
	id, err := valueobjects.NewElementIDFromString(s)
	require.NoError(t, err)
	return id
}

func linkID(t *testing.T, s string) valueobjects.LinkID {
	t.Helper()
	id, err := valueobjects.NewLinkIDFromString(s)
	require.NoError(t, err)
	return id
}

func addElement(t *testing.T, d *Diagram, id string) valueobjects.ElementID {
	t.Helper()
	eid := elementID(t, id)
	el, err := entities.NewElement(eid, valueobjects.NewPosition(0, 0))
	require.NoError(t, err)
	require.NoError(t, d.AddElement(el))
	return eid
}

func addLink(t *testing.T, d *Diagram, id, source, target string) valueobjects.LinkID {
	t.Helper()
	lid := linkID(t, id)
	link, err := entities.NewLink(lid, elementID(t, source), elementID(t, target), "related")
	require.NoError(t, err)
	require.NoError(t, d.AddLink(link))
	return lid
}

func TestAddElementRejectsDuplicateIdentity(t *testing.T) {
	d := NewDiagram("test", nil)
	addElement(t, d, "e1")

	el, err := entities.NewElement(elementID(t, "e1"), valueobjects.NewPosition(5, 5))
	require.NoError(t, err)
	err = d.AddElement(el)

	assert.True(t, pkgerrors.IsDuplicateIdentity(err))
	assert.Equal(t, 1, d.ElementCount())
}

func TestAddLinkRejectsDanglingEndpoints(t *testing.T) {
	d := NewDiagram("test", nil)
	addElement(t, d, "e1")

	link, err := entities.NewLink(linkID(t, "l1"), elementID(t, "e1"), elementID(t, "ghost"), "related")
	require.NoError(t, err)
	err = d.AddLink(link)

	assert.True(t, pkgerrors.IsDanglingEndpoint(err))
	assert.Zero(t, d.LinkCount())
}

func TestRemoveElementCascadesIncidentLinks(t *testing.T) {
	d := NewDiagram("test", nil)
	addElement(t, d, "e1")
	addElement(t, d, "e2")
	addElement(t, d, "e3")
	addLink(t, d, "l1", "e1", "e2")
	addLink(t, d, "l2", "e2", "e3")
	addLink(t, d, "l3", "e1", "e3")

	require.NoError(t, d.RemoveElement(elementID(t, "e2")))

	assert.Equal(t, 2, d.ElementCount())
	assert.Equal(t, 1, d.LinkCount())
	_, survives := d.Link(linkID(t, "l3"))
	assert.True(t, survives)
	require.NoError(t, d.Validate())
}

func TestRemoveElementEmitsElementRemovedBeforeCascade(t *testing.T) {
	bus := events.NewBus(zap.NewNop())
	d := NewDiagram("test", bus)
	addElement(t, d, "e1")
	addElement(t, d, "e2")
	addLink(t, d, "l1", "e1", "e2")
	addLink(t, d, "l2", "e2", "e1")

	var kinds []events.EventKind
	var cascaded []bool
	bus.SubscribeAll(func(event events.DomainEvent) {
		kinds = append(kinds, event.GetKind())
		if removed, ok := event.(events.LinkRemoved); ok {
			cascaded = append(cascaded, removed.Cascaded)
		}
	})

	require.NoError(t, d.RemoveElement(elementID(t, "e1")))

	require.Equal(t, []events.EventKind{
		events.KindElementRemoved,
		events.KindLinkRemoved,
		events.KindLinkRemoved,
	}, kinds)
	assert.Equal(t, []bool{true, true}, cascaded)
}

func TestRemoveMissingElementReturnsNotFound(t *testing.T) {
	d := NewDiagram("test", nil)
	err := d.RemoveElement(elementID(t, "ghost"))
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestElementsKeepInsertionOrder(t *testing.T) {
	d := NewDiagram("test", nil)
	addElement(t, d, "b")
	addElement(t, d, "a")
	addElement(t, d, "c")

	var ids []string
	for _, el := range d.Elements() {
		ids = append(ids, el.ID().String())
	}
	assert.Equal(t, []string{"b", "a", "c"}, ids)
}

func TestLinksOfReturnsIncidentLinksInOrder(t *testing.T) {
	d := NewDiagram("test", nil)
	addElement(t, d, "e1")
	addElement(t, d, "e2")
	addElement(t, d, "e3")
	addLink(t, d, "l1", "e1", "e2")
	addLink(t, d, "l2", "e2", "e3")
	addLink(t, d, "l3", "e3", "e1")

	incident := d.LinksOf(elementID(t, "e1"))
	require.Len(t, incident, 2)
	assert.Equal(t, "l1", incident[0].ID().String())
	assert.Equal(t, "l3", incident[1].ID().String())
}

func TestMutationsBumpVersion(t *testing.T) {
	d := NewDiagram("test", nil)
	before := d.Version()

	eid := addElement(t, d, "e1")
	require.NoError(t, d.SetElementPosition(eid, valueobjects.NewPosition(10, 10)))

	assert.Equal(t, before+2, d.Version())
}

func TestSetElementPositionEmitsOldAndNewValue(t *testing.T) {
	bus := events.NewBus(zap.NewNop())
	d := NewDiagram("test", bus)
	eid := addElement(t, d, "e1")

	var changed events.ElementChanged
	bus.Subscribe(events.KindElementChanged, func(event events.DomainEvent) {
		changed = event.(events.ElementChanged)
	})

	require.NoError(t, d.SetElementPosition(eid, valueobjects.NewPosition(7, 9)))

	assert.Equal(t, events.FieldPosition, changed.Field)
	assert.Equal(t, valueobjects.NewPosition(0, 0), changed.OldValue)
	assert.Equal(t, valueobjects.NewPosition(7, 9), changed.NewValue)
}
