package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ontoview/application/commands"
	"ontoview/domain/core/aggregates"
	"ontoview/domain/core/entities"
	"ontoview/domain/core/valueobjects"
	"ontoview/domain/events"
)

func elementID(t *testing.T, s string) valueobjects.ElementID {
	t.Helper()
	id, err := valueobjects.NewElementIDFromString(s)
	require.NoError(t, err)
	return id
}

func addElementCmd(t *testing.T, id string) commands.Command {
	t.Helper()
	el, err := entities.NewElement(elementID(t, id), valueobjects.NewPosition(0, 0))
	require.NoError(t, err)
	return commands.NewAddElement(el.Snapshot())
}

func newHistory(t *testing.T, maxDepth int) (*History, *aggregates.Diagram) {
	t.Helper()
	d := aggregates.NewDiagram("test", nil)
	return New(d, maxDepth, zap.NewNop()), d
}

func TestExecutePushesUndoAndClearsRedo(t *testing.T) {
	h, d := newHistory(t, 0)

	require.NoError(t, h.Execute(addElementCmd(t, "e1")))
	require.NoError(t, h.Execute(addElementCmd(t, "e2")))
	require.NoError(t, h.Undo())
	assert.Equal(t, 1, h.RedoDepth())

	require.NoError(t, h.Execute(addElementCmd(t, "e3")))

	assert.Equal(t, 2, h.UndoDepth())
	assert.Zero(t, h.RedoDepth())
	assert.Equal(t, 2, d.ElementCount())
}

func TestFailedCommandLeavesStacksUntouched(t *testing.T) {
	h, d := newHistory(t, 0)
	require.NoError(t, h.Execute(addElementCmd(t, "e1")))

	err := h.Execute(addElementCmd(t, "e1")) // duplicate identity
	require.Error(t, err)

	assert.Equal(t, 1, h.UndoDepth())
	assert.Zero(t, h.RedoDepth())
	assert.Equal(t, 1, d.ElementCount())
}

func TestUndoRedoRoundTrip(t *testing.T) {
	h, d := newHistory(t, 0)
	require.NoError(t, h.Execute(addElementCmd(t, "e1")))

	require.NoError(t, h.Undo())
	assert.Zero(t, d.ElementCount())
	assert.Equal(t, 1, h.RedoDepth())

	require.NoError(t, h.Redo())
	assert.Equal(t, 1, d.ElementCount())
	assert.Equal(t, 1, h.UndoDepth())
}

func TestUndoOnEmptyStackIsNoOp(t *testing.T) {
	h, _ := newHistory(t, 0)
	assert.NoError(t, h.Undo())
	assert.NoError(t, h.Redo())
}

func TestMaxDepthEvictsOldestEntries(t *testing.T) {
	h, d := newHistory(t, 2)

	require.NoError(t, h.Execute(addElementCmd(t, "e1")))
	require.NoError(t, h.Execute(addElementCmd(t, "e2")))
	require.NoError(t, h.Execute(addElementCmd(t, "e3")))

	assert.Equal(t, 2, h.UndoDepth())

	require.NoError(t, h.Undo())
	require.NoError(t, h.Undo())
	require.NoError(t, h.Undo()) // stack exhausted, no-op

	// The oldest command fell off the stack, so its element stays.
	assert.Equal(t, 1, d.ElementCount())
	assert.True(t, d.HasElement(elementID(t, "e1")))
}

func TestFullSessionUndoRestoresEmptyDiagram(t *testing.T) {
	h, d := newHistory(t, 0)

	require.NoError(t, h.Execute(addElementCmd(t, "e1")))
	require.NoError(t, h.Execute(addElementCmd(t, "e2")))

	link, err := entities.NewLink(mustLinkID(t, "l1"), elementID(t, "e1"), elementID(t, "e2"), "related")
	require.NoError(t, err)
	require.NoError(t, h.Execute(commands.NewAddLink(link.Snapshot())))

	move, err := commands.NewMoveElement(d, elementID(t, "e1"), valueobjects.NewPosition(100, 100))
	require.NoError(t, err)
	require.NoError(t, h.Execute(move))

	for i := 0; i < 4; i++ {
		require.NoError(t, h.Undo())
	}

	assert.Zero(t, d.ElementCount())
	assert.Zero(t, d.LinkCount())
	assert.NoError(t, d.Validate())
}

func TestSessionEndingInCascadeRemovalUnwindsToEmpty(t *testing.T) {
	h, d := newHistory(t, 0)

	require.NoError(t, h.Execute(addElementCmd(t, "e1")))
	require.NoError(t, h.Execute(addElementCmd(t, "e2")))

	link, err := entities.NewLink(mustLinkID(t, "l1"), elementID(t, "e1"), elementID(t, "e2"), "related")
	require.NoError(t, err)
	require.NoError(t, h.Execute(commands.NewAddLink(link.Snapshot())))

	remove, err := commands.NewRemoveElement(d, elementID(t, "e1"))
	require.NoError(t, err)
	require.NoError(t, h.Execute(remove))
	assert.Equal(t, 1, d.ElementCount())
	assert.Zero(t, d.LinkCount())

	for i := 0; i < 4; i++ {
		require.NoError(t, h.Undo())
	}

	assert.Zero(t, d.ElementCount())
	assert.Zero(t, d.LinkCount())
	assert.NoError(t, d.Validate())

	for i := 0; i < 4; i++ {
		require.NoError(t, h.Redo())
	}
	assert.Equal(t, 1, d.ElementCount())
	assert.True(t, d.HasElement(elementID(t, "e2")))
	assert.Zero(t, d.LinkCount())
}

func TestEntriesNameCommands(t *testing.T) {
	h, _ := newHistory(t, 0)
	require.NoError(t, h.Execute(addElementCmd(t, "e1")))
	require.NoError(t, h.Execute(addElementCmd(t, "e2")))
	require.NoError(t, h.Undo())

	undo := h.UndoEntries()
	redo := h.RedoEntries()
	require.Len(t, undo, 1)
	require.Len(t, redo, 1)
	assert.Equal(t, "AddElement", undo[0].Name)
	assert.Equal(t, "AddElement", redo[0].Name)
}

func TestStackTransitionsArePublished(t *testing.T) {
	bus := events.NewBus(zap.NewNop())
	d := aggregates.NewDiagram("test", bus)
	h := New(d, 0, zap.NewNop())

	var actions []events.HistoryAction
	bus.Subscribe(events.KindHistoryChanged, func(event events.DomainEvent) {
		actions = append(actions, event.(events.HistoryChanged).Action)
	})

	require.NoError(t, h.Execute(addElementCmd(t, "e1")))
	require.NoError(t, h.Undo())
	require.NoError(t, h.Redo())

	assert.Equal(t, []events.HistoryAction{
		events.HistoryExecuted,
		events.HistoryUndone,
		events.HistoryRedone,
	}, actions)
}

func mustLinkID(t *testing.T, s string) valueobjects.LinkID {
	t.Helper()
	id, err := valueobjects.NewLinkIDFromString(s)
	require.NoError(t, err)
	return id
}
