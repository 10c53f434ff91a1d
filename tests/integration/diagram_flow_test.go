package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ontoview/application/history"
	"ontoview/application/layout"
	"ontoview/application/ports"
	"ontoview/application/provider"
	"ontoview/application/services"
	"ontoview/domain/config"
	"ontoview/domain/core/aggregates"
	"ontoview/domain/core/entities"
	"ontoview/domain/core/valueobjects"
	"ontoview/domain/events"
	"ontoview/infrastructure/provider/memory"
)

type stack struct {
	service     *services.DiagramService
	coordinator *layout.Coordinator
	source      *memory.Provider
	bus         *events.Bus
}

func newStack(t *testing.T) *stack {
	t.Helper()
	logger := zap.NewNop()

	bus := events.NewBus(logger)
	diagram := aggregates.NewDiagram("integration", bus)
	hist := history.New(diagram, 0, logger)

	source := memory.NewProvider(logger)
	cache := provider.NewCache(source, logger)

	cfg := *config.DefaultDomainConfig()
	service := services.NewDiagramService(diagram, hist, cache, cfg, nil, logger)

	worker := layout.NewWorker(16, logger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go worker.Run(ctx)

	coordinator := layout.NewCoordinator(service, worker.Requests(), worker.Responses(), 5*time.Second, nil, logger)

	return &stack{
		service:     service,
		coordinator: coordinator,
		source:      source,
		bus:         bus,
	}
}

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

// The full editing session: place elements, hydrate them from the provider,
// load links, run a layout, then unwind the whole session with undo.
func TestEditingSessionEndToEnd(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	ids := []valueobjects.ElementID{
		elementID(t, "http://example.org/ada"),
		elementID(t, "http://example.org/babbage"),
		elementID(t, "http://example.org/engine"),
	}
	for i, id := range ids {
		require.NoError(t, s.service.AddElement(id, valueobjects.NewPosition(float64(i), 0)))
		s.source.SeedElement(id, entities.ElementData{
			Types: []string{"http://example.org/Thing"},
			Label: "entity " + id.String(),
		})
	}
	s.source.SeedLink(ports.LinkDescriptor{
		ID:       linkID(t, "l-knows"),
		SourceID: ids[0],
		TargetID: ids[1],
		TypeIRI:  "http://example.org/knows",
	})
	s.source.SeedLink(ports.LinkDescriptor{
		ID:       linkID(t, "l-designed"),
		SourceID: ids[1],
		TargetID: ids[2],
		TypeIRI:  "http://example.org/designed",
	})

	require.NoError(t, s.service.RequestElementData(ctx, ids))
	el, ok := s.service.Diagram().Element(ids[0])
	require.True(t, ok)
	assert.Equal(t, entities.KindResolved, el.Kind())

	added, err := s.service.LoadLinks(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	opts := layout.DefaultOptions()
	opts.Algorithm = layout.AlgorithmGrid
	opts.Spacing = 150
	require.NoError(t, s.coordinator.Run(ctx, ids, opts))

	el, _ = s.service.Diagram().Element(ids[2])
	assert.NotEqual(t, valueobjects.NewPosition(2, 0), el.Position())

	// Session recorded as: 3 adds, 1 hydration, 1 link load, 1 layout.
	undo, _ := s.service.HistoryState()
	require.Len(t, undo, 6)
	assert.Equal(t, "Layout", undo[5].Name)

	for i := 0; i < 6; i++ {
		require.NoError(t, s.service.Undo())
	}
	assert.Zero(t, s.service.Diagram().ElementCount())
	assert.Zero(t, s.service.Diagram().LinkCount())

	// And forward again.
	for i := 0; i < 6; i++ {
		require.NoError(t, s.service.Redo())
	}
	assert.Equal(t, 3, s.service.Diagram().ElementCount())
	assert.Equal(t, 2, s.service.Diagram().LinkCount())
	el, _ = s.service.Diagram().Element(ids[0])
	assert.Equal(t, entities.KindResolved, el.Kind())
}

func TestHydrationSharesProviderFetchAcrossCallers(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	id := elementID(t, "http://example.org/ada")
	require.NoError(t, s.service.AddElement(id, valueobjects.Position{}))
	s.source.SeedElement(id, entities.ElementData{Label: "Ada"})
	s.source.SetLatency(30 * time.Millisecond)

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			errs <- s.service.RequestElementData(ctx, []valueobjects.ElementID{id})
		}()
	}
	require.NoError(t, <-errs)
	require.NoError(t, <-errs)

	el, _ := s.service.Diagram().Element(id)
	assert.Equal(t, "Ada", el.Data().Label)
}

func TestRemovalDuringLayoutIsSkipped(t *testing.T) {
	s := newStack(t)

	kept := elementID(t, "kept")
	removed := elementID(t, "removed")
	require.NoError(t, s.service.AddElement(kept, valueobjects.Position{}))
	require.NoError(t, s.service.AddElement(removed, valueobjects.Position{}))

	// Apply a layout result computed before the removal.
	geometry, _ := s.service.Snapshot([]valueobjects.ElementID{kept, removed})
	require.Len(t, geometry, 2)

	require.NoError(t, s.service.RemoveElement(removed))
	require.NoError(t, s.service.ApplyPositions("Layout", map[valueobjects.ElementID]valueobjects.Position{
		kept:    valueobjects.NewPosition(10, 10),
		removed: valueobjects.NewPosition(20, 20),
	}))

	el, _ := s.service.Diagram().Element(kept)
	assert.Equal(t, valueobjects.NewPosition(10, 10), el.Position())
	assert.False(t, s.service.Diagram().HasElement(removed))
}

func TestBusObservesEverySessionMutation(t *testing.T) {
	s := newStack(t)

	var kinds []events.EventKind
	s.bus.SubscribeAll(func(event events.DomainEvent) {
		kinds = append(kinds, event.GetKind())
	})

	a := elementID(t, "a")
	b := elementID(t, "b")
	require.NoError(t, s.service.AddElement(a, valueobjects.Position{}))
	require.NoError(t, s.service.AddElement(b, valueobjects.Position{}))
	require.NoError(t, s.service.AddLink(linkID(t, "l1"), a, b, "related"))
	require.NoError(t, s.service.RemoveElement(a))

	assert.Contains(t, kinds, events.KindElementAdded)
	assert.Contains(t, kinds, events.KindLinkAdded)
	assert.Contains(t, kinds, events.KindElementRemoved)
	assert.Contains(t, kinds, events.KindLinkRemoved)
	assert.Contains(t, kinds, events.KindHistoryChanged)
}
