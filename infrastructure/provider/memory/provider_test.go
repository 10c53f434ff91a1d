package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ontoview/application/ports"
	"ontoview/domain/core/entities"
	"ontoview/domain/core/valueobjects"
	pkgerrors "ontoview/pkg/errors"
)

func eid(t *testing.T, s string) valueobjects.ElementID {
	t.Helper()
	id, err := valueobjects.NewElementIDFromString(s)
	require.NoError(t, err)
	return id
}

func TestFetchElementDataOmitsUnknownIDs(t *testing.T) {
	p := NewProvider(zap.NewNop())
	p.SeedElement(eid(t, "e1"), entities.ElementData{Label: "Ada"})

	result, err := p.FetchElementData(context.Background(), []valueobjects.ElementID{eid(t, "e1"), eid(t, "ghost")})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "Ada", result[eid(t, "e1")].Label)
}

func TestFetchElementDataReturnsCopies(t *testing.T) {
	p := NewProvider(zap.NewNop())
	p.SeedElement(eid(t, "e1"), entities.ElementData{Types: []string{"person"}})

	result, err := p.FetchElementData(context.Background(), []valueobjects.ElementID{eid(t, "e1")})
	require.NoError(t, err)
	result[eid(t, "e1")].Types[0] = "mutated"

	again, err := p.FetchElementData(context.Background(), []valueobjects.ElementID{eid(t, "e1")})
	require.NoError(t, err)
	assert.Equal(t, "person", again[eid(t, "e1")].Types[0])
}

func TestFetchLinksMatchesEitherEndpoint(t *testing.T) {
	p := NewProvider(zap.NewNop())
	l1, err := valueobjects.NewLinkIDFromString("l1")
	require.NoError(t, err)
	l2, err := valueobjects.NewLinkIDFromString("l2")
	require.NoError(t, err)

	p.SeedLink(ports.LinkDescriptor{ID: l1, SourceID: eid(t, "e1"), TargetID: eid(t, "e2"), TypeIRI: "related"})
	p.SeedLink(ports.LinkDescriptor{ID: l2, SourceID: eid(t, "e3"), TargetID: eid(t, "e4"), TypeIRI: "related"})

	links, err := p.FetchLinks(context.Background(), []valueobjects.ElementID{eid(t, "e2")})
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, l1, links[0].ID)
}

func TestFailNextAffectsOnlyOneFetch(t *testing.T) {
	p := NewProvider(zap.NewNop())
	p.FailNext(errors.New("injected"))

	_, err := p.FetchElementData(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsProvider(err))

	_, err = p.FetchElementData(context.Background(), nil)
	assert.NoError(t, err)
}

func TestLatencyRespectsContextCancellation(t *testing.T) {
	p := NewProvider(zap.NewNop())
	p.SetLatency(time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.FetchElementData(ctx, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
