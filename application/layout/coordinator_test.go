package layout

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ontoview/domain/core/valueobjects"
	pkgerrors "ontoview/pkg/errors"
)

type fakeGateway struct {
	mu       sync.Mutex
	elements []ElementGeometry
	links    []LinkTopology
	labels   []string
	applied  []map[valueobjects.ElementID]valueobjects.Position
	applyErr error

	// When set, ApplyPositions signals applyStarted and blocks until
	// applyRelease yields.
	applyStarted chan struct{}
	applyRelease chan struct{}
}

func (g *fakeGateway) Snapshot(ids []valueobjects.ElementID) ([]ElementGeometry, []LinkTopology) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.elements, g.links
}

func (g *fakeGateway) ApplyPositions(label string, positions map[valueobjects.ElementID]valueobjects.Position) error {
	if g.applyStarted != nil {
		g.applyStarted <- struct{}{}
		<-g.applyRelease
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.labels = append(g.labels, label)
	g.applied = append(g.applied, positions)
	return g.applyErr
}

func (g *fakeGateway) applyCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.applied)
}

func TestCoordinatorAppliesWorkerResult(t *testing.T) {
	w := NewWorker(8, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	gateway := &fakeGateway{elements: geometry(t, "a", "b")}
	c := NewCoordinator(gateway, w.Requests(), w.Responses(), 2*time.Second, nil, zap.NewNop())

	opts := DefaultOptions()
	opts.Algorithm = AlgorithmGrid
	opts.Spacing = 100
	err := c.Run(ctx, []valueobjects.ElementID{eid(t, "a"), eid(t, "b")}, opts)
	require.NoError(t, err)

	require.Equal(t, 1, gateway.applyCount())
	assert.Equal(t, []string{"Layout"}, gateway.labels)
	assert.Len(t, gateway.applied[0], 2)
}

func TestCoordinatorEmptySnapshotIsNoOp(t *testing.T) {
	requests := make(chan Envelope, 1)
	responses := make(chan Envelope)
	gateway := &fakeGateway{}
	c := NewCoordinator(gateway, requests, responses, time.Second, nil, zap.NewNop())

	err := c.Run(context.Background(), nil, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, requests)
	assert.Zero(t, gateway.applyCount())
}

func TestCoordinatorTimesOutWithoutResponse(t *testing.T) {
	requests := make(chan Envelope, 4)
	responses := make(chan Envelope)
	gateway := &fakeGateway{elements: geometry(t, "a")}
	c := NewCoordinator(gateway, requests, responses, 50*time.Millisecond, nil, zap.NewNop())

	err := c.Run(context.Background(), []valueobjects.ElementID{eid(t, "a")}, DefaultOptions())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsLayoutTimeout(err))
	assert.Zero(t, gateway.applyCount())

	// The abandoned sequence is followed by a cancel envelope.
	require.Len(t, requests, 2)
	request := <-requests
	cancel := <-requests
	assert.Equal(t, MessageRequest, request.Kind)
	assert.Equal(t, MessageCancel, cancel.Kind)
	assert.Equal(t, request.Sequence, cancel.Sequence)
}

func TestCoordinatorRejectsVersionMismatch(t *testing.T) {
	requests := make(chan Envelope, 4)
	responses := make(chan Envelope, 4)
	gateway := &fakeGateway{elements: geometry(t, "a")}
	c := NewCoordinator(gateway, requests, responses, time.Second, nil, zap.NewNop())

	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Run(context.Background(), []valueobjects.ElementID{eid(t, "a")}, DefaultOptions())
	}()

	request := <-requests
	responses <- Envelope{
		Kind:     MessageResponse,
		Sequence: request.Sequence,
		Version:  ProtocolVersion + 1,
		Response: &Response{},
	}

	err := <-errCh
	require.Error(t, err)
	assert.True(t, pkgerrors.IsProtocolMismatch(err))
	assert.Zero(t, gateway.applyCount())
}

func TestCoordinatorSurfacesWorkerError(t *testing.T) {
	requests := make(chan Envelope, 4)
	responses := make(chan Envelope, 4)
	gateway := &fakeGateway{elements: geometry(t, "a")}
	c := NewCoordinator(gateway, requests, responses, time.Second, nil, zap.NewNop())

	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Run(context.Background(), []valueobjects.ElementID{eid(t, "a")}, DefaultOptions())
	}()

	request := <-requests
	responses <- Envelope{
		Kind:     MessageResponse,
		Sequence: request.Sequence,
		Version:  ProtocolVersion,
		Response: &Response{Error: "placement failed"},
	}

	err := <-errCh
	require.Error(t, err)
	assert.Zero(t, gateway.applyCount())
}

func TestNewRunSupersedesOutstandingRequest(t *testing.T) {
	requests := make(chan Envelope, 8)
	responses := make(chan Envelope, 8)
	gateway := &fakeGateway{elements: geometry(t, "a")}
	c := NewCoordinator(gateway, requests, responses, 300*time.Millisecond, nil, zap.NewNop())

	firstErr := make(chan error, 1)
	go func() {
		firstErr <- c.Run(context.Background(), []valueobjects.ElementID{eid(t, "a")}, DefaultOptions())
	}()
	first := <-requests
	require.Equal(t, MessageRequest, first.Kind)

	secondErr := make(chan error, 1)
	go func() {
		secondErr <- c.Run(context.Background(), []valueobjects.ElementID{eid(t, "a")}, DefaultOptions())
	}()

	// The second run cancels the first sequence before issuing its own.
	cancelEnv := <-requests
	require.Equal(t, MessageCancel, cancelEnv.Kind)
	require.Equal(t, first.Sequence, cancelEnv.Sequence)
	second := <-requests
	require.Equal(t, MessageRequest, second.Kind)

	// A late response for the superseded sequence is discarded.
	stale := map[valueobjects.ElementID]valueobjects.Position{
		eid(t, "a"): valueobjects.NewPosition(-1, -1),
	}
	responses <- Envelope{
		Kind:     MessageResponse,
		Sequence: first.Sequence,
		Version:  ProtocolVersion,
		Response: &Response{Positions: stale},
	}

	fresh := map[valueobjects.ElementID]valueobjects.Position{
		eid(t, "a"): valueobjects.NewPosition(10, 10),
	}
	responses <- Envelope{
		Kind:     MessageResponse,
		Sequence: second.Sequence,
		Version:  ProtocolVersion,
		Response: &Response{Positions: fresh},
	}

	require.NoError(t, <-secondErr)
	require.Equal(t, 1, gateway.applyCount())
	assert.Equal(t, fresh, gateway.applied[0])

	// The superseded run never applies; it runs out its timeout.
	err := <-firstErr
	require.Error(t, err)
	assert.True(t, pkgerrors.IsLayoutTimeout(err))
}

func TestNewRunWaitsForInFlightApply(t *testing.T) {
	requests := make(chan Envelope, 8)
	responses := make(chan Envelope, 8)
	gateway := &fakeGateway{
		elements:     geometry(t, "a"),
		applyStarted: make(chan struct{}, 2),
		applyRelease: make(chan struct{}),
	}
	c := NewCoordinator(gateway, requests, responses, time.Second, nil, zap.NewNop())

	firstErr := make(chan error, 1)
	go func() {
		firstErr <- c.Run(context.Background(), []valueobjects.ElementID{eid(t, "a")}, DefaultOptions())
	}()
	first := <-requests

	responses <- Envelope{
		Kind:     MessageResponse,
		Sequence: first.Sequence,
		Version:  ProtocolVersion,
		Response: &Response{Positions: map[valueobjects.ElementID]valueobjects.Position{
			eid(t, "a"): valueobjects.NewPosition(5, 5),
		}},
	}
	<-gateway.applyStarted

	secondErr := make(chan error, 1)
	go func() {
		secondErr <- c.Run(context.Background(), []valueobjects.ElementID{eid(t, "a")}, DefaultOptions())
	}()

	// A run issued while a result is being applied cannot supersede it
	// mid-apply; it queues until the apply finishes.
	select {
	case env := <-requests:
		t.Fatalf("unexpected %s envelope before the apply finished", env.Kind)
	case <-time.After(50 * time.Millisecond):
	}

	close(gateway.applyRelease)
	require.NoError(t, <-firstErr)

	second := <-requests
	require.Equal(t, MessageRequest, second.Kind)
	responses <- Envelope{
		Kind:     MessageResponse,
		Sequence: second.Sequence,
		Version:  ProtocolVersion,
		Response: &Response{Positions: map[valueobjects.ElementID]valueobjects.Position{
			eid(t, "a"): valueobjects.NewPosition(10, 10),
		}},
	}
	require.NoError(t, <-secondErr)
	assert.Equal(t, 2, gateway.applyCount())
}

func TestCoordinatorHonorsContextCancellation(t *testing.T) {
	requests := make(chan Envelope, 4)
	responses := make(chan Envelope)
	gateway := &fakeGateway{elements: geometry(t, "a")}
	c := NewCoordinator(gateway, requests, responses, time.Minute, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Run(ctx, []valueobjects.ElementID{eid(t, "a")}, DefaultOptions())
	}()

	<-requests
	cancel()

	err := <-errCh
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, gateway.applyCount())
}
