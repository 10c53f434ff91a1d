package layout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ontoview/domain/core/valueobjects"
)

func eid(t *testing.T, s string) valueobjects.ElementID {
	t.Helper()
	id, err := valueobjects.NewElementIDFromString(s)
	require.NoError(t, err)
	return id
}

func startWorker(t *testing.T) *Worker {
	t.Helper()
	w := NewWorker(8, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go w.Run(ctx)
	return w
}

func awaitResponse(t *testing.T, w *Worker) Envelope {
	t.Helper()
	select {
	case env := <-w.Responses():
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("no worker response")
		return Envelope{}
	}
}

func geometry(t *testing.T, ids ...string) []ElementGeometry {
	t.Helper()
	out := make([]ElementGeometry, 0, len(ids))
	for _, id := range ids {
		out = append(out, ElementGeometry{ID: eid(t, id)})
	}
	return out
}

func TestWorkerGridPlacement(t *testing.T) {
	w := startWorker(t)
	w.Requests() <- Envelope{
		Kind:     MessageRequest,
		Sequence: 1,
		Version:  ProtocolVersion,
		Request: &Request{
			Elements: geometry(t, "a", "b", "c", "d"),
			Options:  Options{Algorithm: AlgorithmGrid, Spacing: 100},
		},
	}

	env := awaitResponse(t, w)
	require.Equal(t, MessageResponse, env.Kind)
	require.Equal(t, uint64(1), env.Sequence)
	require.NotNil(t, env.Response)
	require.Empty(t, env.Response.Error)

	positions := env.Response.Positions
	assert.Equal(t, valueobjects.NewPosition(0, 0), positions[eid(t, "a")])
	assert.Equal(t, valueobjects.NewPosition(100, 0), positions[eid(t, "b")])
	assert.Equal(t, valueobjects.NewPosition(0, 100), positions[eid(t, "c")])
	assert.Equal(t, valueobjects.NewPosition(100, 100), positions[eid(t, "d")])
}

func TestWorkerForcePlacesAllElementsApart(t *testing.T) {
	w := startWorker(t)
	w.Requests() <- Envelope{
		Kind:     MessageRequest,
		Sequence: 7,
		Version:  ProtocolVersion,
		Request: &Request{
			Elements: geometry(t, "a", "b", "c", "d", "e"),
			Links: []LinkTopology{
				{SourceID: eid(t, "a"), TargetID: eid(t, "b")},
				{SourceID: eid(t, "b"), TargetID: eid(t, "c")},
			},
			Options: DefaultOptions(),
		},
	}

	env := awaitResponse(t, w)
	require.NotNil(t, env.Response)
	positions := env.Response.Positions
	require.Len(t, positions, 5)

	ids := []string{"a", "b", "c", "d", "e"}
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			pi := positions[eid(t, ids[i])]
			pj := positions[eid(t, ids[j])]
			assert.Greater(t, pi.DistanceTo(pj), 1.0,
				"elements %s and %s ended up coincident", ids[i], ids[j])
		}
	}
}

func TestWorkerSkipsCancelledSequence(t *testing.T) {
	w := startWorker(t)

	w.Requests() <- Envelope{Kind: MessageCancel, Sequence: 1, Version: ProtocolVersion}
	w.Requests() <- Envelope{
		Kind:     MessageRequest,
		Sequence: 1,
		Version:  ProtocolVersion,
		Request:  &Request{Elements: geometry(t, "a")},
	}
	w.Requests() <- Envelope{
		Kind:     MessageRequest,
		Sequence: 2,
		Version:  ProtocolVersion,
		Request:  &Request{Elements: geometry(t, "a")},
	}

	env := awaitResponse(t, w)
	assert.Equal(t, uint64(2), env.Sequence)
}

func TestWorkerRejectsUnsupportedVersion(t *testing.T) {
	w := startWorker(t)
	w.Requests() <- Envelope{
		Kind:     MessageRequest,
		Sequence: 1,
		Version:  ProtocolVersion + 1,
		Request:  &Request{Elements: geometry(t, "a")},
	}

	env := awaitResponse(t, w)
	require.NotNil(t, env.Response)
	assert.Equal(t, ProtocolVersion, env.Version)
	assert.NotEmpty(t, env.Response.Error)
	assert.Empty(t, env.Response.Positions)
}

func TestWorkerRejectsMissingPayload(t *testing.T) {
	w := startWorker(t)
	w.Requests() <- Envelope{Kind: MessageRequest, Sequence: 1, Version: ProtocolVersion}

	env := awaitResponse(t, w)
	require.NotNil(t, env.Response)
	assert.NotEmpty(t, env.Response.Error)
}

func TestWorkerHandlesEmptyElementSet(t *testing.T) {
	w := startWorker(t)
	w.Requests() <- Envelope{
		Kind:     MessageRequest,
		Sequence: 1,
		Version:  ProtocolVersion,
		Request:  &Request{Options: Options{Algorithm: AlgorithmGrid}},
	}

	env := awaitResponse(t, w)
	require.NotNil(t, env.Response)
	assert.Empty(t, env.Response.Error)
	assert.Empty(t, env.Response.Positions)
}
