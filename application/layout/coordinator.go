package layout

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"ontoview/domain/core/valueobjects"
	pkgerrors "ontoview/pkg/errors"
	"ontoview/pkg/observability"
)

// Gateway is the coordinator's view of the diagram service. Snapshot reads
// geometry under the service's lock; ApplyPositions groups the moves into a
// single command and executes it through the history engine, skipping
// elements removed while the layout was computing.
type Gateway interface {
	Snapshot(ids []valueobjects.ElementID) ([]ElementGeometry, []LinkTopology)
	ApplyPositions(label string, positions map[valueobjects.ElementID]valueobjects.Position) error
}

// Coordinator offloads position computation to a layout worker over the
// versioned message protocol and merges the result back through the history
// engine, so an entire layout pass is one undo step.
//
// Only the most recently issued request may apply: issuing a new run cancels
// the previous sequence, and responses for any sequence other than the
// current one are discarded.
type Coordinator struct {
	gateway  Gateway
	requests chan<- Envelope
	timeout  time.Duration

	sequence uint64 // atomic

	mu      sync.Mutex
	current uint64
	pending map[uint64]chan Envelope

	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewCoordinator creates a coordinator speaking to the given worker channels
func NewCoordinator(gateway Gateway, requests chan<- Envelope, responses <-chan Envelope, timeout time.Duration, metrics *observability.Metrics, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Coordinator{
		gateway:  gateway,
		requests: requests,
		timeout:  timeout,
		pending:  make(map[uint64]chan Envelope),
		metrics:  metrics,
		logger:   logger,
	}
	go c.dispatch(responses)
	return c
}

// dispatch routes worker responses to their waiting Run call. Responses for
// cancelled or superseded sequences have no pending channel and are dropped.
func (c *Coordinator) dispatch(responses <-chan Envelope) {
	for env := range responses {
		c.mu.Lock()
		ch, ok := c.pending[env.Sequence]
		if ok {
			delete(c.pending, env.Sequence)
		}
		c.mu.Unlock()

		if !ok {
			c.logger.Debug("discarding stale layout response", zap.Uint64("sequence", env.Sequence))
			c.metrics.ObserveLayout("stale", 0)
			continue
		}
		ch <- env
	}
}

// Run computes a layout for the given elements and applies the result as one
// grouped, undoable command. It blocks until the result is applied, the
// configured timeout elapses, or the context is cancelled.
func (c *Coordinator) Run(ctx context.Context, ids []valueobjects.ElementID, opts Options) error {
	elements, links := c.gateway.Snapshot(ids)
	if len(elements) == 0 {
		return nil
	}

	seq := atomic.AddUint64(&c.sequence, 1)
	ch := make(chan Envelope, 1)

	c.mu.Lock()
	// Supersede any outstanding request: its response will find no pending
	// channel and be discarded, same as a stale one.
	for prev := range c.pending {
		delete(c.pending, prev)
		c.send(Envelope{Kind: MessageCancel, Sequence: prev, Version: ProtocolVersion})
	}
	c.pending[seq] = ch
	c.current = seq
	c.mu.Unlock()

	started := time.Now()
	c.send(Envelope{
		Kind:     MessageRequest,
		Sequence: seq,
		Version:  ProtocolVersion,
		Request:  &Request{Elements: elements, Links: links, Options: opts},
	})

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		c.abandon(seq)
		c.metrics.ObserveLayout("cancelled", 0)
		return ctx.Err()

	case <-timer.C:
		c.abandon(seq)
		c.metrics.ObserveLayout("timeout", 0)
		return pkgerrors.NewLayoutTimeoutError(seq)

	case env := <-ch:
		if env.Version != ProtocolVersion {
			c.metrics.ObserveLayout("protocol_mismatch", 0)
			return pkgerrors.NewProtocolMismatchError(ProtocolVersion, env.Version)
		}
		if env.Response == nil || env.Response.Error != "" {
			message := "layout worker returned no payload"
			if env.Response != nil {
				message = env.Response.Error
			}
			c.metrics.ObserveLayout("error", 0)
			return pkgerrors.NewInternalError(message)
		}

		// A run superseded between response routing and here must not apply.
		// The apply happens under the same lock as the check so a newer Run
		// cannot slip in between them.
		c.mu.Lock()
		if c.current != seq {
			c.mu.Unlock()
			c.metrics.ObserveLayout("stale", 0)
			return nil
		}
		err := c.gateway.ApplyPositions("Layout", env.Response.Positions)
		c.mu.Unlock()

		if err != nil {
			c.metrics.ObserveLayout("error", 0)
			return err
		}
		c.metrics.ObserveLayout("success", time.Since(started).Seconds())
		return nil
	}
}

// abandon treats an in-flight request as cancelled
func (c *Coordinator) abandon(seq uint64) {
	c.mu.Lock()
	delete(c.pending, seq)
	c.mu.Unlock()
	c.send(Envelope{Kind: MessageCancel, Sequence: seq, Version: ProtocolVersion})
}

// send never blocks Run on a saturated worker; a dropped request surfaces
// as a timeout, which the caller may retry.
func (c *Coordinator) send(env Envelope) {
	select {
	case c.requests <- env:
	default:
		c.logger.Warn("layout worker queue full, dropping envelope",
			zap.String("kind", string(env.Kind)),
			zap.Uint64("sequence", env.Sequence),
		)
	}
}
