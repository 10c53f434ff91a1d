package layout

import (
	"context"
	"math"

	"go.uber.org/zap"

	"ontoview/domain/core/valueobjects"
)

// Worker computes element placements in its own goroutine, reachable only
// through its request and response channels. It processes one request at a
// time; a cancel message received before a request is processed drops it.
type Worker struct {
	requests  chan Envelope
	responses chan Envelope
	logger    *zap.Logger
}

// NewWorker creates a layout worker with the given channel capacity
func NewWorker(buffer int, logger *zap.Logger) *Worker {
	if buffer <= 0 {
		buffer = 16
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		requests:  make(chan Envelope, buffer),
		responses: make(chan Envelope, buffer),
		logger:    logger,
	}
}

// Requests is the coordinator-to-worker channel
func (w *Worker) Requests() chan<- Envelope { return w.requests }

// Responses is the worker-to-coordinator channel
func (w *Worker) Responses() <-chan Envelope { return w.responses }

// Run processes envelopes until the context is cancelled. It is meant to be
// started once, as a goroutine.
func (w *Worker) Run(ctx context.Context) {
	cancelled := make(map[uint64]struct{})

	for {
		select {
		case <-ctx.Done():
			return
		case env := <-w.requests:
			switch env.Kind {
			case MessageCancel:
				cancelled[env.Sequence] = struct{}{}
			case MessageRequest:
				if _, skip := cancelled[env.Sequence]; skip {
					delete(cancelled, env.Sequence)
					continue
				}
				w.respond(ctx, env)
			default:
				w.logger.Warn("unexpected envelope kind", zap.String("kind", string(env.Kind)))
			}
		}
	}
}

func (w *Worker) respond(ctx context.Context, env Envelope) {
	response := Envelope{
		Kind:     MessageResponse,
		Sequence: env.Sequence,
		Version:  env.Version,
	}

	if env.Version != ProtocolVersion {
		response.Version = ProtocolVersion
		response.Response = &Response{Error: "unsupported protocol version"}
	} else if env.Request == nil {
		response.Response = &Response{Error: "request payload missing"}
	} else {
		response.Response = &Response{Positions: compute(*env.Request)}
	}

	select {
	case <-ctx.Done():
	case w.responses <- response:
	}
}

// compute places elements without overlap. The force algorithm runs a small
// repulsion/spring simulation seeded from current positions; grid falls back
// to row-major placement.
func compute(req Request) map[valueobjects.ElementID]valueobjects.Position {
	opts := req.Options
	if opts.Spacing <= 0 {
		opts.Spacing = DefaultOptions().Spacing
	}
	if opts.Iterations <= 0 {
		opts.Iterations = DefaultOptions().Iterations
	}

	if opts.Algorithm == AlgorithmGrid {
		return computeGrid(req.Elements, opts.Spacing)
	}
	return computeForce(req.Elements, req.Links, opts)
}

func computeGrid(elements []ElementGeometry, spacing float64) map[valueobjects.ElementID]valueobjects.Position {
	out := make(map[valueobjects.ElementID]valueobjects.Position, len(elements))
	columns := int(math.Ceil(math.Sqrt(float64(len(elements)))))
	if columns == 0 {
		return out
	}
	for i, el := range elements {
		row := i / columns
		col := i % columns
		out[el.ID] = valueobjects.NewPosition(float64(col)*spacing, float64(row)*spacing)
	}
	return out
}

func computeForce(elements []ElementGeometry, links []LinkTopology, opts Options) map[valueobjects.ElementID]valueobjects.Position {
	n := len(elements)
	out := make(map[valueobjects.ElementID]valueobjects.Position, n)
	if n == 0 {
		return out
	}

	index := make(map[valueobjects.ElementID]int, n)
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, el := range elements {
		index[el.ID] = i
		xs[i] = el.Position.X
		ys[i] = el.Position.Y
		// Scatter coincident seeds so repulsion has a direction to push.
		if xs[i] == 0 && ys[i] == 0 {
			angle := float64(i) * 2 * math.Pi / float64(n)
			xs[i] = math.Cos(angle) * opts.Spacing
			ys[i] = math.Sin(angle) * opts.Spacing
		}
	}

	springLength := opts.Spacing
	repulsion := opts.Spacing * opts.Spacing

	for iter := 0; iter < opts.Iterations; iter++ {
		cooling := 1 - float64(iter)/float64(opts.Iterations)
		fx := make([]float64, n)
		fy := make([]float64, n)

		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				dx := xs[i] - xs[j]
				dy := ys[i] - ys[j]
				distSq := dx*dx + dy*dy
				if distSq < 0.01 {
					distSq = 0.01
				}
				force := repulsion / distSq
				dist := math.Sqrt(distSq)
				fx[i] += force * dx / dist
				fy[i] += force * dy / dist
				fx[j] -= force * dx / dist
				fy[j] -= force * dy / dist
			}
		}

		for _, link := range links {
			i, iOK := index[link.SourceID]
			j, jOK := index[link.TargetID]
			if !iOK || !jOK || i == j {
				continue
			}
			dx := xs[j] - xs[i]
			dy := ys[j] - ys[i]
			dist := math.Sqrt(dx*dx + dy*dy)
			if dist < 0.1 {
				dist = 0.1
			}
			pull := (dist - springLength) / dist * 0.5
			fx[i] += dx * pull
			fy[i] += dy * pull
			fx[j] -= dx * pull
			fy[j] -= dy * pull
		}

		limit := opts.Spacing * cooling
		for i := 0; i < n; i++ {
			step := math.Sqrt(fx[i]*fx[i] + fy[i]*fy[i])
			if step > limit && step > 0 {
				fx[i] *= limit / step
				fy[i] *= limit / step
			}
			xs[i] += fx[i]
			ys[i] += fy[i]
		}
	}

	for i, el := range elements {
		out[el.ID] = valueobjects.NewPosition(round(xs[i]), round(ys[i]))
	}
	return out
}

func round(v float64) float64 {
	return math.Round(v*100) / 100
}
