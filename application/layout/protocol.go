package layout

import (
	"ontoview/domain/core/valueobjects"
)

// ProtocolVersion is the pinned layout worker protocol version. Every
// envelope carries it; a response with a different version fails that call
// with a protocol mismatch, not the coordinator's lifetime.
const ProtocolVersion = 1

// MessageKind discriminates worker protocol envelopes
type MessageKind string

const (
	MessageRequest  MessageKind = "request"
	MessageCancel   MessageKind = "cancel"
	MessageResponse MessageKind = "response"
)

// Algorithm names a placement strategy the worker understands
type Algorithm string

const (
	AlgorithmForce Algorithm = "force"
	AlgorithmGrid  Algorithm = "grid"
)

// ElementGeometry is the per-element slice of a layout snapshot
type ElementGeometry struct {
	ID       valueobjects.ElementID `json:"id"`
	Position valueobjects.Position  `json:"position"`
	Size     valueobjects.Size      `json:"size"`
}

// LinkTopology is a link restricted to the snapshot's element set
type LinkTopology struct {
	SourceID valueobjects.ElementID `json:"source_id"`
	TargetID valueobjects.ElementID `json:"target_id"`
}

// Options tunes a layout pass
type Options struct {
	Algorithm  Algorithm `json:"algorithm"`
	Spacing    float64   `json:"spacing"`
	Iterations int       `json:"iterations"`
}

// DefaultOptions returns the force-directed defaults
func DefaultOptions() Options {
	return Options{
		Algorithm:  AlgorithmForce,
		Spacing:    120,
		Iterations: 200,
	}
}

// Request is the payload of a MessageRequest envelope
type Request struct {
	Elements []ElementGeometry `json:"elements"`
	Links    []LinkTopology    `json:"links"`
	Options  Options           `json:"options"`
}

// Response is the payload of a MessageResponse envelope
type Response struct {
	Positions map[valueobjects.ElementID]valueobjects.Position `json:"positions"`
	Error     string                                           `json:"error,omitempty"`
}

// Envelope is the only message shape crossing the worker boundary. No
// shared mutable memory is assumed on either side; correlation is purely
// by sequence number.
type Envelope struct {
	Kind     MessageKind `json:"kind"`
	Sequence uint64      `json:"sequence"`
	Version  int         `json:"version"`
	Request  *Request    `json:"request,omitempty"`
	Response *Response   `json:"response,omitempty"`
}
