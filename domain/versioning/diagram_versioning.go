package versioning

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"ontoview/domain/core/aggregates"
	"ontoview/domain/core/entities"
)

// DiagramVersion is a content-addressed fingerprint of a diagram's state,
// attached to export snapshots so an external serializer can detect drift
// between two captures of the same diagram.
type DiagramVersion struct {
	DiagramID    string    `json:"diagram_id"`
	Version      int       `json:"version"`
	Checksum     string    `json:"checksum"`
	ElementCount int       `json:"element_count"`
	LinkCount    int       `json:"link_count"`
	CapturedAt   time.Time `json:"captured_at"`
}

type checksumPayload struct {
	Elements []entities.ElementSnapshot `json:"elements"`
	Links    []entities.LinkSnapshot    `json:"links"`
}

// Capture computes the version fingerprint of the current diagram state.
// Elements and links are serialized in insertion order so the checksum is
// deterministic for a given observable state.
func Capture(diagram *aggregates.Diagram) (DiagramVersion, error) {
	payload := checksumPayload{}
	for _, el := range diagram.Elements() {
		payload.Elements = append(payload.Elements, el.Snapshot())
	}
	for _, link := range diagram.Links() {
		payload.Links = append(payload.Links, link.Snapshot())
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return DiagramVersion{}, err
	}
	sum := sha256.Sum256(raw)

	return DiagramVersion{
		DiagramID:    diagram.ID().String(),
		Version:      diagram.Version(),
		Checksum:     hex.EncodeToString(sum[:]),
		ElementCount: diagram.ElementCount(),
		LinkCount:    diagram.LinkCount(),
		CapturedAt:   time.Now(),
	}, nil
}

// Equal reports whether two versions describe the same observable state
func Equal(a, b DiagramVersion) bool {
	return a.DiagramID == b.DiagramID && a.Checksum == b.Checksum
}
