package valueobjects

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

// ElementID is a value object identifying a diagram element.
// Identities are stable and globally unique within a diagram; they may be
// opaque UUIDs for synthetic elements or caller-supplied identifiers (for
// example entity IRIs) for provider-backed elements.
type ElementID struct {
	value string
}

// NewElementID creates a new random ElementID
func NewElementID() ElementID {
	return ElementID{value: uuid.New().String()}
}

// NewElementIDFromString creates an ElementID from an existing identifier
func NewElementIDFromString(id string) (ElementID, error) {
	if id == "" {
		return ElementID{}, errors.New("element ID cannot be empty")
	}
	return ElementID{value: id}, nil
}

// String returns the string representation of the ElementID
func (id ElementID) String() string {
	return id.value
}

// Equals checks if two ElementIDs are equal
func (id ElementID) Equals(other ElementID) bool {
	return id.value == other.value
}

// IsZero checks if the ElementID is the zero value
func (id ElementID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler. Identities are caller-supplied and
// may contain characters that need escaping.
func (id ElementID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.value)
}

// UnmarshalJSON implements json.Unmarshaler
func (id *ElementID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return errors.New("ElementID must be a string")
	}
	id.value = value
	return nil
}

// MarshalText implements encoding.TextMarshaler so ElementID can key JSON maps
func (id ElementID) MarshalText() ([]byte, error) {
	return []byte(id.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (id *ElementID) UnmarshalText(data []byte) error {
	id.value = string(data)
	return nil
}

// LinkID is a value object identifying a diagram link
type LinkID struct {
	value string
}

// NewLinkID creates a new random LinkID
func NewLinkID() LinkID {
	return LinkID{value: uuid.New().String()}
}

// NewLinkIDFromString creates a LinkID from an existing identifier
func NewLinkIDFromString(id string) (LinkID, error) {
	if id == "" {
		return LinkID{}, errors.New("link ID cannot be empty")
	}
	return LinkID{value: id}, nil
}

// String returns the string representation of the LinkID
func (id LinkID) String() string {
	return id.value
}

// Equals checks if two LinkIDs are equal
func (id LinkID) Equals(other LinkID) bool {
	return id.value == other.value
}

// IsZero checks if the LinkID is the zero value
func (id LinkID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id LinkID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.value)
}

// UnmarshalJSON implements json.Unmarshaler
func (id *LinkID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return errors.New("LinkID must be a string")
	}
	id.value = value
	return nil
}
