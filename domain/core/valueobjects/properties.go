package valueobjects

import "sort"

// Properties maps a property identifier to its values. Properties are
// multi-valued and value order is not significant; Equals treats two
// property sets with the same values in different order as equal.
type Properties map[string][]string

// NewProperties creates an empty property set
func NewProperties() Properties {
	return make(Properties)
}

// Clone returns a deep copy of the property set
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for key, values := range p {
		copied := make([]string, len(values))
		copy(copied, values)
		out[key] = copied
	}
	return out
}

// Merge folds other's entries into a copy of p, replacing per key
func (p Properties) Merge(other Properties) Properties {
	out := p.Clone()
	if out == nil {
		out = make(Properties, len(other))
	}
	for key, values := range other {
		copied := make([]string, len(values))
		copy(copied, values)
		out[key] = copied
	}
	return out
}

// Equals compares two property sets ignoring value order
func (p Properties) Equals(other Properties) bool {
	if len(p) != len(other) {
		return false
	}
	for key, values := range p {
		otherValues, ok := other[key]
		if !ok || len(values) != len(otherValues) {
			return false
		}
		a := append([]string(nil), values...)
		b := append([]string(nil), otherValues...)
		sort.Strings(a)
		sort.Strings(b)
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
	}
	return true
}
