package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ontoview/domain/core/valueobjects"
)

func mustElementID(t *testing.T, s string) valueobjects.ElementID {
	t.Helper()
	id, err := valueobjects.NewElementIDFromString(s)
	require.NoError(t, err)
	return id
}

func TestNewElementRejectsEmptyID(t *testing.T) {
	_, err := NewElement(valueobjects.ElementID{}, valueobjects.NewPosition(0, 0))
	assert.Error(t, err)
}

func TestSetDataResolvesPlaceholder(t *testing.T) {
	el, err := NewElement(mustElementID(t, "e1"), valueobjects.NewPosition(10, 20))
	require.NoError(t, err)
	assert.Equal(t, KindPlaceholder, el.Kind())

	el.SetData(ElementData{Label: "Ada", Types: []string{"person"}})
	assert.Equal(t, KindResolved, el.Kind())
	assert.Equal(t, "Ada", el.Data().Label)
}

func TestVirtualElementKeepsKindOnSetData(t *testing.T) {
	el, err := NewVirtualElement(mustElementID(t, "group-1"), "Group", valueobjects.NewPosition(0, 0))
	require.NoError(t, err)

	el.SetData(ElementData{Label: "Renamed"})
	assert.Equal(t, KindVirtual, el.Kind())
}

func TestMergeDataKeepsUnmentionedFields(t *testing.T) {
	el, err := NewElement(mustElementID(t, "e1"), valueobjects.NewPosition(0, 0))
	require.NoError(t, err)
	el.SetData(ElementData{
		Types:      []string{"person"},
		Label:      "Ada",
		Properties: valueobjects.Properties{"born": {"1815"}},
	})

	el.MergeData(ElementData{
		Properties: valueobjects.Properties{"field": {"mathematics"}},
	})

	data := el.Data()
	assert.Equal(t, "Ada", data.Label)
	assert.Equal(t, []string{"person"}, data.Types)
	assert.Equal(t, []string{"1815"}, data.Properties["born"])
	assert.Equal(t, []string{"mathematics"}, data.Properties["field"])
}

func TestSnapshotRoundTrip(t *testing.T) {
	el, err := NewElement(mustElementID(t, "e1"), valueobjects.NewPosition(3, 4))
	require.NoError(t, err)
	el.SetData(ElementData{Label: "Ada"})
	el.Resize(valueobjects.Size{Width: 120, Height: 60})
	el.SetExpanded(true)

	restored, err := RestoreElement(el.Snapshot())
	require.NoError(t, err)

	assert.Equal(t, el.ID(), restored.ID())
	assert.Equal(t, KindResolved, restored.Kind())
	assert.Equal(t, el.Position(), restored.Position())
	assert.Equal(t, el.Size(), restored.Size())
	assert.True(t, restored.Expanded())
	assert.Equal(t, "Ada", restored.Data().Label)
}

func TestDataReturnsCopy(t *testing.T) {
	el, err := NewElement(mustElementID(t, "e1"), valueobjects.NewPosition(0, 0))
	require.NoError(t, err)
	el.SetData(ElementData{Types: []string{"person"}})

	leaked := el.Data()
	leaked.Types[0] = "mutated"

	assert.Equal(t, "person", el.Data().Types[0])
}

func TestSnapshotJSONAlwaysCarriesSize(t *testing.T) {
	el, err := NewElement(mustElementID(t, "e1"), valueobjects.NewPosition(1, 2))
	require.NoError(t, err)

	data, err := json.Marshal(el.Snapshot())
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Contains(t, decoded, "size")

	var size valueobjects.Size
	require.NoError(t, json.Unmarshal(decoded["size"], &size))
	assert.True(t, size.IsZero())
}
