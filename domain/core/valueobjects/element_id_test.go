package valueobjects

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElementIDJSONEscapesSpecialCharacters(t *testing.T) {
	id, err := NewElementIDFromString(`http://example.org/thing?label="a\b"`)
	require.NoError(t, err)

	data, err := json.Marshal(id)
	require.NoError(t, err)
	require.True(t, json.Valid(data))

	var decoded ElementID
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, id.Equals(decoded))
}

func TestElementIDJSONRejectsNonString(t *testing.T) {
	var id ElementID
	err := json.Unmarshal([]byte(`42`), &id)
	require.Error(t, err)

	require.NoError(t, json.Unmarshal([]byte(`null`), &id))
	assert.True(t, id.IsZero())
}

func TestLinkIDJSONEscapesSpecialCharacters(t *testing.T) {
	id, err := NewLinkIDFromString(`link "quoted"`)
	require.NoError(t, err)

	data, err := json.Marshal(id)
	require.NoError(t, err)
	require.True(t, json.Valid(data))

	var decoded LinkID
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, id.Equals(decoded))
}

func TestElementIDKeysJSONMaps(t *testing.T) {
	id, err := NewElementIDFromString("e1")
	require.NoError(t, err)

	data, err := json.Marshal(map[ElementID]int{id: 7})
	require.NoError(t, err)
	assert.JSONEq(t, `{"e1": 7}`, string(data))

	var decoded map[ElementID]int
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 7, decoded[id])
}
