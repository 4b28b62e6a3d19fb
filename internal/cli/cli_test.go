package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetadata(t *testing.T) {
	metadata, err := parseMetadata([]string{"project=apollo", "status=active"}, "goals")
	require.NoError(t, err)

	assert.Equal(t, "apollo", metadata["project"])
	assert.Equal(t, "active", metadata["status"])
	assert.Equal(t, "goals", metadata["category"])
}

func TestParseMetadataInvalid(t *testing.T) {
	_, err := parseMetadata([]string{"no-equals-sign"}, "")
	assert.Error(t, err)

	_, err = parseMetadata([]string{"=value"}, "")
	assert.Error(t, err)
}

func TestParseMetadataEmpty(t *testing.T) {
	metadata, err := parseMetadata(nil, "")
	require.NoError(t, err)
	assert.Empty(t, metadata)
}

func TestDecodeValue(t *testing.T) {
	// JSON objects and arrays are stored structured
	decoded := decodeValue(`{"goal":"launch"}`)
	obj, ok := decoded.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "launch", obj["goal"])

	arr, ok := decodeValue(`[1, 2, 3]`).([]interface{})
	require.True(t, ok)
	assert.Len(t, arr, 3)

	// Everything else stays a plain string
	assert.Equal(t, "just text", decodeValue("just text"))
	assert.Equal(t, "{broken json", decodeValue("{broken json"))
	assert.Equal(t, "42", decodeValue("42"))
}

func TestFormatMetadata(t *testing.T) {
	assert.Equal(t, "-", formatMetadata(nil))
	assert.Equal(t, "a=1,b=2", formatMetadata(map[string]string{"b": "2", "a": "1"}))
}

func TestRenderValue(t *testing.T) {
	s, err := renderValue("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", s)

	s, err = renderValue(map[string]interface{}{"k": "v"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"k":"v"}`, s)
}
