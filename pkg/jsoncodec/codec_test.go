package jsoncodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec(t *testing.T) {
	type msg struct {
		ID   string   `json:"id"`
		Tags []string `json:"tags"`
	}
	c := Codec{}
	assert.Equal(t, "json", c.Name())

	data, err := c.Marshal(&msg{ID: "a", Tags: []string{"bug"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"a","tags":["bug"]}`, string(data))

	var got msg
	require.NoError(t, c.Unmarshal(data, &got))
	assert.Equal(t, "a", got.ID)

	// Empty bodies are valid for messages without fields.
	require.NoError(t, c.Unmarshal(nil, &got))

	assert.Error(t, c.Unmarshal([]byte("{"), &got))
}
