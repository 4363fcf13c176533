package jsonutil

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ID    string   `json:"id"`
	Tools []string `json:"toolsUsed"`
}

func TestUnmarshal(t *testing.T) {
	t.Run("valid object", func(t *testing.T) {
		var got sample
		require.NoError(t, Unmarshal([]byte(`{"id":"REP-1","toolsUsed":["Nmap"]}`), &got))
		assert.Equal(t, "REP-1", got.ID)
		assert.Equal(t, []string{"Nmap"}, got.Tools)
	})

	t.Run("invalid json", func(t *testing.T) {
		var got sample
		assert.Error(t, Unmarshal([]byte(`{invalid}`), &got))
	})

	t.Run("unknown members tolerated", func(t *testing.T) {
		var got sample
		assert.NoError(t, Unmarshal([]byte(`{"id":"x","extra":1}`), &got))
	})
}

func TestUnmarshalStrict(t *testing.T) {
	var got sample
	assert.Error(t, UnmarshalStrict([]byte(`{"id":"x","extra":1}`), &got))
	assert.NoError(t, UnmarshalStrict([]byte(`{"id":"x"}`), &got))
}

func TestMarshalIndent(t *testing.T) {
	data, err := MarshalIndent(sample{ID: "REP-7", Tools: []string{"a"}}, "", "  ")
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"id\": \"REP-7\"")
	assert.True(t, Valid(data))
}

func TestMarshalNilSliceIsEmptyArray(t *testing.T) {
	data, err := Marshal(sample{ID: "x"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"toolsUsed":[]`)
}

func TestReadLimited(t *testing.T) {
	var got sample
	require.NoError(t, ReadLimited(strings.NewReader(`{"id":"ok"}`), 64, &got))
	assert.Equal(t, "ok", got.ID)

	err := ReadLimited(strings.NewReader(`{"id":"`+strings.Repeat("x", 100)+`"}`), 16, &got)
	assert.True(t, errors.Is(err, ErrTooLarge))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid([]byte(`{"a":1}`)))
	assert.True(t, Valid([]byte(`[]`)))
	assert.False(t, Valid([]byte(`{"a":}`)))
	assert.False(t, Valid(nil))
}

func TestStreamRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := NewStreamEncoder(&buf)
	require.NoError(t, enc.Encode(sample{ID: "one", Tools: []string{}}))
	require.NoError(t, enc.Encode(sample{ID: "two", Tools: []string{"Nikto"}}))
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))

	dec := NewStreamDecoder(&buf)
	var ids []string
	for {
		var s sample
		err := dec.Decode(&s)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"one", "two"}, ids)
}

func TestEncoderSetIndent(t *testing.T) {
	var buf bytes.Buffer
	enc := NewStreamEncoder(&buf)
	enc.SetIndent("", "\t")
	require.NoError(t, enc.Encode(map[string]int{"a": 1}))
	assert.Equal(t, "{\n\t\"a\": 1\n}\n", buf.String())
}
