package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayload_ExpectedEntries(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{name: "two posts", raw: `{"data":[{"id":"1","text":"a"},{"id":"2","text":"b"}],"meta":{"result_count":2}}`, want: 2},
		{name: "data absent", raw: `{"meta":{"result_count":0}}`, want: 0},
		{name: "data not array", raw: `{"data":{"id":"1"}}`, want: 0},
		{name: "empty data", raw: `{"data":[]}`, want: 0},
		{name: "top-level array", raw: `[1,2,3]`, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPayload([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.ExpectedEntries())
		})
	}
}

func TestPayload_Rejects(t *testing.T) {
	_, err := NewPayload([]byte("  "))
	assert.Error(t, err)

	_, err = NewPayload([]byte(`{"data":[]} {"x":1}`))
	assert.Error(t, err)

	_, err = NewPayload([]byte(`<html>504</html>`))
	assert.Error(t, err)
}

func TestPayload_PreservesNumbers(t *testing.T) {
	p, err := NewPayload([]byte("{\n  \"id\": 1849202837465928374\n}"))
	require.NoError(t, err)

	compact, err := p.Compact()
	require.NoError(t, err)
	assert.Equal(t, `{"id":1849202837465928374}`, string(compact))

	wrapped, err := json.Marshal(map[string]interface{}{"payload": p})
	require.NoError(t, err)
	assert.Equal(t, `{"payload":{"id":1849202837465928374}}`, string(wrapped))

	var back struct {
		Payload *Payload `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(wrapped, &back))
	assert.Equal(t, compact, back.Payload.Raw())
}

func TestSummaryRecord_EntryCount(t *testing.T) {
	r := SummaryRecord{Model: "m", Summary: []interface{}{1, 2}}
	assert.Equal(t, 2, r.EntryCount())

	r.Summary = "raw text"
	assert.Equal(t, -1, r.EntryCount())
}

func TestDecodeJSON(t *testing.T) {
	doc, err := DecodeJSON([]byte(` [{"post_id": 1989418137272422538}] `))
	require.NoError(t, err)
	assert.Equal(t, []interface{}{map[string]interface{}{"post_id": json.Number("1989418137272422538")}}, doc)

	for _, raw := range []string{`[1] ]`, `[1] [2]`, `[1,2] and also [3,4]`} {
		_, err := DecodeJSON([]byte(raw))
		assert.ErrorIs(t, err, ErrTrailingData, raw)
	}

	_, err = DecodeJSON([]byte(`[1,2`))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrTrailingData)
}
