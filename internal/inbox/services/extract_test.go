package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{name: "bare object", input: `{"a":1}`, want: `{"a":1}`, ok: true},
		{name: "prose around", input: "Sure! Here it is:\n{\"a\":{\"b\":2}}\nHope that helps {x}", want: `{"a":{"b":2}}`, ok: true},
		{name: "fenced", input: "```json\n{\"summary\":\"hi\"}\n```", want: `{"summary":"hi"}`, ok: true},
		{name: "braces in strings", input: `{"s":"a } b { c","t":"\"}"}`, want: `{"s":"a } b { c","t":"\"}"}`, ok: true},
		{name: "first of two", input: `{"a":1} {"b":2}`, want: `{"a":1}`, ok: true},
		{name: "unbalanced prefix", input: `{ oops {"a":1}`, want: `{"a":1}`, ok: true},
		{name: "never closed", input: `{"a": "unterminated`, ok: false},
		{name: "no object", input: "I could not analyze this.", ok: false},
		{name: "empty", input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSON(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeResponse(t *testing.T) {
	m, err := DecodeResponse("Result: {\"summary\": \"Field trip Friday\", \"tags\": [\"school\"]}")
	require.NoError(t, err)
	assert.Equal(t, "Field trip Friday", m["summary"])

	_, err = DecodeResponse("no json here")
	assert.ErrorIs(t, err, ErrMalformedResponse)

	_, err = DecodeResponse(`{"summary": "trailing comma",}`)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}
