package llm

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var answerSchema = &Schema{
	Name: "test_answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"correct": map[string]any{"type": "boolean"},
			"reason":  map[string]any{"type": "string"},
		},
		"required":             []string{"correct"},
		"additionalProperties": false,
	},
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "valid", raw: `{"correct":true,"reason":"ok"}`},
		{name: "missing required", raw: `{"reason":"ok"}`, wantErr: true},
		{name: "wrong type", raw: `{"correct":"yes"}`, wantErr: true},
		{name: "extra field", raw: `{"correct":true,"score":1}`, wantErr: true},
		{name: "not json", raw: `correct`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(answerSchema, json.RawMessage(tt.raw))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var invalid *ErrInvalidResponse
			require.True(t, errors.As(err, &invalid), "got %v", err)
			assert.Equal(t, tt.raw, string(invalid.Content))
		})
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	assert.NoError(t, validateResponse(nil, json.RawMessage(`anything`)))
}

func TestResponseText(t *testing.T) {
	r := &Response{Content: textContent("こんにちは")}
	assert.Equal(t, "こんにちは", r.Text())

	raw := &Response{Content: json.RawMessage(`{"a":1}`)}
	assert.Equal(t, `{"a":1}`, raw.Text())
}
