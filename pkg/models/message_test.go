package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope_WithDefaults(t *testing.T) {
	t.Run("fills missing fields", func(t *testing.T) {
		env := Envelope{Content: "hello"}.WithDefaults()

		assert.NotEmpty(t, env.ID)
		assert.False(t, env.Timestamp.IsZero())
		assert.Equal(t, DefaultSender, env.Sender)
		assert.Equal(t, "hello", env.Content)
	})

	t.Run("keeps set fields", func(t *testing.T) {
		ts := Timestamp{Time: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
		env := Envelope{ID: "abc", Sender: "tester", Timestamp: ts}.WithDefaults()

		assert.Equal(t, "abc", env.ID)
		assert.Equal(t, "tester", env.Sender)
		assert.True(t, ts.Equal(env.Timestamp.Time))
	})

	t.Run("does not mutate receiver", func(t *testing.T) {
		orig := Envelope{Content: "x"}
		_ = orig.WithDefaults()
		assert.Empty(t, orig.ID)
	})
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "rfc3339", input: "2024-05-01T10:00:00Z"},
		{name: "rfc3339 with offset and nanos", input: "2024-05-01T10:00:00.123456789-03:00"},
		{name: "local date time", input: "2024-05-01T10:00:00"},
		{name: "local date time with fraction", input: "2024-05-01T10:00:00.123"},
		{name: "local minutes", input: "2024-05-01T10:00"},
		{name: "garbage", input: "yesterday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := ParseTimestamp(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 2024, ts.Year())
			assert.Equal(t, time.May, ts.Month())
		})
	}
}

func TestEnvelope_JSONWireForm(t *testing.T) {
	raw := `{"id":"m-1","content":"hi","sender":"svc","timestamp":"2024-05-01T10:00:00"}`

	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(raw), &env))
	assert.Equal(t, "m-1", env.ID)
	assert.Equal(t, "hi", env.Content)
	assert.Equal(t, "svc", env.Sender)
	assert.Equal(t, 10, env.Timestamp.Hour())

	out, err := json.Marshal(env)
	require.NoError(t, err)

	var back Envelope
	require.NoError(t, json.Unmarshal(out, &back))
	assert.True(t, env.Timestamp.Equal(back.Timestamp.Time))
}

func TestTimestamp_UnmarshalRejectsNonString(t *testing.T) {
	var env Envelope
	err := json.Unmarshal([]byte(`{"timestamp":12345}`), &env)
	assert.Error(t, err)
}

func TestEnvelopeBuilder(t *testing.T) {
	env := NewEnvelopeBuilder().
		WithID("id-1").
		WithContent("body").
		WithSender("builder").
		Build()

	assert.Equal(t, "id-1", env.ID)
	assert.Equal(t, "body", env.Content)
	assert.Equal(t, "builder", env.Sender)
	assert.False(t, env.Timestamp.IsZero())
}
