package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeProtoTimestamp struct{ t time.Time }

func (f fakeProtoTimestamp) AsTime() time.Time { return f.t }

func TestNormalizeTimestamp(t *testing.T) {
	ref := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)
	refPtr := ref

	tests := []struct {
		name  string
		input any
		want  time.Time
	}{
		{"nil", nil, Epoch},
		{"empty string", "", Epoch},
		{"garbage string", "not a date", Epoch},
		{"unsupported type", []int{1}, Epoch},
		{"time value", ref, ref},
		{"zero time", time.Time{}, Epoch},
		{"time pointer", &refPtr, ref},
		{"nil time pointer", (*time.Time)(nil), Epoch},
		{"AsTime value", fakeProtoTimestamp{t: ref}, ref},
		{"seconds map", map[string]any{"seconds": float64(ref.Unix()), "nanoseconds": float64(0)}, ref},
		{"underscore seconds map", map[string]any{"_seconds": float64(ref.Unix()), "_nanoseconds": float64(0)}, ref},
		{"map without seconds", map[string]any{"foo": 1}, Epoch},
		{"RFC3339", "2025-03-14T15:09:26Z", ref},
		{"RFC3339 with offset", "2025-03-14T16:09:26+01:00", ref},
		{"RFC1123", "Fri, 14 Mar 2025 15:09:26 UTC", ref},
		{"date only", "2025-03-14", time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)},
		{"epoch seconds", float64(ref.Unix()), ref},
		{"epoch millis", float64(ref.UnixMilli()), ref},
		{"epoch int64 seconds", ref.Unix(), ref},
		{"numeric string millis", "1741964966000", ref},
		{"json number", json.Number("1741964966"), ref},
		{"negative number", float64(-5), Epoch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTimestamp(tt.input)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestNormalizeTimestamp_MissingSortsOldest(t *testing.T) {
	missing := NormalizeTimestamp(nil)
	real := NormalizeTimestamp("2001-01-01T00:00:00Z")

	assert.True(t, missing.Before(real))
}
