package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestTimestamp_UnmarshalLayouts(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{name: "timestamptz", input: `"2025-06-01T10:30:00+00:00"`, want: time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)},
		{name: "fractional_offset", input: `"2025-06-01T10:30:00.123456-03:00"`, want: time.Date(2025, 6, 1, 13, 30, 0, 123456000, time.UTC)},
		{name: "without_zone", input: `"2025-06-01T10:30:00"`, want: time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)},
		{name: "postgres_style", input: `"2025-06-01 10:30:00+00"`, want: time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)},
		{name: "date_only", input: `"2025-06-01"`, want: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.input), &ts))
			assert.True(t, tt.want.Equal(ts.Time), "got %s", ts.Time)
		})
	}
}

func TestTimestamp_NullAndInvalid(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	assert.Error(t, json.Unmarshal([]byte(`12`), &ts))

	out, err := json.Marshal(Timestamp{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestStartOfDay_UsesWrittenDate(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	due := time.Date(2025, 6, 1, 23, 59, 0, 0, time.UTC)

	start := StartOfDay(due, loc)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, loc), start)
	assert.Equal(t, "2025-06-01", DateOnly(start, loc))
}

func TestWorkflowState_Terminal(t *testing.T) {
	assert.True(t, WorkflowComplete.Terminal())
	assert.True(t, WorkflowFailed.Terminal())
	assert.False(t, WorkflowSaleInserted.Terminal())
}

func TestTimestamp_BSONRoundTrip(t *testing.T) {
	type doc struct {
		At   Timestamp `bson:"at"`
		Zero Timestamp `bson:"zero"`
	}
	in := doc{At: NewTimestamp(time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC))}

	raw, err := bson.Marshal(in)
	require.NoError(t, err)

	var out doc
	require.NoError(t, bson.Unmarshal(raw, &out))
	assert.True(t, in.At.Equal(out.At.Time))
	assert.True(t, out.Zero.IsZero())
}
