package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOperation(t *testing.T) {
	tests := []struct {
		in   string
		want Operation
	}{
		{"hash", OperationHash},
		{"HASH", OperationHash},
		{"Volume_Hash", OperationHash},
		{"list", OperationList},
		{"VOLUME_LIST", OperationList},
		{"list_and_hash", OperationListAndHash},
		{" VOLUME_LIST_AND_HASH ", OperationListAndHash},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOperation(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseOperation("copy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported job type")
}

func TestNewOperation_KeepsUnknown(t *testing.T) {
	assert.Equal(t, OperationHash, NewOperation("HASH"))
	assert.Equal(t, Operation("VOLUME_COPY"), NewOperation("volume_copy"))
	assert.False(t, NewOperation("volume_copy").Valid())
	assert.True(t, OperationListAndHash.Valid())
}

func TestParseTimestamp(t *testing.T) {
	t.Run("milliseconds", func(t *testing.T) {
		got, err := ParseTimestamp("2024-06-01T12:30:45.123Z")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 6, 1, 12, 30, 45, 123000000, time.UTC), got)
	})

	t.Run("microseconds", func(t *testing.T) {
		got, err := ParseTimestamp("2024-06-01T12:30:45.000001Z")
		require.NoError(t, err)
		assert.Equal(t, 1000, got.Nanosecond())
	})

	for _, bad := range []string{
		"",
		"2024-06-01T12:30:45Z",
		"2024-06-01 12:30:45.000Z",
		"2024-06-01T12:30:45.000+00:00",
		"2024-13-01T12:30:45.000Z",
		"yesterday",
	} {
		t.Run("rejects "+bad, func(t *testing.T) {
			_, err := ParseTimestamp(bad)
			var tsErr *MalformedTimestampError
			require.ErrorAs(t, err, &tsErr)
			assert.Equal(t, bad, tsErr.Value)
		})
	}
}

func TestParseOptionalTimestamp(t *testing.T) {
	got, err := ParseOptionalTimestamp(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	empty := ""
	got, err = ParseOptionalTimestamp(&empty)
	require.NoError(t, err)
	assert.Nil(t, got)

	value := "2024-01-01T00:00:00.000Z"
	got, err = ParseOptionalTimestamp(&value)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2024, got.Year())

	bad := "not a time"
	_, err = ParseOptionalTimestamp(&bad)
	require.Error(t, err)
}

func TestJob_Child(t *testing.T) {
	job := Job{
		ID:        "parent",
		Operation: OperationListAndHash,
		Children: []Job{
			{ID: "list", Operation: OperationList},
			{ID: "hash", Operation: OperationHash},
		},
	}

	child, ok := job.Child(OperationHash)
	require.True(t, ok)
	assert.Equal(t, "hash", child.ID)

	_, ok = job.Child(OperationListAndHash)
	assert.False(t, ok)
	assert.False(t, job.IsComplete())
}
