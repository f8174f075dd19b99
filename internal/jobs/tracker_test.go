package jobs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/dewrangle/internal/client/clienttest"
	"github.com/wolfeidau/dewrangle/internal/models"
	"github.com/wolfeidau/dewrangle/internal/resolver"
)

const listAndHashJob = `{"job": {
	"id": "J1",
	"operation": "VOLUME_LIST_AND_HASH",
	"createdAt": "2024-03-01T10:00:00.000Z",
	"completedAt": "2024-03-01T10:05:00.123456Z",
	"errors": {"edges": []},
	"billingGroup": {"name": "main"},
	"cost": {"cents": 42},
	"parentJob": null,
	"children": [
		{"id": "J2", "operation": "VOLUME_LIST", "createdAt": "2024-03-01T10:00:01.000Z", "completedAt": "2024-03-01T10:01:00.000Z"},
		{"id": "J3", "operation": "VOLUME_HASH", "createdAt": "2024-03-01T10:01:01.000Z", "completedAt": "2024-03-01T10:05:00.000Z"}
	]
}}`

func TestTracker_Job(t *testing.T) {
	exec := clienttest.NewExecutor().Respond("Job", listAndHashJob)

	job, err := NewTracker(exec).Job(context.Background(), "J1")
	require.NoError(t, err)

	assert.Equal(t, "J1", job.ID)
	assert.Equal(t, models.OperationListAndHash, job.Operation)
	assert.Equal(t, "main", job.BillingGroup)
	require.NotNil(t, job.CostCents)
	assert.Equal(t, 42, *job.CostCents)
	require.Len(t, job.Children, 2)
	assert.Nil(t, job.ParentJob)
	assert.True(t, job.IsComplete())
	assert.Equal(t, 123456000, job.CompletedAt.Nanosecond())
}

func TestTracker_JobNotFound(t *testing.T) {
	exec := clienttest.NewExecutor().Respond("Job", `{"job": null}`)

	_, err := NewTracker(exec).Job(context.Background(), "missing")

	var nf *resolver.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, resolver.KindJob, nf.Kind)
}

func TestTracker_JobMalformedTimestamp(t *testing.T) {
	exec := clienttest.NewExecutor().Respond("Job", `{"job": {"id": "J1", "operation": "VOLUME_HASH", "createdAt": "2024-03-01 10:00:00", "completedAt": null, "children": []}}`)

	_, err := NewTracker(exec).Job(context.Background(), "J1")

	var mt *models.MalformedTimestampError
	require.ErrorAs(t, err, &mt)
	assert.Equal(t, "2024-03-01 10:00:00", mt.Value)
}

func TestTracker_Status(t *testing.T) {
	tests := []struct {
		name        string
		completedAt string
		want        Status
	}{
		{name: "complete", completedAt: `"2024-03-01T10:05:00.000Z"`, want: StatusComplete},
		{name: "null", completedAt: `null`, want: StatusIncomplete},
		{name: "empty", completedAt: `""`, want: StatusIncomplete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := clienttest.NewExecutor().Respond("Job",
				`{"job": {"id": "J1", "operation": "VOLUME_HASH", "createdAt": "2024-03-01T10:00:00.000Z", "completedAt": `+tt.completedAt+`, "children": []}}`)

			status, job, err := NewTracker(exec).Status(context.Background(), "J1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
			assert.Equal(t, "J1", job.ID)
		})
	}
}

func TestHashResultJob(t *testing.T) {
	t.Run("list and hash uses hash child", func(t *testing.T) {
		job := &models.Job{
			ID:        "P",
			Operation: models.OperationListAndHash,
			Children: []models.Job{
				{ID: "H", Operation: models.NewOperation("HASH")},
				{ID: "L", Operation: models.NewOperation("VOLUME_LIST")},
			},
		}

		id, err := HashResultJob(job)
		require.NoError(t, err)
		assert.Equal(t, "H", id)
	})

	t.Run("list and hash without hash child uses its own result", func(t *testing.T) {
		tests := []struct {
			name     string
			children []models.Job
		}{
			{name: "no children"},
			{name: "list child only", children: []models.Job{{ID: "L", Operation: models.OperationList}}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				job := &models.Job{ID: "P", Operation: models.OperationListAndHash, Children: tt.children}

				id, err := HashResultJob(job)
				require.NoError(t, err)
				assert.Equal(t, "P", id)
			})
		}
	})

	t.Run("plain jobs return their own id", func(t *testing.T) {
		for _, op := range []models.Operation{models.OperationList, models.OperationHash} {
			id, err := HashResultJob(&models.Job{ID: "X", Operation: op})
			require.NoError(t, err)
			assert.Equal(t, "X", id)
		}
	})

	t.Run("unknown operation", func(t *testing.T) {
		_, err := HashResultJob(&models.Job{ID: "X", Operation: models.NewOperation("VOLUME_COPY")})

		var nr *NoResultError
		require.ErrorAs(t, err, &nr)
		assert.Equal(t, models.Operation("VOLUME_COPY"), nr.Operation)
	})
}

const volumeJobs = `{"volume": {"id": "V1", "jobs": {"edges": [
	{"node": {"id": "early", "operation": "VOLUME_HASH", "createdAt": "2024-01-01T00:00:00.000Z", "completedAt": "2024-01-01T01:00:00.000Z"}},
	{"node": {"id": "late", "operation": "VOLUME_HASH", "createdAt": "2024-06-01T00:00:00.000Z", "completedAt": null}},
	{"node": {"id": "list", "operation": "VOLUME_LIST", "createdAt": "2024-09-01T00:00:00.000Z", "completedAt": null}}
]}}}`

func TestTracker_MostRecent(t *testing.T) {
	exec := clienttest.NewExecutor().Respond("VolumeJobs", volumeJobs)
	tracker := NewTracker(exec)

	id, err := tracker.MostRecent(context.Background(), "V1", "hash")
	require.NoError(t, err)
	assert.Equal(t, "late", id)

	id, err = tracker.MostRecent(context.Background(), "V1", "LIST")
	require.NoError(t, err)
	assert.Equal(t, "list", id)

	_, err = tracker.MostRecent(context.Background(), "V1", "list_and_hash")
	var nf *resolver.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, resolver.KindJob, nf.Kind)
}

func TestTracker_MostRecentUnsupportedType(t *testing.T) {
	exec := clienttest.NewExecutor()

	_, err := NewTracker(exec).MostRecent(context.Background(), "V1", "copy")
	require.ErrorContains(t, err, "unsupported job type")
	assert.Empty(t, exec.Calls())
}

func TestTracker_VolumeJobsMalformedTimestamp(t *testing.T) {
	exec := clienttest.NewExecutor().Respond("VolumeJobs", `{"volume": {"id": "V1", "jobs": {"edges": [
		{"node": {"id": "bad", "operation": "VOLUME_HASH", "createdAt": "2024-01-01T00:00:00Z", "completedAt": null}}
	]}}}`)

	_, err := NewTracker(exec).VolumeJobs(context.Background(), "V1")

	var mt *models.MalformedTimestampError
	require.ErrorAs(t, err, &mt)
}
