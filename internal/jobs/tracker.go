package jobs

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/dewrangle/internal/client"
	"github.com/wolfeidau/dewrangle/internal/models"
	"github.com/wolfeidau/dewrangle/internal/resolver"
	"github.com/wolfeidau/dewrangle/internal/telemetry"
)

// Status is the coarse completion state of a job.
type Status string

const (
	StatusComplete   Status = "Complete"
	StatusIncomplete Status = "Incomplete"
)

// Tracker queries job state.
type Tracker struct {
	exec    client.Executor
	metrics *telemetry.Metrics
}

func NewTracker(exec client.Executor) *Tracker {
	return &Tracker{exec: exec, metrics: telemetry.GetMetrics()}
}

// Job fetches a job together with its parent and children.
func (t *Tracker) Job(ctx context.Context, id string) (*models.Job, error) {
	var result struct {
		Job *jobNode `json:"job"`
	}

	if err := t.exec.Execute(ctx, jobQuery, map[string]any{"id": id}, &result); err != nil {
		return nil, err
	}
	if result.Job == nil || result.Job.ID == "" {
		return nil, &resolver.NotFoundError{Kind: resolver.KindJob, Selector: id}
	}

	return result.Job.toModel()
}

// Status reports whether the job has completed.
func (t *Tracker) Status(ctx context.Context, id string) (Status, *models.Job, error) {
	job, err := t.Job(ctx, id)
	if err != nil {
		return "", nil, err
	}
	return StatusOf(job), job, nil
}

// StatusOf derives the status from the job's completion time.
func StatusOf(job *models.Job) Status {
	if job.IsComplete() {
		return StatusComplete
	}
	return StatusIncomplete
}

// HashResultJob returns the id of the job whose result holds the hashes.
// A list and hash job delegates to its hash child when it has one and
// otherwise serves its own result. Plain list or hash jobs return their own id.
func HashResultJob(job *models.Job) (string, error) {
	switch job.Operation {
	case models.OperationListAndHash:
		if child, ok := job.Child(models.OperationHash); ok {
			return child.ID, nil
		}
		return job.ID, nil
	case models.OperationList, models.OperationHash:
		return job.ID, nil
	default:
		return "", &NoResultError{JobID: job.ID, Operation: job.Operation}
	}
}

// VolumeJobs returns every job run against a volume in the order the
// service lists them.
func (t *Tracker) VolumeJobs(ctx context.Context, volumeID string) ([]models.Job, error) {
	var result struct {
		Volume *struct {
			Jobs struct {
				Edges []struct {
					Node jobNode `json:"node"`
				} `json:"edges"`
			} `json:"jobs"`
		} `json:"volume"`
	}

	if err := t.exec.Execute(ctx, volumeJobsQuery, map[string]any{"id": volumeID}, &result); err != nil {
		return nil, err
	}
	if result.Volume == nil {
		return nil, &resolver.NotFoundError{Kind: resolver.KindVolume, Selector: volumeID}
	}

	jobs := make([]models.Job, 0, len(result.Volume.Jobs.Edges))
	for i := range result.Volume.Jobs.Edges {
		job, err := result.Volume.Jobs.Edges[i].Node.toModel()
		if err != nil {
			return nil, fmt.Errorf("job %s: %w", result.Volume.Jobs.Edges[i].Node.ID, err)
		}
		jobs = append(jobs, *job)
	}

	zerolog.Ctx(ctx).Debug().Str("volume_id", volumeID).Int("count", len(jobs)).Msg("fetched volume jobs")

	return jobs, nil
}

// MostRecent returns the id of the latest job of jobType on a volume.
// jobType accepts the short aliases list and hash in any case.
func (t *Tracker) MostRecent(ctx context.Context, volumeID, jobType string) (string, error) {
	op, err := models.ParseOperation(jobType)
	if err != nil {
		return "", err
	}

	jobs, err := t.VolumeJobs(ctx, volumeID)
	if err != nil {
		return "", err
	}

	id, ok := Latest(jobs, op)
	if !ok {
		return "", &resolver.NotFoundError{Kind: resolver.KindJob, Selector: string(op)}
	}

	return id, nil
}

// Latest returns the id of the job of operation op with the greatest
// creation time.
func Latest(jobs []models.Job, op models.Operation) (string, bool) {
	var latest *models.Job
	for i := range jobs {
		if jobs[i].Operation != op {
			continue
		}
		if latest == nil || jobs[i].CreatedAt.After(latest.CreatedAt) {
			latest = &jobs[i]
		}
	}
	if latest == nil {
		return "", false
	}
	return latest.ID, true
}
