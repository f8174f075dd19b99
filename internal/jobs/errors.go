package jobs

import (
	"fmt"

	"github.com/wolfeidau/dewrangle/internal/models"
)

// NoResultError is returned when a job's operation produces no downloadable
// result.
type NoResultError struct {
	JobID     string
	Operation models.Operation
}

func (e *NoResultError) Error() string {
	return fmt.Sprintf("job %s of type %s does not have results to download", e.JobID, e.Operation)
}
