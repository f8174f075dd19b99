package commands

import (
	"errors"

	"github.com/wolfeidau/dewrangle/internal/client"
	"github.com/wolfeidau/dewrangle/internal/jobs"
	"github.com/wolfeidau/dewrangle/internal/models"
	"github.com/wolfeidau/dewrangle/internal/provision"
	"github.com/wolfeidau/dewrangle/internal/resolver"
)

// Process exit codes for each class of failure.
const (
	ExitOK                 = 0
	ExitError              = 1
	ExitNotFound           = 2
	ExitAmbiguous          = 3
	ExitConflict           = 4
	ExitMutationFailed     = 5
	ExitTransport          = 6
	ExitMalformedTimestamp = 7
	ExitNoResult           = 8
)

// ExitCode maps an error returned by a command to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		notFound  *resolver.NotFoundError
		ambiguous *resolver.AmbiguousError
		conflict  *provision.ConflictError
		mutation  *client.MutationFailedError
		transport *client.TransportError
		gqlErr    *client.GraphQLError
		timestamp *models.MalformedTimestampError
		noResult  *jobs.NoResultError
	)

	switch {
	case errors.As(err, &notFound):
		return ExitNotFound
	case errors.As(err, &ambiguous):
		return ExitAmbiguous
	case errors.As(err, &conflict):
		return ExitConflict
	case errors.As(err, &mutation):
		return ExitMutationFailed
	case errors.As(err, &transport), errors.As(err, &gqlErr):
		return ExitTransport
	case errors.As(err, &timestamp):
		return ExitMalformedTimestamp
	case errors.As(err, &noResult):
		return ExitNoResult
	default:
		return ExitError
	}
}
