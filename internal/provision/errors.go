package provision

import (
	"fmt"
	"strings"

	"github.com/wolfeidau/dewrangle/internal/resolver"
)

// ConflictError is returned when a resource with the requested name already
// exists and the caller did not opt out of the existence check.
type ConflictError struct {
	Kind        resolver.Kind
	Name        string
	ExistingIDs []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q already exists: %s", e.Kind, e.Name, strings.Join(e.ExistingIDs, ", "))
}

// PartialError is returned when a volume was created but a later step
// failed. The volume is left in place and must be hashed again by hand.
type PartialError struct {
	VolumeID string
	Err      error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("volume %s was created but hashing was not started: %v", e.VolumeID, e.Err)
}

func (e *PartialError) Unwrap() error {
	return e.Err
}
