package client

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TransportError is returned when a request could not be completed: the
// network failed, the server answered with a non 2xx status, or the response
// body could not be decoded.
type TransportError struct {
	Operation  string
	StatusCode int    // zero when no response was received
	Body       string // truncated response body, if any
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Body != "":
		return fmt.Sprintf("%s: unexpected status %d: %s", e.Operation, e.StatusCode, e.Body)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: unexpected status %d", e.Operation, e.StatusCode)
	default:
		return fmt.Sprintf("%s: transport failure: %v", e.Operation, e.Err)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Temporary reports whether retrying the request could succeed.
func (e *TransportError) Temporary() bool {
	return e.StatusCode == 0 || e.StatusCode == 429 || e.StatusCode >= 500
}

// GraphQLError is returned when the server rejected a document with
// top-level GraphQL errors (bad query, unknown node, authorization).
type GraphQLError struct {
	Operation string
	Messages  []string
}

func (e *GraphQLError) Error() string {
	return fmt.Sprintf("%s: graphql error: %s", e.Operation, strings.Join(e.Messages, "; "))
}

// FieldPath is the field a mutation error refers to. The service may send
// a single name, a path, or null.
type FieldPath []string

func (f *FieldPath) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single != "" {
			*f = FieldPath{single}
		}
		return nil
	}

	var path []string
	if err := json.Unmarshal(data, &path); err != nil {
		return fmt.Errorf("invalid mutation error field: %w", err)
	}
	*f = path

	return nil
}

func (f FieldPath) String() string {
	return strings.Join(f, ".")
}

// MutationError is one entry of the structured error list every mutation
// payload carries.
type MutationError struct {
	Message string    `json:"message"`
	Field   FieldPath `json:"field"`
}

func (m MutationError) String() string {
	if len(m.Field) == 0 {
		return m.Message
	}
	return fmt.Sprintf("%s (field: %s)", m.Message, m.Field)
}

// MutationFailedError is returned when a mutation payload carries a non-empty
// error list. The payload itself is never inspected in that case.
type MutationFailedError struct {
	Mutation string
	Errors   []MutationError
}

func (e *MutationFailedError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Mutation, strings.Join(e.Messages(), "; "))
}

// Messages returns the server provided messages.
func (e *MutationFailedError) Messages() []string {
	msgs := make([]string, 0, len(e.Errors))
	for _, me := range e.Errors {
		msgs = append(msgs, me.String())
	}
	return msgs
}

// CheckMutation converts a mutation's error list into a MutationFailedError.
func CheckMutation(mutation string, errs []MutationError) error {
	if len(errs) == 0 {
		return nil
	}
	return &MutationFailedError{Mutation: mutation, Errors: errs}
}
