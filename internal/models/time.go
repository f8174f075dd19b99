package models

import (
	"fmt"
	"regexp"
	"time"
)

// TimestampLayout is the ISO-8601 layout the service uses for job timestamps.
const TimestampLayout = "2006-01-02T15:04:05.999999999Z"

var timestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{1,9}Z$`)

// MalformedTimestampError is returned when a job timestamp does not match
// TimestampLayout.
type MalformedTimestampError struct {
	Value string
	Err   error
}

func (e *MalformedTimestampError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed timestamp %q: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("malformed timestamp %q: expected format YYYY-MM-DDTHH:MM:SS.fffZ", e.Value)
}

func (e *MalformedTimestampError) Unwrap() error {
	return e.Err
}

// ParseTimestamp parses a job timestamp. The fractional seconds are required.
func ParseTimestamp(s string) (time.Time, error) {
	if !timestampPattern.MatchString(s) {
		return time.Time{}, &MalformedTimestampError{Value: s}
	}

	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return time.Time{}, &MalformedTimestampError{Value: s, Err: err}
	}

	return t, nil
}

// ParseOptionalTimestamp parses a nullable timestamp. Nil or empty input
// means the event has not happened and returns nil.
func ParseOptionalTimestamp(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}

	t, err := ParseTimestamp(*s)
	if err != nil {
		return nil, err
	}

	return &t, nil
}
