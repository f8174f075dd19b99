package resolver

import (
	"fmt"
	"strings"
)

// NotFoundError is returned when no candidate matched the selector.
type NotFoundError struct {
	Kind      Kind
	Selector  string
	NoDefault bool // no selector was given and no candidate is flagged default
}

func (e *NotFoundError) Error() string {
	if e.NoDefault {
		return fmt.Sprintf("no %s selected and none is marked default", e.Kind)
	}
	if e.Selector == "" {
		return fmt.Sprintf("no %s available", e.Kind)
	}
	return fmt.Sprintf("%s %q not found", e.Kind, e.Selector)
}

// AmbiguousError is returned when more than one candidate matched. IDs holds
// every match so the user can retry with an id.
type AmbiguousError struct {
	Kind     Kind
	Selector string
	IDs      []string
}

func (e *AmbiguousError) Error() string {
	if e.Selector == "" {
		return fmt.Sprintf("multiple %s found but none selected, provide one of: %s",
			e.Kind, strings.Join(e.IDs, ", "))
	}
	return fmt.Sprintf("%s %q matches %d candidates, provide one of: %s",
		e.Kind, e.Selector, len(e.IDs), strings.Join(e.IDs, ", "))
}
