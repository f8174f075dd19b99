// Package resolver turns a user supplied selector (an id, a name, or
// nothing) into exactly one identifier from a set of candidates.
//
// The same decision table applies to every resource type; a Rule says which
// descriptor fields a selector may match and, for billing groups, how to
// pick a default when no selector is given. Resolve never talks to the
// network so it can be tested without a live service.
package resolver
