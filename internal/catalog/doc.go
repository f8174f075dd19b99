// Package catalog builds in-memory indexes of the organizations, studies,
// credentials, billing groups and volumes visible to the current principal.
//
// Each method issues one read query and flattens the GraphQL connection
// shape into a map keyed by id. There is no caching; the index is rebuilt on
// every invocation. Transport errors are returned unchanged.
package catalog
