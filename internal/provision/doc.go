// Package provision implements the workflows that change server state:
// attaching a bucket to a study as a volume and launching list and hash jobs
// on it, deleting volumes and creating studies.
//
// Each workflow resolves its inputs through the catalog and resolver
// packages, then issues mutations in a fixed order. A failing step aborts
// every later step. Nothing is rolled back; see PartialError.
package provision
