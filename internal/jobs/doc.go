// Package jobs observes the asynchronous jobs the service runs against
// volumes: their completion status, the job holding a hash result, the most
// recent job of a kind, and the CSV result of a completed job.
//
// Status checks are one-shot. Nothing here polls or waits for a job.
package jobs
