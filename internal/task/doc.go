// Package task runs background summarization jobs in process.
//
// A TaskQueue carries tasks to a bounded pool of workers owned by a
// TaskRunner. The queue suppresses duplicates by task key, so the same
// (video, playlist) job is never queued, running, and waiting for a retry at
// the same time. Tasks ask for a delayed retry by returning a *RetryError;
// the runner then frees the worker and re-delivers the task from a timer.
//
// Enrichment records in the database are the durable journal. The
// RecoveryScanner re-enqueues every record that still has attempts left,
// at startup and optionally on an interval, so work lost to a restart or a
// full queue is picked up again.
package task
