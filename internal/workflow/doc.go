// Package workflow drives parse jobs from pending to a terminal state.
//
// A manager polls the job store for pending work, claims jobs with a
// conditional status update, and processes them on a bounded worker pool.
// Each job extracts scenes from its script, publishes a capped preview while
// still processing, then settles quota and stores the full projected output.
// Stale processing jobs left behind by a crashed process are failed on the
// next poll; interrupted work is never resumed in place.
package workflow
