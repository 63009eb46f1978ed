// Package jobs persists parse jobs and owns their status lifecycle.
//
// A job moves pending -> processing -> completed or failed. Terminal states
// never transition again; a re-parse of the same script is a new job. The
// store enforces the single-active-job rule at creation time: one user may
// have at most one pending or processing job per script.
package jobs
