// Package quota enforces per-user page budgets for full parses.
//
// Usage is committed in two phases: a reservation holds pages while a parse
// runs, and only a successful parse commits them to the persistent counter.
// A failed parse releases the hold, so users are never charged for work that
// produced no output. All phases of one user's accounting run under that
// user's critical section, which keeps concurrent parses from overdrawing
// the ceiling.
package quota
