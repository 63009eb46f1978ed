// Package scripts persists uploaded screenplay documents in SQLite.
//
// Ingestion accepts plain text, Fountain, or PDF uploads, normalizes the
// content to canonical UTF-8 text, estimates a page count, and fingerprints
// the content so duplicate uploads are detectable. Script content is
// immutable once stored; only soft metadata may change.
package scripts
