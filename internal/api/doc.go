// Package api exposes script and job operations as a transport-neutral
// service facade. It owns request validation, ownership checks, and the
// translation of internal models into DTOs, so the HTTP layer and the CLI
// share one set of semantics.
//
// DTOs use camelCase JSON tags. Stored parse output is passed through as
// json.RawMessage to avoid double-encoding.
package api
