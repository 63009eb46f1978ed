// Package httpapi serves the REST interface over the api.Service facade.
//
// Identity comes from the trusted X-User-ID header; an upstream gateway is
// expected to have authenticated the caller. Errors are returned as
// {"error": {"code", "message"}} with machine-readable codes.
package httpapi
