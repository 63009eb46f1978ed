// Package logging wraps log/slog with the console and JSON handlers used
// across slugline, plus standardized attribute helpers so job, script, and
// user identifiers show up under consistent keys in every component.
package logging
