// Package daemon ties the HTTP server and workflow manager into a single
// lifecycle with flock-based locking to prevent multiple instances from
// sharing one database.
package daemon
