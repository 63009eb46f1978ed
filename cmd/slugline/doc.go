// Command slugline is the screenplay parsing service CLI. It runs the serve
// daemon and offers script, job, user, and config utilities against the
// shared database.
package main
