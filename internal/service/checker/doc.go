// Package checker polls the lost-alarm gRPC health endpoint, either once for
// scripts and probes or continuously as a watchdog that logs status changes.
package checker
