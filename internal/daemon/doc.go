// Package daemon runs the long-lived "ytframes serve" process.
//
// It takes a flock-based single-instance lock, fails sessions a previous
// process left mid-run, sweeps abandoned work directories, and serves the
// session API until its context ends. Shutdown stops the HTTP server, waits
// for background sessions, and releases the lock.
//
// Keep orchestration logic here: pipeline steps live in workflow while the
// daemon focuses on startup, shutdown, and high level coordination.
package daemon
