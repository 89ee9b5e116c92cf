// Package daemon owns the single-instance guarantee for the cmdsock process.
//
// A daemon holds a flock on the state directory's lock file for as long as it
// runs and records its pid next to it. Only one daemon per state directory can
// bind the socket, which keeps exactly one listener owning the socket path.
// LockHeld and ReadPID let other processes inspect that state without talking
// to the daemon.
package daemon
