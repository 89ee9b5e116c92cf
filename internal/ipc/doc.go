// Package ipc serves shell commands over a Unix domain socket and ships the
// matching client used by the CLI.
//
// The wire protocol has no framing. A client connects and writes a command
// line; the daemon performs one read of at most RequestLimit bytes, runs the
// bytes up to the first NUL through "<shell> -c", and streams the command's
// standard output back as it is produced. Closing the connection is the only
// end-of-response signal: no exit status, error text, or trailer is ever sent.
//
// Server owns the listening socket and hands every accepted connection to its
// own goroutine without tracking it. Handler owns one connection from read to
// close. Neither bounds concurrency or applies timeouts.
package ipc
