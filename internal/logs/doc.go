// Package logs reads the daemon's run logs for the CLI.
//
// Last returns the trailing lines of a log with bounded memory. Follow polls
// for appended lines and starts over when the daemon's log pointer is
// replaced by a new run or the file is truncated. Only complete lines are
// ever returned, so a line being written is picked up on the next poll.
package logs
