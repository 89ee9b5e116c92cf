// Package daemonrun assembles and runs the cmdsock daemon process: per-run
// log files, the single-instance lock, the optional history store and the
// socket listener.
package daemonrun
