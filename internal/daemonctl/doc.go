// Package daemonctl starts, stops and inspects cmdsock daemon processes from
// the CLI. Process state is read from the lock and pid files; the socket is
// only ever probed with empty connections.
package daemonctl
