// Package main hosts the cmdsock CLI entrypoint and command graph.
//
// The Cobra command tree starts, stops and inspects the daemon, sends
// commands over its socket, and reads the local connection history. Process
// control lives in internal/daemonctl and the wire protocol in internal/ipc;
// commands here only resolve configuration and render results.
package main
