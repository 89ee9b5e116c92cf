// Package history records handled daemon connections in SQLite.
//
// Each entry captures the command line a client sent, when it ran, how many
// bytes flowed each way, the shell's exit code, and how the exchange ended.
// The store is an audit trail only: nothing in it is ever sent back to a
// client, and the daemon runs without it unless history.enabled is set.
//
// Schema changes bump schemaVersion in schema.go; operators delete the
// database to adopt the new schema.
package history
