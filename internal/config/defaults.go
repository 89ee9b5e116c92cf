package config

const (
	// DefaultSocketPath is the well-known path the daemon binds.
	DefaultSocketPath = "/data/local/tmp/adb_daemon.sock"
	// DefaultBacklog is the listen backlog for the daemon socket.
	DefaultBacklog = 10
	// DefaultSocketMode leaves the socket connectable by any local user.
	DefaultSocketMode = "0666"

	defaultStateDir             = "~/.local/share/cmdsock"
	defaultShell                = "/bin/sh"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 30
	defaultHistoryRetentionDays = 30
	defaultHistoryFile          = "history.db"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SocketPath: DefaultSocketPath,
			StateDir:   defaultStateDir,
		},
		Server: Server{
			Backlog:       DefaultBacklog,
			SocketMode:    DefaultSocketMode,
			Shell:         defaultShell,
			ForwardStderr: true,
		},
		History: History{
			RetentionDays: defaultHistoryRetentionDays,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
