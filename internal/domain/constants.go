package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// FilePermissions is the default permission for project files (rw-r--r--)
	FilePermissions = 0o644
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
)

// Layout constants
const (
	// StateDirName is the per-project directory holding config, cache and history
	StateDirName = ".vitals"
	// ConfigFileName is the config file inside StateDirName
	ConfigFileName = "config.yaml"
	// BackupSuffix is appended to files a fix rewrites
	BackupSuffix = ".vitals.bak"
)

// Timeout and duration constants
const (
	// DefaultCheckTimeout bounds a single check execution
	DefaultCheckTimeout = 10 * time.Second
	// DefaultCacheTTL is used for cacheable checks without their own TTL
	DefaultCacheTTL = 5 * time.Minute
	// DefaultProbeTimeout bounds a single HTTP reachability probe
	DefaultProbeTimeout = 5 * time.Second
	// DefaultCommandTimeout bounds helper subprocesses inside checks
	DefaultCommandTimeout = 5 * time.Second
)

// Limit constants
const (
	// DefaultConcurrency is the number of checks run in parallel
	DefaultConcurrency = 4
	// DefaultMaxCacheEntries is the maximum number of persisted cache entries
	DefaultMaxCacheEntries = 200
	// DefaultProbeRate is the number of outbound probes per second
	DefaultProbeRate = 5.0
)

// History constants
const (
	// DefaultHistoryLimit is the default number of runs to display
	DefaultHistoryLimit = 20
	// DefaultHistoryRetainDays is the default number of days to retain runs
	DefaultHistoryRetainDays = 30
)

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339
)
