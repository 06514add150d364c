package commands

import "github.com/doeshing/vitals/internal/domain"

// CLI-specific constants
const (
	// DefaultEditorCommand is the default editor command
	DefaultEditorCommand = "vi"
	// DefaultHistoryLimit is the default number of runs to display
	DefaultHistoryLimit = domain.DefaultHistoryLimit
	// TimestampFormat is the standard timestamp format
	TimestampFormat = domain.TimestampFormat
	// DefaultHealTier is used when neither --max-tier nor healing.max_tier allow fixes
	DefaultHealTier = 1
	// topFailingChecks bounds the "most failing" table of history stats
	topFailingChecks = 5
)

// Annotations read by the root command.
const (
	// AnnotationSkipContainer marks commands that run without a project container
	AnnotationSkipContainer = "vitals/skip-container"
)

// Error messages
const (
	ErrDoctorServiceUnavailable = "doctor service unavailable"
	ErrHistoryStoreUnavailable  = "history store unavailable"
	ErrCacheStoreUnavailable    = "cache store unavailable"
	ErrKeyRequired              = "--key is required"
	ErrInvalidRetainDays        = "--days must be > 0"
	ErrInvalidLimit             = "--limit must be > 0"
	ErrInvalidMaxTier           = "--max-tier must be >= 0"
)

// Success messages
const (
	MsgConfigurationValid       = "Configuration valid"
	MsgNoDifferencesFromDefault = "No differences from default configuration."
	MsgNoHistoryRecorded        = "No history recorded yet."
	MsgNoCachedResults          = "No cached results."
	MsgInitCancelled            = "Init cancelled."
	MsgHistoryCleared           = "History cleared."
	MsgCacheCleared             = "Cache cleared."
)
