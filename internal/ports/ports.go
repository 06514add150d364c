// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the diagnostics engine and external
// adapters (infrastructure). Checks, caches, report stores and prompters are all
// expressed here so the application layer stays independent of the filesystem, SQLite,
// HTTP clients and the CLI framework.
//
// Key architectural concepts:
//   - Ports: Interfaces defined here (e.g., Check, ResultCache, ReportStore)
//   - Adapters: Concrete implementations in the infrastructure layer and internal/checks
//   - Dependency inversion: Application depends on abstractions, not implementations
package ports

import (
	"context"
	"time"

	"github.com/doeshing/vitals/internal/domain"
)

// Check is the leaf contract every diagnostic implements.
// Execute must not mutate process-global state and must honour ctx cancellation.
type Check interface {
	ID() string
	Category() domain.Category
	Severity() domain.Severity
	Cacheable() bool
	HealingTier() int
	Execute(ctx context.Context, cc domain.CheckContext) (domain.CheckResult, error)
}

// HealerProvider is implemented by checks that know how to remediate their negative results.
type HealerProvider interface {
	Healer() *domain.Healer
}

// CacheKeyer lets a cacheable check add inputs to its cache fingerprint
// beyond the project root and check id.
type CacheKeyer interface {
	CacheKey(cc domain.CheckContext) []string
}

// TimeoutProvider overrides the engine's default execution timeout for one check.
type TimeoutProvider interface {
	Timeout() time.Duration
}

// TTLProvider overrides the engine's default cache TTL for one check.
type TTLProvider interface {
	TTL() time.Duration
}

// Describer exposes display metadata for listings and reports.
type Describer interface {
	Name() string
	Description() string
	Tags() []string
}

// ResultCache memoizes results of cacheable checks.
// Implementations must allow concurrent readers and serialize writers.
type ResultCache interface {
	Get(checkID, fingerprint string) (domain.CheckResult, bool)
	Put(checkID, fingerprint string, result domain.CheckResult, ttl time.Duration) error
	Invalidate(checkID string) error
	InvalidateAll() error
}

// CacheAdmin is implemented by caches that can be inspected from the CLI.
type CacheAdmin interface {
	Entries() ([]domain.CacheEntry, error)
	Stats() (CacheStats, error)
}

// CacheStats describes the current cache footprint.
type CacheStats struct {
	Entries   int
	Expired   int
	SizeBytes int64
	Location  string
}

// ReportStore persists completed run reports.
type ReportStore interface {
	Save(ctx context.Context, report domain.HealthReport) error
	List(ctx context.Context, limit int) ([]domain.HistoryRecord, error)
	Load(ctx context.Context, runID string) (domain.HealthReport, error)
	Prune(ctx context.Context, olderThan time.Time) (int, error)
	Clear(ctx context.Context) error
}

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from <project>/.vitals/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// ContextCollector snapshots the environment a run is evaluated against.
type ContextCollector interface {
	Collect(ctx context.Context, projectRoot string) (domain.CheckContext, error)
}

// CommandRunner executes helper subprocesses on behalf of checks and fixes.
// A non-zero exit status is reported through CommandResult, not as an error.
type CommandRunner interface {
	Run(ctx context.Context, dir string, name string, args ...string) (domain.CommandResult, error)
}

// Prober checks reachability of an HTTP endpoint.
type Prober interface {
	Probe(ctx context.Context, url string) (domain.ProbeResult, error)
}

// Confirmer asks the operator before invasive fixes are applied.
type Confirmer interface {
	Confirm(checkID string, tier int, healer domain.Healer) (bool, error)
	Enabled() bool
}

// ReportRenderer writes a report in one output format.
type ReportRenderer interface {
	Render(report domain.HealthReport) ([]byte, error)
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, files, external services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
