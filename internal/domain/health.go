package domain

import "time"

// ReportEntry pairs a check's identity with the result of one execution.
type ReportEntry struct {
	CheckID     string         `json:"check_id"`
	Name        string         `json:"name"`
	Category    Category       `json:"category"`
	Severity    Severity       `json:"severity"`
	HealingTier int            `json:"healing_tier"`
	Healable    bool           `json:"healable"`
	Result      CheckResult    `json:"result"`
	Duration    time.Duration  `json:"duration_ns"`
	Timestamp   time.Time      `json:"timestamp"`
	FromCache   bool           `json:"from_cache"`
	Healing     *HealingRecord `json:"healing,omitempty"`
}

// Summary tallies results by status and by severity.
type Summary struct {
	Total      int              `json:"total"`
	ByStatus   map[Status]int   `json:"by_status"`
	BySeverity map[Severity]int `json:"by_severity"`
	FromCache  int              `json:"from_cache"`
}

// Count returns the number of results with the given status.
func (s Summary) Count(status Status) int {
	return s.ByStatus[status]
}

// HealthReport is the immutable aggregate of one run.
type HealthReport struct {
	RunID         string          `json:"run_id"`
	Mode          RunMode         `json:"mode"`
	ProjectRoot   string          `json:"project_root"`
	StartedAt     time.Time       `json:"started_at"`
	Duration      time.Duration   `json:"duration_ns"`
	Results       []ReportEntry   `json:"results"`
	Summary       Summary         `json:"summary"`
	OverallStatus Status          `json:"overall_status"`
	Healing       []HealingRecord `json:"healing,omitempty"`
}

// Entry returns the entry for a check id.
func (r HealthReport) Entry(checkID string) (ReportEntry, bool) {
	for _, e := range r.Results {
		if e.CheckID == checkID {
			return e, true
		}
	}
	return ReportEntry{}, false
}

// Issues returns the entries that need attention, in execution order.
func (r HealthReport) Issues() []ReportEntry {
	var issues []ReportEntry
	for _, e := range r.Results {
		if e.Result.Status != StatusPass {
			issues = append(issues, e)
		}
	}
	return issues
}

// AutoFixedCount counts healing records whose fix was applied successfully.
func (r HealthReport) AutoFixedCount() int {
	n := 0
	for _, rec := range r.Healing {
		if rec.Succeeded() {
			n++
		}
	}
	return n
}

// ExitCode maps the overall verdict to a process exit code.
func (r HealthReport) ExitCode() int {
	if r.OverallStatus == StatusFail {
		return 1
	}
	return 0
}

// RunMode selects a preset of checks.
type RunMode string

const (
	// ModeQuick skips network-bound service checks.
	ModeQuick RunMode = "quick"
	ModeFull  RunMode = "full"
)

// ParseRunMode validates a mode name; empty means quick.
func ParseRunMode(raw string) (RunMode, error) {
	switch RunMode(raw) {
	case "", ModeQuick:
		return ModeQuick, nil
	case ModeFull:
		return ModeFull, nil
	}
	return "", NewConfigurationError("mode", "unknown run mode %q (want quick|full)", raw)
}
