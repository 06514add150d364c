package domain

import "time"

// HistoryRecord summarizes one persisted run.
type HistoryRecord struct {
	RunID         string    `json:"run_id"`
	Timestamp     time.Time `json:"timestamp"`
	ProjectRoot   string    `json:"project_root"`
	Mode          RunMode   `json:"mode"`
	OverallStatus Status    `json:"overall_status"`
	Total         int       `json:"total"`
	Passed        int       `json:"passed"`
	Warnings      int       `json:"warnings"`
	Failed        int       `json:"failed"`
	Errors        int       `json:"errors"`
	AutoFixed     int       `json:"auto_fixed"`
	DurationMS    int64     `json:"duration_ms"`
}

// NewHistoryRecord summarizes a report for persistence.
func NewHistoryRecord(report HealthReport) HistoryRecord {
	return HistoryRecord{
		RunID:         report.RunID,
		Timestamp:     report.StartedAt,
		ProjectRoot:   report.ProjectRoot,
		Mode:          report.Mode,
		OverallStatus: report.OverallStatus,
		Total:         report.Summary.Total,
		Passed:        report.Summary.Count(StatusPass),
		Warnings:      report.Summary.Count(StatusWarning),
		Failed:        report.Summary.Count(StatusFail),
		Errors:        report.Summary.Count(StatusError),
		AutoFixed:     report.AutoFixedCount(),
		DurationMS:    report.Duration.Milliseconds(),
	}
}

// CacheEntry is one memoized check result.
type CacheEntry struct {
	Key         string      `json:"key"`
	CheckID     string      `json:"check_id"`
	Fingerprint string      `json:"fingerprint"`
	Result      CheckResult `json:"result"`
	CreatedAt   time.Time   `json:"created_at"`
	ExpiresAt   time.Time   `json:"expires_at"`
}

// Expired reports whether the entry is stale at now.
func (e CacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}
