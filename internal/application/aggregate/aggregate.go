// Package aggregate folds per-check results into a HealthReport.
package aggregate

import (
	"time"

	"github.com/doeshing/vitals/internal/domain"
)

// Overall derives the run verdict:
// a fail on a HIGH or CRITICAL check fails the run, any other fail, warning or
// error downgrades it to warning, otherwise it passes.
func Overall(entries []domain.ReportEntry) domain.Status {
	overall := domain.StatusPass
	for _, e := range entries {
		switch e.Result.Status {
		case domain.StatusFail:
			if e.Severity.AtLeast(domain.SeverityHigh) {
				return domain.StatusFail
			}
			overall = domain.StatusWarning
		case domain.StatusWarning, domain.StatusError:
			overall = domain.StatusWarning
		}
	}
	return overall
}

// Summarize tallies entries by status and by severity.
func Summarize(entries []domain.ReportEntry) domain.Summary {
	summary := domain.Summary{
		Total:      len(entries),
		ByStatus:   make(map[domain.Status]int, len(domain.Statuses())),
		BySeverity: make(map[domain.Severity]int, len(domain.Severities())),
	}
	for _, s := range domain.Statuses() {
		summary.ByStatus[s] = 0
	}
	for _, s := range domain.Severities() {
		summary.BySeverity[s] = 0
	}
	for _, e := range entries {
		summary.ByStatus[e.Result.Status]++
		summary.BySeverity[e.Severity]++
		if e.FromCache {
			summary.FromCache++
		}
	}
	return summary
}

// Meta identifies the run a report belongs to.
type Meta struct {
	RunID       string
	Mode        domain.RunMode
	ProjectRoot string
	StartedAt   time.Time
	Duration    time.Duration
}

// Build assembles a report. Entries are copied so later mutation of the input
// slice cannot leak into the published report.
func Build(meta Meta, entries []domain.ReportEntry, healing []domain.HealingRecord) domain.HealthReport {
	results := make([]domain.ReportEntry, len(entries))
	for i, e := range entries {
		e.Result = e.Result.Clone()
		results[i] = e
	}
	var records []domain.HealingRecord
	if len(healing) > 0 {
		records = append(records, healing...)
	}
	return domain.HealthReport{
		RunID:         meta.RunID,
		Mode:          meta.Mode,
		ProjectRoot:   meta.ProjectRoot,
		StartedAt:     meta.StartedAt,
		Duration:      meta.Duration,
		Results:       results,
		Summary:       Summarize(results),
		OverallStatus: Overall(results),
		Healing:       records,
	}
}
