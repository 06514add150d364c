package aggregate_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/doeshing/vitals/internal/application/aggregate"
	"github.com/doeshing/vitals/internal/domain"
)

func entry(id string, sev domain.Severity, status domain.Status) domain.ReportEntry {
	return domain.ReportEntry{CheckID: id, Severity: sev, Result: domain.CheckResult{Status: status, Message: id}}
}

func TestOverall(t *testing.T) {
	tests := []struct {
		name    string
		entries []domain.ReportEntry
		want    domain.Status
	}{
		{
			name:    "critical fail fails the run",
			entries: []domain.ReportEntry{entry("a.a", domain.SeverityLow, domain.StatusPass), entry("a.b", domain.SeverityCritical, domain.StatusFail)},
			want:    domain.StatusFail,
		},
		{
			name:    "high fail fails the run",
			entries: []domain.ReportEntry{entry("a.a", domain.SeverityHigh, domain.StatusFail)},
			want:    domain.StatusFail,
		},
		{
			name:    "medium fail only warns",
			entries: []domain.ReportEntry{entry("a.a", domain.SeverityMedium, domain.StatusFail), entry("a.b", domain.SeverityHigh, domain.StatusPass)},
			want:    domain.StatusWarning,
		},
		{
			name:    "warnings warn",
			entries: []domain.ReportEntry{entry("a.a", domain.SeverityCritical, domain.StatusWarning)},
			want:    domain.StatusWarning,
		},
		{
			name:    "errors warn even on critical checks",
			entries: []domain.ReportEntry{entry("a.a", domain.SeverityCritical, domain.StatusError)},
			want:    domain.StatusWarning,
		},
		{
			name:    "all pass",
			entries: []domain.ReportEntry{entry("a.a", domain.SeverityCritical, domain.StatusPass), entry("a.b", domain.SeverityInfo, domain.StatusPass)},
			want:    domain.StatusPass,
		},
		{
			name: "empty run passes",
			want: domain.StatusPass,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, aggregate.Overall(tt.entries))
		})
	}
}

func TestSummarize(t *testing.T) {
	entries := []domain.ReportEntry{
		entry("a.a", domain.SeverityCritical, domain.StatusPass),
		entry("a.b", domain.SeverityCritical, domain.StatusFail),
		entry("a.c", domain.SeverityLow, domain.StatusError),
		entry("a.d", domain.SeverityLow, domain.StatusWarning),
	}
	entries[0].FromCache = true

	s := aggregate.Summarize(entries)

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 1, s.Count(domain.StatusPass))
	assert.Equal(t, 1, s.Count(domain.StatusFail))
	assert.Equal(t, 1, s.Count(domain.StatusError))
	assert.Equal(t, 1, s.Count(domain.StatusWarning))
	assert.Equal(t, 2, s.BySeverity[domain.SeverityCritical])
	assert.Equal(t, 0, s.BySeverity[domain.SeverityHigh])
	assert.Equal(t, 1, s.FromCache)
}

func TestBuild_CopiesInput(t *testing.T) {
	entries := []domain.ReportEntry{entry("a.a", domain.SeverityHigh, domain.StatusFail)}
	entries[0].Result.Details = map[string]interface{}{"missing": "README.md"}

	report := aggregate.Build(aggregate.Meta{RunID: "r1", Mode: domain.ModeQuick, StartedAt: time.Now()}, entries, nil)
	entries[0].Result.Status = domain.StatusPass
	entries[0].Result.Details["missing"] = "nothing"

	assert.Equal(t, "r1", report.RunID)
	assert.Equal(t, domain.StatusFail, report.OverallStatus)
	assert.Equal(t, domain.StatusFail, report.Results[0].Result.Status)
	assert.Equal(t, "README.md", report.Results[0].Result.Details["missing"])
	assert.Equal(t, 1, report.ExitCode())
	assert.Nil(t, report.Healing)
}
