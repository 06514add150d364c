package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/doeshing/vitals/internal/application/aggregate"
	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/ports"
)

// SchemaURL identifies the JSON document layout.
const (
	SchemaURL     = "https://vitals.dev/schemas/health-report.json"
	SchemaVersion = "1.0.0"
)

// JSONRenderer renders machine-readable reports.
type JSONRenderer struct {
	Pretty   bool
	Sanitize bool
	// ToolVersion is the vitals build that produced the report.
	ToolVersion string
}

// NewJSONRenderer builds a renderer from output settings.
func NewJSONRenderer(out domain.OutputSettings, toolVersion string) *JSONRenderer {
	return &JSONRenderer{Pretty: out.Pretty, Sanitize: out.Sanitize, ToolVersion: toolVersion}
}

type jsonDocument struct {
	Schema      string                 `json:"$schema"`
	Version     string                 `json:"version"`
	ToolVersion string                 `json:"tool_version,omitempty"`
	RunID       string                 `json:"run_id"`
	Mode        domain.RunMode         `json:"mode"`
	ProjectRoot string                 `json:"project_root"`
	Timestamp   string                 `json:"timestamp"`
	Duration    string                 `json:"duration"`
	Overall     jsonOverall            `json:"overall"`
	Summary     jsonSummary            `json:"summary"`
	Domains     map[string]jsonDomain  `json:"domains"`
	Checks      []jsonCheck            `json:"checks"`
	Issues      map[string][]jsonIssue `json:"issues"`
	AutoFixed   []jsonAutoFix          `json:"auto_fixed"`
	Healing     []jsonHealing          `json:"healing"`
	TechDebt    []jsonIssue            `json:"tech_debt"`
}

type jsonOverall struct {
	Status         domain.Status `json:"status"`
	IssuesCount    int           `json:"issues_count"`
	AutoFixedCount int           `json:"auto_fixed_count"`
	ExitCode       int           `json:"exit_code"`
}

type jsonSummary struct {
	Total      int            `json:"total"`
	Passed     int            `json:"passed"`
	Warnings   int            `json:"warnings"`
	Failed     int            `json:"failed"`
	Errors     int            `json:"errors"`
	FromCache  int            `json:"from_cache"`
	BySeverity map[string]int `json:"by_severity"`
}

type jsonDomain struct {
	Status domain.Status     `json:"status"`
	Checks []jsonDomainCheck `json:"checks"`
}

type jsonDomainCheck struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Status   domain.Status `json:"status"`
	Severity string        `json:"severity"`
}

type jsonCheck struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	Domain         domain.Category        `json:"domain"`
	Severity       string                 `json:"severity"`
	Status         domain.Status          `json:"status"`
	Message        string                 `json:"message"`
	Recommendation string                 `json:"recommendation,omitempty"`
	Details        map[string]interface{} `json:"details,omitempty"`
	DurationMS     int64                  `json:"duration_ms"`
	Timestamp      string                 `json:"timestamp,omitempty"`
	FromCache      bool                   `json:"from_cache"`
	Healable       bool                   `json:"healable"`
	HealingTier    int                    `json:"healing_tier"`
}

type jsonIssue struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Severity       string        `json:"severity"`
	Status         domain.Status `json:"status"`
	Message        string        `json:"message"`
	Recommendation string        `json:"recommendation,omitempty"`
	Healable       bool          `json:"healable"`
}

type jsonAutoFix struct {
	CheckID    string `json:"check_id"`
	Tier       int    `json:"tier"`
	Action     string `json:"action"`
	Message    string `json:"message"`
	BackupPath string `json:"backup_path,omitempty"`
}

type jsonHealing struct {
	CheckID       string           `json:"check_id"`
	Tier          int              `json:"tier"`
	Healer        string           `json:"healer,omitempty"`
	Action        string           `json:"action,omitempty"`
	State         domain.HealState `json:"state"`
	Reason        string           `json:"reason,omitempty"`
	Message       string           `json:"message,omitempty"`
	BackupPath    string           `json:"backup_path,omitempty"`
	Steps         []string         `json:"steps,omitempty"`
	Warning       string           `json:"warning,omitempty"`
	Documentation string           `json:"documentation,omitempty"`
	Before        domain.Status    `json:"before"`
	After         domain.Status    `json:"after,omitempty"`
}

// issueGroups are the keys of the issues object, most severe first.
var issueGroups = []domain.Severity{
	domain.SeverityCritical,
	domain.SeverityHigh,
	domain.SeverityMedium,
	domain.SeverityLow,
	domain.SeverityInfo,
}

// Render implements ports.ReportRenderer.
func (r *JSONRenderer) Render(report domain.HealthReport) ([]byte, error) {
	doc := r.document(report)
	var (
		data []byte
		err  error
	)
	if r.Pretty {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return append(data, '\n'), nil
}

func (r *JSONRenderer) document(report domain.HealthReport) jsonDocument {
	doc := jsonDocument{
		Schema:      SchemaURL,
		Version:     SchemaVersion,
		ToolVersion: r.ToolVersion,
		RunID:       report.RunID,
		Mode:        report.Mode,
		ProjectRoot: report.ProjectRoot,
		Duration:    FormatDuration(report.Duration),
		Overall: jsonOverall{
			Status:         report.OverallStatus,
			IssuesCount:    len(report.Issues()),
			AutoFixedCount: report.AutoFixedCount(),
			ExitCode:       report.ExitCode(),
		},
		Summary: jsonSummary{
			Total:      report.Summary.Total,
			Passed:     report.Summary.Count(domain.StatusPass),
			Warnings:   report.Summary.Count(domain.StatusWarning),
			Failed:     report.Summary.Count(domain.StatusFail),
			Errors:     report.Summary.Count(domain.StatusError),
			FromCache:  report.Summary.FromCache,
			BySeverity: make(map[string]int, len(domain.Severities())),
		},
		Domains:   r.domains(report.Results),
		Checks:    make([]jsonCheck, 0, len(report.Results)),
		Issues:    make(map[string][]jsonIssue, len(issueGroups)),
		AutoFixed: []jsonAutoFix{},
		Healing:   make([]jsonHealing, 0, len(report.Healing)),
		TechDebt:  []jsonIssue{},
	}
	if doc.Mode == "" {
		doc.Mode = domain.ModeQuick
	}
	if !report.StartedAt.IsZero() {
		doc.Timestamp = report.StartedAt.UTC().Format(domain.TimestampFormat)
	}
	for _, sev := range issueGroups {
		doc.Issues[groupKey(sev)] = []jsonIssue{}
	}
	for _, sev := range domain.Severities() {
		doc.Summary.BySeverity[groupKey(sev)] = report.Summary.BySeverity[sev]
	}

	for _, e := range report.Results {
		doc.Checks = append(doc.Checks, r.check(e))
		if e.Result.Status == domain.StatusPass {
			continue
		}
		issue := toIssue(e)
		doc.Issues[groupKey(e.Severity)] = append(doc.Issues[groupKey(e.Severity)], issue)
		if e.Result.Status == domain.StatusWarning || e.Severity == domain.SeverityLow {
			doc.TechDebt = append(doc.TechDebt, issue)
		}
	}

	for _, rec := range report.Healing {
		h := jsonHealing{
			CheckID:       rec.CheckID,
			Tier:          rec.Tier,
			Healer:        rec.Healer,
			Action:        rec.Action,
			State:         rec.State,
			Reason:        rec.Reason,
			Message:       rec.Message,
			BackupPath:    rec.BackupPath,
			Steps:         rec.Steps,
			Warning:       rec.Warning,
			Documentation: rec.Documentation,
			Before:        rec.Original.Status,
		}
		if rec.Revalidated != nil {
			h.After = rec.Revalidated.Status
		}
		doc.Healing = append(doc.Healing, h)
		if rec.Succeeded() {
			doc.AutoFixed = append(doc.AutoFixed, jsonAutoFix{
				CheckID:    rec.CheckID,
				Tier:       rec.Tier,
				Action:     rec.Action,
				Message:    rec.Message,
				BackupPath: rec.BackupPath,
			})
		}
	}
	return doc
}

func (r *JSONRenderer) check(e domain.ReportEntry) jsonCheck {
	details := e.Result.Details
	if r.Sanitize {
		details = SanitizeDetails(details)
	}
	c := jsonCheck{
		ID:             e.CheckID,
		Name:           displayName(e),
		Domain:         e.Category,
		Severity:       e.Severity.String(),
		Status:         e.Result.Status,
		Message:        e.Result.Message,
		Recommendation: e.Result.Recommendation,
		Details:        details,
		DurationMS:     e.Duration.Milliseconds(),
		FromCache:      e.FromCache,
		Healable:       e.Healable,
		HealingTier:    e.HealingTier,
	}
	if !e.Timestamp.IsZero() {
		c.Timestamp = e.Timestamp.UTC().Format(domain.TimestampFormat)
	}
	return c
}

func (r *JSONRenderer) domains(entries []domain.ReportEntry) map[string]jsonDomain {
	byCategory := make(map[domain.Category][]domain.ReportEntry)
	for _, e := range entries {
		byCategory[e.Category] = append(byCategory[e.Category], e)
	}
	out := make(map[string]jsonDomain, len(byCategory))
	for cat, group := range byCategory {
		d := jsonDomain{Status: aggregate.Overall(group), Checks: make([]jsonDomainCheck, 0, len(group))}
		for _, e := range group {
			d.Checks = append(d.Checks, jsonDomainCheck{
				ID:       e.CheckID,
				Name:     displayName(e),
				Status:   e.Result.Status,
				Severity: e.Severity.String(),
			})
		}
		out[string(cat)] = d
	}
	return out
}

func toIssue(e domain.ReportEntry) jsonIssue {
	return jsonIssue{
		ID:             e.CheckID,
		Name:           displayName(e),
		Severity:       e.Severity.String(),
		Status:         e.Result.Status,
		Message:        e.Result.Message,
		Recommendation: e.Result.Recommendation,
		Healable:       e.Healable,
	}
}

func groupKey(s domain.Severity) string {
	return strings.ToLower(s.String())
}

func displayName(e domain.ReportEntry) string {
	if e.Name != "" {
		return e.Name
	}
	return e.CheckID
}

// FormatDuration renders sub-second durations in ms and longer ones in seconds.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

var _ ports.ReportRenderer = (*JSONRenderer)(nil)
