// Package domain defines core entities and value objects for vitals.
//
// The types here are shared by every layer: the check contract works in terms of
// Category, Severity and CheckResult, the runner and aggregator produce HealthReport,
// and the healing protocol records HealingRecord entries. The domain layer has no
// dependencies on infrastructure.
package domain

import (
	"fmt"
	"strings"
)

// Category groups checks for selective runs.
type Category string

const (
	CategoryLocal      Category = "local"
	CategoryProject    Category = "project"
	CategoryRepository Category = "repository"
	CategoryDeployment Category = "deployment"
	CategoryServices   Category = "services"
)

// Categories returns every known category in display order.
func Categories() []Category {
	return []Category{CategoryLocal, CategoryProject, CategoryRepository, CategoryDeployment, CategoryServices}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory converts a user supplied string into a Category.
func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", raw)
	}
	return c, nil
}

// Severity is the static importance of a check. The zero value is SeverityInfo.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityNames = [...]string{"INFO", "LOW", "MEDIUM", "HIGH", "CRITICAL"}

// Severities returns every severity from lowest to highest.
func Severities() []Severity {
	return []Severity{SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
}

// Valid reports whether s is inside the closed enumeration.
func (s Severity) Valid() bool {
	return s >= SeverityInfo && s <= SeverityCritical
}

func (s Severity) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Severity(%d)", int(s))
	}
	return severityNames[s]
}

// AtLeast reports whether s is as severe as other.
func (s Severity) AtLeast(other Severity) bool {
	return s >= other
}

// ParseSeverity converts a case-insensitive name into a Severity.
func ParseSeverity(raw string) (Severity, error) {
	name := strings.ToUpper(strings.TrimSpace(raw))
	for i, known := range severityNames {
		if name == known {
			return Severity(i), nil
		}
	}
	return SeverityInfo, fmt.Errorf("unknown severity %q", raw)
}

// MarshalText renders the severity by name so reports and config stay readable.
func (s Severity) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid severity %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText parses a severity name.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Status is the per-run outcome of one check.
type Status string

const (
	StatusPass    Status = "pass"
	StatusWarning Status = "warning"
	StatusFail    Status = "fail"
	// StatusError means the check itself could not complete. It is never a diagnostic outcome.
	StatusError Status = "error"
)

// Statuses returns all statuses in ascending order of concern.
func Statuses() []Status {
	return []Status{StatusPass, StatusWarning, StatusFail, StatusError}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPass, StatusWarning, StatusFail, StatusError:
		return true
	}
	return false
}

// Negative reports whether the status needs attention (warning or fail).
func (s Status) Negative() bool {
	return s == StatusWarning || s == StatusFail
}

// CheckResult is the value produced by one execution of one check.
type CheckResult struct {
	Status         Status                 `json:"status"`
	Message        string                 `json:"message"`
	Details        map[string]interface{} `json:"details,omitempty"`
	Recommendation string                 `json:"recommendation,omitempty"`
}

// Pass builds a passing result.
func Pass(message string, details map[string]interface{}) CheckResult {
	return CheckResult{Status: StatusPass, Message: message, Details: details}
}

// Warn builds a warning result with a remediation hint.
func Warn(message, recommendation string, details map[string]interface{}) CheckResult {
	return CheckResult{Status: StatusWarning, Message: message, Recommendation: recommendation, Details: details}
}

// Fail builds a failing result with a remediation hint.
func Fail(message, recommendation string, details map[string]interface{}) CheckResult {
	return CheckResult{Status: StatusFail, Message: message, Recommendation: recommendation, Details: details}
}

// Errored builds a result for a check that could not complete.
func Errored(message string, details map[string]interface{}) CheckResult {
	return CheckResult{Status: StatusError, Message: message, Details: details}
}

// Clone returns a deep copy so cached and reported results never share mutable state.
func (r CheckResult) Clone() CheckResult {
	r.Details = cloneMap(r.Details)
	return r
}

func cloneMap(in map[string]interface{}) map[string]interface{} {
	if in == nil {
		return nil
	}
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch typed := v.(type) {
	case map[string]interface{}:
		return cloneMap(typed)
	case []interface{}:
		out := make([]interface{}, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), typed...)
	default:
		return v
	}
}
