// Package local contains checks of the developer machine: tools, disk and environment.
package local

import (
	"context"
	"sort"
	"strings"

	"github.com/doeshing/vitals/internal/checks/base"
	"github.com/doeshing/vitals/internal/domain"
)

// ToolEnvPrefix marks variables that configure vitals itself.
const ToolEnvPrefix = "VITALS_"

// EnvironmentVars verifies required and recommended variables in the captured environment.
type EnvironmentVars struct {
	base.Meta
	required []string
	// recommended maps a variable to accepted alternatives (HOME or USERPROFILE).
	recommended map[string][]string
}

// NewEnvironmentVars builds the check.
func NewEnvironmentVars() *EnvironmentVars {
	return &EnvironmentVars{
		Meta: base.Meta{
			CheckID: "local.environment-vars",
			Cat:     domain.CategoryLocal,
			Sev:     domain.SeverityMedium,
			Cache:   true,
			Title:   "Environment Variables",
			Summary: "Verifies required environment variables are set",
			Labels:  []string{"environment", "config"},
		},
		required:    []string{"PATH"},
		recommended: map[string][]string{"HOME": {"HOME", "USERPROFILE"}},
	}
}

func (c *EnvironmentVars) Execute(_ context.Context, cc domain.CheckContext) (domain.CheckResult, error) {
	var missingRequired, missingRecommended []string
	for _, name := range c.required {
		if cc.Getenv(name) == "" {
			missingRequired = append(missingRequired, name)
		}
	}
	for name, alternatives := range c.recommended {
		if !anySet(cc, alternatives) {
			missingRecommended = append(missingRecommended, name)
		}
	}
	sort.Strings(missingRecommended)

	details := map[string]interface{}{
		"tool_vars": toolVars(cc.Env),
	}

	if len(missingRequired) > 0 {
		details["missing"] = missingRequired
		return domain.Fail(
			"Missing required environment variables: "+strings.Join(missingRequired, ", "),
			"Set the missing variables in your shell profile",
			details,
		), nil
	}
	if len(missingRecommended) > 0 {
		details["missing_recommended"] = missingRecommended
		return domain.Warn(
			"Missing recommended environment variables: "+strings.Join(missingRecommended, ", "),
			"Set the recommended variables for full functionality",
			details,
		), nil
	}
	return domain.Pass("All required environment variables set", details), nil
}

// CacheKey covers every variable the check reads.
func (c *EnvironmentVars) CacheKey(cc domain.CheckContext) []string {
	keys := append([]string(nil), c.required...)
	for _, alternatives := range c.recommended {
		keys = append(keys, alternatives...)
	}
	for name := range cc.Env {
		if strings.HasPrefix(name, ToolEnvPrefix) {
			keys = append(keys, name)
		}
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+cc.Getenv(k))
	}
	return parts
}

func anySet(cc domain.CheckContext, names []string) bool {
	for _, n := range names {
		if cc.Getenv(n) != "" {
			return true
		}
	}
	return false
}

func toolVars(env map[string]string) map[string]interface{} {
	out := make(map[string]interface{})
	for name, value := range env {
		if strings.HasPrefix(name, ToolEnvPrefix) {
			out[name] = MaskValue(value)
		}
	}
	return out
}

// MaskValue keeps the first and last two characters of a value.
func MaskValue(v string) string {
	if len(v) <= 4 {
		return "****"
	}
	return v[:2] + "****" + v[len(v)-2:]
}
