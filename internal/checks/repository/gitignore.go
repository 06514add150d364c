package repository

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/doeshing/vitals/internal/checks/base"
	"github.com/doeshing/vitals/internal/domain"
)

// Patterns expected in .gitignore.
var (
	RequiredIgnorePatterns    = []string{"node_modules", ".env"}
	RecommendedIgnorePatterns = []string{".env.local", ".DS_Store", "*.log", "dist", "coverage", domain.StateDirName + "/"}
)

const gitignoreHeader = "# Added by vitals"

// Gitignore verifies .gitignore covers secrets and build output.
type Gitignore struct {
	base.Meta
}

// NewGitignore builds the check.
func NewGitignore() *Gitignore {
	return &Gitignore{Meta: base.Meta{
		CheckID: "repository.gitignore",
		Cat:     domain.CategoryRepository,
		Sev:     domain.SeverityMedium,
		Cache:   true,
		Tier:    1,
		Title:   ".gitignore",
		Summary: "Verifies .gitignore excludes secrets and generated files",
		Labels:  []string{"git", "security"},
	}}
}

func (c *Gitignore) Execute(_ context.Context, cc domain.CheckContext) (domain.CheckResult, error) {
	data, err := os.ReadFile(cc.Path(".gitignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Fail(".gitignore not found", "Run: vitals heal to create one", nil), nil
		}
		return domain.Errored("Could not read .gitignore: "+err.Error(), nil), nil
	}
	patterns := ParseIgnorePatterns(string(data))

	missingRequired := missingPatterns(patterns, RequiredIgnorePatterns)
	missingRecommended := missingPatterns(patterns, RecommendedIgnorePatterns)
	details := map[string]interface{}{"patterns": len(patterns)}

	if len(missingRequired) > 0 {
		details["missing_required"] = missingRequired
		return domain.Fail(
			"Missing required .gitignore patterns: "+strings.Join(missingRequired, ", "),
			"Add the patterns to .gitignore or run: vitals heal",
			details,
		), nil
	}
	if len(missingRecommended) > 0 {
		details["missing_recommended"] = missingRecommended
		return domain.Warn(
			"Missing recommended .gitignore patterns: "+strings.Join(missingRecommended, ", "),
			"Add the patterns to .gitignore or run: vitals heal",
			details,
		), nil
	}
	return domain.Pass(fmt.Sprintf(".gitignore has %d patterns", len(patterns)), details), nil
}

func (c *Gitignore) CacheKey(cc domain.CheckContext) []string {
	return []string{base.FileDigest(cc.Path(".gitignore"))}
}

func (c *Gitignore) Healer() *domain.Healer {
	return &domain.Healer{
		Name:        "add-gitignore-patterns",
		Action:      "update-gitignore",
		Steps:       []string{"Append missing required and recommended patterns to .gitignore"},
		TargetPaths: []string{".gitignore"},
		Fix:         fixGitignore,
	}
}

func fixGitignore(_ context.Context, cc domain.CheckContext) domain.FixOutcome {
	path := cc.Path(".gitignore")
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return domain.FixFailed("read .gitignore: " + err.Error())
	}
	patterns := ParseIgnorePatterns(string(data))
	missing := append(missingPatterns(patterns, RequiredIgnorePatterns), missingPatterns(patterns, RecommendedIgnorePatterns)...)
	if len(missing) == 0 {
		return domain.FixNoop(".gitignore already complete")
	}

	backup, err := base.Backup(path)
	if err != nil {
		return domain.FixFailed("backup .gitignore: " + err.Error())
	}

	var b strings.Builder
	b.Write(data)
	if len(data) > 0 && !strings.HasSuffix(string(data), "\n") {
		b.WriteString("\n")
	}
	if len(data) > 0 {
		b.WriteString("\n")
	}
	b.WriteString(gitignoreHeader + "\n")
	for _, p := range missing {
		b.WriteString(p + "\n")
	}
	if err := os.WriteFile(path, []byte(b.String()), domain.FilePermissions); err != nil {
		return domain.FixFailed("write .gitignore: " + err.Error())
	}

	out := domain.FixApplied(fmt.Sprintf("Added %d pattern(s) to .gitignore", len(missing)))
	out.BackupPath = backup
	return out
}

// ParseIgnorePatterns returns the non-empty, non-comment lines of a .gitignore.
func ParseIgnorePatterns(content string) []string {
	var patterns []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}

// HasPattern reports whether want is covered, ignoring a leading "/", a
// trailing "/" and a "**/" prefix.
func HasPattern(patterns []string, want string) bool {
	want = normalizePattern(want)
	for _, p := range patterns {
		if normalizePattern(p) == want {
			return true
		}
	}
	return false
}

func normalizePattern(p string) string {
	p = strings.TrimPrefix(p, "**/")
	p = strings.TrimPrefix(p, "/")
	return strings.TrimSuffix(p, "/")
}

func missingPatterns(patterns, wanted []string) []string {
	var missing []string
	for _, w := range wanted {
		if !HasPattern(patterns, w) {
			missing = append(missing, w)
		}
	}
	return missing
}
