package services

import (
	"context"
	"fmt"
	"regexp"

	"github.com/doeshing/vitals/internal/checks/base"
	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/ports"
)

var (
	ghVersionPattern = regexp.MustCompile(`(\d+\.\d+\.\d+)`)
	ghUserPattern    = regexp.MustCompile(`Logged in to \S+ (?:account|as) (\S+)`)
)

// GitHubCLI reports whether the optional gh CLI is installed and authenticated.
type GitHubCLI struct {
	base.Meta
	runner ports.CommandRunner
}

// NewGitHubCLI builds the check.
func NewGitHubCLI(runner ports.CommandRunner) *GitHubCLI {
	return &GitHubCLI{
		Meta: base.Meta{
			CheckID: "services.github-cli",
			Cat:     domain.CategoryServices,
			Sev:     domain.SeverityMedium,
			Cache:   true,
			Tier:    3,
			Title:   "GitHub CLI",
			Summary: "Checks GitHub CLI installation and authentication",
			Labels:  []string{"github", "tools"},
		},
		runner: runner,
	}
}

func (c *GitHubCLI) Execute(ctx context.Context, cc domain.CheckContext) (domain.CheckResult, error) {
	out, ok := base.Output(ctx, c.runner, cc.ProjectRoot, "gh", "--version")
	if !ok {
		return domain.Pass("GitHub CLI not installed (optional)", map[string]interface{}{"installed": false}), nil
	}
	version := ghVersionPattern.FindString(out)
	if version == "" {
		version = "unknown"
	}
	details := map[string]interface{}{"installed": true, "version": version}

	// gh prints its auth status to stderr.
	status, code, err := base.CombinedOutput(ctx, c.runner, cc.ProjectRoot, "gh", "auth", "status")
	if err != nil || code != 0 {
		details["authenticated"] = false
		return domain.Warn(
			fmt.Sprintf("GitHub CLI v%s installed but not authenticated", version),
			"Run: gh auth login",
			details,
		), nil
	}
	user := "user"
	if m := ghUserPattern.FindStringSubmatch(status); m != nil {
		user = m[1]
	}
	details["authenticated"] = true
	details["user"] = user
	return domain.Pass(fmt.Sprintf("GitHub CLI v%s authenticated as %s", version, user), details), nil
}

func (c *GitHubCLI) CacheKey(cc domain.CheckContext) []string {
	return []string{cc.Getenv("GH_TOKEN"), cc.Getenv("GITHUB_TOKEN"), cc.Getenv("GH_HOST")}
}

func (c *GitHubCLI) Healer() *domain.Healer {
	return base.ManualHealer("github-cli-setup", []string{
		"Install the GitHub CLI: https://cli.github.com",
		"Authenticate: gh auth login",
		"Verify: gh auth status",
	}, "https://cli.github.com", "")
}
