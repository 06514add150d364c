package local

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/doeshing/vitals/internal/checks/base"
	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/ports"
)

// MinGitVersion is the oldest Git release the tooling is tested against.
const MinGitVersion = "2.20.0"

var versionPattern = regexp.MustCompile(`(\d+\.\d+(?:\.\d+)?)`)

// GitInstall verifies Git is installed, recent and has an identity configured.
type GitInstall struct {
	base.Meta
	runner ports.CommandRunner
}

// NewGitInstall builds the check.
func NewGitInstall(runner ports.CommandRunner) *GitInstall {
	return &GitInstall{
		Meta: base.Meta{
			CheckID: "local.git-install",
			Cat:     domain.CategoryLocal,
			Sev:     domain.SeverityCritical,
			Cache:   true,
			Tier:    3,
			Title:   "Git Installation",
			Summary: "Verifies Git is installed and configured",
			Labels:  []string{"git", "tools"},
		},
		runner: runner,
	}
}

func (c *GitInstall) Execute(ctx context.Context, cc domain.CheckContext) (domain.CheckResult, error) {
	out, ok := base.Output(ctx, c.runner, cc.ProjectRoot, "git", "--version")
	if !ok {
		return domain.Fail("Git is not installed", "Install Git from https://git-scm.com", nil), nil
	}

	raw := versionPattern.FindString(out)
	version, err := semver.NewVersion(raw)
	if err != nil {
		return domain.Warn("Could not determine Git version", "Verify your Git installation", map[string]interface{}{"output": out}), nil
	}
	details := map[string]interface{}{"version": version.String()}

	if version.LessThan(semver.MustParse(MinGitVersion)) {
		details["minimum"] = MinGitVersion
		return domain.Warn(
			fmt.Sprintf("Git %s is below recommended %s", version, MinGitVersion),
			"Upgrade Git to "+MinGitVersion+" or later",
			details,
		), nil
	}

	var missing []string
	for _, key := range []string{"user.name", "user.email"} {
		if v, ok := base.Output(ctx, c.runner, cc.ProjectRoot, "git", "config", "--get", key); !ok || v == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		details["missing_config"] = missing
		return domain.Warn(
			fmt.Sprintf("Git %s installed but %s not configured", version, strings.Join(missing, " and ")),
			`Run: git config --global user.name "Your Name" && git config --global user.email you@example.com`,
			details,
		), nil
	}
	return domain.Pass(fmt.Sprintf("Git %s installed", version), details), nil
}

func (c *GitInstall) CacheKey(cc domain.CheckContext) []string {
	return []string{cc.Getenv("PATH"), cc.Getenv("HOME")}
}

func (c *GitInstall) Healer() *domain.Healer {
	return base.ManualHealer("git-install-guide", []string{
		"Install Git with your package manager (brew install git, apt install git, winget install Git.Git)",
		"Verify with: git --version",
		`Configure your identity: git config --global user.name "Your Name"`,
		"git config --global user.email you@example.com",
	}, "https://git-scm.com/downloads", "")
}
