package project

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

// Node.js version policy when package.json declares no engines.node.
const (
	DefaultMinNodeVersion   = "18.0.0"
	RecommendedNodeMajor    = 20
	recommendedNodeVersions = "20.x"
)

var engineVersionPattern = regexp.MustCompile(`(\d+)(?:\.(\d+|x))?(?:\.(\d+|x))?`)

// NodeVersion compares the installed Node.js with engines.node.
type NodeVersion struct {
	base.Meta
	runner ports.CommandRunner
}

// NewNodeVersion builds the check.
func NewNodeVersion(runner ports.CommandRunner) *NodeVersion {
	return &NodeVersion{
		Meta: base.Meta{
			CheckID: "project.node-version",
			Cat:     domain.CategoryProject,
			Sev:     domain.SeverityCritical,
			Cache:   true,
			Tier:    3,
			Title:   "Node.js Version",
			Summary: "Verifies Node.js satisfies the project's engines requirement",
			Labels:  []string{"node", "version", "tools"},
		},
		runner: runner,
	}
}

func (c *NodeVersion) Execute(ctx context.Context, cc domain.CheckContext) (domain.CheckResult, error) {
	manifest, manifestErr := ReadManifest(cc.Path("package.json"))
	hasManifest := manifestErr == nil || base.Exists(cc.Path("package.json"))
	engines := strings.TrimSpace(manifest.Engines["node"])

	out, ok := base.Output(ctx, c.runner, cc.ProjectRoot, "node", "--version")
	if !ok {
		if hasManifest {
			return domain.Fail("Node.js is not installed", "Install Node.js from https://nodejs.org", nil), nil
		}
		return domain.Pass("Node.js not required (no package.json)", nil), nil
	}
	installed, err := semver.NewVersion(strings.TrimPrefix(out, "v"))
	if err != nil {
		return domain.Warn("Could not determine Node.js version", "Verify your Node.js installation", map[string]interface{}{"output": out}), nil
	}

	minimum := ParseEngineVersion(engines)
	details := map[string]interface{}{
		"version":     installed.String(),
		"required":    minimum.String(),
		"recommended": recommendedNodeVersions,
	}
	if engines != "" {
		details["engines"] = engines
	}

	if installed.LessThan(minimum) {
		return domain.Fail(
			fmt.Sprintf("Node.js %s is below required %s", installed, minimum),
			fmt.Sprintf("Upgrade Node.js to %s or later", minimum),
			details,
		), nil
	}
	if engines != "" {
		if constraint, err := semver.NewConstraint(engines); err == nil && !constraint.Check(installed) {
			return domain.Fail(
				fmt.Sprintf("Node.js %s does not satisfy engines.node %q", installed, engines),
				"Install a Node.js release matching "+engines,
				details,
			), nil
		}
	}
	if installed.Major() < RecommendedNodeMajor {
		return domain.Warn(
			fmt.Sprintf("Node.js %s works but %s is recommended", installed, recommendedNodeVersions),
			fmt.Sprintf("Upgrade to Node.js %d LTS", RecommendedNodeMajor),
			details,
		), nil
	}
	return domain.Pass(fmt.Sprintf("Node.js %s meets requirements", installed), details), nil
}

func (c *NodeVersion) CacheKey(cc domain.CheckContext) []string {
	return []string{cc.Getenv("PATH"), base.FileDigest(cc.Path("package.json"))}
}

func (c *NodeVersion) Healer() *domain.Healer {
	return base.ManualHealer("node-install-guide", []string{
		"Install a version manager such as nvm or fnm",
		fmt.Sprintf("Install Node.js %d LTS: nvm install %d", RecommendedNodeMajor, RecommendedNodeMajor),
		"Verify with: node --version",
	}, "https://nodejs.org/en/download", "")
}

// ParseEngineVersion extracts the lower bound of an engines range
// (">=18", "^18.17.0", "18.x", "20"). Unparsable input yields DefaultMinNodeVersion.
func ParseEngineVersion(engines string) *semver.Version {
	m := engineVersionPattern.FindStringSubmatch(engines)
	if m == nil {
		return semver.MustParse(DefaultMinNodeVersion)
	}
	parts := []string{m[1], zeroIfWild(m[2]), zeroIfWild(m[3])}
	v, err := semver.NewVersion(strings.Join(parts, "."))
	if err != nil {
		return semver.MustParse(DefaultMinNodeVersion)
	}
	return v
}

func zeroIfWild(s string) string {
	if s == "" || s == "x" {
		return "0"
	}
	return s
}
