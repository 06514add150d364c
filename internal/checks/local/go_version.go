package local

import (
	"context"
	"fmt"
	"os"
	"regexp"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/mod/modfile"

	"github.com/doeshing/vitals/internal/checks/base"
	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/ports"
)

var goVersionPattern = regexp.MustCompile(`go(\d+\.\d+(?:\.\d+)?)`)

// GoVersion compares the installed Go toolchain with the go directive of go.mod.
type GoVersion struct {
	base.Meta
	runner ports.CommandRunner
}

// NewGoVersion builds the check.
func NewGoVersion(runner ports.CommandRunner) *GoVersion {
	return &GoVersion{
		Meta: base.Meta{
			CheckID: "local.go-version",
			Cat:     domain.CategoryLocal,
			Sev:     domain.SeverityLow,
			Cache:   true,
			Tier:    3,
			Title:   "Go Version",
			Summary: "Verifies the Go toolchain satisfies go.mod",
			Labels:  []string{"go", "tools", "version"},
		},
		runner: runner,
	}
}

func (c *GoVersion) Execute(ctx context.Context, cc domain.CheckContext) (domain.CheckResult, error) {
	required, hasModule, err := requiredGoVersion(cc.Path("go.mod"))
	if err != nil {
		return domain.Warn("go.mod could not be parsed: "+err.Error(), "Fix the syntax of go.mod", nil), nil
	}

	out, ok := base.Output(ctx, c.runner, cc.ProjectRoot, "go", "version")
	if !ok {
		if hasModule {
			return domain.Fail("Go is not installed but go.mod is present", "Install Go from https://go.dev/dl", nil), nil
		}
		return domain.Pass("Go not installed (not required)", nil), nil
	}

	match := goVersionPattern.FindStringSubmatch(out)
	if match == nil {
		return domain.Warn("Could not determine Go version", "Verify your Go installation", map[string]interface{}{"output": out}), nil
	}
	installed, err := semver.NewVersion(match[1])
	if err != nil {
		return domain.Warn("Could not determine Go version", "Verify your Go installation", map[string]interface{}{"output": out}), nil
	}
	details := map[string]interface{}{"version": installed.String()}
	if required == nil {
		return domain.Pass(fmt.Sprintf("Go %s installed", installed), details), nil
	}

	details["required"] = required.String()
	if installed.LessThan(required) {
		return domain.Fail(
			fmt.Sprintf("Go %s is below required %s", installed, required),
			fmt.Sprintf("Upgrade Go to %s or later", required),
			details,
		), nil
	}
	return domain.Pass(fmt.Sprintf("Go %s meets requirements (>= %s)", installed, required), details), nil
}

func (c *GoVersion) CacheKey(cc domain.CheckContext) []string {
	return []string{cc.Getenv("PATH"), cc.Getenv("GOTOOLCHAIN"), base.FileDigest(cc.Path("go.mod"))}
}

func (c *GoVersion) Healer() *domain.Healer {
	return base.ManualHealer("go-install-guide", []string{
		"Download the required release from https://go.dev/dl",
		"Or let the go command fetch it: set GOTOOLCHAIN=auto",
		"Verify with: go version",
	}, "https://go.dev/doc/install", "")
}

// requiredGoVersion reads the go directive. A missing go.mod is not an error.
func requiredGoVersion(path string) (*semver.Version, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	f, err := modfile.ParseLax(path, data, nil)
	if err != nil {
		return nil, true, err
	}
	if f.Go == nil || f.Go.Version == "" {
		return nil, true, nil
	}
	v, err := semver.NewVersion(f.Go.Version)
	if err != nil {
		return nil, true, err
	}
	return v, true, nil
}
