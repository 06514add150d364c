package deployment

import (
	"context"
	"os"
	"regexp"
	"strings"

	"github.com/doeshing/vitals/internal/checks/base"
	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/ports"
	"github.com/moby/buildkit/frontend/dockerfile/command"
	"github.com/moby/buildkit/frontend/dockerfile/parser"
)

var (
	composeFiles  = []string{"docker-compose.yml", "docker-compose.yaml", "compose.yml", "compose.yaml"}
	dockerVersion = regexp.MustCompile(`(\d+\.\d+\.\d+)`)
)

// DockerConfig inspects Dockerfile and compose files when the project uses Docker.
type DockerConfig struct {
	base.Meta
	runner ports.CommandRunner
}

// NewDockerConfig builds the check.
func NewDockerConfig(runner ports.CommandRunner) *DockerConfig {
	return &DockerConfig{
		Meta: base.Meta{
			CheckID: "deployment.docker-config",
			Cat:     domain.CategoryDeployment,
			Sev:     domain.SeverityInfo,
			Cache:   true,
			Title:   "Docker Configuration",
			Summary: "Reviews Dockerfile and compose setup",
			Labels:  []string{"docker", "deployment"},
		},
		runner: runner,
	}
}

func (c *DockerConfig) Execute(ctx context.Context, cc domain.CheckContext) (domain.CheckResult, error) {
	hasDockerfile := base.Exists(cc.Path("Dockerfile"))
	var compose string
	for _, name := range composeFiles {
		if base.Exists(cc.Path(name)) {
			compose = name
			break
		}
	}
	if !hasDockerfile && compose == "" {
		return domain.Pass("No Docker configuration found (not using Docker)", nil), nil
	}

	details := map[string]interface{}{
		"dockerfile":   hasDockerfile,
		"dockerignore": base.Exists(cc.Path(".dockerignore")),
	}
	if compose != "" {
		details["compose"] = compose
	}
	if out, ok := base.Output(ctx, c.runner, cc.ProjectRoot, "docker", "--version"); ok {
		if m := dockerVersion.FindString(out); m != "" {
			details["docker_version"] = m
		}
	} else {
		details["docker_cli"] = false
	}

	var issues []string
	if hasDockerfile {
		data, err := os.ReadFile(cc.Path("Dockerfile"))
		if err != nil {
			return domain.Errored("Could not read Dockerfile: "+err.Error(), details), nil
		}
		issues = append(issues, LintDockerfile(string(data))...)
		if !base.Exists(cc.Path(".dockerignore")) {
			issues = append(issues, "No .dockerignore file")
		}
	}
	if len(issues) > 0 {
		details["issues"] = issues
		return domain.Warn(
			"Docker configuration issues: "+strings.Join(issues, "; "),
			"Review the Dockerfile and add a .dockerignore",
			details,
		), nil
	}

	var found []string
	if hasDockerfile {
		found = append(found, "Dockerfile")
	}
	if compose != "" {
		found = append(found, compose)
	}
	return domain.Pass("Docker configured: "+strings.Join(found, ", "), details), nil
}

func (c *DockerConfig) CacheKey(cc domain.CheckContext) []string {
	keys := []string{
		base.FileDigest(cc.Path("Dockerfile")),
		base.PathKind(cc.Path(".dockerignore")),
	}
	for _, name := range composeFiles {
		keys = append(keys, base.PathKind(cc.Path(name)))
	}
	return keys
}

// LintDockerfile reports structural problems: a missing FROM and a final
// stage that runs as root.
func LintDockerfile(content string) []string {
	res, err := parser.Parse(strings.NewReader(content))
	if err != nil {
		return []string{"Dockerfile could not be parsed: " + err.Error()}
	}
	var issues []string
	hasFrom := false
	user := ""
	for _, node := range res.AST.Children {
		switch node.Value {
		case command.From:
			hasFrom = true
			// Each stage starts as root again.
			user = ""
		case command.User:
			if node.Next != nil {
				user = node.Next.Value
			}
		}
	}
	if !hasFrom {
		issues = append(issues, "Dockerfile has no FROM instruction")
	}
	if name, _, _ := strings.Cut(user, ":"); name == "" || name == "root" || name == "0" {
		issues = append(issues, "Container may run as root (no USER instruction)")
	}
	return issues
}
