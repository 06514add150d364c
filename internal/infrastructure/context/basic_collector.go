package contextcollector

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/ports"
)

// BasicCollector implements ContextCollector with an environment snapshot + tool detection.
type BasicCollector struct {
	toolsToCheck []string
	runner       ports.CommandRunner
	environ      func() []string
	lookPath     func(string) (string, error)
}

// NewBasicCollector builds a collector. runner may be nil, in which case no
// subprocess-derived facts (git branch) are gathered.
func NewBasicCollector(runner ports.CommandRunner) *BasicCollector {
	return &BasicCollector{
		toolsToCheck: []string{"git", "node", "npm", "yarn", "pnpm", "gh", "docker", "go", "df", "make"},
		runner:       runner,
		environ:      os.Environ,
		lookPath:     exec.LookPath,
	}
}

// Collect snapshots everything checks may read. The snapshot is taken once per run
// so checks never consult process state directly.
func (c *BasicCollector) Collect(ctx context.Context, projectRoot string) (domain.CheckContext, error) {
	root, err := resolveRoot(projectRoot)
	if err != nil {
		return domain.CheckContext{}, err
	}

	env := snapshotEnv(c.environ())
	extra := map[string]interface{}{
		domain.ExtraOS:    runtime.GOOS,
		domain.ExtraShell: detectShell(env),
	}
	if branch := c.gitBranch(ctx, root); branch != "" {
		extra[domain.ExtraGitBranch] = branch
	}

	return domain.CheckContext{
		ProjectRoot: root,
		Env:         env,
		Tools:       c.detectTools(),
		Extra:       extra,
	}, nil
}

func (c *BasicCollector) detectTools() []string {
	var available []string
	for _, tool := range c.toolsToCheck {
		if _, err := c.lookPath(tool); err == nil {
			available = append(available, tool)
		}
	}
	sort.Strings(available)
	return available
}

func (c *BasicCollector) gitBranch(ctx context.Context, root string) string {
	if c.runner == nil {
		return ""
	}
	if _, err := os.Stat(filepath.Join(root, ".git")); err != nil {
		return ""
	}
	res, err := c.runner.Run(ctx, root, "git", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil || res.ExitCode != 0 {
		return ""
	}
	return strings.TrimSpace(res.Stdout)
}

func resolveRoot(projectRoot string) (string, error) {
	if projectRoot == "" {
		return os.Getwd()
	}
	return filepath.Abs(projectRoot)
}

func snapshotEnv(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	return env
}

func detectShell(env map[string]string) string {
	if shell := env["SHELL"]; shell != "" {
		return filepath.Base(shell)
	}
	return "unknown"
}

var _ ports.ContextCollector = (*BasicCollector)(nil)
