package repository

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/doeshing/vitals/internal/checks/base"
	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/ports"
)

const maxListedFiles = 5

var (
	aheadPattern  = regexp.MustCompile(`ahead (\d+)`)
	behindPattern = regexp.MustCompile(`behind (\d+)`)
)

// WorkingTree is the parsed form of `git status --porcelain=v1 --branch`.
type WorkingTree struct {
	Branch    string
	Ahead     int
	Behind    int
	Staged    []string
	Modified  []string
	Untracked []string
}

// Clean reports whether nothing is pending locally.
func (w WorkingTree) Clean() bool {
	return len(w.Staged)+len(w.Modified)+len(w.Untracked) == 0
}

// GitStatus reports uncommitted work and divergence from upstream.
type GitStatus struct {
	base.Meta
	runner ports.CommandRunner
}

// NewGitStatus builds the check.
func NewGitStatus(runner ports.CommandRunner) *GitStatus {
	return &GitStatus{
		Meta: base.Meta{
			CheckID: "repository.git-status",
			Cat:     domain.CategoryRepository,
			Sev:     domain.SeverityLow,
			Title:   "Git Status",
			Summary: "Reports uncommitted changes and upstream divergence",
			Labels:  []string{"git", "workflow"},
		},
		runner: runner,
	}
}

func (c *GitStatus) Execute(ctx context.Context, cc domain.CheckContext) (domain.CheckResult, error) {
	if c.runner == nil {
		return domain.Errored("Git status failed: no command runner", nil), nil
	}
	// Porcelain lines start with significant spaces, so stdout is parsed untrimmed.
	res, err := c.runner.Run(ctx, cc.ProjectRoot, "git", "status", "--porcelain=v1", "--branch")
	if err != nil || res.ExitCode != 0 {
		return domain.Errored("Git status failed: not a git repository or git unavailable", map[string]interface{}{"output": strings.TrimSpace(res.Stderr)}), nil
	}
	tree := ParseStatus(res.Stdout)

	details := map[string]interface{}{
		"branch":    tree.Branch,
		"ahead":     tree.Ahead,
		"behind":    tree.Behind,
		"staged":    len(tree.Staged),
		"modified":  len(tree.Modified),
		"untracked": len(tree.Untracked),
	}
	if !tree.Clean() {
		details["files"] = map[string]interface{}{
			"staged":    base.Limit(tree.Staged, maxListedFiles),
			"modified":  base.Limit(tree.Modified, maxListedFiles),
			"untracked": base.Limit(tree.Untracked, maxListedFiles),
		}
		var parts []string
		if n := len(tree.Staged); n > 0 {
			parts = append(parts, fmt.Sprintf("%d staged", n))
		}
		if n := len(tree.Modified); n > 0 {
			parts = append(parts, fmt.Sprintf("%d modified", n))
		}
		if n := len(tree.Untracked); n > 0 {
			parts = append(parts, fmt.Sprintf("%d untracked", n))
		}
		return domain.Warn("Uncommitted changes: "+strings.Join(parts, ", "), "Commit or stash your changes", details), nil
	}
	if tree.Ahead > 0 {
		return domain.Warn(fmt.Sprintf("Branch is %d commit(s) ahead of remote", tree.Ahead), "Consider pushing your changes", details), nil
	}
	if tree.Behind > 0 {
		return domain.Warn(fmt.Sprintf("Branch is %d commit(s) behind remote", tree.Behind), "Consider pulling the latest changes", details), nil
	}
	return domain.Pass("Working directory clean and in sync", details), nil
}

// ParseStatus parses porcelain v1 output with a branch header.
func ParseStatus(out string) WorkingTree {
	var tree WorkingTree
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 3 {
			continue
		}
		if strings.HasPrefix(line, "## ") {
			header := strings.TrimPrefix(line[3:], "No commits yet on ")
			tree.Branch = strings.SplitN(strings.SplitN(header, "...", 2)[0], " ", 2)[0]
			if m := aheadPattern.FindStringSubmatch(header); m != nil {
				tree.Ahead, _ = strconv.Atoi(m[1])
			}
			if m := behindPattern.FindStringSubmatch(header); m != nil {
				tree.Behind, _ = strconv.Atoi(m[1])
			}
			continue
		}
		x, y, file := line[0], line[1], strings.TrimSpace(line[3:])
		if x == '?' && y == '?' {
			if !isStatePath(file) {
				tree.Untracked = append(tree.Untracked, file)
			}
			continue
		}
		if x != ' ' {
			tree.Staged = append(tree.Staged, file)
		}
		if y != ' ' {
			tree.Modified = append(tree.Modified, file)
		}
	}
	return tree
}

// isStatePath reports whether file lives in the tool's own state directory.
func isStatePath(file string) bool {
	file = strings.TrimSuffix(file, "/")
	return file == domain.StateDirName || strings.HasPrefix(file, domain.StateDirName+"/")
}
