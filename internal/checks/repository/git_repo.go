// Package repository contains checks of the Git repository and its hygiene.
package repository

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/doeshing/vitals/internal/checks/base"
	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/ports"
)

var scpCredentials = regexp.MustCompile(`^[^@/]+:[^@/]+@`)

// GitRepo verifies the project is a Git repository with a remote and history.
type GitRepo struct {
	base.Meta
	runner ports.CommandRunner
}

// NewGitRepo builds the check.
func NewGitRepo(runner ports.CommandRunner) *GitRepo {
	return &GitRepo{
		Meta: base.Meta{
			CheckID: "repository.git-repo",
			Cat:     domain.CategoryRepository,
			Sev:     domain.SeverityCritical,
			Cache:   true,
			Tier:    2,
			Title:   "Git Repository",
			Summary: "Verifies the project is a Git repository",
			Labels:  []string{"git", "repository"},
		},
		runner: runner,
	}
}

func (c *GitRepo) Execute(ctx context.Context, cc domain.CheckContext) (domain.CheckResult, error) {
	gitPath := cc.Path(".git")
	switch base.PathKind(gitPath) {
	case "absent":
		return domain.Fail("Not a Git repository", "Run: git init", nil), nil
	case "dir":
	case "file":
		// Worktrees and submodules use a .git file pointing at the real git dir.
		data, err := os.ReadFile(gitPath)
		if err != nil || !strings.HasPrefix(string(data), "gitdir:") {
			return domain.Fail(".git exists but is not a directory", "Remove the stray .git file and run: git init", nil), nil
		}
	default:
		return domain.Fail(".git exists but is not a directory", "Remove the stray .git entry and run: git init", nil), nil
	}

	details := map[string]interface{}{}
	branch := cc.ExtraString(domain.ExtraGitBranch)
	if branch == "" {
		branch, _ = base.Output(ctx, c.runner, cc.ProjectRoot, "git", "rev-parse", "--abbrev-ref", "HEAD")
	}
	if branch != "" {
		details["branch"] = branch
	}

	remotes, _ := base.Output(ctx, c.runner, cc.ProjectRoot, "git", "remote", "-v")
	if remotes == "" {
		return domain.Warn("Git repository has no remote configured", "Run: git remote add origin <url>", details), nil
	}
	if fields := strings.Fields(strings.SplitN(remotes, "\n", 2)[0]); len(fields) >= 2 {
		details["remote"] = StripCredentials(fields[1])
	}

	if _, ok := base.Output(ctx, c.runner, cc.ProjectRoot, "git", "rev-parse", "--verify", "HEAD"); !ok {
		return domain.Warn("Git repository has no commits yet", "Create an initial commit", details), nil
	}

	if branch == "" {
		return domain.Pass("Git repository configured", details), nil
	}
	return domain.Pass(fmt.Sprintf("Git repository on branch %s", branch), details), nil
}

func (c *GitRepo) CacheKey(cc domain.CheckContext) []string {
	return []string{
		base.PathKind(cc.Path(".git")),
		base.FileDigest(cc.Path(".git", "HEAD")),
		base.FileDigest(cc.Path(".git", "config")),
		headRefDigest(cc),
	}
}

func (c *GitRepo) Healer() *domain.Healer {
	return &domain.Healer{
		Name:        "git-init",
		Action:      "initialize-git",
		Steps:       []string{"Run git init in the project root"},
		TargetPaths: []string{".git"},
		Fix: func(ctx context.Context, cc domain.CheckContext) domain.FixOutcome {
			if base.Exists(cc.Path(".git")) {
				return domain.FixNoop("Git repository already initialized")
			}
			out, code, err := base.CombinedOutput(ctx, c.runner, cc.ProjectRoot, "git", "init")
			if err != nil {
				return domain.FixFailed("git init: " + err.Error())
			}
			if code != 0 {
				return domain.FixFailed("git init: " + out)
			}
			return domain.FixApplied("Initialized Git repository")
		},
	}
}

// StripCredentials removes user info from a remote URL.
func StripCredentials(remote string) string {
	if u, err := url.Parse(remote); err == nil && u.Scheme != "" && u.User != nil {
		u.User = nil
		return u.String()
	}
	return scpCredentials.ReplaceAllString(remote, "")
}

// headRefDigest hashes the commit the current branch points at, so a new
// commit changes cache keys of history-dependent checks.
func headRefDigest(cc domain.CheckContext) string {
	data, err := os.ReadFile(cc.Path(".git", "HEAD"))
	if err != nil {
		return "absent"
	}
	head := strings.TrimSpace(string(data))
	if ref, ok := strings.CutPrefix(head, "ref: "); ok {
		return base.FileDigest(cc.Path(".git", ref))
	}
	return head
}
