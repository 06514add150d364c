package repository

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/doeshing/vitals/internal/checks/base"
	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/ports"
)

// Commit history policy; ratios are overridable under
// checks.thresholds["repository.commit-history"].
const (
	commitSample              = 20
	shortMessageLength        = 10
	DefaultConventionalRatio  = 0.5
	DefaultShortMessageRatio  = 0.3
	conventionalRatioKey      = "conventional_ratio"
	shortMessageRatioKey      = "short_message_ratio"
	commitHistoryCheckID      = "repository.commit-history"
	noCommitsMarker           = "does not have any commits"
	maxRecentCommitsInDetails = 5
)

var conventionalPattern = regexp.MustCompile(`^(feat|fix|docs|style|refactor|perf|test|build|ci|chore|revert)(\([^)]+\))?!?: .+`)

// CommitHistory measures conventional-commit adoption in recent history.
type CommitHistory struct {
	base.Meta
	runner            ports.CommandRunner
	conventionalRatio float64
	shortRatio        float64
}

// NewCommitHistory builds the check with thresholds from cfg.
func NewCommitHistory(runner ports.CommandRunner, cfg domain.Config) *CommitHistory {
	return &CommitHistory{
		Meta: base.Meta{
			CheckID: commitHistoryCheckID,
			Cat:     domain.CategoryRepository,
			Sev:     domain.SeverityInfo,
			Cache:   true,
			Title:   "Commit History",
			Summary: "Checks recent commits follow the conventional format",
			Labels:  []string{"git", "conventions"},
		},
		runner:            runner,
		conventionalRatio: cfg.Threshold(commitHistoryCheckID, conventionalRatioKey, DefaultConventionalRatio),
		shortRatio:        cfg.Threshold(commitHistoryCheckID, shortMessageRatioKey, DefaultShortMessageRatio),
	}
}

func (c *CommitHistory) Execute(ctx context.Context, cc domain.CheckContext) (domain.CheckResult, error) {
	out, code, err := base.CombinedOutput(ctx, c.runner, cc.ProjectRoot, "git", "log", "--oneline", "--no-decorate", "-n", fmt.Sprint(commitSample))
	if err != nil || code != 0 {
		if strings.Contains(out, noCommitsMarker) {
			return domain.Pass("No commits yet", nil), nil
		}
		msg := out
		if err != nil {
			msg = err.Error()
		}
		return domain.Errored("Commit history check failed: "+msg, nil), nil
	}

	subjects := parseOneline(out)
	if len(subjects) == 0 {
		return domain.Pass("No commits yet", nil), nil
	}

	conventional, short := 0, 0
	for _, s := range subjects {
		if conventionalPattern.MatchString(s) {
			conventional++
		}
		if len(s) < shortMessageLength {
			short++
		}
	}
	ratio := float64(conventional) / float64(len(subjects))
	percent := int(ratio*100 + 0.5)
	details := map[string]interface{}{
		"analyzed":          len(subjects),
		"conventional":      conventional,
		"short_messages":    short,
		"conventional_rate": percent,
		"recent":            base.Limit(subjects, maxRecentCommitsInDetails),
	}

	if ratio < c.conventionalRatio {
		return domain.Warn(
			fmt.Sprintf("Low conventional commit usage (%d%% of %d recent commits)", percent, len(subjects)),
			"Use the conventional format: type(scope): description",
			details,
		), nil
	}
	if float64(short)/float64(len(subjects)) > c.shortRatio {
		return domain.Warn(
			fmt.Sprintf("%d of %d recent commits have short messages", short, len(subjects)),
			"Write commit messages that describe the change",
			details,
		), nil
	}
	return domain.Pass(fmt.Sprintf("%d%% of recent commits follow the conventional format", percent), details), nil
}

func (c *CommitHistory) CacheKey(cc domain.CheckContext) []string {
	return []string{headRefDigest(cc)}
}

// parseOneline drops the abbreviated hash of each `git log --oneline` line.
func parseOneline(out string) []string {
	var subjects []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, subject, ok := strings.Cut(line, " "); ok {
			subjects = append(subjects, subject)
		} else {
			subjects = append(subjects, "")
		}
	}
	return subjects
}
