// Package base holds the metadata and helpers shared by the built-in checks.
package base

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/ports"
)

// Meta implements the static part of ports.Check and ports.Describer.
// Checks embed it and add Execute.
type Meta struct {
	CheckID     string
	Cat         domain.Category
	Sev         domain.Severity
	Cache       bool
	Tier        int
	Title       string
	Summary     string
	Labels      []string
	ExecTimeout time.Duration
}

func (m Meta) ID() string                { return m.CheckID }
func (m Meta) Category() domain.Category { return m.Cat }
func (m Meta) Severity() domain.Severity { return m.Sev }
func (m Meta) Cacheable() bool           { return m.Cache }
func (m Meta) HealingTier() int          { return m.Tier }
func (m Meta) Name() string              { return m.Title }
func (m Meta) Description() string       { return m.Summary }
func (m Meta) Tags() []string            { return m.Labels }
func (m Meta) Timeout() time.Duration    { return m.ExecTimeout }

// Output runs a command and returns its trimmed stdout. ok is false when the
// command could not start or exited non-zero.
func Output(ctx context.Context, runner ports.CommandRunner, dir, name string, args ...string) (string, bool) {
	if runner == nil {
		return "", false
	}
	res, err := runner.Run(ctx, dir, name, args...)
	if err != nil || res.ExitCode != 0 {
		return strings.TrimSpace(res.Stdout + res.Stderr), false
	}
	return strings.TrimSpace(res.Stdout), true
}

// CombinedOutput runs a command and returns stdout and stderr joined, plus its exit status.
func CombinedOutput(ctx context.Context, runner ports.CommandRunner, dir, name string, args ...string) (string, int, error) {
	if runner == nil {
		return "", -1, fmt.Errorf("no command runner")
	}
	res, err := runner.Run(ctx, dir, name, args...)
	return strings.TrimSpace(res.Stdout + "\n" + res.Stderr), res.ExitCode, err
}

// Backup copies path to path+domain.BackupSuffix. A missing file is not backed
// up and yields an empty backup path.
func Backup(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	defer src.Close()

	dest := path + domain.BackupSuffix
	dst, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, domain.FilePermissions)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return "", err
	}
	return dest, dst.Close()
}

// FileDigest returns a short content hash for cache keys, or a marker when the
// file is missing or unreadable.
func FileDigest(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "absent"
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// PathKind describes what sits at path: "dir", "file", "other" or "absent".
func PathKind(path string) string {
	info, err := os.Stat(path)
	switch {
	case err != nil:
		return "absent"
	case info.IsDir():
		return "dir"
	case info.Mode().IsRegular():
		return "file"
	default:
		return "other"
	}
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Limit returns at most n items.
func Limit(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

// ManualHealer builds a guide-only healer.
func ManualHealer(name string, steps []string, docs, warning string) *domain.Healer {
	return &domain.Healer{
		Name:          name,
		Action:        domain.HealActionManual,
		Steps:         steps,
		Documentation: docs,
		Warning:       warning,
	}
}
