package project

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/doeshing/vitals/internal/checks/base"
	"github.com/doeshing/vitals/internal/domain"
)

// StateSubdirs are created inside the state directory.
var StateSubdirs = []string{"cache", "history"}

// VitalsDirectory validates the per-project state directory.
type VitalsDirectory struct {
	base.Meta
}

// NewVitalsDirectory builds the check.
func NewVitalsDirectory() *VitalsDirectory {
	return &VitalsDirectory{Meta: base.Meta{
		CheckID: "project.vitals-directory",
		Cat:     domain.CategoryProject,
		Sev:     domain.SeverityMedium,
		Cache:   true,
		Tier:    1,
		Title:   "State Directory",
		Summary: "Validates the " + domain.StateDirName + " directory layout",
		Labels:  []string{"vitals", "config", "layout"},
	}}
}

func (c *VitalsDirectory) Execute(_ context.Context, cc domain.CheckContext) (domain.CheckResult, error) {
	dir := cc.Path(domain.StateDirName)
	switch base.PathKind(dir) {
	case "absent":
		return domain.Pass(domain.StateDirName+" directory not present (optional)", nil), nil
	case "dir":
	default:
		return domain.Fail(
			domain.StateDirName+" exists but is not a directory",
			"Run: vitals heal to move it aside and recreate the directory",
			nil,
		), nil
	}

	if !writable(dir) {
		return domain.Warn(
			domain.StateDirName+" directory is not writable",
			fmt.Sprintf("Fix permissions: chmod u+w %s", dir),
			nil,
		), nil
	}

	var wrong []string
	for _, sub := range StateSubdirs {
		if kind := base.PathKind(filepath.Join(dir, sub)); kind != "dir" && kind != "absent" {
			wrong = append(wrong, sub)
		}
	}
	if len(wrong) > 0 {
		return domain.Warn(
			fmt.Sprintf("%s contains files where directories are expected: %s", domain.StateDirName, strings.Join(wrong, ", ")),
			"Run: vitals heal to recreate the expected layout",
			map[string]interface{}{"invalid": wrong},
		), nil
	}
	return domain.Pass(domain.StateDirName+" directory is valid", nil), nil
}

func (c *VitalsDirectory) CacheKey(cc domain.CheckContext) []string {
	dir := cc.Path(domain.StateDirName)
	key := []string{base.PathKind(dir)}
	for _, sub := range StateSubdirs {
		key = append(key, base.PathKind(filepath.Join(dir, sub)))
	}
	if info, err := os.Stat(dir); err == nil {
		key = append(key, info.Mode().Perm().String())
	}
	return key
}

func (c *VitalsDirectory) Healer() *domain.Healer {
	return &domain.Healer{
		Name:        "create-directories",
		Action:      "create-directories",
		Steps:       []string{"Create " + domain.StateDirName + " with its cache and history directories"},
		TargetPaths: []string{domain.StateDirName},
		Fix:         fixStateDirectory,
	}
}

// fixStateDirectory moves files blocking the layout aside and creates the directories.
func fixStateDirectory(_ context.Context, cc domain.CheckContext) domain.FixOutcome {
	dir := cc.Path(domain.StateDirName)
	paths := []string{dir}
	for _, sub := range StateSubdirs {
		paths = append(paths, filepath.Join(dir, sub))
	}

	var backup string
	changed := false
	for _, p := range paths {
		switch base.PathKind(p) {
		case "dir":
			continue
		case "absent":
		default:
			moved := p + domain.BackupSuffix
			if err := os.Rename(p, moved); err != nil {
				return domain.FixFailed(fmt.Sprintf("move %s aside: %v", p, err))
			}
			if backup == "" {
				backup = moved
			}
		}
		if err := os.Mkdir(p, domain.DirectoryPermissions); err != nil {
			return domain.FixFailed(fmt.Sprintf("create %s: %v", p, err))
		}
		changed = true
	}
	if info, err := os.Stat(dir); err == nil && info.Mode().Perm()&0o200 == 0 {
		if err := os.Chmod(dir, info.Mode().Perm()|0o200); err != nil {
			return domain.FixFailed(fmt.Sprintf("make %s writable: %v", dir, err))
		}
		changed = true
	}

	if !changed {
		return domain.FixNoop(domain.StateDirName + " layout already valid")
	}
	out := domain.FixApplied("created " + domain.StateDirName + " layout")
	out.BackupPath = backup
	return out
}
