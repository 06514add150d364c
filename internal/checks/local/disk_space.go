package local

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/doeshing/vitals/internal/checks/base"
	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/ports"
)

// Threshold defaults in GB; overridable under checks.thresholds["local.disk-space"].
const (
	DefaultMinFreeGB  = 1.0
	DefaultWarnFreeGB = 5.0
)

// DiskSpace checks free space on the volume holding the project.
type DiskSpace struct {
	base.Meta
	runner   ports.CommandRunner
	minFree  float64
	warnFree float64
}

// NewDiskSpace builds the check with thresholds from cfg.
func NewDiskSpace(runner ports.CommandRunner, cfg domain.Config) *DiskSpace {
	id := "local.disk-space"
	return &DiskSpace{
		Meta: base.Meta{
			CheckID:     id,
			Cat:         domain.CategoryLocal,
			Sev:         domain.SeverityMedium,
			Tier:        3,
			Title:       "Disk Space",
			Summary:     "Checks available disk space",
			Labels:      []string{"disk", "resources"},
			ExecTimeout: 5 * time.Second,
		},
		runner:   runner,
		minFree:  cfg.Threshold(id, "min_free_gb", DefaultMinFreeGB),
		warnFree: cfg.Threshold(id, "warn_free_gb", DefaultWarnFreeGB),
	}
}

func (c *DiskSpace) Execute(ctx context.Context, cc domain.CheckContext) (domain.CheckResult, error) {
	out, ok := base.Output(ctx, c.runner, cc.ProjectRoot, "df", "-k", cc.ProjectRoot)
	if !ok {
		return domain.Errored("Could not check disk space", map[string]interface{}{"output": out}), nil
	}
	availKB, err := ParseDFAvailable(out)
	if err != nil {
		return domain.Errored("Could not check disk space: "+err.Error(), nil), nil
	}

	freeGB := float64(availKB) / (1024 * 1024)
	details := map[string]interface{}{
		"free_gb":      round1(freeGB),
		"min_free_gb":  c.minFree,
		"warn_free_gb": c.warnFree,
	}
	switch {
	case freeGB < c.minFree:
		return domain.Fail(
			fmt.Sprintf("Low disk space: %.1f GB free (minimum %.1f GB)", freeGB, c.minFree),
			"Free up disk space by removing unused files, caches or build artifacts",
			details,
		), nil
	case freeGB < c.warnFree:
		return domain.Warn(
			fmt.Sprintf("Disk space running low: %.1f GB free", freeGB),
			"Consider freeing up disk space soon",
			details,
		), nil
	}
	return domain.Pass(fmt.Sprintf("%.1f GB free", freeGB), details), nil
}

func (c *DiskSpace) Healer() *domain.Healer {
	return base.ManualHealer("disk-cleanup-guide", []string{
		"Empty the trash and remove large downloads",
		"Clear package manager caches (npm cache clean --force, go clean -cache)",
		"Remove unused containers and images (docker system prune)",
		"Delete build outputs such as node_modules, dist and coverage in inactive projects",
	}, "", "Review what you delete; removed files may not be recoverable.")
}

// ParseDFAvailable extracts the available-KB column from `df -k` output.
// Rows wrapped onto two lines by long device names are handled by locating the
// capacity column (the field ending in %).
func ParseDFAvailable(out string) (int64, error) {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 2 {
		return 0, fmt.Errorf("unexpected df output")
	}
	fields := strings.Fields(strings.Join(lines[1:], " "))
	for i, f := range fields {
		if strings.HasSuffix(f, "%") && i > 0 {
			return strconv.ParseInt(fields[i-1], 10, 64)
		}
	}
	return 0, fmt.Errorf("capacity column not found in df output")
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
