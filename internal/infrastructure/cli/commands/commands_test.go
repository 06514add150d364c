package commands

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/vitals/internal/app"
	"github.com/doeshing/vitals/internal/application/doctor"
	"github.com/doeshing/vitals/internal/checks/repository"
	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/infrastructure/cache"
	"github.com/doeshing/vitals/internal/infrastructure/cli/helpers"
	"github.com/doeshing/vitals/internal/infrastructure/history"
	"github.com/doeshing/vitals/internal/ports"
)

func TestResolveHealTier(t *testing.T) {
	withTier := func(tier int) domain.Config {
		var cfg domain.Config
		cfg.Healing.MaxTier = tier
		return cfg
	}

	tests := []struct {
		name     string
		explicit bool
		flag     int
		cfg      domain.Config
		want     int
		wantErr  bool
	}{
		{"explicit flag wins", true, 3, withTier(1), 3, false},
		{"explicit zero allowed", true, 0, withTier(2), 0, false},
		{"negative rejected", true, -1, withTier(0), 0, true},
		{"config tier", false, 0, withTier(2), 2, false},
		{"config zero falls back", false, 0, withTier(0), DefaultHealTier, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveHealTier(tt.explicit, tt.flag, tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectionFlagsApply(t *testing.T) {
	flags := selectionFlags{
		categories: []string{"Local", "repository"},
		severities: []string{"high"},
		ids:        []string{" local.git-install "},
		mode:       "full",
	}

	var req doctor.Request
	require.NoError(t, flags.apply(&req))
	assert.Equal(t, []domain.Category{domain.CategoryLocal, domain.CategoryRepository}, req.Selector.Categories)
	assert.Equal(t, []domain.Severity{domain.SeverityHigh}, req.Selector.Severities)
	assert.Equal(t, []string{"local.git-install"}, req.Selector.IDs)
	assert.Equal(t, domain.ModeFull, req.Mode)

	bad := selectionFlags{mode: "slow"}
	assert.Error(t, bad.apply(&req))

	bad = selectionFlags{severities: []string{"urgent"}}
	assert.Error(t, bad.apply(&req))
}

func TestOutputFlagsResolvedFormat(t *testing.T) {
	var cfg domain.Config
	cfg.Output.Format = "text"

	assert.Equal(t, "text", (&outputFlags{}).resolvedFormat(cfg))
	assert.Equal(t, "json", (&outputFlags{json: true, format: "text"}).resolvedFormat(cfg))
	assert.Equal(t, "json", (&outputFlags{format: "json"}).resolvedFormat(cfg))

	_, err := (&outputFlags{format: "yaml"}).validate(cfg)
	assert.Error(t, err)
}

func TestRunAndRenderWithoutService(t *testing.T) {
	var out bytes.Buffer
	err := runAndRender(context.Background(), &out, &app.Container{}, doctor.Request{}, &outputFlags{})
	assert.EqualError(t, err, ErrDoctorServiceUnavailable)
}

func TestCacheCommands(t *testing.T) {
	memory := cache.NewMemoryCache()
	container := &app.Container{CacheStore: memory, CacheAdmin: memory}
	container.Config.Cache.MaxEntries = 10

	var out bytes.Buffer
	require.NoError(t, listCacheEntries(&out, container, time.Now()))
	assert.Contains(t, out.String(), MsgNoCachedResults)

	require.NoError(t, memory.Put("local.git-install", "a", domain.Pass("ok", nil), time.Hour))
	require.NoError(t, memory.Put("project.package-json", "b", domain.Pass("ok", nil), time.Hour))

	out.Reset()
	require.NoError(t, listCacheEntries(&out, container, time.Now()))
	assert.Contains(t, out.String(), "local.git-install | pass")
	assert.Contains(t, out.String(), "from now")

	out.Reset()
	require.NoError(t, showCacheStats(&out, container))
	assert.Contains(t, out.String(), "Current entries: 2")
	assert.Contains(t, out.String(), "project.package-json: 1")

	require.NoError(t, clearCache(container, []string{"local.git-install"}))
	entries, err := memory.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "project.package-json", entries[0].CheckID)

	require.NoError(t, clearCache(container, nil))
	entries, err = memory.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.EqualError(t, clearCache(&app.Container{}, nil), ErrCacheStoreUnavailable)
}

func TestHistoryCommands(t *testing.T) {
	ctx := context.Background()
	store := history.NewFileStore(t.TempDir() + "/runs.jsonl")
	container := &app.Container{HistoryStore: store}

	now := time.Now()
	reports := []domain.HealthReport{
		{
			RunID:         "old-run",
			StartedAt:     now.AddDate(0, 0, -40),
			OverallStatus: domain.StatusFail,
			Results: []domain.ReportEntry{
				{CheckID: "repository.gitignore", Result: domain.Fail("missing", "", nil)},
			},
			Summary: domain.Summary{Total: 1, ByStatus: map[domain.Status]int{domain.StatusFail: 1}},
		},
		{
			RunID:         "new-run",
			StartedAt:     now,
			OverallStatus: domain.StatusPass,
			Results: []domain.ReportEntry{
				{CheckID: "repository.gitignore", Result: domain.Pass("ok", nil)},
			},
			Summary: domain.Summary{Total: 1, ByStatus: map[domain.Status]int{domain.StatusPass: 1}},
		},
	}
	for _, rep := range reports {
		require.NoError(t, store.Save(ctx, rep))
	}

	var out bytes.Buffer
	require.NoError(t, listHistoryEntries(ctx, &out, container, 10))
	assert.Contains(t, out.String(), "new-run")
	assert.Contains(t, out.String(), "old-run")

	out.Reset()
	require.NoError(t, showHistoryStats(ctx, &out, container))
	assert.Contains(t, out.String(), "Runs analyzed: 2")
	assert.Contains(t, out.String(), "Healthy runs: 50.0%")
	assert.Contains(t, out.String(), "repository.gitignore (1)")

	out.Reset()
	require.NoError(t, pruneHistory(ctx, &out, container, 30, now))
	assert.Contains(t, out.String(), "Removed 1 run(s)")

	records, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "new-run", records[0].RunID)
}

func TestDisplayHistoryStatisticsOrdersFailures(t *testing.T) {
	stats := helpers.HistoryStatistics{
		Runs:      3,
		ByOverall: map[domain.Status]int{domain.StatusWarning: 3},
		Failing:   map[string]int{"b.check": 2, "a.check": 2, "c.check": 3},
	}

	var out bytes.Buffer
	displayHistoryStatistics(&out, stats)
	text := out.String()
	assert.Less(t, bytes.Index(out.Bytes(), []byte("c.check")), bytes.Index(out.Bytes(), []byte("a.check")))
	assert.Less(t, bytes.Index(out.Bytes(), []byte("a.check")), bytes.Index(out.Bytes(), []byte("b.check")))
	assert.Contains(t, text, "warning: 3")
}

func TestDescribeCheckMarksDisabled(t *testing.T) {
	var cfg domain.Config
	cfg.Checks.Disabled = []string{"repository.gitignore"}
	cfg.Healing.DisabledChecks = []string{"repository.gitignore"}

	listing := describeCheck(repository.NewGitignore(), cfg)
	assert.Equal(t, "repository.gitignore", listing.ID)
	assert.Equal(t, "MEDIUM", listing.Severity)
	assert.True(t, listing.Disabled)
	assert.True(t, listing.HealingDisabled)
	assert.NotEmpty(t, listing.Healer)

	var out bytes.Buffer
	require.NoError(t, writeCheckTable(&out, []ports.Check{repository.NewGitignore()}, cfg))
	assert.Contains(t, out.String(), "(disabled)")
	assert.Contains(t, out.String(), "1 check(s), 1 with automated fixes: repository.gitignore")
}
