package doctor_test

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/vitals/internal/application/doctor"
	"github.com/doeshing/vitals/internal/application/registry"
	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/ports/portstest"
)

type staticConfig struct{ cfg domain.Config }

func (s staticConfig) Load(context.Context) (domain.Config, error) { return s.cfg, nil }

type rootCollector struct{}

func (rootCollector) Collect(_ context.Context, root string) (domain.CheckContext, error) {
	return domain.CheckContext{ProjectRoot: root, Env: map[string]string{}}, nil
}

type memoryStore struct{ saved []domain.HealthReport }

func (m *memoryStore) Save(_ context.Context, r domain.HealthReport) error {
	m.saved = append(m.saved, r)
	return nil
}
func (m *memoryStore) List(context.Context, int) ([]domain.HistoryRecord, error) { return nil, nil }
func (m *memoryStore) Load(context.Context, string) (domain.HealthReport, error) {
	return domain.HealthReport{}, domain.ErrRunNotFound
}
func (m *memoryStore) Prune(context.Context, time.Time) (int, error) { return 0, nil }
func (m *memoryStore) Clear(context.Context) error                   { return nil }

func baseConfig() domain.Config {
	return domain.Config{
		Runner:  domain.RunnerSettings{Concurrency: 2, Timeout: "1s", Mode: "quick"},
		Cache:   domain.CacheSettings{TTL: "1m"},
		Healing: domain.HealingSettings{MaxTier: 0, ConfirmAbove: 1},
		History: domain.HistorySettings{Enabled: true},
	}
}

func newService(t *testing.T, cfg domain.Config) (*doctor.Service, *registry.Registry, *memoryStore) {
	t.Helper()
	reg := registry.New()
	store := &memoryStore{}
	return &doctor.Service{
		ConfigProvider:   staticConfig{cfg: cfg},
		ContextCollector: rootCollector{},
		Registry:         reg,
		Cache:            portstest.NewCache(),
		Store:            store,
		Logger:           portstest.Logger{},
		NewRunID:         func() string { return "run-1" },
	}, reg, store
}

func TestRun_QuickModeSkipsServices(t *testing.T) {
	svc, reg, store := newService(t, baseConfig())
	require.NoError(t, reg.RegisterAll(
		portstest.NewCheck("local.a", domain.CategoryLocal, domain.SeverityLow),
		portstest.NewCheck("services.api", domain.CategoryServices, domain.SeverityLow),
		portstest.NewCheck("project.b", domain.CategoryProject, domain.SeverityHigh).
			Returning(domain.Warn("meh", "", nil)),
	))

	report, err := svc.Run(context.Background(), doctor.Request{ProjectRoot: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, domain.ModeQuick, report.Mode)
	require.Len(t, report.Results, 2)
	assert.Equal(t, "local.a", report.Results[0].CheckID)
	assert.Equal(t, "project.b", report.Results[1].CheckID)
	assert.Equal(t, domain.StatusWarning, report.OverallStatus)
	assert.Len(t, store.saved, 1)

	full, err := svc.Run(context.Background(), doctor.Request{ProjectRoot: t.TempDir(), Mode: domain.ModeFull, SkipHistory: true})
	require.NoError(t, err)
	assert.Len(t, full.Results, 3)
	assert.Len(t, store.saved, 1)
}

func TestRun_DisabledChecksExcludedUnlessRequested(t *testing.T) {
	cfg := baseConfig()
	cfg.Checks.Disabled = []string{"local.b"}
	svc, reg, _ := newService(t, cfg)
	require.NoError(t, reg.RegisterAll(
		portstest.NewCheck("local.a", domain.CategoryLocal, domain.SeverityLow),
		portstest.NewCheck("local.b", domain.CategoryLocal, domain.SeverityLow),
	))

	report, err := svc.Run(context.Background(), doctor.Request{ProjectRoot: t.TempDir()})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)

	report, err = svc.Run(context.Background(), doctor.Request{
		ProjectRoot: t.TempDir(),
		Selector:    registry.Selector{IDs: []string{"local.b"}},
	})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "local.b", report.Results[0].CheckID)
}

func TestRun_ConfigurationErrorsAbortBeforeExecution(t *testing.T) {
	svc, reg, store := newService(t, baseConfig())
	check := portstest.NewCheck("local.a", domain.CategoryLocal, domain.SeverityLow)
	require.NoError(t, reg.Register(check))

	_, err := svc.Run(context.Background(), doctor.Request{
		ProjectRoot: t.TempDir(),
		Selector:    registry.Selector{Categories: []domain.Category{"cloud"}},
	})
	assert.True(t, domain.IsConfigurationError(err))

	bad := baseConfig()
	bad.Runner.Concurrency = 0
	svc.ConfigProvider = staticConfig{cfg: bad}
	_, err = svc.Run(context.Background(), doctor.Request{ProjectRoot: t.TempDir()})
	assert.True(t, domain.IsConfigurationError(err))

	assert.Zero(t, check.Calls())
	assert.Empty(t, store.saved)
}

func TestRun_HealReplacesResultWithRevalidation(t *testing.T) {
	svc, reg, _ := newService(t, baseConfig())
	root := t.TempDir()

	var fixes atomic.Int64
	check := portstest.NewCheck("project.vitals-directory", domain.CategoryProject, domain.SeverityHigh)
	check.Tier = 1
	check.IsCacheable = true
	check.Run = func(_ context.Context, cc domain.CheckContext) (domain.CheckResult, error) {
		if _, err := os.Stat(cc.Path(".vitals")); err != nil {
			return domain.Fail(".vitals missing", "run vitals heal", nil), nil
		}
		return domain.Pass(".vitals present", nil), nil
	}
	check.Heal = &domain.Healer{
		Name:   "create-directories",
		Action: "create-directories",
		Fix: func(_ context.Context, cc domain.CheckContext) domain.FixOutcome {
			fixes.Add(1)
			if err := os.MkdirAll(cc.Path(".vitals"), 0o755); err != nil {
				return domain.FixFailed(err.Error())
			}
			return domain.FixApplied("created .vitals")
		},
	}
	require.NoError(t, reg.Register(check))

	withoutHeal, err := svc.Run(context.Background(), doctor.Request{ProjectRoot: root, NoCache: true})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFail, withoutHeal.OverallStatus)
	assert.Zero(t, fixes.Load())

	tier := 1
	report, err := svc.Run(context.Background(), doctor.Request{ProjectRoot: root, Heal: true, MaxTier: &tier, NoCache: true})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPass, report.OverallStatus)
	require.Len(t, report.Healing, 1)
	assert.Equal(t, domain.HealResolved, report.Healing[0].State)
	assert.Equal(t, domain.StatusFail, report.Healing[0].Original.Status)
	assert.Equal(t, 1, report.AutoFixedCount())

	entry, ok := report.Entry("project.vitals-directory")
	require.True(t, ok)
	assert.Equal(t, domain.StatusPass, entry.Result.Status)
	require.NotNil(t, entry.Healing)
}

func TestRun_DefaultCeilingNeverFixes(t *testing.T) {
	svc, reg, _ := newService(t, baseConfig())

	var fixes atomic.Int64
	check := portstest.NewCheck("project.x", domain.CategoryProject, domain.SeverityCritical).
		Returning(domain.Fail("broken", "", nil))
	check.Tier = 1
	check.Heal = &domain.Healer{Name: "fix-x", Action: "fix", Fix: func(context.Context, domain.CheckContext) domain.FixOutcome {
		fixes.Add(1)
		return domain.FixApplied("fixed")
	}}
	require.NoError(t, reg.Register(check))

	report, err := svc.Run(context.Background(), doctor.Request{ProjectRoot: t.TempDir(), Heal: true})
	require.NoError(t, err)

	assert.Zero(t, fixes.Load())
	assert.Equal(t, domain.StatusFail, report.OverallStatus)
	require.Len(t, report.Healing, 1)
	assert.Equal(t, domain.HealTerminalManual, report.Healing[0].State)
	assert.Equal(t, 1, report.ExitCode())
}
