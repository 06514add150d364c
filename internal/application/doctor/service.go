// Package doctor orchestrates a full diagnostics run: selection, execution,
// aggregation, optional healing and persistence.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/doeshing/vitals/internal/application/aggregate"
	appconfig "github.com/doeshing/vitals/internal/application/config"
	"github.com/doeshing/vitals/internal/application/healing"
	"github.com/doeshing/vitals/internal/application/registry"
	"github.com/doeshing/vitals/internal/application/runner"
	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/ports"
)

// Service runs project diagnostics.
type Service struct {
	ConfigProvider   ports.ConfigProvider
	ContextCollector ports.ContextCollector
	Registry         *registry.Registry
	Cache            ports.ResultCache
	Store            ports.ReportStore
	Confirmer        ports.Confirmer
	Logger           ports.Logger
	// NewRunID overrides run id generation in tests.
	NewRunID func() string
}

// Request describes one run.
type Request struct {
	ProjectRoot string
	// Mode is the selection preset; empty uses the configured mode.
	Mode     domain.RunMode
	Selector registry.Selector
	// NoCache forces execution of cacheable checks.
	NoCache       bool
	SeverityFirst bool
	// Heal enables the remediation pass.
	Heal bool
	// MaxTier overrides healing.max_tier when non-nil.
	MaxTier   *int
	AssumeYes bool
	DryRun    bool
	// SkipHistory disables persisting the report.
	SkipHistory bool
}

// Run executes the selected checks and returns the final report. Only configuration
// errors abort a run; every check failure is captured in the report.
func (s *Service) Run(ctx context.Context, req Request) (domain.HealthReport, error) {
	if s.ConfigProvider == nil || s.ContextCollector == nil || s.Registry == nil || s.Logger == nil {
		return domain.HealthReport{}, errors.New("doctor.Service dependencies not satisfied")
	}

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		return domain.HealthReport{}, fmt.Errorf("load config: %w", err)
	}
	if err := appconfig.Validate(cfg); err != nil {
		return domain.HealthReport{}, err
	}

	mode := req.Mode
	if mode == "" {
		if mode, err = domain.ParseRunMode(cfg.Runner.Mode); err != nil {
			return domain.HealthReport{}, err
		}
	}

	checks, err := s.Registry.Select(s.selector(req, mode, cfg))
	if err != nil {
		return domain.HealthReport{}, err
	}

	cc, err := s.ContextCollector.Collect(ctx, req.ProjectRoot)
	if err != nil {
		return domain.HealthReport{}, fmt.Errorf("collect context: %w", err)
	}

	started := time.Now()
	run := runner.New(s.Cache, s.Logger, runner.Options{
		Concurrency:    cfg.Runner.Concurrency,
		Timeout:        cfg.RunTimeout(),
		TTL:            cfg.CacheTTL(),
		SeverityFirst:  req.SeverityFirst || cfg.Runner.SeverityFirst,
		SkipCacheReads: req.NoCache,
		TimeoutFor:     cfg.CheckTimeout,
	})

	s.Logger.Info("running checks", map[string]interface{}{
		"count": len(checks),
		"mode":  string(mode),
		"root":  cc.ProjectRoot,
	})
	entries := run.Run(ctx, checks, cc)

	var records []domain.HealingRecord
	if req.Heal {
		opts := cfg.HealOptions()
		if req.MaxTier != nil {
			opts.MaxTier = *req.MaxTier
		}
		opts.AssumeYes = req.AssumeYes
		opts.DryRun = req.DryRun
		if opts.MaxTier < 0 {
			return domain.HealthReport{}, domain.NewConfigurationError("heal", "max tier must be >= 0, got %d", opts.MaxTier)
		}

		engine := healing.New(run, s.Confirmer, s.Logger, cfg.Runner.Concurrency)
		records = engine.Heal(ctx, checks, entries, cc, opts)
		entries = applyHealing(entries, records)
	}

	report := aggregate.Build(aggregate.Meta{
		RunID:       s.runID(),
		Mode:        mode,
		ProjectRoot: cc.ProjectRoot,
		StartedAt:   started,
		Duration:    time.Since(started),
	}, entries, records)

	if s.Store != nil && cfg.History.Enabled && !req.SkipHistory {
		if err := s.Store.Save(ctx, report); err != nil {
			s.Logger.Warn("failed to persist report", map[string]interface{}{"run_id": report.RunID, "error": err.Error()})
		}
	}
	return report, nil
}

// Checks lists the registered checks matching a selector.
func (s *Service) Checks(sel registry.Selector) ([]ports.Check, error) {
	if s.Registry == nil {
		return nil, errors.New("doctor.Service registry not configured")
	}
	return s.Registry.Select(sel)
}

func (s *Service) selector(req Request, mode domain.RunMode, cfg domain.Config) registry.Selector {
	sel := req.Selector
	if len(sel.Categories) == 0 && len(sel.IDs) == 0 {
		sel.Categories = registry.ForMode(mode).Categories
	}
	// Explicitly requested ids run even when disabled in config.
	for _, id := range cfg.Checks.Disabled {
		if !contains(sel.IDs, id) {
			sel.Exclude = append(sel.Exclude, id)
		}
	}
	return sel
}

func (s *Service) runID() string {
	if s.NewRunID != nil {
		return s.NewRunID()
	}
	return uuid.NewString()
}

// applyHealing replaces the result of every re-validated entry with its fresh
// result and attaches the healing record. The original result stays on the record.
func applyHealing(entries []domain.ReportEntry, records []domain.HealingRecord) []domain.ReportEntry {
	byID := make(map[string]int, len(records))
	for i, rec := range records {
		byID[rec.CheckID] = i
	}
	out := make([]domain.ReportEntry, len(entries))
	for i, e := range entries {
		if idx, ok := byID[e.CheckID]; ok {
			rec := records[idx]
			e.Healing = &rec
			if rec.Revalidated != nil {
				e.Result = *rec.Revalidated
				e.FromCache = false
			}
		}
		out[i] = e
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
