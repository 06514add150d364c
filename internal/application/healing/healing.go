// Package healing runs the second, remediation pass over a report.
//
// Every negative result walks a small state machine: it starts DETECTED, becomes
// HEALABLE when an automated healer exists, moves to APPLYING when the healer's tier
// is within the caller's ceiling (and, above the confirmation threshold, the operator
// agreed), and ends HEALED then RESOLVED or UNRESOLVED after the check is re-run
// against a freshly invalidated cache. Manual healers, tier 0 checks and fixes above
// the ceiling end TERMINAL-MANUAL. A fix that reports failure or panics ends FAILED.
package healing

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/doeshing/vitals/internal/application/registry"
	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/ports"
)

// Revalidator re-runs a check after its fix. *runner.Runner satisfies it.
type Revalidator interface {
	RunOne(ctx context.Context, check ports.Check, cc domain.CheckContext) domain.ReportEntry
	Invalidate(checkID string) error
}

// Engine applies healers.
type Engine struct {
	validator   Revalidator
	confirmer   ports.Confirmer
	logger      ports.Logger
	locks       *pathLocks
	concurrency int
	now         func() time.Time
}

// New creates an Engine. confirmer may be nil, in which case fixes that need
// confirmation are left to the operator unless HealOptions.AssumeYes is set.
func New(validator Revalidator, confirmer ports.Confirmer, logger ports.Logger, concurrency int) *Engine {
	if concurrency <= 0 {
		concurrency = domain.DefaultConcurrency
	}
	return &Engine{
		validator:   validator,
		confirmer:   confirmer,
		logger:      logger,
		locks:       newPathLocks(),
		concurrency: concurrency,
		now:         time.Now,
	}
}

// Heal returns one record per negative entry (warning or fail), in entry order.
// Confirmation prompts are issued sequentially before any fix runs; approved fixes then
// run concurrently, serialized on shared target paths.
func (e *Engine) Heal(ctx context.Context, checks []ports.Check, entries []domain.ReportEntry, cc domain.CheckContext, opts domain.HealOptions) []domain.HealingRecord {
	byID := make(map[string]ports.Check, len(checks))
	for _, c := range checks {
		byID[c.ID()] = c
	}

	var records []domain.HealingRecord
	var approved []int
	for _, entry := range entries {
		if !entry.Result.Status.Negative() {
			continue
		}
		check, ok := byID[entry.CheckID]
		if !ok {
			continue
		}
		rec := e.plan(check, entry, opts)
		records = append(records, rec)
		if rec.State == domain.HealApplying {
			approved = append(approved, len(records)-1)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for _, idx := range approved {
		idx := idx
		check := byID[records[idx].CheckID]
		g.Go(func() error {
			e.apply(gctx, check, &records[idx], cc)
			return nil
		})
	}
	_ = g.Wait()

	return records
}

// plan decides whether a fix may be applied. It returns a record in state APPLYING
// for approved fixes, or a terminal (or dry-run HEALABLE) record otherwise.
func (e *Engine) plan(check ports.Check, entry domain.ReportEntry, opts domain.HealOptions) domain.HealingRecord {
	tier := check.HealingTier()
	rec := domain.HealingRecord{
		CheckID:  check.ID(),
		Tier:     tier,
		State:    domain.HealDetected,
		Original: entry.Result.Clone(),
	}

	healer := registry.HealerOf(check)
	if healer == nil {
		return terminalManual(rec, "no healer available")
	}
	rec.Healer = healer.Name
	rec.Action = healer.Action
	rec.Steps = append([]string(nil), healer.Steps...)
	rec.Warning = healer.Warning
	rec.Documentation = healer.Documentation

	if healer.Manual() {
		return terminalManual(rec, "manual remediation required")
	}
	if tier == 0 {
		return terminalManual(rec, "tier 0 checks are never fixed automatically")
	}
	for _, id := range opts.Disabled {
		if id == check.ID() {
			return terminalManual(rec, "automated healing disabled for this check")
		}
	}

	rec.State = domain.HealHealable
	if tier > opts.MaxTier {
		return terminalManual(rec, fmt.Sprintf("tier %d exceeds healing ceiling %d", tier, opts.MaxTier))
	}
	if opts.DryRun {
		rec.Reason = "dry run"
		rec.Message = fmt.Sprintf("would apply %s", healer.Name)
		return rec
	}

	if tier > opts.ConfirmAbove && !opts.AssumeYes {
		if e.confirmer == nil || !e.confirmer.Enabled() {
			return terminalManual(rec, fmt.Sprintf("tier %d fix requires confirmation", tier))
		}
		ok, err := e.confirmer.Confirm(check.ID(), tier, *healer)
		if err != nil {
			e.logger.Warn("confirmation failed", map[string]interface{}{"check": check.ID(), "error": err.Error()})
			return terminalManual(rec, "confirmation failed: "+err.Error())
		}
		if !ok {
			return terminalManual(rec, "declined by operator")
		}
	}

	rec.State = domain.HealApplying
	return rec
}

func (e *Engine) apply(ctx context.Context, check ports.Check, rec *domain.HealingRecord, cc domain.CheckContext) {
	healer := registry.HealerOf(check)
	start := e.now()
	defer func() { rec.Duration = e.now().Sub(start) }()

	unlock := e.locks.lock(cc.ProjectRoot, healer.TargetPaths)
	outcome, err := runFix(ctx, healer.Fix, cc)
	unlock()

	if err != nil {
		e.logger.Error("fix panicked", err, map[string]interface{}{"check": check.ID(), "healer": healer.Name})
		rec.State = domain.HealFailed
		rec.Message = err.Error()
		return
	}
	rec.Message = outcome.Message
	rec.BackupPath = outcome.BackupPath
	if !outcome.Success {
		rec.State = domain.HealFailed
		e.logger.Warn("fix failed", map[string]interface{}{"check": check.ID(), "healer": healer.Name, "message": outcome.Message})
		return
	}

	rec.State = domain.HealHealed
	if err := e.validator.Invalidate(check.ID()); err != nil {
		e.logger.Warn("cache invalidation failed", map[string]interface{}{"check": check.ID(), "error": err.Error()})
	}

	revalidated := e.validator.RunOne(ctx, check, cc)
	result := revalidated.Result
	rec.Revalidated = &result
	if result.Status == domain.StatusPass {
		rec.State = domain.HealResolved
	} else {
		rec.State = domain.HealUnresolved
	}
	e.logger.Info("healing finished", map[string]interface{}{
		"check":   check.ID(),
		"healer":  healer.Name,
		"state":   string(rec.State),
		"changed": outcome.Changed,
	})
}

func runFix(ctx context.Context, fix domain.FixFunc, cc domain.CheckContext) (outcome domain.FixOutcome, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("fix panicked: %v", rec)
		}
	}()
	return fix(ctx, cc), nil
}

func terminalManual(rec domain.HealingRecord, reason string) domain.HealingRecord {
	rec.State = domain.HealTerminalManual
	rec.Reason = reason
	return rec
}

// pathLocks serializes fixes that write the same files.
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPathLocks() *pathLocks {
	return &pathLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires every path in sorted order and returns the release func.
// Fixes that declare no paths share one lock for the project root.
func (p *pathLocks) lock(root string, paths []string) func() {
	keys := make([]string, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	for _, rel := range paths {
		key := filepath.Clean(filepath.Join(root, rel))
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		keys = append(keys, filepath.Clean(root))
	}
	sort.Strings(keys)

	held := make([]*sync.Mutex, 0, len(keys))
	for _, key := range keys {
		p.mu.Lock()
		m, ok := p.locks[key]
		if !ok {
			m = &sync.Mutex{}
			p.locks[key] = m
		}
		p.mu.Unlock()
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
