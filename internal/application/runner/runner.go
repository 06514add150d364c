// Package runner executes checks with caching, bounded concurrency and per-check
// fault isolation.
package runner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/doeshing/vitals/internal/application/registry"
	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/ports"
)

// Options tunes a Runner.
type Options struct {
	// Concurrency bounds the number of checks executing at once.
	Concurrency int
	// Timeout is the default per-check execution timeout.
	Timeout time.Duration
	// TTL is the default cache lifetime for cacheable checks.
	TTL time.Duration
	// SeverityFirst executes and reports the most severe checks first.
	SeverityFirst bool
	// SkipCacheReads forces execution while still refreshing cache entries.
	SkipCacheReads bool
	// TimeoutFor returns a configured override for a check id, or zero.
	TimeoutFor func(checkID string) time.Duration
}

// Runner executes checks. It never returns an error for a check failure:
// every outcome, including panics and timeouts, becomes a result.
type Runner struct {
	cache  ports.ResultCache
	logger ports.Logger
	opts   Options
	now    func() time.Time
}

// New creates a Runner. cache may be nil to disable memoization.
func New(cache ports.ResultCache, logger ports.Logger, opts Options) *Runner {
	if opts.Concurrency <= 0 {
		opts.Concurrency = domain.DefaultConcurrency
	}
	if opts.Timeout <= 0 {
		opts.Timeout = domain.DefaultCheckTimeout
	}
	if opts.TTL <= 0 {
		opts.TTL = domain.DefaultCacheTTL
	}
	return &Runner{cache: cache, logger: logger, opts: opts, now: time.Now}
}

// Run executes checks and returns one entry per check, in execution order.
func (r *Runner) Run(ctx context.Context, checks []ports.Check, cc domain.CheckContext) []domain.ReportEntry {
	ordered := append([]ports.Check(nil), checks...)
	if r.opts.SeverityFirst {
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].Severity() > ordered[j].Severity()
		})
	}

	entries := make([]domain.ReportEntry, len(ordered))
	sem := semaphore.NewWeighted(int64(r.opts.Concurrency))
	var wg sync.WaitGroup

	for i, check := range ordered {
		if err := sem.Acquire(ctx, 1); err != nil {
			entries[i] = r.entry(check, domain.Errored("run cancelled before check started", nil), 0, false)
			continue
		}
		wg.Add(1)
		go func(i int, check ports.Check) {
			defer wg.Done()
			defer sem.Release(1)
			entries[i] = r.RunOne(ctx, check, cc)
		}(i, check)
	}
	wg.Wait()
	return entries
}

// RunOne executes a single check, consulting and refreshing the cache.
func (r *Runner) RunOne(ctx context.Context, check ports.Check, cc domain.CheckContext) domain.ReportEntry {
	start := r.now()
	fingerprint := Fingerprint(check, cc)

	if check.Cacheable() && r.cache != nil && !r.opts.SkipCacheReads {
		if cached, ok := r.cache.Get(check.ID(), fingerprint); ok {
			r.logger.Debug("check served from cache", map[string]interface{}{"check": check.ID()})
			return r.entry(check, cached.Clone(), r.now().Sub(start), true)
		}
	}

	result := r.execute(ctx, check, cc)
	duration := r.now().Sub(start)

	if check.Cacheable() {
		if err := r.Store(check, cc, result); err != nil {
			r.logger.Warn("failed to cache check result", map[string]interface{}{"check": check.ID(), "error": err.Error()})
		}
	}

	r.logger.Debug("check executed", map[string]interface{}{
		"check":    check.ID(),
		"status":   string(result.Status),
		"duration": duration.String(),
	})
	return r.entry(check, result, duration, false)
}

// Store writes a result for check into the cache. Writing a result of a
// non-cacheable check is refused with domain.ErrNotCacheable. Error results are
// skipped so the next run retries.
func (r *Runner) Store(check ports.Check, cc domain.CheckContext, result domain.CheckResult) error {
	if !check.Cacheable() {
		return fmt.Errorf("store %s: %w", check.ID(), domain.ErrNotCacheable)
	}
	if r.cache == nil || result.Status == domain.StatusError {
		return nil
	}
	return r.cache.Put(check.ID(), Fingerprint(check, cc), result.Clone(), r.ttlFor(check))
}

// Invalidate drops every cached result of a check.
func (r *Runner) Invalidate(checkID string) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Invalidate(checkID)
}

type outcome struct {
	result domain.CheckResult
	err    error
}

func (r *Runner) execute(ctx context.Context, check ports.Check, cc domain.CheckContext) domain.CheckResult {
	timeout := r.timeoutFor(check)
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Buffered so a check that ignores cancellation can still finish and exit.
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- outcome{err: fmt.Errorf("check panicked: %v", rec)}
			}
		}()
		result, err := check.Execute(execCtx, cc)
		done <- outcome{result: result, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			if errors.Is(out.err, context.DeadlineExceeded) {
				return timeoutResult(timeout)
			}
			r.logger.Error("check execution failed", out.err, map[string]interface{}{"check": check.ID()})
			return domain.Errored(out.err.Error(), nil)
		}
		if !out.result.Status.Valid() {
			return domain.Errored(fmt.Sprintf("check returned invalid status %q", out.result.Status), nil)
		}
		return out.result
	case <-execCtx.Done():
		if ctx.Err() != nil {
			return domain.Errored("run cancelled", map[string]interface{}{"reason": ctx.Err().Error()})
		}
		r.logger.Warn("check timed out", map[string]interface{}{"check": check.ID(), "timeout": timeout.String()})
		return timeoutResult(timeout)
	}
}

func timeoutResult(timeout time.Duration) domain.CheckResult {
	return domain.Errored(
		fmt.Sprintf("check timed out after %s", timeout),
		map[string]interface{}{"timeout": timeout.String()},
	)
}

func (r *Runner) entry(check ports.Check, result domain.CheckResult, duration time.Duration, fromCache bool) domain.ReportEntry {
	name, _, _ := registry.Describe(check)
	healer := registry.HealerOf(check)
	return domain.ReportEntry{
		CheckID:     check.ID(),
		Name:        name,
		Category:    check.Category(),
		Severity:    check.Severity(),
		HealingTier: check.HealingTier(),
		Healable:    check.HealingTier() > 0 && !healer.Manual(),
		Result:      result,
		Duration:    duration,
		Timestamp:   r.now(),
		FromCache:   fromCache,
	}
}

func (r *Runner) timeoutFor(check ports.Check) time.Duration {
	if r.opts.TimeoutFor != nil {
		if d := r.opts.TimeoutFor(check.ID()); d > 0 {
			return d
		}
	}
	if tp, ok := check.(ports.TimeoutProvider); ok {
		if d := tp.Timeout(); d > 0 {
			return d
		}
	}
	return r.opts.Timeout
}

func (r *Runner) ttlFor(check ports.Check) time.Duration {
	if tp, ok := check.(ports.TTLProvider); ok {
		if d := tp.TTL(); d > 0 {
			return d
		}
	}
	return r.opts.TTL
}

// Fingerprint hashes the inputs a check's result depends on: its id, the project
// root and any additional key inputs the check declares.
func Fingerprint(check ports.Check, cc domain.CheckContext) string {
	h := sha256.New()
	h.Write([]byte(check.ID()))
	h.Write([]byte{0})
	h.Write([]byte(cc.ProjectRoot))
	if keyer, ok := check.(ports.CacheKeyer); ok {
		for _, part := range keyer.CacheKey(cc) {
			h.Write([]byte{0})
			h.Write([]byte(part))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
