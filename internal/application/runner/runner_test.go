package runner_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/vitals/internal/application/runner"
	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/ports"
	"github.com/doeshing/vitals/internal/ports/portstest"
)

var testCtx = domain.CheckContext{ProjectRoot: "/tmp/project", Env: map[string]string{"HOME": "/home/dev"}}

func newRunner(cache ports.ResultCache, opts runner.Options) *runner.Runner {
	return runner.New(cache, portstest.Logger{}, opts)
}

func TestRun_PreservesOrderAndIsolatesFaults(t *testing.T) {
	pass := portstest.NewCheck("local.pass", domain.CategoryLocal, domain.SeverityLow)
	panics := portstest.NewCheck("local.panics", domain.CategoryLocal, domain.SeverityHigh)
	panics.Run = func(context.Context, domain.CheckContext) (domain.CheckResult, error) {
		panic("boom")
	}
	errs := portstest.NewCheck("project.errors", domain.CategoryProject, domain.SeverityMedium)
	errs.Run = func(context.Context, domain.CheckContext) (domain.CheckResult, error) {
		return domain.CheckResult{}, errors.New("cannot read package.json")
	}
	fails := portstest.NewCheck("project.fails", domain.CategoryProject, domain.SeverityCritical).
		Returning(domain.Fail("missing", "create it", nil))

	entries := newRunner(nil, runner.Options{Concurrency: 2}).Run(context.Background(),
		[]ports.Check{pass, panics, errs, fails}, testCtx)

	require.Len(t, entries, 4)
	assert.Equal(t, "local.pass", entries[0].CheckID)
	assert.Equal(t, domain.StatusPass, entries[0].Result.Status)

	assert.Equal(t, "local.panics", entries[1].CheckID)
	assert.Equal(t, domain.StatusError, entries[1].Result.Status)
	assert.Contains(t, entries[1].Result.Message, "boom")

	assert.Equal(t, domain.StatusError, entries[2].Result.Status)
	assert.Contains(t, entries[2].Result.Message, "package.json")

	assert.Equal(t, domain.StatusFail, entries[3].Result.Status)
	assert.Equal(t, domain.SeverityCritical, entries[3].Severity)
}

func TestRun_TimeoutBecomesError(t *testing.T) {
	stubborn := portstest.NewCheck("services.slow", domain.CategoryServices, domain.SeverityLow)
	release := make(chan struct{})
	defer close(release)
	stubborn.Run = func(context.Context, domain.CheckContext) (domain.CheckResult, error) {
		<-release
		return domain.Pass("late", nil), nil
	}
	cooperative := portstest.NewCheck("services.cooperative", domain.CategoryServices, domain.SeverityLow)
	cooperative.Run = func(ctx context.Context, _ domain.CheckContext) (domain.CheckResult, error) {
		<-ctx.Done()
		return domain.CheckResult{}, ctx.Err()
	}

	start := time.Now()
	entries := newRunner(nil, runner.Options{Timeout: 50 * time.Millisecond}).Run(context.Background(),
		[]ports.Check{stubborn, cooperative}, testCtx)

	assert.Less(t, time.Since(start), 2*time.Second)
	for _, e := range entries {
		assert.Equal(t, domain.StatusError, e.Result.Status, e.CheckID)
		assert.Contains(t, e.Result.Message, "timed out")
	}
}

func TestRun_PerCheckTimeoutOverrides(t *testing.T) {
	slow := portstest.NewCheck("services.slow", domain.CategoryServices, domain.SeverityLow)
	slow.ExecTimeout = time.Second
	slow.Run = func(ctx context.Context, _ domain.CheckContext) (domain.CheckResult, error) {
		select {
		case <-time.After(100 * time.Millisecond):
			return domain.Pass("done", nil), nil
		case <-ctx.Done():
			return domain.CheckResult{}, ctx.Err()
		}
	}

	r := newRunner(nil, runner.Options{Timeout: 10 * time.Millisecond})
	assert.Equal(t, domain.StatusPass, r.RunOne(context.Background(), slow, testCtx).Result.Status)

	configured := newRunner(nil, runner.Options{
		Timeout:    10 * time.Millisecond,
		TimeoutFor: func(string) time.Duration { return 20 * time.Millisecond },
	})
	assert.Equal(t, domain.StatusError, configured.RunOne(context.Background(), slow, testCtx).Result.Status)
}

func TestRun_BoundsConcurrency(t *testing.T) {
	var running, peak atomic.Int64
	var checks []ports.Check
	for _, id := range []string{"local.a", "local.b", "local.c", "local.d", "local.e", "local.f"} {
		c := portstest.NewCheck(id, domain.CategoryLocal, domain.SeverityLow)
		c.Run = func(context.Context, domain.CheckContext) (domain.CheckResult, error) {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			running.Add(-1)
			return domain.Pass("ok", nil), nil
		}
		checks = append(checks, c)
	}

	entries := newRunner(nil, runner.Options{Concurrency: 2}).Run(context.Background(), checks, testCtx)

	assert.Len(t, entries, 6)
	assert.LessOrEqual(t, peak.Load(), int64(2))
}

func TestRun_SeverityFirst(t *testing.T) {
	low := portstest.NewCheck("local.low", domain.CategoryLocal, domain.SeverityLow)
	crit := portstest.NewCheck("local.crit", domain.CategoryLocal, domain.SeverityCritical)
	med := portstest.NewCheck("local.med", domain.CategoryLocal, domain.SeverityMedium)
	crit2 := portstest.NewCheck("local.crit2", domain.CategoryLocal, domain.SeverityCritical)

	entries := newRunner(nil, runner.Options{SeverityFirst: true}).Run(context.Background(),
		[]ports.Check{low, crit, med, crit2}, testCtx)

	var got []string
	for _, e := range entries {
		got = append(got, e.CheckID)
	}
	assert.Equal(t, []string{"local.crit", "local.crit2", "local.med", "local.low"}, got)
}

func TestRun_CacheHitExecutesOnce(t *testing.T) {
	cache := portstest.NewCache()
	c := portstest.NewCheck("project.package-json", domain.CategoryProject, domain.SeverityCritical)
	c.IsCacheable = true
	r := newRunner(cache, runner.Options{})

	first := r.RunOne(context.Background(), c, testCtx)
	second := r.RunOne(context.Background(), c, testCtx)

	assert.Equal(t, 1, c.Calls())
	assert.False(t, first.FromCache)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Result, second.Result)
}

func TestRun_NonCacheableNeverStored(t *testing.T) {
	cache := portstest.NewCache()
	c := portstest.NewCheck("repository.git-status", domain.CategoryRepository, domain.SeverityLow)
	r := newRunner(cache, runner.Options{})

	r.RunOne(context.Background(), c, testCtx)
	r.RunOne(context.Background(), c, testCtx)

	assert.Equal(t, 2, c.Calls())
	assert.Zero(t, cache.Len())

	err := r.Store(c, testCtx, domain.Pass("ok", nil))
	assert.ErrorIs(t, err, domain.ErrNotCacheable)
	assert.Zero(t, cache.Len())
}

func TestRun_ErrorResultsNotCached(t *testing.T) {
	cache := portstest.NewCache()
	c := portstest.NewCheck("local.flaky", domain.CategoryLocal, domain.SeverityLow)
	c.IsCacheable = true
	c.Run = func(context.Context, domain.CheckContext) (domain.CheckResult, error) {
		return domain.CheckResult{}, errors.New("transient")
	}
	r := newRunner(cache, runner.Options{})

	r.RunOne(context.Background(), c, testCtx)
	r.RunOne(context.Background(), c, testCtx)

	assert.Equal(t, 2, c.Calls())
	assert.Zero(t, cache.Len())
}

func TestRun_SkipCacheReadsStillRefreshes(t *testing.T) {
	cache := portstest.NewCache()
	c := portstest.NewCheck("local.a", domain.CategoryLocal, domain.SeverityLow)
	c.IsCacheable = true

	r := newRunner(cache, runner.Options{SkipCacheReads: true})
	r.RunOne(context.Background(), c, testCtx)
	r.RunOne(context.Background(), c, testCtx)

	assert.Equal(t, 2, c.Calls())
	assert.Equal(t, 1, cache.Len())
}

func TestRun_InvalidStatusIsError(t *testing.T) {
	c := portstest.NewCheck("local.weird", domain.CategoryLocal, domain.SeverityLow).
		Returning(domain.CheckResult{Status: "maybe"})

	entry := newRunner(nil, runner.Options{}).RunOne(context.Background(), c, testCtx)
	assert.Equal(t, domain.StatusError, entry.Result.Status)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := portstest.NewCheck("local.a", domain.CategoryLocal, domain.SeverityLow)
	c.Run = func(ctx context.Context, _ domain.CheckContext) (domain.CheckResult, error) {
		<-ctx.Done()
		return domain.CheckResult{}, ctx.Err()
	}

	entries := newRunner(nil, runner.Options{}).Run(ctx, []ports.Check{c, c}, testCtx)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, domain.StatusError, e.Result.Status)
	}
}

func TestFingerprint(t *testing.T) {
	a := portstest.NewCheck("local.a", domain.CategoryLocal, domain.SeverityLow)
	b := portstest.NewCheck("local.b", domain.CategoryLocal, domain.SeverityLow)

	assert.Equal(t, runner.Fingerprint(a, testCtx), runner.Fingerprint(a, testCtx))
	assert.NotEqual(t, runner.Fingerprint(a, testCtx), runner.Fingerprint(b, testCtx))

	other := testCtx
	other.ProjectRoot = "/tmp/other"
	assert.NotEqual(t, runner.Fingerprint(a, testCtx), runner.Fingerprint(a, other))

	keyed := portstest.NewCheck("local.a", domain.CategoryLocal, domain.SeverityLow)
	keyed.Key = []string{"NODE_ENV=production"}
	assert.NotEqual(t, runner.Fingerprint(a, testCtx), runner.Fingerprint(keyed, testCtx))
}

func TestInvalidate(t *testing.T) {
	cache := portstest.NewCache()
	c := portstest.NewCheck("local.a", domain.CategoryLocal, domain.SeverityLow)
	c.IsCacheable = true
	r := newRunner(cache, runner.Options{})

	r.RunOne(context.Background(), c, testCtx)
	require.NoError(t, r.Invalidate("local.a"))
	r.RunOne(context.Background(), c, testCtx)

	assert.Equal(t, 2, c.Calls())
	assert.Equal(t, []string{"local.a"}, cache.Invalidated)
}
