// Package portstest provides in-memory fakes of the ports for tests.
package portstest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/doeshing/vitals/internal/domain"
)

// Check is a configurable fake check. Calls counts Execute invocations.
type Check struct {
	CheckID     string
	Cat         domain.Category
	Sev         domain.Severity
	IsCacheable bool
	Tier        int
	Heal        *domain.Healer
	Labels      []string
	Key         []string
	ExecTimeout time.Duration
	CacheTTL    time.Duration
	Run         func(ctx context.Context, cc domain.CheckContext) (domain.CheckResult, error)
	calls       atomic.Int64
}

// NewCheck returns a passing, non-cacheable check.
func NewCheck(id string, cat domain.Category, sev domain.Severity) *Check {
	return &Check{CheckID: id, Cat: cat, Sev: sev}
}

// Returning makes the check always return result.
func (c *Check) Returning(result domain.CheckResult) *Check {
	c.Run = func(context.Context, domain.CheckContext) (domain.CheckResult, error) {
		return result, nil
	}
	return c
}

func (c *Check) ID() string                { return c.CheckID }
func (c *Check) Category() domain.Category { return c.Cat }
func (c *Check) Severity() domain.Severity { return c.Sev }
func (c *Check) Cacheable() bool           { return c.IsCacheable }
func (c *Check) HealingTier() int          { return c.Tier }
func (c *Check) Healer() *domain.Healer    { return c.Heal }
func (c *Check) Name() string              { return c.CheckID }
func (c *Check) Description() string       { return "" }
func (c *Check) Tags() []string            { return c.Labels }
func (c *Check) Timeout() time.Duration    { return c.ExecTimeout }
func (c *Check) TTL() time.Duration        { return c.CacheTTL }
func (c *Check) Calls() int                { return int(c.calls.Load()) }

func (c *Check) CacheKey(domain.CheckContext) []string {
	return c.Key
}

func (c *Check) Execute(ctx context.Context, cc domain.CheckContext) (domain.CheckResult, error) {
	c.calls.Add(1)
	if c.Run == nil {
		return domain.Pass("ok", nil), nil
	}
	return c.Run(ctx, cc)
}

// Cache is a map-backed ResultCache that records invalidations.
type Cache struct {
	mu          sync.Mutex
	entries     map[string]domain.CheckResult
	Puts        []string
	Invalidated []string
}

// NewCache returns an empty fake cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]domain.CheckResult)}
}

func (c *Cache) Get(checkID, fingerprint string) (domain.CheckResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[checkID+"|"+fingerprint]
	return r, ok
}

func (c *Cache) Put(checkID, fingerprint string, result domain.CheckResult, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[checkID+"|"+fingerprint] = result
	c.Puts = append(c.Puts, checkID)
	return nil
}

func (c *Cache) Invalidate(checkID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if len(k) > len(checkID) && k[:len(checkID)+1] == checkID+"|" {
			delete(c.entries, k)
		}
	}
	c.Invalidated = append(c.Invalidated, checkID)
	return nil
}

func (c *Cache) InvalidateAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]domain.CheckResult)
	return nil
}

// Len returns the number of stored entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Confirmer answers every prompt with Answer and records the asked ids.
type Confirmer struct {
	Answer bool
	Asked  []string
}

func (c *Confirmer) Confirm(checkID string, _ int, _ domain.Healer) (bool, error) {
	c.Asked = append(c.Asked, checkID)
	return c.Answer, nil
}

func (c *Confirmer) Enabled() bool { return true }

// Logger discards everything.
type Logger struct{}

func (Logger) Debug(string, map[string]interface{})        {}
func (Logger) Info(string, map[string]interface{})         {}
func (Logger) Warn(string, map[string]interface{})         {}
func (Logger) Error(string, error, map[string]interface{}) {}

// Runner is a scripted CommandRunner keyed by the joined command line,
// e.g. "git --version". Unscripted commands fail as if not installed.
type Runner struct {
	mu      sync.Mutex
	results map[string]domain.CommandResult
	errs    map[string]error
	Calls   []string
}

// ErrNotFound is returned for unscripted commands.
var ErrNotFound = errors.New("executable file not found in $PATH")

// NewRunner returns an empty scripted runner.
func NewRunner() *Runner {
	return &Runner{results: make(map[string]domain.CommandResult), errs: make(map[string]error)}
}

// On scripts a successful command.
func (r *Runner) On(cmdline, stdout string) *Runner {
	r.results[cmdline] = domain.CommandResult{Stdout: stdout}
	return r
}

// OnExit scripts a command that exits with code.
func (r *Runner) OnExit(cmdline string, code int, stderr string) *Runner {
	r.results[cmdline] = domain.CommandResult{ExitCode: code, Stderr: stderr}
	return r
}

// OnError scripts a command that cannot be started.
func (r *Runner) OnError(cmdline string, err error) *Runner {
	r.errs[cmdline] = err
	return r
}

func (r *Runner) Run(_ context.Context, _ string, name string, args ...string) (domain.CommandResult, error) {
	key := strings.Join(append([]string{name}, args...), " ")
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, key)
	if err, ok := r.errs[key]; ok {
		return domain.CommandResult{ExitCode: -1}, err
	}
	if res, ok := r.results[key]; ok {
		return res, nil
	}
	return domain.CommandResult{ExitCode: -1}, ErrNotFound
}

// Prober answers probes from a fixed table. Unknown URLs fail.
type Prober struct {
	mu     sync.Mutex
	Status map[string]int
	Probed []string
}

func (p *Prober) Probe(_ context.Context, url string) (domain.ProbeResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Probed = append(p.Probed, url)
	code, ok := p.Status[url]
	if !ok {
		return domain.ProbeResult{URL: url}, errors.New("connection refused")
	}
	return domain.ProbeResult{URL: url, StatusCode: code, Latency: 1}, nil
}
