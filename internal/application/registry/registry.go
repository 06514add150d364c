// Package registry owns the set of known checks and resolves selections against it.
package registry

import (
	"sort"
	"strings"
	"sync"

	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/ports"
)

// Registry manages check registration and lookup. Registration order is preserved
// and is the order every selection returns.
type Registry struct {
	mu     sync.RWMutex
	checks map[string]ports.Check
	order  []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{checks: make(map[string]ports.Check)}
}

// Register adds a check. A duplicate or malformed id is a configuration error.
func (r *Registry) Register(check ports.Check) error {
	if err := validateCheck(check); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := check.ID()
	if _, exists := r.checks[id]; exists {
		return domain.NewConfigurationError("register", "check %q already registered", id)
	}
	r.checks[id] = check
	r.order = append(r.order, id)
	return nil
}

// RegisterAll registers checks in order, stopping at the first error.
func (r *Registry) RegisterAll(checks ...ports.Check) error {
	for _, check := range checks {
		if err := r.Register(check); err != nil {
			return err
		}
	}
	return nil
}

// Unregister removes a check. It reports whether the id was known.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.checks[id]; !exists {
		return false
	}
	delete(r.checks, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Clear removes every check.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks = make(map[string]ports.Check)
	r.order = nil
}

// Get returns a check by id.
func (r *Registry) Get(id string) (ports.Check, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	check, ok := r.checks[id]
	return check, ok
}

// Len returns the number of registered checks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// All returns every check in registration order.
func (r *Registry) All() []ports.Check {
	return r.filter(func(ports.Check) bool { return true })
}

// ByCategory returns the checks of one category.
func (r *Registry) ByCategory(category domain.Category) []ports.Check {
	return r.filter(func(c ports.Check) bool { return c.Category() == category })
}

// BySeverity returns the checks of exactly one severity.
func (r *Registry) BySeverity(severity domain.Severity) []ports.Check {
	return r.filter(func(c ports.Check) bool { return c.Severity() == severity })
}

// ByTag returns the checks carrying tag.
func (r *Registry) ByTag(tag string) []ports.Check {
	return r.filter(func(c ports.Check) bool { return hasTag(c, tag) })
}

// Healable returns checks with an automated fix whose tier is within maxTier.
func (r *Registry) Healable(maxTier int) []ports.Check {
	return r.filter(func(c ports.Check) bool {
		tier := c.HealingTier()
		if tier == 0 || tier > maxTier {
			return false
		}
		return !HealerOf(c).Manual()
	})
}

// Select returns the checks matching every supplied filter, in registration order.
// Empty filters are unconstrained. Unknown categories, severities or ids are
// configuration errors.
func (r *Registry) Select(sel Selector) ([]ports.Check, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	for _, id := range sel.IDs {
		if _, ok := r.checks[id]; !ok {
			r.mu.RUnlock()
			return nil, domain.NewConfigurationError("select", "unknown check id %q", id)
		}
	}
	r.mu.RUnlock()

	return r.filter(sel.Matches), nil
}

// Stats tallies registered checks.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{
		ByCategory: make(map[domain.Category]int),
		BySeverity: make(map[domain.Severity]int),
	}
	for _, id := range r.order {
		c := r.checks[id]
		stats.Total++
		stats.ByCategory[c.Category()]++
		stats.BySeverity[c.Severity()]++
		if c.Cacheable() {
			stats.Cacheable++
		}
		if c.HealingTier() > 0 && !HealerOf(c).Manual() {
			stats.Healable++
		}
	}
	return stats
}

func (r *Registry) filter(keep func(ports.Check) bool) []ports.Check {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ports.Check
	for _, id := range r.order {
		if c := r.checks[id]; keep(c) {
			out = append(out, c)
		}
	}
	return out
}

// Stats describes the registry contents.
type Stats struct {
	Total      int
	Cacheable  int
	Healable   int
	ByCategory map[domain.Category]int
	BySeverity map[domain.Severity]int
}

// Categories returns the categories present, sorted by display order.
func (s Stats) Categories() []domain.Category {
	var out []domain.Category
	for _, c := range domain.Categories() {
		if s.ByCategory[c] > 0 {
			out = append(out, c)
		}
	}
	return out
}

// Selector narrows a run to a subset of the registry.
type Selector struct {
	Categories []domain.Category
	Severities []domain.Severity
	IDs        []string
	Tags       []string
	// Exclude removes ids after the other filters apply.
	Exclude []string
}

// Validate rejects values outside the closed enumerations.
func (s Selector) Validate() error {
	for _, c := range s.Categories {
		if !c.Valid() {
			return domain.NewConfigurationError("select", "invalid category filter %q", string(c))
		}
	}
	for _, sev := range s.Severities {
		if !sev.Valid() {
			return domain.NewConfigurationError("select", "invalid severity filter %d", int(sev))
		}
	}
	return nil
}

// Matches reports whether check satisfies every filter.
func (s Selector) Matches(check ports.Check) bool {
	if len(s.Categories) > 0 && !containsCategory(s.Categories, check.Category()) {
		return false
	}
	if len(s.Severities) > 0 && !containsSeverity(s.Severities, check.Severity()) {
		return false
	}
	if len(s.IDs) > 0 && !containsString(s.IDs, check.ID()) {
		return false
	}
	if len(s.Tags) > 0 {
		matched := false
		for _, tag := range s.Tags {
			if hasTag(check, tag) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return !containsString(s.Exclude, check.ID())
}

// ParseSelector builds a selector from raw CLI values.
func ParseSelector(categories, severities, ids, tags []string) (Selector, error) {
	var sel Selector
	for _, raw := range categories {
		c, err := domain.ParseCategory(raw)
		if err != nil {
			return Selector{}, domain.NewConfigurationError("select", "%v", err)
		}
		sel.Categories = append(sel.Categories, c)
	}
	for _, raw := range severities {
		sev, err := domain.ParseSeverity(raw)
		if err != nil {
			return Selector{}, domain.NewConfigurationError("select", "%v", err)
		}
		sel.Severities = append(sel.Severities, sev)
	}
	sel.IDs = trimAll(ids)
	sel.Tags = trimAll(tags)
	return sel, nil
}

// ForMode returns the selector preset for a run mode.
// Quick runs skip the network-bound services category.
func ForMode(mode domain.RunMode) Selector {
	if mode == domain.ModeFull {
		return Selector{}
	}
	var cats []domain.Category
	for _, c := range domain.Categories() {
		if c != domain.CategoryServices {
			cats = append(cats, c)
		}
	}
	return Selector{Categories: cats}
}

// HealerOf returns the check's healer, or nil.
func HealerOf(check ports.Check) *domain.Healer {
	if hp, ok := check.(ports.HealerProvider); ok {
		return hp.Healer()
	}
	return nil
}

// Describe returns display metadata, falling back to the id.
func Describe(check ports.Check) (name, description string, tags []string) {
	if d, ok := check.(ports.Describer); ok {
		name, description, tags = d.Name(), d.Description(), d.Tags()
	}
	if name == "" {
		name = check.ID()
	}
	return name, description, tags
}

func validateCheck(check ports.Check) error {
	if check == nil {
		return domain.NewConfigurationError("register", "nil check")
	}
	id := check.ID()
	prefix, name, ok := strings.Cut(id, ".")
	if !ok || prefix == "" || name == "" {
		return domain.NewConfigurationError("register", "check id %q must be <category>.<name>", id)
	}
	if domain.Category(prefix) != check.Category() {
		return domain.NewConfigurationError("register", "check id %q does not match category %q", id, check.Category())
	}
	if !check.Category().Valid() {
		return domain.NewConfigurationError("register", "check %q has unknown category %q", id, check.Category())
	}
	if !check.Severity().Valid() {
		return domain.NewConfigurationError("register", "check %q has invalid severity %d", id, int(check.Severity()))
	}
	if check.HealingTier() < 0 {
		return domain.NewConfigurationError("register", "check %q has negative healing tier", id)
	}
	return nil
}

func hasTag(check ports.Check, tag string) bool {
	_, _, tags := Describe(check)
	return containsString(tags, tag)
}

func containsCategory(list []domain.Category, v domain.Category) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsSeverity(list []domain.Severity, v domain.Severity) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func trimAll(in []string) []string {
	var out []string
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
