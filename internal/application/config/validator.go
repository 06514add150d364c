package config

import (
	"net/url"
	"strings"
	"time"

	"github.com/doeshing/vitals/internal/domain"
)

// Validate ensures config structure is consistent. Every failure is a
// domain.ConfigurationError so callers abort before any check executes.
func Validate(cfg domain.Config) error {
	if err := validateRunner(cfg.Runner); err != nil {
		return err
	}
	if err := validateCache(cfg.Cache); err != nil {
		return err
	}
	if err := validateHealing(cfg.Healing); err != nil {
		return err
	}
	if err := validateChecks(cfg.Checks); err != nil {
		return err
	}
	if err := validateServices(cfg.Services); err != nil {
		return err
	}
	if err := validateHistory(cfg.History); err != nil {
		return err
	}
	return validateOutput(cfg.Output)
}

func validateRunner(r domain.RunnerSettings) error {
	if r.Concurrency <= 0 {
		return invalid("runner.concurrency must be > 0, got %d", r.Concurrency)
	}
	if err := validateDuration("runner.timeout", r.Timeout); err != nil {
		return err
	}
	if _, err := domain.ParseRunMode(r.Mode); err != nil {
		return invalid("runner.mode must be quick|full, got %s", r.Mode)
	}
	return nil
}

func validateCache(cache domain.CacheSettings) error {
	if err := validateDuration("cache.ttl", cache.TTL); err != nil {
		return err
	}
	if cache.MaxEntries < 0 {
		return invalid("cache.max_entries must be >= 0")
	}
	return nil
}

func validateHealing(h domain.HealingSettings) error {
	if h.MaxTier < 0 {
		return invalid("healing.max_tier must be >= 0, got %d", h.MaxTier)
	}
	if h.ConfirmAbove < 0 {
		return invalid("healing.confirm_above must be >= 0, got %d", h.ConfirmAbove)
	}
	return nil
}

func validateChecks(c domain.CheckSettings) error {
	for id, raw := range c.Timeouts {
		if err := validateDuration("checks.timeouts."+id, raw); err != nil {
			return err
		}
	}
	for id := range c.Thresholds {
		if !strings.Contains(id, ".") {
			return invalid("checks.thresholds key %q is not a check id", id)
		}
	}
	return nil
}

func validateServices(s domain.ServiceSettings) error {
	if s.ProbeRate < 0 {
		return invalid("services.probe_rate must be >= 0")
	}
	if err := validateDuration("services.probe_timeout", s.ProbeTimeout); err != nil {
		return err
	}
	seen := make(map[string]bool, len(s.Endpoints))
	for _, ep := range s.Endpoints {
		if ep.Name == "" {
			return invalid("services.endpoints entries need a name")
		}
		if seen[ep.Name] {
			return invalid("services.endpoints name %q is duplicated", ep.Name)
		}
		seen[ep.Name] = true
		u, err := url.Parse(ep.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return invalid("services.endpoints[%s].url must be an http(s) URL, got %q", ep.Name, ep.URL)
		}
	}
	return nil
}

func validateHistory(history domain.HistorySettings) error {
	if history.RetentionDays < 0 {
		return invalid("history.retention_days must be >= 0")
	}
	switch strings.ToLower(history.Backend) {
	case "", "sqlite", "file":
	default:
		return invalid("history.backend must be sqlite|file, got %s", history.Backend)
	}
	return nil
}

func validateOutput(out domain.OutputSettings) error {
	switch strings.ToLower(out.Format) {
	case "", "text", "json":
		return nil
	default:
		return invalid("output.format must be text|json, got %s", out.Format)
	}
}

func validateDuration(field, raw string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return invalid("%s invalid: %v", field, err)
	}
	if d <= 0 {
		return invalid("%s must be positive", field)
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return domain.NewConfigurationError("config", format, args...)
}
