package domain

import (
	"time"
)

// RunTimeout returns the default per-check timeout.
func (c *Config) RunTimeout() time.Duration {
	return parseDurationOr(c.Runner.Timeout, DefaultCheckTimeout)
}

// CacheTTL returns the default cache TTL.
func (c *Config) CacheTTL() time.Duration {
	return parseDurationOr(c.Cache.TTL, DefaultCacheTTL)
}

// ProbeTimeout returns the HTTP probe timeout.
func (c *Config) ProbeTimeout() time.Duration {
	return parseDurationOr(c.Services.ProbeTimeout, DefaultProbeTimeout)
}

// CheckTimeout returns the configured timeout override for a check, or zero.
func (c *Config) CheckTimeout(checkID string) time.Duration {
	raw, ok := c.Checks.Timeouts[checkID]
	if !ok {
		return 0
	}
	return parseDurationOr(raw, 0)
}

// IsCheckDisabled reports whether a check id is excluded from runs.
func (c *Config) IsCheckDisabled(checkID string) bool {
	return contains(c.Checks.Disabled, checkID)
}

// IsHealingDisabled reports whether a check id is excluded from automated healing.
func (c *Config) IsHealingDisabled(checkID string) bool {
	return contains(c.Healing.DisabledChecks, checkID)
}

// Threshold returns a configured threshold for a check, falling back to def.
func (c *Config) Threshold(checkID, name string, def float64) float64 {
	if values, ok := c.Checks.Thresholds[checkID]; ok {
		if v, ok := values[name]; ok {
			return v
		}
	}
	return def
}

// SetThreshold stores a threshold, creating maps as needed.
func (c *Config) SetThreshold(checkID, name string, value float64) {
	if c.Checks.Thresholds == nil {
		c.Checks.Thresholds = make(map[string]map[string]float64)
	}
	if c.Checks.Thresholds[checkID] == nil {
		c.Checks.Thresholds[checkID] = make(map[string]float64)
	}
	c.Checks.Thresholds[checkID][name] = value
}

// HealOptions derives the healing options from configuration.
func (c *Config) HealOptions() HealOptions {
	return HealOptions{
		MaxTier:      c.Healing.MaxTier,
		ConfirmAbove: c.Healing.ConfirmAbove,
		Disabled:     append([]string(nil), c.Healing.DisabledChecks...),
	}
}

func parseDurationOr(raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
