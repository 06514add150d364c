package domain

// Config mirrors <project>/.vitals/config.yaml.
type Config struct {
	ConfigFormatVersion string          `yaml:"config_format_version"`
	Runner              RunnerSettings  `yaml:"runner"`
	Cache               CacheSettings   `yaml:"cache"`
	Healing             HealingSettings `yaml:"healing"`
	Checks              CheckSettings   `yaml:"checks"`
	Services            ServiceSettings `yaml:"services"`
	History             HistorySettings `yaml:"history"`
	Output              OutputSettings  `yaml:"output"`
}

// RunnerSettings controls check execution.
type RunnerSettings struct {
	Concurrency   int    `yaml:"concurrency"`
	Timeout       string `yaml:"timeout"`
	SeverityFirst bool   `yaml:"severity_first"`
	Mode          string `yaml:"mode"`
}

// CacheSettings configures the result cache.
type CacheSettings struct {
	TTL        string `yaml:"ttl"`
	Dir        string `yaml:"dir"`
	Persistent bool   `yaml:"persistent"`
	MaxEntries int    `yaml:"max_entries"`
}

// HealingSettings gates automated remediation.
type HealingSettings struct {
	MaxTier        int      `yaml:"max_tier"`
	ConfirmAbove   int      `yaml:"confirm_above"`
	DisabledChecks []string `yaml:"disabled_checks"`
}

// CheckSettings holds per-check configuration data owned by leaf checks.
type CheckSettings struct {
	Disabled   []string                      `yaml:"disabled"`
	Thresholds map[string]map[string]float64 `yaml:"thresholds"`
	Timeouts   map[string]string             `yaml:"timeouts"`
}

// ServiceSettings configures external reachability probes.
type ServiceSettings struct {
	Endpoints    []Endpoint `yaml:"endpoints"`
	ProbeRate    float64    `yaml:"probe_rate"`
	ProbeTimeout string     `yaml:"probe_timeout"`
}

// Endpoint is a URL probed by the services checks.
type Endpoint struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Critical bool   `yaml:"critical"`
}

// HistorySettings configures report persistence.
type HistorySettings struct {
	Enabled       bool   `yaml:"enabled"`
	Backend       string `yaml:"backend"`
	RetentionDays int    `yaml:"retention_days"`
}

// OutputSettings configures report rendering.
type OutputSettings struct {
	Format   string `yaml:"format"`
	Sanitize bool   `yaml:"sanitize"`
	Pretty   bool   `yaml:"pretty"`
}
