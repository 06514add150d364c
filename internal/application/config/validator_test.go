package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/doeshing/vitals/internal/application/config"
	"github.com/doeshing/vitals/internal/domain"
)

func validConfig() domain.Config {
	return domain.Config{
		ConfigFormatVersion: "1",
		Runner:              domain.RunnerSettings{Concurrency: 4, Timeout: "10s", Mode: "quick"},
		Cache:               domain.CacheSettings{TTL: "5m", MaxEntries: 200},
		Healing:             domain.HealingSettings{MaxTier: 0, ConfirmAbove: 1},
		Services: domain.ServiceSettings{
			ProbeRate: 5,
			Endpoints: []domain.Endpoint{{Name: "api", URL: "https://api.example.com/health"}},
		},
		History: domain.HistorySettings{Enabled: true, Backend: "sqlite", RetentionDays: 30},
		Output:  domain.OutputSettings{Format: "text"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(*domain.Config) {}},
		{name: "zero concurrency", mutate: func(c *domain.Config) { c.Runner.Concurrency = 0 }, wantErr: true},
		{name: "bad timeout", mutate: func(c *domain.Config) { c.Runner.Timeout = "ten seconds" }, wantErr: true},
		{name: "negative ttl", mutate: func(c *domain.Config) { c.Cache.TTL = "-5m" }, wantErr: true},
		{name: "unknown mode", mutate: func(c *domain.Config) { c.Runner.Mode = "deep" }, wantErr: true},
		{name: "negative tier", mutate: func(c *domain.Config) { c.Healing.MaxTier = -1 }, wantErr: true},
		{name: "bad per-check timeout", mutate: func(c *domain.Config) {
			c.Checks.Timeouts = map[string]string{"services.api-endpoints": "forever"}
		}, wantErr: true},
		{name: "threshold key not a check id", mutate: func(c *domain.Config) {
			c.SetThreshold("disk", "min_free_gb", 1)
		}, wantErr: true},
		{name: "endpoint without scheme", mutate: func(c *domain.Config) {
			c.Services.Endpoints = []domain.Endpoint{{Name: "api", URL: "api.example.com"}}
		}, wantErr: true},
		{name: "duplicate endpoint names", mutate: func(c *domain.Config) {
			c.Services.Endpoints = append(c.Services.Endpoints, domain.Endpoint{Name: "api", URL: "http://localhost:8080"})
		}, wantErr: true},
		{name: "unknown history backend", mutate: func(c *domain.Config) { c.History.Backend = "postgres" }, wantErr: true},
		{name: "unknown output format", mutate: func(c *domain.Config) { c.Output.Format = "xml" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := config.Validate(cfg)
			if tt.wantErr {
				assert.True(t, domain.IsConfigurationError(err), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
