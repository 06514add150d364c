// Package services contains checks of external services the project relies on.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/doeshing/vitals/internal/checks/base"
	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/ports"
)

// DefaultEndpoints are probed when services.endpoints is empty.
var DefaultEndpoints = []domain.Endpoint{
	{Name: "npm Registry", URL: "https://registry.npmjs.org", Critical: true},
	{Name: "GitHub API", URL: "https://api.github.com"},
}

// APIEndpoints probes the configured endpoints for reachability.
type APIEndpoints struct {
	base.Meta
	prober    ports.Prober
	endpoints []domain.Endpoint
}

// NewAPIEndpoints builds the check from cfg.Services.Endpoints.
func NewAPIEndpoints(prober ports.Prober, cfg domain.Config) *APIEndpoints {
	endpoints := cfg.Services.Endpoints
	if len(endpoints) == 0 {
		endpoints = DefaultEndpoints
	}
	return &APIEndpoints{
		Meta: base.Meta{
			CheckID:     "services.api-endpoints",
			Cat:         domain.CategoryServices,
			Sev:         domain.SeverityLow,
			Tier:        3,
			Title:       "API Endpoints",
			Summary:     "Checks that external API endpoints are reachable",
			Labels:      []string{"network", "services"},
			ExecTimeout: 15 * time.Second,
		},
		prober:    prober,
		endpoints: endpoints,
	}
}

type probeOutcome struct {
	endpoint domain.Endpoint
	result   domain.ProbeResult
	err      error
}

func (c *APIEndpoints) Execute(ctx context.Context, _ domain.CheckContext) (domain.CheckResult, error) {
	if c.prober == nil {
		return domain.Errored("No HTTP prober configured", nil), nil
	}
	outcomes := make([]probeOutcome, len(c.endpoints))
	g, gctx := errgroup.WithContext(ctx)
	for i, ep := range c.endpoints {
		i, ep := i, ep
		g.Go(func() error {
			res, err := c.prober.Probe(gctx, ep.URL)
			outcomes[i] = probeOutcome{endpoint: ep, result: res, err: err}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return domain.CheckResult{}, err
	}

	var criticalDown, optionalDown []string
	endpoints := make([]interface{}, 0, len(outcomes))
	for _, o := range outcomes {
		entry := map[string]interface{}{
			"name":      o.endpoint.Name,
			"url":       o.endpoint.URL,
			"critical":  o.endpoint.Critical,
			"reachable": o.err == nil && o.result.Reachable(),
		}
		if o.err != nil {
			entry["error"] = o.err.Error()
		} else {
			entry["status_code"] = o.result.StatusCode
			entry["latency_ms"] = o.result.Latency
		}
		endpoints = append(endpoints, entry)

		if o.err == nil && o.result.Reachable() {
			continue
		}
		if o.endpoint.Critical {
			criticalDown = append(criticalDown, o.endpoint.Name)
		} else {
			optionalDown = append(optionalDown, o.endpoint.Name)
		}
	}
	details := map[string]interface{}{"endpoints": endpoints}

	if len(criticalDown) > 0 {
		return domain.Fail(
			"Critical API endpoint(s) unreachable: "+strings.Join(criticalDown, ", "),
			"Check your network connection, proxy and firewall settings",
			details,
		), nil
	}
	if len(optionalDown) > 0 {
		return domain.Warn(
			"Some API endpoints unreachable: "+strings.Join(optionalDown, ", "),
			"Features relying on these services may not work",
			details,
		), nil
	}
	return domain.Pass(fmt.Sprintf("All %d API endpoints reachable", len(outcomes)), details), nil
}

func (c *APIEndpoints) Healer() *domain.Healer {
	return base.ManualHealer("api-connectivity-guide", []string{
		"Check your internet connection",
		"Verify proxy settings (HTTP_PROXY, HTTPS_PROXY)",
		"Check that the firewall allows outbound HTTPS",
		"Try the endpoint in a browser or with curl",
	}, "", "")
}
