package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/ports"
)

// HTTPProber issues HEAD requests, limited to a fixed number per second across
// all concurrent callers.
type HTTPProber struct {
	client  *http.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// NewHTTPProber builds a prober. perSecond <= 0 disables rate limiting.
func NewHTTPProber(perSecond float64, timeout time.Duration) *HTTPProber {
	if timeout <= 0 {
		timeout = domain.DefaultProbeTimeout
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &HTTPProber{
		client: &http.Client{
			// Redirects are answers too; the endpoint is reachable.
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
		limiter: rate.NewLimiter(limit, 1),
		timeout: timeout,
	}
}

// Probe implements ports.Prober. Transport failures are returned as errors;
// any HTTP answer, including 5xx, is returned as a result.
func (p *HTTPProber) Probe(ctx context.Context, url string) (domain.ProbeResult, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return domain.ProbeResult{URL: url}, err
	}

	pctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(pctx, http.MethodHead, url, nil)
	if err != nil {
		return domain.ProbeResult{URL: url}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "vitals-probe")

	start := time.Now()
	resp, err := p.client.Do(req)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return domain.ProbeResult{URL: url, Latency: latency}, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	return domain.ProbeResult{URL: url, StatusCode: resp.StatusCode, Latency: latency}, nil
}

var _ ports.Prober = (*HTTPProber)(nil)
