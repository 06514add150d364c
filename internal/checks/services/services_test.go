package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/ports/portstest"
)

const (
	npmURL    = "https://registry.npmjs.org"
	githubURL = "https://api.github.com"
)

func TestAPIEndpoints(t *testing.T) {
	tests := []struct {
		name    string
		status  map[string]int
		want    domain.Status
		message string
	}{
		{name: "all reachable", status: map[string]int{npmURL: 200, githubURL: 200}, want: domain.StatusPass, message: "All 2 API endpoints reachable"},
		{name: "auth required counts as reachable", status: map[string]int{npmURL: 401, githubURL: 403}, want: domain.StatusPass, message: "reachable"},
		{name: "critical down", status: map[string]int{githubURL: 200}, want: domain.StatusFail, message: "npm Registry"},
		{name: "server error is a failure", status: map[string]int{npmURL: 500, githubURL: 200}, want: domain.StatusFail, message: "npm Registry"},
		{name: "optional down", status: map[string]int{npmURL: 200, githubURL: 503}, want: domain.StatusWarning, message: "GitHub API"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prober := &portstest.Prober{Status: tt.status}
			res, err := NewAPIEndpoints(prober, domain.Config{}).Execute(context.Background(), domain.CheckContext{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Status)
			assert.Contains(t, res.Message, tt.message)
			assert.ElementsMatch(t, []string{npmURL, githubURL}, prober.Probed)
		})
	}
}

func TestAPIEndpoints_ConfiguredEndpoints(t *testing.T) {
	var cfg domain.Config
	cfg.Services.Endpoints = []domain.Endpoint{{Name: "internal", URL: "https://internal.example", Critical: true}}
	prober := &portstest.Prober{Status: map[string]int{"https://internal.example": 204}}

	res, err := NewAPIEndpoints(prober, cfg).Execute(context.Background(), domain.CheckContext{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPass, res.Status)
	assert.Equal(t, []string{"https://internal.example"}, prober.Probed)
}

func TestAPIEndpoints_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewAPIEndpoints(&portstest.Prober{}, domain.Config{}).Execute(ctx, domain.CheckContext{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAPIEndpoints_ManualHealer(t *testing.T) {
	healer := NewAPIEndpoints(&portstest.Prober{}, domain.Config{}).Healer()
	assert.Equal(t, domain.HealActionManual, healer.Action)
	assert.True(t, healer.Manual())
	assert.NotEmpty(t, healer.Steps)
}

func TestGitHubCLI(t *testing.T) {
	tests := []struct {
		name    string
		runner  *portstest.Runner
		status  domain.Status
		message []string
	}{
		{
			name:    "not installed",
			runner:  portstest.NewRunner(),
			status:  domain.StatusPass,
			message: []string{"not installed"},
		},
		{
			name: "authenticated",
			runner: portstest.NewRunner().
				On("gh --version", "gh version 2.45.0 (2024-03-15)\n").
				On("gh auth status", "github.com\n  ✓ Logged in to github.com account octocat (keyring)\n"),
			status:  domain.StatusPass,
			message: []string{"2.45.0", "octocat"},
		},
		{
			name: "older gh wording",
			runner: portstest.NewRunner().
				On("gh --version", "gh version 2.20.2\n").
				On("gh auth status", "Logged in to github.com as hubot"),
			status:  domain.StatusPass,
			message: []string{"hubot"},
		},
		{
			name: "unknown version",
			runner: portstest.NewRunner().
				On("gh --version", "gh custom build\n").
				On("gh auth status", "Logged in to github.com as user1"),
			status:  domain.StatusPass,
			message: []string{"unknown"},
		},
		{
			name: "no username",
			runner: portstest.NewRunner().
				On("gh --version", "gh version 2.45.0\n").
				On("gh auth status", "authenticated via token"),
			status:  domain.StatusPass,
			message: []string{"authenticated as user"},
		},
		{
			name: "not authenticated",
			runner: portstest.NewRunner().
				On("gh --version", "gh version 2.45.0\n").
				OnExit("gh auth status", 1, "You are not logged into any GitHub hosts."),
			status:  domain.StatusWarning,
			message: []string{"not authenticated", "2.45.0"},
		},
		{
			name: "auth command fails to start",
			runner: portstest.NewRunner().
				On("gh --version", "gh version 2.45.0\n").
				OnError("gh auth status", errors.New("signal: killed")),
			status:  domain.StatusWarning,
			message: []string{"not authenticated"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewGitHubCLI(tt.runner).Execute(context.Background(), domain.CheckContext{})
			require.NoError(t, err)
			assert.Equal(t, tt.status, res.Status)
			for _, m := range tt.message {
				assert.Contains(t, res.Message, m)
			}
		})
	}
}

func TestGitHubCLI_ManualHealerHasDocs(t *testing.T) {
	healer := NewGitHubCLI(nil).Healer()
	assert.Equal(t, domain.HealActionManual, healer.Action)
	assert.Equal(t, "https://cli.github.com", healer.Documentation)
}
