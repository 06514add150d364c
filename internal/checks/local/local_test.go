package local

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/ports/portstest"
)

func TestEnvironmentVars(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		status  domain.Status
		message string
	}{
		{name: "all set", env: map[string]string{"PATH": "/usr/bin", "HOME": "/home/dev"}, status: domain.StatusPass, message: "All required"},
		{name: "userprofile satisfies home", env: map[string]string{"PATH": "C:\\bin", "USERPROFILE": "C:\\Users\\dev"}, status: domain.StatusPass},
		{name: "missing path", env: map[string]string{"HOME": "/home/dev"}, status: domain.StatusFail, message: "Missing required"},
		{name: "missing home", env: map[string]string{"PATH": "/usr/bin"}, status: domain.StatusWarning, message: "Missing recommended"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewEnvironmentVars().Execute(context.Background(), domain.CheckContext{Env: tt.env})
			require.NoError(t, err)
			assert.Equal(t, tt.status, res.Status)
			assert.Contains(t, res.Message, tt.message)
		})
	}
}

func TestEnvironmentVarsMasksToolVars(t *testing.T) {
	cc := domain.CheckContext{Env: map[string]string{"PATH": "/bin", "HOME": "/h", "VITALS_TOKEN": "abcdefgh", "VITALS_X": "abc"}}
	res, err := NewEnvironmentVars().Execute(context.Background(), cc)
	require.NoError(t, err)
	vars := res.Details["tool_vars"].(map[string]interface{})
	assert.Equal(t, "ab****gh", vars["VITALS_TOKEN"])
	assert.Equal(t, "****", vars["VITALS_X"])

	c := NewEnvironmentVars()
	before := c.CacheKey(cc)
	cc.Env["HOME"] = "/elsewhere"
	assert.NotEqual(t, before, c.CacheKey(cc), "cache key follows the variables read")
}

func TestGitInstall(t *testing.T) {
	tests := []struct {
		name    string
		runner  *portstest.Runner
		status  domain.Status
		message string
	}{
		{
			name: "installed and configured",
			runner: portstest.NewRunner().
				On("git --version", "git version 2.43.0").
				On("git config --get user.name", "Dev").
				On("git config --get user.email", "dev@example.com"),
			status:  domain.StatusPass,
			message: "Git 2.43.0 installed",
		},
		{
			name:    "not installed",
			runner:  portstest.NewRunner(),
			status:  domain.StatusFail,
			message: "Git is not installed",
		},
		{
			name:    "old version",
			runner:  portstest.NewRunner().On("git --version", "git version 2.17.1"),
			status:  domain.StatusWarning,
			message: "below recommended",
		},
		{
			name:    "unparsable version",
			runner:  portstest.NewRunner().On("git --version", "git version unknown"),
			status:  domain.StatusWarning,
			message: "Could not determine Git version",
		},
		{
			name: "identity missing",
			runner: portstest.NewRunner().
				On("git --version", "git version 2.39.3 (Apple Git-145)").
				On("git config --get user.name", "Dev"),
			status:  domain.StatusWarning,
			message: "user.email not configured",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewGitInstall(tt.runner).Execute(context.Background(), domain.CheckContext{})
			require.NoError(t, err)
			assert.Equal(t, tt.status, res.Status)
			assert.Contains(t, res.Message, tt.message)
		})
	}

	h := NewGitInstall(nil).Healer()
	assert.Equal(t, "git-install-guide", h.Name)
	assert.True(t, h.Manual())
	assert.Contains(t, h.Documentation, "git-scm.com")
}

const dfHeader = "Filesystem     1K-blocks      Used Available Use% Mounted on\n"

func TestDiskSpace(t *testing.T) {
	gb := int64(1024 * 1024)
	tests := []struct {
		name   string
		out    string
		status domain.Status
	}{
		{name: "plenty", out: dfHeader + "/dev/sda1 100000000 1000 " + itoa(20*gb) + " 10% /", status: domain.StatusPass},
		{name: "running low", out: dfHeader + "/dev/sda1 100000000 1000 " + itoa(3*gb) + " 90% /", status: domain.StatusWarning},
		{name: "critically low", out: dfHeader + "/dev/sda1 100000000 1000 " + itoa(gb/2) + " 99% /", status: domain.StatusFail},
		{name: "wrapped row", out: dfHeader + "/dev/mapper/very-long-volume-name\n 100000000 1000 " + itoa(20*gb) + " 10% /", status: domain.StatusPass},
		{name: "garbage", out: "nonsense", status: domain.StatusError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := portstest.NewRunner().On("df -k /work", tt.out)
			res, err := NewDiskSpace(runner, domain.Config{}).Execute(context.Background(), domain.CheckContext{ProjectRoot: "/work"})
			require.NoError(t, err)
			assert.Equal(t, tt.status, res.Status)
		})
	}
}

func TestDiskSpaceThresholdsFromConfig(t *testing.T) {
	var cfg domain.Config
	cfg.SetThreshold("local.disk-space", "min_free_gb", 50)
	runner := portstest.NewRunner().On("df -k /work", dfHeader+"/dev/sda1 1 1 "+itoa(20*1024*1024)+" 10% /")

	res, err := NewDiskSpace(runner, cfg).Execute(context.Background(), domain.CheckContext{ProjectRoot: "/work"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFail, res.Status)
	assert.Contains(t, res.Message, "Low disk space")

	res, err = NewDiskSpace(portstest.NewRunner(), cfg).Execute(context.Background(), domain.CheckContext{ProjectRoot: "/work"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, res.Status)
	assert.False(t, NewDiskSpace(nil, cfg).Cacheable())
}

func TestGoVersion(t *testing.T) {
	withMod := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(withMod, "go.mod"), []byte("module example.com/x\n\ngo 1.22\n"), 0o644))
	withoutMod := t.TempDir()

	tests := []struct {
		name    string
		root    string
		runner  *portstest.Runner
		status  domain.Status
		message string
	}{
		{name: "meets go directive", root: withMod, runner: portstest.NewRunner().On("go version", "go version go1.23.4 linux/amd64"), status: domain.StatusPass, message: "meets requirements"},
		{name: "below go directive", root: withMod, runner: portstest.NewRunner().On("go version", "go version go1.21.0 linux/amd64"), status: domain.StatusFail, message: "below required 1.22.0"},
		{name: "missing toolchain with module", root: withMod, runner: portstest.NewRunner(), status: domain.StatusFail, message: "not installed"},
		{name: "missing toolchain without module", root: withoutMod, runner: portstest.NewRunner(), status: domain.StatusPass, message: "not required"},
		{name: "no module", root: withoutMod, runner: portstest.NewRunner().On("go version", "go version go1.20 darwin/arm64"), status: domain.StatusPass, message: "Go 1.20.0 installed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewGoVersion(tt.runner).Execute(context.Background(), domain.CheckContext{ProjectRoot: tt.root})
			require.NoError(t, err)
			assert.Equal(t, tt.status, res.Status)
			assert.Contains(t, res.Message, tt.message)
		})
	}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
