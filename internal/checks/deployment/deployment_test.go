package deployment

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/ports/portstest"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestEnvFile(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		status  domain.Status
		message string
	}{
		{name: "no env files", status: domain.StatusPass, message: "No .env files"},
		{
			name:    "configured",
			files:   map[string]string{".env": "DB_HOST=localhost\nDB_PORT=5432\n", ".env.example": "DB_HOST=\nDB_PORT=\n"},
			status:  domain.StatusPass,
			message: ".env configured with 2",
		},
		{name: "missing example", files: map[string]string{".env": "SECRET=abc\n"}, status: domain.StatusWarning, message: ".env.example"},
		{name: "missing env", files: map[string]string{".env.example": "A=\n"}, status: domain.StatusWarning, message: ".env is missing"},
		{
			name:    "variables missing",
			files:   map[string]string{".env": "A=1\n", ".env.example": "A=\nB=\nC=\n"},
			status:  domain.StatusWarning,
			message: "2 variable(s) from .env.example missing in .env: B, C",
		},
		{
			name:    "local fills the gap",
			files:   map[string]string{".env": "A=1\n", ".env.local": "B=2\n", ".env.example": "A=\nB=\n"},
			status:  domain.StatusPass,
			message: ".env configured",
		},
		{
			name:    "comments and blank lines",
			files:   map[string]string{".env": "# comment\nexport KEY=val\n\n", ".env.example": "# comment\nKEY=\n\n"},
			status:  domain.StatusPass,
			message: ".env configured with 1",
		},
		{
			name:    "quoted values",
			files:   map[string]string{".env": "GREETING=\"hello # world\"\nPATH_LIST='a:b'\n", ".env.example": "GREETING=\nPATH_LIST=\n"},
			status:  domain.StatusPass,
			message: ".env configured with 2",
		},
		{
			name:    "malformed env",
			files:   map[string]string{".env": "A=1\nthis is not an assignment\n", ".env.example": "A=\n"},
			status:  domain.StatusFail,
			message: ".env is malformed",
		},
		{
			name:    "malformed example",
			files:   map[string]string{".env": "A=1\n", ".env.example": "A\n"},
			status:  domain.StatusFail,
			message: ".env.example is malformed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeFiles(t, root, tt.files)
			res, err := NewEnvFile().Execute(context.Background(), domain.CheckContext{ProjectRoot: root})
			require.NoError(t, err)
			assert.Equal(t, tt.status, res.Status)
			assert.Contains(t, res.Message, tt.message)
		})
	}
}

func TestEnvFile_FixWritesKeysOnly(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{".env": "API_KEY=sk-live-123\nexport DB_URL=postgres://u:p@h/db\n# note\n"})
	cc := domain.CheckContext{ProjectRoot: root}
	check := NewEnvFile()
	ctx := context.Background()

	out := check.Healer().Fix(ctx, cc)
	require.True(t, out.Success, out.Message)
	assert.True(t, out.Changed)
	assert.Empty(t, out.BackupPath, "nothing to back up for a new file")

	data, err := os.ReadFile(filepath.Join(root, ".env.example"))
	require.NoError(t, err)
	assert.Equal(t, envHeader+"\nAPI_KEY=\nDB_URL=\n", string(data))
	assert.NotContains(t, string(data), "sk-live")

	res, err := check.Execute(ctx, cc)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPass, res.Status)

	again := check.Healer().Fix(ctx, cc)
	assert.True(t, again.Success)
	assert.False(t, again.Changed)
}

func TestEnvFile_FixRejectsMalformedEnv(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{".env": "GOOD=1\n=no-key\n"})

	out := NewEnvFile().Healer().Fix(context.Background(), domain.CheckContext{ProjectRoot: root})
	assert.False(t, out.Success)
	assert.Contains(t, out.Message, "parse .env")
	assert.NoFileExists(t, filepath.Join(root, ".env.example"))
}

func TestEnvFile_FixAppendsToExistingExample(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{".env": "A=1\nB=2\n", ".env.example": "A="})
	cc := domain.CheckContext{ProjectRoot: root}

	out := NewEnvFile().Healer().Fix(context.Background(), cc)
	require.True(t, out.Success, out.Message)
	assert.Equal(t, filepath.Join(root, ".env.example"+domain.BackupSuffix), out.BackupPath)

	data, err := os.ReadFile(filepath.Join(root, ".env.example"))
	require.NoError(t, err)
	assert.Equal(t, "A=\nB=\n", string(data))
}

func TestLintDockerfile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{name: "good", content: "FROM node:20\nUSER node\nCOPY . .\n", want: 0},
		{name: "no from", content: "USER app\nCOPY . .\n", want: 1},
		{name: "no user", content: "FROM node:20\nRUN chown root /app\n", want: 1},
		{name: "explicit root", content: "FROM node:20\nUSER root:root\n", want: 1},
		{name: "user reset by later stage", content: "FROM golang AS build\nUSER app\nFROM alpine\n", want: 1},
		{name: "lowercase instructions", content: "from alpine\nuser 1000\n", want: 0},
		{name: "continuation is not an instruction", content: "FROM golang\nUSER app\nRUN echo \\\n  from here\n", want: 0},
		{name: "user after escaped newline", content: "FROM alpine\nUSER \\\n  app\n", want: 0},
		{name: "empty", content: "# only a comment\n", want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, LintDockerfile(tt.content), tt.want)
		})
	}
}

func TestDockerConfig(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		status  domain.Status
		message string
	}{
		{name: "no docker", status: domain.StatusPass, message: "not using Docker"},
		{
			name:    "valid",
			files:   map[string]string{"Dockerfile": "FROM node:18\nUSER node\nCOPY . .\n", ".dockerignore": "node_modules\n"},
			status:  domain.StatusPass,
			message: "Dockerfile",
		},
		{
			name:    "missing FROM",
			files:   map[string]string{"Dockerfile": "COPY . .\nRUN npm install\nUSER node\n", ".dockerignore": ""},
			status:  domain.StatusWarning,
			message: "FROM",
		},
		{
			name:    "runs as root",
			files:   map[string]string{"Dockerfile": "FROM node:18\nRUN chown root /app\n", ".dockerignore": ""},
			status:  domain.StatusWarning,
			message: "root",
		},
		{
			name:    "missing dockerignore",
			files:   map[string]string{"Dockerfile": "FROM node:18\nUSER node\n"},
			status:  domain.StatusWarning,
			message: ".dockerignore",
		},
		{
			name:    "compose only",
			files:   map[string]string{"compose.yaml": "services: {}\n"},
			status:  domain.StatusPass,
			message: "compose.yaml",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeFiles(t, root, tt.files)
			runner := portstest.NewRunner().On("docker --version", "Docker version 24.0.7, build afdd53b")
			res, err := NewDockerConfig(runner).Execute(context.Background(), domain.CheckContext{ProjectRoot: root})
			require.NoError(t, err)
			assert.Equal(t, tt.status, res.Status)
			assert.Contains(t, res.Message, tt.message)
		})
	}
}

func TestDockerConfig_RecordsCLI(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"Dockerfile": "FROM alpine\nUSER app\n", ".dockerignore": ""})
	cc := domain.CheckContext{ProjectRoot: root}

	res, err := NewDockerConfig(portstest.NewRunner().On("docker --version", "Docker version 24.0.7, build afdd53b")).Execute(context.Background(), cc)
	require.NoError(t, err)
	assert.Equal(t, "24.0.7", res.Details["docker_version"])

	res, err = NewDockerConfig(portstest.NewRunner()).Execute(context.Background(), cc)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPass, res.Status, "the Docker CLI is optional")
	assert.Equal(t, false, res.Details["docker_cli"])
}
