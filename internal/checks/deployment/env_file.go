// Package deployment contains checks of deployment-facing project files.
package deployment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/doeshing/vitals/internal/checks/base"
	"github.com/doeshing/vitals/internal/domain"
	"github.com/subosito/gotenv"
)

const (
	envFile        = ".env"
	envExampleFile = ".env.example"
	envLocalFile   = ".env.local"
	envHeader      = "# Generated by vitals from .env (values omitted)"
)

// EnvFile verifies .env files are documented by an .env.example template.
type EnvFile struct {
	base.Meta
}

// NewEnvFile builds the check.
func NewEnvFile() *EnvFile {
	return &EnvFile{Meta: base.Meta{
		CheckID: "deployment.env-file",
		Cat:     domain.CategoryDeployment,
		Sev:     domain.SeverityHigh,
		Cache:   true,
		Tier:    1,
		Title:   "Environment Files",
		Summary: "Verifies .env variables are documented in .env.example",
		Labels:  []string{"env", "configuration", "security"},
	}}
}

func (c *EnvFile) Execute(_ context.Context, cc domain.CheckContext) (domain.CheckResult, error) {
	env, hasEnv, err := readEnv(cc.Path(envFile))
	if err != nil {
		return envReadFailure(envFile, err), nil
	}
	example, hasExample, err := readEnv(cc.Path(envExampleFile))
	if err != nil {
		return envReadFailure(envExampleFile, err), nil
	}
	local, hasLocal, err := readEnv(cc.Path(envLocalFile))
	if err != nil {
		return envReadFailure(envLocalFile, err), nil
	}

	details := map[string]interface{}{
		"env":         hasEnv,
		"env_example": hasExample,
		"env_local":   hasLocal,
	}
	if !hasEnv && !hasExample {
		return domain.Pass("No .env files found", details), nil
	}
	details["env_vars"] = len(env)
	details["example_vars"] = len(example)

	if hasEnv && !hasExample {
		return domain.Warn(
			".env exists without a .env.example template",
			"Create .env.example with the variable names (no values) or run: vitals heal",
			details,
		), nil
	}
	if !hasEnv {
		return domain.Warn(
			".env.example exists but .env is missing",
			"Copy .env.example to .env and fill in the values",
			details,
		), nil
	}

	// .env.local may supply variables that .env leaves out.
	for k, v := range local {
		env[k] = v
	}
	var missing []string
	for k := range example {
		if _, ok := env[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		details["missing"] = missing
		return domain.Warn(
			fmt.Sprintf("%d variable(s) from .env.example missing in .env: %s", len(missing), strings.Join(missing, ", ")),
			"Add the missing variables to .env",
			details,
		), nil
	}
	return domain.Pass(fmt.Sprintf(".env configured with %d variable(s)", len(env)), details), nil
}

func (c *EnvFile) CacheKey(cc domain.CheckContext) []string {
	return []string{
		base.FileDigest(cc.Path(envFile)),
		base.FileDigest(cc.Path(envExampleFile)),
		base.FileDigest(cc.Path(envLocalFile)),
	}
}

func (c *EnvFile) Healer() *domain.Healer {
	return &domain.Healer{
		Name:        "generate-env-example",
		Action:      "generate-env-example",
		Steps:       []string{"Write .env.example listing every variable name from .env without values"},
		Warning:     "Only variable names are copied; values never leave .env",
		TargetPaths: []string{envExampleFile},
		Fix:         fixEnvExample,
	}
}

func fixEnvExample(_ context.Context, cc domain.CheckContext) domain.FixOutcome {
	data, err := os.ReadFile(cc.Path(envFile))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.FixNoop("No .env file to document")
		}
		return domain.FixFailed("read .env: " + err.Error())
	}
	env, err := ParseEnv(string(data))
	if err != nil {
		return domain.FixFailed("parse .env: " + err.Error())
	}

	path := cc.Path(envExampleFile)
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return domain.FixFailed("read .env.example: " + err.Error())
	}
	documented, err := ParseEnv(string(existing))
	if err != nil {
		return domain.FixFailed("parse .env.example: " + err.Error())
	}
	var missing []string
	for _, k := range EnvKeys(env) {
		if _, ok := documented[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return domain.FixNoop(".env.example already lists every variable")
	}

	backup, err := base.Backup(path)
	if err != nil {
		return domain.FixFailed("backup .env.example: " + err.Error())
	}
	var b strings.Builder
	if len(existing) > 0 {
		b.Write(existing)
		if !strings.HasSuffix(string(existing), "\n") {
			b.WriteString("\n")
		}
	} else {
		b.WriteString(envHeader + "\n")
	}
	for _, k := range missing {
		b.WriteString(k + "=\n")
	}
	if err := os.WriteFile(path, []byte(b.String()), domain.FilePermissions); err != nil {
		return domain.FixFailed("write .env.example: " + err.Error())
	}
	out := domain.FixApplied(fmt.Sprintf("Documented %d variable(s) in .env.example", len(missing)))
	out.BackupPath = backup
	return out
}

// ParseEnv parses dotenv content, rejecting lines that are not valid
// assignments. Comments, blank lines and "export " prefixes are accepted.
func ParseEnv(content string) (gotenv.Env, error) {
	return gotenv.StrictParse(strings.NewReader(content))
}

// EnvKeys returns the variable names of env in sorted order.
func EnvKeys(env gotenv.Env) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func readEnv(path string) (gotenv.Env, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	env, err := ParseEnv(string(data))
	if err != nil {
		return nil, true, &envSyntaxError{err: err}
	}
	return env, true, nil
}

type envSyntaxError struct {
	err error
}

func (e *envSyntaxError) Error() string { return e.err.Error() }

func (e *envSyntaxError) Unwrap() error { return e.err }

func envReadFailure(name string, err error) domain.CheckResult {
	var syntax *envSyntaxError
	if errors.As(err, &syntax) {
		return domain.Fail(
			fmt.Sprintf("%s is malformed: %s", name, syntax.Error()),
			"Fix the line so every entry reads KEY=value",
			map[string]interface{}{"file": name},
		)
	}
	return domain.Errored(fmt.Sprintf("Could not read %s: %s", name, err.Error()), nil)
}
