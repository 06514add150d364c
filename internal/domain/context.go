package domain

import (
	"path/filepath"
	"sort"
)

// Keys of CheckContext.Extra set by the context collector.
const (
	ExtraOS        = "os"
	ExtraShell     = "shell"
	ExtraGitBranch = "git.branch"
)

// CheckContext is the read-only input shared by every check in a run.
// Checks read environment variables from Env, never from the process.
type CheckContext struct {
	ProjectRoot string
	Env         map[string]string
	// Tools lists executables found on PATH when the context was collected.
	Tools []string
	// Extra carries optional check-specific inputs.
	Extra map[string]interface{}
}

// Getenv returns an environment variable from the captured snapshot.
func (c CheckContext) Getenv(key string) string {
	return c.Env[key]
}

// LookupEnv reports whether the variable is present, even if empty.
func (c CheckContext) LookupEnv(key string) (string, bool) {
	v, ok := c.Env[key]
	return v, ok
}

// Path joins elem onto the project root.
func (c CheckContext) Path(elem ...string) string {
	return filepath.Join(append([]string{c.ProjectRoot}, elem...)...)
}

// HasTool reports whether name was detected on PATH.
func (c CheckContext) HasTool(name string) bool {
	i := sort.SearchStrings(c.Tools, name)
	return i < len(c.Tools) && c.Tools[i] == name
}

// ExtraString reads a string value from Extra.
func (c CheckContext) ExtraString(key string) string {
	if v, ok := c.Extra[key].(string); ok {
		return v
	}
	return ""
}

// CommandResult captures a finished subprocess.
type CommandResult struct {
	Stdout     string
	Stderr     string
	ExitCode   int
	DurationMS int64
}

// ProbeResult captures one reachability probe.
type ProbeResult struct {
	URL        string
	StatusCode int
	Latency    int64
}

// Reachable reports whether the endpoint answered. Auth challenges count as reachable.
func (p ProbeResult) Reachable() bool {
	return p.StatusCode > 0 && p.StatusCode < 500
}
