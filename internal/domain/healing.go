package domain

import (
	"context"
	"time"
)

// HealActionManual tags healers that only describe remediation steps.
const HealActionManual = "manual"

// FixFunc applies an automated remediation. It must be idempotent: applying it to an
// already healthy project is a successful no-op.
type FixFunc func(ctx context.Context, cc CheckContext) FixOutcome

// Healer describes how a negative result can be remediated.
type Healer struct {
	Name          string   `json:"name"`
	Action        string   `json:"action"`
	Steps         []string `json:"steps,omitempty"`
	Warning       string   `json:"warning,omitempty"`
	Documentation string   `json:"documentation,omitempty"`
	// TargetPaths lists project-relative paths the fix writes. Fixes sharing a path are serialized.
	TargetPaths []string `json:"target_paths,omitempty"`
	Fix         FixFunc  `json:"-"`
}

// Manual reports whether the healer cannot be applied automatically.
func (h *Healer) Manual() bool {
	return h == nil || h.Action == HealActionManual || h.Fix == nil
}

// FixOutcome is the structured result of a fix attempt.
type FixOutcome struct {
	Success    bool   `json:"success"`
	Changed    bool   `json:"changed"`
	Message    string `json:"message"`
	BackupPath string `json:"backup_path,omitempty"`
}

// FixApplied reports a successful fix that changed project state.
func FixApplied(message string) FixOutcome {
	return FixOutcome{Success: true, Changed: true, Message: message}
}

// FixNoop reports a successful fix whose target condition was already satisfied.
func FixNoop(message string) FixOutcome {
	return FixOutcome{Success: true, Message: message}
}

// FixFailed reports a fix that did not apply.
func FixFailed(message string) FixOutcome {
	return FixOutcome{Success: false, Message: message}
}

// HealState is a node of the per-check healing state machine.
type HealState string

const (
	HealDetected       HealState = "detected"
	HealHealable       HealState = "healable"
	HealApplying       HealState = "applying"
	HealHealed         HealState = "healed"
	HealResolved       HealState = "resolved"
	HealUnresolved     HealState = "unresolved"
	HealTerminalManual HealState = "terminal-manual"
	HealFailed         HealState = "failed"
)

// Terminal reports whether no further transition is possible.
func (s HealState) Terminal() bool {
	switch s {
	case HealResolved, HealUnresolved, HealTerminalManual, HealFailed:
		return true
	}
	return false
}

// HealingRecord is reported alongside the check result it tried to heal.
type HealingRecord struct {
	CheckID       string        `json:"check_id"`
	Tier          int           `json:"tier"`
	Healer        string        `json:"healer,omitempty"`
	Action        string        `json:"action,omitempty"`
	State         HealState     `json:"state"`
	Reason        string        `json:"reason,omitempty"`
	Message       string        `json:"message,omitempty"`
	BackupPath    string        `json:"backup_path,omitempty"`
	Steps         []string      `json:"steps,omitempty"`
	Warning       string        `json:"warning,omitempty"`
	Documentation string        `json:"documentation,omitempty"`
	Original      CheckResult   `json:"original"`
	Revalidated   *CheckResult  `json:"revalidated,omitempty"`
	Duration      time.Duration `json:"duration_ns"`
}

// Succeeded reports whether an automated fix was applied successfully.
func (r HealingRecord) Succeeded() bool {
	return r.State == HealResolved || r.State == HealUnresolved || r.State == HealHealed
}

// HealOptions controls the second, remediation pass.
type HealOptions struct {
	// MaxTier is the ceiling for unattended fixes. Zero disables automated healing.
	MaxTier int
	// ConfirmAbove asks the confirmer before applying fixes whose tier exceeds it.
	ConfirmAbove int
	// AssumeYes skips confirmation prompts.
	AssumeYes bool
	// DryRun plans fixes without applying them.
	DryRun bool
	// Disabled lists check ids that are never auto-healed.
	Disabled []string
}
