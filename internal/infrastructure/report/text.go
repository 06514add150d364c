package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/ports"
)

// TextRenderer renders the human-readable report.
type TextRenderer struct {
	// Verbose also lists passing checks with their messages.
	Verbose bool
	NoColor bool
}

type palette struct {
	pass, warn, fail, errc, dim, head func(a ...interface{}) string
}

func (r *TextRenderer) palette() palette {
	mk := func(attrs ...color.Attribute) func(a ...interface{}) string {
		c := color.New(attrs...)
		if r.NoColor {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	return palette{
		pass: mk(color.FgGreen),
		warn: mk(color.FgYellow),
		fail: mk(color.FgRed, color.Bold),
		errc: mk(color.FgMagenta),
		dim:  mk(color.FgHiBlack),
		head: mk(color.FgCyan, color.Bold),
	}
}

// Render implements ports.ReportRenderer.
func (r *TextRenderer) Render(report domain.HealthReport) ([]byte, error) {
	p := r.palette()
	var b bytes.Buffer

	fmt.Fprintf(&b, "%s %s\n", p.head("vitals health report"), p.dim(fmt.Sprintf("(%s mode, run %s)", report.Mode, shortID(report.RunID))))
	if report.ProjectRoot != "" {
		fmt.Fprintf(&b, "%s\n", p.dim(report.ProjectRoot))
	}

	var current domain.Category
	for _, e := range report.Results {
		if e.Category != current {
			current = e.Category
			fmt.Fprintf(&b, "\n%s\n", p.head(strings.ToUpper(string(current))))
		}
		if e.Result.Status == domain.StatusPass && !r.Verbose {
			fmt.Fprintf(&b, "  %s %s\n", p.pass(symbol(domain.StatusPass)), e.CheckID)
			continue
		}
		line := fmt.Sprintf("  %s %s  %s", r.colorize(p, e.Result.Status, symbol(e.Result.Status)), e.CheckID, e.Result.Message)
		if e.Result.Status != domain.StatusPass {
			line += " " + p.dim("["+e.Severity.String()+"]")
		}
		if e.FromCache {
			line += " " + p.dim("(cached)")
		}
		fmt.Fprintln(&b, line)
		if e.Result.Recommendation != "" && e.Result.Status != domain.StatusPass {
			fmt.Fprintf(&b, "      -> %s\n", e.Result.Recommendation)
		}
	}

	if len(report.Healing) > 0 {
		fmt.Fprintf(&b, "\n%s\n", p.head("HEALING"))
		for _, rec := range report.Healing {
			r.renderHealing(&b, p, rec)
		}
	}

	s := report.Summary
	fmt.Fprintf(&b, "\n%d checks: %s, %s, %s, %s",
		s.Total,
		p.pass(fmt.Sprintf("%d passed", s.Count(domain.StatusPass))),
		p.warn(fmt.Sprintf("%d warnings", s.Count(domain.StatusWarning))),
		p.fail(fmt.Sprintf("%d failed", s.Count(domain.StatusFail))),
		p.errc(fmt.Sprintf("%d errors", s.Count(domain.StatusError))),
	)
	if s.FromCache > 0 {
		fmt.Fprintf(&b, " %s", p.dim(fmt.Sprintf("(%d cached)", s.FromCache)))
	}
	fmt.Fprintf(&b, " in %s\n", FormatDuration(report.Duration))
	if fixed := report.AutoFixedCount(); fixed > 0 {
		fmt.Fprintf(&b, "Auto-fixed: %d\n", fixed)
	}
	fmt.Fprintf(&b, "Overall: %s\n", r.colorize(p, report.OverallStatus, strings.ToUpper(string(report.OverallStatus))))
	return b.Bytes(), nil
}

func (r *TextRenderer) renderHealing(b *bytes.Buffer, p palette, rec domain.HealingRecord) {
	state := string(rec.State)
	switch rec.State {
	case domain.HealResolved, domain.HealHealed:
		state = p.pass(state)
	case domain.HealUnresolved, domain.HealTerminalManual, domain.HealHealable:
		state = p.warn(state)
	case domain.HealFailed:
		state = p.fail(state)
	}
	fmt.Fprintf(b, "  %s %s", rec.CheckID, state)
	if detail := firstNonEmpty(rec.Message, rec.Reason); detail != "" {
		fmt.Fprintf(b, "  %s", detail)
	}
	fmt.Fprintln(b)
	if rec.BackupPath != "" {
		fmt.Fprintf(b, "      %s\n", p.dim("backup: "+rec.BackupPath))
	}
	if rec.State != domain.HealTerminalManual {
		return
	}
	if rec.Warning != "" {
		fmt.Fprintf(b, "      %s %s\n", p.warn("!"), rec.Warning)
	}
	for i, step := range rec.Steps {
		fmt.Fprintf(b, "      %d. %s\n", i+1, step)
	}
	if rec.Documentation != "" {
		fmt.Fprintf(b, "      %s\n", p.dim("docs: "+rec.Documentation))
	}
}

func (r *TextRenderer) colorize(p palette, status domain.Status, s string) string {
	switch status {
	case domain.StatusPass:
		return p.pass(s)
	case domain.StatusWarning:
		return p.warn(s)
	case domain.StatusFail:
		return p.fail(s)
	default:
		return p.errc(s)
	}
}

func symbol(status domain.Status) string {
	switch status {
	case domain.StatusPass:
		return "ok"
	case domain.StatusWarning:
		return "!!"
	case domain.StatusFail:
		return "xx"
	default:
		return "??"
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ForFormat returns the renderer for an output format name.
func ForFormat(format string, out domain.OutputSettings, toolVersion string, noColor bool) (ports.ReportRenderer, error) {
	switch format {
	case "", "text":
		return &TextRenderer{NoColor: noColor}, nil
	case "json":
		return NewJSONRenderer(out, toolVersion), nil
	}
	return nil, domain.NewConfigurationError("output", "unknown format %q (want text|json)", format)
}

var _ ports.ReportRenderer = (*TextRenderer)(nil)
