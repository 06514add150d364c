package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/doeshing/vitals/internal/app"
	"github.com/doeshing/vitals/internal/application/doctor"
	"github.com/doeshing/vitals/internal/application/registry"
	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/infrastructure/cli/helpers"
	"github.com/doeshing/vitals/internal/infrastructure/report"
	"github.com/doeshing/vitals/internal/version"
)

// ExitError carries a non-zero process exit code without an error message.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// selectionFlags narrow a run to a subset of checks.
type selectionFlags struct {
	categories []string
	severities []string
	ids        []string
	tags       []string
	mode       string
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.categories, "category", "c", nil, "Only run checks in these categories (local, project, repository, deployment, services)")
	cmd.Flags().StringSliceVarP(&f.severities, "severity", "s", nil, "Only run checks with these severities (INFO..CRITICAL)")
	cmd.Flags().StringSliceVar(&f.ids, "id", nil, "Only run these check ids")
	cmd.Flags().StringSliceVar(&f.tags, "tag", nil, "Only run checks carrying one of these tags")
	cmd.Flags().StringVarP(&f.mode, "mode", "m", "", "Run mode: quick or full (default from config)")
}

// apply validates the flags and copies them onto a doctor request.
func (f *selectionFlags) apply(req *doctor.Request) error {
	sel, err := registry.ParseSelector(f.categories, f.severities, f.ids, f.tags)
	if err != nil {
		return err
	}
	req.Selector = sel

	if f.mode != "" {
		mode, err := domain.ParseRunMode(f.mode)
		if err != nil {
			return err
		}
		req.Mode = mode
	}
	return nil
}

// outputFlags control report rendering.
type outputFlags struct {
	format  string
	json    bool
	noColor bool
	details bool
	output  string
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.format, "format", "", "Output format: text or json (default from config)")
	cmd.Flags().BoolVar(&f.json, "json", false, "Shorthand for --format json")
	cmd.Flags().BoolVar(&f.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().BoolVarP(&f.details, "details", "d", false, "List passing checks too")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Write the report to a file instead of stdout")
}

func (f *outputFlags) resolvedFormat(cfg domain.Config) string {
	switch {
	case f.json:
		return "json"
	case f.format != "":
		return f.format
	default:
		return cfg.Output.Format
	}
}

// validate resolves the format and rejects unknown ones.
func (f *outputFlags) validate(cfg domain.Config) (string, error) {
	format := f.resolvedFormat(cfg)
	_, err := report.ForFormat(format, cfg.Output, version.Version, f.noColor)
	return format, err
}

func (f *outputFlags) write(out io.Writer, cfg domain.Config, rep domain.HealthReport) error {
	format := f.resolvedFormat(cfg)
	renderer, err := report.ForFormat(format, cfg.Output, version.Version, f.noColor || f.output != "")
	if err != nil {
		return err
	}
	if text, ok := renderer.(*report.TextRenderer); ok {
		text.Verbose = f.details
	}

	data, err := renderer.Render(rep)
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	if f.output != "" {
		if err := os.WriteFile(f.output, data, domain.FilePermissions); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Fprintf(out, "Report written to %s\n", f.output)
		return nil
	}

	_, err = out.Write(data)
	return err
}

// runAndRender executes a doctor run and writes the report. A failing
// verdict is reported as an ExitError after the report is written.
func runAndRender(ctx context.Context, out io.Writer, container *app.Container, req doctor.Request, output *outputFlags) error {
	if container == nil || container.DoctorService == nil {
		return errors.New(ErrDoctorServiceUnavailable)
	}
	req.ProjectRoot = container.ProjectRoot

	// Reject a bad format before spending time on checks.
	format, err := output.validate(container.Config)
	if err != nil {
		return err
	}

	var spinner *helpers.Spinner
	if format == "text" && output.output == "" {
		spinner = helpers.SpinnerFor("Running checks")
	}
	spinner.Start()
	rep, err := container.DoctorService.Run(ctx, req)
	spinner.Stop()
	if err != nil {
		return err
	}

	if err := output.write(out, container.Config, rep); err != nil {
		return err
	}

	if code := rep.ExitCode(); code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}
