// Package cli wires the cobra command tree onto the application container.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/doeshing/vitals/internal/app"
	"github.com/doeshing/vitals/internal/infrastructure/cli/commands"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose bool
}

// Execute runs the command tree with args and returns the process exit code.
// Errors other than a failing verdict are printed to stderr.
func Execute(ctx context.Context, opts Options, args []string) int {
	root, container := newRoot(ctx, opts)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if closeErr := container.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err == nil {
		return 0
	}
	if code, ok := ExitCode(err); ok {
		return code
	}
	fmt.Fprintln(root.ErrOrStderr(), "error:", err)
	return 1
}

// NewRootCmd wires the cobra root command. The container is built lazily in
// PersistentPreRunE so --project and --config are honoured.
func NewRootCmd(ctx context.Context, opts Options) *cobra.Command {
	root, _ := newRoot(ctx, opts)
	return root
}

func newRoot(ctx context.Context, opts Options) (*cobra.Command, *app.Container) {
	var (
		projectRoot string
		configPath  string
		verbose     = opts.Verbose
	)

	container := &app.Container{}

	root := &cobra.Command{
		Use:   "vitals",
		Short: "vitals - project health checks with self-healing",
		Long: "vitals inspects a project and its environment, reports issues by severity\n" +
			"and can apply tiered fixes for the problems it finds.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if skipContainer(cmd) {
				return nil
			}
			built, err := app.BuildContainer(cmd.Context(), app.Options{
				ProjectRoot: projectRoot,
				ConfigPath:  configPath,
				Verbose:     verbose,
			})
			if err != nil {
				return err
			}
			*container = *built

			in := cmd.InOrStdin()
			if in == io.Reader(os.Stdin) {
				// Only prompt when stdin is a terminal.
				in = nil
			}
			container.DoctorService.Confirmer = NewPrompter(in, cmd.ErrOrStderr())
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&projectRoot, "project", "C", "", "Project root to inspect (default: current directory)")
	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: <project>/.vitals/config.yaml, or $VITALS_CONFIG)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", verbose, "Log engine activity to stderr")

	root.AddCommand(
		commands.NewCheckCommand(container),
		commands.NewHealCommand(container),
		commands.NewListCommand(container),
		commands.NewConfigCommand(container),
		commands.NewHistoryCommand(container),
		commands.NewCacheCommand(container),
		commands.NewVersionCommand(),
	)
	root.SetContext(ctx)
	return root, container
}

// ExitCode extracts the process exit code carried by a command error.
func ExitCode(err error) (int, bool) {
	var exitErr *commands.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}

func skipContainer(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[commands.AnnotationSkipContainer] == "true" {
			return true
		}
		// Help and completion never need a project.
		switch c.Name() {
		case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return true
		}
	}
	return !cmd.HasParent()
}
