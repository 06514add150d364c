package commands

import (
	"github.com/spf13/cobra"

	"github.com/doeshing/vitals/internal/app"
	"github.com/doeshing/vitals/internal/application/doctor"
)

// NewCheckCommand creates the check command, the default diagnostics run
func NewCheckCommand(container *app.Container) *cobra.Command {
	var (
		selection     selectionFlags
		output        outputFlags
		noCache       bool
		severityFirst bool
		noHistory     bool
	)

	cmd := &cobra.Command{
		Use:     "check",
		Aliases: []string{"doctor"},
		Short:   "Run project health checks",
		Long: "Run the selected health checks against the project and print a report.\n" +
			"Exits with status 1 when a HIGH or CRITICAL check fails.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := doctor.Request{
				NoCache:       noCache,
				SeverityFirst: severityFirst,
				SkipHistory:   noHistory,
			}
			if err := selection.apply(&req); err != nil {
				return err
			}
			return runAndRender(cmd.Context(), cmd.OutOrStdout(), container, req, &output)
		},
	}

	selection.register(cmd)
	output.register(cmd)
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Ignore cached results")
	cmd.Flags().BoolVar(&severityFirst, "severity-first", false, "Run the most severe checks first")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record this run in history")
	return cmd
}
