package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/doeshing/vitals/internal/app"
	"github.com/doeshing/vitals/internal/application/doctor"
	"github.com/doeshing/vitals/internal/domain"
)

// NewHealCommand creates the heal command: a check run followed by remediation
func NewHealCommand(container *app.Container) *cobra.Command {
	var (
		selection selectionFlags
		output    outputFlags
		maxTier   int
		assumeYes bool
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:     "heal",
		Aliases: []string{"fix"},
		Short:   "Run checks and apply fixes for the issues found",
		Long: "Run the selected health checks, apply the fixes allowed by the healing tier,\n" +
			"then re-run the fixed checks. Fixes above healing.confirm_above ask first.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := doctor.Request{
				Heal:      true,
				NoCache:   true,
				AssumeYes: assumeYes,
				DryRun:    dryRun,
			}
			if err := selection.apply(&req); err != nil {
				return err
			}

			tier, err := resolveHealTier(cmd.Flags().Changed("max-tier"), maxTier, container.Config)
			if err != nil {
				return err
			}
			req.MaxTier = &tier

			return runAndRender(cmd.Context(), cmd.OutOrStdout(), container, req, &output)
		},
	}

	selection.register(cmd)
	output.register(cmd)
	cmd.Flags().IntVar(&maxTier, "max-tier", 0, "Highest healing tier to apply (default from config, at least 1)")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Apply fixes without asking")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show which fixes would run without applying them")
	return cmd
}

// resolveHealTier picks the tier ceiling for an explicit heal run. An explicit
// heal with healing.max_tier at 0 still applies tier 1 fixes.
func resolveHealTier(explicit bool, flagValue int, cfg domain.Config) (int, error) {
	if explicit {
		if flagValue < 0 {
			return 0, errors.New(ErrInvalidMaxTier)
		}
		return flagValue, nil
	}
	if cfg.Healing.MaxTier > 0 {
		return cfg.Healing.MaxTier, nil
	}
	return DefaultHealTier, nil
}
