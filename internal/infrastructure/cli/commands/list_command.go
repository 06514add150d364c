package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/doeshing/vitals/internal/app"
	"github.com/doeshing/vitals/internal/application/registry"
	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/ports"
)

// checkListing is the JSON shape of one registered check.
type checkListing struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	Category        string   `json:"category"`
	Severity        string   `json:"severity"`
	Cacheable       bool     `json:"cacheable"`
	HealingTier     int      `json:"healing_tier"`
	Healer          string   `json:"healer,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Disabled        bool     `json:"disabled,omitempty"`
	HealingDisabled bool     `json:"healing_disabled,omitempty"`
}

// NewListCommand creates the list command
func NewListCommand(container *app.Container) *cobra.Command {
	var (
		selection selectionFlags
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if container == nil || container.DoctorService == nil {
				return errors.New(ErrDoctorServiceUnavailable)
			}
			sel, err := registry.ParseSelector(selection.categories, selection.severities, selection.ids, selection.tags)
			if err != nil {
				return err
			}
			checks, err := container.DoctorService.Checks(sel)
			if err != nil {
				return err
			}
			if asJSON {
				return writeCheckListJSON(cmd.OutOrStdout(), checks, container.Config)
			}
			return writeCheckTable(cmd.OutOrStdout(), checks, container.Config)
		},
	}

	cmd.Flags().StringSliceVarP(&selection.categories, "category", "c", nil, "Only list checks in these categories")
	cmd.Flags().StringSliceVarP(&selection.severities, "severity", "s", nil, "Only list checks with these severities")
	cmd.Flags().StringSliceVar(&selection.ids, "id", nil, "Only list these check ids")
	cmd.Flags().StringSliceVar(&selection.tags, "tag", nil, "Only list checks carrying one of these tags")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func describeCheck(check ports.Check, cfg domain.Config) checkListing {
	name, description, tags := registry.Describe(check)
	listing := checkListing{
		ID:          check.ID(),
		Name:        name,
		Description: description,
		Category:    string(check.Category()),
		Severity:    check.Severity().String(),
		Cacheable:   check.Cacheable(),
		HealingTier: check.HealingTier(),
		Tags:        tags,
		Disabled:    cfg.IsCheckDisabled(check.ID()),
	}
	if healer := registry.HealerOf(check); healer != nil {
		listing.Healer = healer.Name
		listing.HealingDisabled = cfg.IsHealingDisabled(check.ID())
	}
	return listing
}

func writeCheckTable(out io.Writer, checks []ports.Check, cfg domain.Config) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCATEGORY\tSEVERITY\tCACHE\tTIER\tNAME")
	for _, check := range checks {
		l := describeCheck(check, cfg)
		cache := "-"
		if l.Cacheable {
			cache = "yes"
		}
		name := l.Name
		if l.Disabled {
			name += " (disabled)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", l.ID, l.Category, l.Severity, cache, l.HealingTier, name)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d check(s)%s\n", len(checks), healableSuffix(checks))
	return nil
}

func healableSuffix(checks []ports.Check) string {
	var names []string
	for _, check := range checks {
		if healer := registry.HealerOf(check); healer != nil && !healer.Manual() {
			names = append(names, check.ID())
		}
	}
	if len(names) == 0 {
		return ""
	}
	return fmt.Sprintf(", %d with automated fixes: %s", len(names), strings.Join(names, ", "))
}

func writeCheckListJSON(out io.Writer, checks []ports.Check, cfg domain.Config) error {
	listings := make([]checkListing, 0, len(checks))
	for _, check := range checks {
		listings = append(listings, describeCheck(check, cfg))
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(listings)
}
