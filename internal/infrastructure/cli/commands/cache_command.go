package commands

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/doeshing/vitals/internal/app"
	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/infrastructure/cli/helpers"
)

// NewCacheCommand creates the cache command with all subcommands
func NewCacheCommand(container *app.Container) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear cached check results",
	}

	cacheCmd.AddCommand(
		newCacheListCommand(container),
		newCacheClearCommand(container),
		newCacheStatsCommand(container),
	)

	return cacheCmd
}

// newCacheListCommand creates the 'cache list' subcommand
func newCacheListCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listCacheEntries(cmd.OutOrStdout(), container, time.Now())
		},
	}
}

// newCacheClearCommand creates the 'cache clear' subcommand
func newCacheClearCommand(container *app.Container) *cobra.Command {
	var ids []string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear cached results",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clearCache(container, ids); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), MsgCacheCleared)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&ids, "id", nil, "Only clear entries of these check ids")
	return cmd
}

// newCacheStatsCommand creates the 'cache stats' subcommand
func newCacheStatsCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache location, size and per-check counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showCacheStats(cmd.OutOrStdout(), container)
		},
	}
}

// listCacheEntries lists all cache entries
func listCacheEntries(out io.Writer, container *app.Container, now time.Time) error {
	if container.CacheAdmin == nil {
		return errors.New(ErrCacheStoreUnavailable)
	}

	entries, err := container.CacheAdmin.Entries()
	if err != nil {
		return fmt.Errorf("failed to retrieve cache entries: %w", err)
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, MsgNoCachedResults)
		return nil
	}

	for _, entry := range entries {
		state := "expires " + humanize.RelTime(entry.ExpiresAt, now, "ago", "from now")
		if entry.Expired(now) {
			state = "expired"
		}
		fmt.Fprintf(out, "%s | %s | %s | %s\n",
			entry.CheckID,
			entry.Result.Status,
			entry.CreatedAt.Format(TimestampFormat),
			state)
	}

	return nil
}

// clearCache drops every entry, or only the entries of the given checks
func clearCache(container *app.Container, ids []string) error {
	if container.CacheStore == nil {
		return errors.New(ErrCacheStoreUnavailable)
	}

	if len(ids) == 0 {
		if err := container.CacheStore.InvalidateAll(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		return nil
	}

	for _, id := range ids {
		if err := container.CacheStore.Invalidate(id); err != nil {
			return fmt.Errorf("failed to clear cache for %s: %w", id, err)
		}
	}
	return nil
}

// showCacheStats displays cache settings and per-check statistics
func showCacheStats(out io.Writer, container *app.Container) error {
	if container.CacheAdmin == nil {
		return errors.New(ErrCacheStoreUnavailable)
	}

	stats, err := container.CacheAdmin.Stats()
	if err != nil {
		return fmt.Errorf("failed to read cache stats: %w", err)
	}
	entries, err := container.CacheAdmin.Entries()
	if err != nil {
		return fmt.Errorf("failed to retrieve cache entries: %w", err)
	}

	fmt.Fprintf(out, "Location: %s\nCache TTL: %s\nMax entries: %d\nCurrent entries: %d (%d expired)\nSize: %s\n",
		stats.Location,
		container.Config.CacheTTL(),
		container.Config.Cache.MaxEntries,
		stats.Entries,
		stats.Expired,
		humanize.Bytes(uint64(stats.SizeBytes)))

	checkCounts := calculateCheckCounts(entries)
	if len(checkCounts) == 0 {
		fmt.Fprintln(out, MsgNoCachedResults)
		return nil
	}

	fmt.Fprintln(out, "Entries per check:")
	for _, stat := range helpers.CalculateTopCounts(checkCounts, 0) {
		fmt.Fprintf(out, "  %s: %d\n", stat.Key, stat.Count)
	}

	return nil
}

// calculateCheckCounts calculates the number of cache entries per check
func calculateCheckCounts(entries []domain.CacheEntry) map[string]int {
	counts := make(map[string]int)

	for _, entry := range entries {
		counts[entry.CheckID]++
	}

	return counts
}
