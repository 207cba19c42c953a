package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"earlyret/internal/cache"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [path]",
	Short: "Remove the token cache",
	Long:  "Remove cached token lists from the cache directory configured for path (default: current directory).",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runClean,
}

func runClean(cmd *cobra.Command, args []string) error {
	base := "."
	if len(args) > 0 && args[0] != "" {
		base = args[0]
	}
	settings, err := loadSettings(cmd, base)
	if err != nil {
		return err
	}
	if settings.Cache.Dir == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "no cache directory configured")
		return nil
	}
	c, err := cache.Open(settings.Cache.Dir)
	if err != nil {
		return fmt.Errorf("failed to open cache %q: %w", settings.Cache.Dir, err)
	}
	if err := c.DropAll(); err != nil {
		return fmt.Errorf("failed to clear cache %q: %w", c.Dir(), err)
	}
	if !quiet(cmd) {
		fmt.Fprintf(cmd.OutOrStdout(), "removed cached tokens in %s\n", c.Dir())
	}
	return nil
}
