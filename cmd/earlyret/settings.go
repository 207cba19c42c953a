package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"earlyret/internal/cache"
	"earlyret/internal/config"
)

// loadSettings reads --config or the nearest earlyret.toml above target.
func loadSettings(cmd *cobra.Command, target string) (config.Settings, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return config.Settings{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	if path != "" {
		return config.Load(path)
	}
	start := target
	if start == "" || start == "-" {
		if start, err = os.Getwd(); err != nil {
			return config.Settings{}, err
		}
	}
	abs, err := filepath.Abs(start)
	if err != nil {
		return config.Settings{}, err
	}
	return config.Discover(abs)
}

// openCache returns nil when caching is off or the directory is unusable.
func openCache(cmd *cobra.Command, s config.Settings) *cache.DiskCache {
	if !s.Cache.Enabled || s.Cache.Dir == "" {
		return nil
	}
	c, err := cache.Open(s.Cache.Dir)
	if err != nil {
		if !quiet(cmd) {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: token cache disabled: %v\n", err)
		}
		return nil
	}
	return c
}

func quiet(cmd *cobra.Command) bool {
	q, err := cmd.Root().PersistentFlags().GetBool("quiet")
	return err == nil && q
}
