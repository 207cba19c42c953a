// Package config loads earlyret.toml and merges command-line overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"earlyret/internal/diag"
	"earlyret/internal/lower"
	"earlyret/internal/syntax"
)

// FileName is the project configuration file looked up from the target upwards.
const FileName = "earlyret.toml"

// Settings is the resolved configuration of one run.
type Settings struct {
	Path    string // manifest that was loaded, empty when defaults are used
	Lower   lower.Config
	Dialect syntax.Dialect // 0 picks the dialect from each file's extension
	Cache   CacheSettings
}

type CacheSettings struct {
	Enabled bool
	Dir     string
}

// Default returns the settings used when no manifest exists.
func Default() Settings {
	return Settings{
		Lower: lower.DefaultConfig(),
		Cache: CacheSettings{Enabled: true, Dir: defaultCacheDir()},
	}
}

func defaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil || base == "" {
		return filepath.Join(os.TempDir(), "earlyret-cache")
	}
	return filepath.Join(base, "earlyret")
}

type fileConfig struct {
	Lower lowerSection `toml:"lower"`
	Cache cacheSection `toml:"cache"`
}

type lowerSection struct {
	Dialect    string `toml:"dialect"`
	Mangle     bool   `toml:"mangle"`
	ValueCheck any    `toml:"value_check"`
	Unwrap     any    `toml:"unwrap"`
}

type cacheSection struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// modifierFrom accepts either "kind:value" or { kind = "...", value = "..." }.
func modifierFrom(data any) (lower.Modifier, error) {
	switch v := data.(type) {
	case string:
		return lower.ParseModifier(v)
	case map[string]any:
		for key := range v {
			if key != "kind" && key != "value" {
				return lower.Modifier{}, diag.Errorf(diag.CfgInvalidValue, "unknown modifier key %q", key)
			}
		}
		kind, _ := v["kind"].(string)
		value, _ := v["value"].(string)
		k, err := lower.ParseModifierKind(kind)
		if err != nil {
			return lower.Modifier{}, err
		}
		m := lower.Modifier{Kind: k, Name: strings.TrimSpace(value)}
		return m, m.Validate()
	default:
		return lower.Modifier{}, diag.Errorf(diag.CfgInvalidValue, "modifier must be a string or a table, got %T", data)
	}
}

// modifierKeys are decoded by hand, so their sub-keys never count as unknown.
var modifierKeys = []string{"lower.value_check", "lower.unwrap"}

func unknownKeys(meta toml.MetaData) []string {
	var keys []string
	for _, k := range meta.Undecoded() {
		name := k.String()
		known := false
		for _, prefix := range modifierKeys {
			if name == prefix || strings.HasPrefix(name, prefix+".") {
				known = true
				break
			}
		}
		if !known {
			keys = append(keys, name)
		}
	}
	return keys
}

// Find walks up from startDir looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover loads the nearest manifest above start, or returns Default.
func Discover(start string) (Settings, error) {
	path, ok, err := Find(start)
	if err != nil {
		return Settings{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Load decodes path on top of Default. Keys that are absent keep their defaults.
func Load(path string) (Settings, error) {
	var fc fileConfig
	meta, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return Settings{}, diag.Errorf(diag.CfgManifest, "%s: failed to parse TOML", path).Wrap(err)
	}
	if keys := unknownKeys(meta); len(keys) > 0 {
		return Settings{}, diag.Errorf(diag.CfgManifest, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	s := Default()
	s.Path = path
	if meta.IsDefined("lower", "dialect") && strings.TrimSpace(fc.Lower.Dialect) != "" {
		d, err := syntax.ParseDialect(fc.Lower.Dialect)
		if err != nil {
			return Settings{}, diag.Errorf(diag.CfgInvalidValue, "%s: [lower].dialect", path).Wrap(err)
		}
		s.Dialect = d
	}
	if meta.IsDefined("lower", "mangle") {
		s.Lower.Mangle = fc.Lower.Mangle
	}
	if meta.IsDefined("lower", "value_check") {
		if s.Lower.ValueCheck, err = modifierFrom(fc.Lower.ValueCheck); err != nil {
			return Settings{}, fmt.Errorf("%s: [lower].value_check: %w", path, err)
		}
	}
	if meta.IsDefined("lower", "unwrap") {
		if s.Lower.Unwrap, err = modifierFrom(fc.Lower.Unwrap); err != nil {
			return Settings{}, fmt.Errorf("%s: [lower].unwrap: %w", path, err)
		}
	}
	if meta.IsDefined("cache", "enabled") {
		s.Cache.Enabled = fc.Cache.Enabled
	}
	if meta.IsDefined("cache", "dir") && strings.TrimSpace(fc.Cache.Dir) != "" {
		dir := fc.Cache.Dir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(filepath.Dir(path), dir)
		}
		s.Cache.Dir = dir
	}

	if err := s.Lower.Validate(); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Overrides are command-line values; empty strings and nil pointers leave settings unchanged.
type Overrides struct {
	ValueCheck string
	Unwrap     string
	Mangle     *bool
	Dialect    string
	NoCache    bool
	CacheDir   string
}

// Apply merges o into s.
func (s *Settings) Apply(o Overrides) error {
	if o.ValueCheck != "" {
		m, err := lower.ParseModifier(o.ValueCheck)
		if err != nil {
			return fmt.Errorf("--value-check: %w", err)
		}
		s.Lower.ValueCheck = m
	}
	if o.Unwrap != "" {
		m, err := lower.ParseModifier(o.Unwrap)
		if err != nil {
			return fmt.Errorf("--unwrap: %w", err)
		}
		s.Lower.Unwrap = m
	}
	if o.Mangle != nil {
		s.Lower.Mangle = *o.Mangle
	}
	if o.Dialect != "" && o.Dialect != "auto" {
		d, err := syntax.ParseDialect(o.Dialect)
		if err != nil {
			return diag.Errorf(diag.CfgInvalidValue, "--dialect").Wrap(err)
		}
		s.Dialect = d
	}
	if o.NoCache {
		s.Cache.Enabled = false
	}
	if o.CacheDir != "" {
		s.Cache.Dir = o.CacheDir
	}
	return nil
}
