package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"earlyret/internal/cache"
	"earlyret/internal/syntax"
	"earlyret/internal/version"
)

type versionFlags struct {
	format string
	hash   bool
	date   bool
	full   bool
}

var verFlags versionFlags

// versionReport extends the build info with what decides cache compatibility:
// a token cache is only reused by builds with the same schema and grammars.
type versionReport struct {
	version.Info
	CacheSchema uint16            `json:"cache_schema"`
	Grammars    map[string]uint32 `json:"grammars,omitempty"`
}

var grammarDialects = []syntax.Dialect{syntax.DialectJavaScript, syntax.DialectTypeScript, syntax.DialectTSX}

func init() {
	f := versionCmd.Flags()
	f.StringVar(&verFlags.format, "format", "pretty", "output format (pretty|json)")
	f.BoolVar(&verFlags.hash, "hash", false, "include git commit hash and message")
	f.BoolVar(&verFlags.date, "date", false, "include build timestamp")
	f.BoolVar(&verFlags.full, "full", false, "also show runtime and grammar ABI versions")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show earlyret build metadata",
	RunE: func(cmd *cobra.Command, args []string) error {
		format := strings.ToLower(verFlags.format)
		if format != "pretty" && format != "json" {
			return fmt.Errorf("unsupported format %q (must be pretty or json)", verFlags.format)
		}
		rep := buildVersionReport(verFlags)
		if format == "json" {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		}
		printVersion(cmd.OutOrStdout(), rep, useColor(cmd, os.Stdout))
		return nil
	},
}

func buildVersionReport(fl versionFlags) versionReport {
	info := version.Current()
	rep := versionReport{
		Info:        version.Info{Version: orDefault(info.Version, "dev"), GoVersion: info.GoVersion, Platform: info.Platform},
		CacheSchema: cache.SchemaVersion(),
	}
	if fl.hash || fl.full {
		rep.GitCommit = orDefault(info.GitCommit, "unknown")
		rep.GitMessage = orDefault(info.GitMessage, "unknown")
	}
	if fl.date || fl.full {
		rep.BuildDate = orDefault(info.BuildDate, "unknown")
	}
	if fl.full {
		rep.Grammars = make(map[string]uint32, len(grammarDialects))
		for _, d := range grammarDialects {
			rep.Grammars[d.String()] = d.Language().AbiVersion()
		}
	}
	return rep
}

func printVersion(out io.Writer, rep versionReport, color bool) {
	v := rep.Version
	if color && v == version.Version {
		v = version.Colored()
	}
	fmt.Fprintf(out, "earlyret %s (cache schema %d)\n", v, rep.CacheSchema)
	if rep.GitCommit != "" {
		fmt.Fprintf(out, "commit:  %s %s\n", rep.GitCommit, rep.GitMessage)
	}
	if rep.BuildDate != "" {
		fmt.Fprintf(out, "built:   %s\n", rep.BuildDate)
	}
	if rep.Grammars == nil {
		return
	}
	fmt.Fprintf(out, "go:      %s %s\n", rep.GoVersion, rep.Platform)
	for _, d := range grammarDialects {
		fmt.Fprintf(out, "grammar: %-10s abi %d\n", d, rep.Grammars[d.String()])
	}
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
