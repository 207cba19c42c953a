package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"earlyret/internal/config"
	"earlyret/internal/diagfmt"
	"earlyret/internal/driver"
	"earlyret/internal/syntax"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens [flags] <file|->",
	Short: "Show the rewrite tokens extracted from a source file",
	Long:  `Tokens parses a file and lists every operator site and every function scope that lowering would touch`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTokens,
}

func init() {
	tokensCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	tokensCmd.Flags().String("dialect", "auto", "grammar (auto|javascript|typescript|tsx)")
}

func runTokens(cmd *cobra.Command, args []string) error {
	target := args[0]

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unknown format: %s", format)
	}
	dialect, err := cmd.Flags().GetString("dialect")
	if err != nil {
		return fmt.Errorf("failed to get dialect flag: %w", err)
	}

	settings, err := loadSettings(cmd, target)
	if err != nil {
		return err
	}
	// кэш здесь не нужен: токены печатаются один раз
	if err := settings.Apply(config.Overrides{Dialect: dialect, NoCache: true}); err != nil {
		return err
	}
	opts := driver.Options{Settings: settings, ExtractOnly: true}

	var run *driver.Run
	if target == "-" {
		src, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		if opts.Settings.Dialect == 0 {
			opts.Settings.Dialect = syntax.DialectTypeScript
		}
		run, err = driver.LowerSource(cmd.Context(), "<stdin>", src, opts)
		if err != nil {
			return err
		}
	} else {
		run, err = driver.LowerFile(cmd.Context(), target, opts)
		if err != nil {
			return err
		}
	}

	res := run.Results[0]
	if res.Err != nil {
		diagfmt.Pretty(cmd.ErrOrStderr(), run.Diagnostics(0), run.Files, diagfmt.PrettyOpts{
			Color:   useColor(cmd, os.Stderr),
			Context: 2,
		})
		return fmt.Errorf("tokenization failed: %s", res.Path)
	}

	switch format {
	case "json":
		return diagfmt.FormatTokensJSON(cmd.OutOrStdout(), res.Tokens, run.Files)
	default:
		return diagfmt.FormatTokensPretty(cmd.OutOrStdout(), res.Tokens, run.Files)
	}
}
