package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"earlyret/internal/config"
	"earlyret/internal/diagfmt"
	"earlyret/internal/driver"
	"earlyret/internal/observ"
	"earlyret/internal/syntax"
)

var lowerCmd = &cobra.Command{
	Use:   "lower [flags] [file|dir|-]",
	Short: "Rewrite .$ operators into plain JavaScript",
	Long: `Lower reads a file, every source file below a directory, or stdin ("-" or no
argument) and prints the rewritten text. Use --write to update files in place or
--out to mirror the inputs into another directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLower,
}

func init() {
	lowerCmd.Flags().BoolP("write", "w", false, "rewrite changed files in place")
	lowerCmd.Flags().StringP("out", "o", "", "write every lowered file below this directory")
	lowerCmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	lowerCmd.Flags().String("ui", "auto", "progress UI for directories (auto|on|off)")
	lowerCmd.Flags().Bool("no-cache", false, "do not read or write the token cache")
	lowerCmd.Flags().String("value-check", "", "success test as kind:value, e.g. property:isOk")
	lowerCmd.Flags().String("unwrap", "", "value extraction as kind:value, e.g. method:unwrap")
	lowerCmd.Flags().Bool("mangle", false, "append a random suffix to the support identifiers")
	lowerCmd.Flags().String("dialect", "auto", "grammar (auto|javascript|typescript|tsx)")
	lowerCmd.Flags().String("diagnostics", "pretty", "diagnostics format on stderr (pretty|json)")
	lowerCmd.Flags().String("paths", "auto", "paths in diagnostics (auto|absolute|relative|basename)")
}

type lowerFlags struct {
	write    bool
	outDir   string
	jobs     int
	ui       uiMode
	maxDiags int
	timings  bool
	diagJSON bool
	paths    diagfmt.PathMode
}

func readLowerFlags(cmd *cobra.Command) (lowerFlags, config.Overrides, error) {
	var lf lowerFlags
	var ov config.Overrides
	var err error

	if lf.write, err = cmd.Flags().GetBool("write"); err != nil {
		return lf, ov, fmt.Errorf("failed to get write flag: %w", err)
	}
	if lf.outDir, err = cmd.Flags().GetString("out"); err != nil {
		return lf, ov, fmt.Errorf("failed to get out flag: %w", err)
	}
	if lf.write && lf.outDir != "" {
		return lf, ov, errors.New("--write and --out cannot be used together")
	}
	if lf.jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
		return lf, ov, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return lf, ov, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if lf.ui, err = readUIMode(uiValue); err != nil {
		return lf, ov, err
	}
	diagFormat, err := cmd.Flags().GetString("diagnostics")
	if err != nil {
		return lf, ov, fmt.Errorf("failed to get diagnostics flag: %w", err)
	}
	switch diagFormat {
	case "pretty":
	case "json":
		lf.diagJSON = true
	default:
		return lf, ov, fmt.Errorf("unsupported diagnostics format %q (must be pretty or json)", diagFormat)
	}
	paths, err := cmd.Flags().GetString("paths")
	if err != nil {
		return lf, ov, fmt.Errorf("failed to get paths flag: %w", err)
	}
	var ok bool
	if lf.paths, ok = diagfmt.ParsePathMode(paths); !ok {
		return lf, ov, fmt.Errorf("invalid --paths value %q (expected auto|absolute|relative|basename)", paths)
	}
	if lf.maxDiags, err = cmd.Root().PersistentFlags().GetInt("max-diagnostics"); err != nil {
		return lf, ov, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if lf.timings, err = cmd.Root().PersistentFlags().GetBool("timings"); err != nil {
		return lf, ov, fmt.Errorf("failed to get timings flag: %w", err)
	}

	if ov.NoCache, err = cmd.Flags().GetBool("no-cache"); err != nil {
		return lf, ov, fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	if ov.ValueCheck, err = cmd.Flags().GetString("value-check"); err != nil {
		return lf, ov, fmt.Errorf("failed to get value-check flag: %w", err)
	}
	if ov.Unwrap, err = cmd.Flags().GetString("unwrap"); err != nil {
		return lf, ov, fmt.Errorf("failed to get unwrap flag: %w", err)
	}
	if ov.Dialect, err = cmd.Flags().GetString("dialect"); err != nil {
		return lf, ov, fmt.Errorf("failed to get dialect flag: %w", err)
	}
	// только явно заданный --mangle перекрывает файл
	if cmd.Flags().Changed("mangle") {
		mangle, err := cmd.Flags().GetBool("mangle")
		if err != nil {
			return lf, ov, fmt.Errorf("failed to get mangle flag: %w", err)
		}
		ov.Mangle = &mangle
	}
	return lf, ov, nil
}

func runLower(cmd *cobra.Command, args []string) error {
	target := "-"
	if len(args) == 1 {
		target = args[0]
	}

	lf, ov, err := readLowerFlags(cmd)
	if err != nil {
		return err
	}
	settings, err := loadSettings(cmd, target)
	if err != nil {
		return err
	}
	if err := settings.Apply(ov); err != nil {
		return err
	}

	opts := driver.Options{
		Settings: settings,
		Jobs:     lf.jobs,
		Output:   driver.OutputStdout,
		Cache:    openCache(cmd, settings),
	}
	switch {
	case lf.write:
		opts.Output = driver.OutputInPlace
	case lf.outDir != "":
		opts.Output = driver.OutputDir
		opts.OutDir = lf.outDir
	}
	if lf.timings {
		opts.Timer = observ.NewTimer()
	}

	ctx := cmd.Context()
	var run *driver.Run
	if target == "-" {
		if opts.Output != driver.OutputStdout {
			return errors.New("--write and --out need a file or directory argument")
		}
		run, err = lowerStdin(ctx, cmd.InOrStdin(), opts)
	} else {
		run, err = lowerTarget(ctx, target, lf, opts)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.Output == driver.OutputStdout {
		if err := printOutputs(out, run); err != nil {
			return err
		}
	} else if !quiet(cmd) {
		printSummary(cmd.ErrOrStderr(), run)
	}

	if lf.timings && opts.Timer != nil {
		fmt.Fprint(cmd.ErrOrStderr(), opts.Timer.Summary())
	}

	if failed := run.Failed(); failed > 0 {
		bag := run.Diagnostics(lf.maxDiags)
		if lf.diagJSON {
			if err := diagfmt.JSON(cmd.ErrOrStderr(), bag, run.Files, diagfmt.JSONOpts{
				IncludePositions: true,
				IncludeNotes:     true,
				PathMode:         lf.paths,
			}); err != nil {
				return err
			}
		} else {
			diagfmt.Pretty(cmd.ErrOrStderr(), bag, run.Files, diagfmt.PrettyOpts{
				Color:     useColor(cmd, os.Stderr),
				Context:   1,
				PathMode:  lf.paths,
				ShowNotes: true,
			})
		}
		dumpTraceRing(cmd, cmd.ErrOrStderr(), run)
		return fmt.Errorf("%d of %d file(s) failed", failed, len(run.Results))
	}
	return nil
}

func lowerStdin(ctx context.Context, in io.Reader, opts driver.Options) (*driver.Run, error) {
	src, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	if opts.Settings.Dialect == 0 {
		opts.Settings.Dialect = syntax.DialectTypeScript
	}
	return driver.LowerSource(ctx, "<stdin>", src, opts)
}

func lowerTarget(ctx context.Context, target string, lf lowerFlags, opts driver.Options) (*driver.Run, error) {
	st, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", target, err)
	}
	if !st.IsDir() {
		return driver.LowerFile(ctx, target, opts)
	}

	// TUI не совместим с печатью результатов в stdout
	if opts.Output != driver.OutputStdout && lf.ui.wantsTUI(os.Stdout) {
		files, err := opts.Sources(target)
		if err != nil {
			return nil, err
		}
		return runLowerWithUI(ctx, "lowering "+target, files, target, opts)
	}
	return driver.LowerDir(ctx, target, opts)
}

// printOutputs writes lowered text; several files are separated by a path banner.
func printOutputs(w io.Writer, run *driver.Run) error {
	multi := len(run.Results) > 1
	for i := range run.Results {
		res := &run.Results[i]
		if res.Err != nil {
			continue
		}
		if multi {
			if _, err := fmt.Fprintf(w, "// ==> %s <==\n", res.Path); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, res.Output); err != nil {
			return err
		}
		if multi && len(res.Output) > 0 && res.Output[len(res.Output)-1] != '\n' {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
	}
	return nil
}

func printSummary(w io.Writer, run *driver.Run) {
	var changed, written, hits int
	for i := range run.Results {
		res := &run.Results[i]
		if res.Changed {
			changed++
		}
		if res.Written != "" {
			written++
		}
		if res.CacheHit {
			hits++
		}
	}
	fmt.Fprintf(w, "lowered %d file(s): %d changed, %d written, %d failed", len(run.Results), changed, written, run.Failed())
	if hits > 0 {
		fmt.Fprintf(w, ", %d from cache", hits)
	}
	fmt.Fprintln(w)
}
