package driver

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"earlyret/internal/cache"
	"earlyret/internal/config"
	"earlyret/internal/diag"
	"earlyret/internal/extract"
	"earlyret/internal/lower"
	"earlyret/internal/observ"
	"earlyret/internal/source"
	"earlyret/internal/syntax"
	"earlyret/internal/trace"
)

// Options configure a lowering run.
type Options struct {
	Settings config.Settings
	// Jobs caps parallel workers; <= 0 uses GOMAXPROCS.
	Jobs   int
	Output OutputMode
	// OutDir is the destination root for OutputDir.
	OutDir string
	// ExtractOnly stops after extraction; Result.Output stays empty.
	ExtractOnly bool
	Sink        ProgressSink
	Cache       *cache.DiskCache
	Timer       *observ.Timer
}

// Result is the outcome for one input.
type Result struct {
	Path     string
	FileID   source.FileID
	Dialect  syntax.Dialect
	Tokens   []extract.Token
	Stats    extract.Stats
	Output   string
	Changed  bool
	CacheHit bool
	Written  string // destination path when the output was written
	Elapsed  time.Duration
	Err      error
}

// Run holds every result of one invocation in input order.
type Run struct {
	Files   *source.FileSet
	Results []Result
}

// Failed counts results with an error.
func (r *Run) Failed() int {
	n := 0
	for i := range r.Results {
		if r.Results[i].Err != nil {
			n++
		}
	}
	return n
}

// Diagnostics collects the per-file errors, sorted by file and position.
func (r *Run) Diagnostics(maxItems int) *diag.Bag {
	bag := diag.NewBag(maxItems)
	for i := range r.Results {
		res := &r.Results[i]
		if res.Err == nil {
			continue
		}
		d := diag.AsDiagnostic(res.Err)
		if !d.HasSpan {
			d.Primary = source.Span{File: res.FileID}
		}
		if d.Message != "" && !d.HasSpan {
			d.Message = res.Path + ": " + d.Message
		}
		bag.Add(d)
	}
	bag.Sort()
	return bag
}

// LowerSource lowers in-memory text, e.g. stdin. name selects the dialect when the
// settings leave it open; nothing is written.
func LowerSource(ctx context.Context, name string, src []byte, opts Options) (*Run, error) {
	files := source.NewFileSet()
	id, err := files.AddDecoded(name, src, source.FileVirtual)
	if err != nil {
		return nil, diag.Errorf(diag.IOReadFailure, "decode %s", name).Wrap(err)
	}
	opts.Output = OutputStdout

	box := newToolbox()
	defer box.Close()

	res := lowerOne(ctx, box, files, id, opts)
	return &Run{Files: files, Results: []Result{res}}, nil
}

// LowerFile lowers a single file from disk.
func LowerFile(ctx context.Context, path string, opts Options) (*Run, error) {
	return LowerPaths(ctx, []string{path}, "", opts)
}

// LowerDir lowers every source file under dir.
func LowerDir(ctx context.Context, dir string, opts Options) (*Run, error) {
	paths, err := opts.Sources(dir)
	if err != nil {
		return nil, diag.Errorf(diag.IOReadFailure, "walk %s", dir).Wrap(err)
	}
	return LowerPaths(ctx, paths, dir, opts)
}

// LowerPaths lowers paths in parallel. Per-file failures land in Result.Err and
// do not stop the other files; the returned error is reserved for cancellation.
func LowerPaths(ctx context.Context, paths []string, base string, opts Options) (*Run, error) {
	opts.Sink = opts.sink()
	ctx, span := trace.StartSpan(ctx, trace.ScopeDriver, "lower")
	defer func() { span.End("") }()

	files := source.NewFileSetWithBase(base)
	run := &Run{Files: files, Results: make([]Result, len(paths))}
	if len(paths) == 0 {
		return run, nil
	}

	// загрузка последовательная: FileSet не допускает параллельных Add
	loadIdx := -1
	if opts.Timer != nil {
		loadIdx = opts.Timer.Begin("load")
	}
	ids := make([]source.FileID, len(paths))
	loadErrs := make([]error, len(paths))
	for i, path := range paths {
		opts.Sink.OnEvent(Event{File: path, Stage: StageRead, Status: StatusQueued})
		id, err := files.Load(path)
		if err != nil {
			loadErrs[i] = diag.Errorf(diag.IOReadFailure, "read %s", path).Wrap(err)
			continue
		}
		ids[i] = id
	}
	if opts.Timer != nil {
		opts.Timer.End(loadIdx, strconv.Itoa(len(paths))+" files")
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	box := newToolbox()
	defer box.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if loadErrs[i] != nil {
				run.Results[i] = Result{Path: path, Err: loadErrs[i]}
				opts.Sink.OnEvent(Event{File: path, Stage: StageRead, Status: StatusError, Err: loadErrs[i]})
				return nil
			}
			res := lowerOne(gctx, box, files, ids[i], opts)
			if res.Err == nil && !opts.ExtractOnly {
				writeOne(&res, files.Get(ids[i]), base, opts)
			}
			if res.Err != nil {
				trace.Mark(trace.WithFile(gctx, res.Path), trace.ScopeFile, "error", failureSpan(res.Err), res.Err.Error())
				opts.Sink.OnEvent(Event{File: path, Stage: StageLower, Status: StatusError, Err: res.Err, Elapsed: res.Elapsed})
			} else {
				opts.Sink.OnEvent(Event{File: path, Stage: StageLower, Status: StatusDone, Sites: res.Stats.Sites, Elapsed: res.Elapsed})
			}
			run.Results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return run, err
	}
	span.WithExtra("files", strconv.Itoa(len(paths))).WithExtra("failed", strconv.Itoa(run.Failed()))
	return run, nil
}

// failureSpan locates err in its file when it is a positioned diagnostic.
func failureSpan(err error) *source.Span {
	var de *diag.Error
	if errors.As(err, &de) && de.HasSpan {
		at := de.Primary
		return &at
	}
	return nil
}

func (o Options) dialectFor(path string) syntax.Dialect {
	if o.Settings.Dialect != 0 {
		return o.Settings.Dialect
	}
	return syntax.DialectForPath(path)
}

// lowerOne runs read → parse → extract → lower for one loaded file.
func lowerOne(ctx context.Context, box *toolbox, files *source.FileSet, id source.FileID, opts Options) (res Result) {
	started := time.Now()
	file := files.Get(id)
	if file == nil {
		return Result{FileID: id, Err: fmt.Errorf("driver: unknown file id %d", id)}
	}
	sink := opts.sink()

	res = Result{Path: file.Path, FileID: id, Dialect: opts.dialectFor(file.Path)}
	// Elapsed заполняется в defer, поэтому результат именованный
	ctx, span := trace.StartFileSpan(ctx, file.Path)
	defer func() {
		res.Elapsed = time.Since(started)
		detail := "ok"
		if res.Err != nil {
			detail = res.Err.Error()
		}
		span.WithExtra("sites", strconv.Itoa(res.Stats.Sites)).
			WithExtra("scopes", strconv.Itoa(res.Stats.Scopes)).
			WithExtra("cache", strconv.FormatBool(res.CacheHit)).
			End(detail)
	}()

	tokens, hit, err := extractTokens(ctx, box, file, res.Dialect, opts)
	if err != nil {
		res.Err = err
		return res
	}
	res.Tokens = tokens
	res.Stats = extract.Count(tokens)
	res.CacheHit = hit
	if trace.FromContext(ctx).Level().ShouldEmit(trace.ScopeToken) {
		for _, tok := range tokens {
			at := tok.Span()
			trace.Mark(ctx, trace.ScopeToken, tok.Kind.String(), &at, tok.String())
		}
	}
	if opts.ExtractOnly {
		return res
	}

	sink.OnEvent(Event{File: file.Path, Stage: StageLower, Status: StatusWorking})
	_, passSpan := trace.StartSpan(ctx, trace.ScopePass, "splice")
	src := string(file.Content)
	out, err := lower.Rewrite(src, tokens, opts.Settings.Lower)
	dur := passSpan.End("")
	if opts.Timer != nil {
		opts.Timer.Add("splice", file.Path, dur)
	}
	if err != nil {
		res.Err = err
		return res
	}
	res.Output = out
	res.Changed = out != src
	return res
}

func extractTokens(ctx context.Context, box *toolbox, file *source.File, d syntax.Dialect, opts Options) ([]extract.Token, bool, error) {
	var key cache.Digest
	if opts.Cache != nil {
		key = cache.Key(d, file.Content)
		tokens, ok, err := opts.Cache.Get(key, d, file.ID)
		if err == nil && ok {
			return tokens, true, nil
		}
	}

	ts, err := box.get(d)
	if err != nil {
		return nil, false, err
	}
	defer box.put(ts)

	sink := opts.sink()

	sink.OnEvent(Event{File: file.Path, Stage: StageParse, Status: StatusWorking})
	_, parseSpan := trace.StartSpan(ctx, trace.ScopePass, "parse")
	tree, err := ts.parser.Parse(file.ID, file.Content)
	dur := parseSpan.End("")
	if opts.Timer != nil {
		opts.Timer.Add("parse", file.Path, dur)
	}
	if err != nil {
		return nil, false, err
	}
	defer tree.Close()

	sink.OnEvent(Event{File: file.Path, Stage: StageExtract, Status: StatusWorking})
	_, extractSpan := trace.StartSpan(ctx, trace.ScopePass, "extract")
	tokens, err := ts.extractor.Extract(tree)
	dur = extractSpan.End("")
	if opts.Timer != nil {
		opts.Timer.Add("extract", file.Path, dur)
	}
	if err != nil {
		return nil, false, err
	}

	if opts.Cache != nil {
		// кэш не критичен: ошибка записи не роняет файл
		_ = opts.Cache.Put(key, d, tokens)
	}
	return tokens, false, nil
}
