// Package batch runs a build: it indexes the libraries once, resolves each
// file-set in order and pushes every selected file through rewrite,
// post-processing and the compiler.
package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/harrison/xslprep/internal/compiler"
	"github.com/harrison/xslprep/internal/config"
	"github.com/harrison/xslprep/internal/filelock"
	"github.com/harrison/xslprep/internal/fileset"
	"github.com/harrison/xslprep/internal/journal"
	"github.com/harrison/xslprep/internal/library"
	"github.com/harrison/xslprep/internal/logger"
	"github.com/harrison/xslprep/internal/models"
	"github.com/harrison/xslprep/internal/rewrite"
	"github.com/harrison/xslprep/internal/transform"
)

// Deps are the collaborators a Runner uses. Zero values are replaced with
// silent or direct-writing defaults.
type Deps struct {
	Logger   logger.BuildLogger
	Journal  *journal.Store
	Compiler compiler.Compiler
	// Runner executes post-processor and compiler commands
	Runner transform.CommandRunner
	// Transforms overrides the registry built from post_processors
	Transforms *transform.Registry
}

// Runner executes builds for one configuration.
type Runner struct {
	cfg       *config.Config
	outputDir string
	fileSets  []*fileset.FileSet
	ending    rewrite.LineEnding
	exts      []string
	libraries []string

	log        logger.BuildLogger
	store      *journal.Store
	compiler   compiler.Compiler
	transforms *transform.Registry
}

// New validates cfg and prepares every file-set and post-processor.
// Every problem found here is a *ConfigError.
func New(cfg *config.Config, deps Deps) (*Runner, error) {
	if cfg == nil {
		return nil, &ConfigError{Err: errors.New("no configuration")}
	}
	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Err: err}
	}

	r := &Runner{
		cfg:        cfg,
		outputDir:  cfg.Resolve(cfg.OutputDir),
		exts:       library.ParseExtensions(cfg.ArchiveExtensions),
		log:        deps.Logger,
		store:      deps.Journal,
		compiler:   deps.Compiler,
		transforms: deps.Transforms,
	}
	if r.log == nil {
		r.log = logger.NewNoOpLogger()
	}

	ending, err := rewrite.ParseLineEnding(cfg.LineEnding)
	if err != nil {
		return nil, &ConfigError{Field: "line_ending", Err: err}
	}
	r.ending = ending

	for _, lib := range cfg.Libraries {
		r.libraries = append(r.libraries, cfg.Resolve(lib))
	}

	for i, fsc := range cfg.FileSets {
		fs, err := fileset.New(fsc.Dir, fsc.Includes, fsc.Excludes)
		if err != nil {
			return nil, &ConfigError{Field: fmt.Sprintf("filesets[%d]", i), Err: err}
		}
		r.fileSets = append(r.fileSets, fs)
	}

	if r.transforms == nil {
		r.transforms = transform.NewRegistry()
		for i, pp := range cfg.PostProcessors {
			t, err := transform.NewCommandTransform(pp.Command, deps.Runner)
			if err != nil {
				return nil, &ConfigError{Field: fmt.Sprintf("post_processors[%d]", i), Err: err}
			}
			for _, src := range pp.Sources {
				if err := r.transforms.Register(cfg.Resolve(src), t); err != nil {
					return nil, &ConfigError{Field: fmt.Sprintf("post_processors[%d]", i), Err: err}
				}
			}
		}
	}

	if r.compiler == nil {
		c, err := compiler.New(cfg.Compiler.Command, deps.Runner, r.log)
		if err != nil {
			return nil, &ConfigError{Field: "compiler.command", Err: err}
		}
		r.compiler = c
	}

	return r, nil
}

// FileSets returns the prepared file-sets in configuration order.
func (r *Runner) FileSets() []*fileset.FileSet { return r.fileSets }

// ProjectDir is the fallback root for relative file-set directories.
func (r *Runner) ProjectDir() string { return r.cfg.ProjectDir }

// Libraries indexes the configured library archives.
func (r *Runner) Libraries() *library.Index {
	return library.Build(r.libraries, r.exts, r.log)
}

// Run performs one build. The returned BatchResult is non-nil whenever the
// build started, including when it fails with a *BatchError.
func (r *Runner) Run(ctx context.Context) (*models.BatchResult, error) {
	start := time.Now()

	lock, err := filelock.NewOutputLock(r.outputDir)
	if err != nil {
		return nil, err
	}
	if err := lock.Acquire(); err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			r.log.LogWarn(err.Error())
		}
	}()

	index := r.Libraries()
	pattern := index.Pattern()
	rw := rewrite.New(pattern, r.ending)
	r.log.LogInfo(fmt.Sprintf("Indexed %d libraries, pattern %s", len(index.Markers), pattern))

	result := &models.BatchResult{
		CombinedPattern: pattern.String(),
		Libraries:       len(index.Markers),
		FileSets:        len(r.fileSets),
		Warnings:        len(index.Warnings),
	}

	if r.store != nil {
		id, err := r.store.StartRun(ctx, r.cfg.ProjectDir, r.outputDir, pattern.String())
		if err != nil {
			r.log.LogWarn(fmt.Sprintf("journal disabled for this build: %v", err))
		} else {
			result.RunID = id
		}
	}

	var stopped atomic.Bool
	for _, fs := range r.fileSets {
		if halted(ctx, &stopped) {
			break
		}

		resolved := fs.Resolve(r.cfg.ProjectDir, nil)
		for _, w := range resolved.Warnings {
			r.log.LogWarn(w.Error())
		}
		result.Warnings += len(resolved.Warnings)
		r.log.LogFileSetStart(resolved.BaseDir, len(resolved.Files))

		results := r.processFileSet(ctx, rw, pattern.String(), resolved, result.RunID, &stopped)
		result.Results = append(result.Results, results...)
	}

	result.Duration = time.Since(start)

	failed := result.Count(models.StatusFailed)
	if r.store != nil && result.RunID != "" {
		run := &journal.Run{
			ID:         result.RunID,
			TotalFiles: len(result.Results),
			Succeeded:  result.Count(models.StatusSuccess),
			Failed:     failed,
			Skipped:    result.Count(models.StatusSkipped),
			Success:    failed == 0 && !stopped.Load(),
		}
		if err := r.store.FinishRun(context.WithoutCancel(ctx), run); err != nil {
			r.log.LogWarn(fmt.Sprintf("journal: %v", err))
		}
	}

	r.log.LogSummary(*result)

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("build cancelled: %w", err)
	}
	if failed > 0 {
		return result, &BatchError{Failed: failed, Total: len(result.Results), Stopped: stopped.Load()}
	}
	return result, nil
}

// processFileSet handles the files of one file-set with at most
// max_concurrency files in flight. Results keep the resolved order; files
// skipped because of fail-fast or cancellation are left out.
func (r *Runner) processFileSet(ctx context.Context, rw *rewrite.Rewriter, pattern string,
	resolved fileset.Result, runID string, stopped *atomic.Bool) []models.FileResult {

	results := make([]models.FileResult, len(resolved.Files))
	ran := make([]bool, len(resolved.Files))

	var g errgroup.Group
	g.SetLimit(r.cfg.MaxConcurrency)

	for i, rel := range resolved.Files {
		if halted(ctx, stopped) {
			break
		}
		g.Go(func() error {
			// A failure may have landed while this file waited for a slot.
			if halted(ctx, stopped) {
				return nil
			}
			res := r.processFile(ctx, rw, pattern, resolved.BaseDir, rel)
			results[i] = res
			ran[i] = true
			r.log.LogFileResult(res)
			r.record(ctx, runID, res)
			if res.Status == models.StatusFailed && r.cfg.FailFast {
				stopped.Store(true)
			}
			// Failures travel in the result so the other files still run.
			return nil
		})
	}
	_ = g.Wait()

	out := make([]models.FileResult, 0, len(results))
	for i, res := range results {
		if ran[i] {
			out = append(out, res)
		}
	}
	return out
}

func halted(ctx context.Context, stopped *atomic.Bool) bool {
	if ctx.Err() != nil {
		stopped.Store(true)
	}
	return stopped.Load()
}

func (r *Runner) processFile(ctx context.Context, rw *rewrite.Rewriter, pattern, baseDir, rel string) models.FileResult {
	start := time.Now()
	file := transform.File{
		Source:  filepath.Join(baseDir, filepath.FromSlash(rel)),
		Dest:    filepath.Join(r.outputDir, filepath.FromSlash(rel)),
		RelPath: rel,
	}
	res := models.FileResult{
		FileSetDir: baseDir,
		Source:     file.Source,
		Dest:       file.Dest,
		RelPath:    rel,
		Status:     models.StatusSuccess,
	}
	fail := func(op Op, err error) models.FileResult {
		res.Status = models.StatusFailed
		res.Error = NewFileError(rel, file.Source, op, err)
		res.Duration = time.Since(start)
		return res
	}

	data, err := os.ReadFile(file.Source)
	if err != nil {
		return fail(OpRead, err)
	}
	chain := r.transforms.Lookup(file.Source)
	res.Digest = journal.Digest(data, rel, r.settings(pattern, chain))

	if r.unchanged(ctx, file, res.Digest) {
		res.Status = models.StatusSkipped
		res.Duration = time.Since(start)
		return res
	}

	rctx, err := rewrite.NewContext(rel)
	if err != nil {
		return fail(OpRewrite, err)
	}
	var buf bytes.Buffer
	stats, err := rw.Rewrite(&buf, bytes.NewReader(data), rctx)
	if err != nil {
		return fail(OpRewrite, err)
	}
	res.Lines = stats.Lines
	res.Rewritten = stats.Rewritten

	text, err := chain.Apply(ctx, buf.Bytes(), file)
	if err != nil {
		return fail(OpTransform, err)
	}

	if err := r.compiler.Compile(ctx, text, file); err != nil {
		return fail(OpCompile, err)
	}

	res.Duration = time.Since(start)
	return res
}

// settings describes every build setting that shapes one file's output.
func (r *Runner) settings(pattern string, chain transform.Chain) string {
	parts := []string{pattern, string(r.ending), r.compiler.Name()}
	for _, t := range chain {
		parts = append(parts, t.Name())
	}
	return strings.Join(parts, "\x00")
}

// unchanged reports whether incremental mode may skip the file.
func (r *Runner) unchanged(ctx context.Context, file transform.File, digest string) bool {
	if r.store == nil || !r.cfg.Journal.Incremental {
		return false
	}
	last, err := r.store.LastSuccessDigest(ctx, file.Source)
	if err != nil {
		r.log.LogWarn(fmt.Sprintf("journal: %v", err))
		return false
	}
	if last != digest {
		return false
	}
	_, err = os.Stat(file.Dest)
	return err == nil
}

func (r *Runner) record(ctx context.Context, runID string, res models.FileResult) {
	if r.store == nil || runID == "" {
		return
	}
	rec := &journal.FileRecord{
		RunID:      runID,
		FileSetDir: res.FileSetDir,
		SourcePath: res.Source,
		RelPath:    res.RelPath,
		DestPath:   res.Dest,
		Status:     res.Status,
		Digest:     res.Digest,
		Lines:      res.Lines,
		Rewritten:  res.Rewritten,
		Duration:   res.Duration,
	}
	if res.Error != nil {
		rec.ErrorMessage = res.Error.Error()
	}
	if err := r.store.RecordFile(context.WithoutCancel(ctx), rec); err != nil {
		r.log.LogWarn(fmt.Sprintf("journal: %v", err))
	}
}
