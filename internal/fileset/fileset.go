// Package fileset selects the transform modules that take part in a build.
//
// A FileSet names a base directory and ordered include and exclude patterns.
// Its file list is computed once, on first use, and then frozen.
package fileset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/harrison/xslprep/internal/fileutil"
	"github.com/harrison/xslprep/internal/glob"
)

// ErrMissingList is returned when a build is configured without any file-set list.
var ErrMissingList = errors.New("file-set list is missing")

var defaultIncludes = []string{"*.xsl", "**/*.xsl"}

var defaultExcludes = []string{
	"**/*~", "**/#*#", "**/.#*", "**/%*%", "**/._*",
	// CVS
	"**/CVS", "**/CVS/**", "/.cvsignore",
	// SCCS
	"/SCCS", "/SCCS/**",
	// Visual SourceSafe
	"/vssver.scc",
	// Subversion
	"/.svn", "/.svn/**",
	// Git
	"/.git", "/.git/**", "/.gitattributes", "/.gitignore", "/.gitmodules",
	// Mercurial
	"/.hg", "/.hg/**", "/.hgignore", "/.hgsub", "/.hgsubstate", "/.hgtags",
	// Bazaar
	"/.bzr", "/.bzr/**", "/.bzrignore",
	// macOS
	"/.DS_Store",
}

// DefaultIncludes returns the include patterns used when none are configured.
func DefaultIncludes() []string { return slices.Clone(defaultIncludes) }

// DefaultExcludes returns the exclude patterns used when none are configured.
func DefaultExcludes() []string { return slices.Clone(defaultExcludes) }

// ScanListener observes a resolution. Every callback is optional.
type ScanListener struct {
	DirectoryEntered func(relDir string)
	FileAccepted     func(relPath string)
	FileRejected     func(relPath string)
}

// Result is the frozen outcome of resolving a FileSet.
type Result struct {
	// BaseDir is the effective directory the relative paths are based on
	BaseDir string
	// Files holds slash-separated paths relative to BaseDir
	Files []string
	// Warnings holds non-fatal problems met while scanning
	Warnings []error
}

// FileSet is a base directory plus include and exclude rules.
type FileSet struct {
	dir      string
	includes []string
	excludes []string

	include   []glob.Matcher
	exclude   []glob.Matcher
	recursive bool

	once   sync.Once
	result Result
}

// New builds a FileSet and compiles its patterns. A nil includes or excludes
// slice selects the defaults; an empty non-nil slice is kept as empty.
func New(dir string, includes, excludes []string) (*FileSet, error) {
	if includes == nil {
		includes = DefaultIncludes()
	}
	if excludes == nil {
		excludes = DefaultExcludes()
	}

	inc, err := glob.CompileAll(includes)
	if err != nil {
		return nil, fmt.Errorf("file-set %q includes: %w", dir, err)
	}
	exc, err := glob.CompileAll(excludes)
	if err != nil {
		return nil, fmt.Errorf("file-set %q excludes: %w", dir, err)
	}

	fs := &FileSet{
		dir:      dir,
		includes: slices.Clone(includes),
		excludes: slices.Clone(excludes),
		include:  inc,
		exclude:  exc,
	}
	for _, p := range includes {
		if glob.IsRecursive(p) {
			fs.recursive = true
			break
		}
	}
	return fs, nil
}

// Dir returns the configured directory.
func (fs *FileSet) Dir() string { return fs.dir }

// Includes returns a copy of the include patterns.
func (fs *FileSet) Includes() []string { return slices.Clone(fs.includes) }

// Excludes returns a copy of the exclude patterns.
func (fs *FileSet) Excludes() []string { return slices.Clone(fs.excludes) }

// Recursive reports whether resolution descends into subdirectories.
func (fs *FileSet) Recursive() bool { return fs.recursive }

// EffectiveDir returns dir if it is an existing directory, otherwise dir
// resolved against fallbackRoot.
func (fs *FileSet) EffectiveDir(fallbackRoot string) string {
	if info, err := os.Stat(fs.dir); err == nil && info.IsDir() {
		return fs.dir
	}
	if filepath.IsAbs(fs.dir) || fallbackRoot == "" {
		return fs.dir
	}
	return filepath.Join(fallbackRoot, fs.dir)
}

// Resolve returns the selected files. Only the first call scans; later calls
// return the same result regardless of their arguments, and the listener is
// only notified during that first scan. Resolve is safe for concurrent use.
func (fs *FileSet) Resolve(fallbackRoot string, listener *ScanListener) Result {
	fs.once.Do(func() {
		fs.result = fs.scan(fallbackRoot, listener)
	})
	return Result{
		BaseDir:  fs.result.BaseDir,
		Files:    slices.Clone(fs.result.Files),
		Warnings: slices.Clone(fs.result.Warnings),
	}
}

func (fs *FileSet) scan(fallbackRoot string, listener *ScanListener) Result {
	base := fs.EffectiveDir(fallbackRoot)
	if abs, err := filepath.Abs(base); err == nil {
		base = abs
	}

	opts := fileutil.WalkOptions{
		Include:   fs.include,
		Exclude:   fs.exclude,
		Recursive: fs.recursive,
	}
	if listener != nil {
		opts.OnDirectory = listener.DirectoryEntered
		opts.OnFile = func(rel string, accepted bool) {
			switch {
			case accepted && listener.FileAccepted != nil:
				listener.FileAccepted(rel)
			case !accepted && listener.FileRejected != nil:
				listener.FileRejected(rel)
			}
		}
	}

	scanned, err := fileutil.Walk(base, opts)
	if err != nil {
		return Result{
			BaseDir:  base,
			Files:    []string{},
			Warnings: []error{fmt.Errorf("file-set %q: %w", fs.dir, err)},
		}
	}
	return Result{BaseDir: base, Files: scanned.Files, Warnings: scanned.Errors}
}

// String renders the FileSet for log lines.
func (fs *FileSet) String() string {
	return fmt.Sprintf("[dir=%s, includes=[%s], excludes=[%s]]",
		fs.dir, strings.Join(fs.includes, ", "), strings.Join(fs.excludes, ", "))
}
