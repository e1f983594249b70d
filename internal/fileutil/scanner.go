package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/harrison/xslprep/internal/glob"
)

// ErrNotDirectory is returned when the walk root exists but is not a directory.
var ErrNotDirectory = errors.New("path is not a directory")

// WalkOptions configures a directory walk
type WalkOptions struct {
	// Include matchers; a file must match at least one
	Include []glob.Matcher
	// Exclude matchers; a file matching any of them is rejected
	Exclude []glob.Matcher
	// Recursive enables descent into subdirectories
	Recursive bool
	// OnDirectory is called for every directory entered, including the root ("")
	OnDirectory func(relDir string)
	// OnFile is called once per regular file with the selection decision
	OnFile func(relPath string, accepted bool)
}

// ScanResult contains the results of a directory walk
type ScanResult struct {
	// Files contains the slash-separated relative paths of accepted files
	Files []string
	// Rejected counts regular files that did not pass the selection rule
	Rejected int
	// Errors contains non-fatal errors encountered during the walk
	Errors []error
}

// Accept applies the selection rule to one relative path.
func Accept(relPath string, include, exclude []glob.Matcher) bool {
	return glob.MatchAny(include, relPath) && !glob.MatchAny(exclude, relPath)
}

// Walk scans dir and classifies every regular file found with opts.
func Walk(dir string, opts WalkOptions) (*ScanResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	result := &ScanResult{
		Files:  make([]string, 0),
		Errors: make([]error, 0),
	}

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("error accessing %s: %w", path, err))
			if d != nil && d.IsDir() && path != dir {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			result.Errors = append(result.Errors, fmt.Errorf("failed to relativize %s: %w", path, relErr))
			return nil
		}
		rel = glob.ToRelative(rel)

		if d.IsDir() {
			if path == dir {
				notifyDir(opts, "")
				return nil
			}
			if !opts.Recursive {
				return filepath.SkipDir
			}
			notifyDir(opts, rel)
			return nil
		}

		regular, statErr := isRegular(path, d)
		if statErr != nil {
			result.Errors = append(result.Errors, fmt.Errorf("error accessing %s: %w", path, statErr))
			return nil
		}
		if !regular {
			return nil
		}

		accepted := Accept(rel, opts.Include, opts.Exclude)
		if opts.OnFile != nil {
			opts.OnFile(rel, accepted)
		}
		if accepted {
			result.Files = append(result.Files, rel)
		} else {
			result.Rejected++
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	sort.Strings(result.Files)

	return result, nil
}

func notifyDir(opts WalkOptions, rel string) {
	if opts.OnDirectory != nil {
		opts.OnDirectory(rel)
	}
}

// isRegular follows symlinks for files only; WalkDir never descends through a
// directory symlink and neither do we.
func isRegular(path string, d fs.DirEntry) (bool, error) {
	if d.Type().IsRegular() {
		return true, nil
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}
