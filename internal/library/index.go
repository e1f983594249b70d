// Package library discovers packaged libraries and the markers that identify
// references to them inside transform modules.
//
// Every library archive carries a Maven descriptor at
// META-INF/maven/<group>/<artifact>/pom.xml. The artifact id followed by ":"
// is the marker; all markers are alternated into a single Pattern that is
// built once per batch and shared read-only afterwards.
package library

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/klauspost/compress/zip"
)

// DefaultExtensions is the archive extension allow-list used when none is configured.
const DefaultExtensions = "jar"

// Descriptor layout inside an archive.
const (
	DescriptorPrefix = "META-INF/maven/"
	DescriptorName   = "pom.xml"
)

// MarkerSeparator terminates every marker token.
const MarkerSeparator = ":"

// Logger receives index diagnostics. A nil Logger is silent.
type Logger interface {
	LogDebug(message string)
	LogWarn(message string)
}

// Marker identifies one library.
type Marker struct {
	Archive  string
	Group    string
	Artifact string
}

// Token returns the text that marks a reference to this library.
func (m Marker) Token() string {
	return m.Artifact + MarkerSeparator
}

// Warning is a non-fatal archive access problem. The archive contributes no marker.
type Warning struct {
	Archive string
	Err     error
}

func (w Warning) Error() string {
	return fmt.Sprintf("library %s skipped: %v", w.Archive, w.Err)
}

func (w Warning) Unwrap() error { return w.Err }

// Index is the immutable outcome of scanning candidate archives.
type Index struct {
	// Markers in discovery order, one per archive that has a descriptor
	Markers []Marker
	// Warnings for archives that were missing or unreadable
	Warnings []Warning
	// Ignored lists candidates whose extension is not on the allow-list
	Ignored []string

	pattern *Pattern
}

// Pattern returns the combined marker pattern.
func (ix *Index) Pattern() *Pattern { return ix.pattern }

// ParseExtensions splits a comma-delimited allow-list. Blank entries and
// leading dots are dropped, and an empty list falls back to DefaultExtensions.
func ParseExtensions(list string) []string {
	var exts []string
	for _, e := range strings.Split(list, ",") {
		e = strings.TrimPrefix(strings.TrimSpace(e), ".")
		if e != "" {
			exts = append(exts, strings.ToLower(e))
		}
	}
	if len(exts) == 0 {
		return []string{DefaultExtensions}
	}
	return exts
}

// IsArchive reports whether path ends in one of exts, ignoring case.
func IsArchive(path string, exts []string) bool {
	lower := strings.ToLower(path)
	for _, e := range exts {
		if strings.HasSuffix(lower, "."+strings.ToLower(e)) {
			return true
		}
	}
	return false
}

// Build scans candidates and returns the index. It never fails: missing or
// unreadable archives are reported as warnings.
func Build(candidates []string, exts []string, log Logger) *Index {
	if len(exts) == 0 {
		exts = []string{DefaultExtensions}
	}

	ix := &Index{}
	for _, path := range candidates {
		if !IsArchive(path, exts) {
			ix.Ignored = append(ix.Ignored, path)
			debugf(log, "library candidate %s is not an archive", path)
			continue
		}

		m, ok, err := ReadMarker(path, log)
		if err != nil {
			w := Warning{Archive: path, Err: err}
			ix.Warnings = append(ix.Warnings, w)
			if log != nil {
				log.LogWarn(w.Error())
			}
			continue
		}
		if !ok {
			debugf(log, "library %s has no descriptor", path)
			continue
		}
		debugf(log, "library %s provides marker %q", path, m.Token())
		ix.Markers = append(ix.Markers, m)
	}

	tokens := make([]string, 0, len(ix.Markers))
	for _, m := range ix.Markers {
		tokens = append(tokens, m.Token())
	}
	ix.pattern = NewPattern(tokens)
	return ix
}

// ReadMarker opens one archive and extracts its marker from the first
// descriptor entry in central-directory order. ok is false when the archive
// has no descriptor.
func ReadMarker(path string, log Logger) (m Marker, ok bool, err error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Marker{}, false, fmt.Errorf("archive does not exist: %w", err)
		}
		return Marker{}, false, err
	}

	r, err := zip.OpenReader(path)
	if err != nil {
		return Marker{}, false, fmt.Errorf("failed to open archive: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		group, artifact, match := ParseDescriptor(f.Name)
		if !match {
			continue
		}
		if ok {
			debugf(log, "library %s: ignoring extra descriptor %s", path, f.Name)
			continue
		}
		m = Marker{Archive: path, Group: group, Artifact: artifact}
		ok = true
	}
	return m, ok, nil
}

// ParseDescriptor splits an archive entry name of the form
// META-INF/maven/<group>/<artifact>/pom.xml.
func ParseDescriptor(entry string) (group, artifact string, ok bool) {
	rest, found := strings.CutPrefix(entry, DescriptorPrefix)
	if !found {
		return "", "", false
	}
	rest, found = strings.CutSuffix(rest, "/"+DescriptorName)
	if !found {
		return "", "", false
	}
	group, artifact, found = strings.Cut(rest, "/")
	if !found || group == "" || artifact == "" || strings.Contains(artifact, "/") {
		return "", "", false
	}
	return group, artifact, true
}

func debugf(log Logger, format string, args ...any) {
	if log != nil {
		log.LogDebug(fmt.Sprintf(format, args...))
	}
}
