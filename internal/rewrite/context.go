package rewrite

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ParentEscape is the segment that climbs one directory.
const ParentEscape = ".."

// ErrEmptyPath is returned for a relative path with no segments.
var ErrEmptyPath = errors.New("relative path has no segments")

// Context carries the per-file values a rewrite depends on.
type Context struct {
	// RelPath is the slash-separated path of the file below its root
	RelPath string
	// Depth is the number of segments in RelPath, at least 1
	Depth int
	// Prefix climbs from the file's directory back to the root
	Prefix string
}

// NewContext computes depth and prefix for a relative file path.
func NewContext(relPath string) (Context, error) {
	rel := filepath.ToSlash(relPath)
	var segments []string
	for _, s := range strings.Split(rel, "/") {
		if s != "" && s != "." {
			segments = append(segments, s)
		}
	}
	if len(segments) == 0 {
		return Context{}, fmt.Errorf("%w: %q", ErrEmptyPath, relPath)
	}

	depth := len(segments)
	escapes := make([]string, depth-1)
	for i := range escapes {
		escapes[i] = ParentEscape
	}

	return Context{
		RelPath: strings.Join(segments, "/"),
		Depth:   depth,
		Prefix:  strings.Join(escapes, "/"),
	}, nil
}

// Resolve joins the prefix and a path inside a library.
func (c Context) Resolve(libraryPath string) string {
	if c.Prefix == "" {
		return libraryPath
	}
	return c.Prefix + "/" + libraryPath
}
