// Package rewrite turns library references inside transform modules into
// paths relative to the output tree.
//
// Rewriting works on text lines, never on a parsed document: every byte
// outside a rewritten reference is copied unchanged, and each input line
// produces exactly one output line.
package rewrite

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// LibraryDelimiter separates a library marker from the path inside the library.
const LibraryDelimiter = ":/"

// MarkerPattern locates library markers in a line.
type MarkerPattern interface {
	// Empty reports that no marker can ever match.
	Empty() bool
	// FindAllIndex returns the offsets of every marker occurrence.
	FindAllIndex(line string) [][]int
}

// LineEnding is the terminator written after every output line.
type LineEnding string

const (
	LF   LineEnding = "\n"
	CRLF LineEnding = "\r\n"
)

// ParseLineEnding maps a configuration value to a LineEnding.
func ParseLineEnding(name string) (LineEnding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "lf":
		return LF, nil
	case "crlf":
		return CRLF, nil
	default:
		return "", fmt.Errorf("unknown line ending %q (want lf or crlf)", name)
	}
}

// Stats describes one rewrite.
type Stats struct {
	Lines       int
	Rewritten   int
	Evaluations int
}

// Rewriter rewrites files against one marker pattern. It holds no per-file
// state and is safe for concurrent use.
type Rewriter struct {
	pattern MarkerPattern
	ending  LineEnding
}

// New creates a Rewriter. An empty ending means LF.
func New(pattern MarkerPattern, ending LineEnding) *Rewriter {
	if ending == "" {
		ending = LF
	}
	return &Rewriter{pattern: pattern, ending: ending}
}

// Rewrite copies src to dst line by line, rewriting library references for
// a file located by ctx.
func (r *Rewriter) Rewrite(dst io.Writer, src io.Reader, ctx Context) (Stats, error) {
	var stats Stats
	in := bufio.NewReader(src)
	out := bufio.NewWriter(dst)
	fast := r.pattern == nil || r.pattern.Empty()

	for {
		line, readErr := in.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return stats, fmt.Errorf("read line %d: %w", stats.Lines+1, readErr)
		}
		if line == "" && readErr != nil {
			break
		}

		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")
		stats.Lines++

		if !fast {
			rewritten, changed := r.rewriteLine(line, ctx)
			stats.Evaluations++
			if changed {
				stats.Rewritten++
				line = rewritten
			}
		}

		if _, err := out.WriteString(line); err != nil {
			return stats, fmt.Errorf("write line %d: %w", stats.Lines, err)
		}
		if _, err := out.WriteString(string(r.ending)); err != nil {
			return stats, fmt.Errorf("write line %d: %w", stats.Lines, err)
		}

		if readErr != nil {
			break
		}
	}

	if err := out.Flush(); err != nil {
		return stats, fmt.Errorf("flush output: %w", err)
	}
	return stats, nil
}

// RewriteString is Rewrite over in-memory text.
func (r *Rewriter) RewriteString(text string, ctx Context) (string, Stats, error) {
	var sb strings.Builder
	stats, err := r.Rewrite(&sb, strings.NewReader(text), ctx)
	return sb.String(), stats, err
}

// RewriteLine rewrites one line without its terminator.
func (r *Rewriter) RewriteLine(line string, ctx Context) (string, bool) {
	if r.pattern == nil || r.pattern.Empty() {
		return line, false
	}
	return r.rewriteLine(line, ctx)
}

func (r *Rewriter) rewriteLine(line string, ctx Context) (string, bool) {
	matches := r.pattern.FindAllIndex(line)
	if len(matches) == 0 {
		return line, false
	}

	var sb strings.Builder
	sb.Grow(len(line))
	sb.WriteString(line[:matches[0][0]])

	changed := false
	for i, m := range matches {
		end := len(line)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		span := line[m[0]:end]
		rewritten, ok := rewriteSpan(span, ctx)
		if ok {
			changed = true
		}
		sb.WriteString(rewritten)
	}

	if !changed {
		return line, false
	}
	return sb.String(), true
}

// rewriteSpan rewrites the library reference that opens span. The path inside
// the library follows the first delimiter in span and runs to the end of the
// first absolute URI; text after the URI is kept. A marker need not be a valid
// URI scheme on its own, so the URI match may start inside the marker.
func rewriteSpan(span string, ctx Context) (string, bool) {
	loc := FindURI(span)
	if loc == nil {
		return span, false
	}
	d := strings.Index(span, LibraryDelimiter)
	if d < 0 || d+len(LibraryDelimiter) > loc[1] {
		return span, false
	}
	libraryPath := span[d+len(LibraryDelimiter) : loc[1]]
	return ctx.Resolve(libraryPath) + span[loc[1]:], true
}
