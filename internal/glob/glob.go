// Package glob compiles path patterns into predicates over slash-separated
// relative paths.
//
// A pattern may carry a syntax tag. "glob:" (the default when no tag is
// present) uses segment-aware glob syntax: "*" and "?" never cross "/",
// "**" does, and "[...]", "[!...]" and "{a,b}" are supported. "regex:" takes
// a regular expression that must match the whole relative path.
//
// Matching is case-sensitive. Compilation errors are returned immediately so
// that a malformed pattern is reported as a configuration problem instead of
// surfacing halfway through a directory scan.
package glob

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dlclark/regexp2"
	gobwas "github.com/gobwas/glob"
)

// Separator is the only path separator understood by compiled matchers.
const Separator = '/'

// Syntax tags recognized in front of a pattern.
const (
	SyntaxGlob  = "glob:"
	SyntaxRegex = "regex:"
)

// ErrInvalidPattern indicates a pattern that cannot be compiled.
var ErrInvalidPattern = errors.New("invalid pattern")

// Matcher is a compiled path predicate.
type Matcher interface {
	// Match reports whether the slash-separated relative path matches.
	Match(relPath string) bool
	// Pattern returns the source pattern, including its syntax tag if any.
	Pattern() string
}

type globMatcher struct {
	source string
	g      gobwas.Glob
}

func (m *globMatcher) Match(relPath string) bool { return m.g.Match(relPath) }
func (m *globMatcher) Pattern() string           { return m.source }

type regexMatcher struct {
	source string
	re     *regexp2.Regexp
}

func (m *regexMatcher) Match(relPath string) bool {
	ok, err := m.re.MatchString(relPath)
	return err == nil && ok
}

func (m *regexMatcher) Pattern() string { return m.source }

// Compile compiles one pattern into a Matcher.
func Compile(pattern string) (Matcher, error) {
	syntax, body := splitSyntax(pattern)
	if body == "" {
		return nil, fmt.Errorf("%w: empty pattern %q", ErrInvalidPattern, pattern)
	}

	switch syntax {
	case SyntaxRegex:
		// \A and \z so that a trailing newline in a file name is never ignored.
		re, err := regexp2.Compile(`\A(?:`+body+`)\z`, regexp2.None)
		if err != nil {
			return nil, fmt.Errorf("%w: compile regex %q: %v", ErrInvalidPattern, pattern, err)
		}
		return &regexMatcher{source: pattern, re: re}, nil
	default:
		g, err := gobwas.Compile(body, Separator)
		if err != nil {
			return nil, fmt.Errorf("%w: compile glob %q: %v", ErrInvalidPattern, pattern, err)
		}
		return &globMatcher{source: pattern, g: g}, nil
	}
}

// CompileAll compiles patterns in order and stops at the first failure.
func CompileAll(patterns []string) ([]Matcher, error) {
	matchers := make([]Matcher, 0, len(patterns))
	for _, p := range patterns {
		m, err := Compile(p)
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, m)
	}
	return matchers, nil
}

// MatchAny reports whether at least one matcher accepts relPath.
func MatchAny(matchers []Matcher, relPath string) bool {
	for _, m := range matchers {
		if m.Match(relPath) {
			return true
		}
	}
	return false
}

// IsRecursive reports whether an include pattern can select files below the
// top-level directory: it contains the recursive wildcard or names more than
// one path segment. Regular expressions cannot be inspected and always count
// as recursive.
func IsRecursive(pattern string) bool {
	syntax, body := splitSyntax(pattern)
	if syntax == SyntaxRegex {
		return true
	}
	if strings.Contains(body, "**") {
		return true
	}
	return strings.Contains(strings.TrimPrefix(body, "/"), "/")
}

// ToRelative converts an OS-specific relative path into matcher form.
func ToRelative(path string) string {
	return filepath.ToSlash(path)
}

func splitSyntax(pattern string) (string, string) {
	if body, ok := strings.CutPrefix(pattern, SyntaxRegex); ok {
		return SyntaxRegex, body
	}
	if body, ok := strings.CutPrefix(pattern, SyntaxGlob); ok {
		return SyntaxGlob, body
	}
	return SyntaxGlob, pattern
}
