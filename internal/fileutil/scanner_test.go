package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/xslprep/internal/glob"
)

func writeTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("<xsl/>\n"), 0644))
	}
	return root
}

func mustCompile(t *testing.T, patterns ...string) []glob.Matcher {
	t.Helper()
	ms, err := glob.CompileAll(patterns)
	require.NoError(t, err)
	return ms
}

func TestWalk(t *testing.T) {
	root := writeTree(t,
		"top.xsl",
		"top.txt",
		"a/one.xsl",
		"a/b/two.xsl",
		"a/b/skip.xsl",
		".hidden/three.xsl",
	)

	tests := []struct {
		name     string
		opts     WalkOptions
		want     []string
		rejected int
	}{
		{
			name: "top level only",
			opts: WalkOptions{Include: mustCompile(t, "*.xsl")},
			want: []string{"top.xsl"},
			// top.txt
			rejected: 1,
		},
		{
			name: "recursive picks up nested and hidden directories",
			opts: WalkOptions{
				Include:   mustCompile(t, "*.xsl", "**/*.xsl"),
				Recursive: true,
			},
			want:     []string{".hidden/three.xsl", "a/b/skip.xsl", "a/b/two.xsl", "a/one.xsl", "top.xsl"},
			rejected: 1,
		},
		{
			name: "exclude wins over include",
			opts: WalkOptions{
				Include:   mustCompile(t, "**/*.xsl"),
				Exclude:   mustCompile(t, "**/skip.xsl", "**/.hidden/**", ".hidden/**"),
				Recursive: true,
			},
			want:     []string{"a/b/two.xsl", "a/one.xsl"},
			rejected: 4,
		},
		{
			name:     "no includes selects nothing",
			opts:     WalkOptions{Recursive: true},
			want:     []string{},
			rejected: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Walk(root, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Files)
			assert.Equal(t, tt.rejected, result.Rejected)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestWalkCallbacks(t *testing.T) {
	root := writeTree(t, "x.xsl", "d/y.xsl", "d/z.txt")

	var dirs []string
	decisions := make(map[string]bool)
	_, err := Walk(root, WalkOptions{
		Include:     mustCompile(t, "**.xsl"),
		Recursive:   true,
		OnDirectory: func(rel string) { dirs = append(dirs, rel) },
		OnFile:      func(rel string, ok bool) { decisions[rel] = ok },
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"", "d"}, dirs)
	assert.Equal(t, map[string]bool{"x.xsl": true, "d/y.xsl": true, "d/z.txt": false}, decisions)
}

func TestWalkNonRecursiveDoesNotEnterSubdirectories(t *testing.T) {
	root := writeTree(t, "x.xsl", "d/y.xsl")

	var dirs []string
	result, err := Walk(root, WalkOptions{
		Include:     mustCompile(t, "**"),
		OnDirectory: func(rel string) { dirs = append(dirs, rel) },
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"x.xsl"}, result.Files)
	assert.Equal(t, []string{""}, dirs)
}

func TestWalkRootErrors(t *testing.T) {
	root := writeTree(t, "file.xsl")

	_, err := Walk(filepath.Join(root, "missing"), WalkOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = Walk(filepath.Join(root, "file.xsl"), WalkOptions{})
	require.ErrorIs(t, err, ErrNotDirectory)
}

func TestWalkUnreadableSubdirectory(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	root := writeTree(t, "ok.xsl", "locked/hidden.xsl")
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0755) })

	result, err := Walk(root, WalkOptions{Include: mustCompile(t, "**.xsl"), Recursive: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"ok.xsl"}, result.Files)
	assert.Len(t, result.Errors, 1)
}

func TestWalkSymlinkedFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges")
	}
	root := writeTree(t, "real.xsl")
	require.NoError(t, os.Symlink(filepath.Join(root, "real.xsl"), filepath.Join(root, "link.xsl")))
	require.NoError(t, os.Symlink(filepath.Join(root, "gone.xsl"), filepath.Join(root, "dangling.xsl")))

	result, err := Walk(root, WalkOptions{Include: mustCompile(t, "*.xsl")})
	require.NoError(t, err)
	assert.Equal(t, []string{"link.xsl", "real.xsl"}, result.Files)
	assert.Len(t, result.Errors, 1)
}

func TestAccept(t *testing.T) {
	inc := mustCompile(t, "*.xsl")
	exc := mustCompile(t, "bad.xsl")
	assert.True(t, Accept("good.xsl", inc, exc))
	assert.False(t, Accept("bad.xsl", inc, exc))
	assert.False(t, Accept("good.xml", inc, exc))
}
