package library

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	debug []string
	warn  []string
}

func (l *recordingLogger) LogDebug(m string) { l.debug = append(l.debug, m) }
func (l *recordingLogger) LogWarn(m string)  { l.warn = append(l.warn, m) }

func writeArchive(t *testing.T, dir, name string, entries ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.Create(e)
		require.NoError(t, err)
		_, err = w.Write([]byte("<project/>"))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return path
}

func TestParseDescriptor(t *testing.T) {
	tests := []struct {
		entry    string
		group    string
		artifact string
		ok       bool
	}{
		{"META-INF/maven/top.marchand/xslLib/pom.xml", "top.marchand", "xslLib", true},
		{"META-INF/maven/g/a/pom.properties", "", "", false},
		{"META-INF/maven/g/pom.xml", "", "", false},
		{"META-INF/maven/g/a/b/pom.xml", "", "", false},
		{"META-INF/maven//a/pom.xml", "", "", false},
		{"pom.xml", "", "", false},
		{"other/maven/g/a/pom.xml", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.entry, func(t *testing.T) {
			g, a, ok := ParseDescriptor(tt.entry)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.group, g)
			assert.Equal(t, tt.artifact, a)
		})
	}
}

func TestParseExtensions(t *testing.T) {
	assert.Equal(t, []string{"jar"}, ParseExtensions(""))
	assert.Equal(t, []string{"jar"}, ParseExtensions(" , "))
	assert.Equal(t, []string{"jar", "zip"}, ParseExtensions("JAR, .zip,"))
}

func TestIsArchive(t *testing.T) {
	exts := []string{"jar"}
	assert.True(t, IsArchive("/repo/lib.jar", exts))
	assert.True(t, IsArchive("/repo/LIB.JAR", exts))
	assert.False(t, IsArchive("/repo/lib.jar.sha1", exts))
	assert.False(t, IsArchive("/repo/classes", exts))
	assert.False(t, IsArchive("/repo/notajar", exts))
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	withPom := writeArchive(t, dir, "xsl-lib.jar",
		"META-INF/MANIFEST.MF",
		"META-INF/maven/top.marchand.xml/xsl-lib/pom.xml",
		"xsl/lib.xsl",
	)
	second := writeArchive(t, dir, "Other.JAR", "META-INF/maven/org.example/other/pom.xml")
	noPom := writeArchive(t, dir, "plain.jar", "META-INF/MANIFEST.MF", "a/b.xsl")
	missing := filepath.Join(dir, "missing.jar")
	classes := filepath.Join(dir, "classes")

	log := &recordingLogger{}
	ix := Build([]string{withPom, noPom, missing, classes, second}, ParseExtensions("jar"), log)

	require.Len(t, ix.Markers, 2)
	assert.Equal(t, Marker{Archive: withPom, Group: "top.marchand.xml", Artifact: "xsl-lib"}, ix.Markers[0])
	assert.Equal(t, "other:", ix.Markers[1].Token())
	assert.Equal(t, []string{classes}, ix.Ignored)

	require.Len(t, ix.Warnings, 1)
	assert.Equal(t, missing, ix.Warnings[0].Archive)
	assert.True(t, errors.Is(ix.Warnings[0], os.ErrNotExist))
	require.Len(t, log.warn, 1)
	assert.Contains(t, log.warn[0], "missing.jar")

	assert.Equal(t, `(xsl-lib:|other:)`, ix.Pattern().String())
	assert.False(t, ix.Pattern().Empty())
}

func TestBuildArchiveWithoutDescriptor(t *testing.T) {
	dir := t.TempDir()
	path := writeArchive(t, dir, "plain.jar", "x.txt")

	ix := Build([]string{path}, nil, nil)
	assert.Empty(t, ix.Markers)
	assert.Empty(t, ix.Warnings)
	assert.Equal(t, EmptyPattern, ix.Pattern().String())
	assert.True(t, ix.Pattern().Empty())
}

func TestBuildMissingArchiveOnly(t *testing.T) {
	ix := Build([]string{filepath.Join(t.TempDir(), "gone.jar")}, nil, nil)
	assert.Empty(t, ix.Markers)
	assert.Len(t, ix.Warnings, 1)
	assert.True(t, ix.Pattern().Empty())
}

func TestBuildCorruptArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jar")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0644))

	ix := Build([]string{path}, nil, nil)
	require.Len(t, ix.Warnings, 1)
	assert.Contains(t, ix.Warnings[0].Error(), "failed to open archive")
}

func TestReadMarkerFirstDescriptorIsStable(t *testing.T) {
	dir := t.TempDir()
	path := writeArchive(t, dir, "shaded.jar",
		"META-INF/maven/g/zeta/pom.xml",
		"META-INF/maven/g/alpha/pom.xml",
	)

	log := &recordingLogger{}
	for i := 0; i < 3; i++ {
		m, ok, err := ReadMarker(path, log)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "zeta", m.Artifact)
	}
	assert.True(t, strings.Contains(strings.Join(log.debug, "\n"), "alpha/pom.xml"))
}

func TestPattern(t *testing.T) {
	p := NewPattern([]string{"a.b:", "c:", "a.b:", ""})
	assert.Equal(t, `(a\.b:|c:)`, p.String())

	assert.Equal(t, [][]int{{4, 8}, {12, 14}}, p.FindAllIndex("see a.b: or c:"))
	assert.Nil(t, p.FindAllIndex("axb: is not a marker"))

	empty := NewPattern(nil)
	assert.True(t, empty.Empty())
	assert.Nil(t, empty.FindAllIndex("c:"))
}
