package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.FileSets = []FileSetConfig{{Dir: "src/main/xsl"}}
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ".", cfg.ProjectDir)
	assert.Equal(t, filepath.Join("target", "xsl"), cfg.OutputDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ".xslprep/logs", cfg.LogDir)
	assert.Equal(t, "jar", cfg.ArchiveExtensions)
	assert.Equal(t, "lf", cfg.LineEnding)
	assert.Equal(t, 1, cfg.MaxConcurrency)
	assert.False(t, cfg.FailFast)
	assert.True(t, cfg.Journal.Enabled)
	assert.False(t, cfg.Journal.Incremental)
	assert.Nil(t, cfg.FileSets)
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", `output_dir: build/xsl
log_level: debug
archive_extensions: jar,zip
libraries:
  - lib/common.jar
  - lib/notes.txt
filesets:
  - dir: src/xsl
  - dir: src/extra
    includes: ["**/*.xslt"]
    excludes: []
post_processors:
  - command: xmllint --format -
    sources: [src/xsl/main.xsl]
compiler:
  command: saxon-compile $XSLPREP_DEST
line_ending: crlf
max_concurrency: 4
fail_fast: true
journal:
  incremental: true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "build/xsl", cfg.OutputDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "jar,zip", cfg.ArchiveExtensions)
	assert.Equal(t, []string{"lib/common.jar", "lib/notes.txt"}, cfg.Libraries)
	require.Len(t, cfg.FileSets, 2)
	assert.Equal(t, "src/xsl", cfg.FileSets[0].Dir)
	assert.Nil(t, cfg.FileSets[0].Includes, "absent includes select the defaults")
	assert.Equal(t, []string{"**/*.xslt"}, cfg.FileSets[1].Includes)
	assert.NotNil(t, cfg.FileSets[1].Excludes, "explicit empty excludes stay empty")
	assert.Empty(t, cfg.FileSets[1].Excludes)
	require.Len(t, cfg.PostProcessors, 1)
	assert.Equal(t, "xmllint --format -", cfg.PostProcessors[0].Command)
	assert.Equal(t, "saxon-compile $XSLPREP_DEST", cfg.Compiler.Command)
	assert.Equal(t, "crlf", cfg.LineEnding)
	assert.Equal(t, 4, cfg.MaxConcurrency)
	assert.True(t, cfg.FailFast)

	// Unset journal keys keep their defaults
	assert.True(t, cfg.Journal.Enabled)
	assert.Equal(t, ".xslprep/journal.db", cfg.Journal.DBPath)
	assert.True(t, cfg.Journal.Incremental)
	assert.Equal(t, ".xslprep/logs", cfg.LogDir)

	require.NoError(t, cfg.Validate())
}

func TestLoadConfigTOML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "xslprep.toml", `output_dir = "out"
max_concurrency = 2

[[filesets]]
dir = "src/xsl"
includes = ["*.xsl"]

[journal]
enabled = false
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, 2, cfg.MaxConcurrency)
	require.Len(t, cfg.FileSets, 1)
	assert.Equal(t, []string{"*.xsl"}, cfg.FileSets[0].Includes)
	assert.False(t, cfg.Journal.Enabled)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigEmptyFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigMalformed(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "broken yaml", file: "config.yaml", content: "filesets: [dir: \n  - :"},
		{name: "unknown yaml key", file: "config.yaml", content: "outptu_dir: x\n"},
		{name: "wrong yaml type", file: "config.yaml", content: "max_concurrency: many\n"},
		{name: "broken toml", file: "config.toml", content: "output_dir = \n"},
		{name: "unknown toml key", file: "config.toml", content: "outptu_dir = \"x\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.file, tt.content)
			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigFromDir(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, DefaultConfigPath, "filesets:\n  - dir: xsl\n")

		cfg, err := LoadConfigFromDir(dir)
		require.NoError(t, err)
		assert.Equal(t, dir, cfg.ProjectDir)
		require.Len(t, cfg.FileSets, 1)
	})

	t.Run("toml fallback", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, ".xslprep/config.toml", "[[filesets]]\ndir = \"xsl\"\n")

		cfg, err := LoadConfigFromDir(dir)
		require.NoError(t, err)
		require.Len(t, cfg.FileSets, 1)
		assert.Equal(t, "xsl", cfg.FileSets[0].Dir)
	})

	t.Run("explicit project dir kept", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, DefaultConfigPath, "project_dir: /srv/project\n")

		cfg, err := LoadConfigFromDir(dir)
		require.NoError(t, err)
		assert.Equal(t, "/srv/project", cfg.ProjectDir)
	})
}

func TestMergeWithFlags(t *testing.T) {
	cfg := validConfig()
	out, level, workers := "dist", "warn", 8
	yes := true

	cfg.MergeWithFlags(Flags{
		OutputDir:      &out,
		LogLevel:       &level,
		MaxConcurrency: &workers,
		FailFast:       &yes,
		Incremental:    &yes,
	})

	assert.Equal(t, "dist", cfg.OutputDir)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 8, cfg.MaxConcurrency)
	assert.True(t, cfg.FailFast)
	assert.True(t, cfg.Journal.Incremental)
	assert.True(t, cfg.Journal.Enabled)
	assert.Equal(t, ".xslprep/logs", cfg.LogDir, "nil flags leave values alone")

	cfg.MergeWithFlags(Flags{NoJournal: &yes})
	assert.False(t, cfg.Journal.Enabled)
}

func TestResolve(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ProjectDir = "/work"

	assert.Equal(t, filepath.Join("/work", "target/xsl"), cfg.Resolve("target/xsl"))
	assert.Equal(t, "/abs/out", cfg.Resolve("/abs/out"))
	assert.Equal(t, "", cfg.Resolve(""))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "valid", mutate: func(*Config) {}, ok: true},
		{name: "missing filesets", mutate: func(c *Config) { c.FileSets = nil }},
		{name: "empty fileset list is allowed", mutate: func(c *Config) { c.FileSets = []FileSetConfig{} }, ok: true},
		{name: "fileset without dir", mutate: func(c *Config) { c.FileSets = []FileSetConfig{{Dir: " "}} }},
		{name: "empty output dir", mutate: func(c *Config) { c.OutputDir = "" }},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }},
		{name: "bad line ending", mutate: func(c *Config) { c.LineEnding = "cr" }},
		{name: "zero concurrency", mutate: func(c *Config) { c.MaxConcurrency = 0 }},
		{name: "post processor without command", mutate: func(c *Config) {
			c.PostProcessors = []PostProcessorConfig{{Sources: []string{"a.xsl"}}}
		}},
		{name: "post processor without sources", mutate: func(c *Config) {
			c.PostProcessors = []PostProcessorConfig{{Command: "cat"}}
		}},
		{name: "journal without db path", mutate: func(c *Config) { c.Journal.DBPath = "" }},
		{name: "incremental without journal", mutate: func(c *Config) {
			c.Journal.Enabled = false
			c.Journal.Incremental = true
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
