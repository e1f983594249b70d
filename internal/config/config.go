package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/harrison/xslprep/internal/library"
	"github.com/harrison/xslprep/internal/logger"
	"github.com/harrison/xslprep/internal/rewrite"
)

// DefaultConfigPath is relative to the project directory.
const DefaultConfigPath = ".xslprep/config.yaml"

// ErrInvalidConfig marks configuration problems that stop a build before it starts.
var ErrInvalidConfig = errors.New("invalid configuration")

// FileSetConfig names a source directory and its selection rules.
// Nil Includes or Excludes mean the built-in defaults; an empty list is kept as empty.
type FileSetConfig struct {
	Dir      string   `yaml:"dir" toml:"dir"`
	Includes []string `yaml:"includes" toml:"includes"`
	Excludes []string `yaml:"excludes" toml:"excludes"`
}

// PostProcessorConfig runs Command on every listed source file after rewriting.
type PostProcessorConfig struct {
	Command string   `yaml:"command" toml:"command"`
	Sources []string `yaml:"sources" toml:"sources"`
}

// CompilerConfig selects the compiler adapter. An empty Command writes
// rewritten files directly.
type CompilerConfig struct {
	Command string `yaml:"command" toml:"command"`
}

// JournalConfig represents build journal configuration
type JournalConfig struct {
	// Enabled records every build in the journal database
	Enabled bool `yaml:"enabled" toml:"enabled"`

	// DBPath is the path to the journal database
	DBPath string `yaml:"db_path" toml:"db_path"`

	// Incremental skips files whose content digest matches the last successful build
	Incremental bool `yaml:"incremental" toml:"incremental"`
}

// Config represents xslprep configuration options
type Config struct {
	// ProjectDir is the fallback root for relative file-set directories
	ProjectDir string `yaml:"project_dir" toml:"project_dir"`

	// OutputDir receives rewritten files at their source-relative paths
	OutputDir string `yaml:"output_dir" toml:"output_dir"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level" toml:"log_level"`

	// LogDir is the directory where run logs will be written
	LogDir string `yaml:"log_dir" toml:"log_dir"`

	// ArchiveExtensions is the comma-separated library extension allow-list
	ArchiveExtensions string `yaml:"archive_extensions" toml:"archive_extensions"`

	// Libraries lists candidate library archives
	Libraries []string `yaml:"libraries" toml:"libraries"`

	// FileSets are processed in order
	FileSets []FileSetConfig `yaml:"filesets" toml:"filesets"`

	PostProcessors []PostProcessorConfig `yaml:"post_processors" toml:"post_processors"`

	Compiler CompilerConfig `yaml:"compiler" toml:"compiler"`

	// LineEnding is "lf" or "crlf"
	LineEnding string `yaml:"line_ending" toml:"line_ending"`

	// MaxConcurrency bounds parallel files within one file-set
	MaxConcurrency int `yaml:"max_concurrency" toml:"max_concurrency"`

	// FailFast stops scheduling files after the first failure
	FailFast bool `yaml:"fail_fast" toml:"fail_fast"`

	Journal JournalConfig `yaml:"journal" toml:"journal"`
}

// DefaultConfig returns a Config with sensible default values.
// FileSets is left nil: a build needs at least one configured file-set.
func DefaultConfig() *Config {
	return &Config{
		ProjectDir:        ".",
		OutputDir:         filepath.Join("target", "xsl"),
		LogLevel:          "info",
		LogDir:            logger.DefaultLogDir,
		ArchiveExtensions: library.DefaultExtensions,
		LineEnding:        "lf",
		MaxConcurrency:    1,
		Journal: JournalConfig{
			Enabled: true,
			DBPath:  ".xslprep/journal.db",
		},
	}
}

// LoadConfig loads configuration from the specified file path.
// A missing file yields the defaults; a malformed file is an error.
// Files ending in .toml are decoded as TOML, anything else as YAML.
// Keys absent from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		return cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// LoadConfigFromDir loads .xslprep/config.yaml in dir, falling back to
// .xslprep/config.toml when only that exists. ProjectDir defaults to dir.
func LoadConfigFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, DefaultConfigPath)
	tomlPath := strings.TrimSuffix(path, ".yaml") + ".toml"
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if _, err := os.Stat(tomlPath); err == nil {
			path = tomlPath
		}
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if cfg.ProjectDir == "." {
		cfg.ProjectDir = dir
	}
	return cfg, nil
}

// Flags carries CLI overrides. Nil fields leave the configuration unchanged.
type Flags struct {
	OutputDir      *string
	LogLevel       *string
	LogDir         *string
	MaxConcurrency *int
	FailFast       *bool
	Incremental    *bool
	NoJournal      *bool
}

// MergeWithFlags merges CLI flags into the configuration.
// CLI flags take precedence over config file settings.
func (c *Config) MergeWithFlags(f Flags) {
	if f.OutputDir != nil {
		c.OutputDir = *f.OutputDir
	}
	if f.LogLevel != nil {
		c.LogLevel = *f.LogLevel
	}
	if f.LogDir != nil {
		c.LogDir = *f.LogDir
	}
	if f.MaxConcurrency != nil {
		c.MaxConcurrency = *f.MaxConcurrency
	}
	if f.FailFast != nil {
		c.FailFast = *f.FailFast
	}
	if f.Incremental != nil {
		c.Journal.Incremental = *f.Incremental
	}
	if f.NoJournal != nil && *f.NoJournal {
		c.Journal.Enabled = false
	}
}

// Resolve returns p unchanged when absolute, otherwise joined to ProjectDir.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.ProjectDir, p)
}

// Validate validates the configuration values.
// Every returned error wraps ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.FileSets == nil {
		return fmt.Errorf("%w: filesets must be configured", ErrInvalidConfig)
	}
	for i, fs := range c.FileSets {
		if strings.TrimSpace(fs.Dir) == "" {
			return fmt.Errorf("%w: filesets[%d].dir cannot be empty", ErrInvalidConfig, i)
		}
	}

	if c.OutputDir == "" {
		return fmt.Errorf("%w: output_dir cannot be empty", ErrInvalidConfig)
	}

	if !logger.ValidLevel(c.LogLevel) {
		return fmt.Errorf("%w: invalid log_level %q, must be one of: %s",
			ErrInvalidConfig, c.LogLevel, strings.Join(logger.Levels, ", "))
	}

	if _, err := rewrite.ParseLineEnding(c.LineEnding); err != nil {
		return fmt.Errorf("%w: line_ending: %v", ErrInvalidConfig, err)
	}

	if c.MaxConcurrency < 1 {
		return fmt.Errorf("%w: max_concurrency must be >= 1, got %d", ErrInvalidConfig, c.MaxConcurrency)
	}

	for i, pp := range c.PostProcessors {
		if strings.TrimSpace(pp.Command) == "" {
			return fmt.Errorf("%w: post_processors[%d].command cannot be empty", ErrInvalidConfig, i)
		}
		if len(pp.Sources) == 0 {
			return fmt.Errorf("%w: post_processors[%d].sources cannot be empty", ErrInvalidConfig, i)
		}
	}

	if c.Journal.Enabled && c.Journal.DBPath == "" {
		return fmt.Errorf("%w: journal.db_path cannot be empty when the journal is enabled", ErrInvalidConfig)
	}
	if c.Journal.Incremental && !c.Journal.Enabled {
		return fmt.Errorf("%w: journal.incremental requires the journal to be enabled", ErrInvalidConfig)
	}

	return nil
}
