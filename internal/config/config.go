// Package config holds the settings for one batch run: where the input files
// live, how they are chunked and hashed, and where the report goes.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/kunal-geeks/chunkroot/internal/digest"
	"github.com/kunal-geeks/chunkroot/internal/merkle"
	"github.com/kunal-geeks/chunkroot/internal/report"
)

// ErrInvalidConfiguration is wrapped by every error returned from Validate.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Config is the full run configuration. The zero value is not usable;
// start from Default.
type Config struct {
	ChunkSize    int              `yaml:"chunk_size"`
	InputDir     string           `yaml:"input_dir"`
	ReportPath   string           `yaml:"report_path"`
	ReportFormat report.Format    `yaml:"report_format"`
	Hash         digest.Algorithm `yaml:"hash"`
	Workers      int              `yaml:"workers"`
}

// Default returns the configuration used when no file or flag overrides it.
func Default() Config {
	return Config{
		ChunkSize:    merkle.DefaultChunkSize,
		InputDir:     "files",
		ReportPath:   "output.txt",
		ReportFormat: report.FormatText,
		Hash:         digest.DefaultAlgorithm,
		Workers:      1,
	}
}

// Load reads a YAML file and applies it on top of Default. Keys missing from
// the file keep their default; unknown keys are rejected.
// The result is not validated.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("Load: read: %w", err)
	}
	return Parse(raw)
}

// Parse is Load without the file read.
func Parse(raw []byte) (Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(raw)) == 0 {
		return cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw), yaml.DisallowUnknownField())
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("Parse: yaml: %w", err)
	}
	// Same spelling rules as the -hash flag.
	cfg.Hash = cfg.Hash.Normalize()
	return cfg, nil
}

// Validate checks the configuration before any file is processed.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be > 0, got %d", ErrInvalidConfiguration, c.ChunkSize)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be > 0, got %d", ErrInvalidConfiguration, c.Workers)
	}
	if c.InputDir == "" {
		return fmt.Errorf("%w: input_dir is empty", ErrInvalidConfiguration)
	}
	if c.ReportPath == "" {
		return fmt.Errorf("%w: report_path is empty", ErrInvalidConfiguration)
	}
	if err := c.ReportFormat.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	if err := c.Hash.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	return nil
}
