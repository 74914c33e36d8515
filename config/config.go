// Package config loads VRS's writer/reader defaults, ported from
// github.com/TheEntropyCollective/noisefs/pkg/infrastructure/config:
// plain JSON-tagged structs, loaded with encoding/json, overridable by
// environment variables, validated before use.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-vrs/vrs/compression"
	"github.com/go-vrs/vrs/filewriter"
	"github.com/go-vrs/vrs/internal/vlog"
)

// Config holds VRS's process-wide defaults, per SPEC_FULL.md §2.4.
type Config struct {
	Writer  WriterConfig  `json:"writer"`
	Reader  ReaderConfig  `json:"reader"`
	Logging LoggingConfig `json:"logging"`
}

// WriterConfig holds filewriter.RecordFileWriter defaults.
type WriterConfig struct {
	// ChunkSize is the target size, in bytes, of each chunk file a
	// multi-chunk spec rolls over to; 0 disables chunking (single file).
	ChunkSize int64 `json:"chunk_size_bytes"`
	// Compression names a compression.Preset by its String() name,
	// e.g. "lz4-fast" or "zstd-medium".
	Compression string `json:"compression"`
	// GraceWindow is filewriter.Options.GraceWindow.
	GraceWindow float64 `json:"grace_window_seconds"`
	// QueueCeiling is the QueueByteSize() a producer should stall
	// writing more records above, per spec.md §4.G's backpressure
	// contract (filewriter itself never blocks; this is the caller-side
	// threshold to enforce that contract against).
	QueueCeiling int `json:"queue_ceiling"`
	// CompressionWorkers is filewriter.Options.CompressionWorkers.
	CompressionWorkers int `json:"compression_workers"`
	// PreallocatedIndexEntries is filewriter.Options.PreallocatedIndexEntries.
	PreallocatedIndexEntries int `json:"preallocated_index_entries"`
}

// ReaderConfig holds filereader.RecordFileReader defaults.
type ReaderConfig struct {
	// AutoReconstructIndex is filereader.ReaderOptions.AutoReconstructIndex.
	AutoReconstructIndex bool `json:"auto_reconstruct_index"`
	// CacheSize is filereader.ReaderOptions.CacheSize.
	CacheSize int `json:"cache_size"`
}

// LoggingConfig configures the package-level internal/vlog.Logger.
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// DefaultConfig returns a Config with sensible defaults, mirroring
// filewriter.DefaultOptions() and filereader's hardcoded lookup-cache
// size so a Config-driven caller and a direct filewriter/filereader
// caller start from the same place.
func DefaultConfig() *Config {
	def := filewriter.DefaultOptions()
	return &Config{
		Writer: WriterConfig{
			ChunkSize:                0,
			Compression:              def.DefaultPreset.String(),
			GraceWindow:              def.GraceWindow,
			QueueCeiling:             4096,
			CompressionWorkers:       def.CompressionWorkers,
			PreallocatedIndexEntries: def.PreallocatedIndexEntries,
		},
		Reader: ReaderConfig{
			AutoReconstructIndex: false,
			CacheSize:            32,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from configPath (if non-empty and the
// file exists), applies environment variable overrides, and validates
// the result, per the teacher's config.LoadConfig.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if err := cfg.loadFromFile(configPath); err != nil {
			return nil, fmt.Errorf("config: loading %s: %w", configPath, err)
		}
	}

	cfg.applyEnvironmentOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, c)
}

// applyEnvironmentOverrides applies VRS_-prefixed environment variable
// overrides, mirroring the teacher's NOISEFS_-prefixed scheme.
func (c *Config) applyEnvironmentOverrides() {
	if v := os.Getenv("VRS_WRITER_CHUNK_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Writer.ChunkSize = n
		}
	}
	if v := os.Getenv("VRS_WRITER_COMPRESSION"); v != "" {
		c.Writer.Compression = v
	}
	if v := os.Getenv("VRS_WRITER_GRACE_WINDOW"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Writer.GraceWindow = f
		}
	}
	if v := os.Getenv("VRS_WRITER_QUEUE_CEILING"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Writer.QueueCeiling = n
		}
	}
	if v := os.Getenv("VRS_WRITER_COMPRESSION_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Writer.CompressionWorkers = n
		}
	}
	if v := os.Getenv("VRS_READER_AUTO_RECONSTRUCT_INDEX"); v != "" {
		c.Reader.AutoReconstructIndex = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("VRS_READER_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Reader.CacheSize = n
		}
	}
	if v := os.Getenv("VRS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("VRS_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
}

// Validate checks that c's fields parse to usable values.
func (c *Config) Validate() error {
	if _, err := compression.ParsePreset(c.Writer.Compression); err != nil {
		return err
	}
	if c.Writer.GraceWindow < 0 {
		return fmt.Errorf("writer grace window must not be negative")
	}
	if c.Writer.QueueCeiling <= 0 {
		return fmt.Errorf("writer queue ceiling must be positive")
	}
	if _, err := vlog.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	if _, err := vlog.ParseFormat(c.Logging.Format); err != nil {
		return err
	}
	return nil
}

// WriterOptions translates c into filewriter.Options.
func (c *Config) WriterOptions() (filewriter.Options, error) {
	preset, err := compression.ParsePreset(c.Writer.Compression)
	if err != nil {
		return filewriter.Options{}, err
	}
	return filewriter.Options{
		DefaultPreset:            preset,
		GraceWindow:              c.Writer.GraceWindow,
		PreallocatedIndexEntries: c.Writer.PreallocatedIndexEntries,
		CompressionWorkers:       c.Writer.CompressionWorkers,
		MaxChunkBytes:            c.Writer.ChunkSize,
	}, nil
}

// ReaderOptions translates c into filereader.ReaderOptions-shaped
// fields (AutoReconstructIndex, CacheSize); returned as plain values
// rather than the filereader type itself to keep this package's import
// graph one-directional (filereader does not import config).
func (c *Config) ReaderOptions() (autoReconstructIndex bool, cacheSize int) {
	return c.Reader.AutoReconstructIndex, c.Reader.CacheSize
}

// Logger builds an internal/vlog.Logger from c.Logging.
func (c *Config) Logger(component string) (*vlog.Logger, error) {
	level, err := vlog.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}
	format, err := vlog.ParseFormat(c.Logging.Format)
	if err != nil {
		return nil, err
	}
	return vlog.New(vlog.Config{Level: level, Format: format, Component: component}), nil
}

// SaveToFile writes c to path as indented JSON, creating its parent
// directory if needed.
func (c *Config) SaveToFile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("config: creating %s: %w", dir, err)
		}
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshaling: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// DefaultConfigPath returns ~/.vrs/config.json.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: getting home directory: %w", err)
	}
	return filepath.Join(homeDir, ".vrs", "config.json"), nil
}
