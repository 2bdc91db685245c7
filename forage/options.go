package forage

import (
	"os"

	"github.com/rs/zerolog"
)

// DefaultMaxRecords caps how many records are loaded from a single file
// or archive member when no explicit cap is configured.
const DefaultMaxRecords = 1000

// DefaultBasePaths returns the competition input layout used when no
// base paths are configured. Tests and library callers should pass their
// own mapping instead.
func DefaultBasePaths() map[string]string {
	return map[string]string{
		"test_labeled":   "/kaggle/input/test-labeled/v1/",
		"test_unlabeled": "/kaggle/input/test-unlabeled/v1/",
		"train_data":     "/kaggle/input/train-data/train/",
	}
}

// Config holds the resolved configuration shared by all pipeline stages.
type Config struct {
	// BasePaths maps dataset name to its root directory.
	// Default: DefaultBasePaths().
	BasePaths map[string]string

	// MaxRecords caps records loaded per file or archive member.
	// Zero or negative means unlimited. Default: DefaultMaxRecords.
	MaxRecords int

	// Dataset restricts analysis to one dataset. Empty analyzes all.
	Dataset string

	// ArchiveSchema, when set, lets ZIP member records contribute to
	// DataSchema. Off by default: historically only standalone files
	// informed the schema while archive members were still counted and
	// sampled, and downstream consumers depend on that output shape.
	ArchiveSchema bool

	// Logger receives discovery, load, and analysis events.
	Logger zerolog.Logger
}

// Option overrides one Config field.
type Option func(*Config)

// WithMaxRecords sets the per-file record cap. Zero or negative disables
// the cap.
func WithMaxRecords(n int) Option {
	return func(c *Config) { c.MaxRecords = n }
}

// WithDataset restricts analysis to the named dataset.
func WithDataset(name string) Option {
	return func(c *Config) { c.Dataset = name }
}

// WithArchiveSchema toggles schema capture for ZIP member records.
func WithArchiveSchema(on bool) Option {
	return func(c *Config) { c.ArchiveSchema = on }
}

// WithLogger sets the logger used by all stages.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

func defaultConfig() Config {
	return Config{
		BasePaths:  DefaultBasePaths(),
		MaxRecords: DefaultMaxRecords,
		Logger:     zerolog.New(os.Stderr).With().Timestamp().Logger(),
	}
}

func resolveConfig(opts []Option) Config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
