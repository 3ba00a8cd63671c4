package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"mobility-synth/models"
)

// ErrInvalidConfig is returned by Validate for out-of-range settings.
var ErrInvalidConfig = errors.New("invalid config")

// ─── Generation ─────────────────────────────────────────────────────────

type GenerationConfig struct {
	Identities         int     `yaml:"identities"`
	SamplesPerIdentity int     `yaml:"samples_per_identity"`
	CenterLat          float64 `yaml:"center_lat"`
	CenterLon          float64 `yaml:"center_lon"`
	RadiusMeters       float64 `yaml:"radius_m"`
	Start              string  `yaml:"start"`
	End                string  `yaml:"end"`
	TimeFormat         string  `yaml:"time_format"` // strftime pattern or Go layout
	Location           string  `yaml:"location"`    // IANA zone, "Local" or "UTC"
	Seed               *int64  `yaml:"seed"`        // unset means a fresh seed per run
	Workers            int     `yaml:"workers"`
}

// ─── Storage ────────────────────────────────────────────────────────────

// CSVStorageConfig controls the dataset file. The header row is always written.
type CSVStorageConfig struct {
	FileName     string `yaml:"file_name"`
	BufferSizeKB int    `yaml:"buffer_size_kb"`
}

type PostgresStorageConfig struct {
	URL         string `yaml:"url"` // empty disables the sink
	Table       string `yaml:"table"`
	CreateTable bool   `yaml:"create_table"`
}

type S3StorageConfig struct {
	Bucket string `yaml:"bucket"` // empty disables the sink
	Region string `yaml:"region"`
	Prefix string `yaml:"prefix"`
}

type StorageConfig struct {
	BaseDir       string                `yaml:"base_dir"`
	SessionPrefix string                `yaml:"session_prefix"`
	Overwrite     bool                  `yaml:"overwrite"`
	CSV           CSVStorageConfig      `yaml:"csv"`
	Postgres      PostgresStorageConfig `yaml:"postgres"`
	S3            S3StorageConfig       `yaml:"s3"`
}

// GeneratorConfig is the top-level structure for generator.yaml.
type GeneratorConfig struct {
	Generation GenerationConfig    `yaml:"generation"`
	Channels   models.ChannelTable `yaml:"channels"`
	Storage    StorageConfig       `yaml:"storage"`
	Logger     LoggerConfig        `yaml:"logger"`
}

// DefaultGeneratorConfig returns the built-in run: 300 identities with 10000
// samples each inside 20 km of central Berlin, 9–23 March 2020.
func DefaultGeneratorConfig() *GeneratorConfig {
	return &GeneratorConfig{
		Generation: GenerationConfig{
			Identities:         300,
			SamplesPerIdentity: 10000,
			CenterLat:          52.520659,
			CenterLon:          13.411305,
			RadiusMeters:       20000,
			Start:              "09/03/2020 12:00:00",
			End:                "23/03/2020 12:00:00",
			TimeFormat:         DefaultTimeFormat,
			Location:           "Local",
			Workers:            runtime.NumCPU(),
		},
		Channels: models.DefaultChannelTable(),
		Storage: StorageConfig{
			BaseDir:       "output",
			SessionPrefix: "berlin",
			CSV: CSVStorageConfig{
				FileName:     "berlin_data.csv",
				BufferSizeKB: 256,
			},
			Postgres: PostgresStorageConfig{
				Table:       "mobility_traces",
				CreateTable: true,
			},
			S3: S3StorageConfig{
				Region: "us-east-1",
				Prefix: "datasets/",
			},
		},
		Logger: LoggerConfig{
			Level:       "info",
			Format:      "console",
			ServiceName: "mobility-synth",
			MaxSizeMB:   50,
			MaxBackups:  3,
			MaxAgeDays:  28,
		},
	}
}

// ─── Loaders ────────────────────────────────────────────────────────────

// LoadGeneratorConfig reads generator.yaml over the defaults. Keys absent
// from the file keep their default value; a missing file yields the defaults.
func LoadGeneratorConfig(path string) (*GeneratorConfig, error) {
	cfg := DefaultGeneratorConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read generator config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse generator config: %w", err)
	}
	return cfg, nil
}

// Validate rejects settings the generator cannot run with.
func (c *GeneratorConfig) Validate() error {
	g := c.Generation
	switch {
	case g.Identities < 0:
		return fmt.Errorf("%w: identities must be >= 0, got %d", ErrInvalidConfig, g.Identities)
	case g.SamplesPerIdentity < 0:
		return fmt.Errorf("%w: samples_per_identity must be >= 0, got %d", ErrInvalidConfig, g.SamplesPerIdentity)
	case g.RadiusMeters < 0:
		return fmt.Errorf("%w: radius_m must be >= 0, got %v", ErrInvalidConfig, g.RadiusMeters)
	case g.Workers < 1:
		return fmt.Errorf("%w: workers must be >= 1, got %d", ErrInvalidConfig, g.Workers)
	case c.Storage.CSV.FileName == "":
		return fmt.Errorf("%w: storage.csv.file_name is empty", ErrInvalidConfig)
	}
	if err := c.Channels.Validate(); err != nil {
		return fmt.Errorf("%w: channels: %v", ErrInvalidConfig, err)
	}
	return nil
}

// MarshalChannelTable renders a channel table as a generator.yaml fragment
// that LoadGeneratorConfig accepts.
func MarshalChannelTable(table models.ChannelTable) ([]byte, error) {
	data, err := yaml.Marshal(struct {
		Channels models.ChannelTable `yaml:"channels"`
	}{table})
	if err != nil {
		return nil, fmt.Errorf("encode channel table: %w", err)
	}
	return data, nil
}

// WriteChannelTable saves MarshalChannelTable's output to path.
func WriteChannelTable(path string, table models.ChannelTable) error {
	data, err := MarshalChannelTable(table)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write channel table: %w", err)
	}
	return nil
}
