package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv  = "NEWS_AGGREGATOR_CONFIG"
	workersEnv     = "NEWS_AGGREGATOR_WORKERS"
	outputDirEnv   = "NEWS_AGGREGATOR_OUTPUT_DIR"
	logLevelEnv    = "NEWS_AGGREGATOR_LOG_LEVEL"
	databaseDSNEnv = "DATABASE_DSN"
)

// Sink kinds accepted by output.sink.
const (
	SinkFile     = "file"
	SinkSQLite   = "sqlite"
	SinkPostgres = "postgres"
)

// Configuration validation errors.
var (
	ErrInvalidWorkers   = errors.New("workers must be at least 1")
	ErrMissingArticles  = errors.New("input.articles is required")
	ErrMissingInputs    = errors.New("input.inputs is required")
	ErrInvalidSink      = errors.New("output.sink must be one of: file, sqlite, postgres")
	ErrMissingDSN       = errors.New("output.dsn is required for sql sinks")
	ErrInvalidLogLevel  = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrMissingOutputDir = errors.New("output.dir is required for the file sink")
)

// Config holds high-level settings required across the application.
type Config struct {
	Workers int           `yaml:"workers"`
	Strict  bool          `yaml:"strict"`
	Input   InputConfig   `yaml:"input"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// InputConfig points at the list files describing a run.
type InputConfig struct {
	// Articles lists the batch files, one per line after a count header.
	Articles string `yaml:"articles"`
	// Inputs lists the languages, categories and excluded-words files.
	Inputs    string `yaml:"inputs"`
	StripHTML bool   `yaml:"strip_html"`
}

// OutputConfig selects where reports go.
type OutputConfig struct {
	Sink string `yaml:"sink"`
	Dir  string `yaml:"dir"`
	DSN  string `yaml:"dsn"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration from path (or NEWS_AGGREGATOR_CONFIG when path is
// empty) over the defaults, then applies environment overrides. The result is not
// validated so callers can apply command-line overrides first.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg = mergeConfig(cfg, fileCfg)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return ErrInvalidWorkers
	}
	if c.Input.Articles == "" {
		return ErrMissingArticles
	}
	if c.Input.Inputs == "" {
		return ErrMissingInputs
	}

	switch c.Output.Sink {
	case SinkFile:
		if c.Output.Dir == "" {
			return ErrMissingOutputDir
		}
	case SinkSQLite, SinkPostgres:
		if c.Output.DSN == "" {
			return ErrMissingDSN
		}
	default:
		return ErrInvalidSink
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(workersEnv); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", workersEnv, err)
		}
		c.Workers = n
	}

	if v := os.Getenv(outputDirEnv); v != "" {
		c.Output.Dir = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Output.DSN = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	return nil
}

func mergeConfig(base, override Config) Config {
	if override.Workers != 0 {
		base.Workers = override.Workers
	}
	if override.Strict {
		base.Strict = true
	}

	if override.Input.Articles != "" {
		base.Input.Articles = override.Input.Articles
	}
	if override.Input.Inputs != "" {
		base.Input.Inputs = override.Input.Inputs
	}
	if override.Input.StripHTML {
		base.Input.StripHTML = true
	}

	if override.Output.Sink != "" {
		base.Output.Sink = override.Output.Sink
	}
	if override.Output.Dir != "" {
		base.Output.Dir = override.Output.Dir
	}
	if override.Output.DSN != "" {
		base.Output.DSN = override.Output.DSN
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Workers: runtime.NumCPU(),
		Output:  OutputConfig{Sink: SinkFile, Dir: "."},
		Logging: LoggingConfig{Level: "info"},
	}
}
