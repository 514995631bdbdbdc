package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/splitcheck/splitcheck/internal/stats"
	"gopkg.in/yaml.v3"
)

// Config is the splitcheck configuration file
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis"`
	Dataset  DatasetConfig  `yaml:"dataset"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

type AnalysisConfig struct {
	Simulations           int     `yaml:"simulations"`
	Seed                  uint64  `yaml:"seed"`
	SignificanceThreshold float64 `yaml:"significance_threshold"`
	ControlLabel          string  `yaml:"control_label"`
	TreatmentLabel        string  `yaml:"treatment_label"`
	Workers               int     `yaml:"workers"`
	Tail                  string  `yaml:"tail"`
	HistogramBins         int     `yaml:"histogram_bins"`
}

type DatasetConfig struct {
	Path  string `yaml:"path"`
	Table string `yaml:"table"`
}

type ServerConfig struct {
	Port           int    `yaml:"port"`
	Token          string `yaml:"token"`
	MaxSimulations int    `yaml:"max_simulations"`
	// MaxTrials caps simulations times the visitors of both groups per request.
	MaxTrials int64 `yaml:"max_trials"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Simulations:           stats.DefaultSimulations,
			Seed:                  stats.DefaultSeed,
			SignificanceThreshold: stats.DefaultSignificanceThreshold,
			ControlLabel:          stats.DefaultControlLabel,
			TreatmentLabel:        stats.DefaultTreatmentLabel,
			Workers:               1,
			Tail:                  stats.TailInclusive.String(),
			HistogramBins:         stats.DefaultHistogramBins,
		},
		Dataset: DatasetConfig{
			Path:  "ab_data.csv",
			Table: "visitors",
		},
		Server: ServerConfig{
			Port:           8080,
			MaxSimulations: 1000000,
			MaxTrials:      10000000000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies SC_*
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	var err error
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" && err == nil {
			*dst, err = strconv.Atoi(v)
			if err != nil {
				err = fmt.Errorf("invalid %s: %w", key, err)
			}
		}
	}

	setString("SC_DATASET", &c.Dataset.Path)
	setString("SC_TABLE", &c.Dataset.Table)
	setString("SC_CONTROL_LABEL", &c.Analysis.ControlLabel)
	setString("SC_TREATMENT_LABEL", &c.Analysis.TreatmentLabel)
	setString("SC_TAIL", &c.Analysis.Tail)
	setString("SC_TOKEN", &c.Server.Token)
	setString("SC_LOG_LEVEL", &c.Log.Level)
	setString("SC_LOG_FILE", &c.Log.File)
	setInt("SC_SIMULATIONS", &c.Analysis.Simulations)
	setInt("SC_WORKERS", &c.Analysis.Workers)
	setInt("SC_PORT", &c.Server.Port)

	if v := os.Getenv("SC_SEED"); v != "" && err == nil {
		c.Analysis.Seed, err = strconv.ParseUint(v, 10, 64)
		if err != nil {
			err = fmt.Errorf("invalid SC_SEED: %w", err)
		}
	}
	if v := os.Getenv("SC_MAX_TRIALS"); v != "" && err == nil {
		c.Server.MaxTrials, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			err = fmt.Errorf("invalid SC_MAX_TRIALS: %w", err)
		}
	}
	if v := os.Getenv("SC_SIGNIFICANCE_THRESHOLD"); v != "" && err == nil {
		c.Analysis.SignificanceThreshold, err = strconv.ParseFloat(v, 64)
		if err != nil {
			err = fmt.Errorf("invalid SC_SIGNIFICANCE_THRESHOLD: %w", err)
		}
	}

	return err
}

// Validate rejects values the analysis would refuse later anyway, so that a
// bad file fails at startup.
func (c *Config) Validate() error {
	if c.Analysis.Simulations <= 0 {
		return fmt.Errorf("analysis.simulations must be positive, got %d", c.Analysis.Simulations)
	}
	if err := stats.ValidateThreshold(c.Analysis.SignificanceThreshold); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	if c.Analysis.ControlLabel == "" || c.Analysis.TreatmentLabel == "" {
		return fmt.Errorf("analysis.control_label and analysis.treatment_label are required")
	}
	if c.Analysis.ControlLabel == c.Analysis.TreatmentLabel {
		return fmt.Errorf("analysis.control_label and analysis.treatment_label must differ")
	}
	if c.Analysis.Workers < 0 {
		return fmt.Errorf("analysis.workers must not be negative, got %d", c.Analysis.Workers)
	}
	if _, err := stats.ParseTail(c.Analysis.Tail); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.MaxSimulations <= 0 {
		return fmt.Errorf("server.max_simulations must be positive, got %d", c.Server.MaxSimulations)
	}
	if c.Server.MaxTrials <= 0 {
		return fmt.Errorf("server.max_trials must be positive, got %d", c.Server.MaxTrials)
	}
	return nil
}

// Options converts the analysis section for stats.Analyze.
func (c *Config) Options() stats.Options {
	// Validate has already accepted the tail rule
	tail, _ := stats.ParseTail(c.Analysis.Tail)

	return stats.Options{
		ControlLabel:   c.Analysis.ControlLabel,
		TreatmentLabel: c.Analysis.TreatmentLabel,
		Simulations:    c.Analysis.Simulations,
		Seed:           c.Analysis.Seed,
		Threshold:      c.Analysis.SignificanceThreshold,
		Workers:        c.Analysis.Workers,
		Tail:           tail,
		HistogramBins:  c.Analysis.HistogramBins,
	}
}
