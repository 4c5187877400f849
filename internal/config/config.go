// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"shardalign/internal/toolcmd"
)

// Config is the file-level configuration shared by blastplus and bowtie.
// Command-line flags that were set explicitly override it.
type Config struct {
	CPUs         int           `yaml:"cpus"`
	Workdir      string        `yaml:"workdir"`
	ShardTimeout time.Duration `yaml:"shard_timeout"`
	MetricsFile  string        `yaml:"metrics_file"`
	TraceFile    string        `yaml:"trace_file"`

	Log    LogConfig    `yaml:"log"`
	Blast  BlastConfig  `yaml:"blast"`
	Bowtie BowtieConfig `yaml:"bowtie"`
	Grid   GridConfig   `yaml:"grid"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // auto | text | json
}

type BlastConfig struct {
	Path    string  `yaml:"path"`
	Program string  `yaml:"program"`
	Format  string  `yaml:"format"`
	EValue  float64 `yaml:"evalue"`
	Best    int     `yaml:"best"`
	Extra   string  `yaml:"extra"`
}

type BowtieConfig struct {
	Extra string `yaml:"extra"`
}

// GridConfig describes the cluster submit command, e.g.
//
//	grid:
//	  submit: [qsub, -cwd, -b, y]
//	  stdout_flag: -o
//	  stderr_flag: -e
type GridConfig struct {
	Submit     []string `yaml:"submit"`
	StdoutFlag string   `yaml:"stdout_flag"`
	StderrFlag string   `yaml:"stderr_flag"`
}

// Grid returns the submitter, or nil when none is configured.
func (g GridConfig) Grid() *toolcmd.Grid {
	if len(g.Submit) == 0 {
		return nil
	}
	return &toolcmd.Grid{
		Submit:     append([]string(nil), g.Submit...),
		StdoutFlag: g.StdoutFlag,
		StderrFlag: g.StderrFlag,
	}
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		CPUs:    runtime.NumCPU(),
		Workdir: "outdir",
		Log:     LogConfig{Level: "info", Format: "auto"},
		Blast: BlastConfig{
			Program: "blastp",
			Format:  toolcmd.DefaultBlastFormat,
			EValue:  0.01,
			Best:    1,
		},
	}
}

// Load returns Default overlaid with the YAML file at path. An empty path
// returns Default unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	if c.CPUs < 1 {
		return fmt.Errorf("cpus must be >= 1, got %d", c.CPUs)
	}
	if c.ShardTimeout < 0 {
		return fmt.Errorf("shard_timeout must be >= 0, got %s", c.ShardTimeout)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "auto", "text", "json":
	default:
		return fmt.Errorf("invalid log.format %q", c.Log.Format)
	}
	if c.Blast.EValue <= 0 {
		return fmt.Errorf("blast.evalue must be > 0, got %g", c.Blast.EValue)
	}
	if c.Blast.Best < 1 {
		return fmt.Errorf("blast.best must be >= 1, got %d", c.Blast.Best)
	}
	return nil
}
