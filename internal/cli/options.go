// internal/cli/options.go
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"shardalign/internal/config"
	"shardalign/internal/toolcmd"
)

// DefaultGrid is the submitter used by --grid when the config names none.
var DefaultGrid = config.GridConfig{
	Submit:     []string{"qsub", "-cwd", "-b", "y"},
	StdoutFlag: "-o",
	StderrFlag: "-e",
}

// Common holds the flags shared by blastplus and bowtie.
type Common struct {
	ConfigFile   string
	CPUs         int
	Workdir      string
	Extra        string
	Grid         bool
	ShardTimeout time.Duration
	MetricsFile  string
	TraceFile    string
	LogFormat    string
	Quiet        bool
	Verbose      bool
}

// Register wires the shared flags onto fs.
func (c *Common) Register(fs *pflag.FlagSet) {
	def := config.Default()
	fs.StringVar(&c.ConfigFile, "config", "", "YAML config file")
	fs.IntVar(&c.CPUs, "cpus", def.CPUs, "number of shards / parallel processes")
	fs.StringVar(&c.Workdir, "workdir", def.Workdir, "directory for shard files")
	fs.StringVar(&c.Extra, "extra", "", "extra flags passed through to the tool")
	fs.DurationVar(&c.ShardTimeout, "shard-timeout", 0, "kill a shard after this long (0 = no limit)")
	fs.StringVar(&c.MetricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")
	fs.StringVar(&c.TraceFile, "trace-file", "", "write trace spans as JSON to this file")
	fs.StringVar(&c.LogFormat, "log-format", def.Log.Format, "log format: auto | text | json")
	fs.BoolVarP(&c.Quiet, "quiet", "q", false, "only log warnings and errors")
	fs.BoolVarP(&c.Verbose, "verbose", "v", false, "log debug detail")
}

// RegisterGrid adds --grid for tools that can hand work to a cluster.
func (c *Common) RegisterGrid(fs *pflag.FlagSet) {
	fs.BoolVar(&c.Grid, "grid", false, "submit through the grid instead of running locally")
}

// Resolve loads --config and overlays every flag the user set explicitly.
// Grid submission stays off unless --grid was given.
func (c *Common) Resolve(fs *pflag.FlagSet) (config.Config, error) {
	if c.Quiet && c.Verbose {
		return config.Config{}, fmt.Errorf("--quiet conflicts with --verbose")
	}
	cfg, err := config.Load(c.ConfigFile)
	if err != nil {
		return cfg, err
	}
	Override(fs, "cpus", &cfg.CPUs, c.CPUs)
	Override(fs, "workdir", &cfg.Workdir, c.Workdir)
	Override(fs, "shard-timeout", &cfg.ShardTimeout, c.ShardTimeout)
	Override(fs, "metrics-file", &cfg.MetricsFile, c.MetricsFile)
	Override(fs, "trace-file", &cfg.TraceFile, c.TraceFile)
	Override(fs, "log-format", &cfg.Log.Format, c.LogFormat)
	Override(fs, "extra", &cfg.Blast.Extra, c.Extra)
	Override(fs, "extra", &cfg.Bowtie.Extra, c.Extra)
	switch {
	case c.Quiet:
		cfg.Log.Level = "warn"
	case c.Verbose:
		cfg.Log.Level = "debug"
	}
	switch {
	case !c.Grid:
		cfg.Grid = config.GridConfig{}
	case len(cfg.Grid.Submit) == 0:
		cfg.Grid = DefaultGrid
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Override sets *dst to v when the flag name was given on the command line.
func Override[T any](fs *pflag.FlagSet, name string, dst *T, v T) {
	if fs.Changed(name) {
		*dst = v
	}
}

// ExtraArgs splits the passthrough flag string.
func ExtraArgs(extra string) ([]string, error) {
	args, err := toolcmd.SplitExtra(extra)
	if err != nil {
		return nil, fmt.Errorf("--extra: %w", err)
	}
	return args, nil
}
