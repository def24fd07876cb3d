// internal/cli/options.go
package cli

import (
	"flag"
	"fmt"
	"os"

	"bmalign/internal/config"
	"bmalign/internal/version"
)

// Options is the parsed command line.
type Options struct {
	ConfigPath string
	Version    bool

	// Config is the resolved configuration: defaults, then the -config
	// file, then BMALIGN_* variables, then explicitly set flags.
	Config config.Config
}

// NewFlagSet returns a configured FlagSet with custom usage/help.
func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(),
			`%s: progressive multiple sequence alignment by speculative parallel search

Version: %s

Usage of %s:
`, name, version.Version, name)
		fs.PrintDefaults()
	}
	return fs
}

// ParseArgs registers and parses all flags, consulting the process
// environment.
func ParseArgs(fs *flag.FlagSet, argv []string) (Options, error) {
	return ParseArgsEnv(fs, argv, os.LookupEnv)
}

// ParseArgsEnv is ParseArgs with an explicit environment.
func ParseArgsEnv(fs *flag.FlagSet, argv []string, lookup func(string) (string, bool)) (Options, error) {
	var opt Options
	var help bool
	f := config.Default()

	// Bootstrap
	fs.StringVar(&f.Input, "i", "", "input FASTA file, gzip or '-' for STDIN [*]")
	fs.StringVar(&f.Output, "o", "", "output report file, '-' for STDOUT [*]")
	fs.StringVar(&f.Random, "r", f.Random, "partition source: R (device entropy) | P (seeded by index) ["+f.Random+"]")
	fs.StringVar(&opt.ConfigPath, "config", "", "YAML configuration file")
	fs.StringVar(&f.Format, "format", f.Format, "report format: text | json ["+f.Format+"]")

	// Ranks
	fs.IntVar(&f.Procs, "np", 0, "run N ranks as goroutines of this process (0 = use -rank/-size) [0]")
	fs.IntVar(&f.Rank, "rank", 0, "rank of this process [0]")
	fs.IntVar(&f.Size, "size", f.Size, "number of ranks in the run [1]")
	fs.StringVar(&f.Coord, "coord", "", "host:port of rank 0's collective hub")
	fs.DurationVar(&f.DialTimeout, "dial-timeout", f.DialTimeout, "how long ranks retry reaching the hub ["+f.DialTimeout.String()+"]")

	// Scoring
	fs.IntVar(&f.Scoring.Match, "match", f.Scoring.Match, fmt.Sprintf("match reward [%d]", f.Scoring.Match))
	fs.IntVar(&f.Scoring.Gap, "gap", f.Scoring.Gap, fmt.Sprintf("gap penalty [%d]", f.Scoring.Gap))
	fs.IntVar(&f.Scoring.Substitution, "sub", f.Scoring.Substitution, fmt.Sprintf("substitution penalty [%d]", f.Scoring.Substitution))

	// Observability
	fs.StringVar(&f.LogLevel, "log-level", f.LogLevel, "debug | info | warn | error ["+f.LogLevel+"]")
	fs.StringVar(&f.LogFormat, "log-format", f.LogFormat, "json | console ["+f.LogFormat+"]")
	fs.StringVar(&f.MetricsAddr, "metrics-addr", "", "serve /metrics and /health on host:port (rank 0)")

	fs.BoolVar(&opt.Version, "v", false, "print version and exit (shorthand) [false]")
	fs.BoolVar(&opt.Version, "version", false, "print version and exit [false]")
	fs.BoolVar(&help, "h", false, "show this help message (shorthand) [false]")

	if err := fs.Parse(argv); err != nil {
		return opt, err
	}
	if help {
		return opt, flag.ErrHelp
	}
	if opt.Version {
		return opt, nil
	}
	if fs.NArg() > 0 {
		return opt, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	cfg, err := config.Load(opt.ConfigPath)
	if err != nil {
		return opt, err
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return opt, err
	}
	fs.Visit(func(fl *flag.Flag) {
		if set, ok := overrides[fl.Name]; ok {
			set(&cfg, &f)
		}
	})
	if err := cfg.Validate(); err != nil {
		return opt, err
	}
	opt.Config = cfg
	return opt, nil
}

// overrides copies one explicitly set flag from src into dst.
var overrides = map[string]func(dst, src *config.Config){
	"i":            func(d, s *config.Config) { d.Input = s.Input },
	"o":            func(d, s *config.Config) { d.Output = s.Output },
	"r":            func(d, s *config.Config) { d.Random = s.Random },
	"format":       func(d, s *config.Config) { d.Format = s.Format },
	"np":           func(d, s *config.Config) { d.Procs = s.Procs },
	"rank":         func(d, s *config.Config) { d.Rank = s.Rank },
	"size":         func(d, s *config.Config) { d.Size = s.Size },
	"coord":        func(d, s *config.Config) { d.Coord = s.Coord },
	"dial-timeout": func(d, s *config.Config) { d.DialTimeout = s.DialTimeout },
	"match":        func(d, s *config.Config) { d.Scoring.Match = s.Scoring.Match },
	"gap":          func(d, s *config.Config) { d.Scoring.Gap = s.Scoring.Gap },
	"sub":          func(d, s *config.Config) { d.Scoring.Substitution = s.Scoring.Substitution },
	"log-level":    func(d, s *config.Config) { d.LogLevel = s.LogLevel },
	"log-format":   func(d, s *config.Config) { d.LogFormat = s.LogFormat },
	"metrics-addr": func(d, s *config.Config) { d.MetricsAddr = s.MetricsAddr },
}
