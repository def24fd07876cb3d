// internal/launch/cmd.go
package launch

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"bmalign/internal/logging"
	"bmalign/internal/report"
	"bmalign/internal/version"
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(),
			`%s: launch the ranks of a bmalign run on this host

Version: %s

Usage of %s:
  %s -n 4 [flags] -- -i seqs.fa -o out.txt [bmalign flags]
`, name, version.Version, name, name)
		fs.PrintDefaults()
	}
	return fs
}

// RunContext is the bmrun entry point.
func RunContext(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)
	defer func() { _ = outw.Flush() }()

	fs := newFlagSet("bmrun")
	fs.SetOutput(io.Discard)
	var (
		p        Plan
		logLevel string
		help     bool
		showVer  bool
	)
	fs.IntVar(&p.Procs, "n", 2, "number of ranks [2]")
	fs.StringVar(&p.Binary, "bin", "", "bmalign binary (default: next to bmrun, then PATH)")
	fs.StringVar(&p.Coord, "coord", "", "hub address for rank 0 (default: a free loopback port)")
	fs.StringVar(&logLevel, "log-level", "warn", "debug | info | warn | error [warn]")
	fs.BoolVar(&showVer, "version", false, "print version and exit [false]")
	fs.BoolVar(&help, "h", false, "show this help message (shorthand) [false]")

	usage := func(code int) int {
		fs.SetOutput(outw)
		fs.Usage()
		if err := outw.Flush(); err != nil && !report.IsBrokenPipe(err) {
			_, _ = fmt.Fprintln(stderr, err)
			return 3
		}
		return code
	}

	if err := fs.Parse(argv); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return usage(0)
		}
		_, _ = fmt.Fprintln(stderr, err)
		return usage(2)
	}
	if help {
		return usage(0)
	}
	if showVer {
		_, _ = fmt.Fprintf(outw, "bmrun version %s\n", version.Version)
		return 0
	}
	if p.Procs < 1 {
		_, _ = fmt.Fprintln(stderr, "-n must be ≥ 1")
		return usage(2)
	}
	p.Args = fs.Args()
	if len(p.Args) == 0 {
		_, _ = fmt.Fprintln(stderr, "missing bmalign arguments after --")
		return usage(2)
	}

	logger, err := logging.New(logLevel, "console", stderr)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}
	defer func() { _ = logger.Sync() }()

	if p.Binary == "" {
		if p.Binary, err = DefaultBinary(); err != nil {
			_, _ = fmt.Fprintln(stderr, "bmrun:", err)
			return 3
		}
	}
	if p.Coord == "" {
		if p.Coord, err = FreeAddr(); err != nil {
			_, _ = fmt.Fprintln(stderr, "bmrun:", err)
			return 3
		}
	}

	if err := outw.Flush(); err != nil && !report.IsBrokenPipe(err) {
		return 3
	}
	err = Start(ctx, p, stdout, stderr, logger)
	var rankErr *RankError
	switch {
	case err == nil:
		return 0
	case ctx.Err() != nil:
		return 130
	case errors.As(err, &rankErr):
		_, _ = fmt.Fprintln(stderr, "bmrun:", err)
		if rankErr.Code <= 0 {
			return 3
		}
		return rankErr.Code
	default:
		_, _ = fmt.Fprintln(stderr, "bmrun:", err)
		return 3
	}
}
