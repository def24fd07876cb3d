// internal/app/app.go
package app

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"bmalign/internal/cli"
	"bmalign/internal/logging"
	"bmalign/internal/report"
	"bmalign/internal/version"
)

// Exit codes.
const (
	ExitOK        = 0
	ExitUsage     = 2
	ExitFailure   = 3
	ExitCancelled = 130
)

func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)
	defer func() { _ = outw.Flush() }()

	fs := cli.NewFlagSet("bmalign")
	fs.SetOutput(io.Discard)

	flushUsage := func(code int) int {
		fs.SetOutput(outw)
		fs.Usage()
		if err := outw.Flush(); report.IsBrokenPipe(err) {
			return ExitOK
		} else if err != nil {
			_, _ = fmt.Fprintln(stderr, err)
			return ExitFailure
		}
		return code
	}

	if len(argv) == 0 {
		_, _ = cli.ParseArgs(fs, []string{"-h"})
		return flushUsage(ExitOK)
	}

	opts, err := cli.ParseArgs(fs, argv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return flushUsage(ExitOK)
		}
		_, _ = fmt.Fprintln(stderr, err)
		return flushUsage(ExitUsage)
	}

	if opts.Version {
		_, _ = fmt.Fprintf(outw, "bmalign version %s\n", version.Version)
		if e := outw.Flush(); report.IsBrokenPipe(e) {
			return ExitOK
		} else if e != nil {
			_, _ = fmt.Fprintln(stderr, e)
			return ExitFailure
		}
		return ExitOK
	}

	cfg := opts.Config
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, stderr)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return ExitUsage
	}
	defer func() { _ = logger.Sync() }()

	err = Execute(parent, cfg, outw, logger)
	if ferr := outw.Flush(); err == nil && ferr != nil && !report.IsBrokenPipe(ferr) {
		err = ferr
	}
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled) && parent.Err() != nil:
		_, _ = fmt.Fprintln(stderr, "bmalign: cancelled")
		return ExitCancelled
	default:
		_, _ = fmt.Fprintln(stderr, "bmalign:", err)
		return ExitFailure
	}
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}
