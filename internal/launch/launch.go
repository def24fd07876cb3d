// Package launch starts the ranks of one bmalign run as local processes.
package launch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Plan describes one launch.
type Plan struct {
	Procs  int
	Binary string
	Coord  string
	Args   []string
}

// Commands returns the per-rank command lines. Rank flags come last so
// they win over anything in Args.
func (p Plan) Commands() [][]string {
	cmds := make([][]string, p.Procs)
	for r := range cmds {
		argv := append([]string{p.Binary}, p.Args...)
		cmds[r] = append(argv,
			"-rank", strconv.Itoa(r),
			"-size", strconv.Itoa(p.Procs),
			"-coord", p.Coord,
		)
	}
	return cmds
}

// Start runs every rank and waits. The first rank to fail cancels the
// rest. Rank 0's stdout carries the report; every rank shares stderr.
func Start(ctx context.Context, p Plan, stdout, stderr io.Writer, logger *zap.Logger) error {
	if p.Procs < 1 {
		return fmt.Errorf("launch: need at least one rank, got %d", p.Procs)
	}
	g, gctx := errgroup.WithContext(ctx)
	for r, argv := range p.Commands() {
		cmd := exec.CommandContext(gctx, argv[0], argv[1:]...)
		cmd.Stderr = stderr
		if r == 0 {
			cmd.Stdout = stdout
		}
		g.Go(func() error {
			logger.Debug("starting rank", zap.Int("rank", r), zap.Strings("argv", argv))
			if err := cmd.Run(); err != nil {
				var exit *exec.ExitError
				if errors.As(err, &exit) {
					return &RankError{Rank: r, Code: exit.ExitCode()}
				}
				return fmt.Errorf("launch: rank %d: %w", r, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// RankError reports a rank that exited unsuccessfully.
type RankError struct {
	Rank int
	Code int
}

func (e *RankError) Error() string {
	return fmt.Sprintf("launch: rank %d exited with status %d", e.Rank, e.Code)
}

// FreeAddr returns a loopback address that was free a moment ago.
func FreeAddr() (string, error) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	defer lis.Close()
	return lis.Addr().String(), nil
}

// DefaultBinary finds bmalign next to the running executable, then on PATH.
func DefaultBinary() (string, error) {
	if self, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(self), "bmalign")
		if st, err := os.Stat(sibling); err == nil && !st.IsDir() {
			return sibling, nil
		}
	}
	return exec.LookPath("bmalign")
}
