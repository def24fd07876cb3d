// internal/app/execute.go
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"bmalign/core/align"
	"bmalign/core/fasta"
	"bmalign/core/partition"
	"bmalign/core/search"
	"bmalign/core/wire"
	"bmalign/internal/comm"
	"bmalign/internal/config"
	"bmalign/internal/logging"
	"bmalign/internal/metrics"
	"bmalign/internal/report"
	"bmalign/pkg/api"
)

// ErrBootstrap is returned on ranks that could not receive the input from
// rank 0.
var ErrBootstrap = errors.New("bootstrap failed on rank 0")

// Execute runs every rank this process hosts and writes the report from
// rank 0 to stdout or cfg.Output.
func Execute(ctx context.Context, cfg config.Config, stdout io.Writer, logger *zap.Logger) error {
	mode, err := partition.ParseMode(cfg.Random)
	if err != nil {
		return err
	}

	switch {
	case cfg.Procs > 0:
		g, gctx := errgroup.WithContext(ctx)
		for _, ep := range comm.NewLocal(cfg.Procs) {
			g.Go(func() error { return runRank(gctx, ep, cfg, mode, stdout, logger) })
		}
		return g.Wait()

	case cfg.Distributed() && cfg.Rank == 0:
		ep, addr, err := comm.Listen(ctx, cfg.Coord, cfg.Size, logger)
		if err != nil {
			return err
		}
		logger.Info("hub listening", zap.String("addr", addr.String()), zap.Int("size", cfg.Size))
		return closing(ep, cfg, runRank(ctx, ep, cfg, mode, stdout, logger))

	case cfg.Distributed():
		ep, err := comm.Dial(ctx, cfg.Coord, cfg.Rank, cfg.Size, cfg.DialTimeout, logger)
		if err != nil {
			return err
		}
		return closing(ep, cfg, runRank(ctx, ep, cfg, mode, stdout, logger))

	default:
		return runRank(ctx, comm.NewLocal(1)[0], cfg, mode, stdout, logger)
	}
}

// closing closes ep, keeping runErr as the primary failure.
func closing(ep *comm.Endpoint, cfg config.Config, runErr error) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := ep.Close(ctx); err != nil && runErr == nil {
		return fmt.Errorf("closing rank %d: %w", ep.Rank(), err)
	}
	return runErr
}

func runRank(ctx context.Context, ep *comm.Endpoint, cfg config.Config, mode partition.Mode, stdout io.Writer, base *zap.Logger) error {
	runID, recs, err := bootstrap(ctx, ep, cfg.Input)
	if err != nil {
		return err
	}
	logger := logging.ForRank(base, runID, ep.Rank())
	logger.Debug("input received", zap.Int("records", len(recs)))

	seqs := make([]align.Sequence, len(recs))
	for i, r := range recs {
		seqs[i] = align.Sequence{ID: r.Index, Residues: r.Residues}
	}

	collector := metrics.NewCollector("bmalign", ep.Rank())
	if ep.Rank() == 0 && cfg.MetricsAddr != "" {
		mctx, stop := context.WithCancel(ctx)
		defer stop()
		go func() {
			if err := metrics.Serve(mctx, cfg.MetricsAddr, collector.Router(), logger); err != nil {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	coord, err := search.New(ep, align.Naive(seqs), search.Options{
		Params:   cfg.Scoring,
		Mode:     mode,
		Logger:   logger,
		Observer: collector,
		Tracer:   otel.Tracer("bmalign"),
	})
	if err != nil {
		return err
	}
	out, err := coord.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("search finished", zap.Int("iterations", out.Iterations),
		zap.Int("accepted", out.Accepted), zap.Int("score", out.Score))

	if ep.Rank() != 0 {
		return nil
	}
	return writeReport(cfg, stdout, report.Build(runID, out, recs))
}

// bootstrap distributes the run id and the parsed input from rank 0. An
// empty run id tells the other ranks that rank 0 failed.
func bootstrap(ctx context.Context, ep *comm.Endpoint, input string) (string, []fasta.Record, error) {
	var (
		runID   []byte
		blob    []byte
		loadErr error
	)
	if ep.Rank() == 0 {
		blob, loadErr = loadInput(ctx, input)
		if loadErr == nil {
			runID = []byte(uuid.NewString())
		}
	}
	runID, err := ep.Broadcast(ctx, 0, runID)
	if err != nil {
		return "", nil, fmt.Errorf("bootstrap: %w", err)
	}
	if loadErr != nil {
		return "", nil, loadErr
	}
	if len(runID) == 0 {
		return "", nil, ErrBootstrap
	}
	blob, err = ep.Broadcast(ctx, 0, blob)
	if err != nil {
		return "", nil, fmt.Errorf("bootstrap: %w", err)
	}
	recs, err := wire.DecodeRecords(blob)
	if err != nil {
		return "", nil, fmt.Errorf("bootstrap: %w", err)
	}
	return string(runID), recs, nil
}

func loadInput(ctx context.Context, path string) ([]byte, error) {
	recs, err := fasta.ReadAll(ctx, path)
	if err != nil {
		return nil, err
	}
	if len(recs) < 3 {
		return nil, fmt.Errorf("%s: %d sequences: %w", path, len(recs), partition.ErrTooFewSequences)
	}
	return wire.EncodeRecords(recs)
}

func writeReport(cfg config.Config, stdout io.Writer, r api.ReportV1) error {
	if cfg.Output == "-" {
		return report.Write(stdout, cfg.Format, r)
	}
	f, err := os.Create(cfg.Output)
	if err != nil {
		return err
	}
	if err := report.Write(f, cfg.Format, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
