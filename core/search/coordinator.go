// core/search/coordinator.go
package search

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"bmalign/core/align"
	"bmalign/core/partition"
	"bmalign/core/vote"
	"bmalign/core/wire"
)

// ErrProtocol reports a broadcast that could not be applied.
var ErrProtocol = errors.New("search: protocol violation")

// Communicator is the collective layer the coordinator runs on.
type Communicator interface {
	Rank() int
	Size() int
	ReduceVote(ctx context.Context, v vote.Vote) (vote.Vote, error)
	Broadcast(ctx context.Context, root int, data []byte) ([]byte, error)
}

// Observer receives per-round events. Implementations must be cheap.
type Observer interface {
	ObserveEvaluation(elapsed time.Duration)
	ObserveRound(accepted bool, bestScore int)
}

type nopObserver struct{}

func (nopObserver) ObserveEvaluation(time.Duration) {}
func (nopObserver) ObserveRound(bool, int)          {}

// Options configures a Coordinator. Zero values select defaults.
type Options struct {
	Params   align.Params
	Mode     partition.Mode
	Logger   *zap.Logger
	Observer Observer
	Tracer   trace.Tracer
}

// Outcome is the result of a completed search. Every rank returns the
// same Outcome.
type Outcome struct {
	Alignment  align.Alignment
	Score      int
	Iterations int
	BestIndex  int
	Log        []byte
	Accepted   int
}

// Coordinator drives one rank through the search.
type Coordinator struct {
	comm Communicator
	aln  align.Alignment
	opts Options
	log  *zap.Logger
}

// New returns a coordinator for aln. The alignment is copied.
func New(comm Communicator, aln align.Alignment, opts Options) (*Coordinator, error) {
	if len(aln) < 3 {
		return nil, partition.ErrTooFewSequences
	}
	if _, err := aln.Width(); err != nil {
		return nil, fmt.Errorf("search: initial alignment: %w", err)
	}
	if comm.Size() < 1 || comm.Rank() < 0 || comm.Rank() >= comm.Size() {
		return nil, fmt.Errorf("search: rank %d of %d", comm.Rank(), comm.Size())
	}
	if opts.Params == (align.Params{}) {
		opts.Params = align.DefaultParams
	}
	if opts.Mode == 0 {
		opts.Mode = partition.Pseudo
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer("bmalign/core/search")
	}
	a := aln.Clone()
	a.SortByID()
	return &Coordinator{comm: comm, aln: a, opts: opts, log: opts.Logger}, nil
}

type candidate struct {
	group1 align.Group
	result align.Result
}

// evaluate scores candidate index on the current alignment.
func (c *Coordinator) evaluate(ctx context.Context, index int) (candidate, error) {
	_, span := c.opts.Tracer.Start(ctx, "search.evaluate", trace.WithAttributes(attribute.Int("candidate", index)))
	defer span.End()
	start := time.Now()
	defer func() { c.opts.Observer.ObserveEvaluation(time.Since(start)) }()

	g1, g2, err := partition.ForIndex(c.aln, index, c.opts.Mode)
	if err != nil {
		return candidate{}, err
	}
	g1 = align.TrimGlobalGaps(g1)
	res, err := align.AlignGroups(g1, align.TrimGlobalGaps(g2), c.opts.Params)
	if err != nil {
		return candidate{}, fmt.Errorf("search: candidate %d: %w", index, err)
	}
	span.SetAttributes(attribute.Int("score", res.Score))
	return candidate{group1: g1, result: res}, nil
}

// Run searches until the stop rule fires, ctx is done, or a collective
// fails.
func (c *Coordinator) Run(ctx context.Context) (Outcome, error) {
	var (
		rank, size  = c.comm.Rank(), c.comm.Size()
		n           = len(c.aln)
		enumeration = partition.Count(n)
		globalIndex = 0
		bestIndex   = -1
		bestScore   = 0
		hasBest     = false
		accepted    = 0
		log         []byte
	)
	c.log.Debug("search started", zap.Int("sequences", n), zap.Int("ranks", size),
		zap.Int("enumeration", enumeration), zap.Stringer("mode", c.opts.Mode))

	for globalIndex-(bestIndex+1) < enumeration {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		rctx, span := c.opts.Tracer.Start(ctx, "search.round", trace.WithAttributes(attribute.Int("global_index", globalIndex)))

		cand, err := c.evaluate(rctx, globalIndex+rank)
		if err != nil {
			span.End()
			return Outcome{}, err
		}
		mine := vote.Vote{Rank: rank, Verdict: vote.Reject}
		if !hasBest || cand.result.Score > bestScore {
			mine.Verdict = vote.Accept
		}
		winner, err := c.comm.ReduceVote(rctx, mine)
		if err != nil {
			span.End()
			return Outcome{}, fmt.Errorf("search: vote at index %d: %w", globalIndex, err)
		}

		if winner.Verdict != vote.Accept {
			log = append(log, bytes.Repeat([]byte{'R'}, size)...)
			globalIndex += size
			c.opts.Observer.ObserveRound(false, bestScore)
			c.log.Debug("round rejected", zap.Int("global_index", globalIndex))
			span.End()
			continue
		}

		score, err := c.apply(rctx, winner.Rank, cand)
		if err != nil {
			span.End()
			return Outcome{}, err
		}
		bestScore, hasBest = score, true
		bestIndex = globalIndex + winner.Rank
		log = append(log, bytes.Repeat([]byte{'R'}, winner.Rank)...)
		log = append(log, 'A')
		globalIndex += winner.Rank + 1
		accepted++
		c.opts.Observer.ObserveRound(true, bestScore)
		c.log.Info("round accepted", zap.Int("candidate", bestIndex), zap.Int("winner", winner.Rank),
			zap.Int("score", bestScore))
		span.SetAttributes(attribute.Int("winner", winner.Rank), attribute.Int("score", bestScore))
		span.End()
	}

	total, err := align.SumOfPairs(c.opts.Params, c.aln)
	if err != nil {
		return Outcome{}, err
	}
	c.log.Debug("search finished", zap.Int("iterations", globalIndex), zap.Int("accepted", accepted))
	return Outcome{
		Alignment:  c.aln.Clone(),
		Score:      total,
		Iterations: globalIndex,
		BestIndex:  bestIndex,
		Log:        log,
		Accepted:   accepted,
	}, nil
}

// apply runs the winner's two broadcasts and installs the merged alignment
// on this rank. It returns the announced score.
func (c *Coordinator) apply(ctx context.Context, winner int, mine candidate) (int, error) {
	var descOut, patOut []byte
	if winner == c.comm.Rank() {
		d, err := wire.NewDescriptor(mine.group1, mine.result)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrProtocol, err)
		}
		descOut = d.Encode()
		patOut = wire.EncodePattern(mine.result.Pattern)
	}

	raw, err := c.comm.Broadcast(ctx, winner, descOut)
	if err != nil {
		return 0, fmt.Errorf("search: descriptor broadcast: %w", err)
	}
	d, err := wire.DecodeDescriptor(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrProtocol, err)
	}
	raw, err = c.comm.Broadcast(ctx, winner, patOut)
	if err != nil {
		return 0, fmt.Errorf("search: pattern broadcast: %w", err)
	}
	gp, err := wire.DecodePattern(raw, d.PatternLen)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrProtocol, err)
	}

	g1, g2, err := partition.FromIDs(c.aln, d.Group1())
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrProtocol, err)
	}
	merged, err := align.MergeGroups(align.TrimGlobalGaps(g1), align.TrimGlobalGaps(g2), gp)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrProtocol, err)
	}
	merged.SortByID()
	c.aln = merged
	return d.Score, nil
}
