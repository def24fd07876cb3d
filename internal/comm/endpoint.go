// internal/comm/endpoint.go
package comm

import (
	"context"
	"fmt"

	"bmalign/core/vote"
)

// link is how an endpoint reaches the hub.
type link interface {
	Reduce(ctx context.Context, seq uint64, v vote.Vote) (vote.Vote, error)
	Publish(ctx context.Context, seq uint64, root int, data []byte) error
	Fetch(ctx context.Context, seq uint64, root int) ([]byte, error)
}

// Endpoint is one rank's view of the collective layer. It is not safe for
// concurrent use; each rank drives its own endpoint from one goroutine.
type Endpoint struct {
	rank, size int
	seq        uint64
	link       link
	close      func(context.Context) error
}

func (e *Endpoint) Rank() int { return e.rank }
func (e *Endpoint) Size() int { return e.size }

// ReduceVote combines v with the votes of every other rank.
func (e *Endpoint) ReduceVote(ctx context.Context, v vote.Vote) (vote.Vote, error) {
	e.seq++
	if v.Rank != e.rank {
		return vote.None, fmt.Errorf("comm: rank %d cannot vote as rank %d", e.rank, v.Rank)
	}
	return e.link.Reduce(ctx, e.seq, v)
}

// Broadcast sends data from root to every rank. Non-root ranks ignore
// their data argument and receive the root's.
func (e *Endpoint) Broadcast(ctx context.Context, root int, data []byte) ([]byte, error) {
	e.seq++
	if root < 0 || root >= e.size {
		return nil, fmt.Errorf("comm: broadcast root %d outside [0,%d)", root, e.size)
	}
	if root == e.rank {
		if err := e.link.Publish(ctx, e.seq, root, data); err != nil {
			return nil, err
		}
		return data, nil
	}
	return e.link.Fetch(ctx, e.seq, root)
}

// Close releases the endpoint. Over TCP, rank 0 waits for every other rank
// to finish before shutting the hub down.
func (e *Endpoint) Close(ctx context.Context) error {
	if e.close == nil {
		return nil
	}
	return e.close(ctx)
}

// NewLocal returns size endpoints sharing one in-memory hub.
func NewLocal(size int) []*Endpoint {
	hub := NewHub(size)
	eps := make([]*Endpoint, size)
	for r := range eps {
		eps[r] = &Endpoint{rank: r, size: size, link: hub}
	}
	return eps
}
