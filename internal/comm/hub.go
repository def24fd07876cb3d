// internal/comm/hub.go
package comm

import (
	"context"
	"fmt"
	"sync"

	"bmalign/core/vote"
)

// Hub matches collective calls from all ranks of one run.
type Hub struct {
	size int

	mu         sync.Mutex
	reductions map[uint64]*reduction
	casts      map[uint64]*cast
	leftCh     chan struct{}
}

type reduction struct {
	acc     vote.Vote
	seen    map[int]bool
	drained int
	done    chan struct{}
}

type cast struct {
	root      int
	data      []byte
	published bool
	drained   int
	done      chan struct{}
}

// NewHub returns a hub for size ranks.
func NewHub(size int) *Hub {
	return &Hub{
		size:       size,
		reductions: make(map[uint64]*reduction),
		casts:      make(map[uint64]*cast),
		leftCh:     make(chan struct{}, size),
	}
}

// Size is the number of ranks the hub waits for.
func (h *Hub) Size() int { return h.size }

func (h *Hub) reductionLocked(seq uint64) *reduction {
	r, ok := h.reductions[seq]
	if !ok {
		r = &reduction{acc: vote.None, seen: make(map[int]bool, h.size), done: make(chan struct{})}
		h.reductions[seq] = r
	}
	return r
}

func (h *Hub) castLocked(seq uint64) *cast {
	c, ok := h.casts[seq]
	if !ok {
		c = &cast{done: make(chan struct{})}
		h.casts[seq] = c
	}
	return c
}

// Reduce contributes v to reduction seq and blocks until every rank has.
func (h *Hub) Reduce(ctx context.Context, seq uint64, v vote.Vote) (vote.Vote, error) {
	if v.Rank < 0 || v.Rank >= h.size {
		return vote.None, fmt.Errorf("comm: vote from rank %d outside [0,%d)", v.Rank, h.size)
	}
	h.mu.Lock()
	r := h.reductionLocked(seq)
	if r.seen[v.Rank] {
		h.mu.Unlock()
		return vote.None, fmt.Errorf("comm: rank %d voted twice in collective %d", v.Rank, seq)
	}
	r.seen[v.Rank] = true
	r.acc = vote.Combine(r.acc, v)
	if len(r.seen) == h.size {
		close(r.done)
	}
	h.mu.Unlock()

	select {
	case <-r.done:
	case <-ctx.Done():
		return vote.None, ctx.Err()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	res := r.acc
	if r.drained++; r.drained == h.size {
		delete(h.reductions, seq)
	}
	return res, nil
}

// Publish stores the root's payload for broadcast seq.
func (h *Hub) Publish(_ context.Context, seq uint64, root int, data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := h.castLocked(seq)
	if c.published {
		return fmt.Errorf("comm: collective %d already published by rank %d", seq, c.root)
	}
	c.root = root
	c.data = append([]byte(nil), data...)
	c.published = true
	close(c.done)
	if c.drained++; c.drained == h.size {
		delete(h.casts, seq)
	}
	return nil
}

// Fetch blocks until broadcast seq is published and returns its payload.
func (h *Hub) Fetch(ctx context.Context, seq uint64, root int) ([]byte, error) {
	h.mu.Lock()
	c := h.castLocked(seq)
	h.mu.Unlock()

	select {
	case <-c.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if c.root != root {
		return nil, fmt.Errorf("comm: collective %d rooted at rank %d, expected %d", seq, c.root, root)
	}
	if c.drained++; c.drained == h.size {
		delete(h.casts, seq)
	}
	return c.data, nil
}

// Leave records that a remote rank has finished.
func (h *Hub) Leave() {
	select {
	case h.leftCh <- struct{}{}:
	default:
	}
}

// AwaitLeaves blocks until n ranks have called Leave.
func (h *Hub) AwaitLeaves(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		select {
		case <-h.leftCh:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// pending reports how many collectives are still in flight.
func (h *Hub) pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.reductions) + len(h.casts)
}
