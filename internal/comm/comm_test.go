package comm

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bmalign/core/vote"
)

// round runs one reduce followed by one broadcast from the winner on every
// endpoint and returns what each rank observed.
func round(t *testing.T, eps []*Endpoint, accept map[int]bool) ([]vote.Vote, [][]byte) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	votes := make([]vote.Vote, len(eps))
	data := make([][]byte, len(eps))
	errs := make([]error, len(eps))
	var wg sync.WaitGroup
	for i, ep := range eps {
		wg.Add(1)
		go func(i int, ep *Endpoint) {
			defer wg.Done()
			v := vote.Vote{Rank: ep.Rank(), Verdict: vote.Reject}
			if accept[ep.Rank()] {
				v.Verdict = vote.Accept
			}
			got, err := ep.ReduceVote(ctx, v)
			if err != nil {
				errs[i] = err
				return
			}
			votes[i] = got
			if got.Verdict != vote.Accept {
				return
			}
			var payload []byte
			if got.Rank == ep.Rank() {
				payload = []byte(fmt.Sprintf("from %d", ep.Rank()))
			}
			data[i], errs[i] = ep.Broadcast(ctx, got.Rank, payload)
		}(i, ep)
	}
	wg.Wait()
	for i, err := range errs {
		require.NoError(t, err, "rank %d", i)
	}
	return votes, data
}

func TestLocalReduceAndBroadcast(t *testing.T) {
	eps := NewLocal(4)
	votes, data := round(t, eps, map[int]bool{3: true, 1: true})
	for r := range eps {
		assert.Equal(t, vote.Vote{Rank: 1, Verdict: vote.Accept}, votes[r])
		assert.Equal(t, "from 1", string(data[r]))
	}

	votes, data = round(t, eps, nil)
	for r := range eps {
		assert.Equal(t, vote.None, votes[r])
		assert.Nil(t, data[r])
	}
}

func TestLocalSingleRank(t *testing.T) {
	eps := NewLocal(1)
	votes, data := round(t, eps, map[int]bool{0: true})
	assert.Equal(t, vote.Vote{Rank: 0, Verdict: vote.Accept}, votes[0])
	assert.Equal(t, "from 0", string(data[0]))
}

func TestHubDrainsCollectives(t *testing.T) {
	hub := NewHub(3)
	eps := make([]*Endpoint, 3)
	for r := range eps {
		eps[r] = &Endpoint{rank: r, size: 3, link: hub}
	}
	for i := 0; i < 5; i++ {
		round(t, eps, map[int]bool{i % 3: true})
	}
	assert.Zero(t, hub.pending())
}

func TestHubRejectsBadVotes(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(2)
	_, err := hub.Reduce(ctx, 1, vote.Vote{Rank: 2, Verdict: vote.Accept})
	assert.Error(t, err)

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = hub.Reduce(short, 1, vote.Vote{Rank: 0})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	_, err = hub.Reduce(ctx, 1, vote.Vote{Rank: 0})
	assert.Error(t, err, "second vote from the same rank")
}

func TestEndpointRejectsForeignVote(t *testing.T) {
	eps := NewLocal(2)
	_, err := eps[0].ReduceVote(context.Background(), vote.Vote{Rank: 1})
	assert.Error(t, err)
	_, err = eps[0].Broadcast(context.Background(), 5, nil)
	assert.Error(t, err)
}

func TestTCPMatchesLocal(t *testing.T) {
	const size = 3
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	root, addr, err := Listen(ctx, "127.0.0.1:0", size, nil)
	require.NoError(t, err)
	eps := []*Endpoint{root}
	for r := 1; r < size; r++ {
		ep, err := Dial(ctx, addr.String(), r, size, 2*time.Second, nil)
		require.NoError(t, err)
		eps = append(eps, ep)
	}

	for _, accept := range []map[int]bool{{2: true}, {}, {0: true, 2: true}} {
		got, gotData := round(t, eps, accept)
		want, wantData := round(t, NewLocal(size), accept)
		assert.Equal(t, want, got)
		assert.Equal(t, wantData, gotData)
	}

	done := make(chan error, 1)
	go func() { done <- root.Close(ctx) }()
	for _, ep := range eps[1:] {
		require.NoError(t, ep.Close(ctx))
	}
	require.NoError(t, <-done)
}

func TestDialRejectsWrongSize(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, addr, err := Listen(ctx, "127.0.0.1:0", 2, nil)
	require.NoError(t, err)

	_, err = Dial(ctx, addr.String(), 1, 3, time.Second, nil)
	assert.Error(t, err)
}
