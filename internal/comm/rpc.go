// internal/comm/rpc.go
package comm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"sync"
	"time"

	"go.uber.org/zap"

	"bmalign/core/vote"
)

// JoinArgs is sent once by every remote rank.
type JoinArgs struct {
	Rank int
	Size int
}

// JoinReply confirms the hub's view of the run.
type JoinReply struct {
	Size int
}

// ReduceArgs carries one rank's vote.
type ReduceArgs struct {
	Seq  uint64
	Vote vote.Vote
}

// ReduceReply carries the combined vote.
type ReduceReply struct {
	Vote vote.Vote
}

// PublishArgs carries the root's broadcast payload.
type PublishArgs struct {
	Seq  uint64
	Root int
	Data []byte
}

// FetchArgs asks for a broadcast payload.
type FetchArgs struct {
	Seq  uint64
	Root int
}

// FetchReply carries a broadcast payload.
type FetchReply struct {
	Data []byte
}

// Ack is the empty reply. gob refuses structs without exported fields.
type Ack struct{ OK bool }

// HubService exposes a Hub over net/rpc.
type HubService struct {
	ctx    context.Context
	hub    *Hub
	mu     sync.Mutex
	joined map[int]bool
}

func (s *HubService) Join(args *JoinArgs, reply *JoinReply) error {
	if args.Size != s.hub.Size() {
		return fmt.Errorf("rank %d expects %d ranks, hub runs %d", args.Rank, args.Size, s.hub.Size())
	}
	if args.Rank <= 0 || args.Rank >= s.hub.Size() {
		return fmt.Errorf("rank %d cannot join a hub of %d ranks", args.Rank, s.hub.Size())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.joined[args.Rank] {
		return fmt.Errorf("rank %d already joined", args.Rank)
	}
	s.joined[args.Rank] = true
	reply.Size = s.hub.Size()
	return nil
}

func (s *HubService) Reduce(args *ReduceArgs, reply *ReduceReply) error {
	v, err := s.hub.Reduce(s.ctx, args.Seq, args.Vote)
	reply.Vote = v
	return err
}

func (s *HubService) Publish(args *PublishArgs, reply *Ack) error {
	if err := s.hub.Publish(s.ctx, args.Seq, args.Root, args.Data); err != nil {
		return err
	}
	reply.OK = true
	return nil
}

func (s *HubService) Fetch(args *FetchArgs, reply *FetchReply) error {
	data, err := s.hub.Fetch(s.ctx, args.Seq, args.Root)
	reply.Data = data
	return err
}

func (s *HubService) Leave(_ *Ack, reply *Ack) error {
	s.hub.Leave()
	reply.OK = true
	return nil
}

// Listen starts the hub for a run of size ranks on addr and returns rank 0's
// endpoint. The hub stops when ctx is done or the endpoint is closed.
func Listen(ctx context.Context, addr string, size int, logger *zap.Logger) (*Endpoint, net.Addr, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("comm: listen %s: %w", addr, err)
	}
	srvCtx, cancel := context.WithCancel(ctx)
	hub := NewHub(size)
	srv := rpc.NewServer()
	if err := srv.RegisterName("Hub", &HubService{ctx: srvCtx, hub: hub, joined: map[int]bool{}}); err != nil {
		cancel()
		_ = lis.Close()
		return nil, nil, err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			conn, err := lis.Accept()
			if err != nil {
				if !errors.Is(err, net.ErrClosed) {
					logger.Warn("hub accept failed", zap.Error(err))
				}
				return
			}
			logger.Debug("rank connected", zap.String("remote", conn.RemoteAddr().String()))
			go srv.ServeConn(conn)
		}
	}()
	go func() {
		<-srvCtx.Done()
		_ = lis.Close()
	}()

	ep := &Endpoint{rank: 0, size: size, link: hub}
	ep.close = func(cctx context.Context) error {
		defer func() {
			cancel()
			wg.Wait()
		}()
		if err := hub.AwaitLeaves(cctx, size-1); err != nil {
			return fmt.Errorf("comm: waiting for ranks to finish: %w", err)
		}
		return nil
	}
	return ep, lis.Addr(), nil
}

// Dial connects rank to the hub at addr, retrying until timeout elapses.
func Dial(ctx context.Context, addr string, rank, size int, timeout time.Duration, logger *zap.Logger) (*Endpoint, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	deadline := time.Now().Add(timeout)
	var (
		client *rpc.Client
		err    error
	)
	for attempt := 1; ; attempt++ {
		client, err = rpc.Dial("tcp", addr)
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("comm: dial %s: %w", addr, err)
		}
		logger.Debug("hub not reachable yet", zap.String("addr", addr), zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}

	l := &rpcLink{client: client}
	var jr JoinReply
	if err := l.call(ctx, "Hub.Join", &JoinArgs{Rank: rank, Size: size}, &jr); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("comm: join: %w", err)
	}
	ep := &Endpoint{rank: rank, size: jr.Size, link: l}
	ep.close = func(cctx context.Context) error {
		err := l.call(cctx, "Hub.Leave", &Ack{}, &Ack{})
		if cerr := client.Close(); err == nil {
			err = cerr
		}
		return err
	}
	return ep, nil
}

type rpcLink struct {
	client *rpc.Client
}

func (l *rpcLink) call(ctx context.Context, method string, args, reply any) error {
	call := l.client.Go(method, args, reply, make(chan *rpc.Call, 1))
	select {
	case <-call.Done:
		return call.Error
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *rpcLink) Reduce(ctx context.Context, seq uint64, v vote.Vote) (vote.Vote, error) {
	var reply ReduceReply
	if err := l.call(ctx, "Hub.Reduce", &ReduceArgs{Seq: seq, Vote: v}, &reply); err != nil {
		return vote.None, err
	}
	return reply.Vote, nil
}

func (l *rpcLink) Publish(ctx context.Context, seq uint64, root int, data []byte) error {
	return l.call(ctx, "Hub.Publish", &PublishArgs{Seq: seq, Root: root, Data: data}, &Ack{})
}

func (l *rpcLink) Fetch(ctx context.Context, seq uint64, root int) ([]byte, error) {
	var reply FetchReply
	if err := l.call(ctx, "Hub.Fetch", &FetchArgs{Seq: seq, Root: root}, &reply); err != nil {
		return nil, err
	}
	return reply.Data, nil
}
