// Package comm provides the collective operations the search coordinator
// needs: a vote all-reduce and a rooted broadcast.
//
// Every rank owns one Endpoint. Endpoints talk to a Hub, either directly
// (ranks running as goroutines in one process) or over net/rpc (ranks running
// as separate processes, with the hub living in rank 0). Collectives are
// matched by a per-endpoint sequence number, so all ranks must issue the same
// collectives in the same order.
package comm
