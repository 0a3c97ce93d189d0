package fakes

import (
	"context"
	"sync"

	"github.com/meridianchain/statesync/collab"
	"github.com/meridianchain/statesync/types"
)

// HeaderRequest records one SendStateRequestHeader call.
type HeaderRequest struct {
	Shard    types.ShardId
	SyncHash types.Hash
	Peer     types.PeerId
}

// PartRequest records one SendStateRequestPart call.
type PartRequest struct {
	Shard             types.ShardId
	SyncHash          types.Hash
	SyncPrevPrevHash  types.Hash
	PartIdx           uint64
	Peer              types.PeerId
}

// Network is an in-memory stand-in for outbound peer requests. Tests
// drive the outcome of each request through the Response hook, which
// picks the response kind sent on the channel returned to the caller;
// with no hook set, every request is left pending to model an
// in-flight request.
type Network struct {
	mu sync.Mutex

	HeaderRequests []HeaderRequest
	PartRequests   []PartRequest

	// Response is consulted for every new request; if nil the request
	// is left pending (nothing is ever sent on the returned channel).
	Response func(shard types.ShardId) collab.NetworkResponseKind

	pending map[int]chan collab.NetworkResponseKind
	nextID  int

	PartsReceived []types.PartId
}

// NewNetwork constructs a fake network adapter.
func NewNetwork() *Network {
	return &Network{pending: make(map[int]chan collab.NetworkResponseKind)}
}

func (n *Network) respond(shard types.ShardId) <-chan collab.NetworkResponseKind {
	ch := make(chan collab.NetworkResponseKind, 1)
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.pending[id] = ch
	resp := n.Response
	n.mu.Unlock()

	if resp != nil {
		ch <- resp(shard)
	}
	return ch
}

func (n *Network) SendStateRequestHeader(ctx context.Context, shard types.ShardId, syncHash types.Hash, peer types.PeerId) <-chan collab.NetworkResponseKind {
	n.mu.Lock()
	n.HeaderRequests = append(n.HeaderRequests, HeaderRequest{Shard: shard, SyncHash: syncHash, Peer: peer})
	n.mu.Unlock()
	return n.respond(shard)
}

func (n *Network) SendStateRequestPart(ctx context.Context, shard types.ShardId, syncHash, syncPrevPrevHash types.Hash, partIdx uint64, peer types.PeerId) <-chan collab.NetworkResponseKind {
	n.mu.Lock()
	n.PartRequests = append(n.PartRequests, PartRequest{
		Shard:            shard,
		SyncHash:         syncHash,
		SyncPrevPrevHash: syncPrevPrevHash,
		PartIdx:          partIdx,
		Peer:             peer,
	})
	n.mu.Unlock()
	return n.respond(shard)
}

func (n *Network) PublishStatePartReceived(shard types.ShardId, partIdx uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.PartsReceived = append(n.PartsReceived, types.PartId{Idx: partIdx})
}

// HeaderRequestCount is a test accessor.
func (n *Network) HeaderRequestCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.HeaderRequests)
}

// PartRequestCount is a test accessor.
func (n *Network) PartRequestCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.PartRequests)
}
