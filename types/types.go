// Package types defines the primitive identifiers shared across the
// state sync core: shard identifiers, block hashes, peer identities,
// and part addressing.
package types

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// HashSize is the length in bytes of a Hash.
const HashSize = 32

// Hash is a 32-byte cryptographic hash, used for block hashes and
// state roots alike. It renders as base58, matching how block hashes
// are displayed throughout the chain this module synchronizes state
// for.
type Hash [HashSize]byte

// String renders the hash as base58.
func (h Hash) String() string {
	return base58.Encode(h[:])
}

// IsDefault reports whether h is the zero hash, used as a sentinel for
// "genesis" / "no parent block".
func (h Hash) IsDefault() bool {
	return h == Hash{}
}

// HashFromBytes copies b into a Hash. b must be exactly HashSize bytes.
func HashFromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != HashSize {
		return h, fmt.Errorf("types: invalid hash length %d, want %d", len(b), HashSize)
	}
	copy(h[:], b)
	return h, nil
}

// ShardId identifies a shard within a fixed shard layout.
type ShardId uint64

func (s ShardId) String() string { return fmt.Sprintf("%d", uint64(s)) }

// ShardUid disambiguates a shard across resharding events: the same
// logical shard can carry different ShardUid values in different shard
// layout versions.
type ShardUid struct {
	Version uint32
	ShardId uint32
}

func (u ShardUid) String() string {
	return fmt.Sprintf("s%d.v%d", u.ShardId, u.Version)
}

// EpochId identifies a protocol epoch.
type EpochId Hash

func (e EpochId) String() string { return Hash(e).String() }

// EpochHeight is the ordinal height of an epoch.
type EpochHeight uint64

// StateRoot is the trie root hash of a shard's state at a given block.
type StateRoot = Hash

// PeerId identifies a network peer.
type PeerId string

func (p PeerId) String() string { return string(p) }

// PartId addresses one part of a shard's state dump.
type PartId struct {
	Idx   uint64
	Total uint64
}

func (p PartId) String() string {
	return fmt.Sprintf("%d/%d", p.Idx, p.Total)
}
