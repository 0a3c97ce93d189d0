// Package artifact content-addresses the blobs this module downloads
// (state headers and state parts) so that two independent fetches of
// the same artifact can be compared cheaply, without re-parsing or
// re-validating the payload.
package artifact

import (
	blocks "github.com/ipfs/go-block-format"
	"github.com/ipfs/go-cid"
	mc "github.com/multiformats/go-multicodec"
	mh "github.com/multiformats/go-multihash"
)

// Fingerprint is a CIDv1 content identifier over a raw blob, tagged
// with the "raw" multicodec since state headers and parts are opaque
// byte blobs, not IPLD-structured data.
type Fingerprint struct {
	block blocks.Block
}

// Of computes the fingerprint of data.
func Of(data []byte) (Fingerprint, error) {
	digest, err := mh.Sum(data, mh.SHA2_256, -1)
	if err != nil {
		return Fingerprint{}, err
	}
	c := cid.NewCidV1(uint64(mc.Raw), digest)
	blk, err := blocks.NewBlockWithCid(data, c)
	if err != nil {
		return Fingerprint{}, err
	}
	return Fingerprint{block: blk}, nil
}

// Cid returns the content identifier.
func (f Fingerprint) Cid() cid.Cid {
	return f.block.Cid()
}

// Equal reports whether two fingerprints address the same bytes.
func (f Fingerprint) Equal(other Fingerprint) bool {
	return f.block.Cid().Equals(other.block.Cid())
}

// String renders the fingerprint's CID.
func (f Fingerprint) String() string {
	return f.block.Cid().String()
}
