// Package wire holds the on-disk/on-wire encodings this module owns:
// the StateParts column key and the shard state header blob. Both are
// hand-marshaled CBOR, in the style lotus/filecoin packages use for
// small fixed-shape types rather than reaching for encoding/json.
package wire

import (
	"bytes"
	"fmt"
	"io"

	cbg "github.com/whyrusleeping/cbor-gen"

	"github.com/meridianchain/statesync/types"
)

// StatePartKey is the StateParts column key for one downloaded part:
// (sync_hash, shard_id, part_idx).
type StatePartKey struct {
	SyncHash types.Hash
	ShardId  types.ShardId
	PartIdx  uint64
}

// MarshalCBOR encodes the key as a 3-element CBOR array.
func (k *StatePartKey) MarshalCBOR(w io.Writer) error {
	if err := cbg.WriteMajorTypeHeader(w, cbg.MajArray, 3); err != nil {
		return err
	}
	if err := cbg.WriteByteArray(w, k.SyncHash[:]); err != nil {
		return fmt.Errorf("wire: marshal sync_hash: %w", err)
	}
	if err := cbg.WriteMajorTypeHeader(w, cbg.MajUnsignedInt, uint64(k.ShardId)); err != nil {
		return fmt.Errorf("wire: marshal shard_id: %w", err)
	}
	if err := cbg.WriteMajorTypeHeader(w, cbg.MajUnsignedInt, k.PartIdx); err != nil {
		return fmt.Errorf("wire: marshal part_idx: %w", err)
	}
	return nil
}

// UnmarshalCBOR decodes a key previously written by MarshalCBOR.
func (k *StatePartKey) UnmarshalCBOR(r io.Reader) error {
	br, ok := r.(cbg.ByteReadReader)
	if !ok {
		br = cbg.GetPeeker(r)
	}

	maj, extra, err := cbg.CborReadHeaderBuf(br, make([]byte, 9))
	if err != nil {
		return err
	}
	if maj != cbg.MajArray || extra != 3 {
		return fmt.Errorf("wire: unexpected cbor array header maj=%d extra=%d", maj, extra)
	}

	hashBytes, err := cbg.ReadByteArray(br, types.HashSize)
	if err != nil {
		return fmt.Errorf("wire: unmarshal sync_hash: %w", err)
	}
	hash, err := types.HashFromBytes(hashBytes)
	if err != nil {
		return err
	}
	k.SyncHash = hash

	maj, shardID, err := cbg.CborReadHeaderBuf(br, make([]byte, 9))
	if err != nil || maj != cbg.MajUnsignedInt {
		return fmt.Errorf("wire: unmarshal shard_id: %w", err)
	}
	k.ShardId = types.ShardId(shardID)

	maj, partIdx, err := cbg.CborReadHeaderBuf(br, make([]byte, 9))
	if err != nil || maj != cbg.MajUnsignedInt {
		return fmt.Errorf("wire: unmarshal part_idx: %w", err)
	}
	k.PartIdx = partIdx

	return nil
}

// Bytes returns the canonical column-key encoding.
func (k *StatePartKey) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := k.MarshalCBOR(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ShardStateSyncResponseHeader is the metadata describing a shard's
// state at the sync hash: how many parts it consists of, the state
// root parts are validated against, and the chunk the parts were
// derived from.
type ShardStateSyncResponseHeader struct {
	ShardId        types.ShardId
	SyncHash       types.Hash
	NumStateParts  uint64
	StateRoot      types.StateRoot
	Chunk          ChunkRef
}

// ChunkRef is the minimal reference to the chunk a state header was
// built from: enough to locate flat-storage creation inputs (§4.2
// ApplyInProgress).
type ChunkRef struct {
	PrevBlockHash types.Hash
	Height        uint64
}

// MarshalCBOR encodes the header.
func (h *ShardStateSyncResponseHeader) MarshalCBOR(w io.Writer) error {
	if err := cbg.WriteMajorTypeHeader(w, cbg.MajArray, 6); err != nil {
		return err
	}
	if err := cbg.WriteMajorTypeHeader(w, cbg.MajUnsignedInt, uint64(h.ShardId)); err != nil {
		return err
	}
	if err := cbg.WriteByteArray(w, h.SyncHash[:]); err != nil {
		return err
	}
	if err := cbg.WriteMajorTypeHeader(w, cbg.MajUnsignedInt, h.NumStateParts); err != nil {
		return err
	}
	if err := cbg.WriteByteArray(w, h.StateRoot[:]); err != nil {
		return err
	}
	if err := cbg.WriteByteArray(w, h.Chunk.PrevBlockHash[:]); err != nil {
		return err
	}
	if err := cbg.WriteMajorTypeHeader(w, cbg.MajUnsignedInt, h.Chunk.Height); err != nil {
		return err
	}
	return nil
}

// UnmarshalCBOR decodes a header previously written by MarshalCBOR.
func (h *ShardStateSyncResponseHeader) UnmarshalCBOR(r io.Reader) error {
	br, ok := r.(cbg.ByteReadReader)
	if !ok {
		br = cbg.GetPeeker(r)
	}

	maj, extra, err := cbg.CborReadHeaderBuf(br, make([]byte, 9))
	if err != nil {
		return err
	}
	if maj != cbg.MajArray || extra != 6 {
		return fmt.Errorf("wire: unexpected header array len %d", extra)
	}

	maj, shardID, err := cbg.CborReadHeaderBuf(br, make([]byte, 9))
	if err != nil || maj != cbg.MajUnsignedInt {
		return fmt.Errorf("wire: unmarshal shard_id: %w", err)
	}
	h.ShardId = types.ShardId(shardID)

	syncHashBytes, err := cbg.ReadByteArray(br, types.HashSize)
	if err != nil {
		return err
	}
	if h.SyncHash, err = types.HashFromBytes(syncHashBytes); err != nil {
		return err
	}

	maj, numParts, err := cbg.CborReadHeaderBuf(br, make([]byte, 9))
	if err != nil || maj != cbg.MajUnsignedInt {
		return fmt.Errorf("wire: unmarshal num_state_parts: %w", err)
	}
	h.NumStateParts = numParts

	rootBytes, err := cbg.ReadByteArray(br, types.HashSize)
	if err != nil {
		return err
	}
	if h.StateRoot, err = types.HashFromBytes(rootBytes); err != nil {
		return err
	}

	prevBytes, err := cbg.ReadByteArray(br, types.HashSize)
	if err != nil {
		return err
	}
	if h.Chunk.PrevBlockHash, err = types.HashFromBytes(prevBytes); err != nil {
		return err
	}

	maj, height, err := cbg.CborReadHeaderBuf(br, make([]byte, 9))
	if err != nil || maj != cbg.MajUnsignedInt {
		return fmt.Errorf("wire: unmarshal chunk height: %w", err)
	}
	h.Chunk.Height = height

	return nil
}

// Bytes returns the canonical header encoding, the same bytes the
// external-storage header object stores.
func (h *ShardStateSyncResponseHeader) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := h.MarshalCBOR(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// HeaderFromBytes parses a header blob, as fetched from a peer or
// external storage.
func HeaderFromBytes(data []byte) (*ShardStateSyncResponseHeader, error) {
	h := new(ShardStateSyncResponseHeader)
	if err := h.UnmarshalCBOR(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("could not parse state sync header: %w", err)
	}
	return h, nil
}
