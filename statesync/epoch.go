package statesync

import (
	"fmt"

	"github.com/meridianchain/statesync/collab"
	"github.com/meridianchain/statesync/types"
)

// GetEpochStartSyncHash walks backward from syncHash through previous
// block hashes, returning the hash of the last block in the epoch
// before the one syncHash belongs to changed. It is a pure function of
// the chain's header history: no sync state is read or written.
func GetEpochStartSyncHash(chain collab.Chain, syncHash types.Hash) (types.Hash, error) {
	header, err := chain.GetBlockHeader(syncHash)
	if err != nil {
		return types.Hash{}, fmt.Errorf("statesync: get epoch start sync hash: %w", err)
	}

	epochId := header.EpochId
	hash := header.Hash
	prevHash := header.PrevHash

	for {
		if prevHash.IsDefault() {
			return hash, nil
		}
		header, err = chain.GetBlockHeader(prevHash)
		if err != nil {
			return types.Hash{}, fmt.Errorf("statesync: get epoch start sync hash: %w", err)
		}
		if header.EpochId != epochId {
			return hash, nil
		}
		epochId = header.EpochId
		hash = header.Hash
		prevHash = header.PrevHash
	}
}
