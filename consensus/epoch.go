package consensus

import "github.com/nervosnetwork/ckb-go/types"

// NextEpochExt derives the epoch extension for the block following
// parent, per spec.md §4.5 step 2: "if parent epoch can produce a
// next_epoch_ext, use it; else reuse parent epoch." A new epoch starts
// exactly when parent was the last block of its own epoch.
func NextEpochExt(spec *ChainSpec, parentEpoch *types.EpochExt, parentNumber uint64, parentDifficulty uint64) *types.EpochExt {
	if !parentEpoch.IsLastBlockInEpoch(parentNumber) {
		return parentEpoch.Copy()
	}
	nextNumber := parentEpoch.Number + 1
	return &types.EpochExt{
		Number:          nextNumber,
		Length:          parentEpoch.Length,
		StartNumber:     parentNumber + 1,
		PrimaryReward:   spec.PrimaryEpochReward(nextNumber),
		SecondaryReward: spec.SecondaryEpochReward(nextNumber),
		Difficulty:      parentDifficulty,
	}
}

// EpochOf returns the epoch number a given EpochPacked value belongs to,
// a thin accessor used throughout uncle/commit verification.
func EpochOf(packed uint64) uint64 {
	return types.UnpackEpoch(packed).Number
}
