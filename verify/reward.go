package verify

import (
	"github.com/nervosnetwork/ckb-go/consensus"
	"github.com/nervosnetwork/ckb-go/store"
	"github.com/nervosnetwork/ckb-go/types"
)

// VerifyCellbaseShape implements the input-form and position half of C7:
// transactions[0] must be a cellbase (synthetic input carrying the block
// number via Since), and no other transaction may be shaped like one
// (spec.md §4.5 step 6).
func VerifyCellbaseShape(block *types.Block) error {
	if len(block.Transactions) == 0 {
		return ErrInvalidCellbaseQuantity
	}
	cellbase := block.Transactions[0]
	if !cellbase.IsCellbase() {
		return ErrInvalidCellbaseInput
	}
	if cellbase.Inputs[0].Since.Value() != block.Header.Number {
		return ErrInvalidCellbaseInput
	}
	for _, tx := range block.Transactions[1:] {
		if tx.IsCellbase() {
			return ErrInvalidCellbasePosition
		}
	}
	return nil
}

// RewardTarget returns the lock script that should receive the block
// reward: the miner of the ancestor CellbaseMaturity blocks back (CKB
// delays reward payout by the maturity window so a reorg cannot already
// have spent it, spec.md §4.5 step 6, GLOSSARY "cellbase maturity").
func RewardTarget(spec *consensus.ChainSpec, chain store.ChainStore, blockNumber uint64) (types.Script, bool) {
	if blockNumber < spec.CellbaseMaturity {
		return types.Script{}, false
	}
	targetNumber := blockNumber - spec.CellbaseMaturity
	targetHash, ok := chain.HashByNumber(targetNumber)
	if !ok {
		return types.Script{}, false
	}
	targetBlock, ok := chain.BlockByHash(targetHash)
	if !ok {
		return types.Script{}, false
	}
	cellbase := targetBlock.Cellbase()
	if len(cellbase.Outputs) == 0 {
		return types.Script{}, false
	}
	return cellbase.Outputs[0].Lock, true
}

// VerifyReward implements the payout half of C7: the cellbase's total
// output capacity must equal primary reward + secondary reward + the
// sum of the block's transaction fees, and (once past the maturity
// window) the cellbase's first output must pay the reward target
// (spec.md §4.5 step 6).
func VerifyReward(spec *consensus.ChainSpec, chain store.ChainStore, block *types.Block, primaryReward, secondaryReward, totalFees uint64) error {
	cellbase := block.Cellbase()

	var outputSum uint64
	for _, o := range cellbase.Outputs {
		newSum := outputSum + o.Capacity
		if newSum < outputSum {
			return ErrCapacityOverflow
		}
		outputSum = newSum
	}

	expected := primaryReward + secondaryReward + totalFees
	if outputSum != expected {
		return ErrInvalidRewardAmount
	}

	if target, ok := RewardTarget(spec, chain, block.Header.Number); ok {
		if !cellbase.Outputs[0].Lock.Equal(&target) {
			return ErrInvalidRewardTarget
		}
	}

	return nil
}
