package verify

import (
	"github.com/nervosnetwork/ckb-go/consensus"
	"github.com/nervosnetwork/ckb-go/store"
	"github.com/nervosnetwork/ckb-go/types"
)

// VerifyCommit implements C6 from spec.md §4.5 step 4: every non-cellbase
// committed transaction must have been proposed by some ancestor in
// [number-farthest, number-closest], either directly or through one of
// that ancestor's uncles.
func VerifyCommit(spec *consensus.ChainSpec, chain store.ChainStore, parentHash types.Hash, parentNumber uint64, committed []*types.Transaction) error {
	window := proposalUnion(spec, chain, parentHash, parentNumber)
	if window == nil {
		return ErrNonexistentAncestor
	}

	seen := make(map[types.Hash]bool, len(committed))
	for i, tx := range committed {
		if i == 0 {
			continue // cellbase is exempt from the proposal window
		}
		h := tx.Hash()
		if seen[h] {
			return ErrDuplicatedCommittedTransactions
		}
		seen[h] = true

		if !window[tx.ProposalShortID()] {
			return ErrNotInProposalWindow
		}
	}
	return nil
}

// proposalUnion walks ancestors of parentNumber+1 at depths
// [closest, farthest] and unions their own proposals with their uncles'
// proposals. Returns nil if any required ancestor is missing.
func proposalUnion(spec *consensus.ChainSpec, chain store.ChainStore, parentHash types.Hash, parentNumber uint64) map[types.ShortID]bool {
	closest := spec.ProposalWindow.Closest
	farthest := spec.ProposalWindow.Farthest
	blockNumber := parentNumber + 1
	if blockNumber < closest {
		return map[types.ShortID]bool{}
	}

	union := make(map[types.ShortID]bool)
	cur := parentHash
	curNumber := parentNumber

	for depth := uint64(1); depth <= farthest && depth <= blockNumber; depth++ {
		hdr, ok := chain.HeaderByHash(cur)
		if !ok {
			return nil
		}
		if hdr.Number != curNumber {
			return nil
		}

		if depth >= closest {
			if ids, ok := chain.ProposalIDsOf(cur); ok {
				for _, id := range ids {
					union[id] = true
				}
			}
			for _, uncle := range chain.UnclesOf(cur) {
				for _, id := range uncle.Proposals {
					union[id] = true
				}
			}
		}

		if curNumber == 0 {
			break
		}
		cur = hdr.ParentHash
		curNumber--
	}

	return union
}
