package verify

import (
	"github.com/nervosnetwork/ckb-go/consensus"
	"github.com/nervosnetwork/ckb-go/store"
	"github.com/nervosnetwork/ckb-go/types"
)

// VerifyUncles implements C5 from spec.md §4.5 step 3: count bound,
// no double inclusion, valid descent, matching epoch.
func VerifyUncles(spec *consensus.ChainSpec, chain store.ChainStore, blockEpoch uint64, uncles []types.UncleBlock) error {
	if uint64(len(uncles)) > spec.MaxUncleNum {
		return ErrTooManyUncles
	}

	seen := make(map[types.Hash]bool, len(uncles))
	for _, ub := range uncles {
		u := &ub.Header
		uh := u.Hash()

		if seen[uh] {
			return ErrUncleAlreadyIncluded
		}
		seen[uh] = true

		if _, onMainChain := chain.HeaderByHash(uh); onMainChain {
			return ErrUncleAlreadyIncluded
		}
		if chain.IsUncle(uh) {
			return ErrUncleAlreadyIncluded
		}

		if !validDescent(chain, u) {
			return ErrUncleInvalidDescent
		}

		if consensus.EpochOf(u.EpochPacked) != blockEpoch {
			return ErrUncleWrongEpoch
		}
	}
	return nil
}

// validDescent checks that an uncle's parent is either on the main
// chain at uncle.Number-1, or is itself a previously accepted uncle at
// that height (spec.md §4.5 step 3).
func validDescent(chain store.ChainStore, u *types.Header) bool {
	if u.Number == 0 {
		return false
	}
	parentNumber := u.Number - 1
	if mainParent, ok := chain.HeaderByNumber(parentNumber); ok && mainParent.Hash() == u.ParentHash {
		return true
	}
	if n, ok := chain.UncleParentNumber(u.ParentHash); ok {
		// n is the parent uncle's own parent number, one below its height.
		return n+1 == parentNumber
	}
	return false
}
