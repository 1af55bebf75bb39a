package verify

import (
	"context"

	"github.com/nervosnetwork/ckb-go/consensus"
	"github.com/nervosnetwork/ckb-go/store"
	"github.com/nervosnetwork/ckb-go/types"
)

// Verifier drives the full C8 contextual verification pipeline from
// spec.md §4.5: parent lookup, epoch derivation, uncle verification,
// commit verification, DAO header verification, reward verification,
// and parallel per-transaction script verification, in that order.
type Verifier struct {
	spec       *consensus.ChainSpec
	chain      store.ChainStore
	resolver   store.ResolverStore
	headers    HeaderResolver
	txVerifier *BlockTxVerifier
}

func NewVerifier(spec *consensus.ChainSpec, chain store.ChainStore, resolver store.ResolverStore, headers HeaderResolver, txVerifier *BlockTxVerifier) *Verifier {
	return &Verifier{spec: spec, chain: chain, resolver: resolver, headers: headers, txVerifier: txVerifier}
}

// VerifyBlock checks block against the chain rooted at its parent and
// returns the DAO state the block commits to on success, so the caller
// can thread it into the next block's verification (spec.md §4.6: S is
// tracked by the calculator, not the store).
func (v *Verifier) VerifyBlock(ctx context.Context, block *types.Block, prevDao DaoState) (DaoState, error) {
	// Step 1: parent lookup.
	parent, ok := v.chain.HeaderByHash(block.Header.ParentHash)
	if !ok {
		return DaoState{}, &UnknownParentError{ParentHash: block.Header.ParentHash}
	}
	if parent.Number+1 != block.Header.Number {
		return DaoState{}, &UnknownParentError{ParentHash: block.Header.ParentHash}
	}

	// Step 2: epoch derivation.
	parentEpoch, ok := v.chain.EpochExtOf(block.Header.ParentHash)
	if !ok {
		return DaoState{}, &UnknownParentError{ParentHash: block.Header.ParentHash}
	}
	var parentDifficulty uint64
	if parent.Difficulty != nil {
		parentDifficulty = parent.Difficulty.Uint64()
	}
	nextEpoch := consensus.NextEpochExt(v.spec, parentEpoch, parent.Number, parentDifficulty)
	if consensus.EpochOf(block.Header.EpochPacked) != nextEpoch.Number {
		return DaoState{}, ErrEpochMismatch
	}

	// Step 3: uncle verification.
	if err := VerifyUncles(v.spec, v.chain, nextEpoch.Number, block.Uncles); err != nil {
		return DaoState{}, err
	}

	// Step 4: commit (proposal window) verification.
	if err := VerifyCommit(v.spec, v.chain, block.Header.ParentHash, parent.Number, block.Transactions); err != nil {
		return DaoState{}, err
	}

	// Resolve every transaction once; both root verification and DAO/
	// reward accounting need the resolved form.
	rtxs, err := ResolveBlockTransactions(block.Transactions, v.resolver, v.headers)
	if err != nil {
		return DaoState{}, err
	}

	if err := verifyRoots(block); err != nil {
		return DaoState{}, err
	}

	// Step 6: cellbase shape.
	if err := VerifyCellbaseShape(block); err != nil {
		return DaoState{}, err
	}

	// Step 8 (computed ahead of step 5/6 so the DAO header check and the
	// reward check can both consume it): fees and DAO accounting.
	var totalFees, totalInterest, outputsOccupied, inputsOccupied uint64
	for i, rtx := range rtxs {
		if i == 0 {
			continue // cellbase pays no fee and consumes no live cell
		}
		fee, overflow := TxFee(v.spec, rtx)
		if overflow {
			return DaoState{}, ErrCapacityOverflow
		}
		totalFees += fee
		totalInterest += TotalWithdrawalInterest(v.spec, rtx)
	}
	for i, tx := range block.Transactions {
		outputsOccupied += sumOccupied(v.spec, tx.Outputs, tx.OutputsData)
		if i == 0 {
			continue
		}
		for _, in := range rtxs[i].ResolvedInputs {
			inputsOccupied += OccupiedCapacity(v.spec, in.Cell, in.Data)
		}
	}

	nextDao := NextDaoState(v.spec, prevDao, nextEpoch.Number, outputsOccupied, inputsOccupied, totalInterest)

	// Step 5: DAO header verification.
	if !nextDao.Field().Equal(block.Header.Dao) {
		return DaoState{}, ErrInvalidDAO
	}

	// Step 6 continued: reward amount and target.
	if err := VerifyReward(v.spec, v.chain, block, nextEpoch.PrimaryReward, nextEpoch.SecondaryReward, totalFees); err != nil {
		return DaoState{}, err
	}

	// Step 7: parallel per-transaction script verification.
	if _, err := v.txVerifier.Verify(ctx, rtxs); err != nil {
		return DaoState{}, err
	}

	return nextDao, nil
}

// verifyRoots checks the header's three merkle-style commitments against
// the block's actual transaction/proposal content (spec.md §3).
func verifyRoots(block *types.Block) error {
	hashes := make([]types.Hash, len(block.Transactions))
	witnesses := make([][][]byte, len(block.Transactions))
	for i, tx := range block.Transactions {
		hashes[i] = tx.Hash()
		witnesses[i] = tx.Witnesses
	}

	if types.TransactionsRoot(hashes) != block.Header.TransactionsRoot {
		return ErrUnmatchedCommittedRoot
	}
	if types.WitnessesRoot(witnesses) != block.Header.WitnessesRoot {
		return ErrUnmatchedWitnessesRoot
	}
	if types.ProposalsHash(block.Proposals) != block.Header.ProposalsHash {
		return ErrUnmatchedCommittedRoot
	}

	seen := make(map[types.ShortID]bool, len(block.Proposals))
	for _, id := range block.Proposals {
		if seen[id] {
			return ErrDuplicatedProposalTransactions
		}
		seen[id] = true
	}

	return nil
}
