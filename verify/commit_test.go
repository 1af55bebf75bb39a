package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nervosnetwork/ckb-go/consensus"
	"github.com/nervosnetwork/ckb-go/store"
	"github.com/nervosnetwork/ckb-go/types"
)

func chainWithProposal(t *testing.T, window consensus.ProposalWindow, proposalDepth uint64) (*consensus.ChainSpec, *store.MemStore, types.Hash, uint64, *types.Transaction) {
	t.Helper()
	spec := consensus.DefaultMainnet()
	spec.ProposalWindow = window

	mem := store.NewMemStore()
	committedTx := &types.Transaction{Outputs: []types.CellOutput{{Capacity: 1}}}

	var tipHash types.Hash
	var tipNumber uint64
	for n := uint64(0); n <= window.Farthest+2; n++ {
		b := &types.Block{Header: types.Header{Number: n}}
		if n > 0 {
			parent, _ := mem.HeaderByHash(tipHash)
			b.Header.ParentHash = parent.Hash()
		}
		if n == proposalDepth {
			b.Proposals = []types.ShortID{committedTx.ProposalShortID()}
		}
		mem.InsertBlock(b, &types.EpochExt{Length: 1000})
		tipHash = b.Hash()
		tipNumber = n
	}
	return spec, mem, tipHash, tipNumber, committedTx
}

func TestVerifyCommitAcceptsProposedTransaction(t *testing.T) {
	window := consensus.ProposalWindow{Closest: 2, Farthest: 10}
	spec, mem, tipHash, tipNumber, committedTx := chainWithProposal(t, window, tipNumberMinusWindow(window))
	_ = tipHash

	cellbase := &types.Transaction{Inputs: []types.CellInput{{PreviousOutput: types.OutPoint{Index: 0xFFFFFFFF}}}}
	err := VerifyCommit(spec, mem, mem.TipHash(), tipNumber, []*types.Transaction{cellbase, committedTx})
	require.NoError(t, err)
}

func TestVerifyCommitRejectsUnproposedTransaction(t *testing.T) {
	window := consensus.ProposalWindow{Closest: 2, Farthest: 10}
	spec, mem, _, tipNumber, _ := chainWithProposal(t, window, tipNumberMinusWindow(window))

	cellbase := &types.Transaction{Inputs: []types.CellInput{{PreviousOutput: types.OutPoint{Index: 0xFFFFFFFF}}}}
	unproposed := &types.Transaction{Outputs: []types.CellOutput{{Capacity: 99}}}
	err := VerifyCommit(spec, mem, mem.TipHash(), tipNumber, []*types.Transaction{cellbase, unproposed})
	assert.ErrorIs(t, err, ErrNotInProposalWindow)
}

// tipNumberMinusWindow picks the height of the proposing block. The
// committing block is Farthest+3 (one past the tip built by
// chainWithProposal), so this height sits Closest+3 blocks back from it,
// inside [closest, farthest] for the window the tests use.
func tipNumberMinusWindow(window consensus.ProposalWindow) uint64 {
	return window.Farthest - window.Closest
}
