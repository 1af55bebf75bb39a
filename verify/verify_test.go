package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nervosnetwork/ckb-go/store"
	"github.com/nervosnetwork/ckb-go/types"
)

func TestVerifyRootsDetectsTamperedTransactionsRoot(t *testing.T) {
	tx := &types.Transaction{Outputs: []types.CellOutput{{Capacity: 1}}}
	block := &types.Block{
		Header:       types.Header{TransactionsRoot: types.BytesToHash([]byte("wrong"))},
		Transactions: []*types.Transaction{tx},
	}
	err := verifyRoots(block)
	assert.ErrorIs(t, err, ErrUnmatchedCommittedRoot)
}

func TestVerifyRootsAcceptsMatchingRoots(t *testing.T) {
	tx := &types.Transaction{Outputs: []types.CellOutput{{Capacity: 1}}, Witnesses: [][]byte{[]byte("sig")}}
	proposals := []types.ShortID{{1, 2, 3}}
	block := &types.Block{
		Header: types.Header{
			TransactionsRoot: types.TransactionsRoot([]types.Hash{tx.Hash()}),
			WitnessesRoot:    types.WitnessesRoot([][][]byte{tx.Witnesses}),
			ProposalsHash:    types.ProposalsHash(proposals),
		},
		Transactions: []*types.Transaction{tx},
		Proposals:    proposals,
	}
	assert.NoError(t, verifyRoots(block))
}

func TestVerifyRootsRejectsDuplicateProposals(t *testing.T) {
	tx := &types.Transaction{Outputs: []types.CellOutput{{Capacity: 1}}}
	id := types.ShortID{9}
	proposals := []types.ShortID{id, id}
	block := &types.Block{
		Header: types.Header{
			TransactionsRoot: types.TransactionsRoot([]types.Hash{tx.Hash()}),
			WitnessesRoot:    types.WitnessesRoot([][][]byte{nil}),
			ProposalsHash:    types.ProposalsHash(proposals),
		},
		Transactions: []*types.Transaction{tx},
		Proposals:    proposals,
	}
	err := verifyRoots(block)
	assert.ErrorIs(t, err, ErrDuplicatedProposalTransactions)
}

func TestVerifyBlockRejectsUnknownParent(t *testing.T) {
	v := NewVerifier(nil, store.NewMemStore(), nil, nil, nil)
	block := &types.Block{Header: types.Header{Number: 1, ParentHash: types.BytesToHash([]byte("missing"))}}
	_, err := v.VerifyBlock(nil, block, DaoState{})
	var parentErr *UnknownParentError
	assert.ErrorAs(t, err, &parentErr)
}
