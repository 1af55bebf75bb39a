package relay

import (
	"testing"

	p2ppeer "github.com/libp2p/go-libp2p/core/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nervosnetwork/ckb-go/types"
)

type fakePoolSubmitter struct {
	byHash    map[types.Hash]*types.Transaction
	byShortID map[types.ShortID]*types.Transaction
	submitted []*types.Transaction
}

func newFakePoolSubmitter() *fakePoolSubmitter {
	return &fakePoolSubmitter{
		byHash:    make(map[types.Hash]*types.Transaction),
		byShortID: make(map[types.ShortID]*types.Transaction),
	}
}

func (f *fakePoolSubmitter) SubmitAsync(tx *types.Transaction, onDone func(err error)) {
	f.submitted = append(f.submitted, tx)
	f.byHash[tx.Hash()] = tx
	f.byShortID[tx.ProposalShortID()] = tx
	onDone(nil)
}

func (f *fakePoolSubmitter) GetByHash(hash types.Hash) (*types.Transaction, bool) {
	tx, ok := f.byHash[hash]
	return tx, ok
}

func (f *fakePoolSubmitter) GetByShortID(id types.ShortID) (*types.Transaction, bool) {
	tx, ok := f.byShortID[id]
	return tx, ok
}

func TestHandleBlockProposalOnlySubmitsRequestedSurvivors(t *testing.T) {
	pool := newFakePoolSubmitter()
	r := NewTransactionRelayer(pool, nil)

	requested := txWithNonce(1)
	unrequested := txWithNonce(2)
	r.RequestProposal([]types.ShortID{requested.ProposalShortID()})

	r.HandleBlockProposal([]*types.Transaction{requested, unrequested})

	require.Len(t, pool.submitted, 1)
	assert.Equal(t, requested, pool.submitted[0])
}

func TestHandleBlockProposalSkipsAlreadyKnown(t *testing.T) {
	pool := newFakePoolSubmitter()
	r := NewTransactionRelayer(pool, nil)

	tx := txWithNonce(1)
	pool.byHash[tx.Hash()] = tx
	r.RequestProposal([]types.ShortID{tx.ProposalShortID()})

	r.HandleBlockProposal([]*types.Transaction{tx})

	assert.Empty(t, pool.submitted)
}

func TestHandleGetBlockProposalSplitsFoundAndMissing(t *testing.T) {
	pool := newFakePoolSubmitter()
	r := NewTransactionRelayer(pool, nil)

	known := txWithNonce(1)
	pool.byShortID[known.ProposalShortID()] = known
	unknownID := txWithNonce(2).ProposalShortID()

	from := p2ppeer.ID("asker")
	found, missing := r.HandleGetBlockProposal(from, []types.ShortID{known.ProposalShortID(), unknownID})

	require.Len(t, found, 1)
	assert.Equal(t, known, found[0])
	require.Equal(t, []types.ShortID{unknownID}, missing)
}

func TestResolvePendingProposalReturnsAndClearsWaiters(t *testing.T) {
	pool := newFakePoolSubmitter()
	r := NewTransactionRelayer(pool, nil)

	id := txWithNonce(1).ProposalShortID()
	_, missing := r.HandleGetBlockProposal(p2ppeer.ID("p1"), []types.ShortID{id})
	require.Equal(t, []types.ShortID{id}, missing)

	waiters := r.ResolvePendingProposal(id)
	assert.Equal(t, []p2ppeer.ID{"p1"}, waiters)

	assert.Empty(t, r.ResolvePendingProposal(id))
}
