package relay

import (
	"math/big"
	"testing"
	"time"

	p2ppeer "github.com/libp2p/go-libp2p/core/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nervosnetwork/ckb-go/peer"
	"github.com/nervosnetwork/ckb-go/store"
	"github.com/nervosnetwork/ckb-go/types"
	"github.com/nervosnetwork/ckb-go/verify"
)

type fakeTxPool struct {
	byShortID map[types.ShortID]*types.Transaction
}

func newFakeTxPool() *fakeTxPool {
	return &fakeTxPool{byShortID: make(map[types.ShortID]*types.Transaction)}
}

func (f *fakeTxPool) GetByShortID(id types.ShortID) (*types.Transaction, bool) {
	tx, ok := f.byShortID[id]
	return tx, ok
}

func (f *fakeTxPool) add(tx *types.Transaction) {
	f.byShortID[tx.ProposalShortID()] = tx
}

func txWithNonce(n byte) *types.Transaction {
	return &types.Transaction{Witnesses: [][]byte{{n}}, OutputsData: [][]byte{{n}}}
}

func cellbaseTx() *types.Transaction {
	return &types.Transaction{
		Inputs: []types.CellInput{{PreviousOutput: types.OutPoint{Index: 0xFFFFFFFF}}},
	}
}

func TestHandleCompactBlockReconstructsFullyWhenPoolHasEverything(t *testing.T) {
	pool := newFakeTxPool()
	tx1 := txWithNonce(1)
	tx2 := txWithNonce(2)
	pool.add(tx1)
	pool.add(tx2)

	cb := &types.CompactBlock{
		PrefilledTransactions: []types.PrefilledTransaction{{Index: 0, Tx: cellbaseTx()}},
		ShortIDs:              []types.ShortID{tx1.ProposalShortID(), tx2.ProposalShortID()},
	}

	r, err := NewCompactBlockRelayer(pool, store.NewMemStore(), 16)
	require.NoError(t, err)

	txs, missing, err := r.HandleCompactBlock(p2ppeer.ID("p1"), cb)
	require.NoError(t, err)
	assert.Empty(t, missing)
	require.Len(t, txs, 3)
	assert.Equal(t, tx1, txs[1])
	assert.Equal(t, tx2, txs[2])
}

func TestHandleCompactBlockReportsMissingAndStoresPending(t *testing.T) {
	pool := newFakeTxPool()
	tx1 := txWithNonce(1)
	missingTx := txWithNonce(2)
	pool.add(tx1)

	cb := &types.CompactBlock{
		PrefilledTransactions: []types.PrefilledTransaction{{Index: 0, Tx: cellbaseTx()}},
		ShortIDs:              []types.ShortID{tx1.ProposalShortID(), missingTx.ProposalShortID()},
	}

	r, err := NewCompactBlockRelayer(pool, store.NewMemStore(), 16)
	require.NoError(t, err)

	txs, missing, err := r.HandleCompactBlock(p2ppeer.ID("p1"), cb)
	require.NoError(t, err)
	assert.Nil(t, txs)
	assert.Equal(t, []int{2}, missing)

	// A second peer announcing the same compact block joins the awaiting set.
	txs2, missing2, err := r.HandleCompactBlock(p2ppeer.ID("p2"), cb)
	require.NoError(t, err)
	assert.Nil(t, txs2)
	assert.Equal(t, []int{2}, missing2)
}

func TestHandleCompactBlockRejectsShortIDCollision(t *testing.T) {
	pool := newFakeTxPool()
	dup := types.ShortID{1}
	cb := &types.CompactBlock{
		PrefilledTransactions: []types.PrefilledTransaction{{Index: 0, Tx: cellbaseTx()}},
		ShortIDs:              []types.ShortID{dup, dup},
	}
	r, err := NewCompactBlockRelayer(pool, store.NewMemStore(), 16)
	require.NoError(t, err)

	_, _, err = r.HandleCompactBlock(p2ppeer.ID("p1"), cb)
	assert.ErrorIs(t, err, verify.ErrShortIDCollision)
}

func TestHandleCompactBlockRejectsOutOfOrderPrefilledIndex(t *testing.T) {
	pool := newFakeTxPool()
	cb := &types.CompactBlock{
		PrefilledTransactions: []types.PrefilledTransaction{
			{Index: 0, Tx: cellbaseTx()},
			{Index: 0, Tx: txWithNonce(1)},
		},
		ShortIDs: []types.ShortID{},
	}
	r, err := NewCompactBlockRelayer(pool, store.NewMemStore(), 16)
	require.NoError(t, err)

	_, _, err = r.HandleCompactBlock(p2ppeer.ID("p1"), cb)
	assert.ErrorIs(t, err, verify.ErrInvalidPrefilledIndex)
}

func TestHandleCompactBlockRejectsMissingCellbasePrefill(t *testing.T) {
	pool := newFakeTxPool()
	tx1 := txWithNonce(1)
	pool.add(tx1)
	cb := &types.CompactBlock{
		PrefilledTransactions: nil,
		ShortIDs:              []types.ShortID{tx1.ProposalShortID()},
	}
	r, err := NewCompactBlockRelayer(pool, store.NewMemStore(), 16)
	require.NoError(t, err)

	_, _, err = r.HandleCompactBlock(p2ppeer.ID("p1"), cb)
	assert.ErrorIs(t, err, verify.ErrInvalidCellbasePosition)
}

func TestHandleBlockTransactionsCompletesReconstruction(t *testing.T) {
	pool := newFakeTxPool()
	tx1 := txWithNonce(1)
	missingTx := txWithNonce(2)
	pool.add(tx1)

	cb := &types.CompactBlock{
		PrefilledTransactions: []types.PrefilledTransaction{{Index: 0, Tx: cellbaseTx()}},
		ShortIDs:              []types.ShortID{tx1.ProposalShortID(), missingTx.ProposalShortID()},
	}
	r, err := NewCompactBlockRelayer(pool, store.NewMemStore(), 16)
	require.NoError(t, err)

	from := p2ppeer.ID("p1")
	_, missing, err := r.HandleCompactBlock(from, cb)
	require.NoError(t, err)
	require.Equal(t, []int{2}, missing)

	full, err := r.HandleBlockTransactions(from, cb.Hash(), []*types.Transaction{missingTx})
	require.NoError(t, err)
	require.Len(t, full, 3)
	assert.Equal(t, missingTx, full[2])
}

func TestHandleBlockTransactionsRejectsUnsolicitedPeer(t *testing.T) {
	pool := newFakeTxPool()
	tx1 := txWithNonce(1)
	missingTx := txWithNonce(2)
	pool.add(tx1)
	cb := &types.CompactBlock{
		PrefilledTransactions: []types.PrefilledTransaction{{Index: 0, Tx: cellbaseTx()}},
		ShortIDs:              []types.ShortID{tx1.ProposalShortID(), missingTx.ProposalShortID()},
	}
	r, err := NewCompactBlockRelayer(pool, store.NewMemStore(), 16)
	require.NoError(t, err)

	_, _, err = r.HandleCompactBlock(p2ppeer.ID("p1"), cb)
	require.NoError(t, err)

	_, err = r.HandleBlockTransactions(p2ppeer.ID("stranger"), cb.Hash(), []*types.Transaction{missingTx})
	assert.ErrorIs(t, err, peer.ErrUnsolicited)
}

func TestHandleBlockTransactionsRejectsWrongCount(t *testing.T) {
	pool := newFakeTxPool()
	tx1 := txWithNonce(1)
	missingTx := txWithNonce(2)
	pool.add(tx1)
	cb := &types.CompactBlock{
		PrefilledTransactions: []types.PrefilledTransaction{{Index: 0, Tx: cellbaseTx()}},
		ShortIDs:              []types.ShortID{tx1.ProposalShortID(), missingTx.ProposalShortID()},
	}
	r, err := NewCompactBlockRelayer(pool, store.NewMemStore(), 16)
	require.NoError(t, err)

	from := p2ppeer.ID("p1")
	_, _, err = r.HandleCompactBlock(from, cb)
	require.NoError(t, err)

	_, err = r.HandleBlockTransactions(from, cb.Hash(), nil)
	assert.ErrorIs(t, err, verify.ErrInvalidBlockTransactionsLength)
}

func TestHandleCompactBlockRequestsHeadersForUnknownParent(t *testing.T) {
	pool := newFakeTxPool()
	mem := store.NewMemStore()
	r, err := NewCompactBlockRelayer(pool, mem, 16)
	require.NoError(t, err)

	cb := &types.CompactBlock{
		Header:                types.Header{Number: 1, ParentHash: types.BytesToHash([]byte("nope"))},
		PrefilledTransactions: []types.PrefilledTransaction{{Index: 0, Tx: cellbaseTx()}},
	}
	_, _, err = r.HandleCompactBlock(p2ppeer.ID("p1"), cb)
	assert.ErrorIs(t, err, ErrUnknownParentView)
}

func TestHandleCompactBlockDropsStaleAnnouncement(t *testing.T) {
	pool := newFakeTxPool()
	mem := store.NewMemStore()
	genesis := &types.Block{Header: types.Header{Number: 0, Difficulty: big.NewInt(10)}}
	mem.InsertBlock(genesis, &types.EpochExt{Length: 10})
	tip := &types.Block{Header: types.Header{Number: 1, ParentHash: genesis.Hash(), Difficulty: big.NewInt(10)}}
	mem.InsertBlock(tip, &types.EpochExt{Length: 10})

	r, err := NewCompactBlockRelayer(pool, mem, 16)
	require.NoError(t, err)

	cb := &types.CompactBlock{
		Header: types.Header{
			Number:     1,
			ParentHash: genesis.Hash(),
			Difficulty: big.NewInt(1), // 10 + 1 = 11, not > tip's 20
		},
		PrefilledTransactions: []types.PrefilledTransaction{{Index: 0, Tx: cellbaseTx()}},
	}
	_, _, err = r.HandleCompactBlock(p2ppeer.ID("p1"), cb)
	assert.ErrorIs(t, err, ErrStaleCompactBlock)
}

func TestHandleCompactBlockRejectsBadHeaderBeforeReconstructing(t *testing.T) {
	pool := newFakeTxPool()
	mem := store.NewMemStore()
	now := time.Now()
	genesis := &types.Block{Header: types.Header{Number: 0, TimestampMs: uint64(now.UnixMilli()), Difficulty: big.NewInt(1)}}
	mem.InsertBlock(genesis, &types.EpochExt{Length: 10})

	r, err := NewCompactBlockRelayer(pool, mem, 16)
	require.NoError(t, err)
	r.now = func() time.Time { return now }

	cb := &types.CompactBlock{
		Header: types.Header{
			Number:      1,
			ParentHash:  genesis.Hash(),
			TimestampMs: uint64(now.UnixMilli()), // not after parent
			Difficulty:  big.NewInt(1),
		},
		PrefilledTransactions: []types.PrefilledTransaction{{Index: 0, Tx: cellbaseTx()}},
	}
	_, _, err = r.HandleCompactBlock(p2ppeer.ID("p1"), cb)
	assert.ErrorIs(t, err, verify.ErrTimestampNotAfterParent)
}

func TestHandleBlockTransactionsRejectsShortIDMismatch(t *testing.T) {
	pool := newFakeTxPool()
	tx1 := txWithNonce(1)
	missingTx := txWithNonce(2)
	wrongTx := txWithNonce(99)
	pool.add(tx1)
	cb := &types.CompactBlock{
		PrefilledTransactions: []types.PrefilledTransaction{{Index: 0, Tx: cellbaseTx()}},
		ShortIDs:              []types.ShortID{tx1.ProposalShortID(), missingTx.ProposalShortID()},
	}
	r, err := NewCompactBlockRelayer(pool, store.NewMemStore(), 16)
	require.NoError(t, err)

	from := p2ppeer.ID("p1")
	_, _, err = r.HandleCompactBlock(from, cb)
	require.NoError(t, err)

	_, err = r.HandleBlockTransactions(from, cb.Hash(), []*types.Transaction{wrongTx})
	var mismatch *verify.InvalidBlockTransactionsError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 2, mismatch.Index)
}
