package sync

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nervosnetwork/ckb-go/peer"
	"github.com/nervosnetwork/ckb-go/store"
	"github.com/nervosnetwork/ckb-go/types"
)

func TestInIBDWhenTipIsStale(t *testing.T) {
	mem := store.NewMemStore()
	mem.InsertBlock(&types.Block{Header: types.Header{Number: 0, TimestampMs: 0}}, &types.EpochExt{Length: 10})

	e := NewEngine(mem, peer.NewRegistry())
	e.now = func() time.Time { return time.UnixMilli(0).Add(48 * time.Hour) }
	assert.True(t, e.InIBD())
}

func TestInIBDFalseWhenTipIsFresh(t *testing.T) {
	mem := store.NewMemStore()
	now := time.Now()
	mem.InsertBlock(&types.Block{Header: types.Header{Number: 0, TimestampMs: uint64(now.UnixMilli())}}, &types.EpochExt{Length: 10})

	e := NewEngine(mem, peer.NewRegistry())
	e.now = func() time.Time { return now }
	assert.False(t, e.InIBD())
}

func TestHandleGetHeadersReturnsInIBDMarker(t *testing.T) {
	mem := store.NewMemStore()
	mem.InsertBlock(&types.Block{Header: types.Header{Number: 0, TimestampMs: 0}}, &types.EpochExt{Length: 10})

	e := NewEngine(mem, peer.NewRegistry())
	e.now = func() time.Time { return time.UnixMilli(0).Add(48 * time.Hour) }

	p := peer.New("p1", true)
	res, err := e.HandleGetHeaders(p, types.BlockLocator{})
	require.NoError(t, err)
	assert.True(t, res.InIBD)
	assert.Empty(t, res.Headers)
}

func TestHandleGetHeadersRejectsOversizedLocator(t *testing.T) {
	mem := store.NewMemStore()
	e := NewEngine(mem, peer.NewRegistry())
	hashes := make([]types.Hash, types.MaxLocatorHashes+1)
	_, err := e.HandleGetHeaders(peer.New("p1", true), types.BlockLocator{Hashes: hashes})
	assert.ErrorIs(t, err, ErrMalformedLocator)
}

func TestHandleGetHeadersRepliesFromCommonAncestor(t *testing.T) {
	mem := store.NewMemStore()
	now := time.Now()
	genesis := &types.Block{Header: types.Header{Number: 0, TimestampMs: uint64(now.UnixMilli())}}
	mem.InsertBlock(genesis, &types.EpochExt{Length: 1000})
	b1 := &types.Block{Header: types.Header{Number: 1, ParentHash: genesis.Hash(), TimestampMs: uint64(now.UnixMilli())}}
	mem.InsertBlock(b1, &types.EpochExt{Length: 1000})

	e := NewEngine(mem, peer.NewRegistry())
	e.now = func() time.Time { return now }

	res, err := e.HandleGetHeaders(peer.New("p1", true), types.BlockLocator{Hashes: []types.Hash{genesis.Hash()}})
	require.NoError(t, err)
	require.Len(t, res.Headers, 1)
	assert.Equal(t, uint64(1), res.Headers[0].Number)
}

func TestProcessHeadersRecordsUnknownParent(t *testing.T) {
	mem := store.NewMemStore()
	e := NewEngine(mem, peer.NewRegistry())
	p := peer.New("p1", true)

	orphan := &types.Header{Number: 5, ParentHash: types.BytesToHash([]byte("missing"))}
	parentHash, needParent, err := e.ProcessHeaders(p, []*types.Header{orphan})
	require.NoError(t, err)
	assert.True(t, needParent)
	assert.Equal(t, orphan.ParentHash, parentHash)
	assert.True(t, p.HasUnknownParent(orphan.Hash()))
}

func TestProcessHeadersAcceptsWellFormedHeader(t *testing.T) {
	mem := store.NewMemStore()
	now := time.Now()
	genesis := &types.Block{Header: types.Header{Number: 0, TimestampMs: uint64(now.UnixMilli())}}
	mem.InsertBlock(genesis, &types.EpochExt{Length: 1000})

	e := NewEngine(mem, peer.NewRegistry())
	e.now = func() time.Time { return now.Add(time.Second) }
	p := peer.New("p1", true)

	h := &types.Header{
		Number:      1,
		ParentHash:  genesis.Hash(),
		TimestampMs: uint64(now.Add(time.Second).UnixMilli()),
		Difficulty:  big.NewInt(1),
	}
	_, needParent, err := e.ProcessHeaders(p, []*types.Header{h})
	require.NoError(t, err)
	assert.False(t, needParent)
	bestHash, bestNumber := p.BestKnownHeader()
	assert.Equal(t, h.Hash(), bestHash)
	assert.Equal(t, uint64(1), bestNumber)
}

func TestProcessHeadersRejectsInvalidHeaderAndMisbehaves(t *testing.T) {
	mem := store.NewMemStore()
	now := time.Now()
	genesis := &types.Block{Header: types.Header{Number: 0, TimestampMs: uint64(now.UnixMilli())}}
	mem.InsertBlock(genesis, &types.EpochExt{Length: 1000})

	e := NewEngine(mem, peer.NewRegistry())
	e.now = func() time.Time { return now.Add(time.Second) }
	p := peer.New("p1", true)

	// Timestamp does not advance past the parent's: fails stateless verify.
	h := &types.Header{
		Number:      1,
		ParentHash:  genesis.Hash(),
		TimestampMs: uint64(now.UnixMilli()),
		Difficulty:  big.NewInt(1),
	}
	_, needParent, err := e.ProcessHeaders(p, []*types.Header{h})
	assert.Error(t, err)
	assert.False(t, needParent)
	assert.Equal(t, uint64(peer.BanThreshold), p.Score())
	bestHash, bestNumber := p.BestKnownHeader()
	assert.Equal(t, types.Hash{}, bestHash)
	assert.Equal(t, uint64(0), bestNumber)
}
