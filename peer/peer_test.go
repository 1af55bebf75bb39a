package peer

import (
	"fmt"
	"testing"
	"time"

	p2ppeer "github.com/libp2p/go-libp2p/core/peer"
	"github.com/stretchr/testify/assert"

	"github.com/nervosnetwork/ckb-go/types"
)

func peerID(i int) p2ppeer.ID {
	return p2ppeer.ID(fmt.Sprintf("peer-%d", i))
}

func TestUpdateBestKnownHeaderOnlyAdvances(t *testing.T) {
	p := New("peer1", true)
	p.UpdateBestKnownHeader(types.Hash{1}, 10)
	p.UpdateBestKnownHeader(types.Hash{2}, 5)
	hash, number := p.BestKnownHeader()
	assert.Equal(t, types.Hash{1}, hash)
	assert.Equal(t, uint64(10), number)
}

func TestShouldAskTxBackoffGrowsAdditively(t *testing.T) {
	p := New("peer1", true)
	now := time.Unix(0, 0)
	hash := types.Hash{9}

	assert.True(t, p.ShouldAskTx(hash, now))
	assert.False(t, p.ShouldAskTx(hash, now.Add(29*time.Second)))
	assert.True(t, p.ShouldAskTx(hash, now.Add(30*time.Second)))
	// second retry interval grows to 60s
	assert.False(t, p.ShouldAskTx(hash, now.Add(30*time.Second+59*time.Second)))
	assert.True(t, p.ShouldAskTx(hash, now.Add(30*time.Second+60*time.Second)))
}

func TestMisbehaveBansAtThreshold(t *testing.T) {
	p := New("peer1", true)
	banned := p.Misbehave(MisbehaviorInvalidBlockTransactions)
	assert.False(t, banned)
	banned = p.Misbehave(MisbehaviorInvalidBlockTransactions)
	assert.False(t, banned)
	banned = p.Misbehave(MisbehaviorInvalidBlockTransactions)
	assert.True(t, banned)
	assert.Equal(t, StateBanned, p.State())
}

func TestMisbehaveMalformedFramingBansImmediately(t *testing.T) {
	p := New("peer1", true)
	assert.True(t, p.Misbehave(MisbehaviorMalformedFraming))
}

func TestProtectOutboundPeersShieldsHighestTip(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 6; i++ {
		p := New(peerID(i), true)
		p.UpdateBestKnownHeader(types.Hash{byte(i)}, uint64(i))
		r.Add(p)
	}
	protected := r.ProtectOutboundPeers()
	assert.Len(t, protected, MinProtectedOutboundPeers)
	for _, p := range protected {
		_, n := p.BestKnownHeader()
		assert.GreaterOrEqual(t, n, uint64(2))
	}
}
