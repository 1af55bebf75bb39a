package sync

import (
	"time"

	"github.com/nervosnetwork/ckb-go/peer"
)

// ChainSyncTimeout is how long an outbound peer not on our best chain is
// given to make forward progress before being a candidate for eviction
// (spec.md §4.1 "12 minutes after the last forward progress").
const ChainSyncTimeout = 12 * time.Minute

// ArmTimeout (re)starts an outbound peer's chain-sync deadline. Per
// spec.md §9 open question 3, timeout management only applies to peers
// that are not currently in IBD with us and are outbound — inbound and
// IBD-state peers are never evicted by this mechanism.
func (e *Engine) ArmTimeout(p *peer.Peer) {
	if !p.Outbound {
		return
	}
	if e.InIBD() {
		return
	}
	p.SetSyncTimeoutDeadline(e.now().Add(ChainSyncTimeout))
}

// CheckTimeouts evicts outbound peers past their chain-sync deadline
// that are not currently protected (spec.md §4.1 "protection shields at
// least 4 outbound peers").
func (e *Engine) CheckTimeouts() []*peer.Peer {
	e.registry.ProtectOutboundPeers()

	var evicted []*peer.Peer
	for _, id := range e.registry.IDs() {
		p, ok := e.registry.Get(id)
		if !ok || !p.Outbound || p.Protected {
			continue
		}
		deadline := p.SyncTimeoutDeadline()
		if deadline.IsZero() || e.now().Before(deadline) {
			continue
		}
		p.SetState(peer.StateBanned)
		evicted = append(evicted, p)
	}
	return evicted
}
