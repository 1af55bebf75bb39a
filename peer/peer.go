// Package peer implements C13: per-peer connection flags, header sync
// state, and misbehavior scoring.
package peer

import (
	"sort"
	"sync"
	"time"

	p2ppeer "github.com/libp2p/go-libp2p/core/peer"

	"github.com/nervosnetwork/ckb-go/types"
)

// State is a peer's position in the sync state machine from spec.md
// §4.1: `{Unknown, HandshakeSent, Headers, Blocks, Stalled, Banned}`.
type State int

const (
	StateUnknown State = iota
	StateHandshakeSent
	StateHeaders
	StateBlocks
	StateStalled
	StateBanned
)

// Peer tracks everything the sync/relay cores need about one connection.
type Peer struct {
	ID          p2ppeer.ID
	Outbound    bool
	Whitelisted bool
	Protected   bool

	mu sync.Mutex

	state              State
	bestKnownHash      types.Hash
	bestKnownNumber    uint64
	unknownParentList  map[types.Hash]time.Time
	txAlreadyAsked     map[types.Hash]time.Time
	txAskInterval      map[types.Hash]time.Duration
	syncTimeoutDeadline time.Time
	score              uint64
}

func New(id p2ppeer.ID, outbound bool) *Peer {
	return &Peer{
		ID:                id,
		Outbound:          outbound,
		state:             StateUnknown,
		unknownParentList: make(map[types.Hash]time.Time),
		txAlreadyAsked:    make(map[types.Hash]time.Time),
		txAskInterval:     make(map[types.Hash]time.Duration),
	}
}

func (p *Peer) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Peer) SetState(s State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = s
}

func (p *Peer) BestKnownHeader() (types.Hash, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bestKnownHash, p.bestKnownNumber
}

// UpdateBestKnownHeader records a peer's announced tip if it advances
// their previously known best (spec.md §4.1 "per-peer best_known_header").
func (p *Peer) UpdateBestKnownHeader(hash types.Hash, number uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if number > p.bestKnownNumber {
		p.bestKnownHash = hash
		p.bestKnownNumber = number
	}
}

// RememberUnknownParent records a header whose parent hasn't been seen
// yet, per spec.md §3 "headers that fail to find a parent are not
// stored; their hash is remembered under unknown_parent_list per peer".
func (p *Peer) RememberUnknownParent(h types.Hash, now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unknownParentList[h] = now
}

func (p *Peer) ForgetUnknownParent(h types.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.unknownParentList, h)
}

func (p *Peer) HasUnknownParent(h types.Hash) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.unknownParentList[h]
	return ok
}

// askBackoffStep is the per-retry growth of the re-ask interval for an
// already-announced transaction (spec.md §4.4: "the interval between
// repeated asks grows by 30s").
const askBackoffStep = 30 * time.Second

// ShouldAskTx reports whether hash should be requested from this peer
// right now, and records the attempt if so.
func (p *Peer) ShouldAskTx(hash types.Hash, now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	next, asked := p.txAlreadyAsked[hash]
	if asked && now.Before(next) {
		return false
	}
	interval := askBackoffStep
	if asked {
		interval = p.txAskInterval[hash] + askBackoffStep
	}
	p.txAskInterval[hash] = interval
	p.txAlreadyAsked[hash] = now.Add(interval)
	return true
}

// MarkTxKnown drops the ask-backoff entry for a tx the peer no longer
// needs to be asked about (it announced a hash already in the pool, or
// the tx was received).
func (p *Peer) MarkTxKnown(hash types.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.txAlreadyAsked, hash)
	delete(p.txAskInterval, hash)
}

// Misbehavior weights, per spec.md §7/§9 "every rejection carries a kind
// and a weight; weights accumulate per-peer, thresholds trigger bans."
type Misbehavior int

const (
	MisbehaviorMalformedFraming Misbehavior = iota
	MisbehaviorOverLimitLocator
	MisbehaviorShortIDCollision
	MisbehaviorInvalidBlockTransactions
	MisbehaviorInvalidPrefilledIndex
	MisbehaviorNoCommonAncestor
	MisbehaviorBlockFetchTimeout
	MisbehaviorInvalidHeader
	MisbehaviorStaleCompactBlock
)

var misbehaviorWeight = map[Misbehavior]uint64{
	MisbehaviorMalformedFraming:         100, // bans outright
	MisbehaviorOverLimitLocator:         100,
	MisbehaviorShortIDCollision:         100,
	MisbehaviorInvalidBlockTransactions: 34,
	MisbehaviorInvalidPrefilledIndex:    34,
	MisbehaviorNoCommonAncestor:         100,
	MisbehaviorBlockFetchTimeout:        34,
	MisbehaviorInvalidHeader:            100, // fails PoW/timestamp/continuity: bans outright
	MisbehaviorStaleCompactBlock:        20,
}

// BanThreshold is the cumulative score at which a peer is disconnected
// and banned (spec.md §4.2 "three strikes" maps to 3*34 ≈ this).
const BanThreshold = 100

// Misbehave applies kind's weight to the peer's running score and
// reports whether the peer has now crossed the ban threshold.
func (p *Peer) Misbehave(kind Misbehavior) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.score += misbehaviorWeight[kind]
	if p.score >= BanThreshold {
		p.state = StateBanned
		return true
	}
	return false
}

// SyncTimeoutDeadline and SetSyncTimeoutDeadline track the chain-sync
// timeout deadline the sync engine (C9) arms for outbound peers not on
// our best chain (spec.md §4.1 "12 minutes after the last forward
// progress").
func (p *Peer) SyncTimeoutDeadline() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.syncTimeoutDeadline
}

func (p *Peer) SetSyncTimeoutDeadline(t time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.syncTimeoutDeadline = t
}

func (p *Peer) Score() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.score
}

// Registry tracks every connected peer, mirroring the teacher's
// sorted-map-of-participants-with-lookup shape (consensus/oasys
// validator snapshot) repurposed for connection bookkeeping.
type Registry struct {
	mu    sync.RWMutex
	peers map[p2ppeer.ID]*Peer
}

func NewRegistry() *Registry {
	return &Registry{peers: make(map[p2ppeer.ID]*Peer)}
}

func (r *Registry) Add(p *Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peers[p.ID] = p
}

func (r *Registry) Remove(id p2ppeer.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.peers, id)
}

func (r *Registry) Get(id p2ppeer.ID) (*Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.peers[id]
	return p, ok
}

// IDs returns a snapshot of every currently registered peer id.
func (r *Registry) IDs() []p2ppeer.ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]p2ppeer.ID, 0, len(r.peers))
	for id := range r.peers {
		ids = append(ids, id)
	}
	return ids
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

// MinProtectedOutboundPeers is the floor on how many outbound peers the
// chain-sync timeout logic shields from eviction (spec.md §4.1 "protection
// shields at least 4 outbound peers").
const MinProtectedOutboundPeers = 4

// ProtectOutboundPeers marks up to MinProtectedOutboundPeers outbound,
// non-banned peers as protected, preferring those with the highest
// announced tip (a proxy for total-difficulty preference used by the
// teacher's validator-selection ordering).
func (r *Registry) ProtectOutboundPeers() []*Peer {
	r.mu.RLock()
	var candidates []*Peer
	for _, p := range r.peers {
		if p.Outbound && p.State() != StateBanned {
			candidates = append(candidates, p)
		}
	}
	r.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool {
		_, ni := candidates[i].BestKnownHeader()
		_, nj := candidates[j].BestKnownHeader()
		return ni > nj
	})

	n := MinProtectedOutboundPeers
	if n > len(candidates) {
		n = len(candidates)
	}
	protected := candidates[:n]
	for _, p := range protected {
		p.Protected = true
	}
	return protected
}
