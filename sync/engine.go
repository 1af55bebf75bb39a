// Package sync implements C9 (header sync engine) and C10 (block
// download scheduler): locator exchange, IBD detection, per-peer best
// known header, chain-sync timeouts, and adaptive batch download sizing.
package sync

import (
	"errors"
	"time"

	"github.com/nervosnetwork/ckb-go/peer"
	"github.com/nervosnetwork/ckb-go/store"
	"github.com/nervosnetwork/ckb-go/types"
	"github.com/nervosnetwork/ckb-go/verify"
)

// IBDThreshold is how far behind wall-clock the tip must be before the
// node considers itself in initial block download (spec.md §4.1
// "tip_time < now - 24h").
const IBDThreshold = 24 * time.Hour

// ErrMalformedLocator is returned (and the sending peer banned) when a
// locator exceeds types.MaxLocatorHashes (spec.md §4.1, §8 "Locator bound").
var ErrMalformedLocator = errors.New("locator exceeds maximum length")

// ErrUnknownKind names a message kind the engine does not recognize, a
// ban offense (spec.md §9). No function in this package returns it:
// unknown type bytes are rejected by the p2p framing layer as
// p2p.ErrUnknownMessageType before any handler runs.
var ErrUnknownKind = errors.New("unknown message kind")

// Engine drives the header-sync state machine against one chain store.
type Engine struct {
	chain    store.ChainStore
	registry *peer.Registry
	now      func() time.Time
}

func NewEngine(chain store.ChainStore, registry *peer.Registry) *Engine {
	return &Engine{chain: chain, registry: registry, now: time.Now}
}

// InIBD evaluates the IBD predicate against the store's current tip.
func (e *Engine) InIBD() bool {
	tipHash := e.chain.TipHash()
	tip, ok := e.chain.HeaderByHash(tipHash)
	if !ok {
		return true
	}
	tipTime := time.UnixMilli(int64(tip.TimestampMs))
	return tipTime.Before(e.now().Add(-IBDThreshold))
}

// GetHeadersResult is the outcome of handling an inbound GetHeaders.
type GetHeadersResult struct {
	InIBD   bool
	Headers []*types.Header
}

// HandleGetHeaders implements spec.md §4.1's GetHeaders handler: while in
// IBD the engine replies InIBD and remembers the requester's locator only
// for outbound/whitelisted/protected peers; otherwise it finds the common
// ancestor and replies with up to types.MaxHeadersPerReply headers.
func (e *Engine) HandleGetHeaders(p *peer.Peer, locator types.BlockLocator) (GetHeadersResult, error) {
	if locator.Oversized() {
		p.Misbehave(peer.MisbehaviorOverLimitLocator)
		return GetHeadersResult{}, ErrMalformedLocator
	}

	if e.InIBD() {
		if p.Outbound || p.Whitelisted || p.Protected {
			p.UpdateBestKnownHeader(locatorHead(locator), 0)
		}
		return GetHeadersResult{InIBD: true}, nil
	}

	ancestor, ok := e.findCommonAncestor(locator)
	if !ok {
		return GetHeadersResult{}, nil
	}

	headers := make([]*types.Header, 0, types.MaxHeadersPerReply)
	number := ancestor.Number + 1
	for len(headers) < types.MaxHeadersPerReply {
		h, ok := e.chain.HeaderByNumber(number)
		if !ok {
			break
		}
		if h.Hash() == locator.HashStop {
			break
		}
		headers = append(headers, h)
		number++
	}
	return GetHeadersResult{Headers: headers}, nil
}

func locatorHead(l types.BlockLocator) types.Hash {
	if len(l.Hashes) == 0 {
		return types.Hash{}
	}
	return l.Hashes[0]
}

// findCommonAncestor walks a locator looking for the first hash that is
// on our main chain (spec.md §4.1). HashStop is not consulted here; it
// only ends the reply loop in HandleGetHeaders.
func (e *Engine) findCommonAncestor(locator types.BlockLocator) (*types.Header, bool) {
	for _, h := range locator.Hashes {
		if hdr, ok := e.chain.HeaderByHash(h); ok {
			if mainHash, ok := e.chain.HashByNumber(hdr.Number); ok && mainHash == h {
				return hdr, true
			}
		}
	}
	return nil, false
}

// ProcessHeaders implements the SendHeaders handler (spec.md §4.1): each
// header is first run through stateless verification (PoW, timestamp
// sanity, merkle shapes), then attached to its known parent in order; if
// a header's parent is unknown, it is remembered under the peer's
// unknown_parent_list instead of being accepted, and the caller should
// follow up with a GetHeaders request (spec.md: "request headers from
// that peer"). A header that fails stateless verification is rejected
// and its sender is scored as misbehaving; processing of the batch stops
// there.
func (e *Engine) ProcessHeaders(p *peer.Peer, headers []*types.Header) (needsParentHash types.Hash, needParent bool, err error) {
	for _, h := range headers {
		parent, ok := e.chain.HeaderByHash(h.ParentHash)
		if !ok && h.Number > 0 {
			p.RememberUnknownParent(h.Hash(), e.now())
			return h.ParentHash, true, nil
		}
		if h.Number > 0 {
			if verr := verify.VerifyHeaderStateless(parent, h, e.now()); verr != nil {
				p.Misbehave(peer.MisbehaviorInvalidHeader)
				return types.Hash{}, false, verr
			}
		}
		p.UpdateBestKnownHeader(h.Hash(), h.Number)
	}
	return types.Hash{}, false, nil
}
