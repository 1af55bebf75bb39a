package p2p

import (
	"context"
	"errors"
	"sync"

	libp2phost "github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"
	"github.com/multiformats/go-multiaddr"
	"golang.org/x/time/rate"

	ckbpeer "github.com/nervosnetwork/ckb-go/peer"
)

// perPeerMessageRate and perPeerMessageBurst bound how many envelopes a
// single peer may have processed per second before further ones are
// dropped silently, per spec.md §5 "if a peer's ask queue grows past
// the per-peer limit, further asks are dropped silently".
const (
	perPeerMessageRate  = 200
	perPeerMessageBurst = 400
)

// Handler processes one decoded envelope from a stream opened by from.
// Returning an error that is not a framing error just drops the stream;
// a framing error additionally bans the peer.
type Handler func(from peer.ID, env Envelope) error

// Host wraps a libp2p host.Host, multiplexing the three fixed protocol
// ids onto per-type handlers and enforcing the framing ban policy.
type Host struct {
	host     libp2phost.Host
	registry *ckbpeer.Registry
	handlers map[MessageType]Handler

	limiterMu sync.Mutex
	limiters  map[peer.ID]*rate.Limiter
}

// NewHost registers stream handlers for sync, relay, and alert on h.
func NewHost(h libp2phost.Host, registry *ckbpeer.Registry) *Host {
	ph := &Host{
		host:     h,
		registry: registry,
		handlers: make(map[MessageType]Handler),
		limiters: make(map[peer.ID]*rate.Limiter),
	}
	h.SetStreamHandler(protocol.ID(ProtocolSync), ph.serve)
	h.SetStreamHandler(protocol.ID(ProtocolRelay), ph.serve)
	h.SetStreamHandler(protocol.ID(ProtocolAlert), ph.serve)
	return ph
}

// limiterFor returns (creating if necessary) the inbound-message rate
// limiter for a peer.
func (ph *Host) limiterFor(id peer.ID) *rate.Limiter {
	ph.limiterMu.Lock()
	defer ph.limiterMu.Unlock()
	l, ok := ph.limiters[id]
	if !ok {
		l = rate.NewLimiter(rate.Limit(perPeerMessageRate), perPeerMessageBurst)
		ph.limiters[id] = l
	}
	return l
}

// OnMessage registers the handler invoked for envelopes of type t
// arriving on any of the three protocols.
func (ph *Host) OnMessage(t MessageType, h Handler) {
	ph.handlers[t] = h
}

func (ph *Host) serve(s network.Stream) {
	defer s.Close()
	remote := s.Conn().RemotePeer()

	for {
		env, err := ReadEnvelope(s)
		if err != nil {
			ph.banForFraming(remote, err)
			return
		}
		if !ph.limiterFor(remote).Allow() {
			continue // over the per-peer rate: dropped silently, not scored
		}

		handler, ok := ph.handlers[env.Type]
		if !ok {
			continue
		}
		if err := handler(remote, env); err != nil {
			ph.banForFraming(remote, err)
			return
		}
	}
}

// banForFraming applies the immediate-ban policy from spec.md §7 for
// malformed framing or an unrecognized message type; any other handler
// error is not a framing violation and is left to the caller's own
// misbehavior scoring.
func (ph *Host) banForFraming(remote peer.ID, err error) {
	if !errors.Is(err, ErrMalformedFraming) && !errors.Is(err, ErrUnknownMessageType) {
		return
	}
	if p, ok := ph.registry.Get(remote); ok {
		p.Misbehave(ckbpeer.MisbehaviorMalformedFraming)
	}
}

// Send opens a new stream to dst over protocolID and writes env,
// closing the stream once the write completes.
func (ph *Host) Send(ctx context.Context, dst peer.ID, protocolID string, env Envelope) error {
	s, err := ph.host.NewStream(ctx, dst, protocol.ID(protocolID))
	if err != nil {
		return err
	}
	defer s.Close()
	return WriteEnvelope(s, env)
}

// AddrInfo is a thin re-export so callers constructing bootstrap peers
// don't need to import multiformats directly.
type AddrInfo = peer.AddrInfo

// ParseMultiaddr parses a multiaddr string, used when wiring bootstrap
// peers from configuration.
func ParseMultiaddr(s string) (multiaddr.Multiaddr, error) {
	return multiaddr.NewMultiaddr(s)
}
