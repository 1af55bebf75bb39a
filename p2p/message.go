// Package p2p implements the wire framing and libp2p transport adaptor
// for the sync/relay/alert protocols (spec.md §6): length-prefixed,
// typed envelopes, snappy-compressed payloads, malformed-framing bans.
package p2p

import (
	"encoding/binary"
	"errors"
)

// Protocol ids, one stream protocol per concern (spec.md §6 "fixed
// protocol ids — sync ... relay ... plus an alert channel").
const (
	ProtocolSync  = "/ckb/sync/1.0.0"
	ProtocolRelay = "/ckb/relay/1.0.0"
	ProtocolAlert = "/ckb/alert/1.0.0"
)

// MessageType tags an envelope's payload, one sum variant per handler
// named across spec.md §4.
type MessageType uint8

const (
	MsgGetHeaders MessageType = iota
	MsgHeaders
	MsgCompactBlock
	MsgGetBlockTransactions
	MsgBlockTransactions
	MsgBlockProposal
	MsgGetBlockProposal
	MsgAlert
)

// MaxMessageSize bounds a single envelope's compressed payload; a
// larger declared length is malformed framing (spec.md §6, §7).
const MaxMessageSize = 4 * 1024 * 1024

// lengthPrefixSize is the size in bytes of the big-endian length field
// that precedes every envelope on the wire.
const lengthPrefixSize = 4

var (
	// ErrMalformedFraming covers a declared length of zero, a length over
	// MaxMessageSize, or an undersized read (spec.md §7 "Malformed ...
	// framing ... → Ban").
	ErrMalformedFraming = errors.New("malformed message framing")
	// ErrUnknownMessageType is a malformed envelope whose type byte maps
	// to no known variant.
	ErrUnknownMessageType = errors.New("unknown message type")
)

// Envelope is one length-prefixed wire message: a type tag plus an
// opaque (snappy-compressed) payload.
type Envelope struct {
	Type    MessageType
	Payload []byte
}

func validType(t MessageType) bool {
	return t <= MsgAlert
}

// encodeLength returns n as a new lengthPrefixSize-byte big-endian
// length prefix.
func encodeLength(n int) []byte {
	buf := make([]byte, lengthPrefixSize)
	binary.BigEndian.PutUint32(buf, uint32(n))
	return buf
}

func decodeLength(buf []byte) int {
	return int(binary.BigEndian.Uint32(buf))
}
