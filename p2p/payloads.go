package p2p

import (
	"bytes"
	"encoding/gob"

	"github.com/nervosnetwork/ckb-go/types"
)

// Concrete wire payloads for each MessageType. No library in the
// example pack offers a schema'd serialization format for this
// boundary (RLP is absent; protobuf is only a transitive dependency
// via prometheus), so payload encoding falls back to stdlib
// encoding/gob, decoded after the framing/snappy layer above has
// already rejected malformed input.
type (
	GetHeadersPayload struct {
		Locator types.BlockLocator
	}
	HeadersPayload struct {
		Headers []*types.Header
	}
	CompactBlockPayload struct {
		Block *types.CompactBlock
	}
	GetBlockTransactionsPayload struct {
		BlockHash types.Hash
		Indices   []int
	}
	BlockTransactionsPayload struct {
		BlockHash    types.Hash
		Transactions []*types.Transaction
	}
	BlockProposalPayload struct {
		Transactions []*types.Transaction
	}
	GetBlockProposalPayload struct {
		ShortIDs []types.ShortID
	}
)

// EncodePayload gob-encodes v for inclusion in an Envelope's Payload
// field (framing.go compresses it onto the wire separately).
func EncodePayload(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodePayload gob-decodes an envelope payload into v, which must be a
// pointer to one of the Xxx Payload types above.
func DecodePayload(payload []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(payload)).Decode(v)
}
