package types

import (
	"encoding/binary"
	"math/big"
)

// Header is the block header described in spec.md §3. Number is always
// parent's number + 1; Hash is the block's identity and is computed
// deterministically from the remaining fields.
type Header struct {
	ParentHash       Hash
	Number           uint64
	TimestampMs      uint64
	Difficulty       *big.Int
	EpochPacked      uint64 // EpochNumberWithFraction, see epoch.go
	TransactionsRoot Hash
	ProposalsHash    Hash
	WitnessesRoot    Hash
	Dao              DaoField
	Nonce            [16]byte
}

// Hash computes the header's identity hash. Every field that is part of
// consensus is folded in; the nonce is included last so that mining
// (nonce search) only ever needs to rehash a fixed-size suffix.
func (h *Header) Hash() Hash {
	buf := make([]byte, 0, 8*4+HashLength*4+32+16+8)
	buf = appendUint64(buf, h.Number)
	buf = appendUint64(buf, h.TimestampMs)
	buf = appendUint64(buf, h.EpochPacked)
	buf = append(buf, h.ParentHash[:]...)
	buf = append(buf, h.TransactionsRoot[:]...)
	buf = append(buf, h.ProposalsHash[:]...)
	buf = append(buf, h.WitnessesRoot[:]...)
	buf = append(buf, h.Dao.Bytes()[:]...)
	if h.Difficulty != nil {
		buf = append(buf, h.Difficulty.Bytes()...)
	}
	buf = append(buf, h.Nonce[:]...)
	return hashDigest(buf)
}

func appendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

// EpochNumberWithFraction returns the parsed epoch number, index within the
// epoch, and epoch length packed into EpochPacked per spec.md §6:
// number | (index << 24) | (length << 40), all within the lower 56 bits.
type EpochNumberWithFraction struct {
	Number uint64
	Index  uint64
	Length uint64
}

const (
	epochNumberMask = (uint64(1) << 24) - 1
	epochIndexMask  = (uint64(1) << 16) - 1
	epochLengthMask = (uint64(1) << 16) - 1
)

func PackEpoch(e EpochNumberWithFraction) uint64 {
	return (e.Number & epochNumberMask) |
		((e.Index & epochIndexMask) << 24) |
		((e.Length & epochLengthMask) << 40)
}

func UnpackEpoch(packed uint64) EpochNumberWithFraction {
	return EpochNumberWithFraction{
		Number: packed & epochNumberMask,
		Index:  (packed >> 24) & epochIndexMask,
		Length: (packed >> 40) & epochLengthMask,
	}
}

func (h *Header) Epoch() EpochNumberWithFraction { return UnpackEpoch(h.EpochPacked) }
