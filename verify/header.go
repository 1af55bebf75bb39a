package verify

import (
	"errors"
	"math/big"
	"time"

	"github.com/nervosnetwork/ckb-go/types"
)

// MaxFutureDrift bounds how far a header's timestamp may sit ahead of
// wall-clock time before it is rejected outright (spec.md §4.1/§4.3
// "stateless verify ... timestamp sanity").
const MaxFutureDrift = 15 * time.Second

var (
	ErrFutureTimestamp         = errors.New("header timestamp too far in the future")
	ErrTimestampNotAfterParent = errors.New("header timestamp not after parent")
	ErrBadHeaderContinuity     = errors.New("header number/parent hash does not follow parent")
	ErrMissingDifficulty       = errors.New("header missing difficulty")
	ErrProofOfWorkInvalid      = errors.New("proof of work does not meet required difficulty")
)

// maxTarget is the largest possible header-hash value (2^256 - 1); the
// PoW threshold for a given difficulty is maxTarget/difficulty, the same
// inverse relationship as Bitcoin-family difficulty targets.
var maxTarget = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// VerifyHeaderStateless runs the checks spec.md §4.1/§4.3 call "stateless
// verify (PoW, timestamp sanity, merkle shapes)" against a bare header
// and its already-known parent, with no further chain state consulted.
// Root-content merkle shape checking (do TransactionsRoot/ProposalsHash/
// WitnessesRoot actually match the block body) needs the full block, not
// just the header, and is covered once one arrives by verifyRoots in
// verify/verify.go; here "shape" means the header-only continuity check
// below. Both the header-sync engine (C9, before accepting a new best
// known header in ProcessHeaders) and the compact-block relay (C11,
// before attempting reconstruction of an announced block in
// HandleCompactBlock) run an incoming header through this gate.
func VerifyHeaderStateless(parent, header *types.Header, now time.Time) error {
	// Shape: number and declared parent hash must actually follow parent,
	// the header-only analogue of verifyRoots' internal-consistency
	// checks over a block's declared commitments.
	if header.Number != parent.Number+1 || header.ParentHash != parent.Hash() {
		return ErrBadHeaderContinuity
	}

	// Timestamp sanity.
	if time.UnixMilli(int64(header.TimestampMs)).After(now.Add(MaxFutureDrift)) {
		return ErrFutureTimestamp
	}
	if header.TimestampMs <= parent.TimestampMs {
		return ErrTimestampNotAfterParent
	}

	// Proof of work: the header hash, read as a big-endian integer, must
	// not exceed the target implied by the claimed difficulty.
	if header.Difficulty == nil || header.Difficulty.Sign() <= 0 {
		return ErrMissingDifficulty
	}
	target := new(big.Int).Div(maxTarget, header.Difficulty)
	hashInt := new(big.Int).SetBytes(header.Hash().Bytes())
	if hashInt.Cmp(target) > 0 {
		return ErrProofOfWorkInvalid
	}

	return nil
}
