// Package store defines the read-only ChainStore contract (C2) the
// verification and propagation cores query against, plus an in-memory
// implementation used by tests and a leveldb-backed one used by the
// integration harness. Persisted-bytes ownership and the write path are
// explicitly out of scope (spec.md Non-goals: "on-disk key-value engine
// internals").
package store

import (
	"errors"
	"math/big"

	"github.com/nervosnetwork/ckb-go/types"
)

// ErrNotFound names a missed lookup. The ChainStore methods do not
// return it; they report a miss through their boolean result.
var ErrNotFound = errors.New("not found")

// ChainStore is the read-only query surface over the canonical chain
// (spec.md §2 C2). All methods operate on the main chain only; uncles
// and forks are queried through the dedicated methods below.
type ChainStore interface {
	HeaderByHash(h types.Hash) (*types.Header, bool)
	HeaderByNumber(number uint64) (*types.Header, bool)
	BlockByHash(h types.Hash) (*types.Block, bool)
	HashByNumber(number uint64) (types.Hash, bool)
	TipNumber() uint64
	TipHash() types.Hash

	// TotalDifficultyOf returns the cumulative chain-work total for the
	// block identified by h (its own difficulty plus every ancestor's),
	// used by compact-block relay (C11) to gate an announced block
	// against the current best known chain before attempting
	// reconstruction (spec.md §4.3 step 3).
	TotalDifficultyOf(h types.Hash) (*big.Int, bool)

	// Uncles indexed by the block that included them.
	UnclesOf(blockHash types.Hash) []types.UncleBlock
	IsUncle(h types.Hash) bool
	UncleParentNumber(h types.Hash) (uint64, bool)

	// ProposalIDsOf returns the proposal short ids a block itself
	// proposed (its own Proposals field), used by commit verification
	// (C6) to build the proposal-window union.
	ProposalIDsOf(blockHash types.Hash) ([]types.ShortID, bool)

	EpochExtOf(blockHash types.Hash) (*types.EpochExt, bool)
}

// ResolverStore is the subset of ChainStore the resolved-tx builder (C3)
// needs to look up live cells; split out so test doubles that only model
// the UTXO set don't need to implement the full ChainStore surface.
type ResolverStore interface {
	LiveCell(op types.OutPoint) (types.ResolvedCellOutput, bool)
}
