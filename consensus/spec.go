// Package consensus holds the immutable protocol constants shared by the
// verification and propagation cores (C1), plus the small amount of pure
// arithmetic (epoch derivation, proposal window bounds) every other
// package needs to agree on.
package consensus

import "github.com/nervosnetwork/ckb-go/types"

// ProposalWindow is the (closest, farthest) pair from spec.md §4.5/GLOSSARY:
// a tx must be proposed in an ancestor at depth [closest, farthest]
// before it can be committed.
type ProposalWindow struct {
	Closest  uint64
	Farthest uint64
}

// ChainSpec is the set of consensus parameters consulted throughout
// verification; it is built once at startup and never mutated, mirroring
// the teacher's `params.EnvironmentValue` "construct once, `Copy()` to
// share" convention.
type ChainSpec struct {
	ProposalWindow    ProposalWindow
	CellbaseMaturity  uint64 // in blocks
	MedianTimeBlockCount uint64
	MaxBlockCycles    uint64
	MaxUncleNum       uint64
	GenesisEpochExt   types.EpochExt
	SatoshiPubkeyHash types.Hash
	SatoshiCellOccupiedRatio Ratio
	DaoTypeHash       types.Hash // identifies DAO deposit/withdrawal cells by their type script code hash
	PrimaryEpochReward func(epoch uint64) uint64
	SecondaryEpochReward func(epoch uint64) uint64
	InitialPrimaryIssuance uint64
	InitialAR              uint64 // ar(0), spec.md §4.6: 10^16
}

// Ratio is a numerator/denominator pair, avoiding floating point in
// consensus-critical math.
type Ratio struct {
	Numer uint64
	Denom uint64
}

func (r Ratio) Apply(v uint64) uint64 {
	if r.Denom == 0 {
		return 0
	}
	return v * r.Numer / r.Denom
}

// Copy returns an independent copy of the spec (the function fields are
// shared by reference, which is safe: they're pure and never mutated).
func (c *ChainSpec) Copy() *ChainSpec {
	cp := *c
	return &cp
}

// DefaultMainnet returns a ChainSpec with the constants named in
// spec.md §4 (proposal window, cellbase maturity, DAO ar(0)). It sets
// no epoch reward schedule (spec.md Non-goals: "the monetary-supply
// schedule beyond what verification needs"): PrimaryEpochReward and
// SecondaryEpochReward are nil, and the DAO and epoch calculators that
// call them panic on a spec that leaves them so.
func DefaultMainnet() *ChainSpec {
	return &ChainSpec{
		ProposalWindow:       ProposalWindow{Closest: 2, Farthest: 10},
		CellbaseMaturity:     4 * 60 * 24, // ~4 days at one block per minute
		MedianTimeBlockCount: 37,
		MaxBlockCycles:       3_500_000_000,
		MaxUncleNum:          2,
		SatoshiCellOccupiedRatio: Ratio{Numer: 6, Denom: 10},
		InitialAR:            10_000_000_000_000_000, // 10^16
	}
}
