package consensus

import (
	"testing"

	"github.com/nervosnetwork/ckb-go/types"
	"github.com/stretchr/testify/assert"
)

func TestCellbaseMature(t *testing.T) {
	spec := DefaultMainnet()
	assert.False(t, spec.CellbaseMature(100, 99))
	assert.True(t, spec.CellbaseMature(100+spec.CellbaseMaturity, 100))
	assert.False(t, spec.CellbaseMature(100+spec.CellbaseMaturity-1, 100))
}

func TestSinceSatisfiedRelativeBlockNumber(t *testing.T) {
	s := types.NewSince(true, types.SinceMetricBlockNumber, 10)
	blk := SinceContext{BlockNumber: 109}
	in := InputContext{CreatedAtNumber: 100}
	assert.False(t, SinceSatisfied(s, blk, in))
	blk.BlockNumber = 110
	assert.True(t, SinceSatisfied(s, blk, in))
}

func TestSinceSatisfiedAbsoluteBlockNumber(t *testing.T) {
	s := types.NewSince(false, types.SinceMetricBlockNumber, 500)
	assert.False(t, SinceSatisfied(s, SinceContext{BlockNumber: 499}, InputContext{}))
	assert.True(t, SinceSatisfied(s, SinceContext{BlockNumber: 500}, InputContext{}))
}

func TestSinceSatisfiedRelativeTimestamp(t *testing.T) {
	s := types.NewSince(true, types.SinceMetricTimestamp, 3600) // 1h in seconds
	in := InputContext{CreatedAtMedianTimeMs: 1_000_000}
	assert.False(t, SinceSatisfied(s, SinceContext{MedianTimeMs: 1_000_000 + 3599*1000}, in))
	assert.True(t, SinceSatisfied(s, SinceContext{MedianTimeMs: 1_000_000 + 3600*1000}, in))
}

func TestNextEpochExtReusesWhenNotBoundary(t *testing.T) {
	spec := DefaultMainnet()
	spec.PrimaryEpochReward = func(uint64) uint64 { return 100 }
	spec.SecondaryEpochReward = func(uint64) uint64 { return 10 }
	parent := &types.EpochExt{Number: 1, Length: 10, StartNumber: 100}
	got := NextEpochExt(spec, parent, 105, 1000)
	assert.Equal(t, parent.Number, got.Number)
}

func TestNextEpochExtAdvancesAtBoundary(t *testing.T) {
	spec := DefaultMainnet()
	spec.PrimaryEpochReward = func(uint64) uint64 { return 100 }
	spec.SecondaryEpochReward = func(uint64) uint64 { return 10 }
	parent := &types.EpochExt{Number: 1, Length: 10, StartNumber: 100}
	got := NextEpochExt(spec, parent, 109, 1000) // last block of epoch 1 is 109
	assert.Equal(t, uint64(2), got.Number)
	assert.Equal(t, uint64(110), got.StartNumber)
	assert.Equal(t, uint64(100), got.PrimaryReward)
}
