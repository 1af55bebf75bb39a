package consensus

import "github.com/nervosnetwork/ckb-go/types"

// CellbaseMature reports whether an input created by a cellbase at
// height h may be spent by a transaction being verified against tip
// tipNumber, per spec.md §4.5 "Cellbase maturity": tipNumber - h >=
// cellbase_maturity.
func (c *ChainSpec) CellbaseMature(tipNumber, h uint64) bool {
	if tipNumber < h {
		return false
	}
	return tipNumber-h >= c.CellbaseMaturity
}

// SinceContext is the per-block context since-maturity checks are
// evaluated against: the enclosing block's number/epoch and the median
// time of its ancestors (spec.md §4.5 "Since").
type SinceContext struct {
	BlockNumber uint64
	Epoch       types.EpochNumberWithFraction
	MedianTimeMs uint64
}

// InputContext is what the since check needs to know about the cell an
// input consumes: the block it was created in.
type InputContext struct {
	CreatedAtNumber uint64
	CreatedAtEpoch  types.EpochNumberWithFraction
	CreatedAtMedianTimeMs uint64
}

// SinceSatisfied evaluates a single input's Since constraint against the
// enclosing block and the input's creation context, per spec.md §4.5/§6.
func SinceSatisfied(s types.Since, blk SinceContext, input InputContext) bool {
	value := s.Value()
	switch s.Metric() {
	case types.SinceMetricBlockNumber:
		if s.IsRelative() {
			return blk.BlockNumber >= input.CreatedAtNumber+value
		}
		return blk.BlockNumber >= value
	case types.SinceMetricEpoch:
		if s.IsRelative() {
			return epochFractionGE(blk.Epoch, addEpochFraction(input.CreatedAtEpoch, value))
		}
		return epochFractionGE(blk.Epoch, unpackEpochValue(value))
	case types.SinceMetricTimestamp:
		if s.IsRelative() {
			return blk.MedianTimeMs >= input.CreatedAtMedianTimeMs+value*1000
		}
		return blk.MedianTimeMs >= value*1000
	default:
		return false
	}
}

// epoch-with-fraction values packed into a Since's 61-bit value field use
// the same number|index<<16|length<<32 layout the original CKB protocol
// uses for relative-epoch since values (distinct from the header's
// EpochNumberWithFraction packing, which has more room to spare).
func unpackEpochValue(v uint64) types.EpochNumberWithFraction {
	return types.EpochNumberWithFraction{
		Number: v & 0xFFFF,
		Index:  (v >> 16) & 0xFFFF,
		Length: (v >> 32) & 0xFFFF,
	}
}

func addEpochFraction(base types.EpochNumberWithFraction, v uint64) types.EpochNumberWithFraction {
	delta := unpackEpochValue(v)
	idx := base.Index + delta.Index
	num := base.Number + delta.Number
	length := base.Length
	if length == 0 {
		length = delta.Length
	}
	if length > 0 {
		for idx >= length {
			idx -= length
			num++
		}
	}
	return types.EpochNumberWithFraction{Number: num, Index: idx, Length: length}
}

// epochFractionGE compares a/b as rational numbers number + index/length.
func epochFractionGE(a, b types.EpochNumberWithFraction) bool {
	if a.Number != b.Number {
		return a.Number > b.Number
	}
	// a.Index/a.Length >= b.Index/b.Length, cross-multiplied.
	al, bl := a.Length, b.Length
	if al == 0 {
		al = 1
	}
	if bl == 0 {
		bl = 1
	}
	return a.Index*bl >= b.Index*al
}
