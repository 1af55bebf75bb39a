package types

// ResolvedCellOutput pairs a live cell with the header of the block that
// created it, needed for median-time and DAO accounting (spec.md §3).
type ResolvedCellOutput struct {
	Cell        CellOutput
	Data        []byte
	CreatedBy   OutPoint
	BlockHash   Hash
	BlockNumber uint64
	EpochPacked uint64
}

// ResolvedTransaction is a transaction plus, for each input, the live
// cell and its creating header (spec.md §3). HeaderDeps mirrors
// tx.HeaderDeps resolved to full headers for the same reason.
type ResolvedTransaction struct {
	Transaction      *Transaction
	ResolvedInputs   []ResolvedCellOutput
	ResolvedDepCells []ResolvedCellOutput
	ResolvedHeaderDeps []*Header
}

func (rtx *ResolvedTransaction) InputCapacity() uint64 {
	var sum uint64
	for _, c := range rtx.ResolvedInputs {
		sum += c.Cell.Capacity
	}
	return sum
}

func (rtx *ResolvedTransaction) OutputCapacity() uint64 {
	var sum uint64
	for _, o := range rtx.Transaction.Outputs {
		sum += o.Capacity
	}
	return sum
}
