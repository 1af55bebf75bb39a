package types

// PrefilledTransaction pins a transaction at its original block index
// inside a compact block, per spec.md §3.
type PrefilledTransaction struct {
	Index uint32
	Tx    *Transaction
}

// CompactBlock is the relay wire format from spec.md §3. ShortIDs is
// indexed by (block index - number of prefilled transactions before it);
// reconstruction walks both lists in index order, see relay package.
type CompactBlock struct {
	Header               Header
	ShortIDs             []ShortID
	PrefilledTransactions []PrefilledTransaction
	Nonce                [16]byte
}

func (cb *CompactBlock) Hash() Hash { return cb.Header.Hash() }

// TxCount is the total number of transactions the reconstructed block
// will contain.
func (cb *CompactBlock) TxCount() int {
	return len(cb.ShortIDs) + len(cb.PrefilledTransactions)
}
