package types

// Transaction is the wire/data model from spec.md §3.
type Transaction struct {
	CellDeps    []OutPoint
	HeaderDeps  []Hash
	Inputs      []CellInput
	Outputs     []CellOutput
	OutputsData [][]byte
	Witnesses   [][]byte
}

// Hash computes the transaction's identity hash over every field except
// witnesses (witnesses are committed separately via WitnessesRoot so that
// signatures can be swapped without changing the tx id).
func (tx *Transaction) Hash() Hash {
	buf := make([]byte, 0, 256)
	for _, d := range tx.CellDeps {
		buf = append(buf, d.TxHash[:]...)
		buf = appendUint64(buf, uint64(d.Index))
	}
	for _, d := range tx.HeaderDeps {
		buf = append(buf, d[:]...)
	}
	for _, in := range tx.Inputs {
		buf = append(buf, in.PreviousOutput.TxHash[:]...)
		buf = appendUint64(buf, uint64(in.PreviousOutput.Index))
		buf = appendUint64(buf, uint64(in.Since))
	}
	for _, out := range tx.Outputs {
		buf = appendUint64(buf, out.Capacity)
		buf = append(buf, out.Lock.CodeHash[:]...)
		buf = append(buf, out.Lock.HashType)
		buf = append(buf, out.Lock.Args...)
		if out.Type != nil {
			buf = append(buf, out.Type.CodeHash[:]...)
			buf = append(buf, out.Type.HashType)
			buf = append(buf, out.Type.Args...)
		}
	}
	for _, d := range tx.OutputsData {
		buf = append(buf, d...)
	}
	return hashDigest(buf)
}

// ProposalShortID is the first ShortIDLength bytes of the tx hash, used to
// propose and to match compact-block short ids (spec.md §3, GLOSSARY).
func (tx *Transaction) ProposalShortID() ShortID {
	return ShortIDFromHash(tx.Hash())
}

// IsCellbase reports whether tx has the single-synthetic-input shape of a
// cellbase transaction: exactly one input whose previous output is the
// null out-point, a zero tx hash with index 0xFFFFFFFF (no real cell is
// spent; the input only carries the block number via Since, per
// GLOSSARY).
func (tx *Transaction) IsCellbase() bool {
	if len(tx.Inputs) != 1 {
		return false
	}
	in := tx.Inputs[0].PreviousOutput
	return in.TxHash.IsZero() && in.Index == 0xFFFFFFFF
}

// WitnessesRoot is a simple ordered merkle-style commitment over
// witnesses; kept intentionally independent of tx hash so re-witnessing
// a transaction never changes its id.
func WitnessesRoot(witnessesPerTx [][][]byte) Hash {
	buf := make([]byte, 0, 256)
	for _, ws := range witnessesPerTx {
		for _, w := range ws {
			buf = append(buf, w...)
		}
	}
	return hashDigest(buf)
}

// TransactionsRoot commits to the ordered list of transaction hashes.
func TransactionsRoot(hashes []Hash) Hash {
	buf := make([]byte, 0, len(hashes)*HashLength)
	for _, h := range hashes {
		buf = append(buf, h[:]...)
	}
	return hashDigest(buf)
}

// ProposalsHash commits to the ordered list of proposal short ids.
func ProposalsHash(ids []ShortID) Hash {
	buf := make([]byte, 0, len(ids)*ShortIDLength)
	for _, id := range ids {
		buf = append(buf, id[:]...)
	}
	return hashDigest(buf)
}
