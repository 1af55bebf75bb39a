package verify

import (
	"github.com/nervosnetwork/ckb-go/store"
	"github.com/nervosnetwork/ckb-go/types"
)

// HeaderResolver resolves a header dep to a full header, looking in
// both the main chain and, during compact-block reconstruction, a set
// of not-yet-accepted pending headers (spec.md §4.3 step 4, §4.5
// "Header deps").
type HeaderResolver interface {
	ResolveHeaderDep(h types.Hash) (*types.Header, bool)
}

// ResolveTransaction builds a ResolvedTransaction by looking each input's
// and cell-dep's out-point up in resolver, and each header dep up in
// headers. consumed tracks out-points already spent earlier in the same
// block so double-spends within a block are rejected (spec.md §3
// "ResolvedTransaction").
func ResolveTransaction(tx *types.Transaction, resolver store.ResolverStore, headers HeaderResolver, consumed map[types.OutPoint]bool) (*types.ResolvedTransaction, error) {
	rtx := &types.ResolvedTransaction{Transaction: tx}

	for _, in := range tx.Inputs {
		op := in.PreviousOutput
		if consumed[op] {
			return nil, ErrDoubleSpend
		}
		cell, ok := resolver.LiveCell(op)
		if !ok {
			return nil, ErrMissingCellDep
		}
		consumed[op] = true
		rtx.ResolvedInputs = append(rtx.ResolvedInputs, cell)
	}

	for _, dep := range tx.CellDeps {
		cell, ok := resolver.LiveCell(dep)
		if !ok {
			return nil, ErrMissingCellDep
		}
		rtx.ResolvedDepCells = append(rtx.ResolvedDepCells, cell)
	}

	for _, hd := range tx.HeaderDeps {
		hdr, ok := headers.ResolveHeaderDep(hd)
		if !ok {
			return nil, ErrUnknownParent
		}
		rtx.ResolvedHeaderDeps = append(rtx.ResolvedHeaderDeps, hdr)
	}

	return rtx, nil
}

// ResolveBlockTransactions resolves every non-cellbase transaction in a
// block in order, sharing one consumed-set so a transaction cannot spend
// an output another transaction in the same block already spent. The
// cellbase at index 0 is never looked up in resolver: its sole input is
// the synthetic zero-hash/0xFFFFFFFF out-point (types.Transaction.
// IsCellbase), which no live-cell store ever holds, so it gets an empty
// placeholder ResolvedTransaction instead, keeping index i aligned with
// txs for callers (matches the i == 0 special-case in verify/block.go
// and verify/commit.go).
func ResolveBlockTransactions(txs []*types.Transaction, resolver store.ResolverStore, headers HeaderResolver) ([]*types.ResolvedTransaction, error) {
	consumed := make(map[types.OutPoint]bool, len(txs))
	out := make([]*types.ResolvedTransaction, 0, len(txs))
	for i, tx := range txs {
		if i == 0 {
			out = append(out, &types.ResolvedTransaction{Transaction: tx})
			continue
		}
		rtx, err := ResolveTransaction(tx, resolver, headers, consumed)
		if err != nil {
			return nil, err
		}
		out = append(out, rtx)
	}
	return out, nil
}
