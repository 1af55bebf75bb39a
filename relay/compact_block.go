// Package relay implements C11 (compact-block relay) and C12
// (transaction relay): short-id matching and reconstruction, the
// missing-index round trip, orphan pending-block tracking, and
// transaction announce/ask/admit.
package relay

import (
	"errors"
	"math/big"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	p2ppeer "github.com/libp2p/go-libp2p/core/peer"
	"golang.org/x/sync/singleflight"

	"github.com/nervosnetwork/ckb-go/peer"
	"github.com/nervosnetwork/ckb-go/store"
	"github.com/nervosnetwork/ckb-go/types"
	"github.com/nervosnetwork/ckb-go/verify"
)

// ErrUnknownParentView is returned when an announced compact block's
// parent header hasn't been seen yet; per spec.md §4.3 step 2 the caller
// should follow up with a GetHeaders request to that peer rather than
// attempt reconstruction.
var ErrUnknownParentView = errors.New("compact block parent not yet known")

// ErrStaleCompactBlock is returned when the announced block's total
// difficulty does not improve on the chain tip's, per spec.md §4.3 step
// 3 ("if cb.header.total_difficulty <= best_known.total_difficulty,
// drop").
var ErrStaleCompactBlock = errors.New("compact block does not improve on best known chain")

// TxPool is the subset of the transaction pool compact-block
// reconstruction needs: lookup by short id.
type TxPool interface {
	GetByShortID(id types.ShortID) (*types.Transaction, bool)
}

// PendingEntry is a compact block awaiting the transactions it is
// missing, per spec.md §3 "pending_compact_blocks: block_hash →
// (CompactBlock, peers_awaiting)".
type PendingEntry struct {
	CompactBlock   *types.CompactBlock
	MissingIndices []int
	Awaiting       map[p2ppeer.ID]bool
}

// CompactBlockRelayer holds the pending-block LRU and drives
// reconstruction.
type CompactBlockRelayer struct {
	pending *lru.Cache[types.Hash, *PendingEntry]
	pool    TxPool
	chain   store.ChainStore
	now     func() time.Time
	// group coalesces concurrent reconstruction attempts for the same
	// block hash (several peers relaying the same compact block at
	// once) into a single pool scan.
	group singleflight.Group
}

// NewCompactBlockRelayer builds a relayer with a capacity-bounded
// pending map; eviction is last-inserted-wins per spec.md §9. chain is
// consulted for the parent-lookup, total-difficulty and stateless
// header-verification gates (spec.md §4.3 steps 2-4) before
// reconstruction is attempted.
func NewCompactBlockRelayer(pool TxPool, chain store.ChainStore, capacity int) (*CompactBlockRelayer, error) {
	pending, err := lru.New[types.Hash, *PendingEntry](capacity)
	if err != nil {
		return nil, err
	}
	return &CompactBlockRelayer{pending: pending, pool: pool, chain: chain, now: time.Now}, nil
}

// reconstructOrder walks the compact block's combined index space and
// returns, per index, either the resolved transaction or nil; the
// indices left nil are listed in missing.
func reconstructOrder(cb *types.CompactBlock, pool TxPool) (txs []*types.Transaction, missing []int, err error) {
	prefilledByIndex := make(map[int]*types.Transaction, len(cb.PrefilledTransactions))
	lastIndex := -1
	for _, pf := range cb.PrefilledTransactions {
		idx := int(pf.Index)
		if idx <= lastIndex || idx >= cb.TxCount() {
			return nil, nil, verify.ErrInvalidPrefilledIndex
		}
		lastIndex = idx
		prefilledByIndex[idx] = pf.Tx
	}
	if len(cb.PrefilledTransactions) == 0 || cb.PrefilledTransactions[0].Index != 0 {
		return nil, nil, verify.ErrInvalidCellbasePosition
	}

	seen := make(map[types.ShortID]bool, len(cb.ShortIDs))
	for _, id := range cb.ShortIDs {
		if seen[id] {
			return nil, nil, verify.ErrShortIDCollision
		}
		seen[id] = true
	}

	txs = make([]*types.Transaction, cb.TxCount())
	shortIDCursor := 0
	for i := 0; i < cb.TxCount(); i++ {
		if tx, ok := prefilledByIndex[i]; ok {
			txs[i] = tx
			continue
		}
		id := cb.ShortIDs[shortIDCursor]
		shortIDCursor++
		if tx, ok := pool.GetByShortID(id); ok {
			txs[i] = tx
		} else {
			missing = append(missing, i)
		}
	}
	return txs, missing, nil
}

// HandleCompactBlock implements spec.md §4.3: a block already pending
// adds the sender to that entry's awaiting set and returns its missing
// indices, and a block already stored in full is dropped (step 1);
// otherwise it looks up the announced block's parent view (step 2),
// drops it if its total difficulty does not improve on the chain tip's
// (step 3), runs stateless header verification (step 4), then validates
// shape and attempts reconstruction against the pool (steps 5 and 6),
// returning either a ready-to-accept transaction list or the set of
// indices that must be requested via GetBlockTransactions.
func (r *CompactBlockRelayer) HandleCompactBlock(from p2ppeer.ID, cb *types.CompactBlock) (txs []*types.Transaction, missing []int, err error) {
	hash := cb.Hash()
	if entry, ok := r.pending.Get(hash); ok {
		entry.Awaiting[from] = true
		return nil, entry.MissingIndices, nil
	}
	if _, ok := r.chain.BlockByHash(hash); ok {
		return nil, nil, nil
	}

	if cb.Header.Number > 0 {
		parent, ok := r.chain.HeaderByHash(cb.Header.ParentHash)
		if !ok {
			return nil, nil, ErrUnknownParentView
		}

		parentTotal, ok := r.chain.TotalDifficultyOf(cb.Header.ParentHash)
		if !ok {
			parentTotal = new(big.Int)
		}
		diff := cb.Header.Difficulty
		if diff == nil {
			diff = new(big.Int)
		}
		announcedTotal := new(big.Int).Add(parentTotal, diff)
		if bestTotal, ok := r.chain.TotalDifficultyOf(r.chain.TipHash()); ok && announcedTotal.Cmp(bestTotal) <= 0 {
			return nil, nil, ErrStaleCompactBlock
		}

		if err := verify.VerifyHeaderStateless(parent, &cb.Header, r.now()); err != nil {
			return nil, nil, err
		}
	}

	type reconstructResult struct {
		txs     []*types.Transaction
		missing []int
	}
	v, err, _ := r.group.Do(hash.String(), func() (interface{}, error) {
		txs, missing, err := reconstructOrder(cb, r.pool)
		if err != nil {
			return nil, err
		}
		return reconstructResult{txs: txs, missing: missing}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	res := v.(reconstructResult)
	txs, missing = res.txs, res.missing
	if len(missing) == 0 {
		return txs, nil, nil
	}

	r.pending.Add(hash, &PendingEntry{
		CompactBlock:   cb,
		MissingIndices: missing,
		Awaiting:       map[p2ppeer.ID]bool{from: true},
	})
	return nil, missing, nil
}

// HandleBlockTransactions implements the BlockTransactions handler from
// spec.md §4.3: only peers in the awaiting set for blockHash are
// honored; the reply must have exactly as many transactions as were
// missing, and each must (in order) produce the short id at its index.
func (r *CompactBlockRelayer) HandleBlockTransactions(from p2ppeer.ID, blockHash types.Hash, txs []*types.Transaction) ([]*types.Transaction, error) {
	entry, ok := r.pending.Get(blockHash)
	if !ok || !entry.Awaiting[from] {
		return nil, peer.ErrUnsolicited
	}
	if len(txs) != len(entry.MissingIndices) {
		return nil, verify.ErrInvalidBlockTransactionsLength
	}

	full := make([]*types.Transaction, entry.CompactBlock.TxCount())
	for _, pf := range entry.CompactBlock.PrefilledTransactions {
		full[pf.Index] = pf.Tx
	}
	shortIDCursor := 0
	missingCursor := 0
	for i := 0; i < entry.CompactBlock.TxCount(); i++ {
		if full[i] != nil {
			continue
		}
		expected := entry.CompactBlock.ShortIDs[shortIDCursor]
		shortIDCursor++
		tx := txs[missingCursor]
		missingCursor++
		got := types.ShortIDFromHash(tx.Hash())
		if got != expected {
			return nil, &verify.InvalidBlockTransactionsError{Index: i, Expected: expected, Got: got}
		}
		full[i] = tx
	}

	r.pending.Remove(blockHash)
	return full, nil
}
