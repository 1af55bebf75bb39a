package relay

import (
	"sync"

	p2ppeer "github.com/libp2p/go-libp2p/core/peer"

	"github.com/nervosnetwork/ckb-go/types"
)

// PoolSubmitter is the subset of the transaction pool C12 needs for
// admission: asynchronous verify-and-admit of a freshly relayed tx.
type PoolSubmitter interface {
	SubmitAsync(tx *types.Transaction, onDone func(err error))
	GetByHash(hash types.Hash) (*types.Transaction, bool)
	GetByShortID(id types.ShortID) (*types.Transaction, bool)
}

// Logger is the narrow structured-logging surface TransactionRelayer
// uses to report fire-and-forget submission failures, matching the
// teacher's log.Logger interface shape.
type Logger interface {
	Warn(msg string, ctx ...interface{})
}

// TransactionRelayer implements C12: hash announce/ask, inflight
// proposal bookkeeping, and BlockProposal/GetBlockProposal handling.
type TransactionRelayer struct {
	pool PoolSubmitter
	log  Logger

	mu                      sync.Mutex
	inflightProposals       map[types.ShortID]bool
	pendingProposalRequests map[types.ShortID][]p2ppeer.ID
}

func NewTransactionRelayer(pool PoolSubmitter, log Logger) *TransactionRelayer {
	return &TransactionRelayer{
		pool:                    pool,
		log:                     log,
		inflightProposals:       make(map[types.ShortID]bool),
		pendingProposalRequests: make(map[types.ShortID][]p2ppeer.ID),
	}
}

// RequestProposal marks short-ids as having an outstanding
// GetBlockProposal in flight, so a later BlockProposal reply is
// recognized as a survivor rather than an unsolicited announcement.
func (r *TransactionRelayer) RequestProposal(ids []types.ShortID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		r.inflightProposals[id] = true
	}
}

// HandleBlockProposal implements spec.md §4.4: filter out already-known
// transactions, keep only the ones whose short-id was actually
// requested, and submit the survivors to the pool asynchronously.
func (r *TransactionRelayer) HandleBlockProposal(txs []*types.Transaction) {
	r.mu.Lock()
	var survivors []*types.Transaction
	for _, tx := range txs {
		id := tx.ProposalShortID()
		if !r.inflightProposals[id] {
			continue
		}
		delete(r.inflightProposals, id)
		if _, known := r.pool.GetByHash(tx.Hash()); known {
			continue
		}
		survivors = append(survivors, tx)
	}
	r.mu.Unlock()

	for _, tx := range survivors {
		tx := tx
		r.pool.SubmitAsync(tx, func(err error) {
			if err != nil && r.log != nil {
				r.log.Warn("relayed transaction rejected by pool", "hash", tx.Hash(), "err", err)
			}
		})
	}
}

// HandleGetBlockProposal implements spec.md §4.4: reply with whichever
// short-ids are already in the pool; for the rest, remember the
// requesting peer so a later arrival can be forwarded to them.
func (r *TransactionRelayer) HandleGetBlockProposal(from p2ppeer.ID, ids []types.ShortID) (found []*types.Transaction, missing []types.ShortID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if tx, ok := r.pool.GetByShortID(id); ok {
			found = append(found, tx)
			continue
		}
		missing = append(missing, id)
		r.pendingProposalRequests[id] = append(r.pendingProposalRequests[id], from)
	}
	return found, missing
}

// ResolvePendingProposal returns (and clears) the peers waiting on a
// short-id that has since arrived in the pool, so the caller can push
// the transaction to them.
func (r *TransactionRelayer) ResolvePendingProposal(id types.ShortID) []p2ppeer.ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	waiters := r.pendingProposalRequests[id]
	delete(r.pendingProposalRequests, id)
	return waiters
}
