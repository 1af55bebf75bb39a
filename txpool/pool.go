// Package txpool is the minimal pending-transaction pool surface the
// relay core (C11, C12) depends on: a short-id/hash lookup and an
// asynchronous verify-and-admit path for freshly relayed transactions.
// A production mempool's eviction policy, fee-sorting, and persistence
// are out of scope; this is the surface relay.TxPool/relay.PoolSubmitter
// need to function.
package txpool

import (
	"errors"
	"sync"

	"github.com/nervosnetwork/ckb-go/consensus"
	"github.com/nervosnetwork/ckb-go/store"
	"github.com/nervosnetwork/ckb-go/types"
	"github.com/nervosnetwork/ckb-go/verify"
)

// ErrAlreadyKnown is returned (via onDone) when a transaction with the
// same hash is already admitted.
var ErrAlreadyKnown = errors.New("transaction already known")

// Pool holds admitted transactions keyed by hash and short-id,
// satisfying relay.TxPool and relay.PoolSubmitter.
type Pool struct {
	spec     *consensus.ChainSpec
	resolver store.ResolverStore
	headers  verify.HeaderResolver
	executor verify.ScriptExecutor

	mu        sync.RWMutex
	byHash    map[types.Hash]*types.Transaction
	byShortID map[types.ShortID]types.Hash
}

// New builds an empty pool. resolver/headers resolve a transaction's
// inputs and header deps the same way block verification does (C3);
// executor runs its scripts the same way C8 does, under a per-transaction
// MaxBlockCycles ceiling. Admission does not run block verification's
// since, maturity, fee/capacity, proposal-window or DAO checks, so a
// transaction the pool admits can still be rejected in a block.
func New(spec *consensus.ChainSpec, resolver store.ResolverStore, headers verify.HeaderResolver, executor verify.ScriptExecutor) *Pool {
	return &Pool{
		spec:      spec,
		resolver:  resolver,
		headers:   headers,
		executor:  executor,
		byHash:    make(map[types.Hash]*types.Transaction),
		byShortID: make(map[types.ShortID]types.Hash),
	}
}

func (p *Pool) GetByHash(hash types.Hash) (*types.Transaction, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	tx, ok := p.byHash[hash]
	return tx, ok
}

func (p *Pool) GetByShortID(id types.ShortID) (*types.Transaction, bool) {
	p.mu.RLock()
	hash, ok := p.byShortID[id]
	p.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return p.GetByHash(hash)
}

// SubmitAsync resolves, executes, and admits tx in the background,
// calling onDone with the outcome. Callers (C12) treat this as
// fire-and-forget.
func (p *Pool) SubmitAsync(tx *types.Transaction, onDone func(err error)) {
	go func() {
		err := p.admit(tx)
		if onDone != nil {
			onDone(err)
		}
	}()
}

func (p *Pool) admit(tx *types.Transaction) error {
	hash := tx.Hash()
	if _, ok := p.GetByHash(hash); ok {
		return ErrAlreadyKnown
	}

	rtx, err := verify.ResolveTransaction(tx, p.resolver, p.headers, make(map[types.OutPoint]bool))
	if err != nil {
		return err
	}
	cycles, err := p.executor.Execute(rtx)
	if err != nil {
		return err
	}
	if cycles > p.spec.MaxBlockCycles {
		return verify.ErrTooMuchCycles
	}

	p.mu.Lock()
	p.byHash[hash] = tx
	p.byShortID[tx.ProposalShortID()] = hash
	p.mu.Unlock()
	return nil
}

// Remove discards a transaction by hash, e.g. once a block that
// includes it has been accepted onto the main chain.
func (p *Pool) Remove(hash types.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	tx, ok := p.byHash[hash]
	if !ok {
		return
	}
	delete(p.byHash, hash)
	delete(p.byShortID, tx.ProposalShortID())
}

// Len reports the number of currently admitted transactions.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byHash)
}
