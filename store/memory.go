package store

import (
	"math/big"
	"sync"

	"github.com/nervosnetwork/ckb-go/types"
)

// MemStore is an in-memory ChainStore used by unit tests and as the
// read index behind LevelDBStore.
type MemStore struct {
	mu sync.RWMutex

	headers     map[types.Hash]*types.Header
	blocks      map[types.Hash]*types.Block
	byNumber    map[uint64]types.Hash
	tipNumber   uint64
	tipHash     types.Hash
	uncles      map[types.Hash][]types.UncleBlock
	uncleParent map[types.Hash]uint64
	proposals   map[types.Hash][]types.ShortID
	epochs      map[types.Hash]*types.EpochExt
	liveCells   map[types.OutPoint]types.ResolvedCellOutput
	totalDiff   map[types.Hash]*big.Int
}

func NewMemStore() *MemStore {
	return &MemStore{
		headers:     make(map[types.Hash]*types.Header),
		blocks:      make(map[types.Hash]*types.Block),
		byNumber:    make(map[uint64]types.Hash),
		uncles:      make(map[types.Hash][]types.UncleBlock),
		uncleParent: make(map[types.Hash]uint64),
		proposals:   make(map[types.Hash][]types.ShortID),
		epochs:      make(map[types.Hash]*types.EpochExt),
		liveCells:   make(map[types.OutPoint]types.ResolvedCellOutput),
		totalDiff:   make(map[types.Hash]*big.Int),
	}
}

// InsertBlock adds a block as the new tip. Callers are responsible for
// only calling this after the block has passed contextual verification;
// the store itself performs no consensus checks.
func (s *MemStore) InsertBlock(b *types.Block, epoch *types.EpochExt) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := b.Hash()
	s.headers[h] = &b.Header
	s.blocks[h] = b
	s.byNumber[b.Header.Number] = h
	s.proposals[h] = append([]types.ShortID(nil), b.Proposals...)
	s.epochs[h] = epoch

	diff := b.Header.Difficulty
	if diff == nil {
		diff = big.NewInt(0)
	}
	parentTotal := big.NewInt(0)
	if pt, ok := s.totalDiff[b.Header.ParentHash]; ok {
		parentTotal = pt
	}
	s.totalDiff[h] = new(big.Int).Add(parentTotal, diff)
	for _, u := range b.Uncles {
		uh := u.Hash()
		s.uncles[h] = append(s.uncles[h], u)
		s.uncleParent[uh] = u.Header.Number - 1
	}
	if b.Header.Number >= s.tipNumber || s.tipHash.IsZero() {
		s.tipNumber = b.Header.Number
		s.tipHash = h
	}
	for _, tx := range b.Transactions {
		txHash := tx.Hash()
		for i, out := range tx.Outputs {
			op := types.OutPoint{TxHash: txHash, Index: uint32(i)}
			var data []byte
			if i < len(tx.OutputsData) {
				data = tx.OutputsData[i]
			}
			s.liveCells[op] = types.ResolvedCellOutput{
				Cell:        out,
				Data:        data,
				CreatedBy:   op,
				BlockHash:   h,
				BlockNumber: b.Header.Number,
				EpochPacked: b.Header.EpochPacked,
			}
		}
		for _, in := range tx.Inputs {
			delete(s.liveCells, in.PreviousOutput)
		}
	}
}

func (s *MemStore) HeaderByHash(h types.Hash) (*types.Header, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.headers[h]
	return v, ok
}

func (s *MemStore) HeaderByNumber(number uint64) (*types.Header, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.byNumber[number]
	if !ok {
		return nil, false
	}
	return s.headers[h], true
}

func (s *MemStore) BlockByHash(h types.Hash) (*types.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.blocks[h]
	return v, ok
}

func (s *MemStore) HashByNumber(number uint64) (types.Hash, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.byNumber[number]
	return h, ok
}

func (s *MemStore) TipNumber() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tipNumber
}

func (s *MemStore) TipHash() types.Hash {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tipHash
}

func (s *MemStore) UnclesOf(blockHash types.Hash) []types.UncleBlock {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.uncles[blockHash]
}

func (s *MemStore) IsUncle(h types.Hash) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.uncleParent[h]
	return ok
}

func (s *MemStore) UncleParentNumber(h types.Hash) (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.uncleParent[h]
	return n, ok
}

func (s *MemStore) ProposalIDsOf(blockHash types.Hash) ([]types.ShortID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids, ok := s.proposals[blockHash]
	return ids, ok
}

func (s *MemStore) EpochExtOf(blockHash types.Hash) (*types.EpochExt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.epochs[blockHash]
	return e, ok
}

func (s *MemStore) LiveCell(op types.OutPoint) (types.ResolvedCellOutput, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.liveCells[op]
	return c, ok
}

func (s *MemStore) TotalDifficultyOf(h types.Hash) (*big.Int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	td, ok := s.totalDiff[h]
	return td, ok
}
