package store

import (
	"encoding/json"
	"math/big"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/nervosnetwork/ckb-go/types"
)

// LevelDBStore is a concrete, non-authoritative ChainStore used by the
// integration harness. It is not the production KV engine (that is a
// stated non-goal). Writes go to leveldb under the teacher's snapshot
// key-prefix convention (load/store by a short byte-prefixed key),
// previously used in this tree's oasys snapshot code; every read is
// served from the in-memory MemStore index.
type LevelDBStore struct {
	db        *leveldb.DB
	mem       *MemStore // front an in-memory index for the O(1) lookups ChainStore needs
}

func OpenLevelDBStore(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "open leveldb at %s", path)
	}
	return &LevelDBStore{db: db, mem: NewMemStore()}, nil
}

func (s *LevelDBStore) Close() error { return s.db.Close() }

func headerKey(h types.Hash) []byte { return append([]byte("h-"), h[:]...) }

// InsertBlock mirrors MemStore.InsertBlock and also writes the header to
// leveldb as JSON. Nothing reads those headers back: OpenLevelDBStore
// starts from an empty in-memory index, and the body index and
// live-cell set are in-memory only.
func (s *LevelDBStore) InsertBlock(b *types.Block, epoch *types.EpochExt) error {
	blob, err := json.Marshal(&b.Header)
	if err != nil {
		return err
	}
	if err := s.db.Put(headerKey(b.Hash()), blob, nil); err != nil {
		return errors.Wrap(err, "put header")
	}
	s.mem.InsertBlock(b, epoch)
	return nil
}

func (s *LevelDBStore) HeaderByHash(h types.Hash) (*types.Header, bool) {
	return s.mem.HeaderByHash(h)
}
func (s *LevelDBStore) HeaderByNumber(number uint64) (*types.Header, bool) {
	return s.mem.HeaderByNumber(number)
}
func (s *LevelDBStore) BlockByHash(h types.Hash) (*types.Block, bool) { return s.mem.BlockByHash(h) }
func (s *LevelDBStore) HashByNumber(number uint64) (types.Hash, bool) {
	return s.mem.HashByNumber(number)
}
func (s *LevelDBStore) TipNumber() uint64 { return s.mem.TipNumber() }
func (s *LevelDBStore) TipHash() types.Hash { return s.mem.TipHash() }
func (s *LevelDBStore) UnclesOf(blockHash types.Hash) []types.UncleBlock {
	return s.mem.UnclesOf(blockHash)
}
func (s *LevelDBStore) IsUncle(h types.Hash) bool { return s.mem.IsUncle(h) }
func (s *LevelDBStore) UncleParentNumber(h types.Hash) (uint64, bool) {
	return s.mem.UncleParentNumber(h)
}
func (s *LevelDBStore) ProposalIDsOf(blockHash types.Hash) ([]types.ShortID, bool) {
	return s.mem.ProposalIDsOf(blockHash)
}
func (s *LevelDBStore) EpochExtOf(blockHash types.Hash) (*types.EpochExt, bool) {
	return s.mem.EpochExtOf(blockHash)
}
func (s *LevelDBStore) LiveCell(op types.OutPoint) (types.ResolvedCellOutput, bool) {
	return s.mem.LiveCell(op)
}
func (s *LevelDBStore) TotalDifficultyOf(h types.Hash) (*big.Int, bool) {
	return s.mem.TotalDifficultyOf(h)
}
