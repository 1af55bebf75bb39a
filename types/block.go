package types

// UncleBlock is a header plus the proposal ids the uncle itself
// proposed; uncles don't carry full transaction bodies, but their
// proposals still count toward descendant blocks' commit windows
// (spec.md §4.5 step 4 "and from their uncles").
type UncleBlock struct {
	Header    Header
	Proposals []ShortID
}

func (u *UncleBlock) Hash() Hash { return u.Header.Hash() }

// Block is the top-level wire/data model from spec.md §3.
// Transactions[0] is always the cellbase.
type Block struct {
	Header       Header
	Transactions []*Transaction
	Proposals    []ShortID
	Uncles       []UncleBlock
}

func (b *Block) Hash() Hash { return b.Header.Hash() }

// Cellbase returns transactions[0], panicking if the block is malformed
// enough not to have one; callers are expected to have already run
// stateless shape verification before reaching here.
func (b *Block) Cellbase() *Transaction {
	return b.Transactions[0]
}

// UnclesHash commits to the ordered list of uncle header hashes.
func UnclesHash(uncles []UncleBlock) Hash {
	buf := make([]byte, 0, len(uncles)*HashLength)
	for _, u := range uncles {
		h := u.Header.Hash()
		buf = append(buf, h[:]...)
	}
	return hashDigest(buf)
}

// BlockView is the minimal read surface the contextual verifier (C8)
// needs from a candidate block; it is satisfied by *Block directly but
// kept as an interface so relay reconstruction can hand over a partially
// materialized block without an extra copy.
type BlockView interface {
	Header() *Header
	Transactions() []*Transaction
	Proposals() []ShortID
	Uncles() []UncleBlock
}

type blockView struct{ b *Block }

func NewBlockView(b *Block) BlockView            { return blockView{b} }
func (v blockView) Header() *Header              { return &v.b.Header }
func (v blockView) Transactions() []*Transaction { return v.b.Transactions }
func (v blockView) Proposals() []ShortID         { return v.b.Proposals }
func (v blockView) Uncles() []UncleBlock         { return v.b.Uncles }
