// Package verify implements the contextual block verification core
// (C3-C8 from spec.md): resolved-transaction building, DAO accounting,
// uncle/commit/reward checks, and parallel per-transaction script
// verification under a global per-block cycle budget.
package verify

import (
	"errors"
	"fmt"

	"github.com/nervosnetwork/ckb-go/types"
)

// Sentinel errors named directly in spec.md §7, grounded on the
// teacher's `errUnknownBlock`/`errMissingVanity`-style sentinel-error
// vars in consensus/oasys/oasys.go.
var (
	ErrUnknownParent        = errors.New("unknown parent")
	ErrCellbaseImmaturity   = errors.New("cellbase immaturity")
	ErrImmature             = errors.New("immature: since not satisfied")
	ErrNotInProposalWindow  = errors.New("commit error: not in proposal window")
	ErrNonexistentAncestor  = errors.New("commit error: nonexistent ancestor")
	ErrInvalidCellbaseQuantity = errors.New("cellbase error: invalid quantity")
	ErrInvalidCellbaseInput    = errors.New("cellbase error: invalid input")
	ErrInvalidCellbasePosition = errors.New("cellbase error: invalid position")
	ErrInvalidRewardAmount     = errors.New("cellbase error: invalid reward amount")
	ErrInvalidRewardTarget     = errors.New("cellbase error: invalid reward target")
	ErrTooMuchCycles        = errors.New("too much cycles")
	ErrInvalidDAO           = errors.New("invalid dao")
	ErrUnmatchedCommittedRoot  = errors.New("unmatched committed root")
	ErrUnmatchedWitnessesRoot  = errors.New("unmatched witnesses root")
	ErrDuplicatedCommittedTransactions = errors.New("duplicated committed transactions")
	ErrDuplicatedProposalTransactions  = errors.New("duplicated proposal transactions")
	ErrTooLargeSize         = errors.New("too large size")
	ErrTooManyProposals     = errors.New("too many proposals")
	ErrTooManyUncles        = errors.New("too many uncles")
	ErrUncleAlreadyIncluded = errors.New("uncle already included")
	ErrUncleInvalidDescent  = errors.New("uncle invalid descent")
	ErrUncleWrongEpoch      = errors.New("uncle wrong epoch")
	ErrDoubleSpend          = errors.New("double spend within block")
	ErrMissingCellDep       = errors.New("missing cell dep")
	ErrCapacityOverflow     = errors.New("capacity overflow")
	ErrEpochMismatch        = errors.New("header epoch does not match derived epoch")
	ErrInvalidBlockTransactionsLength = errors.New("block transactions reply has wrong length")
	ErrInvalidPrefilledIndex          = errors.New("prefilled transaction index out of order or out of bounds")
	ErrShortIDCollision                = errors.New("short id collision within compact block")
)

// BlockTransactionsError wraps a per-tx verification failure with the
// index it occurred at (spec.md §7).
type BlockTransactionsError struct {
	Index int
	Inner error
}

func (e *BlockTransactionsError) Error() string {
	return fmt.Sprintf("tx verification error at index %d: %v", e.Index, e.Inner)
}
func (e *BlockTransactionsError) Unwrap() error { return e.Inner }

// UnknownParentError carries the missing hash, per spec.md §4.5 step 1.
type UnknownParentError struct {
	ParentHash types.Hash
}

func (e *UnknownParentError) Error() string {
	return fmt.Sprintf("unknown parent %s", e.ParentHash)
}
func (e *UnknownParentError) Unwrap() error { return ErrUnknownParent }

// InvalidBlockTransactionsError is the C11 reconstruction-mismatch
// error: the short id the reassembled tx set produced at `index`
// doesn't match what the compact block announced.
type InvalidBlockTransactionsError struct {
	Index    int
	Expected types.ShortID
	Got      types.ShortID
}

func (e *InvalidBlockTransactionsError) Error() string {
	return fmt.Sprintf("invalid block transactions at index %d: expected %s, got %s", e.Index, e.Expected, e.Got)
}
