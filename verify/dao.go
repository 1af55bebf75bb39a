package verify

import (
	"bytes"

	"github.com/holiman/uint256"

	"github.com/nervosnetwork/ckb-go/consensus"
	"github.com/nervosnetwork/ckb-go/types"
)

// DaoState is the full per-block DAO accounting tuple from spec.md §4.6.
// Only (AR, C, U) are committed to the header (types.DaoField); S is
// carried forward by the calculator across blocks to compute fees and
// withdrawal interest.
type DaoState struct {
	AR uint64
	C  uint64
	S  uint64
	U  uint64
}

func (s DaoState) Field() types.DaoField {
	return types.DaoField{AR: s.AR, C: s.C, U: s.U}
}

// OccupiedCapacity is the minimum capacity needed to serialize a cell, a
// function of its data length plus its scripts (GLOSSARY). The Satoshi
// special case (spec.md §4.6) replaces the byte-size formula with
// capacity*ratio for cells whose lock arg is the configured Satoshi
// pubkey hash.
func OccupiedCapacity(spec *consensus.ChainSpec, cell types.CellOutput, data []byte) uint64 {
	if bytes.Equal(cell.Lock.Args, spec.SatoshiPubkeyHash[:]) {
		return spec.SatoshiCellOccupiedRatio.Apply(cell.Capacity)
	}
	size := uint64(8) // capacity field itself
	size += uint64(len(cell.Lock.Args)) + types.HashLength + 1
	if cell.Type != nil {
		size += uint64(len(cell.Type.Args)) + types.HashLength + 1
	}
	size += uint64(len(data))
	return size
}

func sumOccupied(spec *consensus.ChainSpec, outs []types.CellOutput, data [][]byte) uint64 {
	var sum uint64
	for i, o := range outs {
		var d []byte
		if i < len(data) {
			d = data[i]
		}
		sum += OccupiedCapacity(spec, o, d)
	}
	return sum
}

// IsDaoCell reports whether a cell's type script identifies it as a DAO
// deposit/withdrawal cell.
func IsDaoCell(spec *consensus.ChainSpec, cell types.CellOutput) bool {
	return cell.Type != nil && cell.Type.CodeHash == spec.DaoTypeHash
}

// GenesisDaoState computes C(0) and U(0) from the genesis block's own
// outputs/inputs (spec.md §4.6). Genesis has no inputs in the UTXO
// sense that consume prior state, but the formula is written generally
// to allow a genesis block that itself contains inputs (e.g. a faucet
// sweep), matching the original implementation's generality.
func GenesisDaoState(spec *consensus.ChainSpec, genesisOutputs []types.CellOutput, genesisOutputsData [][]byte, genesisInputCapacity uint64) DaoState {
	p0 := spec.PrimaryEpochReward(0)
	s0 := spec.SecondaryEpochReward(0)
	var outputSum uint64
	for _, o := range genesisOutputs {
		outputSum += o.Capacity
	}
	c0 := outputSum + p0 + s0 - genesisInputCapacity
	u0 := sumOccupied(spec, genesisOutputs, genesisOutputsData)
	return DaoState{AR: spec.InitialAR, C: c0, S: 0, U: u0}
}

// mulDiv computes a*b/c with 128-bit-safe intermediate arithmetic and
// truncating division, per spec.md §4.6 "All divisions truncate;
// intermediate products use 128-bit arithmetic."
func mulDiv(a, b, c uint64) uint64 {
	if c == 0 {
		return 0
	}
	prod := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	q := prod.Div(prod, uint256.NewInt(c))
	return q.Uint64()
}

// WithdrawalInterest computes I(i)'s per-input contribution: the extra
// capacity a DAO-withdrawal input is entitled to above its original
// deposit, per spec.md §4.6.
func WithdrawalInterest(depositCapacity, arAtDeposit, arAtWithdraw uint64) uint64 {
	withdrawn := mulDiv(depositCapacity, arAtWithdraw, arAtDeposit)
	if withdrawn < depositCapacity {
		return 0
	}
	return withdrawn - depositCapacity
}

// NextDaoState advances the DAO accounting by one block given the
// previous state, the epoch reward schedule, and the resolved
// transactions of the new block, per spec.md §4.6's per-block
// recurrence. totalWithdrawalInterest is Σ WithdrawalInterest over every
// DAO-withdrawal input in the block (I(i)).
func NextDaoState(spec *consensus.ChainSpec, prev DaoState, epoch uint64, blockOutputsOccupied, blockInputsOccupied, totalWithdrawalInterest uint64) DaoState {
	p := spec.PrimaryEpochReward(epoch)
	s := spec.SecondaryEpochReward(epoch)

	ar := prev.AR + mulDiv(prev.AR, s, prev.C)
	c := prev.C + p + s
	u := prev.U + blockOutputsOccupied - blockInputsOccupied
	secondaryShare := mulDiv(s, prev.U, prev.C)
	sNext := prev.S - totalWithdrawalInterest + s - secondaryShare

	return DaoState{AR: ar, C: c, S: sNext, U: u}
}

// TotalWithdrawalInterest sums WithdrawalInterest over every DAO
// withdrawal input in a resolved transaction, for folding into I(i) in
// NextDaoState (spec.md §4.6).
func TotalWithdrawalInterest(spec *consensus.ChainSpec, rtx *types.ResolvedTransaction) uint64 {
	if len(rtx.ResolvedHeaderDeps) < 2 {
		return 0
	}
	depositHeader := rtx.ResolvedHeaderDeps[0]
	withdrawHeader := rtx.ResolvedHeaderDeps[1]
	depositDao, err1 := types.DaoFieldFromBytes(depositHeader.Dao.Bytes())
	withdrawDao, err2 := types.DaoFieldFromBytes(withdrawHeader.Dao.Bytes())
	if err1 != nil || err2 != nil {
		return 0
	}
	var total uint64
	for _, in := range rtx.ResolvedInputs {
		if IsDaoCell(spec, in.Cell) {
			total += WithdrawalInterest(in.Cell.Capacity, depositDao.AR, withdrawDao.AR)
		}
	}
	return total
}

// TxFee computes a resolved transaction's fee: Σ input capacity − Σ
// output capacity, where DAO-withdrawal inputs are credited their
// accrued interest on top of their original deposit capacity (spec.md
// §4.5 step 8, §4.6).
func TxFee(spec *consensus.ChainSpec, rtx *types.ResolvedTransaction) (fee uint64, overflow bool) {
	var inputTotal uint64
	for _, in := range rtx.ResolvedInputs {
		c := in.Cell.Capacity
		if IsDaoCell(spec, in.Cell) && len(rtx.ResolvedHeaderDeps) >= 2 {
			depositHeader := rtx.ResolvedHeaderDeps[0]
			withdrawHeader := rtx.ResolvedHeaderDeps[1]
			depositDao, err1 := types.DaoFieldFromBytes(depositHeader.Dao.Bytes())
			withdrawDao, err2 := types.DaoFieldFromBytes(withdrawHeader.Dao.Bytes())
			if err1 == nil && err2 == nil {
				interest := WithdrawalInterest(c, depositDao.AR, withdrawDao.AR)
				newTotal := inputTotal + c + interest
				if newTotal < inputTotal {
					return 0, true
				}
				inputTotal = newTotal
				continue
			}
		}
		newTotal := inputTotal + c
		if newTotal < inputTotal {
			return 0, true
		}
		inputTotal = newTotal
	}
	outputTotal := rtx.OutputCapacity()
	if outputTotal > inputTotal {
		return 0, true
	}
	return inputTotal - outputTotal, false
}
