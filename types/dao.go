package types

import (
	"encoding/binary"
	"errors"
)

// ErrInvalidDaoFormat is returned when a DAO field's version byte is not 1,
// per spec.md §6.
var ErrInvalidDaoFormat = errors.New("invalid dao field format")

// DaoFieldVersion is the only version byte this node understands.
const DaoFieldVersion = 1

// DaoField is the 32-byte per-block accounting tuple from spec.md §3/§6:
// version byte, 7 reserved zero bytes, then ar, C, U as little-endian
// u64s. S is not carried on the header (spec.md lists the on-disk layout
// as byte0=version, bytes1..7=reserved, 8..15=ar, 16..23=C, 24..31=U); S
// is tracked off-header by the DAO calculator for fee/withdrawal math.
type DaoField struct {
	AR uint64
	C  uint64
	U  uint64
}

func (d DaoField) Bytes() [32]byte {
	var b [32]byte
	b[0] = DaoFieldVersion
	binary.LittleEndian.PutUint64(b[8:16], d.AR)
	binary.LittleEndian.PutUint64(b[16:24], d.C)
	binary.LittleEndian.PutUint64(b[24:32], d.U)
	return b
}

func DaoFieldFromBytes(b [32]byte) (DaoField, error) {
	if b[0] != DaoFieldVersion {
		return DaoField{}, ErrInvalidDaoFormat
	}
	for _, r := range b[1:8] {
		if r != 0 {
			return DaoField{}, ErrInvalidDaoFormat
		}
	}
	return DaoField{
		AR: binary.LittleEndian.Uint64(b[8:16]),
		C:  binary.LittleEndian.Uint64(b[16:24]),
		U:  binary.LittleEndian.Uint64(b[24:32]),
	}, nil
}

func (d DaoField) Equal(o DaoField) bool {
	return d.AR == o.AR && d.C == o.C && d.U == o.U
}
