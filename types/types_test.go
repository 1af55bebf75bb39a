package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSinceRoundTrip(t *testing.T) {
	cases := []struct {
		relative bool
		metric   SinceMetric
		value    uint64
	}{
		{true, SinceMetricBlockNumber, 42},
		{false, SinceMetricEpoch, 7},
		{true, SinceMetricTimestamp, 1 << 40},
	}
	for _, c := range cases {
		s := NewSince(c.relative, c.metric, c.value)
		assert.Equal(t, c.relative, s.IsRelative())
		assert.Equal(t, c.metric, s.Metric())
		assert.Equal(t, c.value, s.Value())
	}
}

func TestDaoFieldRoundTrip(t *testing.T) {
	d := DaoField{AR: 1e16, C: 123456789, U: 42}
	b := d.Bytes()
	got, err := DaoFieldFromBytes(b)
	require.NoError(t, err)
	assert.True(t, d.Equal(got))
}

func TestDaoFieldRejectsBadVersion(t *testing.T) {
	var b [32]byte
	b[0] = 2
	_, err := DaoFieldFromBytes(b)
	assert.ErrorIs(t, err, ErrInvalidDaoFormat)
}

func TestShortIDRoundTrip(t *testing.T) {
	tx := &Transaction{
		Inputs:  []CellInput{{PreviousOutput: OutPoint{TxHash: Hash{1}, Index: 0}}},
		Outputs: []CellOutput{{Capacity: 100}},
	}
	h := tx.Hash()
	want := ShortIDFromHash(h)
	got := tx.ProposalShortID()
	assert.Equal(t, want, got)
	assert.Equal(t, h[:ShortIDLength], got[:])
}

func TestEpochPackRoundTrip(t *testing.T) {
	e := EpochNumberWithFraction{Number: 12, Index: 34, Length: 1800}
	packed := PackEpoch(e)
	got := UnpackEpoch(packed)
	assert.Equal(t, e, got)
}

func TestLocatorOversized(t *testing.T) {
	l := &BlockLocator{Hashes: make([]Hash, MaxLocatorHashes+1)}
	assert.True(t, l.Oversized())
	l2 := &BlockLocator{Hashes: make([]Hash, MaxLocatorHashes)}
	assert.False(t, l2.Oversized())
}
