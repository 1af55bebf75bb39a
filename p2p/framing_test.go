package p2p

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadEnvelopeRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	env := Envelope{Type: MsgCompactBlock, Payload: []byte("hello compact block")}
	require.NoError(t, WriteEnvelope(&buf, env))

	got, err := ReadEnvelope(&buf)
	require.NoError(t, err)
	assert.Equal(t, env.Type, got.Type)
	assert.Equal(t, env.Payload, got.Payload)
}

func TestReadEnvelopeRejectsZeroLength(t *testing.T) {
	buf := bytes.NewBuffer(encodeLength(0))
	_, err := ReadEnvelope(buf)
	assert.ErrorIs(t, err, ErrMalformedFraming)
}

func TestReadEnvelopeRejectsOverLimitLength(t *testing.T) {
	buf := bytes.NewBuffer(encodeLength(MaxMessageSize + 1))
	_, err := ReadEnvelope(buf)
	assert.ErrorIs(t, err, ErrMalformedFraming)
}

func TestReadEnvelopeRejectsUnknownType(t *testing.T) {
	var buf bytes.Buffer
	body := []byte{byte(MsgAlert) + 1, 'x'}
	buf.Write(encodeLength(len(body)))
	buf.Write(body)

	_, err := ReadEnvelope(&buf)
	assert.True(t, errors.Is(err, ErrUnknownMessageType))
}

func TestReadEnvelopeRejectsTruncatedBody(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(encodeLength(10))
	buf.Write([]byte{1, 2, 3})

	_, err := ReadEnvelope(&buf)
	assert.ErrorIs(t, err, ErrMalformedFraming)
}

func TestWriteEnvelopeRejectsUnknownType(t *testing.T) {
	var buf bytes.Buffer
	err := WriteEnvelope(&buf, Envelope{Type: MsgAlert + 1, Payload: []byte("x")})
	assert.ErrorIs(t, err, ErrUnknownMessageType)
}
