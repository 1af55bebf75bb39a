package p2p

import (
	"fmt"
	"io"

	"github.com/golang/snappy"
)

// WriteEnvelope writes env to w as [4-byte BE length][1-byte type]
// [snappy-compressed payload].
func WriteEnvelope(w io.Writer, env Envelope) error {
	if !validType(env.Type) {
		return ErrUnknownMessageType
	}
	compressed := snappy.Encode(nil, env.Payload)
	body := make([]byte, 1+len(compressed))
	body[0] = byte(env.Type)
	copy(body[1:], compressed)
	if len(body) > MaxMessageSize {
		return fmt.Errorf("%w: %d bytes exceeds max %d", ErrMalformedFraming, len(body), MaxMessageSize)
	}

	if _, err := w.Write(encodeLength(len(body))); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

// ReadEnvelope reads one length-prefixed envelope from r. Any framing
// violation (zero/over-limit length, short read, unknown type,
// undecompressible payload) is reported as ErrMalformedFraming (or
// ErrUnknownMessageType), which callers must treat as an immediate-ban
// condition per spec.md §7.
func ReadEnvelope(r io.Reader) (Envelope, error) {
	lenBuf := make([]byte, lengthPrefixSize)
	if _, err := io.ReadFull(r, lenBuf); err != nil {
		return Envelope{}, err
	}
	n := decodeLength(lenBuf)
	if n == 0 || n > MaxMessageSize {
		return Envelope{}, fmt.Errorf("%w: declared length %d", ErrMalformedFraming, n)
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedFraming, err)
	}

	typ := MessageType(body[0])
	if !validType(typ) {
		return Envelope{}, ErrUnknownMessageType
	}

	payload, err := snappy.Decode(nil, body[1:])
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedFraming, err)
	}
	return Envelope{Type: typ, Payload: payload}, nil
}
