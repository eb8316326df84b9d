package noise

import (
	"errors"
	"fmt"

	fnoise "github.com/flynn/noise"

	"github.com/danmuck/nativectl/internal/protocol"
	"github.com/danmuck/nativectl/internal/protocol/frame"
)

// TagLen is the AEAD tag appended to every sealed frame.
const TagLen = 16

// MaxPlaintext is the largest plaintext that still fits one frame.
const MaxPlaintext = int(frame.MaxPayload) - TagLen

var (
	ErrOpenFailed     = errors.New("noise: open failed")
	ErrNonceExhausted = errors.New("noise: nonce exhausted")
)

// Transport holds the post-handshake cipher states. It is not safe for
// concurrent use; the owning connection serializes access.
type Transport struct {
	send      *fnoise.CipherState
	recv      *fnoise.CipherState
	sendNonce uint64
	recvNonce uint64
	err       error
}

// NewTransport wraps the cipher states produced by a completed handshake.
func NewTransport(send, recv *fnoise.CipherState) *Transport {
	return &Transport{send: send, recv: recv}
}

// Seal encrypts plaintext with the next send nonce.
func (t *Transport) Seal(plaintext []byte) ([]byte, error) {
	if t.err != nil {
		return nil, t.err
	}
	if len(plaintext) > MaxPlaintext {
		return nil, fmt.Errorf("%w: %d byte plaintext exceeds %d", frame.ErrPayloadTooLarge, len(plaintext), MaxPlaintext)
	}
	if t.sendNonce >= fnoise.MaxNonce {
		return nil, t.fail(fmt.Errorf("%w: %w: send", protocol.ErrTransport, ErrNonceExhausted))
	}
	ct, err := t.send.Encrypt(nil, nil, plaintext)
	if err != nil {
		return nil, t.fail(fmt.Errorf("%w: noise: seal: %w", protocol.ErrTransport, err))
	}
	t.sendNonce++
	return ct, nil
}

// Open decrypts ciphertext with the next receive nonce.
func (t *Transport) Open(ciphertext []byte) ([]byte, error) {
	if t.err != nil {
		return nil, t.err
	}
	if t.recvNonce >= fnoise.MaxNonce {
		return nil, t.fail(fmt.Errorf("%w: %w: receive", protocol.ErrTransport, ErrNonceExhausted))
	}
	pt, err := t.recv.Decrypt(nil, nil, ciphertext)
	if err != nil {
		return nil, t.fail(fmt.Errorf("%w: %w: %v", protocol.ErrTransport, ErrOpenFailed, err))
	}
	t.recvNonce++
	return pt, nil
}

// SendNonce is the number of frames sealed so far.
func (t *Transport) SendNonce() uint64 {
	return t.sendNonce
}

// RecvNonce is the number of frames opened so far.
func (t *Transport) RecvNonce() uint64 {
	return t.recvNonce
}

// Err returns the error that poisoned the transport, if any.
func (t *Transport) Err() error {
	return t.err
}

func (t *Transport) fail(err error) error {
	t.err = err
	return err
}
