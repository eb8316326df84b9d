package noise

import (
	"errors"
	"fmt"
	"io"
	"strings"

	fnoise "github.com/flynn/noise"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/nativectl/internal/protocol"
	"github.com/danmuck/nativectl/internal/protocol/frame"
)

const (
	// ProtocolNoise is the only protocol id a server may select.
	ProtocolNoise byte = 0x01

	handshakePrefix byte = 0x00
	resultOK        byte = 0x00
)

// Prologue is mixed into the handshake hash by both sides.
var Prologue = []byte("NoiseAPIInit\x00\x00")

// CipherSuite is 25519 / ChaChaPoly / SHA256.
var CipherSuite = fnoise.NewCipherSuite(fnoise.DH25519, fnoise.CipherChaChaPoly, fnoise.HashSHA256)

var (
	ErrHandshakeConsumed = errors.New("noise: handshake already used")
	ErrHandshakeNotStart = errors.New("noise: handshake not started")
	ErrProtocolMismatch  = fmt.Errorf("%w: noise: server selected unknown protocol", protocol.ErrProtocol)
	ErrEmptyServerHello  = fmt.Errorf("%w: noise: empty server hello", protocol.ErrProtocol)
	ErrEmptyResult       = fmt.Errorf("%w: noise: empty handshake result", protocol.ErrProtocol)
)

// HandshakeError carries the reason string a peer sent with a failure flag.
type HandshakeError struct {
	Reason string
}

func (e *HandshakeError) Error() string {
	return "noise: handshake failed: " + e.Reason
}

func (e *HandshakeError) Unwrap() error {
	return protocol.ErrHandshake
}

// ServerHello is the informational content of the server's protocol selection.
type ServerHello struct {
	Protocol   byte
	ServerName string
	MAC        string
}

type handshakeStep int

const (
	stepFresh handshakeStep = iota
	stepStarted
	stepDone
)

// Handshake is the initiator side of one key exchange.
type Handshake struct {
	state  *fnoise.HandshakeState
	step   handshakeStep
	limits frame.Limits
	hello  ServerHello
}

// NewHandshake prepares an initiator handshake for psk.
func NewHandshake(psk []byte) (*Handshake, error) {
	if err := ValidatePSK(psk); err != nil {
		return nil, err
	}
	state, err := fnoise.NewHandshakeState(fnoise.Config{
		CipherSuite:           CipherSuite,
		Pattern:               fnoise.HandshakeNN,
		Initiator:             true,
		Prologue:              Prologue,
		PresharedKey:          psk,
		PresharedKeyPlacement: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: noise: create handshake state: %v", protocol.ErrConfiguration, err)
	}
	return &Handshake{state: state, limits: frame.DefaultLimits()}, nil
}

// Start returns the complete client opening: preamble followed by exactly one
// frame holding the first handshake message. It needs no peer input.
func (h *Handshake) Start() ([]byte, error) {
	if h.step != stepFresh {
		return nil, ErrHandshakeConsumed
	}
	h.step = stepStarted
	msg, _, _, err := h.state.WriteMessage(nil, nil)
	if err != nil {
		h.step = stepDone
		return nil, fmt.Errorf("%w: noise: write message 1: %v", protocol.ErrHandshake, err)
	}
	payload := make([]byte, 0, 1+len(msg))
	payload = append(payload, handshakePrefix)
	payload = append(payload, msg...)

	out := make([]byte, 0, len(frame.Preamble)+frame.HeaderLen+len(payload))
	out = append(out, frame.Preamble...)
	return frame.AppendFrame(out, payload, h.limits)
}

// Finish reads the server hello and the handshake result from r.
func (h *Handshake) Finish(r io.Reader) (*Transport, error) {
	switch h.step {
	case stepFresh:
		return nil, ErrHandshakeNotStart
	case stepDone:
		return nil, ErrHandshakeConsumed
	}
	h.step = stepDone

	helloFrame, err := frame.ReadFrame(r, h.limits)
	if err != nil {
		return nil, err
	}
	hello, err := parseServerHello(helloFrame.Payload)
	if err != nil {
		return nil, err
	}
	h.hello = hello
	log.Debug().Msgf("noise.Handshake server_name=%q mac=%q", hello.ServerName, hello.MAC)

	resultFrame, err := frame.ReadFrame(r, h.limits)
	if err != nil {
		return nil, err
	}
	result := resultFrame.Payload
	if len(result) == 0 {
		return nil, ErrEmptyResult
	}
	if result[0] != resultOK {
		reason := strings.ToValidUTF8(string(result[1:]), "\uFFFD")
		if reason == "" {
			reason = "unknown handshake error"
		}
		return nil, &HandshakeError{Reason: reason}
	}

	_, cs1, cs2, err := h.state.ReadMessage(nil, result[1:])
	if err != nil {
		return nil, fmt.Errorf("%w: noise: read message 2: %v", protocol.ErrHandshake, err)
	}
	if cs1 == nil || cs2 == nil {
		return nil, fmt.Errorf("%w: noise: handshake incomplete after message 2", protocol.ErrProtocol)
	}
	// initiator: cs1 encrypts outbound, cs2 decrypts inbound
	return NewTransport(cs1, cs2), nil
}

// Run performs the whole ceremony over rw: one write, then two frame reads.
func (h *Handshake) Run(rw io.ReadWriter) (*Transport, error) {
	opening, err := h.Start()
	if err != nil {
		return nil, err
	}
	if _, err := rw.Write(opening); err != nil {
		h.step = stepDone
		return nil, fmt.Errorf("%w: noise: write client hello: %w", protocol.ErrTransport, err)
	}
	return h.Finish(rw)
}

// ServerHello returns what the server announced; zero until Finish reads it.
func (h *Handshake) ServerHello() ServerHello {
	return h.hello
}

func parseServerHello(payload []byte) (ServerHello, error) {
	if len(payload) == 0 {
		return ServerHello{}, ErrEmptyServerHello
	}
	if payload[0] != ProtocolNoise {
		return ServerHello{}, fmt.Errorf("%w: 0x%02x", ErrProtocolMismatch, payload[0])
	}
	hello := ServerHello{Protocol: payload[0]}
	parts := strings.Split(string(payload[1:]), "\x00")
	if len(parts) > 0 {
		hello.ServerName = parts[0]
	}
	if len(parts) > 1 {
		hello.MAC = parts[1]
	}
	return hello, nil
}
