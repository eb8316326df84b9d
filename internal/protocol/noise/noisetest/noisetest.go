// Package noisetest provides a responder for the native API key exchange so
// client code can be exercised over net.Pipe without a device.
package noisetest

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	fnoise "github.com/flynn/noise"

	"github.com/danmuck/nativectl/internal/protocol"
	"github.com/danmuck/nativectl/internal/protocol/frame"
	"github.com/danmuck/nativectl/internal/protocol/noise"
)

// Server is the device side of one connection.
type Server struct {
	PSK        []byte
	ServerName string
	MAC        string
	// ProtocolID overrides the selected protocol byte when non-zero.
	ProtocolID byte
	// RejectReason, when set, is sent with a failure flag instead of message 2.
	RejectReason string

	rw        io.ReadWriter
	transport *noise.Transport
}

// Accept reads the client opening from rw and answers it. On success the
// server is ready for Send and Recv.
func (s *Server) Accept(rw io.ReadWriter) error {
	s.rw = rw
	pre := make([]byte, len(frame.Preamble))
	if _, err := io.ReadFull(rw, pre); err != nil {
		return fmt.Errorf("noisetest: read preamble: %w", err)
	}
	if !bytes.Equal(pre, frame.Preamble) {
		return fmt.Errorf("noisetest: bad preamble % x", pre)
	}
	first, err := frame.ReadFrame(rw, frame.DefaultLimits())
	if err != nil {
		return fmt.Errorf("noisetest: read handshake frame: %w", err)
	}
	if len(first.Payload) == 0 || first.Payload[0] != 0x00 {
		return errors.New("noisetest: handshake frame missing 0x00 prefix")
	}

	proto := noise.ProtocolNoise
	if s.ProtocolID != 0 {
		proto = s.ProtocolID
	}
	hello := []byte{proto}
	hello = append(hello, []byte(s.ServerName)...)
	hello = append(hello, 0x00)
	hello = append(hello, []byte(s.MAC)...)
	hello = append(hello, 0x00)
	if err := frame.WriteFrame(rw, hello, frame.DefaultLimits()); err != nil {
		return err
	}
	if proto != noise.ProtocolNoise {
		return nil
	}
	if s.RejectReason != "" {
		return frame.WriteFrame(rw, append([]byte{0x01}, []byte(s.RejectReason)...), frame.DefaultLimits())
	}

	state, err := fnoise.NewHandshakeState(fnoise.Config{
		CipherSuite:           noise.CipherSuite,
		Pattern:               fnoise.HandshakeNN,
		Initiator:             false,
		Prologue:              noise.Prologue,
		PresharedKey:          s.PSK,
		PresharedKeyPlacement: 0,
	})
	if err != nil {
		return err
	}
	if _, _, _, err := state.ReadMessage(nil, first.Payload[1:]); err != nil {
		_ = frame.WriteFrame(rw, append([]byte{0x01}, []byte("Handshake MAC failure")...), frame.DefaultLimits())
		return fmt.Errorf("noisetest: read message 1: %w", err)
	}
	msg, cs1, cs2, err := state.WriteMessage(nil, nil)
	if err != nil {
		return err
	}
	if err := frame.WriteFrame(rw, append([]byte{0x00}, msg...), frame.DefaultLimits()); err != nil {
		return err
	}
	// responder: cs1 decrypts inbound, cs2 encrypts outbound
	s.transport = noise.NewTransport(cs2, cs1)
	return nil
}

// Transport exposes the server cipher states after Accept.
func (s *Server) Transport() *noise.Transport {
	return s.transport
}

// Send writes one encrypted message to the client.
func (s *Server) Send(msgType protocol.MessageType, data []byte) error {
	plaintext, err := protocol.Encode(msgType, data)
	if err != nil {
		return err
	}
	return s.SendRaw(plaintext)
}

// SendRaw seals and frames plaintext as-is, so tests can send envelopes with
// arbitrary declared lengths.
func (s *Server) SendRaw(plaintext []byte) error {
	ct, err := s.transport.Seal(plaintext)
	if err != nil {
		return err
	}
	return frame.WriteFrame(s.rw, ct, frame.DefaultLimits())
}

// Recv reads and decrypts one message from the client.
func (s *Server) Recv() (protocol.Message, error) {
	f, err := frame.ReadFrame(s.rw, frame.DefaultLimits())
	if err != nil {
		return protocol.Message{}, err
	}
	pt, err := s.transport.Open(f.Payload)
	if err != nil {
		return protocol.Message{}, err
	}
	return protocol.Decode(pt)
}
