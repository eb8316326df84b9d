package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/nativectl/internal/protocol"
)

const (
	Marker     byte   = 0x01
	HeaderLen         = 3
	MaxPayload uint16 = 0xFFFF
)

// Preamble opens every connection ahead of the first handshake frame.
var Preamble = []byte{0x01, 0x00, 0x00}

var (
	ErrBadMarker       = fmt.Errorf("%w: frame: bad marker byte", protocol.ErrProtocol)
	ErrShortHeader     = fmt.Errorf("%w: frame: short header", protocol.ErrTransport)
	ErrShortPayload    = fmt.Errorf("%w: frame: short payload", protocol.ErrTransport)
	ErrPayloadTooLarge = errors.New("frame: payload too large")
)

// Header is the 3-byte wire header.
type Header struct {
	Marker     byte
	PayloadLen uint16
}

// Frame is one complete wire unit.
type Frame struct {
	Header  Header
	Payload []byte
}

// Limits constrains frame encode/decode memory use.
type Limits struct {
	MaxPayloadBytes uint16
}

func DefaultLimits() Limits {
	return Limits{MaxPayloadBytes: MaxPayload}
}

func ReadFrame(r io.Reader, limits Limits) (Frame, error) {
	var fixed [HeaderLen]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, ErrShortHeader
		}
		return Frame{}, fmt.Errorf("%w: frame: read header: %w", protocol.ErrTransport, err)
	}

	h := DecodeHeader(fixed)
	if h.Marker != Marker {
		return Frame{}, fmt.Errorf("%w: got 0x%02x", ErrBadMarker, h.Marker)
	}
	if h.PayloadLen > limits.MaxPayloadBytes {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, h.PayloadLen)
	}

	payload := make([]byte, h.PayloadLen)
	if h.PayloadLen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
				return Frame{}, ErrShortPayload
			}
			return Frame{}, fmt.Errorf("%w: frame: read payload: %w", protocol.ErrTransport, err)
		}
	}
	return Frame{Header: h, Payload: payload}, nil
}

// AppendFrame appends the encoded frame for payload to dst.
func AppendFrame(dst, payload []byte, limits Limits) ([]byte, error) {
	if len(payload) > int(limits.MaxPayloadBytes) {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	hb := EncodeHeader(Header{Marker: Marker, PayloadLen: uint16(len(payload))})
	dst = append(dst, hb[:]...)
	return append(dst, payload...), nil
}

// WriteFrame writes payload as one frame in a single Write call.
func WriteFrame(w io.Writer, payload []byte, limits Limits) error {
	buf, err := AppendFrame(make([]byte, 0, HeaderLen+len(payload)), payload, limits)
	if err != nil {
		return err
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("%w: frame: write: %w", protocol.ErrTransport, err)
	}
	return nil
}

func EncodeHeader(h Header) [HeaderLen]byte {
	var buf [HeaderLen]byte
	buf[0] = h.Marker
	binary.BigEndian.PutUint16(buf[1:3], h.PayloadLen)
	return buf
}

func DecodeHeader(b [HeaderLen]byte) Header {
	return Header{
		Marker:     b[0],
		PayloadLen: binary.BigEndian.Uint16(b[1:3]),
	}
}
