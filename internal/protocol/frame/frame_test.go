package frame

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/danmuck/nativectl/internal/protocol"
	"github.com/danmuck/nativectl/internal/testutil/testlog"
)

func TestReadWriteFrameRoundTrip(t *testing.T) {
	testlog.Start(t)
	payload := []byte("encrypted-bytes")
	var buf bytes.Buffer
	if err := WriteFrame(&buf, payload, DefaultLimits()); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	raw := buf.Bytes()
	if raw[0] != Marker || raw[1] != 0 || raw[2] != byte(len(payload)) {
		t.Fatalf("unexpected header: % x", raw[:3])
	}
	out, err := ReadFrame(&buf, DefaultLimits())
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if !bytes.Equal(out.Payload, payload) {
		t.Fatalf("payload mismatch")
	}
	if out.Header.PayloadLen != uint16(len(payload)) {
		t.Fatalf("header len=%d", out.Header.PayloadLen)
	}
}

func TestReadFrameEmptyPayload(t *testing.T) {
	testlog.Start(t)
	out, err := ReadFrame(bytes.NewReader([]byte{0x01, 0x00, 0x00}), DefaultLimits())
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if len(out.Payload) != 0 {
		t.Fatalf("expected empty payload")
	}
}

func TestReadFrameBigEndianLength(t *testing.T) {
	testlog.Start(t)
	payload := make([]byte, 0x0102)
	in := append([]byte{0x01, 0x01, 0x02}, payload...)
	out, err := ReadFrame(bytes.NewReader(in), DefaultLimits())
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if len(out.Payload) != 0x0102 {
		t.Fatalf("payload len=%d", len(out.Payload))
	}
}

func TestReadFrameBadMarker(t *testing.T) {
	testlog.Start(t)
	_, err := ReadFrame(bytes.NewReader([]byte{0x00, 0x00, 0x01, 0xAA}), DefaultLimits())
	if !errors.Is(err, ErrBadMarker) {
		t.Fatalf("expected ErrBadMarker, got %v", err)
	}
	if !errors.Is(err, protocol.ErrProtocol) {
		t.Fatalf("bad marker must classify as protocol error: %v", err)
	}
}

func TestReadFrameMalformedHeaderIsDeterministic(t *testing.T) {
	testlog.Start(t)
	_, err := ReadFrame(bytes.NewReader([]byte{1, 2}), DefaultLimits())
	if !errors.Is(err, ErrShortHeader) {
		t.Fatalf("expected ErrShortHeader, got %v", err)
	}
	_, err = ReadFrame(bytes.NewReader(nil), DefaultLimits())
	if !errors.Is(err, io.EOF) || !errors.Is(err, protocol.ErrTransport) {
		t.Fatalf("expected wrapped EOF transport error, got %v", err)
	}
}

func TestReadFrameShortPayload(t *testing.T) {
	testlog.Start(t)
	_, err := ReadFrame(bytes.NewReader([]byte{0x01, 0x00, 0x05, 'a'}), DefaultLimits())
	if !errors.Is(err, ErrShortPayload) {
		t.Fatalf("expected ErrShortPayload, got %v", err)
	}
}

func TestReadFrameHonorsLimits(t *testing.T) {
	testlog.Start(t)
	_, err := ReadFrame(bytes.NewReader([]byte{0x01, 0x00, 0x10}), Limits{MaxPayloadBytes: 8})
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestWriteFrameRejectsOversizedPayload(t *testing.T) {
	testlog.Start(t)
	var buf bytes.Buffer
	err := WriteFrame(&buf, make([]byte, int(MaxPayload)+1), DefaultLimits())
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("nothing may be written on rejection")
	}
	if err := WriteFrame(&buf, make([]byte, MaxPayload), DefaultLimits()); err != nil {
		t.Fatalf("max payload must be accepted: %v", err)
	}
}
