package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	data := []byte{0x0a, 0x03, 'a', 'b', 'c'}
	buf, err := Encode(10, data)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(buf[:4], []byte{0x00, 0x0a, 0x00, 0x05}) {
		t.Fatalf("unexpected envelope header: % x", buf[:4])
	}
	msg, err := Decode(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != 10 || msg.DeclaredLen != 5 || !bytes.Equal(msg.Data, data) {
		t.Fatalf("round-trip mismatch: %+v", msg)
	}
}

func TestDecodeIgnoresDeclaredLength(t *testing.T) {
	// declared length 200, only 2 data bytes present
	plaintext := []byte{0x00, 0x07, 0x00, 0xc8, 0x01, 0x02}
	msg, err := Decode(plaintext)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.DeclaredLen != 200 {
		t.Fatalf("declared len=%d", msg.DeclaredLen)
	}
	if !bytes.Equal(msg.Data, []byte{0x01, 0x02}) {
		t.Fatalf("data should span actual bytes, got % x", msg.Data)
	}

	// declared length 0 with trailing data still yields the data
	msg, err = Decode([]byte{0x00, 0x13, 0x00, 0x00, 0xff})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(msg.Data) != 1 {
		t.Fatalf("expected 1 data byte, got %d", len(msg.Data))
	}
}

func TestDecodeTooShort(t *testing.T) {
	for _, in := range [][]byte{nil, {0x00}, {0x00, 0x01, 0x00}} {
		if _, err := Decode(in); !errors.Is(err, ErrMessageTooShort) {
			t.Fatalf("input % x: expected ErrMessageTooShort, got %v", in, err)
		}
	}
}

func TestEncodeRejectsOversizedData(t *testing.T) {
	_, err := Encode(1, make([]byte, 1<<16))
	if !errors.Is(err, ErrMessageTooLarge) {
		t.Fatalf("expected ErrMessageTooLarge, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	cases := map[string]error{
		ClassNone:           nil,
		ClassConfiguration:  fmt.Errorf("%w: key length 31", ErrConfiguration),
		ClassProtocol:       fmt.Errorf("wrapped: %w", ErrProtocol),
		ClassHandshake:      ErrHandshake,
		ClassAuthentication: ErrAuthentication,
		ClassTransport:      fmt.Errorf("%w: read: eof", ErrTransport),
		ClassDisconnect:     ErrPeerDisconnect,
		ClassOther:          errors.New("boom"),
	}
	for want, err := range cases {
		if got := Classify(err); got != want {
			t.Fatalf("Classify(%v)=%q want %q", err, got, want)
		}
	}
	if !IsPeerDisconnect(fmt.Errorf("session: %w", ErrPeerDisconnect)) {
		t.Fatalf("wrapped disconnect not detected")
	}
}
