package protocol

import "encoding/binary"

// Decode parses a decrypted plaintext into a Message.
//
// The embedded length is not used for bounds checking: newer firmware may
// disagree with it, and the decrypted byte count is authoritative.
func Decode(plaintext []byte) (Message, error) {
	if len(plaintext) < EnvelopeLen {
		return Message{}, ErrMessageTooShort
	}
	data := make([]byte, len(plaintext)-EnvelopeLen)
	copy(data, plaintext[EnvelopeLen:])
	return Message{
		Type:        MessageType(binary.BigEndian.Uint16(plaintext[0:2])),
		DeclaredLen: binary.BigEndian.Uint16(plaintext[2:4]),
		Data:        data,
	}, nil
}
