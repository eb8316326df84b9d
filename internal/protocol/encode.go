package protocol

import "encoding/binary"

// Encode builds the plaintext envelope for one message.
func Encode(msgType MessageType, data []byte) ([]byte, error) {
	if len(data) > int(^uint16(0)) {
		return nil, ErrMessageTooLarge
	}
	buf := make([]byte, EnvelopeLen+len(data))
	binary.BigEndian.PutUint16(buf[0:2], uint16(msgType))
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(data)))
	copy(buf[EnvelopeLen:], data)
	return buf, nil
}
