package protocol

// MessageType is the u16 type id at the head of every plaintext message.
type MessageType uint16

// EnvelopeLen is the plaintext envelope header: type(2) + length(2).
const EnvelopeLen = 4

// Message is one decrypted native API message.
//
// DeclaredLen is the length the peer wrote into the envelope. It is kept for
// diagnostics only; Data always spans the rest of the decrypted plaintext.
type Message struct {
	Type        MessageType
	DeclaredLen uint16
	Data        []byte
}
