package protocol

import "errors"

var (
	ErrConfiguration  = errors.New("protocol: configuration error")
	ErrProtocol       = errors.New("protocol: protocol error")
	ErrHandshake      = errors.New("protocol: handshake failed")
	ErrAuthentication = errors.New("protocol: authentication failed")
	ErrTransport      = errors.New("protocol: transport error")
	// ErrPeerDisconnect marks a clean, peer-initiated close. It is not a failure.
	ErrPeerDisconnect = errors.New("protocol: peer disconnected")

	ErrMessageTooShort = errors.New("protocol: message shorter than envelope header")
	ErrMessageTooLarge = errors.New("protocol: message data too large")
)

// Error classes reported by Classify.
const (
	ClassConfiguration  = "configuration"
	ClassProtocol       = "protocol"
	ClassHandshake      = "handshake"
	ClassAuthentication = "authentication"
	ClassTransport      = "transport"
	ClassDisconnect     = "disconnect"
	ClassOther          = "other"
	ClassNone           = "none"
)

// IsPeerDisconnect reports whether err is a clean peer-initiated close.
func IsPeerDisconnect(err error) bool {
	return errors.Is(err, ErrPeerDisconnect)
}

// Classify maps err onto the error taxonomy.
func Classify(err error) string {
	switch {
	case err == nil:
		return ClassNone
	case errors.Is(err, ErrPeerDisconnect):
		return ClassDisconnect
	case errors.Is(err, ErrConfiguration):
		return ClassConfiguration
	case errors.Is(err, ErrHandshake):
		return ClassHandshake
	case errors.Is(err, ErrAuthentication):
		return ClassAuthentication
	case errors.Is(err, ErrProtocol):
		return ClassProtocol
	case errors.Is(err, ErrTransport):
		return ClassTransport
	default:
		return ClassOther
	}
}
