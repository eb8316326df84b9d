// Package protocol owns the native API wire contract shared by every layer.
//
// Ownership boundary:
// - error taxonomy (configuration, protocol, handshake, authentication, transport)
// - plaintext message envelope carried inside each decrypted frame
//
// Subpackages:
// - wire: lenient protobuf field codec
// - frame: marker byte + u16 length framing
// - noise: pre-shared-key handshake and transport cipher states
// - schema: message type ids and typed message bodies
// - session: connection, dispatcher and discovery flow
package protocol
