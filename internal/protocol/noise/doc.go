// Package noise runs the native API key exchange and owns the resulting
// transport cipher states.
//
// The ceremony is Noise_NNpsk0_25519_ChaChaPoly_SHA256 with the prologue
// "NoiseAPIInit\x00\x00", carried in frames from package frame:
//
//	-> 01 00 00                      preamble
//	-> frame(00 || noise message 1)
//	<- frame(01 || server name 00 || mac 00)
//	<- frame(00 || noise message 2)   or frame(nonzero || utf-8 reason)
//
// A Handshake is single use. The Transport it yields keeps one nonce counter
// per direction; counters only move forward through Seal and Open, and the
// first failure poisons the transport for good.
package noise
