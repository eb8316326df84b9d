package noise

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/danmuck/nativectl/internal/protocol"
)

// PSKLen is the only accepted pre-shared key length.
const PSKLen = 32

// DecodePSK decodes a base64 pre-shared key and enforces its length.
func DecodePSK(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, fmt.Errorf("%w: encryption key is required", protocol.ErrConfiguration)
	}
	psk, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: encryption key is not valid base64: %v", protocol.ErrConfiguration, err)
	}
	if err := ValidatePSK(psk); err != nil {
		return nil, err
	}
	return psk, nil
}

func ValidatePSK(psk []byte) error {
	if len(psk) != PSKLen {
		return fmt.Errorf("%w: encryption key must decode to %d bytes, got %d", protocol.ErrConfiguration, PSKLen, len(psk))
	}
	return nil
}
