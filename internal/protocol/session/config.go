package session

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/danmuck/nativectl/internal/protocol"
	"github.com/danmuck/nativectl/internal/protocol/noise"
)

// DefaultPort is the native API TCP port.
const DefaultPort = 6053

// DefaultClientInfo is announced in the hello request.
const DefaultClientInfo = "nativectl"

// BackoffConfig defines retry backoff behavior.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// Config describes one discovery attempt.
type Config struct {
	// Address is host:port.
	Address    string
	PSK        []byte
	Password   string
	ClientInfo string
	// ConnectTimeout bounds the TCP dial only; reads have no deadline.
	ConnectTimeout time.Duration
	// Clock answers device time requests.
	Clock   clock.Clock
	Backoff BackoffConfig
	// OnConnect, when set, runs once the handshake has completed.
	OnConnect func(noise.ServerHello)
}

// DefaultConfig returns defaults for everything except address and key.
func DefaultConfig() Config {
	return Config{
		ClientInfo:     DefaultClientInfo,
		ConnectTimeout: 10 * time.Second,
		Clock:          clock.New(),
		Backoff: BackoffConfig{
			InitialDelay: 500 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     10 * time.Second,
			Jitter:       true,
		},
	}
}

// WithDefaults fills zero fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if strings.TrimSpace(c.ClientInfo) == "" {
		c.ClientInfo = d.ClientInfo
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = d.ConnectTimeout
	}
	if c.Clock == nil {
		c.Clock = d.Clock
	}
	if c.Backoff == (BackoffConfig{}) {
		c.Backoff = d.Backoff
	}
	return c
}

// Validate checks the fields that must be right before any socket opens.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Address) == "" {
		return fmt.Errorf("%w: address is required", protocol.ErrConfiguration)
	}
	if _, _, err := net.SplitHostPort(c.Address); err != nil {
		return fmt.Errorf("%w: address %q: %v", protocol.ErrConfiguration, c.Address, err)
	}
	return noise.ValidatePSK(c.PSK)
}

// Address joins host and port the way Dial expects.
func Address(host string, port int) string {
	if port <= 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
