package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/nativectl/internal/observability"
	"github.com/danmuck/nativectl/internal/protocol"
	"github.com/danmuck/nativectl/internal/protocol/frame"
	"github.com/danmuck/nativectl/internal/protocol/noise"
)

// ErrClosed is returned by Send and Recv after Close.
var ErrClosed = fmt.Errorf("%w: session: connection closed", protocol.ErrTransport)

// Conn owns one encrypted stream. It is not safe for concurrent Send or Recv;
// Close may be called from any goroutine.
type Conn struct {
	rw        io.ReadWriter
	transport *noise.Transport
	hello     noise.ServerHello
	limits    frame.Limits
	err       error

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Dial validates the key, connects over TCP and completes the handshake.
// ctx bounds the dial and aborts a handshake in progress by closing the socket.
func Dial(ctx context.Context, cfg Config) (*Conn, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().Msgf("session.Dial address=%s", cfg.Address)
	dialer := net.Dialer{Timeout: cfg.ConnectTimeout}
	nc, err := dialer.DialContext(ctx, "tcp", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: session: dial %s: %w", protocol.ErrTransport, cfg.Address, err)
	}
	stop := context.AfterFunc(ctx, func() { _ = nc.Close() })
	defer stop()

	c, err := NewConn(nc, cfg.PSK)
	if err != nil {
		_ = nc.Close()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", ctxErr, err)
		}
		return nil, err
	}
	return c, nil
}

// NewConn runs the handshake over an existing stream. If rw is an io.Closer,
// Close closes it.
func NewConn(rw io.ReadWriter, psk []byte) (*Conn, error) {
	hs, err := noise.NewHandshake(psk)
	if err != nil {
		return nil, err
	}
	tr, err := hs.Run(rw)
	observability.RecordHandshake(protocol.Classify(err))
	if err != nil {
		log.Warn().Msgf("session.NewConn handshake failed err=%v", err)
		return nil, err
	}
	hello := hs.ServerHello()
	log.Info().Msgf("session.NewConn encrypted server_name=%q mac=%q", hello.ServerName, hello.MAC)
	return &Conn{
		rw:        rw,
		transport: tr,
		hello:     hello,
		limits:    frame.DefaultLimits(),
	}, nil
}

// ServerHello returns what the device announced during the handshake.
func (c *Conn) ServerHello() noise.ServerHello {
	return c.hello
}

// Err returns the error that made the connection unusable, if any.
func (c *Conn) Err() error {
	return c.err
}

// Send encrypts and writes one message.
func (c *Conn) Send(msgType protocol.MessageType, data []byte) error {
	if c.err != nil {
		return c.err
	}
	if c.closed.Load() {
		return ErrClosed
	}
	plaintext, err := protocol.Encode(msgType, data)
	if err != nil {
		return err
	}
	ct, err := c.transport.Seal(plaintext)
	if err != nil {
		if errors.Is(err, frame.ErrPayloadTooLarge) {
			return err
		}
		return c.fail(err)
	}
	if err := frame.WriteFrame(c.rw, ct, c.limits); err != nil {
		return c.fail(err)
	}
	observability.RecordFrame("out")
	observability.RecordMessage("out", uint16(msgType))
	log.Debug().Msgf("session.Conn.Send type=%d len=%d", msgType, len(data))
	return nil
}

// Recv reads, decrypts and decodes one message. Frames are handled strictly
// in arrival order; a decrypt failure is terminal.
func (c *Conn) Recv() (protocol.Message, error) {
	if c.err != nil {
		return protocol.Message{}, c.err
	}
	if c.closed.Load() {
		return protocol.Message{}, ErrClosed
	}
	f, err := frame.ReadFrame(c.rw, c.limits)
	if err != nil {
		return protocol.Message{}, c.fail(err)
	}
	plaintext, err := c.transport.Open(f.Payload)
	if err != nil {
		return protocol.Message{}, c.fail(err)
	}
	msg, err := protocol.Decode(plaintext)
	if err != nil {
		return protocol.Message{}, c.fail(fmt.Errorf("%w: session: %w", protocol.ErrProtocol, err))
	}
	observability.RecordFrame("in")
	observability.RecordMessage("in", uint16(msg.Type))
	if int(msg.DeclaredLen) != len(msg.Data) {
		log.Debug().Msgf("session.Conn.Recv type=%d declared_len=%d actual_len=%d", msg.Type, msg.DeclaredLen, len(msg.Data))
	} else {
		log.Debug().Msgf("session.Conn.Recv type=%d len=%d", msg.Type, len(msg.Data))
	}
	return msg, nil
}

// Close closes the underlying stream once. Later Send and Recv calls fail.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		if closer, ok := c.rw.(io.Closer); ok {
			c.closeErr = closer.Close()
		}
	})
	return c.closeErr
}

func (c *Conn) fail(err error) error {
	if c.err == nil {
		c.err = err
	}
	return err
}
