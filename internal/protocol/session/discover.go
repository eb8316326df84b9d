package session

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"

	"github.com/danmuck/nativectl/internal/catalog"
	"github.com/danmuck/nativectl/internal/observability"
	"github.com/danmuck/nativectl/internal/protocol"
	"github.com/danmuck/nativectl/internal/protocol/noise"
	"github.com/danmuck/nativectl/internal/protocol/schema"
)

// Result is everything one discovery attempt learned about a device.
type Result struct {
	ServerHello noise.ServerHello
	Hello       schema.HelloResponse
	DeviceInfo  schema.DeviceInfo
	Entities    []catalog.Entity
	Duration    time.Duration
}

// Discover runs one full attempt: dial, handshake, hello, auth, device info,
// entity listing and disconnect. Cancelling ctx closes the stream, which
// fails the pending read.
//
// Discovery is all or nothing: any error, including a peer-initiated
// disconnect (protocol.ErrPeerDisconnect), returns a nil Result.
func Discover(ctx context.Context, cfg Config) (*Result, error) {
	cfg = cfg.WithDefaults()
	start := cfg.Clock.Now()
	conn, err := Dial(ctx, cfg)
	if err != nil {
		observability.RecordDiscovery(protocol.Classify(err), cfg.Clock.Since(start))
		return nil, err
	}
	if cfg.OnConnect != nil {
		cfg.OnConnect(conn.ServerHello())
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })

	res, err := Run(conn, cfg)
	stop()
	if err != nil && ctx.Err() != nil {
		err = fmt.Errorf("%w: %w", ctx.Err(), err)
	}
	err = multierr.Append(err, conn.Close())
	observability.RecordDiscovery(protocol.Classify(err), cfg.Clock.Since(start))
	if err != nil {
		return nil, err
	}
	res.Duration = cfg.Clock.Since(start)
	return res, nil
}

// Run drives the conversation over an established connection and closes
// conn after a successful disconnect. On failure it returns a nil Result
// and the caller closes conn. Entities are only kept once the device has
// sent the end of the list.
func Run(conn *Conn, cfg Config) (*Result, error) {
	cfg = cfg.WithDefaults()
	d := NewDispatcher(conn, cfg.Clock)
	res := &Result{ServerHello: conn.ServerHello()}

	hello, err := d.Hello(cfg.ClientInfo)
	if err != nil {
		return nil, err
	}
	res.Hello = hello
	log.Info().Msgf("session.Run hello name=%q api=%d.%d", hello.Name, hello.APIMajor, hello.APIMinor)

	if err := d.Authenticate(cfg.Password); err != nil {
		return nil, err
	}
	info, err := d.DeviceInfo()
	if err != nil {
		return nil, err
	}
	res.DeviceInfo = info
	log.Info().Msgf("session.Run device name=%q mac=%q version=%q", info.Name, info.MAC, info.Version)

	collector := catalog.NewCollector()
	err = d.ListEntities(func(msg protocol.Message) error {
		collector.Add(msg)
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.Entities = collector.Freeze()
	log.Info().Msgf("session.Run entities=%d", len(res.Entities))

	if err := d.Disconnect(); err != nil {
		return nil, err
	}
	if err := conn.Close(); err != nil {
		return nil, err
	}
	d.Closed()
	return res, nil
}
