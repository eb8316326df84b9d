package session

import (
	"errors"
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/nativectl/internal/protocol"
	"github.com/danmuck/nativectl/internal/protocol/schema"
)

// State is the dispatcher's position in the conversation.
type State int

const (
	StateConnecting State = iota
	StateHelloing
	StateAuthenticating
	StateFetchingDeviceInfo
	StateReady
	StateListingEntities
	StateDisconnecting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateHelloing:
		return "helloing"
	case StateAuthenticating:
		return "authenticating"
	case StateFetchingDeviceInfo:
		return "fetching_device_info"
	case StateReady:
		return "ready"
	case StateListingEntities:
		return "listing_entities"
	case StateDisconnecting:
		return "disconnecting"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrOutOfOrder is returned when an operation is called in the wrong state.
var ErrOutOfOrder = errors.New("session: operation out of order")

// MessageConn is the message-level stream a Dispatcher drives.
type MessageConn interface {
	Send(msgType protocol.MessageType, data []byte) error
	Recv() (protocol.Message, error)
}

// Dispatcher sequences requests over one connection and answers the device's
// own requests while waiting for responses.
type Dispatcher struct {
	conn  MessageConn
	clock clock.Clock
	state State
}

// NewDispatcher drives conn, which must have completed its handshake. clk
// answers time requests; nil means the wall clock.
func NewDispatcher(conn MessageConn, clk clock.Clock) *Dispatcher {
	if clk == nil {
		clk = clock.New()
	}
	return &Dispatcher{conn: conn, clock: clk, state: StateConnecting}
}

func (d *Dispatcher) State() State {
	return d.state
}

// Hello announces the client and waits for the hello response.
func (d *Dispatcher) Hello(clientInfo string) (schema.HelloResponse, error) {
	if err := d.expect(StateConnecting); err != nil {
		return schema.HelloResponse{}, err
	}
	d.transition(StateHelloing)
	if err := d.send(schema.MsgHelloRequest, schema.EncodeHello(clientInfo)); err != nil {
		return schema.HelloResponse{}, err
	}
	msg, err := d.await(schema.MsgHelloResponse, nil)
	if err != nil {
		return schema.HelloResponse{}, err
	}
	d.transition(StateAuthenticating)
	return schema.DecodeHelloResponse(msg.Data), nil
}

// Authenticate sends the auth request and the device info request back to
// back. No acknowledgement is awaited: a device only answers auth to reject
// it, and that answer is checked by DeviceInfo.
func (d *Dispatcher) Authenticate(password string) error {
	if err := d.expect(StateAuthenticating); err != nil {
		return err
	}
	if err := d.send(schema.MsgAuthRequest, schema.EncodeAuth(password)); err != nil {
		return err
	}
	if err := d.send(schema.MsgDeviceInfoRequest, nil); err != nil {
		return err
	}
	d.transition(StateFetchingDeviceInfo)
	return nil
}

// DeviceInfo waits for the device info response. An auth response flagging
// an invalid password aborts with protocol.ErrAuthentication.
func (d *Dispatcher) DeviceInfo() (schema.DeviceInfo, error) {
	if err := d.expect(StateFetchingDeviceInfo); err != nil {
		return schema.DeviceInfo{}, err
	}
	msg, err := d.await(schema.MsgDeviceInfoResponse, func(other protocol.Message) error {
		if other.Type != schema.MsgAuthResponse {
			log.Warn().Msgf("session.Dispatcher.DeviceInfo ignoring message type=%d", other.Type)
			return nil
		}
		if schema.DecodeAuthResponse(other.Data).InvalidPassword {
			return fmt.Errorf("%w: invalid password", protocol.ErrAuthentication)
		}
		return nil
	})
	if err != nil {
		return schema.DeviceInfo{}, err
	}
	d.transition(StateReady)
	return schema.DecodeDeviceInfo(msg.Data), nil
}

// ListEntities requests the entity list and passes every message that is not
// serviced inline to sink until the done sentinel arrives.
func (d *Dispatcher) ListEntities(sink func(protocol.Message) error) error {
	if err := d.expect(StateReady); err != nil {
		return err
	}
	d.transition(StateListingEntities)
	if err := d.send(schema.MsgListEntitiesRequest, nil); err != nil {
		return err
	}
	if _, err := d.await(schema.MsgListEntitiesDone, sink); err != nil {
		return err
	}
	d.transition(StateReady)
	return nil
}

// Disconnect sends a disconnect request without waiting for the response.
// The caller closes the stream afterwards.
func (d *Dispatcher) Disconnect() error {
	if err := d.expect(StateReady); err != nil {
		return err
	}
	d.transition(StateDisconnecting)
	return d.send(schema.MsgDisconnectRequest, nil)
}

// Closed records that the caller closed the stream.
func (d *Dispatcher) Closed() {
	d.transition(StateClosed)
}

// await reads until a message of type want arrives. Ping, time and
// disconnect requests are answered inline; anything else goes to onOther,
// or is logged and dropped when onOther is nil.
func (d *Dispatcher) await(want protocol.MessageType, onOther func(protocol.Message) error) (protocol.Message, error) {
	for {
		msg, err := d.conn.Recv()
		if err != nil {
			return protocol.Message{}, d.fail(err)
		}
		if msg.Type == want {
			return msg, nil
		}
		handled, err := d.service(msg)
		if err != nil {
			return protocol.Message{}, d.fail(err)
		}
		if handled {
			continue
		}
		if onOther == nil {
			log.Warn().Msgf("session.Dispatcher ignoring message type=%d state=%s", msg.Type, d.state)
			continue
		}
		if err := onOther(msg); err != nil {
			return protocol.Message{}, d.fail(err)
		}
	}
}

// service answers device-initiated requests. It reports whether msg was one.
func (d *Dispatcher) service(msg protocol.Message) (bool, error) {
	switch msg.Type {
	case schema.MsgPingRequest:
		log.Debug().Msg("session.Dispatcher ping")
		return true, d.send(schema.MsgPingResponse, nil)
	case schema.MsgGetTimeRequest:
		now := uint32(d.clock.Now().Unix())
		log.Debug().Msgf("session.Dispatcher get_time epoch=%d", now)
		return true, d.send(schema.MsgGetTimeResponse, schema.EncodeGetTimeResponse(now))
	case schema.MsgDisconnectRequest:
		log.Info().Msgf("session.Dispatcher peer requested disconnect state=%s", d.state)
		if err := d.send(schema.MsgDisconnectResponse, nil); err != nil {
			return true, err
		}
		return true, protocol.ErrPeerDisconnect
	}
	return false, nil
}

func (d *Dispatcher) send(msgType protocol.MessageType, data []byte) error {
	if err := d.conn.Send(msgType, data); err != nil {
		return d.fail(err)
	}
	return nil
}

func (d *Dispatcher) expect(want State) error {
	if d.state != want {
		return fmt.Errorf("%w: state=%s want=%s", ErrOutOfOrder, d.state, want)
	}
	return nil
}

func (d *Dispatcher) transition(next State) {
	if d.state == next {
		return
	}
	log.Debug().Msgf("session.Dispatcher state %s -> %s", d.state, next)
	d.state = next
}

// fail makes the dispatcher terminal.
func (d *Dispatcher) fail(err error) error {
	d.transition(StateClosed)
	return err
}
