// Package schema names the native API message vocabulary: message type ids,
// field numbers, and the few request and response bodies the client builds
// or reads directly.
package schema

import (
	"github.com/rs/zerolog/log"

	"github.com/danmuck/nativectl/internal/protocol"
	"github.com/danmuck/nativectl/internal/protocol/wire"
)

// Message type ids.
const (
	MsgHelloRequest        protocol.MessageType = 1
	MsgHelloResponse       protocol.MessageType = 2
	MsgAuthRequest         protocol.MessageType = 3
	MsgAuthResponse        protocol.MessageType = 4
	MsgDisconnectRequest   protocol.MessageType = 5
	MsgDisconnectResponse  protocol.MessageType = 6
	MsgPingRequest         protocol.MessageType = 7
	MsgPingResponse        protocol.MessageType = 8
	MsgDeviceInfoRequest   protocol.MessageType = 9
	MsgDeviceInfoResponse  protocol.MessageType = 10
	MsgListEntitiesRequest protocol.MessageType = 11
	MsgListEntitiesDone    protocol.MessageType = 19
	MsgGetTimeRequest      protocol.MessageType = 36
	MsgGetTimeResponse     protocol.MessageType = 37
)

// API version the client announces in its hello.
const (
	APIVersionMajor uint32 = 1
	APIVersionMinor uint32 = 10
)

// Hello request fields.
const (
	FieldHelloClientInfo wire.Number = 1
	FieldHelloAPIMajor   wire.Number = 2
	FieldHelloAPIMinor   wire.Number = 3
)

// Hello response fields.
const (
	FieldHelloRespAPIMajor   wire.Number = 1
	FieldHelloRespAPIMinor   wire.Number = 2
	FieldHelloRespServerInfo wire.Number = 3
	FieldHelloRespName       wire.Number = 4
)

const (
	FieldAuthPassword        wire.Number = 1
	FieldAuthInvalidPassword wire.Number = 1
	FieldGetTimeEpochSeconds wire.Number = 1
)

// Device info response fields.
const (
	FieldDeviceUsesPassword    wire.Number = 1
	FieldDeviceName            wire.Number = 2
	FieldDeviceMAC             wire.Number = 3
	FieldDeviceVersion         wire.Number = 4
	FieldDeviceCompilationTime wire.Number = 5
	FieldDeviceModel           wire.Number = 6
	FieldDeviceHasDeepSleep    wire.Number = 7
	FieldDeviceProjectName     wire.Number = 8
	FieldDeviceProjectVersion  wire.Number = 9
	FieldDeviceWebserverPort   wire.Number = 10
	FieldDeviceManufacturer    wire.Number = 12
	FieldDeviceFriendlyName    wire.Number = 13
)

// HelloResponse is the server's answer to the client hello.
type HelloResponse struct {
	APIMajor   uint32
	APIMinor   uint32
	ServerInfo string
	Name       string
}

// DeviceInfo describes the device. Strings are kept as received.
type DeviceInfo struct {
	UsesPassword    bool
	Name            string
	MAC             string
	Version         string
	CompilationTime string
	Model           string
	HasDeepSleep    bool
	ProjectName     string
	ProjectVersion  string
	WebserverPort   uint32
	Manufacturer    string
	FriendlyName    string
}

// AuthResponse reports whether the device rejected the password.
type AuthResponse struct {
	InvalidPassword bool
}

func EncodeHello(clientInfo string) []byte {
	return new(wire.Builder).
		String(FieldHelloClientInfo, clientInfo).
		Uint32(FieldHelloAPIMajor, APIVersionMajor).
		Uint32(FieldHelloAPIMinor, APIVersionMinor).
		Bytes()
}

// EncodeAuth builds the auth request. An empty password encodes to an empty body.
func EncodeAuth(password string) []byte {
	return new(wire.Builder).String(FieldAuthPassword, password).Bytes()
}

func EncodeGetTimeResponse(epochSeconds uint32) []byte {
	return new(wire.Builder).Fixed32(FieldGetTimeEpochSeconds, epochSeconds).Bytes()
}

func DecodeHelloResponse(data []byte) HelloResponse {
	f := wire.Decode(data)
	resp := HelloResponse{
		APIMajor:   f.Uint32(FieldHelloRespAPIMajor),
		APIMinor:   f.Uint32(FieldHelloRespAPIMinor),
		ServerInfo: f.String(FieldHelloRespServerInfo),
		Name:       f.String(FieldHelloRespName),
	}
	log.Debug().Msgf("schema.DecodeHelloResponse api=%d.%d server_info=%q", resp.APIMajor, resp.APIMinor, resp.ServerInfo)
	return resp
}

func DecodeDeviceInfo(data []byte) DeviceInfo {
	f := wire.Decode(data)
	return DeviceInfo{
		UsesPassword:    f.Bool(FieldDeviceUsesPassword),
		Name:            f.String(FieldDeviceName),
		MAC:             f.String(FieldDeviceMAC),
		Version:         f.String(FieldDeviceVersion),
		CompilationTime: f.String(FieldDeviceCompilationTime),
		Model:           f.String(FieldDeviceModel),
		HasDeepSleep:    f.Bool(FieldDeviceHasDeepSleep),
		ProjectName:     f.String(FieldDeviceProjectName),
		ProjectVersion:  f.String(FieldDeviceProjectVersion),
		WebserverPort:   f.Uint32(FieldDeviceWebserverPort),
		Manufacturer:    f.String(FieldDeviceManufacturer),
		FriendlyName:    f.String(FieldDeviceFriendlyName),
	}
}

func DecodeAuthResponse(data []byte) AuthResponse {
	return AuthResponse{InvalidPassword: wire.Decode(data).Bool(FieldAuthInvalidPassword)}
}

// DecodeGetTimeResponse reads the epoch seconds from a time response body.
func DecodeGetTimeResponse(data []byte) uint32 {
	return wire.Decode(data).Fixed32(FieldGetTimeEpochSeconds)
}
