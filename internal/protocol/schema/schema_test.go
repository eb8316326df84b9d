package schema

import (
	"bytes"
	"testing"

	"github.com/danmuck/nativectl/internal/protocol/wire"
	"github.com/danmuck/nativectl/internal/testutil/testlog"
)

func TestEncodeHelloBytes(t *testing.T) {
	testlog.Start(t)
	got := EncodeHello("nativectl")
	want := append([]byte{0x0a, 0x09}, []byte("nativectl")...)
	want = append(want, 0x10, 0x01, 0x18, 0x0a)
	if !bytes.Equal(got, want) {
		t.Fatalf("hello bytes\n got: % x\nwant: % x", got, want)
	}
}

func TestEncodeAuthEmptyPassword(t *testing.T) {
	testlog.Start(t)
	if got := EncodeAuth(""); len(got) != 0 {
		t.Fatalf("empty password must encode to an empty body, got % x", got)
	}
	got := EncodeAuth("hunter2")
	want := append([]byte{0x0a, 0x07}, []byte("hunter2")...)
	if !bytes.Equal(got, want) {
		t.Fatalf("auth bytes % x", got)
	}
}

func TestEncodeGetTimeResponse(t *testing.T) {
	testlog.Start(t)
	got := EncodeGetTimeResponse(0x65000000)
	want := []byte{0x0d, 0x00, 0x00, 0x00, 0x65}
	if !bytes.Equal(got, want) {
		t.Fatalf("get time bytes % x", got)
	}
	if DecodeGetTimeResponse(got) != 0x65000000 {
		t.Fatalf("get time did not round-trip")
	}
}

func TestDecodeHelloResponse(t *testing.T) {
	testlog.Start(t)
	data := new(wire.Builder).
		Uint32(FieldHelloRespAPIMajor, 1).
		Uint32(FieldHelloRespAPIMinor, 9).
		String(FieldHelloRespServerInfo, "pool-controller (esphome v2024.6.0)").
		String(FieldHelloRespName, "pool-controller").
		Bytes()
	resp := DecodeHelloResponse(data)
	if resp.APIMajor != 1 || resp.APIMinor != 9 {
		t.Fatalf("api version %d.%d", resp.APIMajor, resp.APIMinor)
	}
	if resp.Name != "pool-controller" || resp.ServerInfo == "" {
		t.Fatalf("unexpected hello response %+v", resp)
	}
}

func TestDecodeDeviceInfo(t *testing.T) {
	testlog.Start(t)
	data := new(wire.Builder).
		Bool(FieldDeviceUsesPassword, true).
		String(FieldDeviceName, "pool-controller").
		String(FieldDeviceMAC, "AA:BB:CC:DD:EE:FF").
		String(FieldDeviceVersion, "2024.6.0").
		String(FieldDeviceCompilationTime, "Jun 10 2024, 12:00:00").
		String(FieldDeviceModel, "esp32dev").
		String(FieldDeviceProjectName, "acme.pool").
		String(FieldDeviceProjectVersion, "1.2.0").
		Uint32(FieldDeviceWebserverPort, 80).
		String(FieldDeviceManufacturer, "Espressif").
		String(FieldDeviceFriendlyName, "Pool Controller").
		Bytes()
	info := DecodeDeviceInfo(data)
	want := DeviceInfo{
		UsesPassword:    true,
		Name:            "pool-controller",
		MAC:             "AA:BB:CC:DD:EE:FF",
		Version:         "2024.6.0",
		CompilationTime: "Jun 10 2024, 12:00:00",
		Model:           "esp32dev",
		ProjectName:     "acme.pool",
		ProjectVersion:  "1.2.0",
		WebserverPort:   80,
		Manufacturer:    "Espressif",
		FriendlyName:    "Pool Controller",
	}
	if info != want {
		t.Fatalf("device info\n got: %+v\nwant: %+v", info, want)
	}
}

func TestDecodeDeviceInfoTruncatedKeepsPrefix(t *testing.T) {
	testlog.Start(t)
	data := new(wire.Builder).String(FieldDeviceName, "kitchen").Bytes()
	data = append(data, 0x1a, 0x7f, 'A', 'B')
	info := DecodeDeviceInfo(data)
	if info.Name != "kitchen" {
		t.Fatalf("name=%q", info.Name)
	}
	if info.MAC != "" {
		t.Fatalf("overlong mac must be dropped, got %q", info.MAC)
	}
}

func TestDecodeAuthResponse(t *testing.T) {
	testlog.Start(t)
	if DecodeAuthResponse(nil).InvalidPassword {
		t.Fatalf("empty auth response must not flag invalid password")
	}
	data := new(wire.Builder).Bool(FieldAuthInvalidPassword, true).Bytes()
	if !DecodeAuthResponse(data).InvalidPassword {
		t.Fatalf("invalid_password not decoded")
	}
}
