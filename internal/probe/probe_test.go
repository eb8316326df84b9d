package probe

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danmuck/nativectl/internal/catalog"
	"github.com/danmuck/nativectl/internal/testutil/testlog"
)

func deviceServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/sensor/water_temp", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{\n  \"id\": \"sensor-water_temp\",\n  \"value\": 27.5\n}"))
	})
	mux.HandleFunc("/switch/relay1", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ON"))
	})
	mux.HandleFunc("/binary_sensor/door", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})
	mux.HandleFunc("/sensor/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func endpointsFor(entities ...catalog.Entity) []catalog.Endpoint {
	eps, _ := catalog.DeriveEndpoints(entities)
	return eps
}

func TestRunClassifiesOutcomes(t *testing.T) {
	testlog.Start(t)
	srv := deviceServer(t)
	eps := endpointsFor(
		catalog.Entity{Kind: catalog.KindSensor, ObjectID: "water_temp", Name: "Water Temp"},
		catalog.Entity{Kind: catalog.KindSwitch, ObjectID: "relay1", Name: "Relay 1"},
		catalog.Entity{Kind: catalog.KindBinarySensor, ObjectID: "door", Name: "Door"},
	)
	outcomes := New(time.Second).Run(context.Background(), srv.URL, eps)
	require.Len(t, outcomes, 3)

	assert.Equal(t, StatusOK, outcomes[0].Status)
	assert.Equal(t, `{"id":"sensor-water_temp","value":27.5}`, outcomes[0].Body)
	assert.Equal(t, srv.URL+"/sensor/water_temp", outcomes[0].URL)

	assert.Equal(t, StatusOK, outcomes[1].Status)
	assert.Equal(t, "ON", outcomes[1].Body)

	assert.Equal(t, StatusFailed, outcomes[2].Status)
	assert.Equal(t, http.StatusNotFound, outcomes[2].Code)
	assert.Contains(t, outcomes[2].Body, "nope")

	s := Summarize(outcomes)
	assert.Equal(t, Summary{Tested: 3, Succeeded: 2, Failed: 1}, s)
	err := Failures(outcomes)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/binary_sensor/door")
	assert.ErrorIs(t, err, ErrEndpointsFailed)
	assert.Contains(t, err.Error(), "1 of 3")
	assert.NotContains(t, err.Error(), "%!w")
}

func TestFailuresNilWhenAllSucceed(t *testing.T) {
	testlog.Start(t)
	assert.NoError(t, Failures(nil))
	assert.NoError(t, Failures([]Outcome{{Status: StatusOK}}))
}

func TestRunSkipsPostOnlyEndpoints(t *testing.T) {
	testlog.Start(t)
	eps := []catalog.Endpoint{{Label: "Custom", Path: "/custom/x", Methods: []string{catalog.MethodPost}}}
	assert.Empty(t, GetCapable(eps))
	assert.Empty(t, New(time.Second).Run(context.Background(), "http://127.0.0.1:1", eps))
}

func TestProbeTimeout(t *testing.T) {
	testlog.Start(t)
	srv := deviceServer(t)
	o := New(100*time.Millisecond).Probe(context.Background(), srv.URL+"/sensor/slow", catalog.Endpoint{})
	assert.Equal(t, StatusTimeout, o.Status)
	assert.Error(t, o.Err)
	assert.Greater(t, o.Duration, time.Duration(0))
}

func TestProbeConnectionError(t *testing.T) {
	testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	o := New(time.Second).Probe(context.Background(), "http://"+addr+"/sensor/x", catalog.Endpoint{})
	assert.Equal(t, StatusConnError, o.Status)
	assert.Zero(t, o.Code)
}

func TestBaseURL(t *testing.T) {
	testlog.Start(t)
	assert.Equal(t, "http://pool.local", BaseURL("pool.local", 0))
	assert.Equal(t, "http://pool.local", BaseURL("pool.local", 80))
	assert.Equal(t, "http://pool.local:8080", BaseURL("pool.local", 8080))
}
