package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/lampsmart/internal/config"
	"github.com/muurk/lampsmart/internal/device"
	"github.com/muurk/lampsmart/internal/protocol"
	"github.com/muurk/lampsmart/internal/radio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rig struct {
	rec    *radio.Recorder
	tx     *radio.Transmitter
	server *Server
	http   *httptest.Server
}

func newRig(t *testing.T) *rig {
	t.Helper()

	reg := config.NewRegistry()
	reg.Devices["kitchen"] = &config.Device{Kind: config.KindLight, Name: "Kitchen Light"}
	reg.Devices["ceiling_fan"] = &config.Device{Kind: config.KindFan}

	rec := radio.NewRecorder()
	tx := radio.NewTransmitter(rec, radio.WithSleep(func(time.Duration) {}))
	fleet, err := device.NewFleet(reg, tx, device.WithNonce(protocol.FixedNonce(0)))
	require.NoError(t, err)

	srv, err := New(&Config{}, fleet, tx)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Hub().Close()
		ts.Close()
	})
	return &rig{rec: rec, tx: tx, server: srv, http: ts}
}

func (r *rig) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, r.http.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func (r *rig) opcodes(t *testing.T) []protocol.Opcode {
	t.Helper()
	var ops []protocol.Opcode
	for _, p := range r.rec.Payloads() {
		d, err := protocol.ParsePacket(p[:])
		require.NoError(t, err)
		ops = append(ops, d.Opcode)
	}
	return ops
}

func TestHealth(t *testing.T) {
	r := newRig(t)

	resp, body := r.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var h Health
	require.NoError(t, json.Unmarshal(body, &h))
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, 2, h.Devices)
	assert.Equal(t, 0, h.Subscribers)
}

func TestListDevices(t *testing.T) {
	r := newRig(t)

	resp, body := r.do(t, http.MethodGet, "/api/devices", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var infos []device.Info
	require.NoError(t, json.Unmarshal(body, &infos))
	require.Len(t, infos, 2)
	assert.Equal(t, "ceiling_fan", infos[0].Name)
	assert.Equal(t, "kitchen", infos[1].Name)
	assert.Equal(t, "8c:df", infos[1].HostID)
}

func TestGetDevice(t *testing.T) {
	r := newRig(t)

	resp, body := r.do(t, http.MethodGet, "/api/devices/kitchen", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var info device.Info
	require.NoError(t, json.Unmarshal(body, &info))
	assert.Equal(t, config.KindLight, info.Kind)
	require.NotNil(t, info.Light)
	assert.False(t, info.Light.On)

	resp, body = r.do(t, http.MethodGet, "/api/devices/garage", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Contains(t, e.Error, "garage")
}

func TestActions(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		status int
		ops    []protocol.Opcode
	}{
		{"pair", "/api/devices/kitchen/pair", http.StatusOK, []protocol.Opcode{protocol.OpcodePair}},
		{"unpair", "/api/devices/kitchen/unpair", http.StatusOK, []protocol.Opcode{protocol.OpcodeUnpair}},
		{"light on", "/api/devices/kitchen/on", http.StatusOK, []protocol.Opcode{protocol.OpcodeTurnOn, protocol.OpcodeDim}},
		{"fan off", "/api/devices/ceiling_fan/off", http.StatusOK, []protocol.Opcode{protocol.OpcodeGear}},
		{"unknown action", "/api/devices/kitchen/explode", http.StatusNotFound, nil},
		{"unknown device", "/api/devices/garage/pair", http.StatusNotFound, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig(t)
			resp, _ := r.do(t, http.MethodPost, tt.path, "")
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.ops, r.opcodes(t))
		})
	}
}

func TestSetLight(t *testing.T) {
	r := newRig(t)

	resp, body := r.do(t, http.MethodPost, "/api/devices/kitchen/light", `{"state":true,"brightness":0.5}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var info device.Info
	require.NoError(t, json.Unmarshal(body, &info))
	require.NotNil(t, info.Light)
	assert.True(t, info.Light.On)
	assert.InDelta(t, 0.5, info.Light.Brightness, 1e-9)
	assert.Equal(t, []protocol.Opcode{protocol.OpcodeTurnOn, protocol.OpcodeDim}, r.opcodes(t))
}

func TestSetLightErrors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"wrong kind", "/api/devices/ceiling_fan/light", `{"state":true}`, http.StatusConflict},
		{"unknown field", "/api/devices/kitchen/light", `{"colour":"red"}`, http.StatusBadRequest},
		{"malformed json", "/api/devices/kitchen/light", `{"state":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig(t)
			resp, _ := r.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Empty(t, r.rec.Payloads())
		})
	}
}

func TestSetFan(t *testing.T) {
	r := newRig(t)

	resp, body := r.do(t, http.MethodPost, "/api/devices/ceiling_fan/fan", `{"state":true,"speed":3,"direction":"reverse"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var info device.Info
	require.NoError(t, json.Unmarshal(body, &info))
	require.NotNil(t, info.Fan)
	assert.True(t, info.Fan.On)
	assert.Equal(t, 3, info.Fan.Speed)
	assert.Equal(t, device.Reverse, info.Fan.Direction)

	resp, _ = r.do(t, http.MethodPost, "/api/devices/ceiling_fan/fan", `{"speed":9}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = r.do(t, http.MethodPost, "/api/devices/kitchen/fan", `{"speed":1}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRawCommand(t *testing.T) {
	r := newRig(t)

	resp, _ := r.do(t, http.MethodPost, "/api/devices/kitchen/command", `{"opcode":"dim","arg1":10,"arg2":20}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	payloads := r.rec.Payloads()
	require.Len(t, payloads, 1)
	d, err := protocol.ParsePacket(payloads[0][:])
	require.NoError(t, err)
	assert.Equal(t, protocol.OpcodeDim, d.Opcode)
	assert.Equal(t, uint8(10), d.Arg1)
	assert.Equal(t, uint8(20), d.Arg2)

	resp, _ = r.do(t, http.MethodPost, "/api/devices/kitchen/command", `{"opcode":"0x1FF"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRadioFailureIsBadGateway(t *testing.T) {
	r := newRig(t)
	r.rec.FailOn(radio.OpStart, errors.New("controller busy"))

	resp, body := r.do(t, http.MethodPost, "/api/devices/kitchen/pair", "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, string(body), "controller busy")
}

func TestMethodNotAllowed(t *testing.T) {
	r := newRig(t)
	resp, _ := r.do(t, http.MethodDelete, "/api/devices/kitchen", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	r := newRig(t)
	r.do(t, http.MethodPost, "/api/devices/kitchen/pair", "")

	resp, body := r.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "lampsmart_")
}

func TestEventStream(t *testing.T) {
	r := newRig(t)

	url := "ws" + strings.TrimPrefix(r.http.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return r.server.Hub().Subscribers() == 1 },
		2*time.Second, 10*time.Millisecond)

	resp, _ := r.do(t, http.MethodPost, "/api/devices/kitchen/pair", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "pair", ev.Opcode)
	assert.Equal(t, "8c:df", ev.HostID)
	assert.Len(t, ev.Payload, 2*radio.MaxAdvertisingDataLength)
	assert.Empty(t, ev.Error)
}

func TestHubCloseDisconnects(t *testing.T) {
	r := newRig(t)

	url := "ws" + strings.TrimPrefix(r.http.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return r.server.Hub().Subscribers() == 1 },
		2*time.Second, 10*time.Millisecond)

	r.server.Hub().Close()
	assert.Equal(t, 0, r.server.Hub().Subscribers())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

func TestNewEvent(t *testing.T) {
	pkt := protocol.Builder{Nonce: protocol.FixedNonce(7)}.Build(
		protocol.NewCommand(protocol.OpcodeDim, protocol.DeriveHostID(protocol.FallbackStableID), 3, 0x40, 0x80))
	tr := radio.Transmission{Payload: radio.Payload(pkt.Payload()), Hold: 1500 * time.Millisecond, Started: time.Unix(10, 0)}

	ev := NewEvent(tr)
	assert.Equal(t, "dim", ev.Opcode)
	assert.Equal(t, "a6:bd", ev.HostID)
	assert.Equal(t, uint8(3), ev.GroupID)
	assert.Equal(t, uint8(0x40), ev.Arg1)
	assert.Equal(t, uint8(0x80), ev.Arg2)
	assert.Equal(t, uint8(7), ev.Nonce)
	assert.Equal(t, int64(1500), ev.HoldMS)

	bad := NewEvent(radio.Transmission{Err: errors.New("boom")})
	assert.Equal(t, "boom", bad.Error)
	assert.Empty(t, bad.Opcode)
}

func TestStartShutdown(t *testing.T) {
	srv, err := New(&Config{Host: "127.0.0.1", Port: 0, ShutdownTimeout: time.Second}, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	require.Eventually(t, func() bool { return srv.Addr() != nil }, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestNewRejectsPartialTLS(t *testing.T) {
	_, err := New(&Config{CertPath: "cert.pem"}, nil, nil)
	assert.Error(t, err)
}
