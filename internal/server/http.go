package server

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/muurk/lampsmart/internal/device"
	"github.com/muurk/lampsmart/internal/logging"
	"github.com/muurk/lampsmart/internal/protocol"
	"github.com/muurk/lampsmart/internal/version"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodySize caps request bodies. Every request type is a few fields.
const maxBodySize = 4096

// routes registers every endpoint on a new mux.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /api/events", s.hub)

	mux.HandleFunc("GET /api/devices", s.handleListDevices)
	mux.HandleFunc("GET /api/devices/{name}", s.handleGetDevice)
	mux.HandleFunc("POST /api/devices/{name}/light", s.handleLight)
	mux.HandleFunc("POST /api/devices/{name}/fan", s.handleFan)
	mux.HandleFunc("POST /api/devices/{name}/command", s.handleCommand)
	mux.HandleFunc("POST /api/devices/{name}/{action}", s.handleAction)

	return logRequests(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	devices, err := s.operator.Devices(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Health{
		Status:      "ok",
		Version:     version.Version,
		Devices:     len(devices),
		Subscribers: s.hub.Subscribers(),
	})
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.operator.Devices(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	info, err := s.deviceInfo(r, r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	ctx := r.Context()

	var err error
	switch action := r.PathValue("action"); action {
	case "pair":
		err = s.operator.Pair(ctx, name)
	case "unpair":
		err = s.operator.Unpair(ctx, name)
	case "on":
		err = s.operator.TurnOn(ctx, name)
	case "off":
		err = s.operator.TurnOff(ctx, name)
	default:
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("unknown action %q", action)})
		return
	}
	s.respondDevice(w, r, name, err)
}

func (s *Server) handleLight(w http.ResponseWriter, r *http.Request) {
	var call device.LightCall
	if !decodeBody(w, r, &call) {
		return
	}
	name := r.PathValue("name")
	s.respondDevice(w, r, name, s.operator.SetLight(r.Context(), name, call))
}

func (s *Server) handleFan(w http.ResponseWriter, r *http.Request) {
	var call device.FanCall
	if !decodeBody(w, r, &call) {
		return
	}
	name := r.PathValue("name")
	s.respondDevice(w, r, name, s.operator.SetFan(r.Context(), name, call))
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if !decodeBody(w, r, &req) {
		return
	}
	op, err := protocol.ParseOpcode(req.Opcode)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	name := r.PathValue("name")
	s.respondDevice(w, r, name, s.operator.Send(r.Context(), name, op, req.Arg1, req.Arg2))
}

// respondDevice writes the device's current info, or the error from the
// operation that preceded it.
func (s *Server) respondDevice(w http.ResponseWriter, r *http.Request, name string, opErr error) {
	if opErr != nil {
		writeError(w, opErr)
		return
	}
	info, err := s.deviceInfo(r, name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) deviceInfo(r *http.Request, name string) (device.Info, error) {
	devices, err := s.operator.Devices(r.Context())
	if err != nil {
		return device.Info{}, err
	}
	for _, d := range devices {
		if d.Name == name {
			return d, nil
		}
	}
	return device.Info{}, fmt.Errorf("%w: %s", device.ErrUnknownDevice, name)
}

// decodeBody parses a JSON request body into v. On failure it writes a 400
// and returns false. An empty body leaves v at its zero value.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// statusFor maps operation errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, device.ErrUnknownDevice):
		return http.StatusNotFound
	case errors.Is(err, device.ErrWrongKind):
		return http.StatusConflict
	case errors.Is(err, device.ErrInvalidSpeed), errors.Is(err, device.ErrInvalidGroup):
		return http.StatusBadRequest
	default:
		// Radio failures: the command was attempted but not confirmed sent
		return http.StatusBadGateway
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Hijack hands the connection to the WebSocket upgrader.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// logRequests logs every request once it completes.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}
