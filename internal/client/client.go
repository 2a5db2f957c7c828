// Package client talks to a lampsmart bridge over its HTTP API.
//
// Client implements device.Operator, so every CLI command and the remote TUI
// work the same against a local radio or a bridge on another host.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/lampsmart/internal/device"
	"github.com/muurk/lampsmart/internal/logging"
	"github.com/muurk/lampsmart/internal/protocol"
	"github.com/muurk/lampsmart/internal/server"
	"github.com/muurk/lampsmart/internal/version"
	"go.uber.org/zap"
)

// DefaultTimeout bounds one API request. Commands block on the bridge for
// the full transmission duration.
const DefaultTimeout = 15 * time.Second

// APIError is a non-2xx response from the bridge.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bridge returned %d: %s", e.Status, e.Message)
}

// Unwrap maps statuses back to the device package's sentinel errors.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return device.ErrUnknownDevice
	case http.StatusConflict:
		return device.ErrWrongKind
	}
	return nil
}

// Client is a bridge API client.
type Client struct {
	base *url.URL
	http *http.Client
}

var _ device.Operator = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// New creates a client for the bridge at baseURL ("http://host:8750").
func New(baseURL string, opts ...Option) (*Client, error) {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid bridge URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid bridge URL %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid bridge URL %q: missing host", baseURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")

	c := &Client{
		base: u,
		http: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the bridge URL.
func (c *Client) BaseURL() string { return c.base.String() }

func (c *Client) endpoint(segments ...string) string {
	u := *c.base
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	u.Path = c.base.Path + "/" + strings.Join(segments, "/")
	u.RawPath = c.base.EscapedPath() + "/" + strings.Join(escaped, "/")
	return u.String()
}

// do sends body as JSON (when non-nil) and decodes the response into out
// (when non-nil).
func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("bridge request failed: %w", err)
	}
	defer resp.Body.Close()

	logging.Debug("Bridge request",
		zap.String("method", method),
		zap.String("url", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e server.ErrorResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(data))
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode bridge response: %w", err)
	}
	return nil
}

// Health queries /healthz.
func (c *Client) Health(ctx context.Context) (server.Health, error) {
	var h server.Health
	err := c.do(ctx, http.MethodGet, c.endpoint("healthz"), nil, &h)
	return h, err
}

// Devices lists the bridge's devices.
func (c *Client) Devices(ctx context.Context) ([]device.Info, error) {
	var infos []device.Info
	if err := c.do(ctx, http.MethodGet, c.endpoint("api", "devices"), nil, &infos); err != nil {
		return nil, err
	}
	return infos, nil
}

// Device returns one device.
func (c *Client) Device(ctx context.Context, name string) (device.Info, error) {
	var info device.Info
	err := c.do(ctx, http.MethodGet, c.endpoint("api", "devices", name), nil, &info)
	return info, err
}

func (c *Client) action(ctx context.Context, name, action string) error {
	return c.do(ctx, http.MethodPost, c.endpoint("api", "devices", name, action), nil, nil)
}

// Pair sends PAIR through the bridge.
func (c *Client) Pair(ctx context.Context, name string) error { return c.action(ctx, name, "pair") }

// Unpair sends UNPAIR through the bridge.
func (c *Client) Unpair(ctx context.Context, name string) error {
	return c.action(ctx, name, "unpair")
}

// TurnOn switches a device on.
func (c *Client) TurnOn(ctx context.Context, name string) error { return c.action(ctx, name, "on") }

// TurnOff switches a device off.
func (c *Client) TurnOff(ctx context.Context, name string) error { return c.action(ctx, name, "off") }

// SetLight applies call to a light.
func (c *Client) SetLight(ctx context.Context, name string, call device.LightCall) error {
	return c.do(ctx, http.MethodPost, c.endpoint("api", "devices", name, "light"), call, nil)
}

// SetFan applies call to a fan.
func (c *Client) SetFan(ctx context.Context, name string, call device.FanCall) error {
	return c.do(ctx, http.MethodPost, c.endpoint("api", "devices", name, "fan"), call, nil)
}

// Send transmits a raw opcode.
func (c *Client) Send(ctx context.Context, name string, op protocol.Opcode, arg1, arg2 uint8) error {
	req := server.CommandRequest{
		Opcode: fmt.Sprintf("0x%02X", uint16(op)),
		Arg1:   arg1,
		Arg2:   arg2,
	}
	return c.do(ctx, http.MethodPost, c.endpoint("api", "devices", name, "command"), req, nil)
}

// Watch streams transmission events to fn until ctx ends or the bridge
// closes the connection. A close initiated by ctx returns nil.
func (c *Client) Watch(ctx context.Context, fn func(server.Event)) error {
	u, err := url.Parse(c.endpoint("api", "events"))
	if err != nil {
		return err
	}
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}

	dialer := *websocket.DefaultDialer
	if t, ok := c.http.Transport.(*http.Transport); ok && t.TLSClientConfig != nil {
		dialer.TLSClientConfig = t.TLSClientConfig
	}

	header := http.Header{"User-Agent": []string{version.UserAgent()}}
	conn, _, err := dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		return fmt.Errorf("failed to connect to event stream: %w", err)
	}
	defer conn.Close()

	logging.LogConnection(u.Host, "event_stream_connected")

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		case <-stop:
		}
	}()

	for {
		var ev server.Event
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			var syntaxErr *json.SyntaxError
			if errors.As(err, &syntaxErr) {
				logging.Warn("Skipping malformed event", zap.Error(err))
				continue
			}
			return fmt.Errorf("event stream: %w", err)
		}
		fn(ev)
	}
}
