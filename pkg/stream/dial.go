package stream

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"github.com/ps2-census/census-stream/pkg/census"
)

const (
	// DefaultEndpoint is the production push service.
	DefaultEndpoint = "wss://push.planetside2.com/streaming"

	defaultHandshakeTimeout = 10 * time.Second
	defaultWriteTimeout     = 10 * time.Second
)

var tracer = otel.Tracer("github.com/ps2-census/census-stream/pkg/stream")

// errPacing marks a dial given up while waiting on the Limiter, before any
// network I/O.
var errPacing = errors.New("dial pacing")

// Dialer opens push connections. The zero value dials the production
// endpoint with DefaultPolicy and no dial pacing.
type Dialer struct {
	// Endpoint is the streaming URL without query (default: DefaultEndpoint).
	Endpoint string

	// TLSConfig is used for wss endpoints. MinVersion is raised to TLS 1.2.
	TLSConfig *tls.Config

	// Insecure permits ws:// endpoints.
	Insecure bool

	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration

	// Policy is consulted before every dial.
	Policy *ReconnectPolicy

	// Limiter paces dials. Nil means unlimited.
	Limiter *rate.Limiter
}

func (d *Dialer) policy() ReconnectPolicy {
	if d.Policy == nil {
		return DefaultPolicy()
	}
	return *d.Policy
}

// URL returns the streaming URL for env and serviceID.
func (d *Dialer) URL(env census.Environment, serviceID string) (string, error) {
	endpoint := d.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	switch u.Scheme {
	case "wss":
	case "ws":
		if !d.Insecure {
			return "", fmt.Errorf("endpoint %q is not TLS secured", endpoint)
		}
	default:
		return "", fmt.Errorf("endpoint %q: unsupported scheme %q", endpoint, u.Scheme)
	}
	q := u.Query()
	q.Set("environment", string(env))
	q.Set("service-id", "s:"+serviceID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Dial opens a connection for env and serviceID. weight is the caller's
// accumulated reconnect weight; a weight above the policy ceiling fails
// with census.KindReconnectLimit before any network I/O.
func (d *Dialer) Dial(ctx context.Context, env census.Environment, serviceID string, weight float64) (*Conn, error) {
	if err := d.policy().Allow(weight); err != nil {
		return nil, err
	}
	if !env.Valid() {
		return nil, census.New(census.KindTransport, fmt.Sprintf("unknown environment %q", env))
	}
	if serviceID == "" {
		return nil, census.New(census.KindTransport, "service id is required")
	}
	target, err := d.URL(env, serviceID)
	if err != nil {
		return nil, census.Transport("invalid endpoint", err)
	}

	ctx, span := tracer.Start(ctx, "census.dial")
	defer span.End()
	span.SetAttributes(
		attribute.String("census.environment", string(env)),
		attribute.Float64("census.reconnect_weight", weight),
	)

	if d.Limiter != nil {
		if err := d.Limiter.Wait(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "dial pacing")
			return nil, census.Transport("unable to connect to census events api", fmt.Errorf("%w: %w", errPacing, err))
		}
	}

	ws, err := d.dial(ctx, target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dial failed")
		return nil, census.Transport("unable to connect to census events api", err)
	}

	writeTimeout := d.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = defaultWriteTimeout
	}
	return &Conn{ws: ws, writeTimeout: writeTimeout}, nil
}

func (d *Dialer) dial(ctx context.Context, target string) (*websocket.Conn, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if d.TLSConfig != nil {
		tlsConfig = d.TLSConfig.Clone()
		if tlsConfig.MinVersion < tls.VersionTLS12 {
			tlsConfig.MinVersion = tls.VersionTLS12
		}
	}
	timeout := d.HandshakeTimeout
	if timeout == 0 {
		timeout = defaultHandshakeTimeout
	}
	wd := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		TLSClientConfig:  tlsConfig,
		HandshakeTimeout: timeout,
	}

	ws, resp, err := wd.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil && errors.Is(err, websocket.ErrBadHandshake) {
			return nil, fmt.Errorf("%w: status %d", err, resp.StatusCode)
		}
		return nil, err
	}
	return ws, nil
}

// Conn is an open push connection.
type Conn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration
}

// Split returns the receive-only and send-only halves of c. One goroutine
// may use each half concurrently with the other.
func (c *Conn) Split() (*ReadHalf, *WriteHalf) {
	return &ReadHalf{ws: c.ws}, &WriteHalf{ws: c.ws, timeout: c.writeTimeout}
}

// Close closes the underlying socket.
func (c *Conn) Close() error {
	return c.ws.Close()
}

// Frame is one inbound websocket message. Closed is set when the peer sent
// a close frame; Data is empty in that case.
type Frame struct {
	Data      []byte
	Closed    bool
	CloseCode int
}

// ReadHalf is the receive side of a Conn.
type ReadHalf struct {
	ws *websocket.Conn
}

// Next blocks until the next frame arrives. A close from the peer is
// returned as a Frame, any other read failure as a census.KindTransport
// error, after which the half is unusable.
func (r *ReadHalf) Next() (Frame, error) {
	_, data, err := r.ws.ReadMessage()
	if err != nil {
		var ce *websocket.CloseError
		if errors.As(err, &ce) {
			return Frame{Closed: true, CloseCode: ce.Code}, nil
		}
		return Frame{}, census.Transport("unable to get next websocket message", err)
	}
	return Frame{Data: data}, nil
}

// Close closes the socket, unblocking a pending Next.
func (r *ReadHalf) Close() error {
	return r.ws.Close()
}

// WriteHalf is the send side of a Conn.
type WriteHalf struct {
	ws      *websocket.Conn
	timeout time.Duration
}

// WriteText sends one text frame.
func (w *WriteHalf) WriteText(data []byte) error {
	w.ws.SetWriteDeadline(time.Now().Add(w.timeout))
	if err := w.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return census.Transport("unable to send message to census api", err)
	}
	return nil
}

// CloseGracefully sends a normal close frame. The socket itself is closed
// by the read side.
func (w *WriteHalf) CloseGracefully() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	return w.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(w.timeout))
}
