// Package stream connects to the push service and turns its frames into
// decoded events.
//
// A Client runs two goroutines: a reader that owns the receive side of the
// socket, the reconnect weight and the health snapshot, and a writer that
// owns the send side. NextEvent and Send talk to them over channels, so a
// pending read never blocks a send.
package stream

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"goa.design/clue/log"

	"github.com/ps2-census/census-stream/pkg/census"
	"github.com/ps2-census/census-stream/pkg/command"
	"github.com/ps2-census/census-stream/pkg/events"
)

// Recorder receives client activity for metrics. Implementations must be
// safe for concurrent use.
type Recorder interface {
	Frame(frameType string)
	Event(name, family string)
	DecodeError(kind string)
	Send(action string, err error)
	Reconnect(err error)
	Weight(w float64)
	Connected(up bool)
}

type nopRecorder struct{}

func (nopRecorder) Frame(string) {}
func (nopRecorder) Event(string, string) {}
func (nopRecorder) DecodeError(string) {}
func (nopRecorder) Send(string, error) {}
func (nopRecorder) Reconnect(error) {}
func (nopRecorder) Weight(float64) {}
func (nopRecorder) Connected(bool) {}

type options struct {
	dialer      Dialer
	metrics     Recorder
	resubscribe bool
	logCtx      context.Context
}

// Option configures Connect.
type Option func(*options)

// WithDialer sets the dialer used for the first connection and every
// reconnect.
func WithDialer(d *Dialer) Option {
	return func(o *options) {
		if d != nil {
			o.dialer = *d
		}
	}
}

// WithPolicy overrides the dialer's reconnect policy.
func WithPolicy(p ReconnectPolicy) Option {
	return func(o *options) {
		o.dialer.Policy = &p
	}
}

// WithMetrics records client activity on m, typically a Prometheus
// collector. A nil m records nothing.
func WithMetrics(m Recorder) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithResubscribe controls whether subscriptions sent on one connection are
// replayed after a reconnect. It is on by default.
func WithResubscribe(on bool) Option {
	return func(o *options) {
		o.resubscribe = on
	}
}

// WithLogger logs through the clue logger carried by ctx instead of the
// one in the context passed to Connect.
func WithLogger(ctx context.Context) Option {
	return func(o *options) {
		o.logCtx = ctx
	}
}

// Client is a live push session.
type Client struct {
	id          string
	env         census.Environment
	serviceID   string
	dialer      Dialer
	policy      ReconnectPolicy
	metrics     Recorder
	resubscribe bool

	// ctx carries the logger and is cancelled by Close.
	ctx    context.Context
	cancel context.CancelFunc

	pulls chan pull
	sends chan sendRequest
	swaps chan *WriteHalf

	live   atomic.Pointer[Conn]
	health health

	readerDone chan struct{}
	writerDone chan struct{}
	closeOnce  sync.Once
}

var errClosed = census.New(census.KindClosed, "client closed")

// Connect dials the push service for env and serviceID and starts the
// session. The service id is sent as "s:<serviceID>".
func Connect(ctx context.Context, env census.Environment, serviceID string, opts ...Option) (*Client, error) {
	o := options{metrics: nopRecorder{}, resubscribe: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logCtx == nil {
		o.logCtx = ctx
	}

	conn, err := o.dialer.Dial(ctx, env, serviceID, 0)
	if err != nil {
		o.metrics.Connected(false)
		return nil, err
	}

	id := uuid.NewString()
	base := log.With(context.WithoutCancel(o.logCtx),
		log.KV{K: "session", V: id},
		log.KV{K: "environment", V: string(env)})

	c := &Client{
		id:          id,
		env:         env,
		serviceID:   serviceID,
		dialer:      o.dialer,
		policy:      o.dialer.policy(),
		metrics:     o.metrics,
		resubscribe: o.resubscribe,
		pulls:       make(chan pull),
		sends:       make(chan sendRequest),
		swaps:       make(chan *WriteHalf),
		readerDone:  make(chan struct{}),
		writerDone:  make(chan struct{}),
	}
	c.ctx, c.cancel = context.WithCancel(base)
	c.live.Store(conn)
	c.health.update(func(h *Health) { h.Connected = true })
	c.metrics.Connected(true)
	c.metrics.Weight(0)

	rh, wh := conn.Split()
	go c.runReader(rh)
	go c.runWriter(wh)

	log.Info(c.ctx, log.KV{K: "msg", V: "connected to push service"})
	return c, nil
}

// ID returns the session id used in logs.
func (c *Client) ID() string {
	return c.id
}

// Send encodes cmd and writes it on the current connection. It returns once
// the frame has been written or the write failed.
func (c *Client) Send(ctx context.Context, cmd command.Command) error {
	data, err := command.Encode(cmd)
	if err != nil {
		c.metrics.Send(cmd.Action(), err)
		return err
	}

	ctx, span := tracer.Start(ctx, "census.send")
	defer span.End()
	span.SetAttributes(attribute.String("census.action", cmd.Action()))

	req := sendRequest{data: data, replay: replayOpFor(cmd), reply: make(chan error, 1)}
	select {
	case c.sends <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.ctx.Done():
		return errClosed
	}

	select {
	case err = <-req.reply:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.ctx.Done():
		return errClosed
	}
	c.metrics.Send(cmd.Action(), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
	}
	return err
}

// NextEvent blocks until the next event arrives. Heartbeats, state changes
// and subscription acknowledgements are consumed internally; state changes
// show up in Health instead. A closed connection is re-established
// transparently. Errors for a single frame, such as a decode failure, leave
// the session usable.
//
// Cancelling ctx abandons the call. A frame read on its behalf is returned
// by the next call.
func (c *Client) NextEvent(ctx context.Context) (events.Event, error) {
	p := pull{ctx: ctx, reply: make(chan pullResult)}
	select {
	case c.pulls <- p:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.ctx.Done():
		return nil, errClosed
	}

	select {
	case res := <-p.reply:
		return res.event, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.ctx.Done():
		return nil, errClosed
	}
}

// Health returns a snapshot of the connection and endpoint state.
func (c *Client) Health() Health {
	return c.health.get()
}

// ReconnectWeight returns the current reconnect weight.
func (c *Client) ReconnectWeight() float64 {
	return c.health.get().Weight
}

// Close ends the session. It sends a close frame, closes the socket and
// waits for both goroutines. Calls after Close fail with census.ErrClosed.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()
		<-c.writerDone
		if conn := c.live.Load(); conn != nil {
			_ = conn.Close()
		}
		<-c.readerDone
		c.health.update(func(h *Health) { h.Connected = false })
		c.metrics.Connected(false)
		log.Info(c.ctx, log.KV{K: "msg", V: "push session closed"})
	})
	return nil
}
