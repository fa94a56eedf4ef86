package stream

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"goa.design/clue/log"

	"github.com/ps2-census/census-stream/pkg/census"
	"github.com/ps2-census/census-stream/pkg/events"
)

// pull asks the reader for the next event on behalf of one NextEvent call.
type pull struct {
	ctx   context.Context
	reply chan pullResult
}

type pullResult struct {
	event events.Event
	err   error
}

// reader is the state owned by the reader goroutine.
type reader struct {
	c       *Client
	conn    *Conn
	half    *ReadHalf
	weight  float64
	pending *pullResult
	fatal   error
}

func (c *Client) runReader(half *ReadHalf) {
	defer close(c.readerDone)
	r := &reader{c: c, conn: c.live.Load(), half: half}
	defer r.drop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case p := <-c.pulls:
			var res pullResult
			if r.pending != nil {
				res, r.pending = *r.pending, nil
			} else {
				res = r.next(p.ctx)
			}
			select {
			case p.reply <- res:
			case <-p.ctx.Done():
				if keep(res) {
					r.pending = &res
				}
			case <-c.ctx.Done():
				return
			}
		}
	}
}

// keep reports whether a result produced for an abandoned pull must be
// handed to the next one. Errors caused by the abandoning itself are not.
func keep(res pullResult) bool {
	if res.event != nil {
		return true
	}
	return !errors.Is(res.err, context.Canceled) && !errors.Is(res.err, context.DeadlineExceeded)
}

// next reads frames until one produces an event or an error for the caller.
func (r *reader) next(ctx context.Context) pullResult {
	for {
		if r.fatal != nil {
			return pullResult{err: r.fatal}
		}
		if r.c.ctx.Err() != nil {
			return pullResult{err: errClosed}
		}
		if r.half == nil {
			if err := r.reconnect(ctx); err != nil {
				return pullResult{err: err}
			}
			continue
		}

		frame, err := r.half.Next()
		if err != nil {
			r.drop()
			if r.c.ctx.Err() != nil {
				return pullResult{err: errClosed}
			}
			log.Error(r.c.ctx, err, log.KV{K: "msg", V: "push connection lost"})
			return pullResult{err: err}
		}
		if frame.Closed {
			log.Info(r.c.ctx,
				log.KV{K: "msg", V: "push service closed the connection"},
				log.KV{K: "code", V: frame.CloseCode})
			r.drop()
			continue
		}

		if res, ok := r.handle(frame.Data); ok {
			return res
		}
	}
}

// handle classifies one frame. ok is false when the frame was consumed
// without producing anything for the caller.
func (r *reader) handle(data []byte) (res pullResult, ok bool) {
	kind, typ, err := classify(data)
	r.c.metrics.Frame(kind.label())
	log.Debug(r.c.ctx, log.KV{K: "frame", V: kind.label()})

	switch kind {
	case frameHeartbeat:
		r.c.health.heartbeat(data, time.Now())
		return pullResult{}, false

	case frameServiceState:
		r.decay()
		ev, err := events.DecodeServiceState(data)
		if err != nil {
			log.Debugf(r.c.ctx, "ignoring malformed service state frame: %v", err)
			return pullResult{}, false
		}
		r.c.health.serviceState(ev)
		return pullResult{}, false

	case frameConnectionState:
		r.decay()
		ev, err := events.DecodeConnectionState(data)
		if err != nil {
			log.Debugf(r.c.ctx, "ignoring malformed connection state frame: %v", err)
			return pullResult{}, false
		}
		log.Debug(r.c.ctx, log.KV{K: "msg", V: "connection state"}, log.KV{K: "connected", V: ev.Connected})
		return pullResult{}, false

	case frameAck, frameHelp:
		r.decay()
		return pullResult{}, false

	case frameServiceMessage:
		r.decay()
		ev, err := events.DecodeServiceMessage(data)
		if err != nil {
			r.c.metrics.DecodeError(census.KindOf(err).String())
			log.Debugf(r.c.ctx, "dropping undecodable service message: %v", err)
			return pullResult{err: err}, true
		}
		r.c.metrics.Event(string(ev.EventName()), events.FamilyOf(ev.EventName()).String())
		return pullResult{event: ev}, true
	}

	log.Debugf(r.c.ctx, "unexpected frame (type %q): %v", typ, err)
	return pullResult{err: err}, true
}

func (r *reader) decay() {
	w := r.c.policy.Decay(r.weight)
	if w == r.weight {
		return
	}
	r.setWeight(w)
}

func (r *reader) setWeight(w float64) {
	r.weight = w
	r.c.metrics.Weight(w)
	r.c.health.update(func(h *Health) { h.Weight = w })
}

// drop closes the current socket, if any.
func (r *reader) drop() {
	if r.conn == nil {
		return
	}
	_ = r.conn.Close()
	r.conn, r.half = nil, nil
	r.c.metrics.Connected(false)
	r.c.health.update(func(h *Health) { h.Connected = false })
}

// reconnect dials a replacement connection and hands its write half to the
// writer. A refusal by the reconnect policy is terminal.
func (r *reader) reconnect(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(r.c.ctx, cancel)
	defer stop()

	prev := r.weight
	r.setWeight(r.c.policy.Penalize(prev))

	ctx, span := tracer.Start(ctx, "census.reconnect")
	defer span.End()
	span.SetAttributes(
		attribute.String("census.environment", string(r.c.env)),
		attribute.Float64("census.reconnect_weight", r.weight),
	)

	log.Info(r.c.ctx, log.KV{K: "msg", V: "reconnecting"}, log.KV{K: "weight", V: r.weight})
	conn, err := r.c.dialer.Dial(ctx, r.c.env, r.c.serviceID, r.weight)
	r.c.metrics.Reconnect(err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reconnect failed")
		if census.KindOf(err) == census.KindReconnectLimit {
			r.fatal = census.Wrap(census.KindReconnectLimit, "could not reconnect to census api", err)
			log.Error(r.c.ctx, r.fatal, log.KV{K: "weight", V: r.weight})
			return r.fatal
		}
		if r.c.ctx.Err() != nil {
			return errClosed
		}
		if notAttempted(ctx, err) {
			// Pacing or the caller gave up: not a reconnect attempt.
			r.setWeight(prev)
		}
		log.Error(r.c.ctx, err, log.KV{K: "msg", V: "reconnect failed"})
		return census.Wrap(census.KindTransport, "could not reconnect to census api", err)
	}

	half, wh := conn.Split()
	r.conn, r.half = conn, half
	r.c.live.Store(conn)
	r.c.metrics.Connected(true)
	r.c.health.update(func(h *Health) {
		h.Connected = true
		h.Reconnects++
	})

	select {
	case r.c.swaps <- wh:
	case <-r.c.ctx.Done():
	}
	return nil
}

// notAttempted reports whether a failed dial ended on the caller's context
// or on dial pacing rather than on the service.
func notAttempted(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, errPacing) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
