package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(WithRegistry(reg), WithNamespace("test"))

	c.Frame("heartbeat")
	c.Frame("heartbeat")
	c.Frame("serviceMessage")
	c.Event("Death", "character")
	c.DecodeError("decode")
	c.Send("subscribe", nil)
	c.Send("subscribe", errors.New("boom"))
	c.Reconnect(nil)
	c.Weight(2.5)
	c.Connected(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.frames.WithLabelValues("heartbeat")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.frames.WithLabelValues("serviceMessage")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.events.WithLabelValues("Death", "character")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.decodeErrors.WithLabelValues("decode")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.sends.WithLabelValues("subscribe", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.sends.WithLabelValues("subscribe", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.reconnects.WithLabelValues("ok")))
	assert.Equal(t, 2.5, testutil.ToFloat64(c.weight))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.connected))

	n, err := testutil.GatherAndCount(reg, "test_stream_frames_total")
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.Frame("heartbeat")
		c.Event("Death", "character")
		c.DecodeError("decode")
		c.Send("echo", nil)
		c.Reconnect(nil)
		c.Weight(1)
		c.Connected(false)
	})
}
