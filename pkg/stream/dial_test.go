package stream

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/ps2-census/census-stream/internal/fakepush"
	"github.com/ps2-census/census-stream/pkg/census"
)

func TestDialer_URL(t *testing.T) {
	var d Dialer
	got, err := d.URL(census.PS4EU, "example")
	require.NoError(t, err)

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "wss", u.Scheme)
	assert.Equal(t, "push.planetside2.com", u.Host)
	assert.Equal(t, "/streaming", u.Path)
	assert.Equal(t, "ps2ps4eu", u.Query().Get("environment"))
	assert.Equal(t, "s:example", u.Query().Get("service-id"))
}

func TestDialer_URLSchemes(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		insecure bool
		wantErr  bool
	}{
		{"Secure", "wss://example.com/streaming", false, false},
		{"PlainRefused", "ws://example.com/streaming", false, true},
		{"PlainAllowed", "ws://example.com/streaming", true, false},
		{"HTTP", "https://example.com/streaming", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Dialer{Endpoint: tt.endpoint, Insecure: tt.insecure}
			_, err := d.URL(census.PC, "example")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDial_WeightCheckedFirst(t *testing.T) {
	// No server behind the endpoint: the ceiling must fail without I/O.
	d := Dialer{Endpoint: "wss://127.0.0.1:1/streaming"}
	_, err := d.Dial(context.Background(), census.PC, "example", 10.5)
	assert.ErrorIs(t, err, census.ErrTooManyReconnects)
}

func TestDial_HandshakeRejected(t *testing.T) {
	_, d := startPush(t, fakepush.Config{})
	d.Endpoint += "/nowhere"

	_, err := d.Dial(context.Background(), census.PC, "example", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, census.ErrTransport)
	assert.Contains(t, err.Error(), "unable to connect to census events api")
	assert.Contains(t, err.Error(), "status 404")
}

func TestDial_Success(t *testing.T) {
	_, d := startPush(t, fakepush.Config{SkipGreeting: true})
	d.Limiter = rate.NewLimiter(rate.Inf, 1)

	conn, err := d.Dial(context.Background(), census.PS4US, "example", 0)
	require.NoError(t, err)
	defer conn.Close()

	_, wh := conn.Split()
	require.NoError(t, wh.WriteText([]byte(`{"service":"event","action":"echo","payload":{"a":"b"}}`)))
}

func TestDial_CancelledWhilePaced(t *testing.T) {
	_, d := startPush(t, fakepush.Config{SkipGreeting: true})
	d.Limiter = rate.NewLimiter(rate.Limit(0.001), 1)
	d.Limiter.Allow()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.Dial(ctx, census.PC, "example", 0)
	assert.ErrorIs(t, err, census.ErrTransport)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, errPacing)
}
