package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ps2-census/census-stream/pkg/census"
	"github.com/ps2-census/census-stream/pkg/events"
	"github.com/ps2-census/census-stream/pkg/stream"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "ps2", cfg.Census.Environment)
	assert.Equal(t, stream.DefaultEndpoint, cfg.Census.Endpoint)
	assert.Equal(t, 10*time.Second, cfg.Census.HandshakeTimeout)
	assert.Equal(t, stream.DefaultPolicy(), cfg.Policy())
	assert.Equal(t, []string{"all"}, cfg.Subscription.Events)
	assert.Equal(t, "auto", cfg.Log.Format)
	assert.Empty(t, cfg.Metrics.Addr)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
census:
  environment: ps4eu
  service_id: example
  handshake_timeout: 3s
reconnect:
  max_weight: 5
  dial_interval: 500ms
  dial_burst: 2
subscription:
  events: [Death, PlayerLogin]
  worlds: ["13"]
  logical_and: true
log:
  format: json
metrics:
  addr: ":9100"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, census.PS4EU, cfg.Environment())
	assert.Equal(t, "example", cfg.Census.ServiceID)
	assert.Equal(t, 3*time.Second, cfg.Census.HandshakeTimeout)
	assert.Equal(t, 10*time.Second, cfg.Census.WriteTimeout, "unset keys keep their default")
	assert.Equal(t, 5.0, cfg.Reconnect.MaxWeight)
	assert.Equal(t, 1.0, cfg.Reconnect.Penalty)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)

	d := cfg.Dialer()
	require.NotNil(t, d.Policy)
	assert.Equal(t, 5.0, d.Policy.MaxWeight)
	require.NotNil(t, d.Limiter)
	assert.Equal(t, 2, d.Limiter.Burst())

	sub := cfg.Subscribe()
	assert.Equal(t, []events.Name{events.NameDeath, events.NamePlayerLogin}, sub.EventNames)
	assert.Equal(t, []string{"13"}, sub.Worlds)
	require.NotNil(t, sub.LogicalAndCharactersWithWorlds)
	assert.True(t, *sub.LogicalAndCharactersWithWorlds)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
census:
  environment: ps2
  service_id: from-file
`)
	t.Setenv("CENSUS_SERVICE_ID", "from-env")
	t.Setenv("CENSUS_ENVIRONMENT", "ps4us")
	t.Setenv("CENSUS_ENDPOINT", "wss://localhost:1234/streaming")
	t.Setenv("CENSUS_METRICS_ADDR", "127.0.0.1:9200")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Census.ServiceID)
	assert.Equal(t, census.PS4US, cfg.Environment())
	assert.Equal(t, "wss://localhost:1234/streaming", cfg.Census.Endpoint)
	assert.Equal(t, "127.0.0.1:9200", cfg.Metrics.Addr)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "census: [not, a, map]"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"Valid", func(*Config) {}, ""},
		{"MissingServiceID", func(c *Config) { c.Census.ServiceID = "" }, "service_id is required"},
		{"BadEnvironment", func(c *Config) { c.Census.Environment = "ps3" }, "unknown environment"},
		{"ZeroCeiling", func(c *Config) { c.Reconnect.MaxWeight = 0 }, "max_weight"},
		{"ZeroPenalty", func(c *Config) { c.Reconnect.Penalty = 0 }, "penalty"},
		{"NegativeDecay", func(c *Config) { c.Reconnect.DecayStep = -1 }, "decay_step"},
		{"UnknownEvent", func(c *Config) { c.Subscription.Events = []string{"PlayerDance"} }, "unknown event"},
		{"BadLogFormat", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Census.ServiceID = "example"
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDialerWithoutPacing(t *testing.T) {
	cfg := defaultConfig()
	assert.Nil(t, cfg.Dialer().Limiter)
}
