package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/ps2-census/census-stream/pkg/census"
	"github.com/ps2-census/census-stream/pkg/command"
	"github.com/ps2-census/census-stream/pkg/events"
	"github.com/ps2-census/census-stream/pkg/stream"
)

type Config struct {
	Census       CensusConfig       `yaml:"census"`
	Reconnect    ReconnectConfig    `yaml:"reconnect"`
	Subscription SubscriptionConfig `yaml:"subscription"`
	Log          LogConfig          `yaml:"log"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

type CensusConfig struct {
	Environment      string        `yaml:"environment" env:"CENSUS_ENVIRONMENT"`
	ServiceID        string        `yaml:"service_id" env:"CENSUS_SERVICE_ID"`
	Endpoint         string        `yaml:"endpoint" env:"CENSUS_ENDPOINT"`
	Insecure         bool          `yaml:"insecure"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
}

type ReconnectConfig struct {
	MaxWeight  float64 `yaml:"max_weight"`
	Penalty    float64 `yaml:"penalty"`
	DecayStep  float64 `yaml:"decay_step"`
	DecayFloor float64 `yaml:"decay_floor"`
	// DialInterval paces dials; zero means unlimited.
	DialInterval time.Duration `yaml:"dial_interval"`
	DialBurst    int           `yaml:"dial_burst"`
}

type SubscriptionConfig struct {
	Events     []string `yaml:"events"`
	Characters []string `yaml:"characters"`
	Worlds     []string `yaml:"worlds"`
	LogicalAnd bool     `yaml:"logical_and"`
}

type LogConfig struct {
	// Format is "terminal", "json" or "auto" (terminal on a TTY).
	Format string `yaml:"format"`
	Debug  bool   `yaml:"debug" env:"CENSUS_DEBUG"`
}

type MetricsConfig struct {
	// Addr is where /metrics is served; empty disables it.
	Addr string `yaml:"addr" env:"CENSUS_METRICS_ADDR"`
}

func defaultConfig() *Config {
	p := stream.DefaultPolicy()
	return &Config{
		Census: CensusConfig{
			Environment:      string(census.PC),
			Endpoint:         stream.DefaultEndpoint,
			HandshakeTimeout: 10 * time.Second,
			WriteTimeout:     10 * time.Second,
		},
		Reconnect: ReconnectConfig{
			MaxWeight:  p.MaxWeight,
			Penalty:    p.Penalty,
			DecayStep:  p.DecayStep,
			DecayFloor: p.DecayFloor,
			DialBurst:  1,
		},
		Subscription: SubscriptionConfig{
			Events: []string{"all"},
			Worlds: []string{command.AllWorlds},
		},
		Log: LogConfig{
			Format: "auto",
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields needed to connect.
func (c *Config) Validate() error {
	var errs []error
	if _, err := census.ParseEnvironment(c.Census.Environment); err != nil {
		errs = append(errs, err)
	}
	if c.Census.ServiceID == "" {
		errs = append(errs, errors.New("census.service_id is required (or set CENSUS_SERVICE_ID)"))
	}
	if c.Reconnect.MaxWeight <= 0 {
		errs = append(errs, errors.New("reconnect.max_weight must be positive"))
	}
	if c.Reconnect.Penalty <= 0 {
		errs = append(errs, errors.New("reconnect.penalty must be positive"))
	}
	if c.Reconnect.DecayStep < 0 {
		errs = append(errs, errors.New("reconnect.decay_step must not be negative"))
	}
	for _, n := range c.Subscription.Events {
		if n == "all" {
			continue
		}
		if _, ok := events.ParseName(n); !ok {
			errs = append(errs, fmt.Errorf("subscription.events: unknown event %q", n))
		}
	}
	switch c.Log.Format {
	case "auto", "terminal", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Environment returns the parsed push environment.
func (c *Config) Environment() census.Environment {
	env, err := census.ParseEnvironment(c.Census.Environment)
	if err != nil {
		return census.PC
	}
	return env
}

// Policy returns the reconnect policy.
func (c *Config) Policy() stream.ReconnectPolicy {
	return stream.ReconnectPolicy{
		MaxWeight:  c.Reconnect.MaxWeight,
		Penalty:    c.Reconnect.Penalty,
		DecayStep:  c.Reconnect.DecayStep,
		DecayFloor: c.Reconnect.DecayFloor,
	}
}

// Dialer builds the stream dialer for this configuration.
func (c *Config) Dialer() *stream.Dialer {
	p := c.Policy()
	d := &stream.Dialer{
		Endpoint:         c.Census.Endpoint,
		Insecure:         c.Census.Insecure,
		HandshakeTimeout: c.Census.HandshakeTimeout,
		WriteTimeout:     c.Census.WriteTimeout,
		Policy:           &p,
	}
	if c.Reconnect.DialInterval > 0 {
		burst := c.Reconnect.DialBurst
		if burst < 1 {
			burst = 1
		}
		d.Limiter = rate.NewLimiter(rate.Every(c.Reconnect.DialInterval), burst)
	}
	return d
}

// Subscribe returns the subscription to send after connecting.
func (c *Config) Subscribe() command.Subscribe {
	names := make([]events.Name, 0, len(c.Subscription.Events))
	for _, n := range c.Subscription.Events {
		names = append(names, events.Name(n))
	}
	return command.Subscribe{
		EventNames:                     names,
		Characters:                     c.Subscription.Characters,
		Worlds:                         c.Subscription.Worlds,
		LogicalAndCharactersWithWorlds: command.Bool(c.Subscription.LogicalAnd),
	}
}
