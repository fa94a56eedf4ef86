package stream

import (
	"github.com/ps2-census/census-stream/pkg/census"
)

// ReconnectPolicy is the circuit breaker for reconnects. Every reconnect
// adds Penalty to the client's weight, every non-heartbeat frame received
// subtracts DecayStep while the weight is above DecayFloor, and a dial with
// a weight above MaxWeight is refused. It is not a retry policy: the client
// never dials again on its own after a failed reconnect.
type ReconnectPolicy struct {
	MaxWeight  float64
	Penalty    float64
	DecayStep  float64
	DecayFloor float64
}

// DefaultPolicy allows ten back to back reconnects.
func DefaultPolicy() ReconnectPolicy {
	return ReconnectPolicy{
		MaxWeight:  10,
		Penalty:    1,
		DecayStep:  0.1,
		DecayFloor: 1,
	}
}

// Allow fails with census.KindReconnectLimit when weight exceeds MaxWeight.
func (p ReconnectPolicy) Allow(weight float64) error {
	if weight > p.MaxWeight {
		return census.New(census.KindReconnectLimit, "connection dropped too many times")
	}
	return nil
}

// Penalize returns the weight after one more reconnect.
func (p ReconnectPolicy) Penalize(weight float64) float64 {
	return weight + p.Penalty
}

// Decay returns the weight after one successfully received frame.
func (p ReconnectPolicy) Decay(weight float64) float64 {
	if weight <= p.DecayFloor {
		return weight
	}
	weight -= p.DecayStep
	if weight < p.DecayFloor {
		weight = p.DecayFloor
	}
	return weight
}
